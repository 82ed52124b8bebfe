package controller

import (
	"github.com/gin-gonic/gin"

	"engage_backend/internal/service"
	"engage_backend/internal/util"
)

type ResponseController struct {
	SubmissionService *service.SubmissionService
}

func NewResponseController(submissionService *service.SubmissionService) *ResponseController {
	return &ResponseController{SubmissionService: submissionService}
}

// Submit godoc
// @Summary 提交答卷
// @Description 校验问卷状态后落库一次提交。普通用户对同一问卷只能有一次完整提交。
// @Tags 答卷
// @Accept  json
// @Produce  json
// @Param   id path int true "问卷 ID"
// @Param   body body service.SubmitSurveyReq true "逐题答案，键为题目序号"
// @Success 201 {object} util.Response{data=object} "提交成功"
// @Failure 400 {object} util.Response "重复提交或问卷已关闭"
// @Failure 403 {object} util.Response "参与上限或受众限制"
// @Failure 404 {object} util.Response "问卷不存在"
// @Router /api/surveys/{id}/responses [post]
func (c *ResponseController) Submit(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req service.SubmitSurveyReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.UserAgent == "" {
		req.UserAgent = ctx.GetHeader("User-Agent")
	}

	sub, err := c.SubmissionService.Submit(ctx.Request.Context(), id, util.GetUserFromContext(ctx), &req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"submission_id": sub.ID, "is_complete": sub.IsComplete})
}

// List godoc
// @Summary 原始提交列表
// @Description 分页返回提交信封及逐题答案，含人口统计快照
// @Tags 答卷
// @Produce  json
// @Param   id path int true "问卷 ID"
// @Param   page query int false "页码"
// @Param   per_page query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Failure 404 {object} util.Response
// @Router /api/surveys/{id}/responses [get]
func (c *ResponseController) List(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	page, perPage := pageParams(ctx)
	submissions, total, err := c.SubmissionService.ListSubmissions(ctx.Request.Context(), id, page, perPage)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: submissions, Total: total, Page: page, PerPage: perPage})
}
