package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"engage_backend/internal/service"
	"engage_backend/internal/util"
)

type SurveyController struct {
	SurveyService *service.SurveyService
	LinkService   *service.SurveyLinkService
}

func NewSurveyController(surveyService *service.SurveyService, linkService *service.SurveyLinkService) *SurveyController {
	return &SurveyController{SurveyService: surveyService, LinkService: linkService}
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func pageParams(ctx *gin.Context) (page, perPage int) {
	page, _ = strconv.Atoi(ctx.DefaultQuery("page", "1"))
	perPage, _ = strconv.Atoi(ctx.DefaultQuery("per_page", "20"))
	return page, perPage
}

// Create godoc
// @Summary 创建问卷
// @Description 创建问卷及其题目，仅管理员可用
// @Tags 问卷
// @Accept  json
// @Produce  json
// @Param   body body service.CreateSurveyReq true "问卷定义"
// @Success 201 {object} util.Response{data=model.Survey}
// @Failure 400 {object} util.Response "题目元数据不合法"
// @Failure 403 {object} util.Response "权限不足"
// @Router /api/surveys [post]
func (c *SurveyController) Create(ctx *gin.Context) {
	var req service.CreateSurveyReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	survey, err := c.SurveyService.Create(ctx.Request.Context(), util.GetUserFromContext(ctx), &req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Created(ctx, survey)
}

// List godoc
// @Summary 问卷列表
// @Tags 问卷
// @Produce  json
// @Param   page query int false "页码"
// @Param   per_page query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/surveys [get]
func (c *SurveyController) List(ctx *gin.Context) {
	page, perPage := pageParams(ctx)
	surveys, total, err := c.SurveyService.List(ctx.Request.Context(), util.GetUserFromContext(ctx), page, perPage)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: surveys, Total: total, Page: page, PerPage: perPage})
}

// Get godoc
// @Summary 问卷详情
// @Description 返回问卷、题目与预估答题时长
// @Tags 问卷
// @Produce  json
// @Param   id path int true "问卷 ID"
// @Success 200 {object} util.Response{data=service.SurveyDetail}
// @Failure 404 {object} util.Response
// @Router /api/surveys/{id} [get]
func (c *SurveyController) Get(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	detail, err := c.SurveyService.Get(ctx.Request.Context(), id)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// Update godoc
// @Summary 更新问卷
// @Tags 问卷
// @Accept  json
// @Produce  json
// @Param   id path int true "问卷 ID"
// @Param   body body service.UpdateSurveyReq true "更新内容"
// @Success 200 {object} util.Response{data=model.Survey}
// @Failure 403 {object} util.Response
// @Router /api/surveys/{id} [put]
func (c *SurveyController) Update(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req service.UpdateSurveyReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	survey, err := c.SurveyService.Update(ctx.Request.Context(), util.GetUserFromContext(ctx), id, &req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, survey)
}

// Delete godoc
// @Summary 删除问卷
// @Tags 问卷
// @Produce  json
// @Param   id path int true "问卷 ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/surveys/{id} [delete]
func (c *SurveyController) Delete(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := c.SurveyService.Delete(ctx.Request.Context(), util.GetUserFromContext(ctx), id); err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ReorderRequest 重排请求：题目 ID 按新顺序排列
type ReorderRequest struct {
	QuestionIDs []uint `json:"question_ids" binding:"required"`
}

// Reorder godoc
// @Summary 重排问卷题目
// @Description 按给定顺序重排题目，条件逻辑里镜像的序号引用会同步改写
// @Tags 问卷
// @Accept  json
// @Produce  json
// @Param   id path int true "问卷 ID"
// @Param   body body ReorderRequest true "新顺序"
// @Success 200 {object} util.Response{data=model.Survey}
// @Failure 400 {object} util.Response "题目集合不匹配"
// @Router /api/surveys/{id}/reorder [post]
func (c *SurveyController) Reorder(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req ReorderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	survey, err := c.SurveyService.Reorder(ctx.Request.Context(), util.GetUserFromContext(ctx), id, req.QuestionIDs)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, survey)
}

// CreateLink godoc
// @Summary 创建分发链接
// @Tags 问卷
// @Accept  json
// @Produce  json
// @Param   id path int true "问卷 ID"
// @Param   body body service.CreateLinkReq true "链接配置"
// @Success 201 {object} util.Response{data=model.SurveyLink}
// @Router /api/surveys/{id}/links [post]
func (c *SurveyController) CreateLink(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req service.CreateLinkReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	link, err := c.LinkService.Create(ctx.Request.Context(), util.GetUserFromContext(ctx), id, &req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Created(ctx, link)
}

// ListLinks godoc
// @Summary 分发链接列表
// @Tags 问卷
// @Produce  json
// @Param   id path int true "问卷 ID"
// @Success 200 {object} util.Response{data=[]model.SurveyLink}
// @Router /api/surveys/{id}/links [get]
func (c *SurveyController) ListLinks(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	links, err := c.LinkService.List(ctx.Request.Context(), util.GetUserFromContext(ctx), id)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, links)
}

// UpdateLink godoc
// @Summary 更新分发链接
// @Tags 问卷
// @Accept  json
// @Produce  json
// @Param   id path int true "问卷 ID"
// @Param   linkId path int true "链接 ID"
// @Param   body body service.UpdateLinkReq true "更新内容"
// @Success 200 {object} util.Response{data=model.SurveyLink}
// @Router /api/surveys/{id}/links/{linkId} [put]
func (c *SurveyController) UpdateLink(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	linkID, ok := pathID(ctx, "linkId")
	if !ok {
		return
	}
	var req service.UpdateLinkReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	link, err := c.LinkService.Update(ctx.Request.Context(), util.GetUserFromContext(ctx), id, linkID, &req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, link)
}

// DeleteLink godoc
// @Summary 删除分发链接
// @Tags 问卷
// @Produce  json
// @Param   id path int true "问卷 ID"
// @Param   linkId path int true "链接 ID"
// @Success 200 {object} util.Response
// @Router /api/surveys/{id}/links/{linkId} [delete]
func (c *SurveyController) DeleteLink(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	linkID, ok := pathID(ctx, "linkId")
	if !ok {
		return
	}
	if err := c.LinkService.Delete(ctx.Request.Context(), util.GetUserFromContext(ctx), id, linkID); err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ResolveLink godoc
// @Summary 按分享码取问卷
// @Description 参与端通过链接短码获取问卷入口
// @Tags 问卷
// @Produce  json
// @Param   code path string true "分享码"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response "链接未审批"
// @Failure 404 {object} util.Response
// @Router /api/links/{code} [get]
func (c *SurveyController) ResolveLink(ctx *gin.Context) {
	link, survey, err := c.LinkService.ResolveCode(ctx.Request.Context(), ctx.Param("code"))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"link": link, "survey": survey})
}
