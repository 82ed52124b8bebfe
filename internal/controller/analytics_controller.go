package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"engage_backend/internal/model"
	"engage_backend/internal/service"
	"engage_backend/internal/util"
)

type AnalyticsController struct {
	AnalyticsService *service.AnalyticsService
	ExportService    *service.ExportService
}

func NewAnalyticsController(analyticsService *service.AnalyticsService, exportService *service.ExportService) *AnalyticsController {
	return &AnalyticsController{AnalyticsService: analyticsService, ExportService: exportService}
}

// SurveyAnalytics godoc
// @Summary 整卷统计
// @Description 逐题统计文档，单题出错不影响其余题目
// @Tags 统计
// @Produce  json
// @Param   id path int true "问卷 ID"
// @Success 200 {object} util.Response{data=model.SurveyAnalytics}
// @Failure 404 {object} util.Response
// @Router /api/surveys/{id}/analytics [get]
func (c *AnalyticsController) SurveyAnalytics(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	doc, err := c.AnalyticsService.SurveyAnalytics(ctx.Request.Context(), id, nil)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, doc)
}

// QuestionAnalytics godoc
// @Summary 单题统计
// @Tags 统计
// @Produce  json
// @Param   id path int true "问卷 ID"
// @Param   qid path int true "题目 ID"
// @Success 200 {object} util.Response{data=model.QuestionAnalytics}
// @Failure 404 {object} util.Response
// @Router /api/surveys/{id}/questions/{qid}/analytics [get]
func (c *AnalyticsController) QuestionAnalytics(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	qid, ok := pathID(ctx, "qid")
	if !ok {
		return
	}
	doc, err := c.AnalyticsService.QuestionAnalytics(ctx.Request.Context(), id, qid, nil)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, doc)
}

// FilterRequest 过滤统计请求。各维度可传单值或数组，维度之间取交集。
type FilterRequest struct {
	Filters *model.AnalyticsFilters `json:"filters"`
}

// FilteredAnalytics godoc
// @Summary 按人口统计过滤的整卷统计
// @Description 过滤后无提交时返回 total_responses=0 的空文档，不报错
// @Tags 统计
// @Accept  json
// @Produce  json
// @Param   id path int true "问卷 ID"
// @Param   body body FilterRequest true "过滤条件"
// @Success 200 {object} util.Response{data=model.SurveyAnalytics}
// @Failure 404 {object} util.Response
// @Router /api/surveys/{id}/analytics/filter [post]
func (c *AnalyticsController) FilteredAnalytics(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req FilterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	doc, err := c.AnalyticsService.SurveyAnalytics(ctx.Request.Context(), id, req.Filters)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, doc)
}

// Export godoc
// @Summary 导出提交
// @Description 每条提交一行的平面表格，支持 csv 和 xlsx
// @Tags 统计
// @Produce  application/octet-stream
// @Param   id path int true "问卷 ID"
// @Param   format query string false "csv 或 xlsx，默认 csv"
// @Success 200 {file} binary
// @Failure 400 {object} util.Response "不支持的格式"
// @Failure 404 {object} util.Response
// @Router /api/surveys/{id}/export [get]
func (c *AnalyticsController) Export(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	result, err := c.ExportService.Export(ctx.Request.Context(), id, ctx.Query("format"))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	ctx.Data(http.StatusOK, result.ContentType, result.Data)
}
