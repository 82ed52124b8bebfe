package controller

import (
	"github.com/gin-gonic/gin"

	"engage_backend/internal/service"
	"engage_backend/internal/util"
)

type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// Profile godoc
// @Summary 当前用户资料
// @Tags 用户
// @Produce  json
// @Success 200 {object} util.Response{data=model.User}
// @Failure 401 {object} util.Response
// @Router /api/me [get]
func (c *UserController) Profile(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	user, err := c.UserService.GetProfile(ctx.Request.Context(), claims.UserID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// UpdateProfile godoc
// @Summary 更新资料
// @Description 更新姓名和人口统计信息；后续提交的快照使用新值
// @Tags 用户
// @Accept  json
// @Produce  json
// @Param   body body service.UpdateProfileReq true "资料更新"
// @Success 200 {object} util.Response{data=model.User}
// @Router /api/me [put]
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	var req service.UpdateProfileReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	user, err := c.UserService.UpdateProfile(ctx.Request.Context(), claims.UserID, &req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// XPSummary godoc
// @Summary 激励概览
// @Tags 用户
// @Produce  json
// @Success 200 {object} util.Response{data=service.XPSummary}
// @Router /api/me/xp [get]
func (c *UserController) XPSummary(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	summary, err := c.UserService.XPSummary(ctx.Request.Context(), claims.UserID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// XPHistory godoc
// @Summary 经验值流水
// @Tags 用户
// @Produce  json
// @Param   page query int false "页码"
// @Param   per_page query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/me/xp/history [get]
func (c *UserController) XPHistory(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	page, perPage := pageParams(ctx)
	events, total, err := c.UserService.XPHistory(ctx.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: events, Total: total, Page: page, PerPage: perPage})
}
