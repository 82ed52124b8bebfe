package controller

import (
	"github.com/gin-gonic/gin"

	"engage_backend/internal/service"
	"engage_backend/internal/util"
)

type UploadController struct {
	StorageService *service.StorageService
}

func NewUploadController(storageService *service.StorageService) *UploadController {
	return &UploadController{StorageService: storageService}
}

// Upload godoc
// @Summary 上传文件
// @Description 文件题的附件上传，返回的 url 随答案载荷一起提交
// @Tags 文件
// @Accept  multipart/form-data
// @Produce  json
// @Param   file formData file true "文件"
// @Success 201 {object} util.Response{data=service.StoredFile}
// @Failure 400 {object} util.Response "文件类型不允许"
// @Router /api/uploads [post]
func (c *UploadController) Upload(ctx *gin.Context) {
	header, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	stored, err := c.StorageService.SaveUpload(ctx.Request.Context(), header)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, stored)
}
