package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"engage_backend/internal/util"
)

// respondServiceError 把服务层的业务错误映射到 HTTP 状态码，
// 未识别的错误按 500 处理并记日志
func respondServiceError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrSurveyNotFound),
		errors.Is(err, util.ErrQuestionNotFound),
		errors.Is(err, util.ErrUserNotFound),
		errors.Is(err, util.ErrSubmissionNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrDuplicateSubmission),
		errors.Is(err, util.ErrInvalidAnswerShape),
		errors.Is(err, util.ErrUnsupportedFormat):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrSurveyClosed),
		errors.Is(err, util.ErrSurveyLimitReached),
		errors.Is(err, util.ErrLinkLimitReached),
		errors.Is(err, util.ErrLinkNotApproved),
		errors.Is(err, util.ErrAudienceDenied),
		errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx, err.Error())
	case errors.Is(err, util.ErrAuthRequired):
		util.Unauthorized(ctx)
	case errors.Is(err, util.ErrEmailRegistered):
		util.Error(ctx, http.StatusConflict, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
