package util

import "errors"

var (
	ErrUserNotFound        = errors.New("用户不存在")
	ErrEmailRegistered     = errors.New("该邮箱已被注册")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrAuthRequired        = errors.New("authentication required")
	ErrSurveyNotFound      = errors.New("survey not found")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrSurveyClosed        = errors.New("survey is not accepting submissions")
	ErrSurveyLimitReached  = errors.New("survey participant limit reached")
	ErrLinkLimitReached    = errors.New("survey link response limit reached")
	ErrLinkNotApproved     = errors.New("survey link not approved")
	ErrDuplicateSubmission = errors.New("user already has a completed submission for this survey")
	ErrInvalidAnswerShape  = errors.New("answer payload incompatible with question type")
	ErrAudienceDenied      = errors.New("user is not in the survey audience")
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrUnsupportedFormat   = errors.New("unsupported export format")
)
