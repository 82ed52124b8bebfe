package controller

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"engage_backend/internal/util"
)

func statusFor(t *testing.T, err error) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	respondServiceError(ctx, err)
	return rec.Code
}

func TestServiceErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{util.ErrAuthRequired, http.StatusUnauthorized},
		{util.ErrSurveyClosed, http.StatusForbidden},
		{util.ErrSurveyLimitReached, http.StatusForbidden},
		{util.ErrLinkLimitReached, http.StatusForbidden},
		{util.ErrLinkNotApproved, http.StatusForbidden},
		{util.ErrAudienceDenied, http.StatusForbidden},
		{util.ErrPermissionDenied, http.StatusForbidden},
		{util.ErrDuplicateSubmission, http.StatusBadRequest},
		{util.ErrInvalidAnswerShape, http.StatusBadRequest},
		{util.ErrUnsupportedFormat, http.StatusBadRequest},
		{util.ErrSurveyNotFound, http.StatusNotFound},
		{util.ErrQuestionNotFound, http.StatusNotFound},
		{util.ErrSubmissionNotFound, http.StatusNotFound},
		{util.ErrEmailRegistered, http.StatusConflict},
	}
	for _, c := range cases {
		if got := statusFor(t, c.err); got != c.want {
			t.Errorf("%v: status = %d, want %d", c.err, got, c.want)
		}
	}
}
