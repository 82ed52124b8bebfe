package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"engage_backend/internal/config"
	"engage_backend/internal/model"
	"engage_backend/internal/util"
)

// stubSubmissionStore 内存版数据访问,逐字段可控
type stubSubmissionStore struct {
	survey          *model.Survey
	link            *model.SurveyLink
	submissionCount int64
	linkCount       int64
	hasCompleted    bool
	user            *model.User

	created      *model.Submission
	createdAward *model.SubmissionAward
	createErr    error
}

func (s *stubSubmissionStore) GetSurveyWithQuestions(ctx context.Context, surveyID uint) (*model.Survey, error) {
	if s.survey == nil || s.survey.ID != surveyID {
		return nil, util.ErrSurveyNotFound
	}
	return s.survey, nil
}

func (s *stubSubmissionStore) GetSurveyLink(ctx context.Context, linkID uint) (*model.SurveyLink, error) {
	if s.link == nil || s.link.ID != linkID {
		return nil, util.ErrSurveyNotFound
	}
	return s.link, nil
}

func (s *stubSubmissionStore) CountSubmissions(ctx context.Context, surveyID uint) (int64, error) {
	return s.submissionCount, nil
}

func (s *stubSubmissionStore) CountLinkSubmissions(ctx context.Context, linkID uint) (int64, error) {
	return s.linkCount, nil
}

func (s *stubSubmissionStore) HasCompletedSubmission(ctx context.Context, userID, surveyID uint) (bool, error) {
	return s.hasCompleted, nil
}

func (s *stubSubmissionStore) GetUser(ctx context.Context, userID uint) (*model.User, error) {
	if s.user == nil {
		return nil, util.ErrUserNotFound
	}
	return s.user, nil
}

func (s *stubSubmissionStore) CreateSubmission(ctx context.Context, sub *model.Submission, award *model.SubmissionAward) error {
	if s.createErr != nil {
		return s.createErr
	}
	sub.ID = 100
	s.created = sub
	s.createdAward = award
	return nil
}

func (s *stubSubmissionStore) ListSubmissionsPage(ctx context.Context, surveyID uint, page, perPage int) ([]model.Submission, int64, error) {
	return nil, 0, nil
}

func rawJSON(s string) json.RawMessage {
	return json.RawMessage(s)
}

func testSurvey() *model.Survey {
	survey := &model.Survey{
		BusinessID: 7,
		Title:      "Community Pulse",
		Published:  true,
	}
	survey.ID = 1
	survey.Questions = []model.Question{
		{
			BaseModel:              model.BaseModel{ID: 10},
			SurveyID:               1,
			QuestionUUID:           "uuid-q1",
			QuestionText:           "Pick a color",
			QuestionType:           model.QuestionSingleChoice,
			SequenceNumber:         1,
			OriginalSequenceNumber: 1,
			Required:               true,
			Options:                rawJSON(`["Red","Green"]`),
		},
		{
			BaseModel:              model.BaseModel{ID: 11},
			SurveyID:               1,
			QuestionUUID:           "uuid-q2",
			QuestionText:           "Any comments?",
			QuestionType:           model.QuestionOpenEnded,
			SequenceNumber:         2,
			OriginalSequenceNumber: 2,
		},
	}
	return survey
}

func userClaims() *util.Claims {
	return &util.Claims{UserID: 42, Role: model.RoleUser}
}

func newTestSubmissionService(store *stubSubmissionStore) *SubmissionService {
	svc := NewSubmissionService(store, nil, config.RewardsConfig{XPPerQuestion: 5, MinutesPerQuestion: 0.5}, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestSubmitHappyPath(t *testing.T) {
	age := 30
	store := &stubSubmissionStore{
		survey: testSurvey(),
		user:   &model.User{Age: &age, Gender: "Female", Location: "Berlin", Education: "Master's", Company: "Globex"},
	}
	svc := newTestSubmissionService(store)

	sub, err := svc.Submit(context.Background(), 1, userClaims(), &SubmitSurveyReq{
		Responses: map[string]interface{}{"1": "Red", "2": "Looking good"},
		UserAgent: "Mozilla/5.0 (Windows NT 10.0) Chrome/125.0",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !sub.IsComplete {
		t.Error("submission should be complete")
	}
	if sub.CompletionKey == nil || *sub.CompletionKey != "42-1" {
		t.Errorf("completion key: %v", sub.CompletionKey)
	}
	if sub.AgeGroup != "25-34" || sub.Location != "Berlin" {
		t.Errorf("demographics: %+v", sub)
	}
	if sub.DeviceType != "desktop" || sub.BrowserInfo != "Chrome" {
		t.Errorf("device: %s %s", sub.DeviceType, sub.BrowserInfo)
	}
	if len(sub.Responses) != 2 {
		t.Fatalf("responses: %d", len(sub.Responses))
	}

	award := store.createdAward
	if award == nil {
		t.Fatal("complete first submission must carry an award")
	}
	if award.Points != 10 || award.ActivityType != model.ActivitySurveyCompleted || award.RelatedItemID != 1 {
		t.Errorf("award: %+v", award)
	}
	if award.BusinessID == nil || *award.BusinessID != 7 {
		t.Errorf("award business: %v", award.BusinessID)
	}
}

func TestSubmitRequiresAuth(t *testing.T) {
	svc := newTestSubmissionService(&stubSubmissionStore{survey: testSurvey()})
	if _, err := svc.Submit(context.Background(), 1, nil, &SubmitSurveyReq{}); !errors.Is(err, util.ErrAuthRequired) {
		t.Errorf("err = %v", err)
	}
}

func TestSubmitClosedSurvey(t *testing.T) {
	survey := testSurvey()
	past := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	survey.EndDate = &past
	svc := newTestSubmissionService(&stubSubmissionStore{survey: survey})

	_, err := svc.Submit(context.Background(), 1, userClaims(), &SubmitSurveyReq{Responses: map[string]interface{}{}})
	if !errors.Is(err, util.ErrSurveyClosed) {
		t.Errorf("err = %v", err)
	}
}

func TestSubmitUnpublishedSurvey(t *testing.T) {
	survey := testSurvey()
	survey.Published = false
	svc := newTestSubmissionService(&stubSubmissionStore{survey: survey})

	_, err := svc.Submit(context.Background(), 1, userClaims(), &SubmitSurveyReq{Responses: map[string]interface{}{}})
	if !errors.Is(err, util.ErrSurveyClosed) {
		t.Errorf("err = %v", err)
	}
}

func TestSubmitParticipantLimit(t *testing.T) {
	survey := testSurvey()
	limit := 50
	survey.ParticipantLimit = &limit
	svc := newTestSubmissionService(&stubSubmissionStore{survey: survey, submissionCount: 50})

	_, err := svc.Submit(context.Background(), 1, userClaims(), &SubmitSurveyReq{Responses: map[string]interface{}{}})
	if !errors.Is(err, util.ErrSurveyLimitReached) {
		t.Errorf("err = %v", err)
	}
}

func TestSubmitLinkChecks(t *testing.T) {
	linkID := uint(5)
	max := 10
	store := &stubSubmissionStore{survey: testSurvey()}
	store.link = &model.SurveyLink{SurveyID: 1, MaxResponses: &max, IsApproved: false}
	store.link.ID = linkID
	svc := newTestSubmissionService(store)
	req := &SubmitSurveyReq{Responses: map[string]interface{}{}, SurveyLinkID: &linkID}

	if _, err := svc.Submit(context.Background(), 1, userClaims(), req); !errors.Is(err, util.ErrLinkNotApproved) {
		t.Errorf("unapproved: %v", err)
	}

	store.link.IsApproved = true
	store.linkCount = 10
	if _, err := svc.Submit(context.Background(), 1, userClaims(), req); !errors.Is(err, util.ErrLinkLimitReached) {
		t.Errorf("link limit: %v", err)
	}

	store.link.SurveyID = 2
	if _, err := svc.Submit(context.Background(), 1, userClaims(), req); !errors.Is(err, util.ErrSurveyNotFound) {
		t.Errorf("mismatched link: %v", err)
	}
}

func TestSubmitLinkLabelBecomesCohortTag(t *testing.T) {
	linkID := uint(5)
	store := &stubSubmissionStore{survey: testSurvey(), user: &model.User{}}
	store.link = &model.SurveyLink{SurveyID: 1, Label: "Facebook", IsApproved: true}
	store.link.ID = linkID
	svc := newTestSubmissionService(store)

	req := &SubmitSurveyReq{
		Responses:    map[string]interface{}{"1": "Red", "2": "ok"},
		SurveyLinkID: &linkID,
	}
	if _, err := svc.Submit(context.Background(), 1, userClaims(), req); err != nil {
		t.Fatal(err)
	}
	if store.created.CohortTag != "Facebook" {
		t.Errorf("cohort tag = %q, want the link label", store.created.CohortTag)
	}

	// 无分发链接的提交不带人群标记
	store.created = nil
	if _, err := svc.Submit(context.Background(), 1, &util.Claims{UserID: 43, Role: model.RoleUser}, &SubmitSurveyReq{
		Responses: map[string]interface{}{"1": "Red"},
	}); err != nil {
		t.Fatal(err)
	}
	if store.created.CohortTag != "" {
		t.Errorf("cohort tag = %q, want empty", store.created.CohortTag)
	}
}

func TestSubmitDuplicateCompletion(t *testing.T) {
	svc := newTestSubmissionService(&stubSubmissionStore{survey: testSurvey(), hasCompleted: true})

	_, err := svc.Submit(context.Background(), 1, userClaims(), &SubmitSurveyReq{Responses: map[string]interface{}{}})
	if !errors.Is(err, util.ErrDuplicateSubmission) {
		t.Errorf("err = %v", err)
	}
}

func TestSubmitRestrictedAudience(t *testing.T) {
	survey := testSurvey()
	survey.IsRestricted = true
	age := 30
	store := &stubSubmissionStore{survey: survey, user: &model.User{Age: &age}}
	svc := newTestSubmissionService(store)

	outsider := &util.Claims{UserID: 42, Role: model.RoleUser}
	if _, err := svc.Submit(context.Background(), 1, outsider, &SubmitSurveyReq{Responses: map[string]interface{}{}}); !errors.Is(err, util.ErrAudienceDenied) {
		t.Errorf("outsider: %v", err)
	}

	biz := uint(7)
	member := &util.Claims{UserID: 42, Role: model.RoleUser, BusinessID: &biz}
	if _, err := svc.Submit(context.Background(), 1, member, &SubmitSurveyReq{
		Responses: map[string]interface{}{"1": "Red"},
	}); err != nil {
		t.Errorf("member: %v", err)
	}
}

func TestSubmitAdminGetsRandomDemographics(t *testing.T) {
	store := &stubSubmissionStore{survey: testSurvey()}
	svc := newTestSubmissionService(store)
	admin := &util.Claims{UserID: 1, Role: model.RoleSuperAdmin}

	sub, err := svc.Submit(context.Background(), 1, admin, &SubmitSurveyReq{
		Responses: map[string]interface{}{"1": "Red"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if sub.AgeGroup == "" || sub.Gender == "" || sub.Location == "" {
		t.Errorf("demographics must be stamped: %+v", sub)
	}
	// 管理员提交不占一人一卷,也不发经验值
	if sub.CompletionKey != nil {
		t.Error("admin submission must not carry a completion key")
	}
	if store.createdAward != nil {
		t.Error("admin submission must not award XP")
	}
}

func TestSubmitAIGeneratedSkipsDedup(t *testing.T) {
	store := &stubSubmissionStore{survey: testSurvey(), hasCompleted: true}
	svc := newTestSubmissionService(store)

	sub, err := svc.Submit(context.Background(), 1, userClaims(), &SubmitSurveyReq{
		Responses:     map[string]interface{}{"1": "Red"},
		IsAIGenerated: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !sub.IsAIGenerated || sub.CompletionKey != nil || store.createdAward != nil {
		t.Errorf("ai submission: key %v award %v", sub.CompletionKey, store.createdAward)
	}
}

func TestSubmitIncompleteWithoutRequiredAnswer(t *testing.T) {
	age := 25
	store := &stubSubmissionStore{survey: testSurvey(), user: &model.User{Age: &age}}
	svc := newTestSubmissionService(store)

	sub, err := svc.Submit(context.Background(), 1, userClaims(), &SubmitSurveyReq{
		Responses: map[string]interface{}{"2": "only the optional one"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if sub.IsComplete {
		t.Error("missing required answer must make submission incomplete")
	}
	if sub.CompletionKey != nil || store.createdAward != nil {
		t.Error("incomplete submission must not be awarded")
	}
}

func TestSubmitHiddenRequiredQuestionStillComplete(t *testing.T) {
	survey := testSurvey()
	survey.Questions[1].Required = true
	survey.Questions[1].ConditionalLogicRules = rawJSON(
		`{"baseQuestionOriginalSequence":1,"condition":"equals","value":"Green"}`)
	age := 25
	store := &stubSubmissionStore{survey: survey, user: &model.User{Age: &age}}
	svc := newTestSubmissionService(store)

	// 基题答 Red,第二题被隐藏,缺答不影响完整性
	sub, err := svc.Submit(context.Background(), 1, userClaims(), &SubmitSurveyReq{
		Responses: map[string]interface{}{"1": "Red"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !sub.IsComplete {
		t.Error("hidden required question must not block completeness")
	}
}

func TestSubmitInvalidShapeSkipped(t *testing.T) {
	age := 25
	store := &stubSubmissionStore{survey: testSurvey(), user: &model.User{Age: &age}}
	svc := newTestSubmissionService(store)

	// 单选题收到字典载荷:跳过该答案,但非空载荷不阻断完整性
	sub, err := svc.Submit(context.Background(), 1, userClaims(), &SubmitSurveyReq{
		Responses: map[string]interface{}{"1": map[string]interface{}{"bogus": true}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(sub.Responses) != 0 {
		t.Errorf("responses: %+v", sub.Responses)
	}
	if !sub.IsComplete {
		t.Error("malformed but non-empty payload must not block completeness")
	}
}

func TestSubmitPropagatesDuplicateKey(t *testing.T) {
	age := 25
	store := &stubSubmissionStore{
		survey:    testSurvey(),
		user:      &model.User{Age: &age},
		createErr: util.ErrDuplicateSubmission,
	}
	svc := newTestSubmissionService(store)

	_, err := svc.Submit(context.Background(), 1, userClaims(), &SubmitSurveyReq{
		Responses: map[string]interface{}{"1": "Red"},
	})
	if !errors.Is(err, util.ErrDuplicateSubmission) {
		t.Errorf("err = %v", err)
	}
}

func TestSurveyXPFallbacks(t *testing.T) {
	svc := newTestSubmissionService(&stubSubmissionStore{})

	withOwn := &model.Survey{XPPerQuestion: 10}
	if got := svc.SurveyXP(withOwn, 4); got != 40 {
		t.Errorf("survey override: %d", got)
	}
	if got := svc.SurveyXP(&model.Survey{}, 4); got != 20 {
		t.Errorf("config fallback: %d", got)
	}

	svc.UpdateRewards(config.RewardsConfig{})
	if got := svc.SurveyXP(&model.Survey{}, 4); got != 20 {
		t.Errorf("hard default: %d", got)
	}
}

func TestEstimatedMinutes(t *testing.T) {
	svc := newTestSubmissionService(&stubSubmissionStore{})
	if got := svc.EstimatedMinutes(5); got != 3 {
		t.Errorf("minutes = %d", got)
	}
	if got := svc.EstimatedMinutes(0); got != 0 {
		t.Errorf("minutes = %d", got)
	}
}

func TestParseUserAgent(t *testing.T) {
	cases := []struct {
		ua      string
		device  string
		browser string
	}{
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0) Mobile Safari", "mobile", "Safari"},
		{"Mozilla/5.0 (iPad; CPU OS 17_0) Safari", "tablet", "Safari"},
		{"Mozilla/5.0 (Windows NT 10.0) Chrome/125.0 Edg/125.0", "desktop", "Edge"},
		{"Mozilla/5.0 (X11; Linux x86_64) Firefox/126.0", "desktop", "Firefox"},
		{"", "unknown", ""},
	}
	for _, tc := range cases {
		device, browser := parseUserAgent(tc.ua)
		if device != tc.device || browser != tc.browser {
			t.Errorf("%q: got %s/%s, want %s/%s", tc.ua, device, browser, tc.device, tc.browser)
		}
	}
}
