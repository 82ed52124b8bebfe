package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"engage_backend/internal/model"
	"engage_backend/internal/util"
)

// stubAnalyticsStore 内存版只读数据访问
type stubAnalyticsStore struct {
	survey      *model.Survey
	submissions []model.Submission
}

func (s *stubAnalyticsStore) GetSurveyWithQuestions(ctx context.Context, surveyID uint) (*model.Survey, error) {
	if s.survey == nil || s.survey.ID != surveyID {
		return nil, util.ErrSurveyNotFound
	}
	return s.survey, nil
}

func (s *stubAnalyticsStore) ListSubmissionsWithResponses(ctx context.Context, surveyID uint) ([]model.Submission, error) {
	return s.submissions, nil
}

func analyticsSubmission(id uint, ageGroup, gender string, responses ...model.Response) model.Submission {
	sub := model.Submission{
		SurveyID:    1,
		SubmittedAt: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Minute),
		AgeGroup:    ageGroup,
		Gender:      gender,
		Responses:   responses,
	}
	sub.ID = id
	return sub
}

func newTestAnalyticsService(store *stubAnalyticsStore) *AnalyticsService {
	return NewAnalyticsService(store, nil, zap.NewNop())
}

func TestSurveyAnalyticsFullDocument(t *testing.T) {
	store := &stubAnalyticsStore{
		survey: testSurvey(),
		submissions: []model.Submission{
			analyticsSubmission(1, "18-24", "Female",
				model.Response{QuestionID: 10, ResponseText: "Red"},
				model.Response{QuestionID: 11, ResponseText: "nice park"}),
			analyticsSubmission(2, "25-34", "Male",
				model.Response{QuestionID: 10, ResponseText: "Green"}),
		},
	}
	svc := newTestAnalyticsService(store)

	doc, err := svc.SurveyAnalytics(context.Background(), 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if doc.SurveyID != 1 || doc.TotalResponses != 2 {
		t.Fatalf("doc: %+v", doc)
	}
	if len(doc.Analytics) != 2 {
		t.Fatalf("analytics keys: %v", doc.Analytics)
	}

	qa := doc.Analytics["10"]
	if qa == nil || qa.QuestionType != model.QuestionSingleChoice || qa.Error != nil {
		t.Fatalf("question 10: %+v", qa)
	}
	data, ok := qa.Data.(*model.SingleSelectAnalytics)
	if !ok || data.TotalResponses != 2 {
		t.Errorf("question 10 data: %+v", qa.Data)
	}

	text, ok := doc.Analytics["11"].Data.(*model.TextAnalytics)
	if !ok || text.TotalResponses != 1 {
		t.Errorf("question 11 data: %+v", doc.Analytics["11"].Data)
	}
}

func TestSurveyAnalyticsEmpty(t *testing.T) {
	svc := newTestAnalyticsService(&stubAnalyticsStore{survey: testSurvey()})

	doc, err := svc.SurveyAnalytics(context.Background(), 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if doc.TotalResponses != 0 {
		t.Errorf("total = %d", doc.TotalResponses)
	}
	if len(doc.Analytics) != 0 {
		t.Errorf("analytics must be empty: %v", doc.Analytics)
	}
}

func TestSurveyAnalyticsUnknownSurvey(t *testing.T) {
	svc := newTestAnalyticsService(&stubAnalyticsStore{})
	if _, err := svc.SurveyAnalytics(context.Background(), 9, nil); !errors.Is(err, util.ErrSurveyNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestSurveyAnalyticsFilterConjunction(t *testing.T) {
	store := &stubAnalyticsStore{
		survey: testSurvey(),
		submissions: []model.Submission{
			analyticsSubmission(1, "18-24", "Female", model.Response{QuestionID: 10, ResponseText: "Red"}),
			analyticsSubmission(2, "18-24", "Male", model.Response{QuestionID: 10, ResponseText: "Green"}),
			analyticsSubmission(3, "25-34", "Female", model.Response{QuestionID: 10, ResponseText: "Red"}),
		},
	}
	svc := newTestAnalyticsService(store)

	// 两个维度同时命中才保留
	doc, err := svc.SurveyAnalytics(context.Background(), 1, &model.AnalyticsFilters{
		AgeGroup: model.FilterValues{"18-24"},
		Gender:   model.FilterValues{"Female"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if doc.TotalResponses != 1 {
		t.Errorf("total = %d", doc.TotalResponses)
	}

	// 人群标记来自分发链接,同样参与过滤
	store.submissions[0].CohortTag = "Facebook"
	store.submissions[1].CohortTag = "Newsletter"
	doc, err = svc.SurveyAnalytics(context.Background(), 1, &model.AnalyticsFilters{
		CohortTag: model.FilterValues{"Facebook"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if doc.TotalResponses != 1 {
		t.Errorf("cohort filter total = %d", doc.TotalResponses)
	}

	// 同一维度多值取并集
	doc, err = svc.SurveyAnalytics(context.Background(), 1, &model.AnalyticsFilters{
		AgeGroup: model.FilterValues{"18-24", "25-34"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if doc.TotalResponses != 3 {
		t.Errorf("multi-value total = %d", doc.TotalResponses)
	}
}

func TestSurveyAnalyticsFilterIdempotent(t *testing.T) {
	store := &stubAnalyticsStore{
		survey: testSurvey(),
		submissions: []model.Submission{
			analyticsSubmission(1, "18-24", "Female", model.Response{QuestionID: 10, ResponseText: "Red"}),
			analyticsSubmission(2, "25-34", "Male", model.Response{QuestionID: 10, ResponseText: "Green"}),
		},
	}
	svc := newTestAnalyticsService(store)
	filters := &model.AnalyticsFilters{Gender: model.FilterValues{"Female"}}

	first, err := svc.SurveyAnalytics(context.Background(), 1, filters)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.SurveyAnalytics(context.Background(), 1, filters)
	if err != nil {
		t.Fatal(err)
	}
	if first.TotalResponses != second.TotalResponses {
		t.Errorf("filtering must be stable: %d vs %d", first.TotalResponses, second.TotalResponses)
	}
}

func TestQuestionAnalytics(t *testing.T) {
	store := &stubAnalyticsStore{
		survey: testSurvey(),
		submissions: []model.Submission{
			analyticsSubmission(1, "18-24", "Female", model.Response{QuestionID: 10, ResponseText: "Red"}),
		},
	}
	svc := newTestAnalyticsService(store)

	qa, err := svc.QuestionAnalytics(context.Background(), 1, 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if qa.QuestionID != 10 || qa.SequenceNumber != 1 {
		t.Errorf("qa: %+v", qa)
	}

	if _, err := svc.QuestionAnalytics(context.Background(), 1, 999, nil); !errors.Is(err, util.ErrQuestionNotFound) {
		t.Errorf("unknown question: %v", err)
	}
}

func TestProcessQuestionPanicIsolated(t *testing.T) {
	svc := newTestAnalyticsService(&stubAnalyticsStore{})

	// 损坏的记录让处理器崩溃,恢复后错误内联在本题
	def := &QuestionDef{ID: 20, Type: model.QuestionRadioGrid}
	records := []ResponseRecord{{Resp: nil, Sub: &model.Submission{}}}
	qa := svc.processQuestion(def, records)
	if qa.Error == nil || qa.Error.Type != "radio-grid_error" {
		t.Fatalf("error: %+v", qa.Error)
	}
	if qa.Data != nil {
		t.Error("data must be cleared on panic")
	}
}

func TestProcessQuestionUnsupportedType(t *testing.T) {
	svc := newTestAnalyticsService(&stubAnalyticsStore{})
	qa := svc.processQuestion(&QuestionDef{ID: 21, Type: model.QuestionType("mystery")}, nil)
	if qa.Error == nil || qa.Error.Type != "mystery_error" {
		t.Errorf("error: %+v", qa.Error)
	}
}
