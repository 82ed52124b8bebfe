package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"engage_backend/internal/model"
	"engage_backend/internal/util"
)

// AnalyticsStore 统计只读数据访问
type AnalyticsStore interface {
	GetSurveyWithQuestions(ctx context.Context, surveyID uint) (*model.Survey, error)
	ListSubmissionsWithResponses(ctx context.Context, surveyID uint) ([]model.Submission, error)
}

type AnalyticsService struct {
	store  AnalyticsStore
	cache  *AnalyticsCache
	logger *zap.Logger
}

func NewAnalyticsService(store AnalyticsStore, cache *AnalyticsCache, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{store: store, cache: cache, logger: logger}
}

// SurveyAnalytics 计算整份问卷的统计文档。无过滤条件时结果走缓存。
func (s *AnalyticsService) SurveyAnalytics(ctx context.Context, surveyID uint, filters *model.AnalyticsFilters) (*model.SurveyAnalytics, error) {
	cacheable := filters.IsEmpty() && s.cache != nil
	if cacheable {
		if doc, ok := s.cache.Get(ctx, surveyID); ok {
			return doc, nil
		}
	}

	survey, err := s.store.GetSurveyWithQuestions(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	defs, err := ParseQuestions(survey.Questions)
	if err != nil {
		return nil, err
	}

	submissions, err := s.filteredSubmissions(ctx, surveyID, filters)
	if err != nil {
		return nil, err
	}

	doc := &model.SurveyAnalytics{
		SurveyID:       surveyID,
		TotalResponses: len(submissions),
		Analytics:      map[string]*model.QuestionAnalytics{},
	}
	if len(submissions) == 0 {
		return doc, nil
	}

	recordsByQuestion := groupRecords(submissions)
	for _, def := range defs {
		if def.Type.IsContentOnly() {
			continue
		}
		doc.Analytics[strconv.FormatUint(uint64(def.ID), 10)] = s.processQuestion(def, recordsByQuestion[def.ID])
	}

	if cacheable {
		s.cache.Set(ctx, surveyID, doc)
	}
	return doc, nil
}

// QuestionAnalytics 单题统计文档
func (s *AnalyticsService) QuestionAnalytics(ctx context.Context, surveyID, questionID uint, filters *model.AnalyticsFilters) (*model.QuestionAnalytics, error) {
	survey, err := s.store.GetSurveyWithQuestions(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	defs, err := ParseQuestions(survey.Questions)
	if err != nil {
		return nil, err
	}
	var def *QuestionDef
	for _, d := range defs {
		if d.ID == questionID {
			def = d
			break
		}
	}
	if def == nil {
		return nil, util.ErrQuestionNotFound
	}

	submissions, err := s.filteredSubmissions(ctx, surveyID, filters)
	if err != nil {
		return nil, err
	}
	return s.processQuestion(def, groupRecords(submissions)[def.ID]), nil
}

func (s *AnalyticsService) filteredSubmissions(ctx context.Context, surveyID uint, filters *model.AnalyticsFilters) ([]model.Submission, error) {
	submissions, err := s.store.ListSubmissionsWithResponses(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if filters.IsEmpty() {
		return submissions, nil
	}
	kept := make([]model.Submission, 0, len(submissions))
	for i := range submissions {
		if filters.Matches(&submissions[i]) {
			kept = append(kept, submissions[i])
		}
	}
	return kept, nil
}

func groupRecords(submissions []model.Submission) map[uint][]ResponseRecord {
	grouped := make(map[uint][]ResponseRecord)
	for i := range submissions {
		sub := &submissions[i]
		for j := range sub.Responses {
			resp := &sub.Responses[j]
			grouped[resp.QuestionID] = append(grouped[resp.QuestionID], ResponseRecord{Resp: resp, Sub: sub})
		}
	}
	return grouped
}

// processQuestion 按题型分发处理器。单题出错只在本题内联错误，不影响整份文档。
func (s *AnalyticsService) processQuestion(def *QuestionDef, records []ResponseRecord) (qa *model.QuestionAnalytics) {
	qa = &model.QuestionAnalytics{
		QuestionID:     def.ID,
		SequenceNumber: def.SequenceNumber,
		QuestionText:   def.Text,
		QuestionType:   def.Type,
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("analytics processor panic",
				zap.Uint("question_id", def.ID),
				zap.String("question_type", string(def.Type)),
				zap.Any("panic", r))
			qa.Data = nil
			qa.Error = &model.AnalyticsError{
				Type:  fmt.Sprintf("%s_error", def.Type),
				Error: fmt.Sprint(r),
			}
		}
	}()

	switch def.Type {
	case model.QuestionSingleChoice, model.QuestionDropdown, model.QuestionScale:
		qa.Data = aggregateSingleSelect(def, records)
	case model.QuestionMultiChoice, model.QuestionCheckbox:
		qa.Data = aggregateMultiSelect(def, records)
	case model.QuestionSingleImageSelect:
		qa.Data = aggregateImageSelect(def, records, false)
	case model.QuestionMultipleImageSelect:
		qa.Data = aggregateImageSelect(def, records, true)
	case model.QuestionRating, model.QuestionNumericalInput, model.QuestionRatingScale,
		model.QuestionNPS, model.QuestionStarRating:
		qa.Data = aggregateNumeric(def, records)
	case model.QuestionOpenEnded:
		qa.Data = aggregateOpenEnded(def, records)
	case model.QuestionInteractiveRanking:
		qa.Data = aggregateRanking(def, records)
	case model.QuestionRadioGrid:
		qa.Data = aggregateRadioGrid(def, records)
	case model.QuestionCheckboxGrid:
		qa.Data = aggregateCheckboxGrid(def, records)
	case model.QuestionStarRatingGrid:
		qa.Data = aggregateStarGrid(def, records)
	case model.QuestionDatePicker, model.QuestionSignature, model.QuestionDocumentUpload:
		qa.Data = aggregateSingleSelect(def, records)
	default:
		qa.Error = &model.AnalyticsError{
			Type:  fmt.Sprintf("%s_error", def.Type),
			Error: "unsupported question type",
		}
	}
	return qa
}
