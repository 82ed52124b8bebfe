package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"engage_backend/internal/model"
	"engage_backend/internal/repository"
	"engage_backend/internal/util"
)

// QuestionReq 题目创建或整卷更新时的单题载荷
type QuestionReq struct {
	QuestionUUID          string          `json:"question_uuid"`
	QuestionText          string          `json:"question_text" binding:"required"`
	QuestionType          string          `json:"question_type" binding:"required"`
	Required              bool            `json:"required"`
	NotApplicable         bool            `json:"not_applicable"`
	NotApplicableText     string          `json:"not_applicable_text"`
	HasOtherOption        bool            `json:"has_other_option"`
	ConditionalLogicRules json.RawMessage `json:"conditional_logic_rules"`
	Options               json.RawMessage `json:"options"`
	ImageOptions          json.RawMessage `json:"image_options"`
	GridRows              json.RawMessage `json:"grid_rows"`
	GridColumns           json.RawMessage `json:"grid_columns"`
	RankingItems          json.RawMessage `json:"ranking_items"`
	ScalePoints           json.RawMessage `json:"scale_points"`
	RatingStart           *int            `json:"rating_start"`
	RatingEnd             *int            `json:"rating_end"`
	RatingStep            *int            `json:"rating_step"`
	MinValue              *float64        `json:"min_value"`
	MaxValue              *float64        `json:"max_value"`
	MinDate               string          `json:"min_date"`
	MaxDate               string          `json:"max_date"`
}

type CreateSurveyReq struct {
	Title            string        `json:"title" binding:"required"`
	Description      string        `json:"description"`
	StartDate        *time.Time    `json:"start_date"`
	EndDate          *time.Time    `json:"end_date"`
	ParticipantLimit *int          `json:"participant_limit"`
	Published        bool          `json:"published"`
	IsRestricted     bool          `json:"is_restricted"`
	XPPerQuestion    *int          `json:"xp_per_question"`
	Questions        []QuestionReq `json:"questions"`
}

type UpdateSurveyReq struct {
	Title            *string       `json:"title"`
	Description      *string       `json:"description"`
	StartDate        *time.Time    `json:"start_date"`
	EndDate          *time.Time    `json:"end_date"`
	ParticipantLimit *int          `json:"participant_limit"`
	Published        *bool         `json:"published"`
	IsArchived       *bool         `json:"is_archived"`
	IsRestricted     *bool         `json:"is_restricted"`
	XPPerQuestion    *int          `json:"xp_per_question"`
	Questions        []QuestionReq `json:"questions"`
}

// SurveyDetail 问卷详情，附带派生的预估答题时长和完成奖励
type SurveyDetail struct {
	*model.Survey
	EstimatedMinutes int `json:"estimated_minutes"`
	CompletionXP     int `json:"completion_xp"`
}

type SurveyService struct {
	repo        *repository.SurveyRepository
	submissions *SubmissionService
	cache       *AnalyticsCache
	logger      *zap.Logger
}

func NewSurveyService(repo *repository.SurveyRepository, submissions *SubmissionService, cache *AnalyticsCache, logger *zap.Logger) *SurveyService {
	return &SurveyService{repo: repo, submissions: submissions, cache: cache, logger: logger}
}

func (s *SurveyService) Create(ctx context.Context, claims *util.Claims, req *CreateSurveyReq) (*model.Survey, error) {
	if !claims.IsAdmin() {
		return nil, util.ErrPermissionDenied
	}
	survey := &model.Survey{
		Title:            req.Title,
		Description:      req.Description,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		ParticipantLimit: req.ParticipantLimit,
		Published:        req.Published,
		IsRestricted:     req.IsRestricted,
		XPPerQuestion:    5,
	}
	if claims.BusinessID != nil {
		survey.BusinessID = *claims.BusinessID
	}
	if req.XPPerQuestion != nil && *req.XPPerQuestion > 0 {
		survey.XPPerQuestion = *req.XPPerQuestion
	}

	questions, err := buildQuestions(req.Questions)
	if err != nil {
		return nil, err
	}
	survey.Questions = questions

	// 入库前解析一遍,提前暴露坏元数据
	if _, err := ParseQuestions(questions); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, survey); err != nil {
		return nil, err
	}
	s.logger.Info("survey created",
		zap.Uint("survey_id", survey.ID),
		zap.Int("questions", len(survey.Questions)))
	return survey, nil
}

func buildQuestions(reqs []QuestionReq) ([]model.Question, error) {
	questions := make([]model.Question, 0, len(reqs))
	for i, qr := range reqs {
		q := model.Question{
			QuestionUUID:           qr.QuestionUUID,
			QuestionText:           qr.QuestionText,
			QuestionType:           model.QuestionType(qr.QuestionType),
			SequenceNumber:         i + 1,
			OriginalSequenceNumber: i + 1,
			Required:               qr.Required,
			NotApplicable:          qr.NotApplicable,
			NotApplicableText:      qr.NotApplicableText,
			HasOtherOption:         qr.HasOtherOption,
			ConditionalLogicRules:  qr.ConditionalLogicRules,
			Options:                qr.Options,
			ImageOptions:           qr.ImageOptions,
			GridRows:               qr.GridRows,
			GridColumns:            qr.GridColumns,
			RankingItems:           qr.RankingItems,
			ScalePoints:            qr.ScalePoints,
			RatingStart:            qr.RatingStart,
			RatingEnd:              qr.RatingEnd,
			RatingStep:             qr.RatingStep,
			MinValue:               qr.MinValue,
			MaxValue:               qr.MaxValue,
			MinDate:                qr.MinDate,
			MaxDate:                qr.MaxDate,
		}
		if q.QuestionUUID == "" {
			q.QuestionUUID = model.GenerateUUID()
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// Get 问卷详情
func (s *SurveyService) Get(ctx context.Context, id uint) (*SurveyDetail, error) {
	survey, err := s.repo.GetWithQuestions(ctx, id)
	if err != nil {
		return nil, err
	}
	defs, err := ParseQuestions(survey.Questions)
	if err != nil {
		return nil, err
	}
	count := 0
	for _, d := range defs {
		if !d.Type.IsContentOnly() {
			count++
		}
	}
	return &SurveyDetail{
		Survey:           survey,
		EstimatedMinutes: s.submissions.EstimatedMinutes(count),
		CompletionXP:     s.submissions.SurveyXP(survey, count),
	}, nil
}

func (s *SurveyService) List(ctx context.Context, claims *util.Claims, page, perPage int) ([]model.Survey, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	if claims != nil && claims.Role == model.RoleSuperAdmin {
		return s.repo.List(ctx, nil, false, page, perPage)
	}
	if claims != nil && claims.Role == model.RoleBusinessAdmin {
		return s.repo.List(ctx, claims.BusinessID, false, page, perPage)
	}
	return s.repo.List(ctx, nil, true, page, perPage)
}

func (s *SurveyService) Update(ctx context.Context, claims *util.Claims, id uint, req *UpdateSurveyReq) (*model.Survey, error) {
	survey, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanManageSurvey(claims, survey) {
		return nil, util.ErrPermissionDenied
	}

	if req.Title != nil {
		survey.Title = *req.Title
	}
	if req.Description != nil {
		survey.Description = *req.Description
	}
	if req.StartDate != nil {
		survey.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		survey.EndDate = req.EndDate
	}
	if req.ParticipantLimit != nil {
		survey.ParticipantLimit = req.ParticipantLimit
	}
	if req.Published != nil {
		survey.Published = *req.Published
	}
	if req.IsArchived != nil {
		survey.IsArchived = *req.IsArchived
	}
	if req.IsRestricted != nil {
		survey.IsRestricted = *req.IsRestricted
	}
	if req.XPPerQuestion != nil && *req.XPPerQuestion > 0 {
		survey.XPPerQuestion = *req.XPPerQuestion
	}
	if err := s.repo.Update(ctx, survey); err != nil {
		return nil, err
	}

	if req.Questions != nil {
		questions, err := buildQuestions(req.Questions)
		if err != nil {
			return nil, err
		}
		if _, err := ParseQuestions(questions); err != nil {
			return nil, err
		}
		if err := s.repo.ReplaceQuestions(ctx, id, questions); err != nil {
			return nil, err
		}
	}

	s.cache.Invalidate(ctx, id)
	return s.repo.GetWithQuestions(ctx, id)
}

func (s *SurveyService) Delete(ctx context.Context, claims *util.Claims, id uint) error {
	survey, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !CanManageSurvey(claims, survey) {
		return util.ErrPermissionDenied
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, id)
	s.logger.Info("survey deleted", zap.Uint("survey_id", id))
	return nil
}

// Reorder 按给定题目 ID 顺序重排，并改写条件规则里镜像的序号引用，
// 保证已有答案集的可见性判定在重排前后一致
func (s *SurveyService) Reorder(ctx context.Context, claims *util.Claims, id uint, orderedIDs []uint) (*model.Survey, error) {
	survey, err := s.repo.GetWithQuestions(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanManageSurvey(claims, survey) {
		return nil, util.ErrPermissionDenied
	}

	byID := make(map[uint]*model.Question, len(survey.Questions))
	for i := range survey.Questions {
		byID[survey.Questions[i].ID] = &survey.Questions[i]
	}
	if len(orderedIDs) != len(survey.Questions) {
		return nil, util.ErrQuestionNotFound
	}

	sequences := make(map[uint]int, len(orderedIDs))
	for i, qid := range orderedIDs {
		if _, ok := byID[qid]; !ok {
			return nil, util.ErrQuestionNotFound
		}
		sequences[qid] = i + 1
	}

	// 题目此时仍持有旧序号,规则先按旧序号解析依赖,再由
	// SyncLogicSequences 套用新序号回填
	defs, err := ParseQuestions(survey.Questions)
	if err != nil {
		return nil, err
	}
	logicRules, err := SyncLogicSequences(defs, sequences)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateSequences(ctx, sequences, logicRules); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, id)
	s.logger.Info("survey questions reordered",
		zap.Uint("survey_id", id),
		zap.Int("rewritten_rules", len(logicRules)))
	return s.repo.GetWithQuestions(ctx, id)
}
