package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"engage_backend/internal/model"
	"engage_backend/internal/repository"
	"engage_backend/internal/util"
)

type CreateLinkReq struct {
	Label        string `json:"label"`
	MaxResponses *int   `json:"max_responses"`
	IsApproved   *bool  `json:"is_approved"`
}

type UpdateLinkReq struct {
	Label        *string `json:"label"`
	MaxResponses *int    `json:"max_responses"`
	IsApproved   *bool   `json:"is_approved"`
}

// SurveyLinkService 分发链接管理。每个链接一个短码，可独立限流和审批。
type SurveyLinkService struct {
	links   *repository.SurveyLinkRepository
	surveys *repository.SurveyRepository
	logger  *zap.Logger
}

func NewSurveyLinkService(links *repository.SurveyLinkRepository, surveys *repository.SurveyRepository, logger *zap.Logger) *SurveyLinkService {
	return &SurveyLinkService{links: links, surveys: surveys, logger: logger}
}

func (s *SurveyLinkService) Create(ctx context.Context, claims *util.Claims, surveyID uint, req *CreateLinkReq) (*model.SurveyLink, error) {
	survey, err := s.surveys.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if !CanManageSurvey(claims, survey) {
		return nil, util.ErrPermissionDenied
	}

	link := &model.SurveyLink{
		SurveyID:     surveyID,
		Code:         generateLinkCode(),
		Label:        req.Label,
		MaxResponses: req.MaxResponses,
		IsApproved:   true,
	}
	if req.IsApproved != nil {
		link.IsApproved = *req.IsApproved
	}
	if err := s.links.Create(ctx, link); err != nil {
		return nil, err
	}
	s.logger.Info("survey link created",
		zap.Uint("survey_id", surveyID),
		zap.String("code", link.Code))
	return link, nil
}

func (s *SurveyLinkService) List(ctx context.Context, claims *util.Claims, surveyID uint) ([]model.SurveyLink, error) {
	survey, err := s.surveys.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if !CanManageSurvey(claims, survey) {
		return nil, util.ErrPermissionDenied
	}
	return s.links.ListBySurvey(ctx, surveyID)
}

func (s *SurveyLinkService) Update(ctx context.Context, claims *util.Claims, surveyID, linkID uint, req *UpdateLinkReq) (*model.SurveyLink, error) {
	link, err := s.authorizedLink(ctx, claims, surveyID, linkID)
	if err != nil {
		return nil, err
	}
	if req.Label != nil {
		link.Label = *req.Label
	}
	if req.MaxResponses != nil {
		link.MaxResponses = req.MaxResponses
	}
	if req.IsApproved != nil {
		link.IsApproved = *req.IsApproved
	}
	if err := s.links.Update(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

func (s *SurveyLinkService) Delete(ctx context.Context, claims *util.Claims, surveyID, linkID uint) error {
	link, err := s.authorizedLink(ctx, claims, surveyID, linkID)
	if err != nil {
		return err
	}
	return s.links.Delete(ctx, link.ID)
}

// ResolveCode 参与端按短码换取问卷入口
func (s *SurveyLinkService) ResolveCode(ctx context.Context, code string) (*model.SurveyLink, *model.Survey, error) {
	link, err := s.links.GetByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	if !link.IsApproved {
		return nil, nil, util.ErrLinkNotApproved
	}
	survey, err := s.surveys.GetWithQuestions(ctx, link.SurveyID)
	if err != nil {
		return nil, nil, err
	}
	return link, survey, nil
}

func (s *SurveyLinkService) authorizedLink(ctx context.Context, claims *util.Claims, surveyID, linkID uint) (*model.SurveyLink, error) {
	survey, err := s.surveys.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if !CanManageSurvey(claims, survey) {
		return nil, util.ErrPermissionDenied
	}
	link, err := s.links.GetByID(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if link.SurveyID != surveyID {
		return nil, util.ErrSurveyNotFound
	}
	return link, nil
}

func generateLinkCode() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}
