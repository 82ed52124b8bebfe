package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"engage_backend/internal/model"
	"engage_backend/internal/util"
)

type SurveyLinkRepository struct {
	DB *gorm.DB
}

func NewSurveyLinkRepository(db *gorm.DB) *SurveyLinkRepository {
	return &SurveyLinkRepository{DB: db}
}

func (r *SurveyLinkRepository) Create(ctx context.Context, link *model.SurveyLink) error {
	return r.DB.WithContext(ctx).Create(link).Error
}

func (r *SurveyLinkRepository) GetByID(ctx context.Context, id uint) (*model.SurveyLink, error) {
	var link model.SurveyLink
	err := r.DB.WithContext(ctx).First(&link, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSurveyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// GetByCode 按分享码取链接
func (r *SurveyLinkRepository) GetByCode(ctx context.Context, code string) (*model.SurveyLink, error) {
	var link model.SurveyLink
	err := r.DB.WithContext(ctx).Where("code = ?", code).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSurveyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *SurveyLinkRepository) ListBySurvey(ctx context.Context, surveyID uint) ([]model.SurveyLink, error) {
	var links []model.SurveyLink
	err := r.DB.WithContext(ctx).
		Where("survey_id = ?", surveyID).
		Order("created_at ASC").
		Find(&links).Error
	return links, err
}

func (r *SurveyLinkRepository) Update(ctx context.Context, link *model.SurveyLink) error {
	return r.DB.WithContext(ctx).Save(link).Error
}

func (r *SurveyLinkRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&model.SurveyLink{}, id).Error
}
