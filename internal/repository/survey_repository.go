package repository

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"engage_backend/internal/model"
	"engage_backend/internal/util"
)

type SurveyRepository struct {
	DB *gorm.DB
}

func NewSurveyRepository(db *gorm.DB) *SurveyRepository {
	return &SurveyRepository{DB: db}
}

func (r *SurveyRepository) Create(ctx context.Context, survey *model.Survey) error {
	return r.DB.WithContext(ctx).Create(survey).Error
}

// GetByID 取问卷基本信息，不带题目
func (r *SurveyRepository) GetByID(ctx context.Context, id uint) (*model.Survey, error) {
	var survey model.Survey
	err := r.DB.WithContext(ctx).First(&survey, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSurveyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &survey, nil
}

// GetWithQuestions 取问卷及按序号排好的题目
func (r *SurveyRepository) GetWithQuestions(ctx context.Context, id uint) (*model.Survey, error) {
	var survey model.Survey
	err := r.DB.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_number ASC")
		}).
		First(&survey, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSurveyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &survey, nil
}

// List 分页列出问卷；businessID 非空时限定归属，publishedOnly 过滤未发布
func (r *SurveyRepository) List(ctx context.Context, businessID *uint, publishedOnly bool, page, perPage int) ([]model.Survey, int64, error) {
	query := r.DB.WithContext(ctx).Model(&model.Survey{}).Where("is_archived = ?", false)
	if businessID != nil {
		query = query.Where("business_id = ?", *businessID)
	}
	if publishedOnly {
		query = query.Where("published = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var surveys []model.Survey
	err := query.Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&surveys).Error
	return surveys, total, err
}

func (r *SurveyRepository) Update(ctx context.Context, survey *model.Survey) error {
	return r.DB.WithContext(ctx).Save(survey).Error
}

func (r *SurveyRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&model.Survey{}, id).Error
}

// ReplaceQuestions 整体替换问卷题目，旧题软删除
func (r *SurveyRepository) ReplaceQuestions(ctx context.Context, surveyID uint, questions []model.Question) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("survey_id = ?", surveyID).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].SurveyID = surveyID
			if err := tx.Create(&questions[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateSequences 重排后写回每题的新序号和改写过的条件规则
func (r *SurveyRepository) UpdateSequences(ctx context.Context, sequences map[uint]int, logicRules map[uint]json.RawMessage) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for id, seq := range sequences {
			if err := tx.Model(&model.Question{}).Where("id = ?", id).
				Update("sequence_number", seq).Error; err != nil {
				return err
			}
		}
		for id, raw := range logicRules {
			if err := tx.Model(&model.Question{}).Where("id = ?", id).
				Update("conditional_logic_rules", raw).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetQuestion 按问卷限定取单题
func (r *SurveyRepository) GetQuestion(ctx context.Context, surveyID, questionID uint) (*model.Question, error) {
	var question model.Question
	err := r.DB.WithContext(ctx).
		Where("survey_id = ?", surveyID).
		First(&question, questionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuestionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &question, nil
}
