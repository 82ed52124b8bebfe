package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"engage_backend/internal/model"
	"engage_backend/internal/util"
)

// SubmissionRepository 提交与统计链路的存取。
// 同时实现 service.SubmissionStore 和 service.AnalyticsStore。
type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

func (r *SubmissionRepository) GetSurveyWithQuestions(ctx context.Context, surveyID uint) (*model.Survey, error) {
	return NewSurveyRepository(r.DB).GetWithQuestions(ctx, surveyID)
}

func (r *SubmissionRepository) GetSurveyLink(ctx context.Context, linkID uint) (*model.SurveyLink, error) {
	var link model.SurveyLink
	err := r.DB.WithContext(ctx).First(&link, linkID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSurveyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *SubmissionRepository) CountSubmissions(ctx context.Context, surveyID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Submission{}).
		Where("survey_id = ?", surveyID).
		Count(&count).Error
	return count, err
}

func (r *SubmissionRepository) CountLinkSubmissions(ctx context.Context, linkID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Submission{}).
		Where("survey_link_id = ?", linkID).
		Count(&count).Error
	return count, err
}

func (r *SubmissionRepository) HasCompletedSubmission(ctx context.Context, userID, surveyID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Submission{}).
		Where("user_id = ? AND survey_id = ? AND is_complete = ? AND is_ai_generated = ?", userID, surveyID, true, false).
		Count(&count).Error
	return count > 0, err
}

func (r *SubmissionRepository) GetUser(ctx context.Context, userID uint) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateSubmission 单事务落库：提交信封、全部答案、激励事件和用户计数。
// completion_key 的唯一索引兜底并发重复提交,冲突映射为业务错误。
// 经验值事件有自己的唯一索引,并发或重放时静默跳过,计数不重复累加。
func (r *SubmissionRepository) CreateSubmission(ctx context.Context, sub *model.Submission, award *model.SubmissionAward) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sub).Error; err != nil {
			return err
		}
		if award == nil {
			return nil
		}

		event := model.XPEvent{
			UserID:        award.UserID,
			BusinessID:    award.BusinessID,
			ActivityType:  award.ActivityType,
			RelatedItemID: award.RelatedItemID,
			Points:        award.Points,
			Description:   award.Description,
		}
		result := tx.Create(&event)
		if result.Error != nil {
			if isDuplicateKeyError(result.Error) {
				return nil
			}
			return result.Error
		}

		return tx.Model(&model.User{}).Where("id = ?", award.UserID).
			Updates(map[string]interface{}{
				"xp_balance":              gorm.Expr("xp_balance + ?", award.Points),
				"total_xp_earned":         gorm.Expr("total_xp_earned + ?", award.Points),
				"surveys_completed_count": gorm.Expr("surveys_completed_count + 1"),
			}).Error
	})
	if err != nil && isDuplicateKeyError(err) {
		return util.ErrDuplicateSubmission
	}
	return err
}

func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "Duplicate entry")
}

func (r *SubmissionRepository) ListSubmissionsWithResponses(ctx context.Context, surveyID uint) ([]model.Submission, error) {
	var submissions []model.Submission
	err := r.DB.WithContext(ctx).
		Preload("Responses").
		Where("survey_id = ?", surveyID).
		Order("submitted_at ASC").
		Find(&submissions).Error
	return submissions, err
}

func (r *SubmissionRepository) ListSubmissionsPage(ctx context.Context, surveyID uint, page, perPage int) ([]model.Submission, int64, error) {
	query := r.DB.WithContext(ctx).Model(&model.Submission{}).Where("survey_id = ?", surveyID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var submissions []model.Submission
	err := r.DB.WithContext(ctx).
		Preload("Responses").
		Where("survey_id = ?", surveyID).
		Order("submitted_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&submissions).Error
	return submissions, total, err
}

// GetSubmission 取单条提交及其答案
func (r *SubmissionRepository) GetSubmission(ctx context.Context, id uint) (*model.Submission, error) {
	var sub model.Submission
	err := r.DB.WithContext(ctx).Preload("Responses").First(&sub, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
