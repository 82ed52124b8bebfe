package model

import (
	"time"
)

// swagger:model Survey
type Survey struct {
	BaseModel
	BusinessID       uint       `gorm:"index;type:bigint unsigned" json:"business_id"`
	Title            string     `gorm:"size:255;not null" json:"title"`
	Description      string     `gorm:"type:text" json:"description"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	ParticipantLimit *int       `json:"participant_limit,omitempty"`
	Published        bool       `gorm:"default:false" json:"published"`
	IsArchived       bool       `gorm:"default:false" json:"is_archived"`
	IsRestricted     bool       `gorm:"default:false" json:"is_restricted"` // 仅限业务受众参与
	XPPerQuestion    int        `gorm:"default:5" json:"xp_per_question"`

	Questions []Question `gorm:"foreignKey:SurveyID" json:"questions,omitempty"`
}

func (Survey) TableName() string {
	return "surveys"
}

// AcceptsSubmissionsAt 判断调查在给定时间点是否接受提交（不含参与上限检查）
func (s *Survey) AcceptsSubmissionsAt(now time.Time) bool {
	if !s.Published || s.IsArchived {
		return false
	}
	if s.StartDate != nil && now.Before(*s.StartDate) {
		return false
	}
	if s.EndDate != nil && now.After(*s.EndDate) {
		return false
	}
	return true
}

// SurveyLink 调查分发渠道，可单独限制提交数
type SurveyLink struct {
	BaseModel
	SurveyID     uint   `gorm:"index;type:bigint unsigned" json:"survey_id"`
	Code         string `gorm:"size:32;uniqueIndex" json:"code"`
	Label        string `gorm:"size:100" json:"label"`
	MaxResponses *int   `json:"max_responses,omitempty"`
	IsApproved   bool   `gorm:"default:true" json:"is_approved"`
}

func (SurveyLink) TableName() string {
	return "survey_links"
}
