package model

import "encoding/json"

// QuestionType 题型封闭集合
type QuestionType string

const (
	QuestionSingleChoice        QuestionType = "single-choice"
	QuestionMultiChoice         QuestionType = "multi-choice"
	QuestionCheckbox            QuestionType = "checkbox"
	QuestionDropdown            QuestionType = "dropdown"
	QuestionScale               QuestionType = "scale"
	QuestionSingleImageSelect   QuestionType = "single-image-select"
	QuestionMultipleImageSelect QuestionType = "multiple-image-select"
	QuestionRating              QuestionType = "rating" // 滑块
	QuestionNumericalInput      QuestionType = "numerical-input"
	QuestionRatingScale         QuestionType = "rating-scale" // 旧版评分
	QuestionNPS                 QuestionType = "nps"
	QuestionStarRating          QuestionType = "star-rating"
	QuestionOpenEnded           QuestionType = "open-ended"
	QuestionInteractiveRanking  QuestionType = "interactive-ranking"
	QuestionRadioGrid           QuestionType = "radio-grid"
	QuestionCheckboxGrid        QuestionType = "checkbox-grid"
	QuestionStarRatingGrid      QuestionType = "star-rating-grid"
	QuestionDocumentUpload      QuestionType = "document-upload"
	QuestionSignature           QuestionType = "signature"
	QuestionDatePicker          QuestionType = "date-picker"
	QuestionContentText         QuestionType = "content-text"
	QuestionContentMedia        QuestionType = "content-media"
)

// IsContentOnly 纯展示题型，不产生 Response
func (t QuestionType) IsContentOnly() bool {
	return t == QuestionContentText || t == QuestionContentMedia
}

// swagger:model Question
type Question struct {
	BaseModel
	SurveyID     uint         `gorm:"index;type:bigint unsigned" json:"survey_id"`
	QuestionUUID string       `gorm:"size:36;index" json:"question_uuid"`
	QuestionText string       `gorm:"type:text;not null" json:"question_text"`
	QuestionType QuestionType `gorm:"size:32;not null" json:"question_type"`

	// SequenceNumber 当前位置；OriginalSequenceNumber 创建时分配后不再变化，
	// 是条件逻辑跨重排的稳定引用
	SequenceNumber         int `gorm:"not null" json:"sequence_number"`
	OriginalSequenceNumber int `gorm:"not null" json:"original_sequence_number"`

	Required          bool   `gorm:"default:false" json:"required"`
	NotApplicable     bool   `gorm:"default:false" json:"not_applicable"`
	NotApplicableText string `gorm:"size:255" json:"not_applicable_text"`
	HasOtherOption    bool   `gorm:"default:false" json:"has_other_option"`

	ConditionalLogicRules json.RawMessage `gorm:"type:json" json:"conditional_logic_rules,omitempty"`

	// 按题型使用的元数据
	Options      json.RawMessage `gorm:"type:json" json:"options,omitempty"`       // []string
	ImageOptions json.RawMessage `gorm:"type:json" json:"image_options,omitempty"` // []ImageOption
	GridRows     json.RawMessage `gorm:"type:json" json:"grid_rows,omitempty"`     // []string
	GridColumns  json.RawMessage `gorm:"type:json" json:"grid_columns,omitempty"`  // []GridColumn
	RankingItems json.RawMessage `gorm:"type:json" json:"ranking_items,omitempty"` // []string
	ScalePoints  json.RawMessage `gorm:"type:json" json:"scale_points,omitempty"`  // []string，scale 题型旧字段
	RatingStart  *int            `json:"rating_start,omitempty"`
	RatingEnd    *int            `json:"rating_end,omitempty"`
	RatingStep   *int            `json:"rating_step,omitempty"`
	MinValue     *float64        `json:"min_value,omitempty"`
	MaxValue     *float64        `json:"max_value,omitempty"`
	MinDate      string          `gorm:"size:10" json:"min_date,omitempty"`
	MaxDate      string          `gorm:"size:10" json:"max_date,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// ImageOption 图片选项：hidden_label 为存储值，label 为展示值
type ImageOption struct {
	HiddenLabel string `json:"hidden_label"`
	Label       string `json:"label"`
	ImageURL    string `json:"image_url"`
}

// GridColumn 网格列；IsNotApplicable 标记该列为 N/A 列
type GridColumn struct {
	Label           string `json:"label"`
	IsNotApplicable bool   `json:"isNotApplicable"`
}
