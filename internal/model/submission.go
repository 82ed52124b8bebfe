package model

import "time"

// swagger:model Submission
type Submission struct {
	BaseModel
	SurveyID     uint      `gorm:"index:idx_submissions_survey_time,priority:1;type:bigint unsigned" json:"survey_id"`
	UserID       *uint     `gorm:"index:idx_submissions_user_survey,priority:1;type:bigint unsigned" json:"user_id,omitempty"`
	SurveyLinkID *uint     `gorm:"index;type:bigint unsigned" json:"survey_link_id,omitempty"`
	SubmittedAt  time.Time `gorm:"index:idx_submissions_survey_time,priority:2" json:"submitted_at"`

	Duration      *int `json:"duration,omitempty"` // 秒
	IsComplete    bool `gorm:"index:idx_submissions_user_survey,priority:3;default:false" json:"is_complete"`
	IsAIGenerated bool `gorm:"default:false" json:"is_ai_generated"`

	// CompletionKey 普通用户完成提交的唯一性约束载体："{user_id}-{survey_id}"，
	// 其余情况为 NULL。MySQL 无部分索引，靠该生成列防住并发下的重复完成提交。
	CompletionKey *string `gorm:"size:64;uniqueIndex" json:"-"`

	// 人口统计快照
	AgeGroup  string `gorm:"size:32;index:idx_submissions_user_survey,priority:2" json:"age_group"`
	Gender    string `gorm:"size:32" json:"gender"`
	Location  string `gorm:"size:100" json:"location"`
	Education string `gorm:"size:100" json:"education"`
	Company   string `gorm:"size:100" json:"company"`
	CohortTag string `gorm:"size:100" json:"cohort_tag"`

	// 设备快照
	UserAgent   string `gorm:"size:512" json:"user_agent"`
	DeviceType  string `gorm:"size:32" json:"device_type"`
	BrowserInfo string `gorm:"size:100" json:"browser_info"`

	Responses []Response `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE" json:"responses,omitempty"`
}

func (Submission) TableName() string {
	return "submissions"
}

// swagger:model Response
type Response struct {
	BaseModel
	SubmissionID uint `gorm:"index;type:bigint unsigned" json:"submission_id"`
	QuestionID   uint `gorm:"index;type:bigint unsigned" json:"question_id"`

	ResponseText    string   `gorm:"type:text" json:"response_text"`
	ResponseTime    *float64 `json:"response_time,omitempty"` // 秒
	IsNotApplicable bool     `gorm:"default:false" json:"is_not_applicable"`
	IsOther         bool     `gorm:"default:false" json:"is_other"`
	OtherText       string   `gorm:"type:text" json:"other_text,omitempty"`
	FilePath        string   `gorm:"size:512" json:"file_path,omitempty"`
	FileType        string   `gorm:"size:64" json:"file_type,omitempty"`
}

func (Response) TableName() string {
	return "responses"
}
