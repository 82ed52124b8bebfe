package model

const (
	ActivitySurveyCompleted = "SURVEY_COMPLETED"
	ActivityQuestCompleted  = "QUEST_COMPLETED"
	ActivityIdeaAccepted    = "IDEA_ACCEPTED"
)

// XPEvent 经验值发放记录。(user_id, activity_type, related_item_id) 唯一，
// 同一用户对同一调查的首完成奖励天然幂等。
type XPEvent struct {
	BaseModel
	UserID        uint   `gorm:"uniqueIndex:idx_xp_events_dedupe,priority:1;type:bigint unsigned" json:"user_id"`
	ActivityType  string `gorm:"size:64;uniqueIndex:idx_xp_events_dedupe,priority:2" json:"activity_type"`
	RelatedItemID uint   `gorm:"uniqueIndex:idx_xp_events_dedupe,priority:3;type:bigint unsigned" json:"related_item_id"`
	BusinessID    *uint  `gorm:"type:bigint unsigned" json:"business_id,omitempty"`
	Points        int    `gorm:"default:0" json:"points"`
	Description   string `gorm:"size:255" json:"description,omitempty"`
}

func (XPEvent) TableName() string {
	return "xp_events"
}

// SubmissionAward 随提交一起落库的激励事件
type SubmissionAward struct {
	UserID        uint
	BusinessID    *uint
	Points        int
	ActivityType  string
	RelatedItemID uint
	Description   string
}
