package model

import (
	"time"
)

type UserRole string

const (
	RoleUser          UserRole = "user"
	RoleBusinessAdmin UserRole = "business_admin"
	RoleSuperAdmin    UserRole = "super_admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name       string   `gorm:"size:100;not null" json:"name"`
	Email      string   `gorm:"size:100;unique;not null" json:"email"`
	Password   string   `gorm:"size:100;not null" json:"-"`
	Role       UserRole `gorm:"type:enum('user','business_admin','super_admin');default:'user'" json:"role"`
	BusinessID *uint    `gorm:"index" json:"business_id,omitempty"`

	// 参与者人口统计信息，提交时快照到 Submission
	Age       *int   `json:"age,omitempty"`
	Gender    string `gorm:"size:32" json:"gender"`
	Location  string `gorm:"size:100" json:"location"`
	Education string `gorm:"size:100" json:"education"`
	Company   string `gorm:"size:100" json:"company"`

	// 游戏化计数器，仅通过 GamificationService 写入
	XPBalance             int `gorm:"default:0" json:"xp_balance"`
	TotalXPEarned         int `gorm:"default:0" json:"total_xp_earned"`
	SurveysCompletedCount int `gorm:"default:0" json:"surveys_completed_count"`

	Disabled  bool      `gorm:"default:false" json:"disabled"`
	LastLogin time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"last_login"`
	LastSeen  time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"last_seen"`
}

func (User) TableName() string {
	return "users"
}

// AgeGroup 将数值年龄映射到统计用年龄段
func (u *User) AgeGroup() string {
	if u.Age == nil {
		return ""
	}
	age := *u.Age
	switch {
	case age < 18:
		return "Under 18"
	case age <= 24:
		return "18-24"
	case age <= 34:
		return "25-34"
	case age <= 44:
		return "35-44"
	case age <= 54:
		return "45-54"
	case age <= 64:
		return "55-64"
	default:
		return "65+"
	}
}
