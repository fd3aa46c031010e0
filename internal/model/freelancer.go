package model

import (
	"time"

	"gorm.io/gorm"
)

// Freelancer 自由职业者账户，放款时累计收入
type Freelancer struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	Name  string `json:"name"`
	Email string `json:"email" gorm:"uniqueIndex"`

	TotalEarnings       float64 `json:"total_earnings" gorm:"default:0"`       // 累计收入
	CompletedMilestones int     `json:"completed_milestones" gorm:"default:0"` // 已完成里程碑数
}
