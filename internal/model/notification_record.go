package model

import (
	"time"

	"gorm.io/gorm"
)

// NotificationRecord 通知事件记录，同时作为托管记录的历史审计
type NotificationRecord struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	EventID      string  `json:"event_id" gorm:"uniqueIndex"` // 事件唯一标识
	EventType    string  `json:"event_type" gorm:"not null;index"`
	EscrowID     uint    `json:"escrow_id" gorm:"index"`
	MilestoneID  uint    `json:"milestone_id"`
	Amount       float64 `json:"amount"`
	ClientID     uint    `json:"client_id"`
	FreelancerID uint    `json:"freelancer_id"`
	Message      string  `json:"message" gorm:"type:text"`
	Status       string  `json:"status" gorm:"default:'sent'"` // sent, failed
}

// 通知事件类型
const (
	EventPaymentReceived      = "payment_received"
	EventDeliverableSubmitted = "deliverable_submitted"
	EventClientApproved       = "client_approved"
	EventClientRejected       = "client_rejected"
	EventFundsReleased        = "funds_released"
	EventDisputeRaised        = "dispute_raised"
	EventDisputeResolved      = "dispute_resolved"
	EventAttentionRequired    = "attention_required"
)
