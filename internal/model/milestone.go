package model

import (
	"time"

	"gorm.io/gorm"
)

// Milestone 合同里程碑，托管引擎会回写其支付相关字段
type Milestone struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	ContractID  uint      `json:"contract_id" gorm:"not null;index"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description" gorm:"type:text"`
	DueDate     time.Time `json:"due_date"`

	// 金额信息
	Amount         float64 `json:"amount" gorm:"not null"`          // 里程碑金额
	ContractBudget float64 `json:"contract_budget" gorm:"default:0"` // 所属合同预算，用于费率分档

	// 参与方
	ClientID     uint `json:"client_id" gorm:"not null"`
	FreelancerID uint `json:"freelancer_id" gorm:"not null"`

	// 状态镜像，供只读里程碑的子系统使用
	Status         MilestoneStatus `json:"status" gorm:"default:'pending'"`
	PaymentStatus  PaymentStatus   `json:"payment_status" gorm:"default:'unpaid'"`
	EscrowStatus   string          `json:"escrow_status" gorm:"default:''"`
	DeliveryStatus DeliveryStatus  `json:"delivery_status" gorm:"default:'none'"`
}

// MilestoneStatus 里程碑状态
type MilestoneStatus string

const (
	MilestoneStatusPending    MilestoneStatus = "pending"     // 待开始
	MilestoneStatusInProgress MilestoneStatus = "in_progress" // 进行中
	MilestoneStatusCompleted  MilestoneStatus = "completed"   // 已完成
)

// PaymentStatus 里程碑支付状态
type PaymentStatus string

const (
	PaymentStatusUnpaid     PaymentStatus = "unpaid"     // 未支付
	PaymentStatusProcessing PaymentStatus = "processing" // 支付进行中
	PaymentStatusEscrowed   PaymentStatus = "escrowed"   // 资金已托管
	PaymentStatusPaid       PaymentStatus = "paid"       // 已结算给自由职业者
	PaymentStatusRefunded   PaymentStatus = "refunded"   // 已退款给客户
)

// DeliveryStatus 交付状态
type DeliveryStatus string

const (
	DeliveryStatusNone      DeliveryStatus = "none"      // 未交付
	DeliveryStatusSubmitted DeliveryStatus = "submitted" // 已提交
	DeliveryStatusApproved  DeliveryStatus = "approved"  // 已通过
	DeliveryStatusRejected  DeliveryStatus = "rejected"  // 已拒绝
)
