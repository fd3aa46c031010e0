package model

import (
	"time"

	"gorm.io/gorm"
)

// Escrow 托管记录，每个里程碑至多一条未终结的记录
type Escrow struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	MilestoneID  uint `json:"milestone_id" gorm:"not null;index"`
	ClientID     uint `json:"client_id" gorm:"not null"`
	FreelancerID uint `json:"freelancer_id" gorm:"not null"`

	// 金额信息，TotalAmount 始终等于 Amount + PlatformFee
	Amount           float64 `json:"amount" gorm:"not null"`           // 本金（工作价值）
	FeePercentage    float64 `json:"fee_percentage" gorm:"not null"`   // 平台费率
	PlatformFee      float64 `json:"platform_fee" gorm:"not null"`     // 平台手续费
	TotalAmount      float64 `json:"total_amount" gorm:"not null"`     // 客户实付总额
	FreelancerAmount float64 `json:"freelancer_amount" gorm:"not null"` // 自由职业者应得金额

	// 状态
	Status EscrowStatus `json:"status" gorm:"default:'pending';index"`

	// 支付网关信息
	GatewayOrderID   string     `json:"gateway_order_id" gorm:"uniqueIndex"`
	GatewayPaymentID string     `json:"gateway_payment_id"`
	GatewaySignature string     `json:"gateway_signature"`
	ActivatedAt      *time.Time `json:"activated_at"`

	// 交付信息
	DeliverableSubmitted   bool           `json:"deliverable_submitted" gorm:"default:false"`
	DeliverableSubmittedAt *time.Time     `json:"deliverable_submitted_at"`
	DeliverableNote        string         `json:"deliverable_note" gorm:"type:text"`
	ApprovalStatus         ApprovalStatus `json:"approval_status" gorm:"default:'pending'"`
	ApprovedAt             *time.Time     `json:"approved_at"`
	ApprovedBy             uint           `json:"approved_by"`
	ApprovalNote           string         `json:"approval_note" gorm:"type:text"`

	// 放款信息，ReleasedBy 为空表示系统自动放款
	ReleasedAt    *time.Time `json:"released_at"`
	ReleasedBy    *uint      `json:"released_by"`
	ReleaseReason string     `json:"release_reason"`

	// 争议信息
	DisputeRaisedAt *time.Time `json:"dispute_raised_at"`
	DisputeRaisedBy uint       `json:"dispute_raised_by"`
	DisputeReason   string     `json:"dispute_reason" gorm:"type:text"`
	Resolution      string     `json:"resolution"`
	ResolvedAt      *time.Time `json:"resolved_at"`
	ResolvedBy      uint       `json:"resolved_by"`
	RefundAmount    float64    `json:"refund_amount" gorm:"default:0"`
	RefundedAt      *time.Time `json:"refunded_at"`

	// 创建时固化的策略参数
	RequiresApproval bool `json:"requires_approval" gorm:"default:true"` // 放款前是否需要单独确认
	AutoReleaseDays  int  `json:"auto_release_days" gorm:"default:7"`    // 无人处理时的自动放款天数

	// 关联
	Milestone Milestone `json:"milestone,omitempty" gorm:"foreignKey:MilestoneID"`
}

// EscrowStatus 托管状态
type EscrowStatus string

const (
	EscrowStatusPending   EscrowStatus = "pending"   // 订单已创建，未支付
	EscrowStatusActive    EscrowStatus = "active"    // 资金已托管
	EscrowStatusReleased  EscrowStatus = "released"  // 已放款
	EscrowStatusDisputed  EscrowStatus = "disputed"  // 争议中
	EscrowStatusRefunded  EscrowStatus = "refunded"  // 已退款
	EscrowStatusCancelled EscrowStatus = "cancelled" // 已取消
)

// ApprovalStatus 交付审批状态
type ApprovalStatus string

const (
	ApprovalStatusPending      ApprovalStatus = "pending"       // 待审批
	ApprovalStatusApproved     ApprovalStatus = "approved"      // 客户已通过
	ApprovalStatusRejected     ApprovalStatus = "rejected"      // 客户已拒绝
	ApprovalStatusAutoApproved ApprovalStatus = "auto_approved" // 超时自动通过
)

// IsTerminal 是否为终结状态
func (s EscrowStatus) IsTerminal() bool {
	return s == EscrowStatusReleased || s == EscrowStatusRefunded || s == EscrowStatusCancelled
}

// AutoReleaseDue 判断是否满足自动放款条件
// 已通过的审批立即生效；待审批的按提交时间（缺失时按激活时间）加等待天数计算；
// 被拒绝的交付永远不会自动放款
func (e *Escrow) AutoReleaseDue(now time.Time) bool {
	if e.Status != EscrowStatusActive || !e.DeliverableSubmitted {
		return false
	}

	switch e.ApprovalStatus {
	case ApprovalStatusApproved:
		return true
	case ApprovalStatusPending:
		ref := e.DeliverableSubmittedAt
		if ref == nil {
			ref = e.ActivatedAt
		}
		if ref == nil {
			return false
		}
		deadline := ref.Add(time.Duration(e.AutoReleaseDays) * 24 * time.Hour)
		return !now.Before(deadline)
	default:
		return false
	}
}
