package handler

import (
	"time"

	"github.com/blues/eps/internal/model"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// 请求模型

// CreateEscrowRequest 创建托管请求
type CreateEscrowRequest struct {
	MilestoneID uint `json:"milestone_id" binding:"required"`
	ClientID    uint `json:"client_id" binding:"required"`
}

// VerifyPaymentRequest 支付回调验证请求
type VerifyPaymentRequest struct {
	OrderID   string `json:"order_id" binding:"required"`
	PaymentID string `json:"payment_id" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// SubmitDeliverableRequest 提交交付物请求
type SubmitDeliverableRequest struct {
	FreelancerID uint   `json:"freelancer_id" binding:"required"`
	Note         string `json:"note"`
}

// RecordApprovalRequest 审批交付物请求
type RecordApprovalRequest struct {
	ClientID uint   `json:"client_id" binding:"required"`
	Approved *bool  `json:"approved" binding:"required"`
	Notes    string `json:"notes"`
}

// ReleaseFundsRequest 手动放款请求
type ReleaseFundsRequest struct {
	ActorID *uint  `json:"actor_id"`
	Reason  string `json:"reason"`
}

// RaiseDisputeRequest 发起争议请求
type RaiseDisputeRequest struct {
	ActorID uint   `json:"actor_id" binding:"required"`
	Reason  string `json:"reason" binding:"required"`
}

// CancelEscrowRequest 取消托管请求
type CancelEscrowRequest struct {
	ClientID uint `json:"client_id" binding:"required"`
}

// ResolveDisputeRequest 裁决争议请求
type ResolveDisputeRequest struct {
	AdminID uint   `json:"admin_id" binding:"required"`
	Outcome string `json:"outcome" binding:"required"`
	Notes   string `json:"notes"`
}

// 响应模型

// EscrowResponse 托管记录响应模型
type EscrowResponse struct {
	ID               uint       `json:"id"`
	MilestoneID      uint       `json:"milestoneId"`
	ClientID         uint       `json:"clientId"`
	FreelancerID     uint       `json:"freelancerId"`
	Amount           float64    `json:"amount"`
	FeePercentage    float64    `json:"feePercentage"`
	PlatformFee      float64    `json:"platformFee"`
	TotalAmount      float64    `json:"totalAmount"`
	FreelancerAmount float64    `json:"freelancerAmount"`
	Status           string     `json:"status"`
	GatewayOrderID   string     `json:"gatewayOrderId"`
	ActivatedAt      *time.Time `json:"activatedAt"`

	DeliverableSubmitted   bool       `json:"deliverableSubmitted"`
	DeliverableSubmittedAt *time.Time `json:"deliverableSubmittedAt"`
	ApprovalStatus         string     `json:"approvalStatus"`
	ApprovedAt             *time.Time `json:"approvedAt"`

	ReleasedAt    *time.Time `json:"releasedAt"`
	ReleasedBy    *uint      `json:"releasedBy"`
	ReleaseReason string     `json:"releaseReason"`

	DisputeRaisedAt *time.Time `json:"disputeRaisedAt"`
	DisputeReason   string     `json:"disputeReason"`
	Resolution      string     `json:"resolution"`
	ResolvedAt      *time.Time `json:"resolvedAt"`
	RefundAmount    float64    `json:"refundAmount"`

	RequiresApproval bool      `json:"requiresApproval"`
	AutoReleaseDays  int       `json:"autoReleaseDays"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// ToEscrowResponse 转换为托管记录响应模型
func ToEscrowResponse(e *model.Escrow) EscrowResponse {
	return EscrowResponse{
		ID:               e.ID,
		MilestoneID:      e.MilestoneID,
		ClientID:         e.ClientID,
		FreelancerID:     e.FreelancerID,
		Amount:           e.Amount,
		FeePercentage:    e.FeePercentage,
		PlatformFee:      e.PlatformFee,
		TotalAmount:      e.TotalAmount,
		FreelancerAmount: e.FreelancerAmount,
		Status:           string(e.Status),
		GatewayOrderID:   e.GatewayOrderID,
		ActivatedAt:      e.ActivatedAt,

		DeliverableSubmitted:   e.DeliverableSubmitted,
		DeliverableSubmittedAt: e.DeliverableSubmittedAt,
		ApprovalStatus:         string(e.ApprovalStatus),
		ApprovedAt:             e.ApprovedAt,

		ReleasedAt:    e.ReleasedAt,
		ReleasedBy:    e.ReleasedBy,
		ReleaseReason: e.ReleaseReason,

		DisputeRaisedAt: e.DisputeRaisedAt,
		DisputeReason:   e.DisputeReason,
		Resolution:      e.Resolution,
		ResolvedAt:      e.ResolvedAt,
		RefundAmount:    e.RefundAmount,

		RequiresApproval: e.RequiresApproval,
		AutoReleaseDays:  e.AutoReleaseDays,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

// ToEscrowResponseList 转换为托管记录响应列表
func ToEscrowResponseList(escrows []model.Escrow) []EscrowResponse {
	list := make([]EscrowResponse, 0, len(escrows))
	for i := range escrows {
		list = append(list, ToEscrowResponse(&escrows[i]))
	}
	return list
}

// GetEscrowResponse 获取托管详情响应
type GetEscrowResponse struct {
	Escrow EscrowResponse `json:"escrow"`
}

// GetEscrowsResponse 获取托管列表响应
type GetEscrowsResponse struct {
	Escrows    []EscrowResponse `json:"escrows"`
	Pagination Pagination       `json:"pagination"`
}

// HistoryEntryResponse 托管历史事件响应模型
type HistoryEntryResponse struct {
	EventID      string    `json:"eventId"`
	EventType    string    `json:"eventType"`
	Amount       float64   `json:"amount"`
	ClientID     uint      `json:"clientId"`
	FreelancerID uint      `json:"freelancerId"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"createdAt"`
}

// GetEscrowHistoryResponse 获取托管历史响应
type GetEscrowHistoryResponse struct {
	EscrowID uint                   `json:"escrowId"`
	History  []HistoryEntryResponse `json:"history"`
}

// ToHistoryResponseList 转换为历史事件响应列表
func ToHistoryResponseList(records []model.NotificationRecord) []HistoryEntryResponse {
	list := make([]HistoryEntryResponse, 0, len(records))
	for _, r := range records {
		list = append(list, HistoryEntryResponse{
			EventID:      r.EventID,
			EventType:    r.EventType,
			Amount:       r.Amount,
			ClientID:     r.ClientID,
			FreelancerID: r.FreelancerID,
			Message:      r.Message,
			CreatedAt:    r.CreatedAt,
		})
	}
	return list
}

// SweepResponse 手动扫描响应
type SweepResponse struct {
	Released int `json:"released"`
}
