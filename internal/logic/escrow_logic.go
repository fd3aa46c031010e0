package logic

import (
	"context"
	"fmt"
	"time"

	"github.com/blues/eps/internal/config"
	"github.com/blues/eps/internal/fee"
	"github.com/blues/eps/internal/gateway"
	"github.com/blues/eps/internal/logger"
	"github.com/blues/eps/internal/model"
	"github.com/blues/eps/internal/notifier"
	"gorm.io/gorm"
)

// EscrowLogic 托管业务逻辑，负责托管记录的完整生命周期
type EscrowLogic struct {
	db         *gorm.DB
	gateway    gateway.Adapter
	dispatcher notifier.Dispatcher
	policy     config.EscrowConfig
	currency   string
}

// NewEscrowLogic 创建托管业务逻辑
func NewEscrowLogic(db *gorm.DB, gw gateway.Adapter, dispatcher notifier.Dispatcher, policy config.EscrowConfig, currency string) *EscrowLogic {
	if policy.AutoReleaseDays <= 0 {
		policy.AutoReleaseDays = 7
	}
	if currency == "" {
		currency = "INR"
	}

	return &EscrowLogic{
		db:         db,
		gateway:    gw,
		dispatcher: dispatcher,
		policy:     policy,
		currency:   currency,
	}
}

// CreateEscrow 为里程碑创建托管支付订单
// 同一里程碑只允许存在一条未终结的托管记录；遗留的待支付/已取消记录先物理删除以支持重试
func (l *EscrowLogic) CreateEscrow(ctx context.Context, milestoneID, clientID uint) (*model.Escrow, error) {
	// 检查里程碑是否存在
	var milestone model.Milestone
	if err := l.db.First(&milestone, milestoneID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrMilestoneNotFound
		}
		return nil, err
	}

	if milestone.ClientID != clientID {
		return nil, ErrUnauthorized
	}

	// 检查是否已存在占用该里程碑的托管记录
	var count int64
	err := l.db.Model(&model.Escrow{}).
		Where("milestone_id = ? AND status IN ?", milestoneID, []model.EscrowStatus{
			model.EscrowStatusActive,
			model.EscrowStatusDisputed,
			model.EscrowStatusReleased,
		}).Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEscrowExists
	}

	// 清理遗留记录，允许重新发起支付
	err = l.db.Unscoped().
		Where("milestone_id = ? AND status IN ?", milestoneID, []model.EscrowStatus{
			model.EscrowStatusPending,
			model.EscrowStatusCancelled,
		}).Delete(&model.Escrow{}).Error
	if err != nil {
		return nil, err
	}

	// 计算服务费
	var refBudget *float64
	if milestone.ContractBudget > 0 {
		refBudget = &milestone.ContractBudget
	}
	breakdown := fee.Calculate(milestone.Amount, refBudget)

	// 向支付网关申请订单
	receipt := fmt.Sprintf("escrow-m%d", milestoneID)
	notes := map[string]string{
		"milestone_id": fmt.Sprintf("%d", milestoneID),
		"client_id":    fmt.Sprintf("%d", clientID),
	}
	order, err := l.gateway.CreateOrder(ctx, breakdown.TotalCharged, l.currency, receipt, notes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	escrow := &model.Escrow{
		MilestoneID:      milestoneID,
		ClientID:         clientID,
		FreelancerID:     milestone.FreelancerID,
		Amount:           milestone.Amount,
		FeePercentage:    breakdown.FeePercentage,
		PlatformFee:      breakdown.FeeAmount,
		TotalAmount:      breakdown.TotalCharged,
		FreelancerAmount: breakdown.AmountToFreelancer,
		Status:           model.EscrowStatusPending,
		GatewayOrderID:   order.ID,
		ApprovalStatus:   model.ApprovalStatusPending,
		RequiresApproval: l.policy.RequiresApproval,
		AutoReleaseDays:  l.policy.AutoReleaseDays,
	}

	err = l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(escrow).Error; err != nil {
			return err
		}
		return tx.Model(&model.Milestone{}).Where("id = ?", milestoneID).
			Updates(map[string]interface{}{
				"payment_status": model.PaymentStatusProcessing,
				"escrow_status":  string(model.EscrowStatusPending),
			}).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Created escrow %d for milestone %d, order %s, total %.2f",
		escrow.ID, milestoneID, order.ID, escrow.TotalAmount)

	return escrow, nil
}

// ActivateEscrow 校验支付回调并激活托管
// 对同一笔已验证支付的重复调用是幂等的：直接返回已激活的记录，不报错——
// 客户端回调重试是常态
func (l *EscrowLogic) ActivateEscrow(ctx context.Context, orderID, paymentID, signature string) (*model.Escrow, error) {
	var escrow model.Escrow
	if err := l.db.Where("gateway_order_id = ?", orderID).First(&escrow).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrEscrowNotFound
		}
		return nil, err
	}

	// 先验证真实性，再考虑幂等
	if !l.gateway.VerifySignature(orderID, paymentID, signature) {
		return nil, ErrInvalidSignature
	}

	payment, err := l.gateway.FetchPayment(ctx, paymentID)
	if err != nil {
		// 网关故障不改变任何状态，调用方重试即可
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	if payment.Status != gateway.PaymentStatusCaptured {
		return nil, ErrPaymentNotCaptured
	}

	// 重复回调：已用同一笔支付激活过，原样返回
	if escrow.Status == model.EscrowStatusActive && escrow.GatewayPaymentID == paymentID {
		return &escrow, nil
	}
	if escrow.Status != model.EscrowStatusPending {
		return nil, ErrEscrowNotPending
	}

	now := time.Now()
	err = l.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Escrow{}).
			Where("id = ? AND status = ?", escrow.ID, model.EscrowStatusPending).
			Updates(map[string]interface{}{
				"status":             model.EscrowStatusActive,
				"gateway_payment_id": paymentID,
				"gateway_signature":  signature,
				"activated_at":       &now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// 并发回调已经激活过，无需重复同步
			return nil
		}

		return tx.Model(&model.Milestone{}).Where("id = ?", escrow.MilestoneID).
			Updates(map[string]interface{}{
				"status":         model.MilestoneStatusInProgress,
				"payment_status": model.PaymentStatusEscrowed,
				"escrow_status":  string(model.EscrowStatusActive),
			}).Error
	})
	if err != nil {
		return nil, err
	}

	if err := l.db.First(&escrow, escrow.ID).Error; err != nil {
		return nil, err
	}
	if escrow.Status != model.EscrowStatusActive {
		return nil, ErrEscrowNotPending
	}
	if escrow.GatewayPaymentID != paymentID {
		return nil, ErrInvalidSignature
	}

	l.notify(model.EventPaymentReceived, &escrow, "资金已托管")

	logger.Info("Activated escrow %d with payment %s", escrow.ID, paymentID)

	return &escrow, nil
}

// SubmitDeliverable 自由职业者提交交付物
// 不改变托管状态；重新提交会把审批状态重置为待审批
func (l *EscrowLogic) SubmitDeliverable(escrowID, freelancerID uint, note string) (*model.Escrow, error) {
	escrow, err := l.getEscrow(escrowID)
	if err != nil {
		return nil, err
	}

	if escrow.Status == model.EscrowStatusDisputed {
		return nil, ErrEscrowDisputed
	}
	if escrow.Status != model.EscrowStatusActive {
		return nil, ErrEscrowNotActive
	}
	if escrow.FreelancerID != freelancerID {
		return nil, ErrUnauthorized
	}

	now := time.Now()
	err = l.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(escrow).Updates(map[string]interface{}{
			"deliverable_submitted":    true,
			"deliverable_submitted_at": &now,
			"deliverable_note":         note,
			"approval_status":          model.ApprovalStatusPending,
			"approved_at":              nil,
			"approved_by":              0,
			"approval_note":            "",
		}).Error
		if err != nil {
			return err
		}

		return tx.Model(&model.Milestone{}).Where("id = ?", escrow.MilestoneID).
			Update("delivery_status", model.DeliveryStatusSubmitted).Error
	})
	if err != nil {
		return nil, err
	}

	l.notify(model.EventDeliverableSubmitted, escrow, "交付物已提交")

	logger.Info("Escrow %d deliverable submitted by freelancer %d", escrowID, freelancerID)

	return l.getEscrow(escrowID)
}

// RecordApproval 客户审批交付物
// 通过且策略不要求单独确认时，在同一逻辑操作内立即放款；
// 拒绝后自由职业者可重新提交交付物开启新一轮审批
func (l *EscrowLogic) RecordApproval(escrowID, clientID uint, approved bool, notes string) (*model.Escrow, error) {
	escrow, err := l.getEscrow(escrowID)
	if err != nil {
		return nil, err
	}

	if escrow.Status == model.EscrowStatusDisputed {
		return nil, ErrEscrowDisputed
	}
	if escrow.Status != model.EscrowStatusActive {
		return nil, ErrEscrowNotActive
	}
	if !escrow.DeliverableSubmitted {
		return nil, ErrDeliverableNotSubmitted
	}
	if escrow.ClientID != clientID {
		return nil, ErrUnauthorized
	}

	now := time.Now()
	approvalStatus := model.ApprovalStatusRejected
	deliveryStatus := model.DeliveryStatusRejected
	if approved {
		approvalStatus = model.ApprovalStatusApproved
		deliveryStatus = model.DeliveryStatusApproved
	}

	err = l.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(escrow).Updates(map[string]interface{}{
			"approval_status": approvalStatus,
			"approved_at":     &now,
			"approved_by":     clientID,
			"approval_note":   notes,
		}).Error
		if err != nil {
			return err
		}

		return tx.Model(&model.Milestone{}).Where("id = ?", escrow.MilestoneID).
			Update("delivery_status", deliveryStatus).Error
	})
	if err != nil {
		return nil, err
	}

	if !approved {
		l.notify(model.EventClientRejected, escrow, "客户拒绝了交付物")
		logger.Info("Escrow %d deliverable rejected by client %d", escrowID, clientID)
		return l.getEscrow(escrowID)
	}

	l.notify(model.EventClientApproved, escrow, "客户通过了交付物")
	logger.Info("Escrow %d deliverable approved by client %d", escrowID, clientID)

	// 不要求单独确认时审批通过立即放款
	if !escrow.RequiresApproval {
		return l.ReleaseFunds(escrowID, nil, "auto-release after approval")
	}

	return l.getEscrow(escrowID)
}

// ReleaseFunds 放款给自由职业者
// 状态转移用条件更新做比较交换：只有仍处于active的记录才会被提交，
// 并发竞争者读到已放款的状态后返回良性结果而不是错误。
// 状态转移、审计时间戳、收入累计和里程碑同步在同一事务内提交
func (l *EscrowLogic) ReleaseFunds(escrowID uint, actorID *uint, reason string) (*model.Escrow, error) {
	escrow, err := l.getEscrow(escrowID)
	if err != nil {
		return nil, err
	}

	// 重复放款请求直接返回现状
	if escrow.Status == model.EscrowStatusReleased {
		return escrow, nil
	}
	if escrow.Status == model.EscrowStatusDisputed {
		return nil, ErrEscrowDisputed
	}
	if escrow.Status != model.EscrowStatusActive {
		return nil, ErrReleaseNotEligible
	}
	if !escrow.DeliverableSubmitted || escrow.ApprovalStatus == model.ApprovalStatusRejected {
		return nil, ErrReleaseNotEligible
	}

	now := time.Now()
	won := false
	err = l.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":         model.EscrowStatusReleased,
			"released_at":    &now,
			"released_by":    actorID,
			"release_reason": reason,
		}
		// 超时放款视为自动通过
		if escrow.ApprovalStatus == model.ApprovalStatusPending {
			updates["approval_status"] = model.ApprovalStatusAutoApproved
			updates["approved_at"] = &now
		}

		res := tx.Model(&model.Escrow{}).
			Where("id = ? AND status = ?", escrowID, model.EscrowStatusActive).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// 另一个调用方赢得了状态转移
			return nil
		}
		won = true

		// 累计自由职业者收入，放款成功才会执行且只执行一次
		err := tx.Model(&model.Freelancer{}).Where("id = ?", escrow.FreelancerID).
			Updates(map[string]interface{}{
				"total_earnings":       gorm.Expr("total_earnings + ?", escrow.FreelancerAmount),
				"completed_milestones": gorm.Expr("completed_milestones + 1"),
			}).Error
		if err != nil {
			return err
		}

		return tx.Model(&model.Milestone{}).Where("id = ?", escrow.MilestoneID).
			Updates(map[string]interface{}{
				"status":         model.MilestoneStatusCompleted,
				"payment_status": model.PaymentStatusPaid,
				"escrow_status":  string(model.EscrowStatusReleased),
			}).Error
	})
	if err != nil {
		return nil, err
	}

	current, err := l.getEscrow(escrowID)
	if err != nil {
		return nil, err
	}

	if !won {
		// 竞争失败：若对方已放款则返回良性结果，否则状态已被其他转移占用
		if current.Status == model.EscrowStatusReleased {
			return current, nil
		}
		if current.Status == model.EscrowStatusDisputed {
			return nil, ErrEscrowDisputed
		}
		return nil, ErrReleaseNotEligible
	}

	l.notify(model.EventFundsReleased, current, "资金已放款给自由职业者")

	logger.Info("Released escrow %d, amount %.2f to freelancer %d (reason: %s)",
		escrowID, current.FreelancerAmount, current.FreelancerID, reason)

	return current, nil
}

// RaiseDispute 发起争议，冻结后续审批与放款
func (l *EscrowLogic) RaiseDispute(escrowID, actorID uint, reason string) (*model.Escrow, error) {
	escrow, err := l.getEscrow(escrowID)
	if err != nil {
		return nil, err
	}

	if escrow.Status == model.EscrowStatusDisputed {
		return nil, ErrEscrowDisputed
	}
	if escrow.Status != model.EscrowStatusActive {
		return nil, ErrEscrowNotActive
	}
	if actorID != escrow.ClientID && actorID != escrow.FreelancerID {
		return nil, ErrUnauthorized
	}

	now := time.Now()
	err = l.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Escrow{}).
			Where("id = ? AND status = ?", escrowID, model.EscrowStatusActive).
			Updates(map[string]interface{}{
				"status":            model.EscrowStatusDisputed,
				"dispute_raised_at": &now,
				"dispute_raised_by": actorID,
				"dispute_reason":    reason,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrEscrowNotActive
		}

		return tx.Model(&model.Milestone{}).Where("id = ?", escrow.MilestoneID).
			Update("escrow_status", string(model.EscrowStatusDisputed)).Error
	})
	if err != nil {
		return nil, err
	}

	current, err := l.getEscrow(escrowID)
	if err != nil {
		return nil, err
	}

	l.notify(model.EventDisputeRaised, current, "托管进入争议状态")

	logger.Info("Dispute raised on escrow %d by user %d", escrowID, actorID)

	return current, nil
}

// CancelEscrow 取消未支付的托管订单
func (l *EscrowLogic) CancelEscrow(escrowID, clientID uint) (*model.Escrow, error) {
	escrow, err := l.getEscrow(escrowID)
	if err != nil {
		return nil, err
	}

	if escrow.ClientID != clientID {
		return nil, ErrUnauthorized
	}
	if escrow.Status != model.EscrowStatusPending {
		return nil, ErrEscrowNotPending
	}

	err = l.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(escrow).Update("status", model.EscrowStatusCancelled).Error
		if err != nil {
			return err
		}

		return tx.Model(&model.Milestone{}).Where("id = ?", escrow.MilestoneID).
			Updates(map[string]interface{}{
				"payment_status": model.PaymentStatusUnpaid,
				"escrow_status":  string(model.EscrowStatusCancelled),
			}).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Cancelled escrow %d for milestone %d", escrowID, escrow.MilestoneID)

	return l.getEscrow(escrowID)
}

// GetEscrow 查询托管记录
func (l *EscrowLogic) GetEscrow(escrowID uint) (*model.Escrow, error) {
	return l.getEscrow(escrowID)
}

// GetEscrowByMilestone 查询里程碑当前的托管记录
func (l *EscrowLogic) GetEscrowByMilestone(milestoneID uint) (*model.Escrow, error) {
	var escrow model.Escrow
	err := l.db.Where("milestone_id = ?", milestoneID).
		Order("id DESC").First(&escrow).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrEscrowNotFound
		}
		return nil, err
	}
	return &escrow, nil
}

// ListEscrows 分页查询托管记录
func (l *EscrowLogic) ListEscrows(status string, page, pageSize int) ([]model.Escrow, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	query := l.db.Model(&model.Escrow{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var escrows []model.Escrow
	err := query.Order("id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&escrows).Error
	if err != nil {
		return nil, 0, err
	}

	return escrows, total, nil
}

// GetEscrowHistory 查询托管记录的事件历史
func (l *EscrowLogic) GetEscrowHistory(escrowID uint) ([]model.NotificationRecord, error) {
	if _, err := l.getEscrow(escrowID); err != nil {
		return nil, err
	}

	var records []model.NotificationRecord
	err := l.db.Where("escrow_id = ?", escrowID).
		Order("created_at ASC").Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}

// getEscrow 按ID加载托管记录
func (l *EscrowLogic) getEscrow(escrowID uint) (*model.Escrow, error) {
	var escrow model.Escrow
	if err := l.db.First(&escrow, escrowID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrEscrowNotFound
		}
		return nil, err
	}
	return &escrow, nil
}

// notify 发送生命周期通知，投递失败不影响状态变更
func (l *EscrowLogic) notify(eventType string, escrow *model.Escrow, message string) {
	if l.dispatcher == nil {
		return
	}

	l.dispatcher.Dispatch(notifier.Event{
		Type:         eventType,
		EscrowID:     escrow.ID,
		MilestoneID:  escrow.MilestoneID,
		Amount:       escrow.Amount,
		ClientID:     escrow.ClientID,
		FreelancerID: escrow.FreelancerID,
		Message:      message,
		OccurredAt:   time.Now(),
	})
}
