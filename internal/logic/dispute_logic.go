package logic

import (
	"time"

	"github.com/blues/eps/internal/logger"
	"github.com/blues/eps/internal/model"
	"github.com/blues/eps/internal/notifier"
	"gorm.io/gorm"
)

// 争议处理结果
const (
	ResolutionRelease = "release" // 放款给自由职业者
	ResolutionRefund  = "refund"  // 退款给客户
)

// DisputeLogic 争议处理业务逻辑
type DisputeLogic struct {
	db         *gorm.DB
	dispatcher notifier.Dispatcher
}

// NewDisputeLogic 创建争议处理业务逻辑
func NewDisputeLogic(db *gorm.DB, dispatcher notifier.Dispatcher) *DisputeLogic {
	return &DisputeLogic{
		db:         db,
		dispatcher: dispatcher,
	}
}

// ResolveDispute 管理员裁决争议
// release：放款并记录管理员为裁决人；refund：全额退款给客户，不累计自由职业者收入。
// 两种结果都同步里程碑状态，其他取值一律拒绝
func (d *DisputeLogic) ResolveDispute(escrowID, adminID uint, outcome, notes string) (*model.Escrow, error) {
	if outcome != ResolutionRelease && outcome != ResolutionRefund {
		return nil, ErrInvalidResolution
	}

	var escrow model.Escrow
	if err := d.db.First(&escrow, escrowID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrEscrowNotFound
		}
		return nil, err
	}

	if escrow.Status != model.EscrowStatusDisputed {
		return nil, ErrEscrowNotDisputed
	}

	now := time.Now()
	err := d.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"resolution":  outcome,
			"resolved_at": &now,
			"resolved_by": adminID,
		}

		milestoneUpdates := map[string]interface{}{}

		if outcome == ResolutionRelease {
			updates["status"] = model.EscrowStatusReleased
			updates["released_at"] = &now
			updates["released_by"] = &adminID
			updates["release_reason"] = "dispute resolved: " + notes

			milestoneUpdates["status"] = model.MilestoneStatusCompleted
			milestoneUpdates["payment_status"] = model.PaymentStatusPaid
			milestoneUpdates["escrow_status"] = string(model.EscrowStatusReleased)
		} else {
			updates["status"] = model.EscrowStatusRefunded
			updates["refund_amount"] = escrow.TotalAmount
			updates["refunded_at"] = &now

			milestoneUpdates["payment_status"] = model.PaymentStatusRefunded
			milestoneUpdates["escrow_status"] = string(model.EscrowStatusRefunded)
		}

		res := tx.Model(&model.Escrow{}).
			Where("id = ? AND status = ?", escrowID, model.EscrowStatusDisputed).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrEscrowNotDisputed
		}

		// 裁决为放款时才累计收入
		if outcome == ResolutionRelease {
			err := tx.Model(&model.Freelancer{}).Where("id = ?", escrow.FreelancerID).
				Updates(map[string]interface{}{
					"total_earnings":       gorm.Expr("total_earnings + ?", escrow.FreelancerAmount),
					"completed_milestones": gorm.Expr("completed_milestones + 1"),
				}).Error
			if err != nil {
				return err
			}
		}

		return tx.Model(&model.Milestone{}).Where("id = ?", escrow.MilestoneID).
			Updates(milestoneUpdates).Error
	})
	if err != nil {
		return nil, err
	}

	var current model.Escrow
	if err := d.db.First(&current, escrowID).Error; err != nil {
		return nil, err
	}

	d.notify(model.EventDisputeResolved, &current, "争议已裁决: "+outcome)
	if outcome == ResolutionRelease {
		d.notify(model.EventFundsReleased, &current, "争议裁决放款")
	}

	logger.Info("Dispute on escrow %d resolved by admin %d with outcome %s", escrowID, adminID, outcome)

	return &current, nil
}

// ListOpenDisputes 分页查询争议中的托管记录
func (d *DisputeLogic) ListOpenDisputes(page, pageSize int) ([]model.Escrow, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	query := d.db.Model(&model.Escrow{}).Where("status = ?", model.EscrowStatusDisputed)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var escrows []model.Escrow
	err := query.Order("dispute_raised_at ASC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&escrows).Error
	if err != nil {
		return nil, 0, err
	}

	return escrows, total, nil
}

// notify 发送争议相关通知
func (d *DisputeLogic) notify(eventType string, escrow *model.Escrow, message string) {
	if d.dispatcher == nil {
		return
	}

	d.dispatcher.Dispatch(notifier.Event{
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
