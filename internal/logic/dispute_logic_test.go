package logic

import (
	"errors"
	"testing"

	"github.com/blues/eps/internal/model"
	"gorm.io/gorm"
)

const testAdminID = uint(1)

// disputedEscrow 造一条争议中的托管记录
func disputedEscrow(t *testing.T, db *gorm.DB, l *EscrowLogic, amount, budget float64) *model.Escrow {
	t.Helper()

	milestone := seedMilestone(t, db, amount, budget)
	escrow := activateEscrow(t, l, milestone.ID)
	if _, err := l.SubmitDeliverable(escrow.ID, testFreelancerID, "done"); err != nil {
		t.Fatalf("SubmitDeliverable failed: %v", err)
	}

	disputed, err := l.RaiseDispute(escrow.ID, testClientID, "交付物与约定不符")
	if err != nil {
		t.Fatalf("RaiseDispute failed: %v", err)
	}
	return disputed
}

func TestResolveDispute(t *testing.T) {
	t.Run("裁决退款", func(t *testing.T) {
		db, l, _, disp := newTestLogic(t, true)
		escrow := disputedEscrow(t, db, l, 3000, 0)
		d := NewDisputeLogic(db, disp)

		resolved, err := d.ResolveDispute(escrow.ID, testAdminID, ResolutionRefund, "客户主张成立")
		if err != nil {
			t.Fatalf("ResolveDispute failed: %v", err)
		}

		if resolved.Status != model.EscrowStatusRefunded {
			t.Errorf("status = %s, want refunded", resolved.Status)
		}
		// 退款金额是客户实际支付的总额，包含手续费
		if resolved.RefundAmount != escrow.TotalAmount {
			t.Errorf("refund amount = %v, want %v", resolved.RefundAmount, escrow.TotalAmount)
		}
		if resolved.RefundedAt == nil {
			t.Error("expected refund timestamp")
		}
		if resolved.Resolution != ResolutionRefund {
			t.Errorf("resolution = %s, want refund", resolved.Resolution)
		}

		// 退款不累计自由职业者收入
		var f model.Freelancer
		db.First(&f, testFreelancerID)
		if f.TotalEarnings != 0 {
			t.Errorf("total earnings = %v, want 0 after refund", f.TotalEarnings)
		}

		var m model.Milestone
		db.First(&m, escrow.MilestoneID)
		if m.PaymentStatus != model.PaymentStatusRefunded {
			t.Errorf("milestone payment status = %s, want refunded", m.PaymentStatus)
		}

		if n := disp.countByType(model.EventDisputeResolved); n != 1 {
			t.Errorf("dispute_resolved events = %d, want 1", n)
		}
	})

	t.Run("裁决放款", func(t *testing.T) {
		db, l, _, disp := newTestLogic(t, true)
		escrow := disputedEscrow(t, db, l, 3000, 0)
		d := NewDisputeLogic(db, disp)

		resolved, err := d.ResolveDispute(escrow.ID, testAdminID, ResolutionRelease, "交付物符合约定")
		if err != nil {
			t.Fatalf("ResolveDispute failed: %v", err)
		}

		if resolved.Status != model.EscrowStatusReleased {
			t.Errorf("status = %s, want released", resolved.Status)
		}
		if resolved.ReleasedBy == nil || *resolved.ReleasedBy != testAdminID {
			t.Error("expected resolving admin recorded as releaser")
		}
		if resolved.ReleasedAt == nil {
			t.Error("expected release timestamp")
		}

		var f model.Freelancer
		db.First(&f, testFreelancerID)
		if f.TotalEarnings != 3000 {
			t.Errorf("total earnings = %v, want 3000", f.TotalEarnings)
		}
		if f.CompletedMilestones != 1 {
			t.Errorf("completed milestones = %d, want 1", f.CompletedMilestones)
		}

		var m model.Milestone
		db.First(&m, escrow.MilestoneID)
		if m.PaymentStatus != model.PaymentStatusPaid {
			t.Errorf("milestone payment status = %s, want paid", m.PaymentStatus)
		}

		if n := disp.countByType(model.EventFundsReleased); n != 1 {
			t.Errorf("funds_released events = %d, want 1", n)
		}
	})

	t.Run("非法裁决结果", func(t *testing.T) {
		db, l, _, disp := newTestLogic(t, true)
		escrow := disputedEscrow(t, db, l, 3000, 0)
		d := NewDisputeLogic(db, disp)

		if _, err := d.ResolveDispute(escrow.ID, testAdminID, "split", ""); !errors.Is(err, ErrInvalidResolution) {
			t.Errorf("err = %v, want ErrInvalidResolution", err)
		}

		var e model.Escrow
		db.First(&e, escrow.ID)
		if e.Status != model.EscrowStatusDisputed {
			t.Errorf("status = %s, want disputed untouched", e.Status)
		}
	})

	t.Run("非争议状态不能裁决", func(t *testing.T) {
		db, l, _, disp := newTestLogic(t, true)
		milestone := seedMilestone(t, db, 3000, 0)
		escrow := activateEscrow(t, l, milestone.ID)
		d := NewDisputeLogic(db, disp)

		if _, err := d.ResolveDispute(escrow.ID, testAdminID, ResolutionRefund, ""); !errors.Is(err, ErrEscrowNotDisputed) {
			t.Errorf("err = %v, want ErrEscrowNotDisputed", err)
		}
	})

	t.Run("重复裁决被拒绝", func(t *testing.T) {
		db, l, _, disp := newTestLogic(t, true)
		escrow := disputedEscrow(t, db, l, 3000, 0)
		d := NewDisputeLogic(db, disp)

		if _, err := d.ResolveDispute(escrow.ID, testAdminID, ResolutionRelease, "first"); err != nil {
			t.Fatalf("first resolution failed: %v", err)
		}
		if _, err := d.ResolveDispute(escrow.ID, testAdminID, ResolutionRefund, "second"); !errors.Is(err, ErrEscrowNotDisputed) {
			t.Errorf("err = %v, want ErrEscrowNotDisputed", err)
		}

		// 收入只记一次
		var f model.Freelancer
		db.First(&f, testFreelancerID)
		if f.TotalEarnings != 3000 {
			t.Errorf("total earnings = %v, want 3000", f.TotalEarnings)
		}
	})

	t.Run("记录不存在", func(t *testing.T) {
		db, _, _, disp := newTestLogic(t, true)
		d := NewDisputeLogic(db, disp)

		if _, err := d.ResolveDispute(999, testAdminID, ResolutionRefund, ""); !errors.Is(err, ErrEscrowNotFound) {
			t.Errorf("err = %v, want ErrEscrowNotFound", err)
		}
	})
}

func TestListOpenDisputes(t *testing.T) {
	db, l, _, disp := newTestLogic(t, true)
	d := NewDisputeLogic(db, disp)

	first := disputedEscrow(t, db, l, 3000, 0)

	// 第二条记录属于另一个里程碑
	milestone := seedMilestone(t, db, 5000, 0)
	escrow := activateEscrow(t, l, milestone.ID)
	if _, err := l.RaiseDispute(escrow.ID, testFreelancerID, "客户拖延验收"); err != nil {
		t.Fatalf("RaiseDispute failed: %v", err)
	}

	open, total, err := d.ListOpenDisputes(1, 10)
	if err != nil {
		t.Fatalf("ListOpenDisputes failed: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if len(open) != 2 {
		t.Fatalf("open disputes = %d, want 2", len(open))
	}
	// 按争议发起时间升序
	if open[0].ID != first.ID {
		t.Errorf("expected oldest dispute first, got escrow %d", open[0].ID)
	}

	// 裁决后移出列表
	if _, err := d.ResolveDispute(first.ID, testAdminID, ResolutionRefund, ""); err != nil {
		t.Fatalf("ResolveDispute failed: %v", err)
	}
	_, total, err = d.ListOpenDisputes(1, 10)
	if err != nil {
		t.Fatalf("ListOpenDisputes failed: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1 after resolution", total)
	}
}
