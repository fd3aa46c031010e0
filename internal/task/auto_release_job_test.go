package task

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/blues/eps/internal/config"
	"github.com/blues/eps/internal/logic"
	"github.com/blues/eps/internal/model"
	"github.com/blues/eps/internal/notifier"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// captureDispatcher 同步记录事件的假通知分发器
type captureDispatcher struct {
	mu     sync.Mutex
	events []notifier.Event
}

func (c *captureDispatcher) Dispatch(event notifier.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureDispatcher) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&model.Escrow{},
		&model.Milestone{},
		&model.Freelancer{},
		&model.NotificationRecord{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Escrow: config.EscrowConfig{AutoReleaseDays: 7, RequiresApproval: true},
		Task:   config.TaskConfig{Interval: 180, AttentionInterval: 3600, AttentionDays: 3},
	}
}

// seedEscrow 直接落库一条指定状态的托管记录及其关联数据
func seedEscrow(t *testing.T, db *gorm.DB, mutate func(*model.Escrow)) *model.Escrow {
	t.Helper()

	milestone := &model.Milestone{
		ContractID:     1,
		Title:          "接口开发",
		Amount:         3000,
		ClientID:       10,
		FreelancerID:   20,
		Status:         model.MilestoneStatusInProgress,
		PaymentStatus:  model.PaymentStatusEscrowed,
		DeliveryStatus: model.DeliveryStatusSubmitted,
	}
	if err := db.Create(milestone).Error; err != nil {
		t.Fatalf("failed to seed milestone: %v", err)
	}

	var freelancer model.Freelancer
	if err := db.First(&freelancer, uint(20)).Error; err != nil {
		if err := db.Create(&model.Freelancer{ID: 20, Name: "张三", Email: "dev@example.com"}).Error; err != nil {
			t.Fatalf("failed to seed freelancer: %v", err)
		}
	}

	activated := time.Now().Add(-10 * 24 * time.Hour)
	escrow := &model.Escrow{
		MilestoneID:      milestone.ID,
		GatewayOrderID:   fmt.Sprintf("order_%d", milestone.ID),
		ClientID:         10,
		FreelancerID:     20,
		Amount:           3000,
		FeePercentage:    5,
		PlatformFee:      150,
		TotalAmount:      3150,
		FreelancerAmount: 3000,
		Status:           model.EscrowStatusActive,
		ActivatedAt:      &activated,
		ApprovalStatus:   model.ApprovalStatusPending,
		RequiresApproval: true,
		AutoReleaseDays:  7,
	}
	if mutate != nil {
		mutate(escrow)
	}
	if err := db.Create(escrow).Error; err != nil {
		t.Fatalf("failed to seed escrow: %v", err)
	}

	return escrow
}

func daysAgo(n int) *time.Time {
	t := time.Now().Add(-time.Duration(n) * 24 * time.Hour)
	return &t
}

func TestAutoReleaseJobRunOnce(t *testing.T) {
	db := newTestDB(t)
	cfg := testConfig()
	escrowLogic := logic.NewEscrowLogic(db, nil, nil, cfg.Escrow, "INR")
	job := NewAutoReleaseJob(db, escrowLogic, cfg)

	// 超过等待天数，应放款
	overdue := seedEscrow(t, db, func(e *model.Escrow) {
		e.DeliverableSubmitted = true
		e.DeliverableSubmittedAt = daysAgo(8)
	})
	// 未超时，不动
	recent := seedEscrow(t, db, func(e *model.Escrow) {
		e.DeliverableSubmitted = true
		e.DeliverableSubmittedAt = daysAgo(3)
	})
	// 客户已通过，立即放款
	approved := seedEscrow(t, db, func(e *model.Escrow) {
		e.DeliverableSubmitted = true
		e.DeliverableSubmittedAt = daysAgo(1)
		e.ApprovalStatus = model.ApprovalStatusApproved
	})
	// 被拒绝的交付永不自动放款
	rejected := seedEscrow(t, db, func(e *model.Escrow) {
		e.DeliverableSubmitted = true
		e.DeliverableSubmittedAt = daysAgo(30)
		e.ApprovalStatus = model.ApprovalStatusRejected
	})
	// 争议中的记录不在扫描范围
	disputed := seedEscrow(t, db, func(e *model.Escrow) {
		e.DeliverableSubmitted = true
		e.DeliverableSubmittedAt = daysAgo(30)
		e.Status = model.EscrowStatusDisputed
	})

	released := job.RunOnce()
	if released != 2 {
		t.Errorf("released count = %d, want 2", released)
	}

	assertStatus := func(id uint, want model.EscrowStatus) {
		t.Helper()
		var e model.Escrow
		if err := db.First(&e, id).Error; err != nil {
			t.Fatalf("failed to load escrow %d: %v", id, err)
		}
		if e.Status != want {
			t.Errorf("escrow %d status = %s, want %s", id, e.Status, want)
		}
	}

	assertStatus(overdue.ID, model.EscrowStatusReleased)
	assertStatus(recent.ID, model.EscrowStatusActive)
	assertStatus(approved.ID, model.EscrowStatusReleased)
	assertStatus(rejected.ID, model.EscrowStatusActive)
	assertStatus(disputed.ID, model.EscrowStatusDisputed)

	// 超时放款的审批状态记为自动通过
	var e model.Escrow
	db.First(&e, overdue.ID)
	if e.ApprovalStatus != model.ApprovalStatusAutoApproved {
		t.Errorf("approval status = %s, want auto_approved", e.ApprovalStatus)
	}
	if e.ReleasedBy != nil {
		t.Error("auto release must record system (nil) as releaser")
	}
	if e.ReleaseReason != "auto-release" {
		t.Errorf("release reason = %q, want auto-release", e.ReleaseReason)
	}

	// 两笔放款，收入累计两次
	var f model.Freelancer
	db.First(&f, uint(20))
	if f.TotalEarnings != 6000 {
		t.Errorf("total earnings = %v, want 6000", f.TotalEarnings)
	}
	if f.CompletedMilestones != 2 {
		t.Errorf("completed milestones = %d, want 2", f.CompletedMilestones)
	}

	// 再扫一轮应当没有新的放款
	if released := job.RunOnce(); released != 0 {
		t.Errorf("second sweep released %d, want 0", released)
	}
}

func TestAutoReleaseJobEmptySweep(t *testing.T) {
	db := newTestDB(t)
	cfg := testConfig()
	escrowLogic := logic.NewEscrowLogic(db, nil, nil, cfg.Escrow, "INR")
	job := NewAutoReleaseJob(db, escrowLogic, cfg)

	if released := job.RunOnce(); released != 0 {
		t.Errorf("released count = %d, want 0 on empty database", released)
	}
}
