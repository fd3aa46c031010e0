package notifier

import (
	"time"

	"github.com/blues/eps/internal/logger"
	"github.com/blues/eps/internal/model"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// Event 托管生命周期通知事件
type Event struct {
	EventID      string
	Type         string
	EscrowID     uint
	MilestoneID  uint
	Amount       float64
	ClientID     uint
	FreelancerID uint
	Message      string
	OccurredAt   time.Time
}

// Dispatcher 通知分发器
// 发送即忘：投递失败只记录日志，绝不影响触发它的状态变更
type Dispatcher interface {
	Dispatch(event Event)
}

// AsyncDispatcher 异步通知分发器
// 使用协程池投递，事件同时落库作为托管历史审计
type AsyncDispatcher struct {
	db   *gorm.DB
	pool *ants.Pool
}

// NewAsyncDispatcher 创建异步通知分发器
func NewAsyncDispatcher(db *gorm.DB, poolSize int) (*AsyncDispatcher, error) {
	if poolSize <= 0 {
		poolSize = 16
	}

	pool, err := ants.NewPool(poolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}

	return &AsyncDispatcher{
		db:   db,
		pool: pool,
	}, nil
}

// Dispatch 投递事件
func (d *AsyncDispatcher) Dispatch(event Event) {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	err := d.pool.Submit(func() {
		d.deliver(event)
	})
	if err != nil {
		// 协程池已满或已关闭，降级为同步投递
		logger.Warn("Notification pool rejected event %s, delivering inline: %v", event.Type, err)
		d.deliver(event)
	}
}

// deliver 落库并输出投递日志
func (d *AsyncDispatcher) deliver(event Event) {
	record := model.NotificationRecord{
		EventID:      event.EventID,
		EventType:    event.Type,
		EscrowID:     event.EscrowID,
		MilestoneID:  event.MilestoneID,
		Amount:       event.Amount,
		ClientID:     event.ClientID,
		FreelancerID: event.FreelancerID,
		Message:      event.Message,
		Status:       "sent",
	}

	if err := d.db.Create(&record).Error; err != nil {
		logger.Error("Failed to store notification %s for escrow %d: %v", event.Type, event.EscrowID, err)
		return
	}

	logger.Info("Dispatched notification %s for escrow %d (milestone %d, amount %.2f)",
		event.Type, event.EscrowID, event.MilestoneID, event.Amount)
}

// Close 释放协程池
func (d *AsyncDispatcher) Close() {
	d.pool.Release()
}
