package task

import (
	"github.com/blues/eps/internal/config"
	"github.com/blues/eps/internal/logger"
	"github.com/blues/eps/internal/logic"
	"github.com/blues/eps/internal/notifier"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// Job 定时任务
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager 任务管理器
type Manager struct {
	scheduler   gocron.Scheduler
	db          *gorm.DB
	escrowLogic *logic.EscrowLogic
	dispatcher  notifier.Dispatcher
	config      *config.Config

	autoReleaseJob *AutoReleaseJob
}

// NewManager 创建新的任务管理器
func NewManager(db *gorm.DB, escrowLogic *logic.EscrowLogic, dispatcher notifier.Dispatcher, cfg *config.Config) *Manager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &Manager{
		scheduler:   s,
		db:          db,
		escrowLogic: escrowLogic,
		dispatcher:  dispatcher,
		config:      cfg,
	}
}

// Start 注册任务并启动调度器
func (m *Manager) Start() {
	m.RegisterJobs()
	m.scheduler.Start()
	logger.Info("Task manager started successfully")
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() {
	// 自动放款扫描
	m.autoReleaseJob = NewAutoReleaseJob(m.db, m.escrowLogic, m.config)
	m.registerJob(m.autoReleaseJob)

	// 人工关注巡检
	m.registerJob(NewAttentionReportJob(m.db, m.dispatcher, m.config))
}

// registerJob 注册单个任务
// 单例模式保证上一轮未结束时跳过本轮，扫描永不自我重叠
func (m *Manager) registerJob(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// TriggerSweep 手动触发一次自动放款扫描
func (m *Manager) TriggerSweep() int {
	if m.autoReleaseJob == nil {
		m.autoReleaseJob = NewAutoReleaseJob(m.db, m.escrowLogic, m.config)
	}
	return m.autoReleaseJob.RunOnce()
}

// Stop 停止任务管理器，等待执行中的任务结束
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
