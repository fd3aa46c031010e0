package task

import (
	"time"

	"github.com/blues/eps/internal/config"
	"github.com/blues/eps/internal/logger"
	"github.com/blues/eps/internal/logic"
	"github.com/blues/eps/internal/model"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// AutoReleaseJob 自动放款扫描任务
// 定期扫描已提交交付物的生效托管，对满足条件的执行系统放款
type AutoReleaseJob struct {
	db          *gorm.DB
	escrowLogic *logic.EscrowLogic
	config      *config.Config
}

// NewAutoReleaseJob 创建自动放款扫描任务
func NewAutoReleaseJob(db *gorm.DB, escrowLogic *logic.EscrowLogic, cfg *config.Config) *AutoReleaseJob {
	return &AutoReleaseJob{
		db:          db,
		escrowLogic: escrowLogic,
		config:      cfg,
	}
}

// GetName 获取任务名称
func (j *AutoReleaseJob) GetName() string {
	return "escrow_auto_release"
}

// GetSchedule 获取调度配置
func (j *AutoReleaseJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *AutoReleaseJob) Execute() {
	j.RunOnce()
}

// RunOnce 扫描一轮并返回放款数量
// 单条记录失败只记录日志并跳过，不中断整轮扫描
func (j *AutoReleaseJob) RunOnce() int {
	logger.Info("Starting escrow auto release sweep")

	now := time.Now()

	var escrows []model.Escrow
	err := j.db.Where("status = ? AND deliverable_submitted = ?", model.EscrowStatusActive, true).
		Find(&escrows).Error
	if err != nil {
		logger.Error("Failed to fetch active escrows: %v", err)
		return 0
	}

	releasedCount := 0

	for _, escrow := range escrows {
		if !escrow.AutoReleaseDue(now) {
			continue
		}

		if _, err := j.escrowLogic.ReleaseFunds(escrow.ID, nil, "auto-release"); err != nil {
			logger.Error("Failed to auto release escrow %d: %v", escrow.ID, err)
			continue
		}

		logger.Info("Auto released escrow %d for milestone %d", escrow.ID, escrow.MilestoneID)
		releasedCount++
	}

	logger.Info("Escrow auto release sweep completed. Released %d escrows", releasedCount)

	return releasedCount
}
