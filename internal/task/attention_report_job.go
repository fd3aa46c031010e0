package task

import (
	"fmt"
	"time"

	"github.com/blues/eps/internal/config"
	"github.com/blues/eps/internal/logger"
	"github.com/blues/eps/internal/model"
	"github.com/blues/eps/internal/notifier"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// AttentionReportJob 人工关注巡检任务
// 低频运行，汇总长时间待审批和长时间未裁决的托管记录上报给通知端，
// 只做观察上报，不做任何状态变更
type AttentionReportJob struct {
	db         *gorm.DB
	dispatcher notifier.Dispatcher
	config     *config.Config
}

// NewAttentionReportJob 创建人工关注巡检任务
func NewAttentionReportJob(db *gorm.DB, dispatcher notifier.Dispatcher, cfg *config.Config) *AttentionReportJob {
	return &AttentionReportJob{
		db:         db,
		dispatcher: dispatcher,
		config:     cfg,
	}
}

// GetName 获取任务名称
func (j *AttentionReportJob) GetName() string {
	return "escrow_attention_report"
}

// GetSchedule 获取调度配置
func (j *AttentionReportJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.AttentionInterval) * time.Second)
}

// Execute 执行任务
func (j *AttentionReportJob) Execute() {
	j.RunOnce(time.Now())
}

// RunOnce 巡检一轮并返回上报数量
func (j *AttentionReportJob) RunOnce(now time.Time) int {
	logger.Info("Starting escrow attention report")

	attentionDays := j.config.Task.AttentionDays
	if attentionDays <= 0 {
		attentionDays = 3
	}
	cutoff := now.Add(-time.Duration(attentionDays) * 24 * time.Hour)

	reported := 0

	// 长时间待客户审批的交付
	var stale []model.Escrow
	err := j.db.Where(
		"status = ? AND deliverable_submitted = ? AND approval_status = ? AND deliverable_submitted_at <= ?",
		model.EscrowStatusActive, true, model.ApprovalStatusPending, cutoff,
	).Find(&stale).Error
	if err != nil {
		logger.Error("Failed to fetch stale approvals: %v", err)
	} else {
		for _, escrow := range stale {
			j.report(escrow, fmt.Sprintf("交付物提交超过%d天仍未审批", attentionDays))
			reported++
		}
	}

	// 长时间未裁决的争议
	var disputes []model.Escrow
	err = j.db.Where(
		"status = ? AND dispute_raised_at <= ?",
		model.EscrowStatusDisputed, cutoff,
	).Find(&disputes).Error
	if err != nil {
		logger.Error("Failed to fetch stale disputes: %v", err)
	} else {
		for _, escrow := range disputes {
			j.report(escrow, fmt.Sprintf("争议超过%d天仍未裁决", attentionDays))
			reported++
		}
	}

	logger.Info("Escrow attention report completed. Reported %d escrows", reported)

	return reported
}

// report 上报单条需要关注的记录
func (j *AttentionReportJob) report(escrow model.Escrow, message string) {
	if j.dispatcher == nil {
		return
	}

	j.dispatcher.Dispatch(notifier.Event{
		Type:         model.EventAttentionRequired,
		EscrowID:     escrow.ID,
		MilestoneID:  escrow.MilestoneID,
		Amount:       escrow.Amount,
		ClientID:     escrow.ClientID,
		FreelancerID: escrow.FreelancerID,
		Message:      message,
		OccurredAt:   time.Now(),
	})
}
