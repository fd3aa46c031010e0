package model

import (
	"testing"
	"time"
)

func TestAutoReleaseDue(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	daysAgo := func(d int) *time.Time {
		ts := now.Add(-time.Duration(d) * 24 * time.Hour)
		return &ts
	}

	tests := []struct {
		name   string
		escrow Escrow
		want   bool
	}{
		{
			name: "审批通过立即可放款",
			escrow: Escrow{
				Status:                 EscrowStatusActive,
				DeliverableSubmitted:   true,
				DeliverableSubmittedAt: daysAgo(0),
				ApprovalStatus:         ApprovalStatusApproved,
				AutoReleaseDays:        7,
			},
			want: true,
		},
		{
			name: "待审批未到期",
			escrow: Escrow{
				Status:                 EscrowStatusActive,
				DeliverableSubmitted:   true,
				DeliverableSubmittedAt: daysAgo(6),
				ApprovalStatus:         ApprovalStatusPending,
				AutoReleaseDays:        7,
			},
			want: false,
		},
		{
			name: "待审批恰好到期",
			escrow: Escrow{
				Status:                 EscrowStatusActive,
				DeliverableSubmitted:   true,
				DeliverableSubmittedAt: daysAgo(7),
				ApprovalStatus:         ApprovalStatusPending,
				AutoReleaseDays:        7,
			},
			want: true,
		},
		{
			name: "待审批已超期",
			escrow: Escrow{
				Status:                 EscrowStatusActive,
				DeliverableSubmitted:   true,
				DeliverableSubmittedAt: daysAgo(8),
				ApprovalStatus:         ApprovalStatusPending,
				AutoReleaseDays:        7,
			},
			want: true,
		},
		{
			name: "被拒绝的交付永不自动放款",
			escrow: Escrow{
				Status:                 EscrowStatusActive,
				DeliverableSubmitted:   true,
				DeliverableSubmittedAt: daysAgo(30),
				ApprovalStatus:         ApprovalStatusRejected,
				AutoReleaseDays:        7,
			},
			want: false,
		},
		{
			name: "未提交交付物不放款",
			escrow: Escrow{
				Status:          EscrowStatusActive,
				ApprovalStatus:  ApprovalStatusPending,
				AutoReleaseDays: 7,
			},
			want: false,
		},
		{
			name: "争议中不放款",
			escrow: Escrow{
				Status:                 EscrowStatusDisputed,
				DeliverableSubmitted:   true,
				DeliverableSubmittedAt: daysAgo(10),
				ApprovalStatus:         ApprovalStatusApproved,
				AutoReleaseDays:        7,
			},
			want: false,
		},
		{
			name: "缺少提交时间回退到激活时间",
			escrow: Escrow{
				Status:               EscrowStatusActive,
				DeliverableSubmitted: true,
				ActivatedAt:          daysAgo(8),
				ApprovalStatus:       ApprovalStatusPending,
				AutoReleaseDays:      7,
			},
			want: true,
		},
		{
			name: "提交时间和激活时间都缺失时不放款",
			escrow: Escrow{
				Status:               EscrowStatusActive,
				DeliverableSubmitted: true,
				ApprovalStatus:       ApprovalStatusPending,
				AutoReleaseDays:      7,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.escrow.AutoReleaseDue(now); got != tt.want {
				t.Errorf("AutoReleaseDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEscrowStatusIsTerminal(t *testing.T) {
	terminal := []EscrowStatus{EscrowStatusReleased, EscrowStatusRefunded, EscrowStatusCancelled}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}

	open := []EscrowStatus{EscrowStatusPending, EscrowStatusActive, EscrowStatusDisputed}
	for _, s := range open {
		if s.IsTerminal() {
			t.Errorf("expected %s to not be terminal", s)
		}
	}
}
