package escalation

import (
	"testing"
	"time"

	"github.com/expensehub/approval-engine/internal/domain/entity"
)

func TestEvaluate(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	thresholds := Thresholds{SLA: 72 * time.Hour, UrgentPending: 4 * time.Hour}

	tests := []struct {
		name     string
		status   string
		urgent   bool
		age      time.Duration
		expected bool
	}{
		{"fresh pending", entity.StatusPending, false, time.Hour, false},
		{"pending past SLA", entity.StatusPending, false, 73 * time.Hour, true},
		{"in progress past SLA", entity.StatusInProgress, false, 80 * time.Hour, true},
		{"in progress at SLA boundary", entity.StatusInProgress, false, 72 * time.Hour, false},
		{"urgent pending past urgent window", entity.StatusPending, true, 5 * time.Hour, true},
		{"urgent pending within urgent window", entity.StatusPending, true, 3 * time.Hour, false},
		{"urgent in progress within SLA", entity.StatusInProgress, true, 5 * time.Hour, false},
		{"approved never escalates", entity.StatusApproved, true, 200 * time.Hour, false},
		{"rejected never escalates", entity.StatusRejected, false, 200 * time.Hour, false},
		{"cancelled never escalates", entity.StatusCancelled, false, 200 * time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instance := &entity.WorkflowInstance{
				Status:    tt.status,
				Urgent:    tt.urgent,
				CreatedAt: now.Add(-tt.age),
			}
			if got := Evaluate(instance, now, thresholds); got != tt.expected {
				t.Errorf("Evaluate() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestEvaluate_NilInstance(t *testing.T) {
	if Evaluate(nil, time.Now(), Thresholds{SLA: DefaultSLA, UrgentPending: DefaultUrgentPending}) {
		t.Error("Evaluate(nil) = true, want false")
	}
}

func TestThresholdsForCompany(t *testing.T) {
	t.Run("defaults when unset", func(t *testing.T) {
		got := ThresholdsForCompany(&entity.Company{})
		if got.SLA != DefaultSLA || got.UrgentPending != DefaultUrgentPending {
			t.Errorf("ThresholdsForCompany() = %+v, want defaults", got)
		}
	})

	t.Run("company overrides", func(t *testing.T) {
		got := ThresholdsForCompany(&entity.Company{SLAHours: 48, UrgentPendingHours: 2})
		if got.SLA != 48*time.Hour {
			t.Errorf("SLA = %v, want 48h", got.SLA)
		}
		if got.UrgentPending != 2*time.Hour {
			t.Errorf("UrgentPending = %v, want 2h", got.UrgentPending)
		}
	})

	t.Run("nil company", func(t *testing.T) {
		got := ThresholdsForCompany(nil)
		if got.SLA != DefaultSLA {
			t.Errorf("SLA = %v, want default", got.SLA)
		}
	})
}
