// Package escalation implements the advisory SLA check for approval
// workflows. Escalation only flags an instance for attention; it never
// changes workflow status or bypasses quorum logic.
package escalation

import (
	"time"

	"github.com/expensehub/approval-engine/internal/domain/entity"
)

// Default windows, used when a company has no explicit configuration.
const (
	DefaultSLA           = 72 * time.Hour
	DefaultUrgentPending = 4 * time.Hour
)

// Thresholds are the per-company escalation windows.
type Thresholds struct {
	// SLA is how long any non-terminal workflow may sit before escalating.
	SLA time.Duration

	// UrgentPending is the tighter window for urgent expenses that are
	// still waiting for their first decision.
	UrgentPending time.Duration
}

// ThresholdsForCompany derives thresholds from company settings, falling
// back to the defaults for unset values.
func ThresholdsForCompany(c *entity.Company) Thresholds {
	t := Thresholds{SLA: DefaultSLA, UrgentPending: DefaultUrgentPending}
	if c == nil {
		return t
	}
	if c.SLAHours > 0 {
		t.SLA = time.Duration(c.SLAHours) * time.Hour
	}
	if c.UrgentPendingHours > 0 {
		t.UrgentPending = time.Duration(c.UrgentPendingHours) * time.Hour
	}
	return t
}

// Evaluate reports whether the instance should be flagged as escalated at
// the given time. Terminal instances never escalate.
func Evaluate(instance *entity.WorkflowInstance, now time.Time, t Thresholds) bool {
	if instance == nil || instance.IsTerminal() {
		return false
	}

	age := now.Sub(instance.CreatedAt)
	if age > t.SLA {
		return true
	}

	if instance.Urgent && instance.Status == entity.StatusPending && age > t.UrgentPending {
		return true
	}

	return false
}
