package service

import (
	"context"
	"fmt"
	"time"

	"github.com/expensehub/approval-engine/internal/application/dispatcher"
	"github.com/expensehub/approval-engine/internal/application/port"
	"github.com/expensehub/approval-engine/internal/domain/entity"
	"github.com/expensehub/approval-engine/internal/domain/escalation"
	"github.com/expensehub/approval-engine/internal/domain/event"
	"github.com/expensehub/approval-engine/internal/metrics"
)

// EscalationService flags overdue workflows for human attention. Flagging is
// advisory: status, stage and quorum requirements are untouched.
type EscalationService interface {
	// Sweep checks every open workflow against its company's thresholds and
	// flags the overdue ones. Returns how many instances were newly flagged.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

type escalationServiceImpl struct {
	instanceRepo port.InstanceRepository
	companyRepo  port.CompanyRepository
	dispatcher   dispatcher.Dispatcher
	logger       Logger
}

// NewEscalationService creates a new EscalationService. dispatcher may be nil.
func NewEscalationService(
	instanceRepo port.InstanceRepository,
	companyRepo port.CompanyRepository,
	d dispatcher.Dispatcher,
	logger Logger,
) EscalationService {
	return &escalationServiceImpl{
		instanceRepo: instanceRepo,
		companyRepo:  companyRepo,
		dispatcher:   d,
		logger:       logger,
	}
}

func (s *escalationServiceImpl) Sweep(ctx context.Context, now time.Time) (int, error) {
	open, err := s.instanceRepo.ListOpen(ctx)
	if err != nil {
		return 0, fmt.Errorf("list open workflows: %w", err)
	}

	// Company thresholds are stable within one sweep.
	thresholds := make(map[int64]escalation.Thresholds)

	flagged := 0
	for _, instance := range open {
		if instance.Escalated {
			continue
		}

		t, ok := thresholds[instance.CompanyID]
		if !ok {
			company, err := s.companyRepo.GetByID(ctx, instance.CompanyID)
			if err != nil {
				s.logger.Error("Failed to load company for escalation check",
					"error", err, "company_id", instance.CompanyID, "instance_id", instance.ID)
				continue
			}
			t = escalation.ThresholdsForCompany(company)
			thresholds[instance.CompanyID] = t
		}

		if !escalation.Evaluate(instance, now, t) {
			continue
		}

		instance.Escalated = true
		instance.UpdatedAt = now
		if err := s.instanceRepo.Update(ctx, instance); err != nil {
			s.logger.Error("Failed to flag escalated workflow", "error", err, "instance_id", instance.ID)
			continue
		}

		flagged++
		metrics.RecordEscalation()
		s.logger.Warn("Workflow escalated",
			"instance_id", instance.ID, "expense_id", instance.ExpenseID,
			"status", instance.Status, "urgent", instance.Urgent,
			"age", now.Sub(instance.CreatedAt).String())

		if s.dispatcher != nil {
			evt := event.NewEvent(event.TypeWorkflowEscalated, instance.ID, instance.ExpenseID, map[string]interface{}{
				"status":     instance.Status,
				"urgent":     instance.Urgent,
				"age_hours":  now.Sub(instance.CreatedAt).Hours(),
				"stage_role": currentRoleName(instance),
			})
			s.dispatcher.DispatchAsync(ctx, evt)
		}
	}

	if flagged > 0 {
		s.logger.Info("Escalation sweep finished", "open", len(open), "flagged", flagged)
	}
	return flagged, nil
}

func currentRoleName(instance *entity.WorkflowInstance) string {
	if role, ok := instance.CurrentRole(); ok {
		return role.String()
	}
	return ""
}
