package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/expensehub/approval-engine/internal/application/dispatcher"
	"github.com/expensehub/approval-engine/internal/application/port"
	"github.com/expensehub/approval-engine/internal/domain/entity"
	"github.com/expensehub/approval-engine/internal/domain/event"
	domainwf "github.com/expensehub/approval-engine/internal/domain/workflow"
	"github.com/expensehub/approval-engine/internal/metrics"
)

// engineImpl is the concrete implementation of Engine
type engineImpl struct {
	instanceRepo port.InstanceRepository
	expenseRepo  port.ExpenseRepository
	ledger       port.LedgerRepository
	roster       port.ApproverRoster
	txManager    port.TransactionManager
	dispatcher   dispatcher.Dispatcher

	// Per-instance locks: submitDecision and cancel are serialized per
	// workflow instance so concurrent decisions can never both observe
	// pre-transition state and double-advance. Locks for terminal
	// instances are dropped.
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the event dispatcher for emitting domain events
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// NewEngine creates a new approval workflow engine
func NewEngine(
	instanceRepo port.InstanceRepository,
	expenseRepo port.ExpenseRepository,
	ledger port.LedgerRepository,
	roster port.ApproverRoster,
	txManager port.TransactionManager,
	opts ...EngineOption,
) Engine {
	e := &engineImpl{
		instanceRepo: instanceRepo,
		expenseRepo:  expenseRepo,
		ledger:       ledger,
		roster:       roster,
		txManager:    txManager,
		locks:        make(map[int64]*sync.Mutex),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Initialize constructs a pending workflow instance from the matched rule
func (e *engineImpl) Initialize(expense *entity.Expense, rule *entity.ApprovalRule) (*entity.WorkflowInstance, error) {
	if expense == nil {
		return nil, fmt.Errorf("expense cannot be nil")
	}
	if rule == nil {
		return nil, fmt.Errorf("rule cannot be nil")
	}
	if err := rule.Validate(); err != nil {
		return nil, fmt.Errorf("rule %d is not usable: %w", rule.ID, err)
	}

	return entity.NewWorkflowInstance(expense, rule), nil
}

// SubmitDecision applies one approver decision to the workflow instance
func (e *engineImpl) SubmitDecision(ctx context.Context, instanceID, approverID int64, role entity.Role, decision entity.Decision, comment string) (*entity.WorkflowInstance, error) {
	if decision != entity.DecisionApprove && decision != entity.DecisionReject {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDecision, decision)
	}
	if !role.CanApprove() {
		return nil, fmt.Errorf("%w: role %q cannot act on approvals", ErrUnauthorizedRole, role)
	}

	lock := e.instanceLock(instanceID)
	lock.Lock()
	defer lock.Unlock()

	instance, err := e.instanceRepo.GetByID(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("fetch instance %d: %w", instanceID, err)
	}
	if instance == nil {
		return nil, fmt.Errorf("%w: id %d", ErrInstanceNotFound, instanceID)
	}
	if instance.IsTerminal() {
		return nil, fmt.Errorf("%w: instance %d is %s", ErrInvalidState, instanceID, instance.Status)
	}

	requiredRole, ok := instance.CurrentRole()
	if !ok {
		return nil, fmt.Errorf("instance %d: stage index %d out of range", instanceID, instance.CurrentStageIndex)
	}

	// The admin escape valve passes the role check regardless of stage.
	adminOverriding := instance.AdminOverride && role == entity.RoleAdmin
	if role != requiredRole && !adminOverriding {
		return nil, fmt.Errorf("%w: stage %d requires %s, got %s", ErrUnauthorizedRole, instance.CurrentStageIndex, requiredRole, role)
	}

	duplicate, err := e.ledger.HasDecision(ctx, instanceID, instance.CurrentStageIndex, approverID)
	if err != nil {
		return nil, fmt.Errorf("ledger lookup: %w", err)
	}
	if duplicate {
		return nil, fmt.Errorf("%w: approver %d, stage %d", ErrDuplicateDecision, approverID, instance.CurrentStageIndex)
	}

	// Roster lookup happens outside the transaction; it is an external
	// collaborator call and is not retried. Only the quorum path needs it.
	eligible := 0
	urgentBypassing := instance.UrgentBypass && instance.Urgent
	if decision == entity.DecisionApprove && !adminOverriding && !urgentBypassing {
		eligible, err = e.roster.GetEligibleApproverCount(ctx, instance.CompanyID, instance.TeamID, requiredRole)
		if err != nil {
			return nil, fmt.Errorf("%w: approver roster: %v", ErrCollaboratorUnavailable, err)
		}
		if eligible <= 0 {
			return nil, fmt.Errorf("%w: no eligible %s approvers for team %d", ErrCollaboratorUnavailable, requiredRole, instance.TeamID)
		}
	}

	machine := BuildApprovalStateMachine(domainwf.State(instance.Status))
	previousState := machine.State()
	stageAtDecision := instance.CurrentStageIndex

	record := &entity.ApprovalRecord{
		InstanceID:  instanceID,
		StageIndex:  stageAtDecision,
		ApproverID:  approverID,
		RoleActedAs: role,
		Decision:    decision,
		Comment:     comment,
		DecidedAt:   time.Now(),
	}

	var trigger domainwf.Trigger

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.ledger.Append(txCtx, record); err != nil {
			return fmt.Errorf("append approval record: %w", err)
		}

		trigger, err = e.resolveTrigger(txCtx, instance, decision, adminOverriding, urgentBypassing, eligible)
		if err != nil {
			return err
		}

		if err := machine.Fire(txCtx, trigger); err != nil {
			return fmt.Errorf("state machine fire %s: %w", trigger, err)
		}

		instance.Status = machine.State().String()
		if trigger == domainwf.TriggerAdvance {
			instance.CurrentStageIndex++
		}

		if err := e.instanceRepo.Update(txCtx, instance); err != nil {
			return fmt.Errorf("update instance: %w", err)
		}
		if err := e.expenseRepo.UpdateStatus(txCtx, instance.ExpenseID, instance.Status); err != nil {
			return fmt.Errorf("update expense status: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if instance.IsTerminal() {
		e.dropLock(instanceID)
	}

	metrics.RecordDecision(decision.String(), instance.Status)
	e.emitDecisionEvents(ctx, instance, record, previousState, trigger)

	return instance, nil
}

// resolveTrigger decides which transition a recorded decision causes.
// Runs inside the decision transaction so the quorum count includes the
// record appended just before.
func (e *engineImpl) resolveTrigger(txCtx context.Context, instance *entity.WorkflowInstance, decision entity.Decision, adminOverriding, urgentBypassing bool, eligible int) (domainwf.Trigger, error) {
	// A single rejection terminates the workflow; there is no quorum for
	// rejection.
	if decision == entity.DecisionReject {
		return domainwf.TriggerReject, nil
	}

	if adminOverriding || urgentBypassing {
		return domainwf.TriggerApprove, nil
	}

	approvals, err := e.ledger.CountApprovalsAtStage(txCtx, instance.ID, instance.CurrentStageIndex)
	if err != nil {
		return "", fmt.Errorf("count stage approvals: %w", err)
	}

	// approvals/eligible >= required/100, in integer arithmetic.
	if approvals*100 >= instance.PercentageRequired*eligible {
		if instance.LastStage() {
			return domainwf.TriggerApprove, nil
		}
		return domainwf.TriggerAdvance, nil
	}

	return domainwf.TriggerProgress, nil
}

// Cancel withdraws a non-terminal workflow
func (e *engineImpl) Cancel(ctx context.Context, instanceID int64, reason string) (*entity.WorkflowInstance, error) {
	lock := e.instanceLock(instanceID)
	lock.Lock()
	defer lock.Unlock()

	instance, err := e.instanceRepo.GetByID(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("fetch instance %d: %w", instanceID, err)
	}
	if instance == nil {
		return nil, fmt.Errorf("%w: id %d", ErrInstanceNotFound, instanceID)
	}
	if instance.IsTerminal() {
		return nil, fmt.Errorf("%w: instance %d is %s", ErrInvalidState, instanceID, instance.Status)
	}

	machine := BuildApprovalStateMachine(domainwf.State(instance.Status))
	record := entity.NewCancellationRecord(instanceID, instance.CurrentStageIndex, reason)

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.ledger.Append(txCtx, record); err != nil {
			return fmt.Errorf("append cancellation record: %w", err)
		}

		if err := machine.Fire(txCtx, domainwf.TriggerCancel); err != nil {
			return fmt.Errorf("state machine fire CANCEL: %w", err)
		}

		instance.Status = machine.State().String()
		if err := e.instanceRepo.Update(txCtx, instance); err != nil {
			return fmt.Errorf("update instance: %w", err)
		}
		if err := e.expenseRepo.UpdateStatus(txCtx, instance.ExpenseID, instance.Status); err != nil {
			return fmt.Errorf("update expense status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.dropLock(instanceID)
	metrics.RecordDecision(entity.DecisionCancel.String(), instance.Status)

	if e.dispatcher != nil {
		e.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeWorkflowCancelled, instance.ID, instance.ExpenseID, map[string]interface{}{
			"reason": reason,
		}))
	}

	return instance, nil
}

// GetWorkflow returns the instance and its decision history
func (e *engineImpl) GetWorkflow(ctx context.Context, instanceID int64) (*entity.WorkflowInstance, []*entity.ApprovalRecord, error) {
	instance, err := e.instanceRepo.GetByID(ctx, instanceID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch instance %d: %w", instanceID, err)
	}
	if instance == nil {
		return nil, nil, fmt.Errorf("%w: id %d", ErrInstanceNotFound, instanceID)
	}

	records, err := e.ledger.GetRecords(ctx, instanceID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch records: %w", err)
	}

	return instance, records, nil
}

// emitDecisionEvents publishes the decision and, when the status moved, the
// matching transition event. Fired async so event handlers never delay the
// decision response.
func (e *engineImpl) emitDecisionEvents(ctx context.Context, instance *entity.WorkflowInstance, record *entity.ApprovalRecord, previousState domainwf.State, trigger domainwf.Trigger) {
	if e.dispatcher == nil {
		return
	}

	correlationID := ""
	decisionEvt := event.NewEvent(event.TypeDecisionRecorded, instance.ID, instance.ExpenseID, map[string]interface{}{
		"approver_id": record.ApproverID,
		"role":        record.RoleActedAs.String(),
		"decision":    record.Decision.String(),
		"stage_index": record.StageIndex,
	})
	correlationID = decisionEvt.CorrelationID
	e.dispatcher.DispatchAsync(ctx, decisionEvt)

	var outcome event.Type
	switch instance.Status {
	case entity.StatusApproved:
		outcome = event.TypeWorkflowApproved
	case entity.StatusRejected:
		outcome = event.TypeWorkflowRejected
	default:
		if trigger == domainwf.TriggerAdvance {
			outcome = event.TypeStageAdvanced
		}
	}

	if outcome != "" {
		e.dispatcher.DispatchAsync(ctx, event.NewEventWithCorrelation(outcome, instance.ID, instance.ExpenseID, map[string]interface{}{
			"previous_status": previousState.String(),
			"new_status":      instance.Status,
			"stage_index":     instance.CurrentStageIndex,
		}, correlationID))
	}
}

// instanceLock returns the mutex serializing operations on one instance
func (e *engineImpl) instanceLock(instanceID int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, exists := e.locks[instanceID]
	if !exists {
		lock = &sync.Mutex{}
		e.locks[instanceID] = lock
	}
	return lock
}

// dropLock forgets the mutex for a finalized instance. A late waiter on the
// old mutex re-reads the instance and sees the terminal status, so two
// goroutines holding different mutexes for the same id can never both write.
func (e *engineImpl) dropLock(instanceID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.locks, instanceID)
}
