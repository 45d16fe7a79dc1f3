package workflow

import (
	"context"

	"github.com/expensehub/approval-engine/internal/domain/entity"
)

// Engine is the approval state machine: it creates workflow instances from
// matched rules and advances or terminates them as approver decisions arrive.
type Engine interface {
	// Initialize constructs a pending workflow instance for the expense,
	// snapshotting the rule's content. Pure construction: nothing is
	// persisted; the caller stores the instance atomically with the expense.
	Initialize(expense *entity.Expense, rule *entity.ApprovalRule) (*entity.WorkflowInstance, error)

	// SubmitDecision applies one approver's decision to the workflow.
	// Calls are serialized per instance; the updated instance is returned.
	SubmitDecision(ctx context.Context, instanceID, approverID int64, role entity.Role, decision entity.Decision, comment string) (*entity.WorkflowInstance, error)

	// Cancel withdraws a non-terminal workflow on behalf of the expense
	// submitter, appending a system-authored ledger record.
	Cancel(ctx context.Context, instanceID int64, reason string) (*entity.WorkflowInstance, error)

	// GetWorkflow returns the instance together with its full decision
	// history, oldest record first.
	GetWorkflow(ctx context.Context, instanceID int64) (*entity.WorkflowInstance, []*entity.ApprovalRecord, error)
}
