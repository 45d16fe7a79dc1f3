package port

import (
	"context"

	"github.com/expensehub/approval-engine/internal/domain/entity"
)

// RuleRepository defines persistence operations for ApprovalRule
type RuleRepository interface {
	Create(ctx context.Context, rule *entity.ApprovalRule) error
	GetByID(ctx context.Context, id int64) (*entity.ApprovalRule, error)

	// GetActiveByCompany returns the company's active rules ordered by
	// min_amount, then id. This is the read path for rule matching.
	GetActiveByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error)

	// ListByCompany returns all rules including inactive ones, for admin display.
	ListByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error)

	Update(ctx context.Context, rule *entity.ApprovalRule) error
	Deactivate(ctx context.Context, id int64) error
}

// ExpenseRepository defines persistence operations for Expense
type ExpenseRepository interface {
	Create(ctx context.Context, expense *entity.Expense) error
	GetByID(ctx context.Context, id int64) (*entity.Expense, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	SetReceiptData(ctx context.Context, id int64, data string) error
	ListByCompany(ctx context.Context, companyID int64, limit, offset int) ([]*entity.Expense, error)
}

// InstanceRepository defines persistence operations for WorkflowInstance
type InstanceRepository interface {
	Create(ctx context.Context, instance *entity.WorkflowInstance) error
	GetByID(ctx context.Context, id int64) (*entity.WorkflowInstance, error)
	GetByExpenseID(ctx context.Context, expenseID int64) (*entity.WorkflowInstance, error)

	// Update persists status, current stage index and escalation flag.
	Update(ctx context.Context, instance *entity.WorkflowInstance) error

	// ListOpen returns all non-terminal instances, for the escalation sweep.
	ListOpen(ctx context.Context) ([]*entity.WorkflowInstance, error)
}

// LedgerRepository is the append-only store of approver decisions.
// Records are never updated or deleted.
type LedgerRepository interface {
	// Append writes a record. It returns ErrDuplicateDecision (from the
	// workflow package) via the engine when the (instance, stage, approver)
	// triple already exists; implementations surface the uniqueness
	// violation as a distinguishable error.
	Append(ctx context.Context, record *entity.ApprovalRecord) error

	// HasDecision reports whether the approver already decided on the stage.
	HasDecision(ctx context.Context, instanceID int64, stageIndex int, approverID int64) (bool, error)

	// CountApprovalsAtStage counts approve decisions for the stage.
	CountApprovalsAtStage(ctx context.Context, instanceID int64, stageIndex int) (int, error)

	// GetRecords returns the instance's full decision history, oldest first.
	GetRecords(ctx context.Context, instanceID int64) ([]*entity.ApprovalRecord, error)
}

// CompanyRepository defines read operations for company settings
type CompanyRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Company, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
