package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/expensehub/approval-engine/internal/application/port"
	"github.com/expensehub/approval-engine/internal/domain/entity"
	"github.com/expensehub/approval-engine/internal/infrastructure/persistence/sqlite"
)

// InstanceRepository implements port.InstanceRepository
type InstanceRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewInstanceRepository creates a new workflow instance repository
func NewInstanceRepository(db *sqlite.DB, logger *zap.Logger) port.InstanceRepository {
	return &InstanceRepository{db: db, logger: logger}
}

const instanceColumns = `id, expense_id, company_id, team_id, rule_id, rule_name,
	sequence, percentage_required, admin_override, urgent_bypass,
	current_stage_index, status, urgent, escalated, created_at, updated_at`

// Create stores a new workflow instance with its rule snapshot
func (r *InstanceRepository) Create(ctx context.Context, instance *entity.WorkflowInstance) error {
	sequence, err := marshalRoles(instance.Sequence)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO workflow_instances (
			expense_id, company_id, team_id, rule_id, rule_name,
			sequence, percentage_required, admin_override, urgent_bypass,
			current_stage_index, status, urgent, escalated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		instance.ExpenseID,
		instance.CompanyID,
		instance.TeamID,
		instance.RuleID,
		instance.RuleName,
		sequence,
		instance.PercentageRequired,
		instance.AdminOverride,
		instance.UrgentBypass,
		instance.CurrentStageIndex,
		instance.Status,
		instance.Urgent,
		instance.Escalated,
	)
	if err != nil {
		r.logger.Error("Failed to create workflow instance", zap.Error(err))
		return fmt.Errorf("failed to create workflow instance: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	instance.ID = id
	return nil
}

// GetByID retrieves a workflow instance by ID
func (r *InstanceRepository) GetByID(ctx context.Context, id int64) (*entity.WorkflowInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM workflow_instances WHERE id = ?`

	instance, err := scanInstance(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get instance by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}
	return instance, nil
}

// GetByExpenseID retrieves the workflow instance attached to an expense
func (r *InstanceRepository) GetByExpenseID(ctx context.Context, expenseID int64) (*entity.WorkflowInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM workflow_instances WHERE expense_id = ?`

	instance, err := scanInstance(r.db.Executor(ctx).QueryRowContext(ctx, query, expenseID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get instance by expense ID", zap.Int64("expense_id", expenseID), zap.Error(err))
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}
	return instance, nil
}

// Update persists status, stage index and escalation flag
func (r *InstanceRepository) Update(ctx context.Context, instance *entity.WorkflowInstance) error {
	query := `
		UPDATE workflow_instances SET
			current_stage_index = ?, status = ?, escalated = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		instance.CurrentStageIndex,
		instance.Status,
		instance.Escalated,
		instance.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update instance", zap.Int64("id", instance.ID), zap.Error(err))
		return fmt.Errorf("failed to update instance: %w", err)
	}
	return nil
}

// ListOpen returns all non-terminal instances, oldest first
func (r *InstanceRepository) ListOpen(ctx context.Context) ([]*entity.WorkflowInstance, error) {
	query := `
		SELECT ` + instanceColumns + `
		FROM workflow_instances
		WHERE status IN (?, ?)
		ORDER BY created_at
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, entity.StatusPending, entity.StatusInProgress)
	if err != nil {
		r.logger.Error("Failed to list open instances", zap.Error(err))
		return nil, fmt.Errorf("failed to list open instances: %w", err)
	}
	defer rows.Close()

	var instances []*entity.WorkflowInstance
	for rows.Next() {
		instance, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instance: %w", err)
		}
		instances = append(instances, instance)
	}
	return instances, rows.Err()
}

func scanInstance(row rowScanner) (*entity.WorkflowInstance, error) {
	var instance entity.WorkflowInstance
	var sequence string

	err := row.Scan(
		&instance.ID,
		&instance.ExpenseID,
		&instance.CompanyID,
		&instance.TeamID,
		&instance.RuleID,
		&instance.RuleName,
		&sequence,
		&instance.PercentageRequired,
		&instance.AdminOverride,
		&instance.UrgentBypass,
		&instance.CurrentStageIndex,
		&instance.Status,
		&instance.Urgent,
		&instance.Escalated,
		&instance.CreatedAt,
		&instance.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	instance.Sequence, err = unmarshalRoles(sequence)
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

// Verify interface compliance
var _ port.InstanceRepository = (*InstanceRepository)(nil)
