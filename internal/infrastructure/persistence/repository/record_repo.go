package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/expensehub/approval-engine/internal/application/port"
	appworkflow "github.com/expensehub/approval-engine/internal/application/workflow"
	"github.com/expensehub/approval-engine/internal/domain/entity"
	"github.com/expensehub/approval-engine/internal/infrastructure/persistence/sqlite"
)

// RecordRepository implements port.LedgerRepository. The approval_records
// table is append-only; no update or delete statements exist here.
type RecordRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewRecordRepository creates a new approval record repository
func NewRecordRepository(db *sqlite.DB, logger *zap.Logger) port.LedgerRepository {
	return &RecordRepository{db: db, logger: logger}
}

// Append writes one decision record. A uniqueness violation on
// (instance, stage, approver) surfaces as ErrDuplicateDecision, which is the
// database-level backstop behind the engine's pre-check.
func (r *RecordRepository) Append(ctx context.Context, record *entity.ApprovalRecord) error {
	query := `
		INSERT INTO approval_records (
			instance_id, stage_index, approver_id, role_acted_as,
			decision, comment, decided_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		record.InstanceID,
		record.StageIndex,
		record.ApproverID,
		record.RoleActedAs,
		record.Decision,
		record.Comment,
		record.DecidedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: approver %d, stage %d", appworkflow.ErrDuplicateDecision, record.ApproverID, record.StageIndex)
		}
		r.logger.Error("Failed to append approval record", zap.Error(err))
		return fmt.Errorf("failed to append approval record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	record.ID = id
	return nil
}

// HasDecision reports whether the approver already decided on the stage
func (r *RecordRepository) HasDecision(ctx context.Context, instanceID int64, stageIndex int, approverID int64) (bool, error) {
	query := `
		SELECT COUNT(*) FROM approval_records
		WHERE instance_id = ? AND stage_index = ? AND approver_id = ?
	`

	var count int
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, instanceID, stageIndex, approverID).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to check for existing decision", zap.Int64("instance_id", instanceID), zap.Error(err))
		return false, fmt.Errorf("failed to check for existing decision: %w", err)
	}
	return count > 0, nil
}

// CountApprovalsAtStage counts approve decisions for the stage
func (r *RecordRepository) CountApprovalsAtStage(ctx context.Context, instanceID int64, stageIndex int) (int, error) {
	query := `
		SELECT COUNT(*) FROM approval_records
		WHERE instance_id = ? AND stage_index = ? AND decision = ?
	`

	var count int
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, instanceID, stageIndex, entity.DecisionApprove).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count approvals", zap.Int64("instance_id", instanceID), zap.Error(err))
		return 0, fmt.Errorf("failed to count approvals: %w", err)
	}
	return count, nil
}

// GetRecords returns the instance's full decision history, oldest first
func (r *RecordRepository) GetRecords(ctx context.Context, instanceID int64) ([]*entity.ApprovalRecord, error) {
	query := `
		SELECT id, instance_id, stage_index, approver_id, role_acted_as,
			decision, comment, decided_at
		FROM approval_records
		WHERE instance_id = ?
		ORDER BY decided_at, id
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, instanceID)
	if err != nil {
		r.logger.Error("Failed to get approval records", zap.Int64("instance_id", instanceID), zap.Error(err))
		return nil, fmt.Errorf("failed to get approval records: %w", err)
	}
	defer rows.Close()

	var records []*entity.ApprovalRecord
	for rows.Next() {
		var record entity.ApprovalRecord
		err := rows.Scan(
			&record.ID,
			&record.InstanceID,
			&record.StageIndex,
			&record.ApproverID,
			&record.RoleActedAs,
			&record.Decision,
			&record.Comment,
			&record.DecidedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval record: %w", err)
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// Verify interface compliance
var _ port.LedgerRepository = (*RecordRepository)(nil)
