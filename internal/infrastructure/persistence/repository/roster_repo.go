package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/expensehub/approval-engine/internal/application/port"
	"github.com/expensehub/approval-engine/internal/domain/entity"
	"github.com/expensehub/approval-engine/internal/infrastructure/persistence/sqlite"
)

// RosterRepository implements port.ApproverRoster against the users table.
// Managers are counted per team, admins across the whole company.
type RosterRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewRosterRepository creates a new roster repository
func NewRosterRepository(db *sqlite.DB, logger *zap.Logger) port.ApproverRoster {
	return &RosterRepository{db: db, logger: logger}
}

// GetEligibleApproverCount returns how many active users can act in the role
func (r *RosterRepository) GetEligibleApproverCount(ctx context.Context, companyID, teamID int64, role entity.Role) (int, error) {
	if !role.CanApprove() {
		return 0, fmt.Errorf("role %q cannot approve", role)
	}

	query := `
		SELECT COUNT(*) FROM users
		WHERE company_id = ? AND role = ? AND is_active = 1
	`
	args := []interface{}{companyID, role}

	if role == entity.RoleManager {
		query += ` AND team_id = ?`
		args = append(args, teamID)
	}

	var count int
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, args...).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count eligible approvers",
			zap.Int64("company_id", companyID),
			zap.Int64("team_id", teamID),
			zap.String("role", role.String()),
			zap.Error(err))
		return 0, fmt.Errorf("failed to count eligible approvers: %w", err)
	}
	return count, nil
}

// Verify interface compliance
var _ port.ApproverRoster = (*RosterRepository)(nil)
