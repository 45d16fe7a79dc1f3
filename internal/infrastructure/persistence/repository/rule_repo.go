package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/expensehub/approval-engine/internal/application/port"
	"github.com/expensehub/approval-engine/internal/domain/entity"
	"github.com/expensehub/approval-engine/internal/infrastructure/persistence/sqlite"
)

// RuleRepository implements port.RuleRepository
type RuleRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewRuleRepository creates a new rule repository
func NewRuleRepository(db *sqlite.DB, logger *zap.Logger) port.RuleRepository {
	return &RuleRepository{db: db, logger: logger}
}

const ruleColumns = `id, company_id, name, min_amount, max_amount, sequence,
	percentage_required, admin_override, urgent_bypass, is_active,
	created_at, updated_at`

// Create stores a new approval rule
func (r *RuleRepository) Create(ctx context.Context, rule *entity.ApprovalRule) error {
	sequence, err := marshalRoles(rule.Sequence)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO approval_rules (
			company_id, name, min_amount, max_amount, sequence,
			percentage_required, admin_override, urgent_bypass, is_active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		rule.CompanyID,
		rule.Name,
		rule.MinAmount,
		maxAmountValue(rule.MaxAmount),
		sequence,
		rule.PercentageRequired,
		rule.AdminOverride,
		rule.UrgentBypass,
		rule.IsActive,
	)
	if err != nil {
		r.logger.Error("Failed to create rule", zap.Error(err))
		return fmt.Errorf("failed to create rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	rule.ID = id
	return nil
}

// GetByID retrieves a rule by ID
func (r *RuleRepository) GetByID(ctx context.Context, id int64) (*entity.ApprovalRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM approval_rules WHERE id = ?`

	rule, err := scanRule(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get rule by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return rule, nil
}

// GetActiveByCompany returns active rules ordered by min_amount, then id
func (r *RuleRepository) GetActiveByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM approval_rules
		WHERE company_id = ? AND is_active = 1
		ORDER BY min_amount, id
	`
	return r.queryRules(ctx, query, companyID)
}

// ListByCompany returns all rules including inactive ones
func (r *RuleRepository) ListByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM approval_rules
		WHERE company_id = ?
		ORDER BY min_amount, id
	`
	return r.queryRules(ctx, query, companyID)
}

// Update rewrites all mutable fields of a rule
func (r *RuleRepository) Update(ctx context.Context, rule *entity.ApprovalRule) error {
	sequence, err := marshalRoles(rule.Sequence)
	if err != nil {
		return err
	}

	query := `
		UPDATE approval_rules SET
			name = ?, min_amount = ?, max_amount = ?, sequence = ?,
			percentage_required = ?, admin_override = ?, urgent_bypass = ?,
			is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err = r.db.Executor(ctx).ExecContext(ctx, query,
		rule.Name,
		rule.MinAmount,
		maxAmountValue(rule.MaxAmount),
		sequence,
		rule.PercentageRequired,
		rule.AdminOverride,
		rule.UrgentBypass,
		rule.IsActive,
		rule.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update rule", zap.Int64("id", rule.ID), zap.Error(err))
		return fmt.Errorf("failed to update rule: %w", err)
	}
	return nil
}

// Deactivate retires a rule from matching without deleting the row
func (r *RuleRepository) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE approval_rules SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to deactivate rule", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to deactivate rule: %w", err)
	}
	return nil
}

func (r *RuleRepository) queryRules(ctx context.Context, query string, args ...interface{}) ([]*entity.ApprovalRule, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query rules", zap.Error(err))
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var rules []*entity.ApprovalRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// rowScanner covers *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRule(row rowScanner) (*entity.ApprovalRule, error) {
	var rule entity.ApprovalRule
	var maxAmount sql.NullFloat64
	var sequence string

	err := row.Scan(
		&rule.ID,
		&rule.CompanyID,
		&rule.Name,
		&rule.MinAmount,
		&maxAmount,
		&sequence,
		&rule.PercentageRequired,
		&rule.AdminOverride,
		&rule.UrgentBypass,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if maxAmount.Valid {
		rule.MaxAmount = &maxAmount.Float64
	}
	rule.Sequence, err = unmarshalRoles(sequence)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func maxAmountValue(maxAmount *float64) interface{} {
	if maxAmount == nil {
		return nil
	}
	return *maxAmount
}

func marshalRoles(roles []entity.Role) (string, error) {
	data, err := json.Marshal(roles)
	if err != nil {
		return "", fmt.Errorf("failed to marshal role sequence: %w", err)
	}
	return string(data), nil
}

func unmarshalRoles(data string) ([]entity.Role, error) {
	var roles []entity.Role
	if err := json.Unmarshal([]byte(data), &roles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal role sequence: %w", err)
	}
	return roles, nil
}

// Verify interface compliance
var _ port.RuleRepository = (*RuleRepository)(nil)
