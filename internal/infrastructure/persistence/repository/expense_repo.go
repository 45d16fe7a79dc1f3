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

// ExpenseRepository implements port.ExpenseRepository
type ExpenseRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *sqlite.DB, logger *zap.Logger) port.ExpenseRepository {
	return &ExpenseRepository{db: db, logger: logger}
}

const expenseColumns = `id, company_id, submitter_id, team_id, category, description,
	amount, currency, amount_in_base, urgent, status,
	receipt_path, receipt_data, created_at, updated_at`

// Create stores a new expense
func (r *ExpenseRepository) Create(ctx context.Context, expense *entity.Expense) error {
	query := `
		INSERT INTO expenses (
			company_id, submitter_id, team_id, category, description,
			amount, currency, amount_in_base, urgent, status,
			receipt_path, receipt_data
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		expense.CompanyID,
		expense.SubmitterID,
		expense.TeamID,
		expense.Category,
		expense.Description,
		expense.Amount,
		expense.Currency,
		expense.AmountInBase,
		expense.Urgent,
		expense.Status,
		expense.ReceiptPath,
		expense.ReceiptData,
	)
	if err != nil {
		r.logger.Error("Failed to create expense", zap.Error(err))
		return fmt.Errorf("failed to create expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	expense.ID = id
	return nil
}

// GetByID retrieves an expense by ID
func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`

	expense, err := scanExpense(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get expense by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return expense, nil
}

// UpdateStatus mirrors the workflow status onto the expense
func (r *ExpenseRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE expenses SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update expense status", zap.Int64("id", id), zap.String("status", status), zap.Error(err))
		return fmt.Errorf("failed to update expense status: %w", err)
	}
	return nil
}

// SetReceiptData stores the OCR extraction result
func (r *ExpenseRepository) SetReceiptData(ctx context.Context, id int64, data string) error {
	query := `UPDATE expenses SET receipt_data = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query, data, id)
	if err != nil {
		r.logger.Error("Failed to set receipt data", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to set receipt data: %w", err)
	}
	return nil
}

// ListByCompany retrieves expenses with pagination, newest first
func (r *ExpenseRepository) ListByCompany(ctx context.Context, companyID int64, limit, offset int) ([]*entity.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE company_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, companyID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list expenses", zap.Error(err))
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*entity.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	return expenses, rows.Err()
}

func scanExpense(row rowScanner) (*entity.Expense, error) {
	var expense entity.Expense
	err := row.Scan(
		&expense.ID,
		&expense.CompanyID,
		&expense.SubmitterID,
		&expense.TeamID,
		&expense.Category,
		&expense.Description,
		&expense.Amount,
		&expense.Currency,
		&expense.AmountInBase,
		&expense.Urgent,
		&expense.Status,
		&expense.ReceiptPath,
		&expense.ReceiptData,
		&expense.CreatedAt,
		&expense.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

// Verify interface compliance
var _ port.ExpenseRepository = (*ExpenseRepository)(nil)
