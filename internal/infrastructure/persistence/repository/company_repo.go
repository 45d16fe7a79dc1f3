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

// CompanyRepository implements port.CompanyRepository
type CompanyRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db *sqlite.DB, logger *zap.Logger) port.CompanyRepository {
	return &CompanyRepository{db: db, logger: logger}
}

// GetByID retrieves a company and its approval settings
func (r *CompanyRepository) GetByID(ctx context.Context, id int64) (*entity.Company, error) {
	query := `
		SELECT id, name, base_currency, sla_hours, urgent_pending_hours,
			is_active, created_at
		FROM companies
		WHERE id = ?
	`

	var company entity.Company
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, id).Scan(
		&company.ID,
		&company.Name,
		&company.BaseCurrency,
		&company.SLAHours,
		&company.UrgentPendingHours,
		&company.IsActive,
		&company.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get company by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &company, nil
}

// Verify interface compliance
var _ port.CompanyRepository = (*CompanyRepository)(nil)
