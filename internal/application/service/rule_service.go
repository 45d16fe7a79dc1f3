package service

import (
	"context"
	"fmt"
	"time"

	"github.com/expensehub/approval-engine/internal/application/port"
	"github.com/expensehub/approval-engine/internal/domain/entity"
	"github.com/expensehub/approval-engine/internal/domain/rule"
)

// RuleService manages the approval-rule catalog. Catalog changes never touch
// in-flight workflows; those carry a snapshot of the rule they matched.
type RuleService interface {
	CreateRule(ctx context.Context, r *entity.ApprovalRule) (*entity.ApprovalRule, []string, error)
	GetRule(ctx context.Context, id int64) (*entity.ApprovalRule, error)
	ListRules(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error)
	UpdateRule(ctx context.Context, r *entity.ApprovalRule) (*entity.ApprovalRule, []string, error)
	DeactivateRule(ctx context.Context, id int64) error

	// BootstrapDefaults seeds the standard three-bracket rule set for a new
	// company. It is a no-op when the company already has rules.
	BootstrapDefaults(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error)
}

type ruleServiceImpl struct {
	ruleRepo port.RuleRepository
	logger   Logger
}

// NewRuleService creates a new RuleService
func NewRuleService(ruleRepo port.RuleRepository, logger Logger) RuleService {
	return &ruleServiceImpl{ruleRepo: ruleRepo, logger: logger}
}

// CreateRule validates and stores a rule. The returned warnings list the
// bracket overlaps the new rule introduces; overlaps are allowed but make
// matching fall back to the narrowest-bracket tie-break.
func (s *ruleServiceImpl) CreateRule(ctx context.Context, r *entity.ApprovalRule) (*entity.ApprovalRule, []string, error) {
	if err := r.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid rule: %w", err)
	}

	now := time.Now()
	r.IsActive = true
	r.CreatedAt = now
	r.UpdatedAt = now

	if err := s.ruleRepo.Create(ctx, r); err != nil {
		s.logger.Error("Failed to create rule", "error", err, "company_id", r.CompanyID)
		return nil, nil, err
	}

	warnings, err := s.overlapWarnings(ctx, r.CompanyID)
	if err != nil {
		// The rule is already stored; a failed overlap check only loses the
		// advisory warnings.
		s.logger.Warn("Overlap check failed after rule creation", "error", err, "rule_id", r.ID)
		warnings = nil
	}

	s.logger.Info("Rule created", "rule_id", r.ID, "company_id", r.CompanyID, "name", r.Name)
	return r, warnings, nil
}

func (s *ruleServiceImpl) GetRule(ctx context.Context, id int64) (*entity.ApprovalRule, error) {
	r, err := s.ruleRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get rule", "error", err, "id", id)
		return nil, err
	}
	return r, nil
}

func (s *ruleServiceImpl) ListRules(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error) {
	rules, err := s.ruleRepo.ListByCompany(ctx, companyID)
	if err != nil {
		s.logger.Error("Failed to list rules", "error", err, "company_id", companyID)
		return nil, err
	}
	return rules, nil
}

func (s *ruleServiceImpl) UpdateRule(ctx context.Context, r *entity.ApprovalRule) (*entity.ApprovalRule, []string, error) {
	if err := r.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid rule: %w", err)
	}

	existing, err := s.ruleRepo.GetByID(ctx, r.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load rule %d: %w", r.ID, err)
	}
	if existing == nil {
		return nil, nil, fmt.Errorf("rule %d not found", r.ID)
	}

	r.UpdatedAt = time.Now()
	if err := s.ruleRepo.Update(ctx, r); err != nil {
		s.logger.Error("Failed to update rule", "error", err, "rule_id", r.ID)
		return nil, nil, err
	}

	warnings, err := s.overlapWarnings(ctx, r.CompanyID)
	if err != nil {
		s.logger.Warn("Overlap check failed after rule update", "error", err, "rule_id", r.ID)
		warnings = nil
	}

	s.logger.Info("Rule updated", "rule_id", r.ID, "company_id", r.CompanyID)
	return r, warnings, nil
}

// DeactivateRule retires a rule from matching without deleting it, so
// instance snapshots keep a valid audit reference.
func (s *ruleServiceImpl) DeactivateRule(ctx context.Context, id int64) error {
	if err := s.ruleRepo.Deactivate(ctx, id); err != nil {
		s.logger.Error("Failed to deactivate rule", "error", err, "rule_id", id)
		return err
	}
	s.logger.Info("Rule deactivated", "rule_id", id)
	return nil
}

// BootstrapDefaults seeds the conventional three brackets: manager-only for
// small amounts, manager then admin for mid-range, and the full chain with
// the admin escape valve for everything above.
func (s *ruleServiceImpl) BootstrapDefaults(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error) {
	existing, err := s.ruleRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("list rules for company %d: %w", companyID, err)
	}
	if len(existing) > 0 {
		s.logger.Info("Company already has rules, skipping bootstrap", "company_id", companyID, "count", len(existing))
		return nil, nil
	}

	midCap := 5000.0
	highCap := 25000.0
	now := time.Now()

	defaults := []*entity.ApprovalRule{
		{
			CompanyID:          companyID,
			Name:               "Small Expense - Manager Approval",
			MinAmount:          0,
			MaxAmount:          &midCap,
			Sequence:           []entity.Role{entity.RoleManager},
			PercentageRequired: 100,
			UrgentBypass:       true,
			IsActive:           true,
		},
		{
			CompanyID:          companyID,
			Name:               "Medium Expense - Manager and Admin",
			MinAmount:          midCap,
			MaxAmount:          &highCap,
			Sequence:           []entity.Role{entity.RoleManager, entity.RoleAdmin},
			PercentageRequired: 100,
			IsActive:           true,
		},
		{
			CompanyID:          companyID,
			Name:               "Large Expense - Full Chain",
			MinAmount:          highCap,
			MaxAmount:          nil,
			Sequence:           []entity.Role{entity.RoleManager, entity.RoleAdmin},
			PercentageRequired: 100,
			AdminOverride:      true,
			IsActive:           true,
		},
	}

	for _, r := range defaults {
		r.CreatedAt = now
		r.UpdatedAt = now
		if err := s.ruleRepo.Create(ctx, r); err != nil {
			return nil, fmt.Errorf("create default rule %q: %w", r.Name, err)
		}
	}

	s.logger.Info("Default rules bootstrapped", "company_id", companyID, "count", len(defaults))
	return defaults, nil
}

func (s *ruleServiceImpl) overlapWarnings(ctx context.Context, companyID int64) ([]string, error) {
	active, err := s.ruleRepo.GetActiveByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	var warnings []string
	for _, pair := range rule.FindOverlaps(active) {
		warnings = append(warnings, fmt.Sprintf("rules %d and %d have overlapping amount brackets", pair[0], pair[1]))
	}
	return warnings, nil
}
