package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/expensehub/approval-engine/internal/application/dispatcher"
	"github.com/expensehub/approval-engine/internal/application/port"
	appworkflow "github.com/expensehub/approval-engine/internal/application/workflow"
	"github.com/expensehub/approval-engine/internal/domain/entity"
	"github.com/expensehub/approval-engine/internal/domain/event"
	"github.com/expensehub/approval-engine/internal/domain/rule"
	"github.com/expensehub/approval-engine/internal/metrics"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// SubmitExpenseInput carries everything needed to open an expense workflow.
type SubmitExpenseInput struct {
	CompanyID   int64
	SubmitterID int64
	TeamID      int64
	Category    string
	Description string
	Amount      float64
	Currency    string
	Urgent      bool
	ReceiptPath string
}

// SubmitResult is the outcome of a successful submission.
type SubmitResult struct {
	Expense  *entity.Expense          `json:"expense"`
	Instance *entity.WorkflowInstance `json:"instance"`
	RuleUsed *entity.ApprovalRule     `json:"rule_used"`
	Fallback bool                     `json:"fallback"`
}

// ExpenseService handles expense submission and lifecycle
type ExpenseService interface {
	Submit(ctx context.Context, input SubmitExpenseInput) (*SubmitResult, error)
	GetExpense(ctx context.Context, id int64) (*entity.Expense, error)
	ListExpenses(ctx context.Context, companyID int64, limit, offset int) ([]*entity.Expense, error)

	// Withdraw cancels the expense's workflow on behalf of the submitter.
	Withdraw(ctx context.Context, expenseID int64, reason string) (*entity.WorkflowInstance, error)
}

type expenseServiceImpl struct {
	expenseRepo  port.ExpenseRepository
	ruleRepo     port.RuleRepository
	instanceRepo port.InstanceRepository
	companyRepo  port.CompanyRepository
	converter    port.CurrencyConverter
	extractor    port.ReceiptExtractor
	engine       appworkflow.Engine
	txManager    port.TransactionManager
	dispatcher   dispatcher.Dispatcher
	logger       Logger
}

// NewExpenseService creates a new ExpenseService. extractor and dispatcher
// may be nil; receipt OCR and event emission are then skipped.
func NewExpenseService(
	expenseRepo port.ExpenseRepository,
	ruleRepo port.RuleRepository,
	instanceRepo port.InstanceRepository,
	companyRepo port.CompanyRepository,
	converter port.CurrencyConverter,
	extractor port.ReceiptExtractor,
	engine appworkflow.Engine,
	txManager port.TransactionManager,
	d dispatcher.Dispatcher,
	logger Logger,
) ExpenseService {
	return &expenseServiceImpl{
		expenseRepo:  expenseRepo,
		ruleRepo:     ruleRepo,
		instanceRepo: instanceRepo,
		companyRepo:  companyRepo,
		converter:    converter,
		extractor:    extractor,
		engine:       engine,
		txManager:    txManager,
		dispatcher:   d,
		logger:       logger,
	}
}

// Submit converts the amount to the company's base currency, matches an
// approval rule and opens the workflow. Conversion happens exactly once;
// the converted amount is fixed on the expense from here on.
func (s *expenseServiceImpl) Submit(ctx context.Context, input SubmitExpenseInput) (*SubmitResult, error) {
	if input.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %v", input.Amount)
	}

	company, err := s.companyRepo.GetByID(ctx, input.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("load company %d: %w", input.CompanyID, err)
	}
	if company == nil {
		return nil, fmt.Errorf("company %d not found", input.CompanyID)
	}

	amountInBase := input.Amount
	if input.Currency != "" && input.Currency != company.BaseCurrency {
		start := time.Now()
		amountInBase, err = s.converter.Convert(ctx, input.Amount, input.Currency, company.BaseCurrency)
		if err != nil {
			s.logger.Error("Currency conversion failed", "error", err, "from", input.Currency, "to", company.BaseCurrency)
			return nil, fmt.Errorf("%w: currency conversion: %v", appworkflow.ErrCollaboratorUnavailable, err)
		}
		metrics.ObserveConversion(time.Since(start))
	}

	rules, err := s.ruleRepo.GetActiveByCompany(ctx, input.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("load rules for company %d: %w", input.CompanyID, err)
	}

	match := rule.Select(rules, amountInBase)
	switch {
	case match.Ambiguous():
		metrics.RecordRuleMatch(metrics.RuleAmbiguous)
		s.logger.Warn("Overlapping rule brackets for amount",
			"company_id", input.CompanyID, "amount", amountInBase,
			"selected_rule_id", match.Rule.ID, "conflicting_ids", match.ConflictingIDs)
	case match.Fallback:
		metrics.RecordRuleMatch(metrics.RuleFallback)
		s.logger.Warn("No rule bracket contained amount, using default rule",
			"company_id", input.CompanyID, "amount", amountInBase)
	default:
		metrics.RecordRuleMatch(metrics.RuleMatched)
	}

	now := time.Now()
	expense := &entity.Expense{
		CompanyID:    input.CompanyID,
		SubmitterID:  input.SubmitterID,
		TeamID:       input.TeamID,
		Category:     input.Category,
		Description:  input.Description,
		Amount:       input.Amount,
		Currency:     input.Currency,
		AmountInBase: amountInBase,
		Urgent:       input.Urgent,
		Status:       entity.StatusPending,
		ReceiptPath:  input.ReceiptPath,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var instance *entity.WorkflowInstance
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.expenseRepo.Create(txCtx, expense); err != nil {
			return fmt.Errorf("create expense: %w", err)
		}

		instance, err = s.engine.Initialize(expense, match.Rule)
		if err != nil {
			return fmt.Errorf("initialize workflow: %w", err)
		}
		instance.CreatedAt = now
		instance.UpdatedAt = now

		if err := s.instanceRepo.Create(txCtx, instance); err != nil {
			return fmt.Errorf("create workflow instance: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to submit expense", "error", err, "company_id", input.CompanyID)
		return nil, err
	}

	s.logger.Info("Expense submitted",
		"expense_id", expense.ID, "instance_id", instance.ID,
		"amount_in_base", amountInBase, "rule_id", match.Rule.ID, "fallback", match.Fallback)

	if s.dispatcher != nil {
		evt := event.NewEvent(event.TypeExpenseSubmitted, instance.ID, expense.ID, map[string]interface{}{
			"amount_in_base": amountInBase,
			"rule_id":        match.Rule.ID,
			"fallback":       match.Fallback,
			"urgent":         expense.Urgent,
		})
		s.dispatcher.DispatchAsync(ctx, evt)
	}

	if input.ReceiptPath != "" && s.extractor != nil {
		go s.extractReceipt(expense.ID, input.ReceiptPath)
	}

	return &SubmitResult{
		Expense:  expense,
		Instance: instance,
		RuleUsed: match.Rule,
		Fallback: match.Fallback,
	}, nil
}

// extractReceipt runs receipt OCR in the background. Extraction failure
// never affects the workflow; the expense simply keeps an empty receipt_data.
func (s *expenseServiceImpl) extractReceipt(expenseID int64, receiptPath string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := s.extractor.Extract(ctx, receiptPath)
	if err != nil {
		s.logger.Warn("Receipt extraction failed", "error", err, "expense_id", expenseID)
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		s.logger.Error("Failed to marshal receipt extraction", "error", err, "expense_id", expenseID)
		return
	}

	if err := s.expenseRepo.SetReceiptData(ctx, expenseID, string(data)); err != nil {
		s.logger.Error("Failed to store receipt data", "error", err, "expense_id", expenseID)
		return
	}

	s.logger.Info("Receipt data extracted", "expense_id", expenseID, "success", result.Success)
}

func (s *expenseServiceImpl) GetExpense(ctx context.Context, id int64) (*entity.Expense, error) {
	expense, err := s.expenseRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get expense", "error", err, "id", id)
		return nil, err
	}
	return expense, nil
}

func (s *expenseServiceImpl) ListExpenses(ctx context.Context, companyID int64, limit, offset int) ([]*entity.Expense, error) {
	expenses, err := s.expenseRepo.ListByCompany(ctx, companyID, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list expenses", "error", err, "company_id", companyID)
		return nil, err
	}
	return expenses, nil
}

// Withdraw cancels the workflow attached to the expense.
func (s *expenseServiceImpl) Withdraw(ctx context.Context, expenseID int64, reason string) (*entity.WorkflowInstance, error) {
	instance, err := s.instanceRepo.GetByExpenseID(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("lookup workflow for expense %d: %w", expenseID, err)
	}
	if instance == nil {
		return nil, fmt.Errorf("%w: expense %d has no workflow", appworkflow.ErrInstanceNotFound, expenseID)
	}

	updated, err := s.engine.Cancel(ctx, instance.ID, reason)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Expense withdrawn", "expense_id", expenseID, "instance_id", instance.ID)
	return updated, nil
}
