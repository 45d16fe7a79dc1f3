package service

import (
	"context"
	"errors"

	"github.com/expensehub/approval-engine/internal/application/port"
	appworkflow "github.com/expensehub/approval-engine/internal/application/workflow"
	"github.com/expensehub/approval-engine/internal/domain/entity"
)

// Mock repositories and collaborators shared by the service tests.

type mockExpenseRepo struct {
	createFunc         func(ctx context.Context, expense *entity.Expense) error
	getByIDFunc        func(ctx context.Context, id int64) (*entity.Expense, error)
	updateStatusFunc   func(ctx context.Context, id int64, status string) error
	setReceiptDataFunc func(ctx context.Context, id int64, data string) error
	listByCompanyFunc  func(ctx context.Context, companyID int64, limit, offset int) ([]*entity.Expense, error)
}

func (m *mockExpenseRepo) Create(ctx context.Context, expense *entity.Expense) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, expense)
	}
	expense.ID = 1
	return nil
}

func (m *mockExpenseRepo) GetByID(ctx context.Context, id int64) (*entity.Expense, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Expense{ID: id, Status: entity.StatusPending}, nil
}

func (m *mockExpenseRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockExpenseRepo) SetReceiptData(ctx context.Context, id int64, data string) error {
	if m.setReceiptDataFunc != nil {
		return m.setReceiptDataFunc(ctx, id, data)
	}
	return nil
}

func (m *mockExpenseRepo) ListByCompany(ctx context.Context, companyID int64, limit, offset int) ([]*entity.Expense, error) {
	if m.listByCompanyFunc != nil {
		return m.listByCompanyFunc(ctx, companyID, limit, offset)
	}
	return nil, nil
}

type mockRuleRepo struct {
	createFunc             func(ctx context.Context, rule *entity.ApprovalRule) error
	getByIDFunc            func(ctx context.Context, id int64) (*entity.ApprovalRule, error)
	getActiveByCompanyFunc func(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error)
	listByCompanyFunc      func(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error)
	updateFunc             func(ctx context.Context, rule *entity.ApprovalRule) error
	deactivateFunc         func(ctx context.Context, id int64) error
}

func (m *mockRuleRepo) Create(ctx context.Context, rule *entity.ApprovalRule) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, rule)
	}
	rule.ID = 1
	return nil
}

func (m *mockRuleRepo) GetByID(ctx context.Context, id int64) (*entity.ApprovalRule, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockRuleRepo) GetActiveByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error) {
	if m.getActiveByCompanyFunc != nil {
		return m.getActiveByCompanyFunc(ctx, companyID)
	}
	return nil, nil
}

func (m *mockRuleRepo) ListByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error) {
	if m.listByCompanyFunc != nil {
		return m.listByCompanyFunc(ctx, companyID)
	}
	return nil, nil
}

func (m *mockRuleRepo) Update(ctx context.Context, rule *entity.ApprovalRule) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, rule)
	}
	return nil
}

func (m *mockRuleRepo) Deactivate(ctx context.Context, id int64) error {
	if m.deactivateFunc != nil {
		return m.deactivateFunc(ctx, id)
	}
	return nil
}

type mockInstanceRepo struct {
	createFunc         func(ctx context.Context, instance *entity.WorkflowInstance) error
	getByIDFunc        func(ctx context.Context, id int64) (*entity.WorkflowInstance, error)
	getByExpenseIDFunc func(ctx context.Context, expenseID int64) (*entity.WorkflowInstance, error)
	updateFunc         func(ctx context.Context, instance *entity.WorkflowInstance) error
	listOpenFunc       func(ctx context.Context) ([]*entity.WorkflowInstance, error)
}

func (m *mockInstanceRepo) Create(ctx context.Context, instance *entity.WorkflowInstance) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, instance)
	}
	instance.ID = 1
	return nil
}

func (m *mockInstanceRepo) GetByID(ctx context.Context, id int64) (*entity.WorkflowInstance, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockInstanceRepo) GetByExpenseID(ctx context.Context, expenseID int64) (*entity.WorkflowInstance, error) {
	if m.getByExpenseIDFunc != nil {
		return m.getByExpenseIDFunc(ctx, expenseID)
	}
	return nil, nil
}

func (m *mockInstanceRepo) Update(ctx context.Context, instance *entity.WorkflowInstance) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, instance)
	}
	return nil
}

func (m *mockInstanceRepo) ListOpen(ctx context.Context) ([]*entity.WorkflowInstance, error) {
	if m.listOpenFunc != nil {
		return m.listOpenFunc(ctx)
	}
	return nil, nil
}

type mockCompanyRepo struct {
	getByIDFunc func(ctx context.Context, id int64) (*entity.Company, error)
}

func (m *mockCompanyRepo) GetByID(ctx context.Context, id int64) (*entity.Company, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Company{ID: id, Name: "Acme", BaseCurrency: "USD", IsActive: true}, nil
}

type mockConverter struct {
	convertFunc func(ctx context.Context, amount float64, from, to string) (float64, error)
}

func (m *mockConverter) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	if m.convertFunc != nil {
		return m.convertFunc(ctx, amount, from, to)
	}
	return amount, nil
}

type mockExtractor struct {
	extractFunc func(ctx context.Context, receiptPath string) (*port.ReceiptExtraction, error)
}

func (m *mockExtractor) Extract(ctx context.Context, receiptPath string) (*port.ReceiptExtraction, error) {
	if m.extractFunc != nil {
		return m.extractFunc(ctx, receiptPath)
	}
	return &port.ReceiptExtraction{Success: true}, nil
}

type mockEngine struct {
	initializeFunc     func(expense *entity.Expense, rule *entity.ApprovalRule) (*entity.WorkflowInstance, error)
	submitDecisionFunc func(ctx context.Context, instanceID, approverID int64, role entity.Role, decision entity.Decision, comment string) (*entity.WorkflowInstance, error)
	cancelFunc         func(ctx context.Context, instanceID int64, reason string) (*entity.WorkflowInstance, error)
	getWorkflowFunc    func(ctx context.Context, instanceID int64) (*entity.WorkflowInstance, []*entity.ApprovalRecord, error)
}

var _ appworkflow.Engine = (*mockEngine)(nil)

func (m *mockEngine) Initialize(expense *entity.Expense, rule *entity.ApprovalRule) (*entity.WorkflowInstance, error) {
	if m.initializeFunc != nil {
		return m.initializeFunc(expense, rule)
	}
	return entity.NewWorkflowInstance(expense, rule), nil
}

func (m *mockEngine) SubmitDecision(ctx context.Context, instanceID, approverID int64, role entity.Role, decision entity.Decision, comment string) (*entity.WorkflowInstance, error) {
	if m.submitDecisionFunc != nil {
		return m.submitDecisionFunc(ctx, instanceID, approverID, role, decision, comment)
	}
	return nil, errors.New("not implemented")
}

func (m *mockEngine) Cancel(ctx context.Context, instanceID int64, reason string) (*entity.WorkflowInstance, error) {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, instanceID, reason)
	}
	return nil, errors.New("not implemented")
}

func (m *mockEngine) GetWorkflow(ctx context.Context, instanceID int64) (*entity.WorkflowInstance, []*entity.ApprovalRecord, error) {
	if m.getWorkflowFunc != nil {
		return m.getWorkflowFunc(ctx, instanceID)
	}
	return nil, nil, errors.New("not implemented")
}

type mockTxManager struct{}

func (mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type noopLogger struct{}

func (noopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (noopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (noopLogger) Error(msg string, keysAndValues ...interface{}) {}
