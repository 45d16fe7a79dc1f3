package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	appworkflow "github.com/expensehub/approval-engine/internal/application/workflow"
	"github.com/expensehub/approval-engine/internal/domain/entity"
	"github.com/expensehub/approval-engine/internal/infrastructure/persistence/sqlite"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()

	logger := zap.NewNop()
	db, err := sqlite.Open(sqlite.Config{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, logger)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := sqlite.Migrate(db, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedCompany(t *testing.T, db *sqlite.DB) int64 {
	t.Helper()
	result, err := db.Exec(
		`INSERT INTO companies (name, base_currency, sla_hours, urgent_pending_hours) VALUES (?, ?, ?, ?)`,
		"Acme", "USD", 72, 4,
	)
	if err != nil {
		t.Fatalf("seed company: %v", err)
	}
	id, _ := result.LastInsertId()
	return id
}

func seedUser(t *testing.T, db *sqlite.DB, companyID, teamID int64, email string, role entity.Role, active bool) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO users (company_id, team_id, name, email, role, is_active) VALUES (?, ?, ?, ?, ?, ?)`,
		companyID, teamID, email, email, role, active,
	)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func TestRuleRepository_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	companyID := seedCompany(t, db)
	repo := NewRuleRepository(db, zap.NewNop())
	ctx := context.Background()

	cap := 5000.0
	created := &entity.ApprovalRule{
		CompanyID:          companyID,
		Name:               "small",
		MinAmount:          0,
		MaxAmount:          &cap,
		Sequence:           []entity.Role{entity.RoleManager, entity.RoleAdmin},
		PercentageRequired: 60,
		AdminOverride:      true,
		IsActive:           true,
	}
	if err := repo.Create(ctx, created); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == 0 {
		t.Fatal("Create() did not assign an id")
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetByID() = nil for stored rule")
	}
	if got.MaxAmount == nil || *got.MaxAmount != 5000 {
		t.Errorf("MaxAmount = %v, want 5000", got.MaxAmount)
	}
	if len(got.Sequence) != 2 || got.Sequence[0] != entity.RoleManager || got.Sequence[1] != entity.RoleAdmin {
		t.Errorf("Sequence = %v, want [manager admin]", got.Sequence)
	}
	if got.PercentageRequired != 60 || !got.AdminOverride {
		t.Errorf("rule fields = %+v, want quorum 60 with admin_override", got)
	}

	if err := repo.Deactivate(ctx, created.ID); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}

	active, err := repo.GetActiveByCompany(ctx, companyID)
	if err != nil {
		t.Fatalf("GetActiveByCompany() error = %v", err)
	}
	if len(active) != 0 {
		t.Errorf("active rules = %d, want 0 after deactivation", len(active))
	}

	all, err := repo.ListByCompany(ctx, companyID)
	if err != nil {
		t.Fatalf("ListByCompany() error = %v", err)
	}
	if len(all) != 1 {
		t.Errorf("all rules = %d, want 1 (deactivated rows are kept)", len(all))
	}
}

func TestRuleRepository_UnboundedBracket(t *testing.T) {
	db := newTestDB(t)
	companyID := seedCompany(t, db)
	repo := NewRuleRepository(db, zap.NewNop())
	ctx := context.Background()

	created := &entity.ApprovalRule{
		CompanyID:          companyID,
		Name:               "large",
		MinAmount:          25000,
		MaxAmount:          nil,
		Sequence:           []entity.Role{entity.RoleAdmin},
		PercentageRequired: 100,
		IsActive:           true,
	}
	if err := repo.Create(ctx, created); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.MaxAmount != nil {
		t.Errorf("MaxAmount = %v, want nil for unbounded bracket", *got.MaxAmount)
	}
}

func TestInstanceRepository_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	companyID := seedCompany(t, db)
	expenses := NewExpenseRepository(db, zap.NewNop())
	instances := NewInstanceRepository(db, zap.NewNop())
	ctx := context.Background()

	expense := &entity.Expense{
		CompanyID:    companyID,
		SubmitterID:  4,
		TeamID:       2,
		Amount:       1200,
		Currency:     "USD",
		AmountInBase: 1200,
		Status:       entity.StatusPending,
	}
	if err := expenses.Create(ctx, expense); err != nil {
		t.Fatalf("create expense: %v", err)
	}

	instance := entity.NewWorkflowInstance(expense, entity.DefaultRule())
	if err := instances.Create(ctx, instance); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	byExpense, err := instances.GetByExpenseID(ctx, expense.ID)
	if err != nil {
		t.Fatalf("GetByExpenseID() error = %v", err)
	}
	if byExpense == nil || byExpense.ID != instance.ID {
		t.Fatalf("GetByExpenseID() = %+v, want instance %d", byExpense, instance.ID)
	}
	if len(byExpense.Sequence) != 1 || byExpense.Sequence[0] != entity.RoleManager {
		t.Errorf("Sequence = %v, want [manager]", byExpense.Sequence)
	}

	instance.Status = entity.StatusInProgress
	instance.CurrentStageIndex = 0
	instance.Escalated = true
	if err := instances.Update(ctx, instance); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := instances.GetByID(ctx, instance.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != entity.StatusInProgress || !got.Escalated {
		t.Errorf("updated instance = (%s, escalated=%v), want (IN_PROGRESS, true)", got.Status, got.Escalated)
	}

	open, err := instances.ListOpen(ctx)
	if err != nil {
		t.Fatalf("ListOpen() error = %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("open instances = %d, want 1", len(open))
	}

	instance.Status = entity.StatusApproved
	if err := instances.Update(ctx, instance); err != nil {
		t.Fatalf("Update() to terminal error = %v", err)
	}
	open, err = instances.ListOpen(ctx)
	if err != nil {
		t.Fatalf("ListOpen() error = %v", err)
	}
	if len(open) != 0 {
		t.Errorf("open instances = %d, want 0 after terminal status", len(open))
	}
}

func TestRecordRepository_AppendAndDuplicateBackstop(t *testing.T) {
	db := newTestDB(t)
	companyID := seedCompany(t, db)
	expenses := NewExpenseRepository(db, zap.NewNop())
	instances := NewInstanceRepository(db, zap.NewNop())
	records := NewRecordRepository(db, zap.NewNop())
	ctx := context.Background()

	expense := &entity.Expense{CompanyID: companyID, SubmitterID: 4, Amount: 100, AmountInBase: 100, Status: entity.StatusPending}
	if err := expenses.Create(ctx, expense); err != nil {
		t.Fatalf("create expense: %v", err)
	}
	instance := entity.NewWorkflowInstance(expense, entity.DefaultRule())
	if err := instances.Create(ctx, instance); err != nil {
		t.Fatalf("create instance: %v", err)
	}

	record := &entity.ApprovalRecord{
		InstanceID:  instance.ID,
		StageIndex:  0,
		ApproverID:  7,
		RoleActedAs: entity.RoleManager,
		Decision:    entity.DecisionApprove,
		Comment:     "ok",
		DecidedAt:   time.Now(),
	}
	if err := records.Append(ctx, record); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	dup := *record
	dup.ID = 0
	err := records.Append(ctx, &dup)
	if !errors.Is(err, appworkflow.ErrDuplicateDecision) {
		t.Errorf("duplicate Append() error = %v, want ErrDuplicateDecision", err)
	}

	has, err := records.HasDecision(ctx, instance.ID, 0, 7)
	if err != nil {
		t.Fatalf("HasDecision() error = %v", err)
	}
	if !has {
		t.Error("HasDecision() = false for recorded decision")
	}

	count, err := records.CountApprovalsAtStage(ctx, instance.ID, 0)
	if err != nil {
		t.Fatalf("CountApprovalsAtStage() error = %v", err)
	}
	if count != 1 {
		t.Errorf("approvals = %d, want 1", count)
	}

	// A rejection at the same stage by another approver is not an approval.
	reject := &entity.ApprovalRecord{
		InstanceID:  instance.ID,
		StageIndex:  0,
		ApproverID:  8,
		RoleActedAs: entity.RoleManager,
		Decision:    entity.DecisionReject,
		DecidedAt:   time.Now(),
	}
	if err := records.Append(ctx, reject); err != nil {
		t.Fatalf("Append() reject error = %v", err)
	}
	count, err = records.CountApprovalsAtStage(ctx, instance.ID, 0)
	if err != nil {
		t.Fatalf("CountApprovalsAtStage() error = %v", err)
	}
	if count != 1 {
		t.Errorf("approvals = %d after rejection, want still 1", count)
	}

	history, err := records.GetRecords(ctx, instance.ID)
	if err != nil {
		t.Fatalf("GetRecords() error = %v", err)
	}
	if len(history) != 2 {
		t.Errorf("history length = %d, want 2", len(history))
	}
}

func TestRosterRepository_Scoping(t *testing.T) {
	db := newTestDB(t)
	companyID := seedCompany(t, db)
	roster := NewRosterRepository(db, zap.NewNop())
	ctx := context.Background()

	seedUser(t, db, companyID, 1, "m1@acme.test", entity.RoleManager, true)
	seedUser(t, db, companyID, 1, "m2@acme.test", entity.RoleManager, true)
	seedUser(t, db, companyID, 2, "m3@acme.test", entity.RoleManager, true)
	seedUser(t, db, companyID, 1, "m4@acme.test", entity.RoleManager, false)
	seedUser(t, db, companyID, 1, "a1@acme.test", entity.RoleAdmin, true)
	seedUser(t, db, companyID, 2, "a2@acme.test", entity.RoleAdmin, true)
	seedUser(t, db, companyID, 1, "e1@acme.test", entity.RoleEmployee, true)

	managers, err := roster.GetEligibleApproverCount(ctx, companyID, 1, entity.RoleManager)
	if err != nil {
		t.Fatalf("manager count error = %v", err)
	}
	if managers != 2 {
		t.Errorf("team 1 managers = %d, want 2 (other team and inactive excluded)", managers)
	}

	admins, err := roster.GetEligibleApproverCount(ctx, companyID, 1, entity.RoleAdmin)
	if err != nil {
		t.Fatalf("admin count error = %v", err)
	}
	if admins != 2 {
		t.Errorf("admins = %d, want 2 (company-wide scope)", admins)
	}

	if _, err := roster.GetEligibleApproverCount(ctx, companyID, 1, entity.RoleEmployee); err == nil {
		t.Error("employee roster lookup = nil error, want error")
	}
}

func TestCompanyRepository(t *testing.T) {
	db := newTestDB(t)
	companyID := seedCompany(t, db)
	repo := NewCompanyRepository(db, zap.NewNop())
	ctx := context.Background()

	got, err := repo.GetByID(ctx, companyID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetByID() = nil for seeded company")
	}
	if got.BaseCurrency != "USD" || got.SLAHours != 72 || got.UrgentPendingHours != 4 {
		t.Errorf("company = %+v, want USD/72h/4h", got)
	}

	missing, err := repo.GetByID(ctx, 9999)
	if err != nil {
		t.Fatalf("GetByID(missing) error = %v", err)
	}
	if missing != nil {
		t.Errorf("GetByID(missing) = %+v, want nil", missing)
	}
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	companyID := seedCompany(t, db)
	expenses := NewExpenseRepository(db, zap.NewNop())
	ctx := context.Background()

	sentinel := errors.New("boom")
	err := db.WithTransaction(ctx, func(txCtx context.Context) error {
		expense := &entity.Expense{CompanyID: companyID, SubmitterID: 4, Amount: 10, AmountInBase: 10, Status: entity.StatusPending}
		if err := expenses.Create(txCtx, expense); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("WithTransaction() error = %v, want sentinel", err)
	}

	listed, err := expenses.ListByCompany(ctx, companyID, 10, 0)
	if err != nil {
		t.Fatalf("ListByCompany() error = %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("expenses = %d after rollback, want 0", len(listed))
	}
}
