package entity

import "time"

// WorkflowInstance is the live approval workflow for a single expense.
//
// The matched rule's content is copied into the instance at creation time.
// Later edits to the rule catalog therefore never alter an in-flight
// workflow; RuleID is kept only for audit display.
type WorkflowInstance struct {
	ID        int64 `json:"id"`
	ExpenseID int64 `json:"expense_id"`
	CompanyID int64 `json:"company_id"`
	TeamID    int64 `json:"team_id"`

	// Rule snapshot.
	RuleID             int64  `json:"rule_id"`
	RuleName           string `json:"rule_name"`
	Sequence           []Role `json:"sequence"`
	PercentageRequired int    `json:"percentage_required"`
	AdminOverride      bool   `json:"admin_override"`
	UrgentBypass       bool   `json:"urgent_bypass"`

	CurrentStageIndex int    `json:"current_stage_index"`
	Status            string `json:"status"`
	Urgent            bool   `json:"urgent"`
	Escalated         bool   `json:"escalated"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewWorkflowInstance constructs a pending instance for the expense,
// snapshotting the rule. The rule's ID may be zero for the built-in default.
func NewWorkflowInstance(expense *Expense, rule *ApprovalRule) *WorkflowInstance {
	sequence := make([]Role, len(rule.Sequence))
	copy(sequence, rule.Sequence)

	return &WorkflowInstance{
		ExpenseID:          expense.ID,
		CompanyID:          expense.CompanyID,
		TeamID:             expense.TeamID,
		RuleID:             rule.ID,
		RuleName:           rule.Name,
		Sequence:           sequence,
		PercentageRequired: rule.PercentageRequired,
		AdminOverride:      rule.AdminOverride,
		UrgentBypass:       rule.UrgentBypass,
		CurrentStageIndex:  0,
		Status:             StatusPending,
		Urgent:             expense.Urgent,
	}
}

// CurrentRole returns the approver role required at the current stage.
// ok is false once the stage index has run past the sequence.
func (w *WorkflowInstance) CurrentRole() (role Role, ok bool) {
	if w.CurrentStageIndex < 0 || w.CurrentStageIndex >= len(w.Sequence) {
		return "", false
	}
	return w.Sequence[w.CurrentStageIndex], true
}

// LastStage reports whether the current stage is the final one.
func (w *WorkflowInstance) LastStage() bool {
	return w.CurrentStageIndex == len(w.Sequence)-1
}

// IsTerminal reports whether the instance reached a final status and is
// immutable from here on.
func (w *WorkflowInstance) IsTerminal() bool {
	switch w.Status {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	default:
		return false
	}
}
