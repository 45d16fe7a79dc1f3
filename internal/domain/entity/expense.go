package entity

import "time"

// Expense is a reimbursement request submitted by an employee.
type Expense struct {
	ID          int64  `json:"id"`
	CompanyID   int64  `json:"company_id"`
	SubmitterID int64  `json:"submitter_id"`
	TeamID      int64  `json:"team_id"`
	Category    string `json:"category"`
	Description string `json:"description"`

	// Amount is the amount as submitted, in Currency. AmountInBase is the
	// converted value in the company's base currency, fixed at submission
	// time; rule matching always uses AmountInBase.
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	AmountInBase float64 `json:"amount_in_base"`

	Urgent bool   `json:"urgent"`
	Status string `json:"status"`

	// ReceiptPath points at the uploaded receipt, if any. ReceiptData holds
	// the OCR extraction result as JSON; empty when extraction was skipped
	// or failed.
	ReceiptPath string `json:"receipt_path,omitempty"`
	ReceiptData string `json:"receipt_data,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Company holds the approval-relevant company settings.
type Company struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	BaseCurrency string `json:"base_currency"`

	// SLAHours is the escalation window for any non-terminal workflow;
	// UrgentPendingHours is the tighter window for urgent expenses that are
	// still waiting for their first decision.
	SLAHours           int `json:"sla_hours"`
	UrgentPendingHours int `json:"urgent_pending_hours"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// User is the minimal projection of an account the engine needs: enough to
// resolve approver rosters. Account management itself lives elsewhere.
type User struct {
	ID        int64  `json:"id"`
	CompanyID int64  `json:"company_id"`
	TeamID    int64  `json:"team_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	IsActive  bool   `json:"is_active"`
}
