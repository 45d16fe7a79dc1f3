package entity

import (
	"fmt"
	"math"
	"time"
)

// ApprovalRule is a company policy describing who must approve expenses
// in a given amount bracket and how many of them.
//
// The bracket is half-open: a rule applies to amounts in [MinAmount, MaxAmount).
// A nil MaxAmount means the bracket is unbounded above. Amounts are always
// expressed in the company's base currency.
type ApprovalRule struct {
	ID        int64  `json:"id"`
	CompanyID int64  `json:"company_id"`
	Name      string `json:"name"`

	MinAmount float64  `json:"min_amount"`
	MaxAmount *float64 `json:"max_amount,omitempty"`

	// Sequence is the ordered list of approver roles; its order defines
	// stage precedence.
	Sequence []Role `json:"sequence"`

	// PercentageRequired is the quorum (1-100) of eligible approvers that
	// must approve within a stage before it advances.
	PercentageRequired int `json:"percentage_required"`

	AdminOverride bool `json:"admin_override"`
	UrgentBypass  bool `json:"urgent_bypass"`
	IsActive      bool `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contains reports whether the amount falls inside the rule's bracket.
func (r *ApprovalRule) Contains(amount float64) bool {
	if amount < r.MinAmount {
		return false
	}
	if r.MaxAmount != nil && amount >= *r.MaxAmount {
		return false
	}
	return true
}

// BracketWidth returns the width of the rule's bracket. Unbounded rules
// report +Inf so bounded rules always win the narrowest-bracket tie-break.
func (r *ApprovalRule) BracketWidth() float64 {
	if r.MaxAmount == nil {
		return math.Inf(1)
	}
	return *r.MaxAmount - r.MinAmount
}

// Overlaps reports whether two brackets intersect.
func (r *ApprovalRule) Overlaps(other *ApprovalRule) bool {
	if r.MaxAmount != nil && *r.MaxAmount <= other.MinAmount {
		return false
	}
	if other.MaxAmount != nil && *other.MaxAmount <= r.MinAmount {
		return false
	}
	return true
}

// Validate checks the structural invariants of a rule.
func (r *ApprovalRule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if r.MinAmount < 0 {
		return fmt.Errorf("min_amount must not be negative")
	}
	if r.MaxAmount != nil && *r.MaxAmount <= r.MinAmount {
		return fmt.Errorf("max_amount (%.2f) must be greater than min_amount (%.2f)", *r.MaxAmount, r.MinAmount)
	}
	if r.PercentageRequired < 1 || r.PercentageRequired > 100 {
		return fmt.Errorf("percentage_required must be in [1,100], got %d", r.PercentageRequired)
	}
	if len(r.Sequence) == 0 {
		return fmt.Errorf("sequence must contain at least one stage")
	}
	for i, role := range r.Sequence {
		if !role.CanApprove() {
			return fmt.Errorf("sequence[%d]: role %q cannot approve", i, role)
		}
	}
	return nil
}

// DefaultRule is the built-in fallback used when no configured rule matches
// an expense amount: a single manager stage with full quorum, with the admin
// escape valve enabled.
func DefaultRule() *ApprovalRule {
	return &ApprovalRule{
		Name:               "Default - Manager Approval",
		MinAmount:          0,
		MaxAmount:          nil,
		Sequence:           []Role{RoleManager},
		PercentageRequired: 100,
		AdminOverride:      true,
		UrgentBypass:       false,
		IsActive:           true,
	}
}
