package entity

import "fmt"

// Role identifies what capacity a user acts in within the approval flow
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"

	// RoleSystem is reserved for engine-authored ledger records
	// (e.g. the record written when an expense is withdrawn).
	RoleSystem Role = "system"
)

var validRoles = map[Role]bool{
	RoleEmployee: true,
	RoleManager:  true,
	RoleAdmin:    true,
	RoleSystem:   true,
}

var approverRoles = map[Role]bool{
	RoleManager: true,
	RoleAdmin:   true,
}

// IsValid returns true if the role is one of the defined constants
func (r Role) IsValid() bool {
	return validRoles[r]
}

// CanApprove returns true if the role may appear in a rule sequence
// and act on a workflow stage
func (r Role) CanApprove() bool {
	return approverRoles[r]
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// ParseRole converts a raw string into a Role
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return r, nil
}

// Decision is the verdict an approver records on a workflow stage
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"

	// DecisionCancel is only ever written by the engine itself when the
	// submitter withdraws the expense.
	DecisionCancel Decision = "cancel"
)

// IsValid returns true if the decision is one of the defined constants
func (d Decision) IsValid() bool {
	switch d {
	case DecisionApprove, DecisionReject, DecisionCancel:
		return true
	default:
		return false
	}
}

// String returns the string representation of the decision
func (d Decision) String() string {
	return string(d)
}
