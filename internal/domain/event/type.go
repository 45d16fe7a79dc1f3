package event

// Type identifies the type of domain event
type Type string

const (
	TypeExpenseSubmitted  Type = "expense.submitted"
	TypeDecisionRecorded  Type = "decision.recorded"
	TypeStageAdvanced     Type = "workflow.stage_advanced"
	TypeWorkflowApproved  Type = "workflow.approved"
	TypeWorkflowRejected  Type = "workflow.rejected"
	TypeWorkflowCancelled Type = "workflow.cancelled"
	TypeWorkflowEscalated Type = "workflow.escalated"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeExpenseSubmitted,
		TypeDecisionRecorded,
		TypeStageAdvanced,
		TypeWorkflowApproved,
		TypeWorkflowRejected,
		TypeWorkflowCancelled,
		TypeWorkflowEscalated:
		return true
	default:
		return false
	}
}
