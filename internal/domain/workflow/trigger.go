package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	// TriggerProgress records a quorum-short approval: the workflow stays at
	// the same stage but is no longer pristine.
	TriggerProgress Trigger = "PROGRESS"

	// TriggerAdvance fires when a stage reached quorum and further stages
	// remain.
	TriggerAdvance Trigger = "ADVANCE"

	// TriggerApprove finalizes the workflow: last stage reached quorum, or
	// an override (admin_override / urgent_bypass) short-circuited it.
	TriggerApprove Trigger = "APPROVE"

	// TriggerReject fires on any single rejection, at any stage.
	TriggerReject Trigger = "REJECT"

	// TriggerCancel fires when the submitter withdraws the expense.
	TriggerCancel Trigger = "CANCEL"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
