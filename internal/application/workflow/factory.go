package workflow

import (
	domainwf "github.com/expensehub/approval-engine/internal/domain/workflow"
)

// BuildApprovalStateMachine creates a state machine configured for the
// expense approval lifecycle.
//
// PENDING is a workflow with no decisions yet; the first decision either
// moves it along (PROGRESS/ADVANCE) or finalizes it outright (an override,
// a single-approver stage, or a rejection). IN_PROGRESS loops on itself
// while stages accumulate approvals. APPROVED, REJECTED and CANCELLED are
// terminal.
func BuildApprovalStateMachine(initialState domainwf.State) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	builder.Configure(domainwf.StatePending).
		Permit(domainwf.TriggerProgress, domainwf.StateInProgress).
		Permit(domainwf.TriggerAdvance, domainwf.StateInProgress).
		Permit(domainwf.TriggerApprove, domainwf.StateApproved).
		Permit(domainwf.TriggerReject, domainwf.StateRejected).
		Permit(domainwf.TriggerCancel, domainwf.StateCancelled)

	builder.Configure(domainwf.StateInProgress).
		PermitReentry(domainwf.TriggerProgress).
		PermitReentry(domainwf.TriggerAdvance).
		Permit(domainwf.TriggerApprove, domainwf.StateApproved).
		Permit(domainwf.TriggerReject, domainwf.StateRejected).
		Permit(domainwf.TriggerCancel, domainwf.StateCancelled)

	// APPROVED, REJECTED and CANCELLED have no outgoing transitions.

	return builder.Build(initialState)
}
