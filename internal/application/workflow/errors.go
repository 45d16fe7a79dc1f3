package workflow

import "errors"

var (
	// ErrInstanceNotFound is returned when no workflow exists for the id.
	ErrInstanceNotFound = errors.New("workflow instance not found")

	// ErrInvalidState is returned when a decision or cancellation is
	// attempted on a workflow that already reached a terminal status.
	ErrInvalidState = errors.New("workflow already finalized")

	// ErrUnauthorizedRole is returned when the approver's role does not
	// match the role required at the current stage and no override applies.
	ErrUnauthorizedRole = errors.New("role not authorized for current stage")

	// ErrDuplicateDecision is returned when an approver already has a
	// recorded decision for the current stage of this workflow.
	ErrDuplicateDecision = errors.New("approver already decided at this stage")

	// ErrCollaboratorUnavailable is returned when an external lookup
	// (currency conversion, approver roster) fails. The operation is
	// aborted whole; the caller may retry the entire call.
	ErrCollaboratorUnavailable = errors.New("external collaborator unavailable")

	// ErrInvalidDecision is returned for decisions outside approve/reject.
	ErrInvalidDecision = errors.New("invalid decision")
)
