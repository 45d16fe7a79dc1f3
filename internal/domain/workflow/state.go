package workflow

// State represents a workflow state in the approval lifecycle
type State string

const (
	// StatePending is a freshly created workflow with no decisions yet.
	StatePending State = "PENDING"
	// StateInProgress has at least one recorded decision and stages remain.
	StateInProgress State = "IN_PROGRESS"

	// Terminal states.
	StateApproved  State = "APPROVED"
	StateRejected  State = "REJECTED"
	StateCancelled State = "CANCELLED"
)

var validStates = map[State]bool{
	StatePending:    true,
	StateInProgress: true,
	StateApproved:   true,
	StateRejected:   true,
	StateCancelled:  true,
}

var terminalStates = map[State]bool{
	StateApproved:  true,
	StateRejected:  true,
	StateCancelled: true,
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValid returns true if the state is a valid workflow state
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}
