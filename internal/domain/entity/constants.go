package entity

// Status constants for WorkflowInstance and Expense.
// These mirror the workflow package states; entities store plain strings
// so the persistence layer never depends on the state machine.
const (
	StatusPending    = "PENDING"
	StatusInProgress = "IN_PROGRESS"
	StatusApproved   = "APPROVED"
	StatusRejected   = "REJECTED"
	StatusCancelled  = "CANCELLED"
)

// Expense category constants
const (
	CategoryTravel        = "TRAVEL"
	CategoryMeal          = "MEAL"
	CategoryAccommodation = "ACCOMMODATION"
	CategoryEquipment     = "EQUIPMENT"
	CategorySoftware      = "SOFTWARE"
	CategoryEntertainment = "ENTERTAINMENT"
	CategoryOther         = "OTHER"
)
