package models

// ExecutionStatus represents the current state of a workflow execution
type ExecutionStatus string

const (
	// ExecutionStatusPending indicates the rule matched and the record was created
	ExecutionStatusPending ExecutionStatus = "pending"

	// ExecutionStatusExecuting indicates actions are being attempted
	ExecutionStatusExecuting ExecutionStatus = "executing"

	// ExecutionStatusCompleted indicates every action completed
	ExecutionStatusCompleted ExecutionStatus = "completed"

	// ExecutionStatusFailed indicates at least one action failed
	ExecutionStatusFailed ExecutionStatus = "failed"
)

// IsValid checks if the status is a valid ExecutionStatus value
func (s ExecutionStatus) IsValid() bool {
	switch s {
	case ExecutionStatusPending, ExecutionStatusExecuting,
		ExecutionStatusCompleted, ExecutionStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if the status represents a terminal state
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed
}

// ActionStatus is the outcome of a single action inside an execution
type ActionStatus string

const (
	ActionStatusCompleted ActionStatus = "completed"
	ActionStatusFailed    ActionStatus = "failed"
)

// RulePriority is the priority label of an automation rule
type RulePriority string

const (
	PriorityHigh   RulePriority = "high"
	PriorityMedium RulePriority = "medium"
	PriorityLow    RulePriority = "low"
)

// IsValid checks if the priority is one of the known labels
func (p RulePriority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}
