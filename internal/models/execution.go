package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ActionResult is the outcome of one action within a workflow execution
type ActionResult struct {
	Type        string                 `json:"type"`
	Status      ActionStatus           `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Delay       int                    `json:"delay"`
	ScheduledAt time.Time              `json:"scheduled_at"`
	Error       string                 `json:"error,omitempty"`
	Output      map[string]interface{} `json:"output,omitempty"`
}

// WorkflowExecution is one run of a rule's action list for one event
type WorkflowExecution struct {
	ID           string          `json:"id" db:"id"`
	RuleName     string          `json:"rule_name" db:"rule_name"`
	Trigger      string          `json:"trigger" db:"trigger_name"`
	Priority     RulePriority    `json:"priority" db:"priority"`
	Status       ExecutionStatus `json:"status" db:"status"`
	StartedAt    time.Time       `json:"started_at" db:"started_at"`
	CompletedAt  time.Time       `json:"completed_at" db:"completed_at"`
	Actions      []ActionResult  `json:"actions" db:"actions"`
	EventPayload JSONB           `json:"event_payload,omitempty" db:"event_payload"`
}

// Clone returns a copy that shares no action results, outputs or payload with e
func (e WorkflowExecution) Clone() WorkflowExecution {
	out := e
	if e.Actions != nil {
		out.Actions = make([]ActionResult, len(e.Actions))
		for i, a := range e.Actions {
			out.Actions[i] = a
			out.Actions[i].Output = cloneMap(a.Output)
		}
	}
	if e.EventPayload != nil {
		out.EventPayload = e.EventPayload.Clone()
	}
	return out
}

// CanTransitionTo checks if the execution can move to the target status
func (e *WorkflowExecution) CanTransitionTo(target ExecutionStatus) bool {
	if e.Status.IsTerminal() {
		return false
	}

	switch e.Status {
	case ExecutionStatusPending:
		return target == ExecutionStatusExecuting
	case ExecutionStatusExecuting:
		return target == ExecutionStatusCompleted || target == ExecutionStatusFailed
	default:
		return false
	}
}

// TransitionTo attempts to move the execution to a new status
func (e *WorkflowExecution) TransitionTo(target ExecutionStatus) error {
	if !e.CanTransitionTo(target) {
		return fmt.Errorf("invalid execution transition from %s to %s", e.Status, target)
	}
	e.Status = target
	return nil
}

// Succeeded reports whether the execution finished without failed actions
func (e *WorkflowExecution) Succeeded() bool {
	return e.Status == ExecutionStatusCompleted
}

// ActionsJSON encodes the action results for storage
func (e *WorkflowExecution) ActionsJSON() ([]byte, error) {
	return json.Marshal(e.Actions)
}

// ScheduledAction tells an external scheduler to run an action at ExecuteAt.
// The rule engine never sleeps on delays; it returns these instead.
// ActionIndex is the action's position in its rule, so two actions of the
// same type within one execution stay distinct.
type ScheduledAction struct {
	ExecutionID string                 `json:"execution_id"`
	RuleName    string                 `json:"rule_name"`
	ActionIndex int                    `json:"action_index"`
	ActionType  string                 `json:"action_type"`
	Payload     map[string]interface{} `json:"payload"`
	Delay       time.Duration          `json:"delay"`
	ExecuteAt   time.Time              `json:"execute_at"`
}

// Key identifies one action of one execution for provider deduplication
func (s ScheduledAction) Key() string {
	return fmt.Sprintf("%s:%d:%s", s.ExecutionID, s.ActionIndex, s.ActionType)
}

// ToJobPayload converts the descriptor into a queue job payload
func (s ScheduledAction) ToJobPayload() map[string]interface{} {
	return map[string]interface{}{
		"execution_id": s.ExecutionID,
		"rule_name":    s.RuleName,
		"action_index": s.ActionIndex,
		"action_type":  s.ActionType,
		"payload":      s.Payload,
		"execute_at":   s.ExecuteAt.UTC().Format(time.RFC3339),
	}
}

// ScheduledActionFromJob rebuilds a descriptor from a queue job payload
func ScheduledActionFromJob(payload map[string]interface{}) (ScheduledAction, error) {
	var action ScheduledAction

	executionID, _ := payload["execution_id"].(string)
	actionType, _ := payload["action_type"].(string)
	if executionID == "" || actionType == "" {
		return action, fmt.Errorf("scheduled action payload missing execution_id or action_type")
	}

	action.ExecutionID = executionID
	action.ActionType = actionType
	action.RuleName, _ = payload["rule_name"].(string)

	// float64 after a JSON round trip, int when built in process
	switch idx := payload["action_index"].(type) {
	case nil:
	case float64:
		action.ActionIndex = int(idx)
	case int:
		action.ActionIndex = idx
	default:
		return action, fmt.Errorf("invalid action_index %v", idx)
	}
	if action.ActionIndex < 0 {
		return action, fmt.Errorf("invalid action_index %d", action.ActionIndex)
	}

	if inner, ok := payload["payload"].(map[string]interface{}); ok {
		action.Payload = inner
	} else {
		action.Payload = map[string]interface{}{}
	}

	if raw, ok := payload["execute_at"].(string); ok && raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return action, fmt.Errorf("invalid execute_at %q: %w", raw, err)
		}
		action.ExecuteAt = t
	}

	return action, nil
}

// DispatchAttempt represents a single attempt to hand a scheduled action to the delivery provider
type DispatchAttempt struct {
	ID             int64     `json:"id" db:"id"`
	ExecutionID    string    `json:"execution_id" db:"execution_id"`
	ActionIndex    int       `json:"action_index" db:"action_index"`
	ActionType     string    `json:"action_type" db:"action_type"`
	AttemptNo      int       `json:"attempt_no" db:"attempt_no"`
	RequestedAt    time.Time `json:"requested_at" db:"requested_at"`
	ResponseStatus *int      `json:"response_status,omitempty" db:"response_status"`
	ResponseBody   *string   `json:"response_body,omitempty" db:"response_body"`
	ErrorMessage   *string   `json:"error_message,omitempty" db:"error_message"`
	Success        bool      `json:"success" db:"success"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// NewDispatchAttempt creates a new dispatch attempt for a scheduled action
func NewDispatchAttempt(action ScheduledAction, attemptNo int) *DispatchAttempt {
	now := time.Now()
	return &DispatchAttempt{
		ExecutionID: action.ExecutionID,
		ActionIndex: action.ActionIndex,
		ActionType:  action.ActionType,
		AttemptNo:   attemptNo,
		RequestedAt: now,
		Success:     false,
		CreatedAt:   now,
	}
}

// MarkSuccess marks the dispatch attempt as successful
func (d *DispatchAttempt) MarkSuccess(statusCode int, responseBody string) {
	d.Success = true
	d.ResponseStatus = &statusCode
	d.ResponseBody = &responseBody
}

// MarkFailure marks the dispatch attempt as failed
func (d *DispatchAttempt) MarkFailure(statusCode *int, errorMessage string) {
	d.Success = false
	d.ResponseStatus = statusCode
	d.ErrorMessage = &errorMessage
}
