package models

import (
	"strconv"
	"time"
)

// Operator is a comparison operator used in rule conditions
type Operator string

const (
	OpGreaterOrEqual Operator = ">="
	OpLessOrEqual    Operator = "<="
	OpEqual          Operator = "=="
	OpNotEqual       Operator = "!="
	OpGreater        Operator = ">"
	OpLess           Operator = "<"
)

// IsValid checks if the operator is supported
func (o Operator) IsValid() bool {
	switch o {
	case OpGreaterOrEqual, OpLessOrEqual, OpEqual, OpNotEqual, OpGreater, OpLess:
		return true
	default:
		return false
	}
}

// Condition is a single field/operator/value test against an event payload
type Condition struct {
	Field    string      `json:"field"`
	Operator Operator    `json:"operator"`
	Value    interface{} `json:"value"`
}

// MaxActionDelay is the longest scheduling offset a rule action may carry (one year)
const MaxActionDelay = 365 * 24 * 60 * 60

// Action is one step of a rule; Delay is the scheduling offset in seconds
type Action struct {
	Type   string                 `json:"type"`
	Delay  int                    `json:"delay"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// Offset returns Delay as a duration
func (a Action) Offset() time.Duration {
	return time.Duration(a.Delay) * time.Second
}

// AutomationRule is a named trigger → conditions → actions record
type AutomationRule struct {
	Name        string       `json:"name"`
	Trigger     string       `json:"trigger"`
	Description string       `json:"description,omitempty"`
	Conditions  []Condition  `json:"conditions"`
	Actions     []Action     `json:"actions"`
	Priority    RulePriority `json:"priority"`
	Custom      bool         `json:"custom"`
}

// Validate checks that a rule is well formed.
// Returns a *RuleValidationError describing the first violation.
func (r *AutomationRule) Validate() error {
	if r.Name == "" {
		return NewRuleValidationError(r.Name, "name", "name is required")
	}
	if r.Trigger == "" {
		return NewRuleValidationError(r.Name, "trigger", "trigger is required")
	}
	if r.Priority != "" && !r.Priority.IsValid() {
		return NewRuleValidationError(r.Name, "priority", "unknown priority "+string(r.Priority))
	}
	for _, c := range r.Conditions {
		if c.Field == "" {
			return NewRuleValidationError(r.Name, "conditions", "condition field is required")
		}
		if !c.Operator.IsValid() {
			return NewRuleValidationError(r.Name, "conditions", "unsupported operator "+string(c.Operator))
		}
	}
	for _, a := range r.Actions {
		if a.Type == "" {
			return NewRuleValidationError(r.Name, "actions", "action type is required")
		}
		if a.Delay < 0 {
			return NewRuleValidationError(r.Name, "actions", "action delay must be non-negative")
		}
		if a.Delay > MaxActionDelay {
			return NewRuleValidationError(r.Name, "actions", "action delay must not exceed "+strconv.Itoa(MaxActionDelay)+" seconds")
		}
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate catalog entries
func (r AutomationRule) Clone() AutomationRule {
	out := r
	out.Conditions = append([]Condition(nil), r.Conditions...)
	out.Actions = make([]Action, len(r.Actions))
	for i, a := range r.Actions {
		out.Actions[i] = a
		if a.Params != nil {
			params := make(map[string]interface{}, len(a.Params))
			for k, v := range a.Params {
				params[k] = v
			}
			out.Actions[i].Params = params
		}
	}
	return out
}
