package models

import (
	"errors"
	"fmt"
)

var (
	// ErrRuleExists indicates a custom rule with the same name is already registered
	ErrRuleExists = errors.New("rule already exists")

	// ErrTemplateNotFound indicates no template variants exist for a category
	ErrTemplateNotFound = errors.New("template category not found")

	// ErrModelNotFitted indicates the trained scoring model has no weights
	ErrModelNotFitted = errors.New("scoring model is not fitted")

	// ErrFeatureShape indicates a feature vector does not match the model
	ErrFeatureShape = errors.New("feature vector shape mismatch")
)

// RuleValidationError represents a structural problem in an automation rule
type RuleValidationError struct {
	Rule   string
	Field  string
	Reason string
}

func (e *RuleValidationError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("invalid rule '%s': %s: %s", e.Rule, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid rule: %s: %s", e.Field, e.Reason)
}

// NewRuleValidationError creates a new RuleValidationError
func NewRuleValidationError(rule, field, reason string) *RuleValidationError {
	return &RuleValidationError{
		Rule:   rule,
		Field:  field,
		Reason: reason,
	}
}

// ActionError represents a failure while executing a single rule action
type ActionError struct {
	ActionType string
	Message    string
	Err        error
}

func (e *ActionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("action %s failed: %s (caused by: %v)", e.ActionType, e.Message, e.Err)
	}
	return fmt.Sprintf("action %s failed: %s", e.ActionType, e.Message)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// NewActionError creates a new ActionError
func NewActionError(actionType, message string, err error) *ActionError {
	return &ActionError{
		ActionType: actionType,
		Message:    message,
		Err:        err,
	}
}

// ModelError represents a failure in the trained scoring backend
type ModelError struct {
	Stage   string // e.g., "load", "predict"
	Message string
	Err     error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scoring model error in %s stage: %s (caused by: %v)", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("scoring model error in %s stage: %s", e.Stage, e.Message)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError creates a new ModelError
func NewModelError(stage, message string, err error) *ModelError {
	return &ModelError{
		Stage:   stage,
		Message: message,
		Err:     err,
	}
}

// DeliveryError represents an error that occurred while handing an action to the delivery provider
type DeliveryError struct {
	StatusCode int
	Message    string
	Retriable  bool
	Err        error
}

func (e *DeliveryError) Error() string {
	retriableStr := "non-retriable"
	if e.Retriable {
		retriableStr = "retriable"
	}

	if e.StatusCode > 0 {
		if e.Err != nil {
			return fmt.Sprintf("delivery error (%s): HTTP %d - %s (caused by: %v)",
				retriableStr, e.StatusCode, e.Message, e.Err)
		}
		return fmt.Sprintf("delivery error (%s): HTTP %d - %s",
			retriableStr, e.StatusCode, e.Message)
	}

	if e.Err != nil {
		return fmt.Sprintf("delivery error (%s): %s (caused by: %v)",
			retriableStr, e.Message, e.Err)
	}
	return fmt.Sprintf("delivery error (%s): %s", retriableStr, e.Message)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// IsRetriable returns true if the delivery error should trigger a retry
func (e *DeliveryError) IsRetriable() bool {
	return e.Retriable
}

// NewDeliveryError creates a new DeliveryError
func NewDeliveryError(statusCode int, message string, retriable bool, err error) *DeliveryError {
	return &DeliveryError{
		StatusCode: statusCode,
		Message:    message,
		Retriable:  retriable,
		Err:        err,
	}
}
