package automation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/checkfox/lead_engage/internal/models"
)

// TriggerResult is the outcome of one Trigger call
type TriggerResult struct {
	TriggerName      string                     `json:"trigger_name"`
	MatchedRuleCount int                        `json:"matched_rule_count"`
	Executions       []models.WorkflowExecution `json:"executions"`
	Scheduled        []models.ScheduledAction   `json:"scheduled"`
}

// Option configures an Engine
type Option func(*Engine)

// WithClock sets the time source used for execution timestamps
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRules replaces the built-in catalog
func WithRules(rules []models.AutomationRule) Option {
	return func(e *Engine) {
		e.rules = make([]models.AutomationRule, len(rules))
		for i, r := range rules {
			e.rules[i] = r.Clone()
		}
	}
}

// WithIDGenerator sets the execution ID generator
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

// Engine matches trigger events against the rule catalog and records executions.
// It holds no I/O: delayed actions come back as ScheduledAction descriptors.
type Engine struct {
	rulesMu sync.RWMutex
	rules   []models.AutomationRule

	actionsMu sync.RWMutex
	actions   map[string]ActionFunc

	historyMu sync.Mutex
	history   []models.WorkflowExecution

	now   func() time.Time
	newID func() string
}

// NewEngine creates an Engine loaded with DefaultRules unless overridden
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rules:   DefaultRules(),
		actions: builtinActions(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RegisterAction adds or replaces an action executor
func (e *Engine) RegisterAction(actionType string, fn ActionFunc) {
	e.actionsMu.Lock()
	defer e.actionsMu.Unlock()
	e.actions[actionType] = fn
}

// CreateCustomRule validates and appends a rule to the catalog.
// Returns models.ErrRuleExists if the name is taken.
func (e *Engine) CreateCustomRule(rule models.AutomationRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	if rule.Priority == "" {
		rule.Priority = models.PriorityMedium
	}
	rule.Custom = true

	e.rulesMu.Lock()
	defer e.rulesMu.Unlock()

	for _, existing := range e.rules {
		if existing.Name == rule.Name {
			return fmt.Errorf("%w: %s", models.ErrRuleExists, rule.Name)
		}
	}
	e.rules = append(e.rules, rule.Clone())
	return nil
}

// Rules returns a copy of the catalog in evaluation order
func (e *Engine) Rules() []models.AutomationRule {
	e.rulesMu.RLock()
	defer e.rulesMu.RUnlock()

	out := make([]models.AutomationRule, len(e.rules))
	for i, r := range e.rules {
		out[i] = r.Clone()
	}
	return out
}

// Rule looks up a rule by name
func (e *Engine) Rule(name string) (models.AutomationRule, bool) {
	e.rulesMu.RLock()
	defer e.rulesMu.RUnlock()

	for _, r := range e.rules {
		if r.Name == name {
			return r.Clone(), true
		}
	}
	return models.AutomationRule{}, false
}

// Trigger fires every rule subscribed to triggerName whose conditions pass.
// Every action of every fired rule is attempted before Trigger returns.
func (e *Engine) Trigger(ctx context.Context, triggerName string, payload map[string]interface{}) TriggerResult {
	result := TriggerResult{
		TriggerName: triggerName,
		Executions:  []models.WorkflowExecution{},
		Scheduled:   []models.ScheduledAction{},
	}

	for _, rule := range e.snapshot() {
		if rule.Trigger != triggerName || !conditionsMet(rule.Conditions, payload) {
			continue
		}

		execution, scheduled := e.execute(ctx, rule, payload)
		e.appendHistory(execution.Clone())

		result.Executions = append(result.Executions, execution)
		result.Scheduled = append(result.Scheduled, scheduled...)
	}

	result.MatchedRuleCount = len(result.Executions)
	return result
}

// snapshot copies the catalog so custom rules added mid-trigger are not seen
func (e *Engine) snapshot() []models.AutomationRule {
	e.rulesMu.RLock()
	defer e.rulesMu.RUnlock()
	return append([]models.AutomationRule(nil), e.rules...)
}

func (e *Engine) execute(ctx context.Context, rule models.AutomationRule, payload map[string]interface{}) (models.WorkflowExecution, []models.ScheduledAction) {
	started := e.now()
	execution := models.WorkflowExecution{
		ID:           e.newID(),
		RuleName:     rule.Name,
		Trigger:      rule.Trigger,
		Priority:     rule.Priority,
		Status:       models.ExecutionStatusPending,
		StartedAt:    started,
		Actions:      make([]models.ActionResult, 0, len(rule.Actions)),
		EventPayload: models.JSONB(payload).Clone(),
	}
	_ = execution.TransitionTo(models.ExecutionStatusExecuting)

	scheduled := make([]models.ScheduledAction, 0, len(rule.Actions))
	failed := false

	for i, action := range rule.Actions {
		delay := action.Offset()
		req := ActionRequest{
			ExecutionID: execution.ID,
			RuleName:    rule.Name,
			Action:      action,
			Payload:     payload,
			StartedAt:   started,
			ExecuteAt:   started.Add(delay),
		}

		output, err := e.runAction(ctx, req)

		actionResult := models.ActionResult{
			Type:        action.Type,
			Status:      models.ActionStatusCompleted,
			Timestamp:   e.now(),
			Delay:       action.Delay,
			ScheduledAt: req.ExecuteAt,
			Output:      output,
		}
		if err != nil {
			failed = true
			actionResult.Status = models.ActionStatusFailed
			actionResult.Error = err.Error()
			actionResult.Output = nil
		} else {
			scheduled = append(scheduled, models.ScheduledAction{
				ExecutionID: execution.ID,
				RuleName:    rule.Name,
				ActionIndex: i,
				ActionType:  action.Type,
				Payload:     models.JSONB(output).Clone(),
				Delay:       delay,
				ExecuteAt:   req.ExecuteAt,
			})
		}
		execution.Actions = append(execution.Actions, actionResult)
	}

	if failed {
		_ = execution.TransitionTo(models.ExecutionStatusFailed)
	} else {
		_ = execution.TransitionTo(models.ExecutionStatusCompleted)
	}
	execution.CompletedAt = e.now()

	return execution, scheduled
}

// runAction invokes the executor for req, converting panics into errors.
// Types without a registered executor are handed downstream unchanged.
func (e *Engine) runAction(ctx context.Context, req ActionRequest) (output map[string]interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			output = nil
			err = models.NewActionError(req.Action.Type, fmt.Sprintf("panic: %v", r), nil)
		}
	}()

	e.actionsMu.RLock()
	fn, ok := e.actions[req.Action.Type]
	e.actionsMu.RUnlock()
	if !ok {
		fn = passThrough
	}

	output, err = fn(ctx, req)
	if err != nil {
		return nil, models.NewActionError(req.Action.Type, "executor returned an error", err)
	}
	if output == nil {
		output = map[string]interface{}{}
	}
	return output, nil
}

func (e *Engine) appendHistory(execution models.WorkflowExecution) {
	e.historyMu.Lock()
	defer e.historyMu.Unlock()
	e.history = append(e.history, execution)
}

// Executions returns a copy of the execution history, oldest first.
// Records are cloned; callers cannot reach the stored history.
func (e *Engine) Executions() []models.WorkflowExecution {
	e.historyMu.Lock()
	defer e.historyMu.Unlock()
	out := make([]models.WorkflowExecution, len(e.history))
	for i, execution := range e.history {
		out[i] = execution.Clone()
	}
	return out
}

// RecentExecutions returns up to limit executions, newest first
func (e *Engine) RecentExecutions(limit int) []models.WorkflowExecution {
	history := e.Executions()
	if limit <= 0 || limit > len(history) {
		limit = len(history)
	}

	out := make([]models.WorkflowExecution, 0, limit)
	for i := len(history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, history[i])
	}
	return out
}
