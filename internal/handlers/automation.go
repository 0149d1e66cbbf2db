package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/checkfox/lead_engage/internal/automation"
	"github.com/checkfox/lead_engage/internal/engagement"
	"github.com/checkfox/lead_engage/internal/logger"
	"github.com/checkfox/lead_engage/internal/models"
	"github.com/checkfox/lead_engage/internal/queue"
	"github.com/checkfox/lead_engage/internal/repository"
	"github.com/gorilla/mux"
)

// AutomationHandler serves triggers, the rule catalog and execution history.
// Executions, rules and queue are optional; without them results stay in memory.
type AutomationHandler struct {
	core       *engagement.Core
	executions repository.ExecutionRepository
	rules      repository.RuleRepository
	queue      queue.Queue
	now        func() time.Time
}

// AutomationHandlerConfig holds the collaborators of an AutomationHandler
type AutomationHandlerConfig struct {
	Core       *engagement.Core
	Executions repository.ExecutionRepository
	Rules      repository.RuleRepository
	Queue      queue.Queue
	Now        func() time.Time
}

// NewAutomationHandler creates a new AutomationHandler
func NewAutomationHandler(config AutomationHandlerConfig) *AutomationHandler {
	if config.Now == nil {
		config.Now = time.Now
	}
	return &AutomationHandler{
		core:       config.Core,
		executions: config.Executions,
		rules:      config.Rules,
		queue:      config.Queue,
		now:        config.Now,
	}
}

// TriggerRequest is the body of POST /automation/triggers/{name}
type TriggerRequest struct {
	Payload map[string]interface{} `json:"payload"`
	Lead    *models.LeadSnapshot   `json:"lead,omitempty"`
}

// TriggerResponse is the trigger outcome plus the lead score when a lead was supplied
type TriggerResponse struct {
	automation.TriggerResult
	Score    *models.ScoreResult `json:"score,omitempty"`
	Enqueued int                 `json:"enqueued"`
}

// HandleTrigger handles POST /automation/triggers/{name}
func (h *AutomationHandler) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	ctx := r.Context()
	triggerName := mux.Vars(r)["name"]

	var req TriggerRequest
	if err := decodeJSON(r, &req, true); err != nil {
		logger.LogError(ctx, "Malformed trigger payload", err, "trigger", triggerName)
		respondError(ctx, w, http.StatusBadRequest, "malformed JSON payload")
		return
	}
	if req.Payload == nil {
		req.Payload = map[string]interface{}{}
	}

	var response TriggerResponse
	if req.Lead != nil {
		result := h.core.ProcessLeadEvent(ctx, triggerName, *req.Lead, req.Payload)
		response.TriggerResult = result.Trigger
		response.Score = &result.Score
	} else {
		response.TriggerResult = h.core.Trigger(ctx, triggerName, req.Payload)
	}

	for _, exec := range response.Executions {
		logger.LogExecution(ctx, exec.ID, exec.RuleName, string(exec.Status), len(exec.Actions))
	}

	if err := h.persist(ctx, response.Executions); err != nil {
		logger.LogError(ctx, "Failed to persist workflow executions", err, "trigger", triggerName)
		respondError(ctx, w, http.StatusServiceUnavailable, "database error")
		return
	}

	if h.queue != nil && len(response.Scheduled) > 0 {
		enqueued, err := queue.ScheduleActions(ctx, h.queue, response.Scheduled, h.now())
		response.Enqueued = enqueued
		if err != nil {
			logger.LogError(ctx, "Failed to schedule actions", err,
				"trigger", triggerName,
				"enqueued", enqueued,
				"scheduled", len(response.Scheduled))
			respondError(ctx, w, http.StatusServiceUnavailable, "queue unavailable")
			return
		}
	}

	logger.Info(ctx, "Trigger processed",
		"trigger", triggerName,
		"matched_rule_count", response.MatchedRuleCount,
		"enqueued", response.Enqueued)
	logger.LogSlowOperation(ctx, "automation_trigger", time.Since(startTime))

	respondJSON(ctx, w, http.StatusOK, response)
}

// persist stores executions in trigger order, stopping at the first error
func (h *AutomationHandler) persist(ctx context.Context, executions []models.WorkflowExecution) error {
	if h.executions == nil {
		return nil
	}
	for i := range executions {
		if err := h.executions.Create(ctx, &executions[i]); err != nil {
			return err
		}
	}
	return nil
}

// HandleListRules handles GET /automation/rules
func (h *AutomationHandler) HandleListRules(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, h.core.Engine().Rules())
}

// HandleCreateRule handles POST /automation/rules
func (h *AutomationHandler) HandleCreateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var rule models.AutomationRule
	if err := decodeJSON(r, &rule, false); err != nil {
		logger.LogError(ctx, "Malformed rule payload", err)
		respondError(ctx, w, http.StatusBadRequest, "malformed JSON payload")
		return
	}
	if rule.Priority == "" {
		rule.Priority = models.PriorityMedium
	}
	rule.Custom = true

	if err := rule.Validate(); err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	if _, exists := h.core.Engine().Rule(rule.Name); exists {
		respondError(ctx, w, http.StatusConflict, "rule already exists: "+rule.Name)
		return
	}

	if h.rules != nil {
		if err := h.rules.Save(ctx, rule); err != nil {
			if errors.Is(err, models.ErrRuleExists) {
				respondError(ctx, w, http.StatusConflict, "rule already exists: "+rule.Name)
				return
			}
			logger.LogError(ctx, "Failed to save automation rule", err, "rule", rule.Name)
			respondError(ctx, w, http.StatusServiceUnavailable, "database error")
			return
		}
	}

	if err := h.core.Engine().CreateCustomRule(rule); err != nil {
		var validationErr *models.RuleValidationError
		switch {
		case errors.Is(err, models.ErrRuleExists):
			respondError(ctx, w, http.StatusConflict, err.Error())
		case errors.As(err, &validationErr):
			respondError(ctx, w, http.StatusBadRequest, err.Error())
		default:
			logger.LogError(ctx, "Failed to register automation rule", err, "rule", rule.Name)
			respondError(ctx, w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	logger.Info(ctx, "Custom automation rule created", "rule", rule.Name, "trigger", rule.Trigger)
	created, _ := h.core.Engine().Rule(rule.Name)
	respondJSON(ctx, w, http.StatusCreated, created)
}

// HandleAnalytics handles GET /automation/analytics
func (h *AutomationHandler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, h.core.Engine().Analytics())
}

// HandleRecentExecutions handles GET /automation/executions?limit=N
func (h *AutomationHandler) HandleRecentExecutions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, err := parseLimit(r, 50)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(ctx, w, http.StatusOK, h.core.Engine().RecentExecutions(limit))
}

// parseLimit reads the optional limit query parameter, capped at 500
func parseLimit(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	if limit > 500 {
		limit = 500
	}
	return limit, nil
}
