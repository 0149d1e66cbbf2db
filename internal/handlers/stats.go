package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/checkfox/lead_engage/internal/logger"
	"github.com/checkfox/lead_engage/internal/models"
	"github.com/checkfox/lead_engage/internal/repository"
	"github.com/gorilla/mux"
)

// StatsHandler serves persisted execution history and dispatch attempts
type StatsHandler struct {
	executionRepo repository.ExecutionRepository
	attemptRepo   repository.DispatchAttemptRepository
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(executionRepo repository.ExecutionRepository, attemptRepo repository.DispatchAttemptRepository) *StatsHandler {
	return &StatsHandler{
		executionRepo: executionRepo,
		attemptRepo:   attemptRepo,
	}
}

// ExecutionCountsByStatus represents execution counts grouped by status
type ExecutionCountsByStatus struct {
	Pending   int `json:"pending"`
	Executing int `json:"executing"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}

// ExecutionSummary represents a summary of a recent execution
type ExecutionSummary struct {
	ID          string `json:"id"`
	RuleName    string `json:"rule_name"`
	Trigger     string `json:"trigger"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	StartedAt   string `json:"started_at"`
	ActionCount int    `json:"action_count"`
}

// ExecutionHistoryResponse represents a persisted execution with its dispatch attempts
type ExecutionHistoryResponse struct {
	models.WorkflowExecution
	DispatchAttempts []DispatchAttemptSummary `json:"dispatch_attempts"`
}

// DispatchAttemptSummary represents a summary of a dispatch attempt
type DispatchAttemptSummary struct {
	ActionIndex  int     `json:"action_index"`
	ActionType   string  `json:"action_type"`
	AttemptNo    int     `json:"attempt_no"`
	AttemptedAt  string  `json:"attempted_at"`
	Success      bool    `json:"success"`
	StatusCode   *int    `json:"status_code,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
}

// HandleExecutionCounts handles GET /stats/executions/counts
func (h *StatsHandler) HandleExecutionCounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	counts, err := h.executionRepo.CountByStatus(ctx)
	if err != nil {
		logger.LogError(ctx, "Failed to get execution counts", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal server error")
		return
	}

	total := 0
	for _, count := range counts {
		total += count
	}

	respondJSON(ctx, w, http.StatusOK, ExecutionCountsByStatus{
		Pending:   counts[string(models.ExecutionStatusPending)],
		Executing: counts[string(models.ExecutionStatusExecuting)],
		Completed: counts[string(models.ExecutionStatusCompleted)],
		Failed:    counts[string(models.ExecutionStatusFailed)],
		Total:     total,
	})
}

// HandleRecentExecutions handles GET /stats/executions/recent?limit=N
func (h *StatsHandler) HandleRecentExecutions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, err := parseLimit(r, 50)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	executions, err := h.executionRepo.ListRecent(ctx, limit)
	if err != nil {
		logger.LogError(ctx, "Failed to get recent executions", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal server error")
		return
	}

	response := make([]ExecutionSummary, 0, len(executions))
	for _, exec := range executions {
		response = append(response, ExecutionSummary{
			ID:          exec.ID,
			RuleName:    exec.RuleName,
			Trigger:     exec.Trigger,
			Priority:    string(exec.Priority),
			Status:      string(exec.Status),
			StartedAt:   exec.StartedAt.Format(time.RFC3339),
			ActionCount: len(exec.Actions),
		})
	}

	respondJSON(ctx, w, http.StatusOK, response)
}

// HandleExecutionHistory handles GET /stats/executions/{id}
func (h *StatsHandler) HandleExecutionHistory(w http.ResponseWriter, r *http.Request) {
	executionID := mux.Vars(r)["id"]
	ctx := context.WithValue(r.Context(), logger.ExecutionIDKey, executionID)

	exec, err := h.executionRepo.GetByID(ctx, executionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "execution not found")
			return
		}
		logger.LogError(ctx, "Failed to get execution", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal server error")
		return
	}

	attempts, err := h.attemptRepo.ListByExecution(ctx, executionID)
	if err != nil {
		logger.LogError(ctx, "Failed to get dispatch attempts", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal server error")
		return
	}

	summaries := make([]DispatchAttemptSummary, 0, len(attempts))
	for _, attempt := range attempts {
		summaries = append(summaries, DispatchAttemptSummary{
			ActionIndex:  attempt.ActionIndex,
			ActionType:   attempt.ActionType,
			AttemptNo:    attempt.AttemptNo,
			AttemptedAt:  attempt.RequestedAt.Format(time.RFC3339),
			Success:      attempt.Success,
			StatusCode:   attempt.ResponseStatus,
			ErrorMessage: attempt.ErrorMessage,
		})
	}

	respondJSON(ctx, w, http.StatusOK, ExecutionHistoryResponse{
		WorkflowExecution: *exec,
		DispatchAttempts:  summaries,
	})
}
