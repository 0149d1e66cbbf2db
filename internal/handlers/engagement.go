package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/checkfox/lead_engage/internal/engagement"
	"github.com/checkfox/lead_engage/internal/logger"
	"github.com/checkfox/lead_engage/internal/models"
	"github.com/gorilla/mux"
)

// EngagementHandler serves conversation replies, lead scores and demand predictions
type EngagementHandler struct {
	core            *engagement.Core
	defaultLanguage string
}

// NewEngagementHandler creates a new EngagementHandler
func NewEngagementHandler(core *engagement.Core, defaultLanguage string) *EngagementHandler {
	if defaultLanguage == "" {
		defaultLanguage = "en"
	}
	return &EngagementHandler{
		core:            core,
		defaultLanguage: defaultLanguage,
	}
}

// MessageRequest is the body of POST /conversations/{id}/messages
type MessageRequest struct {
	Message string               `json:"message"`
	Sender  models.SenderContext `json:"sender"`
}

// HandleMessage handles POST /conversations/{id}/messages
func (h *EngagementHandler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	conversationID := mux.Vars(r)["id"]
	ctx := context.WithValue(r.Context(), logger.ConversationIDKey, conversationID)

	var req MessageRequest
	if err := decodeJSON(r, &req, false); err != nil {
		logger.LogError(ctx, "Malformed message payload", err)
		respondError(ctx, w, http.StatusBadRequest, "malformed JSON payload")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(ctx, w, http.StatusBadRequest, "message is required")
		return
	}
	if req.Sender.Language == "" {
		req.Sender.Language = h.defaultLanguage
	}

	var previous models.ConversationStage
	if state, ok := h.core.Conversation(conversationID); ok {
		previous = state.Stage
	} else {
		previous = models.StageInitial
	}

	response := h.core.HandleMessage(ctx, conversationID, req.Message, req.Sender)
	if response.Stage != "" && response.Stage != previous {
		logger.LogStageTransition(ctx, conversationID, string(previous), string(response.Stage))
	}

	logger.Info(ctx, "Composed reply",
		"intent", response.Intent,
		"urgency", string(response.Urgency),
		"escalate", response.ShouldEscalate)
	logger.LogSlowOperation(ctx, "handle_message", time.Since(startTime))

	respondJSON(ctx, w, http.StatusOK, response)
}

// HandleGetConversation handles GET /conversations/{id}
func (h *EngagementHandler) HandleGetConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["id"]
	ctx := context.WithValue(r.Context(), logger.ConversationIDKey, conversationID)

	state, ok := h.core.Conversation(conversationID)
	if !ok {
		respondError(ctx, w, http.StatusNotFound, "conversation not found")
		return
	}
	respondJSON(ctx, w, http.StatusOK, state)
}

// HandleScoreLead handles POST /leads/score
func (h *EngagementHandler) HandleScoreLead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var lead models.LeadSnapshot
	if err := decodeJSON(r, &lead, false); err != nil {
		logger.LogError(ctx, "Malformed lead payload", err)
		respondError(ctx, w, http.StatusBadRequest, "malformed JSON payload")
		return
	}

	result := h.core.ScoreLead(lead)
	logger.Info(ctx, "Scored lead", "lead_id", result.LeadID, "score", result.Score, "strategy", result.Strategy)

	respondJSON(ctx, w, http.StatusOK, result)
}

// HandlePredictDemand handles POST /vehicles/demand
func (h *EngagementHandler) HandlePredictDemand(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var attrs models.VehicleAttributes
	if err := decodeJSON(r, &attrs, false); err != nil {
		logger.LogError(ctx, "Malformed vehicle payload", err)
		respondError(ctx, w, http.StatusBadRequest, "malformed JSON payload")
		return
	}

	respondJSON(ctx, w, http.StatusOK, h.core.PredictDemand(attrs))
}
