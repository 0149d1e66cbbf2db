package handlers

import (
	"context"
	"net/http"

	"github.com/checkfox/lead_engage/internal/config"
	"github.com/gorilla/mux"
)

// HealthChecker reports whether a dependency is reachable
type HealthChecker func(ctx context.Context) error

// RouterConfig holds the handlers mounted by NewRouter.
// Stats and Health are optional.
type RouterConfig struct {
	Config     *config.Config
	Engagement *EngagementHandler
	Automation *AutomationHandler
	Stats      *StatsHandler
	Health     HealthChecker
}

// NewRouter builds the API routes. Mutating routes require the shared secret
// when auth is enabled; every route gets a correlation ID and panic recovery.
func NewRouter(rc RouterConfig) *mux.Router {
	auth := NewAuthMiddleware(rc.Config)
	recovery := NewRecoveryMiddleware()

	r := mux.NewRouter()
	r.Use(CorrelationMiddleware, recovery.Recover)

	r.HandleFunc("/conversations/{id}/messages", auth.Authenticate(rc.Engagement.HandleMessage)).Methods(http.MethodPost)
	r.HandleFunc("/conversations/{id}", rc.Engagement.HandleGetConversation).Methods(http.MethodGet)
	r.HandleFunc("/leads/score", auth.Authenticate(rc.Engagement.HandleScoreLead)).Methods(http.MethodPost)
	r.HandleFunc("/vehicles/demand", auth.Authenticate(rc.Engagement.HandlePredictDemand)).Methods(http.MethodPost)

	r.HandleFunc("/automation/triggers/{name}", auth.Authenticate(rc.Automation.HandleTrigger)).Methods(http.MethodPost)
	r.HandleFunc("/automation/rules", rc.Automation.HandleListRules).Methods(http.MethodGet)
	r.HandleFunc("/automation/rules", auth.Authenticate(rc.Automation.HandleCreateRule)).Methods(http.MethodPost)
	r.HandleFunc("/automation/analytics", rc.Automation.HandleAnalytics).Methods(http.MethodGet)
	r.HandleFunc("/automation/executions", rc.Automation.HandleRecentExecutions).Methods(http.MethodGet)

	if rc.Stats != nil {
		r.HandleFunc("/stats/executions/counts", rc.Stats.HandleExecutionCounts).Methods(http.MethodGet)
		r.HandleFunc("/stats/executions/recent", rc.Stats.HandleRecentExecutions).Methods(http.MethodGet)
		r.HandleFunc("/stats/executions/{id}", rc.Stats.HandleExecutionHistory).Methods(http.MethodGet)
	}

	r.HandleFunc("/health", handleHealth(rc.Health)).Methods(http.MethodGet)

	return r
}

func handleHealth(check HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				respondError(r.Context(), w, http.StatusServiceUnavailable, "unhealthy")
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
}
