package handlers

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/checkfox/lead_engage/internal/config"
	"github.com/checkfox/lead_engage/internal/logger"
	"github.com/google/uuid"
)

// AuthMiddleware guards mutating endpoints with the shared secret header
type AuthMiddleware struct {
	config *config.Config
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(cfg *config.Config) *AuthMiddleware {
	return &AuthMiddleware{
		config: cfg,
	}
}

// Authenticate validates the X-Shared-Secret header if authentication is enabled
func (m *AuthMiddleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.config.Auth.Enabled {
			next(w, r)
			return
		}

		ctx := r.Context()
		providedSecret := r.Header.Get("X-Shared-Secret")

		if providedSecret == "" {
			logger.Warn(ctx, "Authentication failed: missing X-Shared-Secret header", "path", r.URL.Path)
			respondError(ctx, w, http.StatusUnauthorized, "missing authentication header")
			return
		}

		if subtle.ConstantTimeCompare([]byte(providedSecret), []byte(m.config.Auth.SharedSecret)) != 1 {
			logger.Warn(ctx, "Authentication failed: invalid shared secret", "path", r.URL.Path)
			respondError(ctx, w, http.StatusUnauthorized, "invalid authentication credentials")
			return
		}

		next(w, r)
	}
}

// CorrelationMiddleware attaches a correlation ID to the request context and response.
// A caller-supplied X-Correlation-ID is reused.
func CorrelationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Correlation-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Correlation-ID", id)

		ctx := context.WithValue(r.Context(), logger.CorrelationIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RecoveryMiddleware recovers from panics and returns 500 Internal Server Error
type RecoveryMiddleware struct{}

// NewRecoveryMiddleware creates a new RecoveryMiddleware
func NewRecoveryMiddleware() *RecoveryMiddleware {
	return &RecoveryMiddleware{}
}

// Recover wraps a handler with panic recovery
func (m *RecoveryMiddleware) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				ctx := r.Context()
				logger.LogError(ctx, "Panic recovered", fmt.Errorf("%v", rec), "path", r.URL.Path)
				respondError(ctx, w, http.StatusInternalServerError, "internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
