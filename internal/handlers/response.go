package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/checkfox/lead_engage/internal/logger"
)

// maxRequestBytes caps JSON request bodies
const maxRequestBytes = 1 << 20

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func correlationID(ctx context.Context) string {
	id, _ := ctx.Value(logger.CorrelationIDKey).(string)
	return id
}

// respondJSON sends a JSON response
func respondJSON(ctx context.Context, w http.ResponseWriter, statusCode int, data interface{}) {
	if id := correlationID(ctx); id != "" {
		w.Header().Set("X-Correlation-ID", id)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.LogError(ctx, "Failed to encode response", err)
	}
}

// respondError sends an error response
func respondError(ctx context.Context, w http.ResponseWriter, statusCode int, message string) {
	respondJSON(ctx, w, statusCode, ErrorResponse{
		Error:         message,
		CorrelationID: correlationID(ctx),
	})
}

// decodeJSON reads a JSON body into dst. An empty body is an error unless allowEmpty is set.
func decodeJSON(r *http.Request, dst interface{}, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return err
	}
	return nil
}
