package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/checkfox/lead_engage/internal/config"
	"github.com/checkfox/lead_engage/internal/logger"
)

func authConfig(enabled bool, secret string) *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			Enabled:      enabled,
			SharedSecret: secret,
		},
	}
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name         string
		enabled      bool
		header       string
		expectStatus int
		expectCalled bool
		expectError  string
	}{
		{"disabled skips check", false, "", http.StatusOK, true, ""},
		{"valid secret", true, "test-secret-123", http.StatusOK, true, ""},
		{"missing header", true, "", http.StatusUnauthorized, false, "missing authentication header"},
		{"wrong secret", true, "wrong", http.StatusUnauthorized, false, "invalid authentication credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			middleware := NewAuthMiddleware(authConfig(tt.enabled, "test-secret-123"))

			called := false
			handler := middleware.Authenticate(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/automation/rules", nil)
			if tt.header != "" {
				req.Header.Set("X-Shared-Secret", tt.header)
			}
			rr := httptest.NewRecorder()
			handler(rr, req)

			if called != tt.expectCalled {
				t.Errorf("Expected handler called=%v, got %v", tt.expectCalled, called)
			}
			if rr.Code != tt.expectStatus {
				t.Errorf("Expected status %d, got %d", tt.expectStatus, rr.Code)
			}
			if tt.expectError != "" {
				var resp ErrorResponse
				if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
					t.Fatalf("Failed to decode error response: %v", err)
				}
				if resp.Error != tt.expectError {
					t.Errorf("Expected error %q, got %q", tt.expectError, resp.Error)
				}
			}
		})
	}
}

func TestAuthMiddleware_ThroughRouter(t *testing.T) {
	ts := newTestServer(t, authConfig(true, "s3cret"))

	rr := ts.do(t, http.MethodPost, "/leads/score", map[string]string{"id": "x"}, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without secret, got %d", rr.Code)
	}

	rr = ts.do(t, http.MethodPost, "/leads/score", map[string]string{"id": "x"}, map[string]string{"X-Shared-Secret": "s3cret"})
	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200 with secret, got %d", rr.Code)
	}

	rr = ts.do(t, http.MethodGet, "/automation/rules", nil, nil)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected read-only routes to skip auth, got %d", rr.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := CorrelationMiddleware(NewRecoveryMiddleware().Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	req := httptest.NewRequest(http.MethodGet, "/explode", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rr.Code)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Error != "internal server error" {
		t.Errorf("Expected 'internal server error', got %q", resp.Error)
	}
	if resp.CorrelationID == "" {
		t.Error("Expected correlation ID in error response")
	}
	if rr.Header().Get("X-Correlation-ID") != resp.CorrelationID {
		t.Errorf("Expected header and body correlation IDs to match")
	}
}

func TestCorrelationMiddleware_SetsContext(t *testing.T) {
	var seen string
	handler := CorrelationMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(logger.CorrelationIDKey).(string)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "abc")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "abc" {
		t.Errorf("Expected correlation ID 'abc' in context, got %q", seen)
	}
}
