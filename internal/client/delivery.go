package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/checkfox/lead_engage/internal/models"
)

// maxBodyBytes caps how much of a provider response is kept for the dispatch log
const maxBodyBytes = 64 << 10

// DeliveryClient hands scheduled actions (SMS, email, tasks, events) to the delivery provider
type DeliveryClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewDeliveryClient creates a new delivery provider client
func NewDeliveryClient(baseURL, token string, timeout time.Duration) *DeliveryClient {
	return &DeliveryClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// DispatchResponse represents the provider's answer to one dispatch
type DispatchResponse struct {
	StatusCode   int
	Body         string
	Success      bool
	ErrorMessage string
}

// dispatchRequest is the wire body sent to the provider
type dispatchRequest struct {
	ExecutionID string                 `json:"execution_id"`
	RuleName    string                 `json:"rule_name,omitempty"`
	ActionIndex int                    `json:"action_index"`
	ActionType  string                 `json:"action_type"`
	ExecuteAt   time.Time              `json:"execute_at"`
	Payload     map[string]interface{} `json:"payload"`
}

// Dispatch POSTs one scheduled action to the provider.
// On failure the error is a *models.DeliveryError with Retriable set.
func (c *DeliveryClient) Dispatch(ctx context.Context, action models.ScheduledAction) (*DispatchResponse, error) {
	body, err := json.Marshal(dispatchRequest{
		ExecutionID: action.ExecutionID,
		RuleName:    action.RuleName,
		ActionIndex: action.ActionIndex,
		ActionType:  action.ActionType,
		ExecuteAt:   action.ExecuteAt.UTC(),
		Payload:     action.Payload,
	})
	if err != nil {
		return nil, models.NewDeliveryError(0, "failed to marshal action", false, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, models.NewDeliveryError(0, "failed to create request", false, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	// lets the provider drop duplicates when a retry follows a lost response
	req.Header.Set("Idempotency-Key", action.Key())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, models.NewDeliveryError(0, "network error", true, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, models.NewDeliveryError(resp.StatusCode, "failed to read response body", true, err)
	}
	bodyString := string(bodyBytes)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &DispatchResponse{
			StatusCode: resp.StatusCode,
			Body:       bodyString,
			Success:    true,
		}, nil
	}

	errorMessage := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, bodyString)
	return &DispatchResponse{
		StatusCode:   resp.StatusCode,
		Body:         bodyString,
		Success:      false,
		ErrorMessage: errorMessage,
	}, models.NewDeliveryError(resp.StatusCode, errorMessage, isRetriableStatusCode(resp.StatusCode), nil)
}

// isRetriableStatusCode reports whether a provider status warrants another attempt:
// 5xx and 429 are retried, everything else is final
func isRetriableStatusCode(statusCode int) bool {
	if statusCode >= 500 && statusCode < 600 {
		return true
	}
	return statusCode == http.StatusTooManyRequests
}
