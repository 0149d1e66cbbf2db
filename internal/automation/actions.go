package automation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/checkfox/lead_engage/internal/models"
)

// Built-in action types
const (
	ActionSendSMS          = "send_sms"
	ActionSendEmail        = "send_email"
	ActionNotifySalesTeam  = "notify_sales_team"
	ActionCreateTask       = "create_task"
	ActionCreateEvent      = "create_event"
	ActionUpdateLeadStatus = "update_lead_status"
	ActionAssignLead       = "assign_lead"
)

// ActionRequest is everything an action executor sees for one action
type ActionRequest struct {
	ExecutionID string
	RuleName    string
	Action      models.Action
	Payload     map[string]interface{}
	StartedAt   time.Time
	ExecuteAt   time.Time
}

// ActionFunc prepares one action and returns its type-specific output.
// Executors must not perform I/O; delivery happens downstream.
type ActionFunc func(ctx context.Context, req ActionRequest) (map[string]interface{}, error)

func builtinActions() map[string]ActionFunc {
	return map[string]ActionFunc{
		ActionSendSMS:          sendSMS,
		ActionSendEmail:        sendEmail,
		ActionNotifySalesTeam:  notifySalesTeam,
		ActionCreateTask:       createTask,
		ActionCreateEvent:      createEvent,
		ActionUpdateLeadStatus: updateLeadStatus,
		ActionAssignLead:       assignLead,
	}
}

func sendSMS(_ context.Context, req ActionRequest) (map[string]interface{}, error) {
	to := firstString(req.Action.Params["to"], req.Payload["phone"])
	if to == "" {
		return nil, fmt.Errorf("no phone number for sms")
	}
	return map[string]interface{}{
		"channel":   "sms",
		"recipient": to,
		"message":   renderMessage(paramString(req.Action.Params, "message", "Hi {name}, thanks for your interest! Reply here with any questions."), req.Payload),
	}, nil
}

func sendEmail(_ context.Context, req ActionRequest) (map[string]interface{}, error) {
	to := firstString(req.Action.Params["to"], req.Payload["email"])
	if to == "" {
		return nil, fmt.Errorf("no email address")
	}
	return map[string]interface{}{
		"channel":   "email",
		"recipient": to,
		"subject":   renderMessage(paramString(req.Action.Params, "subject", "Following up on {vehicle}"), req.Payload),
		"message":   renderMessage(paramString(req.Action.Params, "message", "Hi {name}, thank you for contacting us."), req.Payload),
	}, nil
}

func notifySalesTeam(_ context.Context, req ActionRequest) (map[string]interface{}, error) {
	return map[string]interface{}{
		"channel":      paramString(req.Action.Params, "channel", "sales"),
		"notification": renderMessage(paramString(req.Action.Params, "message", "Lead {name} needs attention"), req.Payload),
	}, nil
}

func createTask(_ context.Context, req ActionRequest) (map[string]interface{}, error) {
	dueIn := paramFloat(req.Action.Params, "due_in_hours", 0)
	due := req.ExecuteAt.Add(time.Duration(dueIn * float64(time.Hour)))
	return map[string]interface{}{
		"title":  renderMessage(paramString(req.Action.Params, "title", "Follow up with {name}"), req.Payload),
		"due_at": due.UTC().Format(time.RFC3339),
	}, nil
}

func createEvent(_ context.Context, req ActionRequest) (map[string]interface{}, error) {
	offset := paramFloat(req.Action.Params, "offset_hours", 0)
	eventTime := req.ExecuteAt.Add(time.Duration(offset * float64(time.Hour)))
	return map[string]interface{}{
		"title":      renderMessage(paramString(req.Action.Params, "title", "Appointment with {name}"), req.Payload),
		"event_time": eventTime.UTC().Format(time.RFC3339),
	}, nil
}

func updateLeadStatus(_ context.Context, req ActionRequest) (map[string]interface{}, error) {
	status := paramString(req.Action.Params, "status", "")
	if status == "" {
		return nil, fmt.Errorf("status parameter is required")
	}
	return map[string]interface{}{
		"lead_id": firstString(req.Payload["lead_id"]),
		"status":  status,
	}, nil
}

func assignLead(_ context.Context, req ActionRequest) (map[string]interface{}, error) {
	return map[string]interface{}{
		"lead_id":  firstString(req.Payload["lead_id"]),
		"assignee": firstString(req.Action.Params["assignee"], req.Payload["assignee"], "next_available"),
	}, nil
}

// passThrough echoes the action parameters for types with no built-in executor
func passThrough(_ context.Context, req ActionRequest) (map[string]interface{}, error) {
	output := make(map[string]interface{}, len(req.Action.Params)+1)
	for k, v := range req.Action.Params {
		output[k] = v
	}
	output["action"] = req.Action.Type
	return output, nil
}

// renderMessage fills {key} placeholders from the payload.
// Unresolved {name} and {vehicle} fall back to generic wording.
func renderMessage(template string, payload map[string]interface{}) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys)+4)
	for _, k := range keys {
		v := payload[k]
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	pairs = append(pairs, "{name}", "there", "{vehicle}", "your vehicle")

	return strings.NewReplacer(pairs...).Replace(template)
}

func paramString(params map[string]interface{}, key, fallback string) string {
	if s, ok := params[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func paramFloat(params map[string]interface{}, key string, fallback float64) float64 {
	if f, ok := toFloat(params[key]); ok {
		return f
	}
	return fallback
}

func firstString(values ...interface{}) string {
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}
