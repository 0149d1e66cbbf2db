package automation

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/checkfox/lead_engage/internal/models"
)

// Trigger names used by the built-in catalog
const (
	TriggerNewLead              = "new_lead"
	TriggerCallCompleted        = "call_completed"
	TriggerCallMissed           = "call_missed"
	TriggerPriceDrop            = "price_drop"
	TriggerLeadStale            = "lead_stale"
	TriggerAppointmentScheduled = "appointment_scheduled"
)

const (
	minute = 60
	hour   = 60 * minute
	day    = 24 * hour
)

// DefaultRules returns a fresh copy of the built-in rule catalog
func DefaultRules() []models.AutomationRule {
	return []models.AutomationRule{
		{
			Name:        "high_value_lead_response",
			Trigger:     TriggerNewLead,
			Description: "Immediate personal follow-up for high scoring leads",
			Conditions: []models.Condition{
				{Field: "score", Operator: models.OpGreaterOrEqual, Value: 80},
			},
			Actions: []models.Action{
				{Type: ActionNotifySalesTeam, Params: map[string]interface{}{"message": "High-value lead {name} scored {score}. Call within 5 minutes.", "channel": "urgent"}},
				{Type: ActionAssignLead, Params: map[string]interface{}{"assignee": "senior_sales"}},
				{Type: ActionSendSMS, Params: map[string]interface{}{"message": "Hi {name}! A specialist will call you in the next few minutes about {vehicle}."}},
				{Type: ActionCreateTask, Params: map[string]interface{}{"title": "Call {name} now", "due_in_hours": 0.25}},
			},
			Priority: models.PriorityHigh,
		},
		{
			Name:        "new_lead_nurture",
			Trigger:     TriggerNewLead,
			Description: "Welcome sequence for standard leads",
			Conditions: []models.Condition{
				{Field: "score", Operator: models.OpLess, Value: 80},
			},
			Actions: []models.Action{
				{Type: ActionSendEmail, Params: map[string]interface{}{"subject": "Thanks for your interest in {vehicle}", "message": "Hi {name}, thanks for reaching out. Here is everything you need to know about {vehicle}."}},
				{Type: ActionSendSMS, Delay: hour, Params: map[string]interface{}{"message": "Hi {name}, any questions about {vehicle}? Just reply to this message."}},
				{Type: ActionCreateTask, Delay: day, Params: map[string]interface{}{"title": "Check in with {name}", "due_in_hours": 4}},
			},
			Priority: models.PriorityMedium,
		},
		{
			Name:        "post_call_follow_up",
			Trigger:     TriggerCallCompleted,
			Description: "Thank-you message and next step after a real conversation",
			Conditions: []models.Condition{
				{Field: "call_duration", Operator: models.OpGreaterOrEqual, Value: 60},
			},
			Actions: []models.Action{
				{Type: ActionSendSMS, Delay: 30 * minute, Params: map[string]interface{}{"message": "Thanks for the call, {name}! Let me know if you have more questions about {vehicle}."}},
				{Type: ActionCreateTask, Params: map[string]interface{}{"title": "Log call notes for {name}", "due_in_hours": 1}},
			},
			Priority: models.PriorityMedium,
		},
		{
			Name:        "missed_call_recovery",
			Trigger:     TriggerCallMissed,
			Description: "Text back and schedule a callback when a call is missed",
			Actions: []models.Action{
				{Type: ActionSendSMS, Params: map[string]interface{}{"message": "Sorry we missed your call, {name}! We'll call you right back."}},
				{Type: ActionCreateTask, Params: map[string]interface{}{"title": "Return missed call from {name}", "due_in_hours": 0.5}},
			},
			Priority: models.PriorityHigh,
		},
		{
			Name:        "inventory_price_drop_alert",
			Trigger:     TriggerPriceDrop,
			Description: "Tell interested leads when a vehicle price drops",
			Conditions: []models.Condition{
				{Field: "price_drop_percent", Operator: models.OpGreaterOrEqual, Value: 5},
			},
			Actions: []models.Action{
				{Type: ActionSendEmail, Params: map[string]interface{}{"subject": "Price drop on {vehicle}", "message": "Good news {name}! The price on {vehicle} just dropped."}},
				{Type: ActionSendSMS, Params: map[string]interface{}{"message": "{name}, {vehicle} just dropped in price. Want to take a look?"}},
			},
			Priority: models.PriorityMedium,
		},
		{
			Name:        "stale_lead_reengagement",
			Trigger:     TriggerLeadStale,
			Description: "Win back leads that have gone quiet",
			Conditions: []models.Condition{
				{Field: "days_since_contact", Operator: models.OpGreaterOrEqual, Value: 7},
			},
			Actions: []models.Action{
				{Type: ActionSendEmail, Params: map[string]interface{}{"subject": "Still looking for {vehicle}?", "message": "Hi {name}, we have new offers you might like."}},
				{Type: ActionUpdateLeadStatus, Params: map[string]interface{}{"status": "re_engaging"}},
			},
			Priority: models.PriorityLow,
		},
		{
			Name:        "appointment_reminder",
			Trigger:     TriggerAppointmentScheduled,
			Description: "Confirm the appointment and remind the day before",
			Actions: []models.Action{
				{Type: ActionSendSMS, Params: map[string]interface{}{"message": "You're confirmed, {name}! We look forward to seeing you."}},
				{Type: ActionCreateEvent, Params: map[string]interface{}{"title": "Showroom visit: {name}", "offset_hours": 24}},
				{Type: ActionSendSMS, Delay: day, Params: map[string]interface{}{"message": "Reminder {name}: your appointment is tomorrow."}},
			},
			Priority: models.PriorityMedium,
		},
	}
}

// LoadRulesFile reads a JSON array of rules. Loaded rules are marked custom.
func LoadRulesFile(path string) ([]models.AutomationRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var rules []models.AutomationRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to decode rules file %s: %w", path, err)
	}
	for i := range rules {
		rules[i].Custom = true
	}
	return rules, nil
}
