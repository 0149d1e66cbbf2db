package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/checkfox/lead_engage/internal/models"
)

const (
	priorityMarker   = "[PRIORITY] "
	priorityPromise  = " Your request has been prioritized and a team member will reach out within 15 minutes."
	sameDayPromise   = " We'll follow up with you later today."
	fallbackReply    = "I apologize for the inconvenience. A member of our team will call you back shortly."
	genericVehicle   = "the vehicle you're interested in"
	genericFirstName = "there"

	// DefaultFollowUpAfter is how long a conversation may sit idle before a new message counts as a return visit
	DefaultFollowUpAfter = 24 * time.Hour
)

// nextActionsByIntent is the fixed hint list returned with each reply
var nextActionsByIntent = map[string][]string{
	"pricing_inquiry":    {"schedule_call", "send_pricing_sheet"},
	"vehicle_inquiry":    {"send_vehicle_details", "schedule_test_drive"},
	"test_drive":         {"confirm_appointment", "send_directions"},
	"trade_in":           {"request_trade_photos", "schedule_appraisal"},
	"financing":          {"send_credit_application", "schedule_call"},
	"service":            {"route_to_service"},
	"hours_location":     {"send_directions"},
	models.DefaultIntent: {"follow_up_24h"},
}

// ResponderConfig holds configuration for the response composer
type ResponderConfig struct {
	Templates     *TemplateStore
	Tracker       *ConversationTracker
	FollowUpAfter time.Duration
	Now           func() time.Time
}

// Responder composes replies from an intent analysis and conversation state
type Responder struct {
	templates     *TemplateStore
	tracker       *ConversationTracker
	followUpAfter time.Duration
	now           func() time.Time
}

// NewResponder creates a new Responder, filling unset config with defaults
func NewResponder(config ResponderConfig) *Responder {
	if config.Templates == nil {
		config.Templates = NewTemplateStore()
	}
	if config.Tracker == nil {
		config.Tracker = NewConversationTracker()
	}
	if config.FollowUpAfter == 0 {
		config.FollowUpAfter = DefaultFollowUpAfter
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &Responder{
		templates:     config.Templates,
		tracker:       config.Tracker,
		followUpAfter: config.FollowUpAfter,
		now:           config.Now,
	}
}

// Tracker returns the conversation tracker backing this responder
func (r *Responder) Tracker() *ConversationTracker {
	return r.tracker
}

// Respond builds the reply for one classified message. It never fails:
// composition problems produce the canned apology response.
func (r *Responder) Respond(conversationID string, sender models.SenderContext, analysis models.IntentAnalysis) (response models.EngagementResponse) {
	defer func() {
		if rec := recover(); rec != nil {
			response = fallbackResponse(conversationID)
		}
	}()

	err := r.tracker.Update(conversationID, func(state *models.ConversationState) error {
		composed, err := r.compose(state, sender, analysis)
		if err != nil {
			return err
		}
		response = composed
		return nil
	})
	if err != nil {
		return fallbackResponse(conversationID)
	}

	return response
}

// compose runs under the conversation lock. State is only mutated once the
// reply text has been produced.
func (r *Responder) compose(state *models.ConversationState, sender models.SenderContext, analysis models.IntentAnalysis) (models.EngagementResponse, error) {
	now := r.now()

	stage := state.Stage
	if stage != models.StageInitial && !state.LastResponseAt.IsZero() && now.Sub(state.LastResponseAt) >= r.followUpAfter {
		stage = models.StageFollowUp
	}

	category := r.selectCategory(state.MessageCount, stage, analysis.PrimaryIntent)

	variants, err := r.templates.Templates(category, sender.Language)
	if err != nil && category != CategoryGreeting {
		category = CategoryGreeting
		variants, err = r.templates.Templates(category, sender.Language)
	}
	if err != nil {
		return models.EngagementResponse{}, fmt.Errorf("no templates for category %s: %w", category, err)
	}

	index := state.MessageCount % len(variants)

	vehicle := state.LastVehicle
	if n := len(analysis.Vehicles); n > 0 {
		vehicle = analysis.Vehicles[n-1]
	}

	reply := fillTemplate(variants[index], firstName(sender.Name), vehicle)
	switch analysis.Urgency {
	case models.UrgencyHigh:
		reply = priorityMarker + reply + priorityPromise
	case models.UrgencyMedium:
		reply = reply + sameDayPromise
	}

	state.AddVehicles(analysis.Vehicles)
	state.MessageCount++
	state.LastResponseAt = now
	state.Stage = nextStage(stage, analysis.PrimaryIntent)

	return models.EngagementResponse{
		ConversationID: state.ConversationID,
		ReplyText:      reply,
		Confidence:     analysis.Confidence,
		Intent:         analysis.PrimaryIntent,
		Urgency:        analysis.Urgency,
		NextActions:    nextActionsFor(analysis.PrimaryIntent),
		ShouldEscalate: analysis.Urgency == models.UrgencyHigh || analysis.Sentiment == models.SentimentNegative,
		ETALabel:       etaLabel(analysis.Urgency),
		Category:       category,
		TemplateIndex:  index,
		Stage:          state.Stage,
	}, nil
}

// selectCategory forces greeting on the first message and follow-up for returning leads
func (r *Responder) selectCategory(messageCount int, stage models.ConversationStage, intent string) string {
	if messageCount == 0 {
		return CategoryGreeting
	}
	if stage == models.StageFollowUp {
		return CategoryFollowUpInterested
	}
	if r.templates.HasCategory(intent) {
		return intent
	}
	return CategoryGreeting
}

func nextStage(current models.ConversationStage, intent string) models.ConversationStage {
	if intent == "test_drive" {
		return models.StageQualified
	}
	switch current {
	case models.StageInitial, models.StageFollowUp:
		return models.StageEngaged
	default:
		return current
	}
}

func fillTemplate(template, name, vehicle string) string {
	if vehicle == "" {
		vehicle = genericVehicle
	}
	return strings.NewReplacer("{name}", name, "{vehicle}", vehicle).Replace(template)
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return genericFirstName
	}
	return fields[0]
}

func nextActionsFor(intent string) []string {
	actions, ok := nextActionsByIntent[intent]
	if !ok {
		actions = nextActionsByIntent[models.DefaultIntent]
	}
	return append([]string(nil), actions...)
}

func etaLabel(urgency models.Urgency) string {
	switch urgency {
	case models.UrgencyHigh:
		return "within 15 minutes"
	case models.UrgencyMedium:
		return "today"
	default:
		return "within 24 hours"
	}
}

func fallbackResponse(conversationID string) models.EngagementResponse {
	return models.EngagementResponse{
		ConversationID: conversationID,
		ReplyText:      fallbackReply,
		Confidence:     0.7,
		Intent:         models.DefaultIntent,
		Urgency:        models.UrgencyNormal,
		NextActions:    []string{"manual_review"},
		ShouldEscalate: false,
		ETALabel:       etaLabel(models.UrgencyNormal),
	}
}
