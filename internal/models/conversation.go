package models

import (
	"sort"
	"time"
)

// DefaultIntent is the primary intent reported when no keyword matches
const DefaultIntent = "general_inquiry"

// Urgency is the urgency tier detected in a message
type Urgency string

const (
	UrgencyNormal Urgency = "normal"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Sentiment is the coarse sentiment label of a message
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// IntentAnalysis is the result of classifying one inbound message
type IntentAnalysis struct {
	Intents       []string  `json:"intents"`
	PrimaryIntent string    `json:"primary_intent"`
	Vehicles      []string  `json:"vehicles"`
	Urgency       Urgency   `json:"urgency"`
	Sentiment     Sentiment `json:"sentiment"`
	Confidence    float64   `json:"confidence"`
}

// DefaultIntentAnalysis returns the safe result used when classification fails
func DefaultIntentAnalysis() IntentAnalysis {
	return IntentAnalysis{
		Intents:       []string{},
		PrimaryIntent: DefaultIntent,
		Vehicles:      []string{},
		Urgency:       UrgencyNormal,
		Sentiment:     SentimentNeutral,
		Confidence:    0.5,
	}
}

// ConversationStage is the lifecycle stage of a conversation
type ConversationStage string

const (
	// StageInitial is the stage of a conversation that has not been answered yet
	StageInitial ConversationStage = "initial"

	// StageEngaged indicates at least one reply has been sent
	StageEngaged ConversationStage = "engaged"

	// StageFollowUp indicates the lead came back after the conversation went idle
	StageFollowUp ConversationStage = "follow_up"

	// StageQualified indicates the lead asked for a test drive or appointment
	StageQualified ConversationStage = "qualified"
)

// ConversationState is the per-conversation record used to vary replies
type ConversationState struct {
	ConversationID  string              `json:"conversation_id"`
	MessageCount    int                 `json:"message_count"`
	LastResponseAt  time.Time           `json:"last_response_at"`
	VehicleMentions map[string]struct{} `json:"-"`
	LastVehicle     string              `json:"last_vehicle,omitempty"`
	Stage           ConversationStage   `json:"stage"`
}

// NewConversationState creates an empty state for a conversation
func NewConversationState(conversationID string) *ConversationState {
	return &ConversationState{
		ConversationID:  conversationID,
		VehicleMentions: make(map[string]struct{}),
		Stage:           StageInitial,
	}
}

// AddVehicles merges mentions into the set. The set never shrinks.
func (s *ConversationState) AddVehicles(vehicles []string) {
	if s.VehicleMentions == nil {
		s.VehicleMentions = make(map[string]struct{})
	}
	for _, v := range vehicles {
		if v == "" {
			continue
		}
		s.VehicleMentions[v] = struct{}{}
		s.LastVehicle = v
	}
}

// Vehicles returns the distinct mentions in sorted order
func (s *ConversationState) Vehicles() []string {
	out := make([]string, 0, len(s.VehicleMentions))
	for v := range s.VehicleMentions {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy safe to hand out of the tracker
func (s *ConversationState) Clone() *ConversationState {
	out := *s
	out.VehicleMentions = make(map[string]struct{}, len(s.VehicleMentions))
	for v := range s.VehicleMentions {
		out.VehicleMentions[v] = struct{}{}
	}
	return &out
}

// EngagementResponse is what the composer hands back for an inbound message
type EngagementResponse struct {
	ConversationID string            `json:"conversation_id"`
	ReplyText      string            `json:"reply_text"`
	Confidence     float64           `json:"confidence"`
	Intent         string            `json:"intent"`
	Urgency        Urgency           `json:"urgency"`
	NextActions    []string          `json:"next_actions"`
	ShouldEscalate bool              `json:"should_escalate"`
	ETALabel       string            `json:"eta_label"`
	Category       string            `json:"category,omitempty"`
	TemplateIndex  int               `json:"template_index"`
	Stage          ConversationStage `json:"stage,omitempty"`
}
