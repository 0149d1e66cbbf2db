// Package engagement ties the classifier, composer, scorers and rule engine
// into one injectable instance. Nothing here performs I/O or logs.
package engagement

import (
	"context"
	"time"

	"github.com/checkfox/lead_engage/internal/automation"
	"github.com/checkfox/lead_engage/internal/models"
	"github.com/checkfox/lead_engage/internal/scoring"
	"github.com/checkfox/lead_engage/internal/services"
)

// Options configures a Core. Zero values select the built-in defaults.
type Options struct {
	Templates     *services.TemplateStore
	Classifier    *services.Classifier
	Model         scoring.Model
	Engine        *automation.Engine
	FollowUpAfter time.Duration
	Now           func() time.Time
}

// LeadEventResult is the outcome of scoring a lead and firing a trigger for it
type LeadEventResult struct {
	Score   models.ScoreResult       `json:"score"`
	Trigger automation.TriggerResult `json:"trigger"`
}

// Core is one isolated engagement instance
type Core struct {
	classifier *services.Classifier
	responder  *services.Responder
	scorer     scoring.Scorer
	demand     *scoring.DemandPredictor
	engine     *automation.Engine
}

// New creates a Core
func New(opts Options) *Core {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Classifier == nil {
		opts.Classifier = services.NewClassifier()
	}
	if opts.Engine == nil {
		opts.Engine = automation.NewEngine(automation.WithClock(opts.Now))
	}

	return &Core{
		classifier: opts.Classifier,
		responder: services.NewResponder(services.ResponderConfig{
			Templates:     opts.Templates,
			FollowUpAfter: opts.FollowUpAfter,
			Now:           opts.Now,
		}),
		scorer: scoring.NewScorerWithClock(opts.Model, opts.Now),
		demand: scoring.NewDemandPredictor(opts.Now),
		engine: opts.Engine,
	}
}

// Engine returns the rule engine
func (c *Core) Engine() *automation.Engine {
	return c.engine
}

// Scorer returns the configured lead scorer
func (c *Core) Scorer() scoring.Scorer {
	return c.scorer
}

// Conversation returns a copy of a conversation's state
func (c *Core) Conversation(conversationID string) (*models.ConversationState, bool) {
	return c.responder.Tracker().Get(conversationID)
}

// Analyze classifies a message without touching conversation state
func (c *Core) Analyze(text string, sender models.SenderContext) models.IntentAnalysis {
	return c.classifier.Classify(text, sender)
}

// HandleMessage classifies an inbound message and composes the reply
func (c *Core) HandleMessage(_ context.Context, conversationID, text string, sender models.SenderContext) models.EngagementResponse {
	analysis := c.classifier.Classify(text, sender)
	return c.responder.Respond(conversationID, sender, analysis)
}

// ScoreLead scores a lead snapshot
func (c *Core) ScoreLead(lead models.LeadSnapshot) models.ScoreResult {
	return c.scorer.Evaluate(lead)
}

// PredictDemand estimates demand for a vehicle
func (c *Core) PredictDemand(attrs models.VehicleAttributes) models.DemandPrediction {
	return c.demand.Predict(attrs)
}

// Trigger fires a trigger with a raw payload
func (c *Core) Trigger(ctx context.Context, triggerName string, payload map[string]interface{}) automation.TriggerResult {
	return c.engine.Trigger(ctx, triggerName, payload)
}

// ProcessLeadEvent scores the lead, enriches the payload with lead fields and
// fires the trigger. Caller-supplied payload keys win over lead fields.
func (c *Core) ProcessLeadEvent(ctx context.Context, triggerName string, lead models.LeadSnapshot, payload map[string]interface{}) LeadEventResult {
	score := c.ScoreLead(lead)

	event := models.JSONB(payload).Clone()
	setDefault(event, "score", score.Score)
	setDefault(event, "lead_id", lead.ID)
	setDefault(event, "name", lead.Name)
	setDefault(event, "phone", lead.Phone)
	setDefault(event, "email", lead.Email)
	setDefault(event, "source", lead.Source)
	setDefault(event, "vehicle", lead.VehicleInterest)

	return LeadEventResult{
		Score:   score,
		Trigger: c.engine.Trigger(ctx, triggerName, event),
	}
}

// setDefault adds key unless the caller already set it; empty strings are skipped
func setDefault(event models.JSONB, key string, value interface{}) {
	if _, exists := event[key]; exists {
		return
	}
	if s, ok := value.(string); ok && s == "" {
		return
	}
	event[key] = value
}
