package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/checkfox/lead_engage/internal/models"
)

// FeatureCount is the length of the vector produced by Features
const FeatureCount = 7

var luxuryBrands = []string{"bmw", "mercedes", "audi", "lexus", "porsche", "cadillac", "tesla", "land rover", "jaguar", "genesis", "infiniti", "acura", "volvo", "maserati"}

// Model is a trained conversion-probability backend
type Model interface {
	Fitted() bool
	PredictProba(features []float64) (float64, error)
}

// TrainedScorer uses a Model for the conversion probability and delegates
// to the heuristic whenever the model cannot produce a usable number.
type TrainedScorer struct {
	model     Model
	heuristic *HeuristicScorer
}

// NewTrainedScorer creates a TrainedScorer; a nil heuristic uses the wall clock
func NewTrainedScorer(model Model, heuristic *HeuristicScorer) *TrainedScorer {
	if heuristic == nil {
		heuristic = NewHeuristicScorer(nil)
	}
	return &TrainedScorer{model: model, heuristic: heuristic}
}

// Name returns the strategy name
func (t *TrainedScorer) Name() string {
	return StrategyTrained
}

// Score returns the trained score, or the heuristic one on model failure
func (t *TrainedScorer) Score(lead models.LeadSnapshot) int {
	return t.Evaluate(lead).Score
}

// Evaluate scores the lead. Strategy is "heuristic" when the model was bypassed.
func (t *TrainedScorer) Evaluate(lead models.LeadSnapshot) models.ScoreResult {
	probability, err := t.predict(Features(lead, t.heuristic.now()))
	if err != nil {
		return t.heuristic.Evaluate(lead)
	}
	return models.ScoreResult{
		LeadID:                lead.ID,
		Score:                 t.heuristic.scoreWith(lead, probability),
		Strategy:              StrategyTrained,
		ConversionProbability: probability,
	}
}

func (t *TrainedScorer) predict(features []float64) (probability float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = models.NewModelError("predict", "model panicked", nil)
		}
	}()

	if t.model == nil || !t.model.Fitted() {
		return 0, models.NewModelError("predict", "model unavailable", models.ErrModelNotFitted)
	}

	probability, err = t.model.PredictProba(features)
	if err != nil {
		return 0, models.NewModelError("predict", "prediction failed", err)
	}
	if math.IsNaN(probability) || probability < 0 || probability > 1 {
		return 0, models.NewModelError("predict", "probability out of range", nil)
	}
	return probability, nil
}

// Features builds the fixed-order model input for a lead
func Features(lead models.LeadSnapshot, now time.Time) []float64 {
	budget, _ := parseBudget(lead.Budget)

	age := 1.0
	if hours, ok := lead.HoursSinceCreation(now); ok {
		age = math.Min(hours/168, 1)
	}

	response := 1 / (1 + math.Max(lead.ResponseTimeMinutes, 0)/60)

	luxury := 0.0
	if containsAny(strings.ToLower(lead.VehicleInterest), luxuryBrands) {
		luxury = 1
	}

	return []float64{
		channelOrdinal(lead.Source),
		math.Min(budget/100000, 1),
		age,
		math.Min(float64(max(lead.ContactAttempts, 0))/10, 1),
		response,
		interestOrdinal(lead.InterestLevel),
		luxury,
	}
}

func channelOrdinal(source string) float64 {
	s := strings.ToLower(source)
	switch {
	case containsAny(s, phoneChannels):
		return 1
	case containsAny(s, webChannels):
		return 0.66
	case containsAny(s, socialChannels):
		return 0.33
	default:
		return 0
	}
}

func interestOrdinal(level string) float64 {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "hot", "high":
		return 1
	case "warm", "medium":
		return 0.66
	case "cold", "low":
		return 0.33
	default:
		return 0
	}
}
