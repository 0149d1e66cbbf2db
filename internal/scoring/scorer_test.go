package scoring

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/checkfox/lead_engage/internal/models"
	"github.com/stretchr/testify/assert"
)

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func TestHeuristicScorer_PhoneLeadWithBudget(t *testing.T) {
	scorer := NewHeuristicScorer(clock)
	lead := models.LeadSnapshot{
		ID:        "lead-1",
		Source:    "Phone Call",
		Budget:    "$40,000",
		CreatedAt: fixedNow,
	}

	result := scorer.Evaluate(lead)

	// 0.9 * 70 + 15 recency + 7 budget
	assert.Equal(t, 85, result.Score)
	assert.GreaterOrEqual(t, result.Score, 70)
	assert.Equal(t, StrategyHeuristic, result.Strategy)
	assert.Equal(t, "lead-1", result.LeadID)
	assert.InDelta(t, 0.9, result.ConversionProbability, 1e-9)
}

func TestHeuristicScorer_BareLead(t *testing.T) {
	scorer := NewHeuristicScorer(clock)

	assert.Equal(t, 35, scorer.Score(models.LeadSnapshot{}))
}

func TestHeuristicScorer_CappedAtMaximum(t *testing.T) {
	scorer := NewHeuristicScorer(clock)
	contacted := fixedNow.Add(-time.Hour)
	lead := models.LeadSnapshot{
		Source:          "phone",
		Budget:          "55k",
		CreatedAt:       fixedNow.Add(-30 * time.Minute),
		LastContactAt:   &contacted,
		VehicleInterest: "2024 Toyota Highlander Hybrid",
		Notes:           "Ready to buy this weekend",
	}

	result := scorer.Evaluate(lead)
	assert.Equal(t, 100, result.Score)
	assert.InDelta(t, 1.0, result.ConversionProbability, 1e-9)
}

func TestHeuristicScorer_RecencyBands(t *testing.T) {
	tests := []struct {
		name     string
		age      time.Duration
		expected int
	}{
		{"under 2 hours", time.Hour, 35 + 7 + 15},
		{"under a day", 10 * time.Hour, 35 + 7 + 10},
		{"under 3 days", 48 * time.Hour, 35 + 5},
		{"older", 10 * 24 * time.Hour, 35},
	}

	scorer := NewHeuristicScorer(clock)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := models.LeadSnapshot{CreatedAt: fixedNow.Add(-tt.age)}
			assert.Equal(t, tt.expected, scorer.Score(lead))
		})
	}
}

func TestHeuristicScorer_Channels(t *testing.T) {
	tests := []struct {
		source   string
		expected int
	}{
		{"Phone Call", 49},
		{"Website Form", 42},
		{"Facebook Ad", 39},
		{"Walk-in", 35},
	}

	scorer := NewHeuristicScorer(clock)
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.expected, scorer.Score(models.LeadSnapshot{Source: tt.source}))
		})
	}
}

func TestParseBudget(t *testing.T) {
	tests := []struct {
		raw      string
		expected float64
		ok       bool
	}{
		{"$40,000", 40000, true},
		{"40000", 40000, true},
		{"40k", 40000, true},
		{"$ 25,500.50", 25500.5, true},
		{"", 0, false},
		{"flexible", 0, false},
		{"$0", 0, false},
		{"30-40k", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			v, ok := parseBudget(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.expected, v, 1e-9)
		})
	}
}

func TestNewScorer_SelectsStrategy(t *testing.T) {
	assert.Equal(t, StrategyHeuristic, NewScorer(nil).Name())
	assert.Equal(t, StrategyTrained, NewScorer(&LogisticModel{Weights: make([]float64, FeatureCount)}).Name())
}

// stubModel is a Model with canned behavior
type stubModel struct {
	fitted      bool
	probability float64
	err         error
	panics      bool
	features    []float64
}

func (m *stubModel) Fitted() bool { return m.fitted }

func (m *stubModel) PredictProba(features []float64) (float64, error) {
	if m.panics {
		panic("model exploded")
	}
	m.features = features
	return m.probability, m.err
}

func TestTrainedScorer_UsesModelProbability(t *testing.T) {
	model := &stubModel{fitted: true, probability: 0.2}
	scorer := NewTrainedScorer(model, NewHeuristicScorer(clock))
	lead := models.LeadSnapshot{ID: "lead-2", Source: "web", CreatedAt: fixedNow.Add(-time.Hour)}

	result := scorer.Evaluate(lead)

	// 0.2 * 70 + 15 recency
	assert.Equal(t, 29, result.Score)
	assert.Equal(t, StrategyTrained, result.Strategy)
	assert.InDelta(t, 0.2, result.ConversionProbability, 1e-9)
	assert.Len(t, model.features, FeatureCount)
}

func TestTrainedScorer_FallsBackToHeuristic(t *testing.T) {
	lead := models.LeadSnapshot{Source: "Phone Call", Budget: "$40,000", CreatedAt: fixedNow}
	heuristic := NewHeuristicScorer(clock)
	expected := heuristic.Evaluate(lead)

	tests := []struct {
		name  string
		model Model
	}{
		{"nil model", nil},
		{"not fitted", &stubModel{fitted: false}},
		{"prediction error", &stubModel{fitted: true, err: errors.New("bad input")}},
		{"nan", &stubModel{fitted: true, probability: math.NaN()}},
		{"out of range", &stubModel{fitted: true, probability: 1.5}},
		{"panic", &stubModel{fitted: true, panics: true}},
		{"wrong weight count", &LogisticModel{Weights: []float64{1, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := NewTrainedScorer(tt.model, heuristic)
			result := scorer.Evaluate(lead)
			assert.Equal(t, expected, result)
			assert.Equal(t, StrategyHeuristic, result.Strategy)
			assert.Equal(t, expected.Score, scorer.Score(lead))
		})
	}
}

func TestFeatures(t *testing.T) {
	lead := models.LeadSnapshot{
		Source:              "Phone Call",
		Budget:              "$50,000",
		CreatedAt:           fixedNow.Add(-84 * time.Hour),
		ContactAttempts:     3,
		ResponseTimeMinutes: 60,
		InterestLevel:       "Hot",
		VehicleInterest:     "BMW X5",
	}

	features := Features(lead, fixedNow)

	expected := []float64{1, 0.5, 0.5, 0.3, 0.5, 1, 1}
	assert.Len(t, features, FeatureCount)
	for i := range expected {
		assert.InDelta(t, expected[i], features[i], 1e-9, "feature %d", i)
	}
}

func TestFeatures_UnknownValues(t *testing.T) {
	features := Features(models.LeadSnapshot{ContactAttempts: -2, ResponseTimeMinutes: -5}, fixedNow)

	expected := []float64{0, 0, 1, 0, 1, 0, 0}
	for i := range expected {
		assert.InDelta(t, expected[i], features[i], 1e-9, "feature %d", i)
	}
}
