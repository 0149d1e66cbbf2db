package scoring

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/checkfox/lead_engage/internal/models"
)

// Strategy names reported in score results
const (
	StrategyHeuristic = "heuristic"
	StrategyTrained   = "trained"
)

const (
	minScore = 10
	maxScore = 100

	// baseWeight scales the conversion probability into the base score
	baseWeight = 70.0
)

var (
	phoneChannels  = []string{"phone", "voice", "call"}
	webChannels    = []string{"website", "web", "form", "online"}
	socialChannels = []string{"social", "facebook", "instagram", "twitter", "tiktok"}

	noteUrgencyWords = []string{"urgent", "asap", "immediately", "today", "ready to buy"}
)

// Scorer assigns a 10..100 priority score to a lead
type Scorer interface {
	// Evaluate scores the lead and reports which strategy produced the number
	Evaluate(lead models.LeadSnapshot) models.ScoreResult
	// Score is shorthand for Evaluate(lead).Score
	Score(lead models.LeadSnapshot) int
	// Name identifies the configured strategy
	Name() string
}

// NewScorer picks the trained strategy when a model is supplied and the heuristic otherwise
func NewScorer(model Model) Scorer {
	return NewScorerWithClock(model, nil)
}

// NewScorerWithClock is NewScorer with an explicit time source for recency bonuses
func NewScorerWithClock(model Model, now func() time.Time) Scorer {
	heuristic := NewHeuristicScorer(now)
	if model == nil {
		return heuristic
	}
	return NewTrainedScorer(model, heuristic)
}

// HeuristicScorer scores leads from channel, budget, recency and contact signals
type HeuristicScorer struct {
	now func() time.Time
}

// NewHeuristicScorer creates a HeuristicScorer; a nil clock means time.Now
func NewHeuristicScorer(now func() time.Time) *HeuristicScorer {
	if now == nil {
		now = time.Now
	}
	return &HeuristicScorer{now: now}
}

// Name returns the strategy name
func (h *HeuristicScorer) Name() string {
	return StrategyHeuristic
}

// Score returns the heuristic score
func (h *HeuristicScorer) Score(lead models.LeadSnapshot) int {
	return h.Evaluate(lead).Score
}

// Evaluate scores the lead with the heuristic conversion probability
func (h *HeuristicScorer) Evaluate(lead models.LeadSnapshot) models.ScoreResult {
	probability := h.Probability(lead)
	return models.ScoreResult{
		LeadID:                lead.ID,
		Score:                 h.scoreWith(lead, probability),
		Strategy:              StrategyHeuristic,
		ConversionProbability: probability,
	}
}

// Probability estimates conversion likelihood in [0,1] from simple lead signals
func (h *HeuristicScorer) Probability(lead models.LeadSnapshot) float64 {
	p := 0.5 + channelBonus(lead.Source)

	if _, ok := parseBudget(lead.Budget); ok {
		p += 0.10
	}
	if hours, ok := lead.HoursSinceCreation(h.now()); ok && hours < 24 {
		p += 0.10
	}
	if containsAny(strings.ToLower(lead.Notes), noteUrgencyWords) {
		p += 0.10
	}

	return clampFloat(p, 0, 1)
}

// scoreWith turns a probability into the final score by adding the fixed bonuses
func (h *HeuristicScorer) scoreWith(lead models.LeadSnapshot, probability float64) int {
	score := clampFloat(probability, 0, 1) * baseWeight

	if hours, ok := lead.HoursSinceCreation(h.now()); ok {
		switch {
		case hours < 2:
			score += 15
		case hours < 24:
			score += 10
		case hours < 72:
			score += 5
		}
	}
	if lead.LastContactAt != nil {
		score += 8
	}
	if _, ok := parseBudget(lead.Budget); ok {
		score += 7
	}
	if len(strings.TrimSpace(lead.VehicleInterest)) > 10 {
		score += 5
	}

	return clampInt(int(math.Round(score)), minScore, maxScore)
}

func channelBonus(source string) float64 {
	s := strings.ToLower(source)
	switch {
	case containsAny(s, phoneChannels):
		return 0.20
	case containsAny(s, webChannels):
		return 0.10
	case containsAny(s, socialChannels):
		return 0.05
	default:
		return 0
	}
}

// parseBudget reads amounts like "$40,000", "40000" or "40k"
func parseBudget(raw string) (float64, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, false
	}

	multiplier := 1.0
	if strings.HasSuffix(s, "k") {
		multiplier = 1000
		s = strings.TrimSuffix(s, "k")
	}

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		} else if r != '$' && r != ',' && r != ' ' {
			return 0, false
		}
	}
	if b.Len() == 0 {
		return 0, false
	}

	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v * multiplier, true
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
