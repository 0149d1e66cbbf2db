package services

import (
	"math"
	"regexp"
	"strings"

	"github.com/checkfox/lead_engage/internal/models"
)

// IntentKeywords binds an intent name to the keywords that select it
type IntentKeywords struct {
	Intent   string
	Keywords []string
}

// DefaultIntentTable is the ordered keyword table. Order decides the primary intent.
var DefaultIntentTable = []IntentKeywords{
	{Intent: "pricing_inquiry", Keywords: []string{"price", "cost", "how much", "payment", "afford", "budget", "best deal", "good deal", "quote", "msrp"}},
	{Intent: "vehicle_inquiry", Keywords: []string{"available", "in stock", "inventory", "looking for", "interested in", "details", "features", "specs", "do you have"}},
	{Intent: "test_drive", Keywords: []string{"test drive", "drive it", "come in", "appointment", "schedule a visit", "see it in person"}},
	{Intent: "trade_in", Keywords: []string{"trade", "my current car", "my car", "appraisal"}},
	{Intent: "financing", Keywords: []string{"financ", "loan", "credit", "interest rate", "down payment", " lease", "leasing"}},
	{Intent: "service", Keywords: []string{"service", "maintenance", "oil change", "repair", "recall"}},
	{Intent: "hours_location", Keywords: []string{"hours", "open", "location", "address", "directions", "where are you"}},
}

var (
	highUrgencyKeywords   = []string{"urgent", "asap", "immediately", "right now", "today", "emergency"}
	mediumUrgencyKeywords = []string{"soon", "this week", "tomorrow", "quickly", "weekend", "next few days"}

	positiveKeywords = []string{"great", "love", "excellent", "perfect", "thank", "awesome", "amazing", "happy", "interested", "wonderful"}
	negativeKeywords = []string{"not interested", "not happy", "unhappy", "terrible", "awful", "disappointed", "angry", "frustrated", " hate", "worst", "problem with", "rude", "bad experience"}
)

// Classifier maps message text to intents, vehicles, urgency and sentiment
type Classifier struct {
	table        []IntentKeywords
	modelPattern *regexp.Regexp
	brandPattern *regexp.Regexp
	yearPattern  *regexp.Regexp
}

// NewClassifier creates a Classifier using DefaultIntentTable
func NewClassifier() *Classifier {
	return NewClassifierWithTable(DefaultIntentTable)
}

// NewClassifierWithTable creates a Classifier with a custom ordered keyword table
func NewClassifierWithTable(table []IntentKeywords) *Classifier {
	return &Classifier{
		table:        table,
		modelPattern: regexp.MustCompile(`\b(camry|corolla|rav4|highlander|tacoma|tundra|prius|accord|civic|cr-v|odyssey|f-150|f150|mustang|explorer|escape|bronco|silverado|equinox|tahoe|malibu|altima|rogue|sentra|model 3|model y|model s|model x|wrangler|grand cherokee|outback|forester|cx-5|elantra|tucson|sorento|telluride)\b`),
		brandPattern: regexp.MustCompile(`\b(toyota|honda|ford|chevrolet|chevy|nissan|tesla|jeep|bmw|mercedes|audi|lexus|hyundai|kia|subaru|mazda|volkswagen|porsche|cadillac|gmc|dodge)\b`),
		yearPattern:  regexp.MustCompile(`\b(?:19|20)\d{2}\s+[a-z]+\s+[a-z0-9-]+\b`),
	}
}

// Classify analyses one inbound message. It never fails: any internal
// problem yields models.DefaultIntentAnalysis().
func (c *Classifier) Classify(text string, sender models.SenderContext) (result models.IntentAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			result = models.DefaultIntentAnalysis()
		}
	}()

	lowered := strings.ToLower(text)
	// padding lets space-anchored keywords match at either end of the message
	padded := " " + lowered + " "

	intents := c.matchIntents(padded)
	primary := models.DefaultIntent
	if len(intents) > 0 {
		primary = intents[0]
	}

	return models.IntentAnalysis{
		Intents:       intents,
		PrimaryIntent: primary,
		Vehicles:      c.DetectVehicles(lowered),
		Urgency:       detectUrgency(padded),
		Sentiment:     detectSentiment(padded),
		Confidence:    confidenceFor(len(intents)),
	}
}

// matchIntents walks the table in order and keeps every intent with a keyword hit
func (c *Classifier) matchIntents(lowered string) []string {
	intents := []string{}
	for _, entry := range c.table {
		if containsAny(lowered, entry.Keywords) {
			intents = append(intents, entry.Intent)
		}
	}
	return intents
}

// DetectVehicles runs the model, brand and year-make-model passes and concatenates the matches.
// Duplicates across passes are kept.
func (c *Classifier) DetectVehicles(text string) []string {
	lowered := strings.ToLower(text)
	vehicles := []string{}
	vehicles = append(vehicles, c.modelPattern.FindAllString(lowered, -1)...)
	vehicles = append(vehicles, c.brandPattern.FindAllString(lowered, -1)...)
	vehicles = append(vehicles, c.yearPattern.FindAllString(lowered, -1)...)
	return vehicles
}

func detectUrgency(lowered string) models.Urgency {
	if containsAny(lowered, highUrgencyKeywords) {
		return models.UrgencyHigh
	}
	if containsAny(lowered, mediumUrgencyKeywords) {
		return models.UrgencyMedium
	}
	return models.UrgencyNormal
}

// detectSentiment is the sign of positive minus negative keyword hits.
// Hits are counted independently, so "not interested" counts once each way.
func detectSentiment(lowered string) models.Sentiment {
	score := countHits(lowered, positiveKeywords) - countHits(lowered, negativeKeywords)
	switch {
	case score > 0:
		return models.SentimentPositive
	case score < 0:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// confidenceFor is 0.4 plus 0.3 per matched intent, capped at 1.0
func confidenceFor(matched int) float64 {
	c := 0.4 + 0.3*float64(matched)
	// round away float noise so 0.4+0.3 compares equal to 0.7
	c = math.Round(c*100) / 100
	return math.Min(c, 1.0)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func countHits(s string, keywords []string) int {
	hits := 0
	for _, k := range keywords {
		if strings.Contains(s, k) {
			hits++
		}
	}
	return hits
}
