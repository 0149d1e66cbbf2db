package scoring

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/checkfox/lead_engage/internal/models"
)

// Demand categories
const (
	DemandHigh     = "high_demand"
	DemandModerate = "moderate_demand"
	DemandLow      = "low_demand"
)

const minDaysToSell = 7

var (
	topBrands     = []string{"toyota", "honda"}
	popularBrands = []string{"ford", "chevrolet", "chevy", "nissan", "hyundai", "kia", "subaru", "mazda", "jeep", "tesla"}
)

// DemandPredictor estimates how quickly a vehicle will sell
type DemandPredictor struct {
	now func() time.Time
}

// NewDemandPredictor creates a DemandPredictor; a nil clock means time.Now
func NewDemandPredictor(now func() time.Time) *DemandPredictor {
	if now == nil {
		now = time.Now
	}
	return &DemandPredictor{now: now}
}

// Predict scores vehicle demand. It never fails: an internal problem yields
// a moderate default record.
func (d *DemandPredictor) Predict(attrs models.VehicleAttributes) (prediction models.DemandPrediction) {
	defer func() {
		if r := recover(); r != nil {
			prediction = defaultDemand()
		}
	}()

	now := d.now()
	score := 50
	insights := []string{}

	brand := strings.ToLower(strings.TrimSpace(attrs.Make))
	switch {
	case containsAny(brand, topBrands):
		score += 15
		insights = append(insights, fmt.Sprintf("%s holds strong resale demand", attrs.Make))
	case containsAny(brand, popularBrands):
		score += 10
		insights = append(insights, fmt.Sprintf("%s is a popular brand in this market", attrs.Make))
	case containsAny(brand, luxuryBrands):
		score += 5
		insights = append(insights, "luxury buyers are a smaller but steady segment")
	}

	if attrs.Year > 0 {
		age := now.Year() - attrs.Year
		switch {
		case age <= 1:
			score += 10
			insights = append(insights, "nearly new vehicles move quickly")
		case age <= 3:
			score += 5
		case age <= 6:
		case age <= 10:
			score -= 5
		default:
			score -= 10
			insights = append(insights, "older vehicles take longer to sell")
		}
	}

	if attrs.Price > 0 {
		switch {
		case attrs.Price < 15000:
			score += 10
			insights = append(insights, "priced in the high-volume budget segment")
		case attrs.Price < 30000:
			score += 5
		case attrs.Price < 50000:
		case attrs.Price < 80000:
			score -= 5
		default:
			score -= 10
			insights = append(insights, "premium pricing narrows the buyer pool")
		}
	}

	switch {
	case attrs.Mileage > 100000:
		score -= 10
		insights = append(insights, "high mileage reduces buyer interest")
	case attrs.Mileage > 0 && attrs.Mileage < 30000:
		score += 5
	}

	body := strings.ToLower(strings.TrimSpace(attrs.BodyType))
	switch body {
	case "suv", "truck", "crossover", "pickup":
		score += 10
		insights = append(insights, "SUVs and trucks are in high demand")
	case "coupe", "convertible":
		score -= 5
	}

	score += seasonalAdjustment(body, now.Month())

	score = clampInt(score, 0, 100)
	return models.DemandPrediction{
		Score:      score,
		DaysToSell: daysToSell(score),
		Category:   demandCategory(score),
		Insights:   insights,
	}
}

// seasonalAdjustment favors convertibles in summer, trucks in winter and
// everything during the spring tax-refund season
func seasonalAdjustment(body string, month time.Month) int {
	adj := 0
	switch month {
	case time.March, time.April, time.May:
		adj += 5
	case time.November, time.December, time.January:
		adj -= 5
	}

	switch body {
	case "convertible", "coupe":
		if month >= time.May && month <= time.August {
			adj += 5
		}
	case "suv", "truck", "pickup":
		if month >= time.October || month == time.January {
			adj += 5
		}
	}
	return adj
}

func daysToSell(score int) int {
	days := int(math.Round(90 - float64(score)*0.8))
	if days < minDaysToSell {
		return minDaysToSell
	}
	return days
}

func demandCategory(score int) string {
	switch {
	case score >= 75:
		return DemandHigh
	case score >= 50:
		return DemandModerate
	default:
		return DemandLow
	}
}

func defaultDemand() models.DemandPrediction {
	return models.DemandPrediction{
		Score:      50,
		DaysToSell: daysToSell(50),
		Category:   DemandModerate,
		Insights:   []string{"insufficient data for a detailed prediction"},
	}
}
