package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONB is a custom type for PostgreSQL JSONB columns
type JSONB map[string]interface{}

// Value implements the driver.Valuer interface for JSONB
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface for JSONB
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to unmarshal JSONB value: %v", value)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}

	*j = result
	return nil
}

// Clone returns a shallow copy of the map
func (j JSONB) Clone() JSONB {
	if j == nil {
		return JSONB{}
	}
	return JSONB(cloneMap(j))
}

// cloneMap copies m along with any nested maps and slices
func cloneMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return cloneMap(t)
	case JSONB:
		return JSONB(cloneMap(t))
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// LeadSnapshot is a read-only view of a lead handed to scoring and classification.
// The lead store owns the record; the core never persists it.
type LeadSnapshot struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Phone               string     `json:"phone,omitempty"`
	Email               string     `json:"email,omitempty"`
	Source              string     `json:"source"`
	Budget              string     `json:"budget,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	ContactAttempts     int        `json:"contact_attempts"`
	LastContactAt       *time.Time `json:"last_contact_at,omitempty"`
	ResponseTimeMinutes float64    `json:"response_time_minutes,omitempty"`
	VehicleInterest     string     `json:"vehicle_interest,omitempty"`
	InterestLevel       string     `json:"interest_level,omitempty"`
	Notes               string     `json:"notes,omitempty"`
}

// HoursSinceCreation returns the lead age in hours relative to now.
// The second return value is false when the creation time is unknown.
func (l LeadSnapshot) HoursSinceCreation(now time.Time) (float64, bool) {
	if l.CreatedAt.IsZero() {
		return 0, false
	}
	hours := now.Sub(l.CreatedAt).Hours()
	if hours < 0 {
		hours = 0
	}
	return hours, true
}

// SenderContext describes who sent an inbound message
type SenderContext struct {
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Language string `json:"language,omitempty"`
}

// ScoreResult is the outbound record of a scoring request
type ScoreResult struct {
	LeadID                string  `json:"lead_id,omitempty"`
	Score                 int     `json:"score"`
	Strategy              string  `json:"strategy"`
	ConversionProbability float64 `json:"conversion_probability"`
}

// VehicleAttributes is the input to demand prediction
type VehicleAttributes struct {
	Make     string  `json:"make"`
	Model    string  `json:"model"`
	Year     int     `json:"year"`
	Price    float64 `json:"price"`
	Mileage  int     `json:"mileage,omitempty"`
	BodyType string  `json:"body_type,omitempty"`
}

// DemandPrediction is the outbound record of a demand prediction
type DemandPrediction struct {
	Score      int      `json:"score"`
	DaysToSell int      `json:"days_to_sell"`
	Category   string   `json:"category"`
	Insights   []string `json:"insights"`
}
