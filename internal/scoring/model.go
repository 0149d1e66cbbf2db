package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/checkfox/lead_engage/internal/models"
)

// LogisticModel is a logistic-regression conversion model over Features
type LogisticModel struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// LoadLogisticModel reads model weights from a JSON file of the form
// {"weights": [...], "bias": 0.0}
func LoadLogisticModel(path string) (*LogisticModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, models.NewModelError("load", fmt.Sprintf("failed to read %s", path), err)
	}

	var m LogisticModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, models.NewModelError("load", "failed to decode model", err)
	}
	if !m.Fitted() {
		return nil, models.NewModelError("load",
			fmt.Sprintf("expected %d weights, got %d", FeatureCount, len(m.Weights)), models.ErrModelNotFitted)
	}

	return &m, nil
}

// Fitted reports whether the model has one weight per feature
func (m *LogisticModel) Fitted() bool {
	return m != nil && len(m.Weights) == FeatureCount
}

// PredictProba returns the sigmoid of the weighted feature sum
func (m *LogisticModel) PredictProba(features []float64) (float64, error) {
	if !m.Fitted() {
		return 0, models.ErrModelNotFitted
	}
	if len(features) != len(m.Weights) {
		return 0, fmt.Errorf("%w: expected %d features, got %d", models.ErrFeatureShape, len(m.Weights), len(features))
	}

	z := m.Bias
	for i, w := range m.Weights {
		z += w * features[i]
	}
	return 1 / (1 + math.Exp(-z)), nil
}
