package scoring

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/checkfox/lead_engage/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModelFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadLogisticModel(t *testing.T) {
	path := writeModelFile(t, `{"weights": [0.5, 0.2, -0.3, 0.1, 0.4, 0.6, 0.1], "bias": -0.2}`)

	m, err := LoadLogisticModel(path)
	require.NoError(t, err)
	assert.True(t, m.Fitted())
	assert.Len(t, m.Weights, FeatureCount)
	assert.InDelta(t, -0.2, m.Bias, 1e-9)
}

func TestLoadLogisticModel_Errors(t *testing.T) {
	tests := []struct {
		name   string
		path   func(t *testing.T) string
		notFit bool
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.json") }, false},
		{"bad json", func(t *testing.T) string { return writeModelFile(t, `{weights`) }, false},
		{"wrong shape", func(t *testing.T) string { return writeModelFile(t, `{"weights": [1, 2, 3]}`) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadLogisticModel(tt.path(t))
			require.Error(t, err)

			var modelErr *models.ModelError
			require.True(t, errors.As(err, &modelErr))
			assert.Equal(t, "load", modelErr.Stage)
			assert.Equal(t, tt.notFit, errors.Is(err, models.ErrModelNotFitted))
		})
	}
}

func TestLogisticModel_PredictProba(t *testing.T) {
	m := &LogisticModel{Weights: make([]float64, FeatureCount)}

	p, err := m.PredictProba(make([]float64, FeatureCount))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p, 1e-9)

	m.Weights[0] = 2
	m.Bias = -1
	features := []float64{1, 0, 0, 0, 0, 0, 0}
	p, err = m.PredictProba(features)
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(-1)), p, 1e-9)
}

func TestLogisticModel_PredictProbaErrors(t *testing.T) {
	var unfitted *LogisticModel
	_, err := unfitted.PredictProba(make([]float64, FeatureCount))
	assert.ErrorIs(t, err, models.ErrModelNotFitted)

	m := &LogisticModel{Weights: make([]float64, FeatureCount)}
	_, err = m.PredictProba([]float64{1, 2})
	assert.ErrorIs(t, err, models.ErrFeatureShape)
}
