package benchmark

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
  "model": "linear",
  "version": "test",
  "intercept": 20,
  "carpet_area_coefficient": 0.1,
  "home_type_offsets": {"Apartment": 0, "Villa": 50}
}`

const sampleYAML = `model: linear
version: test
intercept: 20
carpet_area_coefficient: 0.1
home_type_offsets:
  Apartment: 0
  Villa: 50
`

func writeArtifact(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	for _, tc := range []struct{ name, content string }{
		{"model.json", sampleJSON},
		{"model.yaml", sampleYAML},
		{"model.YML", sampleYAML},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m, err := LoadFile(writeArtifact(t, tc.name, tc.content))
			require.NoError(t, err)
			assert.Equal(t, "test", m.Version)
			assert.Equal(t, 2, m.HomeTypes())

			got, err := m.Predict(context.Background(), "Villa", 1000)
			require.NoError(t, err)
			assert.InDelta(t, 170.0, got, 1e-9)
		})
	}
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	for _, tc := range []struct{ name, content string }{
		{"corrupt.json", `{"model": "linear", "intercept": `},
		{"binary.json", "\x80\x04\x95pickle"},
		{"kind.json", `{"model": "random_forest", "intercept": 1}`},
		{"unknown.json", `{"model": "linear", "intercept": 1, "extra": true}`},
		{"corrupt.yaml", "model: [linear"},
		{"unknown.yaml", "model: linear\nbogus: 1\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFile(writeArtifact(t, tc.name, tc.content))
			assert.ErrorIs(t, err, ErrInvalidArtifact)
		})
	}
}

func TestLinearModelPredict(t *testing.T) {
	m, err := DecodeJSON([]byte(sampleJSON))
	require.NoError(t, err)
	ctx := context.Background()

	got, err := m.Predict(ctx, "Apartment", 900)
	require.NoError(t, err)
	assert.InDelta(t, 110.0, got, 1e-9)

	// unknown home types get no offset
	got, err = m.Predict(ctx, "Houseboat", 900)
	require.NoError(t, err)
	assert.InDelta(t, 110.0, got, 1e-9)

	_, err = m.Predict(ctx, "Apartment", math.NaN())
	assert.ErrorIs(t, err, ErrInvalidFeatures)

	_, err = m.Predict(ctx, "Apartment", math.Inf(1))
	assert.ErrorIs(t, err, ErrInvalidFeatures)
}

func TestShippedArtifact(t *testing.T) {
	m, err := LoadFile(filepath.Join("..", "..", "models", "electricity_benchmark_model.json"))
	require.NoError(t, err)
	assert.Equal(t, ModelKindLinear, m.Kind)
	assert.Positive(t, m.HomeTypes())
}
