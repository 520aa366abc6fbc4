// Package benchmark loads and serves the electricity benchmark predictor:
// a regression model giving the expected monthly CO2 for a household.
package benchmark

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ModelKindLinear is the only supported artifact kind.
const ModelKindLinear = "linear"

var (
	// ErrInvalidArtifact is returned when an artifact cannot be decoded or fails validation.
	ErrInvalidArtifact = errors.New("invalid benchmark artifact")

	// ErrInvalidFeatures is returned when prediction inputs are not finite.
	ErrInvalidFeatures = errors.New("invalid prediction features")
)

// LinearModel predicts expected monthly CO2 in kg as
//
//	intercept + carpetAreaCoefficient*carpetArea + homeTypeOffsets[homeType]
//
// Unknown home types contribute no offset. A LinearModel is immutable once loaded.
type LinearModel struct {
	Kind                  string             `json:"model" yaml:"model"`
	Version               string             `json:"version" yaml:"version"`
	Intercept             float64            `json:"intercept" yaml:"intercept"`
	CarpetAreaCoefficient float64            `json:"carpet_area_coefficient" yaml:"carpet_area_coefficient"`
	HomeTypeOffsets       map[string]float64 `json:"home_type_offsets" yaml:"home_type_offsets"`
}

// Predict implements footprint.Predictor.
func (m *LinearModel) Predict(_ context.Context, homeType string, carpetAreaSqft float64) (float64, error) {
	if math.IsNaN(carpetAreaSqft) || math.IsInf(carpetAreaSqft, 0) {
		return 0, fmt.Errorf("%w: carpet area %v", ErrInvalidFeatures, carpetAreaSqft)
	}

	expected := m.Intercept + m.CarpetAreaCoefficient*carpetAreaSqft + m.HomeTypeOffsets[homeType]
	if math.IsNaN(expected) || math.IsInf(expected, 0) {
		return 0, fmt.Errorf("%w: prediction overflowed for carpet area %v", ErrInvalidFeatures, carpetAreaSqft)
	}
	return expected, nil
}

// HomeTypes returns the number of home types with a learned offset.
func (m *LinearModel) HomeTypes() int {
	return len(m.HomeTypeOffsets)
}

func (m *LinearModel) validate() error {
	if m.Kind != ModelKindLinear {
		return fmt.Errorf("%w: unsupported model kind %q", ErrInvalidArtifact, m.Kind)
	}
	if !finite(m.Intercept) || !finite(m.CarpetAreaCoefficient) {
		return fmt.Errorf("%w: non-finite coefficients", ErrInvalidArtifact)
	}
	for homeType, offset := range m.HomeTypeOffsets {
		if !finite(offset) {
			return fmt.Errorf("%w: non-finite offset for home type %q", ErrInvalidArtifact, homeType)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// LoadFile reads a model artifact from path. Files ending in .yaml or .yml
// are decoded as YAML, everything else as JSON.
func LoadFile(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading benchmark artifact: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeYAML(data)
	default:
		return DecodeJSON(data)
	}
}

// DecodeJSON decodes and validates a JSON artifact. Unknown fields are rejected.
func DecodeJSON(data []byte) (*LinearModel, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var m LinearModel
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArtifact, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// DecodeYAML decodes and validates a YAML artifact. Unknown fields are rejected.
func DecodeYAML(data []byte) (*LinearModel, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m LinearModel
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArtifact, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
