package footprint

import (
	"context"
	"errors"
	"fmt"
)

// ErrBenchmarkUnavailable is returned when the electricity benchmark
// cannot be obtained from the predictor.
var ErrBenchmarkUnavailable = errors.New("benchmark unavailable")

// Predictor returns the expected monthly CO2 in kg for a household.
type Predictor interface {
	Predict(ctx context.Context, homeType string, carpetAreaSqft float64) (float64, error)
}

// Service applies the footprint calculations. It holds no mutable state and
// is safe for concurrent use.
type Service struct {
	predictor Predictor
}

// NewService creates a Service that benchmarks electricity against predictor.
func NewService(predictor Predictor) *Service {
	return &Service{predictor: predictor}
}

// CalculateElectricity benchmarks usage against the predicted household
// footprint. Prediction failures are not retried and no fallback is used.
func (s *Service) CalculateElectricity(ctx context.Context, usage ElectricityUsage) (Result, error) {
	if err := usage.Validate(); err != nil {
		return Result{}, err
	}

	actual := usage.ActualCO2()

	if s.predictor == nil {
		return Result{}, fmt.Errorf("%w: no predictor configured", ErrBenchmarkUnavailable)
	}
	expected, err := s.predictor.Predict(ctx, usage.HomeType, usage.CarpetAreaSqft)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrBenchmarkUnavailable, err)
	}

	return newResult(actual, expected), nil
}

// CalculateTravel benchmarks a trip against the fixed monthly travel average.
func (s *Service) CalculateTravel(ctx context.Context, trip Trip) (Result, error) {
	if err := trip.Validate(); err != nil {
		return Result{}, err
	}
	return newResult(trip.ActualCO2(), AverageMonthlyTravelCO2Kg), nil
}

func newResult(actual, expected float64) Result {
	return Result{
		Status:             StatusSuccess,
		UserCO2FootprintKg: RoundKg(actual),
		TokensAwarded:      AwardTokens(actual, expected),
	}
}
