package benchmark

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/NERVsystems/greenlens/pkg/footprint"
	"github.com/NERVsystems/greenlens/pkg/monitoring"
	"github.com/NERVsystems/greenlens/pkg/tracing"
)

// InstrumentedPredictor records a span and metrics around every prediction.
type InstrumentedPredictor struct {
	next footprint.Predictor
}

// Instrument wraps next with tracing and metrics.
func Instrument(next footprint.Predictor) *InstrumentedPredictor {
	return &InstrumentedPredictor{next: next}
}

// Predict implements footprint.Predictor.
func (p *InstrumentedPredictor) Predict(ctx context.Context, homeType string, carpetAreaSqft float64) (float64, error) {
	ctx, span := tracing.StartSpan(ctx, "benchmark.predict",
		trace.WithAttributes(
			attribute.String(tracing.AttrHomeType, homeType),
			attribute.Float64(tracing.AttrCarpetAreaSqft, carpetAreaSqft),
		),
	)
	defer span.End()

	start := time.Now()
	expected, err := p.next.Predict(ctx, homeType, carpetAreaSqft)
	monitoring.RecordPrediction(time.Since(start), err == nil)

	if err != nil {
		monitoring.RecordError("benchmark", "prediction_failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	span.SetAttributes(attribute.Float64(tracing.AttrBenchmarkKg, expected))
	span.SetStatus(codes.Ok, "")
	return expected, nil
}

// Check forwards to the wrapped predictor when it can report availability.
func (p *InstrumentedPredictor) Check() error {
	if ch, ok := p.next.(checker); ok {
		return ch.Check()
	}
	return nil
}
