// Package engine runs footprint calculations from raw JSON requests. It is
// the single path shared by the HTTP API and the MCP tools: strict decoding,
// calculation, then metrics and tracing.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/NERVsystems/greenlens/pkg/core"
	"github.com/NERVsystems/greenlens/pkg/footprint"
	"github.com/NERVsystems/greenlens/pkg/monitoring"
	"github.com/NERVsystems/greenlens/pkg/tracing"
)

// Engine decodes requests and runs them through a footprint.Service.
type Engine struct {
	service *footprint.Service
	logger  *slog.Logger
}

// New creates an Engine.
func New(service *footprint.Service, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{service: service, logger: logger}
}

// Electricity handles a calculate-electricity request body.
// Errors are always *core.Error.
func (e *Engine) Electricity(ctx context.Context, body []byte) (footprint.Result, error) {
	ctx, span := tracing.StartSpan(ctx, "footprint.electricity")
	defer span.End()
	start := time.Now()

	var req ElectricityRequest
	if err := core.DecodeJSON(body, &req, electricityFields...); err != nil {
		return e.fail(ctx, span, monitoring.KindElectricity, start, err)
	}

	usage := req.Usage()
	span.SetAttributes(
		attribute.String(tracing.AttrHomeType, usage.HomeType),
		attribute.Float64(tracing.AttrCarpetAreaSqft, usage.CarpetAreaSqft),
	)

	res, err := e.service.CalculateElectricity(ctx, usage)
	if err != nil {
		return e.fail(ctx, span, monitoring.KindElectricity, start, err)
	}
	return e.succeed(span, monitoring.KindElectricity, start, res), nil
}

// Travel handles a calculate-travel request body.
// Errors are always *core.Error.
func (e *Engine) Travel(ctx context.Context, body []byte) (footprint.Result, error) {
	ctx, span := tracing.StartSpan(ctx, "footprint.travel")
	defer span.End()
	start := time.Now()

	var req TravelRequest
	if err := core.DecodeJSON(body, &req, travelFields...); err != nil {
		return e.fail(ctx, span, monitoring.KindTravel, start, err)
	}

	trip := req.Trip()
	span.SetAttributes(attribute.String(tracing.AttrVehicleType, trip.Vehicle.String()))
	if trip.Vehicle == footprint.VehicleOther && *req.VehicleType != footprint.VehicleOther.String() {
		e.logger.Debug("unrecognized vehicle type treated as Other", "vehicle_type", *req.VehicleType)
	}

	res, err := e.service.CalculateTravel(ctx, trip)
	if err != nil {
		return e.fail(ctx, span, monitoring.KindTravel, start, err)
	}
	return e.succeed(span, monitoring.KindTravel, start, res), nil
}

func (e *Engine) succeed(span trace.Span, kind string, start time.Time, res footprint.Result) footprint.Result {
	monitoring.RecordCalculation(kind, time.Since(start), true)
	monitoring.RecordResult(kind, res.UserCO2FootprintKg, res.TokensAwarded)
	span.SetAttributes(
		attribute.String(tracing.AttrCalcKind, kind),
		attribute.Float64(tracing.AttrFootprintKg, res.UserCO2FootprintKg),
		attribute.Int(tracing.AttrTokensAwarded, res.TokensAwarded),
	)
	span.SetStatus(codes.Ok, "")
	return res
}

func (e *Engine) fail(ctx context.Context, span trace.Span, kind string, start time.Time, err error) (footprint.Result, error) {
	apiErr := toAPIError(err)
	monitoring.RecordCalculation(kind, time.Since(start), false)

	if apiErr.Code == string(core.ErrValidation) {
		reason := core.TypeJSONInvalid
		if len(apiErr.Detail) > 0 {
			reason = apiErr.Detail[0].Type
		}
		monitoring.RecordValidationFailure(kind, reason)
		e.logger.Debug("rejected request", "kind", kind, "error", apiErr)
	} else {
		monitoring.RecordError(kind, apiErr.Code)
		e.logger.Error("footprint calculation failed", "kind", kind, "error", err)
	}

	span.SetAttributes(tracing.ErrorAttributes(apiErr.Code, err)...)
	span.SetStatus(codes.Error, apiErr.Message)
	tracing.RecordError(ctx, err)
	return footprint.Result{}, apiErr
}

func toAPIError(err error) *core.Error {
	var apiErr *core.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var rangeErr *footprint.RangeError
	if errors.As(err, &rangeErr) {
		return core.NewValidationError(core.RangeDetail(rangeErr.Field, rangeErr.Bound, rangeErr.Limit))
	}

	if errors.Is(err, footprint.ErrBenchmarkUnavailable) {
		return core.BenchmarkUnavailable()
	}

	return core.NewError(core.ErrInternalError, "footprint calculation failed")
}
