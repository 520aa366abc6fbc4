package tracing

import "go.opentelemetry.io/otel/attribute"

// Attribute keys for footprint operations
const (
	// Calculation attributes
	AttrCalcKind       = "greenlens.calculation.kind"
	AttrFootprintKg    = "greenlens.footprint_kg"
	AttrBenchmarkKg    = "greenlens.benchmark_kg"
	AttrTokensAwarded  = "greenlens.tokens_awarded"
	AttrVehicleType    = "greenlens.vehicle_type"
	AttrHomeType       = "greenlens.home_type"
	AttrCarpetAreaSqft = "greenlens.carpet_area_sqft"

	// MCP tool attributes
	AttrMCPToolName     = "mcp.tool.name"
	AttrMCPToolStatus   = "mcp.tool.status"
	AttrMCPToolDuration = "mcp.tool.duration_ms"

	// Prediction cache attributes
	AttrCacheHit = "greenlens.cache.hit"

	// HTTP transport attributes
	AttrHTTPMethod     = "http.method"
	AttrHTTPStatusCode = "http.status_code"
	AttrHTTPPath       = "http.path"
	AttrHTTPRequestID  = "http.request_id"

	// Error attributes
	AttrErrorType    = "error.type"
	AttrErrorMessage = "error.message"
)

// Status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ResultAttributes returns attributes describing a computed footprint
func ResultAttributes(kind string, footprintKg, benchmarkKg float64, tokens int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrCalcKind, kind),
		attribute.Float64(AttrFootprintKg, footprintKg),
		attribute.Float64(AttrBenchmarkKg, benchmarkKg),
		attribute.Int(AttrTokensAwarded, tokens),
	}
}

// ErrorAttributes returns attributes for errors
func ErrorAttributes(errType string, err error) []attribute.KeyValue {
	if err == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String(AttrErrorType, errType),
		attribute.String(AttrErrorMessage, err.Error()),
	}
}
