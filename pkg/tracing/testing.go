package tracing

import (
	"context"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// InitInMemory installs a synchronous provider backed by an in-memory
// exporter. Tests use it to assert on recorded spans.
func InitInMemory(version string) (*tracetest.InMemoryExporter, func(context.Context) error, error) {
	exporter := tracetest.NewInMemoryExporter()
	shutdown, err := installProvider(sdktrace.WithSyncer(exporter), Config{Environment: "test"}, version)
	if err != nil {
		return nil, nil, err
	}
	return exporter, shutdown, nil
}
