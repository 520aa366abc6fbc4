package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/NERVsystems/greenlens/pkg/tracing"
)

func TestTracingMiddleware(t *testing.T) {
	exporter, shutdown, err := tracing.InitInMemory("test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !trace.SpanFromContext(r.Context()).SpanContext().IsValid() {
			t.Error("No span in request context")
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("test response"))
	})
	handler := TracingMiddleware()(testHandler)

	t.Run("Success", func(t *testing.T) {
		exporter.Reset()
		req := httptest.NewRequest("GET", "/calculate-travel", nil)
		req.Header.Set("X-Request-ID", "req-1")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, "GET /calculate-travel", spans[0].Name)

		attrs := map[string]any{}
		for _, kv := range spans[0].Attributes {
			attrs[string(kv.Key)] = kv.Value.AsInterface()
		}
		assert.Equal(t, "req-1", attrs[tracing.AttrHTTPRequestID])
		assert.Equal(t, int64(http.StatusOK), attrs[tracing.AttrHTTPStatusCode])
	})

	t.Run("Error", func(t *testing.T) {
		exporter.Reset()
		errorHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		})

		req := httptest.NewRequest("POST", "/calculate-electricity", nil)
		rec := httptest.NewRecorder()
		TracingMiddleware()(errorHandler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, "Error", spans[0].Status.Code.String())
	})
}

func TestLoggingMiddlewareSetsRequestID(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var seen string
	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
}

// TestResponseWriterPreservesInterfaces makes sure SSE streaming still works
// behind the middleware chain.
func TestResponseWriterPreservesInterfaces(t *testing.T) {
	var flusherAvailable bool
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, flusherAvailable = w.(http.Flusher)
		w.WriteHeader(http.StatusOK)
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := TracingMiddleware()(LoggingMiddleware(logger)(testHandler))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/sse", nil))

	if !flusherAvailable {
		t.Fatal("http.Flusher interface not preserved through middleware")
	}
}

func TestStatusWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := newStatusWriter(rec)

	var _ http.Flusher = sw
	sw.WriteHeader(http.StatusCreated)
	sw.WriteHeader(http.StatusInternalServerError) // ignored
	_, err := sw.Write([]byte("hello"))
	require.NoError(t, err)
	sw.Flush()

	assert.Equal(t, http.StatusCreated, sw.status)
	assert.Equal(t, int64(5), sw.written)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, rec.Flushed)
	assert.Same(t, http.ResponseWriter(rec), sw.Unwrap())
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'none'")
}

func TestRequestIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := newRequestID()
		require.False(t, seen[id], "duplicate request id %s", id)
		seen[id] = true
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "10.0.0.1:5555", "10.0.0.1"},
		{"ipv6 remote addr", nil, "[2001:db8::1]:5555", "2001:db8::1"},
		{"forwarded for", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.1:5555", "203.0.113.7"},
		{"mapped ipv4 forwarded", map[string]string{"X-Forwarded-For": "::ffff:203.0.113.7"}, "10.0.0.1:5555", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.2"}, "10.0.0.1:5555", "198.51.100.2"},
		{"bad forwarded falls back", map[string]string{"X-Forwarded-For": "nonsense"}, "10.0.0.1:5555", "10.0.0.1"},
		{"remote without port", nil, "pipe", "pipe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
