package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/NERVsystems/greenlens/pkg/core"
	"github.com/NERVsystems/greenlens/pkg/monitoring"
	"github.com/NERVsystems/greenlens/pkg/tracing"
)

type contextKey struct{}

var requestIDKey contextKey

// DefaultMaxClients bounds how many per-client token buckets are tracked.
const DefaultMaxClients = 10000

// RateLimiter hands out one token bucket per client address. Buckets live
// in an LRU so memory stays bounded and idle clients age out on their own.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	buckets *lru.Cache[string, *rate.Limiter]
}

// NewRateLimiter allows limit requests per second per client with the given
// burst, tracking at most maxClients clients (DefaultMaxClients if <= 0).
func NewRateLimiter(limit rate.Limit, burst, maxClients int) *RateLimiter {
	if maxClients <= 0 {
		maxClients = DefaultMaxClients
	}
	if burst <= 0 {
		burst = 1
	}
	// lru.New only fails for a non-positive size
	buckets, _ := lru.New[string, *rate.Limiter](maxClients)
	return &RateLimiter{limit: limit, burst: burst, buckets: buckets}
}

// Allow reports whether client may make a request now.
func (rl *RateLimiter) Allow(client string) bool {
	return rl.bucket(client).Allow()
}

func (rl *RateLimiter) bucket(client string) *rate.Limiter {
	if l, ok := rl.buckets.Get(client); ok {
		return l
	}
	l := rate.NewLimiter(rl.limit, rl.burst)
	// a concurrent caller may have won the race; keep its bucket
	if prev, ok, _ := rl.buckets.PeekOrAdd(client, l); ok {
		return prev
	}
	return l
}

// Clients returns how many client buckets are currently tracked.
func (rl *RateLimiter) Clients() int {
	return rl.buckets.Len()
}

// Middleware rejects requests over the client's budget with a 429 envelope.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.Allow(clientIP(r)) {
			next.ServeHTTP(w, r)
			return
		}

		monitoring.RecordRateLimitExceeded()
		retry := 1
		if rl.limit > 0 {
			retry = max(1, int(1/float64(rl.limit)))
		}
		apiErr := core.NewError(core.ErrRateLimit, "Too Many Requests").
			WithGuidance("Slow down and retry shortly.")
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		w.WriteHeader(apiErr.HTTPStatus())
		_ = json.NewEncoder(w).Encode(apiErr)
	})
}

// clientIP picks the address a request is accounted to: the first valid
// hop of X-Forwarded-For, then X-Real-IP, then the socket peer.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr.Unmap().String()
		}
	}
	if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return addr.Unmap().String()
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RequestSizeLimiter caps request bodies at maxBytes.
func RequestSizeLimiter(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeaders sets the headers a JSON API needs: no sniffing, no
// framing, no active content and no caching of per-request results.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// LoggingMiddleware tags each request with an id, echoes it in
// X-Request-ID and logs one line per completed request.
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = newRequestID()
			}
			w.Header().Set("X-Request-ID", id)
			r = r.WithContext(context.WithValue(r.Context(), requestIDKey, id))

			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			level := slog.LevelInfo
			if sw.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(r.Context(), level, "http request",
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
				"client", clientIP(r),
				"status", sw.status,
				"bytes", sw.written,
				"duration", time.Since(start))
		})
	}
}

// statusWriter records the status code and body size of a response.
type statusWriter struct {
	http.ResponseWriter
	status      int
	written     int64
	wroteHeader bool
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w, status: http.StatusOK}
}

func (sw *statusWriter) WriteHeader(code int) {
	if sw.wroteHeader {
		return
	}
	sw.status = code
	sw.wroteHeader = true
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.wroteHeader {
		sw.WriteHeader(http.StatusOK)
	}
	n, err := sw.ResponseWriter.Write(b)
	sw.written += int64(n)
	return n, err
}

// Flush keeps SSE streaming working behind the middleware.
func (sw *statusWriter) Flush() {
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// TracingMiddleware opens a server span per request.
func TracingMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.StartSpan(r.Context(), r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String(tracing.AttrHTTPMethod, r.Method),
					attribute.String(tracing.AttrHTTPPath, r.URL.Path),
					attribute.String("http.client_ip", clientIP(r)),
				),
			)
			defer span.End()

			if id := r.Header.Get("X-Request-ID"); id != "" {
				span.SetAttributes(attribute.String(tracing.AttrHTTPRequestID, id))
			}

			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r.WithContext(ctx))

			span.SetAttributes(
				attribute.Int(tracing.AttrHTTPStatusCode, sw.status),
				attribute.Int64("http.response.size", sw.written),
			)
			if sw.status >= http.StatusBadRequest {
				span.SetStatus(codes.Error, http.StatusText(sw.status))
			} else {
				span.SetStatus(codes.Ok, "")
			}
		})
	}
}

// RequestIDFromContext returns the id set by LoggingMiddleware, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

var requestSeq atomic.Uint64

// newRequestID combines the current time with a process-wide counter.
func newRequestID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + "-" + strconv.FormatUint(requestSeq.Add(1), 36)
}
