package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"golang.org/x/time/rate"

	"github.com/NERVsystems/greenlens/pkg/core"
	"github.com/NERVsystems/greenlens/pkg/engine"
	"github.com/NERVsystems/greenlens/pkg/monitoring"
)

// HTTPTransportConfig holds configuration for the HTTP transport
type HTTPTransportConfig struct {
	Addr           string  `json:"addr"`             // HTTP server address (e.g., ":8000")
	BaseURL        string  `json:"base_url"`         // Base URL advertised to MCP SSE clients
	EnableMCP      bool    `json:"enable_mcp"`       // Mount the MCP SSE endpoints
	SSEEndpoint    string  `json:"sse_endpoint"`     // SSE endpoint path (default: "/sse")
	MsgEndpoint    string  `json:"msg_endpoint"`     // Message endpoint path (default: "/message")
	RateLimit      float64 `json:"rate_limit"`       // Requests per second per IP (0 = disabled)
	RateBurst      int     `json:"rate_burst"`       // Burst size for rate limiter
	MaxRequestSize int64   `json:"max_request_size"` // Maximum request body size in bytes
	MaxHeaderBytes int     `json:"max_header_bytes"` // Maximum header size in bytes
}

// DefaultHTTPTransportConfig returns sensible defaults
func DefaultHTTPTransportConfig() HTTPTransportConfig {
	return HTTPTransportConfig{
		Addr:           ":8000",
		SSEEndpoint:    "/sse",
		MsgEndpoint:    "/message",
		RateLimit:      10,
		RateBurst:      20,
		MaxRequestSize: 1 << 20, // 1 MB
		MaxHeaderBytes: 1 << 20, // 1 MB
	}
}

// HTTPTransport serves the footprint API and, optionally, MCP over SSE.
type HTTPTransport struct {
	config        HTTPTransportConfig
	logger        *slog.Logger
	engine        *engine.Engine
	sseServer     *mcpserver.SSEServer
	mux           *http.ServeMux
	httpSrv       *http.Server
	rateLimiter   *RateLimiter
	healthChecker *monitoring.HealthChecker
	closed        bool
	mu            sync.RWMutex
}

// NewHTTPTransport creates a new HTTP transport instance. mcpServer may be
// nil when EnableMCP is false.
func NewHTTPTransport(eng *engine.Engine, mcpServer *mcpserver.MCPServer, config HTTPTransportConfig, logger *slog.Logger) *HTTPTransport {
	if logger == nil {
		logger = slog.Default()
	}

	transport := &HTTPTransport{
		config: config,
		logger: logger,
		engine: eng,
		mux:    http.NewServeMux(),
	}

	if config.EnableMCP && mcpServer != nil {
		transport.sseServer = mcpserver.NewSSEServer(
			mcpServer,
			mcpserver.WithSSEEndpoint(config.SSEEndpoint),
			mcpserver.WithMessageEndpoint(config.MsgEndpoint),
			mcpserver.WithBaseURL(config.BaseURL),
		)
	}

	if config.RateLimit > 0 {
		transport.rateLimiter = NewRateLimiter(rate.Limit(config.RateLimit), config.RateBurst, DefaultMaxClients)
	}

	transport.setupRoutes()

	return transport
}

// SetHealthChecker sets the health checker for the HTTP transport
func (t *HTTPTransport) SetHealthChecker(hc *monitoring.HealthChecker) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.healthChecker = hc
}

// setupRoutes configures all HTTP routes
func (t *HTTPTransport) setupRoutes() {
	t.mux.HandleFunc("/", t.handleRoot)
	t.mux.HandleFunc("/calculate-electricity", t.handleCalculateElectricity)
	t.mux.HandleFunc("/calculate-travel", t.handleCalculateTravel)

	t.mux.HandleFunc("/health", t.handleHealth)
	t.mux.HandleFunc("/ready", t.handleReady)
	t.mux.HandleFunc("/live", t.handleLive)

	if t.sseServer != nil {
		t.mux.Handle(t.config.SSEEndpoint, t.sseServer.SSEHandler())
		t.mux.Handle(t.config.MsgEndpoint, t.sseServer.MessageHandler())
	}
}

// Handler returns the routed mux wrapped in the middleware chain.
func (t *HTTPTransport) Handler() http.Handler {
	handler := http.Handler(t.mux)
	if t.rateLimiter != nil {
		handler = t.rateLimiter.Middleware(handler)
	}
	if t.config.MaxRequestSize > 0 {
		handler = RequestSizeLimiter(t.config.MaxRequestSize)(handler)
	}
	handler = SecurityHeaders(handler)
	handler = LoggingMiddleware(t.logger)(handler)
	handler = TracingMiddleware()(handler)
	return handler
}

// handleHealth provides comprehensive health check endpoint
func (t *HTTPTransport) handleHealth(w http.ResponseWriter, r *http.Request) {
	t.serveHealth(w, r, func(hc *monitoring.HealthChecker) http.HandlerFunc { return hc.HealthHandler() },
		map[string]any{"status": "ok"})
}

// handleReady provides Kubernetes-style readiness check
func (t *HTTPTransport) handleReady(w http.ResponseWriter, r *http.Request) {
	t.serveHealth(w, r, func(hc *monitoring.HealthChecker) http.HandlerFunc { return hc.ReadinessHandler() },
		map[string]any{"ready": true, "status": "ok"})
}

// handleLive provides Kubernetes-style liveness check
func (t *HTTPTransport) handleLive(w http.ResponseWriter, r *http.Request) {
	t.serveHealth(w, r, func(hc *monitoring.HealthChecker) http.HandlerFunc { return hc.LivenessHandler() },
		map[string]any{"alive": true})
}

// serveHealth delegates to the health checker, or answers with fallback when none is set.
func (t *HTTPTransport) serveHealth(w http.ResponseWriter, r *http.Request, handler func(*monitoring.HealthChecker) http.HandlerFunc, fallback map[string]any) {
	if r.Method != http.MethodGet {
		t.writeError(w, methodNotAllowed(w, http.MethodGet))
		return
	}

	t.mu.RLock()
	hc := t.healthChecker
	t.mu.RUnlock()

	if hc != nil {
		handler(hc)(w, r)
		return
	}
	t.writeJSON(w, http.StatusOK, fallback)
}

// Start begins serving HTTP requests
func (t *HTTPTransport) Start() error {
	t.mu.Lock()

	if t.closed {
		t.mu.Unlock()
		return nil
	}

	if t.httpSrv != nil {
		t.mu.Unlock()
		return core.NewError(core.ErrInternalError, "HTTP transport already started").
			WithGuidance("The HTTP transport is already running. Stop it before starting again.")
	}

	t.httpSrv = &http.Server{
		Addr:           t.config.Addr,
		Handler:        t.Handler(),
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: t.config.MaxHeaderBytes,
	}
	srv := t.httpSrv

	t.logger.Info("starting HTTP transport",
		"addr", t.config.Addr,
		"mcp_enabled", t.sseServer != nil,
		"sse_endpoint", t.config.SSEEndpoint,
		"message_endpoint", t.config.MsgEndpoint,
		"rate_limit", t.config.RateLimit,
		"rate_burst", t.config.RateBurst)

	t.mu.Unlock() // Release lock before blocking call

	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP transport. A transport that has been
// shut down cannot be started again.
func (t *HTTPTransport) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true

	if t.httpSrv == nil {
		return nil
	}

	t.logger.Info("shutting down HTTP transport")

	if t.sseServer != nil {
		if err := t.sseServer.Shutdown(ctx); err != nil {
			t.logger.Error("failed to shutdown SSE server", "error", err)
		}
	}

	err := t.httpSrv.Shutdown(ctx)
	t.httpSrv = nil
	return err
}

// GetConfig returns the transport configuration
func (t *HTTPTransport) GetConfig() HTTPTransportConfig {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.config
}
