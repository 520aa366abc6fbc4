package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/NERVsystems/greenlens/pkg/benchmark"
	"github.com/NERVsystems/greenlens/pkg/config"
	"github.com/NERVsystems/greenlens/pkg/engine"
	"github.com/NERVsystems/greenlens/pkg/footprint"
	"github.com/NERVsystems/greenlens/pkg/monitoring"
	"github.com/NERVsystems/greenlens/pkg/server"
	"github.com/NERVsystems/greenlens/pkg/tools"
	"github.com/NERVsystems/greenlens/pkg/tracing"
	ver "github.com/NERVsystems/greenlens/pkg/version"
)

// modelCheckInterval is how often the health checker checks the benchmark model.
const modelCheckInterval = 30 * time.Second

type options struct {
	cfg         config.Config
	debug       bool
	showVersion bool
	mcpStdio    bool
	baseURL     string
}

// parseFlags overlays command-line flags on cfg. Every flag defaults to the
// value already resolved from the environment.
func parseFlags(args []string, cfg *config.Config, output io.Writer) (options, error) {
	opts := options{cfg: *cfg}
	c := &opts.cfg

	fs := flag.NewFlagSet("greenlens", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.BoolVar(&opts.showVersion, "version", false, "Display version information")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	fs.StringVar(&c.Addr, "addr", c.Addr, "HTTP API address")
	fs.StringVar(&c.ModelPath, "model-path", c.ModelPath, "Path to the electricity benchmark model (.json, .yaml)")
	fs.Float64Var(&c.RateLimit, "rate-limit", c.RateLimit, "Requests per second per client IP (0 disables)")
	fs.IntVar(&c.RateBurst, "rate-burst", c.RateBurst, "Rate limit burst size")
	fs.IntVar(&c.PredictionCacheSize, "prediction-cache-size", c.PredictionCacheSize, "Benchmark prediction LRU size (0 disables)")
	fs.DurationVar(&c.ShutdownTimeout, "shutdown-timeout", c.ShutdownTimeout, "Graceful shutdown timeout")

	// Monitoring flags
	fs.BoolVar(&c.EnableMonitoring, "enable-monitoring", c.EnableMonitoring, "Enable Prometheus metrics server")
	fs.StringVar(&c.MonitoringAddr, "monitoring-addr", c.MonitoringAddr, "Monitoring server address")
	fs.StringVar(&c.OTLPEndpoint, "otlp-endpoint", c.OTLPEndpoint, "OTLP gRPC endpoint for traces (empty disables)")

	// MCP flags
	fs.BoolVar(&c.EnableMCP, "enable-mcp", c.EnableMCP, "Expose the MCP tools over SSE on the API address")
	fs.BoolVar(&opts.mcpStdio, "mcp-stdio", false, "Also serve the MCP tools over stdin/stdout")
	fs.StringVar(&opts.baseURL, "mcp-base-url", "", "Base URL advertised to MCP SSE clients")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if err := c.Validate(); err != nil {
		return options{}, err
	}
	return opts, nil
}

func newLogger(debug bool, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	opts, err := parseFlags(os.Args[1:], cfg, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	if opts.showVersion {
		fmt.Println(ver.String())
		return
	}

	logger := newLogger(opts.debug, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		logger.Error("greenlens exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// run loads the benchmark model, serves until ctx is done, then shuts the
// servers down before releasing the model.
func run(ctx context.Context, opts options, logger *slog.Logger) error {
	cfg := opts.cfg

	shutdownTracing, err := tracing.InitTracing(ctx, tracing.Config{
		Endpoint:    cfg.OTLPEndpoint,
		Environment: cfg.Environment,
		SampleRatio: cfg.TraceSampleRatio,
	}, ver.BuildVersion)
	if err != nil {
		// Continue without tracing - it's not critical
		logger.Error("failed to initialize tracing", "error", err)
	} else {
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				logger.Error("error shutting down tracing", "error", err)
			}
		}()
		if cfg.OTLPEndpoint != "" {
			logger.Info("OpenTelemetry tracing enabled", "endpoint", cfg.OTLPEndpoint)
		}
	}

	logger.Info("starting GreenLens",
		"version", ver.BuildVersion,
		"addr", cfg.Addr,
		"model_path", cfg.ModelPath,
		"rate_limit", cfg.RateLimit,
		"rate_burst", cfg.RateBurst,
		"prediction_cache_size", cfg.PredictionCacheSize,
		"monitoring_enabled", cfg.EnableMonitoring,
		"monitoring_addr", cfg.MonitoringAddr,
		"mcp_sse", cfg.EnableMCP,
		"mcp_stdio", opts.mcpStdio)

	lifecycle := benchmark.NewLifecycle(cfg.ModelPath, logger)
	if err := lifecycle.Start(ctx); err != nil {
		return err
	}
	defer lifecycle.Stop()

	predictor, err := buildPredictor(lifecycle, cfg.PredictionCacheSize)
	if err != nil {
		return err
	}
	eng := engine.New(footprint.NewService(predictor), logger)

	var mcpSrv *server.Server
	if cfg.EnableMCP || opts.mcpStdio {
		mcpSrv = server.NewServer(tools.NewRegistry(eng, logger), logger)
	}

	httpConfig := server.DefaultHTTPTransportConfig()
	httpConfig.Addr = cfg.Addr
	httpConfig.BaseURL = opts.baseURL
	httpConfig.EnableMCP = cfg.EnableMCP
	httpConfig.RateLimit = cfg.RateLimit
	httpConfig.RateBurst = cfg.RateBurst

	var transport *server.HTTPTransport
	if mcpSrv != nil {
		transport = server.NewHTTPTransport(eng, mcpSrv.GetMCPServer(), httpConfig, logger)
	} else {
		transport = server.NewHTTPTransport(eng, nil, httpConfig, logger)
	}

	healthChecker := monitoring.NewHealthChecker(monitoring.ServiceName, ver.BuildVersion)
	defer healthChecker.Shutdown()
	modelMonitor := monitoring.NewConnectionMonitor("benchmark_model", healthChecker, lifecycle.Check, modelCheckInterval)
	modelMonitor.Start()
	defer modelMonitor.Stop()
	transport.SetHealthChecker(healthChecker)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(transport.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := transport.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown HTTP transport", "error", err)
		}
		return nil
	})

	if cfg.EnableMonitoring {
		monitoringServer := newMonitoringServer(cfg.MonitoringAddr)
		g.Go(func() error {
			logger.Info("starting Prometheus metrics server", "addr", cfg.MonitoringAddr)
			if err := monitoringServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("monitoring server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := monitoringServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shutdown monitoring server", "error", err)
			}
			return nil
		})
	}

	if opts.mcpStdio {
		g.Go(func() error {
			logger.Info("transport_enabled", "type", "stdio")
			return mcpSrv.RunWithContext(gctx)
		})
	}

	logger.Info("server_ready", "addr", cfg.Addr, "model_version", lifecycle.ModelVersion())
	err = g.Wait()
	logger.Info("shutdown complete, releasing benchmark model")
	return err
}

// buildPredictor layers metrics and tracing over the lifecycle, and an LRU
// over that when size is positive.
func buildPredictor(lifecycle *benchmark.Lifecycle, size int) (footprint.Predictor, error) {
	instrumented := benchmark.Instrument(lifecycle)
	if size <= 0 {
		return instrumented, nil
	}
	return benchmark.NewCachedPredictor(instrumented, size)
}

func newMonitoringServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 30 * time.Second, // Prevent Slowloris attacks
	}
}
