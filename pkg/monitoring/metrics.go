package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Service name for metrics
	ServiceName = "greenlens"
)

// Calculation kinds used as metric labels.
const (
	KindElectricity = "electricity"
	KindTravel      = "travel"
)

var (
	// Calculation request metrics
	CalculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greenlens_calculations_total",
			Help: "Total number of footprint calculations processed",
		},
		[]string{"kind", "status"},
	)

	CalculationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "greenlens_calculation_duration_seconds",
			Help:    "Footprint calculation duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"kind"},
	)

	TokensAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greenlens_tokens_awarded_total",
			Help: "Total number of reward tokens awarded",
		},
		[]string{"kind"},
	)

	FootprintKg = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "greenlens_footprint_kg",
			Help:    "Computed CO2 footprints in kg",
			Buckets: []float64{0, 10, 25, 50, 100, 150, 250, 500, 1000},
		},
		[]string{"kind"},
	)

	ValidationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greenlens_validation_failures_total",
			Help: "Total number of rejected request bodies",
		},
		[]string{"kind", "reason"},
	)

	// Benchmark predictor metrics
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greenlens_benchmark_predictions_total",
			Help: "Total number of benchmark predictions",
		},
		[]string{"status"},
	)

	PredictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "greenlens_benchmark_prediction_duration_seconds",
			Help:    "Benchmark prediction duration in seconds",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
		},
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greenlens_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greenlens_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "greenlens_cache_size",
			Help: "Current number of items in cache",
		},
		[]string{"cache_type"},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "greenlens_rate_limit_exceeded_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greenlens_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "greenlens_system_info",
			Help: "System information",
		},
		[]string{"version", "go_version", "build_commit", "build_date"},
	)

	GoRoutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "greenlens_goroutines",
			Help: "Number of goroutines",
		},
	)

	MemoryUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "greenlens_memory_usage_bytes",
			Help: "Memory usage in bytes",
		},
	)
)

// Service health and info structures
type ServiceHealth struct {
	Service       string                 `json:"service"`
	Version       string                 `json:"version"`
	Status        string                 `json:"status"` // "healthy", "degraded", "unhealthy"
	Uptime        time.Duration          `json:"uptime"`
	UptimeSeconds int64                  `json:"uptime_seconds"`
	StartTime     time.Time              `json:"start_time,omitempty"`
	Connections   map[string]ConnStatus  `json:"connections"`
	Metrics       map[string]interface{} `json:"metrics,omitempty"`
}

type ConnStatus struct {
	Status    string `json:"status"`               // "connected", "disconnected", "error"
	Latency   int64  `json:"latency_ms,omitempty"` // Optional latency in milliseconds
	LastError string `json:"last_error,omitempty"` // Last error message if any
}

// Helper functions for common metric updates
func RecordCalculation(kind string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	CalculationsTotal.WithLabelValues(kind, status).Inc()
	CalculationDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordResult tracks the footprint and tokens of a successful calculation.
func RecordResult(kind string, footprintKg float64, tokens int) {
	FootprintKg.WithLabelValues(kind).Observe(footprintKg)
	TokensAwardedTotal.WithLabelValues(kind).Add(float64(tokens))
}

func RecordValidationFailure(kind, reason string) {
	ValidationFailuresTotal.WithLabelValues(kind, reason).Inc()
}

func RecordPrediction(duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	PredictionsTotal.WithLabelValues(status).Inc()
	PredictionDuration.Observe(duration.Seconds())
}

func RecordCacheHit(cacheType string) {
	CacheHits.WithLabelValues(cacheType).Inc()
}

func RecordCacheMiss(cacheType string) {
	CacheMisses.WithLabelValues(cacheType).Inc()
}

func UpdateCacheSize(cacheType string, size int) {
	CacheSize.WithLabelValues(cacheType).Set(float64(size))
}

func RecordRateLimitExceeded() {
	RateLimitExceeded.Inc()
}

func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
