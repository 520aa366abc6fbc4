// Package config resolves GreenLens settings from .env files and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names
const (
	EnvAddr                = "GREENLENS_ADDR"
	EnvModelPath           = "GREENLENS_MODEL_PATH"
	EnvMonitoringAddr      = "GREENLENS_MONITORING_ADDR"
	EnvEnableMonitoring    = "GREENLENS_ENABLE_MONITORING"
	EnvRateLimit           = "GREENLENS_RATE_LIMIT"
	EnvRateBurst           = "GREENLENS_RATE_BURST"
	EnvPredictionCacheSize = "GREENLENS_PREDICTION_CACHE_SIZE"
	EnvEnableMCP           = "GREENLENS_ENABLE_MCP"
	EnvShutdownTimeout     = "GREENLENS_SHUTDOWN_TIMEOUT"
	EnvEnvironment         = "ENVIRONMENT"
	EnvOTLPEndpoint        = "OTLP_ENDPOINT"
	EnvTraceSampleRatio    = "OTLP_SAMPLE_RATIO"
)

// Default values
const (
	DefaultAddr                = ":8000"
	DefaultModelPath           = "models/electricity_benchmark_model.json"
	DefaultMonitoringAddr      = ":9090"
	DefaultRateLimit           = 10.0
	DefaultRateBurst           = 20
	DefaultPredictionCacheSize = 1024
	DefaultShutdownTimeout     = 10 * time.Second
	DefaultEnvironment         = "development"
	DefaultTraceSampleRatio    = 1.0
)

// Config holds the service configuration.
type Config struct {
	Addr                string
	ModelPath           string
	MonitoringAddr      string
	EnableMonitoring    bool
	RateLimit           float64
	RateBurst           int
	PredictionCacheSize int
	EnableMCP           bool
	ShutdownTimeout     time.Duration
	Environment         string
	OTLPEndpoint        string
	TraceSampleRatio    float64
}

// Load reads an optional .env file from the working directory, then the
// environment. Variables already set in the environment win over the file.
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom is Load with explicit .env paths. Missing files are skipped.
func LoadFrom(envFiles ...string) (*Config, error) {
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	cfg := &Config{
		Addr:                getEnvString(EnvAddr, DefaultAddr),
		ModelPath:           getEnvString(EnvModelPath, DefaultModelPath),
		MonitoringAddr:      getEnvString(EnvMonitoringAddr, DefaultMonitoringAddr),
		EnableMonitoring:    getEnvBool(EnvEnableMonitoring, true),
		RateLimit:           getEnvFloat(EnvRateLimit, DefaultRateLimit),
		RateBurst:           getEnvInt(EnvRateBurst, DefaultRateBurst),
		PredictionCacheSize: getEnvInt(EnvPredictionCacheSize, DefaultPredictionCacheSize),
		EnableMCP:           getEnvBool(EnvEnableMCP, false),
		ShutdownTimeout:     getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),
		Environment:         getEnvString(EnvEnvironment, DefaultEnvironment),
		OTLPEndpoint:        os.Getenv(EnvOTLPEndpoint),
		TraceSampleRatio:    getEnvFloat(EnvTraceSampleRatio, DefaultTraceSampleRatio),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("listen address must not be empty"))
	}
	if c.ModelPath == "" {
		errs = append(errs, errors.New("model path must not be empty"))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate limit must be >= 0, got %g", c.RateLimit))
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		errs = append(errs, fmt.Errorf("rate burst must be >= 1 when rate limiting, got %d", c.RateBurst))
	}
	if c.PredictionCacheSize < 0 {
		errs = append(errs, fmt.Errorf("prediction cache size must be >= 0, got %d", c.PredictionCacheSize))
	}
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		errs = append(errs, fmt.Errorf("trace sample ratio must be within [0, 1], got %g", c.TraceSampleRatio))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout))
	}
	return errors.Join(errs...)
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s" or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
