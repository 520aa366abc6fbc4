package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allEnv = []string{
	EnvAddr, EnvModelPath, EnvMonitoringAddr, EnvEnableMonitoring, EnvRateLimit,
	EnvRateBurst, EnvPredictionCacheSize, EnvEnableMCP, EnvShutdownTimeout,
	EnvEnvironment, EnvOTLPEndpoint, EnvTraceSampleRatio,
}

// clearEnv blanks every variable so host settings do not leak into tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnv {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, DefaultModelPath, cfg.ModelPath)
	assert.Equal(t, DefaultMonitoringAddr, cfg.MonitoringAddr)
	assert.True(t, cfg.EnableMonitoring)
	assert.Equal(t, DefaultRateLimit, cfg.RateLimit)
	assert.Equal(t, DefaultRateBurst, cfg.RateBurst)
	assert.Equal(t, DefaultPredictionCacheSize, cfg.PredictionCacheSize)
	assert.False(t, cfg.EnableMCP)
	assert.Equal(t, DefaultShutdownTimeout, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.OTLPEndpoint)
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAddr, ":18000")
	t.Setenv(EnvModelPath, "/srv/model.yaml")
	t.Setenv(EnvRateLimit, "2.5")
	t.Setenv(EnvRateBurst, "4")
	t.Setenv(EnvPredictionCacheSize, "0")
	t.Setenv(EnvEnableMCP, "true")
	t.Setenv(EnvShutdownTimeout, "3")
	t.Setenv(EnvOTLPEndpoint, "collector:4317")

	cfg, err := LoadFrom()
	require.NoError(t, err)

	assert.Equal(t, ":18000", cfg.Addr)
	assert.Equal(t, "/srv/model.yaml", cfg.ModelPath)
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.Equal(t, 4, cfg.RateBurst)
	assert.Equal(t, 0, cfg.PredictionCacheSize)
	assert.True(t, cfg.EnableMCP)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "collector:4317", cfg.OTLPEndpoint)
}

func TestLoadFromDotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides variables that are already set, even to "".
	require.NoError(t, os.Unsetenv(EnvAddr))
	require.NoError(t, os.Unsetenv(EnvRateBurst))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GREENLENS_ADDR=:7000\nGREENLENS_RATE_BURST=7\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv(EnvAddr)
		_ = os.Unsetenv(EnvRateBurst)
	})

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, 7, cfg.RateBurst)
}

func TestLoadIgnoresUnparseableValues(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvRateBurst, "lots")
	t.Setenv(EnvEnableMonitoring, "maybe")

	cfg, err := LoadFrom()
	require.NoError(t, err)
	assert.Equal(t, DefaultRateBurst, cfg.RateBurst)
	assert.True(t, cfg.EnableMonitoring)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Addr:             ":8000",
			ModelPath:        DefaultModelPath,
			RateLimit:        10,
			RateBurst:        20,
			ShutdownTimeout:  time.Second,
			TraceSampleRatio: 1,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"rate limiting disabled", func(c *Config) { c.RateLimit = 0; c.RateBurst = 0 }, ""},
		{"empty addr", func(c *Config) { c.Addr = "" }, "listen address"},
		{"empty model path", func(c *Config) { c.ModelPath = "" }, "model path"},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }, "rate limit"},
		{"zero burst", func(c *Config) { c.RateBurst = 0 }, "rate burst"},
		{"negative cache", func(c *Config) { c.PredictionCacheSize = -1 }, "cache size"},
		{"sample ratio", func(c *Config) { c.TraceSampleRatio = 2 }, "sample ratio"},
		{"shutdown timeout", func(c *Config) { c.ShutdownTimeout = 0 }, "shutdown timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
