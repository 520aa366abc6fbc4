package benchmark

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

var (
	// ErrNotLoaded is returned by Predict before Start succeeds or after Stop.
	ErrNotLoaded = errors.New("benchmark model not loaded")

	// ErrAlreadyStarted is returned when Start is called more than once.
	ErrAlreadyStarted = errors.New("benchmark model already started")
)

// Loader produces a model from an artifact path.
type Loader func(path string) (*LinearModel, error)

// Lifecycle owns the process-wide benchmark model. The model is loaded once
// by Start, read concurrently by Predict, and released by Stop. It is never
// reloaded.
type Lifecycle struct {
	path   string
	load   Loader
	logger *slog.Logger

	model   atomic.Pointer[LinearModel]
	mu      sync.Mutex
	started bool
}

// NewLifecycle creates a lifecycle for the artifact at path.
func NewLifecycle(path string, logger *slog.Logger) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{path: path, load: LoadFile, logger: logger}
}

// WithLoader replaces the artifact loader. It must be called before Start.
func (l *Lifecycle) WithLoader(load Loader) *Lifecycle {
	l.load = load
	return l
}

// Start loads the artifact. A failure here is fatal for the process.
func (l *Lifecycle) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started {
		return ErrAlreadyStarted
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	l.logger.Info("loading electricity benchmark model", "path", l.path)
	m, err := l.load(l.path)
	if err != nil {
		return fmt.Errorf("loading benchmark model from %s: %w", l.path, err)
	}

	l.model.Store(m)
	l.started = true
	l.logger.Info("benchmark model loaded",
		"path", l.path,
		"version", m.Version,
		"home_types", m.HomeTypes())
	return nil
}

// Stop releases the model. Predict fails with ErrNotLoaded afterwards.
func (l *Lifecycle) Stop() {
	if l.model.Swap(nil) != nil {
		l.logger.Info("benchmark model released")
	}
}

// Loaded reports whether a model is currently held.
func (l *Lifecycle) Loaded() bool {
	return l.model.Load() != nil
}

// Check returns ErrNotLoaded when no model is held. The health checker polls it.
func (l *Lifecycle) Check() error {
	if !l.Loaded() {
		return ErrNotLoaded
	}
	return nil
}

// ModelVersion returns the loaded artifact version, or "" when none is loaded.
func (l *Lifecycle) ModelVersion() string {
	if m := l.model.Load(); m != nil {
		return m.Version
	}
	return ""
}

// Predict implements footprint.Predictor using the loaded model.
func (l *Lifecycle) Predict(ctx context.Context, homeType string, carpetAreaSqft float64) (float64, error) {
	m := l.model.Load()
	if m == nil {
		return 0, ErrNotLoaded
	}
	return m.Predict(ctx, homeType, carpetAreaSqft)
}
