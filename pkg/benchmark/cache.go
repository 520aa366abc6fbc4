package benchmark

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/NERVsystems/greenlens/pkg/footprint"
	"github.com/NERVsystems/greenlens/pkg/monitoring"
	"github.com/NERVsystems/greenlens/pkg/tracing"
)

const (
	// DefaultCacheSize bounds the number of memoized predictions.
	DefaultCacheSize = 1024

	cacheType = "benchmark_prediction"
)

type predictionKey struct {
	homeType   string
	carpetArea float64
}

// checker is implemented by predictors that can become unavailable, such as
// a Lifecycle after Stop.
type checker interface {
	Check() error
}

// CachedPredictor memoizes predictions of a deterministic predictor.
// Failed predictions are not cached. When next reports itself unavailable
// the cache is purged and the error returned, so cached values never
// outlive the model that produced them.
type CachedPredictor struct {
	next  footprint.Predictor
	check func() error
	cache *lru.Cache[predictionKey, float64]
}

// NewCachedPredictor wraps next with an LRU cache of the given size.
func NewCachedPredictor(next footprint.Predictor, size int) (*CachedPredictor, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[predictionKey, float64](size)
	if err != nil {
		return nil, fmt.Errorf("creating prediction cache: %w", err)
	}
	c := &CachedPredictor{next: next, cache: cache}
	if ch, ok := next.(checker); ok {
		c.check = ch.Check
	}
	return c, nil
}

// Predict implements footprint.Predictor.
func (c *CachedPredictor) Predict(ctx context.Context, homeType string, carpetAreaSqft float64) (float64, error) {
	if c.check != nil {
		if err := c.check(); err != nil {
			if c.cache.Len() > 0 {
				c.Purge()
			}
			return 0, err
		}
	}

	key := predictionKey{homeType: homeType, carpetArea: carpetAreaSqft}
	if v, ok := c.cache.Get(key); ok {
		monitoring.RecordCacheHit(cacheType)
		tracing.SetAttributes(ctx, attribute.Bool(tracing.AttrCacheHit, true))
		return v, nil
	}
	monitoring.RecordCacheMiss(cacheType)
	tracing.SetAttributes(ctx, attribute.Bool(tracing.AttrCacheHit, false))

	v, err := c.next.Predict(ctx, homeType, carpetAreaSqft)
	if err != nil {
		return 0, err
	}
	c.cache.Add(key, v)
	monitoring.UpdateCacheSize(cacheType, c.cache.Len())
	return v, nil
}

// Purge drops all cached predictions.
func (c *CachedPredictor) Purge() {
	c.cache.Purge()
	monitoring.UpdateCacheSize(cacheType, 0)
}

// Len returns the number of cached predictions.
func (c *CachedPredictor) Len() int {
	return c.cache.Len()
}
