package engine

import (
	"context"
	"time"

	"github.com/krisalay/isr-cache/expiration"
	"github.com/krisalay/isr-cache/generator"
	"github.com/krisalay/isr-cache/refresh"
	"github.com/krisalay/isr-cache/types"
)

// DefaultGenerateTimeout bounds a cold-start generation.
const DefaultGenerateTimeout = 2 * time.Second

/*
CacheEngine is the "brain" of the cache system.
It is responsible for the "behavior" of the cache, NOT storage.
This acts as the policy layer.

It decides:
- When a value is stale
- What happens on a stale read (the refresh hook)
- How a value is produced on a cold start
- How metrics are recorded

It does NOT:
- Store data
- Handle locking
- Coalesce concurrent cold starts
*/
type CacheEngine struct {

	// Expiration controls when a value should be considered stale.
	// Example: recompute 5 seconds after the value was generated.
	// If this is nil, values never go stale.
	Expiration expiration.Strategy

	// Refresh is the hook that runs when a stale value is served.
	// This is where the background recomputation is triggered
	// without blocking the current request.
	// Required. NewCacheEngine builds it from Generator.
	Refresh refresh.Hook

	// Generator produces a new value when nothing is cached.
	Generator types.Generator

	// Metrics is how we keep track of what the cache is doing.
	// Hits, misses, stale reads, revalidations.
	Metrics types.Metrics

	// Timeout bounds a cold-start generation. Zero means no bound.
	Timeout time.Duration

	// Clock returns the current time. Tests replace it.
	Clock func() time.Time
}

/*
NewCacheEngine creates a CacheEngine.

BEHAVIOR:
---------
- The refresh hook is a refresh.Revalidator over gen, so cold starts and
  revalidations draw values from the same generator
- The revalidator records into metrics and stamps values with the engine clock
- opts configure the revalidator (timeout, logger) and are applied last
*/
func NewCacheEngine(
	exp expiration.Strategy,
	gen types.Generator,
	metrics types.Metrics,
	opts ...refresh.Option,
) *CacheEngine {

	// Ensure metrics is always non-nil
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}

	e := &CacheEngine{
		Expiration: exp,
		Generator:  gen,
		Metrics:    metrics,
		Timeout:    DefaultGenerateTimeout,
		Clock:      time.Now,
	}

	// e.Now reads Clock on every call, so replacing Clock later also
	// moves the revalidator's clock.
	opts = append([]refresh.Option{
		refresh.WithMetrics(metrics),
		refresh.WithClock(e.Now),
	}, opts...)
	e.Refresh = refresh.NewRevalidator(gen, opts...)

	return e
}

// Now returns the engine's notion of the current time.
func (e *CacheEngine) Now() time.Time {
	if e.Clock == nil {
		return time.Now()
	}
	return e.Clock()
}

/*
IsStale checks whether a cached value needs to be recomputed.

BEHAVIOR:
---------
- Delegates the decision to the configured Expiration strategy
- Returns false if no expiration strategy is configured
*/
func (e *CacheEngine) IsStale(ent *types.CachedValue, now time.Time) bool {
	return e.Expiration != nil &&
		e.Expiration.IsStale(ent, now)
}

// MaxAge is the freshness lifetime of a value, zero when values never go stale.
func (e *CacheEngine) MaxAge() time.Duration {
	if e.Expiration == nil {
		return 0
	}
	return e.Expiration.MaxAge()
}

/*
OnStale is called every time the cache serves a stale value.
Refresh is best-effort. It should never slow down the read path.
*/
func (e *CacheEngine) OnStale(key string, ent *types.CachedValue, target refresh.Target) {
	e.Metrics.Stale()
	e.Refresh.OnStale(key, ent, target)
}

/*
Generate is used when the cache does NOT have a value at all.
The caller is waiting, so the call is bounded by Timeout.
*/
func (e *CacheEngine) Generate(ctx context.Context) (string, error) {
	return generator.Within(ctx, e.Generator, e.Timeout)
}

// Wait blocks until background revalidations have finished.
func (e *CacheEngine) Wait() {
	e.Refresh.Wait()
}
