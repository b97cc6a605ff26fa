package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/krisalay/isr-cache/engine"
	"github.com/krisalay/isr-cache/store"
	"github.com/krisalay/isr-cache/types"
)

/*
RevalidationCache is the main cache implementation.
This struct is the orchestrator that connects:
- storage of one immutable value per key
- the staleness window
- the stale-while-revalidate hook
- cold-start generation
- metrics
*/
type RevalidationCache struct {
	// store holds the current value per key. Reads are lock-free.
	store store.Store

	// engine contains the "rules" of the cache: window, refresh, generator, metrics.
	engine *engine.CacheEngine

	// sf makes concurrent cold starts for one key share a single generation.
	sf singleflight.Group
}

func NewRevalidationCache(engine *engine.CacheEngine) *RevalidationCache {
	return &RevalidationCache{
		store:  store.NewCOWStore(),
		engine: engine,
	}
}

/*
Get retrieves a value using the engine clock.
*/
func (c *RevalidationCache) Get(ctx context.Context, key string) (types.Result, error) {
	return c.GetAt(ctx, key, c.engine.Now())
}

/*
GetAt retrieves a value as seen at instant now.
*/
func (c *RevalidationCache) GetAt(ctx context.Context, key string, now time.Time) (types.Result, error) {

	if ent, ok := c.store.Get(key); ok {
		return c.cached(key, ent, now), nil
	}

	// Cold start
	c.engine.Metrics.Miss()

	/*
		singleflight ensures that:
		- If 100 goroutines hit an empty key at the same time,
		  only ONE of them runs the generator.
		- Others wait for the result.

		The shared generation is detached from the caller that started it,
		so one caller going away does not fail the others. It is still
		bounded by the engine timeout. Each caller waits on its own ctx.
	*/
	genCtx := context.WithoutCancel(ctx)
	ch := c.sf.DoChan(key, func() (any, error) {
		// A goroutine that lost the race to the previous flight may get here
		// after the value was stored.
		if ent, ok := c.store.Get(key); ok {
			return coldStart{ent: ent}, nil
		}

		val, err := c.engine.Generate(genCtx)
		if err != nil {
			return nil, err
		}

		ent := &types.CachedValue{
			Key:        key,
			Value:      val,
			ComputedAt: now,
		}
		if !c.store.CompareAndSwap(key, nil, ent) {
			// Someone stored a value while we generated. Keep theirs.
			if cur, ok := c.store.Get(key); ok {
				return coldStart{ent: cur}, nil
			}
		}
		return coldStart{ent: ent, generated: true}, nil
	})

	select {
	case <-ctx.Done():
		return types.Result{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return types.Result{}, r.Err
		}
		cs := r.Val.(coldStart)
		if !cs.generated {
			// Not ours: label it like any stored value, revalidating if stale.
			return c.cached(key, cs.ent, now), nil
		}
		return result(cs.ent, types.StatusMiss), nil
	}
}

// coldStart is what a shared cold-start flight hands to every waiter.
type coldStart struct {
	ent       *types.CachedValue
	generated bool
}

// cached serves a stored value: HIT when fresh, STALE plus a background
// revalidation otherwise.
func (c *RevalidationCache) cached(key string, ent *types.CachedValue, now time.Time) types.Result {
	if !c.engine.IsStale(ent, now) {
		c.engine.Metrics.Hit()
		return result(ent, types.StatusFresh)
	}

	// Stale: hand the value back right away and let the hook
	// recompute in the background.
	c.engine.OnStale(key, ent, c.store)
	return result(ent, types.StatusStale)
}

/*
Peek returns the stored value without generating, revalidating or counting.
*/
func (c *RevalidationCache) Peek(key string) (types.CachedValue, bool) {
	ent, ok := c.store.Get(key)
	if !ok {
		return types.CachedValue{}, false
	}
	return *ent, true
}

/*
Remove deletes a key from the cache immediately.
*/
func (c *RevalidationCache) Remove(key string) {
	c.store.Delete(key)
}

func (c *RevalidationCache) MaxAge() time.Duration {
	return c.engine.MaxAge()
}

func (c *RevalidationCache) Wait() {
	c.engine.Wait()
}

/*
Close gracefully shuts down the cache.
Pending recomputations are allowed to finish so their goroutines do not outlive the cache.
*/
func (c *RevalidationCache) Close() {
	c.engine.Wait()
}

func result(ent *types.CachedValue, status types.Status) types.Result {
	return types.Result{
		Value:      ent.Value,
		ComputedAt: ent.ComputedAt,
		Status:     status,
	}
}
