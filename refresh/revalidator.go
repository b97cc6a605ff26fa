package refresh

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/krisalay/isr-cache/generator"
	"github.com/krisalay/isr-cache/internal/common"
	"github.com/krisalay/isr-cache/types"
)

// DefaultTimeout bounds one background recomputation.
const DefaultTimeout = 2 * time.Second

/*
Revalidator is the stale-while-revalidate Hook.

On a stale read it tries to take the revalidation token for that key:
- token taken → recompute in a goroutine, then commit with compare-and-swap
- token busy → another recomputation is already running, return at once

So any number of concurrent stale reads for one key produce exactly one
recomputation. A failed or timed-out recomputation leaves the stale value
in place and releases the token; the next stale read tries again.
*/
type Revalidator struct {
	gen     types.Generator
	timeout time.Duration
	now     func() time.Time
	metrics types.Metrics
	logger  *slog.Logger

	mu     sync.Mutex
	tokens map[string]*semaphore.Weighted

	wg sync.WaitGroup
}

type Option func(*Revalidator)

// WithTimeout sets how long one recomputation may take. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(r *Revalidator) { r.timeout = d }
}

// WithClock sets the clock used to stamp recomputed values.
func WithClock(now func() time.Time) Option {
	return func(r *Revalidator) { r.now = now }
}

func WithMetrics(m types.Metrics) Option {
	return func(r *Revalidator) {
		if m != nil {
			r.metrics = m
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Revalidator) {
		if l != nil {
			r.logger = l
		}
	}
}

func NewRevalidator(gen types.Generator, opts ...Option) *Revalidator {
	r := &Revalidator{
		gen:     gen,
		timeout: DefaultTimeout,
		now:     time.Now,
		metrics: types.NoopMetrics{},
		logger:  common.Logger(),
		tokens:  make(map[string]*semaphore.Weighted),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Revalidator) OnStale(key string, stale *types.CachedValue, target Target) {
	tok := r.token(key)
	if !tok.TryAcquire(1) {
		r.logger.Debug("revalidate: already in flight", "key", key)
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer tok.Release(1)
		r.revalidate(key, stale, target)
	}()
}

func (r *Revalidator) Wait() {
	r.wg.Wait()
}

func (r *Revalidator) token(key string) *semaphore.Weighted {
	r.mu.Lock()
	defer r.mu.Unlock()

	tok, ok := r.tokens[key]
	if !ok {
		tok = semaphore.NewWeighted(1)
		r.tokens[key] = tok
	}
	return tok
}

func (r *Revalidator) revalidate(key string, stale *types.CachedValue, target Target) {
	// A reader that saw the stale value just before the previous
	// recomputation committed can arrive here late. Nothing to do then.
	if cur, ok := target.Get(key); !ok || cur != stale {
		r.logger.Debug("revalidate: value already superseded", "key", key)
		return
	}

	start := time.Now()
	val, err := generator.Within(context.Background(), r.gen, r.timeout)
	if err != nil {
		r.metrics.RevalidateError()
		r.logger.Warn("revalidate: keeping stale value", "key", key, "error", err)
		return
	}

	fresh := &types.CachedValue{
		Key:        key,
		Value:      val,
		ComputedAt: r.now(),
	}
	if !target.CompareAndSwap(key, stale, fresh) {
		r.logger.Debug("revalidate: value replaced concurrently, dropping result", "key", key)
		return
	}

	r.metrics.Revalidate()
	r.logger.Debug("revalidate: value replaced", "key", key, "took", time.Since(start))
}
