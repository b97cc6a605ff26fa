package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	cache "github.com/krisalay/isr-cache"
	"github.com/krisalay/isr-cache/engine"
	"github.com/krisalay/isr-cache/expiration"
	"github.com/krisalay/isr-cache/generator"
	"github.com/krisalay/isr-cache/internal/common"
	"github.com/krisalay/isr-cache/refresh"
)

// ================= METRICS =================

type Metrics struct {
	hits, misses, stale, revalidated, failed atomic.Int64
}

func (m *Metrics) Hit()             { m.hits.Add(1) }
func (m *Metrics) Miss()            { m.misses.Add(1) }
func (m *Metrics) Stale()           { m.stale.Add(1) }
func (m *Metrics) Revalidate()      { m.revalidated.Add(1) }
func (m *Metrics) RevalidateError() { m.failed.Add(1) }

// ================= BENCHMARK =================

func main() {
	ctx := context.Background()

	fmt.Println("\n================ REVALIDATION LOAD BENCHMARK =================")

	// ---------------- Cache Config ----------------
	const (
		window     = 20 * time.Millisecond
		genLatency = 2 * time.Millisecond
		goroutines = 200
		opsPerG    = 5000
		key        = "route:uuid"
	)

	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Window       :", window)
	fmt.Println("Gen latency  :", genLatency)
	fmt.Println("Goroutines   :", goroutines)
	fmt.Println("Ops/Goroutine:", opsPerG)
	fmt.Println("---------------------------------")

	// ---------------- Generator ----------------
	var calls atomic.Int64
	uuids := generator.NewUUID()
	gen := generator.Func(func(ctx context.Context) (string, error) {
		calls.Add(1)
		time.Sleep(genLatency)
		return uuids.Generate(ctx)
	})

	// ---------------- Cache Engine ----------------
	metrics := &Metrics{}
	engine := engine.NewCacheEngine(
		&expiration.FixedWindow{Window: window},
		gen,
		metrics,
		refresh.WithLogger(common.Discard()),
	)
	c := cache.NewRevalidationCache(engine)

	// ---------------- Load Test ----------------
	fmt.Println("Running concurrency benchmark...")

	start := time.Now()

	wg := sync.WaitGroup{}
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < opsPerG; j++ {
				c.Get(ctx, key)
			}
		}(i)
	}

	wg.Wait()

	duration := time.Since(start)
	c.Close()
	totalOps := goroutines * opsPerG

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %d\n", totalOps)
	fmt.Printf("Total Time       : %v\n", duration)
	fmt.Printf("Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Printf("Hits / Stale     : %d / %d\n", metrics.hits.Load(), metrics.stale.Load())
	fmt.Printf("Cold starts      : %d\n", metrics.misses.Load())
	fmt.Printf("Revalidations    : %d\n", metrics.revalidated.Load())
	fmt.Printf("Generator calls  : %d\n", calls.Load())
	fmt.Printf("Windows elapsed  : ~%d\n", int64(duration/window))
	fmt.Println("=========================================")
}
