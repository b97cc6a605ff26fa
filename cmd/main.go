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

// ================= CLOCK =================

// ManualClock lets the demo walk through the window without sleeping.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// ================= METRICS =================
type Metrics struct {
	hits, misses, stale, revalidated, failed atomic.Int64
}

func (m *Metrics) Hit()             { m.hits.Add(1) }
func (m *Metrics) Miss()            { m.misses.Add(1) }
func (m *Metrics) Stale()           { m.stale.Add(1) }
func (m *Metrics) Revalidate()      { m.revalidated.Add(1) }
func (m *Metrics) RevalidateError() { m.failed.Add(1) }

func (m *Metrics) Print() {
	fmt.Println("\n==================== METRICS ====================")
	fmt.Printf("HITS         : %d\n", m.hits.Load())
	fmt.Printf("MISSES       : %d\n", m.misses.Load())
	fmt.Printf("STALE        : %d\n", m.stale.Load())
	fmt.Printf("REVALIDATED  : %d\n", m.revalidated.Load())
	fmt.Printf("REVAL FAILED : %d\n", m.failed.Load())
}

// ================= MAIN =================

func main() {
	ctx := context.Background()
	const key = "route:uuid"

	fmt.Println("\n==================== SYSTEM BOOT ====================")
	fmt.Println("WINDOW          : 5s")
	fmt.Println("STALE POLICY    : serve stale, revalidate in background")
	fmt.Println("GENERATOR       : UUID v4")

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := &ManualClock{now: t0}
	at := func(sec int) time.Time { return t0.Add(time.Duration(sec) * time.Second) }

	// ---------------- Generator ----------------
	var calls atomic.Int64
	var failing atomic.Bool
	uuids := generator.NewUUID()
	gen := generator.Func(func(ctx context.Context) (string, error) {
		calls.Add(1)
		if failing.Load() {
			return "", fmt.Errorf("entropy source unavailable")
		}
		return uuids.Generate(ctx)
	})

	// ---------------- Metrics ----------------
	metrics := &Metrics{}

	// ---------------- Cache Engine ----------------
	exp := &expiration.FixedWindow{Window: 5 * time.Second}
	engine := engine.NewCacheEngine(exp, gen, metrics, refresh.WithLogger(common.Discard()))
	engine.Clock = clock.Now

	c := cache.NewRevalidationCache(engine)

	show := func(sec int) {
		clock.Set(at(sec))
		res, err := c.Get(ctx, key)
		if err != nil {
			fmt.Printf("t=%ds   → ERROR %v\n", sec, err)
			return
		}
		fmt.Printf("t=%ds   → %-5s %s\n", sec, res.Status, res.Value)
	}

	// ====================================================
	fmt.Println("\n==================== 1) COLD START ====================")
	show(0)

	// ====================================================
	fmt.Println("\n==================== 2) FRESH HIT ====================")
	show(3)

	// ====================================================
	fmt.Println("\n==================== 3) STALE, REVALIDATE ====================")
	show(6)
	c.Wait()
	show(7)

	// ====================================================
	fmt.Println("\n==================== 4) SINGLE-FLIGHT ====================")
	clock.Set(at(13))
	before := calls.Load()
	wg := sync.WaitGroup{}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			res, _ := c.Get(ctx, key)
			fmt.Printf("GOROUTINE-%d → %-5s %s\n", id, res.Status, res.Value)
		}(i)
	}
	wg.Wait()
	c.Wait()
	fmt.Println("GENERATOR CALLS :", calls.Load()-before)

	// ====================================================
	fmt.Println("\n==================== 5) REVALIDATION FAILURE ====================")
	failing.Store(true)
	show(19)
	c.Wait()
	show(20)
	c.Wait()
	failing.Store(false)
	show(21)
	c.Wait()
	show(22)

	// ====================================================
	fmt.Println("\n==================== 6) COLD START FAILURE ====================")
	c.Remove(key)
	failing.Store(true)
	show(30)
	failing.Store(false)

	// ====================================================
	metrics.Print()

	// ====================================================
	fmt.Println("\n==================== SHUTDOWN ====================")
	c.Close()
	fmt.Println("SYSTEM → cache closed cleanly")
}
