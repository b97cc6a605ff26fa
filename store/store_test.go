package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/krisalay/isr-cache/types"
)

func TestGetDelete(t *testing.T) {
	s := NewCOWStore()

	_, ok := s.Get("k")
	require.False(t, ok)

	v := &types.CachedValue{Key: "k", Value: "a", ComputedAt: time.Now()}
	require.True(t, s.CompareAndSwap("k", nil, v))

	got, ok := s.Get("k")
	require.True(t, ok)
	require.Same(t, v, got)
	require.EqualValues(t, 1, s.Size())

	s.Delete("k")
	s.Delete("k")
	_, ok = s.Get("k")
	require.False(t, ok)
	require.EqualValues(t, 0, s.Size())
}

func TestCompareAndSwap(t *testing.T) {
	s := NewCOWStore()
	a := &types.CachedValue{Key: "k", Value: "a"}
	b := &types.CachedValue{Key: "k", Value: "b"}
	c := &types.CachedValue{Key: "k", Value: "c"}

	require.True(t, s.CompareAndSwap("k", nil, a), "empty slot swaps against nil")
	require.False(t, s.CompareAndSwap("k", nil, b), "occupied slot does not swap against nil")

	require.True(t, s.CompareAndSwap("k", a, b))
	require.False(t, s.CompareAndSwap("k", a, c), "stale expectation must fail")

	// Equal contents are not enough; identity is what counts.
	copyOfB := *b
	require.False(t, s.CompareAndSwap("k", &copyOfB, c))

	got, _ := s.Get("k")
	require.Same(t, b, got)
}

func TestSnapshotIsolation(t *testing.T) {
	s := NewCOWStore()
	a := &types.CachedValue{Key: "k", Value: "a"}
	require.True(t, s.CompareAndSwap("k", nil, a))

	held, _ := s.Get("k")
	require.True(t, s.CompareAndSwap("k", a, &types.CachedValue{Key: "k", Value: "b"}))

	require.Equal(t, "a", held.Value, "a reader keeps the record it loaded")
}

func TestConcurrentCompareAndSwapOneWinner(t *testing.T) {
	s := NewCOWStore()
	old := &types.CachedValue{Key: "k", Value: "old"}
	require.True(t, s.CompareAndSwap("k", nil, old))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.CompareAndSwap("k", old, &types.CachedValue{Key: "k", Value: "new"}) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, wins)
}
