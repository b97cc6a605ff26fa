package expiration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/krisalay/isr-cache/types"
)

func TestFixedWindow(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ent := &types.CachedValue{Value: "v", ComputedAt: t0}
	w := &FixedWindow{Window: 5 * time.Second}

	tests := []struct {
		name  string
		now   time.Time
		stale bool
	}{
		{"at compute time", t0, false},
		{"inside window", t0.Add(3 * time.Second), false},
		{"one tick before boundary", t0.Add(5*time.Second - time.Nanosecond), false},
		{"at boundary", t0.Add(5 * time.Second), true},
		{"after window", t0.Add(6 * time.Second), true},
		{"clock behind compute time", t0.Add(-time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.stale, w.IsStale(ent, tt.now))
		})
	}
}

func TestFixedWindowReadsDoNotExtend(t *testing.T) {
	t0 := time.Now()
	ent := &types.CachedValue{ComputedAt: t0}
	w := &FixedWindow{Window: time.Second}

	for i := 0; i < 10; i++ {
		w.IsStale(ent, t0.Add(500*time.Millisecond))
	}
	require.True(t, w.IsStale(ent, t0.Add(time.Second)))
	require.Equal(t, t0, ent.ComputedAt)
}

func TestFixedWindowZeroIsAlwaysStale(t *testing.T) {
	t0 := time.Now()
	w := &FixedWindow{}

	require.True(t, w.IsStale(&types.CachedValue{ComputedAt: t0}, t0))
	require.Equal(t, time.Duration(0), w.MaxAge())
	require.Equal(t, time.Duration(0), (&FixedWindow{Window: -time.Second}).MaxAge())
	require.Equal(t, 5*time.Second, (&FixedWindow{Window: 5 * time.Second}).MaxAge())
}
