package expiration

import (
	"time"

	"github.com/krisalay/isr-cache/types"
)

/*
FixedWindow implements time-based revalidation: a value is fresh for Window
after it was computed, no matter how often it is read. Reads never push the
deadline forward.

The boundary instant is stale:

	now - ComputedAt <  Window → fresh
	now - ComputedAt >= Window → stale
*/
type FixedWindow struct {

	// Window is how long a computed value stays fresh.
	// Zero or negative makes every read stale.
	Window time.Duration
}

// IsStale reports whether ent has reached the end of its window at now.
func (f *FixedWindow) IsStale(ent *types.CachedValue, now time.Time) bool {
	return now.Sub(ent.ComputedAt) >= f.Window
}

func (f *FixedWindow) MaxAge() time.Duration {
	if f.Window < 0 {
		return 0
	}
	return f.Window
}
