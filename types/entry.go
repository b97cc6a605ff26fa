package types

import "time"

// CachedValue is immutable once stored.
// A recomputation never edits a record in place, it publishes a new one,
// so Value and ComputedAt always change together.
type CachedValue struct {
	Key        string
	Value      string
	ComputedAt time.Time
}

// Status describes how a read was served.
type Status string

const (
	// StatusFresh means the cached value was inside its window.
	StatusFresh Status = "HIT"

	// StatusStale means the window had elapsed. The old value was returned
	// and a background revalidation was requested.
	StatusStale Status = "STALE"

	// StatusMiss means nothing was cached and the value was computed
	// synchronously for this request.
	StatusMiss Status = "MISS"
)

// Result is what a cache read hands back to its caller.
type Result struct {
	Value      string
	ComputedAt time.Time
	Status     Status
}
