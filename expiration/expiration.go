// This file defines when a cached value stops being fresh.

package expiration

import (
	"time"

	"github.com/krisalay/isr-cache/types"
)

/*
Strategy is the interface that all staleness rules must follow. Instead of hard-coding
the window into the cache, we define a strategy so the rule can be swapped easily.

A stale value is still served. Staleness only decides whether a
revalidation is requested.
*/
type Strategy interface {

	// IsStale checks if the value needs to be recomputed at the given instant.
	IsStale(*types.CachedValue, time.Time) bool

	// MaxAge is the freshness lifetime advertised to HTTP intermediaries.
	MaxAge() time.Duration
}
