package cache

import (
	"context"
	"time"

	"github.com/krisalay/isr-cache/types"
)

/*
Cache defines the PUBLIC API of the revalidation cache.
This is a contract that guarantees certain behaviors, without exposing internals.
Staleness rules, background recomputation, single-flight and storage are
hidden behind this interface.
*/
type Cache interface {

	/*
		Get returns the value for key using the engine clock as "now".
		See GetAt.
	*/
	Get(ctx context.Context, key string) (types.Result, error)

	/*
		GetAt returns the value for key as seen at instant now.

		BEHAVIOR:
		-------------------
		1. Nothing cached (cold start):
		   - Generate a value synchronously, store it with ComputedAt = now
		   - Return it with StatusMiss
		   - A generation failure is returned as an error

		2. Cached and now - ComputedAt < window:
		   - Return the value with StatusFresh

		3. Cached and now - ComputedAt >= window:
		   - Return the old value with StatusStale, without waiting
		   - Trigger ONE background recomputation for the key
		   - A recomputation failure is never returned to readers
	*/
	GetAt(ctx context.Context, key string, now time.Time) (types.Result, error)

	/*
		Peek returns the current value without any side effect:
		no generation, no revalidation, no metrics.
	*/
	Peek(key string) (types.CachedValue, bool)

	/*
		Remove drops the value for key. The next read is a cold start.

		This operation is idempotent:
		- Removing a non-existing key is safe
	*/
	Remove(key string)

	/*
		MaxAge returns the freshness window, for callers that advertise it
		(for example in a Cache-Control header).
	*/
	MaxAge() time.Duration

	/*
		Wait blocks until the background recomputations started so far
		have finished.
	*/
	Wait()

	/*
		Close waits for in-flight recomputations.

		WHEN TO CALL:
		-------------
		- Application shutdown
		- Tests cleanup
	*/
	Close()
}
