// This file defines the idea of a "refresh hook".
// The cache calls the hook WHEN a read finds a stale value.
// The goal of refresh is: "Keep data fresh without slowing down reads"

package refresh

import "github.com/krisalay/isr-cache/types"

// Target is the storage the hook commits recomputed values into.
// The cache's store satisfies it.
type Target interface {
	Get(key string) (*types.CachedValue, bool)
	CompareAndSwap(key string, old, fresh *types.CachedValue) bool
}

/*
Hook is the interface for refresh behavior.
If a refresh hook is configured, it will be called every time a read is served from a stale value.

The cache itself does NOT care what the hook does.
It just calls OnStale and returns the stale value to its caller.
*/
type Hook interface {

	/*
		OnStale is called after a stale value has been handed to a reader.
		This method MUST be fast and non blocking because this method runs on the hot read path.
		Blocking here would turn stale-while-revalidate into a synchronous miss.
	*/
	OnStale(key string, stale *types.CachedValue, target Target)

	// Wait blocks until every revalidation started so far has finished.
	Wait()
}
