package types

// This file defines how the cache reports what it is doing.

/*
Metrics is an interface that defines what the cache wants to measure.
Each method represents an event in the cache lifecycle. The cache will call these methods whenever something happens.
*/
type Metrics interface {

	// Hit is called when a read is served from a value still inside its window.
	Hit()

	// Miss is called on a cold start: nothing is cached and the value is generated synchronously.
	Miss()

	// Stale is called when a read is served from a value whose window has elapsed.
	Stale()

	// Revalidate is called when a background recomputation replaced the cached value.
	Revalidate()

	// RevalidateError is called when a background recomputation failed or timed out.
	RevalidateError()
}

// NoopMetrics ignores every event. The engine falls back to it when no
// Metrics is configured, so call sites never check for nil.
type NoopMetrics struct{}

func (NoopMetrics) Hit()             {}
func (NoopMetrics) Miss()            {}
func (NoopMetrics) Stale()           {}
func (NoopMetrics) Revalidate()      {}
func (NoopMetrics) RevalidateError() {}
