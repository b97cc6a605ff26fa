package types

import (
	"context"
	"errors"
)

// ErrGenerationFailed is wrapped by every error a Generator path returns.
// Callers check it with errors.Is.
var ErrGenerationFailed = errors.New("value generation failed")

// Generator is the contract between the cache and whatever produces values.
type Generator interface {

	/*
		Generate is called when the cache needs a new value:
		1. Cold start → nothing cached, the caller waits for this call
		2. Stale read → the cache keeps serving the old value and calls
		   Generate in the background

		Each call must return a new opaque token. An error means no value
		could be produced; the cache decides whether that is fatal.
	*/
	Generate(ctx context.Context) (string, error)
}
