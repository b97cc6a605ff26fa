package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/krisalay/isr-cache/types"
)

// Func adapts a plain function to types.Generator.
type Func func(ctx context.Context) (string, error)

func (f Func) Generate(ctx context.Context) (string, error) {
	return f(ctx)
}

/*
Within runs one generation bounded by timeout.

BEHAVIOR:
---------
- timeout <= 0 runs the generator without a deadline
- If the deadline passes first, Within returns immediately with an error.
  The generator keeps running in its goroutine and its late result is dropped.
- Every error comes back wrapped in types.ErrGenerationFailed
*/
func Within(ctx context.Context, g types.Generator, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		return wrap(g.Generate(ctx))
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value string
		err   error
	}

	// Buffered so the goroutine can finish even if nobody is listening anymore.
	ch := make(chan result, 1)
	go func() {
		v, err := g.Generate(ctx)
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return wrap(r.value, r.err)
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", types.ErrGenerationFailed, ctx.Err())
	}
}

func wrap(v string, err error) (string, error) {
	if err == nil {
		return v, nil
	}
	if errors.Is(err, types.ErrGenerationFailed) {
		return "", err
	}
	return "", fmt.Errorf("%w: %w", types.ErrGenerationFailed, err)
}
