// This file implements the default value generator: a random UUID per call.

package generator

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/krisalay/isr-cache/types"
)

/*
UUID produces version 4 UUIDs in canonical 36 character form
(xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx).

Randomness comes from crypto/rand unless a reader is injected with
NewUUIDFromReader. A read failure means the entropy source is gone; the
error is wrapped in types.ErrGenerationFailed and the cache decides what
that means for the caller.
*/
type UUID struct {
	rand io.Reader
}

func NewUUID() *UUID {
	return &UUID{}
}

// NewUUIDFromReader draws randomness from r instead of crypto/rand.
func NewUUIDFromReader(r io.Reader) *UUID {
	return &UUID{rand: r}
}

func (g *UUID) Generate(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrGenerationFailed, err)
	}

	var (
		id  uuid.UUID
		err error
	)
	if g.rand != nil {
		id, err = uuid.NewRandomFromReader(g.rand)
	} else {
		id, err = uuid.NewRandom()
	}
	if err != nil {
		return "", fmt.Errorf("%w: read entropy: %w", types.ErrGenerationFailed, err)
	}

	return id.String(), nil
}
