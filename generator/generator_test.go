package generator

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/krisalay/isr-cache/types"
)

var canonical = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func TestUUIDFormat(t *testing.T) {
	g := NewUUID()

	v, err := g.Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, v, 36)
	require.Regexp(t, canonical, v)
}

func TestUUIDUnique(t *testing.T) {
	g := NewUUID()
	seen := make(map[string]struct{}, 1000)

	for i := 0; i < 1000; i++ {
		v, err := g.Generate(context.Background())
		require.NoError(t, err)
		_, dup := seen[v]
		require.False(t, dup, "duplicate token %s", v)
		seen[v] = struct{}{}
	}
}

func TestUUIDEntropyFailure(t *testing.T) {
	g := NewUUIDFromReader(iotest.ErrReader(errors.New("no entropy")))

	_, err := g.Generate(context.Background())
	require.ErrorIs(t, err, types.ErrGenerationFailed)
	require.ErrorContains(t, err, "no entropy")
}

func TestUUIDCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewUUID().Generate(ctx)
	require.ErrorIs(t, err, types.ErrGenerationFailed)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWithinWrapsErrors(t *testing.T) {
	boom := errors.New("boom")
	g := Func(func(context.Context) (string, error) { return "", boom })

	for _, timeout := range []time.Duration{0, time.Second} {
		_, err := Within(context.Background(), g, timeout)
		require.ErrorIs(t, err, types.ErrGenerationFailed)
		require.ErrorIs(t, err, boom)
	}
}

func TestWithinReturnsValue(t *testing.T) {
	g := Func(func(context.Context) (string, error) { return "abc", nil })

	v, err := Within(context.Background(), g, time.Second)
	require.NoError(t, err)
	require.Equal(t, "abc", v)
}

func TestWithinTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	g := Func(func(context.Context) (string, error) {
		<-release
		return "late", nil
	})

	start := time.Now()
	_, err := Within(context.Background(), g, 20*time.Millisecond)
	require.ErrorIs(t, err, types.ErrGenerationFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), time.Second)
}

func TestWithinDoesNotDoubleWrap(t *testing.T) {
	g := NewUUIDFromReader(iotest.ErrReader(errors.New("no entropy")))

	_, err := Within(context.Background(), g, 0)
	require.ErrorIs(t, err, types.ErrGenerationFailed)
	require.Equal(t, 1, countOccurrences(err.Error(), types.ErrGenerationFailed.Error()))
}

func countOccurrences(s, sub string) int {
	return len(regexp.MustCompile(regexp.QuoteMeta(sub)).FindAllStringIndex(s, -1))
}
