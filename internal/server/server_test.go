package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cache "github.com/krisalay/isr-cache"
	"github.com/krisalay/isr-cache/engine"
	"github.com/krisalay/isr-cache/expiration"
	"github.com/krisalay/isr-cache/generator"
	"github.com/krisalay/isr-cache/internal/common"
	"github.com/krisalay/isr-cache/internal/config"
	"github.com/krisalay/isr-cache/refresh"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	srv     *Server
	cache   *cache.RevalidationCache
	clock   *clock
	failing *atomic.Bool
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	clk := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	failing := &atomic.Bool{}
	uuids := generator.NewUUID()
	gen := generator.Func(func(ctx context.Context) (string, error) {
		if failing.Load() {
			return "", errors.New("entropy source unavailable")
		}
		return uuids.Generate(ctx)
	})

	cfg := config.DefaultConfig()
	eng := engine.NewCacheEngine(&expiration.FixedWindow{Window: cfg.Window()}, gen, nil, refresh.WithLogger(common.Discard()))
	eng.Clock = clk.Now
	c := cache.NewRevalidationCache(eng)
	t.Cleanup(c.Close)

	srv, err := NewServer(c, cfg, WithClock(clk.Now), WithLogger(common.Discard()))
	require.NoError(t, err)

	return &harness{srv: srv, cache: c, clock: clk, failing: failing}
}

func (h *harness) do(method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.srv.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func decodeUUID(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.UUID
}

func TestTokenResponse(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "s-maxage=5, stale-while-revalidate", rec.Header().Get("Cache-Control"))
	require.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	require.Equal(t, "0", rec.Header().Get("Age"))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Len(t, raw, 1)
	require.Len(t, decodeUUID(t, rec), 36)
}

func TestTokenRevalidation(t *testing.T) {
	h := newHarness(t)

	a := decodeUUID(t, h.do(http.MethodGet, "/api"))

	h.clock.Advance(3 * time.Second)
	rec := h.do(http.MethodGet, "/api")
	require.Equal(t, a, decodeUUID(t, rec))
	require.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	require.Equal(t, "3", rec.Header().Get("Age"))

	h.clock.Advance(3 * time.Second)
	rec = h.do(http.MethodGet, "/api")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, a, decodeUUID(t, rec))
	require.Equal(t, "STALE", rec.Header().Get("X-Cache"))
	require.Equal(t, "6", rec.Header().Get("Age"))

	h.cache.Wait()

	h.clock.Advance(time.Second)
	rec = h.do(http.MethodGet, "/api")
	require.NotEqual(t, a, decodeUUID(t, rec))
	require.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	require.Equal(t, "1", rec.Header().Get("Age"))
}

func TestColdStartFailureIs500(t *testing.T) {
	h := newHarness(t)
	h.failing.Store(true)

	rec := h.do(http.MethodGet, "/api")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body.Error, "value generation failed")
}

func TestRevalidationFailureStill200(t *testing.T) {
	h := newHarness(t)
	a := decodeUUID(t, h.do(http.MethodGet, "/api"))

	h.failing.Store(true)
	h.clock.Advance(6 * time.Second)

	rec := h.do(http.MethodGet, "/api")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, a, decodeUUID(t, rec))
	h.cache.Wait()

	h.failing.Store(false)
	h.clock.Advance(time.Second)
	rec = h.do(http.MethodGet, "/api")
	require.Equal(t, a, decodeUUID(t, rec), "retry serves stale while revalidating")
	h.cache.Wait()

	h.clock.Advance(time.Second)
	rec = h.do(http.MethodGet, "/api")
	require.NotEqual(t, a, decodeUUID(t, rec))
}

func TestRouting(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, http.StatusMethodNotAllowed, h.do(http.MethodPost, "/api").Code)
	require.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/other").Code)
}

func TestNewServerValidation(t *testing.T) {
	_, err := NewServer(nil, config.DefaultConfig())
	require.Error(t, err)

	h := newHarness(t)
	cfg := config.DefaultConfig()
	cfg.RevalidateSeconds = 0
	_, err = NewServer(h.cache, cfg)
	require.Error(t, err)
}

func TestCacheControl(t *testing.T) {
	require.Equal(t, "s-maxage=5, stale-while-revalidate", CacheControl(5*time.Second))
	require.Equal(t, "s-maxage=60, stale-while-revalidate", CacheControl(time.Minute))
	require.Equal(t, "s-maxage=0, stale-while-revalidate", CacheControl(0))
}
