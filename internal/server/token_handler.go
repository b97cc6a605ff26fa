package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/krisalay/isr-cache/types"
)

type tokenResponse struct {
	UUID string `json:"uuid"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	res, err := s.cache.Get(r.Context(), CacheKey)
	if err != nil {
		if ctxErr := r.Context().Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			s.logger.Debug("api: client went away during cold start", "error", err)
			return
		}
		// Only a cold start can fail here; stale reads never surface errors.
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	h := w.Header()
	h.Set("Cache-Control", CacheControl(s.cache.MaxAge()))
	h.Set("X-Cache", string(res.Status))
	h.Set("Age", strconv.FormatInt(age(res, s.now()), 10))

	if res.Status == types.StatusStale {
		s.logger.Debug("api: served stale token", "computed_at", res.ComputedAt)
	}

	writeJSON(w, http.StatusOK, tokenResponse{UUID: res.Value})
}

func age(res types.Result, now time.Time) int64 {
	d := now.Sub(res.ComputedAt)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}
