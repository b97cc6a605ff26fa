package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	cache "github.com/krisalay/isr-cache/api"
	"github.com/krisalay/isr-cache/internal/common"
	"github.com/krisalay/isr-cache/internal/config"
)

// CacheKey is the slot the endpoint reads. There is one route and no
// per-user keying, so every request shares it.
const CacheKey = "route:uuid"

type Server struct {
	router chi.Router
	cache  cache.Cache
	cfg    config.Config
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Server)

// WithClock sets the clock used to compute the Age header.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewServer(c cache.Cache, cfg config.Config, opts ...Option) (*Server, error) {
	if c == nil {
		return nil, fmt.Errorf("cache required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	srv := &Server{
		router: chi.NewRouter(),
		cache:  c,
		cfg:    cfg,
		now:    time.Now,
		logger: common.Logger(),
	}
	for _, opt := range opts {
		opt(srv)
	}

	srv.routes()
	srv.logger.Info("api: server ready", "route", cfg.Route, "revalidate", cfg.Window())
	return srv, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			s.logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"dur", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	})

	s.router.Get(s.cfg.Route, s.handleToken)
}

// CacheControl renders the directive that tells intermediaries to revalidate
// after window, serving stale in the meantime.
func CacheControl(window time.Duration) string {
	secs := int64(window / time.Second)
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("s-maxage=%d, stale-while-revalidate", secs)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	} else {
		s.logger.Warn("request failed", "status", status, "error", err)
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, status, errorResponse{Error: strings.TrimSpace(err.Error())})
}
