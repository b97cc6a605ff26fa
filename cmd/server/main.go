package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	cache "github.com/krisalay/isr-cache"
	"github.com/krisalay/isr-cache/engine"
	"github.com/krisalay/isr-cache/expiration"
	"github.com/krisalay/isr-cache/generator"
	"github.com/krisalay/isr-cache/internal/common"
	"github.com/krisalay/isr-cache/internal/config"
	"github.com/krisalay/isr-cache/internal/server"
	"github.com/krisalay/isr-cache/refresh"
)

func main() {
	if err := godotenv.Load(); err != nil {
		common.Logger().Debug("isr: .env file not loaded", "error", err)
	}

	configPath := flag.String("config", "", "path to a YAML configuration file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	route := flag.String("route", "", "route serving the token (overrides config)")
	revalidate := flag.Int("revalidate", 0, "revalidation window in seconds (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	cfg = cfg.Merge(config.Config{Addr: *addr, Route: *route, RevalidateSeconds: *revalidate})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	logger := common.NewLogger(os.Stdout, cfg.LogLevel)
	logger.Info("isr: startup initiated", "addr", cfg.Addr, "route", cfg.Route, "revalidate", cfg.Window())

	eng := engine.NewCacheEngine(
		&expiration.FixedWindow{Window: cfg.Window()},
		generator.NewUUID(),
		nil,
		refresh.WithTimeout(cfg.RevalidateTimeout),
		refresh.WithLogger(logger),
	)
	eng.Timeout = cfg.RevalidateTimeout

	c := cache.NewRevalidationCache(eng)

	srv, err := server.NewServer(c, cfg, server.WithLogger(logger))
	if err != nil {
		logger.Error("isr: server init failed", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		logger.Error("isr: listen failed", "addr", cfg.Addr, "error", err)
		os.Exit(1)
	}

	logger.Info("isr: listening", "addr", ln.Addr().String())
	err = serve(ctx, httpServer, ln, shutdownGrace)

	// Handlers have returned, so no new revalidation can start.
	c.Close()

	if err != nil {
		logger.Error("isr: server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("isr: server stopped")
}

// shutdownGrace bounds how long in-flight requests may take once a signal arrives.
const shutdownGrace = 5 * time.Second

/*
serve runs srv on ln until ctx is done, then shuts it down.
It returns only after in-flight requests have finished or grace has passed.
*/
func serve(ctx context.Context, srv *http.Server, ln net.Listener, grace time.Duration) error {
	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
