package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/krisalay/isr-cache/internal/client"
	"github.com/krisalay/isr-cache/internal/common"
	"github.com/krisalay/isr-cache/internal/config"
)

func main() {
	_ = godotenv.Load()

	defaults := config.DefaultConfig()

	baseURL := flag.String("url", "http://localhost"+defaults.Addr, "server base URL")
	route := flag.String("route", defaults.Route, "route to fetch")
	refreshes := flag.Int("refresh", 0, "number of manual refreshes after mount")
	interval := flag.Duration("interval", 2*time.Second, "pause between refreshes")
	noColor := flag.Bool("no-color", false, "disable colored output")
	flag.Parse()

	if *noColor {
		color.NoColor = true
	}

	logger := common.Logger()

	c, err := client.NewClient(*baseURL, *route, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "client error:", err)
		os.Exit(1)
	}

	shell := client.NewShell(c, logger)
	code := client.RouteCode(*route, defaults.Window())
	ctx := context.Background()

	if err := shell.Mount(ctx); err != nil {
		logger.Error("client: mount failed", "error", err)
	}
	client.Render(os.Stdout, shell.View(), code, client.HighlightGo)

	for i := 0; i < *refreshes; i++ {
		time.Sleep(*interval)
		fmt.Println()
		if err := shell.Refresh(ctx); err != nil {
			logger.Error("client: refresh failed", "error", err)
		}
		client.Render(os.Stdout, shell.View(), code, client.HighlightGo)
	}

	if shell.View().State == client.StateError {
		os.Exit(1)
	}
}
