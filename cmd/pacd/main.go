// Command pacd runs the Port Access Control daemon: the 802.1X/MAB
// client state machine, its RADIUS-backed authenticators, and the
// admin HTTP and live-feed WebSocket surfaces.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sonic-net/sonic-pacd/internal/app"
	"github.com/sonic-net/sonic-pacd/internal/config"
)

func main() {
	cfg := config.Load()

	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, nil)
	if cfg.Debug {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(cfg)
	if err != nil {
		slog.Error("pacd bootstrap failed", "error", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		slog.Error("pacd exited with error", "error", err)
		os.Exit(1)
	}
}
