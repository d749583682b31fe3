package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/reshetovitsme/channel-relay/internal/di"
	dispatchService "github.com/reshetovitsme/channel-relay/internal/modules/dispatch/service"
	"github.com/reshetovitsme/channel-relay/internal/shared/config"
	httpServer "github.com/reshetovitsme/channel-relay/internal/transport/http"
	"github.com/samber/do/v2"
	slogmulti "github.com/samber/slog-multi"
)

func main() {
	// Log level is only known after the config is loaded
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	// Setup structured logging with multiple handlers using slog-multi
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	jsonHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	})

	// Use Fanout to send logs to both handlers
	multiHandler := slogmulti.Fanout(textHandler, jsonHandler)
	logger := slog.New(multiHandler)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Setup dependency injection
	injector, err := di.Setup(ctx)
	if err != nil {
		slog.Error("Failed to setup dependency injection", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := di.Shutdown(shutdownCtx, injector); err != nil {
			slog.Error("Error during shutdown", "error", err)
		}
	}()

	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	level.Set(cfg.SlogLevel())

	// Get services from DI container
	dispatcher, err := do.Invoke[*dispatchService.Service](injector)
	if err != nil {
		slog.Error("Failed to initialize dispatcher", "error", err)
		os.Exit(1)
	}
	server := do.MustInvoke[*httpServer.Server](injector)
	b, err := do.Invoke[*bot.Bot](injector)
	if err != nil {
		slog.Error("Failed to initialize bot", "error", err)
		os.Exit(1)
	}

	// Start scheduled post dispatcher
	if err := dispatcher.Start(ctx); err != nil {
		slog.Error("Failed to start dispatcher", "error", err)
		os.Exit(1)
	}

	// Start liveness server
	go func() {
		if err := server.Start(ctx); err != nil {
			slog.Error("Liveness server failed", "error", err)
			cancel()
		}
	}()

	slog.Info("Application started", "config", cfg.String())
	slog.Info("Press Ctrl+C to stop")

	// Polls until ctx is cancelled
	b.Start(ctx)

	slog.Info("Shutting down...")
}
