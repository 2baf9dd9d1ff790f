package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vthell-api/internal/app"
	"vthell-api/internal/archive"
	"vthell-api/internal/cleanup"
	"vthell-api/internal/config"
	"vthell-api/internal/streamers"
	"vthell-api/internal/web"
	"vthell-api/internal/web/handlers"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup structured logging
	setupLogging(cfg.LogLevel)

	slog.Info("Starting VTHell API", "version", "1.0.0", "path", cfg.VTHellPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize components: %w", err)
	}
	defer func() {
		if err := components.Close(); err != nil {
			slog.Error("Failed to close storage", "error", err)
		}
	}()

	// Remove temp files left by writes interrupted in a previous run
	if cfg.StoreBackend == config.BackendFile {
		if _, err := cleanup.NewService(cleanup.DefaultMaxAge, cfg.VTHellPath, cfg.JobsDir()).SweepTempFiles(); err != nil {
			slog.Error("Failed to clean up temporary files", "error", err)
		}
	}

	directory, err := streamers.Load(cfg.DatasetDir())
	if err != nil {
		return fmt.Errorf("failed to load streamer datasets: %w", err)
	}

	// A nil *Rebuilder must not become a non-nil interface
	var rebuilder handlers.Rebuilder
	if components.Rebuilder != nil {
		rebuilder = components.Rebuilder
	}

	h := handlers.NewHandlers(components.Jobs, components.Index, rebuilder, directory, cfg.Passkey)
	server := web.NewServer(h, cfg.ServerPort)

	if components.Rebuilder != nil && cfg.RebuildInterval > 0 {
		go startScheduledRebuild(ctx, components.Rebuilder, cfg.RebuildInterval)
	}

	return runServer(ctx, cancel, server)
}

func runServer(ctx context.Context, cancel context.CancelFunc, server *web.Server) error {
	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
	}

	// Stop the rebuild schedule
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// setupLogging configures structured logging based on the log level
func setupLogging(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	logger := slog.New(handler)
	slog.SetDefault(logger)
}

// startScheduledRebuild rebuilds the archive index on startup and then
// every interval until ctx is cancelled
func startScheduledRebuild(ctx context.Context, r handlers.Rebuilder, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("Scheduled archive rebuild enabled", "interval", interval)
	rebuildArchive(ctx, r)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Archive rebuild schedule shutting down")
			return
		case <-ticker.C:
			rebuildArchive(ctx, r)
		}
	}
}

func rebuildArchive(ctx context.Context, r handlers.Rebuilder) {
	if _, err := r.Rebuild(ctx); err != nil {
		if errors.Is(err, archive.ErrRebuildInProgress) {
			slog.Info("Skipping scheduled rebuild, another rebuild is running")
			return
		}
		slog.Error("Scheduled archive rebuild failed", "error", err)
	}
}
