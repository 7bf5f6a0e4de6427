package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tradeware/securecore/internal/app"
	"github.com/tradeware/securecore/internal/config"
)

// RunService starts the long-running service: connects the cache engine,
// arms the rotation scheduler, and exposes the metrics endpoint when enabled.
// Blocks until receiving SIGINT/SIGTERM, then shuts everything down through
// the container.
//
// Requirements: MASTER_KEYS and ACTIVE_MASTER_KEY_ID must be set.
func RunService(ctx context.Context) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("starting service")

	defer closeContainer(container, logger)

	engine, err := container.CacheEngine()
	if err != nil {
		return fmt.Errorf("failed to initialize cache engine: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.CacheConnectTimeout)
	if err := engine.Connect(connectCtx); err != nil {
		// Fallback mode: lookups miss and writes fail until restart, but the
		// key lifecycle side keeps running.
		logger.Warn("cache store unreachable, running in fallback mode", slog.Any("error", err))
	}
	cancel()

	// Resolving the use case injects the rotator into the scheduler.
	if _, err := container.KeyUseCase(ctx); err != nil {
		return fmt.Errorf("failed to initialize key use case: %w", err)
	}

	keyScheduler, err := container.Scheduler(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}
	if err := keyScheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	if cfg.MetricsEnabled {
		metricsServer, err := container.MetricsServer()
		if err != nil {
			return fmt.Errorf("failed to initialize metrics server: %w", err)
		}
		metricsServer.Start()
	}

	// Wait for shutdown signal; cleanup happens in closeContainer.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	return nil
}
