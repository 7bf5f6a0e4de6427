package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tradeware/securecore/internal/app"
	"github.com/tradeware/securecore/internal/config"
)

// RunSweep forces one rotation sweep: every active key whose scheduled
// rotation time has elapsed is rotated by the system actor. Failures are
// audited per key and do not stop the sweep.
func RunSweep(ctx context.Context) error {
	container := app.NewContainer(config.Load())
	logger := container.Logger()
	defer closeContainer(container, logger)

	// Resolving the use case injects the rotator into the scheduler.
	if _, err := container.KeyUseCase(ctx); err != nil {
		return fmt.Errorf("failed to initialize key use case: %w", err)
	}

	keyScheduler, err := container.Scheduler(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	rotated, failed := keyScheduler.Sweep(ctx)

	logger.Info("rotation sweep completed",
		slog.Int("rotated", rotated),
		slog.Int("failed", failed),
	)

	fmt.Printf("Rotated: %d\n", rotated)
	fmt.Printf("Failed:  %d\n", failed)

	if failed > 0 {
		return fmt.Errorf("sweep finished with %d failed rotation(s)", failed)
	}

	return nil
}
