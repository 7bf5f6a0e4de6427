package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tradeware/securecore/internal/app"
	"github.com/tradeware/securecore/internal/config"
)

// RunGenerateKey creates a new managed key of the given registry type owned by
// ownerID. The material is envelope-encrypted under the active master key and
// never printed.
//
// Requirements: MASTER_KEYS and ACTIVE_MASTER_KEY_ID must be set.
func RunGenerateKey(ctx context.Context, keyTypeStr, ownerID string) error {
	keyType, err := parseKeyType(keyTypeStr)
	if err != nil {
		return err
	}

	container := app.NewContainer(config.Load())
	logger := container.Logger()
	defer closeContainer(container, logger)

	useCase, err := container.KeyUseCase(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize key use case: %w", err)
	}

	record, err := useCase.GenerateKey(ctx, keyType, ownerID)
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}

	logger.Info("key generated",
		slog.String("key_id", record.ID.String()),
		slog.String("type", string(record.Type)),
		slog.String("algorithm", string(record.Algorithm)),
		slog.Uint64("version", uint64(record.Version)),
		slog.Time("rotation_scheduled_at", record.RotationScheduledAt),
	)

	fmt.Printf("Key ID: %s\n", record.ID)
	if record.PublicKey != nil {
		fmt.Printf("Public Key: %x\n", record.PublicKey)
	}

	return nil
}

// RunRotateKey rotates a managed key to a new version. The prior version is
// archived and stays available for decrypting old data.
func RunRotateKey(ctx context.Context, keyIDStr, ownerID string) error {
	keyID, err := uuid.Parse(keyIDStr)
	if err != nil {
		return fmt.Errorf("invalid key ID: %w", err)
	}

	container := app.NewContainer(config.Load())
	logger := container.Logger()
	defer closeContainer(container, logger)

	useCase, err := container.KeyUseCase(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize key use case: %w", err)
	}

	record, err := useCase.RotateKey(ctx, keyID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to rotate key: %w", err)
	}

	logger.Info("key rotated",
		slog.String("key_id", record.ID.String()),
		slog.Uint64("version", uint64(record.Version)),
		slog.Time("rotation_scheduled_at", record.RotationScheduledAt),
	)

	return nil
}

// RunRevokeKey revokes a managed key, recording the reason in the audit
// trail. Revocation is terminal: the material is no longer served and the
// rotation schedule is cancelled.
func RunRevokeKey(ctx context.Context, keyIDStr, ownerID, reason string) error {
	keyID, err := uuid.Parse(keyIDStr)
	if err != nil {
		return fmt.Errorf("invalid key ID: %w", err)
	}

	container := app.NewContainer(config.Load())
	logger := container.Logger()
	defer closeContainer(container, logger)

	useCase, err := container.KeyUseCase(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize key use case: %w", err)
	}

	if err := useCase.RevokeKey(ctx, keyID, ownerID, reason); err != nil {
		return fmt.Errorf("failed to revoke key: %w", err)
	}

	logger.Info("key revoked",
		slog.String("key_id", keyID.String()),
		slog.String("reason", reason),
	)

	return nil
}
