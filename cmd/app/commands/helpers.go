// Package commands contains CLI command implementations for the application.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tradeware/securecore/internal/app"
	keyvaultDomain "github.com/tradeware/securecore/internal/keyvault/domain"
)

// closeContainer closes all resources in the container and logs any errors.
func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}

// parseKeyType converts a key type string to keyvaultDomain.KeyType.
// Returns an error if the key type string is not in the registry.
func parseKeyType(keyTypeStr string) (keyvaultDomain.KeyType, error) {
	keyType := keyvaultDomain.KeyType(keyTypeStr)
	if !keyType.IsValid() {
		return "", fmt.Errorf(
			"invalid key type: %s (valid options: user-encryption, database-encryption, api-authentication, wallet-signing)",
			keyTypeStr,
		)
	}
	return keyType, nil
}
