package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRunWarmupCache(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_UsersAndSymbols", func(t *testing.T) {
		setTestEnv(t)
		seedFile := writeSeedFile(t, `{
			"users": {"u1": "portfolio-u1", "u2": "portfolio-u2"},
			"symbols": {"AAPL": "quote-aapl"},
			"ttl_seconds": 300
		}`)

		require.NoError(t, RunWarmupCache(ctx, seedFile))
	})

	t.Run("Error_MissingSeedFile", func(t *testing.T) {
		setTestEnv(t)
		err := RunWarmupCache(ctx, filepath.Join(t.TempDir(), "missing.json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read seed file")
	})

	t.Run("Error_InvalidJSON", func(t *testing.T) {
		setTestEnv(t)
		err := RunWarmupCache(ctx, writeSeedFile(t, "{not json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse seed file")
	})
}
