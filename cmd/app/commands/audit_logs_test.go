package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunAuditLogs(t *testing.T) {
	t.Run("Success_EmptyLog", func(t *testing.T) {
		setTestEnv(t)
		require.NoError(t, RunAuditLogs(context.Background(), "user-1", 50))
	})
}

func TestRunVerifyAuditLogs(t *testing.T) {
	t.Run("Success_EmptyLog", func(t *testing.T) {
		setTestEnv(t)
		require.NoError(t, RunVerifyAuditLogs(context.Background()))
	})
}
