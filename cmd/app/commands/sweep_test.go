package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunSweep(t *testing.T) {
	t.Run("Success_NoDueKeys", func(t *testing.T) {
		setTestEnv(t)
		require.NoError(t, RunSweep(context.Background()))
	})
}
