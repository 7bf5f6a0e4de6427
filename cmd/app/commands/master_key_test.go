package commands

import (
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCreateMasterKey(t *testing.T) {
	t.Run("Success_RawOutput", func(t *testing.T) {
		require.NoError(t, RunCreateMasterKey("test-key", ""))
	})

	t.Run("Success_DefaultKeyID", func(t *testing.T) {
		require.NoError(t, RunCreateMasterKey("", ""))
	})

	t.Run("Success_LocalKMSWrap", func(t *testing.T) {
		kmsKey := make([]byte, 32)
		_, err := rand.Read(kmsKey)
		require.NoError(t, err)
		uri := "base64key://" + base64.URLEncoding.EncodeToString(kmsKey)

		require.NoError(t, RunCreateMasterKey("test-key", uri))
	})

	t.Run("Error_InvalidKMSURI", func(t *testing.T) {
		err := RunCreateMasterKey("test-key", "not-a-kms-scheme://x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open KMS keeper")
	})
}
