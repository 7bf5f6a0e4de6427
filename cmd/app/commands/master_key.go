package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	keyvaultService "github.com/tradeware/securecore/internal/keyvault/service"
)

// RunCreateMasterKey generates a cryptographically secure 32-byte master key
// for envelope encryption. Key material is zeroed from memory after encoding.
// If keyID is empty, generates a default ID in format "master-key-YYYY-MM-DD".
//
// When kmsKeyURI is set, the master key is wrapped with the KMS key before
// output and the process must run with the same KMS_KEY_URI to unwrap it.
// When kmsKeyURI is empty, the raw key is printed base64-encoded; acceptable
// for local development only.
func RunCreateMasterKey(keyID, kmsKeyURI string) error {
	ctx := context.Background()

	if keyID == "" {
		keyID = fmt.Sprintf("master-key-%s", time.Now().Format("2006-01-02"))
	}

	masterKey := make([]byte, 32)
	if _, err := rand.Read(masterKey); err != nil {
		return fmt.Errorf("failed to generate master key: %w", err)
	}
	defer func() {
		for i := range masterKey {
			masterKey[i] = 0
		}
	}()

	output := masterKey

	if kmsKeyURI != "" {
		keeperInterface, err := keyvaultService.NewKMSService().OpenKeeper(ctx, kmsKeyURI)
		if err != nil {
			return fmt.Errorf("failed to open KMS keeper: %w", err)
		}
		defer func() {
			if closeErr := keeperInterface.Close(); closeErr != nil {
				fmt.Printf("Warning: failed to close KMS keeper: %v\n", closeErr)
			}
		}()

		keeper, ok := keeperInterface.(interface {
			Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
		})
		if !ok {
			return fmt.Errorf("KMS keeper does not support encryption")
		}

		ciphertext, err := keeper.Encrypt(ctx, masterKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt master key with KMS: %w", err)
		}
		output = ciphertext
	}

	encodedKey := base64.StdEncoding.EncodeToString(output)

	fmt.Println("# Master Key Configuration")
	fmt.Println("# Copy these environment variables to your .env file or secrets manager")
	fmt.Println()
	if kmsKeyURI != "" {
		fmt.Printf("KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
	}
	fmt.Printf("MASTER_KEYS=\"%s:%s\"\n", keyID, encodedKey)
	fmt.Printf("ACTIVE_MASTER_KEY_ID=\"%s\"\n", keyID)
	fmt.Println()
	fmt.Println("# For multiple master keys (key rotation), append entries and point the active ID at the newest:")
	fmt.Printf("# MASTER_KEYS=\"%s:%s,new-key:base64-encoded-key\"\n", keyID, encodedKey)
	fmt.Println("# ACTIVE_MASTER_KEY_ID=\"new-key\"")

	return nil
}
