// Package service provides the cryptographic services behind the key vault:
// AEAD ciphers for material-at-rest encryption, secp256k1 signing for wallet
// keys, and the KMS keeper used to unwrap master keys.
package service

import (
	"context"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	keyvaultDomain "github.com/tradeware/securecore/internal/keyvault/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg keyvaultDomain.Algorithm) (AEAD, error)
}

// MaterialService generates raw key material and moves it in and out of
// master-key envelope encryption. It is the single crypto provider consumed
// by the key use case; swapping in a hardware-backed implementation does not
// change use-case logic.
type MaterialService interface {
	// Generate produces raw material for the key type: random bytes for
	// symmetric algorithms, a rejection-sampled private scalar for
	// secp256k1. For signing keys the compressed public key is also
	// returned; it is nil for symmetric material.
	Generate(keyType keyvaultDomain.KeyType) (material, publicKey []byte, err error)

	// Encrypt encrypts raw material under the master key with the envelope
	// cipher for the record's algorithm. The key record ID is bound as AAD
	// so ciphertext cannot be replayed across records.
	Encrypt(
		masterKey *keyvaultDomain.MasterKey,
		algorithm keyvaultDomain.Algorithm,
		material []byte,
		aad []byte,
	) (keyvaultDomain.EncryptedMaterial, error)

	// Decrypt recovers raw material from a record's encrypted envelope.
	// Returns ErrDecryptionFailed on authentication failure.
	Decrypt(
		masterKey *keyvaultDomain.MasterKey,
		algorithm keyvaultDomain.Algorithm,
		encrypted keyvaultDomain.EncryptedMaterial,
		aad []byte,
	) ([]byte, error)
}

// Signer defines secp256k1 operations for wallet-signing keys.
type Signer interface {
	// GeneratePrivateKey returns a uniformly random private scalar below
	// the curve order, produced by rejection sampling.
	GeneratePrivateKey() (*secp256k1.PrivateKey, error)

	// PublicKey returns the compressed 33-byte public key for material.
	PublicKey(material []byte) ([]byte, error)

	// Sign produces a DER-encoded ECDSA signature over the Keccak-256
	// digest of message.
	Sign(material []byte, message []byte) ([]byte, error)

	// Address derives the EVM-style address (0x-prefixed hex) for material.
	Address(material []byte) (string, error)
}

// KMSService opens KMS keepers used to unwrap master key material.
type KMSService interface {
	// OpenKeeper opens a keeper for the configured KMS key URI.
	OpenKeeper(ctx context.Context, keyURI string) (keyvaultDomain.Unwrapper, error)
}
