package service

import (
	keyvaultDomain "github.com/tradeware/securecore/internal/keyvault/domain"
)

// AEADManagerService implements the AEADManager interface for creating AEAD cipher instances.
type AEADManagerService struct{}

// NewAEADManager creates a new AEADManagerService.
func NewAEADManager() *AEADManagerService {
	return &AEADManagerService{}
}

// CreateCipher creates an AEAD cipher instance for the specified algorithm.
// Returns ErrInvalidKeySize if key is not 32 bytes or ErrUnsupportedAlgorithm
// for unknown or non-AEAD algorithms (Secp256k1 material is encrypted at
// rest with AES-GCM, it is never itself an AEAD).
func (am *AEADManagerService) CreateCipher(
	key []byte,
	alg keyvaultDomain.Algorithm,
) (AEAD, error) {
	// Validate key size
	if len(key) != 32 {
		return nil, keyvaultDomain.ErrInvalidKeySize
	}

	// Create cipher based on algorithm
	switch alg {
	case keyvaultDomain.AESGCM:
		return NewAESGCM(key)
	case keyvaultDomain.ChaCha20:
		return NewChaCha20Poly1305(key)
	default:
		return nil, keyvaultDomain.ErrUnsupportedAlgorithm
	}
}
