package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"

	keyvaultDomain "github.com/tradeware/securecore/internal/keyvault/domain"
)

// Secp256k1Signer implements Signer with real secp256k1 curve operations:
// rejection-sampled scalar generation, point multiplication for public key
// derivation, and ECDSA signatures over Keccak-256 digests.
type Secp256k1Signer struct{}

// NewSecp256k1Signer creates a new Secp256k1Signer.
func NewSecp256k1Signer() *Secp256k1Signer {
	return &Secp256k1Signer{}
}

// GeneratePrivateKey returns a uniformly random private scalar below the
// curve order. Candidates of 32 random bytes are rejected and resampled when
// they overflow the order or are zero, avoiding modular-reduction bias.
func (s *Secp256k1Signer) GeneratePrivateKey() (*secp256k1.PrivateKey, error) {
	var scalar secp256k1.ModNScalar
	buf := make([]byte, 32)

	for {
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to sample private scalar: %w", err)
		}
		overflow := scalar.SetByteSlice(buf)
		keyvaultDomain.Zero(buf)
		if !overflow && !scalar.IsZero() {
			break
		}
	}

	return secp256k1.NewPrivateKey(&scalar), nil
}

// PublicKey returns the compressed 33-byte public key for the raw private
// scalar material.
func (s *Secp256k1Signer) PublicKey(material []byte) ([]byte, error) {
	privateKey, err := s.parsePrivateKey(material)
	if err != nil {
		return nil, err
	}
	return privateKey.PubKey().SerializeCompressed(), nil
}

// Sign produces a DER-encoded ECDSA signature over the Keccak-256 digest of
// message.
func (s *Secp256k1Signer) Sign(material []byte, message []byte) ([]byte, error) {
	privateKey, err := s.parsePrivateKey(material)
	if err != nil {
		return nil, err
	}

	digest := keccak256(message)
	signature := secpecdsa.Sign(privateKey, digest)
	return signature.Serialize(), nil
}

// Address derives the EVM-style address for the raw private scalar material:
// the last 20 bytes of the Keccak-256 hash of the uncompressed public key,
// 0x-prefixed hex.
func (s *Secp256k1Signer) Address(material []byte) (string, error) {
	privateKey, err := s.parsePrivateKey(material)
	if err != nil {
		return "", err
	}

	// Drop the 0x04 uncompressed-point marker before hashing.
	uncompressed := privateKey.PubKey().SerializeUncompressed()
	digest := keccak256(uncompressed[1:])
	return "0x" + hex.EncodeToString(digest[12:]), nil
}

// parsePrivateKey validates raw material as a non-zero scalar below the
// curve order.
func (s *Secp256k1Signer) parsePrivateKey(material []byte) (*secp256k1.PrivateKey, error) {
	if len(material) != 32 {
		return nil, keyvaultDomain.ErrInvalidKeySize
	}

	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(material); overflow || scalar.IsZero() {
		return nil, keyvaultDomain.ErrInvalidKeySize
	}

	return secp256k1.NewPrivateKey(&scalar), nil
}

// keccak256 computes the legacy Keccak-256 digest used by EVM chains.
func keccak256(data []byte) []byte {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(data)
	return hasher.Sum(nil)
}
