// Package service implements the in-memory audit log and its HMAC signer.
package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	auditDomain "github.com/tradeware/securecore/internal/audit/domain"
	keyvaultDomain "github.com/tradeware/securecore/internal/keyvault/domain"
)

// Signer signs and verifies audit entries.
type Signer interface {
	// Sign generates an HMAC-SHA256 signature for the entry.
	Sign(masterKey []byte, entry *auditDomain.Entry) ([]byte, error)

	// Verify checks the entry signature. Returns ErrSignatureInvalid if tampered.
	Verify(masterKey []byte, entry *auditDomain.Entry) error
}

type auditSigner struct{}

// NewSigner creates a new HMAC-based audit entry signer using HKDF-SHA256
// for key derivation and HMAC-SHA256 for signature generation.
func NewSigner() Signer {
	return &auditSigner{}
}

// deriveSigningKey uses HKDF-SHA256 to derive a 32-byte signing key from the
// master key, separating encryption key usage from signing key usage.
// Info parameter: "audit-log-signing-v1" (versioned for future algorithm changes).
func (a *auditSigner) deriveSigningKey(masterKey []byte) ([]byte, error) {
	info := []byte("audit-log-signing-v1")
	reader := hkdf.New(sha256.New, masterKey, nil, info)

	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(reader, signingKey); err != nil {
		return nil, err
	}

	return signingKey, nil
}

// canonicalize converts an entry to canonical byte representation for signing.
// Format: id || operation || actor_id || description || metadata || created_at
// Uses length-prefixed encoding for variable-length fields to prevent ambiguity.
func (a *auditSigner) canonicalize(entry *auditDomain.Entry) ([]byte, error) {
	buf := make([]byte, 0, 1024)

	buf = append(buf, entry.ID[:]...)
	buf = appendLengthPrefixed(buf, []byte(entry.Operation))
	buf = appendLengthPrefixed(buf, []byte(entry.ActorID))
	buf = appendLengthPrefixed(buf, []byte(entry.Description))

	if entry.Metadata != nil {
		metadataBytes, err := json.Marshal(entry.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		buf = appendLengthPrefixed(buf, metadataBytes)
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	timeBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(timeBytes, uint64(entry.CreatedAt.UnixNano()))
	buf = append(buf, timeBytes...)

	return buf, nil
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))
	buf = append(buf, length...)
	buf = append(buf, data...)
	return buf
}

// Sign generates an HMAC-SHA256 signature for the entry.
func (a *auditSigner) Sign(masterKey []byte, entry *auditDomain.Entry) ([]byte, error) {
	signingKey, err := a.deriveSigningKey(masterKey)
	if err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}
	defer keyvaultDomain.Zero(signingKey)

	canonical, err := a.canonicalize(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize entry: %w", err)
	}

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(canonical)
	return mac.Sum(nil), nil
}

// Verify checks if the entry signature is valid.
// Returns nil if valid, ErrSignatureInvalid if tampered or invalid.
func (a *auditSigner) Verify(masterKey []byte, entry *auditDomain.Entry) error {
	expected, err := a.Sign(masterKey, entry)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}

	if !hmac.Equal(entry.Signature, expected) {
		return auditDomain.ErrSignatureInvalid
	}

	return nil
}
