package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EncryptedMaterial holds key material encrypted under the master key.
// The AEAD authentication tag is appended to the ciphertext following the
// crypto/cipher convention.
type EncryptedMaterial struct {
	Ciphertext []byte
	Nonce      []byte
}

// KeyRecord represents a managed cryptographic key.
//
// Exactly one record with a given ID has StatusActive at any time. Prior
// versions are retained as full copies under ArchiveID(id, version) with
// StatusArchived and remain decryptable with the master key. StatusRevoked
// is terminal.
type KeyRecord struct {
	ID          uuid.UUID
	Type        KeyType
	OwnerID     string
	Algorithm   Algorithm
	MasterKeyID string // ID of the master key this material is encrypted under
	Material    EncryptedMaterial
	Version     uint // monotonic, starts at 1
	Status      KeyStatus

	// PublicKey is the compressed 33-byte secp256k1 public key; only set
	// for wallet-signing keys.
	PublicKey []byte
	// DerivationPath is the BIP-44 path; only set for wallet-signing keys.
	DerivationPath string

	CreatedAt           time.Time
	LastUsedAt          time.Time
	RotationScheduledAt time.Time

	Metadata map[string]string
}

// ArchiveID derives the identifier an archived version of a key is stored
// under. Format: "{keyID}-v{version}".
func ArchiveID(id uuid.UUID, version uint) string {
	return fmt.Sprintf("%s-v%d", id, version)
}

// Clone returns a deep copy of the record, including material byte slices.
// Rotation archives a clone so later mutation of the active record cannot
// alias archived material.
func (k *KeyRecord) Clone() *KeyRecord {
	clone := *k

	clone.Material.Ciphertext = append([]byte(nil), k.Material.Ciphertext...)
	clone.Material.Nonce = append([]byte(nil), k.Material.Nonce...)
	clone.PublicKey = append([]byte(nil), k.PublicKey...)

	if k.Metadata != nil {
		clone.Metadata = make(map[string]string, len(k.Metadata))
		for key, value := range k.Metadata {
			clone.Metadata[key] = value
		}
	}

	return &clone
}

// IsActive reports whether the record can serve material.
func (k *KeyRecord) IsActive() bool {
	return k.Status == StatusActive
}

// RotationDue reports whether the record's scheduled rotation time has
// elapsed at now.
func (k *KeyRecord) RotationDue(now time.Time) bool {
	return k.Status == StatusActive &&
		!k.RotationScheduledAt.IsZero() &&
		now.After(k.RotationScheduledAt)
}
