// Package domain defines the key-lifecycle domain models.
//
// Managed keys are envelope-encrypted: raw material is generated per key
// type, encrypted with a process-wide master key, and only ever served in
// decrypted form to the verified owner. Rotation archives the prior version
// under a derived identifier so data encrypted under old versions stays
// decryptable.
package domain

import (
	"time"
)

// Algorithm represents the cryptographic algorithm bound to a key type.
type Algorithm string

const (
	// AESGCM represents the AES-256-GCM authenticated encryption algorithm.
	// Preferred on CPUs with AES-NI hardware acceleration.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 represents the ChaCha20-Poly1305 authenticated encryption
	// algorithm. Constant-time in software, preferred without AES-NI.
	ChaCha20 Algorithm = "chacha20-poly1305"

	// Secp256k1 represents an ECDSA signing key on the secp256k1 curve,
	// used for wallet-signing keys. Private scalars are rejection-sampled
	// below the curve order.
	Secp256k1 Algorithm = "secp256k1"
)

// KeyType classifies the purpose of a managed key. The type registry is the
// single source of truth for algorithm choice and rotation cadence: adding a
// key type is a registry entry, not a code change elsewhere.
type KeyType string

const (
	// KeyTypeUserEncryption protects per-user data at rest.
	KeyTypeUserEncryption KeyType = "user-encryption"

	// KeyTypeWalletSigning signs blockchain transactions and messages.
	KeyTypeWalletSigning KeyType = "wallet-signing"

	// KeyTypeAPIAuthentication authenticates machine-to-machine API calls.
	KeyTypeAPIAuthentication KeyType = "api-authentication"

	// KeyTypeDatabaseEncryption protects database column material.
	KeyTypeDatabaseEncryption KeyType = "database-encryption"
)

// KeyStatus represents the lifecycle status of a key record.
type KeyStatus string

const (
	// StatusActive is the single servable version of a key.
	StatusActive KeyStatus = "active"

	// StatusArchived marks a prior version retained for decrypting old
	// data; archived material is retrievable but never used for new
	// encryption or signing.
	StatusArchived KeyStatus = "archived"

	// StatusRevoked is terminal: material is no longer served and the
	// rotation schedule is cancelled.
	StatusRevoked KeyStatus = "revoked"
)

// KeyTypeSpec declares the cryptographic profile of a key type.
type KeyTypeSpec struct {
	// Algorithm used for material generated under this type.
	Algorithm Algorithm
	// KeySize is the raw material length in bytes.
	KeySize int
	// RotationInterval is the maximum age of active material before the
	// scheduler rotates it.
	RotationInterval time.Duration
	// HardwareBacked indicates the material should live in an HSM in
	// production deployments.
	HardwareBacked bool
}

// keyTypeRegistry maps each key type to its cryptographic profile.
var keyTypeRegistry = map[KeyType]KeyTypeSpec{
	KeyTypeUserEncryption: {
		Algorithm:        AESGCM,
		KeySize:          32,
		RotationInterval: 90 * 24 * time.Hour,
	},
	KeyTypeWalletSigning: {
		Algorithm:        Secp256k1,
		KeySize:          32,
		RotationInterval: 365 * 24 * time.Hour,
		HardwareBacked:   true,
	},
	KeyTypeAPIAuthentication: {
		Algorithm:        AESGCM,
		KeySize:          32,
		RotationInterval: 30 * 24 * time.Hour,
	},
	KeyTypeDatabaseEncryption: {
		Algorithm:        ChaCha20,
		KeySize:          32,
		RotationInterval: 180 * 24 * time.Hour,
	},
}

// Spec returns the cryptographic profile for the key type.
// The second return value is false for unknown types.
func (k KeyType) Spec() (KeyTypeSpec, bool) {
	spec, ok := keyTypeRegistry[k]
	return spec, ok
}

// IsValid reports whether the key type exists in the registry.
func (k KeyType) IsValid() bool {
	_, ok := keyTypeRegistry[k]
	return ok
}

// SystemActor identifies operations performed by the scheduler rather than
// a user, both in audit entries and ownership checks.
const SystemActor = "system"

// DefaultDerivationPath is the BIP-44 path recorded on newly generated
// wallet-signing keys.
const DefaultDerivationPath = "m/44'/60'/0'/0/0"
