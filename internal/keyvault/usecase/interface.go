// Package usecase defines business logic interfaces for key lifecycle operations.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	keyvaultDomain "github.com/tradeware/securecore/internal/keyvault/domain"
)

// KeyRepository defines persistence operations for key records. The active
// record and its archived versions live in separate namespaces: archived
// copies are stored under ArchiveID(id, version) and never collide with the
// active record.
type KeyRepository interface {
	// Create stores a new key record. Returns ErrKeyAlreadyExists on ID collision.
	Create(ctx context.Context, record *keyvaultDomain.KeyRecord) error

	// Get retrieves the active-namespace record by ID.
	// Returns ErrKeyNotFound if not found.
	Get(ctx context.Context, keyID uuid.UUID) (*keyvaultDomain.KeyRecord, error)

	// Update replaces the stored record. Returns ErrKeyNotFound if not found.
	Update(ctx context.Context, record *keyvaultDomain.KeyRecord) error

	// Archive stores a copy of the record under ArchiveID(record.ID, record.Version).
	Archive(ctx context.Context, record *keyvaultDomain.KeyRecord) error

	// GetArchived retrieves an archived version of a key.
	// Returns ErrKeyNotFound if that version was never archived.
	GetArchived(ctx context.Context, keyID uuid.UUID, version uint) (*keyvaultDomain.KeyRecord, error)

	// ListActive returns all records with StatusActive.
	ListActive(ctx context.Context) ([]*keyvaultDomain.KeyRecord, error)

	// ListDue returns all active records whose scheduled rotation time has
	// elapsed at now.
	ListDue(ctx context.Context, now time.Time) ([]*keyvaultDomain.KeyRecord, error)
}

// SchemeRepository defines persistence operations for multi-sig schemes.
type SchemeRepository interface {
	// Create stores a new scheme.
	Create(ctx context.Context, scheme *keyvaultDomain.MultiSigScheme) error

	// Get retrieves a scheme by ID. Returns ErrSchemeNotFound if not found.
	Get(ctx context.Context, schemeID uuid.UUID) (*keyvaultDomain.MultiSigScheme, error)
}

// RotationPlanner schedules future rotations. The scheduler implements it;
// the use case calls it after generate, rotate, and revoke so timers always
// track the persisted RotationScheduledAt.
type RotationPlanner interface {
	// Schedule arms (or re-arms) the rotation timer for keyID at the given time.
	Schedule(keyID uuid.UUID, at time.Time)

	// Cancel disarms the rotation timer for keyID.
	Cancel(keyID uuid.UUID)
}

// UseCase defines the key lifecycle business logic operations.
//
// All operations that accept an actorID verify ownership before touching key
// material. Decrypted material is returned only by GetKey and GetArchivedKey
// and only to the verified owner; no operation logs or persists plaintext.
type UseCase interface {
	// GenerateKey creates a new key of the given registry type, encrypts the
	// material under the active master key, persists the record with
	// Version=1, schedules its rotation, and audits the event. The returned
	// record contains only encrypted material.
	GenerateKey(
		ctx context.Context,
		keyType keyvaultDomain.KeyType,
		ownerID string,
	) (*keyvaultDomain.KeyRecord, error)

	// GetKey returns the active record and its decrypted material.
	// Check order: existence (ErrKeyNotFound), ownership (ErrAccessDenied),
	// status (ErrInvalidKeyState) before any decryption. Updates LastUsedAt.
	GetKey(
		ctx context.Context,
		keyID uuid.UUID,
		actorID string,
	) (*keyvaultDomain.KeyRecord, []byte, error)

	// GetArchivedKey returns an archived version and its decrypted material
	// so data encrypted under prior versions can still be read.
	GetArchivedKey(
		ctx context.Context,
		keyID uuid.UUID,
		version uint,
		actorID string,
	) (*keyvaultDomain.KeyRecord, []byte, error)

	// RotateKey archives the current version and generates fresh material of
	// the same type with Version+1. Any failure aborts before persisting;
	// the previous version stays active. Returns the new record.
	RotateKey(
		ctx context.Context,
		keyID uuid.UUID,
		actorID string,
	) (*keyvaultDomain.KeyRecord, error)

	// RevokeKey marks the key revoked and cancels its rotation schedule.
	// The reason is recorded in the audit trail. Revocation is terminal.
	RevokeKey(ctx context.Context, keyID uuid.UUID, actorID string, reason string) error

	// DeriveWalletAddress returns the EVM-style address for a wallet-signing
	// key. Returns ErrWrongKeyType for any other key type.
	DeriveWalletAddress(ctx context.Context, keyID uuid.UUID, actorID string) (string, error)

	// SignMessage signs message with a wallet-signing key and returns the
	// DER-encoded signature. Returns ErrWrongKeyType for any other key type.
	SignMessage(
		ctx context.Context,
		keyID uuid.UUID,
		actorID string,
		message []byte,
	) ([]byte, error)

	// CreateMultiSigScheme validates and registers a threshold signing
	// scheme over active wallet-signing keys owned by ownerID.
	CreateMultiSigScheme(
		ctx context.Context,
		ownerID string,
		keyIDs []uuid.UUID,
		threshold int,
		metadata map[string]string,
	) (*keyvaultDomain.MultiSigScheme, error)
}
