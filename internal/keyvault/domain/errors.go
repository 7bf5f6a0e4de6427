package domain

import (
	"github.com/tradeware/securecore/internal/errors"
)

// Key lifecycle error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors so
// the calling application layer can branch on the underlying sentinel while
// logging the key-management context.
var (
	// ErrKeyNotFound indicates the referenced key does not exist.
	ErrKeyNotFound = errors.Wrap(errors.ErrNotFound, "key not found")

	// ErrSchemeNotFound indicates the referenced multi-sig scheme does not exist.
	ErrSchemeNotFound = errors.Wrap(errors.ErrNotFound, "multi-sig scheme not found")

	// ErrAccessDenied indicates the caller is not the owner of the key.
	// Ownership is validated before any key material is touched.
	ErrAccessDenied = errors.Wrap(errors.ErrForbidden, "access denied")

	// ErrInvalidKeyState indicates the operation was attempted against a
	// revoked or otherwise non-active key. Revocation is terminal; no
	// operation can resurrect a revoked key.
	ErrInvalidKeyState = errors.Wrap(errors.ErrConflict, "key is not active")

	// ErrWrongKeyType indicates an operation restricted to one key type was
	// invoked on a record of another (e.g., signing with an encryption key).
	ErrWrongKeyType = errors.Wrap(errors.ErrInvalidInput, "wrong key type")

	// ErrUnknownKeyType indicates the requested key type is not in the registry.
	ErrUnknownKeyType = errors.Wrap(errors.ErrInvalidInput, "unknown key type")

	// ErrThresholdExceedsKeys indicates a multi-sig threshold larger than
	// the number of participating keys.
	ErrThresholdExceedsKeys = errors.Wrap(errors.ErrInvalidInput, "threshold exceeds key count")

	// ErrUnsupportedAlgorithm indicates the requested algorithm is not supported.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates key material of incorrect length.
	// Master keys and symmetric material must be exactly 32 bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrDecryptionFailed indicates a master-key decryption or
	// authentication-tag check failed. Fatal for that key only, never
	// process-wide; the specific cause is not disclosed to prevent
	// information leakage.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")

	// ErrKeyAlreadyExists indicates an identifier collision on creation.
	ErrKeyAlreadyExists = errors.Wrap(errors.ErrConflict, "key already exists")

	// ErrRotatorNotSet indicates the scheduler was started before its
	// rotation use case was injected.
	ErrRotatorNotSet = errors.Wrap(errors.ErrInvalidInput, "rotator not set")
)

// Master key loading error definitions.
var (
	// ErrMasterKeysNotSet indicates the MASTER_KEYS environment variable is missing.
	ErrMasterKeysNotSet = errors.Wrap(errors.ErrInvalidInput, "MASTER_KEYS not set")

	// ErrActiveMasterKeyIDNotSet indicates ACTIVE_MASTER_KEY_ID is missing.
	ErrActiveMasterKeyIDNotSet = errors.Wrap(errors.ErrInvalidInput, "ACTIVE_MASTER_KEY_ID not set")

	// ErrInvalidMasterKeysFormat indicates a malformed MASTER_KEYS entry.
	ErrInvalidMasterKeysFormat = errors.Wrap(errors.ErrInvalidInput, "invalid master keys format")

	// ErrInvalidMasterKeyBase64 indicates a master key that is not valid base64.
	ErrInvalidMasterKeyBase64 = errors.Wrap(errors.ErrInvalidInput, "invalid master key base64")

	// ErrActiveMasterKeyNotFound indicates ACTIVE_MASTER_KEY_ID references
	// a key absent from MASTER_KEYS.
	ErrActiveMasterKeyNotFound = errors.Wrap(errors.ErrInvalidInput, "active master key not found")

	// ErrMasterKeyNotFound indicates a record references a master key that
	// is no longer in the chain.
	ErrMasterKeyNotFound = errors.Wrap(errors.ErrNotFound, "master key not found")
)
