package domain

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"sync"
)

// MasterKey is a top-level secret used to encrypt all managed key material
// at rest. Master keys must be exactly 32 bytes (256 bits).
//
// In production the raw material should come from a KMS or HSM; pass an
// Unwrapper to LoadMasterKeyChainFromEnv to decrypt KMS-wrapped entries.
type MasterKey struct {
	ID  string
	Key []byte
}

// Unwrapper decrypts KMS-wrapped master key material. *secrets.Keeper from
// gocloud.dev satisfies this interface.
type Unwrapper interface {
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// MasterKeyChain manages a collection of master keys with one designated as
// active. The chain is read-only after initialization: records remember the
// master key ID they were encrypted under, so older keys stay available for
// decryption while new material is encrypted with the active key.
//
// Thread safety: the chain uses sync.Map internally for concurrent access.
type MasterKeyChain struct {
	activeID string
	keys     sync.Map
}

// NewMasterKeyChain builds a chain from the given keys with activeID marked
// active. Every key must be exactly 32 bytes and activeID must be present.
func NewMasterKeyChain(activeID string, keys ...*MasterKey) (*MasterKeyChain, error) {
	mkc := &MasterKeyChain{activeID: activeID}
	for _, key := range keys {
		if len(key.Key) != 32 {
			return nil, fmt.Errorf(
				"%w: master key %s must be 32 bytes, got %d",
				ErrInvalidKeySize,
				key.ID,
				len(key.Key),
			)
		}
		mkc.keys.Store(key.ID, key)
	}
	if _, ok := mkc.Get(activeID); !ok {
		return nil, ErrActiveMasterKeyNotFound
	}
	return mkc, nil
}

// ActiveMasterKeyID returns the ID of the master key used to encrypt new
// key material.
func (m *MasterKeyChain) ActiveMasterKeyID() string {
	return m.activeID
}

// Get retrieves a master key from the chain by its ID.
func (m *MasterKeyChain) Get(id string) (*MasterKey, bool) {
	if masterKey, ok := m.keys.Load(id); ok {
		return masterKey.(*MasterKey), ok
	}

	return nil, false
}

// Active returns the active master key.
// Returns ErrMasterKeyNotFound if the chain was not initialized correctly.
func (m *MasterKeyChain) Active() (*MasterKey, error) {
	masterKey, ok := m.Get(m.activeID)
	if !ok {
		return nil, ErrMasterKeyNotFound
	}
	return masterKey, nil
}

// Close zeroes all master key material and resets the chain. Call during
// application shutdown so key bytes do not linger in memory.
func (m *MasterKeyChain) Close() {
	m.keys.Range(func(key, value any) bool {
		if masterKey, ok := value.(*MasterKey); ok {
			Zero(masterKey.Key)
		}
		return true
	})
	m.activeID = ""
	m.keys.Clear()
}

// LoadMasterKeyChainFromEnv loads master keys from environment variables.
//
// Two variables are read:
//   - MASTER_KEYS: comma-separated entries in "id:base64material" format
//   - ACTIVE_MASTER_KEY_ID: the ID used to encrypt new key material
//
// When unwrap is non-nil each entry's material is treated as KMS-wrapped
// ciphertext and decrypted through the Unwrapper; otherwise it must decode
// to exactly 32 raw bytes. On any error the chain is closed so partially
// loaded key material is zeroed.
func LoadMasterKeyChainFromEnv(ctx context.Context, unwrap Unwrapper) (*MasterKeyChain, error) {
	raw := os.Getenv("MASTER_KEYS")
	if raw == "" {
		return nil, ErrMasterKeysNotSet
	}

	active := os.Getenv("ACTIVE_MASTER_KEY_ID")
	if active == "" {
		return nil, ErrActiveMasterKeyIDNotSet
	}

	mkc := &MasterKeyChain{activeID: active}

	parts := strings.SplitSeq(raw, ",")
	for part := range parts {
		p := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(p) != 2 {
			mkc.Close()
			return nil, fmt.Errorf("%w: %q", ErrInvalidMasterKeysFormat, part)
		}
		id := p[0]
		key, err := base64.StdEncoding.DecodeString(p[1])
		if err != nil {
			mkc.Close()
			return nil, fmt.Errorf("%w for %s: %v", ErrInvalidMasterKeyBase64, id, err)
		}
		if unwrap != nil {
			unwrapped, err := unwrap.Decrypt(ctx, key)
			Zero(key)
			if err != nil {
				mkc.Close()
				return nil, fmt.Errorf("failed to unwrap master key %s: %w", id, err)
			}
			key = unwrapped
		}
		if len(key) != 32 {
			Zero(key)
			mkc.Close()
			return nil, fmt.Errorf(
				"%w: master key %s must be 32 bytes, got %d",
				ErrInvalidKeySize,
				id,
				len(key),
			)
		}
		mkc.keys.Store(id, &MasterKey{ID: id, Key: key})
	}

	if _, ok := mkc.Get(active); !ok {
		mkc.Close()
		return nil, fmt.Errorf("%w: ACTIVE_MASTER_KEY_ID=%s", ErrActiveMasterKeyNotFound, active)
	}

	return mkc, nil
}
