// Package repository provides in-memory implementations of the key vault
// repositories. Records are deep-copied on the way in and out so callers can
// never mutate stored state through aliased slices or maps.
package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	keyvaultDomain "github.com/tradeware/securecore/internal/keyvault/domain"
)

// MemoryKeyRepository implements usecase.KeyRepository backed by maps.
// Active records are keyed by UUID; archived versions by ArchiveID.
type MemoryKeyRepository struct {
	mu       sync.RWMutex
	records  map[uuid.UUID]*keyvaultDomain.KeyRecord
	archived map[string]*keyvaultDomain.KeyRecord
}

// NewMemoryKeyRepository creates a new MemoryKeyRepository.
func NewMemoryKeyRepository() *MemoryKeyRepository {
	return &MemoryKeyRepository{
		records:  make(map[uuid.UUID]*keyvaultDomain.KeyRecord),
		archived: make(map[string]*keyvaultDomain.KeyRecord),
	}
}

// Create stores a new key record. Returns ErrKeyAlreadyExists on ID collision.
func (r *MemoryKeyRepository) Create(ctx context.Context, record *keyvaultDomain.KeyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[record.ID]; ok {
		return keyvaultDomain.ErrKeyAlreadyExists
	}
	r.records[record.ID] = record.Clone()
	return nil
}

// Get retrieves the active-namespace record by ID.
func (r *MemoryKeyRepository) Get(
	ctx context.Context,
	keyID uuid.UUID,
) (*keyvaultDomain.KeyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[keyID]
	if !ok {
		return nil, keyvaultDomain.ErrKeyNotFound
	}
	return record.Clone(), nil
}

// Update replaces the stored record.
func (r *MemoryKeyRepository) Update(ctx context.Context, record *keyvaultDomain.KeyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[record.ID]; !ok {
		return keyvaultDomain.ErrKeyNotFound
	}
	r.records[record.ID] = record.Clone()
	return nil
}

// Archive stores a copy of the record under ArchiveID(record.ID, record.Version).
func (r *MemoryKeyRepository) Archive(ctx context.Context, record *keyvaultDomain.KeyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.archived[keyvaultDomain.ArchiveID(record.ID, record.Version)] = record.Clone()
	return nil
}

// GetArchived retrieves an archived version of a key.
func (r *MemoryKeyRepository) GetArchived(
	ctx context.Context,
	keyID uuid.UUID,
	version uint,
) (*keyvaultDomain.KeyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.archived[keyvaultDomain.ArchiveID(keyID, version)]
	if !ok {
		return nil, keyvaultDomain.ErrKeyNotFound
	}
	return record.Clone(), nil
}

// ListActive returns all records with StatusActive.
func (r *MemoryKeyRepository) ListActive(
	ctx context.Context,
) ([]*keyvaultDomain.KeyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var records []*keyvaultDomain.KeyRecord
	for _, record := range r.records {
		if record.IsActive() {
			records = append(records, record.Clone())
		}
	}
	return records, nil
}

// ListDue returns all active records whose scheduled rotation time has elapsed.
func (r *MemoryKeyRepository) ListDue(
	ctx context.Context,
	now time.Time,
) ([]*keyvaultDomain.KeyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var records []*keyvaultDomain.KeyRecord
	for _, record := range r.records {
		if record.RotationDue(now) {
			records = append(records, record.Clone())
		}
	}
	return records, nil
}
