package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	keyvaultDomain "github.com/tradeware/securecore/internal/keyvault/domain"
)

// MemorySchemeRepository implements usecase.SchemeRepository backed by a map.
type MemorySchemeRepository struct {
	mu      sync.RWMutex
	schemes map[uuid.UUID]*keyvaultDomain.MultiSigScheme
}

// NewMemorySchemeRepository creates a new MemorySchemeRepository.
func NewMemorySchemeRepository() *MemorySchemeRepository {
	return &MemorySchemeRepository{
		schemes: make(map[uuid.UUID]*keyvaultDomain.MultiSigScheme),
	}
}

// Create stores a new scheme.
func (r *MemorySchemeRepository) Create(
	ctx context.Context,
	scheme *keyvaultDomain.MultiSigScheme,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.schemes[scheme.ID] = cloneScheme(scheme)
	return nil
}

// Get retrieves a scheme by ID.
func (r *MemorySchemeRepository) Get(
	ctx context.Context,
	schemeID uuid.UUID,
) (*keyvaultDomain.MultiSigScheme, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	scheme, ok := r.schemes[schemeID]
	if !ok {
		return nil, keyvaultDomain.ErrSchemeNotFound
	}
	return cloneScheme(scheme), nil
}

func cloneScheme(s *keyvaultDomain.MultiSigScheme) *keyvaultDomain.MultiSigScheme {
	clone := *s
	clone.KeyIDs = append([]uuid.UUID(nil), s.KeyIDs...)
	if s.Metadata != nil {
		clone.Metadata = make(map[string]string, len(s.Metadata))
		for key, value := range s.Metadata {
			clone.Metadata[key] = value
		}
	}
	return &clone
}
