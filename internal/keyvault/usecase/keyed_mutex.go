package usecase

import (
	"sync"

	"github.com/google/uuid"
)

// keyedMutex serializes lifecycle operations per key ID. Locks are never
// removed; the map is bounded by the number of keys the vault has seen, which
// matches the in-memory repository's own footprint.
type keyedMutex struct {
	locks sync.Map
}

// lock acquires the mutex for keyID and returns its unlock function.
func (k *keyedMutex) lock(keyID uuid.UUID) func() {
	value, _ := k.locks.LoadOrStore(keyID, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
