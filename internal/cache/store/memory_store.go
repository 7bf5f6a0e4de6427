package store

import (
	"context"
	"path"
	"sync"
	"time"
)

// memoryEntry holds a value with its absolute expiration time.
// A zero expiresAt means the entry never expires.
type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// expired reports whether the entry's TTL has elapsed at now.
func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore implements Store with an in-process map, matching the
// Redis-compatible semantics of the RedisStore (TTL expiry, NX/XX writes,
// glob pattern scans). It serves tests and store-less deployments.
//
// Expired entries are removed lazily on access rather than by a background
// janitor, keeping the implementation goroutine-free.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Connect is a no-op; the in-memory store is always reachable.
func (m *MemoryStore) Connect(ctx context.Context) error {
	return nil
}

// Get returns the value stored under key, or ErrKeyNotFound on a miss.
func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	if entry.expired(m.now()) {
		delete(m.entries, key)
		return nil, ErrKeyNotFound
	}

	// Copy so callers can't mutate the stored slice.
	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, nil
}

// Set stores value under key with the given TTL.
func (m *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store(key, value, ttl)
	return nil
}

// SetIfAbsent stores value only when key does not exist.
func (m *MemoryStore) SetIfAbsent(
	ctx context.Context,
	key string,
	value []byte,
	ttl time.Duration,
) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.entries[key]; ok && !entry.expired(m.now()) {
		return false, nil
	}

	m.store(key, value, ttl)
	return true, nil
}

// SetIfPresent stores value only when key already exists.
func (m *MemoryStore) SetIfPresent(
	ctx context.Context,
	key string,
	value []byte,
	ttl time.Duration,
) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok || entry.expired(m.now()) {
		delete(m.entries, key)
		return false, nil
	}

	m.store(key, value, ttl)
	return true, nil
}

// Delete removes the given keys and returns how many existed.
func (m *MemoryStore) Delete(ctx context.Context, keys ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	now := m.now()
	for _, key := range keys {
		if entry, ok := m.entries[key]; ok {
			if !entry.expired(now) {
				deleted++
			}
			delete(m.entries, key)
		}
	}
	return deleted, nil
}

// Keys returns all live keys matching a glob-style pattern.
// Patterns follow path.Match syntax ('*', '?', character classes), which
// covers the glob subset used by Redis MATCH.
func (m *MemoryStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	now := m.now()
	for key, entry := range m.entries {
		if entry.expired(now) {
			delete(m.entries, key)
			continue
		}
		if matched, err := path.Match(pattern, key); err == nil && matched {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Ping is a no-op; the in-memory store is always reachable.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close clears all entries.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]memoryEntry)
	return nil
}

// store writes an entry under the lock. Callers must hold mu.
func (m *MemoryStore) store(key string, value []byte, ttl time.Duration) {
	stored := make([]byte, len(value))
	copy(stored, value)

	entry := memoryEntry{value: stored}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = entry
}
