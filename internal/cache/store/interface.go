// Package store abstracts the key-value backing store used by the cache engine.
// Implementations must support TTLs, conditional writes, and glob pattern scans.
package store

import (
	"context"
	"time"

	"github.com/tradeware/securecore/internal/errors"
)

// ErrKeyNotFound indicates the requested key does not exist in the store.
// Implementations must return this (not an infrastructure error) for misses
// so the engine can distinguish a miss from a store failure.
var ErrKeyNotFound = errors.Wrap(errors.ErrNotFound, "cache key not found")

// IsNotFound reports whether err represents a cache miss rather than a
// store failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

// Store defines the backing key-value store contract.
//
// Implementations must tolerate being unreachable at construction time:
// constructors never dial; Connect performs the first network round-trip so
// the engine can fall back gracefully when the store is down.
type Store interface {
	// Connect establishes the connection and verifies it with a ping.
	Connect(ctx context.Context) error

	// Get returns the value stored under key, or ErrKeyNotFound on a miss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// SetIfAbsent stores value only when key does not exist.
	// Returns false when the key was already present.
	SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// SetIfPresent stores value only when key already exists.
	// Returns false when the key was absent.
	SetIfPresent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Delete removes the given keys and returns how many existed.
	Delete(ctx context.Context, keys ...string) (int64, error)

	// Keys returns all keys matching a glob-style pattern.
	// This is an O(store-size) scan; callers must keep it off hot paths.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the connection resources.
	Close() error
}
