package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store backed by a Redis server via go-redis.
//
// The client is created lazily from the connection URL so that constructing
// the store never fails on an unreachable server; the first network
// round-trip happens in Connect.
type RedisStore struct {
	url    string
	client *redis.Client
}

// NewRedisStore creates a RedisStore for the given connection URL
// (e.g., "redis://localhost:6379/0"). It returns an error only when the URL
// itself cannot be parsed, never for an unreachable server.
func NewRedisStore(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cache store URL: %w", err)
	}

	return &RedisStore{
		url:    url,
		client: redis.NewClient(opts),
	}, nil
}

// Connect verifies the server is reachable with a ping.
func (r *RedisStore) Connect(ctx context.Context) error {
	return r.Ping(ctx)
}

// Get returns the value stored under key, or ErrKeyNotFound on a miss.
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return value, nil
}

// Set stores value under key with the given TTL.
func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// SetIfAbsent stores value only when key does not exist (SET NX).
func (r *RedisStore) SetIfAbsent(
	ctx context.Context,
	key string,
	value []byte,
	ttl time.Duration,
) (bool, error) {
	stored, err := r.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}
	return stored, nil
}

// SetIfPresent stores value only when key already exists (SET XX).
func (r *RedisStore) SetIfPresent(
	ctx context.Context,
	key string,
	value []byte,
	ttl time.Duration,
) (bool, error) {
	stored, err := r.client.SetXX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setxx failed: %w", err)
	}
	return stored, nil
}

// Delete removes the given keys and returns how many existed.
func (r *RedisStore) Delete(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	deleted, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis del failed: %w", err)
	}
	return deleted, nil
}

// Keys returns all keys matching a glob-style pattern using SCAN, which
// avoids blocking the server the way KEYS would.
func (r *RedisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string

	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan failed: %w", err)
	}

	return keys, nil
}

// Ping verifies the server is reachable.
func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close releases the client's connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
