package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cacheDomain "github.com/tradeware/securecore/internal/cache/domain"
	"github.com/tradeware/securecore/internal/cache/store"
)

// capturingMetrics records every operation status for assertion.
type capturingMetrics struct {
	mu       sync.Mutex
	statuses map[string][]string
}

func newCapturingMetrics() *capturingMetrics {
	return &capturingMetrics{statuses: make(map[string][]string)}
}

func (c *capturingMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[domain+"/"+operation] = append(c.statuses[domain+"/"+operation], status)
}

func (c *capturingMetrics) RecordDuration(
	ctx context.Context, domain, operation string, duration time.Duration, status string,
) {
}

func (c *capturingMetrics) recorded(domain, operation string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statuses[domain+"/"+operation]
}

// failingSetStore accepts the connection but rejects every write.
type failingSetStore struct {
	*store.MemoryStore
}

func (f *failingSetStore) Set(
	ctx context.Context, key string, value []byte, ttl time.Duration,
) error {
	return errStoreDown
}

func TestEngineWithMetrics_Set(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_StoredWrite", func(t *testing.T) {
		m := newCapturingMetrics()
		e := NewEngineWithMetrics(connectedEngine(t, store.NewMemoryStore()), m)

		assert.True(t, e.Set(ctx, "k", []byte("v"), SetOptions{}))
		assert.Equal(t, []string{"success"}, m.recorded("cache", "set"))
	})

	t.Run("Success_ConditionalSkipRecordedAsSkipped", func(t *testing.T) {
		m := newCapturingMetrics()
		e := NewEngineWithMetrics(connectedEngine(t, store.NewMemoryStore()), m)

		require.True(t, e.Set(ctx, "k", []byte("v1"), SetOptions{}))

		// If-absent on an existing key and if-present on a missing key are
		// correctly refused writes, not store failures.
		assert.False(t, e.Set(ctx, "k", []byte("v2"), SetOptions{
			Condition: cacheDomain.ConditionIfAbsent,
		}))
		assert.False(t, e.Set(ctx, "missing", []byte("v"), SetOptions{
			Condition: cacheDomain.ConditionIfPresent,
		}))

		assert.Equal(t, []string{"success", "skipped", "skipped"}, m.recorded("cache", "set"))
	})

	t.Run("Error_StoreFailureRecordedAsError", func(t *testing.T) {
		m := newCapturingMetrics()
		s := &failingSetStore{MemoryStore: store.NewMemoryStore()}
		e := NewEngineWithMetrics(connectedEngine(t, s), m)

		assert.False(t, e.Set(ctx, "k", []byte("v"), SetOptions{}))
		assert.Equal(t, []string{"error"}, m.recorded("cache", "set"))
	})

	t.Run("Error_DisconnectedEngineRecordedAsError", func(t *testing.T) {
		m := newCapturingMetrics()
		e := NewEngineWithMetrics(NewEngine(store.NewMemoryStore(), testSettings(), testLogger()), m)

		assert.False(t, e.Set(ctx, "k", []byte("v"), SetOptions{}))
		assert.Equal(t, []string{"error"}, m.recorded("cache", "set"))
	})
}
