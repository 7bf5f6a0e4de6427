package service

import (
	"context"
	"time"

	cacheDomain "github.com/tradeware/securecore/internal/cache/domain"
	"github.com/tradeware/securecore/internal/metrics"
)

// engineWithMetrics decorates Engine with metrics instrumentation.
type engineWithMetrics struct {
	next    Engine
	metrics metrics.BusinessMetrics
}

// NewEngineWithMetrics wraps an Engine with metrics recording.
func NewEngineWithMetrics(next Engine, m metrics.BusinessMetrics) Engine {
	return &engineWithMetrics{
		next:    next,
		metrics: m,
	}
}

// Connect records metrics for the initial store connection.
func (e *engineWithMetrics) Connect(ctx context.Context) error {
	start := time.Now()
	err := e.next.Connect(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "cache", "connect", status)
	e.metrics.RecordDuration(ctx, "cache", "connect", time.Since(start), status)

	return err
}

// Get records hit/miss metrics for cache lookups.
func (e *engineWithMetrics) Get(ctx context.Context, key string, opts GetOptions) ([]byte, bool) {
	start := time.Now()
	value, ok := e.next.Get(ctx, key, opts)

	status := "miss"
	if ok {
		status = "hit"
	}

	e.metrics.RecordOperation(ctx, "cache", "get", status)
	e.metrics.RecordDuration(ctx, "cache", "get", time.Since(start), status)

	return value, ok
}

// Set records metrics for cache writes. A conditional write whose condition
// did not hold is recorded as "skipped", not "error": only store failures and
// writes against a disconnected engine count as errors.
func (e *engineWithMetrics) Set(ctx context.Context, key string, value []byte, opts SetOptions) bool {
	start := time.Now()
	errorsBefore := e.next.Stats().Errors
	stored := e.next.Set(ctx, key, value, opts)

	status := "success"
	if !stored {
		if e.next.State() != cacheDomain.StateConnected || e.next.Stats().Errors > errorsBefore {
			status = "error"
		} else {
			status = "skipped"
		}
	}

	e.metrics.RecordOperation(ctx, "cache", "set", status)
	e.metrics.RecordDuration(ctx, "cache", "set", time.Since(start), status)

	return stored
}

// GetOrSet records metrics for cache-aside get-or-compute calls.
func (e *engineWithMetrics) GetOrSet(
	ctx context.Context,
	key string,
	fetch FetchFunc,
	opts GetOrSetOptions,
) ([]byte, error) {
	start := time.Now()
	value, err := e.next.GetOrSet(ctx, key, fetch, opts)

	status := "success"
	if err != nil || value == nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "cache", "get_or_set", status)
	e.metrics.RecordDuration(ctx, "cache", "get_or_set", time.Since(start), status)

	return value, err
}

// InvalidatePattern records metrics for pattern invalidations.
func (e *engineWithMetrics) InvalidatePattern(
	ctx context.Context,
	pattern string,
	opts GetOptions,
) int {
	start := time.Now()
	deleted := e.next.InvalidatePattern(ctx, pattern, opts)

	e.metrics.RecordOperation(ctx, "cache", "invalidate_pattern", "success")
	e.metrics.RecordDuration(ctx, "cache", "invalidate_pattern", time.Since(start), "success")

	return deleted
}

// Warmup records metrics for warm-up runs.
func (e *engineWithMetrics) Warmup(ctx context.Context, plan WarmupPlan) cacheDomain.WarmupResult {
	start := time.Now()
	result := e.next.Warmup(ctx, plan)

	status := "success"
	if result.UserErrors > 0 || result.SymbolErrors > 0 {
		status = "partial"
	}

	e.metrics.RecordOperation(ctx, "cache", "warmup", status)
	e.metrics.RecordDuration(ctx, "cache", "warmup", time.Since(start), status)

	return result
}

// Stats delegates to the wrapped engine.
func (e *engineWithMetrics) Stats() cacheDomain.Stats {
	return e.next.Stats()
}

// State delegates to the wrapped engine.
func (e *engineWithMetrics) State() cacheDomain.EngineState {
	return e.next.State()
}
