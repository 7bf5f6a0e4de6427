// Package service implements the cache-aside engine on top of the backing store.
//
// The engine provides namespaced get/set access with TTL governance, bulk
// warm-up, glob invalidation, and hit/miss/error statistics. Store failures
// are swallowed and counted: callers of Get/Set/GetOrSet never see an
// infrastructure error, they see a miss or a failed write. When the store is
// unreachable at initialization the engine enters fallback mode and the rest
// of the application keeps running degraded.
package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	cacheDomain "github.com/tradeware/securecore/internal/cache/domain"
	"github.com/tradeware/securecore/internal/cache/store"
)

// FetchFunc computes the value for a cache key on a miss. The function may
// block on I/O; callers impose timeouts through the context they supply.
type FetchFunc func(ctx context.Context) ([]byte, error)

// GetOptions configures a single cache lookup.
type GetOptions struct {
	// Prefix is an additional namespace segment between the engine prefix
	// and the logical key (e.g., "portfolio").
	Prefix string
}

// SetOptions configures a single cache write.
type SetOptions struct {
	// Prefix is an additional namespace segment for the key.
	Prefix string
	// TTL is the requested time-to-live. Zero selects the engine default.
	// The effective TTL is always clamped to the configured [min, max] bounds.
	TTL time.Duration
	// Condition selects conditional-write semantics on the backing store.
	Condition cacheDomain.WriteCondition
}

// GetOrSetOptions configures a cache-aside get-or-compute call.
type GetOrSetOptions struct {
	// Prefix is an additional namespace segment for the key.
	Prefix string
	// TTL is the requested time-to-live for a freshly computed value.
	TTL time.Duration
	// DisableFallback makes fetch failures propagate to the caller instead
	// of degrading to a nil result. The default (fallback enabled) favors
	// availability: callers must treat a nil result as "data unavailable",
	// never as a valid empty value.
	DisableFallback bool
}

// WarmupLoader loads the value to pre-populate for a single warm-up item.
type WarmupLoader func(ctx context.Context, id string) ([]byte, error)

// WarmupPlan describes a best-effort bulk pre-population run.
type WarmupPlan struct {
	UserIDs      []string
	UserLoader   WarmupLoader
	Symbols      []string
	SymbolLoader WarmupLoader
	// TTL applies to every warmed entry. Zero selects the engine default.
	TTL time.Duration
}

// Engine defines the cache-aside contract consumed by application code.
type Engine interface {
	// Connect attempts to reach the backing store, transitioning to the
	// connected state on success or fallback mode on failure. In fallback
	// mode every lookup is a miss and every write fails; the engine does
	// not retry the connection.
	Connect(ctx context.Context) error

	// Get returns the cached value for key, or ok=false on a miss.
	// Store failures are counted and reported as misses.
	Get(ctx context.Context, key string, opts GetOptions) (value []byte, ok bool)

	// Set stores value under key and reports success. The effective TTL is
	// clamped to the configured bounds regardless of the requested TTL.
	Set(ctx context.Context, key string, value []byte, opts SetOptions) bool

	// GetOrSet returns the cached value for key, computing and storing it
	// via fetch on a miss. Concurrent callers for the same key share a
	// single fetch. With fallback enabled (default) a fetch failure yields
	// (nil, nil); with fallback disabled the fetch error is returned.
	GetOrSet(ctx context.Context, key string, fetch FetchFunc, opts GetOrSetOptions) ([]byte, error)

	// InvalidatePattern deletes all keys matching a glob-style pattern
	// within the engine namespace and returns the number deleted.
	// This performs an O(store-size) scan; keep it off hot paths.
	InvalidatePattern(ctx context.Context, pattern string, opts GetOptions) int

	// Warmup pre-populates portfolio and quote entries, collecting
	// per-category success/error counts. Individual failures never abort
	// the run.
	Warmup(ctx context.Context, plan WarmupPlan) cacheDomain.WarmupResult

	// Stats returns a snapshot of the engine counters.
	Stats() cacheDomain.Stats

	// State returns the current engine lifecycle state.
	State() cacheDomain.EngineState
}

// Settings holds the engine's TTL policy and namespacing configuration.
type Settings struct {
	// Prefix is the top-level namespace prepended to every key.
	Prefix string
	// DefaultTTL applies when a caller does not request a TTL.
	DefaultTTL time.Duration
	// MinTTL and MaxTTL are the clamp bounds for requested TTLs.
	MinTTL time.Duration
	MaxTTL time.Duration
	// WarmupRatePerSec limits how many warm-up loads run per second.
	WarmupRatePerSec float64
}

// engine implements Engine.
type engine struct {
	store    store.Store
	settings Settings
	logger   *slog.Logger

	group   singleflight.Group
	limiter *rate.Limiter

	mu    sync.RWMutex
	state cacheDomain.EngineState

	hits          atomic.Uint64
	misses        atomic.Uint64
	sets          atomic.Uint64
	errors        atomic.Uint64
	invalidations atomic.Uint64
}

// NewEngine creates a cache engine over the given store. The engine starts
// disconnected; call Connect before use.
func NewEngine(s store.Store, settings Settings, logger *slog.Logger) Engine {
	warmupRate := rate.Limit(settings.WarmupRatePerSec)
	if settings.WarmupRatePerSec <= 0 {
		warmupRate = rate.Inf
	}

	return &engine{
		store:    s,
		settings: settings,
		logger:   logger,
		limiter:  rate.NewLimiter(warmupRate, 1),
		state:    cacheDomain.StateDisconnected,
	}
}

// Connect attempts the initial store connection.
func (e *engine) Connect(ctx context.Context) error {
	e.setState(cacheDomain.StateConnecting)

	if err := e.store.Connect(ctx); err != nil {
		e.setState(cacheDomain.StateFallback)
		e.logger.Warn("cache store unreachable, entering fallback mode",
			slog.Any("error", err),
		)
		return cacheDomain.ErrStoreUnavailable
	}

	e.setState(cacheDomain.StateConnected)
	return nil
}

// Get returns the cached value for key, or ok=false on a miss.
func (e *engine) Get(ctx context.Context, key string, opts GetOptions) ([]byte, bool) {
	if e.State() != cacheDomain.StateConnected {
		e.misses.Add(1)
		return nil, false
	}

	value, err := e.store.Get(ctx, e.namespaced(opts.Prefix, key))
	if err != nil {
		if !store.IsNotFound(err) {
			e.errors.Add(1)
			e.logger.Debug("cache get failed", slog.String("key", key), slog.Any("error", err))
		}
		e.misses.Add(1)
		return nil, false
	}

	e.hits.Add(1)
	return value, true
}

// Set stores value under key and reports success.
func (e *engine) Set(ctx context.Context, key string, value []byte, opts SetOptions) bool {
	if e.State() != cacheDomain.StateConnected {
		return false
	}

	fullKey := e.namespaced(opts.Prefix, key)
	ttl := e.clampTTL(opts.TTL)

	var (
		stored = true
		err    error
	)
	switch opts.Condition {
	case cacheDomain.ConditionIfAbsent:
		stored, err = e.store.SetIfAbsent(ctx, fullKey, value, ttl)
	case cacheDomain.ConditionIfPresent:
		stored, err = e.store.SetIfPresent(ctx, fullKey, value, ttl)
	default:
		err = e.store.Set(ctx, fullKey, value, ttl)
	}
	if err != nil {
		e.errors.Add(1)
		e.logger.Debug("cache set failed", slog.String("key", key), slog.Any("error", err))
		return false
	}
	if stored {
		e.sets.Add(1)
	}
	return stored
}

// GetOrSet implements cache-aside get-or-compute with a shared in-flight fetch.
func (e *engine) GetOrSet(
	ctx context.Context,
	key string,
	fetch FetchFunc,
	opts GetOrSetOptions,
) ([]byte, error) {
	fullKey := e.namespaced(opts.Prefix, key)

	if value, ok := e.Get(ctx, key, GetOptions{Prefix: opts.Prefix}); ok {
		return value, nil
	}

	// Singleflight keyed on the namespaced key: concurrent misses for the
	// same key share one fetch, so the backing source sees at most one load.
	result, err, _ := e.group.Do(fullKey, func() (any, error) {
		// A concurrent caller may have populated the key while this call
		// waited on the flight group. Raw store lookup to keep the extra
		// check out of the hit/miss counters.
		if e.State() == cacheDomain.StateConnected {
			if value, lookupErr := e.store.Get(ctx, fullKey); lookupErr == nil {
				return value, nil
			}
		}

		value, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if value != nil {
			e.Set(ctx, key, value, SetOptions{Prefix: opts.Prefix, TTL: opts.TTL})
		}
		return value, nil
	})
	if err != nil {
		if opts.DisableFallback {
			return nil, err
		}
		e.logger.Debug("cache fetch failed, returning unavailable",
			slog.String("key", key),
			slog.Any("error", err),
		)
		return nil, nil
	}

	value, _ := result.([]byte)
	return value, nil
}

// InvalidatePattern deletes all keys matching pattern within the namespace.
func (e *engine) InvalidatePattern(ctx context.Context, pattern string, opts GetOptions) int {
	if e.State() != cacheDomain.StateConnected {
		return 0
	}

	fullPattern := e.namespaced(opts.Prefix, pattern)

	keys, err := e.store.Keys(ctx, fullPattern)
	if err != nil {
		e.errors.Add(1)
		e.logger.Debug("cache scan failed", slog.String("pattern", pattern), slog.Any("error", err))
		return 0
	}
	if len(keys) == 0 {
		return 0
	}

	deleted, err := e.store.Delete(ctx, keys...)
	if err != nil {
		e.errors.Add(1)
		e.logger.Debug("cache delete failed", slog.String("pattern", pattern), slog.Any("error", err))
		return 0
	}

	e.invalidations.Add(uint64(deleted))
	return int(deleted)
}

// Warmup pre-populates portfolio and quote entries best-effort.
func (e *engine) Warmup(ctx context.Context, plan WarmupPlan) cacheDomain.WarmupResult {
	var result cacheDomain.WarmupResult

	warm := func(prefix, id string, loader WarmupLoader) bool {
		if err := e.limiter.Wait(ctx); err != nil {
			return false
		}
		value, err := loader(ctx, id)
		if err != nil || value == nil {
			return false
		}
		return e.Set(ctx, id, value, SetOptions{Prefix: prefix, TTL: plan.TTL})
	}

	if plan.UserLoader != nil {
		for _, userID := range plan.UserIDs {
			if warm("portfolio", userID, plan.UserLoader) {
				result.UsersWarmed++
			} else {
				result.UserErrors++
			}
		}
	}

	if plan.SymbolLoader != nil {
		for _, symbol := range plan.Symbols {
			if warm("quote", symbol, plan.SymbolLoader) {
				result.SymbolsLoaded++
			} else {
				result.SymbolErrors++
			}
		}
	}

	e.logger.Info("cache warmup finished",
		slog.Int("users_warmed", result.UsersWarmed),
		slog.Int("user_errors", result.UserErrors),
		slog.Int("symbols_loaded", result.SymbolsLoaded),
		slog.Int("symbol_errors", result.SymbolErrors),
	)

	return result
}

// Stats returns a snapshot of the engine counters.
func (e *engine) Stats() cacheDomain.Stats {
	return cacheDomain.Stats{
		Hits:          e.hits.Load(),
		Misses:        e.misses.Load(),
		Sets:          e.sets.Load(),
		Errors:        e.errors.Load(),
		Invalidations: e.invalidations.Load(),
	}
}

// State returns the current engine lifecycle state.
func (e *engine) State() cacheDomain.EngineState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// setState transitions the engine state.
func (e *engine) setState(state cacheDomain.EngineState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = state
}

// clampTTL applies the engine TTL policy: zero selects the default, and the
// result is clamped into [MinTTL, MaxTTL].
func (e *engine) clampTTL(ttl time.Duration) time.Duration {
	if ttl == 0 {
		ttl = e.settings.DefaultTTL
	}
	if ttl < e.settings.MinTTL {
		return e.settings.MinTTL
	}
	if ttl > e.settings.MaxTTL {
		return e.settings.MaxTTL
	}
	return ttl
}

// namespaced builds the full store key from the engine prefix, the optional
// per-call prefix, and the logical key.
func (e *engine) namespaced(prefix, key string) string {
	parts := make([]string, 0, 3)
	if e.settings.Prefix != "" {
		parts = append(parts, e.settings.Prefix)
	}
	if prefix != "" {
		parts = append(parts, prefix)
	}
	parts = append(parts, key)
	return strings.Join(parts, ":")
}
