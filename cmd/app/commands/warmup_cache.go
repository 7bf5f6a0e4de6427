package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tradeware/securecore/internal/app"
	cacheService "github.com/tradeware/securecore/internal/cache/service"
	"github.com/tradeware/securecore/internal/config"
)

// warmupSeed is the JSON shape of a warm-up seed file: user portfolios and
// market quotes keyed by ID, plus an optional per-entry TTL in seconds.
type warmupSeed struct {
	Users      map[string]string `json:"users"`
	Symbols    map[string]string `json:"symbols"`
	TTLSeconds int               `json:"ttl_seconds"`
}

// RunWarmupCache pre-populates the cache from a JSON seed file. Individual
// entry failures are counted, not fatal; the command reports how many entries
// landed in each category.
func RunWarmupCache(ctx context.Context, seedFile string) error {
	data, err := os.ReadFile(seedFile)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed warmupSeed
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	container := app.NewContainer(config.Load())
	logger := container.Logger()
	defer closeContainer(container, logger)

	engine, err := container.CacheEngine()
	if err != nil {
		return fmt.Errorf("failed to initialize cache engine: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, container.Config().CacheConnectTimeout)
	defer cancel()
	if err := engine.Connect(connectCtx); err != nil {
		return fmt.Errorf("failed to connect to cache store: %w", err)
	}

	plan := cacheService.WarmupPlan{
		TTL: time.Duration(seed.TTLSeconds) * time.Second,
	}
	for userID := range seed.Users {
		plan.UserIDs = append(plan.UserIDs, userID)
	}
	for symbol := range seed.Symbols {
		plan.Symbols = append(plan.Symbols, symbol)
	}
	plan.UserLoader = func(ctx context.Context, id string) ([]byte, error) {
		return []byte(seed.Users[id]), nil
	}
	plan.SymbolLoader = func(ctx context.Context, symbol string) ([]byte, error) {
		return []byte(seed.Symbols[symbol]), nil
	}

	result := engine.Warmup(ctx, plan)

	logger.Info("cache warm-up completed",
		slog.Int("users_warmed", result.UsersWarmed),
		slog.Int("user_errors", result.UserErrors),
		slog.Int("symbols_loaded", result.SymbolsLoaded),
		slog.Int("symbol_errors", result.SymbolErrors),
	)

	fmt.Printf("Users warmed:   %d (errors: %d)\n", result.UsersWarmed, result.UserErrors)
	fmt.Printf("Symbols loaded: %d (errors: %d)\n", result.SymbolsLoaded, result.SymbolErrors)

	return nil
}
