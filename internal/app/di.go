// Package app provides the dependency injection container for assembling
// application components.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	auditService "github.com/tradeware/securecore/internal/audit/service"
	cacheService "github.com/tradeware/securecore/internal/cache/service"
	"github.com/tradeware/securecore/internal/cache/store"
	"github.com/tradeware/securecore/internal/config"
	keyvaultDomain "github.com/tradeware/securecore/internal/keyvault/domain"
	keyvaultRepository "github.com/tradeware/securecore/internal/keyvault/repository"
	"github.com/tradeware/securecore/internal/keyvault/scheduler"
	keyvaultService "github.com/tradeware/securecore/internal/keyvault/service"
	keyvaultUsecase "github.com/tradeware/securecore/internal/keyvault/usecase"
	"github.com/tradeware/securecore/internal/metrics"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics
	metricsServer   *metrics.Server

	// Cache
	cacheStore  store.Store
	cacheEngine cacheService.Engine

	// Key vault
	kmsKeeper      keyvaultDomain.Unwrapper
	masterKeyChain *keyvaultDomain.MasterKeyChain
	auditLog       auditService.Log
	keyRepo        keyvaultUsecase.KeyRepository
	schemeRepo     keyvaultUsecase.SchemeRepository
	keyScheduler   *scheduler.Scheduler
	keyUseCase     keyvaultUsecase.UseCase

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	metricsServerInit   sync.Once
	cacheStoreInit      sync.Once
	cacheEngineInit     sync.Once
	masterKeyChainInit  sync.Once
	auditLogInit        sync.Once
	keyRepoInit         sync.Once
	schemeRepoInit      sync.Once
	schedulerInit       sync.Once
	keyUseCaseInit      sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// MetricsProvider returns the OpenTelemetry metrics provider.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. When metrics are
// disabled in configuration a no-op implementation is returned.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		if !c.config.MetricsEnabled {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}

		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		bm, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		c.businessMetrics = bm
	})
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// MetricsServer returns the standalone Prometheus scrape server.
func (c *Container) MetricsServer() (*metrics.Server, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		c.metricsServer = metrics.NewServer(
			provider,
			c.config.MetricsHost,
			c.config.MetricsPort,
			c.Logger(),
		)
	})
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// CacheStore returns the backing cache store selected by CACHE_STORE_URL:
// "memory://" for the in-process store, anything else is treated as a Redis URL.
func (c *Container) CacheStore() (store.Store, error) {
	c.cacheStoreInit.Do(func() {
		if strings.HasPrefix(c.config.CacheStoreURL, "memory://") {
			c.cacheStore = store.NewMemoryStore()
			return
		}

		redisStore, err := store.NewRedisStore(c.config.CacheStoreURL)
		if err != nil {
			c.initErrors["cacheStore"] = fmt.Errorf("failed to create cache store: %w", err)
			return
		}
		c.cacheStore = redisStore
	})
	if storedErr, exists := c.initErrors["cacheStore"]; exists {
		return nil, storedErr
	}
	return c.cacheStore, nil
}

// CacheEngine returns the cache engine, wrapped with metrics instrumentation.
// The engine starts disconnected; callers run Connect themselves so they
// control the fallback decision.
func (c *Container) CacheEngine() (cacheService.Engine, error) {
	c.cacheEngineInit.Do(func() {
		cacheStore, err := c.CacheStore()
		if err != nil {
			c.initErrors["cacheEngine"] = err
			return
		}

		engine := cacheService.NewEngine(cacheStore, cacheService.Settings{
			Prefix:           c.config.CachePrefix,
			DefaultTTL:       c.config.CacheDefaultTTL,
			MinTTL:           c.config.CacheMinTTL,
			MaxTTL:           c.config.CacheMaxTTL,
			WarmupRatePerSec: c.config.CacheWarmupRatePerSec,
		}, c.Logger())

		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["cacheEngine"] = err
			return
		}
		c.cacheEngine = cacheService.NewEngineWithMetrics(engine, businessMetrics)
	})
	if storedErr, exists := c.initErrors["cacheEngine"]; exists {
		return nil, storedErr
	}
	return c.cacheEngine, nil
}

// MasterKeyChain loads master keys from the environment, unwrapping them
// through the configured KMS keeper when KMS_KEY_URI is set.
func (c *Container) MasterKeyChain(ctx context.Context) (*keyvaultDomain.MasterKeyChain, error) {
	c.masterKeyChainInit.Do(func() {
		var unwrapper keyvaultDomain.Unwrapper
		if c.config.KMSKeyURI != "" {
			keeper, err := keyvaultService.NewKMSService().OpenKeeper(ctx, c.config.KMSKeyURI)
			if err != nil {
				c.initErrors["masterKeyChain"] = err
				return
			}
			c.kmsKeeper = keeper
			unwrapper = keeper
		}

		chain, err := keyvaultDomain.LoadMasterKeyChainFromEnv(ctx, unwrapper)
		if err != nil {
			c.initErrors["masterKeyChain"] = err
			return
		}
		c.masterKeyChain = chain
	})
	if storedErr, exists := c.initErrors["masterKeyChain"]; exists {
		return nil, storedErr
	}
	return c.masterKeyChain, nil
}

// AuditLog returns the signed, ring-bounded audit log.
func (c *Container) AuditLog(ctx context.Context) (auditService.Log, error) {
	c.auditLogInit.Do(func() {
		chain, err := c.MasterKeyChain(ctx)
		if err != nil {
			c.initErrors["auditLog"] = err
			return
		}
		masterKey, err := chain.Active()
		if err != nil {
			c.initErrors["auditLog"] = err
			return
		}
		c.auditLog = auditService.NewLog(
			c.config.AuditLogMaxEntries,
			auditService.NewSigner(),
			masterKey.Key,
			c.Logger(),
		)
	})
	if storedErr, exists := c.initErrors["auditLog"]; exists {
		return nil, storedErr
	}
	return c.auditLog, nil
}

// KeyRepository returns the key record repository.
func (c *Container) KeyRepository() keyvaultUsecase.KeyRepository {
	c.keyRepoInit.Do(func() {
		c.keyRepo = keyvaultRepository.NewMemoryKeyRepository()
	})
	return c.keyRepo
}

// SchemeRepository returns the multi-sig scheme repository.
func (c *Container) SchemeRepository() keyvaultUsecase.SchemeRepository {
	c.schemeRepoInit.Do(func() {
		c.schemeRepo = keyvaultRepository.NewMemorySchemeRepository()
	})
	return c.schemeRepo
}

// Scheduler returns the rotation scheduler. Its rotator is injected by
// KeyUseCase; resolve the use case before calling Start.
func (c *Container) Scheduler(ctx context.Context) (*scheduler.Scheduler, error) {
	c.schedulerInit.Do(func() {
		auditLog, err := c.AuditLog(ctx)
		if err != nil {
			c.initErrors["scheduler"] = err
			return
		}

		keyRepo := c.KeyRepository().(*keyvaultRepository.MemoryKeyRepository)
		c.keyScheduler = scheduler.NewScheduler(
			keyRepo,
			auditLog,
			c.config.RotationSweepInterval,
			c.Logger(),
		)
	})
	if storedErr, exists := c.initErrors["scheduler"]; exists {
		return nil, storedErr
	}
	return c.keyScheduler, nil
}

// KeyUseCase returns the key lifecycle use case wired to the scheduler and
// wrapped with metrics instrumentation.
func (c *Container) KeyUseCase(ctx context.Context) (keyvaultUsecase.UseCase, error) {
	c.keyUseCaseInit.Do(func() {
		chain, err := c.MasterKeyChain(ctx)
		if err != nil {
			c.initErrors["keyUseCase"] = err
			return
		}
		auditLog, err := c.AuditLog(ctx)
		if err != nil {
			c.initErrors["keyUseCase"] = err
			return
		}
		keyScheduler, err := c.Scheduler(ctx)
		if err != nil {
			c.initErrors["keyUseCase"] = err
			return
		}

		signer := keyvaultService.NewSecp256k1Signer()
		useCase := keyvaultUsecase.NewKeyUseCase(
			c.KeyRepository(),
			c.SchemeRepository(),
			keyvaultService.NewMaterialService(keyvaultService.NewAEADManager(), signer),
			signer,
			chain,
			auditLog,
			keyScheduler,
			c.Logger(),
		)
		keyScheduler.SetRotator(useCase)

		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["keyUseCase"] = err
			return
		}
		c.keyUseCase = keyvaultUsecase.NewUseCaseWithMetrics(useCase, businessMetrics)
	})
	if storedErr, exists := c.initErrors["keyUseCase"]; exists {
		return nil, storedErr
	}
	return c.keyUseCase, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.keyScheduler != nil {
		c.keyScheduler.Stop()
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.cacheStore != nil {
		if err := c.cacheStore.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("cache store close: %w", err))
		}
	}

	if c.kmsKeeper != nil {
		if err := c.kmsKeeper.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("kms keeper close: %w", err))
		}
	}

	if c.masterKeyChain != nil {
		c.masterKeyChain.Close()
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}
