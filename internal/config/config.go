// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// CacheStoreURL is the connection URL for the backing cache store (redis://...).
	CacheStoreURL string
	// CachePrefix is the namespace prefix prepended to every cache key.
	CachePrefix string
	// CacheDefaultTTL is the TTL applied when a caller does not request one.
	CacheDefaultTTL time.Duration
	// CacheMinTTL is the lower clamp bound for requested TTLs.
	CacheMinTTL time.Duration
	// CacheMaxTTL is the upper clamp bound for requested TTLs.
	CacheMaxTTL time.Duration
	// CacheConnectTimeout bounds the initial store connection attempt.
	CacheConnectTimeout time.Duration
	// CacheWarmupRatePerSec limits how many warm-up loads run per second.
	CacheWarmupRatePerSec float64

	// RotationSweepInterval is the cadence of the scheduler's catch-up sweep
	// that force-rotates keys whose deferred timers were lost (e.g., restart).
	RotationSweepInterval time.Duration

	// AuditLogMaxEntries bounds the in-memory audit ring; oldest entries are
	// dropped first once the bound is reached.
	AuditLogMaxEntries int

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsHost is the host address for the metrics server.
	MetricsHost string
	// MetricsPort is the port number for the metrics server.
	MetricsPort int

	// KMSKeyURI is the URI of a KMS-held key used to unwrap the master key
	// material (e.g., "hashivault://keyname"). Empty means master keys are
	// read directly from MASTER_KEYS.
	KMSKeyURI string
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Cache engine
		CacheStoreURL:         env.GetString("CACHE_STORE_URL", "redis://localhost:6379/0"),
		CachePrefix:           env.GetString("CACHE_PREFIX", "securecore"),
		CacheDefaultTTL:       env.GetDuration("CACHE_DEFAULT_TTL_SECONDS", 3600, time.Second),
		CacheMinTTL:           env.GetDuration("CACHE_MIN_TTL_SECONDS", 60, time.Second),
		CacheMaxTTL:           env.GetDuration("CACHE_MAX_TTL_SECONDS", 86400, time.Second),
		CacheConnectTimeout:   env.GetDuration("CACHE_CONNECT_TIMEOUT_SECONDS", 5, time.Second),
		CacheWarmupRatePerSec: env.GetFloat64("CACHE_WARMUP_RATE_PER_SEC", 50.0),

		// Key rotation
		RotationSweepInterval: env.GetDuration("ROTATION_SWEEP_INTERVAL_SECONDS", 3600, time.Second),

		// Audit log
		AuditLogMaxEntries: env.GetInt("AUDIT_LOG_MAX_ENTRIES", 10000),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "securecore"),
		MetricsHost:      env.GetString("METRICS_HOST", "0.0.0.0"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),

		// KMS configuration
		KMSKeyURI: env.GetString("KMS_KEY_URI", ""),
	}
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	// Search for .env file recursively up the directory tree
	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// .env file found, load it
			_ = godotenv.Load(envPath)
			return
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}
}
