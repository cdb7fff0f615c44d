package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// State backends the client can persist into.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type AppConfig struct {
	// Backend
	APIBaseURL  string
	HTTPTimeout time.Duration

	// Client state persistence
	StateBackend string
	StatePath    string
	StateSecret  string

	// Redis (for the redis state backend)
	RedisAddr string
	RedisPass string
	RedisDB   int

	// Catalog
	CatalogCacheTTL time.Duration
}

// Load loads environment variables into AppConfig.
func Load() AppConfig {
	return AppConfig{
		APIBaseURL:  getEnv("KALAKRITI_API_URL", "http://localhost:8080"),
		HTTPTimeout: getEnvDuration("KALAKRITI_HTTP_TIMEOUT", 30*time.Second),

		StateBackend: strings.ToLower(getEnv("KALAKRITI_STATE_BACKEND", BackendFile)),
		StatePath:    getEnv("KALAKRITI_STATE_PATH", defaultStatePath()),
		StateSecret:  getEnv("KALAKRITI_STATE_SECRET", ""),

		RedisAddr: getEnv("KALAKRITI_REDIS_ADDR", "localhost:6379"),
		RedisPass: getEnv("KALAKRITI_REDIS_PASS", ""),
		RedisDB:   getEnvInt("KALAKRITI_REDIS_DB", 0),

		CatalogCacheTTL: getEnvDuration("KALAKRITI_CATALOG_CACHE_TTL", 2*time.Minute),
	}
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".kalakriti/state.json"
	}
	return home + "/.kalakriti/state.json"
}

// --- Helper functions ---

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
