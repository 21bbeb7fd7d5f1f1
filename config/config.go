package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// CredentialEnvKeys lists the environment variables checked for the scraping
// provider API key, in priority order. The first non-empty value wins.
var CredentialEnvKeys = []string{
	"ZENROWS_API_KEY",
	"SCRAPER_API_KEY",
	"VITE_ZENROWS_API_KEY",
}

// Config represents the application configuration
type Config struct {
	// Scraping provider
	ProxyURL       string
	APIKey         string
	APIKeySource   string
	ScraperTimeout time.Duration
	AffiliateTag   string

	// Search behaviour
	DefaultStore    string
	DefaultCategory string
	MaxResults      int
	RetryDelay      time.Duration
	SampleFallback  bool

	// Cache configuration
	CacheBackend string
	CacheTTL     time.Duration
	CacheSize    int
	MemcacheAddr string

	// Persistence
	StoreDriver string
	SQLitePath  string
	DatabaseURL string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Sweep configuration
	SweepSchedule   string
	SweepPacing     time.Duration
	SweepPlanFile   string
	SweepCategories []string
	SweepStores     []string

	// HTTP server
	HTTPAddr string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	apiKey, source := ResolveCredential(os.Getenv)

	cfg := &Config{
		ProxyURL:             getEnv("SCRAPER_PROXY_URL", "https://api.zenrows.com/v1/"),
		APIKey:               apiKey,
		APIKeySource:         source,
		ScraperTimeout:       getEnvSeconds("SCRAPER_TIMEOUT_SECONDS", 60),
		AffiliateTag:         getEnv("AFFILIATE_TAG", ""),
		DefaultStore:         getEnv("DEFAULT_STORE", "amazon"),
		DefaultCategory:      getEnv("DEFAULT_CATEGORY", "general"),
		MaxResults:           getEnvInt("MAX_RESULTS", 24),
		RetryDelay:           getEnvMillis("RETRY_DELAY_MS", 1000),
		SampleFallback:       getEnvBool("SAMPLE_FALLBACK", false),
		CacheBackend:         getEnv("CACHE_BACKEND", "memory"),
		CacheTTL:             getEnvSeconds("CACHE_TTL_SECONDS", 300),
		CacheSize:            getEnvInt("CACHE_SIZE", 512),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		StoreDriver:          getEnv("STORE_DRIVER", "sqlite"),
		SQLitePath:           getEnv("SQLITE_PATH", "./data/pricescout.db"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "products"),
		RedisStreamCount:     getEnvInt("REDIS_STREAM_COUNT", 1),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 1000),
		SweepSchedule:        getEnv("SWEEP_SCHEDULE", "0 3 * * *"),
		SweepPacing:          getEnvMillis("SWEEP_PACING_MS", 2000),
		SweepPlanFile:        getEnv("SWEEP_PLAN_FILE", ""),
		SweepCategories:      splitList(getEnv("SWEEP_CATEGORIES", "electronics,tools,home,toys")),
		SweepStores:          splitList(getEnv("SWEEP_STORES", "amazon")),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		Environment:          getEnv("PRICESCOUT_ENVIRONMENT", "development"),
	}

	return cfg
}

// ResolveCredential walks CredentialEnvKeys in order and returns the first
// non-empty value together with the variable name it came from.
func ResolveCredential(lookup func(string) string) (string, string) {
	for _, key := range CredentialEnvKeys {
		if v := strings.TrimSpace(lookup(key)); v != "" {
			return v, key
		}
	}
	return "", ""
}

// HasCredential reports whether a scraping provider key was resolved.
func (c *Config) HasCredential() bool {
	return c.APIKey != ""
}

// Validate checks the configuration for values the service cannot run with.
// A missing API key is not a validation error: the service starts and reports
// itself unhealthy instead.
func (c *Config) Validate() error {
	if c.ProxyURL == "" {
		return fmt.Errorf("scraper proxy URL cannot be empty")
	}
	if c.ScraperTimeout <= 0 {
		return fmt.Errorf("scraper timeout must be positive")
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("max results must be positive")
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay cannot be negative")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}
	switch c.CacheBackend {
	case "memory", "memcache", "none":
	default:
		return fmt.Errorf("cache backend must be memory, memcache, or none")
	}
	switch c.StoreDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite path cannot be empty")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store driver")
		}
	case "none":
	default:
		return fmt.Errorf("store driver must be sqlite, postgres, or none")
	}
	if c.RedisAddr != "" && c.RedisStreamCount <= 0 {
		return fmt.Errorf("redis stream count must be positive")
	}
	if c.SweepPacing < 0 {
		return fmt.Errorf("sweep pacing cannot be negative")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvSeconds(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvInt(key, defaultValue)) * time.Second
}

func getEnvMillis(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvInt(key, defaultValue)) * time.Millisecond
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
