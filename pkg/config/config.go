// ABOUTME: Configuration management for the favicon finder with environment variable support
// ABOUTME: Defines server, cache, HTTP, search, logging and rate limit settings with an optional YAML overlay

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"favicon-finder-api/core/domain"
	"favicon-finder-api/pkg/utils/duration"
)

// Config holds all application configuration
type Config struct {
	// Server contains HTTP server configuration
	Server ServerConfig `yaml:"server"`

	// Cache contains cache configuration
	Cache CacheConfig `yaml:"cache"`

	// HTTP contains outbound HTTP client configuration
	HTTP HTTPConfig `yaml:"http"`

	// Search contains default favicon search options
	Search SearchConfig `yaml:"search"`

	// Log contains logger configuration
	Log LogConfig `yaml:"log"`

	// RateLimit contains per-client API rate limiting
	RateLimit RateLimitConfig `yaml:"rateLimit"`

	// Features overrides feature flag defaults by name. FEATURE_* variables win.
	Features map[string]bool `yaml:"features"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	// Port is the HTTP server port
	Port string `yaml:"port"`

	// RequestTimeout bounds a single favicon search
	RequestTimeout time.Duration `yaml:"requestTimeout"`

	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// CacheConfig holds cache backend configuration
type CacheConfig struct {
	// Type specifies the cache backend (memory/redis/sqlite)
	Type string `yaml:"type"`

	// TTL is how long found favicons stay cached. Zero keeps them forever.
	TTL time.Duration `yaml:"ttl"`

	// Redis contains Redis-specific configuration
	Redis RedisConfig `yaml:"redis"`

	// Memory contains in-memory cache configuration
	Memory MemoryConfig `yaml:"memory"`

	// SQLite contains SQLite-specific configuration
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Warm lists sites searched in the background at startup
	Warm WarmConfig `yaml:"warm"`
}

// WarmConfig holds cache warming configuration
type WarmConfig struct {
	Sites   []string `yaml:"sites"`
	Workers int      `yaml:"workers"`
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	// Address is the Redis server address
	Address string `yaml:"address"`

	// Password is the Redis authentication password
	Password string `yaml:"password"`

	// DB is the Redis database number
	DB int `yaml:"db"`

	// KeyPrefix namespaces every key written by this service
	KeyPrefix string `yaml:"keyPrefix"`
}

// MemoryConfig holds in-memory cache configuration
type MemoryConfig struct {
	// CleanupInterval is how often expired entries are purged
	CleanupInterval time.Duration `yaml:"cleanupInterval"`
}

// SQLiteConfig holds SQLite cache configuration
type SQLiteConfig struct {
	// Path is the database file
	Path string `yaml:"path"`
	// Table holds the cached favicons
	Table string `yaml:"table"`
}

// HTTPConfig holds outbound HTTP client configuration
type HTTPConfig struct {
	Timeout           time.Duration `yaml:"timeout"`
	UserAgent         string        `yaml:"userAgent"`
	MaxRetries        int           `yaml:"maxRetries"`
	MaxRedirects      int           `yaml:"maxRedirects"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond"`
	Burst             int           `yaml:"burst"`
	MaxImageBytes     int64         `yaml:"maxImageBytes"`
}

// SearchConfig holds the defaults applied to API searches
type SearchConfig struct {
	PreferredStrategy string `yaml:"preferredStrategy"`
	FollowMetaRefresh bool   `yaml:"followMetaRefresh"`
	MaxImageDimension int    `yaml:"maxImageDimension"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level"`

	// Format is text or json
	Format string `yaml:"format"`
}

// RateLimitConfig holds per-client API rate limiting. Zero disables it.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requestsPerMinute"`
	Burst             int `yaml:"burst"`
}

// Load reads the environment and then applies CONFIG_FILE when it is set
func Load() (*Config, error) {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return LoadFromFile(path)
	}
	return LoadFromEnv()
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("PORT", "8000"),
			RequestTimeout:  getEnvAsDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Cache: CacheConfig{
			Type: getEnvOrDefault("CACHE_TYPE", "memory"),
			TTL:  getEnvAsDurationOrDefault("CACHE_TTL", 24*time.Hour),
			Redis: RedisConfig{
				Address:   getEnvOrDefault("REDIS_ADDRESS", "localhost:6379"),
				Password:  getEnvOrDefault("REDIS_PASSWORD", ""),
				DB:        getEnvAsIntOrDefault("REDIS_DB", 0),
				KeyPrefix: getEnvOrDefault("REDIS_KEY_PREFIX", "favicons:"),
			},
			Memory: MemoryConfig{
				CleanupInterval: getEnvAsDurationOrDefault("MEMORY_CACHE_CLEANUP", 10*time.Minute),
			},
			SQLite: SQLiteConfig{
				Path:  getEnvOrDefault("SQLITE_PATH", "favicons.db"),
				Table: getEnvOrDefault("SQLITE_TABLE", "favicon_cache"),
			},
			Warm: WarmConfig{
				Sites:   getEnvAsListOrDefault("CACHE_WARM_SITES", nil),
				Workers: getEnvAsIntOrDefault("CACHE_WARM_WORKERS", 4),
			},
		},
		HTTP: HTTPConfig{
			Timeout:           getEnvAsDurationOrDefault("HTTP_TIMEOUT", 10*time.Second),
			UserAgent:         getEnvOrDefault("HTTP_USER_AGENT", ""),
			MaxRetries:        getEnvAsIntOrDefault("HTTP_MAX_RETRIES", 3),
			MaxRedirects:      getEnvAsIntOrDefault("HTTP_MAX_REDIRECTS", 10),
			RequestsPerSecond: getEnvAsFloatOrDefault("HTTP_REQUESTS_PER_SECOND", 5),
			Burst:             getEnvAsIntOrDefault("HTTP_BURST", 10),
			MaxImageBytes:     int64(getEnvAsIntOrDefault("HTTP_MAX_IMAGE_BYTES", 5*1024*1024)),
		},
		Search: SearchConfig{
			PreferredStrategy: getEnvOrDefault("SEARCH_PREFERRED_STRATEGY", string(domain.DefaultStrategy)),
			FollowMetaRefresh: getEnvAsBoolOrDefault("SEARCH_FOLLOW_META_REFRESH", false),
			MaxImageDimension: getEnvAsIntOrDefault("SEARCH_MAX_IMAGE_DIMENSION", 4096),
		},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvAsIntOrDefault("RATE_LIMIT_PER_MINUTE", 120),
			Burst:             getEnvAsIntOrDefault("RATE_LIMIT_BURST", 20),
		},
	}

	return cfg, nil
}

// LoadFromFile loads the environment configuration and overlays the YAML file
// at path. Keys present in the file win over the environment.
func LoadFromFile(path string) (*Config, error) {
	cfg, err := LoadFromEnv()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault returns the environment variable as int or a default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvAsListOrDefault splits a comma-separated value, dropping empty items
func getEnvAsListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// getEnvAsDurationOrDefault accepts Go durations ("30s"), bare seconds ("30")
// or clock notation ("00:30")
func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := duration.Parse(value); err == nil {
		return d
	}
	return defaultValue
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("port cannot be empty")
	}

	if c.Server.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}

	switch c.Cache.Type {
	case "memory", "redis", "sqlite":
	default:
		return errors.New("cache type must be 'memory', 'redis' or 'sqlite'")
	}

	if c.Cache.TTL < 0 {
		return errors.New("cache TTL cannot be negative")
	}

	if c.Cache.Type == "redis" && c.Cache.Redis.Address == "" {
		return errors.New("redis address cannot be empty when using redis cache")
	}

	if c.Cache.Type == "sqlite" && c.Cache.SQLite.Path == "" {
		return errors.New("sqlite path cannot be empty when using sqlite cache")
	}

	if len(c.Cache.Warm.Sites) > 0 && c.Cache.Warm.Workers <= 0 {
		return errors.New("cache warm workers must be positive")
	}

	if c.HTTP.Timeout <= 0 {
		return errors.New("HTTP timeout must be positive")
	}

	if c.HTTP.MaxRetries < 0 || c.HTTP.MaxRedirects < 0 {
		return errors.New("HTTP retries and redirects cannot be negative")
	}

	if c.HTTP.MaxImageBytes <= 0 {
		return errors.New("max image bytes must be positive")
	}

	if _, err := domain.ParseStrategyKind(c.Search.PreferredStrategy); err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if c.Search.MaxImageDimension <= 0 {
		return errors.New("max image dimension must be positive")
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.New("log format must be 'text' or 'json'")
	}

	if c.RateLimit.RequestsPerMinute < 0 || c.RateLimit.Burst < 0 {
		return errors.New("rate limit values cannot be negative")
	}

	return nil
}
