// ABOUTME: Default implementations for library dependencies
// ABOUTME: Provides factory functions and options for caches, HTTP clients and loggers

package favicons

import (
	"time"

	"favicon-finder-api/core/interfaces"
	"favicon-finder-api/infrastructure/cache/memory"
	"favicon-finder-api/infrastructure/cache/sqlite"
	httpInfra "favicon-finder-api/infrastructure/http/standard"
	loggerInfra "favicon-finder-api/infrastructure/logger/standard"
)

// DefaultHTTPClient creates the HTTP client used when none is configured
func DefaultHTTPClient() interfaces.HTTPClient {
	return httpInfra.NewStandardHTTPClientWithOptions(httpInfra.DefaultOptions())
}

// DefaultMemoryCache creates a default in-memory cache
func DefaultMemoryCache() interfaces.Cache {
	return memory.NewMemoryCache()
}

// DefaultSQLiteCache opens a SQLite cache at filePath
func DefaultSQLiteCache(filePath string) (interfaces.Cache, error) {
	return sqlite.NewSQLiteCache(filePath)
}

// QuietLogger creates a logger that discards all output
func QuietLogger() interfaces.Logger {
	return loggerInfra.NewNopLogger()
}

// CacheOption represents cache configuration options
type CacheOption struct {
	Type     CacheType
	FilePath string // For SQLite cache
}

// CacheType represents the type of cache
type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeSQLite CacheType = "sqlite"
)

// WithCacheOption creates a cache based on the provided options
func WithCacheOption(opt CacheOption) Option {
	return func(c *Config) error {
		switch opt.Type {
		case CacheTypeMemory:
			c.Cache = DefaultMemoryCache()
		case CacheTypeSQLite:
			if opt.FilePath == "" {
				opt.FilePath = "favicons.db"
			}
			cache, err := DefaultSQLiteCache(opt.FilePath)
			if err != nil {
				return NewError(ErrorTypeConfiguration, "failed to open SQLite cache").
					WithCause(err).
					WithContext("path", opt.FilePath)
			}
			c.Cache = cache
		default:
			return NewError(ErrorTypeConfiguration, "invalid cache type").
				WithContext("type", string(opt.Type))
		}
		return nil
	}
}

// WithQuietMode configures the client to suppress all log output
func WithQuietMode() Option {
	return func(c *Config) error {
		c.Logger = QuietLogger()
		return nil
	}
}

// HTTPClientConfig holds configuration for the HTTP client
type HTTPClientConfig struct {
	Timeout           time.Duration
	UserAgent         string
	MaxRetries        int
	MaxRedirects      int
	RequestsPerSecond float64
	Burst             int
}

// DefaultHTTPClientConfig returns default HTTP client configuration
func DefaultHTTPClientConfig() HTTPClientConfig {
	opts := httpInfra.DefaultOptions()
	return HTTPClientConfig{
		Timeout:      opts.Timeout,
		UserAgent:    opts.UserAgent,
		MaxRetries:   opts.MaxRetries,
		MaxRedirects: opts.MaxRedirects,
	}
}

// WithHTTPClientConfig creates an HTTP client with custom configuration
func WithHTTPClientConfig(config HTTPClientConfig) Option {
	return func(c *Config) error {
		if config.Timeout <= 0 {
			return NewError(ErrorTypeConfiguration, "HTTP timeout must be positive")
		}
		c.HTTPClient = httpInfra.NewStandardHTTPClientWithOptions(httpInfra.Options{
			Timeout:           config.Timeout,
			UserAgent:         config.UserAgent,
			MaxRetries:        config.MaxRetries,
			MaxRedirects:      config.MaxRedirects,
			RequestsPerSecond: config.RequestsPerSecond,
			Burst:             config.Burst,
		})
		return nil
	}
}

// applyDefaultDependencies fills every dependency the options left unset
func applyDefaultDependencies(c *Config) {
	if c.HTTPClient == nil {
		c.HTTPClient = DefaultHTTPClient()
	}
	if c.Cache == nil {
		c.Cache = DefaultMemoryCache()
	}
	if c.Logger == nil {
		c.Logger = loggerInfra.NewStandardLogger()
	}
}
