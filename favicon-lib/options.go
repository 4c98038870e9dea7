// ABOUTME: Configuration options for the favicon library client
// ABOUTME: Provides functional options for client dependencies and per-call search options

package favicons

import (
	"time"

	"favicon-finder-api/core/domain"
	"favicon-finder-api/core/finder"
	"favicon-finder-api/core/interfaces"
)

// Option is a functional option for configuring the client
type Option func(*Config) error

// Config holds the configuration for the client
type Config struct {
	Cache      interfaces.Cache
	HTTPClient interfaces.HTTPClient
	Logger     interfaces.Logger
	Metrics    interfaces.Metrics

	// CacheTTL is how long found favicons are remembered. Zero never expires.
	CacheTTL time.Duration

	// DisableCache runs every search against the network
	DisableCache bool

	// MaxImageBytes caps a single favicon download
	MaxImageBytes int64

	// MaxImageDimension rejects decoded images wider or taller than this
	MaxImageDimension int

	// Defaults is the search configuration per-call options are applied to
	Defaults domain.SearchConfig
}

// WithCache sets a custom cache implementation
func WithCache(cache interfaces.Cache) Option {
	return func(c *Config) error {
		if cache == nil {
			return NewError(ErrorTypeConfiguration, "cache must not be nil")
		}
		c.Cache = cache
		return nil
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client interfaces.HTTPClient) Option {
	return func(c *Config) error {
		if client == nil {
			return NewError(ErrorTypeConfiguration, "HTTP client must not be nil")
		}
		c.HTTPClient = client
		return nil
	}
}

// WithLogger sets a custom logger
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// WithMetrics records search telemetry
func WithMetrics(metrics interfaces.Metrics) Option {
	return func(c *Config) error {
		c.Metrics = metrics
		return nil
	}
}

// WithCacheTTL sets the TTL for cached favicons
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Config) error {
		if ttl < 0 {
			return NewError(ErrorTypeConfiguration, "cache TTL must not be negative").
				WithContext("ttl", ttl.String())
		}
		c.CacheTTL = ttl
		return nil
	}
}

// WithoutCache disables result caching
func WithoutCache() Option {
	return func(c *Config) error {
		c.DisableCache = true
		return nil
	}
}

// WithImageLimits bounds downloads by byte size and decoded dimension
func WithImageLimits(maxBytes int64, maxDimension int) Option {
	return func(c *Config) error {
		if maxBytes <= 0 || maxDimension <= 0 {
			return NewError(ErrorTypeConfiguration, "image limits must be positive")
		}
		c.MaxImageBytes = maxBytes
		c.MaxImageDimension = maxDimension
		return nil
	}
}

// WithDefaultPreferred sets the strategy tried first when a call does not name one
func WithDefaultPreferred(kind domain.StrategyKind) Option {
	return func(c *Config) error {
		if !kind.IsValid() {
			return NewError(ErrorTypeConfiguration, "unknown strategy").
				WithContext("strategy", string(kind))
		}
		c.Defaults.PreferredStrategy = kind
		return nil
	}
}

// SearchOption adjusts a single Find call
type SearchOption func(*domain.SearchConfig)

// Preferred moves kind to the front of the attempt order
func Preferred(kind domain.StrategyKind) SearchOption {
	return func(cfg *domain.SearchConfig) {
		cfg.PreferredStrategy = kind
	}
}

// WithHint overrides the lookup path or selector of one strategy
func WithHint(kind domain.StrategyKind, hint string) SearchOption {
	return func(cfg *domain.SearchConfig) {
		*cfg = cfg.WithHint(kind, hint)
	}
}

// FollowMetaRefresh makes strategies follow meta-refresh redirects on the root document
func FollowMetaRefresh() SearchOption {
	return func(cfg *domain.SearchConfig) {
		cfg.FollowMetaRefreshRedirect = true
	}
}

// URLOnly stops the search at the first located URL without downloading it
func URLOnly() SearchOption {
	return func(cfg *domain.SearchConfig) {
		cfg.FetchImageBytes = false
	}
}

// defaultConfig returns the default client configuration
func defaultConfig() Config {
	return Config{
		CacheTTL:          finder.DefaultCacheTTL,
		MaxImageBytes:     5 << 20,
		MaxImageDimension: 4096,
		Defaults:          domain.DefaultSearchConfig(),
	}
}
