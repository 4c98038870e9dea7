// ABOUTME: Huma API server configuration and setup
// ABOUTME: Wires CORS, request logging, rate limiting and the Prometheus endpoint onto a chi router

package api

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"favicon-finder-api/api/middleware"
	"favicon-finder-api/core/interfaces"
)

const (
	apiTitle   = "Favicon Finder API"
	apiVersion = "1.0.0"
)

// APIConfig holds configuration for the API
type APIConfig struct {
	Logger interfaces.Logger

	// Metrics receives one sample per request when set
	Metrics middleware.RequestObserver

	// MetricsHandler is mounted at /metrics when set
	MetricsHandler http.Handler

	RateLimit  int           // requests per window
	RateWindow time.Duration // rate limit window
	RateBurst  int           // defaults to RateLimit

	// AllowedOrigins defaults to every origin
	AllowedOrigins []string
}

// NewAPI creates and configures a new Huma API instance
func NewAPI() (huma.API, chi.Router) {
	return NewAPIWithMiddleware(APIConfig{})
}

// NewAPIWithMiddleware creates a new API with middleware configured
func NewAPIWithMiddleware(cfg APIConfig) (huma.API, chi.Router) {
	router := chi.NewRouter()

	// CORS must run first so preflight requests skip rate limiting
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Location", "X-RateLimit-Limit"},
		MaxAge:         300,
	}).Handler)

	if cfg.Logger != nil {
		router.Use(middleware.RequestLoggingMiddlewareWithMetrics(cfg.Logger, cfg.Metrics))
	}

	if cfg.RateLimit > 0 && cfg.RateWindow > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = cfg.RateLimit
		}
		limiter := middleware.NewRateLimiterWithBurst(cfg.RateLimit, cfg.RateWindow, burst)
		router.Use(middleware.RateLimitMiddleware(limiter))
	}

	if cfg.MetricsHandler != nil {
		router.Handle("/metrics", cfg.MetricsHandler)
	}

	config := huma.DefaultConfig(apiTitle, apiVersion)
	config.Info.Description = "Locates a website's favicon by trying HTML link tags, /favicon.ico, the web app manifest and /apple-touch-icon.png in order"

	// The OpenAPI document is served at /openapi.json and the docs UI at /docs
	api := humachi.New(router, config)

	return api, router
}
