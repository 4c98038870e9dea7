// ABOUTME: Main entry point for the Favicon Finder API server
// ABOUTME: Wires together all components and starts the HTTP server

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"favicon-finder-api/api"
	"favicon-finder-api/api/handlers"
	"favicon-finder-api/api/middleware"
	"favicon-finder-api/core/domain"
	"favicon-finder-api/core/finder"
	"favicon-finder-api/core/interfaces"
	"favicon-finder-api/core/services"
	"favicon-finder-api/core/strategies"
	"favicon-finder-api/core/workers"
	"favicon-finder-api/infrastructure/cache/memory"
	"favicon-finder-api/infrastructure/cache/redis"
	"favicon-finder-api/infrastructure/cache/sqlite"
	stdhttp "favicon-finder-api/infrastructure/http/standard"
	"favicon-finder-api/infrastructure/imaging"
	stdlogger "favicon-finder-api/infrastructure/logger/standard"
	"favicon-finder-api/infrastructure/metrics"
	"favicon-finder-api/pkg/config"
	"favicon-finder-api/pkg/featureflags"
	"favicon-finder-api/pkg/utils/duration"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := stdlogger.NewStandardLoggerWithOptions(stdlogger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	logger.Info("Starting Favicon Finder API", map[string]interface{}{
		"port":       cfg.Server.Port,
		"cache_type": cfg.Cache.Type,
		"cache_ttl":  duration.SecondsToHumanReadable(cfg.Cache.TTL),
		"preferred":  cfg.Search.PreferredStrategy,
	})

	flags, err := featureflags.Resolve(cfg.Features, "FEATURE_", os.LookupEnv)
	if err != nil {
		log.Fatalf("Invalid feature flags: %v", err)
	}
	logger.Info("Feature flags", flags.LogFields())
	ctx := context.Background()

	cache, closeCache := newCache(cfg.Cache, logger)
	defer closeCache()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMetrics := metrics.NewPrometheus(registry)

	httpClient := stdhttp.NewStandardHTTPClientWithOptions(stdhttp.Options{
		Timeout:           cfg.HTTP.Timeout,
		UserAgent:         cfg.HTTP.UserAgent,
		MaxRetries:        cfg.HTTP.MaxRetries,
		MaxRedirects:      cfg.HTTP.MaxRedirects,
		RequestsPerSecond: cfg.HTTP.RequestsPerSecond,
		Burst:             cfg.HTTP.Burst,
		Transport:         &middleware.LoggingRoundTripper{Logger: logger},
	})

	deps := interfaces.Dependencies{
		Cache:      cache,
		HTTPClient: httpClient,
		Logger:     logger,
		Metrics:    promMetrics,
	}

	decoder := imaging.NewDecoderWithLimit(cfg.Search.MaxImageDimension)
	fetcher := services.NewImageFetcherService(deps, decoder, cfg.HTTP.MaxImageBytes)
	search := finder.NewFinderService(deps, strategies.Defaults(deps), fetcher)
	var faviconFinder interfaces.FaviconFinder = search
	if flags.Enabled(featureflags.ResultCache) {
		faviconFinder = finder.NewCachedFinder(deps, search, decoder, cfg.Cache.TTL)
	}

	var colors interfaces.FaviconColorService
	if flags.Enabled(featureflags.ColorExtraction) {
		colors = services.NewFaviconColorService(deps)
	}

	defaults := domain.DefaultSearchConfig()
	if kind, err := domain.ParseStrategyKind(cfg.Search.PreferredStrategy); err == nil {
		defaults.PreferredStrategy = kind
	}
	defaults.FollowMetaRefreshRedirect = cfg.Search.FollowMetaRefresh

	apiConfig := api.APIConfig{
		Logger:  logger,
		Metrics: promMetrics,
	}
	if flags.Enabled(featureflags.MetricsEndpoint) {
		apiConfig.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	}
	if flags.Enabled(featureflags.RateLimit) {
		apiConfig.RateLimit = cfg.RateLimit.RequestsPerMinute
		apiConfig.RateWindow = time.Minute
		apiConfig.RateBurst = cfg.RateLimit.Burst
	}
	humaAPI, router := api.NewAPIWithMiddleware(apiConfig)

	faviconHandler := handlers.NewFaviconHandler(faviconFinder, handlers.FaviconHandlerOptions{
		Colors:   colors,
		Logger:   logger,
		Defaults: defaults,
		Timeout:  cfg.Server.RequestTimeout,
	})
	faviconHandler.RegisterRoutes(humaAPI)

	var warm *workers.WarmWorker
	if len(cfg.Cache.Warm.Sites) > 0 {
		warm = workers.NewWarmWorker(faviconFinder, colors, logger, workers.WorkerConfig{
			MaxWorkers: cfg.Cache.Warm.Workers,
			JobTimeout: cfg.Server.RequestTimeout,
		})
		if err := warm.Start(); err != nil {
			log.Fatalf("Failed to start cache warmer: %v", err)
		}
		go func() {
			queued, err := warm.SubmitSites(ctx, cfg.Cache.Warm.Sites, defaults)
			fields := map[string]interface{}{"sites": queued}
			if err != nil {
				fields["error"] = err.Error()
			}
			logger.Info("Cache warming queued", fields)
		}()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server starting", map[string]interface{}{
			"address": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", map[string]interface{}{
				"error": err.Error(),
			})
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if warm != nil {
		if err := warm.Stop(shutdownCtx); err != nil {
			logger.Warn("Cache warmer stopped before finishing", map[string]interface{}{
				"error": err.Error(),
			})
		}
		stats := warm.Stats()
		logger.Info("Cache warmer stopped", map[string]interface{}{
			"found":  stats.Found,
			"failed": stats.Failed,
		})
	}

	logger.Info("Server stopped", nil)
}

// newCache builds the configured backend, falling back to memory when it is unreachable
func newCache(cfg config.CacheConfig, logger interfaces.Logger) (interfaces.Cache, func()) {
	switch cfg.Type {
	case "redis":
		redisCache, err := redis.NewRedisCache(cfg.Redis)
		if err == nil {
			logger.Info("Using Redis cache", map[string]interface{}{
				"address": cfg.Redis.Address,
			})
			return redisCache, closeWith(redisCache, logger)
		}
		logger.Error("Failed to create Redis cache, falling back to memory", map[string]interface{}{
			"error": err.Error(),
		})
	case "sqlite":
		sqliteCache, err := sqlite.New(sqlite.Options{
			Path:   cfg.SQLite.Path,
			Table:  cfg.SQLite.Table,
			Logger: logger,
		})
		if err == nil {
			logger.Info("Using SQLite cache", map[string]interface{}{
				"path":  cfg.SQLite.Path,
				"table": cfg.SQLite.Table,
			})
			return sqliteCache, closeWith(sqliteCache, logger)
		}
		logger.Error("Failed to open SQLite cache, falling back to memory", map[string]interface{}{
			"error": err.Error(),
		})
	}

	logger.Info("Using memory cache", nil)
	return memory.NewMemoryCacheWithCleanup(cfg.Memory.CleanupInterval), func() {}
}

func closeWith(c io.Closer, logger interfaces.Logger) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Warn("Failed to close cache", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}

func init() {
	fmt.Println(`
    ______            _                    ______ _           __
   / ____/___ __   __(_)________  ____    / ____/(_)___  ____/ /__  _____
  / /_  / __ '/ | / / / ___/ __ \/ __ \  / /_   / / __ \/ __  / _ \/ ___/
 / __/ / /_/ /| |/ / / /__/ /_/ / / / / / __/  / / / / / /_/ /  __/ /
/_/    \__,_/ |___/_/\___/\____/_/ /_/ /_/    /_/_/ /_/\__,_/\___/_/
	`)
}
