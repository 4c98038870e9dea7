// Package infrastructure provides concrete implementations of the interfaces
// defined in the core package.
//
// - cache/memory: in-process cache backed by go-cache
// - cache/redis: Redis cache backed by go-redis
// - cache/sqlite: persistent cache backed by go-sqlite3
// - http/standard: net/http client with retries, redirect limits and per-host rate limits
// - imaging: image decoding for PNG, JPEG, GIF, BMP, WebP and ICO
// - logger/standard: structured logger backed by logrus
// - metrics: Prometheus collectors for searches and HTTP requests
//
// # Cache Example
//
//	cache, err := redis.NewRedisCache(config.RedisConfig{
//	    Address:   "localhost:6379",
//	    KeyPrefix: "favicons:",
//	})
//	err = cache.Set(ctx, "key", []byte("value"), time.Hour)
//
// # HTTP Client
//
//	client := standard.NewStandardHTTPClient(10 * time.Second)
//	resp, err := client.Get(ctx, "https://example.com/favicon.ico")
//	if err != nil {
//	    // Handle error
//	}
//	defer resp.Body().Close()
package infrastructure
