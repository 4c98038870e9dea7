// ABOUTME: Caching decorator for favicon finders with request coalescing
// ABOUTME: Stores successful results in the shared cache and collapses concurrent lookups for the same key

package finder

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"favicon-finder-api/core/domain"
	ferrors "favicon-finder-api/core/errors"
	"favicon-finder-api/core/interfaces"
)

// DefaultCacheTTL is how long a found favicon stays cached
const DefaultCacheTTL = 24 * time.Hour

// CachedFinder wraps a FaviconFinder with a result cache. Only successful
// searches are stored; failures always reach the wrapped finder.
type CachedFinder struct {
	inner   interfaces.FaviconFinder
	cache   interfaces.Cache
	decoder interfaces.ImageDecoder
	logger  interfaces.Logger
	ttl     time.Duration
	group   singleflight.Group
}

// NewCachedFinder creates a caching finder. A nil deps.Cache disables storage
// but keeps request coalescing. A ttl of zero or less stores entries without
// expiry.
func NewCachedFinder(deps interfaces.Dependencies, inner interfaces.FaviconFinder, decoder interfaces.ImageDecoder, ttl time.Duration) *CachedFinder {
	if ttl < 0 {
		ttl = 0
	}
	logger := deps.Logger
	if logger == nil {
		logger = interfaces.NopLogger{}
	}
	return &CachedFinder{
		inner:   inner,
		cache:   deps.Cache,
		decoder: decoder,
		logger:  logger,
		ttl:     ttl,
	}
}

type cachedFavicon struct {
	URL          string              `json:"url"`
	Kind         domain.StrategyKind `json:"kind"`
	StrategyUsed domain.StrategyKind `json:"strategyUsed"`
	ContentType  string              `json:"contentType,omitempty"`
	Data         []byte              `json:"data,omitempty"`
}

// CacheKey derives the cache key for a search. Every config field that can
// change the result is part of the key.
func CacheKey(siteURL *url.URL, cfg domain.SearchConfig) string {
	hints := make([]string, 0, len(cfg.Hints))
	for kind, hint := range cfg.Hints {
		if hint != "" {
			hints = append(hints, string(kind)+"="+url.QueryEscape(hint))
		}
	}
	sort.Strings(hints)

	return fmt.Sprintf("favicon:%s:%s:%t:%t:%s",
		siteURL.String(),
		cfg.Preferred(),
		cfg.FollowMetaRefreshRedirect,
		cfg.FetchImageBytes,
		strings.Join(hints, "&"),
	)
}

// Find serves the search from cache when possible and otherwise runs it once
// per key, sharing the outcome among concurrent callers
func (c *CachedFinder) Find(ctx context.Context, siteURL *url.URL, cfg domain.SearchConfig) (*domain.Favicon, error) {
	if validateSiteURL(siteURL) != nil || cfg.Validate() != nil {
		return c.inner.Find(ctx, siteURL, cfg)
	}

	key := CacheKey(siteURL, cfg)
	if favicon, ok := c.lookup(ctx, key, cfg); ok {
		return favicon, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		favicon, err := c.inner.Find(ctx, siteURL, cfg)
		if err == nil {
			c.store(ctx, key, favicon)
		}
		return favicon, err
	})

	select {
	case <-ctx.Done():
		return nil, ferrors.NewCancelled(siteURL.String(), ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			// The leader's context may have ended while ours is still live
			if ferrors.IsCancelled(res.Err) && ctx.Err() == nil {
				return c.inner.Find(ctx, siteURL, cfg)
			}
			return nil, res.Err
		}
		favicon := *res.Val.(*domain.Favicon)
		return &favicon, nil
	}
}

func (c *CachedFinder) lookup(ctx context.Context, key string, cfg domain.SearchConfig) (*domain.Favicon, bool) {
	if c.cache == nil {
		return nil, false
	}
	data, err := c.cache.Get(ctx, key)
	if err != nil || data == nil {
		return nil, false
	}

	var record cachedFavicon
	if err := json.Unmarshal(data, &record); err != nil {
		c.evict(ctx, key, err)
		return nil, false
	}
	favicon, err := c.restore(record, cfg)
	if err != nil {
		c.evict(ctx, key, err)
		return nil, false
	}

	c.logger.Debug("Favicon cache hit", map[string]interface{}{"key": key})
	return favicon, true
}

func (c *CachedFinder) restore(record cachedFavicon, cfg domain.SearchConfig) (*domain.Favicon, error) {
	u, err := url.Parse(record.URL)
	if err != nil {
		return nil, err
	}
	candidate := domain.CandidateURL{URL: u, Kind: record.Kind, Source: record.StrategyUsed}

	if !cfg.FetchImageBytes {
		return domain.NewURLOnlyFavicon(candidate), nil
	}
	if c.decoder == nil || len(record.Data) == 0 {
		return nil, fmt.Errorf("cached entry for %s has no decodable image", record.URL)
	}
	artifact, err := c.decoder.Decode(record.Data)
	if err != nil {
		return nil, err
	}
	return domain.NewFetchedFavicon(candidate, record.Data, record.ContentType, artifact), nil
}

func (c *CachedFinder) store(ctx context.Context, key string, favicon *domain.Favicon) {
	if c.cache == nil || favicon == nil {
		return
	}
	data, err := json.Marshal(cachedFavicon{
		URL:          favicon.URLString(),
		Kind:         favicon.Kind,
		StrategyUsed: favicon.StrategyUsed,
		ContentType:  favicon.ContentType,
		Data:         favicon.Data,
	})
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache favicon", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

func (c *CachedFinder) evict(ctx context.Context, key string, cause error) {
	c.logger.Warn("Discarding unreadable favicon cache entry", map[string]interface{}{
		"key":   key,
		"error": cause.Error(),
	})
	_ = c.cache.Delete(ctx, key)
}
