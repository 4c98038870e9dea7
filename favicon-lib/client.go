// ABOUTME: Main client for the favicon library providing favicon search without HTTP server dependencies
// ABOUTME: Wires the strategies, image fetcher, decoder and result cache behind a small API

package favicons

import (
	"context"
	"net/url"
	"sync/atomic"

	"favicon-finder-api/core/domain"
	ferrors "favicon-finder-api/core/errors"
	"favicon-finder-api/core/finder"
	"favicon-finder-api/core/interfaces"
	"favicon-finder-api/core/services"
	"favicon-finder-api/core/strategies"
	"favicon-finder-api/infrastructure/imaging"
)

// Client is the main entry point for the favicon library
type Client struct {
	finder interfaces.FaviconFinder
	colors interfaces.FaviconColorService

	deps   interfaces.Dependencies
	config Config
	closed atomic.Bool
}

// NewClient creates a new favicon client with the given options
func NewClient(options ...Option) (*Client, error) {
	config := defaultConfig()

	for _, opt := range options {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}

	applyDefaultDependencies(&config)

	deps := interfaces.Dependencies{
		HTTPClient: config.HTTPClient,
		Cache:      config.Cache,
		Logger:     config.Logger,
		Metrics:    config.Metrics,
	}

	decoder := imaging.NewDecoderWithLimit(config.MaxImageDimension)
	fetcher := services.NewImageFetcherService(deps, decoder, config.MaxImageBytes)

	var search interfaces.FaviconFinder = finder.NewFinderService(deps, strategies.Defaults(deps), fetcher)
	if !config.DisableCache {
		search = finder.NewCachedFinder(deps, search, decoder, config.CacheTTL)
	}

	return &Client{
		finder: search,
		colors: services.NewFaviconColorService(deps),
		deps:   deps,
		config: config,
	}, nil
}

// Close marks the client closed and releases a cache that needs closing
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	if closer, ok := c.deps.Cache.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// Find runs the favicon search for siteURL
func (c *Client) Find(ctx context.Context, siteURL string, opts ...SearchOption) (*Favicon, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}

	site, err := url.Parse(siteURL)
	if err != nil {
		return nil, wrapFindError(siteURL, &ferrors.ValidationError{Field: "url", Message: err.Error()})
	}

	favicon, err := c.finder.Find(ctx, site, c.searchConfig(opts))
	if err != nil {
		return nil, wrapFindError(siteURL, err)
	}
	return domainFaviconToPublic(favicon), nil
}

// searchConfig applies opts to a private copy of the client defaults
func (c *Client) searchConfig(opts []SearchOption) domain.SearchConfig {
	cfg := c.config.Defaults
	cfg.Hints = make(map[domain.StrategyKind]string, len(c.config.Defaults.Hints))
	for kind, hint := range c.config.Defaults.Hints {
		cfg.Hints[kind] = hint
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// FindURL locates the favicon URL without downloading the image
func (c *Client) FindURL(ctx context.Context, siteURL string, opts ...SearchOption) (string, error) {
	favicon, err := c.Find(ctx, siteURL, append(opts, URLOnly())...)
	if err != nil {
		return "", err
	}
	return favicon.URL, nil
}

// DominantColor returns the most prominent color of a found favicon. Favicons
// without a decoded image yield the default gray.
func (c *Client) DominantColor(ctx context.Context, favicon *Favicon) (*RGBColor, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	if favicon == nil || favicon.raw == nil {
		return nil, NewError(ErrorTypeValidation, "favicon was not returned by this library")
	}

	color, err := c.colors.ExtractColor(ctx, favicon.raw)
	if err != nil {
		return nil, NewError(ErrorTypeInternal, "color extraction failed").WithCause(err)
	}
	return &RGBColor{R: color.R, G: color.G, B: color.B, Hex: color.Hex()}, nil
}
