// ABOUTME: Service interfaces for the favicon search core
// ABOUTME: Defines the strategy contract, the image fetcher and decoder, and the finder entry point

package interfaces

import (
	"context"
	"net/url"
	"time"

	"favicon-finder-api/core/domain"
)

// FaviconStrategy is a single discovery method.
//
// Implementations must be deterministic for unchanged inputs and return
// exactly one candidate or a not-found error (see core/errors.NewNotFound).
// A non-empty hint replaces the default lookup path or selector. When
// followMetaRefresh is true, a meta-refresh redirect on the site's root
// document is resolved and the redirected document is searched instead.
type FaviconStrategy interface {
	Kind() domain.StrategyKind
	Locate(ctx context.Context, siteURL *url.URL, hint string, followMetaRefresh bool) (*domain.CandidateURL, error)
}

// ImageFetcher downloads and decodes a candidate URL
type ImageFetcher interface {
	Fetch(ctx context.Context, candidate domain.CandidateURL) (*domain.Favicon, error)
}

// ImageDecoder turns raw bytes into a validated image artifact
type ImageDecoder interface {
	Decode(data []byte) (*domain.ImageArtifact, error)
}

// FaviconFinder runs an ordered favicon search for a site
type FaviconFinder interface {
	Find(ctx context.Context, siteURL *url.URL, cfg domain.SearchConfig) (*domain.Favicon, error)
}

// FaviconColorService extracts the dominant color of a decoded favicon
type FaviconColorService interface {
	ExtractColor(ctx context.Context, favicon *domain.Favicon) (*domain.RGBColor, error)
}

// Metrics records favicon search telemetry
type Metrics interface {
	// ObserveAttempt records one strategy attempt. outcome is "found",
	// "url_only" or a failure kind.
	ObserveAttempt(strategy domain.StrategyKind, outcome string, duration time.Duration)

	// ObserveSearch records the terminal outcome of a search
	ObserveSearch(outcome string, duration time.Duration)
}
