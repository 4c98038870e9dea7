// ABOUTME: Conventional-path discovery strategies for /favicon.ico and /apple-touch-icon.png
// ABOUTME: Probes the well-known location at the site root and accepts it when a non-HTML resource answers

package strategies

import (
	"context"
	"io"
	"net/url"
	"strings"

	"favicon-finder-api/core/domain"
	ferrors "favicon-finder-api/core/errors"
	"favicon-finder-api/core/interfaces"
)

const (
	defaultICOPath        = "/favicon.ico"
	defaultAppleTouchPath = "/apple-touch-icon.png"
)

// WellKnownStrategy checks a fixed path at the site root
type WellKnownStrategy struct {
	kind   domain.StrategyKind
	path   string
	client interfaces.HTTPClient
	loader *documentLoader
	logger interfaces.Logger
}

// NewICOStrategy creates the ico strategy probing /favicon.ico
func NewICOStrategy(deps interfaces.Dependencies) *WellKnownStrategy {
	return newWellKnownStrategy(deps, domain.StrategyICO, defaultICOPath)
}

// NewAppleTouchIconStrategy creates the appleTouchIcon strategy probing /apple-touch-icon.png
func NewAppleTouchIconStrategy(deps interfaces.Dependencies) *WellKnownStrategy {
	return newWellKnownStrategy(deps, domain.StrategyAppleTouchIcon, defaultAppleTouchPath)
}

func newWellKnownStrategy(deps interfaces.Dependencies, kind domain.StrategyKind, path string) *WellKnownStrategy {
	loader := newDocumentLoader(deps)
	return &WellKnownStrategy{
		kind:   kind,
		path:   path,
		client: deps.HTTPClient,
		loader: loader,
		logger: loader.logger,
	}
}

// Kind returns the strategy kind this instance probes for
func (s *WellKnownStrategy) Kind() domain.StrategyKind {
	return s.kind
}

// Locate probes the well-known path. A hint replaces the path and may be an
// absolute URL. With followMetaRefresh the root of the redirected page is used.
func (s *WellKnownStrategy) Locate(ctx context.Context, siteURL *url.URL, hint string, followMetaRefresh bool) (*domain.CandidateURL, error) {
	root := siteRoot(siteURL)
	if followMetaRefresh {
		pg, err := s.loader.load(ctx, s.kind, siteURL, true)
		if err == nil {
			root = siteRoot(pg.url)
		} else if ctx.Err() != nil {
			return nil, err
		} else {
			s.logger.Debug("Root document unavailable, probing original site", map[string]interface{}{
				"site":     siteURL.String(),
				"strategy": string(s.kind),
			})
		}
	}

	path := s.path
	if hint != "" {
		path = hint
	}
	target, err := root.Parse(strings.TrimSpace(path))
	if err != nil || !isHTTP(target) {
		return nil, ferrors.NewNotFound(s.kind, siteURL.String(), "invalid icon path "+path, err)
	}

	found, err := s.probe(ctx, target)
	if err != nil {
		return nil, err
	}
	return &domain.CandidateURL{URL: found, Kind: s.kind}, nil
}

// probe confirms that target serves something other than an HTML error page
func (s *WellKnownStrategy) probe(ctx context.Context, target *url.URL) (*url.URL, error) {
	if s.client == nil {
		return nil, ferrors.NewNotFound(s.kind, target.String(), "no HTTP client configured", nil)
	}

	resp, err := s.client.Get(ctx, target.String())
	if err != nil {
		return nil, ferrors.NewNotFound(s.kind, target.String(), "probe failed", err)
	}
	defer resp.Body().Close()

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, ferrors.NewNotFound(s.kind, target.String(), "icon not served",
			&ferrors.HTTPStatusError{URL: target.String(), StatusCode: resp.StatusCode()})
	}
	contentType := strings.ToLower(resp.Header("Content-Type"))
	if strings.Contains(contentType, "text/html") {
		return nil, ferrors.NewNotFound(s.kind, target.String(), "path serves an HTML page", nil)
	}

	// Drain a little so keep-alive connections can be reused
	_, _ = io.CopyN(io.Discard, resp.Body(), 4096)

	return finalURL(resp, target), nil
}
