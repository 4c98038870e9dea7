// ABOUTME: Web app manifest discovery strategy
// ABOUTME: Reads the manifest linked from the site's HTML and picks its largest full-colour icon

package strategies

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"favicon-finder-api/core/domain"
	ferrors "favicon-finder-api/core/errors"
	"favicon-finder-api/core/interfaces"
)

const maxManifestBytes = 512 << 10

type webManifest struct {
	Icons []manifestIcon `json:"icons"`
}

type manifestIcon struct {
	Src     string `json:"src"`
	Sizes   string `json:"sizes"`
	Type    string `json:"type"`
	Purpose string `json:"purpose"`
}

// WebManifestStrategy finds icons listed in a web app manifest
type WebManifestStrategy struct {
	client interfaces.HTTPClient
	loader *documentLoader
}

// NewWebManifestStrategy creates the webManifest strategy
func NewWebManifestStrategy(deps interfaces.Dependencies) *WebManifestStrategy {
	return &WebManifestStrategy{client: deps.HTTPClient, loader: newDocumentLoader(deps)}
}

// Kind returns domain.StrategyWebManifest
func (s *WebManifestStrategy) Kind() domain.StrategyKind {
	return domain.StrategyWebManifest
}

// Locate finds the manifest through <link rel="manifest">, or at the hinted
// path, and returns its best icon
func (s *WebManifestStrategy) Locate(ctx context.Context, siteURL *url.URL, hint string, followMetaRefresh bool) (*domain.CandidateURL, error) {
	manifestURL, err := s.manifestURL(ctx, siteURL, hint, followMetaRefresh)
	if err != nil {
		return nil, err
	}

	manifest, err := s.fetchManifest(ctx, manifestURL)
	if err != nil {
		return nil, err
	}

	icon, err := bestManifestIcon(manifest, manifestURL)
	if err != nil {
		return nil, ferrors.NewNotFound(domain.StrategyWebManifest, manifestURL.String(), "manifest lists no usable icon", err)
	}
	return &domain.CandidateURL{URL: icon, Kind: domain.StrategyWebManifest}, nil
}

func (s *WebManifestStrategy) manifestURL(ctx context.Context, siteURL *url.URL, hint string, follow bool) (*url.URL, error) {
	if hint != "" {
		base := siteURL
		if follow {
			if pg, err := s.loader.load(ctx, domain.StrategyWebManifest, siteURL, true); err == nil {
				base = pg.url
			} else if ctx.Err() != nil {
				return nil, err
			}
		}
		u, err := base.Parse(strings.TrimSpace(hint))
		if err != nil || !isHTTP(u) {
			return nil, ferrors.NewNotFound(domain.StrategyWebManifest, siteURL.String(), "invalid manifest path "+hint, err)
		}
		return u, nil
	}

	pg, err := s.loader.load(ctx, domain.StrategyWebManifest, siteURL, follow)
	if err != nil {
		return nil, err
	}

	var found *url.URL
	pg.doc.Find("link[rel][href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		for _, rel := range strings.Fields(strings.ToLower(sel.AttrOr("rel", ""))) {
			if rel != "manifest" {
				continue
			}
			if u, err := resolve(pg.base, sel.AttrOr("href", "")); err == nil && isHTTP(u) {
				found = u
				return false
			}
		}
		return true
	})
	if found == nil {
		return nil, ferrors.NewNotFound(domain.StrategyWebManifest, pg.url.String(), "no manifest link in document", nil)
	}
	return found, nil
}

func (s *WebManifestStrategy) fetchManifest(ctx context.Context, manifestURL *url.URL) (*webManifest, error) {
	if s.client == nil {
		return nil, ferrors.NewNotFound(domain.StrategyWebManifest, manifestURL.String(), "no HTTP client configured", nil)
	}

	resp, err := s.client.Get(ctx, manifestURL.String())
	if err != nil {
		return nil, ferrors.NewNotFound(domain.StrategyWebManifest, manifestURL.String(), "failed to load manifest", err)
	}
	defer resp.Body().Close()

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, ferrors.NewNotFound(domain.StrategyWebManifest, manifestURL.String(), "manifest unavailable",
			&ferrors.HTTPStatusError{URL: manifestURL.String(), StatusCode: resp.StatusCode()})
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body(), maxManifestBytes))
	if err != nil {
		return nil, ferrors.NewNotFound(domain.StrategyWebManifest, manifestURL.String(), "failed to read manifest", err)
	}

	var manifest webManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, ferrors.NewNotFound(domain.StrategyWebManifest, manifestURL.String(), "malformed manifest", err)
	}
	return &manifest, nil
}

var errNoUsableIcon = errors.New("no usable icons")

// bestManifestIcon returns the largest icon that is not monochrome-only.
// Ties keep manifest order.
func bestManifestIcon(manifest *webManifest, manifestURL *url.URL) (*url.URL, error) {
	var best *url.URL
	bestSize := -1
	var lastErr error

	for _, icon := range manifest.Icons {
		if monochromeOnly(icon.Purpose) {
			continue
		}
		u, err := resolve(manifestURL, icon.Src)
		if err != nil {
			lastErr = err
			continue
		}
		if size := largestSize(icon.Sizes); size > bestSize {
			best, bestSize = u, size
		}
	}

	if best == nil {
		if lastErr == nil {
			lastErr = errNoUsableIcon
		}
		return nil, lastErr
	}
	return best, nil
}

func monochromeOnly(purpose string) bool {
	tokens := strings.Fields(strings.ToLower(purpose))
	if len(tokens) == 0 {
		return false
	}
	for _, t := range tokens {
		if t != "monochrome" {
			return false
		}
	}
	return true
}
