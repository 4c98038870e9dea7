// ABOUTME: Request DTOs for favicon API endpoints
// ABOUTME: Converts query parameters into a validated site URL and search configuration

package requests

import (
	"net/url"
	"strings"

	"favicon-finder-api/core/domain"
	"favicon-finder-api/core/errors"
)

// FaviconRequest holds the query parameters shared by the favicon endpoints
type FaviconRequest struct {
	// URL is the site whose favicon is wanted
	URL string `query:"url" required:"true" minLength:"1" maxLength:"2048" doc:"Absolute http(s) URL of the site"`

	// Preferred is attempted before the default order
	Preferred string `query:"preferred" doc:"Strategy to try first: html, ico, webManifest or appleTouchIcon"`

	FollowMetaRefresh bool `query:"followMetaRefresh" doc:"Follow <meta http-equiv=refresh> on the site's root document"`

	HTMLSelector   string `query:"htmlSelector" maxLength:"512" doc:"CSS selector replacing the default icon link lookup"`
	ICOPath        string `query:"icoPath" maxLength:"512" doc:"Path or URL replacing /favicon.ico"`
	ManifestPath   string `query:"manifestPath" maxLength:"512" doc:"Path or URL of the web app manifest"`
	AppleTouchPath string `query:"appleTouchPath" maxLength:"512" doc:"Path or URL replacing /apple-touch-icon.png"`
}

// SiteURL parses and checks the requested site
func (r FaviconRequest) SiteURL() (*url.URL, error) {
	raw := strings.TrimSpace(r.URL)
	site, err := url.Parse(raw)
	if err != nil || site.Host == "" || (site.Scheme != "http" && site.Scheme != "https") {
		return nil, &errors.ValidationError{Field: "url", Message: domain.ErrInvalidSiteURL.Error()}
	}
	return site, nil
}

// SearchConfig overlays the request on defaults. FollowMetaRefresh can only
// switch following on.
func (r FaviconRequest) SearchConfig(defaults domain.SearchConfig) (domain.SearchConfig, error) {
	cfg := defaults
	cfg.Hints = make(map[domain.StrategyKind]string, 4)
	for kind, hint := range defaults.Hints {
		cfg.Hints[kind] = hint
	}

	if r.Preferred != "" {
		kind, err := domain.ParseStrategyKind(r.Preferred)
		if err != nil {
			return domain.SearchConfig{}, &errors.ValidationError{Field: "preferred", Message: err.Error()}
		}
		cfg.PreferredStrategy = kind
	}

	cfg.FollowMetaRefreshRedirect = defaults.FollowMetaRefreshRedirect || r.FollowMetaRefresh

	for kind, hint := range map[domain.StrategyKind]string{
		domain.StrategyHTML:           r.HTMLSelector,
		domain.StrategyICO:            r.ICOPath,
		domain.StrategyWebManifest:    r.ManifestPath,
		domain.StrategyAppleTouchIcon: r.AppleTouchPath,
	} {
		if hint = strings.TrimSpace(hint); hint != "" {
			cfg.Hints[kind] = hint
		}
	}

	return cfg, nil
}
