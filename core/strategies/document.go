// ABOUTME: Shared page loading for favicon discovery strategies
// ABOUTME: Fetches a site's HTML, optionally follows meta-refresh redirects, and resolves the document base URL

package strategies

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"favicon-finder-api/core/domain"
	ferrors "favicon-finder-api/core/errors"
	"favicon-finder-api/core/interfaces"
)

const (
	maxDocumentBytes   = 2 << 20
	maxMetaRefreshHops = 5
)

// page is a loaded HTML document
type page struct {
	// url is the address the document was finally served from
	url *url.URL
	// base resolves relative references, honouring <base href>
	base *url.URL
	doc  *goquery.Document
}

type documentLoader struct {
	client interfaces.HTTPClient
	logger interfaces.Logger
}

func newDocumentLoader(deps interfaces.Dependencies) *documentLoader {
	logger := deps.Logger
	if logger == nil {
		logger = interfaces.NopLogger{}
	}
	return &documentLoader{client: deps.HTTPClient, logger: logger}
}

// load fetches siteURL and, when follow is set, keeps following meta-refresh
// redirects until a page without one is reached
func (l *documentLoader) load(ctx context.Context, kind domain.StrategyKind, siteURL *url.URL, follow bool) (*page, error) {
	current := siteURL
	visited := make(map[string]bool)

	for hop := 0; ; hop++ {
		body, final, err := l.fetch(ctx, kind, current)
		if err != nil {
			return nil, err
		}
		visited[current.String()] = true
		visited[final.String()] = true

		if follow && hop < maxMetaRefreshHops {
			if target, ok := metaRefreshTarget(body, final); ok && !visited[target.String()] {
				l.logger.Debug("Following meta refresh", map[string]interface{}{
					"from": final.String(),
					"to":   target.String(),
				})
				current = target
				continue
			}
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return nil, ferrors.NewNotFound(kind, final.String(), "unparseable document", err)
		}
		return &page{url: final, base: documentBase(doc, final), doc: doc}, nil
	}
}

func (l *documentLoader) fetch(ctx context.Context, kind domain.StrategyKind, target *url.URL) ([]byte, *url.URL, error) {
	if l.client == nil {
		return nil, nil, ferrors.NewNotFound(kind, target.String(), "no HTTP client configured", nil)
	}

	resp, err := l.client.Get(ctx, target.String())
	if err != nil {
		return nil, nil, ferrors.NewNotFound(kind, target.String(), "failed to load document", err)
	}
	defer resp.Body().Close()

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, nil, ferrors.NewNotFound(kind, target.String(), "document unavailable",
			&ferrors.HTTPStatusError{URL: target.String(), StatusCode: resp.StatusCode()})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body(), maxDocumentBytes))
	if err != nil {
		return nil, nil, ferrors.NewNotFound(kind, target.String(), "failed to read document", err)
	}

	return body, finalURL(resp, target), nil
}

// finalURL is the address a response was served from after HTTP redirects
func finalURL(resp interfaces.Response, requested *url.URL) *url.URL {
	if raw := resp.URL(); raw != "" {
		if u, err := url.Parse(raw); err == nil && u.IsAbs() {
			return u
		}
	}
	return requested
}

func documentBase(doc *goquery.Document, final *url.URL) *url.URL {
	href, ok := doc.Find("base[href]").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return final
	}
	base, err := final.Parse(strings.TrimSpace(href))
	if err != nil || !isHTTP(base) {
		return final
	}
	return base
}

// metaRefreshTarget scans a document for <meta http-equiv="refresh"> and
// returns the http(s) URL it points to
func metaRefreshTarget(body []byte, base *url.URL) (*url.URL, bool) {
	z := html.NewTokenizer(bytes.NewReader(body))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return nil, false
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "meta" {
				continue
			}
			var equiv, content string
			for _, attr := range tok.Attr {
				switch strings.ToLower(attr.Key) {
				case "http-equiv":
					equiv = attr.Val
				case "content":
					content = attr.Val
				}
			}
			if !strings.EqualFold(strings.TrimSpace(equiv), "refresh") {
				continue
			}
			raw, ok := parseRefreshContent(content)
			if !ok {
				continue
			}
			target, err := base.Parse(raw)
			if err != nil || !isHTTP(target) {
				continue
			}
			return target, true
		}
	}
}

// parseRefreshContent extracts the URL from a refresh value such as
// `0; url=https://example.com/` or `5,URL='/next'`
func parseRefreshContent(content string) (string, bool) {
	idx := strings.IndexAny(content, ";,")
	if idx < 0 {
		return "", false
	}
	rest := strings.TrimSpace(content[idx+1:])

	if len(rest) >= 3 && strings.EqualFold(rest[:3], "url") {
		after := strings.TrimSpace(rest[3:])
		if strings.HasPrefix(after, "=") {
			rest = strings.TrimSpace(after[1:])
		}
	}

	if len(rest) >= 2 {
		if q := rest[0]; (q == '\'' || q == '"') && strings.IndexByte(rest[1:], q) >= 0 {
			rest = rest[1 : 1+strings.IndexByte(rest[1:], q)]
		}
	}

	rest = strings.TrimSpace(rest)
	return rest, rest != ""
}

func siteRoot(u *url.URL) *url.URL {
	return &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}
}

func isHTTP(u *url.URL) bool {
	return u != nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// resolve turns an attribute value into an absolute candidate URL. data:
// URLs are passed through for the fetcher to decode inline.
func resolve(base *url.URL, ref string) (*url.URL, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("empty reference")
	}
	u, err := base.Parse(ref)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "data" || isHTTP(u) {
		return u, nil
	}
	return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
}
