// ABOUTME: HTML head discovery strategy reading <link rel="icon"> style tags
// ABOUTME: Picks the largest declared icon, or the first element matching a caller-supplied selector

package strategies

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"favicon-finder-api/core/domain"
	ferrors "favicon-finder-api/core/errors"
	"favicon-finder-api/core/interfaces"
)

// relRanks orders icon link relations, lower is preferred
var relRanks = []struct {
	tokens []string
	rank   int
}{
	{[]string{"shortcut", "icon"}, 1},
	{[]string{"icon"}, 0},
	{[]string{"apple-touch-icon"}, 2},
	{[]string{"apple-touch-icon-precomposed"}, 3},
	{[]string{"fluid-icon"}, 4},
}

// HTMLStrategy finds icons declared in the site's HTML
type HTMLStrategy struct {
	loader *documentLoader
}

// NewHTMLStrategy creates the html strategy
func NewHTMLStrategy(deps interfaces.Dependencies) *HTMLStrategy {
	return &HTMLStrategy{loader: newDocumentLoader(deps)}
}

// Kind returns domain.StrategyHTML
func (s *HTMLStrategy) Kind() domain.StrategyKind {
	return domain.StrategyHTML
}

// Locate loads the site's root document and returns the best icon link. A
// non-empty hint is a CSS selector; the first matching element with an href,
// content or src attribute wins.
func (s *HTMLStrategy) Locate(ctx context.Context, siteURL *url.URL, hint string, followMetaRefresh bool) (*domain.CandidateURL, error) {
	pg, err := s.loader.load(ctx, domain.StrategyHTML, siteURL, followMetaRefresh)
	if err != nil {
		return nil, err
	}

	if hint != "" {
		return s.bySelector(pg, hint)
	}
	return s.byLinkTags(pg)
}

type iconLink struct {
	href  *url.URL
	size  int
	rank  int
	order int
}

func (s *HTMLStrategy) byLinkTags(pg *page) (*domain.CandidateURL, error) {
	var best *iconLink

	pg.doc.Find("link[rel][href]").Each(func(i int, sel *goquery.Selection) {
		rank, ok := iconRelRank(sel.AttrOr("rel", ""))
		if !ok {
			return
		}
		href, err := resolve(pg.base, sel.AttrOr("href", ""))
		if err != nil {
			return
		}
		link := &iconLink{href: href, size: largestSize(sel.AttrOr("sizes", "")), rank: rank, order: i}
		if best == nil || link.betterThan(best) {
			best = link
		}
	})

	if best == nil {
		return nil, ferrors.NewNotFound(domain.StrategyHTML, pg.url.String(), "no icon link in document", nil)
	}
	return &domain.CandidateURL{URL: best.href, Kind: domain.StrategyHTML}, nil
}

func (l *iconLink) betterThan(other *iconLink) bool {
	if l.size != other.size {
		return l.size > other.size
	}
	if l.rank != other.rank {
		return l.rank < other.rank
	}
	return l.order < other.order
}

func (s *HTMLStrategy) bySelector(pg *page, selector string) (*domain.CandidateURL, error) {
	var found *url.URL

	pg.doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		for _, attr := range []string{"href", "content", "src"} {
			if v, ok := sel.Attr(attr); ok {
				if u, err := resolve(pg.base, v); err == nil {
					found = u
					return false
				}
			}
		}
		return true
	})

	if found == nil {
		return nil, ferrors.NewNotFound(domain.StrategyHTML, pg.url.String(), "selector "+strconv.Quote(selector)+" matched no icon", nil)
	}
	return &domain.CandidateURL{URL: found, Kind: domain.StrategyHTML}, nil
}

// iconRelRank reports whether a rel attribute names a favicon and how
// preferable it is. mask-icon is monochrome SVG and is never used.
func iconRelRank(rel string) (int, bool) {
	tokens := make(map[string]bool)
	for _, t := range strings.Fields(strings.ToLower(rel)) {
		tokens[t] = true
	}
	if tokens["mask-icon"] {
		return 0, false
	}
	for _, r := range relRanks {
		matched := true
		for _, t := range r.tokens {
			if !tokens[t] {
				matched = false
				break
			}
		}
		if matched {
			return r.rank, true
		}
	}
	return 0, false
}

// largestSize returns the biggest edge declared by a sizes attribute such as
// "16x16 32x32". "any" and malformed entries count as zero.
func largestSize(sizes string) int {
	largest := 0
	for _, entry := range strings.Fields(strings.ToLower(sizes)) {
		w, h, ok := strings.Cut(entry, "x")
		if !ok {
			continue
		}
		width, err1 := strconv.Atoi(w)
		height, err2 := strconv.Atoi(h)
		if err1 != nil || err2 != nil {
			continue
		}
		edge := width
		if height > edge {
			edge = height
		}
		if edge > largest {
			largest = edge
		}
	}
	return largest
}
