// ABOUTME: Favicon domain model represents a located and optionally decoded site icon
// ABOUTME: Defines CandidateURL, ImageArtifact and the constructors for search results

package domain

import (
	"image"
	"net/url"
	"strings"
)

// CandidateURL is a URL a strategy believes points at a favicon. It has not
// been downloaded or decoded yet.
type CandidateURL struct {
	// URL is the absolute location of the icon
	URL *url.URL

	// Kind is the kind of icon reported by the strategy
	Kind StrategyKind

	// Source is the strategy that located the URL; set by the search
	Source StrategyKind
}

// ImageArtifact is a decoded, validated image
type ImageArtifact struct {
	Image  image.Image
	Format string
	Width  int
	Height int
}

// NewImageArtifact wraps a decoded image together with its format name
func NewImageArtifact(img image.Image, format string) *ImageArtifact {
	bounds := img.Bounds()
	return &ImageArtifact{
		Image:  img,
		Format: format,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}
}

// Favicon is the result of a successful search. Image and Data are nil when
// the search was run without fetching image bytes.
type Favicon struct {
	Image        *ImageArtifact
	Data         []byte
	ContentType  string
	SourceURL    *url.URL
	Kind         StrategyKind
	StrategyUsed StrategyKind
}

// NewURLOnlyFavicon builds a Favicon carrying only the located URL
func NewURLOnlyFavicon(c CandidateURL) *Favicon {
	return &Favicon{
		SourceURL:    cloneURL(c.URL),
		Kind:         c.Kind,
		StrategyUsed: c.source(),
	}
}

// NewFetchedFavicon builds a Favicon from downloaded and decoded bytes
func NewFetchedFavicon(c CandidateURL, data []byte, contentType string, img *ImageArtifact) *Favicon {
	return &Favicon{
		Image:        img,
		Data:         data,
		ContentType:  strings.TrimSpace(contentType),
		SourceURL:    cloneURL(c.URL),
		Kind:         c.Kind,
		StrategyUsed: c.source(),
	}
}

// HasImage reports whether the favicon carries a decoded image
func (f *Favicon) HasImage() bool {
	return f != nil && f.Image != nil && f.Image.Image != nil
}

// URLString returns the source URL as a string, or "" when absent
func (f *Favicon) URLString() string {
	if f == nil || f.SourceURL == nil {
		return ""
	}
	return f.SourceURL.String()
}

func (c CandidateURL) source() StrategyKind {
	if c.Source != "" {
		return c.Source
	}
	return c.Kind
}

func cloneURL(u *url.URL) *url.URL {
	if u == nil {
		return nil
	}
	clone := *u
	if u.User != nil {
		user := *u.User
		clone.User = &user
	}
	return &clone
}
