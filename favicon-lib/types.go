// ABOUTME: Public types for the favicon library API
// ABOUTME: Provides caller-friendly types that wrap the internal domain models

package favicons

import (
	"image"

	"favicon-finder-api/core/domain"
)

// Strategy names re-exported so callers need not import core packages
const (
	StrategyHTML           = domain.StrategyHTML
	StrategyICO            = domain.StrategyICO
	StrategyWebManifest    = domain.StrategyWebManifest
	StrategyAppleTouchIcon = domain.StrategyAppleTouchIcon
)

// Favicon is a found favicon
type Favicon struct {
	URL         string `json:"url"`
	Kind        string `json:"kind"`
	Strategy    string `json:"strategy"`
	ContentType string `json:"content_type,omitempty"`
	Format      string `json:"format,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	Data        []byte `json:"data,omitempty"`

	// Image is the decoded favicon; nil for URL-only searches
	Image image.Image `json:"-"`

	raw *domain.Favicon
}

// RGBColor represents an RGB color
type RGBColor struct {
	R   uint8  `json:"r"`
	G   uint8  `json:"g"`
	B   uint8  `json:"b"`
	Hex string `json:"hex"`
}

func domainFaviconToPublic(f *domain.Favicon) *Favicon {
	out := &Favicon{
		URL:         f.URLString(),
		Kind:        f.Kind.String(),
		Strategy:    f.StrategyUsed.String(),
		ContentType: f.ContentType,
		Data:        f.Data,
		raw:         f,
	}
	if f.HasImage() {
		out.Image = f.Image.Image
		out.Format = f.Image.Format
		out.Width = f.Image.Width
		out.Height = f.Image.Height
	}
	return out
}
