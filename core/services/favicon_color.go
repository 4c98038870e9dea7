// ABOUTME: Favicon color extraction service finding the dominant color of a decoded icon
// ABOUTME: Uses K-means clustering with mask retry and caches results by image content

package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/draw"
	"time"

	"github.com/EdlinOrg/prominentcolor"

	"favicon-finder-api/core/domain"
	"favicon-finder-api/core/interfaces"
)

const (
	defaultColorValue = 128
	colorCacheTTL     = 7 * 24 * time.Hour
)

// FaviconColorService implements interfaces.FaviconColorService
type FaviconColorService struct {
	deps interfaces.Dependencies
}

// NewFaviconColorService creates a new favicon color service
func NewFaviconColorService(deps interfaces.Dependencies) *FaviconColorService {
	return &FaviconColorService{deps: deps}
}

// ExtractColor returns the most prominent color of the favicon's image.
// Favicons without a decoded image, and images that cannot be clustered,
// yield the default gray rather than an error.
func (s *FaviconColorService) ExtractColor(ctx context.Context, favicon *domain.Favicon) (*domain.RGBColor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !favicon.HasImage() {
		return s.defaultColor(), nil
	}

	cacheKey := colorCacheKey(favicon)
	if s.deps.Cache != nil && cacheKey != "" {
		if data, err := s.deps.Cache.Get(ctx, cacheKey); err == nil && data != nil {
			var color domain.RGBColor
			if _, err := fmt.Sscanf(string(data), "%d,%d,%d", &color.R, &color.G, &color.B); err == nil {
				return &color, nil
			}
		}
	}

	color, err := s.extractFromImage(favicon.Image.Image)
	if err != nil {
		s.debug("Falling back to average favicon color", map[string]interface{}{
			"url":   favicon.URLString(),
			"error": err.Error(),
		})
		color = averageColor(favicon.Image.Image)
	}

	if s.deps.Cache != nil && cacheKey != "" {
		cacheData := fmt.Sprintf("%d,%d,%d", color.R, color.G, color.B)
		_ = s.deps.Cache.Set(ctx, cacheKey, []byte(cacheData), colorCacheTTL)
	}

	return color, nil
}

// extractFromImage runs k-means over the image, first ignoring
// white/black/green backgrounds and then over every pixel
func (s *FaviconColorService) extractFromImage(img image.Image) (color *domain.RGBColor, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			color = nil
			err = fmt.Errorf("panic recovered: %v", rec)
		}
	}()

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("image has empty bounds")
	}

	nrgba := image.NewNRGBA(bounds)
	draw.Draw(nrgba, bounds, img, bounds.Min, draw.Src)

	colors, err := prominentcolor.KmeansWithAll(
		prominentcolor.ArgumentDefault,
		nrgba,
		prominentcolor.DefaultK,
		1,
		prominentcolor.GetDefaultMasks(),
	)
	if err != nil || len(colors) == 0 {
		colors, err = prominentcolor.KmeansWithAll(
			prominentcolor.ArgumentDefault,
			nrgba,
			prominentcolor.DefaultK,
			1,
			nil,
		)
		if err != nil || len(colors) == 0 {
			return nil, fmt.Errorf("no colors extracted from image")
		}
	}

	return &domain.RGBColor{
		R: uint8(colors[0].Color.R),
		G: uint8(colors[0].Color.G),
		B: uint8(colors[0].Color.B),
	}, nil
}

// averageColor is the mean of the opaque pixels, or gray if there are none
func averageColor(img image.Image) *domain.RGBColor {
	var r, g, b, n uint64
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			pr, pg, pb, pa := img.At(x, y).RGBA()
			if pa < 0x8000 {
				continue
			}
			r += uint64(pr >> 8)
			g += uint64(pg >> 8)
			b += uint64(pb >> 8)
			n++
		}
	}
	if n == 0 {
		return &domain.RGBColor{R: defaultColorValue, G: defaultColorValue, B: defaultColorValue}
	}
	return &domain.RGBColor{R: uint8(r / n), G: uint8(g / n), B: uint8(b / n)}
}

func colorCacheKey(favicon *domain.Favicon) string {
	if len(favicon.Data) > 0 {
		sum := sha256.Sum256(favicon.Data)
		return "faviconColor:" + hex.EncodeToString(sum[:16])
	}
	return ""
}

func (s *FaviconColorService) debug(msg string, fields map[string]interface{}) {
	if s.deps.Logger != nil {
		s.deps.Logger.Debug(msg, fields)
	}
}

// defaultColor returns the default gray color
func (s *FaviconColorService) defaultColor() *domain.RGBColor {
	return &domain.RGBColor{
		R: defaultColorValue,
		G: defaultColorValue,
		B: defaultColorValue,
	}
}
