// ABOUTME: Image decoder turning favicon bytes into validated raster images
// ABOUTME: Supports PNG, JPEG, GIF, WebP, BMP and ICO containers; SVG is rejected

package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/webp"

	"favicon-finder-api/core/domain"
	ferrors "favicon-finder-api/core/errors"
)

// DefaultMaxDimension bounds either edge of a decoded image
const DefaultMaxDimension = 4096

// ErrSVG is returned for vector images, which have no raster form to decode
var ErrSVG = errors.New("SVG images are not supported")

// Decoder implements interfaces.ImageDecoder
type Decoder struct {
	maxDimension int
}

// NewDecoder creates a decoder with the default size limit
func NewDecoder() *Decoder {
	return &Decoder{maxDimension: DefaultMaxDimension}
}

// NewDecoderWithLimit creates a decoder rejecting images with an edge longer than maxDimension
func NewDecoderWithLimit(maxDimension int) *Decoder {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	return &Decoder{maxDimension: maxDimension}
}

// Decode validates and decodes data. Every failure is an InvalidImage error.
func (d *Decoder) Decode(data []byte) (artifact *domain.ImageArtifact, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			artifact = nil
			err = ferrors.NewInvalidImage("", fmt.Errorf("panic recovered: %v", rec))
		}
	}()

	if len(data) == 0 {
		return nil, ferrors.NewInvalidImage("", errors.New("no image data"))
	}

	if isICO(data) {
		img, err := decodeICO(data, d.maxDimension)
		if err != nil {
			return nil, ferrors.NewInvalidImage("", err)
		}
		return d.validate(img, "ico")
	}

	if looksLikeSVG(data) {
		return nil, ferrors.NewInvalidImage("", ErrSVG)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ferrors.NewInvalidImage("", err)
	}
	if err := d.checkBounds(cfg.Width, cfg.Height); err != nil {
		return nil, ferrors.NewInvalidImage("", err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ferrors.NewInvalidImage("", err)
	}
	return d.validate(img, format)
}

func (d *Decoder) validate(img image.Image, format string) (*domain.ImageArtifact, error) {
	bounds := img.Bounds()
	if err := d.checkBounds(bounds.Dx(), bounds.Dy()); err != nil {
		return nil, ferrors.NewInvalidImage("", err)
	}
	return domain.NewImageArtifact(img, format), nil
}

func (d *Decoder) checkBounds(width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.New("image has empty bounds")
	}
	if width > d.maxDimension || height > d.maxDimension {
		return fmt.Errorf("image %dx%d exceeds %dpx limit", width, height, d.maxDimension)
	}
	return nil
}

// looksLikeSVG sniffs for an <svg root near the start of the payload
func looksLikeSVG(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	text := strings.ToLower(strings.TrimSpace(string(head)))
	if !strings.HasPrefix(text, "<") {
		return false
	}
	return strings.Contains(text, "<svg")
}
