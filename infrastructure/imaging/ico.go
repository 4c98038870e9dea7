// ABOUTME: ICO container decoding for favicons
// ABOUTME: Picks the largest, deepest directory entry and decodes its PNG or DIB payload

package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/bmp"
)

const (
	icoHeaderLen   = 6
	icoEntryLen    = 16
	dibHeaderLen   = 40
	bmpFileHeadLen = 14
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

type icoEntry struct {
	width    int
	height   int
	bitCount int
	size     int
	offset   int
}

func (e icoEntry) betterThan(other icoEntry) bool {
	if a, b := e.width*e.height, other.width*other.height; a != b {
		return a > b
	}
	return e.bitCount > other.bitCount
}

// isICO reports whether data starts with an icon or cursor directory
func isICO(data []byte) bool {
	if len(data) < icoHeaderLen {
		return false
	}
	kind := binary.LittleEndian.Uint16(data[2:4])
	return binary.LittleEndian.Uint16(data[0:2]) == 0 &&
		(kind == 1 || kind == 2) &&
		binary.LittleEndian.Uint16(data[4:6]) > 0
}

// decodeICO decodes the largest image stored in an ICO container. Entries
// hold either a PNG stream or a headerless BMP (DIB). Payloads declaring an
// edge longer than maxDimension are rejected before any pixels are allocated.
func decodeICO(data []byte, maxDimension int) (image.Image, error) {
	count := int(binary.LittleEndian.Uint16(data[4:6]))
	if len(data) < icoHeaderLen+count*icoEntryLen {
		return nil, errors.New("ico: truncated directory")
	}

	var best *icoEntry
	for i := 0; i < count; i++ {
		raw := data[icoHeaderLen+i*icoEntryLen:]
		entry := icoEntry{
			width:    int(raw[0]),
			height:   int(raw[1]),
			bitCount: int(binary.LittleEndian.Uint16(raw[6:8])),
			size:     int(binary.LittleEndian.Uint32(raw[8:12])),
			offset:   int(binary.LittleEndian.Uint32(raw[12:16])),
		}
		// Zero means 256
		if entry.width == 0 {
			entry.width = 256
		}
		if entry.height == 0 {
			entry.height = 256
		}
		if entry.size <= 0 || entry.offset < 0 || entry.offset+entry.size > len(data) {
			continue
		}
		if best == nil || entry.betterThan(*best) {
			e := entry
			best = &e
		}
	}
	if best == nil {
		return nil, errors.New("ico: no readable entries")
	}

	payload := data[best.offset : best.offset+best.size]
	if bytes.HasPrefix(payload, pngSignature) {
		cfg, err := png.DecodeConfig(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		if err := checkEdges(cfg.Width, cfg.Height, maxDimension); err != nil {
			return nil, err
		}
		return png.Decode(bytes.NewReader(payload))
	}
	return decodeDIB(payload, maxDimension)
}

func checkEdges(width, height, maxDimension int) error {
	if width > maxDimension || height > maxDimension {
		return fmt.Errorf("ico: entry %dx%d exceeds %dpx limit", width, height, maxDimension)
	}
	return nil
}

// decodeDIB decodes a BMP stored without its file header, as used inside
// ICO files. The stored height covers the colour bitmap and the AND mask.
func decodeDIB(dib []byte, maxDimension int) (image.Image, error) {
	if len(dib) < dibHeaderLen {
		return nil, errors.New("ico: truncated bitmap header")
	}
	if headerLen := binary.LittleEndian.Uint32(dib[0:4]); headerLen != dibHeaderLen {
		return nil, fmt.Errorf("ico: unsupported bitmap header size %d", headerLen)
	}

	width := int(int32(binary.LittleEndian.Uint32(dib[4:8])))
	height := int(int32(binary.LittleEndian.Uint32(dib[8:12]))) / 2
	bitCount := int(binary.LittleEndian.Uint16(dib[14:16]))
	if width <= 0 || height <= 0 {
		return nil, errors.New("ico: invalid bitmap dimensions")
	}
	if err := checkEdges(width, height, maxDimension); err != nil {
		return nil, err
	}

	if bitCount == 32 {
		return decodeDIB32(dib[dibHeaderLen:], width, height)
	}

	paletteLen := 0
	if bitCount <= 8 {
		used := int(binary.LittleEndian.Uint32(dib[32:36]))
		if used == 0 {
			used = 1 << bitCount
		}
		paletteLen = used * 4
	}

	header := make([]byte, dibHeaderLen)
	copy(header, dib[:dibHeaderLen])
	binary.LittleEndian.PutUint32(header[8:12], uint32(height))

	file := make([]byte, bmpFileHeadLen, bmpFileHeadLen+len(dib))
	file[0], file[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(file[2:6], uint32(bmpFileHeadLen+len(dib)))
	binary.LittleEndian.PutUint32(file[10:14], uint32(bmpFileHeadLen+dibHeaderLen+paletteLen))
	file = append(file, header...)
	file = append(file, dib[dibHeaderLen:]...)

	return bmp.Decode(bytes.NewReader(file))
}

// decodeDIB32 reads bottom-up BGRA rows, keeping the alpha channel that
// plain BMP decoders discard
func decodeDIB32(pixels []byte, width, height int) (image.Image, error) {
	stride := width * 4
	if len(pixels) < stride*height {
		return nil, errors.New("ico: truncated pixel data")
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	hasAlpha := false
	for y := 0; y < height; y++ {
		row := pixels[(height-1-y)*stride:]
		for x := 0; x < width; x++ {
			p := row[x*4 : x*4+4]
			if p[3] != 0 {
				hasAlpha = true
			}
			img.SetNRGBA(x, y, color.NRGBA{R: p[2], G: p[1], B: p[0], A: p[3]})
		}
	}

	// Icons relying on the AND mask leave alpha zeroed
	if !hasAlpha {
		for i := 3; i < len(img.Pix); i += 4 {
			img.Pix[i] = 0xff
		}
	}
	return img, nil
}
