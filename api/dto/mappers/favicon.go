// ABOUTME: Mappers for converting favicon domain models to API DTOs
// ABOUTME: Keeps the response shape independent of the search core

package mappers

import (
	"favicon-finder-api/api/dto/responses"
	"favicon-finder-api/core/domain"
)

// ToFaviconResponse converts a domain Favicon. Bytes are only copied when includeData is set.
func ToFaviconResponse(favicon *domain.Favicon, includeData bool) *responses.FaviconResponse {
	if favicon == nil {
		return nil
	}

	response := &responses.FaviconResponse{
		URL:         favicon.URLString(),
		Kind:        favicon.Kind.String(),
		Strategy:    favicon.StrategyUsed.String(),
		ContentType: favicon.ContentType,
		Size:        len(favicon.Data),
	}

	if favicon.Image != nil {
		response.Format = favicon.Image.Format
		response.Width = favicon.Image.Width
		response.Height = favicon.Image.Height
	}

	if includeData && len(favicon.Data) > 0 {
		response.Data = favicon.Data
	}

	return response
}

// ToColorResponse converts a domain colour
func ToColorResponse(c *domain.RGBColor) *responses.ColorResponse {
	if c == nil {
		return nil
	}
	return &responses.ColorResponse{
		R:   c.R,
		G:   c.G,
		B:   c.B,
		Hex: c.Hex(),
	}
}
