// ABOUTME: Response DTOs for favicon API endpoints
// ABOUTME: Describes the located favicon, its decoded dimensions and optional colour and bytes

package responses

// FaviconResponse describes a located favicon
type FaviconResponse struct {
	URL         string         `json:"url" doc:"Absolute URL of the favicon"`
	Kind        string         `json:"kind" doc:"Kind of icon reported by the strategy"`
	Strategy    string         `json:"strategy" doc:"Strategy that located the favicon"`
	ContentType string         `json:"contentType,omitempty" doc:"Content type of the downloaded image"`
	Format      string         `json:"format,omitempty" doc:"Decoded image format"`
	Width       int            `json:"width,omitempty"`
	Height      int            `json:"height,omitempty"`
	Size        int            `json:"size,omitempty" doc:"Image size in bytes"`
	Color       *ColorResponse `json:"color,omitempty" doc:"Dominant colour, when requested"`
	Data        []byte         `json:"data,omitempty" doc:"Base64 image bytes, when requested"`
}

// ColorResponse is an RGB colour
type ColorResponse struct {
	R   uint8  `json:"r"`
	G   uint8  `json:"g"`
	B   uint8  `json:"b"`
	Hex string `json:"hex"`
}
