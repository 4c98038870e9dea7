// ABOUTME: Favicon handlers for the Huma API
// ABOUTME: Provides HTTP endpoints that locate a site's favicon and serve its metadata or bytes

package handlers

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"favicon-finder-api/api/dto/mappers"
	"favicon-finder-api/api/dto/requests"
	"favicon-finder-api/api/dto/responses"
	"favicon-finder-api/core/domain"
	"favicon-finder-api/core/interfaces"
)

const imageCacheControl = "public, max-age=86400"

// FaviconHandler handles favicon-related HTTP requests
type FaviconHandler struct {
	finder   interfaces.FaviconFinder
	colors   interfaces.FaviconColorService
	logger   interfaces.Logger
	defaults domain.SearchConfig
	timeout  time.Duration
}

// FaviconHandlerOptions carries the optional collaborators of a FaviconHandler
type FaviconHandlerOptions struct {
	// Colors enables the color=true query parameter
	Colors interfaces.FaviconColorService
	Logger interfaces.Logger

	// Defaults is the search configuration requests are overlaid on
	Defaults domain.SearchConfig

	// Timeout bounds every search. Zero leaves only the client's deadline.
	Timeout time.Duration
}

// NewFaviconHandler creates a new favicon handler
func NewFaviconHandler(finder interfaces.FaviconFinder, opts FaviconHandlerOptions) *FaviconHandler {
	defaults := opts.Defaults
	if defaults.PreferredStrategy == "" {
		defaults = domain.DefaultSearchConfig()
	}
	return &FaviconHandler{
		finder:   finder,
		colors:   opts.Colors,
		logger:   opts.Logger,
		defaults: defaults,
		timeout:  opts.Timeout,
	}
}

// RegisterRoutes registers all favicon routes
func (h *FaviconHandler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "getFavicon",
		Method:      http.MethodGet,
		Path:        "/favicon",
		Summary:     "Find a site's favicon",
		Description: "Runs the ordered strategy search for a site and describes the favicon it found",
		Tags:        []string{"Favicons"},
	}, h.GetFavicon)

	huma.Register(api, huma.Operation{
		OperationID: "getFaviconImage",
		Method:      http.MethodGet,
		Path:        "/favicon/image",
		Summary:     "Download a site's favicon",
		Description: "Runs the ordered strategy search for a site and returns the favicon bytes",
		Tags:        []string{"Favicons"},
	}, h.GetFaviconImage)
}

// GetFaviconInput defines the input for the GetFavicon operation
type GetFaviconInput struct {
	requests.FaviconRequest

	URLOnly     bool `query:"urlOnly" doc:"Stop at the first located URL without downloading it"`
	IncludeData bool `query:"includeData" doc:"Include the base64 image bytes in the response"`
	Color       bool `query:"color" doc:"Include the dominant colour of the favicon"`
}

// GetFaviconOutput defines the output for the GetFavicon operation
type GetFaviconOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         responses.FaviconResponse
}

// GetFavicon handles GET /favicon
func (h *FaviconHandler) GetFavicon(ctx context.Context, input *GetFaviconInput) (*GetFaviconOutput, error) {
	site, cfg, err := h.parse(input.FaviconRequest)
	if err != nil {
		return nil, toHumaError(err)
	}
	cfg.FetchImageBytes = !input.URLOnly

	favicon, err := h.find(ctx, site, cfg)
	if err != nil {
		return nil, toHumaError(err)
	}

	body := mappers.ToFaviconResponse(favicon, input.IncludeData)

	if input.Color && h.colors != nil && favicon.HasImage() {
		color, err := h.colors.ExtractColor(ctx, favicon)
		if err != nil {
			h.warn("Color extraction failed", map[string]interface{}{
				"url":   favicon.URLString(),
				"error": err.Error(),
			})
		} else {
			body.Color = mappers.ToColorResponse(color)
		}
	}

	return &GetFaviconOutput{CacheControl: imageCacheControl, Body: *body}, nil
}

// GetFaviconImageInput defines the input for the GetFaviconImage operation
type GetFaviconImageInput struct {
	requests.FaviconRequest
}

// GetFaviconImageOutput streams the favicon bytes
type GetFaviconImageOutput struct {
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Location     string `header:"Content-Location"`
	Body         []byte
}

// GetFaviconImage handles GET /favicon/image
func (h *FaviconHandler) GetFaviconImage(ctx context.Context, input *GetFaviconImageInput) (*GetFaviconImageOutput, error) {
	site, cfg, err := h.parse(input.FaviconRequest)
	if err != nil {
		return nil, toHumaError(err)
	}
	cfg.FetchImageBytes = true

	favicon, err := h.find(ctx, site, cfg)
	if err != nil {
		return nil, toHumaError(err)
	}

	contentType := favicon.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(favicon.Data)
	}

	return &GetFaviconImageOutput{
		ContentType:  contentType,
		CacheControl: imageCacheControl,
		Location:     favicon.URLString(),
		Body:         favicon.Data,
	}, nil
}

func (h *FaviconHandler) parse(req requests.FaviconRequest) (*url.URL, domain.SearchConfig, error) {
	site, err := req.SiteURL()
	if err != nil {
		return nil, domain.SearchConfig{}, err
	}
	cfg, err := req.SearchConfig(h.defaults)
	if err != nil {
		return nil, domain.SearchConfig{}, err
	}
	return site, cfg, nil
}

func (h *FaviconHandler) find(ctx context.Context, site *url.URL, cfg domain.SearchConfig) (*domain.Favicon, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	return h.finder.Find(ctx, site, cfg)
}

func (h *FaviconHandler) warn(msg string, fields map[string]interface{}) {
	if h.logger != nil {
		h.logger.Warn(msg, fields)
	}
}
