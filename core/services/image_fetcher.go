// ABOUTME: Image fetcher service downloading located favicon candidates
// ABOUTME: Retrieves bytes over HTTP or from data: URLs and validates them through the image decoder

package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"favicon-finder-api/core/domain"
	ferrors "favicon-finder-api/core/errors"
	"favicon-finder-api/core/interfaces"
)

// DefaultMaxImageBytes caps a downloaded favicon
const DefaultMaxImageBytes int64 = 5 * 1024 * 1024

// ImageFetcherService implements interfaces.ImageFetcher
type ImageFetcherService struct {
	deps     interfaces.Dependencies
	decoder  interfaces.ImageDecoder
	maxBytes int64
}

// NewImageFetcherService creates a fetcher. maxBytes <= 0 uses DefaultMaxImageBytes.
func NewImageFetcherService(deps interfaces.Dependencies, decoder interfaces.ImageDecoder, maxBytes int64) *ImageFetcherService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &ImageFetcherService{
		deps:     deps,
		decoder:  decoder,
		maxBytes: maxBytes,
	}
}

// Fetch downloads the candidate and decodes it.
//
// Transport errors and non-2xx statuses are NetworkFailure, a zero-length
// body is EmptyBody, and oversized or undecodable bytes are InvalidImage.
func (s *ImageFetcherService) Fetch(ctx context.Context, candidate domain.CandidateURL) (*domain.Favicon, error) {
	if candidate.URL == nil {
		return nil, ferrors.NewNetworkFailure("", errors.New("candidate has no URL"))
	}
	rawURL := candidate.URL.String()

	var data []byte
	var contentType string
	var err error
	if candidate.URL.Scheme == "data" {
		data, contentType, err = parseDataURL(candidate.URL)
		if err != nil {
			return nil, ferrors.NewInvalidImage(shortURL(rawURL), err)
		}
	} else {
		data, contentType, err = s.download(ctx, rawURL)
		if err != nil {
			return nil, err
		}
	}

	if len(data) == 0 {
		return nil, ferrors.NewEmptyBody(shortURL(rawURL))
	}

	if s.decoder == nil {
		return nil, ferrors.NewInvalidImage(shortURL(rawURL), errors.New("no image decoder configured"))
	}
	artifact, err := s.decoder.Decode(data)
	if err != nil {
		failure := ferrors.Classify(err, ferrors.KindInvalidImage, candidate.Source)
		failure.Kind = ferrors.KindInvalidImage
		if failure.URL == "" {
			failure.URL = shortURL(rawURL)
		}
		return nil, failure
	}

	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	if s.deps.Logger != nil {
		s.deps.Logger.Debug("Fetched favicon image", map[string]interface{}{
			"url":    shortURL(rawURL),
			"bytes":  len(data),
			"format": artifact.Format,
			"width":  artifact.Width,
			"height": artifact.Height,
		})
	}

	return domain.NewFetchedFavicon(candidate, data, contentType, artifact), nil
}

func (s *ImageFetcherService) download(ctx context.Context, rawURL string) ([]byte, string, error) {
	if s.deps.HTTPClient == nil {
		return nil, "", ferrors.NewNetworkFailure(rawURL, errors.New("HTTP client not configured"))
	}

	resp, err := s.deps.HTTPClient.Get(ctx, rawURL)
	if err != nil {
		return nil, "", ferrors.NewNetworkFailure(rawURL, err)
	}
	defer resp.Body().Close()

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, "", ferrors.NewNetworkFailure(rawURL, &ferrors.HTTPStatusError{URL: rawURL, StatusCode: resp.StatusCode()})
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body(), s.maxBytes+1))
	if err != nil {
		return nil, "", ferrors.NewNetworkFailure(rawURL, err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, "", ferrors.NewInvalidImage(rawURL, fmt.Errorf("image exceeds %d bytes", s.maxBytes))
	}

	return data, resp.Header("Content-Type"), nil
}

// parseDataURL decodes an RFC 2397 data: URL
func parseDataURL(u *url.URL) ([]byte, string, error) {
	raw := u.Opaque
	if raw == "" {
		raw = strings.TrimPrefix(u.String(), "data:")
	}

	meta, payload, ok := strings.Cut(raw, ",")
	if !ok {
		return nil, "", errors.New("malformed data URL")
	}

	isBase64 := false
	mediaType := meta
	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		isBase64 = true
		mediaType = meta[:len(meta)-len(";base64")]
	}

	unescaped, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", err
	}
	if !isBase64 {
		return []byte(unescaped), mediaType, nil
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(unescaped))
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(strings.TrimSpace(unescaped), "="))
		if err != nil {
			return nil, "", err
		}
	}
	return data, mediaType, nil
}

// shortURL keeps error messages readable when a data: URL is inlined
func shortURL(rawURL string) string {
	if len(rawURL) > 96 {
		return rawURL[:96] + "..."
	}
	return rawURL
}
