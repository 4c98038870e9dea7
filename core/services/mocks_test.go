package services

import (
	"context"
	"errors"
	"image"
	"io"
	"strings"
	"sync"
	"time"

	"favicon-finder-api/core/domain"
	ferrors "favicon-finder-api/core/errors"
	"favicon-finder-api/core/interfaces"
)

// mockHTTPClient is a mock implementation of the HTTPClient interface
type mockHTTPClient struct {
	getFunc func(ctx context.Context, url string) (interfaces.Response, error)
	calls   int
}

func (m *mockHTTPClient) Get(ctx context.Context, url string) (interfaces.Response, error) {
	m.calls++
	if m.getFunc != nil {
		return m.getFunc(ctx, url)
	}
	return nil, errors.New("no response configured")
}

// mockResponse is a mock implementation of the Response interface
type mockResponse struct {
	statusCode int
	body       string
	headers    map[string]string
	url        string
}

func (m *mockResponse) StatusCode() int {
	return m.statusCode
}

func (m *mockResponse) Body() io.ReadCloser {
	return io.NopCloser(strings.NewReader(m.body))
}

func (m *mockResponse) Header(key string) string {
	if m.headers != nil {
		return m.headers[key]
	}
	return ""
}

func (m *mockResponse) URL() string {
	return m.url
}

func respond(status int, body, contentType string) func(context.Context, string) (interfaces.Response, error) {
	return func(ctx context.Context, url string) (interfaces.Response, error) {
		return &mockResponse{
			statusCode: status,
			body:       body,
			headers:    map[string]string{"Content-Type": contentType},
			url:        url,
		}, nil
	}
}

// mockDecoder is a mock implementation of the ImageDecoder interface
type mockDecoder struct {
	decodeFunc func(data []byte) (*domain.ImageArtifact, error)
	calls      int
}

func (m *mockDecoder) Decode(data []byte) (*domain.ImageArtifact, error) {
	m.calls++
	if m.decodeFunc != nil {
		return m.decodeFunc(data)
	}
	if strings.HasPrefix(string(data), "IMG") {
		return domain.NewImageArtifact(image.NewRGBA(image.Rect(0, 0, 32, 32)), "png"), nil
	}
	return nil, ferrors.NewInvalidImage("", errors.New("unrecognised format"))
}

// mockCache is a mock implementation of the Cache interface
type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("cache miss")
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
