package finder

import (
	"context"
	"image"
	"net/url"
	"sync"
	"time"

	"favicon-finder-api/core/domain"
	ferrors "favicon-finder-api/core/errors"
	"favicon-finder-api/core/interfaces"
)

// mockStrategy is a mock implementation of the FaviconStrategy interface
type mockStrategy struct {
	kind       domain.StrategyKind
	locateFunc func(ctx context.Context, siteURL *url.URL, hint string, follow bool) (*domain.CandidateURL, error)

	mu    sync.Mutex
	calls int
	hints []string
}

func (m *mockStrategy) Kind() domain.StrategyKind {
	return m.kind
}

func (m *mockStrategy) Locate(ctx context.Context, siteURL *url.URL, hint string, follow bool) (*domain.CandidateURL, error) {
	m.mu.Lock()
	m.calls++
	m.hints = append(m.hints, hint)
	m.mu.Unlock()

	if m.locateFunc != nil {
		return m.locateFunc(ctx, siteURL, hint, follow)
	}
	return nil, ferrors.NewNotFound(m.kind, siteURL.String(), "mock", nil)
}

func (m *mockStrategy) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockFetcher is a mock implementation of the ImageFetcher interface
type mockFetcher struct {
	fetchFunc func(ctx context.Context, candidate domain.CandidateURL) (*domain.Favicon, error)

	mu         sync.Mutex
	candidates []domain.CandidateURL
}

func (m *mockFetcher) Fetch(ctx context.Context, candidate domain.CandidateURL) (*domain.Favicon, error) {
	m.mu.Lock()
	m.candidates = append(m.candidates, candidate)
	m.mu.Unlock()

	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, candidate)
	}
	return okFavicon(candidate), nil
}

func (m *mockFetcher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.candidates)
}

// mockMetrics is a mock implementation of the Metrics interface
type mockMetrics struct {
	mu       sync.Mutex
	attempts []string
	searches []string
}

func (m *mockMetrics) ObserveAttempt(strategy domain.StrategyKind, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, string(strategy)+":"+outcome)
}

func (m *mockMetrics) ObserveSearch(outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches = append(m.searches, outcome)
}

// mockCache is a mock implementation of the Cache interface
type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
	sets int
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, ferrors.NewNotFound("", key, "cache miss", nil)
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttl
	m.sets++
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// mockDecoder decodes any non-empty payload into a 16x16 image
type mockDecoder struct{}

func (mockDecoder) Decode(data []byte) (*domain.ImageArtifact, error) {
	if len(data) == 0 {
		return nil, ferrors.NewInvalidImage("", nil)
	}
	return domain.NewImageArtifact(image.NewRGBA(image.Rect(0, 0, 16, 16)), "png"), nil
}

func locatesAt(rawURL string, kind domain.StrategyKind) func(context.Context, *url.URL, string, bool) (*domain.CandidateURL, error) {
	return func(context.Context, *url.URL, string, bool) (*domain.CandidateURL, error) {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, err
		}
		return &domain.CandidateURL{URL: u, Kind: kind}, nil
	}
}

func okFavicon(c domain.CandidateURL) *domain.Favicon {
	img := domain.NewImageArtifact(image.NewRGBA(image.Rect(0, 0, 16, 16)), "png")
	return domain.NewFetchedFavicon(c, []byte("png-bytes"), "image/png", img)
}

func registry(strategies ...*mockStrategy) map[domain.StrategyKind]interfaces.FaviconStrategy {
	out := make(map[domain.StrategyKind]interfaces.FaviconStrategy, len(strategies))
	for _, s := range strategies {
		out[s.kind] = s
	}
	return out
}
