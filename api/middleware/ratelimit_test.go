package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitedFaviconHandler(t *testing.T, limit int, window time.Duration) http.Handler {
	t.Helper()
	limiter := NewRateLimiter(limit, window)
	t.Cleanup(limiter.Stop)
	return RateLimitMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"url":"https://example.com/favicon.ico"}`))
	}))
}

func lookup(h http.Handler, remoteAddr string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/favicon?url=https://example.com", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_TokenBucket(t *testing.T) {
	rl := NewRateLimiter(3, 300*time.Millisecond)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		require.True(t, rl.Allow("198.51.100.7"), "request %d", i)
	}
	assert.False(t, rl.Allow("198.51.100.7"))
	assert.True(t, rl.Allow("198.51.100.8"), "buckets are per key")

	// One token refills every 100ms
	time.Sleep(130 * time.Millisecond)
	assert.True(t, rl.Allow("198.51.100.7"))
	assert.False(t, rl.Allow("198.51.100.7"))
}

func TestRateLimiter_BurstSmallerThanLimit(t *testing.T) {
	rl := NewRateLimiterWithBurst(600, time.Minute, 2)
	defer rl.Stop()

	assert.True(t, rl.Allow("k"))
	assert.True(t, rl.Allow("k"))
	assert.False(t, rl.Allow("k"))
}

func TestRateLimiter_NonPositiveBurstAllowsOne(t *testing.T) {
	rl := NewRateLimiterWithBurst(10, time.Minute, 0)
	defer rl.Stop()

	assert.True(t, rl.Allow("k"))
	assert.False(t, rl.Allow("k"))
}

func TestRateLimiter_EvictsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(1, 50*time.Millisecond)
	defer rl.Stop()

	rl.Allow("idle")

	assert.Eventually(t, func() bool {
		rl.mu.Lock()
		defer rl.mu.Unlock()
		return len(rl.visitors) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestRateLimitMiddleware_RejectsWithProblemJSON(t *testing.T) {
	h := limitedFaviconHandler(t, 2, time.Minute)

	for i := 0; i < 2; i++ {
		rec := lookup(h, "203.0.113.5:40000", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "1m0s", rec.Header().Get("X-RateLimit-Window"))
	}

	rec := lookup(h, "203.0.113.5:40001", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"status":429,"title":"Too Many Requests","detail":"Rate limit exceeded. Please try again later."}`, rec.Body.String())

	assert.Equal(t, http.StatusOK, lookup(h, "203.0.113.6:40000", nil).Code, "other clients are unaffected")
}

func TestRateLimitMiddleware_KeysOnForwardedClient(t *testing.T) {
	h := limitedFaviconHandler(t, 1, time.Minute)
	proxy := "10.0.0.1:8080"

	assert.Equal(t, http.StatusOK, lookup(h, proxy, map[string]string{"X-Forwarded-For": "192.0.2.1"}).Code)
	assert.Equal(t, http.StatusOK, lookup(h, proxy, map[string]string{"X-Forwarded-For": "192.0.2.2"}).Code)
	assert.Equal(t, http.StatusTooManyRequests, lookup(h, proxy, map[string]string{"X-Forwarded-For": "192.0.2.1"}).Code)
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{name: "remote addr without port", remoteAddr: "192.0.2.9", want: "192.0.2.9"},
		{name: "remote addr strips port", remoteAddr: "192.0.2.9:5555", want: "192.0.2.9"},
		{name: "ipv6 remote addr", remoteAddr: "[2001:db8::1]:443", want: "2001:db8::1"},
		{
			name:       "last forwarded hop",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1, 198.51.100.2"},
			want:       "198.51.100.2",
		},
		{
			name:       "real ip header",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": " 203.0.113.1 "},
			want:       "203.0.113.1",
		},
		{
			name:       "forwarded wins over real ip",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1", "X-Real-IP": "198.51.100.1"},
			want:       "203.0.113.1",
		},
		{
			name:       "trailing empty hop falls through",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1, "},
			want:       "10.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/favicon", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, extractIP(req))
		})
	}
}
