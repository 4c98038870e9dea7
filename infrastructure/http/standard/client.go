// ABOUTME: Standard HTTP client implementation with retry logic and per-host throttling
// ABOUTME: Provides GET with exponential backoff, a redirect cap and the final URL after redirects

package standard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"favicon-finder-api/core/interfaces"
)

const (
	defaultMaxRetries   = 3
	defaultUserAgent    = "FaviconFinder/1.0 (+https://github.com/favicon-finder)"
	defaultMaxRedirects = 10
	defaultHostIdleTTL  = 5 * time.Minute
)

// Options configures a StandardHTTPClient
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxRetries   int
	MaxRedirects int

	// RequestsPerSecond throttles requests to any single host. Zero disables throttling.
	RequestsPerSecond float64
	Burst             int

	// HostIdleTTL drops a host's throttle state after this long without requests
	HostIdleTTL time.Duration

	// Transport replaces http.DefaultTransport when set
	Transport http.RoundTripper
}

// DefaultOptions returns the client defaults
func DefaultOptions() Options {
	return Options{
		Timeout:      10 * time.Second,
		UserAgent:    defaultUserAgent,
		MaxRetries:   defaultMaxRetries,
		MaxRedirects: defaultMaxRedirects,
	}
}

// StandardHTTPClient implements the HTTPClient interface using net/http
type StandardHTTPClient struct {
	client *http.Client
	opts   Options

	mu       sync.Mutex
	limiters *gocache.Cache
}

// NewStandardHTTPClient creates a new HTTP client with the specified timeout
func NewStandardHTTPClient(timeout time.Duration) *StandardHTTPClient {
	opts := DefaultOptions()
	opts.Timeout = timeout
	return NewStandardHTTPClientWithOptions(opts)
}

// NewStandardHTTPClientWithOptions creates a client from explicit options.
// Zero fields fall back to DefaultOptions.
func NewStandardHTTPClientWithOptions(opts Options) *StandardHTTPClient {
	defaults := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaults.UserAgent
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaults.MaxRetries
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = defaults.MaxRedirects
	}
	if opts.RequestsPerSecond > 0 && opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.HostIdleTTL <= 0 {
		opts.HostIdleTTL = defaultHostIdleTTL
	}

	c := &StandardHTTPClient{opts: opts}
	if opts.RequestsPerSecond > 0 {
		c.limiters = gocache.New(opts.HostIdleTTL, opts.HostIdleTTL)
	}
	c.client = &http.Client{
		Timeout:       opts.Timeout,
		Transport:     opts.Transport,
		CheckRedirect: c.checkRedirect,
	}
	return c
}

func (c *StandardHTTPClient) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= c.opts.MaxRedirects {
		return fmt.Errorf("stopped after %d redirects", c.opts.MaxRedirects)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("redirect to unsupported scheme %q", req.URL.Scheme)
	}
	return nil
}

// limiter returns the token bucket for host, creating it on first use. Each
// use pushes the bucket's expiry back, so only idle hosts are dropped.
func (c *StandardHTTPClient) limiter(host string) *rate.Limiter {
	if c.limiters == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var l *rate.Limiter
	if v, ok := c.limiters.Get(host); ok {
		l = v.(*rate.Limiter)
	} else {
		l = rate.NewLimiter(rate.Limit(c.opts.RequestsPerSecond), c.opts.Burst)
	}
	c.limiters.SetDefault(host, l)
	return l
}

// Get performs an HTTP GET request. Transport errors and 5xx responses are
// retried with exponential backoff; the last 5xx response is returned as-is.
func (c *StandardHTTPClient) Get(ctx context.Context, rawURL string) (interfaces.Response, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", target.Scheme)
	}
	if target.Host == "" {
		return nil, errors.New("URL has no host")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,image/*,application/manifest+json,*/*;q=0.8")

	limiter := c.limiter(target.Host)

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt < c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 100ms, 200ms, 400ms
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err = c.client.Do(req)
		if err != nil {
			resp = nil
			lastErr = err
			if ctx.Err() != nil {
				return nil, err
			}
			continue
		}

		// Don't retry on success or 4xx errors
		if resp.StatusCode < 500 || attempt == c.opts.MaxRetries-1 {
			break
		}

		lastErr = fmt.Errorf("server returned %d", resp.StatusCode)
		resp.Body.Close()
		resp = nil
	}

	if resp == nil {
		return nil, lastErr
	}

	return &httpResponse{
		statusCode: resp.StatusCode,
		body:       resp.Body,
		headers:    resp.Header,
		finalURL:   resp.Request.URL.String(),
	}, nil
}

// httpResponse implements the Response interface
type httpResponse struct {
	statusCode int
	body       io.ReadCloser
	headers    http.Header
	finalURL   string
}

// StatusCode returns the HTTP status code
func (r *httpResponse) StatusCode() int {
	return r.statusCode
}

// Body returns the response body
func (r *httpResponse) Body() io.ReadCloser {
	return r.body
}

// Header returns the value of the specified header
func (r *httpResponse) Header(key string) string {
	return r.headers.Get(key)
}

// URL returns the address the response was served from
func (r *httpResponse) URL() string {
	return r.finalURL
}
