package finder

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"favicon-finder-api/core/domain"
	ferrors "favicon-finder-api/core/errors"
	"favicon-finder-api/core/interfaces"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("url.Parse(%q): %v", raw, err)
	}
	return u
}

func allNotFound() []*mockStrategy {
	var out []*mockStrategy
	for _, kind := range domain.DefaultStrategyOrder() {
		out = append(out, &mockStrategy{kind: kind})
	}
	return out
}

func TestNewFinderService(t *testing.T) {
	service := NewFinderService(interfaces.Dependencies{}, nil, nil)

	if service == nil {
		t.Fatal("NewFinderService returned nil")
	}
	if _, ok := service.logger.(interfaces.NopLogger); !ok {
		t.Errorf("logger = %T, want interfaces.NopLogger when none is configured", service.logger)
	}
}

func TestFind_RejectsInvalidSiteURL(t *testing.T) {
	service := NewFinderService(interfaces.Dependencies{}, registry(allNotFound()...), &mockFetcher{})

	for _, raw := range []string{"", "/relative", "ftp://example.com", "https://"} {
		var site *url.URL
		if raw != "" {
			site = mustParse(t, raw)
		}
		_, err := service.Find(context.Background(), site, domain.DefaultSearchConfig())
		if !ferrors.IsValidation(err) {
			t.Errorf("Find(%q) error = %v, want validation error", raw, err)
		}
	}
}

func TestFind_RejectsInvalidConfig(t *testing.T) {
	service := NewFinderService(interfaces.Dependencies{}, registry(allNotFound()...), &mockFetcher{})
	cfg := domain.DefaultSearchConfig()
	cfg.PreferredStrategy = "rss"

	_, err := service.Find(context.Background(), mustParse(t, "https://example.com"), cfg)

	if !ferrors.IsValidation(err) {
		t.Errorf("Find error = %v, want validation error", err)
	}
}

func TestFind_RequiresFetcherWhenFetchingBytes(t *testing.T) {
	service := NewFinderService(interfaces.Dependencies{}, registry(allNotFound()...), nil)

	_, err := service.Find(context.Background(), mustParse(t, "https://example.com"), domain.DefaultSearchConfig())

	if !ferrors.IsValidation(err) {
		t.Errorf("Find error = %v, want validation error", err)
	}
}

func TestFind_AttemptsFollowPreferredOrder(t *testing.T) {
	for _, preferred := range domain.DefaultStrategyOrder() {
		t.Run(string(preferred), func(t *testing.T) {
			var mu sync.Mutex
			var attempted []domain.StrategyKind

			var strategies []*mockStrategy
			for _, kind := range domain.DefaultStrategyOrder() {
				kind := kind
				strategies = append(strategies, &mockStrategy{
					kind: kind,
					locateFunc: func(ctx context.Context, siteURL *url.URL, hint string, follow bool) (*domain.CandidateURL, error) {
						mu.Lock()
						attempted = append(attempted, kind)
						mu.Unlock()
						return nil, ferrors.NewNotFound(kind, siteURL.String(), "", nil)
					},
				})
			}

			service := NewFinderService(interfaces.Dependencies{}, registry(strategies...), &mockFetcher{})
			cfg := domain.DefaultSearchConfig()
			cfg.PreferredStrategy = preferred

			_, err := service.Find(context.Background(), mustParse(t, "https://example.com"), cfg)
			if !ferrors.IsExhausted(err) {
				t.Fatalf("Find error = %v, want exhausted", err)
			}

			want := domain.AttemptOrder(preferred)
			if len(attempted) != len(want) {
				t.Fatalf("attempted %v, want %v", attempted, want)
			}
			seen := make(map[domain.StrategyKind]bool)
			for i := range want {
				if attempted[i] != want[i] {
					t.Errorf("attempt %d = %s, want %s", i, attempted[i], want[i])
				}
				if seen[attempted[i]] {
					t.Errorf("%s attempted more than once", attempted[i])
				}
				seen[attempted[i]] = true
			}
		})
	}
}

// Scenario B
func TestFind_AllNotFoundIsExhausted(t *testing.T) {
	strategies := allNotFound()
	fetcher := &mockFetcher{}
	service := NewFinderService(interfaces.Dependencies{}, registry(strategies...), fetcher)

	favicon, err := service.Find(context.Background(), mustParse(t, "https://example.com"), domain.DefaultSearchConfig())

	if favicon != nil {
		t.Errorf("Find returned favicon %+v, want nil", favicon)
	}
	if !ferrors.IsExhausted(err) {
		t.Fatalf("Find error = %v, want exhausted", err)
	}
	if ferrors.IsNotFound(err) {
		t.Error("individual NotFound failures should not surface through the terminal error")
	}

	var fe *ferrors.FaviconError
	if !errors.As(err, &fe) || len(fe.Attempts) != len(strategies) {
		t.Errorf("exhaustion should record %d attempts, got %+v", len(strategies), fe)
	}
	for _, s := range strategies {
		if s.callCount() != 1 {
			t.Errorf("%s called %d times, want 1", s.kind, s.callCount())
		}
	}
	if fetcher.callCount() != 0 {
		t.Error("fetcher should not run when nothing was located")
	}
}

func TestFind_AllFetchesFailIsExhausted(t *testing.T) {
	var strategies []*mockStrategy
	for _, kind := range domain.DefaultStrategyOrder() {
		strategies = append(strategies, &mockStrategy{
			kind:       kind,
			locateFunc: locatesAt("https://example.com/"+string(kind)+".png", kind),
		})
	}
	fetcher := &mockFetcher{
		fetchFunc: func(ctx context.Context, c domain.CandidateURL) (*domain.Favicon, error) {
			return nil, ferrors.NewNetworkFailure(c.URL.String(), errors.New("connection reset"))
		},
	}
	service := NewFinderService(interfaces.Dependencies{}, registry(strategies...), fetcher)

	_, err := service.Find(context.Background(), mustParse(t, "https://example.com"), domain.DefaultSearchConfig())

	if !ferrors.IsExhausted(err) {
		t.Fatalf("Find error = %v, want exhausted", err)
	}
	if fetcher.callCount() != len(strategies) {
		t.Errorf("fetcher called %d times, want %d (once per strategy, no retry)", fetcher.callCount(), len(strategies))
	}
}

func TestFind_FirstSuccessWins(t *testing.T) {
	html := &mockStrategy{kind: domain.StrategyHTML}
	ico := &mockStrategy{kind: domain.StrategyICO, locateFunc: locatesAt("https://example.com/favicon.ico", domain.StrategyICO)}
	manifest := &mockStrategy{kind: domain.StrategyWebManifest, locateFunc: locatesAt("https://example.com/m.png", domain.StrategyWebManifest)}
	apple := &mockStrategy{kind: domain.StrategyAppleTouchIcon, locateFunc: locatesAt("https://example.com/a.png", domain.StrategyAppleTouchIcon)}
	service := NewFinderService(interfaces.Dependencies{}, registry(html, ico, manifest, apple), &mockFetcher{})

	favicon, err := service.Find(context.Background(), mustParse(t, "https://example.com"), domain.DefaultSearchConfig())

	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if favicon.Kind != domain.StrategyICO || favicon.StrategyUsed != domain.StrategyICO {
		t.Errorf("favicon kind = %s / %s, want ico", favicon.Kind, favicon.StrategyUsed)
	}
	if manifest.callCount() != 0 || apple.callCount() != 0 {
		t.Error("strategies after the winner must not be invoked")
	}
}

// Scenario A
func TestFind_PreferredStrategyWinsBeforeHTML(t *testing.T) {
	html := &mockStrategy{kind: domain.StrategyHTML, locateFunc: locatesAt("https://example.com/icon.png", domain.StrategyHTML)}
	ico := &mockStrategy{kind: domain.StrategyICO, locateFunc: locatesAt("https://example.com/favicon.ico", domain.StrategyICO)}
	service := NewFinderService(interfaces.Dependencies{}, registry(html, ico), &mockFetcher{})

	cfg := domain.DefaultSearchConfig()
	cfg.PreferredStrategy = domain.StrategyICO
	cfg.FetchImageBytes = true

	favicon, err := service.Find(context.Background(), mustParse(t, "https://example.com"), cfg)

	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if favicon.Kind != domain.StrategyICO {
		t.Errorf("favicon kind = %s, want ico", favicon.Kind)
	}
	if html.callCount() != 0 {
		t.Errorf("html strategy called %d times, want 0", html.callCount())
	}
	if !favicon.HasImage() {
		t.Error("favicon should carry the decoded image")
	}
}

// Scenario C
func TestFind_EmptyBodyFallsThroughToNextStrategy(t *testing.T) {
	html := &mockStrategy{kind: domain.StrategyHTML, locateFunc: locatesAt("https://example.com/empty.png", domain.StrategyHTML)}
	ico := &mockStrategy{kind: domain.StrategyICO, locateFunc: locatesAt("https://example.com/favicon.ico", domain.StrategyICO)}
	fetcher := &mockFetcher{
		fetchFunc: func(ctx context.Context, c domain.CandidateURL) (*domain.Favicon, error) {
			if c.Kind == domain.StrategyHTML {
				return nil, ferrors.NewEmptyBody(c.URL.String())
			}
			return okFavicon(c), nil
		},
	}
	metrics := &mockMetrics{}
	service := NewFinderService(interfaces.Dependencies{Metrics: metrics}, registry(html, ico), fetcher)

	favicon, err := service.Find(context.Background(), mustParse(t, "https://example.com"), domain.DefaultSearchConfig())

	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if favicon.Kind != domain.StrategyICO || favicon.StrategyUsed != domain.StrategyICO {
		t.Errorf("favicon kind = %s / %s, want ico", favicon.Kind, favicon.StrategyUsed)
	}
	if html.callCount() != 1 {
		t.Errorf("html strategy called %d times, want 1 (no retry)", html.callCount())
	}

	want := []string{"html:empty_body", "ico:found"}
	if fmt.Sprint(metrics.attempts) != fmt.Sprint(want) {
		t.Errorf("attempt metrics = %v, want %v", metrics.attempts, want)
	}
	if fmt.Sprint(metrics.searches) != "[done]" {
		t.Errorf("search metrics = %v, want [done]", metrics.searches)
	}
}

func TestFind_FaviconWithoutImageIsNotASuccess(t *testing.T) {
	html := &mockStrategy{kind: domain.StrategyHTML, locateFunc: locatesAt("https://example.com/a.png", domain.StrategyHTML)}
	ico := &mockStrategy{kind: domain.StrategyICO, locateFunc: locatesAt("https://example.com/favicon.ico", domain.StrategyICO)}
	fetcher := &mockFetcher{
		fetchFunc: func(ctx context.Context, c domain.CandidateURL) (*domain.Favicon, error) {
			if c.Kind == domain.StrategyHTML {
				return domain.NewURLOnlyFavicon(c), nil
			}
			return okFavicon(c), nil
		},
	}
	service := NewFinderService(interfaces.Dependencies{}, registry(html, ico), fetcher)

	favicon, err := service.Find(context.Background(), mustParse(t, "https://example.com"), domain.DefaultSearchConfig())

	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if favicon.Kind != domain.StrategyICO || !favicon.HasImage() {
		t.Errorf("expected decoded ico favicon, got %+v", favicon)
	}
}

func TestFind_URLOnlyModeSkipsFetcher(t *testing.T) {
	html := &mockStrategy{kind: domain.StrategyHTML, locateFunc: locatesAt("https://example.com/icon.svg", domain.StrategyHTML)}
	fetcher := &mockFetcher{}
	service := NewFinderService(interfaces.Dependencies{}, registry(html), fetcher)

	cfg := domain.DefaultSearchConfig()
	cfg.FetchImageBytes = false

	favicon, err := service.Find(context.Background(), mustParse(t, "https://example.com"), cfg)

	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if fetcher.callCount() != 0 {
		t.Errorf("fetcher called %d times, want 0", fetcher.callCount())
	}
	if favicon.Image != nil || favicon.Data != nil {
		t.Error("URL-only favicon must not carry an image or bytes")
	}
	if favicon.URLString() != "https://example.com/icon.svg" || favicon.Kind != domain.StrategyHTML {
		t.Errorf("unexpected favicon %+v", favicon)
	}
}

func TestFind_URLOnlyModeWorksWithoutFetcher(t *testing.T) {
	ico := &mockStrategy{kind: domain.StrategyICO, locateFunc: locatesAt("https://example.com/favicon.ico", domain.StrategyICO)}
	service := NewFinderService(interfaces.Dependencies{}, registry(ico), nil)

	cfg := domain.DefaultSearchConfig()
	cfg.FetchImageBytes = false

	favicon, err := service.Find(context.Background(), mustParse(t, "https://example.com"), cfg)

	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if favicon.StrategyUsed != domain.StrategyICO {
		t.Errorf("StrategyUsed = %s, want ico", favicon.StrategyUsed)
	}
}

func TestFind_PassesHintsAndRedirectFlag(t *testing.T) {
	var gotFollow bool
	html := &mockStrategy{
		kind: domain.StrategyHTML,
		locateFunc: func(ctx context.Context, siteURL *url.URL, hint string, follow bool) (*domain.CandidateURL, error) {
			gotFollow = follow
			return nil, ferrors.NewNotFound(domain.StrategyHTML, "", "", nil)
		},
	}
	ico := &mockStrategy{kind: domain.StrategyICO}
	service := NewFinderService(interfaces.Dependencies{}, registry(html, ico), &mockFetcher{})

	cfg := domain.DefaultSearchConfig().WithHint(domain.StrategyHTML, "link[rel=logo]")
	cfg.FollowMetaRefreshRedirect = true

	_, _ = service.Find(context.Background(), mustParse(t, "https://example.com"), cfg)

	if !gotFollow {
		t.Error("followMetaRefresh flag not passed to strategy")
	}
	if html.hints[0] != "link[rel=logo]" {
		t.Errorf("html hint = %q, want link[rel=logo]", html.hints[0])
	}
	if ico.hints[0] != "" {
		t.Errorf("ico hint = %q, want empty", ico.hints[0])
	}
}

func TestFind_UnregisteredStrategyCountsAsNotFound(t *testing.T) {
	manifest := &mockStrategy{kind: domain.StrategyWebManifest, locateFunc: locatesAt("https://example.com/m.png", domain.StrategyWebManifest)}
	service := NewFinderService(interfaces.Dependencies{}, registry(manifest), &mockFetcher{})

	favicon, err := service.Find(context.Background(), mustParse(t, "https://example.com"), domain.DefaultSearchConfig())

	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if favicon.Kind != domain.StrategyWebManifest {
		t.Errorf("favicon kind = %s, want webManifest", favicon.Kind)
	}
}

func TestFind_PlainLocateErrorsAreRecovered(t *testing.T) {
	html := &mockStrategy{
		kind: domain.StrategyHTML,
		locateFunc: func(context.Context, *url.URL, string, bool) (*domain.CandidateURL, error) {
			return nil, errors.New("dns failure")
		},
	}
	nilCandidate := &mockStrategy{
		kind: domain.StrategyICO,
		locateFunc: func(context.Context, *url.URL, string, bool) (*domain.CandidateURL, error) {
			return nil, nil
		},
	}
	manifest := &mockStrategy{kind: domain.StrategyWebManifest, locateFunc: locatesAt("https://example.com/m.png", "")}
	service := NewFinderService(interfaces.Dependencies{}, registry(html, nilCandidate, manifest), &mockFetcher{})

	favicon, err := service.Find(context.Background(), mustParse(t, "https://example.com"), domain.DefaultSearchConfig())

	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if favicon.Kind != domain.StrategyWebManifest {
		t.Errorf("empty candidate kind should default to the strategy, got %s", favicon.Kind)
	}
}

func TestFind_CancelMidFetch(t *testing.T) {
	defer goleak.VerifyNone(t)

	html := &mockStrategy{kind: domain.StrategyHTML, locateFunc: locatesAt("https://example.com/slow.png", domain.StrategyHTML)}
	ico := &mockStrategy{kind: domain.StrategyICO, locateFunc: locatesAt("https://example.com/favicon.ico", domain.StrategyICO)}

	fetchStarted := make(chan struct{})
	fetcher := &mockFetcher{
		fetchFunc: func(ctx context.Context, c domain.CandidateURL) (*domain.Favicon, error) {
			close(fetchStarted)
			<-ctx.Done()
			return nil, ferrors.NewNetworkFailure(c.URL.String(), ctx.Err())
		},
	}
	service := NewFinderService(interfaces.Dependencies{}, registry(html, ico), fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		favicon *domain.Favicon
		err     error
	}
	done := make(chan result, 1)
	go func() {
		favicon, err := service.Find(ctx, mustParse(t, "https://example.com"), domain.DefaultSearchConfig())
		done <- result{favicon, err}
	}()

	<-fetchStarted
	cancel()

	select {
	case r := <-done:
		if r.favicon != nil {
			t.Errorf("cancelled search returned favicon %+v", r.favicon)
		}
		if !ferrors.IsCancelled(r.err) {
			t.Errorf("error = %v, want cancelled", r.err)
		}
		if ferrors.IsExhausted(r.err) {
			t.Error("cancellation must be distinct from exhaustion")
		}
		if !errors.Is(r.err, context.Canceled) {
			t.Error("cancelled error should wrap context.Canceled")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Find did not return promptly after cancellation")
	}

	if ico.callCount() != 0 {
		t.Error("no strategy may start after cancellation")
	}
}

func TestFind_DeadlineDuringLocate(t *testing.T) {
	html := &mockStrategy{
		kind: domain.StrategyHTML,
		locateFunc: func(ctx context.Context, siteURL *url.URL, hint string, follow bool) (*domain.CandidateURL, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	ico := &mockStrategy{kind: domain.StrategyICO}
	service := NewFinderService(interfaces.Dependencies{}, registry(html, ico), &mockFetcher{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := service.Find(ctx, mustParse(t, "https://example.com"), domain.DefaultSearchConfig())

	if !ferrors.IsCancelled(err) {
		t.Fatalf("error = %v, want cancelled", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("error should wrap context.DeadlineExceeded")
	}
	if ico.callCount() != 0 {
		t.Error("no strategy may start after the deadline")
	}
}

func TestFind_AlreadyCancelledContext(t *testing.T) {
	strategies := allNotFound()
	metrics := &mockMetrics{}
	service := NewFinderService(interfaces.Dependencies{Metrics: metrics}, registry(strategies...), &mockFetcher{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := service.Find(ctx, mustParse(t, "https://example.com"), domain.DefaultSearchConfig())

	if !ferrors.IsCancelled(err) {
		t.Fatalf("error = %v, want cancelled", err)
	}
	for _, s := range strategies {
		if s.callCount() != 0 {
			t.Errorf("%s invoked on a cancelled context", s.kind)
		}
	}
	if fmt.Sprint(metrics.searches) != "[cancelled]" {
		t.Errorf("search metrics = %v, want [cancelled]", metrics.searches)
	}
}

func TestFind_ConcurrentCallsAreIndependent(t *testing.T) {
	var strategies []*mockStrategy
	for _, kind := range domain.DefaultStrategyOrder() {
		strategies = append(strategies, &mockStrategy{
			kind:       kind,
			locateFunc: locatesAt("https://example.com/"+string(kind), kind),
		})
	}
	service := NewFinderService(interfaces.Dependencies{}, registry(strategies...), &mockFetcher{})

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 40; i++ {
		preferred := domain.DefaultStrategyOrder()[i%4]
		wg.Add(1)
		go func() {
			defer wg.Done()
			cfg := domain.DefaultSearchConfig()
			cfg.PreferredStrategy = preferred
			favicon, err := service.Find(context.Background(), &url.URL{Scheme: "https", Host: "example.com"}, cfg)
			if err != nil {
				errs <- err
				return
			}
			if favicon.StrategyUsed != preferred {
				errs <- fmt.Errorf("got %s, want %s", favicon.StrategyUsed, preferred)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestState_Transitions(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateIdle, StateSearching, true},
		{StateSearching, StateLocated, true},
		{StateSearching, StateLocateFailed, true},
		{StateLocateFailed, StateSearching, true},
		{StateLocated, StateFetching, true},
		{StateLocated, StateDone, true},
		{StateFetching, StateFetchFailed, true},
		{StateFetchFailed, StateSearching, true},
		{StateFetchSucceeded, StateDone, true},
		{StateLocateFailed, StateFailed, true},
		{StateFetching, StateCancelled, true},
		{StateIdle, StateFetching, false},
		{StateSearching, StateDone, false},
		{StateDone, StateSearching, false},
		{StateCancelled, StateCancelled, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
