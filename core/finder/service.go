// ABOUTME: Favicon search orchestrator running discovery strategies in fallback order
// ABOUTME: Locates a candidate per strategy, fetches and decodes it, and advances on any failure

package finder

import (
	"context"
	"errors"
	"net/url"
	"time"

	"favicon-finder-api/core/domain"
	ferrors "favicon-finder-api/core/errors"
	"favicon-finder-api/core/interfaces"
)

// FinderService runs favicon searches. It only holds immutable
// collaborators, so one instance can serve concurrent callers.
type FinderService struct {
	strategies map[domain.StrategyKind]interfaces.FaviconStrategy
	fetcher    interfaces.ImageFetcher
	logger     interfaces.Logger
	metrics    interfaces.Metrics
}

// NewFinderService creates a finder from a strategy registry and an image fetcher
func NewFinderService(deps interfaces.Dependencies, strategies map[domain.StrategyKind]interfaces.FaviconStrategy, fetcher interfaces.ImageFetcher) *FinderService {
	registry := make(map[domain.StrategyKind]interfaces.FaviconStrategy, len(strategies))
	for kind, strategy := range strategies {
		if strategy != nil {
			registry[kind] = strategy
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = interfaces.NopLogger{}
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}

	return &FinderService{
		strategies: registry,
		fetcher:    fetcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// search holds the progress of one Find call
type search struct {
	site     *url.URL
	cfg      domain.SearchConfig
	order    []domain.StrategyKind
	next     int
	state    State
	current  domain.StrategyKind
	failures []*ferrors.FaviconError
	started  time.Time
}

func newSearch(site *url.URL, cfg domain.SearchConfig) *search {
	return &search{
		site:    site,
		cfg:     cfg,
		order:   domain.AttemptOrder(cfg.Preferred()),
		state:   StateIdle,
		started: time.Now(),
	}
}

func (sr *search) advance() (domain.StrategyKind, bool) {
	if sr.next >= len(sr.order) {
		return "", false
	}
	kind := sr.order[sr.next]
	sr.next++
	return kind, true
}

// Find searches siteURL for a favicon. Strategies run one at a time in
// AttemptOrder(cfg.PreferredStrategy); the first candidate that locates and,
// when cfg.FetchImageBytes is set, downloads and decodes wins.
//
// Failures of individual strategies are not returned. The caller sees a
// Favicon, an AllStrategiesExhausted error, a Cancelled error when ctx ends
// first, or a ValidationError for bad input.
func (s *FinderService) Find(ctx context.Context, siteURL *url.URL, cfg domain.SearchConfig) (*domain.Favicon, error) {
	if err := validateSiteURL(siteURL); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ferrors.ValidationError{Field: "config", Message: err.Error()}
	}
	if cfg.FetchImageBytes && s.fetcher == nil {
		return nil, &ferrors.ValidationError{Field: "fetchImageBytes", Message: "no image fetcher configured"}
	}

	sr := newSearch(siteURL, cfg)
	favicon, err := s.run(ctx, sr)
	s.metrics.ObserveSearch(sr.state.String(), time.Since(sr.started))
	return favicon, err
}

func (s *FinderService) run(ctx context.Context, sr *search) (*domain.Favicon, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, s.cancel(sr, err)
		}

		kind, ok := sr.advance()
		if !ok {
			s.transition(sr, StateFailed)
			s.logger.Debug("All favicon strategies exhausted", map[string]interface{}{
				"site":     sr.site.String(),
				"attempts": len(sr.failures),
			})
			return nil, ferrors.NewExhausted(sr.site.String(), sr.failures)
		}

		favicon, failure := s.attempt(ctx, sr, kind)
		if favicon != nil {
			return favicon, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, s.cancel(sr, err)
		}

		sr.failures = append(sr.failures, failure)
		s.logger.Debug("Favicon strategy failed", map[string]interface{}{
			"site":     sr.site.String(),
			"strategy": string(kind),
			"kind":     string(failure.Kind),
			"error":    failure.Error(),
		})
	}
}

// attempt runs one strategy and, when needed, the image fetch for its candidate
func (s *FinderService) attempt(ctx context.Context, sr *search, kind domain.StrategyKind) (*domain.Favicon, *ferrors.FaviconError) {
	started := time.Now()
	sr.current = kind
	s.transition(sr, StateSearching)

	candidate, err := s.locate(ctx, sr, kind)
	if err != nil {
		s.transition(sr, StateLocateFailed)
		failure := ferrors.Classify(err, ferrors.KindNotFound, kind)
		s.metrics.ObserveAttempt(kind, string(failure.Kind), time.Since(started))
		return nil, failure
	}
	s.transition(sr, StateLocated)

	if err := ctx.Err(); err != nil {
		return nil, ferrors.Classify(err, ferrors.KindCancelled, kind)
	}

	if !sr.cfg.FetchImageBytes {
		s.transition(sr, StateDone)
		s.metrics.ObserveAttempt(kind, "url_only", time.Since(started))
		return domain.NewURLOnlyFavicon(*candidate), nil
	}

	s.transition(sr, StateFetching)
	favicon, err := s.fetcher.Fetch(ctx, *candidate)
	if err == nil && !favicon.HasImage() {
		err = ferrors.NewInvalidImage(candidate.URL.String(), errors.New("fetcher returned no decoded image"))
	}
	if err != nil {
		s.transition(sr, StateFetchFailed)
		failure := ferrors.Classify(err, ferrors.KindNetworkFailure, kind)
		if failure.URL == "" {
			failure.URL = candidate.URL.String()
		}
		s.metrics.ObserveAttempt(kind, string(failure.Kind), time.Since(started))
		return nil, failure
	}

	s.transition(sr, StateFetchSucceeded)
	s.transition(sr, StateDone)
	s.metrics.ObserveAttempt(kind, "found", time.Since(started))
	return favicon, nil
}

func (s *FinderService) locate(ctx context.Context, sr *search, kind domain.StrategyKind) (*domain.CandidateURL, error) {
	strategy, ok := s.strategies[kind]
	if !ok {
		return nil, ferrors.NewNotFound(kind, sr.site.String(), "no strategy registered", nil)
	}

	candidate, err := strategy.Locate(ctx, sr.site, sr.cfg.Hint(kind), sr.cfg.FollowMetaRefreshRedirect)
	if err != nil {
		return nil, err
	}
	if candidate == nil || candidate.URL == nil {
		return nil, ferrors.NewNotFound(kind, sr.site.String(), "strategy returned no candidate", nil)
	}

	located := *candidate
	located.Source = kind
	if located.Kind == "" {
		located.Kind = kind
	}
	return &located, nil
}

func (s *FinderService) cancel(sr *search, cause error) error {
	s.transition(sr, StateCancelled)
	s.logger.Debug("Favicon search cancelled", map[string]interface{}{
		"site":     sr.site.String(),
		"strategy": string(sr.current),
		"error":    cause.Error(),
	})
	return ferrors.NewCancelled(sr.site.String(), cause)
}

func (s *FinderService) transition(sr *search, next State) {
	if !sr.state.CanTransition(next) {
		s.logger.Warn("Unexpected favicon search transition", map[string]interface{}{
			"from": sr.state.String(),
			"to":   next.String(),
		})
	}
	sr.state = next
}

func validateSiteURL(siteURL *url.URL) error {
	if siteURL == nil || !siteURL.IsAbs() || siteURL.Host == "" {
		return &ferrors.ValidationError{Field: "url", Message: domain.ErrInvalidSiteURL.Error()}
	}
	if siteURL.Scheme != "http" && siteURL.Scheme != "https" {
		return &ferrors.ValidationError{Field: "url", Message: domain.ErrInvalidSiteURL.Error()}
	}
	return nil
}

type nopMetrics struct{}

func (nopMetrics) ObserveAttempt(domain.StrategyKind, string, time.Duration) {}
func (nopMetrics) ObserveSearch(string, time.Duration)                       {}
