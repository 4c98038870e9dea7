// ABOUTME: Prometheus implementation of the favicon search metrics interface
// ABOUTME: Records strategy attempts, search outcomes and API requests as counters and histograms

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"favicon-finder-api/core/domain"
)

const namespace = "favicon_finder"

// Prometheus records favicon telemetry into a prometheus registry
type Prometheus struct {
	attemptDuration *prometheus.HistogramVec
	attemptTotal    *prometheus.CounterVec
	searchDuration  *prometheus.HistogramVec
	searchTotal     *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

// NewPrometheus registers the collectors with reg. A nil reg uses the default registerer.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Prometheus{
		attemptDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "strategy_attempt_duration_seconds",
				Help:      "Time spent on one strategy attempt, including image download",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"strategy", "outcome"},
		),
		attemptTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "strategy_attempts_total",
				Help:      "Total number of strategy attempts",
			},
			[]string{"strategy", "outcome"},
		),
		searchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_duration_seconds",
				Help:      "Time spent on a complete favicon search",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		searchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "searches_total",
				Help:      "Total number of favicon searches by terminal state",
			},
			[]string{"outcome"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "API request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		requestTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of API requests",
			},
			[]string{"method", "route", "status"},
		),
	}
}

// ObserveAttempt records one strategy attempt
func (p *Prometheus) ObserveAttempt(strategy domain.StrategyKind, outcome string, duration time.Duration) {
	p.attemptDuration.WithLabelValues(strategy.String(), outcome).Observe(duration.Seconds())
	p.attemptTotal.WithLabelValues(strategy.String(), outcome).Inc()
}

// ObserveSearch records the terminal outcome of a search
func (p *Prometheus) ObserveSearch(outcome string, duration time.Duration) {
	p.searchDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	p.searchTotal.WithLabelValues(outcome).Inc()
}

// ObserveRequest records one API request
func (p *Prometheus) ObserveRequest(method, route string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	p.requestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	p.requestTotal.WithLabelValues(method, route, code).Inc()
}
