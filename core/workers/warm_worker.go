// ABOUTME: Warm worker runs favicon searches in the background to fill the result cache
// ABOUTME: Provides a managed worker pool with a bounded job queue and graceful shutdown

package workers

import (
	"context"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"favicon-finder-api/core/domain"
	"favicon-finder-api/core/interfaces"
)

// WarmJob is one site to search
type WarmJob struct {
	Site   *url.URL
	Config domain.SearchConfig
}

// WorkerConfig holds configuration for the warm worker
type WorkerConfig struct {
	MaxWorkers int
	QueueSize  int

	// JobTimeout bounds a single search
	JobTimeout time.Duration
}

// DefaultWorkerConfig returns the default worker configuration
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		MaxWorkers: 4,
		QueueSize:  100,
		JobTimeout: 30 * time.Second,
	}
}

// WarmStats counts finished jobs
type WarmStats struct {
	Found  int64
	Failed int64
}

// WarmWorker manages background cache warming
type WarmWorker struct {
	finder interfaces.FaviconFinder
	colors interfaces.FaviconColorService
	logger interfaces.Logger
	config WorkerConfig

	jobQueue chan WarmJob
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc

	mu      sync.RWMutex
	running bool
	stopped bool

	found  atomic.Int64
	failed atomic.Int64
}

// NewWarmWorker creates a warm worker. finder should be the caching finder so
// that results outlive the job. colors is optional and warms the color cache.
func NewWarmWorker(finder interfaces.FaviconFinder, colors interfaces.FaviconColorService, logger interfaces.Logger, config WorkerConfig) *WarmWorker {
	defaults := DefaultWorkerConfig()
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = defaults.MaxWorkers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = defaults.JobTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &WarmWorker{
		finder:   finder,
		colors:   colors,
		logger:   logger,
		config:   config,
		jobQueue: make(chan WarmJob, config.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts the worker pool. A stopped pool cannot be restarted.
func (w *WarmWorker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return ErrWorkerNotRunning
	}
	if w.running {
		return nil
	}

	for i := 0; i < w.config.MaxWorkers; i++ {
		w.wg.Add(1)
		go w.run(i)
	}

	w.running = true
	return nil
}

// Stop closes the queue and waits for queued jobs to finish. When ctx ends
// first, in-flight searches are cancelled and ctx's error is returned.
func (w *WarmWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.stopped = true
	close(w.jobQueue)
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.cancel()
		return nil
	case <-ctx.Done():
		w.cancel()
		<-done
		return ctx.Err()
	}
}

// Submit queues a job, waiting for room until ctx ends
func (w *WarmWorker) Submit(ctx context.Context, job WarmJob) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if !w.running {
		return ErrWorkerNotRunning
	}

	select {
	case w.jobQueue <- job:
		return nil
	case <-ctx.Done():
		return ErrQueueFull
	}
}

// SubmitSites queues a job per site and returns how many were queued.
// Sites that are not absolute http(s) URLs are logged and skipped.
func (w *WarmWorker) SubmitSites(ctx context.Context, sites []string, cfg domain.SearchConfig) (int, error) {
	queued := 0
	for _, raw := range sites {
		site, err := url.Parse(raw)
		if err != nil || !site.IsAbs() || (site.Scheme != "http" && site.Scheme != "https") {
			w.log().Warn("Skipping invalid warm site", map[string]interface{}{
				"site": raw,
			})
			continue
		}
		if err := w.Submit(ctx, WarmJob{Site: site, Config: cfg}); err != nil {
			return queued, err
		}
		queued++
	}
	return queued, nil
}

// Stats returns the number of jobs that found a favicon and that failed
func (w *WarmWorker) Stats() WarmStats {
	return WarmStats{Found: w.found.Load(), Failed: w.failed.Load()}
}

// run is the main loop for each worker
func (w *WarmWorker) run(id int) {
	defer w.wg.Done()

	for job := range w.jobQueue {
		w.processJob(id, job)
	}
}

// processJob runs a single search
func (w *WarmWorker) processJob(id int, job WarmJob) {
	ctx, cancel := context.WithTimeout(w.ctx, w.config.JobTimeout)
	defer cancel()

	started := time.Now()
	favicon, err := w.finder.Find(ctx, job.Site, job.Config)
	if err != nil {
		w.failed.Add(1)
		w.log().Warn("Cache warm search failed", map[string]interface{}{
			"worker": id,
			"site":   job.Site.String(),
			"error":  err.Error(),
		})
		return
	}

	w.found.Add(1)
	w.log().Debug("Cache warmed", map[string]interface{}{
		"worker":   id,
		"site":     job.Site.String(),
		"favicon":  favicon.URLString(),
		"duration": time.Since(started).String(),
	})

	if w.colors != nil && favicon.HasImage() {
		if _, err := w.colors.ExtractColor(ctx, favicon); err != nil {
			w.log().Debug("Color warm failed", map[string]interface{}{
				"site":  job.Site.String(),
				"error": err.Error(),
			})
		}
	}
}

func (w *WarmWorker) log() interfaces.Logger {
	if w.logger == nil {
		return interfaces.NopLogger{}
	}
	return w.logger
}

// Error definitions
var (
	ErrWorkerNotRunning = &WorkerError{Message: "worker pool is not running"}
	ErrQueueFull        = &WorkerError{Message: "job queue is full"}
)

// WorkerError represents a worker-specific error
type WorkerError struct {
	Message string
}

func (e *WorkerError) Error() string {
	return e.Message
}
