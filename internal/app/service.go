// Package service wires the task and SOS-alert stores to their repositories,
// the notification pipeline and the idempotency cache, and exposes them to
// the HTTP API and the CLI.
package service

import (
	"context"
	"sync"
	"time"

	eventqueue "github.com/okian/eventops/internal/adapters/mq/queue"
	workerpool "github.com/okian/eventops/internal/adapters/mq/worker"
	"github.com/okian/eventops/internal/adapters/notify"
	"github.com/okian/eventops/internal/adapters/repository"
	"github.com/okian/eventops/internal/domain/dedupe"
	"github.com/okian/eventops/internal/domain/model"
	"github.com/okian/eventops/internal/store"
	"github.com/okian/eventops/pkg/logger"
	"github.com/okian/eventops/pkg/metrics"
)

// Service owns every long-lived component of the process.
type Service struct {
	mu sync.RWMutex

	// Core components
	tasks   *store.TaskStore
	alerts  *store.AlertStore
	deduper dedupe.Deduper
	queue   *eventqueue.InMemoryQueue
	pool    *workerpool.Pool
	feed    *notify.Feed

	// Configuration
	workerCount    int
	queueSize      int
	dedupeSize     int
	feedSize       int
	latency        time.Duration
	seed           bool
	defaultEventID string
	sinks          []workerpool.Sink
	storeOpts      []store.Option

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of notification workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the notification queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many idempotency keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithFeedSize sets how many delivered notifications GET /notifications keeps.
func WithFeedSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.feedSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRepositoryLatency delays every repository call by d.
func WithRepositoryLatency(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.latency = d
		}
	}
}

// WithSeedData makes bulk fetches load the demo dataset.
func WithSeedData(enabled bool) Option {
	return func(s *Service) {
		s.seed = enabled
	}
}

// WithDefaultEventID sets the event used when a fetch names none.
func WithDefaultEventID(id string) Option {
	return func(s *Service) {
		if id != "" {
			s.defaultEventID = id
		}
	}
}

// WithSinks adds notification sinks next to the log sink and the feed.
func WithSinks(sinks ...workerpool.Sink) Option {
	return func(s *Service) {
		s.sinks = append(s.sinks, sinks...)
	}
}

// WithStoreOptions passes extra options to both stores, e.g. a clock.
func WithStoreOptions(opts ...store.Option) Option {
	return func(s *Service) {
		s.storeOpts = append(s.storeOpts, opts...)
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    2,
		queueSize:      1_024,
		dedupeSize:     10_000,
		feedSize:       200,
		defaultEventID: store.DefaultEventID,
		logger:         nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the repositories, stores and notification pipeline and
// launches the workers. Calling it twice is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting eventops service...")

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
	)
	s.feed = notify.NewFeed(s.feedSize)

	sinks := append([]workerpool.Sink{
		notify.NewLogSink(s.logger.Named("notifications")),
		s.feed,
	}, s.sinks...)
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.logger, sinks...)
	// Workers outlive the start context; Stop drains them.
	s.pool.Start(context.WithoutCancel(ctx))

	storeOpts := append([]store.Option{
		store.WithPublisher(notify.NewQueuePublisher(s.queue, s.logger)),
		store.WithLogger(s.logger),
		store.WithSeedData(s.seed),
		store.WithDefaultEventID(s.defaultEventID),
	}, s.storeOpts...)
	s.tasks = store.NewTaskStore(
		repository.NewMemoryTasks(repository.WithLatency(s.latency)),
		storeOpts...,
	)
	s.alerts = store.NewAlertStore(
		repository.NewMemoryAlerts(repository.WithLatency(s.latency)),
		storeOpts...,
	)

	s.started = true
	s.logger.Info(ctx, "eventops service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Bool("seed", s.seed),
		logger.Duration("latency", s.latency),
	)

	return nil
}

// Stop closes the notification queue and waits for the workers to deliver
// what is left.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping eventops service...")

	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "notification workers did not drain", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "eventops service stopped")
}

// Tasks returns the task store, or nil before Start.
func (s *Service) Tasks() *store.TaskStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks
}

// Alerts returns the alert store, or nil before Start.
func (s *Service) Alerts() *store.AlertStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alerts
}

// Notifications returns up to limit delivered notifications, newest first.
func (s *Service) Notifications(limit int) []model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.feed == nil {
		return []model.Notification{}
	}
	return s.feed.Recent(limit)
}

// SeenAndRecord atomically checks if an idempotency key was seen and records
// it if not. Returns true if the key was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, key string) bool {
	if s.deduper == nil {
		return false
	}
	seen := s.deduper.SeenAndRecord(ctx, key)
	if seen {
		metrics.RecordIdempotencyDuplicate()
	}
	return seen
}

// Unrecord forgets key so the request can be retried.
func (s *Service) Unrecord(ctx context.Context, key string) {
	if s.deduper == nil {
		return
	}
	s.deduper.Unrecord(ctx, key)
}

// GetStats returns service statistics for monitoring and refreshes the
// related gauges.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if !s.started {
		return stats
	}

	queueLen := s.queue.Len()
	stats["queueLength"] = queueLen
	stats["notifications"] = s.feed.Len()
	stats["idempotencyKeys"] = s.deduper.Size()
	metrics.UpdateQueueSize(queueLen)
	metrics.UpdateWorkerCount(s.pool.Size())

	if ts, err := s.tasks.Stats(ctx); err != nil {
		s.logger.Warn(ctx, "task stats unavailable", logger.Error(err))
	} else {
		stats["tasks"] = ts
	}
	if as, err := s.alerts.Stats(ctx); err != nil {
		s.logger.Warn(ctx, "alert stats unavailable", logger.Error(err))
	} else {
		stats["alerts"] = as
	}

	return stats
}

// Size returns the current number of remembered idempotency keys.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}
