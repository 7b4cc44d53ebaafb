// Package worker drains the notification queue and delivers each
// notification to every configured sink.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/eventops/internal/domain/model"
	"github.com/okian/eventops/pkg/logger"
	"github.com/okian/eventops/pkg/metrics"
)

const poolShutdownTimeout = 10 * time.Second

// Sink receives delivered notifications.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, n model.Notification) error
}

// Queue defines how workers receive notifications.
type Queue interface {
	Dequeue() <-chan model.Notification
	Len() int
}

// ClosableQueue is a Queue the pool can close on shutdown.
type ClosableQueue interface {
	Queue
	Close() error
}

// Worker delivers notifications until its queue is closed or ctx is done.
type Worker interface {
	Run(ctx context.Context)
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue  Queue
	sinks  []Sink
	name   string
	logger logger.Logger
}

// NewInMemoryWorker creates a worker delivering to sinks.
func NewInMemoryWorker(q Queue, sinks []Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue: q,
		sinks: sinks,
		name:  "worker",
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run delivers notifications until the queue channel closes or ctx is done.
func (w *InMemoryWorker) Run(ctx context.Context) {
	items := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-items:
			if !ok {
				return
			}
			metrics.UpdateQueueSize(w.queue.Len())
			if err := w.deliver(ctx, n); err != nil {
				w.logger.Error(ctx, "notification delivery failed",
					logger.String("notification_id", n.ID),
					logger.Error(err),
				)
			}
		}
	}
}

// deliver fans n out to every sink; one failing sink does not stop the rest.
func (w *InMemoryWorker) deliver(ctx context.Context, n model.Notification) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	var errs []error
	for _, s := range w.sinks {
		if err := s.Deliver(ctx, n); err != nil {
			metrics.RecordWorkerError()
			metrics.RecordErrorByComponent("worker", "sink_error")
			errs = append(errs, fmt.Errorf("sink %s: %w", s.Name(), err))
			continue
		}
		metrics.RecordNotificationDelivered(s.Name())
	}
	return errors.Join(errs...)
}

// Pool runs a fixed number of workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   ClosableQueue
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	logger  logger.Logger
}

// NewPool creates workerCount workers (at least one) sharing q. The pool and
// its workers log through named children of l; a nil l means the global logger.
func NewPool(workerCount int, q ClosableQueue, l logger.Logger, sinks ...Sink) *Pool {
	workerCount = max(1, workerCount)
	if l == nil {
		l = logger.Get()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  l.Named("worker-pool"),
	}
	for i := range workerCount {
		name := "worker-" + strconv.Itoa(i)
		p.workers[i] = NewInMemoryWorker(q, sinks, WithName(name), WithLogger(l.Named(name)))
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start launches every worker. Cancelling ctx stops them without draining.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for _, w := range p.workers {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			w.Run(ctx)
		}()
	}
}

// Shutdown closes the queue and waits for the workers to drain it. When
// ctx expires first the workers are cancelled and the context error returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	if err := p.queue.Close(); err != nil {
		p.logger.Warn(ctx, "closing notification queue", logger.Error(err))
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	select {
	case <-done:
		if p.cancel != nil {
			p.cancel()
		}
		return nil
	case <-shutdownCtx.Done():
		if p.cancel != nil {
			p.cancel()
		}
		p.logger.Warn(ctx, "worker pool shutdown timed out", logger.Int("pending", p.queue.Len()))
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
}
