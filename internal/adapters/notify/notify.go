// Package notify turns store outcomes into user-facing notifications: a
// publisher feeding the queue, and the sinks the workers deliver to.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/eventops/internal/domain/model"
	"github.com/okian/eventops/pkg/logger"
	"github.com/okian/eventops/pkg/metrics"
)

// Enqueuer is the producer side of the notification queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, n model.Notification) bool
}

// QueuePublisher stamps notifications and hands them to the queue without
// blocking. A full queue drops the notification.
type QueuePublisher struct {
	q      Enqueuer
	now    func() time.Time
	logger logger.Logger
}

// NewQueuePublisher returns a publisher writing to q and logging drops
// through l. A nil l means the global logger.
func NewQueuePublisher(q Enqueuer, l logger.Logger) *QueuePublisher {
	if l == nil {
		l = logger.Get()
	}
	return &QueuePublisher{q: q, now: time.Now, logger: l.Named("notify")}
}

// Publish fills in ID and TS when empty and enqueues n.
func (p *QueuePublisher) Publish(ctx context.Context, n model.Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.TS.IsZero() {
		n.TS = p.now()
	}
	metrics.RecordNotificationPublished(string(n.Level))
	if !p.q.Enqueue(ctx, n) {
		metrics.RecordNotificationDropped()
		p.logger.Warn(ctx, "notification dropped",
			logger.String("notification_level", string(n.Level)),
			logger.String("entity_kind", string(n.EntityKind)),
			logger.String("entity_id", n.EntityID),
		)
	}
}

// LogSink writes notifications as structured log lines.
type LogSink struct {
	logger logger.Logger
}

// NewLogSink returns a sink logging through l.
func NewLogSink(l logger.Logger) *LogSink {
	return &LogSink{logger: l}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(ctx context.Context, n model.Notification) error {
	fields := []logger.Field{
		logger.String("id", n.ID),
		logger.String("notification_level", string(n.Level)),
		logger.String("entity_kind", string(n.EntityKind)),
		logger.String("entity_id", n.EntityID),
		logger.Time("ts", n.TS),
	}
	if n.Failed() {
		s.logger.Warn(ctx, n.Message, fields...)
		return nil
	}
	s.logger.Info(ctx, n.Message, fields...)
	return nil
}

// Feed is a bounded ring of the most recent notifications.
type Feed struct {
	mu    sync.RWMutex
	items []model.Notification
	next  int
	full  bool
}

// NewFeed keeps the last size notifications (at least one).
func NewFeed(size int) *Feed {
	return &Feed{items: make([]model.Notification, max(1, size))}
}

func (f *Feed) Name() string { return "feed" }

func (f *Feed) Deliver(_ context.Context, n model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[f.next] = n
	f.next = (f.next + 1) % len(f.items)
	if f.next == 0 {
		f.full = true
	}
	return nil
}

// Len returns the number of notifications held.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.full {
		return len(f.items)
	}
	return f.next
}

// Recent returns up to limit notifications, newest first. limit <= 0
// returns everything held.
func (f *Feed) Recent(limit int) []model.Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()

	n := f.next
	if f.full {
		n = len(f.items)
	}
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]model.Notification, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (f.next - i + len(f.items)) % len(f.items)
		out = append(out, f.items[idx])
	}
	return out
}
