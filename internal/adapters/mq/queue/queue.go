// Package queue buffers notifications between the stores that emit them and
// the workers that deliver them.
package queue

import (
	"context"
	"sync"

	"github.com/okian/eventops/internal/domain/model"
	"github.com/okian/eventops/pkg/metrics"
)

const defaultQueueCapacity = 1_024

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds n to the queue. It never blocks: false means the queue
	// was full, closed, or ctx was already done, and n was dropped.
	Enqueue(ctx context.Context, n model.Notification) bool
	// Dequeue returns the channel consumers read from. It is closed, after
	// the buffered notifications have drained, once Close is called.
	Dequeue() <-chan model.Notification
	Len() int
	Cap() int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue with a buffered channel.
type InMemoryQueue struct {
	items    chan model.Notification
	capacity int

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a queue with the configured capacity.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan model.Notification, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

func (q *InMemoryQueue) Enqueue(ctx context.Context, n model.Notification) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}
	if ctx.Err() != nil {
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	}
	select {
	case q.items <- n:
		metrics.UpdateQueueSize(len(q.items))
		return true
	default:
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

func (q *InMemoryQueue) Dequeue() <-chan model.Notification {
	return q.items
}

func (q *InMemoryQueue) Len() int { return len(q.items) }

func (q *InMemoryQueue) Cap() int { return q.capacity }

// Close stops accepting notifications. Buffered ones stay readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	close(q.items)
	q.closed = true
	return nil
}

func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
