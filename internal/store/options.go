package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/okian/eventops/internal/domain/model"
	"github.com/okian/eventops/pkg/logger"
)

// DefaultEventID scopes Fetch when the caller passes no event.
const DefaultEventID = "event-1"

// Publisher receives the notifications stores emit. Publish must not block.
type Publisher interface {
	Publish(ctx context.Context, n model.Notification)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, model.Notification) {}

type options struct {
	now            func() time.Time
	newID          func() string
	publisher      Publisher
	logger         logger.Logger
	seed           bool
	defaultEventID string
}

func defaults() options {
	return options{
		now:            time.Now,
		newID:          uuid.NewString,
		publisher:      nopPublisher{},
		defaultEventID: DefaultEventID,
	}
}

// Option configures a TaskStore or AlertStore.
type Option func(*options)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator overrides uuid-based id generation.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) {
		if newID != nil {
			o.newID = newID
		}
	}
}

// WithPublisher sets where notifications go. The default drops them.
func WithPublisher(p Publisher) Option {
	return func(o *options) {
		if p != nil {
			o.publisher = p
		}
	}
}

// WithLogger sets the store logger. Defaults to logger.Nop.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSeedData makes the first Fetch of an empty event load the demo dataset.
func WithSeedData(enabled bool) Option {
	return func(o *options) { o.seed = enabled }
}

// WithDefaultEventID sets the event Fetch uses when given none.
func WithDefaultEventID(id string) Option {
	return func(o *options) {
		if id != "" {
			o.defaultEventID = id
		}
	}
}

func build(opts []Option) options {
	o := defaults()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Nop()
	}
	return o
}

func (o options) eventID(id string) string {
	if id == "" {
		return o.defaultEventID
	}
	return id
}
