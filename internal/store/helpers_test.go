package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/eventops/internal/adapters/repository"
	"github.com/okian/eventops/internal/domain/alert"
	"github.com/okian/eventops/internal/domain/model"
	"github.com/okian/eventops/internal/domain/task"
	"github.com/okian/eventops/internal/store"
)

var errBackend = errors.New("backend unavailable")

// clock is a manually advanced time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 7, 4, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// sequence yields id-1, id-2, ...
func sequence() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// recorder captures published notifications.
type recorder struct {
	mu    sync.Mutex
	notes []model.Notification
}

func (r *recorder) Publish(_ context.Context, n model.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recorder) levels() []model.Level {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Level, 0, len(r.notes))
	for _, n := range r.notes {
		out = append(out, n.Level)
	}
	return out
}

func (r *recorder) last() model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.notes[len(r.notes)-1]
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = nil
}

// failingTasks wraps a real repository and fails the named methods.
type failingTasks struct {
	repository.TaskRepository
	failOn map[string]bool
}

func (f *failingTasks) check(method string) error {
	if f.failOn[method] {
		return errBackend
	}
	return nil
}

func (f *failingTasks) Insert(ctx context.Context, t task.Task) error {
	if err := f.check("Insert"); err != nil {
		return err
	}
	return f.TaskRepository.Insert(ctx, t)
}

func (f *failingTasks) Update(ctx context.Context, id string, fn func(*task.Task) error) (task.Task, error) {
	if err := f.check("Update"); err != nil {
		return task.Task{}, err
	}
	return f.TaskRepository.Update(ctx, id, fn)
}

func (f *failingTasks) List(ctx context.Context) ([]task.Task, error) {
	if err := f.check("List"); err != nil {
		return nil, err
	}
	return f.TaskRepository.List(ctx)
}

func (f *failingTasks) AppendUpdate(ctx context.Context, u task.Update) error {
	if err := f.check("AppendUpdate"); err != nil {
		return err
	}
	return f.TaskRepository.AppendUpdate(ctx, u)
}

// failingAlerts wraps a real repository and fails the named methods.
type failingAlerts struct {
	repository.AlertRepository
	failOn map[string]bool
}

func (f *failingAlerts) Insert(ctx context.Context, a alert.Alert) error {
	if f.failOn["Insert"] {
		return errBackend
	}
	return f.AlertRepository.Insert(ctx, a)
}

func (f *failingAlerts) AppendResponse(ctx context.Context, r alert.Response, apply func(*alert.Alert) error) (alert.Alert, error) {
	if f.failOn["AppendResponse"] {
		return alert.Alert{}, errBackend
	}
	return f.AlertRepository.AppendResponse(ctx, r, apply)
}

type fixture struct {
	clock  *clock
	notes  *recorder
	tasks  *store.TaskStore
	alerts *store.AlertStore
}

func newFixture(extra ...store.Option) fixture {
	c := newClock()
	rec := &recorder{}
	opts := append([]store.Option{
		store.WithClock(c.Now),
		store.WithIDGenerator(sequence()),
		store.WithPublisher(rec),
	}, extra...)
	return fixture{
		clock:  c,
		notes:  rec,
		tasks:  store.NewTaskStore(repository.NewMemoryTasks(), opts...),
		alerts: store.NewAlertStore(repository.NewMemoryAlerts(), opts...),
	}
}

func ptr[T any](v T) *T { return &v }
