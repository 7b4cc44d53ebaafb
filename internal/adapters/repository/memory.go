package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/okian/eventops/pkg/metrics"
)

// memory is an ordered, mutex-guarded collection of entities keyed by id,
// each owning an append-only list of child records. Values are copied on
// the way in and out so callers never share state with the collection.
type memory[T, C any] struct {
	mu   sync.RWMutex
	opts options

	entity     string
	id         func(T) string
	clone      func(T) T
	cloneChild func(C) C
	prepend    bool

	order    []string
	byID     map[string]T
	children map[string][]C
}

func newMemory[T, C any](entity string, id func(T) string, clone func(T) T, cloneChild func(C) C, prepend bool, opts []Option) *memory[T, C] {
	m := &memory[T, C]{
		entity:     entity,
		id:         id,
		clone:      clone,
		cloneChild: cloneChild,
		prepend:    prepend,
		byID:       make(map[string]T),
		children:   make(map[string][]C),
	}
	for _, opt := range opts {
		opt(&m.opts)
	}
	return m
}

// enter applies simulated latency and returns the func that records the
// call's latency once it is done.
func (m *memory[T, C]) enter(ctx context.Context, op string) (func(), error) {
	start := time.Now()
	done := func() {
		metrics.RecordRepositoryLatency(m.entity, op, float64(time.Since(start).Microseconds())/1000)
	}
	if err := ctx.Err(); err != nil {
		done()
		return nil, err
	}
	if m.opts.latency > 0 {
		t := time.NewTimer(m.opts.latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			done()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	return done, nil
}

func (m *memory[T, C]) notFound(id string) error {
	metrics.RecordErrorByComponent("repository", "not_found")
	return fmt.Errorf("%s %q: %w", m.entity, id, ErrNotFound)
}

func (m *memory[T, C]) insert(ctx context.Context, v T) error {
	done, err := m.enter(ctx, "insert")
	if err != nil {
		return err
	}
	defer done()

	id := m.id(v)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; ok {
		metrics.RecordErrorByComponent("repository", "already_exists")
		return fmt.Errorf("%s %q: %w", m.entity, id, ErrAlreadyExists)
	}
	m.byID[id] = m.clone(v)
	if m.prepend {
		m.order = slices.Insert(m.order, 0, id)
	} else {
		m.order = append(m.order, id)
	}
	return nil
}

func (m *memory[T, C]) get(ctx context.Context, id string) (T, error) {
	var zero T
	done, err := m.enter(ctx, "get")
	if err != nil {
		return zero, err
	}
	defer done()

	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.byID[id]
	if !ok {
		return zero, m.notFound(id)
	}
	return m.clone(v), nil
}

func (m *memory[T, C]) update(ctx context.Context, id string, fn func(*T) error) (T, error) {
	var zero T
	done, err := m.enter(ctx, "update")
	if err != nil {
		return zero, err
	}
	defer done()

	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.byID[id]
	if !ok {
		return zero, m.notFound(id)
	}
	next := m.clone(v)
	if err := fn(&next); err != nil {
		return zero, err
	}
	m.byID[id] = next
	return m.clone(next), nil
}

func (m *memory[T, C]) delete(ctx context.Context, id string) error {
	done, err := m.enter(ctx, "delete")
	if err != nil {
		return err
	}
	defer done()

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return m.notFound(id)
	}
	delete(m.byID, id)
	delete(m.children, id)
	m.order = slices.DeleteFunc(m.order, func(s string) bool { return s == id })
	return nil
}

func (m *memory[T, C]) list(ctx context.Context) ([]T, error) {
	done, err := m.enter(ctx, "list")
	if err != nil {
		return nil, err
	}
	defer done()

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]T, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.clone(m.byID[id]))
	}
	return out, nil
}

// appendChild records c under parent. apply, when set, mutates the parent
// under the same lock and aborts the append on error.
func (m *memory[T, C]) appendChild(ctx context.Context, parent string, c C, apply func(*T) error) (T, error) {
	var zero T
	done, err := m.enter(ctx, "append_child")
	if err != nil {
		return zero, err
	}
	defer done()

	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.byID[parent]
	if !ok {
		return zero, m.notFound(parent)
	}
	if apply != nil {
		next := m.clone(v)
		if err := apply(&next); err != nil {
			return zero, err
		}
		m.byID[parent] = next
		v = next
	}
	m.children[parent] = append(m.children[parent], m.cloneChild(c))
	return m.clone(v), nil
}

func (m *memory[T, C]) listChildren(ctx context.Context, parent string) ([]C, error) {
	done, err := m.enter(ctx, "list_children")
	if err != nil {
		return nil, err
	}
	defer done()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.byID[parent]; !ok {
		return nil, m.notFound(parent)
	}
	src := m.children[parent]
	out := make([]C, 0, len(src))
	for _, c := range src {
		out = append(out, m.cloneChild(c))
	}
	return out, nil
}
