package store

import (
	"context"
	"errors"
	"sync"

	"github.com/okian/eventops/internal/adapters/repository"
)

// seeder loads the demo dataset of an event at most once, and only into an
// event that holds nothing yet. Existing entities are never touched.
type seeder struct {
	mu   sync.Mutex
	done map[string]bool
}

func (s *seeder) once(eventID string, load func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done[eventID] {
		return nil
	}
	if err := load(); err != nil {
		return err
	}
	if s.done == nil {
		s.done = make(map[string]bool)
	}
	s.done[eventID] = true
	return nil
}

// insertSeed inserts v, falling back to an event-scoped id when the demo id
// is already taken by another event's data.
func insertSeed[T any](ctx context.Context, insert func(context.Context, T) error, v T, scoped func(T) T) error {
	err := insert(ctx, v)
	if errors.Is(err, repository.ErrAlreadyExists) {
		err = insert(ctx, scoped(v))
	}
	return err
}
