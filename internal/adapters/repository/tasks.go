package repository

import (
	"context"

	"github.com/okian/eventops/internal/domain/task"
)

// MemoryTasks is the in-memory TaskRepository. Tasks keep insertion order.
type MemoryTasks struct {
	m *memory[task.Task, task.Update]
}

var _ TaskRepository = (*MemoryTasks)(nil)

// NewMemoryTasks constructs an empty task repository.
func NewMemoryTasks(opts ...Option) *MemoryTasks {
	return &MemoryTasks{m: newMemory("task",
		func(t task.Task) string { return t.ID },
		task.Task.Clone,
		cloneTaskUpdate,
		false, opts)}
}

func (r *MemoryTasks) Insert(ctx context.Context, t task.Task) error {
	return r.m.insert(ctx, t)
}

func (r *MemoryTasks) Get(ctx context.Context, id string) (task.Task, error) {
	return r.m.get(ctx, id)
}

func (r *MemoryTasks) Update(ctx context.Context, id string, fn func(*task.Task) error) (task.Task, error) {
	return r.m.update(ctx, id, fn)
}

func (r *MemoryTasks) Delete(ctx context.Context, id string) error {
	return r.m.delete(ctx, id)
}

func (r *MemoryTasks) List(ctx context.Context) ([]task.Task, error) {
	return r.m.list(ctx)
}

func (r *MemoryTasks) AppendUpdate(ctx context.Context, u task.Update) error {
	_, err := r.m.appendChild(ctx, u.TaskID, u, nil)
	return err
}

func (r *MemoryTasks) Updates(ctx context.Context, taskID string) ([]task.Update, error) {
	return r.m.listChildren(ctx, taskID)
}

func cloneTaskUpdate(u task.Update) task.Update {
	if u.ProgressPercentage != nil {
		p := *u.ProgressPercentage
		u.ProgressPercentage = &p
	}
	if u.Status != nil {
		s := *u.Status
		u.Status = &s
	}
	return u
}
