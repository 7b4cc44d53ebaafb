// Package repository defines the persistence boundary of the task and alert
// stores and ships an in-memory implementation.
package repository

import (
	"context"

	"github.com/okian/eventops/internal/domain/alert"
	"github.com/okian/eventops/internal/domain/task"
)

// TaskRepository stores tasks in insertion order, plus each task's update log.
type TaskRepository interface {
	// Insert adds t. Returns ErrAlreadyExists when t.ID is taken.
	Insert(ctx context.Context, t task.Task) error
	// Get returns ErrNotFound for an unknown id.
	Get(ctx context.Context, id string) (task.Task, error)
	// Update applies fn to the stored task atomically and returns the result.
	// If fn fails nothing is written and its error is returned as is.
	Update(ctx context.Context, id string, fn func(*task.Task) error) (task.Task, error)
	// Delete removes the task together with its update log.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]task.Task, error)

	AppendUpdate(ctx context.Context, u task.Update) error
	Updates(ctx context.Context, taskID string) ([]task.Update, error)
}

// AlertRepository stores alerts newest first, plus each alert's responses.
type AlertRepository interface {
	Insert(ctx context.Context, a alert.Alert) error
	Get(ctx context.Context, id string) (alert.Alert, error)
	Update(ctx context.Context, id string, fn func(*alert.Alert) error) (alert.Alert, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]alert.Alert, error)

	// AppendResponse records r under r.AlertID. When apply is non-nil it runs
	// against the parent alert first, and r is only recorded if apply succeeds.
	AppendResponse(ctx context.Context, r alert.Response, apply func(*alert.Alert) error) (alert.Alert, error)
	Responses(ctx context.Context, alertID string) ([]alert.Response, error)
}
