// Package store holds the task and SOS-alert stores: the operations the
// HTTP layer and the CLI call, on top of the repositories.
package store

import (
	"context"
	"fmt"

	"github.com/okian/eventops/internal/adapters/repository"
	"github.com/okian/eventops/internal/domain/model"
	"github.com/okian/eventops/internal/domain/tally"
	"github.com/okian/eventops/internal/domain/task"
	"github.com/okian/eventops/internal/seed"
	"github.com/okian/eventops/pkg/logger"
	"github.com/okian/eventops/pkg/metrics"
)

// TaskStore owns the task collection of the running application.
type TaskStore struct {
	repo   repository.TaskRepository
	opts   options
	seeded seeder
}

// NewTaskStore builds a task store over repo.
func NewTaskStore(repo repository.TaskRepository, opts ...Option) *TaskStore {
	o := build(opts)
	o.logger = o.logger.Named("task-store")
	return &TaskStore{repo: repo, opts: o}
}

// Create validates d and stores a new task with a fresh id and 0% progress.
func (s *TaskStore) Create(ctx context.Context, d task.Draft) (task.Task, error) {
	const op = "create"
	if err := d.Validate(); err != nil {
		return task.Task{}, s.fail(ctx, op, "", "Failed to create task", classify("create task", err))
	}
	t := task.New(s.opts.newID(), d, s.opts.now())
	if err := s.repo.Insert(ctx, t); err != nil {
		return task.Task{}, s.fail(ctx, op, t.ID, "Failed to create task", fmt.Errorf("create task: %w", err))
	}
	s.succeed(ctx, op, t.ID, "Task created successfully!")
	return t, nil
}

func (s *TaskStore) Get(ctx context.Context, id string) (task.Task, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return task.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// List returns every task in insertion order.
func (s *TaskStore) List(ctx context.Context) ([]task.Task, error) {
	ts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return ts, nil
}

// Update merges p into the task. An unknown id yields repository.ErrNotFound
// and leaves the collection unchanged. A status change is logged.
func (s *TaskStore) Update(ctx context.Context, id string, p task.Patch) (task.Task, error) {
	return s.update(ctx, "update", id, p, "Task updated successfully!")
}

func (s *TaskStore) update(ctx context.Context, op, id string, p task.Patch, okMsg string) (task.Task, error) {
	var before task.Status
	t, err := s.repo.Update(ctx, id, func(t *task.Task) error {
		before = t.Status
		if err := p.Apply(t, s.opts.now()); err != nil {
			return classify(op+" task", err)
		}
		return nil
	})
	if err != nil {
		return task.Task{}, s.fail(ctx, op, id, "Failed to "+op+" task", wrapOp(op+" task", err))
	}
	if t.Status != before {
		s.record(ctx, task.Update{
			TaskID:  id,
			UserID:  ActorFrom(ctx),
			Kind:    task.UpdateStatusChange,
			Content: fmt.Sprintf("Status changed from %s to %s", before, t.Status),
			Status:  &t.Status,
		})
	}
	s.succeed(ctx, op, id, okMsg)
	return t, nil
}

// Delete removes the task and its update log.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	const op = "delete"
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.fail(ctx, op, id, "Failed to delete task", fmt.Errorf("delete task: %w", err))
	}
	s.succeed(ctx, op, id, "Task deleted successfully!")
	return nil
}

// Fetch returns the tasks of eventID. With seed data enabled, the first
// fetch of an event that has no tasks loads the demo tasks for it.
func (s *TaskStore) Fetch(ctx context.Context, eventID string) ([]task.Task, error) {
	eventID = s.opts.eventID(eventID)
	if s.opts.seed {
		if err := s.seeded.once(eventID, func() error { return s.seed(ctx, eventID) }); err != nil {
			return nil, s.fail(ctx, "fetch", "", "Failed to fetch tasks", fmt.Errorf("seed tasks: %w", err))
		}
	}
	ts, err := s.List(ctx)
	if err != nil {
		return nil, s.fail(ctx, "fetch", "", "Failed to fetch tasks", err)
	}
	return tally.Select(ts, func(t task.Task) bool { return t.EventID == eventID }), nil
}

func (s *TaskStore) seed(ctx context.Context, eventID string) error {
	ts, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	if tally.Count(ts, func(t task.Task) bool { return t.EventID == eventID }) > 0 {
		return nil
	}
	scoped := func(t task.Task) task.Task {
		t.ID = eventID + "-" + t.ID
		return t
	}
	for _, t := range seed.Tasks(eventID, s.opts.now()) {
		if err := insertSeed(ctx, s.repo.Insert, t, scoped); err != nil {
			return err
		}
	}
	return nil
}

// MyTasks returns the tasks assigned to userID.
func (s *TaskStore) MyTasks(ctx context.Context, userID string) ([]task.Task, error) {
	return s.Filter(ctx, task.Filter{AssignedTo: userID})
}

// UpdateProgress clamps progress to [0,100] and derives the status from it.
// A non-empty comment is logged as a progress update.
func (s *TaskStore) UpdateProgress(ctx context.Context, id string, progress int, comment string) (task.Task, error) {
	const op = "progress"
	t, err := s.repo.Update(ctx, id, func(t *task.Task) error {
		task.SetProgress(t, progress, s.opts.now())
		return nil
	})
	if err != nil {
		return task.Task{}, s.fail(ctx, op, id, "Failed to update progress", fmt.Errorf("update progress: %w", err))
	}
	if comment != "" {
		s.record(ctx, task.Update{
			TaskID:             id,
			UserID:             ActorFrom(ctx),
			Kind:               task.UpdateProgress,
			Content:            comment,
			ProgressPercentage: &t.ProgressPercentage,
			Status:             &t.Status,
		})
	}
	if t.Status == task.StatusCompleted {
		metrics.RecordTaskOperation("complete", "success")
	}
	s.succeed(ctx, op, id, fmt.Sprintf("Progress updated to %d%%", t.ProgressPercentage))
	return t, nil
}

// AddUpdate appends an entry to the task's log. An empty kind means comment.
func (s *TaskStore) AddUpdate(ctx context.Context, taskID, userID, content string, kind task.UpdateKind) (task.Update, error) {
	const op = "add_update"
	if kind == "" {
		kind = task.UpdateComment
	}
	if !kind.Valid() {
		return task.Update{}, s.fail(ctx, op, taskID, "Failed to add update",
			classify("add task update", fmt.Errorf("%w: %q", task.ErrInvalidUpdateKind, kind)))
	}
	if userID == "" {
		userID = ActorFrom(ctx)
	}
	u := task.Update{
		ID:        s.opts.newID(),
		TaskID:    taskID,
		UserID:    userID,
		Kind:      kind,
		Content:   content,
		CreatedAt: s.opts.now(),
	}
	if err := s.repo.AppendUpdate(ctx, u); err != nil {
		return task.Update{}, s.fail(ctx, op, taskID, "Failed to add update", fmt.Errorf("add task update: %w", err))
	}
	metrics.RecordTaskOperation(op, "success")
	return u, nil
}

// Updates returns the task's log in append order.
func (s *TaskStore) Updates(ctx context.Context, taskID string) ([]task.Update, error) {
	us, err := s.repo.Updates(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("list task updates: %w", err)
	}
	return us, nil
}

// Assign sets the assignee and logs an assignment update.
func (s *TaskStore) Assign(ctx context.Context, id, userID string) (task.Task, error) {
	if userID == "" {
		return task.Task{}, s.fail(ctx, "assign", id, "Failed to assign task", classify("assign task", task.ErrAssigneeRequired))
	}
	t, err := s.update(ctx, "assign", id, task.Patch{AssignedTo: &userID}, "Task assigned successfully!")
	if err != nil {
		return task.Task{}, err
	}
	s.record(ctx, task.Update{TaskID: id, UserID: ActorFrom(ctx), Kind: task.UpdateAssignment, Content: "Assigned to " + userID})
	return t, nil
}

// Unassign clears the assignee and logs an assignment update.
func (s *TaskStore) Unassign(ctx context.Context, id string) (task.Task, error) {
	t, err := s.update(ctx, "unassign", id, task.Patch{ClearAssignedTo: true}, "Task unassigned successfully!")
	if err != nil {
		return task.Task{}, err
	}
	s.record(ctx, task.Update{TaskID: id, UserID: ActorFrom(ctx), Kind: task.UpdateAssignment, Content: "Unassigned"})
	return t, nil
}

// Filter returns the tasks matching f in insertion order.
func (s *TaskStore) Filter(ctx context.Context, f task.Filter) ([]task.Task, error) {
	ts, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return f.Apply(ts), nil
}

// Stats summarises the whole collection and refreshes the task gauges.
func (s *TaskStore) Stats(ctx context.Context) (task.Stats, error) {
	ts, err := s.List(ctx)
	if err != nil {
		return task.Stats{}, err
	}
	st := task.ComputeStats(ts, s.opts.now())

	byStatus := make(map[string]int, len(st.ByStatus))
	for k, v := range st.ByStatus {
		byStatus[string(k)] = v
	}
	metrics.UpdateTasksByStatus(byStatus)
	metrics.UpdateTasksOverdue(st.Overdue)
	return st, nil
}

// record appends a system-generated log entry. A failure is logged only:
// the mutation it describes has already been stored.
func (s *TaskStore) record(ctx context.Context, u task.Update) {
	u.ID = s.opts.newID()
	u.CreatedAt = s.opts.now()
	if err := s.repo.AppendUpdate(ctx, u); err != nil {
		s.opts.logger.Warn(ctx, "task update not recorded",
			logger.String("task_id", u.TaskID),
			logger.String("update_type", string(u.Kind)),
			logger.Error(err),
		)
	}
}

func (s *TaskStore) succeed(ctx context.Context, op, id, msg string) {
	metrics.RecordTaskOperation(op, "success")
	s.opts.logger.Debug(ctx, "task operation succeeded", logger.String("op", op), logger.String("task_id", id))
	s.opts.publisher.Publish(ctx, s.note(model.LevelSuccess, msg, id))
}

func (s *TaskStore) fail(ctx context.Context, op, id, msg string, err error) error {
	metrics.RecordTaskOperation(op, "error")
	metrics.RecordErrorByComponent("task_store", op)
	s.opts.logger.Error(ctx, "task operation failed",
		logger.String("op", op),
		logger.String("task_id", id),
		logger.Error(err),
	)
	s.opts.publisher.Publish(ctx, s.note(model.LevelError, msg, id))
	return err
}

func (s *TaskStore) note(level model.Level, msg, id string) model.Notification {
	return model.Notification{Level: level, Message: msg, EntityKind: model.EntityTask, EntityID: id, TS: s.opts.now()}
}
