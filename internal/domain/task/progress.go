package task

import (
	"fmt"
	"time"
)

// ClampProgress bounds progress to [0,100].
func ClampProgress(progress int) int {
	return min(100, max(0, progress))
}

// DeriveStatus maps a progress value to the status it implies:
// 100 is completed, anything above 0 is in progress, 0 is todo.
func DeriveStatus(progress int) Status {
	switch {
	case progress >= 100:
		return StatusCompleted
	case progress > 0:
		return StatusInProgress
	default:
		return StatusTodo
	}
}

// SetProgress clamps progress, derives the status from it and sets or clears
// CompletedAt. It returns the stored progress value.
func SetProgress(t *Task, progress int, now time.Time) int {
	progress = ClampProgress(progress)
	t.ProgressPercentage = progress
	t.Status = DeriveStatus(progress)
	if t.Status == StatusCompleted {
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
	t.UpdatedAt = now
	return progress
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title              *string    `json:"title,omitempty"`
	Description        *string    `json:"description,omitempty"`
	Priority           *Priority  `json:"priority,omitempty"`
	Status             *Status    `json:"status,omitempty"`
	Category           *Category  `json:"category,omitempty"`
	AssignedTo         *string    `json:"assigned_to,omitempty"`
	ClearAssignedTo    bool       `json:"clear_assigned_to,omitempty"`
	DueDate            *time.Time `json:"due_date,omitempty"`
	EstimatedHours     *float64   `json:"estimated_hours,omitempty"`
	ActualHours        *float64   `json:"actual_hours,omitempty"`
	ProgressPercentage *int       `json:"progress_percentage,omitempty"`
}

// Validate checks enum and range values carried by the patch.
func (p Patch) Validate() error {
	if p.Title != nil && *p.Title == "" {
		return ErrTitleRequired
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, *p.Priority)
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, *p.Status)
	}
	if p.Category != nil && !p.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, *p.Category)
	}
	if p.ProgressPercentage != nil && (*p.ProgressPercentage < 0 || *p.ProgressPercentage > 100) {
		return fmt.Errorf("%w: %d", ErrInvalidProgress, *p.ProgressPercentage)
	}
	return nil
}

// Apply merges p into t and refreshes UpdatedAt, keeping
// status == completed <=> progress == 100 <=> CompletedAt set.
//
// A progress change without a status derives the status from progress. A
// status of completed forces progress to 100. Any other status paired with
// 100% progress is rejected with ErrInconsistentProgress. t is only modified
// when Apply succeeds.
func (p Patch) Apply(t *Task, now time.Time) error {
	if err := p.Validate(); err != nil {
		return err
	}
	next := t.Clone()
	if p.Title != nil {
		next.Title = *p.Title
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.Priority != nil {
		next.Priority = *p.Priority
	}
	if p.Category != nil {
		next.Category = *p.Category
	}
	if p.ClearAssignedTo {
		next.AssignedTo = nil
	} else if p.AssignedTo != nil {
		next.AssignedTo = clonePtr(p.AssignedTo)
	}
	if p.DueDate != nil {
		next.DueDate = clonePtr(p.DueDate)
	}
	if p.EstimatedHours != nil {
		next.EstimatedHours = clonePtr(p.EstimatedHours)
	}
	if p.ActualHours != nil {
		next.ActualHours = clonePtr(p.ActualHours)
	}

	switch {
	case p.Status == nil && p.ProgressPercentage != nil:
		SetProgress(&next, *p.ProgressPercentage, now)
	default:
		if p.Status != nil {
			next.Status = *p.Status
		}
		if p.ProgressPercentage != nil {
			next.ProgressPercentage = *p.ProgressPercentage
		}
		if err := reconcile(&next, now); err != nil {
			return err
		}
	}

	next.UpdatedAt = now
	*t = next
	return nil
}

func reconcile(t *Task, now time.Time) error {
	if t.Status == StatusCompleted {
		t.ProgressPercentage = 100
		if t.CompletedAt == nil {
			t.CompletedAt = &now
		}
		return nil
	}
	if t.ProgressPercentage >= 100 {
		return fmt.Errorf("%w: status %s", ErrInconsistentProgress, t.Status)
	}
	t.CompletedAt = nil
	return nil
}
