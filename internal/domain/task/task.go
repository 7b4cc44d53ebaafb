// Package task models operational work items of an event: their closed
// enumerations, the progress/status invariant, filtering and statistics.
package task

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Sentinel validation errors.
var (
	ErrTitleRequired        = errors.New("title is required")
	ErrInvalidPriority      = errors.New("invalid priority")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrInvalidCategory      = errors.New("invalid category")
	ErrInvalidProgress      = errors.New("progress must be between 0 and 100")
	ErrInconsistentProgress = errors.New("only completed tasks may be at 100% progress")
	ErrInvalidUpdateKind    = errors.New("invalid update type")
	ErrAssigneeRequired     = errors.New("assignee is required")
)

// Priority expresses task urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists every priority, lowest first.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool { return slices.Contains(Priorities, p) }

// Status is the workflow state of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusCompleted  Status = "completed"
	StatusBlocked    Status = "blocked"
)

// Statuses lists every status.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusReview, StatusCompleted, StatusBlocked}

// Valid reports whether s is a known status.
func (s Status) Valid() bool { return slices.Contains(Statuses, s) }

// Category classifies the area a task belongs to.
type Category string

const (
	CategorySetup     Category = "setup"
	CategoryCatering  Category = "catering"
	CategoryLogistics Category = "logistics"
	CategoryTechnical Category = "technical"
	CategoryMarketing Category = "marketing"
	CategorySecurity  Category = "security"
	CategoryCleanup   Category = "cleanup"
	CategoryOther     Category = "other"
)

// Categories lists every category.
var Categories = []Category{
	CategorySetup, CategoryCatering, CategoryLogistics, CategoryTechnical,
	CategoryMarketing, CategorySecurity, CategoryCleanup, CategoryOther,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool { return slices.Contains(Categories, c) }

// Task is a unit of operational work assigned within an event.
type Task struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Priority           Priority   `json:"priority"`
	Status             Status     `json:"status"`
	Category           Category   `json:"category"`
	AssignedTo         *string    `json:"assigned_to,omitempty"`
	AssignedBy         string     `json:"assigned_by"`
	EventID            string     `json:"event_id"`
	DueDate            *time.Time `json:"due_date,omitempty"`
	EstimatedHours     *float64   `json:"estimated_hours,omitempty"`
	ActualHours        *float64   `json:"actual_hours,omitempty"`
	ProgressPercentage int        `json:"progress_percentage"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	t.AssignedTo = clonePtr(t.AssignedTo)
	t.DueDate = clonePtr(t.DueDate)
	t.EstimatedHours = clonePtr(t.EstimatedHours)
	t.ActualHours = clonePtr(t.ActualHours)
	t.CompletedAt = clonePtr(t.CompletedAt)
	return t
}

// IsOverdue reports whether the task has a due date before now and is not completed.
func (t Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != StatusCompleted
}

// Draft carries the caller-supplied fields of a new task.
type Draft struct {
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Priority       Priority   `json:"priority"`
	Status         Status     `json:"status"`
	Category       Category   `json:"category"`
	AssignedTo     *string    `json:"assigned_to,omitempty"`
	AssignedBy     string     `json:"assigned_by"`
	EventID        string     `json:"event_id"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	EstimatedHours *float64   `json:"estimated_hours,omitempty"`
	ActualHours    *float64   `json:"actual_hours,omitempty"`
}

// Validate checks the draft. Empty enum fields are allowed; New fills them.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrTitleRequired
	}
	if d.Priority != "" && !d.Priority.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, d.Priority)
	}
	if d.Status != "" && !d.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, d.Status)
	}
	if d.Status == StatusCompleted {
		return fmt.Errorf("%w: a new task starts at 0%%", ErrInconsistentProgress)
	}
	if d.Category != "" && !d.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, d.Category)
	}
	return nil
}

// New builds a task from a validated draft. Progress starts at 0; missing
// status, priority and category default to todo, medium and other.
func New(id string, d Draft, now time.Time) Task {
	t := Task{
		ID:             id,
		Title:          strings.TrimSpace(d.Title),
		Description:    d.Description,
		Priority:       d.Priority,
		Status:         d.Status,
		Category:       d.Category,
		AssignedTo:     clonePtr(d.AssignedTo),
		AssignedBy:     d.AssignedBy,
		EventID:        d.EventID,
		DueDate:        clonePtr(d.DueDate),
		EstimatedHours: clonePtr(d.EstimatedHours),
		ActualHours:    clonePtr(d.ActualHours),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if t.Category == "" {
		t.Category = CategoryOther
	}
	return t
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
