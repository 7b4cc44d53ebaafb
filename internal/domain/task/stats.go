package task

import (
	"time"

	"github.com/okian/eventops/internal/domain/tally"
)

// Filter selects tasks. Each non-empty dimension must match (AND); within a
// dimension any listed value matches.
type Filter struct {
	Priority   []Priority `json:"priority,omitempty"`
	Status     []Status   `json:"status,omitempty"`
	Category   []Category `json:"category,omitempty"`
	AssignedTo string     `json:"assigned_to,omitempty"`
}

// Matches reports whether t passes every dimension of f.
func (f Filter) Matches(t Task) bool {
	if !tally.Allows(f.Priority, t.Priority) {
		return false
	}
	if !tally.Allows(f.Status, t.Status) {
		return false
	}
	if !tally.Allows(f.Category, t.Category) {
		return false
	}
	if f.AssignedTo != "" && (t.AssignedTo == nil || *t.AssignedTo != f.AssignedTo) {
		return false
	}
	return true
}

// Apply returns the tasks matching f in their original order.
func (f Filter) Apply(tasks []Task) []Task {
	return tally.Select(tasks, f.Matches)
}

// Stats summarises a task collection.
type Stats struct {
	Total      int              `json:"total"`
	Completed  int              `json:"completed"`
	InProgress int              `json:"in_progress"`
	Overdue    int              `json:"overdue"`
	ByPriority map[Priority]int `json:"by_priority"`
	ByCategory map[Category]int `json:"by_category"`
	ByStatus   map[Status]int   `json:"by_status"`
}

// ComputeStats scans tasks once per figure; every priority, category and
// status appears in the breakdowns.
func ComputeStats(tasks []Task, now time.Time) Stats {
	return Stats{
		Total:      len(tasks),
		Completed:  tally.Count(tasks, func(t Task) bool { return t.Status == StatusCompleted }),
		InProgress: tally.Count(tasks, func(t Task) bool { return t.Status == StatusInProgress }),
		Overdue:    tally.Count(tasks, func(t Task) bool { return t.IsOverdue(now) }),
		ByPriority: tally.CountBy(tasks, Priorities, func(t Task) Priority { return t.Priority }),
		ByCategory: tally.CountBy(tasks, Categories, func(t Task) Category { return t.Category }),
		ByStatus:   tally.CountBy(tasks, Statuses, func(t Task) Status { return t.Status }),
	}
}
