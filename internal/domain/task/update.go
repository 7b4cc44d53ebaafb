package task

import (
	"slices"
	"time"
)

// UpdateKind classifies an entry of a task's update log.
type UpdateKind string

const (
	UpdateProgress     UpdateKind = "progress"
	UpdateStatusChange UpdateKind = "status_change"
	UpdateComment      UpdateKind = "comment"
	UpdateAssignment   UpdateKind = "assignment"
)

// UpdateKinds lists every update kind.
var UpdateKinds = []UpdateKind{UpdateProgress, UpdateStatusChange, UpdateComment, UpdateAssignment}

// Valid reports whether k is a known update kind.
func (k UpdateKind) Valid() bool { return slices.Contains(UpdateKinds, k) }

// Update is an append-only note attached to a task.
type Update struct {
	ID                 string     `json:"id"`
	TaskID             string     `json:"task_id"`
	UserID             string     `json:"user_id"`
	Kind               UpdateKind `json:"update_type"`
	Content            string     `json:"content"`
	ProgressPercentage *int       `json:"progress_percentage,omitempty"`
	Status             *Status    `json:"status,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}
