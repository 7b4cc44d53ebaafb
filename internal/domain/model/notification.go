// Package model contains values passed between the stores and the
// notification pipeline.
package model

import "time"

// Level is the severity of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// EntityKind names the collection a notification is about.
type EntityKind string

const (
	EntityTask  EntityKind = "task"
	EntityAlert EntityKind = "alert"
)

// Notification is a user-facing message emitted by a store operation.
type Notification struct {
	ID         string     `json:"id"`
	Level      Level      `json:"level"`
	Message    string     `json:"message"`
	EntityKind EntityKind `json:"entity_kind"`
	EntityID   string     `json:"entity_id,omitempty"`
	TS         time.Time  `json:"ts"`
}

// Failed reports whether the notification describes a failed operation.
func (n Notification) Failed() bool { return n.Level == LevelError }
