// Package seed holds the demo dataset the stores load on Fetch when mock
// data is enabled.
package seed

import (
	"time"

	"github.com/okian/eventops/internal/domain/alert"
	"github.com/okian/eventops/internal/domain/task"
)

// Tasks returns the demo tasks for eventID, with times relative to now.
func Tasks(eventID string, now time.Time) []task.Task {
	stage := task.Task{
		ID:                 "1",
		Title:              "Setup Stage Equipment",
		Description:        "Install and test all audio/visual equipment on the main stage",
		Priority:           task.PriorityHigh,
		Status:             task.StatusInProgress,
		Category:           task.CategoryTechnical,
		AssignedTo:         ptr("user-1"),
		AssignedBy:         "organizer-1",
		EventID:            eventID,
		DueDate:            ptr(now.Add(48 * time.Hour)),
		EstimatedHours:     ptr(8.0),
		ActualHours:        ptr(3.0),
		ProgressPercentage: 40,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	catering := task.Task{
		ID:                 "2",
		Title:              "Prepare Catering Setup",
		Description:        "Arrange tables and prepare food stations",
		Priority:           task.PriorityMedium,
		Status:             task.StatusTodo,
		Category:           task.CategoryCatering,
		AssignedBy:         "organizer-1",
		EventID:            eventID,
		DueDate:            ptr(now.Add(24 * time.Hour)),
		EstimatedHours:     ptr(4.0),
		ProgressPercentage: 0,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	return []task.Task{stage, catering}
}

// Alerts returns the demo alerts for eventID, newest first.
func Alerts(eventID string, now time.Time) []alert.Alert {
	sound := alert.Alert{
		ID:                "2",
		Title:             "Sound System Malfunction",
		Description:       "Main stage microphone is not working properly",
		Category:          alert.CategoryTechnicalIssue,
		Priority:          alert.PriorityCritical,
		Status:            alert.StatusInProgress,
		CreatedBy:         "tech-1",
		EventID:           eventID,
		Location:          ptr("Main Stage"),
		EstimatedImpact:   "Critical - Will disrupt main presentation",
		RequiredResources: []string{"Backup microphone", "Audio technician"},
		AssignedTo:        []string{"tech-lead-1", "audio-tech-1"},
		CreatedAt:         now.Add(-10 * time.Minute),
		UpdatedAt:         now.Add(-5 * time.Minute),
	}
	food := alert.Alert{
		ID:                "1",
		Title:             "Food Station Running Low",
		Description:       "Vegetarian options are running out at the main buffet",
		Category:          alert.CategoryFoodShortage,
		Priority:          alert.PriorityHigh,
		Status:            alert.StatusOpen,
		CreatedBy:         "vendor-1",
		EventID:           eventID,
		Location:          ptr("Main Hall - Buffet Station A"),
		EstimatedImpact:   "High - May affect guest satisfaction",
		RequiredResources: []string{"Additional vegetarian dishes", "Extra serving staff"},
		AssignedTo:        []string{},
		CreatedAt:         now.Add(-30 * time.Minute),
		UpdatedAt:         now.Add(-30 * time.Minute),
	}
	return []alert.Alert{sound, food}
}

func ptr[T any](v T) *T { return &v }
