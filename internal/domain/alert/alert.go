// Package alert models SOS alerts raised during an event, their responses,
// the guarded status lifecycle and the category-keyed suggestion rules.
package alert

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Category classifies an incident.
type Category string

const (
	CategoryFoodShortage     Category = "food_shortage"
	CategoryEquipmentFailure Category = "equipment_failure"
	CategoryStaffShortage    Category = "staff_shortage"
	CategoryVenueIssue       Category = "venue_issue"
	CategorySecurityConcern  Category = "security_concern"
	CategoryMedicalEmergency Category = "medical_emergency"
	CategoryTechnicalIssue   Category = "technical_issue"
	CategorySupplyShortage   Category = "supply_shortage"
	CategoryTransportation   Category = "transportation"
	CategoryWeatherRelated   Category = "weather_related"
	CategoryOther            Category = "other"
)

// Categories lists every incident category.
var Categories = []Category{
	CategoryFoodShortage, CategoryEquipmentFailure, CategoryStaffShortage,
	CategoryVenueIssue, CategorySecurityConcern, CategoryMedicalEmergency,
	CategoryTechnicalIssue, CategorySupplyShortage, CategoryTransportation,
	CategoryWeatherRelated, CategoryOther,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool { return slices.Contains(Categories, c) }

// Priority expresses incident severity.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Priorities lists every priority, lowest first.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool { return slices.Contains(Priorities, p) }

// Status is the lifecycle state of an alert. See ValidateTransition.
type Status string

const (
	StatusOpen         Status = "open"
	StatusAcknowledged Status = "acknowledged"
	StatusInProgress   Status = "in_progress"
	StatusResolved     Status = "resolved"
	StatusEscalated    Status = "escalated"
)

// Statuses lists every lifecycle state.
var Statuses = []Status{StatusOpen, StatusAcknowledged, StatusInProgress, StatusResolved, StatusEscalated}

// Valid reports whether s is a known status.
func (s Status) Valid() bool { return slices.Contains(Statuses, s) }

// Active reports whether the alert still needs attention.
func (s Status) Active() bool { return s != StatusResolved }

// Alert is a reported operational or emergency incident.
type Alert struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Category          Category   `json:"category"`
	Priority          Priority   `json:"priority"`
	Status            Status     `json:"status"`
	CreatedBy         string     `json:"created_by"`
	EventID           string     `json:"event_id"`
	Location          *string    `json:"location,omitempty"`
	EstimatedImpact   string     `json:"estimated_impact"`
	RequiredResources []string   `json:"required_resources"`
	AssignedTo        []string   `json:"assigned_to"`
	ResolvedBy        *string    `json:"resolved_by,omitempty"`
	ResolutionNotes   *string    `json:"resolution_notes,omitempty"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Clone returns a deep copy of a.
func (a Alert) Clone() Alert {
	a.Location = clonePtr(a.Location)
	a.RequiredResources = cloneList(a.RequiredResources)
	a.AssignedTo = cloneList(a.AssignedTo)
	a.ResolvedBy = clonePtr(a.ResolvedBy)
	a.ResolutionNotes = clonePtr(a.ResolutionNotes)
	a.ResolvedAt = clonePtr(a.ResolvedAt)
	return a
}

// ResolutionTime is resolved_at - created_at; ok is false for unresolved alerts.
func (a Alert) ResolutionTime() (d time.Duration, ok bool) {
	if a.ResolvedAt == nil {
		return 0, false
	}
	return a.ResolvedAt.Sub(a.CreatedAt), true
}

// Draft carries the caller-supplied fields of a new alert.
type Draft struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Category          Category `json:"category"`
	Priority          Priority `json:"priority"`
	CreatedBy         string   `json:"created_by"`
	EventID           string   `json:"event_id"`
	Location          *string  `json:"location,omitempty"`
	EstimatedImpact   string   `json:"estimated_impact"`
	RequiredResources []string `json:"required_resources,omitempty"`
	AssignedTo        []string `json:"assigned_to,omitempty"`
}

// Validate checks the draft. Empty category and priority default in New.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrTitleRequired
	}
	if d.Category != "" && !d.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, d.Category)
	}
	if d.Priority != "" && !d.Priority.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, d.Priority)
	}
	return nil
}

// New builds an open alert from a validated draft.
func New(id string, d Draft, now time.Time) Alert {
	a := Alert{
		ID:                id,
		Title:             strings.TrimSpace(d.Title),
		Description:       d.Description,
		Category:          d.Category,
		Priority:          d.Priority,
		Status:            StatusOpen,
		CreatedBy:         d.CreatedBy,
		EventID:           d.EventID,
		Location:          clonePtr(d.Location),
		EstimatedImpact:   d.EstimatedImpact,
		RequiredResources: cloneList(d.RequiredResources),
		AssignedTo:        cloneList(d.AssignedTo),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if a.Category == "" {
		a.Category = CategoryOther
	}
	if a.Priority == "" {
		a.Priority = PriorityMedium
	}
	return a
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// cloneList copies s, turning nil into an empty list so JSON renders [].
func cloneList(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
