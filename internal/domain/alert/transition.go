package alert

import (
	"fmt"
	"slices"
	"time"
)

var transitions = map[Status][]Status{
	StatusOpen:         {StatusAcknowledged, StatusInProgress, StatusResolved, StatusEscalated},
	StatusAcknowledged: {StatusInProgress, StatusResolved, StatusEscalated},
	StatusInProgress:   {StatusResolved, StatusEscalated},
	StatusEscalated:    {StatusInProgress, StatusResolved},
	StatusResolved:     nil,
}

// ValidateTransition returns nil when an alert may move from one status to
// another. Staying in the same status is always allowed.
func ValidateTransition(from, to Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	if from == to || slices.Contains(transitions[from], to) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// Patch is a partial alert update. Nil fields are left untouched; status
// changes go through ValidateTransition.
type Patch struct {
	Title             *string   `json:"title,omitempty"`
	Description       *string   `json:"description,omitempty"`
	Category          *Category `json:"category,omitempty"`
	Priority          *Priority `json:"priority,omitempty"`
	Status            *Status   `json:"status,omitempty"`
	Location          *string   `json:"location,omitempty"`
	EstimatedImpact   *string   `json:"estimated_impact,omitempty"`
	RequiredResources *[]string `json:"required_resources,omitempty"`
	AssignedTo        *[]string `json:"assigned_to,omitempty"`
	ResolutionNotes   *string   `json:"resolution_notes,omitempty"`
}

// Validate checks the set fields. It does not check the status transition,
// which depends on the alert being patched.
func (p Patch) Validate() error {
	if p.Title != nil && *p.Title == "" {
		return ErrTitleRequired
	}
	if p.Category != nil && !p.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, *p.Category)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, *p.Priority)
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, *p.Status)
	}
	return nil
}

// Apply merges p into a on behalf of actor. Moving into resolved stamps
// ResolvedAt and ResolvedBy so the resolution fields stay in step with the
// status. a is only modified when Apply succeeds.
func (p Patch) Apply(a *Alert, actor string, now time.Time) error {
	if err := p.Validate(); err != nil {
		return err
	}
	next := a.Clone()
	if p.Status != nil {
		if err := ValidateTransition(next.Status, *p.Status); err != nil {
			return err
		}
		if *p.Status == StatusResolved && next.Status != StatusResolved {
			if actor == "" {
				return ErrResolverRequired
			}
			next.ResolvedBy = &actor
			next.ResolvedAt = &now
		}
		next.Status = *p.Status
	}
	if p.ResolutionNotes != nil {
		if next.Status != StatusResolved {
			return ErrResolutionFieldsOnly
		}
		next.ResolutionNotes = clonePtr(p.ResolutionNotes)
	}
	if p.Title != nil {
		next.Title = *p.Title
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.Category != nil {
		next.Category = *p.Category
	}
	if p.Priority != nil {
		next.Priority = *p.Priority
	}
	if p.Location != nil {
		next.Location = clonePtr(p.Location)
	}
	if p.EstimatedImpact != nil {
		next.EstimatedImpact = *p.EstimatedImpact
	}
	if p.RequiredResources != nil {
		next.RequiredResources = cloneList(*p.RequiredResources)
	}
	if p.AssignedTo != nil {
		next.AssignedTo = cloneList(*p.AssignedTo)
	}
	next.UpdatedAt = now
	*a = next
	return nil
}
