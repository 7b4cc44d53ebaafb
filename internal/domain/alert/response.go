package alert

import (
	"fmt"
	"slices"
	"time"
)

// ResponseType classifies an entry in an alert's response log.
type ResponseType string

const (
	ResponseAcknowledgment ResponseType = "acknowledgment"
	ResponseOfferHelp      ResponseType = "offer_help"
	ResponseStatusUpdate   ResponseType = "status_update"
	ResponseResolution     ResponseType = "resolution"
)

var ResponseTypes = []ResponseType{ResponseAcknowledgment, ResponseOfferHelp, ResponseStatusUpdate, ResponseResolution}

func (t ResponseType) Valid() bool { return slices.Contains(ResponseTypes, t) }

// Canned messages for responses the store writes itself.
const (
	AcknowledgeMessage  = "Alert acknowledged. Working on resolution."
	escalationMsgFormat = "Alert escalated: %s"
)

// EscalationMessage renders the status_update text recorded on escalation.
func EscalationMessage(reason string) string {
	return fmt.Sprintf(escalationMsgFormat, reason)
}

// Response is an append-only action or comment logged against an alert.
type Response struct {
	ID               string       `json:"id"`
	AlertID          string       `json:"sos_alert_id"`
	UserID           string       `json:"user_id"`
	Type             ResponseType `json:"response_type"`
	Message          string       `json:"message"`
	ETA              *string      `json:"eta,omitempty"`
	ResourcesOffered []string     `json:"resources_offered,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
}

// ResponseDraft is the caller-supplied part of a response.
type ResponseDraft struct {
	UserID           string       `json:"user_id"`
	Type             ResponseType `json:"response_type"`
	Message          string       `json:"message"`
	ETA              *string      `json:"eta,omitempty"`
	ResourcesOffered []string     `json:"resources_offered,omitempty"`
}

func (d ResponseDraft) Validate() error {
	if !d.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidResponseType, d.Type)
	}
	return nil
}

// NewResponse builds a response for alertID.
func NewResponse(id, alertID string, d ResponseDraft, now time.Time) Response {
	r := Response{
		ID:        id,
		AlertID:   alertID,
		UserID:    d.UserID,
		Type:      d.Type,
		Message:   d.Message,
		ETA:       clonePtr(d.ETA),
		CreatedAt: now,
	}
	if len(d.ResourcesOffered) > 0 {
		r.ResourcesOffered = cloneList(d.ResourcesOffered)
	}
	return r
}

// Clone returns a deep copy of r.
func (r Response) Clone() Response {
	r.ETA = clonePtr(r.ETA)
	if r.ResourcesOffered != nil {
		r.ResourcesOffered = cloneList(r.ResourcesOffered)
	}
	return r
}
