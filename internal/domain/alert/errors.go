package alert

import "errors"

var (
	ErrTitleRequired        = errors.New("title is required")
	ErrInvalidCategory      = errors.New("invalid category")
	ErrInvalidPriority      = errors.New("invalid priority")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrInvalidResponseType  = errors.New("invalid response type")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrResolverRequired     = errors.New("resolver is required")
	ErrResolutionFieldsOnly = errors.New("resolution fields are set by resolving the alert")
)
