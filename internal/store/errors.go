package store

import (
	"errors"
	"fmt"

	"github.com/okian/eventops/internal/domain/alert"
	"github.com/okian/eventops/pkg/errkind"
)

// Error kinds attached to store errors. Repository kinds
// (repository.ErrNotFound, repository.ErrAlreadyExists) pass through.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
)

// classify tags a domain error from Validate or Apply with its kind.
func classify(op string, err error) error {
	if errors.Is(err, alert.ErrInvalidTransition) {
		return errkind.Wrap(op, ErrConflict, err)
	}
	return errkind.Wrap(op, ErrValidation, err)
}

// wrapOp prefixes err with op unless classify already tagged it.
func wrapOp(op string, err error) error {
	if errkind.KindOf(err) != nil {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
