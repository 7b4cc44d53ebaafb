// Package errkind attaches an operation name and a sentinel kind to errors.
//
// A *Error matches both its kind and its cause with errors.Is, so callers can
// branch on the kind (e.g. repository.ErrNotFound) without losing the
// underlying error text.
package errkind

import (
	"errors"
	"strings"
)

// Error is an operation-scoped error carrying a sentinel kind.
type Error struct {
	Op   string
	Kind error
	Err  error
}

// Error formats as "op: kind: cause", omitting empty parts.
func (e *Error) Error() string {
	parts := make([]string, 0, 3)
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.Kind != nil {
		parts = append(parts, e.Kind.Error())
	}
	if e.Err != nil && !errors.Is(e.Kind, e.Err) {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap exposes both kind and cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// New returns an error of the given kind for op with no further cause.
func New(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// Wrap returns err tagged with op and kind. A nil err yields nil.
func Wrap(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain, or nil.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}
