package queue

import "errors"

// ErrClosed is returned by Close when the queue was already closed.
var ErrClosed = errors.New("queue closed")
