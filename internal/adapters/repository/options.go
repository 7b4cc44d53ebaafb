package repository

import "time"

type options struct {
	latency time.Duration
}

// Option applies a configuration option to an in-memory repository.
type Option func(*options)

// WithLatency delays every call by d, simulating a remote backend. The wait
// is abandoned when the caller's context is done.
func WithLatency(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.latency = d
		}
	}
}
