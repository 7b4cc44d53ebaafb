package loadgen

import (
	"errors"
	"fmt"
)

// ErrMismatch reports that the server's counters disagree with the run.
var ErrMismatch = errors.New("loadgen: counter mismatch")

// verify checks the server-side deltas against what the run observed. With
// no failed alert submissions, each idempotency key yields exactly one alert.
func verify(before, after totals, p plan, stats *Stats) error {
	if d := after.tasks - before.tasks; d != stats.TasksCreated {
		return fmt.Errorf("%w: tasks grew by %d, %d created", ErrMismatch, d, stats.TasksCreated)
	}
	if d := after.alerts - before.alerts; d != stats.AlertsCreated {
		return fmt.Errorf("%w: alerts grew by %d, %d created", ErrMismatch, d, stats.AlertsCreated)
	}
	if stats.AlertsFailed == 0 && stats.AlertsCreated != p.distinctKeys {
		return fmt.Errorf("%w: %d alerts created for %d idempotency keys", ErrMismatch, stats.AlertsCreated, p.distinctKeys)
	}
	return nil
}
