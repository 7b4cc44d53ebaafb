// Package loadgen drives a running eventops server with concurrent task and
// SOS-alert traffic and checks that the server's counters agree.
package loadgen

import "time"

// Config holds the load run parameters.
type Config struct {
	BaseURL string        // server base URL, e.g. http://localhost:9080
	EventID string        // event the generated records belong to
	UserID  string        // sent as X-User-ID
	Tasks   int           // tasks to create
	Alerts  int           // alerts to raise
	Workers int           // concurrent submitters
	Timeout time.Duration // per-request timeout

	// DuplicateEvery makes every n-th alert reuse the previous alert's
	// Idempotency-Key. Zero disables duplicates.
	DuplicateEvery int
}

// Stats summarises a run.
type Stats struct {
	TasksCreated    int
	TasksFailed     int
	AlertsCreated   int
	AlertsDuplicate int
	AlertsFailed    int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}

// RequestsPerSecond is the submission rate over the whole run.
func (s *Stats) RequestsPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	n := s.TasksCreated + s.TasksFailed + s.AlertsCreated + s.AlertsDuplicate + s.AlertsFailed
	return float64(n) / s.Duration.Seconds()
}

type counters struct {
	Total int `json:"total"`
}
