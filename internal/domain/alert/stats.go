package alert

import (
	"math"

	"github.com/okian/eventops/internal/domain/tally"
)

// Filter selects alerts: AND across dimensions, membership within one.
type Filter struct {
	Category  []Category `json:"category,omitempty"`
	Priority  []Priority `json:"priority,omitempty"`
	Status    []Status   `json:"status,omitempty"`
	CreatedBy string     `json:"created_by,omitempty"`
}

// Matches reports whether a passes every set dimension of f.
func (f Filter) Matches(a Alert) bool {
	return tally.Allows(f.Category, a.Category) &&
		tally.Allows(f.Priority, a.Priority) &&
		tally.Allows(f.Status, a.Status) &&
		(f.CreatedBy == "" || f.CreatedBy == a.CreatedBy)
}

// Apply returns the alerts matching f, keeping their order.
func (f Filter) Apply(alerts []Alert) []Alert {
	return tally.Select(alerts, f.Matches)
}

// Stats summarises an alert collection.
type Stats struct {
	Total                int              `json:"total"`
	Active               int              `json:"active"`
	Resolved             int              `json:"resolved"`
	Critical             int              `json:"critical"`
	ByCategory           map[Category]int `json:"by_category"`
	ByPriority           map[Priority]int `json:"by_priority"`
	AvgResolutionMinutes int              `json:"avg_resolution_minutes"`
}

// ComputeStats summarises alerts. Every category and priority has a key,
// zero or not.
func ComputeStats(alerts []Alert) Stats {
	return Stats{
		Total:                len(alerts),
		Active:               tally.Count(alerts, func(a Alert) bool { return a.Status.Active() }),
		Resolved:             tally.Count(alerts, func(a Alert) bool { return a.Status == StatusResolved }),
		Critical:             tally.Count(alerts, func(a Alert) bool { return a.Priority == PriorityCritical }),
		ByCategory:           tally.CountBy(alerts, Categories, func(a Alert) Category { return a.Category }),
		ByPriority:           tally.CountBy(alerts, Priorities, func(a Alert) Priority { return a.Priority }),
		AvgResolutionMinutes: AverageResolutionMinutes(alerts),
	}
}

// AverageResolutionMinutes is the mean of resolved_at - created_at over
// resolved alerts, rounded to whole minutes; 0 when none are resolved.
func AverageResolutionMinutes(alerts []Alert) int {
	var total float64
	var n int
	for _, a := range alerts {
		if a.Status != StatusResolved {
			continue
		}
		if d, ok := a.ResolutionTime(); ok {
			total += d.Minutes()
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(total / float64(n)))
}
