package loadgen

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/okian/eventops/internal/domain/alert"
	"github.com/okian/eventops/internal/domain/task"
)

type jobKind int

const (
	jobTask jobKind = iota
	jobAlert
)

type job struct {
	kind  jobKind
	task  task.Draft
	alert alert.Draft
	key   string
}

// plan is the generated workload. distinctKeys is the number of alerts the
// server should end up creating.
type plan struct {
	jobs         []job
	distinctKeys int
}

// randomIndex returns a uniform index in [0, n) using crypto/rand.
func randomIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

func pick[T any](s []T) T { return s[randomIndex(len(s))] }

// generate builds cfg.Tasks task jobs and cfg.Alerts alert jobs, interleaved.
func generate(cfg *Config) plan {
	var p plan
	p.jobs = make([]job, 0, cfg.Tasks+cfg.Alerts)

	tasks := make([]job, cfg.Tasks)
	for i := range cfg.Tasks {
		tasks[i] = job{kind: jobTask, task: task.Draft{
			Title:       fmt.Sprintf("Load task %d", i+1),
			Description: "generated by eventops loadgen",
			Priority:    pick(task.Priorities),
			Category:    pick(task.Categories),
			EventID:     cfg.EventID,
		}}
	}

	alerts := make([]job, cfg.Alerts)
	for i := range cfg.Alerts {
		n := i + 1
		if i > 0 && cfg.DuplicateEvery > 0 && n%cfg.DuplicateEvery == 0 {
			// A retry of the previous alert: same key, same body.
			alerts[i] = alerts[i-1]
			continue
		}
		p.distinctKeys++
		alerts[i] = job{kind: jobAlert, key: uuid.NewString(), alert: alert.Draft{
			Title:           fmt.Sprintf("Load alert %d", n),
			Description:     "generated by eventops loadgen",
			Category:        pick(alert.Categories),
			Priority:        pick(alert.Priorities),
			EventID:         cfg.EventID,
			EstimatedImpact: "none, synthetic traffic",
		}}
	}

	for i := range max(len(tasks), len(alerts)) {
		if i < len(tasks) {
			p.jobs = append(p.jobs, tasks[i])
		}
		if i < len(alerts) {
			p.jobs = append(p.jobs, alerts[i])
		}
	}
	return p
}
