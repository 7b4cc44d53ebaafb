package loadgen

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/eventops/pkg/logger"
)

// Run executes a load run against cfg.BaseURL and returns its statistics.
// Counters are compared before and after, so the target should see no other
// writers during the run.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("loadgen")
	stats := &Stats{StartTime: time.Now()}
	client := newHTTPClient(cfg.Timeout, cfg.UserID)

	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("tasks", cfg.Tasks),
		logger.Int("alerts", cfg.Alerts),
		logger.Int("workers", cfg.Workers),
		logger.Int("duplicateEvery", cfg.DuplicateEvery))

	if err := checkServiceHealth(ctx, client, cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	before, err := fetchTotals(ctx, client, cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("baseline: %w", err)
	}

	p := generate(cfg)
	submit(ctx, client, cfg, p.jobs, stats)
	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("load run interrupted: %w", err)
	}

	after, err := fetchTotals(ctx, client, cfg.BaseURL)
	if err != nil {
		return stats, fmt.Errorf("final totals: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	if err := verify(before, after, p, stats); err != nil {
		return stats, err
	}

	log.Info(ctx, "load run completed",
		logger.Int("tasksCreated", stats.TasksCreated),
		logger.Int("alertsCreated", stats.AlertsCreated),
		logger.Int("alertsDuplicate", stats.AlertsDuplicate),
		logger.Duration("duration", stats.Duration),
		logger.Float64("requestsPerSecond", stats.RequestsPerSecond()))
	return stats, nil
}

func checkServiceHealth(ctx context.Context, client *HTTPClient, baseURL string) error {
	status, _, err := client.Get(ctx, baseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", status)
	}
	return nil
}

type totals struct {
	tasks, alerts int
}

func fetchTotals(ctx context.Context, client *HTTPClient, baseURL string) (totals, error) {
	var t, a counters
	if err := client.getJSON(ctx, baseURL+"/tasks/stats", &t); err != nil {
		return totals{}, err
	}
	if err := client.getJSON(ctx, baseURL+"/alerts/stats", &a); err != nil {
		return totals{}, err
	}
	return totals{tasks: t.Total, alerts: a.Total}, nil
}

// submit fans jobs out to cfg.Workers goroutines and tallies the outcomes.
func submit(ctx context.Context, client *HTTPClient, cfg *Config, jobs []job, stats *Stats) {
	log := logger.Get().Named("loadgen")
	var tasksOK, tasksFailed, alertsOK, alertsDup, alertsFailed atomic.Int64

	workers := max(1, min(cfg.Workers, len(jobs)))
	ch := make(chan job, workers*workerChannelMultiplier)
	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range ch {
				switch j.kind {
				case jobTask:
					status, _, err := client.Post(ctx, cfg.BaseURL+"/tasks", j.task, "")
					if err == nil && status == http.StatusCreated {
						tasksOK.Add(1)
						continue
					}
					tasksFailed.Add(1)
					log.Debug(ctx, "task submission failed", logger.Int("status", status), logger.Error(err))
				case jobAlert:
					status, _, err := client.Post(ctx, cfg.BaseURL+"/alerts", j.alert, j.key)
					switch {
					case err == nil && status == http.StatusCreated:
						alertsOK.Add(1)
					case err == nil && status == http.StatusConflict:
						alertsDup.Add(1)
					default:
						alertsFailed.Add(1)
						log.Debug(ctx, "alert submission failed", logger.Int("status", status), logger.Error(err))
					}
				}
			}
		}()
	}

	go func() {
		defer close(ch)
		for _, j := range jobs {
			select {
			case <-ctx.Done():
				return
			case ch <- j:
			}
		}
	}()

	wg.Wait()

	stats.TasksCreated = int(tasksOK.Load())
	stats.TasksFailed = int(tasksFailed.Load())
	stats.AlertsCreated = int(alertsOK.Load())
	stats.AlertsDuplicate = int(alertsDup.Load())
	stats.AlertsFailed = int(alertsFailed.Load())
}
