package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/okian/eventops/internal/loadgen"
	"github.com/okian/eventops/pkg/logger"
)

// Load run defaults.
const (
	defaultLoadTasks      = 500
	defaultLoadAlerts     = 500
	defaultLoadWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultLoadDuplicates = 10
	defaultLoadTimeout    = 30 * time.Second
	defaultLoadDeadline   = 10 * time.Minute
)

func newLoadgenCmd() *cobra.Command {
	lc := loadgen.Config{}
	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Drive a running server with concurrent task and SOS-alert traffic",
		Long: `Creates tasks and SOS alerts concurrently, repeating some Idempotency-Keys,
then checks that the server's /tasks/stats and /alerts/stats totals grew by
exactly the number of successful creations.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := initLogging(cmd, cfg, cmd.ErrOrStderr()); err != nil {
				return err
			}
			if lc.EventID == "" {
				lc.EventID = cfg.DefaultEventID
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultLoadDeadline)
			defer cancel()

			stats, err := loadgen.Run(ctx, &lc)
			if stats != nil {
				printLoadStats(cmd.OutOrStdout(), stats)
			}
			if err != nil {
				logger.Get().Error(ctx, "load run failed", logger.Error(err))
				return fmt.Errorf("load run failed: %w", err)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&lc.BaseURL, "url", "http://localhost:9080", "base URL of the service")
	f.StringVar(&lc.EventID, "event", "", "event id for generated records (default from config)")
	f.StringVar(&lc.UserID, "user", "loadgen", "acting user sent as X-User-ID")
	f.IntVar(&lc.Tasks, "tasks", defaultLoadTasks, "tasks to create")
	f.IntVar(&lc.Alerts, "alerts", defaultLoadAlerts, "SOS alerts to raise")
	f.IntVar(&lc.Workers, "workers", runtime.NumCPU()*defaultLoadWorkers, "concurrent workers")
	f.IntVar(&lc.DuplicateEvery, "duplicate-every", defaultLoadDuplicates, "reuse the previous Idempotency-Key every n alerts (0 disables)")
	f.DurationVar(&lc.Timeout, "timeout", defaultLoadTimeout, "HTTP request timeout")
	return cmd
}

func printLoadStats(w io.Writer, s *loadgen.Stats) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Load run")
	t.AppendHeader(table.Row{"", "Created", "Duplicate", "Failed"})
	t.AppendRow(table.Row{"Tasks", s.TasksCreated, "-", s.TasksFailed})
	t.AppendRow(table.Row{"SOS alerts", s.AlertsCreated, s.AlertsDuplicate, s.AlertsFailed})
	t.AppendFooter(table.Row{"Duration", s.Duration.Round(time.Millisecond), "req/s", fmt.Sprintf("%.1f", s.RequestsPerSecond())})
	t.Render()
}
