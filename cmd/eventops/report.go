package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	app "github.com/okian/eventops/internal/app"
	"github.com/okian/eventops/internal/domain/alert"
	"github.com/okian/eventops/internal/domain/task"
	"github.com/okian/eventops/pkg/logger"
)

// report is the snapshot printed by `eventops report`.
type report struct {
	EventID     string                       `json:"event_id"`
	Tasks       []task.Task                  `json:"tasks"`
	TaskStats   task.Stats                   `json:"task_stats"`
	Alerts      []alert.Alert                `json:"alerts"`
	AlertStats  alert.Stats                  `json:"alert_stats"`
	Suggestions map[string]alert.Suggestions `json:"suggestions"`
}

func newReportCmd() *cobra.Command {
	var (
		eventID string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print task and SOS-alert statistics for the demo dataset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg.SeedMockData = true
			if eventID == "" {
				eventID = cfg.DefaultEventID
			}
			if err := initLogging(cmd, cfg, cmd.ErrOrStderr()); err != nil {
				return err
			}

			svc := newService(cfg, logger.Get())
			if err := svc.Start(cmd.Context()); err != nil {
				return err
			}
			defer svc.Stop()

			r, err := buildReport(cmd.Context(), svc, eventID)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), r)
			}
			printReport(cmd.OutOrStdout(), r)
			return nil
		},
	}
	cmd.Flags().StringVar(&eventID, "event", "", "event id (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

// buildReport fetches the event's data, which loads the demo dataset.
func buildReport(ctx context.Context, svc *app.Service, eventID string) (report, error) {
	r := report{EventID: eventID, Suggestions: map[string]alert.Suggestions{}}

	var err error
	if r.Tasks, err = svc.Tasks().Fetch(ctx, eventID); err != nil {
		return r, err
	}
	if r.Alerts, err = svc.Alerts().Fetch(ctx, eventID); err != nil {
		return r, err
	}
	r.TaskStats = task.ComputeStats(r.Tasks, time.Now())
	r.AlertStats = alert.ComputeStats(r.Alerts)

	for _, a := range r.Alerts {
		if !a.Status.Active() {
			continue
		}
		s, err := svc.Alerts().Suggestions(ctx, a.ID)
		if err != nil {
			return r, err
		}
		r.Suggestions[a.ID] = s
	}
	return r, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printReport(w io.Writer, r report) {
	newTable := func(title string) table.Writer {
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.SetTitle(title)
		return tw
	}

	tw := newTable("Tasks - " + r.EventID)
	tw.AppendHeader(table.Row{"ID", "Title", "Priority", "Status", "Progress", "Assignee"})
	for _, t := range r.Tasks {
		assignee := ""
		if t.AssignedTo != nil {
			assignee = *t.AssignedTo
		}
		tw.AppendRow(table.Row{t.ID, t.Title, t.Priority, t.Status, fmt.Sprintf("%d%%", t.ProgressPercentage), assignee})
	}
	tw.AppendFooter(table.Row{"", "Total", "", "", "", r.TaskStats.Total})
	tw.Render()

	tw = newTable("Task stats")
	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.AppendRows([]table.Row{
		{"completed", r.TaskStats.Completed},
		{"in progress", r.TaskStats.InProgress},
		{"overdue", r.TaskStats.Overdue},
		{"by priority", joinCounts(r.TaskStats.ByPriority)},
		{"by category", joinCounts(r.TaskStats.ByCategory)},
	})
	tw.Render()

	tw = newTable("SOS alerts - " + r.EventID)
	tw.AppendHeader(table.Row{"ID", "Title", "Category", "Priority", "Status"})
	for _, a := range r.Alerts {
		tw.AppendRow(table.Row{a.ID, a.Title, a.Category, a.Priority, a.Status})
	}
	tw.Render()

	tw = newTable("Alert stats")
	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.AppendRows([]table.Row{
		{"total", r.AlertStats.Total},
		{"active", r.AlertStats.Active},
		{"resolved", r.AlertStats.Resolved},
		{"critical", r.AlertStats.Critical},
		{"avg resolution (min)", r.AlertStats.AvgResolutionMinutes},
		{"by category", joinCounts(r.AlertStats.ByCategory)},
	})
	tw.Render()

	ids := make([]string, 0, len(r.Suggestions))
	for id := range r.Suggestions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	tw = newTable("Suggested actions")
	tw.AppendHeader(table.Row{"Alert", "Action", "ETA"})
	for _, id := range ids {
		s := r.Suggestions[id]
		for _, action := range s.SuggestedActions {
			tw.AppendRow(table.Row{id, action, s.EstimatedResolutionTime})
		}
	}
	tw.Render()
}

// joinCounts renders the non-zero entries of m as "k=v" sorted by key.
func joinCounts[K ~string](m map[K]int) string {
	parts := make([]string, 0, len(m))
	for k, v := range m {
		if v > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", k, v))
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}
