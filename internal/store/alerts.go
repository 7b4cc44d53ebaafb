package store

import (
	"context"
	"fmt"

	"github.com/okian/eventops/internal/adapters/repository"
	"github.com/okian/eventops/internal/domain/alert"
	"github.com/okian/eventops/internal/domain/model"
	"github.com/okian/eventops/internal/domain/tally"
	"github.com/okian/eventops/internal/seed"
	"github.com/okian/eventops/pkg/logger"
	"github.com/okian/eventops/pkg/metrics"
)

// AlertStore owns the SOS alerts of the running application and their
// response logs.
type AlertStore struct {
	repo   repository.AlertRepository
	opts   options
	seeded seeder
}

func NewAlertStore(repo repository.AlertRepository, opts ...Option) *AlertStore {
	o := build(opts)
	o.logger = o.logger.Named("alert-store")
	return &AlertStore{repo: repo, opts: o}
}

// Create stores a new open alert in front of the existing ones.
func (s *AlertStore) Create(ctx context.Context, d alert.Draft) (alert.Alert, error) {
	const op = "create"
	if err := d.Validate(); err != nil {
		return alert.Alert{}, s.fail(ctx, op, "", "Failed to create SOS alert", classify("create alert", err))
	}
	a := alert.New(s.opts.newID(), d, s.opts.now())
	if err := s.repo.Insert(ctx, a); err != nil {
		return alert.Alert{}, s.fail(ctx, op, a.ID, "Failed to create SOS alert", fmt.Errorf("create alert: %w", err))
	}
	s.opts.logger.Info(ctx, "sos alert raised",
		logger.String("alert_id", a.ID),
		logger.String("category", string(a.Category)),
		logger.String("priority", string(a.Priority)),
	)
	s.succeed(ctx, op, a.ID, "SOS Alert created! Notifying relevant team members...")
	return a, nil
}

func (s *AlertStore) Get(ctx context.Context, id string) (alert.Alert, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return alert.Alert{}, fmt.Errorf("get alert: %w", err)
	}
	return a, nil
}

// List returns every alert, newest first.
func (s *AlertStore) List(ctx context.Context) ([]alert.Alert, error) {
	as, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return as, nil
}

// Update merges p into the alert on behalf of the context's actor. Status
// changes must be legal moves; see alert.ValidateTransition.
func (s *AlertStore) Update(ctx context.Context, id string, p alert.Patch) (alert.Alert, error) {
	return s.update(ctx, "update", id, p, ActorFrom(ctx), "SOS Alert updated successfully!")
}

func (s *AlertStore) update(ctx context.Context, op, id string, p alert.Patch, actor, okMsg string) (alert.Alert, error) {
	var before alert.Status
	a, err := s.repo.Update(ctx, id, func(a *alert.Alert) error {
		before = a.Status
		if err := p.Apply(a, actor, s.opts.now()); err != nil {
			return classify(op+" alert", err)
		}
		return nil
	})
	if err != nil {
		return alert.Alert{}, s.fail(ctx, op, id, "Failed to "+op+" SOS alert", wrapOp(op+" alert", err))
	}
	if before != alert.StatusResolved && a.Status == alert.StatusResolved {
		if d, ok := a.ResolutionTime(); ok {
			metrics.RecordAlertResolution(d.Minutes())
		}
	}
	s.succeed(ctx, op, id, okMsg)
	return a, nil
}

// Delete removes the alert and its responses.
func (s *AlertStore) Delete(ctx context.Context, id string) error {
	const op = "delete"
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.fail(ctx, op, id, "Failed to delete SOS alert", fmt.Errorf("delete alert: %w", err))
	}
	s.succeed(ctx, op, id, "SOS Alert deleted successfully!")
	return nil
}

// Fetch returns the alerts of eventID. With seed data enabled, the first
// fetch of an event that has no alerts loads the demo alerts for it.
func (s *AlertStore) Fetch(ctx context.Context, eventID string) ([]alert.Alert, error) {
	eventID = s.opts.eventID(eventID)
	if s.opts.seed {
		if err := s.seeded.once(eventID, func() error { return s.seed(ctx, eventID) }); err != nil {
			return nil, s.fail(ctx, "fetch", "", "Failed to fetch SOS alerts", fmt.Errorf("seed alerts: %w", err))
		}
	}
	as, err := s.List(ctx)
	if err != nil {
		return nil, s.fail(ctx, "fetch", "", "Failed to fetch SOS alerts", err)
	}
	return tally.Select(as, func(a alert.Alert) bool { return a.EventID == eventID }), nil
}

func (s *AlertStore) seed(ctx context.Context, eventID string) error {
	as, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	if tally.Count(as, func(a alert.Alert) bool { return a.EventID == eventID }) > 0 {
		return nil
	}
	scoped := func(a alert.Alert) alert.Alert {
		a.ID = eventID + "-" + a.ID
		return a
	}
	// The repository prepends, so insert oldest first to keep newest first.
	demo := seed.Alerts(eventID, s.opts.now())
	for i := len(demo) - 1; i >= 0; i-- {
		if err := insertSeed(ctx, s.repo.Insert, demo[i], scoped); err != nil {
			return err
		}
	}
	return nil
}

// Active returns the alerts that are not resolved.
func (s *AlertStore) Active(ctx context.Context) ([]alert.Alert, error) {
	as, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return tally.Select(as, func(a alert.Alert) bool { return a.Status.Active() }), nil
}

// Resolve closes the alert, recording who resolved it and how.
func (s *AlertStore) Resolve(ctx context.Context, id, userID, notes string) (alert.Alert, error) {
	resolved := alert.StatusResolved
	p := alert.Patch{Status: &resolved}
	if notes != "" {
		p.ResolutionNotes = &notes
	}
	return s.update(ctx, "resolve", id, p, userID, "SOS Alert resolved successfully!")
}

// Acknowledge records an acknowledgment response, which moves an open
// alert to acknowledged.
func (s *AlertStore) Acknowledge(ctx context.Context, id, userID string) (alert.Response, error) {
	return s.Respond(ctx, id, alert.ResponseDraft{
		UserID:  userID,
		Type:    alert.ResponseAcknowledgment,
		Message: alert.AcknowledgeMessage,
	})
}

// Escalate marks the alert escalated and critical and records exactly one
// status_update response carrying the reason. Both happen atomically.
func (s *AlertStore) Escalate(ctx context.Context, id, userID, reason string) (alert.Alert, error) {
	const op = "escalate"
	if userID == "" {
		userID = ActorFrom(ctx)
	}
	now := s.opts.now()
	resp := alert.NewResponse(s.opts.newID(), id, alert.ResponseDraft{
		UserID:  userID,
		Type:    alert.ResponseStatusUpdate,
		Message: alert.EscalationMessage(reason),
	}, now)

	escalated, critical := alert.StatusEscalated, alert.PriorityCritical
	a, err := s.repo.AppendResponse(ctx, resp, func(a *alert.Alert) error {
		p := alert.Patch{Status: &escalated, Priority: &critical}
		if err := p.Apply(a, userID, now); err != nil {
			return classify("escalate alert", err)
		}
		return nil
	})
	if err != nil {
		return alert.Alert{}, s.fail(ctx, op, id, "Failed to escalate SOS alert", wrapOp("escalate alert", err))
	}
	metrics.RecordAlertResponse(string(resp.Type))
	s.opts.logger.Warn(ctx, "sos alert escalated", logger.String("alert_id", id), logger.String("reason", reason))
	s.succeed(ctx, op, id, "Alert escalated to management!")
	return a, nil
}

// Assign replaces the alert's responders.
func (s *AlertStore) Assign(ctx context.Context, id string, userIDs []string) (alert.Alert, error) {
	return s.update(ctx, "assign", id, alert.Patch{AssignedTo: &userIDs}, ActorFrom(ctx), "SOS Alert assigned successfully!")
}

// Respond appends a response. An acknowledgment also moves the alert to
// acknowledged; if that move is illegal nothing is recorded.
func (s *AlertStore) Respond(ctx context.Context, alertID string, d alert.ResponseDraft) (alert.Response, error) {
	const op = "respond"
	if err := d.Validate(); err != nil {
		return alert.Response{}, s.fail(ctx, op, alertID, "Failed to send response", classify("respond to alert", err))
	}
	if d.UserID == "" {
		d.UserID = ActorFrom(ctx)
	}
	now := s.opts.now()
	resp := alert.NewResponse(s.opts.newID(), alertID, d, now)

	var apply func(*alert.Alert) error
	if d.Type == alert.ResponseAcknowledgment {
		acknowledged := alert.StatusAcknowledged
		apply = func(a *alert.Alert) error {
			if err := (alert.Patch{Status: &acknowledged}).Apply(a, d.UserID, now); err != nil {
				return classify("respond to alert", err)
			}
			return nil
		}
	}
	if _, err := s.repo.AppendResponse(ctx, resp, apply); err != nil {
		return alert.Response{}, s.fail(ctx, op, alertID, "Failed to send response", wrapOp("respond to alert", err))
	}
	metrics.RecordAlertResponse(string(resp.Type))
	s.succeed(ctx, op, alertID, "Response sent successfully!")
	return resp, nil
}

// Responses returns the alert's responses in append order.
func (s *AlertStore) Responses(ctx context.Context, alertID string) ([]alert.Response, error) {
	rs, err := s.repo.Responses(ctx, alertID)
	if err != nil {
		return nil, fmt.Errorf("list alert responses: %w", err)
	}
	return rs, nil
}

// Filter returns the alerts matching f, newest first.
func (s *AlertStore) Filter(ctx context.Context, f alert.Filter) ([]alert.Alert, error) {
	as, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return f.Apply(as), nil
}

// Stats summarises the whole collection and refreshes the alert gauges.
func (s *AlertStore) Stats(ctx context.Context) (alert.Stats, error) {
	as, err := s.List(ctx)
	if err != nil {
		return alert.Stats{}, err
	}
	st := alert.ComputeStats(as)

	byStatus := tally.CountBy(as, alert.Statuses, func(a alert.Alert) alert.Status { return a.Status })
	gauge := make(map[string]int, len(byStatus))
	for k, v := range byStatus {
		gauge[string(k)] = v
	}
	metrics.UpdateAlertsByStatus(gauge)
	metrics.UpdateAlertsCritical(st.Critical)
	return st, nil
}

// Suggestions looks the alert's category up in the rules table. No model
// is consulted.
func (s *AlertStore) Suggestions(ctx context.Context, alertID string) (alert.Suggestions, error) {
	as, err := s.List(ctx)
	if err != nil {
		return alert.Suggestions{}, err
	}
	for _, a := range as {
		if a.ID == alertID {
			return alert.Suggest(a, as), nil
		}
	}
	return alert.Suggestions{}, fmt.Errorf("suggest for alert %q: %w", alertID, repository.ErrNotFound)
}

func (s *AlertStore) succeed(ctx context.Context, op, id, msg string) {
	metrics.RecordAlertOperation(op, "success")
	s.opts.logger.Debug(ctx, "alert operation succeeded", logger.String("op", op), logger.String("alert_id", id))
	s.opts.publisher.Publish(ctx, s.note(model.LevelSuccess, msg, id))
}

func (s *AlertStore) fail(ctx context.Context, op, id, msg string, err error) error {
	metrics.RecordAlertOperation(op, "error")
	metrics.RecordErrorByComponent("alert_store", op)
	s.opts.logger.Error(ctx, "alert operation failed",
		logger.String("op", op),
		logger.String("alert_id", id),
		logger.Error(err),
	)
	s.opts.publisher.Publish(ctx, s.note(model.LevelError, msg, id))
	return err
}

func (s *AlertStore) note(level model.Level, msg, id string) model.Notification {
	return model.Notification{Level: level, Message: msg, EntityKind: model.EntityAlert, EntityID: id, TS: s.opts.now()}
}
