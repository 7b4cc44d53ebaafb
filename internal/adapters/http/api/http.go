// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/eventops/internal/adapters/repository"
	"github.com/okian/eventops/internal/domain/dedupe"
	"github.com/okian/eventops/internal/domain/model"
	"github.com/okian/eventops/internal/store"
	"github.com/okian/eventops/pkg/errkind"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service that owns the stores.
type Dependencies interface {
	// Idempotency-Key bookkeeping for POST /alerts.
	dedupe.Deduper

	Tasks() *store.TaskStore
	Alerts() *store.AlertStore

	// Notifications returns up to limit delivered notifications, newest first.
	Notifications(limit int) []model.Notification
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler        *HealthHandler
	statsHandler         *StatsHandler
	tasksHandler         *TasksHandler
	alertsHandler        *AlertsHandler
	notificationsHandler *NotificationsHandler
}

// NewServer creates a new API server with all handlers. maxLimit caps the
// ?limit parameter of list endpoints.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	return &Server{
		healthHandler:        NewHealthHandler(),
		statsHandler:         NewStatsHandler(statsProvider),
		tasksHandler:         NewTasksHandler(deps),
		alertsHandler:        NewAlertsHandler(deps),
		notificationsHandler: NewNotificationsHandler(deps, maxLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(ActorMiddleware(h), endpoint))
	}

	route("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	route("GET /stats", "stats", s.statsHandler.HandleStats)
	route("GET /notifications", "notifications", s.notificationsHandler.HandleList)

	t := s.tasksHandler
	route("GET /tasks", "tasks", t.HandleList)
	route("POST /tasks", "tasks", t.HandleCreate)
	route("GET /tasks/stats", "tasks_stats", t.HandleStats)
	route("GET /tasks/mine", "tasks_mine", t.HandleMine)
	route("GET /tasks/{id}", "task", t.HandleGet)
	route("PATCH /tasks/{id}", "task", t.HandleUpdate)
	route("DELETE /tasks/{id}", "task", t.HandleDelete)
	route("POST /tasks/{id}/progress", "task_progress", t.HandleProgress)
	route("POST /tasks/{id}/assign", "task_assign", t.HandleAssign)
	route("POST /tasks/{id}/unassign", "task_unassign", t.HandleUnassign)
	route("GET /tasks/{id}/updates", "task_updates", t.HandleListUpdates)
	route("POST /tasks/{id}/updates", "task_updates", t.HandleAddUpdate)

	a := s.alertsHandler
	route("GET /alerts", "alerts", a.HandleList)
	route("POST /alerts", "alerts", a.HandleCreate)
	route("GET /alerts/stats", "alerts_stats", a.HandleStats)
	route("GET /alerts/active", "alerts_active", a.HandleActive)
	route("GET /alerts/{id}", "alert", a.HandleGet)
	route("PATCH /alerts/{id}", "alert", a.HandleUpdate)
	route("DELETE /alerts/{id}", "alert", a.HandleDelete)
	route("POST /alerts/{id}/resolve", "alert_resolve", a.HandleResolve)
	route("POST /alerts/{id}/acknowledge", "alert_acknowledge", a.HandleAcknowledge)
	route("POST /alerts/{id}/escalate", "alert_escalate", a.HandleEscalate)
	route("POST /alerts/{id}/assign", "alert_assign", a.HandleAssign)
	route("GET /alerts/{id}/responses", "alert_responses", a.HandleListResponses)
	route("POST /alerts/{id}/responses", "alert_responses", a.HandleRespond)
	route("GET /alerts/{id}/suggestions", "alert_suggestions", a.HandleSuggestions)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeStoreError maps store and repository failures onto status codes.
func writeStoreError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, store.ErrConflict), errors.Is(err, repository.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, store.ErrValidation), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", errkind.Wrap(op, ErrInternal, err))
	}
}

// decodeJSON reads the request body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, op string, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// A chunked request carries no length; an empty one is no body.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errkind.Wrap(op, ErrBadRequest, fmt.Errorf("decode body: %w", err))
	}
	return nil
}
