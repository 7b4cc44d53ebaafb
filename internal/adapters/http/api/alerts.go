package api

import (
	"net/http"
	"strings"

	"github.com/okian/eventops/internal/domain/alert"
	"github.com/okian/eventops/internal/domain/dedupe"
	"github.com/okian/eventops/internal/store"
	"github.com/okian/eventops/pkg/errkind"
)

// HeaderIdempotencyKey makes POST /alerts safe to repeat.
const HeaderIdempotencyKey = "Idempotency-Key"

// AlertDependencies gives access to the alert store and the idempotency cache.
type AlertDependencies interface {
	dedupe.Deduper
	Alerts() *store.AlertStore
}

// AlertsHandler serves /alerts.
type AlertsHandler struct {
	deps AlertDependencies
}

func NewAlertsHandler(deps AlertDependencies) *AlertsHandler {
	return &AlertsHandler{deps: deps}
}

type resolveRequest struct {
	UserID          string `json:"user_id"`
	ResolutionNotes string `json:"resolution_notes"`
}

type acknowledgeRequest struct {
	UserID string `json:"user_id"`
}

type escalateRequest struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

type assignAlertRequest struct {
	UserIDs []string `json:"user_ids"`
}

func alertFilter(r *http.Request, op string) (alert.Filter, error) {
	q := r.URL.Query()
	var (
		f   alert.Filter
		err error
	)
	if f.Category, err = parseList(q, "category", alert.Category.Valid); err != nil {
		return f, errkind.Wrap(op, ErrBadRequest, err)
	}
	if f.Priority, err = parseList(q, "priority", alert.Priority.Valid); err != nil {
		return f, errkind.Wrap(op, ErrBadRequest, err)
	}
	if f.Status, err = parseList(q, "status", alert.Status.Valid); err != nil {
		return f, errkind.Wrap(op, ErrBadRequest, err)
	}
	f.CreatedBy = strings.TrimSpace(q.Get("created_by"))
	return f, nil
}

// HandleList handles GET /alerts, newest first. ?event_id fetches the
// event's alerts (loading demo data when enabled) before filtering.
func (h *AlertsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_alerts"
	f, err := alertFilter(r, op)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	var as []alert.Alert
	if r.URL.Query().Has("event_id") {
		as, err = h.deps.Alerts().Fetch(r.Context(), r.URL.Query().Get("event_id"))
		as = f.Apply(as)
	} else {
		as, err = h.deps.Alerts().Filter(r.Context(), f)
	}
	if err != nil {
		writeStoreError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, as)
}

// HandleCreate handles POST /alerts. A repeated Idempotency-Key is
// answered with 409 and no second alert; the key is released when creation
// fails so the client can retry.
func (h *AlertsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_alert"
	var d alert.Draft
	if err := decodeJSON(r, op, &d); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if d.CreatedBy == "" {
		d.CreatedBy = store.ActorFrom(r.Context())
	}

	key := strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey))
	if key != "" && h.deps.SeenAndRecord(r.Context(), key) {
		writeError(w, http.StatusConflict, "duplicate", errkind.New(op, ErrDuplicate))
		return
	}

	a, err := h.deps.Alerts().Create(r.Context(), d)
	if err != nil {
		if key != "" {
			h.deps.Unrecord(r.Context(), key)
		}
		writeStoreError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *AlertsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	a, err := h.deps.Alerts().Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, "api.get_alert", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleUpdate handles PATCH /alerts/{id}. Illegal status moves are 409.
func (h *AlertsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_alert"
	var p alert.Patch
	if err := decodeJSON(r, op, &p); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	a, err := h.deps.Alerts().Update(r.Context(), r.PathValue("id"), p)
	if err != nil {
		writeStoreError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AlertsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Alerts().Delete(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, "api.delete_alert", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleResolve handles POST /alerts/{id}/resolve. user_id defaults to the
// acting user.
func (h *AlertsHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	const op = "api.resolve_alert"
	var req resolveRequest
	if err := decodeJSON(r, op, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if req.UserID == "" {
		req.UserID = store.ActorFrom(r.Context())
	}
	a, err := h.deps.Alerts().Resolve(r.Context(), r.PathValue("id"), req.UserID, req.ResolutionNotes)
	if err != nil {
		writeStoreError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleAcknowledge handles POST /alerts/{id}/acknowledge and returns the
// recorded response.
func (h *AlertsHandler) HandleAcknowledge(w http.ResponseWriter, r *http.Request) {
	const op = "api.acknowledge_alert"
	var req acknowledgeRequest
	if err := decodeJSON(r, op, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if req.UserID == "" {
		req.UserID = store.ActorFrom(r.Context())
	}
	resp, err := h.deps.Alerts().Acknowledge(r.Context(), r.PathValue("id"), req.UserID)
	if err != nil {
		writeStoreError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *AlertsHandler) HandleEscalate(w http.ResponseWriter, r *http.Request) {
	const op = "api.escalate_alert"
	var req escalateRequest
	if err := decodeJSON(r, op, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	a, err := h.deps.Alerts().Escalate(r.Context(), r.PathValue("id"), req.UserID, req.Reason)
	if err != nil {
		writeStoreError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AlertsHandler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	const op = "api.assign_alert"
	var req assignAlertRequest
	if err := decodeJSON(r, op, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if req.UserIDs == nil {
		req.UserIDs = []string{}
	}
	a, err := h.deps.Alerts().Assign(r.Context(), r.PathValue("id"), req.UserIDs)
	if err != nil {
		writeStoreError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AlertsHandler) HandleListResponses(w http.ResponseWriter, r *http.Request) {
	rs, err := h.deps.Alerts().Responses(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, "api.list_alert_responses", err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

// HandleRespond handles POST /alerts/{id}/responses.
func (h *AlertsHandler) HandleRespond(w http.ResponseWriter, r *http.Request) {
	const op = "api.respond_alert"
	var d alert.ResponseDraft
	if err := decodeJSON(r, op, &d); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	resp, err := h.deps.Alerts().Respond(r.Context(), r.PathValue("id"), d)
	if err != nil {
		writeStoreError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *AlertsHandler) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	s, err := h.deps.Alerts().Suggestions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, "api.alert_suggestions", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *AlertsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.deps.Alerts().Stats(r.Context())
	if err != nil {
		writeStoreError(w, "api.alert_stats", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleActive handles GET /alerts/active: every alert not yet resolved.
func (h *AlertsHandler) HandleActive(w http.ResponseWriter, r *http.Request) {
	as, err := h.deps.Alerts().Active(r.Context())
	if err != nil {
		writeStoreError(w, "api.active_alerts", err)
		return
	}
	writeJSON(w, http.StatusOK, as)
}
