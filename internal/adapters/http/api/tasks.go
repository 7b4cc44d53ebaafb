package api

import (
	"net/http"
	"strings"

	"github.com/okian/eventops/internal/domain/task"
	"github.com/okian/eventops/internal/store"
	"github.com/okian/eventops/pkg/errkind"
)

// TaskDependencies gives access to the task store.
type TaskDependencies interface {
	Tasks() *store.TaskStore
}

// TasksHandler serves /tasks.
type TasksHandler struct {
	deps TaskDependencies
}

func NewTasksHandler(deps TaskDependencies) *TasksHandler {
	return &TasksHandler{deps: deps}
}

type progressRequest struct {
	ProgressPercentage int    `json:"progress_percentage"`
	Comment            string `json:"comment"`
}

type assignTaskRequest struct {
	UserID string `json:"user_id"`
}

type taskUpdateRequest struct {
	UserID  string          `json:"user_id"`
	Content string          `json:"content"`
	Kind    task.UpdateKind `json:"update_type"`
}

func taskFilter(r *http.Request, op string) (task.Filter, error) {
	q := r.URL.Query()
	var (
		f   task.Filter
		err error
	)
	if f.Priority, err = parseList(q, "priority", task.Priority.Valid); err != nil {
		return f, errkind.Wrap(op, ErrBadRequest, err)
	}
	if f.Status, err = parseList(q, "status", task.Status.Valid); err != nil {
		return f, errkind.Wrap(op, ErrBadRequest, err)
	}
	if f.Category, err = parseList(q, "category", task.Category.Valid); err != nil {
		return f, errkind.Wrap(op, ErrBadRequest, err)
	}
	f.AssignedTo = strings.TrimSpace(q.Get("assigned_to"))
	return f, nil
}

// HandleList handles GET /tasks. With ?event_id the event's tasks are
// fetched (loading demo data when enabled); the filter applies either way.
func (h *TasksHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_tasks"
	f, err := taskFilter(r, op)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	var ts []task.Task
	if r.URL.Query().Has("event_id") {
		ts, err = h.deps.Tasks().Fetch(r.Context(), r.URL.Query().Get("event_id"))
		ts = f.Apply(ts)
	} else {
		ts, err = h.deps.Tasks().Filter(r.Context(), f)
	}
	if err != nil {
		writeStoreError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

// HandleCreate handles POST /tasks.
func (h *TasksHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_task"
	var d task.Draft
	if err := decodeJSON(r, op, &d); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if d.AssignedBy == "" {
		d.AssignedBy = store.ActorFrom(r.Context())
	}
	t, err := h.deps.Tasks().Create(r.Context(), d)
	if err != nil {
		writeStoreError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *TasksHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	t, err := h.deps.Tasks().Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, "api.get_task", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// HandleUpdate handles PATCH /tasks/{id}.
func (h *TasksHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_task"
	var p task.Patch
	if err := decodeJSON(r, op, &p); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	t, err := h.deps.Tasks().Update(r.Context(), r.PathValue("id"), p)
	if err != nil {
		writeStoreError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TasksHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Tasks().Delete(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, "api.delete_task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleProgress handles POST /tasks/{id}/progress. Out of range values
// are clamped by the store.
func (h *TasksHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	const op = "api.task_progress"
	var req progressRequest
	if err := decodeJSON(r, op, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	t, err := h.deps.Tasks().UpdateProgress(r.Context(), r.PathValue("id"), req.ProgressPercentage, req.Comment)
	if err != nil {
		writeStoreError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TasksHandler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	const op = "api.assign_task"
	var req assignTaskRequest
	if err := decodeJSON(r, op, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	t, err := h.deps.Tasks().Assign(r.Context(), r.PathValue("id"), strings.TrimSpace(req.UserID))
	if err != nil {
		writeStoreError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TasksHandler) HandleUnassign(w http.ResponseWriter, r *http.Request) {
	t, err := h.deps.Tasks().Unassign(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, "api.unassign_task", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TasksHandler) HandleListUpdates(w http.ResponseWriter, r *http.Request) {
	us, err := h.deps.Tasks().Updates(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, "api.list_task_updates", err)
		return
	}
	writeJSON(w, http.StatusOK, us)
}

// HandleAddUpdate handles POST /tasks/{id}/updates. update_type defaults
// to comment.
func (h *TasksHandler) HandleAddUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_task_update"
	var req taskUpdateRequest
	if err := decodeJSON(r, op, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	u, err := h.deps.Tasks().AddUpdate(r.Context(), r.PathValue("id"), req.UserID, req.Content, req.Kind)
	if err != nil {
		writeStoreError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *TasksHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.deps.Tasks().Stats(r.Context())
	if err != nil {
		writeStoreError(w, "api.task_stats", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleMine handles GET /tasks/mine. Without ?user_id the acting user's
// tasks are returned.
func (h *TasksHandler) HandleMine(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		userID = store.ActorFrom(r.Context())
	}
	ts, err := h.deps.Tasks().MyTasks(r.Context(), userID)
	if err != nil {
		writeStoreError(w, "api.my_tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}
