package api

import (
	"net/http"

	"github.com/okian/eventops/internal/domain/model"
)

// NotificationSource yields the delivered notification feed.
type NotificationSource interface {
	Notifications(limit int) []model.Notification
}

// NotificationsHandler serves the notification feed.
type NotificationsHandler struct {
	source   NotificationSource
	maxLimit int
}

func NewNotificationsHandler(source NotificationSource, maxLimit int) *NotificationsHandler {
	return &NotificationsHandler{source: source, maxLimit: max(1, maxLimit)}
}

// HandleList handles GET /notifications?limit=N, newest first.
func (h *NotificationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_notifications"
	n, err := parseLimit(r, op, h.maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeJSON(w, http.StatusOK, h.source.Notifications(n))
}
