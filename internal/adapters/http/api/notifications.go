package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/battlegrounds/internal/domain/model"
)

// NotificationDependencies defines the notification feed operations.
type NotificationDependencies interface {
	Notifications(ctx context.Context, unreadOnly bool) []model.Notification
	MarkNotificationRead(ctx context.Context, id string) bool
}

// NotificationsHandler handles notification requests.
type NotificationsHandler struct {
	deps NotificationDependencies
}

// NewNotificationsHandler creates a new notifications handler.
func NewNotificationsHandler(deps NotificationDependencies) *NotificationsHandler {
	return &NotificationsHandler{deps: deps}
}

// HandleGetNotifications handles GET /notifications?unread=true.
func (h *NotificationsHandler) HandleGetNotifications(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_notifications"
	unread := false
	if v := r.URL.Query().Get("unread"); v != "" {
		var err error
		unread, err = strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
	}
	list := h.deps.Notifications(r.Context(), unread)
	if list == nil {
		list = []model.Notification{}
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleMarkRead handles POST /notifications/{id}/read. Unknown ids report
// updated=false.
func (h *NotificationsHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	writeJSON(w, http.StatusOK, updateResponse{ID: id, Updated: h.deps.MarkNotificationRead(r.Context(), id)})
}
