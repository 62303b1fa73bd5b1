package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-event-notifier/internal/application/notification"
	"github.com/go-event-notifier/internal/domain"
)

// NotificationHandler serves a user's notification history.
type NotificationHandler struct {
	svc notification.Service
}

func NewNotificationHandler(svc notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	entries, err := h.svc.ListForUser(r.Context(), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, InboxEnvelope{UserID: userID, Notifications: entries})
}
