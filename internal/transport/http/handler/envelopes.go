package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-event-notifier/internal/domain"
	"github.com/go-event-notifier/internal/pkg/geo"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// RunEnvelope wraps the result of a triggered batch pass.
type RunEnvelope struct {
	Success           bool               `json:"success"`
	NotificationsSent int                `json:"notifications_sent"`
	EventsProcessed   int                `json:"events_processed"`
	Summary           *domain.RunSummary `json:"summary,omitempty"`
	Error             string             `json:"error,omitempty"`
}

// InboxEnvelope wraps a user's notification history.
type InboxEnvelope struct {
	UserID        string               `json:"user_id"`
	Notifications []domain.LedgerEntry `json:"notifications"`
}

// DistrictsEnvelope wraps the district table. Names lists the districts in
// order for filter widgets.
type DistrictsEnvelope struct {
	Version   string         `json:"version"`
	Names     []string       `json:"names"`
	Districts []geo.District `json:"districts"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg, ErrorCode: status})
}

// statusFor maps domain sentinels to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrBadRequest), errors.Is(err, domain.ErrMalformedRecord):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateDispatch):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicError is the status and client-safe message for err. Server-side
// failures never expose their cause.
func publicError(err error) (int, string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		return status, "internal error"
	}
	return status, err.Error()
}

func httpError(w http.ResponseWriter, err error) {
	status, msg := publicError(err)
	writeError(w, status, msg)
}
