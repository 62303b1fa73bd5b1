package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-event-notifier/internal/application/notification"
	"github.com/go-event-notifier/internal/pkg/validate"
)

// RunRequest is the optional body of a run trigger. An absent horizon_days
// uses the configured default; 0 is a today-only pass.
type RunRequest struct {
	Now         string `json:"now"`
	HorizonDays *int   `json:"horizon_days" validate:"omitempty,min=0,max=366"`
}

// RunHandler triggers batch passes over HTTP.
type RunHandler struct {
	svc    notification.Service
	loc    *time.Location
	logger *slog.Logger
}

func NewRunHandler(svc notification.Service, loc *time.Location, logger *slog.Logger) *RunHandler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RunHandler{svc: svc, loc: loc, logger: logger}
}

func (h *RunHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Request(req); err != nil {
		httpError(w, err)
		return
	}
	opts := notification.RunOptions{HorizonDays: req.HorizonDays}
	if req.Now != "" {
		now, err := notification.ParseNow(req.Now, h.loc)
		if err != nil {
			httpError(w, err)
			return
		}
		opts.Now = now
	}

	summary, err := h.svc.Run(r.Context(), opts)
	env := RunEnvelope{Summary: summary}
	if summary != nil {
		env.NotificationsSent = summary.NotificationsCreated
		env.EventsProcessed = summary.EventsConsidered
	}
	if err != nil {
		h.logger.Error("triggered run did not complete", "error", err)
		status, msg := publicError(err)
		env.Error = msg
		writeJSON(w, status, env)
		return
	}
	env.Success = true
	writeJSON(w, http.StatusOK, env)
}
