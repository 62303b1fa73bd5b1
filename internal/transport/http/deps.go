package http

import (
	"log/slog"
	"time"

	"github.com/go-event-notifier/internal/application/notification"
)

// Deps holds what the router needs to serve requests.
type Deps struct {
	Notifier notification.Service
	Location *time.Location // calendar timezone for bare-date "now" values
	Logger   *slog.Logger
}
