package notification

import (
	"fmt"
	"time"

	"github.com/go-event-notifier/internal/domain"
)

// SelectWindow returns the events dated from today through today+horizonDays,
// both ends inclusive. Dates compare as calendar days in now's location, so
// the time of day in now is ignored. Events without a usable date are never
// candidates. The input order is preserved.
func SelectWindow(events []domain.Event, now time.Time, horizonDays int) []domain.Event {
	start, end := windowDays(now, horizonDays)
	var out []domain.Event
	for _, e := range events {
		d, ok := e.Date(now.Location())
		if !ok {
			continue
		}
		if d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// WindowBounds returns the first and last candidate dates as YYYY-MM-DD, for
// the event store's date-range predicate.
func WindowBounds(now time.Time, horizonDays int) (from, to string) {
	start, end := windowDays(now, horizonDays)
	return start.Format(domain.DateLayout), end.Format(domain.DateLayout)
}

func windowDays(now time.Time, horizonDays int) (start, end time.Time) {
	if horizonDays < 0 {
		horizonDays = 0
	}
	start = truncateDay(now)
	end = start.AddDate(0, 0, horizonDays)
	return start, end
}

// truncateDay returns midnight of t's calendar day in t's location.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseNow reads a run's reference instant. A bare YYYY-MM-DD is midnight in
// loc; anything else must be RFC 3339.
func ParseNow(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(domain.DateLayout, s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("now %q: want YYYY-MM-DD or RFC 3339: %w", s, domain.ErrBadRequest)
	}
	return t.In(loc), nil
}
