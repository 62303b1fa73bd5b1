package notification

import (
	"fmt"
	"math"
	"time"

	"github.com/go-event-notifier/internal/domain"
)

// Compose renders the reminder text for an event as seen at now.
func Compose(event domain.Event, now time.Time) string {
	days := 0
	if d, ok := event.Date(now.Location()); ok {
		days = DaysUntil(d, now)
	}
	return fmt.Sprintf("🎉 %s starts in %s in %s! Don't miss it!", event.Name, dayCount(days), event.Place())
}

// DaysUntil is the number of started days between now and date, rounded up
// and never negative.
func DaysUntil(date, now time.Time) int {
	days := math.Ceil(date.Sub(now).Hours() / 24)
	if days < 0 {
		return 0
	}
	return int(days)
}

func dayCount(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
