package notification

import (
	"testing"
	"time"

	"github.com/go-event-notifier/internal/domain"
	"github.com/stretchr/testify/assert"
)

func ids(events []domain.Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.EventID)
	}
	return out
}

func TestSelectWindow_BoundariesInclusive(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []domain.Event{
		{EventID: "yesterday", EventDate: "2024-12-31"},
		{EventID: "today", EventDate: "2025-01-01"},
		{EventID: "edge", EventDate: "2025-01-04"},
		{EventID: "past-edge", EventDate: "2025-01-05"},
	}
	assert.Equal(t, []string{"today", "edge"}, ids(SelectWindow(events, now, 3)))
}

func TestSelectWindow_IgnoresTimeOfDay(t *testing.T) {
	now := time.Date(2025, 1, 1, 23, 59, 0, 0, time.UTC)
	events := []domain.Event{
		{EventID: "today", EventDate: "2025-01-01"},
		{EventID: "edge", EventDate: "2025-01-04"},
	}
	assert.Equal(t, []string{"today", "edge"}, ids(SelectWindow(events, now, 3)))
}

func TestSelectWindow_UsesNowLocation(t *testing.T) {
	manila := time.FixedZone("PHT", 8*60*60)
	// 20:00 UTC on Dec 31 is already Jan 1 in Manila.
	now := time.Date(2024, 12, 31, 20, 0, 0, 0, time.UTC).In(manila)
	events := []domain.Event{
		{EventID: "dec31", EventDate: "2024-12-31"},
		{EventID: "jan4", EventDate: "2025-01-04"},
	}
	assert.Equal(t, []string{"jan4"}, ids(SelectWindow(events, now, 3)))
}

func TestSelectWindow_ExcludesMissingAndBadDates(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []domain.Event{
		{EventID: "none"},
		{EventID: "garbage", EventDate: "next week"},
		{EventID: "ok", EventDate: "2025-01-02"},
	}
	assert.Equal(t, []string{"ok"}, ids(SelectWindow(events, now, 3)))
}

func TestSelectWindow_RepeatableAndPure(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []domain.Event{{EventID: "a", EventDate: "2025-01-02"}, {EventID: "b", EventDate: "2025-02-02"}}
	first := SelectWindow(events, now, 3)
	second := SelectWindow(events, now, 3)
	assert.Equal(t, first, second)
	assert.Len(t, events, 2)
}

func TestSelectWindow_NegativeHorizonIsToday(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []domain.Event{{EventID: "today", EventDate: "2025-01-01"}, {EventID: "tomorrow", EventDate: "2025-01-02"}}
	assert.Equal(t, []string{"today"}, ids(SelectWindow(events, now, -2)))
}

func TestWindowBounds(t *testing.T) {
	now := time.Date(2025, 12, 30, 15, 0, 0, 0, time.UTC)
	from, to := WindowBounds(now, 3)
	assert.Equal(t, "2025-12-30", from)
	assert.Equal(t, "2026-01-02", to)
}

func TestParseNow(t *testing.T) {
	manila := time.FixedZone("PHT", 8*60*60)

	d, err := ParseNow("2025-01-01", manila)
	assert.NoError(t, err)
	assert.True(t, d.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, manila)))

	ts, err := ParseNow("2024-12-31T20:00:00Z", manila)
	assert.NoError(t, err)
	assert.Equal(t, "2025-01-01", ts.Format(domain.DateLayout))

	_, err = ParseNow("tomorrow", manila)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}
