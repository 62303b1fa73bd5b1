package domain

import "time"

// DateLayout is the calendar-date format of event_date.
const DateLayout = "2006-01-02"

type Event struct {
	EventID     string  `json:"id" dynamodbav:"event_id" validate:"required"`
	Name        string  `json:"name" dynamodbav:"name" validate:"required"`
	EventDate   string  `json:"event_date" dynamodbav:"event_date"` // YYYY-MM-DD, empty when unscheduled
	Locality    string  `json:"municipality" dynamodbav:"locality"`
	Location    string  `json:"location" dynamodbav:"location"`
	Description string  `json:"description" dynamodbav:"description"`
	EventType   string  `json:"event_type,omitempty" dynamodbav:"event_type"`
	ImageURL    *string `json:"image_url" dynamodbav:"image_url"`
}

// Date returns the event date at midnight in loc. ok is false when the event
// has no date or the stored value is not a calendar date.
func (e Event) Date(loc *time.Location) (d time.Time, ok bool) {
	if e.EventDate == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, e.EventDate, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Place is the display location used in messages.
func (e Event) Place() string {
	if e.Location != "" {
		return e.Location
	}
	return e.Locality
}
