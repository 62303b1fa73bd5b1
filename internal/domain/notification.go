package domain

import "time"

// LedgerEntry records that a user has been notified about an event.
// PK: user_id, SK: event_id. At most one entry exists per pair; entries are
// written once and never updated.
type LedgerEntry struct {
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	EventID   string    `json:"event_id" dynamodbav:"event_id"`
	Message   string    `json:"message" dynamodbav:"message"`
	RunID     string    `json:"run_id,omitempty" dynamodbav:"run_id"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}
