package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
)

// Notification engine taxonomy.
var (
	// ErrSourceUnavailable means the event or user store could not be read. Fatal for a run.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrDuplicateDispatch is the ledger's uniqueness violation. Expected under concurrent runs.
	ErrDuplicateDispatch = errors.New("duplicate dispatch")
	// ErrSinkDelivery means the sink rejected or timed out on a message whose ledger entry exists.
	ErrSinkDelivery = errors.New("sink delivery failed")
	// ErrMalformedRecord means an event or profile failed validation; the pair is skipped.
	ErrMalformedRecord = errors.New("malformed record")
)
