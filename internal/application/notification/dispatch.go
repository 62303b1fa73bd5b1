package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-event-notifier/internal/domain"
)

// OutcomeKind is the terminal ledger state a dispatch attempt reached.
type OutcomeKind int

const (
	Created OutcomeKind = iota + 1
	AlreadyExists
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case Created:
		return "created"
	case AlreadyExists:
		return "already_exists"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// DispatchOutcome is the result of TryDispatch. Err is set for Failed, and
// for Created when the ledger entry was written but the sink did not accept
// the message (it wraps domain.ErrSinkDelivery).
type DispatchOutcome struct {
	Kind OutcomeKind
	Err  error
}

// Delivered reports whether the message reached the sink on this attempt.
func (o DispatchOutcome) Delivered() bool {
	return o.Kind == Created && o.Err == nil
}

type ledgerStore interface {
	Get(ctx context.Context, userID, eventID string) (*domain.LedgerEntry, error)
	Create(ctx context.Context, e *domain.LedgerEntry) error
	ListByUser(ctx context.Context, userID string) ([]domain.LedgerEntry, error)
}

// Sink accepts composed messages for delivery to a user.
type Sink interface {
	Send(ctx context.Context, userID, message string) error
}

// Dispatcher writes ledger entries and hands messages to the sink.
type Dispatcher struct {
	ledger      ledgerStore
	sink        Sink
	sinkTimeout time.Duration
	clock       func() time.Time
	logger      *slog.Logger
}

// NewDispatcher builds a Dispatcher. A zero sinkTimeout disables the per-call deadline.
func NewDispatcher(ledger ledgerStore, sink Sink, sinkTimeout time.Duration, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		ledger:      ledger,
		sink:        sink,
		sinkTimeout: sinkTimeout,
		clock:       time.Now,
		logger:      logger,
	}
}

// TryDispatch records and sends message for (userID, eventID) unless the pair
// has already been notified.
//
// The ledger's uniqueness constraint decides races: when two runs both miss
// on the read, only one create succeeds and the other observes
// domain.ErrDuplicateDispatch, reported as AlreadyExists.
//
// The ledger write happens before delivery and is never undone. A sink
// failure leaves the pair ledgered but undelivered, and no later pass will
// retry it: delivery is at most once.
func (d *Dispatcher) TryDispatch(ctx context.Context, userID, eventID, message string) DispatchOutcome {
	existing, err := d.ledger.Get(ctx, userID, eventID)
	switch {
	case err == nil && existing != nil:
		return DispatchOutcome{Kind: AlreadyExists}
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		// The conditional create below is still authoritative.
		d.logger.Debug("ledger read failed, attempting create", "user_id", userID, "event_id", eventID, "error", err)
	}

	entry := &domain.LedgerEntry{
		UserID:    userID,
		EventID:   eventID,
		Message:   message,
		RunID:     runIDFromContext(ctx),
		CreatedAt: d.clock().UTC(),
	}
	if err := d.ledger.Create(ctx, entry); err != nil {
		if errors.Is(err, domain.ErrDuplicateDispatch) {
			return DispatchOutcome{Kind: AlreadyExists}
		}
		return DispatchOutcome{Kind: Failed, Err: fmt.Errorf("create ledger entry: %w", err)}
	}

	if err := d.send(ctx, userID, message); err != nil {
		return DispatchOutcome{Kind: Created, Err: fmt.Errorf("%w: %w", domain.ErrSinkDelivery, err)}
	}
	return DispatchOutcome{Kind: Created}
}

// send delivers outside the run's cancellation: once the ledger entry exists
// the message must get its one chance even if the run is being aborted.
func (d *Dispatcher) send(ctx context.Context, userID, message string) error {
	if d.sink == nil {
		return errors.New("no sink configured")
	}
	sendCtx := context.WithoutCancel(ctx)
	if d.sinkTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(sendCtx, d.sinkTimeout)
		defer cancel()
	}
	return d.sink.Send(sendCtx, userID, message)
}

type runIDKey struct{}

func contextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

func runIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok {
		return id
	}
	return ""
}
