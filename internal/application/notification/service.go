package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-event-notifier/internal/domain"
	"github.com/go-event-notifier/internal/metrics"
	"github.com/go-event-notifier/internal/pkg/geo"
	"github.com/go-event-notifier/internal/pkg/id"
	"github.com/go-event-notifier/internal/pkg/validate"
)

type Service interface {
	Run(ctx context.Context, opts RunOptions) (*domain.RunSummary, error)
	ListForUser(ctx context.Context, userID string) ([]domain.LedgerEntry, error)
	Districts() *geo.Table
}

// RunOptions overrides the configured defaults for a single pass. Zero
// values and a nil HorizonDays mean "use the default"; a HorizonDays of 0
// is a today-only pass.
type RunOptions struct {
	Now         time.Time
	HorizonDays *int
	Workers     int
}

// Sources return the records they could decode plus a count of stored items
// they could not.
type eventSource interface {
	ListByDateRange(ctx context.Context, from, to string) ([]domain.Event, int, error)
}

type userSource interface {
	ListAll(ctx context.Context) ([]domain.UserProfile, int, error)
}

type runArchive interface {
	Put(ctx context.Context, s *domain.RunSummary) error
}

type service struct {
	events      eventSource
	users       userSource
	ledger      ledgerStore
	dispatcher  *Dispatcher
	archive     runArchive
	districts   *geo.Table
	loc         *time.Location
	horizonDays int
	workers     int
	clock       func() time.Time
	logger      *slog.Logger
}

type ServiceDeps struct {
	Events      eventSource
	Users       userSource
	Ledger      ledgerStore
	Sink        Sink
	Archive     runArchive // optional
	Districts   *geo.Table // defaults to geo.DefaultTable
	Location    *time.Location
	HorizonDays int
	Workers     int
	SinkTimeout time.Duration
	Clock       func() time.Time
	Logger      *slog.Logger
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		events:      deps.Events,
		users:       deps.Users,
		ledger:      deps.Ledger,
		archive:     deps.Archive,
		districts:   deps.Districts,
		loc:         deps.Location,
		horizonDays: deps.HorizonDays,
		workers:     deps.Workers,
		clock:       deps.Clock,
		logger:      deps.Logger,
	}
	if s.districts == nil {
		s.districts = geo.DefaultTable
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.horizonDays <= 0 {
		s.horizonDays = 3
	}
	if s.workers < 1 {
		s.workers = 1
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.dispatcher = NewDispatcher(deps.Ledger, deps.Sink, deps.SinkTimeout, s.logger)
	s.dispatcher.clock = s.clock
	return s
}

func (s *service) Districts() *geo.Table { return s.districts }

func (s *service) ListForUser(ctx context.Context, userID string) ([]domain.LedgerEntry, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required: %w", domain.ErrBadRequest)
	}
	entries, err := s.ledger.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// Run executes one batch pass: select candidate events, load users, and
// dispatch every eligible (user, event) pair not yet in the ledger.
//
// The returned summary is always non-nil. The error is non-nil when a source
// collection could not be read (wrapping domain.ErrSourceUnavailable) or the
// context was cancelled during matching.
func (s *service) Run(ctx context.Context, opts RunOptions) (*domain.RunSummary, error) {
	started := s.clock()
	now := opts.Now
	if now.IsZero() {
		now = started
	}
	now = now.In(s.loc)
	horizon := s.horizonDays
	if opts.HorizonDays != nil {
		horizon = max(*opts.HorizonDays, 0)
	}
	workers := opts.Workers
	if workers < 1 {
		workers = s.workers
	}

	runID := id.NewAt(started)
	logger := s.logger.With("run_id", runID)
	ctx = contextWithRunID(ctx, runID)
	r := newRun(domain.RunSummary{
		RunID:                runID,
		Now:                  now,
		HorizonDays:          horizon,
		DistrictTableVersion: s.districts.Version,
		StartedAt:            started.UTC(),
	}, logger)

	r.transition(domain.RunFetchingCandidates)
	from, to := WindowBounds(now, horizon)
	catalog, badEvents, err := s.events.ListByDateRange(ctx, from, to)
	if err != nil {
		return s.fail(ctx, r, started, fmt.Errorf("fetch events %s..%s: %w: %w", from, to, domain.ErrSourceUnavailable, err))
	}
	events := SelectWindow(catalog, now, horizon)
	r.summary.EventsConsidered = len(events)
	logger.Info("candidate events selected", "from", from, "to", to, "count", len(events), "undecodable", badEvents)
	if len(events) == 0 && badEvents == 0 {
		r.transition(domain.RunDone)
		return s.finish(ctx, r, started), nil
	}

	r.transition(domain.RunFetchingUsers)
	profiles, badUsers, err := s.users.ListAll(ctx)
	if err != nil {
		return s.fail(ctx, r, started, fmt.Errorf("fetch profiles: %w: %w", domain.ErrSourceUnavailable, err))
	}
	r.summary.UsersConsidered = len(profiles)
	if badUsers > 0 {
		logger.Warn("undecodable profiles, their pairs will be skipped", "count", badUsers)
	}
	// Pairs involving an undecodable record never reach the pool.
	total := (len(events) + badEvents) * (len(profiles) + badUsers)
	if skipped := total - len(events)*len(profiles); skipped > 0 {
		metrics.PairOutcomes.WithLabelValues(pairMalformed.String()).Add(float64(skipped))
		r.skipMalformed(skipped)
	}

	r.transition(domain.RunMatching)
	s.match(ctx, r, prepareEvents(events, logger), s.prepareUsers(profiles, logger), now, workers)

	if err := ctx.Err(); err != nil {
		r.transition(domain.RunAborted)
		return s.finish(ctx, r, started), fmt.Errorf("run aborted: %w", err)
	}
	r.transition(domain.RunDone)
	return s.finish(ctx, r, started), nil
}

type candidate struct {
	event    domain.Event
	locality string // normalized
	err      error
}

type recipient struct {
	profile  domain.UserProfile
	interest Interest
	err      error
}

func prepareEvents(events []domain.Event, logger *slog.Logger) []candidate {
	out := make([]candidate, len(events))
	for i, e := range events {
		out[i] = candidate{event: e, locality: geo.Normalize(e.Locality), err: validate.Record(e)}
		if out[i].err != nil {
			logger.Warn("malformed event, its pairs will be skipped", "event_id", e.EventID, "error", out[i].err)
		}
	}
	return out
}

// prepareUsers normalizes and resolves each profile's districts once per run.
func (s *service) prepareUsers(profiles []domain.UserProfile, logger *slog.Logger) []recipient {
	out := make([]recipient, len(profiles))
	for i, p := range profiles {
		out[i] = recipient{profile: p, err: validate.Record(p)}
		if out[i].err != nil {
			logger.Warn("malformed profile, its pairs will be skipped", "user_id", p.UserID, "error", out[i].err)
			continue
		}
		out[i].interest = NewInterest(s.districts, p.Districts)
	}
	return out
}

type pair struct {
	c *candidate
	u *recipient
}

// match streams the event × user cross-product through a bounded worker pool.
// The product is never materialized; the producer stops feeding as soon as
// ctx is cancelled and workers skip whatever is still queued.
func (s *service) match(ctx context.Context, r *run, events []candidate, users []recipient, now time.Time, workers int) {
	ch := make(chan pair, workers*2)
	go func() {
		defer close(ch)
		for i := range events {
			for j := range users {
				select {
				case ch <- pair{c: &events[i], u: &users[j]}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range ch {
				if ctx.Err() != nil {
					continue
				}
				res := s.process(ctx, r.logger, p, now)
				metrics.RecordPair(res.String())
				r.tally(res)
			}
		}()
	}
	wg.Wait()
}

func (s *service) process(ctx context.Context, logger *slog.Logger, p pair, now time.Time) pairResult {
	if p.c.err != nil || p.u.err != nil {
		return pairMalformed
	}
	if !p.u.interest.matches(p.c.locality) {
		return pairIneligible
	}

	userID, eventID := p.u.profile.UserID, p.c.event.EventID
	out := s.dispatcher.TryDispatch(ctx, userID, eventID, Compose(p.c.event, now))
	switch {
	case out.Delivered():
		metrics.SinkDeliveries.WithLabelValues("ok").Inc()
		logger.Debug("notification created", "user_id", userID, "event_id", eventID)
		return pairCreated
	case out.Kind == Created:
		metrics.SinkDeliveries.WithLabelValues("error").Inc()
		logger.Warn("notification ledgered but not delivered", "user_id", userID, "event_id", eventID, "error", out.Err)
		return pairUndelivered
	case out.Kind == AlreadyExists:
		return pairAlreadyNotified
	default:
		logger.Warn("dispatch failed", "user_id", userID, "event_id", eventID, "error", out.Err)
		return pairFailed
	}
}

func (s *service) fail(ctx context.Context, r *run, started time.Time, err error) (*domain.RunSummary, error) {
	r.transition(domain.RunFailed)
	summary := s.finish(ctx, r, started)
	r.logger.Error("event notification run failed", "error", err)
	return summary, err
}

func (s *service) finish(ctx context.Context, r *run, started time.Time) *domain.RunSummary {
	elapsed := s.clock().Sub(started)
	summary := r.snapshot()
	summary.DurationMs = elapsed.Milliseconds()

	metrics.RecordRun(string(summary.State), elapsed.Seconds(), summary.NotificationsCreated)
	r.logger.Info("event notification run complete",
		"state", summary.State,
		"events_considered", summary.EventsConsidered,
		"users_considered", summary.UsersConsidered,
		"notifications_created", summary.NotificationsCreated,
		"already_notified", summary.AlreadyNotified,
		"failed", summary.Failed,
		"delivery_failures", summary.DeliveryFailures,
		"malformed", summary.Malformed,
		"duration_ms", summary.DurationMs,
	)

	if s.archive != nil {
		if err := s.archive.Put(context.WithoutCancel(ctx), &summary); err != nil {
			r.logger.Warn("could not archive run summary", "error", err)
		}
	}
	return &summary
}
