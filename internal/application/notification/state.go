package notification

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/go-event-notifier/internal/domain"
)

// transitions lists the legal moves of a run. FetchingCandidates may go
// straight to Done when the window is empty; Aborted is the cancelled
// counterpart of Done and leaves unprocessed pairs to the next run.
var transitions = map[domain.RunState][]domain.RunState{
	domain.RunIdle:               {domain.RunFetchingCandidates},
	domain.RunFetchingCandidates: {domain.RunFetchingUsers, domain.RunDone, domain.RunFailed},
	domain.RunFetchingUsers:      {domain.RunMatching, domain.RunFailed},
	domain.RunMatching:           {domain.RunDone, domain.RunAborted},
}

func validTransition(from, to domain.RunState) bool {
	return slices.Contains(transitions[from], to)
}

// run is the mutable state of one batch pass.
type run struct {
	mu      sync.Mutex
	summary domain.RunSummary
	logger  *slog.Logger
}

func newRun(summary domain.RunSummary, logger *slog.Logger) *run {
	summary.State = domain.RunIdle
	return &run{summary: summary, logger: logger}
}

func (r *run) state() domain.RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary.State
}

// transition moves the run to the next state. Only the orchestrator calls it,
// so an illegal move is a programming error.
func (r *run) transition(to domain.RunState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	from := r.summary.State
	if !validTransition(from, to) {
		panic(fmt.Sprintf("notification run: illegal transition %s -> %s", from, to))
	}
	r.summary.State = to
	r.logger.Debug("run state", "from", from, "to", to)
}

// pairResult classifies one (user, event) pair after the pipeline.
type pairResult int

const (
	pairIneligible pairResult = iota
	pairMalformed
	pairCreated
	pairUndelivered // ledger entry created, sink failed
	pairAlreadyNotified
	pairFailed
)

func (p pairResult) String() string {
	switch p {
	case pairIneligible:
		return "ineligible"
	case pairMalformed:
		return "malformed"
	case pairCreated, pairUndelivered:
		return "created"
	case pairAlreadyNotified:
		return "already_exists"
	default:
		return "failed"
	}
}

func (r *run) tally(p pairResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &r.summary
	s.PairsEvaluated++
	switch p {
	case pairMalformed:
		s.Malformed++
		s.Failed++
	case pairCreated:
		s.Eligible++
		s.NotificationsCreated++
	case pairUndelivered:
		s.Eligible++
		s.NotificationsCreated++
		s.DeliveryFailures++
		s.Failed++
	case pairAlreadyNotified:
		s.Eligible++
		s.AlreadyNotified++
	case pairFailed:
		s.Eligible++
		s.Failed++
	}
}

// skipMalformed counts n pairs that were dropped before evaluation because
// one side could not be decoded from the store.
func (r *run) skipMalformed(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.PairsEvaluated += n
	r.summary.Malformed += n
	r.summary.Failed += n
}

func (r *run) snapshot() domain.RunSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary
}
