package domain

import "time"

// RunState is a state of the batch orchestrator.
type RunState string

const (
	RunIdle               RunState = "idle"
	RunFetchingCandidates RunState = "fetching_candidates"
	RunFetchingUsers      RunState = "fetching_users"
	RunMatching           RunState = "matching"
	RunDone               RunState = "done"
	RunFailed             RunState = "failed"
	RunAborted            RunState = "aborted"
)

// RunSummary is the operational record of one batch pass.
//
// Failed counts every pair that did not finish cleanly: ledger write errors,
// sink delivery failures and malformed records. DeliveryFailures and
// Malformed break that number down.
type RunSummary struct {
	RunID                string    `json:"run_id"`
	State                RunState  `json:"state"`
	Now                  time.Time `json:"now"`
	HorizonDays          int       `json:"horizon_days"`
	DistrictTableVersion string    `json:"district_table_version"`
	EventsConsidered     int       `json:"events_considered"`
	UsersConsidered      int       `json:"users_considered"`
	PairsEvaluated       int       `json:"pairs_evaluated"`
	Eligible             int       `json:"eligible"`
	NotificationsCreated int       `json:"notifications_created"`
	AlreadyNotified      int       `json:"already_notified"`
	Failed               int       `json:"failed"`
	DeliveryFailures     int       `json:"delivery_failures"`
	Malformed            int       `json:"malformed"`
	StartedAt            time.Time `json:"started_at"`
	DurationMs           int64     `json:"duration_ms"`
}
