package notification

import (
	"slices"
	"strings"

	"github.com/go-event-notifier/internal/domain"
	"github.com/go-event-notifier/internal/pkg/geo"
)

// Interest is what a user is matched on, already normalized. Events tagged
// with a district code hit Districts exactly; free-text localities hit
// Localities as substrings.
type Interest struct {
	Districts  []string
	Localities []string
}

// NewInterest normalizes a user's declared districts and resolves them
// against table.
func NewInterest(table *geo.Table, districts []string) Interest {
	var in Interest
	for _, d := range districts {
		if n := geo.Normalize(d); n != "" && !slices.Contains(in.Districts, n) {
			in.Districts = append(in.Districts, n)
		}
	}
	for _, l := range table.Resolve(districts) {
		in.Localities = append(in.Localities, geo.Normalize(l))
	}
	return in
}

// IsEligible reports whether the event's locality matches the user's
// interest. A district code must equal a declared district. A place name
// matches when it equals or contains a resolved locality, so "Legazpi City"
// matches "Legazpi". Over-broad hits are accepted.
func IsEligible(event domain.Event, in Interest) bool {
	return in.matches(geo.Normalize(event.Locality))
}

// matches takes an already normalized locality.
func (in Interest) matches(loc string) bool {
	if loc == "" {
		return false
	}
	if slices.Contains(in.Districts, loc) {
		return true
	}
	for _, want := range in.Localities {
		if want != "" && strings.Contains(loc, want) {
			return true
		}
	}
	return false
}
