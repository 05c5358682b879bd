package recurrence

import (
	"fmt"
	"time"
)

const (
	DefaultMaxOccurrences = 100
	// DefaultHorizon bounds expansion of rules without an end date.
	DefaultHorizon = 365 * 24 * time.Hour
)

// Expander turns a seed event and a rule into the concrete events of a
// series. The zero value is ready to use.
type Expander struct {
	MonthEnd MonthEndPolicy
	// MaxOccurrences replaces DefaultMaxOccurrences for rules that set no cap.
	MaxOccurrences int
	// Now is consulted only when Expand is given a zero horizon.
	Now func() time.Time
}

var defaultExpander Expander

// Expand expands seed with the default Expander.
func Expand(seed Event, rule Rule, horizon time.Time) []Event {
	return defaultExpander.Expand(seed, rule, horizon)
}

// Expand returns seed followed by every generated occurrence, in start order.
// Generation stops at rule.MaxOccurrences (seed included) or at the first
// candidate later than rule.EndDate, or later than horizon when the rule has
// no end date. A zero horizon means Now()+DefaultHorizon.
func (x Expander) Expand(seed Event, rule Rule, horizon time.Time) []Event {
	events := []Event{seed}
	if rule.Pattern == nil {
		return events
	}

	limit := rule.MaxOccurrences
	if limit <= 0 {
		limit = x.defaultLimit()
	}
	end, ok := rule.EndDate.Get()
	if !ok {
		end = x.horizon(horizon)
	}

	s := stepper{monthEnd: x.MonthEnd, anchorDay: seed.Start.Day()}
	current := seed.Start
	for n := 1; len(events) < limit; n++ {
		next := rule.Pattern.step(current, s)
		if next.After(end) {
			break
		}
		occurrence := seed
		occurrence.ID = fmt.Sprintf("%s_%d", seed.ID, n)
		occurrence.SeriesID = seed.ID
		occurrence.Start = next
		events = append(events, occurrence)
		current = next
	}
	return events
}

func (x Expander) defaultLimit() int {
	if x.MaxOccurrences > 0 {
		return x.MaxOccurrences
	}
	return DefaultMaxOccurrences
}

func (x Expander) horizon(h time.Time) time.Time {
	if !h.IsZero() {
		return h
	}
	now := time.Now
	if x.Now != nil {
		now = x.Now
	}
	return now().Add(DefaultHorizon)
}
