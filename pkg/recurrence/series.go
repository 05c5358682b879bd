package recurrence

import (
	"strings"
	"time"
)

// InSeries reports whether e belongs to the series rooted at seriesID: it is
// the seed itself, it names seriesID as its series, or, for records that
// carry no series id, its id has the "{seriesID}_" prefix.
func InSeries(e Event, seriesID string) bool {
	if seriesID == "" {
		return false
	}
	if e.ID == seriesID || e.SeriesID == seriesID {
		return true
	}
	return e.SeriesID == "" && strings.HasPrefix(e.ID, seriesID+"_")
}

// SplitSeries partitions pool into the events outside the series and its
// members. Both slices are new; pool is left untouched.
func SplitSeries(seriesID string, pool []Event) (kept, members []Event) {
	kept = make([]Event, 0, len(pool))
	for _, e := range pool {
		if InSeries(e, seriesID) {
			members = append(members, e)
		} else {
			kept = append(kept, e)
		}
	}
	return kept, members
}

// DeleteSeries returns pool without any member of the series.
func DeleteSeries(seriesID string, pool []Event) []Event {
	kept, _ := SplitSeries(seriesID, pool)
	return kept
}

// ReplaceSeries replaces the series with the default Expander.
func ReplaceSeries(seed Event, rule Rule, pool []Event, horizon time.Time) []Event {
	return defaultExpander.ReplaceSeries(seed, rule, pool, horizon)
}

// ReplaceSeries drops every member of seed's series from pool and appends
// the regenerated series: seed alone when rule does not recur, the full
// expansion otherwise.
func (x Expander) ReplaceSeries(seed Event, rule Rule, pool []Event, horizon time.Time) []Event {
	kept := DeleteSeries(seed.ID, pool)
	if !rule.IsRecurring() {
		return append(kept, seed)
	}
	return append(kept, x.Expand(seed, rule, horizon)...)
}
