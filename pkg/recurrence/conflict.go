package recurrence

// Overlaps reports whether the half-open windows [a.Start, a.End()) and
// [b.Start, b.End()) intersect. Back-to-back events do not overlap.
func Overlaps(a, b Event) bool {
	return a.Start.Before(b.End()) && b.Start.Before(a.End())
}

// FindConflicts returns the members of pool whose window overlaps the
// candidate's, in pool order. The event whose id equals excludeID is skipped;
// an empty excludeID skips nothing.
func FindConflicts(candidate Event, pool []Event, excludeID string) []Event {
	var conflicts []Event
	for _, e := range pool {
		if excludeID != "" && e.ID == excludeID {
			continue
		}
		if Overlaps(candidate, e) {
			conflicts = append(conflicts, e)
		}
	}
	return conflicts
}

// Conflict pairs a candidate occurrence with an existing event it overlaps.
type Conflict struct {
	Event Event
	With  Event
}

// FindSeriesConflicts checks every candidate occurrence against pool.
func FindSeriesConflicts(candidates []Event, pool []Event) []Conflict {
	var conflicts []Conflict
	for _, c := range candidates {
		for _, e := range FindConflicts(c, pool, "") {
			conflicts = append(conflicts, Conflict{Event: c, With: e})
		}
	}
	return conflicts
}
