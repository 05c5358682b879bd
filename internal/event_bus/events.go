package event_bus

import "time"

const (
	CalendarSeriesReplaced   EventType = "calendar.series.replaced"
	CalendarSeriesDeleted    EventType = "calendar.series.deleted"
	CalendarEventRescheduled EventType = "calendar.event.rescheduled"
)

// SeriesReplaced is published after a series was created or regenerated.
type SeriesReplaced struct {
	SeriesID       string
	Title          string
	RecurrenceKind string
	Removed        int
	Created        int
	// FirstStart and LastStart span the regenerated occurrences.
	FirstStart time.Time
	LastStart  time.Time
}

type SeriesDeleted struct {
	SeriesID string
	Removed  int
}

// EventRescheduled is published when a single event was moved. Detached is
// set when the event left its series to become a standalone event.
type EventRescheduled struct {
	EventID   string
	SeriesID  string
	From      time.Time
	To        time.Time
	Detached  bool
	Conflicts int
}
