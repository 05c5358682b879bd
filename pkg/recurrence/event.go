package recurrence

import "time"

// EventDuration is the fixed length every event occupies on the calendar.
const EventDuration = time.Hour

// Event is a single dated calendar entry: a seed or one generated occurrence.
type Event struct {
	ID string
	// SeriesID is the id of the seed the event belongs to. A seed carries its
	// own id here.
	SeriesID    string
	Title       string
	Start       time.Time
	Description string
	Category    string
	Color       string
	Recurrence  Rule
}

func (e Event) Kind() Kind {
	return e.Recurrence.Kind()
}

// End is the exclusive end of the event's window.
func (e Event) End() time.Time {
	return e.Start.Add(EventDuration)
}

// SeriesKey returns the id identifying the event's series.
func (e Event) SeriesKey() string {
	if e.SeriesID != "" {
		return e.SeriesID
	}
	return e.ID
}
