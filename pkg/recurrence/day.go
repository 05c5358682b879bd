package recurrence

import "time"

// OnDay returns the events whose start falls on day, keeping pool order.
// Time of day is ignored; the day is read in each start's own location.
func OnDay(day Date, pool []Event) []Event {
	var events []Event
	for _, e := range pool {
		if DateOf(e.Start) == day {
			events = append(events, e)
		}
	}
	return events
}

// Between returns the events starting in [from, to), keeping pool order.
func Between(from, to time.Time, pool []Event) []Event {
	var events []Event
	for _, e := range pool {
		if !e.Start.Before(from) && e.Start.Before(to) {
			events = append(events, e)
		}
	}
	return events
}

// GridCells is the size of a month grid: six weeks of seven days.
const GridCells = 42

// Cell is one square of a month grid. Blank cells pad the grid before the
// first and after the last day of the month.
type Cell struct {
	Blank  bool
	Date   Date
	Events []Event
}

// MonthGrid lays out a month as 42 cells starting on Sunday, with the
// events of each day looked up from pool.
func MonthGrid(year int, month time.Month, pool []Event) []Cell {
	first := Date{Year: year, Month: month, Day: 1}
	// normalizes out-of-range months, e.g. month 13
	first = DateOf(first.In(time.UTC))
	days := daysIn(first.Year, first.Month)

	cells := make([]Cell, 0, GridCells)
	for i := 0; i < int(first.Weekday()); i++ {
		cells = append(cells, Cell{Blank: true})
	}
	for d := 0; d < days; d++ {
		date := first.AddDays(d)
		cells = append(cells, Cell{Date: date, Events: OnDay(date, pool)})
	}
	for len(cells) < GridCells {
		cells = append(cells, Cell{Blank: true})
	}
	return cells
}
