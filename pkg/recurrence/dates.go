package recurrence

import (
	"fmt"
	"strings"
	"time"
)

// Date is a calendar day with no time of day attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.In(time.UTC).AddDate(0, 0, n))
}

func (d Date) Weekday() time.Weekday {
	return d.In(time.UTC).Weekday()
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// WeekdaySet is a set of weekdays stored as a bitmask, bit 0 being Sunday.
type WeekdaySet uint8

// NewWeekdaySet builds a set from weekday indices (0=Sunday..6=Saturday).
// Indices outside that range are dropped.
func NewWeekdaySet(days ...int) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		if d < int(time.Sunday) || d > int(time.Saturday) {
			continue
		}
		s |= 1 << uint(d)
	}
	return s
}

func (s WeekdaySet) With(d time.Weekday) WeekdaySet {
	return s | NewWeekdaySet(int(d))
}

func (s WeekdaySet) Has(d time.Weekday) bool {
	return d >= time.Sunday && d <= time.Saturday && s&(1<<uint(d)) != 0
}

func (s WeekdaySet) IsEmpty() bool {
	return s&0x7f == 0
}

// Days returns the members in ascending order.
func (s WeekdaySet) Days() []int {
	days := make([]int, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			days = append(days, int(d))
		}
	}
	return days
}

func (s WeekdaySet) String() string {
	names := make([]string, 0, 7)
	for _, d := range s.Days() {
		names = append(names, time.Weekday(d).String()[:3])
	}
	return "{" + strings.Join(names, ",") + "}"
}

// nextWeekday scans forward one day at a time, strictly after t, for at most
// window days and returns the first day whose weekday is in days.
func nextWeekday(t time.Time, days WeekdaySet, window int) (time.Time, bool) {
	for i := 1; i <= window; i++ {
		next := t.AddDate(0, 0, i)
		if days.Has(next.Weekday()) {
			return next, true
		}
	}
	return time.Time{}, false
}

// weekdayStep advances to the next matching weekday inside a 7*interval day
// window, or jumps 7*interval days when nothing matches.
func weekdayStep(t time.Time, days WeekdaySet, interval int) time.Time {
	window := 7 * interval
	if next, ok := nextWeekday(t, days, window); ok {
		return next
	}
	return t.AddDate(0, 0, window)
}

// MonthEndPolicy decides what a monthly step does when the target month is
// shorter than the day of month being carried.
type MonthEndPolicy int

const (
	// MonthEndOverflow lets the date roll into the following month the way
	// time.AddDate normalizes it: Jan 31 + 1 month = Mar 2 (or Mar 3).
	MonthEndOverflow MonthEndPolicy = iota
	// MonthEndClamp keeps the seed's day of month and clamps it to the last
	// day of shorter months: Jan 31 -> Feb 29 -> Mar 31.
	MonthEndClamp
)

func ParseMonthEndPolicy(s string) (MonthEndPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "overflow":
		return MonthEndOverflow, nil
	case "clamp":
		return MonthEndClamp, nil
	default:
		return MonthEndOverflow, fmt.Errorf("unknown month end policy %q", s)
	}
}

func (p MonthEndPolicy) String() string {
	if p == MonthEndClamp {
		return "clamp"
	}
	return "overflow"
}

// addMonths advances t by n calendar months, keeping the time of day.
// anchorDay is the seed's day of month and only matters for MonthEndClamp.
func (p MonthEndPolicy) addMonths(t time.Time, n int, anchorDay int) time.Time {
	if p != MonthEndClamp {
		return t.AddDate(0, n, 0)
	}
	y, m, _ := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	day := min(anchorDay, daysIn(first.Year(), first.Month()))
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
