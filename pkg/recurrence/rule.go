package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/mo"
)

type Kind string

const (
	KindNone    Kind = "none"
	KindDaily   Kind = "daily"
	KindWeekly  Kind = "weekly"
	KindMonthly Kind = "monthly"
	KindCustom  Kind = "custom"
)

// ParseKind accepts the wire names of the recurrence kinds. An empty string
// is treated as none.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindNone, nil
	case KindNone, KindDaily, KindWeekly, KindMonthly, KindCustom:
		return k, nil
	default:
		return KindNone, fmt.Errorf("unknown recurrence kind %q", s)
	}
}

// Pattern is the stepping part of a rule. The set of implementations is
// closed: Daily, Weekly, Monthly and Custom.
type Pattern interface {
	Kind() Kind
	step(t time.Time, s stepper) time.Time
}

type stepper struct {
	monthEnd  MonthEndPolicy
	anchorDay int
}

type Daily struct{}

func (Daily) Kind() Kind { return KindDaily }

func (Daily) step(t time.Time, _ stepper) time.Time {
	return t.AddDate(0, 0, 1)
}

// Weekly repeats every seven days, or on each of Weekdays when the set is
// not empty.
type Weekly struct {
	Weekdays WeekdaySet
}

func (Weekly) Kind() Kind { return KindWeekly }

func (w Weekly) step(t time.Time, _ stepper) time.Time {
	return weekdayStep(t, w.Weekdays, 1)
}

type Monthly struct{}

func (Monthly) Kind() Kind { return KindMonthly }

func (Monthly) step(t time.Time, s stepper) time.Time {
	return s.monthEnd.addMonths(t, 1, s.anchorDay)
}

// Custom steps by Interval. With Weekdays set it scans for the next listed
// weekday within 7*Interval days; without them it advances Interval months.
type Custom struct {
	Interval int
	Weekdays WeekdaySet
}

func (Custom) Kind() Kind { return KindCustom }

func (c Custom) step(t time.Time, s stepper) time.Time {
	if !c.Weekdays.IsEmpty() {
		return weekdayStep(t, c.Weekdays, c.interval())
	}
	return s.monthEnd.addMonths(t, c.interval(), s.anchorDay)
}

func (c Custom) interval() int {
	if c.Interval <= 0 {
		return 1
	}
	return c.Interval
}

// Rule is a recurrence pattern plus the bounds that stop its expansion.
// The zero Rule does not recur.
type Rule struct {
	Pattern Pattern
	// EndDate is an inclusive bound on occurrence start times.
	EndDate mo.Option[time.Time]
	// MaxOccurrences caps the series length, seed included. Zero or less
	// means DefaultMaxOccurrences.
	MaxOccurrences int
}

func (r Rule) Kind() Kind {
	if r.Pattern == nil {
		return KindNone
	}
	return r.Pattern.Kind()
}

func (r Rule) IsRecurring() bool {
	return r.Pattern != nil
}

func (r Rule) Until(end time.Time) Rule {
	r.EndDate = mo.Some(end)
	return r
}

func (r Rule) Limit(n int) Rule {
	r.MaxOccurrences = n
	return r
}

// RuleParts is the flat shape a rule takes in storage and on the wire.
type RuleParts struct {
	Kind           Kind
	Interval       int
	Weekdays       WeekdaySet
	EndDate        mo.Option[time.Time]
	MaxOccurrences int
}

// NewRule assembles a Rule from its flat parts. Fields that the kind does
// not use are dropped.
func NewRule(p RuleParts) (Rule, error) {
	rule := Rule{EndDate: p.EndDate, MaxOccurrences: p.MaxOccurrences}
	switch p.Kind {
	case KindNone, "":
		return Rule{}, nil
	case KindDaily:
		rule.Pattern = Daily{}
	case KindWeekly:
		rule.Pattern = Weekly{Weekdays: p.Weekdays}
	case KindMonthly:
		rule.Pattern = Monthly{}
	case KindCustom:
		interval := p.Interval
		if interval <= 0 {
			interval = 1
		}
		rule.Pattern = Custom{Interval: interval, Weekdays: p.Weekdays}
	default:
		return Rule{}, fmt.Errorf("unknown recurrence kind %q", p.Kind)
	}
	return rule, nil
}

// Parts flattens r. Interval is reported as 1 for every kind except custom.
func (r Rule) Parts() RuleParts {
	parts := RuleParts{Kind: r.Kind(), EndDate: r.EndDate, MaxOccurrences: r.MaxOccurrences}
	switch p := r.Pattern.(type) {
	case nil:
		return RuleParts{Kind: KindNone}
	case Weekly:
		parts.Interval = 1
		parts.Weekdays = p.Weekdays
	case Custom:
		parts.Interval = p.interval()
		parts.Weekdays = p.Weekdays
	default:
		parts.Interval = 1
	}
	return parts
}
