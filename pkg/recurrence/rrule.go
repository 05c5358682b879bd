package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/samber/mo"
	"github.com/teambition/rrule-go"
)

var ErrUnsupportedRRule = errors.New("unsupported RRULE")

// indexed by time.Weekday
var rruleWeekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// ParseRRule maps an RFC 5545 RRULE onto a Rule. Only what the expander can
// honour is accepted: FREQ=DAILY|WEEKLY|MONTHLY, INTERVAL, plain BYDAY for
// weekly rules, COUNT and UNTIL. start is the series start, used to pick
// the weekday of an interval-weekly rule that lists no BYDAY.
func ParseRRule(s string, start time.Time) (Rule, error) {
	opt, err := rrule.StrToROption(s)
	if err != nil {
		return Rule{}, fmt.Errorf("parse RRULE %q: %w", s, err)
	}
	if len(opt.Bysetpos) > 0 || len(opt.Bymonth) > 0 || len(opt.Bymonthday) > 0 || len(opt.Byyearday) > 0 ||
		len(opt.Byweekno) > 0 || len(opt.Byhour) > 0 || len(opt.Byminute) > 0 || len(opt.Bysecond) > 0 ||
		len(opt.Byeaster) > 0 {
		return Rule{}, fmt.Errorf("%w: only BYDAY is supported: %s", ErrUnsupportedRRule, s)
	}

	var days WeekdaySet
	for _, wd := range opt.Byweekday {
		if wd.N() != 0 {
			return Rule{}, fmt.Errorf("%w: ordinal BYDAY: %s", ErrUnsupportedRRule, s)
		}
		days = days.With(time.Weekday((wd.Day() + 1) % 7))
	}

	rule := Rule{MaxOccurrences: opt.Count}
	if !opt.Until.IsZero() {
		rule.EndDate = mo.Some(opt.Until)
	}
	interval := max(opt.Interval, 1)

	switch opt.Freq {
	case rrule.DAILY:
		if interval > 1 || !days.IsEmpty() {
			return Rule{}, fmt.Errorf("%w: daily rules take no INTERVAL or BYDAY: %s", ErrUnsupportedRRule, s)
		}
		rule.Pattern = Daily{}
	case rrule.WEEKLY:
		if interval == 1 {
			rule.Pattern = Weekly{Weekdays: days}
			break
		}
		if days.IsEmpty() {
			days = days.With(start.Weekday())
		}
		rule.Pattern = Custom{Interval: interval, Weekdays: days}
	case rrule.MONTHLY:
		if !days.IsEmpty() {
			return Rule{}, fmt.Errorf("%w: monthly rules take no BYDAY: %s", ErrUnsupportedRRule, s)
		}
		if interval == 1 {
			rule.Pattern = Monthly{}
		} else {
			rule.Pattern = Custom{Interval: interval}
		}
	default:
		return Rule{}, fmt.Errorf("%w: frequency %v: %s", ErrUnsupportedRRule, opt.Freq, s)
	}
	return rule, nil
}

// FormatRRule renders r as an RRULE value (without the "RRULE:" prefix).
// A rule that does not recur renders as "".
func FormatRRule(r Rule) string {
	if r.Pattern == nil {
		return ""
	}
	opt := rrule.ROption{Count: max(r.MaxOccurrences, 0)}
	if end, ok := r.EndDate.Get(); ok {
		opt.Until = end
	}
	switch p := r.Pattern.(type) {
	case Daily:
		opt.Freq = rrule.DAILY
	case Weekly:
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = toRRuleWeekdays(p.Weekdays)
	case Monthly:
		opt.Freq = rrule.MONTHLY
	case Custom:
		if p.interval() > 1 {
			opt.Interval = p.interval()
		}
		if p.Weekdays.IsEmpty() {
			opt.Freq = rrule.MONTHLY
		} else {
			opt.Freq = rrule.WEEKLY
			opt.Byweekday = toRRuleWeekdays(p.Weekdays)
		}
	}
	return opt.RRuleString()
}

func toRRuleWeekdays(s WeekdaySet) []rrule.Weekday {
	days := s.Days()
	if len(days) == 0 {
		return nil
	}
	out := make([]rrule.Weekday, 0, len(days))
	for _, d := range days {
		out = append(out, rruleWeekdays[d])
	}
	return out
}
