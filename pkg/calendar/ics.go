package calendar

import (
	"fmt"
	"io"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/atul-gupta2002/Custom-Event-Calendar/pkg/recurrence"
	"github.com/samber/mo"
)

const productId = "-//Custom Event Calendar//EN"

// EncodeICS renders events as an iCalendar document. A series is written
// once, as its seed with an RRULE; occurrences are only written on their own
// when their seed is not among events.
//
// The RRULE is bounded by the number of stored members, so other clients
// never show more occurrences than the calendar holds. Their dates can still
// differ: an RFC 5545 reader skips months without the seed's day where the
// expander rolls over or clamps, and a detached occurrence reappears on its
// rule date.
func EncodeICS(events []Event, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productId)

	seeds := make(map[string]bool)
	members := make(map[string]int)
	for _, e := range events {
		members[e.SeriesKey()]++
		if e.ID == e.SeriesKey() {
			seeds[e.ID] = true
		}
	}

	for _, e := range events {
		isSeed := e.ID == e.SeriesKey()
		if !isSeed && seeds[e.SeriesKey()] {
			continue
		}

		ve := cal.AddEvent(e.ID)
		ve.SetDtStampTime(stamp)
		ve.SetSummary(e.Title)
		ve.SetStartAt(e.Start)
		ve.SetEndAt(e.End())
		if e.Description != "" {
			ve.SetDescription(e.Description)
		}
		if e.Category != "" {
			ve.SetProperty(ics.ComponentPropertyCategories, e.Category)
		}
		if e.Color != "" {
			ve.SetProperty(ics.ComponentPropertyColor, e.Color)
		}
		if !isSeed {
			ve.SetProperty(ics.ComponentPropertyRelatedTo, e.SeriesKey())
			continue
		}
		if e.Recurrence.IsRecurring() {
			ve.AddRrule(recurrence.FormatRRule(exportRule(e.Recurrence, members[e.ID])))
		}
	}
	return cal.Serialize()
}

// exportRule bounds rule by the stored member count unless the series
// reached the rule's own cap. A series also stops at the horizon or at the
// configured default cap, which other clients know nothing about. COUNT then
// replaces UNTIL, which RFC 5545 forbids next to it.
func exportRule(rule recurrence.Rule, stored int) recurrence.Rule {
	if rule.MaxOccurrences > 0 && stored >= rule.MaxOccurrences {
		return rule
	}
	rule.EndDate = mo.None[time.Time]()
	return rule.Limit(stored)
}

// DecodeICS reads the VEVENTs of an iCalendar document as seed events with
// starts in loc. Overridden instances (RECURRENCE-ID) are dropped; an RRULE
// the engine cannot express fails the whole import.
func DecodeICS(r io.Reader, loc *time.Location) ([]Event, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("%w: could not parse calendar: %v", ErrInvalidEvent, err)
	}

	var events []Event
	for _, ve := range cal.Events() {
		if ve.GetProperty(ics.ComponentPropertyRecurrenceId) != nil {
			continue
		}
		uid := ve.Id()
		start, err := ve.GetStartAt()
		if err != nil {
			return nil, fmt.Errorf("%w: event %q has no usable start: %v", ErrInvalidEvent, uid, err)
		}

		event := Event{
			Title:       propertyValue(ve, ics.ComponentPropertySummary),
			Start:       start.In(loc),
			Description: propertyValue(ve, ics.ComponentPropertyDescription),
			Category:    propertyValue(ve, ics.ComponentPropertyCategories),
			Color:       propertyValue(ve, ics.ComponentPropertyColor),
		}
		if rrule := propertyValue(ve, ics.ComponentPropertyRrule); rrule != "" {
			rule, err := recurrence.ParseRRule(rrule, event.Start)
			if err != nil {
				return nil, fmt.Errorf("%w: event %q: %v", ErrInvalidEvent, uid, err)
			}
			event.Recurrence = rule
		}
		events = append(events, event)
	}
	return events, nil
}

func propertyValue(ve *ics.VEvent, property ics.ComponentProperty) string {
	p := ve.GetProperty(property)
	if p == nil {
		return ""
	}
	return p.Value
}
