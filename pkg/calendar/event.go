package calendar

import (
	"fmt"
	"strings"

	"github.com/atul-gupta2002/Custom-Event-Calendar/pkg/recurrence"
)

type Event = recurrence.Event

// validate checks what the engine itself does not: a title and a start.
// Rule fields are normalized by the engine and never rejected here.
func validate(e Event) error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidEvent)
	}
	if e.Start.IsZero() {
		return fmt.Errorf("%w: start is required", ErrInvalidEvent)
	}
	if end, ok := e.Recurrence.EndDate.Get(); ok && end.Before(e.Start) && e.Recurrence.IsRecurring() {
		return fmt.Errorf("%w: recurrence end date %s is before the start", ErrInvalidEvent, end.Format("2006-01-02"))
	}
	return nil
}
