package calendar

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atul-gupta2002/Custom-Event-Calendar/pkg/recurrence"
)

var ErrEventNotFound = errors.New("event not found")
var ErrConflict = errors.New("event conflicts with existing events")
var ErrInvalidEvent = errors.New("invalid event")

// ConflictError lists every occurrence of a candidate series that overlaps an
// event already on the calendar.
type ConflictError struct {
	Conflicts []recurrence.Conflict
}

func (e *ConflictError) Error() string {
	titles := make([]string, 0, len(e.Conflicts))
	seen := make(map[string]bool)
	for _, c := range e.Conflicts {
		if seen[c.With.ID] {
			continue
		}
		seen[c.With.ID] = true
		titles = append(titles, fmt.Sprintf("%q at %s", c.With.Title, c.With.Start.Format("2006-01-02 15:04")))
	}
	return fmt.Sprintf("%v: %s", ErrConflict, strings.Join(titles, ", "))
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

type Color struct {
	Name  string
	Value string
}

const DefaultColor = "#3B82F6"

// Palette is the set of colours offered for events.
var Palette = []Color{
	{Name: "Blue", Value: "#3B82F6"},
	{Name: "Green", Value: "#10B981"},
	{Name: "Purple", Value: "#8B5CF6"},
	{Name: "Red", Value: "#EF4444"},
	{Name: "Yellow", Value: "#F59E0B"},
	{Name: "Pink", Value: "#EC4899"},
	{Name: "Gray", Value: "#6B7280"},
}
