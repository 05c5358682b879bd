package calendar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/atul-gupta2002/Custom-Event-Calendar/internal/event_bus"
	"github.com/atul-gupta2002/Custom-Event-Calendar/internal/utils"
	"github.com/atul-gupta2002/Custom-Event-Calendar/pkg/recurrence"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Settings struct {
	// Location is where event starts are normalized to. Defaults to UTC.
	Location *time.Location
	// Horizon bounds expansion of rules without an end date, counted from
	// the clock's now. Zero means recurrence.DefaultHorizon.
	Horizon time.Duration
	// Expander carries the month-end policy and the default occurrence cap.
	Expander recurrence.Expander
}

// Service owns the event store. Every mutation runs under one lock and one
// repository transaction, so a series is never observed half replaced.
type Service struct {
	mu       sync.Mutex
	repo     Repository
	eventBus *event_bus.EventBus
	clock    utils.Clock
	settings Settings
}

func NewService(repo Repository, eventBus *event_bus.EventBus, clock utils.Clock, settings Settings) *Service {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.Horizon <= 0 {
		settings.Horizon = recurrence.DefaultHorizon
	}
	return &Service{
		repo:     repo,
		eventBus: eventBus,
		clock:    clock,
		settings: settings,
	}
}

func (s *Service) Location() *time.Location {
	return s.settings.Location
}

// CreateEvent stores event as the seed of a new series and expands its rule.
// It returns the stored series, or a *ConflictError when any occurrence
// overlaps an existing event.
func (s *Service) CreateEvent(ctx context.Context, event Event) ([]Event, error) {
	if err := validate(event); err != nil {
		return nil, err
	}
	event.ID = uuid.NewString()
	event.SeriesID = event.ID
	event = s.normalize(event)

	s.mu.Lock()
	defer s.mu.Unlock()

	series, err := s.replaceSeries(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	log.Debugf("created series %s with %d events", event.ID, len(series))
	return series, nil
}

// UpdateEvent regenerates the series containing eventId from edited. The
// edited event becomes the seed of the series; all previous members are
// replaced.
func (s *Service) UpdateEvent(ctx context.Context, eventId string, edited Event) ([]Event, error) {
	if err := validate(edited); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.GetEvent(ctx, eventId)
	if err != nil {
		return nil, err
	}
	edited.ID = existing.SeriesKey()
	edited.SeriesID = edited.ID
	edited = s.normalize(edited)

	series, err := s.replaceSeries(ctx, edited)
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	log.Debugf("updated series %s, now %d events", edited.ID, len(series))
	return series, nil
}

// CheckConflicts expands candidate and reports its conflicts without storing
// anything. When candidate has an id its own series is left out of the pool.
func (s *Service) CheckConflicts(ctx context.Context, candidate Event) ([]recurrence.Conflict, error) {
	candidate = s.normalize(candidate)
	pool, err := s.allEvents(ctx, s.repo)
	if err != nil {
		return nil, err
	}
	if candidate.ID != "" {
		pool = recurrence.DeleteSeries(candidate.SeriesKey(), pool)
	}
	occurrences := s.settings.Expander.Expand(candidate, candidate.Recurrence, s.horizon())
	return recurrence.FindSeriesConflicts(occurrences, pool), nil
}

// RescheduleEvent moves one event to start. Conflicts do not block the move;
// they are returned alongside the moved event. A member of a recurring series
// is detached first: it gets a new id, its own series and no rule.
func (s *Service) RescheduleEvent(ctx context.Context, eventId string, start time.Time) (Event, []Event, error) {
	if start.IsZero() {
		return Event{}, nil, fmt.Errorf("%w: start is required", ErrInvalidEvent)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		moved     Event
		previous  time.Time
		detached  bool
		conflicts []Event
	)
	err := s.repo.WithTransaction(ctx, func(repo Repository) error {
		event, err := repo.GetEvent(ctx, eventId)
		if err != nil {
			return err
		}
		pool, err := s.allEvents(ctx, repo)
		if err != nil {
			return err
		}
		previous = event.Start
		moved = event
		moved.Start = start.In(s.settings.Location)

		standalone := !event.Recurrence.IsRecurring() && event.SeriesKey() == event.ID
		if standalone {
			if err := repo.UpdateEvent(ctx, moved); err != nil {
				return err
			}
		} else {
			detached = true
			moved.ID = uuid.NewString()
			moved.SeriesID = moved.ID
			moved.Recurrence = recurrence.Rule{}
			if _, err := repo.DeleteEvents(ctx, []string{event.ID}); err != nil {
				return err
			}
			if err := repo.StoreEvents(ctx, []Event{moved}); err != nil {
				return err
			}
		}
		conflicts = recurrence.FindConflicts(moved, pool, event.ID)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return Event{}, nil, err
		}
		return Event{}, nil, fmt.Errorf("failed to reschedule event: %w", err)
	}

	if len(conflicts) > 0 {
		log.Infof("event %s moved onto %d conflicting events", moved.ID, len(conflicts))
	}
	s.publish(ctx, event_bus.CalendarEventRescheduled, event_bus.EventRescheduled{
		EventID:   moved.ID,
		SeriesID:  moved.SeriesID,
		From:      previous,
		To:        moved.Start,
		Detached:  detached,
		Conflicts: len(conflicts),
	})
	return moved, conflicts, nil
}

// DeleteEvent removes the whole series containing eventId and returns the
// number of events removed.
func (s *Service) DeleteEvent(ctx context.Context, eventId string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var seriesID string
	var removed int
	err := s.repo.WithTransaction(ctx, func(repo Repository) error {
		event, err := repo.GetEvent(ctx, eventId)
		if err != nil {
			return err
		}
		seriesID = event.SeriesKey()
		pool, err := s.allEvents(ctx, repo)
		if err != nil {
			return err
		}
		_, members := recurrence.SplitSeries(seriesID, pool)
		removed, err = repo.DeleteEvents(ctx, ids(members))
		return err
	})
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to delete event: %w", err)
	}

	log.Debugf("deleted series %s (%d events)", seriesID, removed)
	s.publish(ctx, event_bus.CalendarSeriesDeleted, event_bus.SeriesDeleted{SeriesID: seriesID, Removed: removed})
	return removed, nil
}

func (s *Service) GetEvent(ctx context.Context, eventId string) (Event, error) {
	event, err := s.repo.GetEvent(ctx, eventId)
	if err != nil {
		return Event{}, err
	}
	return s.normalize(event), nil
}

// GetEvents returns the events starting in [from, to).
func (s *Service) GetEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	events, err := s.repo.GetEvents(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	for i := range events {
		events[i] = s.normalize(events[i])
	}
	return events, nil
}

func (s *Service) GetAllEvents(ctx context.Context) ([]Event, error) {
	return s.allEvents(ctx, s.repo)
}

func (s *Service) GetDay(ctx context.Context, day recurrence.Date) ([]Event, error) {
	pool, err := s.allEvents(ctx, s.repo)
	if err != nil {
		return nil, err
	}
	return recurrence.OnDay(day, pool), nil
}

func (s *Service) GetMonth(ctx context.Context, year int, month time.Month) ([]recurrence.Cell, error) {
	pool, err := s.allEvents(ctx, s.repo)
	if err != nil {
		return nil, err
	}
	return recurrence.MonthGrid(year, month, pool), nil
}

// ImportEvents creates each event as a new series, one transaction per
// event. Events that conflict with the calendar, or are invalid, are skipped
// and returned in the second slice. Any other error stops the import; the
// series created before it stay stored and are returned with the error.
func (s *Service) ImportEvents(ctx context.Context, events []Event) ([]Event, []Event, error) {
	var created, skipped []Event
	for _, event := range events {
		series, err := s.CreateEvent(ctx, event)
		if err != nil {
			var conflictErr *ConflictError
			if errors.As(err, &conflictErr) || errors.Is(err, ErrInvalidEvent) {
				log.Infof("skipping imported event %q: %v", event.Title, err)
				skipped = append(skipped, event)
				continue
			}
			return created, skipped, err
		}
		created = append(created, series...)
	}
	return created, skipped, nil
}

// replaceSeries must be called with s.mu held.
func (s *Service) replaceSeries(ctx context.Context, seed Event) ([]Event, error) {
	var fresh, stale []Event
	err := s.repo.WithTransaction(ctx, func(repo Repository) error {
		pool, err := s.allEvents(ctx, repo)
		if err != nil {
			return err
		}
		var kept []Event
		kept, stale = recurrence.SplitSeries(seed.ID, pool)
		next := s.settings.Expander.ReplaceSeries(seed, seed.Recurrence, pool, s.horizon())
		fresh = next[len(kept):]

		if conflicts := recurrence.FindSeriesConflicts(fresh, kept); len(conflicts) > 0 {
			return &ConflictError{Conflicts: conflicts}
		}
		if _, err := repo.DeleteEvents(ctx, ids(stale)); err != nil {
			return err
		}
		return repo.StoreEvents(ctx, fresh)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event_bus.CalendarSeriesReplaced, event_bus.SeriesReplaced{
		SeriesID:       seed.ID,
		Title:          seed.Title,
		RecurrenceKind: string(seed.Kind()),
		Removed:        len(stale),
		Created:        len(fresh),
		FirstStart:     fresh[0].Start,
		LastStart:      fresh[len(fresh)-1].Start,
	})
	return fresh, nil
}

func (s *Service) allEvents(ctx context.Context, repo Repository) ([]Event, error) {
	events, err := repo.GetAllEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	for i := range events {
		events[i] = s.normalize(events[i])
	}
	return events, nil
}

// normalize moves the start into the configured location and fills in the
// default colour.
func (s *Service) normalize(e Event) Event {
	e.Start = e.Start.In(s.settings.Location)
	if e.Color == "" {
		e.Color = DefaultColor
	}
	return e
}

func (s *Service) horizon() time.Time {
	return s.clock.Now().Add(s.settings.Horizon)
}

// This may fail after the transaction is committed. The change stays and
// subscribers miss it; they only log.
func (s *Service) publish(ctx context.Context, eventType event_bus.EventType, data any) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(event_bus.NewEvent(ctx, eventType, data)); err != nil {
		log.Errorf("failed to publish %s event: %v", eventType, err)
	}
}

func ids(events []Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.ID)
	}
	return out
}
