package app

import (
	"fmt"
	"time"

	"github.com/atul-gupta2002/Custom-Event-Calendar/internal/config"
	"github.com/atul-gupta2002/Custom-Event-Calendar/internal/event_bus"
	"github.com/atul-gupta2002/Custom-Event-Calendar/internal/utils"
	"github.com/atul-gupta2002/Custom-Event-Calendar/pkg/calendar"
	"github.com/atul-gupta2002/Custom-Event-Calendar/pkg/recurrence"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus

	CalendarRepository calendar.Repository
	CalendarService    *calendar.Service
	CalendarHandler    *calendar.Handler
}

// BuildDependencies wires the calendar on top of repo.
func BuildDependencies(repo calendar.Repository, cfg config.Application) (*Dependencies, error) {
	settings, err := calendarSettings(cfg.Calendar)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{}
	deps.Clock = utils.SystemClock{Location: settings.Location}
	deps.EventBus = event_bus.NewEventBus()
	subscribeAuditLog(deps.EventBus)

	deps.CalendarRepository = repo
	deps.CalendarService = calendar.NewService(repo, deps.EventBus, deps.Clock, settings)
	deps.CalendarHandler = calendar.NewHandler(deps.CalendarService)

	return deps, nil
}

func calendarSettings(cfg config.Calendar) (calendar.Settings, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return calendar.Settings{}, fmt.Errorf("invalid calendar.timezone %q: %w", cfg.Timezone, err)
	}
	monthEnd, err := recurrence.ParseMonthEndPolicy(cfg.MonthEnd)
	if err != nil {
		return calendar.Settings{}, fmt.Errorf("invalid calendar.monthend: %w", err)
	}
	if cfg.HorizonDays < 0 || cfg.MaxOccurrences < 0 {
		return calendar.Settings{}, fmt.Errorf("calendar.horizondays and calendar.maxoccurrences must not be negative")
	}
	return calendar.Settings{
		Location: loc,
		Horizon:  time.Duration(cfg.HorizonDays) * 24 * time.Hour,
		Expander: recurrence.Expander{
			MonthEnd:       monthEnd,
			MaxOccurrences: cfg.MaxOccurrences,
		},
	}, nil
}
