package app

import (
	"github.com/atul-gupta2002/Custom-Event-Calendar/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

// subscribeAuditLog logs every calendar change at info level.
func subscribeAuditLog(bus *event_bus.EventBus) {
	event_bus.SubscribeTyped(bus, event_bus.CalendarSeriesReplaced, func(e event_bus.EventT[event_bus.SeriesReplaced]) error {
		log.WithFields(log.Fields{
			"series":  e.Data.SeriesID,
			"kind":    e.Data.RecurrenceKind,
			"removed": e.Data.Removed,
			"created": e.Data.Created,
			"first":   e.Data.FirstStart,
			"last":    e.Data.LastStart,
		}).Infof("series %q saved", e.Data.Title)
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.CalendarSeriesDeleted, func(e event_bus.EventT[event_bus.SeriesDeleted]) error {
		log.WithFields(log.Fields{
			"series":  e.Data.SeriesID,
			"removed": e.Data.Removed,
		}).Info("series deleted")
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.CalendarEventRescheduled, func(e event_bus.EventT[event_bus.EventRescheduled]) error {
		log.WithFields(log.Fields{
			"event":     e.Data.EventID,
			"series":    e.Data.SeriesID,
			"from":      e.Data.From,
			"to":        e.Data.To,
			"detached":  e.Data.Detached,
			"conflicts": e.Data.Conflicts,
		}).Info("event rescheduled")
		return nil
	})
}
