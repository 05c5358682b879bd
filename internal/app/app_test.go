package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/atul-gupta2002/Custom-Event-Calendar/internal/config"
	"github.com/atul-gupta2002/Custom-Event-Calendar/internal/event_bus"
	"github.com/atul-gupta2002/Custom-Event-Calendar/internal/rest"
	"github.com/atul-gupta2002/Custom-Event-Calendar/pkg/calendar"
	"github.com/atul-gupta2002/Custom-Event-Calendar/pkg/recurrence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() config.Application {
	cfg := config.Defaults()
	cfg.Storage.Driver = StorageMemory
	return cfg
}

func setupApp(t *testing.T, cfg config.Application) *Application {
	t.Helper()
	a, err := newApplication(context.Background(), cfg)
	require.NoError(t, err)
	return a
}

func serve(t *testing.T, a *Application, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, target, &payload)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestNewApplication(t *testing.T) {
	t.Run("should reject an unknown storage driver", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.Storage.Driver = "sqlite"

		_, err := newApplication(context.Background(), cfg)

		assert.ErrorContains(t, err, "unknown storage.driver")
	})

	t.Run("should reject an unknown timezone", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.Calendar.Timezone = "Mars/Olympus"

		_, err := newApplication(context.Background(), cfg)

		assert.ErrorContains(t, err, "calendar.timezone")
	})

	t.Run("should reject an unknown month end policy", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.Calendar.MonthEnd = "wrap"

		_, err := newApplication(context.Background(), cfg)

		assert.ErrorContains(t, err, "calendar.monthend")
	})

	t.Run("should listen on the configured port", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.Port = 9191

		a := setupApp(t, cfg)

		assert.Equal(t, ":9191", a.srv.Addr)
	})
}

func TestCalendarSettings(t *testing.T) {
	settings, err := calendarSettings(config.Calendar{Timezone: "Europe/Warsaw", HorizonDays: 30, MaxOccurrences: 10, MonthEnd: "clamp"})

	require.NoError(t, err)
	assert.Equal(t, "Europe/Warsaw", settings.Location.String())
	assert.Equal(t, 30*24*time.Hour, settings.Horizon)
	assert.Equal(t, recurrence.MonthEndClamp, settings.Expander.MonthEnd)
	assert.Equal(t, 10, settings.Expander.MaxOccurrences)
}

func TestRoutes(t *testing.T) {
	a := setupApp(t, memoryConfig())
	var deleted []event_bus.SeriesDeleted
	event_bus.SubscribeTyped(a.deps.EventBus, event_bus.CalendarSeriesDeleted, func(e event_bus.EventT[event_bus.SeriesDeleted]) error {
		deleted = append(deleted, e.Data)
		return nil
	})
	// a Monday; rules carry an end date so the expansion horizon is not involved
	start := time.Date(2030, 3, 4, 9, 0, 0, 0, time.UTC)

	// create
	w := serve(t, a, http.MethodPost, "/api/calendar/event", calendar.EventDTO{
		Title:      "Standup",
		Start:      start,
		Recurrence: "weekly",
		Rule:       &calendar.RuleDTO{Weekdays: []int{1, 3, 5}, MaxOccurrences: 5, EndDate: "2030-03-31"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created []calendar.EventDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	require.Len(t, created, 5)

	// conflict
	w = serve(t, a, http.MethodPost, "/api/calendar/event", calendar.EventDTO{Title: "Clash", Start: start.Add(30 * time.Minute)})
	assert.Equal(t, http.StatusConflict, w.Code)

	// day and month views
	w = serve(t, a, http.MethodGet, "/api/calendar/day?date=2030-03-06", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var day []calendar.EventDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&day))
	require.Len(t, day, 1)
	assert.Equal(t, created[1].ID, day[0].ID)

	w = serve(t, a, http.MethodGet, "/api/calendar/month?year=2030&month=3", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(t, a, http.MethodGet, "/api/calendar/event?from=2030-03-01T00:00:00Z&to=2030-04-01T00:00:00Z", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// reschedule one occurrence
	w = serve(t, a, http.MethodPatch, "/api/calendar/event/"+created[2].ID+"/start", calendar.RescheduleDTO{Start: start.Add(4*24*time.Hour + 2*time.Hour)})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// dry run, colors and export
	w = serve(t, a, http.MethodPost, "/api/calendar/conflicts", calendar.EventDTO{Title: "Dry run", Start: start})
	assert.Equal(t, http.StatusOK, w.Code)
	w = serve(t, a, http.MethodGet, "/api/calendar/colors", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = serve(t, a, http.MethodGet, "/api/calendar/export.ics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "BEGIN:VCALENDAR")

	// edit, then delete the series
	w = serve(t, a, http.MethodPut, "/api/calendar/event/"+created[4].ID, calendar.EventDTO{Title: "Standup", Start: start, Recurrence: "daily", Rule: &calendar.RuleDTO{MaxOccurrences: 2, EndDate: "2030-03-31"}})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = serve(t, a, http.MethodDelete, "/api/calendar/event/"+created[0].ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, deleted, 1)
	assert.Equal(t, 2, deleted[0].Removed)
}

func TestRoutes_Errors(t *testing.T) {
	a := setupApp(t, memoryConfig())

	t.Run("should answer 404 for a view without its query", func(t *testing.T) {
		w := serve(t, a, http.MethodGet, "/api/calendar/day", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assertErrorBody(t, w, "Not found")
	})

	t.Run("should answer 404 for an unknown path", func(t *testing.T) {
		w := serve(t, a, http.MethodGet, "/api/calendar/weeks", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("should answer 405 for a known path with the wrong method", func(t *testing.T) {
		for _, tc := range []struct{ method, target string }{
			{http.MethodDelete, "/api/calendar/colors"},
			{http.MethodGet, "/api/calendar/import"},
			{http.MethodPost, "/api/calendar/export.ics"},
			{http.MethodGet, "/api/calendar/conflicts"},
		} {
			w := serve(t, a, tc.method, tc.target, nil)

			assert.Equal(t, http.StatusMethodNotAllowed, w.Code, "%s %s", tc.method, tc.target)
			assertErrorBody(t, w, "Method not allowed")
		}
	})
}

func assertErrorBody(t *testing.T, w *httptest.ResponseRecorder, message string) {
	t.Helper()
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var body rest.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, message, body.Error)
}
