package calendar

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/atul-gupta2002/Custom-Event-Calendar/internal/rest"
	"github.com/atul-gupta2002/Custom-Event-Calendar/pkg/recurrence"
	"github.com/gorilla/mux"
	"github.com/samber/mo"
	log "github.com/sirupsen/logrus"
)

const maxImportSize = 1 << 20

type Handler struct {
	calendar *Service
}

type RuleDTO struct {
	Kind     string `json:"kind"`
	Interval int    `json:"interval,omitempty"`
	// Weekdays are 0 (Sunday) to 6 (Saturday).
	Weekdays []int `json:"weekdays,omitempty"`
	// EndDate is RFC3339, or YYYY-MM-DD meaning the end of that day.
	EndDate        string `json:"endDate,omitempty"`
	MaxOccurrences int    `json:"maxOccurrences,omitempty"`
}

type EventDTO struct {
	ID          string    `json:"id,omitempty"`
	SeriesID    string    `json:"seriesId,omitempty"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Color       string    `json:"color,omitempty"`
	Recurrence  string    `json:"recurrence"`
	Rule        *RuleDTO  `json:"rule,omitempty"`
	RRule       string    `json:"rrule,omitempty"`
}

type ConflictDTO struct {
	Event EventDTO `json:"event"`
	With  EventDTO `json:"with"`
}

type ConflictResponse struct {
	rest.ErrorResponse
	Conflicts []ConflictDTO `json:"conflicts"`
}

type CheckConflictsResponse struct {
	Conflicts []ConflictDTO `json:"conflicts"`
}

type RescheduleDTO struct {
	Start time.Time `json:"start"`
}

type RescheduleResponse struct {
	Event     EventDTO   `json:"event"`
	Conflicts []EventDTO `json:"conflicts"`
}

type CellDTO struct {
	Blank  bool       `json:"blank"`
	Date   string     `json:"date,omitempty"`
	Events []EventDTO `json:"events,omitempty"`
}

type MonthDTO struct {
	Year  int       `json:"year"`
	Month int       `json:"month"`
	Cells []CellDTO `json:"cells"`
}

type ColorDTO struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type ImportResponse struct {
	Created int      `json:"created"`
	Skipped []string `json:"skipped"`
	// Error is set when the import stopped early; Created and Skipped then
	// cover the events handled before it.
	Error string `json:"error,omitempty"`
}

func NewHandler(s *Service) *Handler {
	return &Handler{s}
}

func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid from (date) format", "'from' must be in RFC3339 format")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid to (date) format", "'to' must be in RFC3339 format")
		return
	}

	events, err := h.calendar.GetEvents(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eventsToDTO(events))
}

func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	day, err := recurrence.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date format", "'date' must be in YYYY-MM-DD format")
		return
	}

	events, err := h.calendar.GetDay(r.Context(), day)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	log.Tracef("events on %s: %d", day, len(events))
	writeJSON(w, http.StatusOK, eventsToDTO(events))
}

func (h *Handler) GetMonth(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid year", "'year' must be a number")
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		rest.WriteError(w, http.StatusBadRequest, "Invalid month", "'month' must be a number between 1 and 12")
		return
	}

	cells, err := h.calendar.GetMonth(r.Context(), year, time.Month(month))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dto := MonthDTO{Year: year, Month: month, Cells: make([]CellDTO, 0, len(cells))}
	for _, c := range cells {
		cell := CellDTO{Blank: c.Blank}
		if !c.Blank {
			cell.Date = c.Date.String()
			cell.Events = eventsToDTO(c.Events)
		}
		dto.Cells = append(dto.Cells, cell)
	}
	writeJSON(w, http.StatusOK, dto)
}

// CreateEvent godoc
// @Summary Create an event
// @Description Create an event and expand its recurrence rule. Fails with 409 when any occurrence overlaps an existing event.
// @Tags Calendar
// @Accept json
// @Produce json
// @Param event body EventDTO true "Event"
// @Success 201 {array} EventDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 409 {object} ConflictResponse
// @Router /api/calendar/event [post]
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var eventDTO EventDTO
	if err := json.NewDecoder(r.Body).Decode(&eventDTO); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	event, err := dtoToEvent(eventDTO, h.calendar.Location())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	series, err := h.calendar.CreateEvent(r.Context(), event)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, eventsToDTO(series))
}

// UpdateEvent godoc
// @Summary Edit an event series
// @Description Replace every event of the series containing eventId with the expansion of the edited event.
// @Tags Calendar
// @Accept json
// @Produce json
// @Param eventId path string true "Event ID"
// @Param event body EventDTO true "Event"
// @Success 200 {array} EventDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 404 {object} rest.ErrorResponse
// @Failure 409 {object} ConflictResponse
// @Router /api/calendar/event/{eventId} [put]
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventId := mux.Vars(r)["eventId"]
	var eventDTO EventDTO
	if err := json.NewDecoder(r.Body).Decode(&eventDTO); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	event, err := dtoToEvent(eventDTO, h.calendar.Location())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	series, err := h.calendar.UpdateEvent(r.Context(), eventId, event)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eventsToDTO(series))
}

// RescheduleEvent godoc
// @Summary Move a single event
// @Description Move one event to a new start. Overlaps are returned as warnings and do not block the move.
// @Tags Calendar
// @Accept json
// @Produce json
// @Param eventId path string true "Event ID"
// @Param start body RescheduleDTO true "New start"
// @Success 200 {object} RescheduleResponse
// @Failure 400 {object} rest.ErrorResponse
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/calendar/event/{eventId}/start [patch]
func (h *Handler) RescheduleEvent(w http.ResponseWriter, r *http.Request) {
	eventId := mux.Vars(r)["eventId"]
	var dto RescheduleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	moved, conflicts, err := h.calendar.RescheduleEvent(r.Context(), eventId, dto.Start)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RescheduleResponse{Event: eventToDTO(moved), Conflicts: eventsToDTO(conflicts)})
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventId := mux.Vars(r)["eventId"]
	removed, err := h.calendar.DeleteEvent(r.Context(), eventId)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	log.Debugf("deleted %d events with %s", removed, eventId)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	var eventDTO EventDTO
	if err := json.NewDecoder(r.Body).Decode(&eventDTO); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	event, err := dtoToEvent(eventDTO, h.calendar.Location())
	if err == nil {
		err = validate(event)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	conflicts, err := h.calendar.CheckConflicts(r.Context(), event)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CheckConflictsResponse{Conflicts: conflictsToDTO(conflicts)})
}

func (h *Handler) GetColors(w http.ResponseWriter, r *http.Request) {
	colors := make([]ColorDTO, 0, len(Palette))
	for _, c := range Palette {
		colors = append(colors, ColorDTO{Name: c.Name, Value: c.Value})
	}
	writeJSON(w, http.StatusOK, colors)
}

func (h *Handler) ExportICS(w http.ResponseWriter, r *http.Request) {
	events, err := h.calendar.GetAllEvents(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="calendar.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(EncodeICS(events, h.calendar.clock.Now()))); err != nil {
		log.Errorf("failed to write calendar export: %v", err)
	}
}

func (h *Handler) ImportICS(w http.ResponseWriter, r *http.Request) {
	events, err := DecodeICS(http.MaxBytesReader(w, r.Body, maxImportSize), h.calendar.Location())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	created, skipped, err := h.calendar.ImportEvents(r.Context(), events)
	response := ImportResponse{Created: len(created), Skipped: make([]string, 0, len(skipped))}
	for _, e := range skipped {
		response.Skipped = append(response.Skipped, e.Title)
	}
	if err != nil {
		log.Errorf("import stopped after %d events: %v", response.Created, err)
		response.Error = err.Error()
		writeJSON(w, http.StatusInternalServerError, response)
		return
	}
	log.Infof("imported %d events, skipped %d", response.Created, len(skipped))
	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	var conflictErr *ConflictError
	switch {
	case errors.As(err, &conflictErr):
		writeJSON(w, http.StatusConflict, ConflictResponse{
			ErrorResponse: rest.ErrorResponse{Error: "Event conflicts with existing events", Details: conflictErr.Error()},
			Conflicts:     conflictsToDTO(conflictErr.Conflicts),
		})
	case errors.Is(err, ErrEventNotFound):
		rest.WriteError(w, http.StatusNotFound, "Event not found", err.Error())
	case errors.Is(err, ErrInvalidEvent):
		rest.WriteError(w, http.StatusBadRequest, "Invalid event", err.Error())
	default:
		log.Errorf("calendar request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func eventToDTO(e Event) EventDTO {
	dto := EventDTO{
		ID:          e.ID,
		SeriesID:    e.SeriesKey(),
		Title:       e.Title,
		Start:       e.Start,
		Description: e.Description,
		Category:    e.Category,
		Color:       e.Color,
		Recurrence:  string(e.Kind()),
	}
	if e.Recurrence.IsRecurring() {
		parts := e.Recurrence.Parts()
		rule := &RuleDTO{
			Kind:           string(parts.Kind),
			Interval:       parts.Interval,
			Weekdays:       parts.Weekdays.Days(),
			MaxOccurrences: parts.MaxOccurrences,
		}
		if end, ok := parts.EndDate.Get(); ok {
			rule.EndDate = end.Format(time.RFC3339)
		}
		dto.Rule = rule
		dto.RRule = recurrence.FormatRRule(e.Recurrence)
	}
	return dto
}

func eventsToDTO(events []Event) []EventDTO {
	dtos := make([]EventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, eventToDTO(e))
	}
	return dtos
}

func conflictsToDTO(conflicts []recurrence.Conflict) []ConflictDTO {
	dtos := make([]ConflictDTO, 0, len(conflicts))
	for _, c := range conflicts {
		dtos = append(dtos, ConflictDTO{Event: eventToDTO(c.Event), With: eventToDTO(c.With)})
	}
	return dtos
}

// dtoToEvent reads the rule from rrule when present, from rule otherwise.
// recurrence and rule.kind must agree when both are given.
func dtoToEvent(dto EventDTO, loc *time.Location) (Event, error) {
	event := Event{
		ID:          dto.ID,
		SeriesID:    dto.SeriesID,
		Title:       dto.Title,
		Start:       dto.Start,
		Description: dto.Description,
		Category:    dto.Category,
		Color:       dto.Color,
	}

	if dto.RRule != "" {
		rule, err := recurrence.ParseRRule(dto.RRule, dto.Start)
		if err != nil {
			return Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		event.Recurrence = rule
		return event, nil
	}

	kindName := dto.Recurrence
	if dto.Rule != nil && dto.Rule.Kind != "" {
		if dto.Recurrence != "" && dto.Recurrence != dto.Rule.Kind {
			return Event{}, fmt.Errorf("%w: recurrence %q does not match rule kind %q", ErrInvalidEvent, dto.Recurrence, dto.Rule.Kind)
		}
		kindName = dto.Rule.Kind
	}
	kind, err := recurrence.ParseKind(kindName)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	parts := recurrence.RuleParts{Kind: kind}
	if dto.Rule != nil {
		parts.Interval = dto.Rule.Interval
		parts.Weekdays = recurrence.NewWeekdaySet(dto.Rule.Weekdays...)
		parts.MaxOccurrences = dto.Rule.MaxOccurrences
		if dto.Rule.EndDate != "" {
			end, err := parseEndDate(dto.Rule.EndDate, loc)
			if err != nil {
				return Event{}, err
			}
			parts.EndDate = mo.Some(end)
		}
	}
	event.Recurrence, err = recurrence.NewRule(parts)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return event, nil
}

func parseEndDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	day, err := recurrence.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: endDate must be RFC3339 or YYYY-MM-DD", ErrInvalidEvent)
	}
	// the whole end day is included
	return day.AddDays(1).In(loc).Add(-time.Second), nil
}
