package app

import (
	"net/http"

	"github.com/atul-gupta2002/Custom-Event-Calendar/internal/rest"
	"github.com/gorilla/mux"
)

const apiPrefix = "/api/calendar"

// RegisterRoutes registers all API endpoints. Routes sit on the root router
// with their full path: under a PathPrefix subrouter mux answers 404 instead
// of 405 for a known path called with the wrong method.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {
	h := deps.CalendarHandler
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	// Events
	r.HandleFunc(apiPrefix+"/event", h.GetEvents).Queries("from", "{from}", "to", "{to}").Methods("GET")
	r.HandleFunc(apiPrefix+"/event", h.CreateEvent).Methods("POST")
	r.HandleFunc(apiPrefix+"/event/{eventId}", h.UpdateEvent).Methods("PUT")
	r.HandleFunc(apiPrefix+"/event/{eventId}/start", h.RescheduleEvent).Methods("PATCH")
	r.HandleFunc(apiPrefix+"/event/{eventId}", h.DeleteEvent).Methods("DELETE")
	r.HandleFunc(apiPrefix+"/conflicts", h.CheckConflicts).Methods("POST")

	// Views
	r.HandleFunc(apiPrefix+"/day", h.GetDay).Queries("date", "{date}").Methods("GET")
	r.HandleFunc(apiPrefix+"/month", h.GetMonth).Queries("year", "{year}", "month", "{month}").Methods("GET")
	r.HandleFunc(apiPrefix+"/colors", h.GetColors).Methods("GET")

	// iCalendar
	r.HandleFunc(apiPrefix+"/export.ics", h.ExportICS).Methods("GET")
	r.HandleFunc(apiPrefix+"/import", h.ImportICS).Methods("POST")
}

func notFound(w http.ResponseWriter, r *http.Request) {
	rest.WriteError(w, http.StatusNotFound, "Not found", r.Method+" "+r.URL.Path)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	rest.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", r.Method+" "+r.URL.Path)
}
