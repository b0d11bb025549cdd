package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"chemkpi/internal/dashboard"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

type ctxKey struct{}

// Handler serves the dashboard over HTTP.
type Handler struct {
	engine *dashboard.Engine
}

// NewRouter wires every route of the dashboard API.
func NewRouter(engine *dashboard.Engine) *mux.Router {
	h := &Handler{engine: engine}
	r := mux.NewRouter()
	r.Use(requestID)

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/dashboard", h.dashboard).Methods(http.MethodGet)
	r.HandleFunc("/departments", h.departments).Methods(http.MethodGet)
	r.HandleFunc("/departments/{dept}", h.department).Methods(http.MethodGet)

	kpi := r.PathPrefix("/departments/{dept}/kpis/{kpi}").Subrouter()
	kpi.HandleFunc("/entries", h.listEntries).Methods(http.MethodGet)
	kpi.HandleFunc("/entries", h.recordEntry).Methods(http.MethodPost)
	kpi.HandleFunc("/entries/{id:[0-9]+}", h.deleteEntry).Methods(http.MethodDelete)
	kpi.HandleFunc("/weekly", h.recordWeekly).Methods(http.MethodPost)
	kpi.HandleFunc("/trend", h.trend).Methods(http.MethodGet)
	kpi.HandleFunc("/status", h.status).Methods(http.MethodGet)
	kpi.HandleFunc("/stability", h.stability).Methods(http.MethodGet)
	kpi.HandleFunc("/reports/{period}", h.report).Methods(http.MethodGet)

	return r
}

// requestID tags each request with an id, reusing the caller's when present.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		log.Debug().Str("request_id", id).Str("method", r.Method).Str("path", r.URL.Path).Msg("HTTP request")
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// RequestID returns the id assigned to the request, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
