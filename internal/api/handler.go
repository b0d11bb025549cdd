package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"chemkpi/internal/dashboard"
	"chemkpi/internal/kpilog"
	"chemkpi/internal/stats"
)

type entryRequest struct {
	Measurement kpilog.Payload `json:"measurement"`
	Notes       string         `json:"notes"`
	Date        string         `json:"date,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) dashboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.SummarizeDashboard())
}

func (h *Handler) departments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Catalog().Departments)
}

func (h *Handler) department(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["dept"]
	sum, ok := h.engine.SummarizeDepartment(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, fmt.Errorf("unknown department %q", id))
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	writeJSON(w, http.StatusOK, h.engine.Store().History(v["dept"], v["kpi"]))
}

func (h *Handler) recordEntry(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	req, ok := decodeEntry(w, r)
	if !ok {
		return
	}
	entry := h.engine.Store().Record(v["dept"], v["kpi"], req.Measurement, req.Notes)
	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) recordWeekly(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	req, ok := decodeEntry(w, r)
	if !ok {
		return
	}
	date := h.engine.Now()
	if req.Date != "" {
		d, ok := stats.ParseDate(req.Date, h.engine.Location())
		if !ok {
			writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid date %q", req.Date))
			return
		}
		date = d
	}
	entry := h.engine.RecordWeekly(v["dept"], v["kpi"], date, req.Measurement, req.Notes)
	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) deleteEntry(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	id, err := strconv.ParseInt(v["id"], 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid entry id %q", v["id"]))
		return
	}
	if !h.engine.Store().Delete(v["dept"], v["kpi"], id) {
		writeError(w, r, http.StatusNotFound, fmt.Errorf("entry %d not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) trend(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, h.engine.Store().Trend(v["dept"], v["kpi"], limit))
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"departmentId": v["dept"],
		"kpiId":        v["kpi"],
		"status":       h.engine.Classify(v["dept"], v["kpi"]),
	})
}

func (h *Handler) stability(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	writeJSON(w, http.StatusOK, h.engine.Stability(v["dept"], v["kpi"]))
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	q, err := h.reportQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	report, err := h.engine.Report(v["dept"], v["kpi"], v["period"], q)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) reportQuery(r *http.Request) (dashboard.ReportQuery, error) {
	var q dashboard.ReportQuery
	params := r.URL.Query()
	if raw := params.Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			return q, fmt.Errorf("invalid year %q", raw)
		}
		q.Year = y
	}
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"from", &q.From}, {"to", &q.To}} {
		raw := params.Get(p.name)
		if raw == "" {
			continue
		}
		t, ok := stats.ParseDate(raw, h.engine.Location())
		if !ok {
			return q, fmt.Errorf("invalid %s date %q", p.name, raw)
		}
		*p.dst = t
	}
	return q, nil
}

func decodeEntry(w http.ResponseWriter, r *http.Request) (entryRequest, bool) {
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, code int, err error) {
	id := RequestID(r.Context())
	log.Warn().Err(err).Str("request_id", id).Int("code", code).Msg("HTTP request failed")
	writeJSON(w, code, errorResponse{Error: err.Error(), RequestID: id})
}
