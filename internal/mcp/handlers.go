package mcp

import (
	"context"
	"fmt"
	"time"

	"chemkpi/internal/catalog"
	"chemkpi/internal/dashboard"
	"chemkpi/internal/kpilog"
	"chemkpi/internal/stats"
	"chemkpi/internal/status"
	"chemkpi/internal/visuals"
)

// DefaultTrendLimit is the number of trend points returned when no limit is given.
const DefaultTrendLimit = 10

type kpiRef struct {
	DepartmentID string `json:"department_id" jsonschema:"department identifier, e.g. production"`
	KPIID        string `json:"kpi_id" jsonschema:"KPI identifier, e.g. oee"`
}

type listCatalogInput struct {
	DepartmentID  string `json:"department_id,omitempty" jsonschema:"only list this department"`
	IncludeSchema bool   `json:"include_schema,omitempty" jsonschema:"also return the JSON Schema of the catalog file"`
}

type recordEntryInput struct {
	DepartmentID string         `json:"department_id" jsonschema:"department identifier"`
	KPIID        string         `json:"kpi_id" jsonschema:"KPI identifier"`
	Measurement  map[string]any `json:"measurement,omitempty" jsonschema:"measurement object; value is the primary number and any other field is kept as detail"`
	Notes        string         `json:"notes,omitempty" jsonschema:"free-text annotation"`
}

type recordWeeklyInput struct {
	DepartmentID string         `json:"department_id" jsonschema:"department identifier"`
	KPIID        string         `json:"kpi_id" jsonschema:"KPI identifier"`
	Date         string         `json:"date,omitempty" jsonschema:"any day of the week (YYYY-MM-DD); defaults to today"`
	Measurement  map[string]any `json:"measurement,omitempty" jsonschema:"weekly detail; value is computed from it when omitted"`
	Notes        string         `json:"notes,omitempty" jsonschema:"free-text annotation"`
}

type historyInput struct {
	DepartmentID string `json:"department_id" jsonschema:"department identifier"`
	KPIID        string `json:"kpi_id" jsonschema:"KPI identifier"`
	Limit        int    `json:"limit,omitempty" jsonschema:"maximum number of entries or points"`
}

type deleteInput struct {
	DepartmentID string `json:"department_id" jsonschema:"department identifier"`
	KPIID        string `json:"kpi_id" jsonschema:"KPI identifier"`
	EntryID      int64  `json:"entry_id" jsonschema:"id of the entry to delete"`
}

type departmentInput struct {
	DepartmentID string `json:"department_id" jsonschema:"department identifier"`
}

type reportInput struct {
	DepartmentID string `json:"department_id" jsonschema:"department identifier"`
	KPIID        string `json:"kpi_id" jsonschema:"KPI identifier"`
	Period       string `json:"period" jsonschema:"week, month, quarter or year"`
	Year         int    `json:"year,omitempty" jsonschema:"calendar year for month and quarter reports; defaults to the current year"`
	From         string `json:"from,omitempty" jsonschema:"first day of a weekly report (YYYY-MM-DD)"`
	To           string `json:"to,omitempty" jsonschema:"last day of a weekly report (YYYY-MM-DD)"`
}

func (s *Server) handleListCatalog(_ context.Context, in listCatalogInput) (any, error) {
	cat := s.engine.Catalog()
	departments := cat.Departments
	if in.DepartmentID != "" {
		dept, ok := cat.Department(in.DepartmentID)
		if !ok {
			return nil, fmt.Errorf("unknown department %q", in.DepartmentID)
		}
		departments = []catalog.Department{dept}
	}

	res := map[string]any{"departments": departments}
	if in.IncludeSchema {
		schema, err := catalog.Schema()
		if err != nil {
			return nil, fmt.Errorf("catalog schema: %w", err)
		}
		res["schema"] = schema
	}
	return res, nil
}

func (s *Server) handleRecordEntry(_ context.Context, in recordEntryInput) (any, error) {
	if err := requireKPI(in.DepartmentID, in.KPIID); err != nil {
		return nil, err
	}
	entry := s.engine.Store().Record(in.DepartmentID, in.KPIID, kpilog.Payload(in.Measurement), in.Notes)
	return s.recorded(in.DepartmentID, in.KPIID, entry), nil
}

func (s *Server) handleRecordWeekly(_ context.Context, in recordWeeklyInput) (any, error) {
	if err := requireKPI(in.DepartmentID, in.KPIID); err != nil {
		return nil, err
	}
	date := s.engine.Now()
	if in.Date != "" {
		d, ok := stats.ParseDate(in.Date, s.engine.Location())
		if !ok {
			return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", in.Date)
		}
		date = d
	}
	entry := s.engine.RecordWeekly(in.DepartmentID, in.KPIID, date, kpilog.Payload(in.Measurement), in.Notes)
	return s.recorded(in.DepartmentID, in.KPIID, entry), nil
}

func (s *Server) recorded(departmentID, kpiID string, entry kpilog.Entry) map[string]any {
	res := map[string]any{
		"entry":  entry,
		"status": s.engine.Classify(departmentID, kpiID),
	}
	if err := s.engine.Store().LastPersistError(); err != nil {
		res["_warnings"] = []string{"entry kept in memory but not persisted: " + err.Error()}
	}
	return res
}

func (s *Server) handleGetHistory(_ context.Context, in historyInput) (any, error) {
	if err := requireKPI(in.DepartmentID, in.KPIID); err != nil {
		return nil, err
	}
	history := s.engine.Store().History(in.DepartmentID, in.KPIID)
	total := len(history)
	if in.Limit > 0 && in.Limit < total {
		history = history[:in.Limit]
	}
	return map[string]any{
		"department_id": in.DepartmentID,
		"kpi_id":        in.KPIID,
		"total":         total,
		"entries":       history,
	}, nil
}

func (s *Server) handleGetTrend(_ context.Context, in historyInput) (any, error) {
	if err := requireKPI(in.DepartmentID, in.KPIID); err != nil {
		return nil, err
	}
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultTrendLimit
	}
	points := s.engine.Store().Trend(in.DepartmentID, in.KPIID, limit)

	res := map[string]any{"points": points}
	if s.opts.EnableMermaidCharts {
		def, _ := s.engine.Catalog().Lookup(in.DepartmentID, in.KPIID)
		title := def.Name
		if title == "" {
			title = in.KPIID
		}
		res["visual_trend"] = visuals.GenerateTrendChart(title, def.Target, points)
	}
	return res, nil
}

func (s *Server) handleGetStability(_ context.Context, in kpiRef) (any, error) {
	if err := requireKPI(in.DepartmentID, in.KPIID); err != nil {
		return nil, err
	}
	return map[string]any{"stability": s.engine.Stability(in.DepartmentID, in.KPIID)}, nil
}

func (s *Server) handleDeleteEntry(_ context.Context, in deleteInput) (any, error) {
	if err := requireKPI(in.DepartmentID, in.KPIID); err != nil {
		return nil, err
	}
	deleted := s.engine.Store().Delete(in.DepartmentID, in.KPIID, in.EntryID)
	return map[string]any{
		"deleted":   deleted,
		"remaining": s.engine.Store().Count(in.DepartmentID, in.KPIID),
	}, nil
}

func (s *Server) handleClassify(_ context.Context, in kpiRef) (any, error) {
	if err := requireKPI(in.DepartmentID, in.KPIID); err != nil {
		return nil, err
	}
	res := map[string]any{"status": s.engine.Classify(in.DepartmentID, in.KPIID)}
	if def, ok := s.engine.Catalog().Lookup(in.DepartmentID, in.KPIID); ok {
		res["definition"] = def
	} else {
		res["_warnings"] = []string{"KPI is not in the catalog; it cannot be classified"}
	}
	if latest, ok := s.engine.Store().Latest(in.DepartmentID, in.KPIID); ok {
		res["latest"] = latest
	}
	return res, nil
}

func (s *Server) handleSummarizeDepartment(_ context.Context, in departmentInput) (any, error) {
	sum, ok := s.engine.SummarizeDepartment(in.DepartmentID)
	if !ok {
		return nil, fmt.Errorf("unknown department %q", in.DepartmentID)
	}
	res := map[string]any{
		"summary":  sum,
		"findings": s.engine.DepartmentFindings(in.DepartmentID, s.engine.Now().Year()),
	}
	if s.opts.EnableMermaidCharts {
		res["visual_status_pie"] = visuals.GenerateStatusPie(sum.Name+" KPI status", kpiStatuses(sum))
	}
	return res, nil
}

func (s *Server) handleSummarizeDashboard(_ context.Context, _ struct{}) (any, error) {
	dash := s.engine.SummarizeDashboard()
	res := map[string]any{"summary": dash}
	if s.opts.EnableMermaidCharts {
		var all []status.Status
		for _, d := range dash.Departments {
			all = append(all, kpiStatuses(d)...)
		}
		res["visual_status_pie"] = visuals.GenerateStatusPie("Plant KPI status", all)
	}
	return res, nil
}

func (s *Server) handleGetReport(_ context.Context, in reportInput) (any, error) {
	if err := requireKPI(in.DepartmentID, in.KPIID); err != nil {
		return nil, err
	}
	q := dashboard.ReportQuery{Year: in.Year}
	var err error
	if q.From, err = parseOptionalDate("from", in.From, s.engine.Location()); err != nil {
		return nil, err
	}
	if q.To, err = parseOptionalDate("to", in.To, s.engine.Location()); err != nil {
		return nil, err
	}

	report, err := s.engine.Report(in.DepartmentID, in.KPIID, in.Period, q)
	if err != nil {
		return nil, err
	}

	res := map[string]any{"report": report}
	if s.opts.EnableMermaidCharts {
		res["visual_breakdown"] = visuals.GenerateBreakdownChart(fmt.Sprintf("%s by %s", in.KPIID, report.Period), report.Breakdowns)
	}
	return res, nil
}

func parseOptionalDate(field, raw string, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, ok := stats.ParseDate(raw, loc)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid %s date %q, expected YYYY-MM-DD", field, raw)
	}
	return t, nil
}

func kpiStatuses(sum dashboard.DepartmentSummary) []status.Status {
	out := make([]status.Status, len(sum.KPIs))
	for i, k := range sum.KPIs {
		out[i] = k.Status
	}
	return out
}
