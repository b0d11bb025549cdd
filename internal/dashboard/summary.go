package dashboard

import (
	"chemkpi/internal/kpilog"
	"chemkpi/internal/stats"
	"chemkpi/internal/status"
)

// KPISummary is the dashboard card of one KPI.
type KPISummary struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Unit       string        `json:"unit"`
	Target     float64       `json:"target"`
	Status     status.Status `json:"status"`
	Latest     *kpilog.Entry `json:"latest"`
	EntryCount int           `json:"entryCount"`
}

// DepartmentSummary aggregates the KPIs of one department.
type DepartmentSummary struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Status         status.Status `json:"status"`
	Efficiency     int           `json:"efficiency"`
	TotalKPIs      int           `json:"totalKpis"`
	KPIsWithData   int           `json:"kpisWithData"`
	Excellent      int           `json:"excellent"`
	NeedsAttention int           `json:"needsAttention"`
	KPIs           []KPISummary  `json:"kpis"`
}

// DashboardSummary folds every department of the catalog.
type DashboardSummary struct {
	OverallEfficiency int                 `json:"overallEfficiency"`
	TotalKPIs         int                 `json:"totalKpis"`
	KPIsWithData      int                 `json:"kpisWithData"`
	Excellent         int                 `json:"excellent"`
	NeedsAttention    int                 `json:"needsAttention"`
	Departments       []DepartmentSummary `json:"departments"`
}

// SummarizeDepartment classifies every KPI defined for the department.
// Efficiency only counts KPIs with at least one entry; the department status is
// the worst signal among its KPIs.
func (e *Engine) SummarizeDepartment(departmentID string) (DepartmentSummary, bool) {
	dept, ok := e.catalog.Department(departmentID)
	if !ok {
		return DepartmentSummary{ID: departmentID, Status: status.NoData, KPIs: []KPISummary{}}, false
	}

	sum := DepartmentSummary{
		ID:        dept.ID,
		Name:      dept.Name,
		TotalKPIs: len(dept.KPIs),
		KPIs:      make([]KPISummary, 0, len(dept.KPIs)),
	}

	var scored, all []status.Status
	for _, def := range dept.KPIs {
		card := KPISummary{
			ID:         def.ID,
			Name:       def.Name,
			Unit:       def.Unit,
			Target:     def.Target,
			Status:     status.NoData,
			EntryCount: e.store.Count(dept.ID, def.ID),
		}
		if latest, ok := e.store.Latest(dept.ID, def.ID); ok {
			card.Latest = &latest
			card.Status = e.rules.Classify(&latest, &def)
			scored = append(scored, card.Status)
		}

		switch card.Status {
		case status.Excellent:
			sum.Excellent++
		case status.NeedsAttention:
			sum.NeedsAttention++
		}
		all = append(all, card.Status)
		sum.KPIs = append(sum.KPIs, card)
	}

	sum.KPIsWithData = len(scored)
	sum.Efficiency = stats.Efficiency(scored)
	sum.Status = status.Worst(all...)
	return sum, true
}

// SummarizeDashboard summarizes every department. The overall efficiency is the
// mean over departments with data; empty departments do not count as 0.
func (e *Engine) SummarizeDashboard() DashboardSummary {
	out := DashboardSummary{Departments: make([]DepartmentSummary, 0, len(e.catalog.Departments))}

	var efficiencies []int
	for _, id := range e.catalog.DepartmentIDs() {
		dept, _ := e.SummarizeDepartment(id)
		out.TotalKPIs += dept.TotalKPIs
		out.KPIsWithData += dept.KPIsWithData
		out.Excellent += dept.Excellent
		out.NeedsAttention += dept.NeedsAttention
		if dept.KPIsWithData > 0 {
			efficiencies = append(efficiencies, dept.Efficiency)
		}
		out.Departments = append(out.Departments, dept)
	}

	out.OverallEfficiency = stats.MeanEfficiency(efficiencies)
	return out
}
