package dashboard

import (
	"fmt"
	"strings"
	"time"

	"chemkpi/internal/catalog"
	"chemkpi/internal/stats"
)

// DefaultReportWeeks is the span of a weekly report when no range is given.
const DefaultReportWeeks = 12

// StabilityWeeks is the span of weekly averages charted by Stability.
const StabilityWeeks = 26

// PeriodReport is the bucketed history of one KPI.
type PeriodReport struct {
	DepartmentID string            `json:"departmentId"`
	KPIID        string            `json:"kpiId"`
	Period       string            `json:"period"`
	Year         int               `json:"year,omitempty"`
	Breakdowns   []stats.Breakdown `json:"breakdowns"`
	Findings     []stats.Finding   `json:"findings"`
}

// ReportQuery selects the range of a report. Zero values pick defaults: the
// current year, and the last DefaultReportWeeks weeks up to today.
type ReportQuery struct {
	Year int
	From time.Time
	To   time.Time
}

// Report dispatches to the bucketer of the named period (week, month, quarter or year).
func (e *Engine) Report(departmentID, kpiID, period string, q ReportQuery) (PeriodReport, error) {
	now := e.now().In(e.loc)
	if q.Year == 0 {
		q.Year = now.Year()
	}

	switch strings.ToLower(period) {
	case stats.BucketWeek, "weekly":
		if q.To.IsZero() {
			q.To = now
		}
		if q.From.IsZero() {
			q.From = q.To.AddDate(0, 0, -7*(DefaultReportWeeks-1))
		}
		if q.From.After(q.To) {
			return PeriodReport{}, fmt.Errorf("report range: from %s is after to %s", q.From.Format(time.DateOnly), q.To.Format(time.DateOnly))
		}
		return e.WeeklyReport(departmentID, kpiID, q.From, q.To), nil
	case stats.BucketMonth, "monthly":
		return e.MonthlyReport(departmentID, kpiID, q.Year), nil
	case stats.BucketQuarter, "quarterly":
		return e.QuarterlyReport(departmentID, kpiID, q.Year), nil
	case stats.BucketYear, "yearly":
		return e.YearlyReport(departmentID, kpiID), nil
	default:
		return PeriodReport{}, fmt.Errorf("unknown report period %q (want week, month, quarter or year)", period)
	}
}

// QuarterlyReport buckets a KPI's entries into the four quarters of year.
func (e *Engine) QuarterlyReport(departmentID, kpiID string, year int) PeriodReport {
	q := stats.BucketByQuarter(e.store.History(departmentID, kpiID), year, e.loc, e.scoring(departmentID, kpiID))
	return newReport(departmentID, kpiID, stats.BucketQuarter, year, q[:])
}

// MonthlyReport buckets a KPI's entries into the twelve months of year.
func (e *Engine) MonthlyReport(departmentID, kpiID string, year int) PeriodReport {
	m := stats.BucketByMonth(e.store.History(departmentID, kpiID), year, e.loc, e.scoring(departmentID, kpiID))
	return newReport(departmentID, kpiID, stats.BucketMonth, year, m[:])
}

// WeeklyReport buckets a KPI's entries into the Monday-anchored weeks of [from, to].
func (e *Engine) WeeklyReport(departmentID, kpiID string, from, to time.Time) PeriodReport {
	w := stats.BucketByWeek(e.store.History(departmentID, kpiID), from, to, e.loc, e.scoring(departmentID, kpiID))
	return newReport(departmentID, kpiID, stats.BucketWeek, 0, w)
}

// YearlyReport buckets a KPI's entries by calendar year.
func (e *Engine) YearlyReport(departmentID, kpiID string) PeriodReport {
	y := stats.BucketByYear(e.store.History(departmentID, kpiID), e.loc, e.scoring(departmentID, kpiID))
	return newReport(departmentID, kpiID, stats.BucketYear, 0, y)
}

// DepartmentFindings gathers the quarterly findings of every KPI of a department,
// most severe first.
func (e *Engine) DepartmentFindings(departmentID string, year int) []stats.Finding {
	dept, ok := e.catalog.Department(departmentID)
	if !ok {
		return []stats.Finding{}
	}
	out := []stats.Finding{}
	for _, def := range dept.KPIs {
		q := e.QuarterlyReport(departmentID, def.ID, year)
		out = append(out, q.Findings...)
	}
	stats.SortFindings(out)
	return out
}

// Stability charts the process behavior of a KPI: its individual values and
// its weekly averages over the last StabilityWeeks weeks.
func (e *Engine) Stability(departmentID, kpiID string) stats.StabilityResult {
	to := e.Now()
	from := to.AddDate(0, 0, -7*(StabilityWeeks-1))
	weeks := e.WeeklyReport(departmentID, kpiID, from, to).Breakdowns
	return stats.AnalyzeStability(kpiID, e.store.History(departmentID, kpiID), weeks, e.loc)
}

// scoring resolves the bucketing parameters of a KPI. KPIs missing from the
// catalog are scored as percentages with default cutoffs and a zero target.
func (e *Engine) scoring(departmentID, kpiID string) stats.Scoring {
	def, ok := e.catalog.Lookup(departmentID, kpiID)
	if !ok {
		def = catalog.Definition{ID: kpiID, DepartmentID: departmentID, Unit: catalog.PercentUnit}
	}
	return stats.ScoringFor(def, e.rules.LowerIsBetter(def))
}

func newReport(departmentID, kpiID, period string, year int, breakdowns []stats.Breakdown) PeriodReport {
	findings := stats.CollectFindings(breakdowns)
	if findings == nil {
		findings = []stats.Finding{}
	}
	stats.SortFindings(findings)
	return PeriodReport{
		DepartmentID: departmentID,
		KPIID:        kpiID,
		Period:       period,
		Year:         year,
		Breakdowns:   breakdowns,
		Findings:     findings,
	}
}
