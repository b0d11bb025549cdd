package dashboard

import (
	"time"

	"chemkpi/internal/catalog"
	"chemkpi/internal/kpilog"
	"chemkpi/internal/stats"
	"chemkpi/internal/status"
)

// Calculator derives a weekly KPI value from the detail in a measurement.
// It returns false when the payload lacks the detail it needs.
type Calculator func(data kpilog.Payload, def catalog.Definition, loc *time.Location) (float64, bool)

// defaultCalculators are keyed by rule name or tracking type.
func defaultCalculators() map[string]Calculator {
	return map[string]Calculator{
		status.RuleWasteRate:               wasteRate,
		status.RuleReceptionAcceptance:     receptionAcceptance,
		status.RuleInventoryQuality:        inventoryQuality,
		status.RuleCostBudget:              costBudget,
		string(catalog.TrackingAttendance): employeeFormula(stats.AttendanceRate),
		string(catalog.TrackingTaskBased):  employeeFormula(stats.TaskEfficiency),
		string(catalog.TrackingSafety):     employeeFormula(stats.IncidentCount),
	}
}

func calculatorKey(def catalog.Definition) string {
	if def.Rule != "" {
		return def.Rule
	}
	return string(def.TrackingType)
}

// wasteRate reads data.wasted, or counts data.wastedItems.
func wasteRate(data kpilog.Payload, def catalog.Definition, _ *time.Location) (float64, bool) {
	wasted, ok := data.Float("wasted")
	if !ok {
		items, ok := data.List("wastedItems")
		if !ok {
			return 0, false
		}
		wasted = float64(len(items))
	}
	return float64(stats.WasteRateScore(stats.Round(wasted), status.EffectiveTarget(data, def))), true
}

func receptionAcceptance(data kpilog.Payload, _ catalog.Definition, loc *time.Location) (float64, bool) {
	if _, ok := data.List("receptions"); !ok {
		return 0, false
	}
	return float64(stats.ReceptionScore(stats.ParseReceptions(data, loc))), true
}

func inventoryQuality(data kpilog.Payload, _ catalog.Definition, _ *time.Location) (float64, bool) {
	if _, ok := data.List("products"); !ok {
		return 0, false
	}
	return float64(stats.InventoryQualityScore(stats.ParseProducts(data))), true
}

func costBudget(data kpilog.Payload, _ catalog.Definition, _ *time.Location) (float64, bool) {
	actual, ok := data.Float("actual")
	if !ok {
		return 0, false
	}
	budget, ok := data.Float("budget")
	if !ok {
		return 0, false
	}
	return float64(stats.CostBudgetScore(actual, budget)), true
}

func employeeFormula(formula func([]stats.Employee) int) Calculator {
	return func(data kpilog.Payload, _ catalog.Definition, _ *time.Location) (float64, bool) {
		if _, ok := data.List("employees"); !ok {
			return 0, false
		}
		return float64(formula(stats.ParseEmployees(data))), true
	}
}
