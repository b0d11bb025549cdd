package engine

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"chemkpi/internal/catalog"
	"chemkpi/internal/kpilog"
	"chemkpi/internal/stats"
	"chemkpi/internal/status"
)

// Scenarios understood by Generate.
const (
	ScenarioSteady    = "steady"
	ScenarioDegrading = "degrading"
)

type GeneratorConfig struct {
	Scenario string
	Weeks    int
	Seed     int64
	Now      time.Time
	Location *time.Location
}

// Sample is one weekly measurement to record.
type Sample struct {
	DepartmentID string
	KPIID        string
	Week         time.Time
	Measurement  kpilog.Payload
}

// Recorder is satisfied by dashboard.Engine.
type Recorder interface {
	RecordWeekly(departmentID, kpiID string, date time.Time, measurement kpilog.Payload, notes string) kpilog.Entry
}

// Generate builds Weeks weekly samples for every KPI of the catalog, oldest
// week first, ending with the week containing Now.
func Generate(cfg GeneratorConfig, cat *catalog.Catalog, rules *status.Registry) ([]Sample, error) {
	switch cfg.Scenario {
	case ScenarioSteady, ScenarioDegrading:
	default:
		return nil, fmt.Errorf("unknown scenario %q (want steady or degrading)", cfg.Scenario)
	}
	if cfg.Weeks <= 0 {
		cfg.Weeks = 52
	}
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	last := stats.MondayOfWeek(cfg.Now.In(cfg.Location))
	first := last.AddDate(0, 0, -7*(cfg.Weeks-1))

	var out []Sample
	for w := 0; w < cfg.Weeks; w++ {
		week := first.AddDate(0, 0, 7*w)
		q := quality(cfg.Scenario, float64(w)/float64(max(cfg.Weeks-1, 1)), rng)
		for _, dept := range cat.Departments {
			for _, def := range dept.KPIs {
				out = append(out, Sample{
					DepartmentID: dept.ID,
					KPIID:        def.ID,
					Week:         week,
					Measurement:  measurement(def, rules.LowerIsBetter(def), week, q, rng),
				})
			}
		}
	}
	return out, nil
}

// Seed records every sample through r.
func Seed(r Recorder, samples []Sample) int {
	for _, s := range samples {
		r.RecordWeekly(s.DepartmentID, s.KPIID, s.Week, s.Measurement, "seeded")
	}
	return len(samples)
}

// quality is the share of target reached in a week, in [0, 1.05].
// progress runs from 0 (first week) to 1 (last week).
func quality(scenario string, progress float64, rng *rand.Rand) float64 {
	base := 0.97
	if scenario == ScenarioDegrading {
		base = 1.0 - 0.45*progress
	}
	return math.Max(0, math.Min(1.05, base+(rng.Float64()-0.5)*0.06))
}

func measurement(def catalog.Definition, lowerIsBetter bool, week time.Time, q float64, rng *rand.Rand) kpilog.Payload {
	switch def.Rule {
	case status.RuleWasteRate:
		return kpilog.Payload{"wasted": int(math.Round((1 - q) * 12))}
	case status.RuleReceptionAcceptance:
		return kpilog.Payload{"receptions": receptions(week, q, rng)}
	case status.RuleInventoryQuality:
		return kpilog.Payload{"products": products(q, rng)}
	case status.RuleCostBudget:
		budget := 50000.0
		return kpilog.Payload{"budget": budget, "actual": math.Round(budget * (2 - q))}
	}

	switch def.TrackingType {
	case catalog.TrackingAttendance, catalog.TrackingTaskBased, catalog.TrackingSafety:
		return kpilog.Payload{"employees": employees(def.TrackingType, q, rng)}
	}

	if lowerIsBetter {
		return kpilog.Payload{"value": math.Round(def.Target + (1-q)*10)}
	}
	return kpilog.Payload{"value": stats.Round1(def.Target * q)}
}

func receptions(week time.Time, q float64, rng *rand.Rand) []any {
	var out []any
	for d := 0; d < 5; d++ {
		day := week.AddDate(0, 0, d).Format(time.DateOnly)
		n := 2 + rng.Intn(3)
		for i := 0; i < n; i++ {
			out = append(out, map[string]any{"date": day, "conforme": rng.Float64() < q})
		}
	}
	return out
}

func products(q float64, rng *rand.Rand) []any {
	var out []any
	for i := 0; i < 8; i++ {
		result := "passed"
		if rng.Float64() > q {
			result = "failed"
		}
		out = append(out, map[string]any{"name": fmt.Sprintf("LOT-%03d", i+1), "tests": []any{result}})
	}
	return out
}

func employees(tracking catalog.TrackingType, q float64, rng *rand.Rand) []any {
	var out []any
	for i := 0; i < 6; i++ {
		emp := map[string]any{"name": fmt.Sprintf("Operator %d", i+1)}
		switch tracking {
		case catalog.TrackingAttendance:
			emp["daysScheduled"] = 5
			emp["daysPresent"] = min(5, int(math.Round(5*q+rng.Float64()-0.5)))
		case catalog.TrackingTaskBased:
			emp["tasksAssigned"] = 10
			emp["tasksCompleted"] = min(10, int(math.Round(10*q)))
		case catalog.TrackingSafety:
			incidents := 0
			if rng.Float64() > q+0.1 {
				incidents = 1
			}
			emp["incidents"] = incidents
		}
		out = append(out, emp)
	}
	return out
}
