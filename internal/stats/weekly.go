package stats

import (
	"strings"
	"time"

	"chemkpi/internal/kpilog"
)

// Reception is one raw-material delivery inspected at the warehouse.
type Reception struct {
	Date     time.Time `json:"date"`
	Conforme bool      `json:"conforme"`
}

// Product is one inventory item and the results of its test suite
// ("passed", "failed" or "pending").
type Product struct {
	Name  string   `json:"name"`
	Tests []string `json:"tests"`
}

// Employee is the weekly attendance and task sheet of one person.
type Employee struct {
	Name           string  `json:"name"`
	DaysPresent    float64 `json:"daysPresent"`
	DaysScheduled  float64 `json:"daysScheduled"`
	TasksCompleted float64 `json:"tasksCompleted"`
	TasksAssigned  float64 `json:"tasksAssigned"`
	Incidents      float64 `json:"incidents"`
}

// WasteRateScore turns the number of expired or wasted items into a score where
// higher is better: 100 with nothing wasted, 0 once the weekly allowance is reached.
func WasteRateScore(wasted int, target float64) int {
	if wasted <= 0 {
		return 100
	}
	if float64(wasted) >= target {
		return 0
	}
	return Round((1 - float64(wasted)/target) * 100)
}

// ReceptionScore averages the per-day conformity ratios of a week's receptions,
// so a day with one delivery weighs the same as a day with many.
func ReceptionScore(receptions []Reception) int {
	type tally struct{ total, conforme int }
	days := make(map[string]*tally)
	var order []string
	for _, r := range receptions {
		key := r.Date.Format("2006-01-02")
		d, ok := days[key]
		if !ok {
			d = &tally{}
			days[key] = d
			order = append(order, key)
		}
		d.total++
		if r.Conforme {
			d.conforme++
		}
	}
	if len(order) == 0 {
		return 0
	}

	ratios := make([]float64, 0, len(order))
	for _, key := range order {
		d := days[key]
		ratios = append(ratios, float64(d.conforme)/float64(d.total)*100)
	}
	return Round(Mean(ratios))
}

// Testable reports whether the product has any test in its suite.
func (p Product) Testable() bool { return len(p.Tests) > 0 }

// Failed reports whether the product's suite has concluded with at least one failure.
// A suite with pending tests has not concluded.
func (p Product) Failed() bool {
	failed := false
	for _, result := range p.Tests {
		switch strings.ToLower(result) {
		case "pending", "":
			return false
		case "failed", "fail":
			failed = true
		}
	}
	return failed
}

// InventoryQualityScore starts at 100 and deducts 100/testable for every failed product.
func InventoryQualityScore(products []Product) int {
	testable, failed := 0, 0
	for _, p := range products {
		if !p.Testable() {
			continue
		}
		testable++
		if p.Failed() {
			failed++
		}
	}
	if testable == 0 {
		return 100
	}
	penalty := 100 / float64(testable)
	return Round(clamp(100-float64(failed)*penalty, 0, 100))
}

// CostBudgetScore is 100 when actual spend stayed within budget, else 0.
func CostBudgetScore(actual, budget float64) int {
	if actual <= budget {
		return 100
	}
	return 0
}

// AttendanceRate is the share of scheduled days actually worked, in percent.
func AttendanceRate(employees []Employee) int {
	var present, scheduled float64
	for _, e := range employees {
		present += e.DaysPresent
		scheduled += e.DaysScheduled
	}
	if scheduled == 0 {
		return 0
	}
	return Round(present / scheduled * 100)
}

// TaskEfficiency is the share of assigned tasks completed, in percent.
func TaskEfficiency(employees []Employee) int {
	var done, assigned float64
	for _, e := range employees {
		done += e.TasksCompleted
		assigned += e.TasksAssigned
	}
	if assigned == 0 {
		return 0
	}
	return Round(done / assigned * 100)
}

// IncidentCount sums the incidents reported across employees.
func IncidentCount(employees []Employee) int {
	var n float64
	for _, e := range employees {
		n += e.Incidents
	}
	return Round(n)
}

// ParseReceptions reads data.receptions. Each item carries a `date` and either a
// `conforme` flag or a `status` of "conforme"/"non-conforme". Undated items are skipped.
func ParseReceptions(data kpilog.Payload, loc *time.Location) []Reception {
	var out []Reception
	for _, item := range data.Objects("receptions") {
		raw, _ := item.String("date")
		date, ok := ParseDate(raw, loc)
		if !ok {
			continue
		}
		conforme, ok := item.Bool("conforme")
		if !ok {
			s, _ := item.String("status")
			conforme = strings.EqualFold(s, "conforme")
		}
		out = append(out, Reception{Date: date, Conforme: conforme})
	}
	return out
}

// ParseProducts reads data.products; each item has a `name` and a `tests` list of
// result strings or of objects with a `result` field.
func ParseProducts(data kpilog.Payload) []Product {
	var out []Product
	for _, item := range data.Objects("products") {
		name, _ := item.String("name")
		p := Product{Name: name}
		raw, _ := item.List("tests")
		for _, t := range raw {
			switch v := t.(type) {
			case string:
				p.Tests = append(p.Tests, v)
			default:
				if obj, ok := kpilog.AsPayload(v); ok {
					result, _ := obj.String("result")
					p.Tests = append(p.Tests, result)
				}
			}
		}
		out = append(out, p)
	}
	return out
}

// ParseEmployees reads data.employees. Missing counters read as zero.
func ParseEmployees(data kpilog.Payload) []Employee {
	var out []Employee
	for _, item := range data.Objects("employees") {
		name, _ := item.String("name")
		out = append(out, Employee{
			Name:           name,
			DaysPresent:    item.FloatOr("daysPresent", 0),
			DaysScheduled:  item.FloatOr("daysScheduled", 0),
			TasksCompleted: item.FloatOr("tasksCompleted", 0),
			TasksAssigned:  item.FloatOr("tasksAssigned", 0),
			Incidents:      item.FloatOr("incidents", 0),
		})
	}
	return out
}

// ParseDate accepts a calendar date ("2006-01-02", read in loc) or an RFC 3339 timestamp.
func ParseDate(raw string, loc *time.Location) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc), true
	}
	return time.Time{}, false
}
