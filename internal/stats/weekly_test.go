package stats

import (
	"testing"
	"time"

	"chemkpi/internal/kpilog"
)

func TestWasteRateScore(t *testing.T) {
	tests := []struct {
		name     string
		wasted   int
		target   float64
		expected int
	}{
		{"NothingWasted", 0, 5, 100},
		{"AtTarget", 5, 5, 0},
		{"AboveTarget", 9, 5, 0},
		{"Partial", 2, 5, 60},
		{"ZeroAllowance", 1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WasteRateScore(tt.wasted, tt.target); got != tt.expected {
				t.Errorf("WasteRateScore(%d, %v) = %d, want %d", tt.wasted, tt.target, got, tt.expected)
			}
		})
	}
}

func TestReceptionScore_PerDayMean(t *testing.T) {
	monday := day(2024, 3, 11)
	tuesday := day(2024, 3, 12)
	receptions := []Reception{
		{Date: monday, Conforme: true},
		{Date: tuesday, Conforme: true},
		{Date: tuesday, Conforme: false},
		{Date: tuesday, Conforme: false},
		{Date: tuesday, Conforme: false},
	}

	// Monday 100%, Tuesday 25%: the mean of days is 62.5, the pooled ratio would be 40%.
	if got := ReceptionScore(receptions); got != 63 {
		t.Errorf("Expected per-day mean 63, got %d", got)
	}

	pooled := 0
	for _, r := range receptions {
		if r.Conforme {
			pooled++
		}
	}
	if got := Round(float64(pooled) / float64(len(receptions)) * 100); got != 40 {
		t.Fatalf("fixture sanity: pooled ratio = %d, want 40", got)
	}

	if got := ReceptionScore(nil); got != 0 {
		t.Errorf("Expected 0 with no receptions, got %d", got)
	}
}

func TestParseReceptions(t *testing.T) {
	data := kpilog.Payload{"receptions": []any{
		map[string]any{"date": "2024-03-11", "conforme": true},
		map[string]any{"date": "2024-03-12", "status": "Conforme"},
		map[string]any{"date": "2024-03-12", "status": "non-conforme"},
		map[string]any{"conforme": true},
	}}
	got := ParseReceptions(data, time.UTC)
	if len(got) != 3 {
		t.Fatalf("Expected undated reception to be skipped, got %d", len(got))
	}
	if !got[1].Conforme || got[2].Conforme {
		t.Errorf("Expected status strings to map to conformity, got %+v", got)
	}
	if got := ReceptionScore(got); got != 75 {
		t.Errorf("Expected (100+50)/2 = 75, got %d", got)
	}
}

func TestInventoryQualityScore(t *testing.T) {
	tests := []struct {
		name     string
		products []Product
		expected int
	}{
		{"Empty", nil, 100},
		{"AllPassed", []Product{{Tests: []string{"passed"}}, {Tests: []string{"passed", "passed"}}}, 100},
		{"OneOfFourFailed", []Product{
			{Tests: []string{"failed"}},
			{Tests: []string{"passed"}},
			{Tests: []string{"passed"}},
			{Tests: []string{"passed"}},
		}, 75},
		{"OneOfThreeFailed", []Product{
			{Tests: []string{"passed", "failed"}},
			{Tests: []string{"passed"}},
			{Tests: []string{"passed"}},
		}, 67},
		{"PendingSuiteIsNotPenalized", []Product{
			{Tests: []string{"failed", "pending"}},
			{Tests: []string{"passed"}},
		}, 100},
		{"UntestableIgnored", []Product{
			{Name: "label stock"},
			{Tests: []string{"failed"}},
			{Tests: []string{"passed"}},
		}, 50},
		{"AllFailed", []Product{{Tests: []string{"failed"}}, {Tests: []string{"failed"}}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InventoryQualityScore(tt.products); got != tt.expected {
				t.Errorf("InventoryQualityScore() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestParseProducts(t *testing.T) {
	data := kpilog.Payload{"products": []any{
		map[string]any{"name": "NaOH", "tests": []any{"passed", map[string]any{"result": "failed"}}},
		map[string]any{"name": "HCl"},
	}}
	got := ParseProducts(data)
	if len(got) != 2 {
		t.Fatalf("Expected 2 products, got %d", len(got))
	}
	if !got[0].Failed() {
		t.Error("Expected NaOH to have failed")
	}
	if got[1].Testable() {
		t.Error("Expected HCl without tests to be untestable")
	}
}

func TestCostBudgetScore(t *testing.T) {
	if got := CostBudgetScore(95000, 100000); got != 100 {
		t.Errorf("Expected 100 within budget, got %d", got)
	}
	if got := CostBudgetScore(100000, 100000); got != 100 {
		t.Errorf("Expected 100 exactly on budget, got %d", got)
	}
	if got := CostBudgetScore(100001, 100000); got != 0 {
		t.Errorf("Expected 0 over budget, got %d", got)
	}
}

func TestEmployeeFormulas(t *testing.T) {
	data := kpilog.Payload{"employees": []any{
		map[string]any{"name": "A", "daysPresent": 5.0, "daysScheduled": 5.0, "tasksCompleted": 9.0, "tasksAssigned": 10.0},
		map[string]any{"name": "B", "daysPresent": 3.0, "daysScheduled": 5.0, "tasksCompleted": 6.0, "tasksAssigned": 10.0, "incidents": 2.0},
	}}
	employees := ParseEmployees(data)

	if got := AttendanceRate(employees); got != 80 {
		t.Errorf("AttendanceRate() = %d, want 80", got)
	}
	if got := TaskEfficiency(employees); got != 75 {
		t.Errorf("TaskEfficiency() = %d, want 75", got)
	}
	if got := IncidentCount(employees); got != 2 {
		t.Errorf("IncidentCount() = %d, want 2", got)
	}
	if got := AttendanceRate(nil); got != 0 {
		t.Errorf("AttendanceRate(nil) = %d, want 0", got)
	}
}
