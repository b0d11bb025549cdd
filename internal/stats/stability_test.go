package stats

import (
	"math"
	"testing"
	"time"

	"chemkpi/internal/kpilog"
)

func TestCalculateXmR(t *testing.T) {
	values := []float64{10, 12, 11, 13, 11}
	result := CalculateXmR(values, nil)

	expectedAvg := 11.4
	if math.Abs(result.Average-expectedAvg) > 0.001 {
		t.Errorf("Expected average %v, got %v", expectedAvg, result.Average)
	}

	expectedAmR := 1.75
	if math.Abs(result.AmR-expectedAmR) > 0.001 {
		t.Errorf("Expected AmR %v, got %v", expectedAmR, result.AmR)
	}

	expectedUNPL := 16.055
	if math.Abs(result.UNPL-expectedUNPL) > 0.001 {
		t.Errorf("Expected UNPL %v, got %v", expectedUNPL, result.UNPL)
	}

	if len(result.Signals) != 0 {
		t.Errorf("Expected 0 signals, got %v", len(result.Signals))
	}
}

func TestCalculateXmR_Empty(t *testing.T) {
	result := CalculateXmR(nil, nil)
	if result.Values == nil || result.Signals == nil {
		t.Error("Expected empty, non-nil slices")
	}
}

func TestXmRSignals(t *testing.T) {
	values := []float64{90, 91, 90, 91, 90, 91, 90, 91, 90, 91, 10}
	keys := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}
	result := CalculateXmR(values, keys)
	foundOutlier := false
	for _, s := range result.Signals {
		if s.Type == SignalOutlier && s.Index == 10 && s.Key == "k" {
			foundOutlier = true
		}
	}
	if !foundOutlier {
		t.Errorf("Expected outlier at index 10 not found. LNPL was %v, value was 10", result.LNPL)
	}

	values = []float64{10, 10, 10, 10, 10, 10, 10, 10, 2, 2, 2, 2, 2, 2, 2, 2}
	result = CalculateXmR(values, nil)
	shifts := 0
	for _, s := range result.Signals {
		if s.Type == SignalShift {
			shifts++
		}
	}
	if shifts != 2 {
		t.Errorf("Expected 2 shift signals, got %v", shifts)
	}
}

func TestAnalyzeStability(t *testing.T) {
	entries := func(vals ...float64) []kpilog.Entry {
		// most recent first, one day apart
		out := make([]kpilog.Entry, len(vals))
		for i, v := range vals {
			out[len(vals)-1-i] = kpilog.Entry{Value: v, Date: time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC)}
		}
		return out
	}
	weeks := []Breakdown{
		{Label: "2024-W01", Count: 2, Average: 90},
		{Label: "2024-W02", Count: 0},
		{Label: "2024-W03", Count: 1, Average: 91},
	}

	tests := []struct {
		name   string
		values []float64
		want   string
	}{
		{"Stable", []float64{90, 91, 89, 90, 91}, BehaviorStable},
		{"Volatile", []float64{90, 91, 90, 91, 90, 91, 20}, BehaviorVolatile},
		{"Migrating", []float64{95, 95, 95, 95, 95, 95, 95, 95, 70, 70, 70, 70, 70, 70, 70, 70}, BehaviorMigrating},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := AnalyzeStability("oee", entries(tt.values...), weeks, time.UTC)
			if res.Status != tt.want {
				t.Errorf("Expected %s, got %s (signals %+v)", tt.want, res.Status, res.XmR.Signals)
			}
			if res.XmR.Values[0] != tt.values[0] {
				t.Errorf("Expected chronological values, got %v first", res.XmR.Values[0])
			}
		})
	}

	res := AnalyzeStability("oee", entries(90, 91), weeks, time.UTC)
	if len(res.Evolution.Values) != 2 {
		t.Errorf("Expected empty weeks to be skipped, got %v", res.Evolution.Values)
	}
	if res.XmR.Signals == nil {
		t.Error("Expected non-nil signals")
	}
	if res.XmR.Values[0] != 90 || len(res.XmR.Signals) != 0 {
		t.Errorf("Expected [90 91] without signals, got %+v", res.XmR)
	}
}
