package stats

import (
	"math"
	"time"

	"chemkpi/internal/kpilog"
)

// Process behavior states of a KPI.
const (
	BehaviorStable    = "stable"
	BehaviorVolatile  = "volatile"
	BehaviorMigrating = "migrating"
)

// Signal types raised by an XmR chart.
const (
	SignalOutlier = "outlier"
	SignalShift   = "shift"
)

// xmrScale is Wheeler's scaling constant for individuals charts.
const xmrScale = 2.66

// shiftRun is the number of consecutive points on one side of the average that signals a shift.
const shiftRun = 8

// XmRResult represents the output of a Process Behavior Chart analysis.
type XmRResult struct {
	Average     float64   `json:"average"`
	AmR         float64   `json:"averageMovingRange"`
	UNPL        float64   `json:"upperLimit"`
	LNPL        float64   `json:"lowerLimit"`
	Values      []float64 `json:"values"`
	MovingRange []float64 `json:"movingRanges"`
	Signals     []Signal  `json:"signals"`
}

// Signal represents a detected special cause variation.
type Signal struct {
	Index       int    `json:"index"`
	Key         string `json:"key"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// CalculateXmR performs the math for an Individuals and Moving Range chart.
// keys label the points in signals; missing keys are left blank. The lower
// limit never drops below zero.
func CalculateXmR(values []float64, keys []string) XmRResult {
	if len(values) == 0 {
		return XmRResult{Values: []float64{}, MovingRange: []float64{}, Signals: []Signal{}}
	}

	result := XmRResult{
		Values:      values,
		Average:     Mean(values),
		MovingRange: []float64{},
	}

	if len(values) > 1 {
		result.MovingRange = make([]float64, len(values)-1)
		for i := 0; i < len(values)-1; i++ {
			result.MovingRange[i] = math.Abs(values[i+1] - values[i])
		}
		result.AmR = Mean(result.MovingRange)
	}

	result.UNPL = result.Average + xmrScale*result.AmR
	result.LNPL = math.Max(0, result.Average-xmrScale*result.AmR)
	result.Signals = detectSignals(values, result.Average, result.UNPL, result.LNPL, keys)
	return result
}

// StabilityResult is the process behavior view of one KPI: an XmR chart of its
// individual values and a chart of its weekly averages.
type StabilityResult struct {
	KPIID     string    `json:"kpiId"`
	XmR       XmRResult `json:"xmr"`
	Evolution XmRResult `json:"evolution"`
	Status    string    `json:"status"`
}

// AnalyzeStability builds the individuals chart from entries (oldest first,
// keyed by canonical date) and the evolution chart from the populated weeks.
// A shift in either chart means the process is migrating; outliers alone mean
// it is volatile.
func AnalyzeStability(kpiID string, entries []kpilog.Entry, weeks []Breakdown, loc *time.Location) StabilityResult {
	values := make([]float64, 0, len(entries))
	keys := make([]string, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		values = append(values, entries[i].Value)
		keys = append(keys, CanonicalDate(entries[i], loc).Format(time.DateOnly))
	}

	var averages []float64
	var labels []string
	for _, w := range weeks {
		if w.Count == 0 {
			continue
		}
		averages = append(averages, w.Average)
		labels = append(labels, w.Label)
	}

	res := StabilityResult{
		KPIID:     kpiID,
		XmR:       CalculateXmR(values, keys),
		Evolution: CalculateXmR(averages, labels),
		Status:    BehaviorStable,
	}

	for _, s := range append(append([]Signal{}, res.XmR.Signals...), res.Evolution.Signals...) {
		switch {
		case s.Type == SignalShift:
			res.Status = BehaviorMigrating
		case s.Type == SignalOutlier && res.Status == BehaviorStable:
			res.Status = BehaviorVolatile
		}
	}
	return res
}

func detectSignals(values []float64, avg, unpl, lnpl float64, keys []string) []Signal {
	signals := []Signal{}
	key := func(i int) string {
		if i < len(keys) {
			return keys[i]
		}
		return ""
	}

	for i, v := range values {
		if v > unpl {
			signals = append(signals, Signal{
				Index:       i,
				Key:         key(i),
				Type:        SignalOutlier,
				Description: "Point above Upper Natural Process Limit (UNPL)",
			})
		} else if v < lnpl {
			signals = append(signals, Signal{
				Index:       i,
				Key:         key(i),
				Type:        SignalOutlier,
				Description: "Point below Lower Natural Process Limit (LNPL)",
			})
		}
	}

	if len(values) < shiftRun {
		return signals
	}

	side, count := 0, 0
	for i, v := range values {
		current := 0
		if v > avg {
			current = 1
		} else if v < avg {
			current = -1
		}

		if current == side && current != 0 {
			count++
		} else {
			side = current
			count = 1
		}

		if count == shiftRun {
			signals = append(signals, Signal{
				Index:       i,
				Key:         key(i),
				Type:        SignalShift,
				Description: "8 consecutive points on one side of the average (process shift)",
			})
		}
	}
	return signals
}
