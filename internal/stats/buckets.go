package stats

import (
	"fmt"
	"sort"
	"time"

	"chemkpi/internal/catalog"
	"chemkpi/internal/kpilog"
	"chemkpi/internal/status"
)

// LowDropPoints is how far a bucket's average may fall below the previous
// populated bucket before a "low" finding is raised.
const LowDropPoints = 5.0

// ExcellentScore is the score from which a bucket without findings is excellent.
const ExcellentScore = 80.0

// Severity tags a degradation finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityLow      Severity = "low"
)

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityWarning:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Finding flags a bucket whose average degraded.
type Finding struct {
	KPIID    string    `json:"kpiId,omitempty"`
	Period   string    `json:"period"`
	Start    time.Time `json:"start"`
	Severity Severity  `json:"severity"`
	Average  float64   `json:"average"`
	Message  string    `json:"message"`
}

// Breakdown aggregates the entries of one KPI that fall inside one period.
type Breakdown struct {
	Label    string             `json:"label"`
	Start    time.Time          `json:"start"`
	End      time.Time          `json:"end"`
	Count    int                `json:"count"`
	Average  float64            `json:"average"`
	Median   float64            `json:"median"`
	Stats    map[string]float64 `json:"stats,omitempty"`
	Status   status.Status      `json:"status"`
	Findings []Finding          `json:"findings,omitempty"`
}

// Scoring carries what the bucketers need from a KPI definition.
type Scoring struct {
	KPIID         string
	Target        float64
	LowerIsBetter bool
	Degradation   catalog.Degradation

	// Relative scores averages as a percentage of Target before they are
	// compared against the degradation cutoffs.
	Relative bool
}

// ScoringFor builds the scoring of def with its degradation cutoffs resolved.
// KPIs not measured in percent that rely on the default cutoffs are scored
// relative to their target.
func ScoringFor(def catalog.Definition, lowerIsBetter bool) Scoring {
	return Scoring{
		KPIID:         def.ID,
		Target:        def.Target,
		LowerIsBetter: lowerIsBetter,
		Degradation:   def.Thresholds(),
		Relative:      def.Unit != catalog.PercentUnit && def.Degradation == (catalog.Degradation{}),
	}
}

// score is the value of avg on the scale of the degradation cutoffs.
func (sc Scoring) score(avg float64) float64 {
	if !sc.Relative {
		return avg
	}
	if sc.Target <= 0 {
		if avg >= sc.Target {
			return 100
		}
		return 0
	}
	return avg / sc.Target * 100
}

// CanonicalDate is the date an entry is bucketed under: the Monday stamped in
// data.weekStart for weekly measurements, else the recording date. Both are read in loc.
func CanonicalDate(e kpilog.Entry, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	if raw, ok := e.Data.String("weekStart"); ok {
		if t, ok := ParseDate(raw, loc); ok {
			return MondayOfWeek(t)
		}
	}
	return e.Date.In(loc)
}

// BucketByQuarter partitions a calendar year into its four quarters.
func BucketByQuarter(entries []kpilog.Entry, year int, loc *time.Location, sc Scoring) [4]Breakdown {
	var out [4]Breakdown
	copy(out[:], bucketYear(entries, year, loc, BucketQuarter, sc))
	return out
}

// BucketByMonth partitions a calendar year into its twelve months.
func BucketByMonth(entries []kpilog.Entry, year int, loc *time.Location, sc Scoring) [12]Breakdown {
	var out [12]Breakdown
	copy(out[:], bucketYear(entries, year, loc, BucketMonth, sc))
	return out
}

// BucketByWeek partitions [from, to] into Monday-anchored weeks.
func BucketByWeek(entries []kpilog.Entry, from, to time.Time, loc *time.Location, sc Scoring) []Breakdown {
	if loc == nil {
		loc = time.UTC
	}
	w := NewAnalysisWindow(from.In(loc), to.In(loc), BucketWeek)
	return bucketize(entries, w, loc, sc)
}

// BucketByYear returns one breakdown per calendar year spanned by entries,
// oldest first. No entries yields no breakdowns.
func BucketByYear(entries []kpilog.Entry, loc *time.Location, sc Scoring) []Breakdown {
	if len(entries) == 0 {
		return []Breakdown{}
	}
	if loc == nil {
		loc = time.UTC
	}
	first, last := CanonicalDate(entries[0], loc), CanonicalDate(entries[0], loc)
	for _, e := range entries[1:] {
		d := CanonicalDate(e, loc)
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}
	return bucketize(entries, NewAnalysisWindow(first, last, BucketYear), loc, sc)
}

func bucketYear(entries []kpilog.Entry, year int, loc *time.Location, bucket string, sc Scoring) []Breakdown {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	w := AnalysisWindow{Start: start, End: SnapToEnd(start, BucketYear), Bucket: bucket}
	return bucketize(entries, w, loc, sc)
}

func bucketize(entries []kpilog.Entry, w AnalysisWindow, loc *time.Location, sc Scoring) []Breakdown {
	starts := w.Subdivide()
	grouped := make([][]kpilog.Entry, len(starts))
	for _, e := range entries {
		idx := w.FindBucketIndex(CanonicalDate(e, loc))
		if idx < 0 || idx >= len(starts) {
			continue
		}
		grouped[idx] = append(grouped[idx], e)
	}

	out := make([]Breakdown, len(starts))
	var prev *Breakdown
	for i, start := range starts {
		b := summarize(grouped[i], start, w.Bucket)
		if b.Count > 0 {
			b.Findings = detect(b, prev, sc)
			b.Status = bucketStatus(b, sc)
		}
		out[i] = b
		if b.Count > 0 {
			prev = &out[i]
		}
	}
	return out
}

func summarize(entries []kpilog.Entry, start time.Time, bucket string) Breakdown {
	b := Breakdown{
		Label:  Label(start, bucket),
		Start:  start,
		End:    SnapToEnd(start, bucket),
		Count:  len(entries),
		Status: status.NoData,
	}
	if len(entries) == 0 {
		return b
	}

	values := make([]float64, len(entries))
	for i, e := range entries {
		values[i] = e.Value
		counters, ok := e.Data.Object("stats")
		if !ok {
			continue
		}
		for k, raw := range counters {
			v, ok := kpilog.ToFloat(raw)
			if !ok {
				continue
			}
			if b.Stats == nil {
				b.Stats = make(map[string]float64)
			}
			b.Stats[k] += v
		}
	}
	b.Average = Mean(values)
	b.Median = CalculateMedianContinuous(values)
	return b
}

// detect raises findings for a populated bucket. Lower-is-better KPIs are judged
// against their target rather than the percentage cutoffs.
func detect(b Breakdown, prev *Breakdown, sc Scoring) []Finding {
	finding := func(sev Severity, msg string) []Finding {
		return []Finding{{
			KPIID:    sc.KPIID,
			Period:   b.Label,
			Start:    b.Start,
			Severity: sev,
			Average:  Round1(b.Average),
			Message:  msg,
		}}
	}

	if sc.LowerIsBetter {
		if status.Threshold(b.Average, sc.Target, true) == status.NeedsAttention {
			return finding(SeverityWarning, fmt.Sprintf("average %.1f exceeds target %.1f", b.Average, sc.Target))
		}
		return nil
	}

	th := sc.Degradation
	score := sc.score(b.Average)
	unit := ""
	if sc.Relative {
		unit = "% of target"
	}
	switch {
	case score < th.Critical:
		return finding(SeverityCritical, fmt.Sprintf("average %.1f below critical cutoff %.0f%s", b.Average, th.Critical, unit))
	case score < th.Warning:
		return finding(SeverityWarning, fmt.Sprintf("average %.1f below warning cutoff %.0f%s", b.Average, th.Warning, unit))
	case prev != nil && sc.score(prev.Average)-score > LowDropPoints:
		return finding(SeverityLow, fmt.Sprintf("average dropped %.1f points since %s", sc.score(prev.Average)-score, prev.Label))
	}
	return nil
}

func bucketStatus(b Breakdown, sc Scoring) status.Status {
	if b.Count == 0 {
		return status.NoData
	}
	if sc.LowerIsBetter {
		return status.Threshold(b.Average, sc.Target, true)
	}
	worst := Severity("")
	for _, f := range b.Findings {
		if f.Severity.rank() > worst.rank() {
			worst = f.Severity
		}
	}
	switch {
	case worst == SeverityCritical:
		return status.NeedsAttention
	case worst == SeverityWarning:
		return status.Fair
	case sc.score(b.Average) >= ExcellentScore:
		return status.Excellent
	default:
		return status.Good
	}
}

// CollectFindings flattens the findings of breakdowns.
func CollectFindings(breakdowns []Breakdown) []Finding {
	var out []Finding
	for _, b := range breakdowns {
		out = append(out, b.Findings...)
	}
	return out
}

// SortFindings orders findings critical first, then warning, then low; ties by period start.
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		ri, rj := findings[i].Severity.rank(), findings[j].Severity.rank()
		if ri != rj {
			return ri > rj
		}
		return findings[i].Start.Before(findings[j].Start)
	})
}
