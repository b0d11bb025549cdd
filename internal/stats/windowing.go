package stats

import (
	"fmt"
	"math"
	"time"
)

// Bucket granularities understood by the windowing helpers.
const (
	BucketDay     = "day"
	BucketWeek    = "week"
	BucketMonth   = "month"
	BucketQuarter = "quarter"
	BucketYear    = "year"
)

// AnalysisWindow is a closed time range subdivided into buckets of one granularity.
type AnalysisWindow struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Bucket string    `json:"bucket"` // "day", "week", "month", "quarter", "year"
}

// NewAnalysisWindow creates a window whose boundaries are snapped to whole buckets.
func NewAnalysisWindow(start, end time.Time, bucket string) AnalysisWindow {
	if bucket == "" {
		bucket = BucketDay
	}
	return AnalysisWindow{
		Start:  SnapToStart(start, bucket),
		End:    SnapToEnd(end, bucket),
		Bucket: bucket,
	}
}

// MondayOfWeek returns midnight of the Monday that starts t's week.
// Sunday belongs to the week that began six days earlier.
func MondayOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday -> 7
	}
	return time.Date(t.Year(), t.Month(), t.Day()-(weekday-1), 0, 0, 0, 0, t.Location())
}

// SundayOfWeek returns midnight of the Sunday that closes t's week.
func SundayOfWeek(t time.Time) time.Time {
	monday := MondayOfWeek(t)
	return time.Date(monday.Year(), monday.Month(), monday.Day()+6, 0, 0, 0, 0, t.Location())
}

// SnapToStart normalizes a timestamp to the beginning of its bucket (0:00:00).
func SnapToStart(t time.Time, bucket string) time.Time {
	if t.IsZero() {
		return t
	}
	switch bucket {
	case BucketYear:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	case BucketQuarter:
		return time.Date(t.Year(), quarterStartMonth(t.Month()), 1, 0, 0, 0, 0, t.Location())
	case BucketMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case BucketWeek:
		return MondayOfWeek(t)
	default: // day
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
}

// SnapToEnd normalizes a timestamp to the very end of its bucket (23:59:59.999...).
func SnapToEnd(t time.Time, bucket string) time.Time {
	if t.IsZero() {
		return t
	}
	return next(SnapToStart(t, bucket), bucket).Add(-time.Nanosecond)
}

// Quarter returns the 1-based calendar quarter of t.
func Quarter(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

func quarterStartMonth(m time.Month) time.Month {
	return time.Month((int(m)-1)/3*3 + 1)
}

func next(start time.Time, bucket string) time.Time {
	switch bucket {
	case BucketYear:
		return start.AddDate(1, 0, 0)
	case BucketQuarter:
		return start.AddDate(0, 3, 0)
	case BucketMonth:
		return start.AddDate(0, 1, 0)
	case BucketWeek:
		return start.AddDate(0, 0, 7)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// Subdivide returns the bucket start times within the window.
func (w AnalysisWindow) Subdivide() []time.Time {
	var buckets []time.Time
	for current := w.Start; current.Before(w.End); current = next(current, w.Bucket) {
		buckets = append(buckets, current)
	}
	return buckets
}

// FindBucketIndex returns the index of the bucket containing t. Returns -1 if out of bounds.
func (w AnalysisWindow) FindBucketIndex(t time.Time) int {
	tNorm := SnapToStart(t.In(w.Start.Location()), w.Bucket)
	if tNorm.Before(w.Start) || tNorm.After(w.End) {
		return -1
	}

	switch w.Bucket {
	case BucketYear:
		return tNorm.Year() - w.Start.Year()
	case BucketQuarter:
		return (tNorm.Year()-w.Start.Year())*4 + Quarter(tNorm) - Quarter(w.Start)
	case BucketMonth:
		return (tNorm.Year()-w.Start.Year())*12 + int(tNorm.Month()-w.Start.Month())
	case BucketWeek:
		// Round absorbs the hour gained or lost across a DST switch.
		return int(math.Round(tNorm.Sub(w.Start).Hours() / (24 * 7)))
	default: // day
		return int(math.Round(tNorm.Sub(w.Start).Hours() / 24))
	}
}

// GenerateLabel returns a human-readable label for a bucket (e.g., "Jan 2024" or "2024-W01").
func (w AnalysisWindow) GenerateLabel(t time.Time) string {
	return Label(t, w.Bucket)
}

// Label formats the bucket containing t.
func Label(t time.Time, bucket string) string {
	switch bucket {
	case BucketYear:
		return t.Format("2006")
	case BucketQuarter:
		return fmt.Sprintf("Q%d %d", Quarter(t), t.Year())
	case BucketMonth:
		return t.Format("Jan 2006")
	case BucketWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	default: // day
		return t.Format("2006-01-02")
	}
}
