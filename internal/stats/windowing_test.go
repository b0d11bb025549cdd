package stats

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMondayOfWeek(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected time.Time
	}{
		{"Monday", day(2024, 3, 11), day(2024, 3, 11)},
		{"Wednesday", time.Date(2024, 3, 13, 15, 30, 0, 0, time.UTC), day(2024, 3, 11)},
		{"SundaySnapsBackSixDays", time.Date(2024, 3, 17, 23, 0, 0, 0, time.UTC), day(2024, 3, 11)},
		{"AcrossMonth", day(2024, 3, 2), day(2024, 2, 26)},
		{"AcrossYear", day(2025, 1, 1), day(2024, 12, 30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MondayOfWeek(tt.input); !got.Equal(tt.expected) {
				t.Errorf("MondayOfWeek(%s) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}

	if got := SundayOfWeek(day(2024, 3, 11)); !got.Equal(day(2024, 3, 17)) {
		t.Errorf("SundayOfWeek() = %s, want 2024-03-17", got)
	}
	if got := SundayOfWeek(day(2024, 3, 17)); !got.Equal(day(2024, 3, 17)) {
		t.Errorf("SundayOfWeek(Sunday) = %s, want the same day", got)
	}
}

func TestSnapBoundaries(t *testing.T) {
	ts := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		bucket     string
		start, end time.Time
		label      string
	}{
		{BucketDay, day(2024, 5, 20), day(2024, 5, 21).Add(-time.Nanosecond), "2024-05-20"},
		{BucketWeek, day(2024, 5, 20), day(2024, 5, 27).Add(-time.Nanosecond), "2024-W21"},
		{BucketMonth, day(2024, 5, 1), day(2024, 6, 1).Add(-time.Nanosecond), "May 2024"},
		{BucketQuarter, day(2024, 4, 1), day(2024, 7, 1).Add(-time.Nanosecond), "Q2 2024"},
		{BucketYear, day(2024, 1, 1), day(2025, 1, 1).Add(-time.Nanosecond), "2024"},
	}

	for _, tt := range tests {
		t.Run(tt.bucket, func(t *testing.T) {
			if got := SnapToStart(ts, tt.bucket); !got.Equal(tt.start) {
				t.Errorf("SnapToStart = %s, want %s", got, tt.start)
			}
			if got := SnapToEnd(ts, tt.bucket); !got.Equal(tt.end) {
				t.Errorf("SnapToEnd = %s, want %s", got, tt.end)
			}
			if got := Label(SnapToStart(ts, tt.bucket), tt.bucket); got != tt.label {
				t.Errorf("Label = %q, want %q", got, tt.label)
			}
		})
	}
}

func TestAnalysisWindow_Subdivide(t *testing.T) {
	w := NewAnalysisWindow(day(2024, 2, 15), day(2024, 11, 2), BucketQuarter)
	buckets := w.Subdivide()
	if len(buckets) != 4 {
		t.Fatalf("Expected 4 quarters, got %d", len(buckets))
	}
	if idx := w.FindBucketIndex(day(2024, 8, 31)); idx != 2 {
		t.Errorf("Expected August in bucket 2, got %d", idx)
	}
	if idx := w.FindBucketIndex(day(2025, 1, 1)); idx != -1 {
		t.Errorf("Expected out-of-range date to return -1, got %d", idx)
	}
}

func TestAnalysisWindow_WeekIndexAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	w := NewAnalysisWindow(time.Date(2024, 3, 18, 0, 0, 0, 0, loc), time.Date(2024, 4, 7, 0, 0, 0, 0, loc), BucketWeek)

	// The clocks go forward on 2024-03-31, so the week of 1 April is 167 hours after its predecessor.
	if idx := w.FindBucketIndex(time.Date(2024, 4, 2, 9, 0, 0, 0, loc)); idx != 2 {
		t.Errorf("Expected week index 2 across DST, got %d", idx)
	}
}
