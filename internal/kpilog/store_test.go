package kpilog

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// stepClock returns a clock that advances by step on every call.
func stepClock(start time.Time, step time.Duration) func() time.Time {
	current := start
	return func() time.Time {
		t := current
		current = current.Add(step)
		return t
	}
}

type failingPersister struct {
	writes int
}

func (f *failingPersister) Read(string) ([]byte, error) { return nil, ErrNotFound }
func (f *failingPersister) Write(string, []byte) error {
	f.writes++
	return errors.New("quota exceeded")
}
func (f *failingPersister) Close() error { return nil }

func TestStore_PrependOrder(t *testing.T) {
	start := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	store := Open(NewMemoryPersister(), "", WithClock(stepClock(start, time.Minute)))

	var recorded []Entry
	for i := 0; i < 5; i++ {
		recorded = append(recorded, store.Record("production", "yield", Payload{"value": float64(90 + i)}, ""))
	}

	history := store.History("production", "yield")
	if len(history) != 5 {
		t.Fatalf("Expected 5 entries, got %d", len(history))
	}
	for i, e := range history {
		want := recorded[len(recorded)-1-i]
		if e.ID != want.ID {
			t.Errorf("history[%d]: expected id %d, got %d", i, want.ID, e.ID)
		}
	}

	latest, ok := store.Latest("production", "yield")
	if !ok {
		t.Fatal("Expected a latest entry")
	}
	if latest.ID != recorded[4].ID || latest.Value != 94 {
		t.Errorf("Expected latest to be the last recorded entry, got %+v", latest)
	}
}

func TestStore_RecordDefaults(t *testing.T) {
	store := Open(NewMemoryPersister(), "")

	e := store.Record("hr", "attendance", Payload{"employees": []any{}}, "no value field")
	if e.Value != 0 {
		t.Errorf("Expected value to default to 0, got %v", e.Value)
	}
	if e.Data == nil {
		t.Fatal("Expected measurement to be kept as data")
	}
	if e.Notes != "no value field" {
		t.Errorf("Unexpected notes %q", e.Notes)
	}

	e = store.Record("hr", "attendance", Payload{"value": "87.5"}, "")
	if e.Value != 87.5 {
		t.Errorf("Expected numeric string to be coerced, got %v", e.Value)
	}

	e = store.Record("hr", "attendance", nil, "")
	if e.Data != nil {
		t.Errorf("Expected nil measurement to leave data absent, got %#v", e.Data)
	}
}

func TestStore_IDsStrictlyIncreasing(t *testing.T) {
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := Open(NewMemoryPersister(), "", WithClock(func() time.Time { return fixed }))

	a := store.Record("d", "k", Payload{"value": 1}, "")
	b := store.Record("d", "k", Payload{"value": 2}, "")
	if b.ID <= a.ID {
		t.Errorf("Expected strictly increasing ids, got %d then %d", a.ID, b.ID)
	}
}

func TestStore_UnknownIDsCreateBuckets(t *testing.T) {
	store := Open(NewMemoryPersister(), "")
	store.Record("not-in-catalog", "mystery", Payload{"value": 3}, "")

	if got := store.Departments(); !reflect.DeepEqual(got, []string{"not-in-catalog"}) {
		t.Errorf("Unexpected departments %v", got)
	}
	if got := store.KPIs("not-in-catalog"); !reflect.DeepEqual(got, []string{"mystery"}) {
		t.Errorf("Unexpected kpis %v", got)
	}
}

func TestStore_EmptyAccessors(t *testing.T) {
	store := Open(NewMemoryPersister(), "")

	if _, ok := store.Latest("x", "y"); ok {
		t.Error("Expected no latest entry")
	}
	if h := store.History("x", "y"); h == nil || len(h) != 0 {
		t.Errorf("Expected empty non-nil history, got %#v", h)
	}
	if tr := store.Trend("x", "y", 5); len(tr) != 0 {
		t.Errorf("Expected empty trend, got %#v", tr)
	}
}

func TestStore_AccessorsReturnCopies(t *testing.T) {
	store := Open(NewMemoryPersister(), "")
	store.Record("quality", "ph", Payload{
		"value":   7.0,
		"note":    "orig",
		"stats":   map[string]any{"total": 10.0},
		"batches": []any{map[string]any{"id": "b1"}},
	}, "")

	h := store.History("quality", "ph")
	h[0].Data["note"] = "mutated"
	h[0].Data["stats"].(map[string]any)["total"] = 99.0
	h[0].Data["batches"].([]any)[0].(map[string]any)["id"] = "b2"

	latest, _ := store.Latest("quality", "ph")
	if got := latest.Data["note"]; got != "orig" {
		t.Errorf("Expected History edits not to reach the store, got note %v", got)
	}
	if got := latest.Data["stats"].(map[string]any)["total"]; got != 10.0 {
		t.Errorf("Expected nested counters to be copied, got %v", got)
	}
	if got := latest.Data["batches"].([]any)[0].(map[string]any)["id"]; got != "b1" {
		t.Errorf("Expected nested lists to be copied, got %v", got)
	}

	latest.Data["note"] = "again"
	snap := store.Snapshot()
	if got := snap["quality"]["ph"][0].Data["note"]; got != "orig" {
		t.Errorf("Expected Latest edits not to reach the store, got %v", got)
	}
	snap["quality"]["ph"][0].Data["note"] = "snapshot"
	if got := store.History("quality", "ph")[0].Data["note"]; got != "orig" {
		t.Errorf("Expected Snapshot edits not to reach the store, got %v", got)
	}
}

func TestStore_TrendChronological(t *testing.T) {
	start := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	store := Open(NewMemoryPersister(), "", WithClock(stepClock(start, time.Hour)))

	for i := 1; i <= 6; i++ {
		store.Record("quality", "ph", Payload{"value": float64(i)}, "")
	}

	trend := store.Trend("quality", "ph", 3)
	if len(trend) != 3 {
		t.Fatalf("Expected 3 points, got %d", len(trend))
	}
	want := []float64{4, 5, 6}
	for i, p := range trend {
		if p.Value != want[i] {
			t.Errorf("trend[%d]: expected %v, got %v", i, want[i], p.Value)
		}
	}
	if !trend[0].Date.Before(trend[2].Date) {
		t.Error("Expected trend in chronological order")
	}

	if all := store.Trend("quality", "ph", 0); len(all) != 6 {
		t.Errorf("Expected full trend for non-positive limit, got %d", len(all))
	}
}

func TestStore_DeleteMissingIsNoop(t *testing.T) {
	start := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	store := Open(NewMemoryPersister(), "", WithClock(stepClock(start, time.Second)))

	a := store.Record("d", "k", Payload{"value": 1}, "")
	b := store.Record("d", "k", Payload{"value": 2}, "")
	before := store.History("d", "k")

	if store.Delete("d", "k", 424242) {
		t.Error("Expected Delete of unknown id to report false")
	}
	if store.Delete("nope", "k", a.ID) {
		t.Error("Expected Delete in unknown department to report false")
	}
	if after := store.History("d", "k"); !reflect.DeepEqual(before, after) {
		t.Errorf("Expected history unchanged, got %+v", after)
	}

	if !store.Delete("d", "k", a.ID) {
		t.Fatal("Expected Delete of existing id to succeed")
	}
	h := store.History("d", "k")
	if len(h) != 1 || h[0].ID != b.ID {
		t.Errorf("Expected only entry %d left, got %+v", b.ID, h)
	}
}

func TestStore_RoundTrip(t *testing.T) {
	start := time.Date(2025, 6, 9, 10, 30, 0, 123456789, time.UTC)
	mem := NewMemoryPersister()
	store1 := Open(mem, "roundtrip", WithClock(stepClock(start, 90*time.Minute)))

	store1.Record("warehouse", "reception_acceptance", Payload{
		"value": 62,
		"receptions": []any{
			map[string]any{"date": "2025-06-09", "conforme": true},
			map[string]any{"date": "2025-06-10", "conforme": false},
		},
		"stats": map[string]any{"total": 2, "conforme": 1},
	}, "weekly check")
	store1.Record("warehouse", "waste_rate", Payload{"value": 100, "wastedCount": 0}, "")
	store1.Record("hse", "safety_incidents", Payload{"value": 0, "employees": []any{}}, "quiet week")

	store2 := Open(mem, "roundtrip")

	if !reflect.DeepEqual(store1.Snapshot(), store2.Snapshot()) {
		a, _ := json.Marshal(store1.Snapshot())
		b, _ := json.Marshal(store2.Snapshot())
		t.Fatalf("Round-trip mismatch:\n%s\n%s", a, b)
	}

	e, _ := store2.Latest("warehouse", "reception_acceptance")
	if e.Notes != "weekly check" || e.Value != 62 {
		t.Errorf("Unexpected reloaded entry %+v", e)
	}
	if e.Date.Nanosecond()%int(time.Millisecond) != 0 {
		t.Errorf("Expected millisecond precision dates, got %v", e.Date)
	}
}

func TestStore_CorruptBlobStartsEmpty(t *testing.T) {
	mem := NewMemoryPersister()
	_ = mem.Write(DefaultKey, []byte(`{"production": [`))

	store := Open(mem, DefaultKey)
	if len(store.Departments()) != 0 {
		t.Errorf("Expected empty store, got %v", store.Departments())
	}

	store.Record("production", "yield", Payload{"value": 1}, "")
	if store.Count("production", "yield") != 1 {
		t.Error("Expected store to remain usable after corrupt load")
	}
}

func TestStore_PersistFailureKeepsMutation(t *testing.T) {
	fp := &failingPersister{}
	store := Open(fp, "")

	e := store.Record("finance", "cost_vs_budget", Payload{"value": 100}, "")
	if fp.writes != 1 {
		t.Errorf("Expected one write attempt, got %d", fp.writes)
	}
	if store.LastPersistError() == nil {
		t.Error("Expected persist error to be recorded")
	}
	latest, ok := store.Latest("finance", "cost_vs_budget")
	if !ok || latest.ID != e.ID {
		t.Error("Expected in-memory mutation to stand despite persist failure")
	}
}

func TestStore_EveryMutationPersists(t *testing.T) {
	mem := NewMemoryPersister()
	store := Open(mem, "k")

	e := store.Record("d", "k", Payload{"value": 5}, "")
	blob, err := mem.Read("k")
	if err != nil {
		t.Fatalf("Expected blob after record: %v", err)
	}
	var data Data
	if err := json.Unmarshal(blob, &data); err != nil {
		t.Fatalf("Blob is not valid JSON: %v", err)
	}
	if len(data["d"]["k"]) != 1 {
		t.Fatalf("Expected persisted entry, got %s", blob)
	}

	store.Delete("d", "k", e.ID)
	blob, _ = mem.Read("k")
	data = nil
	_ = json.Unmarshal(blob, &data)
	if len(data["d"]["k"]) != 0 {
		t.Errorf("Expected delete to be persisted, got %s", blob)
	}
}

func TestStore_FilePersistence(t *testing.T) {
	dir := t.TempDir()
	fp, err := NewFilePersister(dir)
	if err != nil {
		t.Fatalf("NewFilePersister failed: %v", err)
	}

	store1 := Open(fp, "plant")
	store1.Record("production", "yield", Payload{"value": 97.5}, "")

	if _, err := fp.Read("plant"); err != nil {
		t.Fatalf("Expected file to exist: %v", err)
	}
	if leftovers, _ := filepath.Glob(filepath.Join(dir, "*.tmp")); len(leftovers) != 0 {
		t.Errorf("Expected temp file to be renamed away, found %v", leftovers)
	}

	store2 := Open(fp, "plant")
	e, ok := store2.Latest("production", "yield")
	if !ok || e.Value != 97.5 {
		t.Errorf("Expected reloaded value 97.5, got %+v", e)
	}
}
