package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"chemkpi/internal/kpilog"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)
	t.Setenv("LOGS_FOLDER", dir)
	t.Setenv("KPI_STORE_BACKEND", "file")
	t.Setenv("KPI_TIMEZONE", "UTC")
}

func TestRecordThenHistoryAndStatus(t *testing.T) {
	setupEnv(t)

	if _, err := run(t, "record", "production", "oee", "--value", "90", "--notes", "shift A"); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	out, err := run(t, "history", "production", "oee")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	var history []kpilog.Entry
	if err := json.Unmarshal([]byte(out), &history); err != nil {
		t.Fatalf("decode history: %v (%s)", err, out)
	}
	if len(history) != 1 || history[0].Value != 90 || history[0].Notes != "shift A" {
		t.Errorf("Expected one persisted entry of 90, got %+v", history)
	}

	out, err = run(t, "status", "production", "oee")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if strings.TrimSpace(out) != "excellent" {
		t.Errorf("Expected excellent, got %q", out)
	}
}

func TestRecord_InvalidData(t *testing.T) {
	setupEnv(t)
	if _, err := run(t, "record", "production", "oee", "--data", "[1,2]"); err == nil || !strings.Contains(err.Error(), "--data") {
		t.Errorf("Expected a --data error, got %v", err)
	}
}

func TestRecord_NullDataWithValue(t *testing.T) {
	setupEnv(t)
	t.Cleanup(func() {
		recordData, recordValue = "", 0
		recordCmd.Flags().Lookup("value").Changed = false
	})

	if _, err := run(t, "record", "production", "oee", "--data", "null", "--value", "3"); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	out, err := run(t, "history", "production", "oee")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	var history []kpilog.Entry
	if err := json.Unmarshal([]byte(out), &history); err != nil {
		t.Fatalf("decode history: %v (%s)", err, out)
	}
	if len(history) != 1 || history[0].Value != 3 {
		t.Errorf("Expected one entry of 3, got %+v", history)
	}
}

func TestReport_InvalidPeriod(t *testing.T) {
	setupEnv(t)
	if _, err := run(t, "report", "production", "oee", "decade"); err == nil || !strings.Contains(err.Error(), "unknown report period") {
		t.Errorf("Expected an unknown period error, got %v", err)
	}
}

func TestSummary_UnknownDepartment(t *testing.T) {
	setupEnv(t)
	if _, err := run(t, "summary", "packaging"); err == nil {
		t.Error("Expected an error for an unknown department")
	}
}

func TestCatalogSchema(t *testing.T) {
	setupEnv(t)
	out, err := run(t, "catalog", "schema")
	if err != nil {
		t.Fatalf("catalog schema failed: %v", err)
	}
	if !strings.Contains(out, `"departments"`) {
		t.Errorf("Expected departments in the schema, got %s", out)
	}
}
