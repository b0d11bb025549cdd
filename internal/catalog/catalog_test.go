package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	cat := Default()

	if len(cat.Departments) == 0 {
		t.Fatal("Expected built-in departments")
	}

	def, ok := cat.Lookup("hse", "safety_incidents")
	if !ok {
		t.Fatal("Expected hse/safety_incidents in the built-in catalog")
	}
	if def.TrackingType != TrackingSafety {
		t.Errorf("Expected safety tracking type, got %q", def.TrackingType)
	}
	if def.DepartmentID != "hse" {
		t.Errorf("Expected department id to be indexed, got %q", def.DepartmentID)
	}

	if _, ok := cat.Lookup("hse", "unknown"); ok {
		t.Error("Expected unknown KPI lookup to fail")
	}
	if _, ok := cat.Lookup("unknown", "safety_incidents"); ok {
		t.Error("Expected unknown department lookup to fail")
	}
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name: "Valid",
			doc: `
departments:
  - id: lab
    kpis:
      - id: ph
        target: 7
`,
		},
		{
			name: "MissingDepartmentID",
			doc: `
departments:
  - name: Lab
`,
			wantErr: "id is required",
		},
		{
			name: "DuplicateKPI",
			doc: `
departments:
  - id: lab
    kpis:
      - id: ph
      - id: ph
`,
			wantErr: "duplicate id",
		},
		{
			name: "UnknownTrackingType",
			doc: `
departments:
  - id: lab
    kpis:
      - id: ph
        tracking_type: hourly
`,
			wantErr: "unknown tracking_type",
		},
		{
			name: "NegativeTarget",
			doc: `
departments:
  - id: lab
    kpis:
      - id: ph
        target: -1
`,
			wantErr: "must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestThresholdDefaults(t *testing.T) {
	d := Definition{}
	if th := d.Thresholds(); th.Warning != 70 || th.Critical != 50 {
		t.Errorf("Expected default cutoffs 70/50, got %+v", th)
	}

	cat := Default()
	def, _ := cat.Lookup("quality", "batch_conformity")
	if th := def.Thresholds(); th.Warning != 90 || th.Critical != 80 {
		t.Errorf("Expected catalog cutoffs 90/80, got %+v", th)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yml")
	doc := "departments:\n  - id: lab\n    name: Lab\n    kpis:\n      - id: ph\n        rule: ph-band\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := cat.Rules(); len(got) != 1 || got[0] != "ph-band" {
		t.Errorf("Expected rules [ph-band], got %v", got)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestSchema(t *testing.T) {
	s, err := Schema()
	if err != nil {
		t.Fatalf("Schema failed: %v", err)
	}
	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	for _, field := range []string{"departments", "tracking_type", "lower_is_better"} {
		if !strings.Contains(string(raw), field) {
			t.Errorf("Expected schema to mention %q", field)
		}
	}
	if strings.Contains(string(raw), "DepartmentID") {
		t.Error("Expected indexed-only fields to be excluded from the schema")
	}
}
