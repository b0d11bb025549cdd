package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"gopkg.in/yaml.v3"
)

// TrackingType selects a specialized classification/aggregation rule.
type TrackingType string

const (
	TrackingNone       TrackingType = ""
	TrackingAttendance TrackingType = "attendance"
	TrackingSafety     TrackingType = "safety"
	TrackingTaskBased  TrackingType = "task-based"
)

// Known reports whether t is one of the supported tracking types.
func (t TrackingType) Known() bool {
	switch t {
	case TrackingNone, TrackingAttendance, TrackingSafety, TrackingTaskBased:
		return true
	}
	return false
}

// Default degradation cutoffs, in percent of the KPI's scale. KPIs measured in
// other units are compared against them as a percentage of their target.
const (
	DefaultWarningCutoff  = 70
	DefaultCriticalCutoff = 50
)

// PercentUnit marks a KPI whose values are already percentages.
const PercentUnit = "%"

// Degradation holds the per-KPI cutoffs used when scanning period averages.
type Degradation struct {
	Warning  float64 `yaml:"warning" json:"warning,omitempty" jsonschema:"average below which a period is flagged as a warning"`
	Critical float64 `yaml:"critical" json:"critical,omitempty" jsonschema:"average below which a period is flagged as critical"`
}

// Definition describes one measurable indicator of a department.
type Definition struct {
	ID            string       `yaml:"id" json:"id" jsonschema:"stable KPI identifier"`
	Name          string       `yaml:"name" json:"name"`
	Unit          string       `yaml:"unit" json:"unit,omitempty"`
	Target        float64      `yaml:"target" json:"target"`
	Category      string       `yaml:"category" json:"category,omitempty"`
	TrackingType  TrackingType `yaml:"tracking_type" json:"tracking_type,omitempty" jsonschema:"attendance, safety or task-based"`
	Rule          string       `yaml:"rule" json:"rule,omitempty" jsonschema:"named classification rule overriding the default threshold rule"`
	LowerIsBetter bool         `yaml:"lower_is_better" json:"lower_is_better,omitempty"`
	Degradation   Degradation  `yaml:"degradation" json:"degradation,omitempty"`

	// DepartmentID is filled in when the catalog is indexed.
	DepartmentID string `yaml:"-" json:"-"`
}

// Thresholds returns the degradation cutoffs with defaults applied.
func (d Definition) Thresholds() Degradation {
	out := d.Degradation
	if out.Warning == 0 {
		out.Warning = DefaultWarningCutoff
	}
	if out.Critical == 0 {
		out.Critical = DefaultCriticalCutoff
	}
	return out
}

// Department groups the KPI definitions of one plant department.
type Department struct {
	ID   string       `yaml:"id" json:"id"`
	Name string       `yaml:"name" json:"name"`
	KPIs []Definition `yaml:"kpis" json:"kpis"`
}

// Catalog is the immutable set of departments and KPI definitions.
type Catalog struct {
	Departments []Department `yaml:"departments" json:"departments"`

	index map[string]map[string]int
	depts map[string]int
}

//go:embed default.yaml
var defaultCatalog []byte

// Default returns the built-in catalog of the chemical plant.
func Default() *Catalog {
	cat, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return cat
}

// Load reads a catalog YAML file. An empty path returns the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := cat.build(); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (c *Catalog) build() error {
	c.depts = make(map[string]int, len(c.Departments))
	c.index = make(map[string]map[string]int, len(c.Departments))

	var problems []string
	for di := range c.Departments {
		dept := &c.Departments[di]
		dept.ID = strings.TrimSpace(dept.ID)
		if dept.ID == "" {
			problems = append(problems, fmt.Sprintf("departments[%d]: id is required", di))
			continue
		}
		if _, dup := c.depts[dept.ID]; dup {
			problems = append(problems, fmt.Sprintf("department %q: duplicate id", dept.ID))
			continue
		}
		c.depts[dept.ID] = di

		kpis := make(map[string]int, len(dept.KPIs))
		for ki := range dept.KPIs {
			def := &dept.KPIs[ki]
			def.ID = strings.TrimSpace(def.ID)
			def.DepartmentID = dept.ID
			switch {
			case def.ID == "":
				problems = append(problems, fmt.Sprintf("department %q kpis[%d]: id is required", dept.ID, ki))
				continue
			case !def.TrackingType.Known():
				problems = append(problems, fmt.Sprintf("kpi %s/%s: unknown tracking_type %q", dept.ID, def.ID, def.TrackingType))
			case def.Target < 0:
				problems = append(problems, fmt.Sprintf("kpi %s/%s: target must not be negative", dept.ID, def.ID))
			}
			if _, dup := kpis[def.ID]; dup {
				problems = append(problems, fmt.Sprintf("kpi %s/%s: duplicate id", dept.ID, def.ID))
				continue
			}
			kpis[def.ID] = ki
		}
		c.index[dept.ID] = kpis
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid catalog: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Lookup returns the definition of a KPI within a department.
func (c *Catalog) Lookup(departmentID, kpiID string) (Definition, bool) {
	if c == nil {
		return Definition{}, false
	}
	di, ok := c.depts[departmentID]
	if !ok {
		return Definition{}, false
	}
	ki, ok := c.index[departmentID][kpiID]
	if !ok {
		return Definition{}, false
	}
	return c.Departments[di].KPIs[ki], true
}

// Department returns a department by id.
func (c *Catalog) Department(id string) (Department, bool) {
	if c == nil {
		return Department{}, false
	}
	di, ok := c.depts[id]
	if !ok {
		return Department{}, false
	}
	return c.Departments[di], true
}

// DepartmentIDs returns department ids in catalog order.
func (c *Catalog) DepartmentIDs() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.Departments))
	for i, d := range c.Departments {
		out[i] = d.ID
	}
	return out
}

// Rules returns every named rule referenced by the catalog.
func (c *Catalog) Rules() []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range c.Departments {
		for _, k := range d.KPIs {
			if k.Rule != "" && !seen[k.Rule] {
				seen[k.Rule] = true
				out = append(out, k.Rule)
			}
		}
	}
	return out
}

// Schema returns the JSON Schema of a catalog document.
func Schema() (*jsonschema.Schema, error) {
	return jsonschema.For[Catalog](nil)
}
