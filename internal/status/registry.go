package status

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"chemkpi/internal/catalog"
	"chemkpi/internal/kpilog"
)

// Rule classifies the latest entry of a KPI against its definition.
// Rules only see entries that carry a payload.
type Rule interface {
	Classify(entry kpilog.Entry, def catalog.Definition) Status
}

// RuleFunc adapts a function to Rule.
type RuleFunc func(entry kpilog.Entry, def catalog.Definition) Status

func (f RuleFunc) Classify(entry kpilog.Entry, def catalog.Definition) Status {
	return f(entry, def)
}

// Registry dispatches classification to per-KPI strategies: a named rule from
// the definition wins, then the tracking-type rule, then the default threshold rule.
type Registry struct {
	mu            sync.RWMutex
	rules         map[string]Rule
	tracking      map[catalog.TrackingType]Rule
	lowerIsBetter map[string]bool
	fallback      Rule
}

// DefaultLowerIsBetter lists KPI ids where a smaller value is the better outcome.
var DefaultLowerIsBetter = []string{"safety_incidents", "lost_time_injuries", "customer_complaints"}

// NewRegistry returns a registry preloaded with the plant's rules.
func NewRegistry() *Registry {
	r := &Registry{
		rules:         make(map[string]Rule),
		tracking:      make(map[catalog.TrackingType]Rule),
		lowerIsBetter: make(map[string]bool),
	}
	r.fallback = RuleFunc(r.thresholdRule)

	r.RegisterTracking(catalog.TrackingAttendance, RuleFunc(attendanceRule))
	r.RegisterTracking(catalog.TrackingTaskBased, RuleFunc(attendanceRule))
	r.RegisterTracking(catalog.TrackingSafety, RuleFunc(safetyRule))

	r.RegisterRule(RuleReceptionAcceptance, RuleFunc(fourTierRule))
	r.RegisterRule(RuleInventoryQuality, RuleFunc(fourTierRule))
	r.RegisterRule(RuleWasteRate, RuleFunc(wasteRateRule))
	r.RegisterRule(RuleCostBudget, RuleFunc(costBudgetRule))

	r.MarkLowerIsBetter(DefaultLowerIsBetter...)
	return r
}

// RegisterRule binds a named rule referenced by catalog definitions.
func (r *Registry) RegisterRule(name string, rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[name] = rule
}

// RegisterTracking binds the rule used for a tracking type.
func (r *Registry) RegisterTracking(t catalog.TrackingType, rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracking[t] = rule
}

// MarkLowerIsBetter flips the default threshold rule for the given KPI ids.
func (r *Registry) MarkLowerIsBetter(ids ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		r.lowerIsBetter[id] = true
	}
}

// LowerIsBetter reports whether def is scored in the inverted direction.
func (r *Registry) LowerIsBetter(def catalog.Definition) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return def.LowerIsBetter || r.lowerIsBetter[def.ID]
}

// Validate fails when the catalog references rules that are not registered.
func (r *Registry) Validate(cat *catalog.Catalog) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var missing []string
	for _, name := range cat.Rules() {
		if _, ok := r.rules[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("catalog references unregistered rules: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Classify maps the latest entry of a KPI to a Status. A missing entry,
// payload or definition yields NoData.
func (r *Registry) Classify(entry *kpilog.Entry, def *catalog.Definition) Status {
	if entry == nil || entry.Data == nil || def == nil {
		return NoData
	}
	return r.ruleFor(*def).Classify(*entry, *def)
}

func (r *Registry) ruleFor(def catalog.Definition) Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if def.Rule != "" {
		if rule, ok := r.rules[def.Rule]; ok {
			return rule
		}
	}
	if def.TrackingType != catalog.TrackingNone {
		if rule, ok := r.tracking[def.TrackingType]; ok {
			return rule
		}
	}
	return r.fallback
}

func (r *Registry) thresholdRule(entry kpilog.Entry, def catalog.Definition) Status {
	return Threshold(entry.Value, def.Target, r.LowerIsBetter(def))
}
