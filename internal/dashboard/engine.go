package dashboard

import (
	"fmt"
	"maps"
	"time"

	"github.com/rs/zerolog/log"

	"chemkpi/internal/catalog"
	"chemkpi/internal/kpilog"
	"chemkpi/internal/stats"
	"chemkpi/internal/status"
)

// Engine answers the classifier, aggregator and report reads over one store.
type Engine struct {
	store       *kpilog.Store
	catalog     *catalog.Catalog
	rules       *status.Registry
	loc         *time.Location
	now         func() time.Time
	calculators map[string]Calculator
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocation sets the plant time zone used for week and period boundaries.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithClock overrides the clock used for default report ranges.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithCalculator registers the weekly value calculator for a rule name or tracking type.
func WithCalculator(key string, c Calculator) Option {
	return func(e *Engine) { e.calculators[key] = c }
}

// New wires an engine. It fails when the catalog references rules the registry lacks.
func New(store *kpilog.Store, cat *catalog.Catalog, rules *status.Registry, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("dashboard: store is required")
	}
	if cat == nil {
		cat = catalog.Default()
	}
	if rules == nil {
		rules = status.NewRegistry()
	}
	if err := rules.Validate(cat); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	e := &Engine{
		store:       store,
		catalog:     cat,
		rules:       rules,
		loc:         time.UTC,
		now:         time.Now,
		calculators: defaultCalculators(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Store() *kpilog.Store       { return e.store }
func (e *Engine) Catalog() *catalog.Catalog  { return e.catalog }
func (e *Engine) Registry() *status.Registry { return e.rules }
func (e *Engine) Location() *time.Location   { return e.loc }

// Now is the engine clock in the plant time zone.
func (e *Engine) Now() time.Time { return e.now().In(e.loc) }

// Classify returns the status of the latest entry of a KPI. Unknown KPIs and
// KPIs without entries are no-data.
func (e *Engine) Classify(departmentID, kpiID string) status.Status {
	def, ok := e.catalog.Lookup(departmentID, kpiID)
	if !ok {
		return status.NoData
	}
	latest, ok := e.store.Latest(departmentID, kpiID)
	if !ok {
		return status.NoData
	}
	return e.rules.Classify(&latest, &def)
}

// RecordWeekly records a measurement for the week containing date. The week is
// identified by its Monday, stamped into data.weekStart. When the measurement
// has no value, the KPI's calculator derives it from the payload detail.
func (e *Engine) RecordWeekly(departmentID, kpiID string, date time.Time, measurement kpilog.Payload, notes string) kpilog.Entry {
	monday := stats.MondayOfWeek(date.In(e.loc))

	data := make(kpilog.Payload, len(measurement)+1)
	maps.Copy(data, measurement)
	data["weekStart"] = monday.Format("2006-01-02")

	if _, ok := data["value"]; !ok {
		if v, ok := e.calculate(departmentID, kpiID, data); ok {
			data["value"] = v
		}
	}
	return e.store.Record(departmentID, kpiID, data, notes)
}

func (e *Engine) calculate(departmentID, kpiID string, data kpilog.Payload) (float64, bool) {
	def, ok := e.catalog.Lookup(departmentID, kpiID)
	if !ok {
		return 0, false
	}
	calc, ok := e.calculators[calculatorKey(def)]
	if !ok {
		return 0, false
	}
	v, ok := calc(data, def, e.loc)
	if !ok {
		log.Debug().Str("department", departmentID).Str("kpi", kpiID).Msg("Weekly payload lacks detail for value calculation, defaulting to 0")
	}
	return v, ok
}

// WeekEntry returns the most recent entry recorded for the week containing date.
func (e *Engine) WeekEntry(departmentID, kpiID string, date time.Time) (kpilog.Entry, bool) {
	monday := stats.MondayOfWeek(date.In(e.loc))
	for _, entry := range e.store.History(departmentID, kpiID) {
		if stats.MondayOfWeek(stats.CanonicalDate(entry, e.loc)).Equal(monday) {
			return entry, true
		}
	}
	return kpilog.Entry{}, false
}
