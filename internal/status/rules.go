package status

import (
	"chemkpi/internal/catalog"
	"chemkpi/internal/kpilog"
)

// Named rules that catalog definitions can select with `rule:`.
const (
	RuleReceptionAcceptance = "reception-acceptance"
	RuleInventoryQuality    = "inventory-quality"
	RuleWasteRate           = "waste-rate"
	RuleCostBudget          = "cost-budget"
)

// Threshold is the default rule: excellent at or beyond the target, good within
// 10% of it, needs-attention otherwise. lowerIsBetter flips the direction.
func Threshold(value, target float64, lowerIsBetter bool) Status {
	tolerance := target * 0.1
	if lowerIsBetter {
		switch {
		case value <= target:
			return Excellent
		case value <= target+tolerance:
			return Good
		default:
			return NeedsAttention
		}
	}
	switch {
	case value >= target:
		return Excellent
	case value >= target-tolerance:
		return Good
	default:
		return NeedsAttention
	}
}

// EffectiveTarget resolves the target of a measurement: a non-zero
// data.weeklyTarget overrides the definition's static target.
func EffectiveTarget(data kpilog.Payload, def catalog.Definition) float64 {
	if t, ok := data.Float("weeklyTarget"); ok && t != 0 {
		return t
	}
	return def.Target
}

// hasEmployees reports whether the payload carries the per-employee detail
// that tracking-type rules require before trusting the scalar value.
func hasEmployees(data kpilog.Payload) bool {
	_, ok := data.List("employees")
	return ok
}

// attendanceRule serves attendance and task-based KPIs.
func attendanceRule(entry kpilog.Entry, def catalog.Definition) Status {
	if !hasEmployees(entry.Data) {
		return NoData
	}
	target := EffectiveTarget(entry.Data, def)
	switch {
	case entry.Value >= target:
		return Excellent
	case entry.Value >= target*0.9:
		return Good
	default:
		return NeedsAttention
	}
}

// safetyRule scores incident counts, where more is worse.
func safetyRule(entry kpilog.Entry, def catalog.Definition) Status {
	if !hasEmployees(entry.Data) {
		return NoData
	}
	target := EffectiveTarget(entry.Data, def)
	switch {
	case entry.Value <= target:
		return Excellent
	case entry.Value <= target*1.5:
		return Good
	default:
		return NeedsAttention
	}
}

// fourTierRule bands the value at target, 90% and 70% of target.
func fourTierRule(entry kpilog.Entry, def catalog.Definition) Status {
	target := EffectiveTarget(entry.Data, def)
	switch {
	case entry.Value >= target:
		return Excellent
	case entry.Value >= target*0.9:
		return Good
	case entry.Value >= target*0.7:
		return Fair
	default:
		return NeedsAttention
	}
}

// wasteRateRule scores the weekly waste score (100 means nothing wasted)
// against fixed absolute bands.
func wasteRateRule(entry kpilog.Entry, _ catalog.Definition) Status {
	switch {
	case entry.Value >= 80:
		return Excellent
	case entry.Value >= 60:
		return Good
	case entry.Value >= 40:
		return Fair
	default:
		return NeedsAttention
	}
}

// costBudgetRule is binary: the score is 100 when cost stayed within budget.
func costBudgetRule(entry kpilog.Entry, _ catalog.Definition) Status {
	if entry.Value >= 100 {
		return Excellent
	}
	return NeedsAttention
}
