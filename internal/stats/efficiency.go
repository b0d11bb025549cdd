package stats

import "chemkpi/internal/status"

// Efficiency scores a set of classified KPIs as a percentage of the maximum
// attainable points (excellent 100, good 80, fair 60, anything else 30).
// Only KPIs that have at least one entry should be passed in. An empty set scores 0.
func Efficiency(statuses []status.Status) int {
	if len(statuses) == 0 {
		return 0
	}
	total := 0
	for _, s := range statuses {
		total += s.Points()
	}
	return Round(float64(total) / float64(len(statuses)*100) * 100)
}

// MeanEfficiency averages department efficiencies. Callers exclude
// departments without data; an empty input scores 0.
func MeanEfficiency(scores []int) int {
	if len(scores) == 0 {
		return 0
	}
	values := make([]float64, len(scores))
	for i, s := range scores {
		values[i] = float64(s)
	}
	return Round(Mean(values))
}
