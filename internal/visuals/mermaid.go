package visuals

import (
	"fmt"
	"math"
	"strings"

	"chemkpi/internal/kpilog"
	"chemkpi/internal/stats"
	"chemkpi/internal/status"
)

// GenerateTrendChart creates a Mermaid xychart-beta of a KPI's trend points with its target as a flat line.
func GenerateTrendChart(title string, target float64, points []kpilog.TrendPoint) string {
	if len(points) == 0 {
		return ""
	}

	var labels []string
	var values []string
	var targets []string
	maxY := target

	for _, p := range points {
		labels = append(labels, fmt.Sprintf("\"%s\"", p.Date.Format("Jan 02")))
		values = append(values, fmt.Sprintf("%.1f", p.Value))
		targets = append(targets, fmt.Sprintf("%.1f", target))
		maxY = math.Max(maxY, p.Value)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"%s\"\n", title))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Value\" 0 --> %d\n", axisTop(maxY)))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(values, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(targets, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateBreakdownChart creates a Mermaid bar chart of period averages (quarters, months, weeks...).
// Empty periods are drawn as zero.
func GenerateBreakdownChart(title string, breakdowns []stats.Breakdown) string {
	if len(breakdowns) == 0 {
		return ""
	}

	var labels []string
	var values []string
	maxVal := 0.0

	for _, b := range breakdowns {
		labels = append(labels, fmt.Sprintf("\"%s\"", b.Label))
		values = append(values, fmt.Sprintf("%.1f", b.Average))
		maxVal = math.Max(maxVal, b.Average)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"%s\"\n", title))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Average\" 0 --> %d\n", axisTop(maxVal)))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateStatusPie creates a Mermaid pie of how many KPIs sit in each status.
func GenerateStatusPie(title string, statuses []status.Status) string {
	if len(statuses) == 0 {
		return ""
	}

	counts := make(map[status.Status]int)
	for _, s := range statuses {
		counts[s]++
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString(fmt.Sprintf("pie title %s\n", title))
	for _, s := range []status.Status{status.Excellent, status.Good, status.Fair, status.NeedsAttention, status.NoData} {
		if counts[s] > 0 {
			sb.WriteString(fmt.Sprintf("    \"%s\" : %d\n", s, counts[s]))
		}
	}
	sb.WriteString("```")
	return sb.String()
}

// axisTop leaves 20% headroom (at least 1) above the largest value.
func axisTop(maxVal float64) int {
	top := int(math.Ceil(math.Max(0, maxVal)))
	return top + int(math.Max(1, float64(top)/5))
}
