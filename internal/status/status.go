package status

// Status is the qualitative bucket derived from comparing a KPI value to its target.
type Status string

const (
	Excellent      Status = "excellent"
	Good           Status = "good"
	Fair           Status = "fair"
	NeedsAttention Status = "needs-attention"
	NoData         Status = "no-data"
)

// Severity ranks how bad a signal a status is. NoData ranks lowest.
func (s Status) Severity() int {
	switch s {
	case Excellent:
		return 1
	case Good:
		return 2
	case Fair:
		return 3
	case NeedsAttention:
		return 4
	default:
		return 0
	}
}

// Points is the efficiency weight of a status: excellent 100, good 80, fair 60,
// anything else 30. Callers only score KPIs that have data.
func (s Status) Points() int {
	switch s {
	case Excellent:
		return 100
	case Good:
		return 80
	case Fair:
		return 60
	default:
		return 30
	}
}

// Worst returns the worst visible signal among statuses:
// needs-attention > fair > good > excellent > no-data.
func Worst(statuses ...Status) Status {
	worst := NoData
	for _, s := range statuses {
		if s.Severity() > worst.Severity() {
			worst = s
		}
	}
	return worst
}
