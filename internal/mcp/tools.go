package mcp

import gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

func (s *Server) registerTools(srv *gomcp.Server) {
	tool(srv, "list_catalog",
		"List the plant departments and their KPI definitions (id, unit, target, tracking type, classification rule). "+
			"Guidance: Call this first to learn valid department_id and kpi_id values.",
		s.handleListCatalog)

	tool(srv, "record_kpi_entry",
		"Record a new measurement for a KPI. The measurement object must carry `value` (defaults to 0) and may carry any detail "+
			"(employees, receptions, stats counters...). Entries are never edited: a correction is a new entry. "+
			"Unknown department or KPI ids are accepted and create new series.",
		s.handleRecordEntry)

	tool(srv, "record_weekly_kpi",
		"Record the weekly measurement of a KPI. The date snaps back to the Monday of its week. "+
			"When `value` is omitted it is computed from the detail: `wasted` for waste-rate, `receptions` for reception acceptance "+
			"(mean of per-day conformity), `products` for inventory quality, `actual`/`budget` for cost, `employees` for attendance, task and safety KPIs.",
		s.handleRecordWeekly)

	tool(srv, "get_kpi_history",
		"Get the recorded entries of a KPI, most recent first.",
		s.handleGetHistory)

	tool(srv, "get_kpi_trend",
		"Get the last N values of a KPI in chronological order (oldest first), for charting.",
		s.handleGetTrend)

	tool(srv, "get_kpi_stability",
		"Process behavior (XmR) chart of a KPI: natural process limits over its individual values and over its weekly averages, "+
			"with outlier and shift signals. Status is stable, volatile (outliers) or migrating (a sustained shift).",
		s.handleGetStability)

	tool(srv, "delete_kpi_entry",
		"Delete one entry of a KPI by id. Deleting an unknown id changes nothing.",
		s.handleDeleteEntry)

	tool(srv, "classify_kpi",
		"Classify the latest entry of a KPI as excellent, good, fair, needs-attention or no-data against its definition.",
		s.handleClassify)

	tool(srv, "summarize_department",
		"Summarize one department: status and entry count of every KPI, efficiency score over KPIs with data, "+
			"and the department status (worst signal wins).",
		s.handleSummarizeDepartment)

	tool(srv, "summarize_dashboard",
		"Summarize every department and the plant-wide efficiency (mean over departments that have data).",
		s.handleSummarizeDashboard)

	tool(srv, "get_period_report",
		"Bucket a KPI's history by week, month, quarter or year with averages, summed stats counters, status and degradation findings. "+
			"Guidance: Use `quarter` for management reviews; `week` accepts an optional from/to range (YYYY-MM-DD).",
		s.handleGetReport)
}
