package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"chemkpi/internal/catalog"
	"chemkpi/internal/dashboard"
	"chemkpi/internal/stats"
)

var (
	reportYear int
	reportFrom string
	reportTo   string
)

var statusCmd = &cobra.Command{
	Use:   "status <department> <kpi>",
	Short: "Classify the latest entry of a KPI",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeStore, err := openEngine()
		if err != nil {
			return err
		}
		defer closeStore()
		fmt.Fprintln(cmd.OutOrStdout(), engine.Classify(args[0], args[1]))
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary [department]",
	Short: "Summarize one department, or the whole dashboard",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeStore, err := openEngine()
		if err != nil {
			return err
		}
		defer closeStore()

		if len(args) == 0 {
			return printJSON(cmd.OutOrStdout(), engine.SummarizeDashboard())
		}
		sum, ok := engine.SummarizeDepartment(args[0])
		if !ok {
			return fmt.Errorf("unknown department %q", args[0])
		}
		return printJSON(cmd.OutOrStdout(), sum)
	},
}

var reportCmd = &cobra.Command{
	Use:   "report <department> <kpi> <week|month|quarter|year>",
	Short: "Bucket a KPI's history into periods",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeStore, err := openEngine()
		if err != nil {
			return err
		}
		defer closeStore()

		q := dashboard.ReportQuery{Year: reportYear}
		if q.From, err = flagDate("from", reportFrom, engine.Location()); err != nil {
			return err
		}
		if q.To, err = flagDate("to", reportTo, engine.Location()); err != nil {
			return err
		}

		report, err := engine.Report(args[0], args[1], args[2], q)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), report)
	},
}

func flagDate(flag, raw string, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, ok := stats.ParseDate(raw, loc)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid --%s date %q, expected YYYY-MM-DD", flag, raw)
	}
	return t, nil
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the KPI catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List departments and KPI definitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), cat.Departments)
	},
}

var catalogSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of a catalog file",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := catalog.Schema()
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), schema)
	},
}

func init() {
	reportCmd.Flags().IntVar(&reportYear, "year", 0, "calendar year for month and quarter reports (default current year)")
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "first day of a weekly report (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "last day of a weekly report (YYYY-MM-DD)")

	catalogCmd.AddCommand(catalogListCmd, catalogSchemaCmd)
	rootCmd.AddCommand(statusCmd, summaryCmd, reportCmd, catalogCmd)
}
