package commands

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"chemkpi/internal/kpilog"
	"chemkpi/internal/stats"
)

var (
	recordValue  float64
	recordData   string
	recordNotes  string
	recordWeekly string
	historyLimit int
	trendLimit   int
)

var recordCmd = &cobra.Command{
	Use:   "record <department> <kpi>",
	Short: "Record a KPI measurement",
	Long: `Record a KPI measurement. --data takes a JSON object with the measurement detail;
--value sets its primary value. With --week the entry is filed under the Monday of
that date's week and a missing value is computed from the detail.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		measurement := kpilog.Payload{}
		if recordData != "" {
			if err := json.Unmarshal([]byte(recordData), &measurement); err != nil {
				return fmt.Errorf("--data must be a JSON object: %w", err)
			}
			if measurement == nil {
				measurement = kpilog.Payload{}
			}
		}
		if cmd.Flags().Changed("value") {
			measurement["value"] = recordValue
		}

		engine, closeStore, err := openEngine()
		if err != nil {
			return err
		}
		defer closeStore()

		var entry kpilog.Entry
		if recordWeekly != "" {
			date, ok := stats.ParseDate(recordWeekly, engine.Location())
			if !ok {
				return fmt.Errorf("invalid --week date %q", recordWeekly)
			}
			entry = engine.RecordWeekly(args[0], args[1], date, measurement, recordNotes)
		} else {
			entry = engine.Store().Record(args[0], args[1], measurement, recordNotes)
		}
		if err := engine.Store().LastPersistError(); err != nil {
			return fmt.Errorf("entry recorded but not persisted: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"entry":  entry,
			"status": engine.Classify(args[0], args[1]),
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <department> <kpi>",
	Short: "Show the entries of a KPI, most recent first",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeStore, err := openEngine()
		if err != nil {
			return err
		}
		defer closeStore()

		history := engine.Store().History(args[0], args[1])
		if historyLimit > 0 && historyLimit < len(history) {
			history = history[:historyLimit]
		}
		return printJSON(cmd.OutOrStdout(), history)
	},
}

var trendCmd = &cobra.Command{
	Use:   "trend <department> <kpi>",
	Short: "Show the last values of a KPI, oldest first",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeStore, err := openEngine()
		if err != nil {
			return err
		}
		defer closeStore()
		return printJSON(cmd.OutOrStdout(), engine.Store().Trend(args[0], args[1], trendLimit))
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <department> <kpi> <entry-id>",
	Short: "Delete one entry of a KPI",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid entry id %q", args[2])
		}
		engine, closeStore, err := openEngine()
		if err != nil {
			return err
		}
		defer closeStore()

		if !engine.Store().Delete(args[0], args[1], id) {
			return fmt.Errorf("entry %d not found in %s/%s", id, args[0], args[1])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry %d, %d remaining\n", id, engine.Store().Count(args[0], args[1]))
		return nil
	},
}

func init() {
	recordCmd.Flags().Float64Var(&recordValue, "value", 0, "primary value of the measurement")
	recordCmd.Flags().StringVar(&recordData, "data", "", "measurement detail as a JSON object")
	recordCmd.Flags().StringVar(&recordNotes, "notes", "", "free-text annotation")
	recordCmd.Flags().StringVar(&recordWeekly, "week", "", "record as the weekly entry of this date (YYYY-MM-DD)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "maximum number of entries (0 for all)")
	trendCmd.Flags().IntVar(&trendLimit, "limit", 10, "number of points")

	rootCmd.AddCommand(recordCmd, historyCmd, trendCmd, deleteCmd)
}
