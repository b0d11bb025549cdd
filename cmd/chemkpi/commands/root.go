package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"chemkpi/internal/catalog"
	"chemkpi/internal/config"
	"chemkpi/internal/dashboard"
	"chemkpi/internal/kpilog"
	"chemkpi/internal/logging"
	"chemkpi/internal/mcp"
	"chemkpi/internal/status"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "chemkpi",
	Short: "chemkpi is a KPI dashboard engine for a chemical plant",
	Long: `Records plant KPI measurements per department, classifies them against their targets
and aggregates them into department, dashboard and period reports.

Without a subcommand it runs as an MCP server on stdio.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Init(verbose); err != nil {
			return fmt.Errorf("init logging: %w", err)
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("backend", cfg.StoreBackend).
			Msg("chemkpi starting")
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeStore, err := openEngine()
		if err != nil {
			return err
		}
		defer closeStore()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := mcp.NewServer(engine, mcp.Options{Version: Version, EnableMermaidCharts: cfg.EnableMermaidCharts})
		return srv.Serve(ctx)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// openEngine opens the configured store and catalog. The returned func closes the store.
func openEngine() (*dashboard.Engine, func(), error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}
	persister, err := kpilog.OpenBackend(cfg.StoreBackend, cfg.StoreDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	store := kpilog.Open(persister, cfg.StoreKey)

	engine, err := dashboard.New(store, cat, status.NewRegistry(), dashboard.WithLocation(loc))
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close KPI store")
		}
	}
	return engine, closeStore, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
