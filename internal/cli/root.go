// Package cli defines the cobra command tree for crm-comercios.
package cli

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldsales/crm-comercios/internal/config"
	"github.com/fieldsales/crm-comercios/internal/logging"
)

var (
	flagFormat    string
	flagDB        string
	flagConfig    string
	flagDirectory string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "crm",
		Short:         "Field-sales CRM for merchant visits",
		Long:          "Log visits to assigned merchants, track their status, plan a daily route and export activity, from the CLI or the web UI.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Command output goes to stdout; keep logs off it.
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), false))
		},
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.crm-comercios/gestiones.db)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&flagDirectory, "directory", "", "merchant directory CSV (default: proveedores_mvp.csv)")

	root.AddCommand(
		newServeCmd(),
		newMerchantsCmd(),
		newHistoryCmd(),
		newReportCmd(),
		newRouteCmd(),
		newLogCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig reads the configuration and applies the global flags on top.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, err
	}
	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	if flagDirectory != "" {
		cfg.DirectoryPath = flagDirectory
	}
	return cfg, nil
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
