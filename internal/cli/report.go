package cli

import (
	"github.com/spf13/cobra"

	"github.com/fieldsales/crm-comercios/internal/export"
	"github.com/fieldsales/crm-comercios/internal/report"
)

func newReportCmd() *cobra.Command {
	var asCSV bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize activity per representative",
		Long:  "Show per-representative status counts, or with --csv the per-day visit counts managers download from the web UI.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, asCSV)
		},
	}

	cmd.Flags().BoolVar(&asCSV, "csv", false, "write per-day counts as CSV")

	return cmd
}

func runReport(cmd *cobra.Command, asCSV bool) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	if asCSV {
		daily, err := a.repo.DailyCounts(ctx)
		if err != nil {
			return err
		}
		return export.WriteDailyCounts(out, daily)
	}

	records, err := a.repo.ListAll(ctx)
	if err != nil {
		return err
	}
	rows := report.Build(a.directory.Current(), records)

	if isJSON() {
		return printJSON(out, rows)
	}
	return printReportTable(out, rows)
}
