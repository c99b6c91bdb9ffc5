package cli

import (
	"github.com/spf13/cobra"

	"github.com/fieldsales/crm-comercios/internal/export"
	"github.com/fieldsales/crm-comercios/internal/visit"
)

func newHistoryCmd() *cobra.Command {
	var asCSV bool

	cmd := &cobra.Command{
		Use:   "history <legajo>",
		Short: "Show a representative's visit log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, args[0], asCSV)
		},
	}

	cmd.Flags().BoolVar(&asCSV, "csv", false, "write CSV (same columns as the web download)")

	return cmd
}

func runHistory(cmd *cobra.Command, rawLegajo string, asCSV bool) error {
	legajo, err := parseLegajoArg(rawLegajo)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.repo.ListByRepresentative(cmd.Context(), legajo)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case asCSV:
		return export.WriteHistory(out, records)
	case isJSON():
		if records == nil {
			records = []*visit.Record{}
		}
		return printJSON(out, records)
	default:
		return printHistoryTable(out, records)
	}
}
