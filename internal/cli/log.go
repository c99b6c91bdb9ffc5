package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldsales/crm-comercios/internal/visit"
)

func newLogCmd() *cobra.Command {
	var channel, outcome, response, reschedule string

	cmd := &cobra.Command{
		Use:   "log <legajo> <merchant>",
		Short: "Log a visit to a merchant",
		Long:  "Record a visit for one of the representative's merchants. One visit per merchant per day.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(cmd, args[0], args[1], channel, outcome, response, reschedule)
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "presencial", "contact channel (presencial|telefono|mixto)")
	cmd.Flags().StringVar(&outcome, "outcome", "", "contact outcome (si|no|cerrado)")
	cmd.Flags().StringVar(&response, "response", "", "merchant response (required)")
	cmd.Flags().StringVar(&reschedule, "reschedule", "", "new visit date, YYYY-MM-DD (only with --outcome no)")
	_ = cmd.MarkFlagRequired("outcome")
	_ = cmd.MarkFlagRequired("response")

	return cmd
}

func runLog(cmd *cobra.Command, rawLegajo, merchantName, rawChannel, rawOutcome, response, reschedule string) error {
	legajo, err := parseLegajoArg(rawLegajo)
	if err != nil {
		return err
	}
	channel, err := parseChannel(rawChannel)
	if err != nil {
		return err
	}
	outcome, err := parseOutcome(rawOutcome)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, ok := a.directory.Current().Lookup(legajo, merchantName); !ok {
		return fmt.Errorf("merchant %q is not assigned to legajo %s", merchantName, legajo)
	}

	svc, err := a.visitService(cmd.Context())
	if err != nil {
		return err
	}

	result, err := svc.Submit(cmd.Context(), visit.Submission{
		RepresentativeID: legajo,
		MerchantName:     merchantName,
		Channel:          channel,
		Outcome:          outcome,
		Response:         response,
		RescheduleDate:   reschedule,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, result.Record)
	}

	fmt.Fprintf(out, "Visit #%d logged for %s.\n", result.Record.ID, result.Record.MerchantName)
	if result.MirrorErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", result.MirrorErr)
	}
	return nil
}
