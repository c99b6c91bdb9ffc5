package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fieldsales/crm-comercios/internal/geocode"
	"github.com/fieldsales/crm-comercios/internal/status"
)

func newRouteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route <legajo> <address...>",
		Short: "Plan today's route from an address",
		Long:  "Geocode the starting address and list up to 10 pending merchants, longest without contact first, nearest first on ties.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoute(cmd, args[0], strings.Join(args[1:], " "))
		},
	}
}

func runRoute(cmd *cobra.Command, rawLegajo, address string) error {
	legajo, err := parseLegajoArg(rawLegajo)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	merchants := a.directory.Current().ForRepresentative(legajo)
	if len(merchants) == 0 {
		return fmt.Errorf("legajo %s has no merchants assigned", legajo)
	}

	records, err := a.repo.ListByRepresentative(cmd.Context(), legajo)
	if err != nil {
		return err
	}

	planner, err := a.planner()
	if err != nil {
		return err
	}

	stops, err := planner.PlanFromAddress(cmd.Context(), address, merchants, status.ByMerchant(records))
	if errors.Is(err, geocode.ErrNotFound) {
		return fmt.Errorf("address not found: %q", address)
	}
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), stops)
	}
	return printRoute(cmd.OutOrStdout(), stops)
}
