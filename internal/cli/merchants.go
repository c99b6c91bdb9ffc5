package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldsales/crm-comercios/internal/merchant"
	"github.com/fieldsales/crm-comercios/internal/status"
)

func newMerchantsCmd() *cobra.Command {
	var filter merchant.Filter

	cmd := &cobra.Command{
		Use:   "merchants <legajo>",
		Short: "List a representative's merchants",
		Long:  "List the merchants assigned to a representative with their current status, optionally filtered by CUIT or rubro.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerchants(cmd, args[0], filter)
		},
	}

	cmd.Flags().StringVar(&filter.TaxID, "cuit", "", "only the merchant with this CUIT")
	cmd.Flags().StringVar(&filter.Category, "rubro", "", "only merchants in this rubro")

	return cmd
}

type merchantOutput struct {
	TaxID     string        `json:"cuit"`
	Name      string        `json:"merchant_name"`
	Category  string        `json:"rubro"`
	Address   string        `json:"address"`
	Phone     string        `json:"phone"`
	Latitude  *float64      `json:"latitude,omitempty"`
	Longitude *float64      `json:"longitude,omitempty"`
	Status    status.Status `json:"status"`
}

func newMerchantOutput(m *merchant.Merchant, st status.Status) merchantOutput {
	o := merchantOutput{
		TaxID:    m.TaxID,
		Name:     m.Name,
		Category: m.Category,
		Address:  m.Address,
		Phone:    m.Phone,
		Status:   st,
	}
	if m.HasLocation() {
		lat, lon := m.Latitude, m.Longitude
		o.Latitude, o.Longitude = &lat, &lon
	}
	return o
}

func runMerchants(cmd *cobra.Command, rawLegajo string, filter merchant.Filter) error {
	legajo, err := parseLegajoArg(rawLegajo)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	all := a.directory.Current().ForRepresentative(legajo)
	if len(all) == 0 {
		return fmt.Errorf("legajo %s has no merchants assigned", legajo)
	}

	records, err := a.repo.ListByRepresentative(cmd.Context(), legajo)
	if err != nil {
		return err
	}
	grouped := status.ByMerchant(records)
	merchants := filter.Apply(all)

	out := cmd.OutOrStdout()
	if isJSON() {
		list := make([]merchantOutput, 0, len(merchants))
		for _, m := range merchants {
			list = append(list, newMerchantOutput(m, status.Of(m.Name, grouped)))
		}
		return printJSON(out, list)
	}

	return printMerchantTable(out, merchants, grouped)
}
