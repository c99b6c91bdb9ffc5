package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fieldsales/crm-comercios/internal/merchant"
	"github.com/fieldsales/crm-comercios/internal/report"
	"github.com/fieldsales/crm-comercios/internal/route"
	"github.com/fieldsales/crm-comercios/internal/status"
	"github.com/fieldsales/crm-comercios/internal/visit"
)

// printJSON marshals v as indented JSON and writes it to out.
func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table writes tab-separated rows aligned in columns.
type table struct {
	tw  *tabwriter.Writer
	err error
}

func newTable(out io.Writer, header, separator string) *table {
	t := &table{tw: tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)}
	t.row("%s\n", header)
	t.row("%s\n", separator)
	return t
}

func (t *table) row(format string, args ...interface{}) {
	if t.err != nil {
		return
	}
	if _, err := fmt.Fprintf(t.tw, format, args...); err != nil {
		t.err = fmt.Errorf("writing table row: %w", err)
	}
}

func (t *table) flush() error {
	if t.err != nil {
		return t.err
	}
	if err := t.tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}
	return nil
}

// printMerchantTable prints merchants with their derived status.
func printMerchantTable(out io.Writer, merchants []*merchant.Merchant, grouped map[string][]*visit.Record) error {
	if len(merchants) == 0 {
		fmt.Fprintln(out, "No merchants found.")
		return nil
	}

	t := newTable(out, "STATUS\tMERCHANT\tCUIT\tRUBRO\tADDRESS", "------\t--------\t----\t-----\t-------")
	for _, m := range merchants {
		st := status.Of(m.Name, grouped)
		t.row("%s %s\t%s\t%s\t%s\t%s\n", st.Glyph(), st.Label(), truncate(m.Name, 40), m.TaxID, m.Category, truncate(m.Address, 40))
	}
	if err := t.flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nTotal: %d merchants\n", len(merchants))
	return nil
}

// printHistoryTable prints visit records oldest first.
func printHistoryTable(out io.Writer, records []*visit.Record) error {
	if len(records) == 0 {
		fmt.Fprintln(out, "No visits recorded.")
		return nil
	}

	t := newTable(out, "ID\tDATE\tMERCHANT\tCHANNEL\tREACHED\tRESCHEDULE\tRESPONSE", "--\t----\t--------\t-------\t-------\t----------\t--------")
	for _, r := range records {
		reschedule := "-"
		if r.RescheduleDate != nil {
			reschedule = *r.RescheduleDate
		}
		t.row("%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04"), truncate(r.MerchantName, 30), r.Channel,
			truncate(string(r.Outcome), 12), reschedule, truncate(r.Response, 40))
	}
	return t.flush()
}

// printReportTable prints the per-representative summary.
func printReportTable(out io.Writer, rows []report.Row) error {
	if len(rows) == 0 {
		fmt.Fprintln(out, "No representatives found.")
		return nil
	}

	t := newTable(out, "LEGAJO\tASSIGNED\tNOT MANAGED\tCONTACTED\tRESCHEDULED\tCLOSED\tVISITS\tCOVERAGE", "------\t--------\t-----------\t---------\t-----------\t------\t------\t--------")
	for _, r := range rows {
		t.row("%s\t%d\t%d\t%d\t%d\t%d\t%d\t%.0f%%\n",
			r.RepresentativeID, r.Assigned, r.NotManaged, r.Contacted, r.Rescheduled, r.Closed, r.Visits, r.Coverage()*100)
	}
	return t.flush()
}

// printRoute prints a planned route in visiting order.
func printRoute(out io.Writer, stops []route.Stop) error {
	if len(stops) == 0 {
		fmt.Fprintln(out, "No pending merchants with a location.")
		return nil
	}

	t := newTable(out, "#\tMERCHANT\tSTATUS\tLAST CONTACT\tDISTANCE\tADDRESS", "-\t--------\t------\t------------\t--------\t-------")
	for _, s := range stops {
		t.row("%d\t%s\t%s %s\t%s\t%.1f km\t%s\n",
			s.Order, truncate(s.Merchant.Name, 30), s.Status.Glyph(), s.Status.Label(),
			formatDays(s.DaysSinceLastContact), s.DistanceKm, truncate(s.Merchant.Address, 40))
	}
	return t.flush()
}

// formatDays renders days since last contact, with the no-contact sentinel
// shown as "never".
func formatDays(days int) string {
	if days == status.NoContactDays {
		return "never"
	}
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

// truncate shortens s to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
