// Package export writes visit data as CSV downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/fieldsales/crm-comercios/internal/visit"
)

// Download file names.
const (
	HistoryFilename = "gestiones_colaborador.csv"
	SummaryFilename = "resumen_gestiones.csv"
)

// HistoryHeader names the history columns, in table order.
var HistoryHeader = []string{
	"id", "legajo", "comercio", "contacto", "contacto_exitoso",
	"respuesta", "nueva_fecha", "fecha_registro",
}

// SummaryHeader names the daily aggregate columns.
var SummaryHeader = []string{"fecha", "legajo", "gestiones"}

// WriteHistory writes records with a header row. No records yields a
// header-only file.
func WriteHistory(w io.Writer, records []*visit.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(HistoryHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, r := range records {
		reschedule := ""
		if r.RescheduleDate != nil {
			reschedule = *r.RescheduleDate
		}
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.RepresentativeID,
			r.MerchantName,
			string(r.Channel),
			string(r.Outcome),
			r.Response,
			reschedule,
			r.CreatedAt.Format(visit.TimestampLayout),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing visit %d: %w", r.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// WriteDailyCounts writes the per-day, per-representative aggregate.
func WriteDailyCounts(w io.Writer, counts []visit.DailyCount) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SummaryHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, c := range counts {
		if err := cw.Write([]string{c.Date, c.RepresentativeID, strconv.Itoa(c.Count)}); err != nil {
			return fmt.Errorf("writing count: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}
