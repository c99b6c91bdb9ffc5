// Package sheets mirrors saved visit records to a Google Sheets worksheet.
// The local store stays the source of truth; the sheet is an audit copy.
package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/fieldsales/crm-comercios/internal/visit"
)

const (
	valueInputOption = "USER_ENTERED"
	insertDataOption = "INSERT_ROWS"
)

// Config selects the target worksheet.
type Config struct {
	SpreadsheetID string
	Sheet         string
}

// Mirror appends one row per record.
type Mirror struct {
	values        *gsheets.SpreadsheetsValuesService
	spreadsheetID string
	appendRange   string
}

// New creates a mirror authenticated with the service-account key in
// credentialsFile.
func New(ctx context.Context, cfg Config, credentialsFile string) (*Mirror, error) {
	return NewWithOptions(ctx, cfg,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
}

// NewWithOptions creates a mirror with explicit client options.
func NewWithOptions(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Mirror, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	if cfg.Sheet == "" {
		return nil, fmt.Errorf("sheet name is required")
	}

	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &Mirror{
		values:        svc.Spreadsheets.Values,
		spreadsheetID: cfg.SpreadsheetID,
		appendRange:   cfg.Sheet + "!A1",
	}, nil
}

// Append writes rec as a new row below the sheet's data.
func (m *Mirror) Append(ctx context.Context, rec *visit.Record) error {
	vr := &gsheets.ValueRange{Values: [][]interface{}{Row(rec)}}

	_, err := m.values.Append(m.spreadsheetID, m.appendRange, vr).
		ValueInputOption(valueInputOption).
		InsertDataOption(insertDataOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("appending row for visit %d: %w", rec.ID, err)
	}
	return nil
}

// Row renders rec in table column order.
func Row(rec *visit.Record) []interface{} {
	reschedule := ""
	if rec.RescheduleDate != nil {
		reschedule = *rec.RescheduleDate
	}
	return []interface{}{
		rec.ID,
		rec.RepresentativeID,
		rec.MerchantName,
		string(rec.Channel),
		string(rec.Outcome),
		rec.Response,
		reschedule,
		rec.CreatedAt.Format(visit.TimestampLayout),
	}
}

// Disabled is the mirror used when the export is switched off.
type Disabled struct{}

// Append logs and does nothing.
func (Disabled) Append(_ context.Context, rec *visit.Record) error {
	slog.Debug("sheets export disabled, skipping", "visit_id", rec.ID)
	return nil
}
