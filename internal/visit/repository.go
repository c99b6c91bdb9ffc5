package visit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidRecord is returned by Append when a required field is missing.
var ErrInvalidRecord = errors.New("invalid visit record")

// Repository is the visit log store.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a visit repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, representative_id, merchant_name, contact_channel, contact_outcome, response_text, reschedule_date, created_at`

// Append inserts a record and returns it with its assigned id. A zero
// CreatedAt is stamped with the current time.
func (r *Repository) Append(ctx context.Context, rec *Record) (*Record, error) {
	if err := validate(rec); err != nil {
		return nil, err
	}

	stored := *rec
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO gestiones
			(representative_id, merchant_name, contact_channel, contact_outcome, response_text, reschedule_date, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
		stored.RepresentativeID, stored.MerchantName, string(stored.Channel), string(stored.Outcome),
		stored.Response, stored.RescheduleDate, stored.CreatedAt.Format(TimestampLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting visit: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}
	stored.ID = id

	return &stored, nil
}

// ExistsToday reports whether repID already logged merchantName on now's
// calendar date.
func (r *Repository) ExistsToday(ctx context.Context, repID, merchantName string, now time.Time) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM gestiones
		 WHERE representative_id = ? AND merchant_name = ? AND DATE(created_at) = ?`,
		repID, merchantName, now.Format(DateLayout),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking today's visits: %w", err)
	}
	return count > 0, nil
}

// ListByRepresentative returns every record of repID, oldest first.
func (r *Repository) ListByRepresentative(ctx context.Context, repID string) ([]*Record, error) {
	return r.list(ctx,
		fmt.Sprintf("SELECT %s FROM gestiones WHERE representative_id = ? ORDER BY id", selectColumns),
		repID,
	)
}

// ListAll returns every record, oldest first.
func (r *Repository) ListAll(ctx context.Context) ([]*Record, error) {
	return r.list(ctx, fmt.Sprintf("SELECT %s FROM gestiones ORDER BY id", selectColumns))
}

// Count returns the number of stored records.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM gestiones").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting visits: %w", err)
	}
	return n, nil
}

// DailyCounts aggregates records per day and representative, newest day first.
func (r *Repository) DailyCounts(ctx context.Context) (counts []DailyCount, err error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DATE(created_at) AS day, representative_id, COUNT(*)
		 FROM gestiones
		 GROUP BY day, representative_id
		 ORDER BY day DESC, representative_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregating visits: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var c DailyCount
		var day sql.NullString
		if err := rows.Scan(&day, &c.RepresentativeID, &c.Count); err != nil {
			return nil, fmt.Errorf("scanning daily count: %w", err)
		}
		c.Date = day.String
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating daily counts: %w", err)
	}

	return counts, nil
}

func (r *Repository) list(ctx context.Context, query string, args ...interface{}) (records []*Record, err error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing visits: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning visit: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating visits: %w", err)
	}

	return records, nil
}

func scanRecord(row interface{ Scan(...interface{}) error }) (*Record, error) {
	var rec Record
	var channel, outcome, createdAt string
	var reschedule sql.NullString

	if err := row.Scan(&rec.ID, &rec.RepresentativeID, &rec.MerchantName, &channel, &outcome,
		&rec.Response, &reschedule, &createdAt); err != nil {
		return nil, err
	}

	rec.Channel = Channel(channel)
	rec.Outcome = Outcome(outcome)
	if reschedule.Valid {
		rec.RescheduleDate = &reschedule.String
	}

	t, err := time.ParseInLocation(TimestampLayout, createdAt, time.Local)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	rec.CreatedAt = t

	return &rec, nil
}

func validate(rec *Record) error {
	switch {
	case strings.TrimSpace(rec.RepresentativeID) == "":
		return fmt.Errorf("%w: representative is required", ErrInvalidRecord)
	case strings.TrimSpace(rec.MerchantName) == "":
		return fmt.Errorf("%w: merchant is required", ErrInvalidRecord)
	case !rec.Channel.IsValid():
		return fmt.Errorf("%w: unknown contact channel %q", ErrInvalidRecord, rec.Channel)
	case !rec.Outcome.IsValid():
		return fmt.Errorf("%w: unknown contact outcome %q", ErrInvalidRecord, rec.Outcome)
	case strings.TrimSpace(rec.Response) == "":
		return fmt.Errorf("%w: response is required", ErrInvalidRecord)
	}
	return nil
}
