package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of idempotent schema statements.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS gestiones (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		representative_id TEXT NOT NULL CHECK (length(trim(representative_id)) > 0),
		merchant_name     TEXT NOT NULL CHECK (length(trim(merchant_name)) > 0),
		contact_channel   TEXT NOT NULL,
		contact_outcome   TEXT NOT NULL,
		response_text     TEXT NOT NULL CHECK (length(trim(response_text)) > 0),
		reschedule_date   TEXT,
		created_at        TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_gestiones_rep_merchant
		ON gestiones (representative_id, merchant_name, created_at)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT     PRIMARY KEY,
		legajo     TEXT     NOT NULL,
		role       TEXT     NOT NULL,
		expires_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
