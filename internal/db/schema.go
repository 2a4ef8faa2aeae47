package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. The remote API owns books and pledges;
// only client-side state lives here.
const schema = `
CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS inventory_drift (
    id          INTEGER PRIMARY KEY,
    book_id     INTEGER NOT NULL,
    book_title  TEXT NOT NULL,
    expected    INTEGER NOT NULL CHECK (expected >= 0),
    error       TEXT NOT NULL,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    resolved_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_inventory_drift_pending
    ON inventory_drift(created_at) WHERE resolved_at IS NULL;
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
