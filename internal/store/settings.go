// Package store wraps the queries against the local SQLite database.
package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/erazemk/doacoes/internal/auth"
)

// GetSessionKey retrieves the key used to seal session cookies.
// If no key exists, it generates one, stores it, and returns it.
// Uses INSERT OR IGNORE + re-SELECT to avoid TOCTOU race on concurrent startup.
func GetSessionKey(ctx context.Context, db *sql.DB) ([]byte, error) {
	buf := make([]byte, auth.KeySize)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generating session key: %w", err)
	}

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES ('session_key', ?)`,
		hex.EncodeToString(buf),
	)
	if err != nil {
		return nil, fmt.Errorf("storing session_key: %w", err)
	}

	// Always read back (either our insert or the existing value).
	var encoded string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'session_key'`,
	).Scan(&encoded)
	if err != nil {
		return nil, fmt.Errorf("querying session_key: %w", err)
	}

	key, err := hex.DecodeString(encoded)
	if err != nil || len(key) != auth.KeySize {
		return nil, fmt.Errorf("stored session_key is corrupt")
	}
	return key, nil
}
