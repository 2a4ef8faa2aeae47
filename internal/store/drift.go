package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/doacoes/internal/model"
)

// Drift is a stock decrement that could not be applied after a pledge.
type Drift struct {
	ID         int64
	BookID     int64
	BookTitle  string
	Expected   int
	Error      string
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// RecordDrift journals a failed decrement for book.
func RecordDrift(ctx context.Context, db *sql.DB, bookID int64, title string, expected int, cause string) (int64, error) {
	if expected < 0 {
		expected = 0
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO inventory_drift (book_id, book_title, expected, error) VALUES (?, ?, ?, ?)`,
		bookID, title, expected, cause,
	)
	if err != nil {
		return 0, fmt.Errorf("recording drift: %w", err)
	}
	return res.LastInsertId()
}

// ListDrift returns journal entries, newest first. With pendingOnly set,
// resolved entries are skipped.
func ListDrift(ctx context.Context, db *sql.DB, pendingOnly bool) ([]Drift, error) {
	query := `SELECT id, book_id, book_title, expected, error, created_at, resolved_at
		FROM inventory_drift`
	if pendingOnly {
		query += ` WHERE resolved_at IS NULL`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing drift: %w", err)
	}
	defer rows.Close()

	var entries []Drift
	for rows.Next() {
		var d Drift
		var resolved sql.NullTime
		if err := rows.Scan(&d.ID, &d.BookID, &d.BookTitle, &d.Expected, &d.Error, &d.CreatedAt, &resolved); err != nil {
			return nil, fmt.Errorf("scanning drift: %w", err)
		}
		if resolved.Valid {
			t := resolved.Time
			d.ResolvedAt = &t
		}
		entries = append(entries, d)
	}
	return entries, rows.Err()
}

// GetDrift returns one entry, or nil if it doesn't exist.
func GetDrift(ctx context.Context, db *sql.DB, id int64) (*Drift, error) {
	var d Drift
	var resolved sql.NullTime
	err := db.QueryRowContext(ctx,
		`SELECT id, book_id, book_title, expected, error, created_at, resolved_at
		FROM inventory_drift WHERE id = ?`, id,
	).Scan(&d.ID, &d.BookID, &d.BookTitle, &d.Expected, &d.Error, &d.CreatedAt, &resolved)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting drift: %w", err)
	}
	if resolved.Valid {
		t := resolved.Time
		d.ResolvedAt = &t
	}
	return &d, nil
}

// ResolveDrift marks an entry as handled. Resolving twice is a no-op.
func ResolveDrift(ctx context.Context, db *sql.DB, id int64) error {
	res, err := db.ExecContext(ctx,
		`UPDATE inventory_drift SET resolved_at = ? WHERE id = ? AND resolved_at IS NULL`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("resolving drift: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		d, err := GetDrift(ctx, db, id)
		if err != nil {
			return err
		}
		if d == nil {
			return fmt.Errorf("drift entry %d not found", id)
		}
	}
	return nil
}

// Journal adapts the drift table to the donation workflow.
type Journal struct {
	DB *sql.DB
}

// RecordDrift implements donation.DriftJournal.
func (j Journal) RecordDrift(ctx context.Context, book model.Book, expected int, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := RecordDrift(ctx, j.DB, book.ID, book.Title, expected, msg)
	return err
}
