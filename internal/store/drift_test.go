package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/doacoes/internal/db"
	"github.com/erazemk/doacoes/internal/model"
)

func TestDriftLifecycle(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// Journal should start empty.
	entries, err := ListDrift(ctx, database, true)
	if err != nil {
		t.Fatalf("ListDrift: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty journal, got %d", len(entries))
	}

	j := Journal{DB: database}
	book := model.Book{ID: 4, Title: "Sagarana", Available: 1}
	if err := j.RecordDrift(ctx, book, 0, errors.New("connection reset")); err != nil {
		t.Fatalf("RecordDrift: %v", err)
	}
	id, err := RecordDrift(ctx, database, 5, "Menino de Engenho", -1, "timeout")
	if err != nil {
		t.Fatalf("RecordDrift: %v", err)
	}

	entries, err = ListDrift(ctx, database, true)
	if err != nil {
		t.Fatalf("ListDrift: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 pending entries, got %d", len(entries))
	}

	d, err := GetDrift(ctx, database, id)
	if err != nil || d == nil {
		t.Fatalf("GetDrift: %v, %v", d, err)
	}
	if d.Expected != 0 {
		t.Errorf("negative expectation should clamp to 0, got %d", d.Expected)
	}

	// Resolve one; resolving twice is fine.
	if err := ResolveDrift(ctx, database, id); err != nil {
		t.Fatalf("ResolveDrift: %v", err)
	}
	if err := ResolveDrift(ctx, database, id); err != nil {
		t.Fatalf("second ResolveDrift: %v", err)
	}

	pending, _ := ListDrift(ctx, database, true)
	if len(pending) != 1 || pending[0].BookID != 4 || pending[0].Error != "connection reset" {
		t.Errorf("unexpected pending entries: %+v", pending)
	}
	all, _ := ListDrift(ctx, database, false)
	if len(all) != 2 {
		t.Errorf("expected 2 entries in total, got %d", len(all))
	}
	d, _ = GetDrift(ctx, database, id)
	if d.ResolvedAt == nil {
		t.Error("expected resolved_at to be set")
	}
}

func TestResolveMissingDrift(t *testing.T) {
	database := db.NewTestDB(t)
	if err := ResolveDrift(context.Background(), database, 42); err == nil {
		t.Error("expected error for missing entry")
	}
	d, err := GetDrift(context.Background(), database, 42)
	if err != nil || d != nil {
		t.Errorf("GetDrift(missing) = %v, %v", d, err)
	}
}
