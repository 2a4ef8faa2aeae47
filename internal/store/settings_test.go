package store

import (
	"context"
	"testing"

	"github.com/erazemk/doacoes/internal/auth"
	"github.com/erazemk/doacoes/internal/db"
)

func TestGetSessionKey_GeneratesAndPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// First call should generate a key.
	key1, err := GetSessionKey(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(key1) != auth.KeySize {
		t.Fatalf("expected %d byte key, got %d", auth.KeySize, len(key1))
	}

	// Second call should return the same key.
	key2, err := GetSessionKey(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if string(key1) != string(key2) {
		t.Fatal("expected the stored key to be reused")
	}

	if _, err := auth.NewSealer(key1); err != nil {
		t.Fatalf("key not usable for sealing: %v", err)
	}
}

func TestGetSessionKey_RejectsCorruptValue(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := database.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES ('session_key', 'zz')`); err != nil {
		t.Fatal(err)
	}
	if _, err := GetSessionKey(ctx, database); err == nil {
		t.Fatal("expected error for corrupt key")
	}
}
