package history

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func seedDatabase(t *testing.T, path string, stmts ...string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open seed db: %v", err)
	}
	defer db.Close()
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed %q: %v", stmt, err)
		}
	}
}

func TestOpenUpgradesOlderJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	seedDatabase(t, path,
		migrations[0],
		"PRAGMA user_version = 1",
		`INSERT INTO transfers (pass_id, direction, file, outcome, recorded_at) VALUES ('p', 'download', 'kept.MP4', 'success', '2024-01-01T00:00:00.000000000Z')`,
	)

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	var version int
	if err := store.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("read version: %v", err)
	}
	if version != SchemaVersion() {
		t.Fatalf("expected version %d, got %d", SchemaVersion(), version)
	}
	var indexes int
	if err := store.db.QueryRow("SELECT COUNT(1) FROM sqlite_master WHERE type='index' AND name='idx_transfers_recorded_at'").Scan(&indexes); err != nil || indexes != 1 {
		t.Fatalf("expected recorded_at index, got %d err=%v", indexes, err)
	}

	entries, err := store.Recent(context.Background(), 5)
	if err != nil || len(entries) != 1 || entries[0].File != "kept.MP4" {
		t.Fatalf("expected seeded row to survive, got %+v err=%v", entries, err)
	}
	if want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC); !entries[0].RecordedAt.Equal(want) {
		t.Fatalf("unexpected recorded_at %v", entries[0].RecordedAt)
	}
}

func TestOpenRejectsNewerJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	seedDatabase(t, path, "CREATE TABLE future (id INTEGER)", "PRAGMA user_version = 99")

	if _, err := Open(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestFormatTimeSortsChronologically(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	earlier := formatTime(base)
	later := formatTime(base.Add(500 * time.Millisecond))
	if !(earlier < later) {
		t.Fatalf("expected %q < %q", earlier, later)
	}
}
