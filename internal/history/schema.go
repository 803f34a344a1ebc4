package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrSchemaMismatch reports a journal written by a newer build.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// migrations are applied in order; the journal's PRAGMA user_version records
// how many have run. Append only.
var migrations = []string{
	`CREATE TABLE transfers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		pass_id TEXT NOT NULL,
		direction TEXT NOT NULL,
		file TEXT NOT NULL,
		size_bytes INTEGER NOT NULL DEFAULT 0,
		target TEXT NOT NULL DEFAULT '',
		outcome TEXT NOT NULL,
		error_kind TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT '',
		recorded_at TEXT NOT NULL
	);
	CREATE INDEX idx_transfers_pass ON transfers(pass_id);`,
	`CREATE INDEX IF NOT EXISTS idx_transfers_recorded_at ON transfers(recorded_at);`,
}

// SchemaVersion is the user_version of a fully migrated journal.
func SchemaVersion() int { return len(migrations) }

func migrate(ctx context.Context, db *sql.DB, path string) error {
	var current int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if current > len(migrations) {
		return fmt.Errorf("%w: %s has version %d, this build knows %d (delete it to reset the journal)",
			ErrSchemaMismatch, path, current, len(migrations))
	}

	for version := current; version < len(migrations); version++ {
		if err := applyMigration(ctx, db, version+1, migrations[version]); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, version int, stmt string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("apply migration %d: %w", version, err)
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("record schema version %d: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", version, err)
	}
	return nil
}
