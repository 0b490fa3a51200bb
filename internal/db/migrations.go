package db

import (
	"context"
	"fmt"
)

// migrations are applied in order; user_version records how many ran.
// Append only.
var migrations = []string{
	`
	CREATE TABLE IF NOT EXISTS snapshots (
		account_id INTEGER NOT NULL,
		slice TEXT NOT NULL,
		payload TEXT NOT NULL,
		fetched_at TEXT NOT NULL,
		PRIMARY KEY (account_id, slice)
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS sync_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL,
		status TEXT NOT NULL,
		message TEXT,
		records_synced INTEGER DEFAULT 0,
		at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sync_runs_account ON sync_runs(account_id, at);
	`,
	`
	CREATE TABLE IF NOT EXISTS spend_history (
		account_id INTEGER NOT NULL,
		day TEXT NOT NULL,
		amount REAL NOT NULL DEFAULT 0,
		recorded_at TEXT NOT NULL,
		PRIMARY KEY (account_id, day)
	);
	`,
}

// SchemaVersion returns the number of applied migrations.
func (db *DB) SchemaVersion() (int, error) {
	var v int
	if err := db.QueryRowContext(context.Background(), "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

func (db *DB) migrate() error {
	current, err := db.SchemaVersion()
	if err != nil {
		return err
	}

	for i := current; i < len(migrations); i++ {
		tx, err := db.BeginTx(context.Background(), nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", i+1, err)
		}
		if _, err := tx.ExecContext(context.Background(), migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to apply migration %d: %w", i+1, err)
		}
		// PRAGMA does not accept bound parameters
		if _, err := tx.ExecContext(context.Background(), fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", i+1, err)
		}
	}

	return nil
}
