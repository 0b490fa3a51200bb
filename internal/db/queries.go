package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/logger"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
)

// Snapshot is a stored slice payload.
type Snapshot struct {
	FetchedAt time.Time
	Payload   []byte
	Slice     models.Slice
	AccountID int
}

// SaveSnapshot stores v as the latest payload of a slice, replacing the previous one.
func (db *DB) SaveSnapshot(accountID int, slice models.Slice, v any, fetchedAt time.Time) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	query := `
		INSERT INTO snapshots (account_id, slice, payload, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(account_id, slice) DO UPDATE SET
			payload = excluded.payload,
			fetched_at = excluded.fetched_at
	`
	_, err = db.ExecContext(context.Background(), query,
		accountID, slice.String(), string(payload), fetchedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot decodes the stored payload of a slice into dst. It reports
// false when nothing is stored.
func (db *DB) LoadSnapshot(accountID int, slice models.Slice, dst any) (time.Time, bool, error) {
	var payload, fetchedAt string
	err := db.QueryRowContext(context.Background(),
		"SELECT payload, fetched_at FROM snapshots WHERE account_id = ? AND slice = ?",
		accountID, slice.String(),
	).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to load snapshot: %w", err)
	}

	if err := json.Unmarshal([]byte(payload), dst); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return parseTime(fetchedAt), true, nil
}

// ListSnapshots returns every stored slice of an account.
func (db *DB) ListSnapshots(accountID int) ([]Snapshot, error) {
	rows, err := db.QueryContext(context.Background(),
		"SELECT slice, payload, fetched_at FROM snapshots WHERE account_id = ? ORDER BY slice",
		accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var out []Snapshot
	for rows.Next() {
		var name, payload, fetchedAt string
		if err := rows.Scan(&name, &payload, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		slice, ok := models.ParseSlice(name)
		if !ok {
			logger.Warn("skipping snapshot with unknown slice", "slice", name, "account_id", accountID)
			continue
		}
		out = append(out, Snapshot{
			AccountID: accountID,
			Slice:     slice,
			Payload:   []byte(payload),
			FetchedAt: parseTime(fetchedAt),
		})
	}
	return out, rows.Err()
}

// DeleteSnapshots drops every stored slice of an account.
func (db *DB) DeleteSnapshots(accountID int) error {
	_, err := db.ExecContext(context.Background(), "DELETE FROM snapshots WHERE account_id = ?", accountID)
	if err != nil {
		return fmt.Errorf("failed to delete snapshots: %w", err)
	}
	return nil
}

// DeleteSnapshot drops the stored payload of one slice.
func (db *DB) DeleteSnapshot(accountID int, slice models.Slice) error {
	_, err := db.ExecContext(context.Background(),
		"DELETE FROM snapshots WHERE account_id = ? AND slice = ?", accountID, slice.String())
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// PruneSnapshots removes payloads fetched before cutoff.
func (db *DB) PruneSnapshots(cutoff time.Time) (int64, error) {
	result, err := db.ExecContext(context.Background(),
		"DELETE FROM snapshots WHERE fetched_at < ?", cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return result.RowsAffected()
}

// InsertSyncRun records a sync attempt.
func (db *DB) InsertSyncRun(run *models.SyncRun) error {
	at := run.At
	if at.IsZero() {
		at = time.Now()
	}

	result, err := db.ExecContext(context.Background(), `
		INSERT INTO sync_runs (account_id, status, message, records_synced, at)
		VALUES (?, ?, ?, ?, ?)`,
		run.AccountID, run.Status, nullString(run.Message), run.RecordsSynced, at.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		run.ID = id
	}
	run.At = at
	return nil
}

// RecentSyncRuns returns the newest sync attempts of an account.
func (db *DB) RecentSyncRuns(accountID, limit int) ([]models.SyncRun, error) {
	rows, err := db.QueryContext(context.Background(), `
		SELECT id, account_id, status, message, records_synced, at
		FROM sync_runs
		WHERE account_id = ?
		ORDER BY at DESC, id DESC
		LIMIT ?`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var runs []models.SyncRun
	for rows.Next() {
		var run models.SyncRun
		var message sql.NullString
		var at string
		if err := rows.Scan(&run.ID, &run.AccountID, &run.Status, &message, &run.RecordsSynced, &at); err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		run.Message = message.String
		run.At = parseTime(at)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseTime(s string) time.Time {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}
