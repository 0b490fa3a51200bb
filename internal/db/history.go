package db

import (
	"context"
	"fmt"
	"time"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/logger"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
)

// RecordDailySpend upserts the dated points of a spend summary. The backend
// only returns the last week, so this builds a longer series over time.
// Points without a full date are skipped.
func (db *DB) RecordDailySpend(accountID int, points []models.DailyPoint) (int, error) {
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(context.Background(), `
		INSERT INTO spend_history (account_id, day, amount, recorded_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(account_id, day) DO UPDATE SET
			amount = excluded.amount,
			recorded_at = excluded.recorded_at`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			logger.Error("failed to close statement", "error", err)
		}
	}()

	now := time.Now().UTC().Format(timeLayout)
	written := 0
	for _, p := range points {
		day, err := time.Parse(dayLayout, p.Date)
		if err != nil {
			continue
		}
		if _, err := stmt.ExecContext(context.Background(), accountID, day.Format(dayLayout), p.Amount, now); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("failed to record spend for %s: %w", p.Date, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit spend history: %w", err)
	}
	return written, nil
}

// SpendHistory returns the recorded daily spend of the last days, oldest first.
func (db *DB) SpendHistory(accountID, days int) ([]models.DailyPoint, error) {
	rows, err := db.QueryContext(context.Background(), `
		SELECT day, amount
		FROM spend_history
		WHERE account_id = ? AND day >= date('now', ?)
		ORDER BY day ASC`, accountID, fmt.Sprintf("-%d days", days))
	if err != nil {
		return nil, fmt.Errorf("failed to query spend history: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var points []models.DailyPoint
	for rows.Next() {
		var p models.DailyPoint
		if err := rows.Scan(&p.Date, &p.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan spend history: %w", err)
		}
		if t, err := time.Parse(dayLayout, p.Date); err == nil {
			p.Label = t.Format("Jan 2")
			p.DayName = t.Format("Mon")
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
