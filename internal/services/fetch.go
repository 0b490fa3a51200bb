package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/api"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/logger"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
)

// Result is the outcome of a successful slice fetch. Data holds the pointer
// type matching Slice, e.g. *models.SpendSummary for SliceSpend.
type Result struct {
	FetchedAt time.Time
	Data      any
	Slice     models.Slice
	AccountID int
	// FromStore is set when the data came from the local snapshot store
	// rather than the network.
	FromStore bool
}

// Accounts lists the linked accounts.
func (m *Manager) Accounts(ctx context.Context) ([]models.Account, error) {
	accounts, err := m.client.Accounts().List(ctx)
	if err != nil {
		logFetchError(models.SliceAccounts, 0, err)
		return nil, err
	}
	m.snapshots.Set(snapshotKey{Slice: models.SliceAccounts}, accounts)
	return accounts, nil
}

// Fetch retrieves one slice of an account from the backend. On success the
// result replaces the cached and stored snapshot. On failure nothing is
// written.
func (m *Manager) Fetch(ctx context.Context, slice models.Slice, accountID int, opts api.FetchOptions) (*Result, error) {
	data, err := m.fetch(ctx, slice, accountID, opts)
	if err != nil {
		logFetchError(slice, accountID, err)
		return nil, err
	}

	now := time.Now()
	m.remember(accountID, slice, data, now)

	if spend, ok := data.(*models.SpendSummary); ok {
		m.recordSpend(accountID, spend)
	}

	return &Result{Slice: slice, AccountID: accountID, Data: data, FetchedAt: now}, nil
}

func (m *Manager) fetch(ctx context.Context, slice models.Slice, accountID int, opts api.FetchOptions) (any, error) {
	switch slice {
	case models.SliceSpend:
		return m.client.Analytics().Spend(ctx, accountID, opts)
	case models.SlicePaidResources:
		return m.client.Resources().Paid(ctx, accountID, opts)
	case models.SliceCostAnalysis:
		return m.client.Resources().CostAnalysis(ctx, accountID)
	case models.SliceInventory:
		return m.client.Resources().Inventory(ctx, accountID, opts)
	case models.SliceLowLevel:
		return m.client.LowLevel().List(ctx, accountID, opts)
	default:
		return nil, fmt.Errorf("slice %s is not fetched per account", slice)
	}
}

func (m *Manager) remember(accountID int, slice models.Slice, data any, at time.Time) {
	m.snapshots.SetAt(snapshotKey{AccountID: accountID, Slice: slice}, data, at)

	if m.database == nil {
		return
	}
	if err := m.database.SaveSnapshot(accountID, slice, data, at); err != nil {
		logger.Warn("failed to store snapshot", "slice", slice.String(), "account_id", accountID, "error", err)
	}
}

// Cached returns the last known data of a slice without touching the
// network: the in-memory cache first, then the snapshot store. Stale entries
// are returned too; fresh reports whether the entry is within the cache TTL.
func (m *Manager) Cached(accountID int, slice models.Slice) (res *Result, fresh bool) {
	key := snapshotKey{AccountID: accountID, Slice: slice}

	if data, at, ok := m.snapshots.Peek(key); ok {
		_, fresh = m.snapshots.Get(key)
		return &Result{Slice: slice, AccountID: accountID, Data: data, FetchedAt: at}, fresh
	}

	if m.database == nil {
		return nil, false
	}

	dst := newSliceValue(slice)
	if dst == nil {
		return nil, false
	}
	at, ok, err := m.database.LoadSnapshot(accountID, slice, dst)
	if err != nil {
		logger.Warn("failed to load snapshot", "slice", slice.String(), "account_id", accountID, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	m.snapshots.SetAt(key, dst, at)
	_, fresh = m.snapshots.Get(key)
	return &Result{Slice: slice, AccountID: accountID, Data: dst, FetchedAt: at, FromStore: true}, fresh
}

// newSliceValue returns a pointer to the zero value of the type stored for slice.
func newSliceValue(slice models.Slice) any {
	switch slice {
	case models.SliceSpend:
		return &models.SpendSummary{}
	case models.SlicePaidResources:
		return &models.PaidResources{}
	case models.SliceCostAnalysis:
		return &models.CostAnalysis{}
	case models.SliceInventory:
		return &models.ResourceInventory{}
	case models.SliceLowLevel:
		return &models.LowLevelServices{}
	default:
		return nil
	}
}

// Forget drops the cached and stored slice of an account, used when a
// forced refresh fails and the old data must not be shown again.
func (m *Manager) Forget(accountID int, slice models.Slice) {
	m.snapshots.Delete(snapshotKey{AccountID: accountID, Slice: slice})

	if m.database == nil {
		return
	}
	if err := m.database.DeleteSnapshot(accountID, slice); err != nil {
		logger.Warn("failed to delete snapshot", "slice", slice.String(), "account_id", accountID, "error", err)
	}
}

// SyncOutcome is what a sync produced.
type SyncOutcome struct {
	Result *models.SyncResult
	// Spend is the summary fetched after the grace delay. It is nil when
	// that fetch failed; SpendErr then holds the reason.
	Spend    *Result
	SpendErr error
}

// Sync triggers a backend sync, waits for the grace delay so that the
// backend can recompute analytics, then refetches the spend summary.
func (m *Manager) Sync(ctx context.Context, accountID int) (*SyncOutcome, error) {
	res, err := m.client.Accounts().Sync(ctx, accountID)
	if err != nil {
		logFetchError(models.SliceSpend, accountID, err)
		m.recordSyncRun(accountID, "error", err.Error(), 0)
		return nil, err
	}
	m.recordSyncRun(accountID, res.Status, res.Message, res.RecordsSynced)

	if err := sleep(ctx, m.syncGraceDelay); err != nil {
		return nil, err
	}

	out := &SyncOutcome{Result: res}
	out.Spend, out.SpendErr = m.Fetch(ctx, models.SliceSpend, accountID, api.FetchOptions{NoCache: true})

	m.desktopAlert("Sync finished", syncMessage(accountID, res))
	return out, nil
}

func syncMessage(accountID int, res *models.SyncResult) string {
	if res.Message != "" {
		return res.Message
	}
	return fmt.Sprintf("Account #%d synced %d daily records", accountID, res.RecordsSynced)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) recordSyncRun(accountID int, status, message string, records int) {
	if m.database == nil {
		return
	}
	run := &models.SyncRun{
		AccountID:     accountID,
		Status:        status,
		Message:       message,
		RecordsSynced: records,
		At:            time.Now(),
	}
	if err := m.database.InsertSyncRun(run); err != nil {
		logger.Warn("failed to record sync run", "account_id", accountID, "error", err)
	}
}

// ClearCache asks the backend to drop its resource cache and forgets the
// resource slices held locally.
func (m *Manager) ClearCache(ctx context.Context, accountID int) (*models.ActionResult, error) {
	res, err := m.client.Resources().ClearCache(ctx, accountID)
	if err != nil {
		logFetchError(models.SliceInventory, accountID, err)
		return nil, err
	}

	m.snapshots.DeleteFunc(func(k snapshotKey) bool {
		return k.AccountID == accountID && k.Slice != models.SliceSpend
	})
	return res, nil
}

// SyncHistory returns the most recent recorded syncs of an account.
func (m *Manager) SyncHistory(accountID, limit int) ([]models.SyncRun, error) {
	if m.database == nil {
		return []models.SyncRun{}, nil
	}
	return m.database.RecentSyncRuns(accountID, limit)
}

// SpendHistory returns locally accumulated daily spend, oldest first. It
// outlives the short window the backend returns.
func (m *Manager) SpendHistory(accountID, days int) ([]models.DailyPoint, error) {
	if m.database == nil {
		return []models.DailyPoint{}, nil
	}
	return m.database.SpendHistory(accountID, days)
}

func (m *Manager) recordSpend(accountID int, s *models.SpendSummary) {
	if m.database != nil {
		if _, err := m.database.RecordDailySpend(accountID, s.Daily); err != nil {
			logger.Warn("failed to record spend history", "account_id", accountID, "error", err)
		}
	}
	m.checkSpendAlert(accountID, s.MonthlyChangePercent)
}

func logFetchError(slice models.Slice, accountID int, err error) {
	args := []any{"slice", slice.String(), "account_id", accountID, "error", err}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		args = append(args, "request_id", apiErr.RequestID, "status", apiErr.StatusCode)
	}
	if errors.Is(err, context.Canceled) {
		logger.Debug("fetch cancelled", args...)
		return
	}
	logger.Error("fetch failed", args...)
}
