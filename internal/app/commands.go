package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/api"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/export"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/logger"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/services"
)

const (
	// DefaultStatusDuration is how long a status toast stays visible.
	DefaultStatusDuration = 3 * time.Second

	// DefaultAutoRefreshInterval is the period of the background refresh.
	DefaultAutoRefreshInterval = 4 * time.Hour

	// historyRuns and historyDays bound the locally recorded history shown.
	historyRuns = 20
	historyDays = 90
)

// loadAccountsCmd returns a command that loads the linked accounts.
func loadAccountsCmd(ctx context.Context, mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		accounts, err := mgr.Accounts(ctx)
		return AccountsLoadedMsg{Accounts: accounts, Error: err}
	}
}

// fetchSliceCmd returns a command that fetches one slice for the ticket's account.
func fetchSliceCmd(ctx context.Context, mgr *services.Manager, t FetchTicket, force bool) tea.Cmd {
	return func() tea.Msg {
		res, err := mgr.Fetch(ctx, t.Slice, t.AccountID, api.FetchOptions{NoCache: force})
		return SliceLoadedMsg{Ticket: t, Result: res, Error: err, Replace: force}
	}
}

// loadCachedCmd returns a command that reads the stored snapshots of an account.
func loadCachedCmd(mgr *services.Manager, accountID int) tea.Cmd {
	return func() tea.Msg {
		msg := CachedSlicesMsg{AccountID: accountID}
		for _, slice := range models.AccountSlices {
			res, _ := mgr.Cached(accountID, slice)
			if res == nil {
				continue
			}
			msg.Slices = append(msg.Slices, CachedSlice{Slice: slice, Data: res.Data, FetchedAt: res.FetchedAt})
		}
		return msg
	}
}

// syncCmd returns a command that runs a sync. t is the spend ticket the
// refetched summary is committed with.
func syncCmd(ctx context.Context, mgr *services.Manager, t FetchTicket) tea.Cmd {
	return func() tea.Msg {
		out, err := mgr.Sync(ctx, t.AccountID)
		return SyncDoneMsg{Ticket: t, Outcome: out, Error: err}
	}
}

// clearCacheCmd returns a command that clears the backend resource cache.
func clearCacheCmd(ctx context.Context, mgr *services.Manager, accountID int, epoch uint64) tea.Cmd {
	return func() tea.Msg {
		res, err := mgr.ClearCache(ctx, accountID)
		return CacheClearedMsg{AccountID: accountID, Epoch: epoch, Result: res, Error: err}
	}
}

// loadHistoryCmd returns a command that reads the local sync and spend history.
func loadHistoryCmd(mgr *services.Manager, accountID int) tea.Cmd {
	return func() tea.Msg {
		runs, err := mgr.SyncHistory(accountID, historyRuns)
		if err != nil {
			return HistoryLoadedMsg{AccountID: accountID, Error: err}
		}
		history, err := mgr.SpendHistory(accountID, historyDays)
		return HistoryLoadedMsg{AccountID: accountID, Runs: runs, History: history, Error: err}
	}
}

// copyToClipboardCmd returns a command that copies text to the system clipboard.
func copyToClipboardCmd(label, text string) tea.Cmd {
	return func() tea.Msg {
		err := clipboard.WriteAll(text)
		if err != nil {
			logger.Warn("clipboard write failed", "error", err)
		}
		return ClipboardResultMsg{Label: label, Error: err}
	}
}

// exportCmd returns a command that writes doc into dir.
func exportCmd(doc *export.Document, format export.Format, dir string, now time.Time) tea.Cmd {
	return func() tea.Msg {
		path := filepath.Join(dir, export.FileName(doc.AccountID, format, now))
		if err := export.WriteFile(path, format, doc); err != nil {
			return ExportResultMsg{Error: err}
		}
		return ExportResultMsg{Path: path}
	}
}

// logoutCmd returns a command that clears the stored token.
func logoutCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		if err := mgr.Logout(); err != nil {
			return StatusMsg{Message: fmt.Sprintf("Failed to clear token: %v", err)}
		}
		return nil
	}
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch, _ := mgr.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// StatusCmd returns a command that shows a transient status message.
func StatusCmd(message string, success bool) tea.Cmd {
	return func() tea.Msg {
		return StatusMsg{Message: message, Success: success}
	}
}

// Send returns a command that emits msg, for tabs requesting root actions.
func Send(msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return msg
	}
}
