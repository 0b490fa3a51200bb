package app

import (
	"time"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/export"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/services"
)

// AccountsLoadedMsg contains the linked accounts.
type AccountsLoadedMsg struct {
	Error    error
	Accounts []models.Account
}

// SliceLoadedMsg is the outcome of a slice fetch.
type SliceLoadedMsg struct {
	Result *services.Result
	Error  error
	Ticket FetchTicket
	// Replace marks a forced refresh whose failure clears the slice.
	Replace bool
}

// CachedSlice is a stored snapshot shown before the network answers.
type CachedSlice struct {
	FetchedAt time.Time
	Data      any
	Slice     models.Slice
}

// CachedSlicesMsg carries the stored snapshots of an account.
type CachedSlicesMsg struct {
	Slices    []CachedSlice
	AccountID int
}

// HistoryLoadedMsg carries locally recorded sync runs and spend history.
type HistoryLoadedMsg struct {
	Error     error
	Runs      []models.SyncRun
	History   []models.DailyPoint
	AccountID int
}

// RefreshMsg requests a refetch. An empty Slices means every account slice.
type RefreshMsg struct {
	Slices []models.Slice
	// Force bypasses the backend cache.
	Force bool
}

// SyncMsg requests a backend sync of the selected account.
type SyncMsg struct{}

// SyncDoneMsg contains the result of a sync.
type SyncDoneMsg struct {
	Outcome *services.SyncOutcome
	Error   error
	Ticket  FetchTicket
}

// ClearCacheMsg requests clearing the backend resource cache.
type ClearCacheMsg struct{}

// CacheClearedMsg contains the result of a cache clear.
type CacheClearedMsg struct {
	Result    *models.ActionResult
	Error     error
	AccountID int
	Epoch     uint64
}

// SwitchAccountMsg requests switching to a different account.
type SwitchAccountMsg struct {
	AccountID int
}

// CopyToClipboardMsg requests copying text to clipboard.
type CopyToClipboardMsg struct {
	Label string
	Text  string
}

// ClipboardResultMsg contains the result of a clipboard operation.
type ClipboardResultMsg struct {
	Error error
	Label string
}

// ExportMsg requests exporting the filtered low-level services.
type ExportMsg struct {
	Format export.Format
	Dir    string
}

// ExportResultMsg contains the result of an export operation.
type ExportResultMsg struct {
	Error error
	Path  string
}

// StatusMsg shows a transient status message.
type StatusMsg struct {
	Message string
	Success bool
}

// DismissStatusMsg clears the status with the given id.
type DismissStatusMsg struct {
	ID uint64
}

// AutoRefreshMsg is the periodic refresh of the account selected during Epoch.
type AutoRefreshMsg struct {
	Epoch uint64
}

// LoginRequiredMsg switches to the login screen.
type LoginRequiredMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
