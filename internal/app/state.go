// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"errors"
	"sync"
	"time"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/analytics"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/api"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
)

// FetchTicket identifies one fetch. A result is committed only while its
// ticket is current: same epoch, same account and the newest generation of
// its slice.
type FetchTicket struct {
	Slice      models.Slice
	AccountID  int
	Generation uint64
	Epoch      uint64
}

// SliceState is the load bookkeeping of one data slice.
type SliceState struct {
	LastUpdated time.Time
	Err         string
	Generation  uint64
	Loading     bool
	// FromStore is set while the shown data came from the local snapshot store.
	FromStore bool
}

// HasError reports whether the last fetch of the slice failed.
func (s SliceState) HasError() bool {
	return s.Err != ""
}

// Status is the transient message shown as a toast.
type Status struct {
	Message string
	ID      uint64
	Success bool
}

// ViewState is what the user has chosen to look at. It is reset on account
// switch except for the active section.
type ViewState struct {
	Filter    analytics.Filter
	Expansion *Expansion
	Modal     Modal
	Section   TabID
}

func newViewState(section TabID) ViewState {
	return ViewState{Section: section, Expansion: NewExpansion()}
}

// State is the view-model shared by the root model and the tabs.
type State struct {
	mu sync.RWMutex

	accounts []models.Account
	account  *models.Account
	epoch    uint64

	slices map[models.Slice]*SliceState

	spend     *models.SpendSummary
	paid      *models.PaidResources
	analysis  *models.CostAnalysis
	inventory *models.ResourceInventory
	lowLevel  *models.LowLevelServices

	syncRuns []models.SyncRun
	history  []models.DailyPoint
	syncing  bool

	accountsLoading bool
	accountsErr     string

	view ViewState

	status    *Status
	statusSeq uint64

	loginRequired bool
}

// NewState creates an empty state with no account selected.
func NewState() *State {
	return &State{
		slices:          newSliceStates(),
		view:            newViewState(TabOverview),
		accountsLoading: true,
	}
}

func newSliceStates() map[models.Slice]*SliceState {
	m := make(map[models.Slice]*SliceState, len(models.AccountSlices))
	for _, sl := range models.AccountSlices {
		m[sl] = &SliceState{}
	}
	return m
}

// SetAccounts replaces the account list. The selected account is kept when
// it still exists, otherwise one is picked with models.SelectAccount. It
// reports whether the selection changed, in which case the caller must load
// the new account's data.
func (s *State) SetAccounts(accounts []models.Account, preferredID int) (models.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = accounts
	s.accountsLoading = false
	s.accountsErr = ""

	if s.account != nil {
		for _, a := range accounts {
			if a.ID == s.account.ID {
				acc := a
				s.account = &acc
				return acc, false
			}
		}
	}

	selected, ok := models.SelectAccount(accounts, preferredID)
	if !ok {
		if s.account != nil {
			s.resetAccount(nil)
			return models.Account{}, true
		}
		return models.Account{}, false
	}
	s.resetAccount(&selected)
	return selected, true
}

// SetAccountsError records a failed account list fetch.
func (s *State) SetAccountsError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountsLoading = false
	s.accountsErr = err.Error()
}

// AccountsStatus reports whether the account list is loading and its last error.
func (s *State) AccountsStatus() (loading bool, errMsg string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accountsLoading, s.accountsErr
}

// SetAccountsLoading marks the account list as being fetched.
func (s *State) SetAccountsLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountsLoading = true
}

// GetAccounts returns a copy of the account list.
func (s *State) GetAccounts() []models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]models.Account, len(s.accounts))
	copy(accounts, s.accounts)
	return accounts
}

// GetActiveAccount returns the selected account.
func (s *State) GetActiveAccount() (models.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.account == nil {
		return models.Account{}, false
	}
	return *s.account, true
}

// SwitchAccount selects another account. Everything tied to the previous
// account is dropped and in-flight results become stale.
func (s *State) SwitchAccount(id int) (models.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.ID == id {
			acc := a
			s.resetAccount(&acc)
			return acc, true
		}
	}
	return models.Account{}, false
}

// resetAccount must be called with the lock held.
func (s *State) resetAccount(acc *models.Account) {
	s.account = acc
	s.epoch++
	s.slices = newSliceStates()
	s.spend = nil
	s.paid = nil
	s.analysis = nil
	s.inventory = nil
	s.lowLevel = nil
	s.syncRuns = nil
	s.history = nil
	s.syncing = false
	s.view = newViewState(s.view.Section)
}

// Epoch increases on every account switch and login redirect.
func (s *State) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// BeginFetch marks a slice as loading and returns the ticket its result
// must present.
func (s *State) BeginFetch(slice models.Slice) FetchTicket {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.slices[slice]
	st.Generation++
	st.Loading = true

	t := FetchTicket{Slice: slice, Generation: st.Generation, Epoch: s.epoch}
	if s.account != nil {
		t.AccountID = s.account.ID
	}
	return t
}

// Current reports whether a result carrying t may still be committed.
func (s *State) Current(t FetchTicket) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current(t)
}

func (s *State) current(t FetchTicket) bool {
	if t.Epoch != s.epoch || s.account == nil || t.AccountID != s.account.ID {
		return false
	}
	st, ok := s.slices[t.Slice]
	return ok && st.Generation == t.Generation
}

// ApplyResult commits fetched data. Stale results are dropped and false is
// returned.
func (s *State) ApplyResult(t FetchTicket, data any, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current(t) {
		return false
	}
	if !s.setData(t.Slice, data) {
		return false
	}

	st := s.slices[t.Slice]
	st.Loading = false
	st.Err = ""
	st.LastUpdated = at
	st.FromStore = false
	return true
}

// ApplyError records a failed fetch. The previous data is kept unless the
// fetch was a forced replace. An unauthenticated error commits nothing and
// switches the state to the login screen instead.
func (s *State) ApplyError(t FetchTicket, err error, replace bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current(t) {
		return false
	}
	if errors.Is(err, api.ErrUnauthenticated) {
		s.requireLogin()
		return false
	}

	st := s.slices[t.Slice]
	st.Loading = false
	st.Err = err.Error()
	if replace {
		s.setData(t.Slice, nil)
		st.LastUpdated = time.Time{}
		st.FromStore = false
	}
	return true
}

// CancelFetch ends a fetch that produced no result, leaving data and error
// untouched.
func (s *State) CancelFetch(t FetchTicket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current(t) {
		s.slices[t.Slice].Loading = false
	}
}

// ApplyCached shows a stored snapshot while the network fetch is pending.
// It never replaces data that is already shown.
func (s *State) ApplyCached(accountID int, slice models.Slice, data any, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.account == nil || s.account.ID != accountID || s.hasData(slice) {
		return false
	}
	if !s.setData(slice, data) {
		return false
	}
	st := s.slices[slice]
	st.LastUpdated = at
	st.FromStore = true
	return true
}

// setData must be called with the lock held. A nil data clears the slice.
func (s *State) setData(slice models.Slice, data any) bool {
	switch slice {
	case models.SliceSpend:
		v, ok := data.(*models.SpendSummary)
		if data != nil && !ok {
			return false
		}
		s.spend = v
	case models.SlicePaidResources:
		v, ok := data.(*models.PaidResources)
		if data != nil && !ok {
			return false
		}
		s.paid = v
	case models.SliceCostAnalysis:
		v, ok := data.(*models.CostAnalysis)
		if data != nil && !ok {
			return false
		}
		s.analysis = v
	case models.SliceInventory:
		v, ok := data.(*models.ResourceInventory)
		if data != nil && !ok {
			return false
		}
		s.inventory = v
	case models.SliceLowLevel:
		v, ok := data.(*models.LowLevelServices)
		if data != nil && !ok {
			return false
		}
		s.lowLevel = v
		if v != nil {
			s.view.Expansion.Reconcile(analytics.Keys(v), analytics.SeedExpanded(v))
		}
		if sel, open := s.view.Modal.Selected(); open {
			if v == nil {
				s.view.Modal.Close()
			} else if c, ok := v.Categories[sel.Key]; ok {
				s.view.Modal.Open(c)
			} else {
				s.view.Modal.Close()
			}
		}
	default:
		return false
	}
	return true
}

func (s *State) hasData(slice models.Slice) bool {
	switch slice {
	case models.SliceSpend:
		return s.spend != nil
	case models.SlicePaidResources:
		return s.paid != nil
	case models.SliceCostAnalysis:
		return s.analysis != nil
	case models.SliceInventory:
		return s.inventory != nil
	case models.SliceLowLevel:
		return s.lowLevel != nil
	}
	return false
}

// GetSlice returns the bookkeeping of a slice.
func (s *State) GetSlice(slice models.Slice) SliceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.slices[slice]; ok {
		return *st
	}
	return SliceState{}
}

// AnyLoading returns true if any slice or the account list is being fetched.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.accountsLoading || s.syncing {
		return true
	}
	for _, st := range s.slices {
		if st.Loading {
			return true
		}
	}
	return false
}

// GetSpend returns the spend summary of the selected account.
func (s *State) GetSpend() *models.SpendSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.spend
}

// GetPaidResources returns the paid-resource slice.
func (s *State) GetPaidResources() *models.PaidResources {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paid
}

// GetCostAnalysis returns the cost-analysis slice.
func (s *State) GetCostAnalysis() *models.CostAnalysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analysis
}

// GetInventory returns the resource inventory slice.
func (s *State) GetInventory() *models.ResourceInventory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inventory
}

// GetLowLevel returns the low-level services slice.
func (s *State) GetLowLevel() *models.LowLevelServices {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lowLevel
}

// VisibleServices applies the current filter to the low-level services.
func (s *State) VisibleServices() []models.LowLevelServiceCategory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return analytics.Apply(s.lowLevel, s.view.Filter)
}

// SetSyncing marks a sync as running.
func (s *State) SetSyncing(syncing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncing = syncing
}

// IsSyncing reports whether a sync is running.
func (s *State) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncing
}

// SetHistory stores local sync runs and spend history of an account.
// Data for an account that is no longer selected is ignored.
func (s *State) SetHistory(accountID int, runs []models.SyncRun, history []models.DailyPoint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account == nil || s.account.ID != accountID {
		return false
	}
	s.syncRuns = runs
	s.history = history
	return true
}

// GetSyncRuns returns the locally recorded sync attempts.
func (s *State) GetSyncRuns() []models.SyncRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncRuns
}

// GetHistory returns the locally recorded daily spend.
func (s *State) GetHistory() []models.DailyPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history
}

// Section returns the active top-level section.
func (s *State) Section() TabID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view.Section
}

// SetSection changes the active section.
func (s *State) SetSection(id TabID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Section = id
}

// GetFilter returns the low-level services filter.
func (s *State) GetFilter() analytics.Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view.Filter
}

// SetFilter replaces the filter after validating it. On failure the
// previous filter stays active and the field errors are returned.
func (s *State) SetFilter(f analytics.Filter) []analytics.FieldError {
	if errs := f.Validate(); len(errs) > 0 {
		return errs
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Filter = f
	return nil
}

// ToggleExpanded flips a category and returns its new state.
func (s *State) ToggleExpanded(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.Expansion.Toggle(key)
}

// IsExpanded reports whether a category is expanded.
func (s *State) IsExpanded(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view.Expansion.IsExpanded(key)
}

// ExpandAll expands every loaded category.
func (s *State) ExpandAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Expansion.ExpandAll(analytics.Keys(s.lowLevel))
}

// CollapseAll collapses every category.
func (s *State) CollapseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Expansion.CollapseAll()
}

// ExpandedKeys returns the expanded categories, sorted.
func (s *State) ExpandedKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view.Expansion.Keys()
}

// OpenDetails opens the detail dialog on a loaded category.
func (s *State) OpenDetails(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lowLevel == nil {
		return false
	}
	c, ok := s.lowLevel.Categories[key]
	if !ok {
		return false
	}
	s.view.Modal.Open(c)
	return true
}

// CloseDetails closes the detail dialog.
func (s *State) CloseDetails() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Modal.Close()
}

// Details returns the category shown in the detail dialog.
func (s *State) Details() (models.LowLevelServiceCategory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view.Modal.Selected()
}

// SetStatus shows a message and returns its id for later dismissal.
func (s *State) SetStatus(message string, success bool) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusSeq++
	s.status = &Status{ID: s.statusSeq, Message: message, Success: success}
	return s.statusSeq
}

// ClearStatus dismisses the status if it is still the one with id.
func (s *State) ClearStatus(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == nil || s.status.ID != id {
		return false
	}
	s.status = nil
	return true
}

// GetStatus returns the current status message.
func (s *State) GetStatus() (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status == nil {
		return Status{}, false
	}
	return *s.status, true
}

// RequireLogin switches to the login screen. Pending results become stale.
func (s *State) RequireLogin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLogin()
}

func (s *State) requireLogin() {
	s.loginRequired = true
	s.epoch++
	s.syncing = false
	s.accountsLoading = false
	for _, st := range s.slices {
		st.Loading = false
	}
}

// LoginRestored leaves the login screen after a new token was saved.
func (s *State) LoginRestored() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginRequired = false
	s.accountsLoading = true
}

// LoginRequired reports whether the login screen is shown.
func (s *State) LoginRequired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loginRequired
}
