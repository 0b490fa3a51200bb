package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/api"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/export"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/logger"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/services"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/ui/styles"
)

// TabID represents the identifier for a tab in the application.
type TabID int

const (
	// TabOverview shows the spend summary.
	TabOverview TabID = iota
	// TabServices shows the per-service breakdown and local history.
	TabServices
	// TabResources shows paid resources, findings and inventory.
	TabResources
	// TabLowLevel shows the filterable low-level services.
	TabLowLevel
	// TabAccounts lists linked accounts and sync history.
	TabAccounts
	// TabInfo shows version and configuration details.
	TabInfo
)

// String returns the string representation of the TabID.
func (t TabID) String() string {
	switch t {
	case TabOverview:
		return "Overview"
	case TabServices:
		return "Services"
	case TabResources:
		return "Resources"
	case TabLowLevel:
		return "Low-level"
	case TabAccounts:
		return "Accounts"
	case TabInfo:
		return "Info"
	default:
		return "Unknown"
	}
}

var tabIDs = []TabID{TabOverview, TabServices, TabResources, TabLowLevel, TabAccounts, TabInfo}

// Tab defines the interface that all tabs must implement.
type Tab interface {
	// Init initializes the tab and returns any initial commands.
	Init() tea.Cmd

	// Update handles messages and returns the updated tab and any commands.
	Update(msg tea.Msg) (Tab, tea.Cmd)

	// View renders the tab content.
	View() string

	// SetSize sets the available size for the tab.
	SetSize(width, height int)

	// ShortHelp returns key bindings for the short help view.
	ShortHelp() []key.Binding

	// FullHelp returns key bindings for the full help view.
	FullHelp() [][]key.Binding
}

// InputCapturer is implemented by tabs that take the whole keyboard while
// a text field or dialog is focused. Global bindings other than ctrl+c are
// suspended meanwhile.
type InputCapturer interface {
	CapturesInput() bool
}

// KeyMap defines the keybindings for the application.
type KeyMap struct {
	Tabs         []key.Binding
	NextTab      key.Binding
	PrevTab      key.Binding
	Refresh      key.Binding
	ForceRefresh key.Binding
	Sync         key.Binding
	Help         key.Binding
	Quit         key.Binding
	ForceQuit    key.Binding
	Escape       key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	km := KeyMap{}
	km = setTabKeys(km)
	km = setActionKeys(km)
	return km
}

func setTabKeys(k KeyMap) KeyMap {
	k.Tabs = make([]key.Binding, len(tabIDs))
	for i, id := range tabIDs {
		n := fmt.Sprintf("%d", i+1)
		k.Tabs[i] = key.NewBinding(key.WithKeys(n), key.WithHelp(n, strings.ToLower(id.String())))
	}
	k.NextTab = key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab"))
	k.PrevTab = key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab"))
	return k
}

func setActionKeys(k KeyMap) KeyMap {
	k.Refresh = key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh"))
	k.ForceRefresh = key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "refresh, bypass cache"))
	k.Sync = key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sync account"))
	k.Help = key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help"))
	k.Quit = key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit"))
	k.ForceQuit = key.NewBinding(key.WithKeys("ctrl+c"))
	k.Escape = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close"))
	return k
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Refresh, k.Sync, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		k.Tabs,
		{k.NextTab, k.PrevTab},
		{k.Refresh, k.ForceRefresh, k.Sync, k.Help, k.Quit},
	}
}

// Styles defines the application styles.
type Styles struct {
	// Tab bar styles
	TabBar      lipgloss.Style
	ActiveTab   lipgloss.Style
	InactiveTab lipgloss.Style
	AccountTag  lipgloss.Style

	StatusSuccess lipgloss.Style
	StatusError   lipgloss.Style
	StatusInfo    lipgloss.Style

	// Content styles
	Content lipgloss.Style
	Toast   lipgloss.Style

	// Common styles
	Title     lipgloss.Style
	Subtle    lipgloss.Style
	Highlight lipgloss.Style
	Error     lipgloss.Style
}

// DefaultStyles returns the default application styles.
func DefaultStyles() Styles {
	s := Styles{}
	s.TabBar = lipgloss.NewStyle().Padding(0, 1).BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).BorderForeground(styles.Subtle)
	s.ActiveTab = lipgloss.NewStyle().Bold(true).Foreground(styles.Primary).Padding(0, 2)
	s.InactiveTab = lipgloss.NewStyle().Foreground(styles.Subtle).Padding(0, 2)
	s.AccountTag = lipgloss.NewStyle().Foreground(styles.Secondary).Padding(0, 1)

	s.StatusSuccess = lipgloss.NewStyle().Foreground(styles.Success).Padding(0, 1)
	s.StatusError = lipgloss.NewStyle().Foreground(styles.Error).Bold(true).Padding(0, 1)
	s.StatusInfo = lipgloss.NewStyle().Foreground(styles.Info).Padding(0, 1)

	s.Content = lipgloss.NewStyle().Padding(1, 2)
	s.Toast = styles.ToastStyle

	s.Title = styles.TitleStyle
	s.Subtle = styles.HelpStyle
	s.Highlight = lipgloss.NewStyle().Foreground(styles.Primary)
	s.Error = styles.ErrorTextStyle

	return s
}

// Options configures the root model.
type Options struct {
	// PreferredAccountID selects the account shown first when present.
	PreferredAccountID  int
	AutoRefreshInterval time.Duration
	StatusDuration      time.Duration
	// ExportDir receives files written by the export action.
	ExportDir string
}

// Model is the main application model.
type Model struct {
	// Tab management
	activeTab TabID
	tabs      []Tab

	// Shared state
	state     *State
	services  *services.Manager
	scheduler *Scheduler
	keymap    KeyMap
	styles    Styles
	opts      Options

	// ctx is cancelled on account switch, login redirect and quit.
	ctx    context.Context
	cancel context.CancelFunc

	autoRefresh TimerID
	statusTimer TimerID

	spinner spinner.Model

	// Window dimensions
	width  int
	height int

	// UI state
	showHelp bool
	ready    bool

	// Service subscription
	eventChannel chan services.ServiceEvent
}

// NewModel initializes a new application model.
func NewModel(mgr *services.Manager, opts Options) *Model {
	if opts.AutoRefreshInterval <= 0 {
		opts.AutoRefreshInterval = DefaultAutoRefreshInterval
	}
	if opts.StatusDuration <= 0 {
		opts.StatusDuration = DefaultStatusDuration
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	ctx, cancel := context.WithCancel(context.Background())

	return &Model{
		activeTab: TabOverview,
		tabs:      make([]Tab, len(tabIDs)),
		state:     NewState(),
		services:  mgr,
		scheduler: NewScheduler(),
		keymap:    DefaultKeyMap(),
		styles:    DefaultStyles(),
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
		spinner:   s,
	}
}

// SetTabs sets the tabs for the model, in TabID order.
func (m *Model) SetTabs(tabs []Tab) {
	m.tabs = tabs
	if m.width > 0 && m.height > 0 {
		m.updateTabSizes()
	}
}

// GetState returns the application state.
func (m *Model) GetState() *State {
	return m.state
}

// GetActiveTab returns the currently active tab ID.
func (m *Model) GetActiveTab() TabID {
	return m.activeTab
}

// IsReady returns true if the model is ready (window size received).
func (m *Model) IsReady() bool {
	return m.ready
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}

	if m.services != nil {
		cmds = append(cmds, subscribeToServicesCmd(m.services))
		if m.services.Authenticated() {
			cmds = append(cmds, loadAccountsCmd(m.ctx, m.services))
		} else {
			m.state.RequireLogin()
		}
	}

	for _, tab := range m.tabs {
		if tab != nil {
			cmds = append(cmds, tab.Init())
		}
	}

	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if fired, ok := msg.(TimerFiredMsg); ok {
		next, rearm := m.scheduler.Fired(fired)
		if rearm != nil {
			cmds = append(cmds, rearm)
		}
		if next == nil {
			return m, tea.Batch(cmds...)
		}
		msg = next
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg, spinner.TickMsg:
		if cmd := m.handleTeaMsg(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		cmd, handled := m.handleKeyMsg(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		if handled {
			return m, tea.Batch(cmds...)
		}

	default:
		if appCmds := m.handleAppMsg(msg); len(appCmds) > 0 {
			cmds = append(cmds, appCmds...)
		}
	}

	if cmd := m.updateActiveTab(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleTeaMsg(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.updateTabSizes()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) handleAppMsg(msg tea.Msg) []tea.Cmd {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case SubscriptionEventMsg:
		m.eventChannel = msg.Channel
		cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
	case ServiceEventMsg:
		cmds = append(cmds, m.handleServiceEvent(msg.Event)...)
		if m.eventChannel != nil {
			cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
		}
	case AccountsLoadedMsg:
		cmds = append(cmds, m.handleAccountsLoaded(msg)...)
	case CachedSlicesMsg:
		for _, c := range msg.Slices {
			m.state.ApplyCached(msg.AccountID, c.Slice, c.Data, c.FetchedAt)
		}
	case SliceLoadedMsg:
		cmds = append(cmds, m.handleSliceLoaded(msg)...)
	case HistoryLoadedMsg:
		if msg.Error != nil {
			logger.Warn("failed to load local history", "account_id", msg.AccountID, "error", msg.Error)
		}
		m.state.SetHistory(msg.AccountID, msg.Runs, msg.History)
	case RefreshMsg:
		cmds = append(cmds, m.refresh(msg.Force, msg.Slices...)...)
	case AutoRefreshMsg:
		if msg.Epoch == m.state.Epoch() && !m.state.LoginRequired() {
			logger.Debug("auto refresh", "epoch", msg.Epoch)
			cmds = append(cmds, m.refresh(false)...)
		}
	case SyncMsg:
		cmds = append(cmds, m.startSync()...)
	case SyncDoneMsg:
		cmds = append(cmds, m.handleSyncDone(msg)...)
	case ClearCacheMsg:
		cmds = append(cmds, m.startClearCache()...)
	case CacheClearedMsg:
		cmds = append(cmds, m.handleCacheCleared(msg)...)
	case SwitchAccountMsg:
		cmds = append(cmds, m.switchAccount(msg.AccountID)...)
	case CopyToClipboardMsg:
		cmds = append(cmds, copyToClipboardCmd(msg.Label, msg.Text))
	case ClipboardResultMsg:
		if msg.Error != nil {
			cmds = append(cmds, m.setStatus(fmt.Sprintf("Copy failed: %v", msg.Error), false))
		} else {
			cmds = append(cmds, m.setStatus(fmt.Sprintf("Copied %s to clipboard", msg.Label), true))
		}
	case ExportMsg:
		cmds = append(cmds, m.startExport(msg)...)
	case ExportResultMsg:
		if msg.Error != nil {
			cmds = append(cmds, m.setStatus(fmt.Sprintf("Export failed: %v", msg.Error), false))
		} else {
			cmds = append(cmds, m.setStatus("Exported to "+msg.Path, true))
		}
	case StatusMsg:
		cmds = append(cmds, m.setStatus(msg.Message, msg.Success))
	case DismissStatusMsg:
		m.state.ClearStatus(msg.ID)
	case LoginRequiredMsg:
		cmds = append(cmds, m.requireLogin()...)
	case TabSwitchMsg:
		m.switchTab(msg.Tab)
	case ToggleHelpMsg:
		m.showHelp = !m.showHelp
	}
	return cmds
}

func (m *Model) handleAccountsLoaded(msg AccountsLoadedMsg) []tea.Cmd {
	if msg.Error != nil {
		if errors.Is(msg.Error, api.ErrUnauthenticated) {
			return m.requireLogin()
		}
		m.state.SetAccountsError(msg.Error)
		return []tea.Cmd{m.setStatus("Failed to load accounts: "+msg.Error.Error(), false)}
	}

	acc, changed := m.state.SetAccounts(msg.Accounts, m.opts.PreferredAccountID)
	if !changed {
		// A logout tears down the account but keeps it selected, so the
		// first list after the login comes back must load it again.
		if acc.ID != 0 && m.autoRefresh == 0 {
			return m.loadAccount(acc.ID)
		}
		return nil
	}
	m.teardown()
	if acc.ID == 0 {
		return nil
	}
	return m.loadAccount(acc.ID)
}

// teardown cancels everything bound to the previous account.
func (m *Model) teardown() {
	m.cancel()
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.scheduler.CancelAll()
	m.autoRefresh = 0
	m.statusTimer = 0
	if st, ok := m.state.GetStatus(); ok {
		m.state.ClearStatus(st.ID)
	}
}

// loadAccount shows stored snapshots, fetches every slice and arms the
// auto-refresh for the current epoch.
func (m *Model) loadAccount(accountID int) []tea.Cmd {
	cmds := []tea.Cmd{
		loadCachedCmd(m.services, accountID),
		loadHistoryCmd(m.services, accountID),
	}
	cmds = append(cmds, m.refresh(false)...)

	id, cmd := m.scheduler.Every(m.opts.AutoRefreshInterval, AutoRefreshMsg{Epoch: m.state.Epoch()})
	m.autoRefresh = id
	return append(cmds, cmd)
}

func (m *Model) refresh(force bool, slices ...models.Slice) []tea.Cmd {
	if m.services == nil || m.state.LoginRequired() {
		return nil
	}
	if _, ok := m.state.GetActiveAccount(); !ok {
		m.state.SetAccountsLoading()
		return []tea.Cmd{loadAccountsCmd(m.ctx, m.services)}
	}
	if len(slices) == 0 {
		slices = models.AccountSlices
	}

	cmds := make([]tea.Cmd, 0, len(slices))
	for _, slice := range slices {
		t := m.state.BeginFetch(slice)
		cmds = append(cmds, fetchSliceCmd(m.ctx, m.services, t, force))
	}
	return cmds
}

func (m *Model) handleSliceLoaded(msg SliceLoadedMsg) []tea.Cmd {
	if msg.Error == nil {
		if m.state.ApplyResult(msg.Ticket, msg.Result.Data, msg.Result.FetchedAt) && msg.Ticket.Slice == models.SliceSpend {
			return []tea.Cmd{loadHistoryCmd(m.services, msg.Ticket.AccountID)}
		}
		return nil
	}

	switch {
	case errors.Is(msg.Error, context.Canceled):
		return nil
	case errors.Is(msg.Error, api.ErrUnauthenticated):
		if m.state.Current(msg.Ticket) {
			return m.requireLogin()
		}
		return nil
	}

	if m.state.ApplyError(msg.Ticket, msg.Error, msg.Replace) && msg.Replace {
		m.services.Forget(msg.Ticket.AccountID, msg.Ticket.Slice)
	}
	return nil
}

func (m *Model) startSync() []tea.Cmd {
	if m.services == nil || m.state.IsSyncing() || m.state.LoginRequired() {
		return nil
	}
	if _, ok := m.state.GetActiveAccount(); !ok {
		return nil
	}
	m.state.SetSyncing(true)
	t := m.state.BeginFetch(models.SliceSpend)
	return []tea.Cmd{
		syncCmd(m.ctx, m.services, t),
		m.setStatus("Syncing account, this can take a few seconds...", true),
	}
}

func (m *Model) handleSyncDone(msg SyncDoneMsg) []tea.Cmd {
	if msg.Ticket.Epoch != m.state.Epoch() {
		return nil
	}
	m.state.SetSyncing(false)

	if msg.Error != nil {
		switch {
		case errors.Is(msg.Error, context.Canceled):
			return nil
		case errors.Is(msg.Error, api.ErrUnauthenticated):
			return m.requireLogin()
		}
		m.state.CancelFetch(msg.Ticket)
		return []tea.Cmd{m.setStatus("Sync failed: "+msg.Error.Error(), false)}
	}

	out := msg.Outcome
	if out.SpendErr != nil {
		if errors.Is(out.SpendErr, api.ErrUnauthenticated) {
			return m.requireLogin()
		}
		m.state.ApplyError(msg.Ticket, out.SpendErr, false)
	} else {
		m.state.ApplyResult(msg.Ticket, out.Spend.Data, out.Spend.FetchedAt)
	}

	message := "Sync completed"
	if out.Result != nil && out.Result.Message != "" {
		message = out.Result.Message
	}
	return []tea.Cmd{
		m.setStatus(message, out.SpendErr == nil),
		loadHistoryCmd(m.services, msg.Ticket.AccountID),
	}
}

func (m *Model) startClearCache() []tea.Cmd {
	acc, ok := m.state.GetActiveAccount()
	if m.services == nil || !ok || m.state.LoginRequired() {
		return nil
	}
	return []tea.Cmd{clearCacheCmd(m.ctx, m.services, acc.ID, m.state.Epoch())}
}

func (m *Model) handleCacheCleared(msg CacheClearedMsg) []tea.Cmd {
	if msg.Epoch != m.state.Epoch() {
		return nil
	}
	if msg.Error != nil {
		if errors.Is(msg.Error, api.ErrUnauthenticated) {
			return m.requireLogin()
		}
		if errors.Is(msg.Error, context.Canceled) {
			return nil
		}
		return []tea.Cmd{m.setStatus("Failed to clear cache: "+msg.Error.Error(), false)}
	}

	message := "Resource cache cleared"
	if msg.Result != nil && msg.Result.Message != "" {
		message = msg.Result.Message
	}
	cmds := []tea.Cmd{m.setStatus(message, msg.Result == nil || msg.Result.OK())}
	return append(cmds, m.refresh(true, models.SlicePaidResources, models.SliceInventory)...)
}

func (m *Model) switchAccount(id int) []tea.Cmd {
	if cur, ok := m.state.GetActiveAccount(); ok && cur.ID == id {
		return nil
	}
	acc, ok := m.state.SwitchAccount(id)
	if !ok {
		return []tea.Cmd{m.setStatus(fmt.Sprintf("Unknown account %d", id), false)}
	}
	m.teardown()
	cmds := m.loadAccount(acc.ID)
	return append(cmds, m.setStatus("Switched to "+acc.DisplayName(), true))
}

func (m *Model) startExport(msg ExportMsg) []tea.Cmd {
	acc, ok := m.state.GetActiveAccount()
	l := m.state.GetLowLevel()
	if !ok || l == nil {
		return []tea.Cmd{m.setStatus("Nothing to export yet", false)}
	}
	dir := msg.Dir
	if dir == "" {
		dir = m.opts.ExportDir
	}
	now := time.Now()
	doc := export.Build(acc.ID, l, m.state.GetFilter(), now)
	return []tea.Cmd{exportCmd(doc, msg.Format, dir, now)}
}

// requireLogin drops the session: in-flight requests are cancelled and the
// token is cleared.
func (m *Model) requireLogin() []tea.Cmd {
	m.state.RequireLogin()
	m.teardown()
	if m.services == nil {
		return nil
	}
	return []tea.Cmd{logoutCmd(m.services)}
}

func (m *Model) handleServiceEvent(event services.ServiceEvent) []tea.Cmd {
	switch e := event.(type) {
	case services.TokenChangedEvent:
		if !e.Authenticated {
			if m.state.LoginRequired() {
				return nil
			}
			m.state.RequireLogin()
			m.teardown()
			return nil
		}
		if m.state.LoginRequired() {
			return m.restoreLogin()
		}

	case services.SpendAlertEvent:
		if acc, ok := m.state.GetActiveAccount(); ok && acc.ID == e.AccountID {
			return []tea.Cmd{m.setStatus(fmt.Sprintf("Spend is up %.0f%% on last month", e.ChangePercent), false)}
		}

	case services.ErrorEvent:
		return []tea.Cmd{m.setStatus(fmt.Sprintf("[%s] %v", e.Service, e.Error), false)}
	}

	return nil
}

func (m *Model) restoreLogin() []tea.Cmd {
	if m.services == nil || !m.services.Authenticated() {
		return nil
	}
	m.state.LoginRestored()
	return []tea.Cmd{loadAccountsCmd(m.ctx, m.services), m.setStatus("Token found, reloading", true)}
}

// setStatus shows a message and schedules its dismissal, replacing any
// pending dismissal of an older message.
func (m *Model) setStatus(message string, success bool) tea.Cmd {
	id := m.state.SetStatus(message, success)
	if m.statusTimer != 0 {
		m.scheduler.Cancel(m.statusTimer)
	}
	timer, cmd := m.scheduler.After(m.opts.StatusDuration, DismissStatusMsg{ID: id})
	m.statusTimer = timer
	return cmd
}

// Shutdown cancels in-flight requests and scheduled callbacks.
func (m *Model) Shutdown() {
	m.cancel()
	m.scheduler.CancelAll()
	if m.eventChannel != nil && m.services != nil {
		m.services.Unsubscribe(m.eventChannel)
		m.eventChannel = nil
	}
}

func (m *Model) switchTab(id TabID) {
	if int(id) < 0 || int(id) >= len(m.tabs) {
		return
	}
	m.activeTab = id
	m.state.SetSection(id)
	m.updateTabSizes()
}

func (m *Model) updateActiveTab(msg tea.Msg) tea.Cmd {
	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		var cmd tea.Cmd
		m.tabs[m.activeTab], cmd = m.tabs[m.activeTab].Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) updateTabSizes() {
	contentHeight := m.height - 5
	contentHeight = max(0, contentHeight)

	for _, tab := range m.tabs {
		if tab != nil {
			tab.SetSize(m.width, contentHeight)
		}
	}
}

func (m *Model) activeTabCaptures() bool {
	if int(m.activeTab) >= len(m.tabs) || m.tabs[m.activeTab] == nil {
		return false
	}
	c, ok := m.tabs[m.activeTab].(InputCapturer)
	return ok && c.CapturesInput()
}

// handleKeyMsg handles global keys. handled reports that the key must not
// reach the active tab.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Cmd, bool) {
	if key.Matches(msg, m.keymap.ForceQuit) {
		m.Shutdown()
		return tea.Quit, true
	}

	if m.state.LoginRequired() {
		switch {
		case key.Matches(msg, m.keymap.Quit):
			m.Shutdown()
			return tea.Quit, true
		case key.Matches(msg, m.keymap.Refresh):
			return tea.Batch(m.restoreLogin()...), true
		}
		return nil, true
	}

	if m.showHelp {
		if key.Matches(msg, m.keymap.Help, m.keymap.Escape) {
			m.showHelp = false
		}
		return nil, true
	}

	if m.activeTabCaptures() {
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.Shutdown()
		return tea.Quit, true

	case key.Matches(msg, m.keymap.Help):
		m.showHelp = true
		return nil, true

	case key.Matches(msg, m.keymap.NextTab):
		m.switchTab(TabID((int(m.activeTab) + 1) % len(m.tabs)))
		return nil, true

	case key.Matches(msg, m.keymap.PrevTab):
		m.switchTab(TabID((int(m.activeTab) - 1 + len(m.tabs)) % len(m.tabs)))
		return nil, true

	case key.Matches(msg, m.keymap.Refresh):
		return tea.Batch(m.refresh(false)...), true

	case key.Matches(msg, m.keymap.ForceRefresh):
		return tea.Batch(m.refresh(true)...), true

	case key.Matches(msg, m.keymap.Sync):
		return tea.Batch(m.startSync()...), true
	}

	for i, b := range m.keymap.Tabs {
		if key.Matches(msg, b) {
			m.switchTab(TabID(i))
			return nil, true
		}
	}

	return nil, false
}

// View renders the application UI.
func (m *Model) View() string {
	var b strings.Builder

	if m.width > 0 {
		b.WriteString(m.renderNavbar())
		b.WriteString("\n")
	}

	if !m.ready {
		b.WriteString(m.styles.Content.Render(fmt.Sprintf("%s Loading...", m.spinner.View())))
		return b.String()
	}

	switch {
	case m.state.LoginRequired():
		b.WriteString(m.renderLogin())
	case int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil:
		b.WriteString(m.tabs[m.activeTab].View())
	default:
		b.WriteString(m.renderNoAccount())
	}

	mainView := b.String()

	if m.showHelp {
		mainView = m.overlayCentered(mainView, m.renderHelp())
	}

	if toasts := m.renderToasts(); len(toasts) > 0 {
		return m.overlayToasts(mainView, toasts)
	}

	return mainView
}

func (m *Model) overlayCentered(mainView string, overlay string) string {
	mainLines := strings.Split(mainView, "\n")
	overlayLines := strings.Split(overlay, "\n")

	y := max((m.height-len(overlayLines))/2, 0)
	overlayWidth := lipgloss.Width(overlay)
	x := max((m.width-overlayWidth)/2, 0)

	mainLines = padLines(mainLines, max(m.height, y+len(overlayLines)))

	for i, overlayLine := range overlayLines {
		mainY := y + i
		mainLine := mainLines[mainY]
		left := ansi.Truncate(mainLine, x, "")
		right := ansi.TruncateLeft(mainLine, x+overlayWidth, "")
		if lipgloss.Width(left) < x {
			left += strings.Repeat(" ", x-lipgloss.Width(left))
		}

		mainLines[mainY] = left + overlayLine + right
	}

	return strings.Join(mainLines, "\n")
}

func (m *Model) renderNavbar() string {
	tabs := make([]string, 0, len(tabIDs)+1)

	for i, id := range tabIDs {
		if id == m.activeTab {
			tabs = append(tabs, m.styles.ActiveTab.Render(fmt.Sprintf("[%d] %s", i+1, id)))
		} else {
			tabs = append(tabs, m.styles.InactiveTab.Render(fmt.Sprintf(" %d  %s", i+1, id)))
		}
	}

	if acc, ok := m.state.GetActiveAccount(); ok {
		tabs = append(tabs, m.styles.AccountTag.Render(acc.DisplayName()))
	}

	tabBar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	return m.styles.TabBar.Width(m.width).Render(tabBar)
}

func (m *Model) renderToasts() []string {
	var toasts []string

	if m.state.AnyLoading() {
		content := m.styles.StatusInfo.Render(m.spinner.View() + " Loading...")
		toasts = append(toasts, m.styles.Toast.Render(content))
	}

	if st, ok := m.state.GetStatus(); ok {
		style, prefix := m.styles.StatusError, "[ERR]"
		if st.Success {
			style, prefix = m.styles.StatusSuccess, "[OK]"
		}
		toasts = append(toasts, m.styles.Toast.Render(style.Render(prefix+" "+st.Message)))
	}

	return toasts
}

func (m *Model) overlayToasts(mainView string, toasts []string) string {
	toastStack := lipgloss.JoinVertical(lipgloss.Right, toasts...)
	toastLines := strings.Split(toastStack, "\n")
	mainLines := strings.Split(mainView, "\n")

	toastWidth := lipgloss.Width(toastStack)
	startX := max(m.width-toastWidth-2, 0)

	startY := 2
	mainLines = padLines(mainLines, max(m.height, startY+len(toastLines)))

	for i, toastLine := range toastLines {
		lineIdx := startY + i
		mainLine := mainLines[lineIdx]
		mainLineWidth := lipgloss.Width(mainLine)

		if mainLineWidth < startX {
			mainLines[lineIdx] = mainLine + strings.Repeat(" ", startX-mainLineWidth) + toastLine
		} else {
			mainLines[lineIdx] = ansi.Truncate(mainLine, startX, "") + toastLine
		}
	}

	return strings.Join(mainLines, "\n")
}

// padLines extends a view shorter than the terminal with empty rows so
// overlays below its last line still have somewhere to go.
func padLines(lines []string, n int) []string {
	for len(lines) < n {
		lines = append(lines, "")
	}
	return lines
}

func (m *Model) renderHelp() string {
	var lines []string

	lines = append(lines, m.styles.Title.Render("Keyboard Shortcuts"))
	lines = append(lines, "")

	lines = append(lines, m.styles.Highlight.Render("Navigation"))
	lines = append(lines, fmt.Sprintf("  1-%d        Switch tabs", len(tabIDs)))
	lines = append(lines, "  Tab        Next tab")
	lines = append(lines, "  Shift+Tab  Previous tab")
	lines = append(lines, "")

	lines = append(lines, m.styles.Highlight.Render("Actions"))
	lines = append(lines, "  r          Refresh data")
	lines = append(lines, "  R          Refresh, bypassing the backend cache")
	lines = append(lines, "  s          Sync account")
	lines = append(lines, "  ?          Toggle help")
	lines = append(lines, "  q/Ctrl+C   Quit")
	lines = append(lines, "")

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		tabHelp := m.tabs[m.activeTab].ShortHelp()
		if len(tabHelp) > 0 {
			lines = append(lines, m.styles.Highlight.Render(fmt.Sprintf("%s Tab", m.activeTab)))
			for _, binding := range tabHelp {
				lines = append(lines, fmt.Sprintf("  %-10s %s", binding.Help().Key, binding.Help().Desc))
			}
			lines = append(lines, "")
		}
	}

	lines = append(lines, m.styles.Subtle.Render("Press ? or Esc to close"))

	return styles.HelpPanelStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderLogin() string {
	lines := []string{
		m.styles.Title.Render("Sign in required"),
		"",
		"The backend rejected the stored token, or no token is saved.",
		"",
		"Save a token from another terminal:",
		m.styles.Highlight.Render("  ccd token set"),
		"",
		m.styles.Subtle.Render("The dashboard reloads once the token file changes. Press r to retry, q to quit."),
	}
	return m.styles.Content.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderNoAccount() string {
	content := fmt.Sprintf(
		"%s\n\n%s",
		m.activeTab,
		m.styles.Subtle.Render("Nothing to show here yet."),
	)
	return m.styles.Content.Render(content)
}
