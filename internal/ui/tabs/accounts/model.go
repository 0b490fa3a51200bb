// Package accounts provides the linked cloud accounts tab.
package accounts

import (
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/app"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/ui/styles"
)

// keyMap defines the key bindings specific to the accounts tab.
type keyMap struct {
	Enter      key.Binding
	CopyRole   key.Binding
	CopyExtID  key.Binding
	CopyNumber key.Binding
}

// defaultKeyMap returns the default key bindings for the accounts tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "switch account"),
		),
		CopyRole: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy role ARN"),
		),
		CopyExtID: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "copy external ID"),
		),
		CopyNumber: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy account number"),
		),
	}
}

// Model represents the accounts tab state.
type Model struct {
	state   *app.State
	table   table.Model
	spinner components.LoadingSpinner
	keys    keyMap
	width   int
	height  int
}

// New creates a new accounts model.
func New(state *app.State) *Model {
	t := table.New(
		table.WithColumns(columns(0)),
		table.WithFocused(true),
		table.WithHeight(8),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Subtle).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Primary)
	s.Selected = s.Selected.
		Foreground(styles.TextPrimary).
		Background(styles.BgAccent).
		Bold(true)
	t.SetStyles(s)

	return &Model{
		state:   state,
		table:   t,
		spinner: components.NewSpinner("Loading accounts..."),
		keys:    defaultKeyMap(),
	}
}

// columns sizes the role column to whatever width is left.
func columns(width int) []table.Column {
	roleWidth := min(max(width-60, 24), 70)
	return []table.Column{
		{Title: "", Width: 1},
		{Title: "ID", Width: 5},
		{Title: "Account", Width: 14},
		{Title: "Role", Width: roleWidth},
		{Title: "Status", Width: 8},
		{Title: "Last sync", Width: 16},
	}
}

// Init initializes the accounts tab.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Init()
}

// Update handles messages for the accounts tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKeyMsg(msg)

	case app.AccountsLoadedMsg, app.SwitchAccountMsg:
		m.refreshRows()

	default:
		if loading, _ := m.state.AccountsStatus(); loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	acc, ok := m.selected()

	switch {
	case key.Matches(msg, m.keys.Enter):
		if !ok {
			return nil
		}
		if active, has := m.state.GetActiveAccount(); has && active.ID == acc.ID {
			return app.StatusCmd("Already viewing "+acc.DisplayName(), true)
		}
		return app.Send(app.SwitchAccountMsg{AccountID: acc.ID})

	case key.Matches(msg, m.keys.CopyRole):
		if ok && acc.RoleARN != "" {
			return app.Send(app.CopyToClipboardMsg{Label: "role ARN", Text: acc.RoleARN})
		}
		return app.StatusCmd("No role ARN to copy", false)

	case key.Matches(msg, m.keys.CopyExtID):
		if ok && acc.ExternalID != "" {
			return app.Send(app.CopyToClipboardMsg{Label: "external ID", Text: acc.ExternalID})
		}
		return app.StatusCmd("No external ID to copy", false)

	case key.Matches(msg, m.keys.CopyNumber):
		if ok {
			return app.Send(app.CopyToClipboardMsg{Label: "account number", Text: acc.DisplayName()})
		}
		return nil

	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return cmd
	}
}

// selected returns the account under the table cursor.
func (m *Model) selected() (models.Account, bool) {
	accounts := m.state.GetAccounts()
	i := m.table.Cursor()
	if i < 0 || i >= len(accounts) {
		return models.Account{}, false
	}
	return accounts[i], true
}

// refreshRows rebuilds the table from the account list, one row per account
// in backend order.
func (m *Model) refreshRows() {
	accounts := m.state.GetAccounts()
	active, hasActive := m.state.GetActiveAccount()

	rows := make([]table.Row, 0, len(accounts))
	for _, acc := range accounts {
		marker := " "
		if hasActive && acc.ID == active.ID {
			marker = "●"
		}
		status := "inactive"
		if acc.IsActive {
			status = "active"
		}
		lastSync := "never synced"
		if !acc.NeverSynced() {
			lastSync = components.FormatAgo(*acc.LastSynced)
		}
		rows = append(rows, table.Row{
			marker,
			strconv.Itoa(acc.ID),
			acc.DisplayName(),
			acc.RoleARN,
			status,
			lastSync,
		})
	}
	m.table.SetRows(rows)

	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

// SetSize sets the available size for the accounts tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetColumns(columns(width))
	m.table.SetHeight(min(max(height/2, 5), 14))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Enter, m.keys.CopyRole, m.keys.CopyExtID}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Enter},
		{m.keys.CopyRole, m.keys.CopyExtID, m.keys.CopyNumber},
	}
}
