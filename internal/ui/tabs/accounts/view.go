package accounts

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/ui/styles"
)

const syncHistoryRows = 8

// View renders the accounts tab.
func (m *Model) View() string {
	loading, errMsg := m.state.AccountsStatus()
	accounts := m.state.GetAccounts()

	var sections []string
	sections = append(sections, m.renderTitle(len(accounts)))

	switch {
	case loading && len(accounts) == 0:
		sections = append(sections, components.RenderSpinnerCentered(&m.spinner, m.width))
	case errMsg != "" && len(accounts) == 0:
		sections = append(sections, styles.ErrorTextStyle.Render("Failed to load accounts: "+errMsg),
			styles.HelpStyle.Render("Press r to retry."))
	case len(accounts) == 0:
		sections = append(sections, m.renderEmptyState())
	default:
		if errMsg != "" {
			sections = append(sections, styles.WarningTextStyle.Render("Account list may be outdated: "+errMsg))
		}
		m.refreshRows()
		sections = append(sections,
			styles.CardStyle.Width(m.cardWidth()).Render(m.table.View()),
			m.renderSelected(),
			m.renderSyncHistory(),
		)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) cardWidth() int {
	return max(m.width-6, 60)
}

// renderTitle renders the accounts tab title.
func (m *Model) renderTitle(count int) string {
	title := styles.TitleStyle.Render("Linked Accounts")

	subtitle := fmt.Sprintf("%d accounts linked", count)
	if active, ok := m.state.GetActiveAccount(); ok {
		subtitle += " · viewing " + active.DisplayName()
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, styles.HelpStyle.Render(subtitle), "")
}

// renderEmptyState renders the empty state when no accounts are linked.
func (m *Model) renderEmptyState() string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		styles.SubTitleStyle.Render("No Accounts Linked"),
		"",
		styles.HelpStyle.Render("Create the cross-account role, then link it:"),
		"",
		styles.InfoTextStyle.Render("ccd accounts external-id, then ccd accounts connect --role-arn <arn>"),
		"",
	)
	return styles.CardStyle.Width(m.cardWidth()).Render(content)
}

// renderSelected shows the setup details of the account under the cursor.
func (m *Model) renderSelected() string {
	acc, ok := m.selected()
	if !ok {
		return ""
	}

	row := func(label, value string) string {
		if value == "" {
			value = "-"
		}
		return styles.HelpStyle.Render(fmt.Sprintf("%-14s", label)) + value
	}

	created := "-"
	if !acc.CreatedAt.IsZero() {
		created = acc.CreatedAt.Format("2006-01-02")
	}
	lastSync := "never synced"
	if !acc.NeverSynced() {
		lastSync = acc.LastSynced.Local().Format("2006-01-02 15:04") + " (" + components.FormatAgo(*acc.LastSynced) + ")"
	}

	lines := []string{
		styles.CardTitleStyle.Render(acc.DisplayName()),
		row("Role ARN", acc.RoleARN),
		row("External ID", acc.ExternalID),
		row("Linked", created),
		row("Last sync", lastSync),
	}
	return lipgloss.JoinVertical(lipgloss.Left, append([]string{""}, lines...)...)
}

// renderSyncHistory lists the locally recorded syncs of the active account.
func (m *Model) renderSyncHistory() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(styles.SubTitleStyle.Render("Recent syncs"))
	b.WriteString("\n")

	runs := m.state.GetSyncRuns()
	if len(runs) == 0 {
		b.WriteString(styles.HelpStyle.Render("No syncs recorded on this machine. Press s to sync."))
		return b.String()
	}

	for i, run := range runs {
		if i == syncHistoryRows {
			b.WriteString(styles.HelpStyle.Render(fmt.Sprintf("… %d older", len(runs)-i)))
			break
		}
		b.WriteString(renderRun(run))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderRun(run models.SyncRun) string {
	status := styles.SuccessTextStyle.Render(fmt.Sprintf("%-8s", run.Status))
	if run.Status != "success" {
		status = styles.ErrorTextStyle.Render(fmt.Sprintf("%-8s", run.Status))
	}
	line := fmt.Sprintf("%s  %s  %s records",
		run.At.Local().Format("2006-01-02 15:04"), status, components.FormatCount(run.RecordsSynced))
	if run.Message != "" {
		line += "  " + styles.HelpStyle.Render(components.Truncate(run.Message, 60))
	}
	return line
}
