package info

import (
	"fmt"
	"runtime"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/app"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/ui/styles"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderTitle(),
		m.renderConfigCard(),
		m.renderDataCard(),
		m.renderAboutCard(),
	)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

// renderTitle renders the info tab title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration and application information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 100)
}

// renderConfigCard renders the configuration card.
func (m *Model) renderConfigCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Configuration"))
	rows = append(rows, "")

	if m.config != nil {
		rows = append(rows, renderRow("Backend", m.config.APIBaseURL))
		for _, p := range m.paths() {
			value := p.value
			if value == "" {
				value = "-"
			}
			rows = append(rows, renderRow(p.label, value))
		}
		rows = append(rows, renderRow("Auto refresh", m.config.AutoRefreshInterval.String()))
		rows = append(rows, renderRow("Cache TTL", m.config.CacheTTL.String()))
		rows = append(rows, renderRow("Request timeout", m.config.RequestTimeout.String()))
		if m.config.SpendAlertPercent > 0 {
			rows = append(rows, renderRow("Spend alert", fmt.Sprintf("above +%.0f%% month over month", m.config.SpendAlertPercent)))
		}
		rows = append(rows, "")
		rows = append(rows, styles.HelpStyle.Render("Press 'c' to copy paths"))
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderDataCard shows when each slice of the active account was loaded.
func (m *Model) renderDataCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Data"))
	rows = append(rows, "")

	active, ok := m.state.GetActiveAccount()
	if !ok {
		rows = append(rows, styles.HelpStyle.Render("No account selected"))
	} else {
		rows = append(rows, renderRow("Account", fmt.Sprintf("%s (#%d)", active.DisplayName(), active.ID)))
		for _, slice := range models.AccountSlices {
			rows = append(rows, renderRow(slice.Title(), sliceStatus(m.state.GetSlice(slice))))
		}
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func sliceStatus(s app.SliceState) string {
	switch {
	case s.Loading:
		return "loading"
	case s.HasError():
		return styles.ErrorTextStyle.Render("failed: " + components.Truncate(s.Err, 50))
	case s.LastUpdated.IsZero():
		return "not loaded"
	case s.FromStore:
		return "stored " + components.FormatAgo(s.LastUpdated)
	default:
		return "updated " + components.FormatAgo(s.LastUpdated)
	}
}

// renderRow renders a key-value row.
func renderRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

// renderAboutCard renders the about/version information card.
func (m *Model) renderAboutCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("About "+version.AppName))
	rows = append(rows, "")

	rows = append(rows, renderRow("Version", version.GetVersion()))
	rows = append(rows, renderRow("Build Date", version.GetDate()))
	rows = append(rows, renderRow("Git Commit", version.GetCommit()))
	rows = append(rows, renderRow("Go Version", runtime.Version()))
	rows = append(rows, renderRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)))
	rows = append(rows, "")

	accountCount := len(m.state.GetAccounts())
	rows = append(rows, fmt.Sprintf("Accounts: %s", styles.InfoTextStyle.Render(strconv.Itoa(accountCount))))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
