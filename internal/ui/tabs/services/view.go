package services

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/analytics"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/ui/styles"
)

// View renders the services tab.
func (m *Model) View() string {
	slice := m.state.GetSlice(models.SliceSpend)

	sections := []string{
		styles.TitleStyle.Render("Services"),
	}
	if notice := components.SliceNotice(slice.Loading, slice.Err, slice.LastUpdated, slice.FromStore); notice != "" {
		sections = append(sections, notice, "")
	}

	sections = append(sections, m.renderBreakdown(), "", m.renderHistory())

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderBreakdown() string {
	rows := m.rows()
	if len(rows) == 0 {
		return styles.HelpStyle.Render("No service breakdown available")
	}

	barWidth := max(m.width-8, 60)
	lines := []string{styles.SubTitleStyle.Render(fmt.Sprintf("Spend by service (%d)", len(rows)))}
	for i, svc := range rows {
		line := m.shareBar.View(svc.Name, svc.Percentage, svc.Amount, barWidth)
		if i == m.cursor {
			line = styles.SelectedListItemStyle.Render("▶ ") + line
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderHistory compares the backend's daily series with the history
// recorded locally, which reaches further back.
func (m *Model) renderHistory() string {
	var current []float64
	if spend := m.state.GetSpend(); spend != nil {
		current = analytics.Amounts(spend.Daily)
	}
	recorded := analytics.Amounts(m.state.GetHistory())

	lines := []string{styles.SubTitleStyle.Render("Daily spend history")}
	if len(recorded) == 0 && len(current) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(lines, styles.HelpStyle.Render("No history recorded yet"))...)
	}

	caption := fmt.Sprintf("%d days recorded locally", len(recorded))
	lines = append(lines,
		components.RenderDualLineChart(current, recorded, max(m.width-16, 20), 8, caption),
		components.RenderLegend([]components.LegendItem{
			{Label: "recorded", Color: styles.TextMuted},
			{Label: "backend window", Color: styles.Primary},
		}),
	)

	if runs := m.state.GetSyncRuns(); len(runs) > 0 {
		last := runs[0]
		lines = append(lines, styles.HelpStyle.Render(fmt.Sprintf("Last sync %s: %s", components.FormatAgo(last.At), last.Status)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
