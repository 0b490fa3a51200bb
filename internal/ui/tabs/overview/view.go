package overview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/analytics"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/ui/styles"
)

// View renders the overview tab.
func (m *Model) View() string {
	slice := m.state.GetSlice(models.SliceSpend)
	spend := m.state.GetSpend()

	sections := []string{m.renderTitle(spend)}
	if notice := components.SliceNotice(slice.Loading, slice.Err, slice.LastUpdated, slice.FromStore); notice != "" {
		sections = append(sections, notice, "")
	}

	switch {
	case spend != nil:
		sections = append(sections, m.renderCards(spend), "")
		if warning := renderConcentration(spend); warning != "" {
			sections = append(sections, warning, "")
		}
		sections = append(sections, m.renderDaily(spend), "", m.renderTopServices(spend))
	case slice.Loading:
		sections = append(sections, components.RenderSpinnerCentered(&m.spinner, m.width))
	case !slice.HasError():
		sections = append(sections, styles.HelpStyle.Render("No spend data yet. Press s to sync the account."))
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle(spend *models.SpendSummary) string {
	title := styles.TitleStyle.Render("Spend Overview")
	subtitle := "Current billing month"
	if spend != nil && spend.MonthLabel != "" && spend.MonthLabel != models.LabelUnknown {
		subtitle = spend.MonthLabel
	}
	if acc, ok := m.state.GetActiveAccount(); ok {
		subtitle += " · " + acc.DisplayName()
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, styles.HelpStyle.Render(subtitle))
}

func (m *Model) renderCards(s *models.SpendSummary) string {
	now := m.now()
	daysInMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day()
	projected := analytics.ProjectedMonth(s.MonthToDateSpend, now.Day(), daysInMonth)

	change := analytics.CappedChange(s.MonthlyChangePercent)
	changeValue := styles.GetChangeStyle(change).Render(components.FormatSignedPercent(change))
	if change != s.MonthlyChangePercent {
		changeValue += styles.HelpStyle.Render(" (capped)")
	}

	cards := []string{
		card("Total spend", components.FormatCurrency(s.TotalSpend), "last 30 days"),
		card("Month to date", components.FormatCurrency(s.MonthToDateSpend), "projected "+components.FormatCurrency(projected)),
		card("Prior day (billing lag)", components.FormatCurrency(s.PriorDaySpend), "most recent billed day"),
		card("vs. last month", changeValue, "month over month"),
		card("Forecast", components.FormatCurrency(s.Forecast.SevenDay), "next 7 days, "+components.FormatCurrency(s.Forecast.ThirtyDay)+" next 30"),
	}

	// Two rows on narrow terminals.
	if m.width < 5*cardWidth+10 {
		return lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.JoinHorizontal(lipgloss.Top, cards[:3]...),
			lipgloss.JoinHorizontal(lipgloss.Top, cards[3:]...),
		)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

const cardWidth = 30

func card(title, value, caption string) string {
	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left,
		styles.CardTitleStyle.Render(title),
		styles.CardValueStyle.Render(value),
		styles.HelpStyle.Render(components.Truncate(caption, cardWidth-4)),
	))
}

func renderConcentration(s *models.SpendSummary) string {
	top, concentrated := analytics.Concentration(s.Services)
	if !concentrated {
		return ""
	}
	return styles.WarningTextStyle.Render(fmt.Sprintf("⚠ %s accounts for %s of spend",
		top.Name, components.FormatPercent(top.Percentage)))
}

func (m *Model) renderDaily(s *models.SpendSummary) string {
	rows := []string{styles.SubTitleStyle.Render("Daily spend")}

	if len(s.Daily) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(rows, styles.HelpStyle.Render("No daily data"))...)
	}

	chartWidth := max(m.width-16, 20)
	caption := fmt.Sprintf("%s to %s", s.Daily[0].Label, s.Daily[len(s.Daily)-1].Label)
	rows = append(rows, components.RenderLineChart(analytics.Amounts(s.Daily), chartWidth, 8, caption))

	stats := analytics.Daily(s.Daily)
	rows = append(rows, styles.HelpStyle.Render(fmt.Sprintf("min %s · mean %s · max %s over %d days",
		components.FormatCurrency(stats.Min),
		components.FormatCurrency(stats.Mean),
		components.FormatCurrency(stats.Max),
		stats.Count)))

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) renderTopServices(s *models.SpendSummary) string {
	rows := []string{styles.SubTitleStyle.Render("Top services")}

	top := analytics.TopServices(s.Services, topServices)
	if len(top) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(rows, styles.HelpStyle.Render("No service breakdown"))...)
	}

	barWidth := max(m.width-6, 60)
	for _, svc := range top {
		rows = append(rows, m.shareBar.View(svc.Name, svc.Percentage, svc.Amount, barWidth))
	}
	if rest := len(s.Services) - len(top); rest > 0 {
		rows = append(rows, styles.HelpStyle.Render(fmt.Sprintf("%d more on the Services tab", rest)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// summaryText is the plain-text summary put on the clipboard.
func (m *Model) summaryText() string {
	s := m.state.GetSpend()
	if s == nil {
		return ""
	}

	var b strings.Builder
	if acc, ok := m.state.GetActiveAccount(); ok {
		fmt.Fprintf(&b, "Account: %s\n", acc.DisplayName())
	}
	fmt.Fprintf(&b, "Total spend: %s\n", components.FormatCurrency(s.TotalSpend))
	fmt.Fprintf(&b, "Month to date: %s\n", components.FormatCurrency(s.MonthToDateSpend))
	fmt.Fprintf(&b, "Prior day (billing lag): %s\n", components.FormatCurrency(s.PriorDaySpend))
	fmt.Fprintf(&b, "Change vs. last month: %s\n", components.FormatSignedPercent(analytics.CappedChange(s.MonthlyChangePercent)))
	for _, svc := range analytics.TopServices(s.Services, topServices) {
		fmt.Fprintf(&b, "  %s: %s (%s)\n", svc.Name, components.FormatCurrency(svc.Amount), components.FormatPercent(svc.Percentage))
	}
	return b.String()
}
