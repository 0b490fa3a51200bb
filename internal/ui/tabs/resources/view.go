package resources

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/analytics"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/ui/styles"
)

// View renders the resources tab.
func (m *Model) View() string {
	sections := []string{
		styles.TitleStyle.Render("Resources"),
		m.renderPaid(),
		"",
		m.renderFindings(),
		"",
		m.renderInventory(),
	}
	if issues := m.permissionIssues(); len(issues) > 0 {
		sections = append(sections, "", renderPermissionIssues(issues))
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) sectionHeader(title string, slice models.Slice) []string {
	st := m.state.GetSlice(slice)
	lines := []string{styles.SubTitleStyle.Render(title)}
	if notice := components.SliceNotice(st.Loading, st.Err, st.LastUpdated, st.FromStore); notice != "" {
		lines = append(lines, notice)
	}
	return lines
}

func (m *Model) renderPaid() string {
	lines := m.sectionHeader("Paid resources", models.SlicePaidResources)

	paid := m.state.GetPaidResources()
	if paid == nil {
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	cats := analytics.VisibleCategories(paid)
	if len(cats) == 0 {
		lines = append(lines, styles.SuccessTextStyle.Render("No paid resources found"))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	lines = append(lines, styles.HelpStyle.Render(fmt.Sprintf("%d paid resources in %d categories",
		paid.Summary.TotalPaid, len(cats))))

	totals := analytics.TierTotals(cats)
	totalCost := lo.SumBy(totals, func(t analytics.TierTotal) float64 { return t.Cost })
	for _, t := range totals {
		share := 0.0
		if totalCost > 0 {
			share = t.Cost / totalCost * 100
		}
		lines = append(lines, fmt.Sprintf("%s %s %s  %s",
			styles.GetTierStyle(t.Tier).Width(8).Render(string(t.Tier)),
			components.TierBar(t.Tier, share, 20),
			components.FormatCurrency(t.Cost),
			styles.HelpStyle.Render(fmt.Sprintf("%d resources", t.Resources)),
		))
	}
	lines = append(lines, "")

	header := fmt.Sprintf("%-8s %-32s %7s %12s  %s", "TIER", "CATEGORY", "COUNT", "EST./MONTH", "COST DRIVER")
	lines = append(lines, styles.TableHeaderStyle.Render(header))
	for _, c := range cats {
		lines = append(lines, fmt.Sprintf("%s %-32s %7d %12s  %s",
			styles.GetTierStyle(c.Tier).Width(8).Render(string(c.Tier)),
			components.Truncate(c.Name, 32),
			c.Count,
			components.FormatCurrency(c.EstimatedMonthlyCost),
			styles.HelpStyle.Render(c.CostDriver),
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) renderFindings() string {
	lines := m.sectionHeader("Cost findings", models.SliceCostAnalysis)

	a := m.state.GetCostAnalysis()
	if a == nil {
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}
	if a.FindingCount() == 0 {
		lines = append(lines, styles.SuccessTextStyle.Render("No cost findings"))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	savings, unquantified := analytics.FindingsSavings(a)
	summary := fmt.Sprintf("%d findings, quoted savings %s", a.FindingCount(), components.FormatCurrency(savings))
	if unquantified > 0 {
		summary += fmt.Sprintf(" (+%d unquantified)", unquantified)
	}
	if a.EstimatedSavings != "" && a.EstimatedSavings != models.LabelNA {
		summary += ", backend estimate " + a.EstimatedSavings
	}
	lines = append(lines, styles.HelpStyle.Render(summary))

	groups := []struct {
		tier     models.CostTier
		findings []models.CostFinding
	}{
		{models.TierHigh, a.High},
		{models.TierMedium, a.Medium},
		{models.TierLow, a.Low},
	}
	for _, g := range groups {
		for _, f := range g.findings {
			lines = append(lines, fmt.Sprintf("%s %s: %s",
				styles.GetTierStyle(g.tier).Render("●"),
				f.Category,
				f.Issue,
			))
			if f.Recommendation != "" {
				lines = append(lines, styles.HelpStyle.Render("    → "+f.Recommendation))
			}
			if f.PotentialSavings != "" {
				lines = append(lines, styles.SuccessTextStyle.Render("    saves "+f.PotentialSavings))
			}
		}
	}

	if len(a.Recommendations) > 0 {
		lines = append(lines, "", styles.CardTitleStyle.Render("Recommendations"))
		for _, r := range a.Recommendations {
			lines = append(lines, "  • "+r)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) renderInventory() string {
	lines := m.sectionHeader("Inventory", models.SliceInventory)

	inv := m.state.GetInventory()
	if inv == nil {
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	lines = append(lines,
		fmt.Sprintf("%s resources total", styles.CardValueStyle.Render(components.FormatCount(inv.TotalResources))),
		fmt.Sprintf("EC2: %d instances, %d running, %d stopped, %.1fh average uptime",
			inv.EC2.Total, inv.EC2.Running, inv.EC2.Stopped, inv.EC2.AvgRunningHours),
		fmt.Sprintf("S3: %d buckets, %.0f days average age", inv.S3.TotalBuckets, inv.S3.AvgAgeDays),
	)

	type serviceTotal struct {
		name  string
		count int
	}
	totals := lo.MapToSlice(inv.ServiceTotals, func(name string, count int) serviceTotal {
		return serviceTotal{name, count}
	})
	slices.SortFunc(totals, func(a, b serviceTotal) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return strings.Compare(a.name, b.name)
	})
	if len(totals) > 0 {
		values := lo.Map(totals, func(t serviceTotal, _ int) float64 { return float64(t.count) })
		labels := lo.Map(totals, func(t serviceTotal, _ int) string { return t.name })
		lines = append(lines, "", components.RenderBarChart(values, labels, max(m.width-8, 40), func(v float64) string {
			return components.FormatCount(int(v))
		}))
	}

	if inv.Source != "" {
		lines = append(lines, styles.HelpStyle.Render("source: "+inv.Source))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) permissionIssues() []string {
	var issues []string
	if p := m.state.GetPaidResources(); p != nil {
		issues = append(issues, p.PermissionIssues...)
	}
	if inv := m.state.GetInventory(); inv != nil {
		issues = append(issues, inv.PermissionIssues...)
	}
	return lo.Uniq(issues)
}

func renderPermissionIssues(issues []string) string {
	lines := []string{styles.WarningTextStyle.Render("Missing permissions, some resources were not scanned:")}
	for _, issue := range issues {
		lines = append(lines, styles.HelpStyle.Render("  • "+issue))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func recommendationsText(a *models.CostAnalysis) string {
	if a == nil || (a.FindingCount() == 0 && len(a.Recommendations) == 0) {
		return ""
	}

	var b strings.Builder
	for _, f := range slices.Concat(a.High, a.Medium, a.Low) {
		fmt.Fprintf(&b, "- [%s] %s", f.Category, f.Issue)
		if f.Recommendation != "" {
			fmt.Fprintf(&b, ": %s", f.Recommendation)
		}
		b.WriteString("\n")
	}
	for _, r := range a.Recommendations {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	return b.String()
}
