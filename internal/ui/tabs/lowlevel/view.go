package lowlevel

import (
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

// View renders the low-level services tab.
func (m *Model) View() string {
	if c, ok := m.state.Details(); ok {
		return styles.DocStyle.Width(m.width).Render(m.renderDetails(c))
	}

	header := m.renderHeader()
	m.viewport.Height = max(m.height-lipgloss.Height(header), 1)

	m.viewport.SetContent(m.renderList())
	m.followCursor()

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View()))
}

func (m *Model) renderHeader() string {
	slice := m.state.GetSlice(models.SliceLowLevel)

	lines := []string{styles.SubTitleStyle.Render("Low-level Services")}
	if notice := components.SliceNotice(slice.Loading, slice.Err, slice.LastUpdated, slice.FromStore); notice != "" {
		lines = append(lines, notice)
	}

	f := m.state.GetFilter()
	lines = append(lines,
		strings.Join([]string{
			m.renderInput("Search", m.search.View(), m.focus == focusSearch),
			label("Category") + allOr(f.Categories),
			label("Region") + allOr(f.Regions),
			m.renderInput("Min $", m.minCost.View(), m.focus == focusMin),
			m.renderInput("Max $", m.maxCost.View(), m.focus == focusMax),
		}, "  "),
	)

	if len(m.fieldErrors) > 0 {
		msgs := lo.Map(lo.Keys(m.fieldErrors), func(k string, _ int) string {
			return k + ": " + m.fieldErrors[k]
		})
		lines = append(lines, styles.ErrorTextStyle.Render(strings.Join(sortedStrings(msgs), "; ")))
	}

	lines = append(lines, m.renderSummary(), "")
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func label(s string) string {
	return styles.HelpStyle.Render(s + ": ")
}

func (m *Model) renderInput(name, view string, focused bool) string {
	style := styles.BlurredStyle
	if focused {
		style = styles.FocusedStyle
	}
	return label(name) + style.Render("["+view+"]")
}

func allOr(values []string) string {
	if len(values) == 0 {
		return "All"
	}
	return strings.Join(values, ", ")
}

func (m *Model) renderSummary() string {
	l := m.state.GetLowLevel()
	if l == nil {
		return ""
	}

	visible := m.state.VisibleServices()
	total := len(l.Categories)
	cost := lo.SumBy(visible, func(c models.LowLevelServiceCategory) float64 { return c.TotalMonthlyCost })

	parts := []string{
		fmt.Sprintf("Showing %d of %d services", len(visible), total),
		components.FormatCurrency(cost) + "/month estimated",
	}
	if n := len(l.Summary.RegionsScanned); n > 0 {
		parts = append(parts, fmt.Sprintf("%d regions scanned", n))
	}
	if l.ScanDuration > 0 {
		parts = append(parts, "scan took "+l.ScanDuration.String())
	}
	parts = append(parts, "export as "+string(m.exportFormat))

	summary := styles.HelpStyle.Render(strings.Join(parts, " · "))
	if l.Error != "" {
		summary = lipgloss.JoinVertical(lipgloss.Left, summary, styles.WarningTextStyle.Render("Scan reported: "+l.Error))
	}
	return summary
}

func (m *Model) renderList() string {
	l := m.state.GetLowLevel()
	if l == nil {
		return ""
	}

	visible := m.state.VisibleServices()
	if len(visible) == 0 {
		m.cursorLine = 0
		if len(l.Categories) == 0 {
			return styles.HelpStyle.Render("No services discovered")
		}
		return styles.HelpStyle.Render("No services match the filter. Press C to clear it.")
	}

	var lines []string
	for i, c := range visible {
		expanded := m.state.IsExpanded(c.Key)
		if i == m.cursor {
			m.cursorLine = len(lines)
		}
		lines = append(lines, m.renderRow(c, i == m.cursor, expanded))
		if expanded {
			lines = append(lines, renderResources(c)...)
		}
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderRow(c models.LowLevelServiceCategory, selected, expanded bool) string {
	marker := "▸"
	if expanded {
		marker = "▾"
	}

	row := fmt.Sprintf("%s %-36s %-18s %6s %12s",
		marker,
		components.Truncate(serviceName(c), 36),
		components.Truncate(c.Category, 18),
		components.FormatCount(c.TotalCount),
		components.FormatCurrency(c.TotalMonthlyCost),
	)
	if selected {
		return styles.SelectedListItemStyle.Render(row)
	}
	return row
}

func renderResources(c models.LowLevelServiceCategory) []string {
	if len(c.Resources) == 0 {
		return []string{styles.HelpStyle.Render("    no resources listed")}
	}
	return lo.Map(c.Resources, func(r models.LowLevelResource, _ int) string {
		name := r.Name
		if name == "" || name == models.LabelUnknown {
			name = r.ResourceID
		}
		return styles.HelpStyle.Render(fmt.Sprintf("    %-34s %-16s %6d %12s",
			components.Truncate(name, 34),
			r.Region,
			r.Count,
			components.FormatCurrency(r.EstimatedMonthlyCost),
		))
	})
}

// followCursor scrolls the viewport so the selected row stays visible.
func (m *Model) followCursor() {
	switch {
	case m.cursorLine < m.viewport.YOffset:
		m.viewport.SetYOffset(m.cursorLine)
	case m.cursorLine >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(m.cursorLine - m.viewport.Height + 1)
	}
}

func (m *Model) renderDetails(c models.LowLevelServiceCategory) string {
	lines := []string{
		styles.TitleStyle.Render(serviceName(c)),
		detailsText(c),
		styles.HelpStyle.Render("y copy · esc close"),
	}
	return styles.ModalContentStyle.Width(min(max(m.width-8, 40), 100)).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// detailsText is the plain-text description of a category, shown in the
// details dialog and put on the clipboard.
func detailsText(c models.LowLevelServiceCategory) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Service: %s (%s)\n", serviceName(c), c.Service.ID)
	fmt.Fprintf(&b, "Category: %s\n", c.Category)
	if c.Service.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", c.Service.Description)
	}
	fmt.Fprintf(&b, "Resources: %d, estimated %s/month\n", c.TotalCount, components.FormatCurrency(c.TotalMonthlyCost))

	if len(c.Service.Pricing) > 0 {
		b.WriteString("Pricing:\n")
		for _, p := range c.Service.Pricing {
			fmt.Fprintf(&b, "  $%v per %s\n", p.Price, p.Unit)
		}
	}

	for _, r := range c.Resources {
		fmt.Fprintf(&b, "- %s [%s] %s, %d x, %s/month\n",
			r.Name, r.ResourceID, r.Region, r.Count, components.FormatCurrency(r.EstimatedMonthlyCost))
		for _, k := range analytics.DetailKeys(r) {
			fmt.Fprintf(&b, "    %s: %v\n", k, r.Details[k])
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func sortedStrings(s []string) []string {
	out := lo.Uniq(s)
	slices.Sort(out)
	return out
}
