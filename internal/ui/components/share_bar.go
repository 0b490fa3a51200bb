package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/ui/styles"
)

// ShareBar renders a service's share of the bill as a gradient bar. The
// printed percentage is the one received from the backend; only the bar
// fill is clamped to 0-100.
type ShareBar struct {
	progress progress.Model
}

// NewShareBar creates a share bar with the default gradient.
func NewShareBar() ShareBar {
	p := progress.New(
		progress.WithScaledGradient("#51cf66", "#ff6b6b"),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)
	return ShareBar{progress: p}
}

// View renders label, bar, share and amount on one line.
func (b ShareBar) View(label string, percent, amount float64, width int) string {
	b.progress.Width = max(width-40, 10)

	bar := b.progress.ViewAs(clampPercent(percent) / 100)

	labelStr := lipgloss.NewStyle().Foreground(styles.TextPrimary).Width(20).
		Render(truncate(label, 19))
	percentStr := lipgloss.NewStyle().Foreground(styles.TextSecondary).Width(8).Align(lipgloss.Right).
		Render(FormatPercent(percent))
	amountStr := styles.CardValueStyle.Width(12).Align(lipgloss.Right).
		Render(FormatCurrency(amount))

	return lipgloss.JoinHorizontal(lipgloss.Center, labelStr, bar, percentStr, amountStr)
}

// ViewCompact renders a compact version without label.
func (b ShareBar) ViewCompact(percent float64, width int) string {
	b.progress.Width = max(width-8, 5)
	bar := b.progress.ViewAs(clampPercent(percent) / 100)
	return lipgloss.JoinHorizontal(lipgloss.Center, bar, " ", FormatPercent(percent))
}

func clampPercent(p float64) float64 {
	if math.IsNaN(p) {
		return 0
	}
	return math.Max(0, math.Min(100, p))
}

// TierBar renders the share of one cost tier with the tier color, using
// plain block characters so it stays legible without true color.
func TierBar(tier models.CostTier, share float64, width int) string {
	if width < 1 {
		return ""
	}
	filled := int(math.Round(float64(width) * clampPercent(share) / 100))
	style := styles.GetTierStyle(tier)
	return style.Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(styles.Subtle).Render(strings.Repeat("░", width-filled))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// Truncate shortens s to n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	return truncate(s, n)
}

// FormatPercent formats a percentage with one decimal.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}
