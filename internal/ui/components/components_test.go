package components

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
)

func TestNewSpinner(t *testing.T) {
	s := NewSpinner("Loading")
	if s.label != "Loading" {
		t.Error("Spinner label mismatch")
	}
}

func TestSpinner_Methods(t *testing.T) {
	s := NewSpinner("Init")

	s.SetLabel("Fetching")
	if s.Label() != "Fetching" {
		t.Errorf("Label = %s, want Fetching", s.Label())
	}

	if s.View() == "" {
		t.Error("View returned empty")
	}
	if !strings.Contains(s.ViewWithLabel(), "Fetching") {
		t.Error("ViewWithLabel should contain the label")
	}
	if s.Init() == nil {
		t.Error("Init should return command")
	}
	if _, cmd := s.Update(spinner.TickMsg{}); cmd == nil {
		t.Error("Update should return command for tick")
	}
}

func TestRenderSpinnerCentered(t *testing.T) {
	s := NewSpinner("Loading...")
	if view := RenderSpinnerCentered(&s, 40); !strings.Contains(view, "Loading...") {
		t.Error("RenderSpinnerCentered should contain the label")
	}
}

func TestRenderLineChart(t *testing.T) {
	if s := RenderLineChart([]float64{1, 2, 3, 4}, 20, 5, "Daily spend"); !strings.Contains(s, "Daily spend") {
		t.Error("RenderLineChart should contain the caption")
	}
	if s := RenderLineChart(nil, 20, 5, "x"); !strings.Contains(s, "No data") {
		t.Error("empty chart should say so")
	}
}

func TestRenderDualLineChart(t *testing.T) {
	tests := []struct {
		name              string
		current, recorded []float64
	}{
		{"Both", []float64{1, 2, 3}, []float64{3, 2, 1, 0, 5}},
		{"OnlyCurrent", []float64{1, 2}, nil},
		{"OnlyRecorded", nil, []float64{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if s := RenderDualLineChart(tt.current, tt.recorded, 20, 5, "Title"); s == "" {
				t.Error("RenderDualLineChart returned empty")
			}
		})
	}
}

func TestPadLeft(t *testing.T) {
	got := padLeft([]float64{4, 5}, 4)
	want := []float64{4, 4, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("padLeft = %v, want %v", got, want)
		}
	}
}

func TestRenderBarChart(t *testing.T) {
	s := RenderBarChart([]float64{10, 20}, []string{"EC2", "S3"}, 40, FormatCurrency)
	if !strings.Contains(s, "$20.00") || !strings.Contains(s, "EC2") {
		t.Errorf("RenderBarChart = %q", s)
	}
	if RenderBarChart(nil, nil, 40, nil) != "" {
		t.Error("empty chart should render nothing")
	}
}

func TestRenderSparkline(t *testing.T) {
	s := RenderSparkline([]float64{0, 1, 2, 3}, 10)
	if len([]rune(s)) != 4 {
		t.Errorf("sparkline = %q, want one rune per value", s)
	}
	if []rune(s)[3] != '█' {
		t.Error("max value should render a full block")
	}
}

func TestRenderLegend(t *testing.T) {
	s := RenderLegend([]LegendItem{{Label: "recorded", Color: lipgloss.Color("#ffffff")}})
	if !strings.Contains(s, "recorded") {
		t.Error("legend should contain the label")
	}
}

func TestShareBar(t *testing.T) {
	bar := NewShareBar()

	view := bar.View("Amazon EC2", 62.5, 1234.5, 80)
	for _, want := range []string{"Amazon EC2", "62.5%", "$1,234.50"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q: %q", want, view)
		}
	}

	// Percentages are shown as received, even past 100.
	if view := bar.ViewCompact(140, 20); !strings.Contains(view, "140.0%") {
		t.Errorf("ViewCompact() = %q", view)
	}
}

func TestTierBar(t *testing.T) {
	if TierBar(models.TierHigh, 50, 0) != "" {
		t.Error("zero width should render nothing")
	}
	if s := TierBar(models.TierHigh, 50, 10); strings.Count(s, "█") != 5 {
		t.Errorf("TierBar = %q, want 5 filled cells", s)
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{12.5, "$12.50"},
		{1234567.891, "$1,234,567.89"},
		{-42, "-$42.00"},
	}
	for _, tt := range tests {
		if got := FormatCurrency(tt.in); got != tt.want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := FormatCount(12345); got != "12,345" {
		t.Errorf("FormatCount = %q", got)
	}
	if got := FormatSignedPercent(12.34); got != "+12.3%" {
		t.Errorf("FormatSignedPercent = %q", got)
	}
	if got := FormatSignedPercent(-5); got != "-5.0%" {
		t.Errorf("FormatSignedPercent = %q", got)
	}
	if got := FormatAgo(time.Time{}); got != "never" {
		t.Errorf("FormatAgo(zero) = %q", got)
	}
	if got := FormatAgo(time.Now().Add(-3 * time.Hour)); got != "3 hours ago" {
		t.Errorf("FormatAgo = %q", got)
	}
	if got := Truncate("abcdef", 4); got != "abc…" {
		t.Errorf("Truncate = %q", got)
	}
}

func TestSliceNotice(t *testing.T) {
	updated := time.Now().Add(-2 * time.Hour)

	tests := []struct {
		name      string
		loading   bool
		errMsg    string
		updated   time.Time
		fromStore bool
		want      string
	}{
		{"Error", false, "boom", updated, false, "r to retry"},
		{"FirstLoad", true, "", time.Time{}, false, "Loading..."},
		{"Refreshing", true, "", updated, false, "refreshing"},
		{"Stored", false, "", updated, true, "Stored snapshot"},
		{"Fresh", false, "", updated, false, "Updated 2 hours ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SliceNotice(tt.loading, tt.errMsg, tt.updated, tt.fromStore)
			if !strings.Contains(got, tt.want) {
				t.Errorf("SliceNotice() = %q, want %q", got, tt.want)
			}
		})
	}
	if SliceNotice(false, "", time.Time{}, false) != "" {
		t.Error("nothing fetched yet should render nothing")
	}
}
