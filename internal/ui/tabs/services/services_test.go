package services

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/app"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
)

func newState(t *testing.T) *app.State {
	t.Helper()
	state := app.NewState()
	state.SetAccounts([]models.Account{{ID: 7, IsActive: true}}, 0)

	ticket := state.BeginFetch(models.SliceSpend)
	state.ApplyResult(ticket, &models.SpendSummary{
		Daily: []models.DailyPoint{{Label: "d1", Amount: 3}, {Label: "d2", Amount: 4}},
		Services: []models.ServiceCost{
			{Name: "Amazon S3", Amount: 20, Percentage: 20},
			{Name: "Amazon EC2", Amount: 70, Percentage: 70},
			{Name: "Amazon SQS", Amount: 10, Percentage: 10},
		},
	}, time.Now())
	return state
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestModel_ViewSortsByAmount(t *testing.T) {
	m := New(newState(t))
	m.SetSize(160, 200)

	view := m.View()
	ec2 := strings.Index(view, "Amazon EC2")
	s3 := strings.Index(view, "Amazon S3")
	if ec2 < 0 || s3 < 0 || ec2 > s3 {
		t.Errorf("EC2 should be listed before S3:\n%s", view)
	}
	if !strings.Contains(view, "Spend by service (3)") {
		t.Error("header should count the services")
	}
}

func TestModel_ViewEmpty(t *testing.T) {
	m := New(app.NewState())
	m.SetSize(100, 50)

	view := m.View()
	if !strings.Contains(view, "No service breakdown") || !strings.Contains(view, "No history recorded yet") {
		t.Errorf("View() = %q", view)
	}
}

func TestModel_ViewHistory(t *testing.T) {
	state := newState(t)
	state.SetHistory(7, []models.SyncRun{{Status: "success", At: time.Now().Add(-time.Hour)}},
		[]models.DailyPoint{{Date: "2026-01-01", Amount: 1}, {Date: "2026-01-02", Amount: 2}, {Date: "2026-01-03", Amount: 3}})

	m := New(state)
	m.SetSize(160, 200)
	view := m.View()

	for _, want := range []string{"3 days recorded locally", "recorded", "Last sync 1 hour ago: success"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestModel_CursorAndCopy(t *testing.T) {
	m := New(newState(t))

	m.Update(runeKey('j'))
	m.Update(runeKey('j'))
	m.Update(runeKey('j'))
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2 (clamped)", m.cursor)
	}

	m.Update(runeKey('g'))
	_, cmd := m.Update(runeKey('c'))
	if cmd == nil {
		t.Fatal("c should copy the selected service")
	}
	msg, ok := cmd().(app.CopyToClipboardMsg)
	if !ok || msg.Label != "Amazon EC2" || !strings.Contains(msg.Text, "$70.00") {
		t.Errorf("copy message = %+v", msg)
	}

	m.Update(runeKey('G'))
	if m.cursor != 2 {
		t.Errorf("cursor = %d after G, want 2", m.cursor)
	}
}

func TestModel_CopyWithoutData(t *testing.T) {
	m := New(app.NewState())
	if _, cmd := m.Update(runeKey('c')); cmd != nil {
		t.Error("nothing to copy")
	}
}
