package lowlevel

import (
	"reflect"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/app"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/export"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
)

func sampleServices() *models.LowLevelServices {
	cat := func(k, name, category string, cost float64, region string) models.LowLevelServiceCategory {
		return models.LowLevelServiceCategory{
			Key:              k,
			Category:         category,
			Service:          models.ServiceInfo{ID: k, Name: name, Pricing: []models.PriceDimension{{Unit: "hour", Price: 0.0104}}},
			TotalCount:       1,
			TotalMonthlyCost: cost,
			Resources: []models.LowLevelResource{{
				ResourceID:           k + "-1",
				Name:                 name + " resource",
				Region:               region,
				Count:                1,
				EstimatedMonthlyCost: cost,
				Details:              map[string]any{"size": "large"},
			}},
		}
	}
	return &models.LowLevelServices{
		Categories: map[string]models.LowLevelServiceCategory{
			"ec2":    cat("ec2", "Amazon EC2", "Compute", 100, "us-east-1"),
			"s3":     cat("s3", "Amazon S3", "Storage", 50, "eu-west-1"),
			"lambda": cat("lambda", "AWS Lambda", "Compute", 5, "us-east-1"),
			"sqs":    cat("sqs", "Amazon SQS", "Messaging", 0, "us-east-1"),
		},
		Order: []string{"sqs", "lambda", "s3", "ec2"},
	}
}

func newModel(t *testing.T) (*Model, *app.State) {
	t.Helper()
	state := app.NewState()
	state.SetAccounts([]models.Account{{ID: 1, IsActive: true}, {ID: 2}}, 0)
	if !state.ApplyResult(state.BeginFetch(models.SliceLowLevel), sampleServices(), time.Now()) {
		t.Fatal("ApplyResult rejected the services")
	}
	m := New(state)
	m.SetSize(140, 200)
	return m, state
}

func press(m *Model, msgs ...tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	space = tea.KeyMsg{Type: tea.KeySpace}
)

func visibleKeys(state *app.State) string {
	var keys []string
	for _, c := range state.VisibleServices() {
		keys = append(keys, c.Key)
	}
	return strings.Join(keys, ",")
}

func TestModel_ViewSortedByCost(t *testing.T) {
	m, _ := newModel(t)
	view := m.View()

	ec2 := strings.Index(view, "Amazon EC2")
	s3 := strings.Index(view, "Amazon S3")
	sqs := strings.Index(view, "Amazon SQS")
	if ec2 < 0 || ec2 > s3 || s3 > sqs {
		t.Errorf("services should be listed by cost:\n%s", view)
	}
	if !strings.Contains(view, "Showing 4 of 4 services") {
		t.Error("summary should count services")
	}
	// The three most expensive start expanded.
	if !strings.Contains(view, "Amazon EC2 resource") || strings.Contains(view, "Amazon SQS resource") {
		t.Error("only seeded categories should show their resources")
	}
}

func TestModel_Search(t *testing.T) {
	m, state := newModel(t)

	press(m, runes("/"))
	if !m.CapturesInput() {
		t.Fatal("search input should capture keys")
	}
	press(m, runes("lam"))
	if got := visibleKeys(state); got != "lambda" {
		t.Errorf("visible = %q, want lambda", got)
	}

	press(m, esc)
	if m.CapturesInput() {
		t.Error("esc should release the keyboard")
	}
	if state.GetFilter().Search != "lam" {
		t.Error("leaving the input keeps the search")
	}
}

func TestModel_CostBounds(t *testing.T) {
	tests := []struct {
		name     string
		keys     []tea.KeyMsg
		want     string
		errField string
	}{
		{"Min", []tea.KeyMsg{runes("m"), runes("40"), enter}, "ec2,s3", ""},
		{"Range", []tea.KeyMsg{runes("m"), runes("10"), tea.KeyMsg{Type: tea.KeyTab}, runes("60"), enter}, "s3", ""},
		{"NotANumber", []tea.KeyMsg{runes("m"), runes("abc"), enter}, "ec2,s3,lambda,sqs", "min"},
		{"MaxBelowMin", []tea.KeyMsg{runes("m"), runes("60"), enter, runes("M"), runes("10"), enter}, "ec2", "max"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, state := newModel(t)
			press(m, tt.keys...)

			if got := visibleKeys(state); got != tt.want {
				t.Errorf("visible = %q, want %q", got, tt.want)
			}
			if tt.errField == "" {
				if len(m.fieldErrors) > 0 || m.CapturesInput() {
					t.Errorf("fieldErrors = %v, focus = %d", m.fieldErrors, m.focus)
				}
				return
			}
			if m.fieldErrors[tt.errField] == "" {
				t.Errorf("fieldErrors = %v, want %s", m.fieldErrors, tt.errField)
			}
			if !m.CapturesInput() {
				t.Error("invalid input should keep the focus")
			}
			if !strings.Contains(m.View(), tt.errField+": ") {
				t.Error("the message should be shown inline")
			}
		})
	}
}

func TestModel_CycleFilters(t *testing.T) {
	m, state := newModel(t)

	press(m, runes("c"))
	if got := visibleKeys(state); got != "ec2,lambda" {
		t.Errorf("after category cycle visible = %q", got)
	}
	if !strings.Contains(m.View(), "Category: Compute") {
		t.Error("header should show the category")
	}

	press(m, runes("g"), runes("g"))
	if got := state.GetFilter().Regions; len(got) != 1 || got[0] != "us-east-1" {
		t.Errorf("regions = %v, want us-east-1", got)
	}
	if got := visibleKeys(state); got != "ec2,lambda" {
		t.Errorf("visible = %q", got)
	}

	press(m, runes("C"))
	if state.GetFilter().Active() {
		t.Error("C should clear every filter")
	}
}

func TestModel_ExpandCollapse(t *testing.T) {
	m, state := newModel(t)

	press(m, space)
	if state.IsExpanded("ec2") {
		t.Error("space should collapse the selected category")
	}

	press(m, runes("e"))
	if !state.IsExpanded("sqs") {
		t.Error("e should expand every category")
	}
	press(m, runes("E"))
	if len(state.ExpandedKeys()) != 0 {
		t.Error("E should collapse every category")
	}
}

func TestModel_Details(t *testing.T) {
	m, state := newModel(t)

	press(m, runes("j"), enter)
	c, ok := state.Details()
	if !ok || c.Key != "s3" {
		t.Fatalf("Details() = %v, %v; want s3", c.Key, ok)
	}
	if !m.CapturesInput() {
		t.Error("the dialog should capture keys")
	}

	view := m.View()
	for _, want := range []string{"Service: Amazon S3 (s3)", "$0.0104 per hour", "size: large"} {
		if !strings.Contains(view, want) {
			t.Errorf("details missing %q", want)
		}
	}

	cmd := press(m, runes("y"))
	if msg, ok := cmd().(app.CopyToClipboardMsg); !ok || !strings.Contains(msg.Text, "Amazon S3 resource") {
		t.Errorf("copy = %#v", cmd())
	}

	press(m, esc)
	if _, ok := state.Details(); ok {
		t.Error("esc should close the dialog")
	}
}

func TestModel_Export(t *testing.T) {
	m, _ := newModel(t)

	cmd := press(m, runes("x"))
	if msg, ok := cmd().(app.ExportMsg); !ok || msg.Format != export.FormatJSON {
		t.Errorf("export = %#v, want json", cmd())
	}

	press(m, runes("X"))
	cmd = press(m, runes("x"))
	if msg, ok := cmd().(app.ExportMsg); !ok || msg.Format != export.FormatCSV {
		t.Errorf("export = %#v, want csv", cmd())
	}
}

func TestModel_SwitchAccountResetsInputs(t *testing.T) {
	m, _ := newModel(t)
	press(m, runes("/"), runes("ec2"))

	m.Update(app.SwitchAccountMsg{AccountID: 2})

	if m.search.Value() != "" || m.CapturesInput() {
		t.Error("inputs should be cleared on account switch")
	}
}

func TestCycle(t *testing.T) {
	opts := []string{"a", "b"}
	steps := [][]string{{"a"}, {"b"}, nil, {"a"}}

	var cur []string
	for i, want := range steps {
		cur = cycle(opts, cur)
		if strings.Join(cur, ",") != strings.Join(want, ",") {
			t.Fatalf("step %d = %v, want %v", i, cur, want)
		}
	}
	if cycle(nil, []string{"a"}) != nil {
		t.Error("no options should clear the selection")
	}
}

func TestParseCost(t *testing.T) {
	tests := []struct {
		in      string
		want    *float64
		wantErr bool
	}{
		{"", nil, false},
		{" 12.5 ", lo.ToPtr(12.5), false},
		{"$1,200", lo.ToPtr(1200.0), false},
		{"0", lo.ToPtr(0.0), false},
		{"abc", nil, true},
	}
	for _, tt := range tests {
		got, msg := parseCost(tt.in)
		if !reflect.DeepEqual(got, tt.want) || (msg != "") != tt.wantErr {
			t.Errorf("parseCost(%q) = %v, %q", tt.in, got, msg)
		}
	}
}
