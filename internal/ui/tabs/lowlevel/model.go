// Package lowlevel provides the filterable low-level services tab.
package lowlevel

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
	"github.com/spf13/cast"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/analytics"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/app"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/export"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
)

// focus is the input that receives key presses.
type focus int

const (
	focusList focus = iota
	focusSearch
	focusMin
	focusMax
)

type keyMap struct {
	Up           key.Binding
	Down         key.Binding
	Top          key.Binding
	Bottom       key.Binding
	Toggle       key.Binding
	ExpandAll    key.Binding
	CollapseAll  key.Binding
	Details      key.Binding
	Search       key.Binding
	MinCost      key.Binding
	MaxCost      key.Binding
	Category     key.Binding
	Region       key.Binding
	ClearFilters key.Binding
	Copy         key.Binding
	Export       key.Binding
	ExportFormat key.Binding
	Apply        key.Binding
	Close        key.Binding
	NextInput    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous service")),
		Down:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next service")),
		Top:          key.NewBinding(key.WithKeys("home"), key.WithHelp("home", "first service")),
		Bottom:       key.NewBinding(key.WithKeys("end"), key.WithHelp("end", "last service")),
		Toggle:       key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "expand/collapse")),
		ExpandAll:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "expand all")),
		CollapseAll:  key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "collapse all")),
		Details:      key.NewBinding(key.WithKeys("enter", "d"), key.WithHelp("enter", "details")),
		Search:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		MinCost:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "min cost")),
		MaxCost:      key.NewBinding(key.WithKeys("M"), key.WithHelp("M", "max cost")),
		Category:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cycle category")),
		Region:       key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "cycle region")),
		ClearFilters: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear filters")),
		Copy:         key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy details")),
		Export:       key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "export")),
		ExportFormat: key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "export format")),
		Apply:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
		Close:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		NextInput:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
	}
}

// Model represents the low-level services tab state. The filter, expansion
// and open dialog live in app.State; the model only keeps input widgets
// and the cursor.
type Model struct {
	state    *app.State
	keys     keyMap
	viewport viewport.Model

	search  textinput.Model
	minCost textinput.Model
	maxCost textinput.Model
	focus   focus
	// fieldErrors holds inline messages keyed by field name ("min", "max").
	fieldErrors map[string]string

	cursor       int
	cursorLine   int
	exportFormat export.Format

	width  int
	height int
}

// New creates a new low-level services model.
func New(state *app.State) *Model {
	return &Model{
		state:        state,
		keys:         defaultKeyMap(),
		viewport:     viewport.New(0, 0),
		search:       newInput("name, resource or category", 64),
		minCost:      newInput("0", 12),
		maxCost:      newInput("any", 12),
		fieldErrors:  map[string]string{},
		exportFormat: export.FormatJSON,
	}
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = min(limit, 24)
	return ti
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// CapturesInput reports whether a text field or the details dialog has the
// keyboard.
func (m *Model) CapturesInput() bool {
	if m.focus != focusList {
		return true
	}
	_, open := m.state.Details()
	return open
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if _, open := m.state.Details(); open {
			return m, m.handleModalKey(msg)
		}
		if m.focus != focusList {
			return m, m.handleInputKey(msg)
		}
		return m, m.handleListKey(msg)

	case app.SliceLoadedMsg, app.CachedSlicesMsg:
		m.clampCursor()

	case app.SwitchAccountMsg:
		m.reset()
	}
	return m, nil
}

// reset clears the inputs after an account switch, matching the reset
// filter in the state.
func (m *Model) reset() {
	m.blur()
	m.search.SetValue("")
	m.minCost.SetValue("")
	m.maxCost.SetValue("")
	clear(m.fieldErrors)
	m.cursor = 0
	m.viewport.GotoTop()
}

func (m *Model) handleModalKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Close), key.Matches(msg, m.keys.Details):
		m.state.CloseDetails()
	case key.Matches(msg, m.keys.Copy):
		if c, ok := m.state.Details(); ok {
			return app.Send(app.CopyToClipboardMsg{Label: serviceName(c), Text: detailsText(c)})
		}
	}
	return nil
}

func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Close):
		m.blur()
		return nil

	case key.Matches(msg, m.keys.Apply):
		if m.applyCostBounds() {
			m.blur()
		}
		return nil

	case key.Matches(msg, m.keys.NextInput):
		if m.focus == focusMin || m.focus == focusMax {
			m.applyCostBounds()
		}
		return m.focusInput(m.focus%focusMax + 1)
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusSearch:
		m.search, cmd = m.search.Update(msg)
		f := m.state.GetFilter()
		f.Search = m.search.Value()
		m.setFilter(f)
	case focusMin:
		m.minCost, cmd = m.minCost.Update(msg)
	case focusMax:
		m.maxCost, cmd = m.maxCost.Update(msg)
	}
	return cmd
}

func (m *Model) handleListKey(msg tea.KeyMsg) tea.Cmd {
	visible := m.state.VisibleServices()

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		m.cursor = max(len(visible)-1, 0)

	case key.Matches(msg, m.keys.Toggle):
		if c, ok := at(visible, m.cursor); ok {
			m.state.ToggleExpanded(c.Key)
		}
	case key.Matches(msg, m.keys.ExpandAll):
		m.state.ExpandAll()
	case key.Matches(msg, m.keys.CollapseAll):
		m.state.CollapseAll()
	case key.Matches(msg, m.keys.Details):
		if c, ok := at(visible, m.cursor); ok {
			m.state.OpenDetails(c.Key)
		}

	case key.Matches(msg, m.keys.Search):
		return m.focusInput(focusSearch)
	case key.Matches(msg, m.keys.MinCost):
		return m.focusInput(focusMin)
	case key.Matches(msg, m.keys.MaxCost):
		return m.focusInput(focusMax)

	case key.Matches(msg, m.keys.Category):
		f := m.state.GetFilter()
		f.Categories = cycle(analytics.CategoryLabels(m.state.GetLowLevel()), f.Categories)
		m.setFilter(f)
	case key.Matches(msg, m.keys.Region):
		f := m.state.GetFilter()
		f.Regions = cycle(analytics.Regions(m.state.GetLowLevel()), f.Regions)
		m.setFilter(f)
	case key.Matches(msg, m.keys.ClearFilters):
		m.search.SetValue("")
		m.minCost.SetValue("")
		m.maxCost.SetValue("")
		clear(m.fieldErrors)
		m.setFilter(analytics.Filter{})

	case key.Matches(msg, m.keys.Copy):
		if c, ok := at(visible, m.cursor); ok {
			return app.Send(app.CopyToClipboardMsg{Label: serviceName(c), Text: detailsText(c)})
		}
	case key.Matches(msg, m.keys.Export):
		return app.Send(app.ExportMsg{Format: m.exportFormat})
	case key.Matches(msg, m.keys.ExportFormat):
		m.exportFormat = nextFormat(m.exportFormat)
		return app.StatusCmd("Export format: "+string(m.exportFormat), true)

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) focusInput(f focus) tea.Cmd {
	m.blur()
	m.focus = f
	switch f {
	case focusSearch:
		return m.search.Focus()
	case focusMin:
		return m.minCost.Focus()
	case focusMax:
		return m.maxCost.Focus()
	}
	return nil
}

func (m *Model) blur() {
	m.focus = focusList
	m.search.Blur()
	m.minCost.Blur()
	m.maxCost.Blur()
}

// applyCostBounds parses the cost inputs into the filter. Invalid input is
// reported inline and leaves the current filter untouched.
func (m *Model) applyCostBounds() bool {
	clear(m.fieldErrors)

	minCost, minErr := parseCost(m.minCost.Value())
	if minErr != "" {
		m.fieldErrors["min"] = minErr
	}
	maxCost, maxErr := parseCost(m.maxCost.Value())
	if maxErr != "" {
		m.fieldErrors["max"] = maxErr
	}
	if len(m.fieldErrors) > 0 {
		return false
	}

	f := m.state.GetFilter()
	f.MinCost, f.MaxCost = lo.FromPtr(minCost), maxCost
	return m.setFilter(f)
}

// parseCost reads a cost input. An empty input is nil, meaning no bound.
func parseCost(s string) (*float64, string) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	if s == "" {
		return nil, ""
	}
	v, err := cast.ToFloat64E(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return nil, "not a number"
	}
	return &v, ""
}

// setFilter applies f and records validation messages per field.
func (m *Model) setFilter(f analytics.Filter) bool {
	errs := m.state.SetFilter(f)
	for _, e := range errs {
		m.fieldErrors[e.Field] = e.Message
	}
	m.clampCursor()
	return len(errs) == 0
}

func (m *Model) clampCursor() {
	m.cursor = min(m.cursor, max(len(m.state.VisibleServices())-1, 0))
}

func at(cats []models.LowLevelServiceCategory, i int) (models.LowLevelServiceCategory, bool) {
	if i < 0 || i >= len(cats) {
		return models.LowLevelServiceCategory{}, false
	}
	return cats[i], true
}

// cycle advances a single-value allow-list through options: none, then each
// option in turn, then none again.
func cycle(options, current []string) []string {
	if len(options) == 0 {
		return nil
	}
	if len(current) == 0 {
		return []string{options[0]}
	}
	i := lo.IndexOf(options, current[0])
	if i < 0 || i == len(options)-1 {
		return nil
	}
	return []string{options[i+1]}
}

func nextFormat(f export.Format) export.Format {
	i := lo.IndexOf(export.Formats, f)
	return export.Formats[(i+1)%len(export.Formats)]
}

func serviceName(c models.LowLevelServiceCategory) string {
	if c.Service.Name != "" && c.Service.Name != models.LabelUnknown {
		return c.Service.Name
	}
	return c.Key
}

// SetSize sets the available size for the tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Toggle, m.keys.Details, m.keys.Search, m.keys.MinCost, m.keys.MaxCost,
		m.keys.Category, m.keys.Region, m.keys.ClearFilters, m.keys.Copy, m.keys.Export,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Up, m.keys.Down, m.keys.Top, m.keys.Bottom},
		{m.keys.Toggle, m.keys.ExpandAll, m.keys.CollapseAll, m.keys.Details},
		{m.keys.Search, m.keys.MinCost, m.keys.MaxCost, m.keys.Category, m.keys.Region, m.keys.ClearFilters},
		{m.keys.Copy, m.keys.Export, m.keys.ExportFormat},
	}
}
