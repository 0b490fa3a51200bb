package app

import (
	"sort"

	"github.com/samber/lo"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
)

// Expansion tracks which low-level service categories are expanded.
// Keys only change through the user, except that Reconcile drops keys that
// vanished from the data and seeds the first load of an account.
type Expansion struct {
	expanded map[string]struct{}
	seeded   bool
}

// NewExpansion returns an empty, unseeded expansion set.
func NewExpansion() *Expansion {
	return &Expansion{expanded: make(map[string]struct{})}
}

// IsExpanded reports whether key is expanded.
func (e *Expansion) IsExpanded(key string) bool {
	_, ok := e.expanded[key]
	return ok
}

// Toggle flips key and returns its new state.
func (e *Expansion) Toggle(key string) bool {
	if e.IsExpanded(key) {
		delete(e.expanded, key)
		return false
	}
	e.expanded[key] = struct{}{}
	return true
}

// ExpandAll expands every known key.
func (e *Expansion) ExpandAll(keys []string) {
	for _, k := range keys {
		e.expanded[k] = struct{}{}
	}
}

// CollapseAll empties the set.
func (e *Expansion) CollapseAll() {
	clear(e.expanded)
}

// Reconcile applies a newly loaded key set. The first call seeds the given
// keys; later calls only prune keys that are no longer present.
func (e *Expansion) Reconcile(present, seed []string) {
	if !e.seeded {
		e.seeded = true
		for _, k := range lo.Intersect(present, seed) {
			e.expanded[k] = struct{}{}
		}
		return
	}

	for k := range e.expanded {
		if !lo.Contains(present, k) {
			delete(e.expanded, k)
		}
	}
}

// Seeded reports whether the first load has been applied.
func (e *Expansion) Seeded() bool {
	return e.seeded
}

// Keys returns the expanded keys, sorted.
func (e *Expansion) Keys() []string {
	keys := lo.Keys(e.expanded)
	sort.Strings(keys)
	return keys
}

// Len returns the number of expanded keys.
func (e *Expansion) Len() int {
	return len(e.expanded)
}

// Modal is the low-level service detail dialog. It is either closed or open
// on exactly one category.
type Modal struct {
	selected *models.LowLevelServiceCategory
}

// Open shows the details of c, replacing any previous selection.
func (m *Modal) Open(c models.LowLevelServiceCategory) {
	m.selected = &c
}

// Close hides the dialog and drops the selection.
func (m *Modal) Close() {
	m.selected = nil
}

// IsOpen reports whether the dialog is shown.
func (m *Modal) IsOpen() bool {
	return m.selected != nil
}

// Selected returns the category being shown.
func (m *Modal) Selected() (models.LowLevelServiceCategory, bool) {
	if m.selected == nil {
		return models.LowLevelServiceCategory{}, false
	}
	return *m.selected, true
}
