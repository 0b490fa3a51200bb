package app

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/samber/lo"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/analytics"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/api"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
)

func testAccounts() []models.Account {
	return []models.Account{
		{ID: 1, AWSAccountID: "111111111111", IsActive: true},
		{ID: 2, AWSAccountID: "222222222222"},
	}
}

func lowLevel(costs map[string]float64, order ...string) *models.LowLevelServices {
	l := &models.LowLevelServices{Categories: map[string]models.LowLevelServiceCategory{}, Order: order}
	for k, c := range costs {
		l.Categories[k] = models.LowLevelServiceCategory{Key: k, TotalMonthlyCost: c}
	}
	return l
}

func newTestState(t *testing.T) *State {
	t.Helper()
	s := NewState()
	if _, changed := s.SetAccounts(testAccounts(), 0); !changed {
		t.Fatal("SetAccounts should select an account")
	}
	return s
}

func TestNewState(t *testing.T) {
	s := NewState()
	if _, ok := s.GetActiveAccount(); ok {
		t.Error("no account should be selected")
	}
	if !s.AnyLoading() {
		t.Error("accounts should be loading initially")
	}
	if s.Section() != TabOverview {
		t.Errorf("Section = %v, want Overview", s.Section())
	}
}

func TestState_SetAccounts(t *testing.T) {
	s := NewState()

	acc, changed := s.SetAccounts(testAccounts(), 2)
	if !changed || acc.ID != 2 {
		t.Fatalf("SetAccounts = %d, %v; want preferred account 2", acc.ID, changed)
	}
	epoch := s.Epoch()

	// A reload that still contains the account keeps it without a reset.
	acc, changed = s.SetAccounts(testAccounts(), 0)
	if changed || acc.ID != 2 {
		t.Errorf("reload = %d, %v; want 2 unchanged", acc.ID, changed)
	}
	if s.Epoch() != epoch {
		t.Error("epoch should not change when the selection is kept")
	}

	// The selected account disappeared.
	acc, changed = s.SetAccounts(testAccounts()[:1], 0)
	if !changed || acc.ID != 1 {
		t.Errorf("after removal = %d, %v; want 1 changed", acc.ID, changed)
	}
}

func TestState_ExpansionPersistsAcrossRefetch(t *testing.T) {
	s := newTestState(t)

	first := lowLevel(map[string]float64{"a": 1, "b": 50, "c": 20, "d": 30, "x": 0.5}, "a", "b", "c", "d", "x")
	tk := s.BeginFetch(models.SliceLowLevel)
	if !s.ApplyResult(tk, first, time.Now()) {
		t.Fatal("first result should be applied")
	}

	if got := s.ExpandedKeys(); fmt.Sprint(got) != "[b c d]" {
		t.Fatalf("seeded keys = %v, want [b c d]", got)
	}

	s.ToggleExpanded("x")
	s.ToggleExpanded("b")

	// The refetch changes costs so that seeding would pick other keys.
	second := lowLevel(map[string]float64{"a": 500, "c": 20, "d": 30, "x": 0.5}, "a", "c", "d", "x")
	tk = s.BeginFetch(models.SliceLowLevel)
	if !s.ApplyResult(tk, second, time.Now()) {
		t.Fatal("second result should be applied")
	}

	if !s.IsExpanded("x") {
		t.Error("manually expanded x should stay expanded after refetch")
	}
	if s.IsExpanded("a") {
		t.Error("seeding must not run again on refetch")
	}
	if s.IsExpanded("b") {
		t.Error("b was collapsed and is gone")
	}
	if got := s.ExpandedKeys(); fmt.Sprint(got) != "[c d x]" {
		t.Errorf("keys = %v, want [c d x]", got)
	}
}

func TestState_ExpansionPrunesVanishedKeys(t *testing.T) {
	s := newTestState(t)

	tk := s.BeginFetch(models.SliceLowLevel)
	s.ApplyResult(tk, lowLevel(map[string]float64{"a": 3, "b": 2}, "a", "b"), time.Now())

	tk = s.BeginFetch(models.SliceLowLevel)
	s.ApplyResult(tk, lowLevel(map[string]float64{"a": 3}, "a"), time.Now())

	if got := s.ExpandedKeys(); fmt.Sprint(got) != "[a]" {
		t.Errorf("keys = %v, want [a]", got)
	}
}

func TestState_StaleResultDropped(t *testing.T) {
	s := newTestState(t)

	first := s.BeginFetch(models.SliceSpend)
	if first.AccountID != 1 {
		t.Fatalf("ticket account = %d, want 1", first.AccountID)
	}

	if _, ok := s.SwitchAccount(2); !ok {
		t.Fatal("SwitchAccount(2) failed")
	}
	second := s.BeginFetch(models.SliceSpend)

	b := &models.SpendSummary{TotalSpend: 200}
	if !s.ApplyResult(second, b, time.Now()) {
		t.Fatal("result for the current account should be applied")
	}

	a := &models.SpendSummary{TotalSpend: 100}
	if s.ApplyResult(first, a, time.Now()) {
		t.Error("late result for the previous account must be dropped")
	}
	if s.ApplyError(first, errors.New("boom"), true) {
		t.Error("late error for the previous account must be dropped")
	}

	if got := s.GetSpend(); got != b {
		t.Errorf("spend = %+v, want account 2 data", got)
	}
	if st := s.GetSlice(models.SliceSpend); st.HasError() {
		t.Errorf("slice error = %q, want none", st.Err)
	}
}

func TestState_OlderGenerationDropped(t *testing.T) {
	s := newTestState(t)

	older := s.BeginFetch(models.SliceInventory)
	newer := s.BeginFetch(models.SliceInventory)

	want := &models.ResourceInventory{TotalResources: 2}
	if !s.ApplyResult(newer, want, time.Now()) {
		t.Fatal("newest result should be applied")
	}
	if s.ApplyResult(older, &models.ResourceInventory{TotalResources: 1}, time.Now()) {
		t.Error("older generation must be dropped")
	}
	if s.GetInventory() != want {
		t.Error("inventory overwritten by an older fetch")
	}
}

func TestState_UnauthenticatedCommitsNothing(t *testing.T) {
	s := newTestState(t)

	prev := &models.PaidResources{Summary: models.PaidResourceSummary{TotalPaid: 4}}
	tk := s.BeginFetch(models.SlicePaidResources)
	s.ApplyResult(tk, prev, time.Now())
	epoch := s.Epoch()

	tk = s.BeginFetch(models.SlicePaidResources)
	err := fmt.Errorf("paid resources: %w", api.ErrUnauthenticated)
	if s.ApplyError(tk, err, true) {
		t.Error("unauthenticated error must not be committed")
	}

	if !s.LoginRequired() {
		t.Error("LoginRequired should be set")
	}
	if s.Epoch() == epoch {
		t.Error("epoch should advance so pending results become stale")
	}
	if s.GetPaidResources() != prev {
		t.Error("previous data must be left untouched")
	}
	st := s.GetSlice(models.SlicePaidResources)
	if st.HasError() || st.Loading {
		t.Errorf("slice state = %+v, want no error and not loading", st)
	}
}

func TestState_ApplyError(t *testing.T) {
	tests := []struct {
		name     string
		replace  bool
		wantData bool
	}{
		{"KeepsPreviousData", false, true},
		{"ForcedRefreshClears", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestState(t)
			tk := s.BeginFetch(models.SliceSpend)
			s.ApplyResult(tk, &models.SpendSummary{TotalSpend: 1}, time.Now())

			tk = s.BeginFetch(models.SliceSpend)
			if !s.ApplyError(tk, &api.APIError{Message: "backend down", StatusCode: 503}, tt.replace) {
				t.Fatal("ApplyError should apply")
			}

			if got := s.GetSpend() != nil; got != tt.wantData {
				t.Errorf("has data = %v, want %v", got, tt.wantData)
			}
			st := s.GetSlice(models.SliceSpend)
			if st.Err != "backend down" {
				t.Errorf("Err = %q, want backend down", st.Err)
			}
			if st.Loading {
				t.Error("Loading should be cleared")
			}
		})
	}
}

func TestState_ApplyResultClearsError(t *testing.T) {
	s := newTestState(t)
	tk := s.BeginFetch(models.SliceCostAnalysis)
	s.ApplyError(tk, errors.New("timeout"), false)

	tk = s.BeginFetch(models.SliceCostAnalysis)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ApplyResult(tk, &models.CostAnalysis{}, at)

	st := s.GetSlice(models.SliceCostAnalysis)
	if st.HasError() {
		t.Errorf("Err = %q, want cleared", st.Err)
	}
	if !st.LastUpdated.Equal(at) {
		t.Errorf("LastUpdated = %v, want %v", st.LastUpdated, at)
	}
}

func TestState_ApplyResultWrongType(t *testing.T) {
	s := newTestState(t)
	tk := s.BeginFetch(models.SliceSpend)
	if s.ApplyResult(tk, &models.CostAnalysis{}, time.Now()) {
		t.Error("mismatched data type must be rejected")
	}
}

func TestState_ApplyCached(t *testing.T) {
	s := newTestState(t)
	stored := time.Now().Add(-time.Hour)

	if s.ApplyCached(2, models.SliceSpend, &models.SpendSummary{}, stored) {
		t.Error("snapshot of another account must be ignored")
	}
	if !s.ApplyCached(1, models.SliceSpend, &models.SpendSummary{TotalSpend: 5}, stored) {
		t.Fatal("snapshot should be shown while nothing is loaded")
	}
	if st := s.GetSlice(models.SliceSpend); !st.FromStore {
		t.Error("FromStore should be set")
	}

	tk := s.BeginFetch(models.SliceSpend)
	fresh := &models.SpendSummary{TotalSpend: 9}
	s.ApplyResult(tk, fresh, time.Now())

	if s.ApplyCached(1, models.SliceSpend, &models.SpendSummary{}, stored) {
		t.Error("snapshot must not replace network data")
	}
	if s.GetSpend() != fresh {
		t.Error("network data replaced")
	}
}

func TestState_SwitchAccountResetsView(t *testing.T) {
	s := newTestState(t)
	s.SetSection(TabLowLevel)
	if errs := s.SetFilter(analytics.Filter{Search: "nat"}); errs != nil {
		t.Fatalf("SetFilter: %v", errs)
	}
	tk := s.BeginFetch(models.SliceLowLevel)
	s.ApplyResult(tk, lowLevel(map[string]float64{"a": 1}, "a"), time.Now())
	s.OpenDetails("a")

	s.SwitchAccount(2)

	if s.Section() != TabLowLevel {
		t.Error("section should survive an account switch")
	}
	if s.GetFilter().Active() {
		t.Error("filter should be reset")
	}
	if len(s.ExpandedKeys()) != 0 {
		t.Error("expansion should be reset")
	}
	if _, open := s.Details(); open {
		t.Error("detail dialog should be closed")
	}
	if s.GetLowLevel() != nil {
		t.Error("data of the previous account should be dropped")
	}
}

func TestState_SetFilterRejectsInvalid(t *testing.T) {
	s := newTestState(t)
	s.SetFilter(analytics.Filter{MinCost: 5})

	errs := s.SetFilter(analytics.Filter{MinCost: 10, MaxCost: lo.ToPtr(2.0)})
	if len(errs) == 0 {
		t.Fatal("max below min should be rejected")
	}
	if s.GetFilter().MinCost != 5 {
		t.Error("previous filter should stay active")
	}
}

func TestState_DetailsFollowRefetch(t *testing.T) {
	s := newTestState(t)
	tk := s.BeginFetch(models.SliceLowLevel)
	s.ApplyResult(tk, lowLevel(map[string]float64{"a": 1, "b": 2}, "a", "b"), time.Now())

	if s.OpenDetails("missing") {
		t.Error("unknown key should not open the dialog")
	}
	if !s.OpenDetails("a") {
		t.Fatal("OpenDetails(a) failed")
	}

	tk = s.BeginFetch(models.SliceLowLevel)
	s.ApplyResult(tk, lowLevel(map[string]float64{"a": 7, "b": 2}, "a", "b"), time.Now())
	c, open := s.Details()
	if !open || c.TotalMonthlyCost != 7 {
		t.Errorf("dialog = %+v, %v; want refreshed category a", c, open)
	}

	tk = s.BeginFetch(models.SliceLowLevel)
	s.ApplyResult(tk, lowLevel(map[string]float64{"b": 2}, "b"), time.Now())
	if _, open := s.Details(); open {
		t.Error("dialog should close when its category vanishes")
	}
}

func TestState_Status(t *testing.T) {
	s := NewState()

	first := s.SetStatus("Cache cleared", true)
	second := s.SetStatus("Copied", true)

	if s.ClearStatus(first) {
		t.Error("dismissing an older status must not clear the newer one")
	}
	st, ok := s.GetStatus()
	if !ok || st.Message != "Copied" {
		t.Errorf("status = %+v, want Copied", st)
	}
	if !s.ClearStatus(second) {
		t.Error("ClearStatus(second) should clear")
	}
	if _, ok := s.GetStatus(); ok {
		t.Error("status should be empty")
	}
}

func TestState_LoginRestored(t *testing.T) {
	s := newTestState(t)
	s.BeginFetch(models.SliceSpend)
	s.RequireLogin()

	if s.GetSlice(models.SliceSpend).Loading {
		t.Error("RequireLogin should stop loading indicators")
	}

	s.LoginRestored()
	if s.LoginRequired() {
		t.Error("LoginRequired should be cleared")
	}
}

func TestState_CancelFetch(t *testing.T) {
	s := newTestState(t)
	tk := s.BeginFetch(models.SliceSpend)
	s.CancelFetch(tk)
	if s.GetSlice(models.SliceSpend).Loading {
		t.Error("CancelFetch should clear Loading")
	}
}
