package app

import (
	"fmt"
	"testing"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
)

func TestExpansion_Toggle(t *testing.T) {
	e := NewExpansion()

	if !e.Toggle("ec2") {
		t.Error("first toggle should expand")
	}
	if !e.IsExpanded("ec2") {
		t.Error("ec2 should be expanded")
	}
	if e.Toggle("ec2") {
		t.Error("second toggle should collapse")
	}
	if e.Len() != 0 {
		t.Errorf("Len = %d, want 0", e.Len())
	}
}

func TestExpansion_ExpandAndCollapseAll(t *testing.T) {
	e := NewExpansion()
	e.ExpandAll([]string{"b", "a", "c"})

	if got := e.Keys(); fmt.Sprint(got) != "[a b c]" {
		t.Errorf("Keys = %v, want [a b c]", got)
	}

	e.CollapseAll()
	if e.Len() != 0 {
		t.Errorf("Len = %d after CollapseAll, want 0", e.Len())
	}
}

func TestExpansion_ReconcileSeedsOnce(t *testing.T) {
	e := NewExpansion()

	e.Reconcile([]string{"a", "b", "c"}, []string{"a", "b", "gone"})
	if !e.Seeded() {
		t.Fatal("first Reconcile should seed")
	}
	if got := e.Keys(); fmt.Sprint(got) != "[a b]" {
		t.Errorf("seeded = %v, want [a b]", got)
	}

	e.CollapseAll()
	e.Reconcile([]string{"a", "b", "c"}, []string{"c"})
	if e.Len() != 0 {
		t.Errorf("later Reconcile must not seed, got %v", e.Keys())
	}
}

func TestModal(t *testing.T) {
	var m Modal
	if m.IsOpen() {
		t.Fatal("zero modal should be closed")
	}

	m.Open(models.LowLevelServiceCategory{Key: "nat"})
	c, ok := m.Selected()
	if !ok || c.Key != "nat" {
		t.Errorf("Selected = %+v, %v; want nat", c, ok)
	}

	m.Open(models.LowLevelServiceCategory{Key: "ebs"})
	if c, _ := m.Selected(); c.Key != "ebs" {
		t.Errorf("reopen should replace selection, got %q", c.Key)
	}

	m.Close()
	if _, ok := m.Selected(); ok {
		t.Error("closed modal should have no selection")
	}
}
