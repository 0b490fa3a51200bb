package analytics

import (
	"testing"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
)

func TestVisibleCategories(t *testing.T) {
	p := &models.PaidResources{
		Categories: map[string]models.ResourceCategory{
			"ec2":    {Key: "ec2", Count: 3},
			"nat":    {Key: "nat", Count: 0},
			"rds":    {Key: "rds", Count: 5},
			"lambda": {Key: "lambda", Count: 3},
		},
		Order: []string{"lambda", "nat", "ec2", "rds"},
	}

	got := VisibleCategories(p)
	want := []string{"rds", "lambda", "ec2"}
	if len(got) != len(want) {
		t.Fatalf("VisibleCategories() = %+v", got)
	}
	for i, key := range want {
		if got[i].Key != key {
			t.Errorf("VisibleCategories()[%d] = %s, want %s", i, got[i].Key, key)
		}
	}

	if got := VisibleCategories(nil); got == nil || len(got) != 0 {
		t.Error("VisibleCategories(nil) should be empty")
	}
}

func TestTierTotals(t *testing.T) {
	cats := []models.ResourceCategory{
		{Tier: models.TierLow, Count: 1, EstimatedMonthlyCost: 1},
		{Tier: models.TierHigh, Count: 2, EstimatedMonthlyCost: 100},
		{Tier: models.TierHigh, Count: 1, EstimatedMonthlyCost: 50},
	}

	got := TierTotals(cats)
	if len(got) != 2 {
		t.Fatalf("TierTotals() = %+v", got)
	}
	if got[0].Tier != models.TierHigh || got[0].Categories != 2 || got[0].Resources != 3 || got[0].Cost != 150 {
		t.Errorf("high = %+v", got[0])
	}
	if got[1].Tier != models.TierLow {
		t.Errorf("second tier = %s, want LOW", got[1].Tier)
	}
}

func TestFindingsSavings(t *testing.T) {
	a := &models.CostAnalysis{
		High:   []models.CostFinding{{PotentialSavings: "$1,200.50/month"}},
		Medium: []models.CostFinding{{PotentialSavings: "Save $ 30 per instance"}},
		Low:    []models.CostFinding{{PotentialSavings: "Up to 40%"}, {PotentialSavings: ""}},
	}

	total, unquantified := FindingsSavings(a)
	if total != 1230.5 {
		t.Errorf("total = %v, want 1230.5", total)
	}
	if unquantified != 2 {
		t.Errorf("unquantified = %d, want 2", unquantified)
	}

	if total, n := FindingsSavings(nil); total != 0 || n != 0 {
		t.Error("nil analysis should yield zeros")
	}
}
