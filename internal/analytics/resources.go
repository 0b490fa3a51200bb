package analytics

import (
	"regexp"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
)

// VisibleCategories returns the categories with at least one resource,
// most populated first. Equal counts keep backend order.
func VisibleCategories(p *models.PaidResources) []models.ResourceCategory {
	if p == nil {
		return []models.ResourceCategory{}
	}

	out := lo.Filter(orderedResources(p), func(c models.ResourceCategory, _ int) bool {
		return c.Count > 0
	})
	slices.SortStableFunc(out, func(a, b models.ResourceCategory) int {
		return b.Count - a.Count
	})
	return out
}

func orderedResources(p *models.PaidResources) []models.ResourceCategory {
	keys := orderedKeys(p.Order, lo.Keys(p.Categories))
	return lo.Map(keys, func(k string, _ int) models.ResourceCategory {
		return p.Categories[k]
	})
}

// TierTotal aggregates the categories of one cost tier.
type TierTotal struct {
	Tier       models.CostTier
	Categories int
	Resources  int
	Cost       float64
}

// TierTotals groups categories by tier, most expensive tier first. Tiers
// without categories are omitted.
func TierTotals(categories []models.ResourceCategory) []TierTotal {
	groups := lo.GroupBy(categories, func(c models.ResourceCategory) models.CostTier {
		return c.Tier
	})

	out := make([]TierTotal, 0, len(groups))
	for tier, cats := range groups {
		out = append(out, TierTotal{
			Tier:       tier,
			Categories: len(cats),
			Resources:  lo.SumBy(cats, func(c models.ResourceCategory) int { return c.Count }),
			Cost:       lo.SumBy(cats, func(c models.ResourceCategory) float64 { return finite(c.EstimatedMonthlyCost) }),
		})
	}
	slices.SortFunc(out, func(a, b TierTotal) int {
		return a.Tier.Rank() - b.Tier.Rank()
	})
	return out
}

var dollarAmount = regexp.MustCompile(`\$\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)

// FindingsSavings sums the dollar figures quoted in the findings' potential
// savings. Findings phrased without an amount ("Up to 40%") are counted in
// unquantified.
func FindingsSavings(a *models.CostAnalysis) (total float64, unquantified int) {
	if a == nil {
		return 0, 0
	}

	sum := decimal.Zero
	for _, f := range slices.Concat(a.High, a.Medium, a.Low) {
		m := dollarAmount.FindStringSubmatch(f.PotentialSavings)
		if m == nil {
			unquantified++
			continue
		}
		d, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
		if err != nil {
			unquantified++
			continue
		}
		sum = sum.Add(d)
	}

	total, _ = sum.Round(2).Float64()
	return total, unquantified
}
