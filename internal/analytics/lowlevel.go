package analytics

import (
	"slices"
	"sort"

	"github.com/samber/lo"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
)

// InitialExpanded is how many of the most expensive categories start expanded.
const InitialExpanded = 3

// Categories returns every category in backend order.
func Categories(l *models.LowLevelServices) []models.LowLevelServiceCategory {
	if l == nil {
		return []models.LowLevelServiceCategory{}
	}
	return lo.Map(Keys(l), func(k string, _ int) models.LowLevelServiceCategory {
		return l.Categories[k]
	})
}

// Keys returns every category key in backend order.
func Keys(l *models.LowLevelServices) []string {
	if l == nil {
		return []string{}
	}
	return orderedKeys(l.Order, lo.Keys(l.Categories))
}

// SortByCost orders categories by monthly cost, highest first. Ties keep
// the input order.
func SortByCost(cats []models.LowLevelServiceCategory) []models.LowLevelServiceCategory {
	out := slices.Clone(cats)
	slices.SortStableFunc(out, func(a, b models.LowLevelServiceCategory) int {
		return compareDesc(finite(a.TotalMonthlyCost), finite(b.TotalMonthlyCost))
	})
	if out == nil {
		out = []models.LowLevelServiceCategory{}
	}
	return out
}

// SeedExpanded returns the keys of the most expensive categories, which
// start expanded the first time an account's services are shown.
func SeedExpanded(l *models.LowLevelServices) []string {
	sorted := SortByCost(Categories(l))
	if len(sorted) > InitialExpanded {
		sorted = sorted[:InitialExpanded]
	}
	return lo.Map(sorted, func(c models.LowLevelServiceCategory, _ int) string {
		return c.Key
	})
}

// CategoryLabels returns the distinct category labels, sorted.
func CategoryLabels(l *models.LowLevelServices) []string {
	labels := lo.Uniq(lo.Map(Categories(l), func(c models.LowLevelServiceCategory, _ int) string {
		return c.Category
	}))
	sort.Strings(labels)
	return labels
}

// Regions returns the distinct regions of all discovered resources, sorted.
func Regions(l *models.LowLevelServices) []string {
	regions := lo.Uniq(lo.FlatMap(Categories(l), func(c models.LowLevelServiceCategory, _ int) []string {
		return lo.Map(c.Resources, func(r models.LowLevelResource, _ int) string {
			return r.Region
		})
	}))
	sort.Strings(regions)
	return regions
}

// DetailKeys returns the keys of a resource's details in a stable order.
func DetailKeys(r models.LowLevelResource) []string {
	keys := lo.Keys(r.Details)
	sort.Strings(keys)
	return keys
}

// orderedKeys returns keys in the given order. Keys missing from order are
// appended sorted, and order entries without a key are skipped.
func orderedKeys(order, keys []string) []string {
	out := lo.Filter(lo.Uniq(order), func(k string, _ int) bool {
		return lo.Contains(keys, k)
	})
	rest := lo.Without(keys, out...)
	sort.Strings(rest)

	return append(out, rest...)
}
