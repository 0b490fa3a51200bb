// Package analytics derives read-only figures from normalized snapshots.
// Nothing here fetches or mutates; every function returns fresh slices.
package analytics

import (
	"math"
	"slices"

	"github.com/samber/lo"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
)

const (
	// ConcentrationThreshold is the share above which a single service is
	// called out as dominating the bill.
	ConcentrationThreshold = 50.0

	// maxDisplayedChange caps month-over-month change for display. A month
	// that starts from a few cents would otherwise show absurd percentages.
	maxDisplayedChange = 1000.0
)

// TopServices returns the n most expensive services. Rows with equal
// amounts keep their original order. n <= 0 returns every row.
func TopServices(services []models.ServiceCost, n int) []models.ServiceCost {
	out := slices.Clone(services)
	slices.SortStableFunc(out, func(a, b models.ServiceCost) int {
		return compareDesc(finite(a.Amount), finite(b.Amount))
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	if out == nil {
		out = []models.ServiceCost{}
	}
	return out
}

// DailyStats summarizes the daily spend series.
type DailyStats struct {
	Min   float64
	Max   float64
	Mean  float64
	Sum   float64
	Count int
}

// Daily computes min, max, mean and sum of the series. An empty series
// yields all zeros.
func Daily(points []models.DailyPoint) DailyStats {
	if len(points) == 0 {
		return DailyStats{}
	}

	amounts := lo.Map(points, func(p models.DailyPoint, _ int) float64 {
		return finite(p.Amount)
	})

	stats := DailyStats{
		Min:   slices.Min(amounts),
		Max:   slices.Max(amounts),
		Sum:   lo.Sum(amounts),
		Count: len(amounts),
	}
	stats.Mean = stats.Sum / float64(stats.Count)
	return stats
}

// Amounts returns the series values in order, for charting.
func Amounts(points []models.DailyPoint) []float64 {
	return lo.Map(points, func(p models.DailyPoint, _ int) float64 {
		return finite(p.Amount)
	})
}

// Concentration returns the service with the largest share and whether
// that share exceeds ConcentrationThreshold.
func Concentration(services []models.ServiceCost) (models.ServiceCost, bool) {
	if len(services) == 0 {
		return models.ServiceCost{}, false
	}
	top := lo.MaxBy(services, func(a, b models.ServiceCost) bool {
		return finite(a.Percentage) > finite(b.Percentage)
	})
	return top, finite(top.Percentage) > ConcentrationThreshold
}

// CappedChange clamps a month-over-month percentage to +/-1000.
func CappedChange(pct float64) float64 {
	pct = finite(pct)
	return math.Max(-maxDisplayedChange, math.Min(maxDisplayedChange, pct))
}

// ProjectedMonth extrapolates month-to-date spend linearly over the month.
// day is the 1-based day of month, daysInMonth its length.
func ProjectedMonth(monthToDate float64, day, daysInMonth int) float64 {
	if day <= 0 || daysInMonth <= 0 {
		return 0
	}
	return finite(monthToDate) / float64(day) * float64(daysInMonth)
}

func compareDesc(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}

// finite guards arithmetic against values that bypassed normalization,
// e.g. snapshots built by hand.
func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
