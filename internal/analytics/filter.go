package analytics

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
)

// Filter selects low-level service categories. The zero value matches
// everything.
type Filter struct {
	Search     string
	Categories []string
	Regions    []string
	MinCost    float64 `validate:"gte=0"`
	// MaxCost is the inclusive upper bound, nil when unbounded.
	MaxCost *float64 `validate:"omitempty,gtefield=MinCost"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// FieldError is an inline message for one filter input.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate reports field-level problems with the bounds. It never panics;
// a nil error means Apply will use the bounds as given.
func (f Filter) Validate() []FieldError {
	if math.IsNaN(f.MinCost) || (f.MaxCost != nil && math.IsNaN(*f.MaxCost)) {
		return []FieldError{{Field: "cost", Message: "not a number"}}
	}

	err := validate.Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "filter", Message: err.Error()}}
	}

	return lo.Map(verrs, func(fe validator.FieldError, _ int) FieldError {
		switch fe.Field() {
		case "MinCost":
			return FieldError{Field: "min", Message: "minimum cost cannot be negative"}
		case "MaxCost":
			return FieldError{Field: "max", Message: fmt.Sprintf("maximum cost must be at least %.2f", f.MinCost)}
		default:
			return FieldError{Field: fe.Field(), Message: fmt.Sprintf("failed %q", fe.Tag())}
		}
	})
}

// Bounds returns the effective inclusive cost range.
func (f Filter) Bounds() (low, high float64) {
	low = math.Max(0, f.MinCost)
	high = math.Inf(1)
	if f.MaxCost != nil {
		high = *f.MaxCost
	}
	return low, high
}

// Active reports whether any condition narrows the result.
func (f Filter) Active() bool {
	return strings.TrimSpace(f.Search) != "" || len(f.Categories) > 0 || len(f.Regions) > 0 ||
		f.MinCost > 0 || f.MaxCost != nil
}

// Apply returns the categories of l that match f, most expensive first,
// ties in backend order. It is a pure function of its inputs.
func Apply(l *models.LowLevelServices, f Filter) []models.LowLevelServiceCategory {
	return SortByCost(lo.Filter(Categories(l), func(c models.LowLevelServiceCategory, _ int) bool {
		return f.Match(c)
	}))
}

// Match reports whether a single category satisfies every condition.
func (f Filter) Match(c models.LowLevelServiceCategory) bool {
	if !matchesSearch(c, strings.ToLower(strings.TrimSpace(f.Search))) {
		return false
	}
	if len(f.Categories) > 0 && !lo.Contains(f.Categories, c.Category) {
		return false
	}
	if len(f.Regions) > 0 && !lo.SomeBy(c.Resources, func(r models.LowLevelResource) bool {
		return lo.Contains(f.Regions, r.Region)
	}) {
		return false
	}

	low, high := f.Bounds()
	cost := finite(c.TotalMonthlyCost)
	return cost >= low && cost <= high
}

func matchesSearch(c models.LowLevelServiceCategory, needle string) bool {
	if needle == "" {
		return true
	}
	contains := func(s string) bool {
		// absent fields hold a placeholder label and never match
		if s == models.LabelUnknown || s == models.LabelNA {
			return false
		}
		return strings.Contains(strings.ToLower(s), needle)
	}
	if contains(c.Service.Name) || contains(c.Service.Description) || contains(c.Category) {
		return true
	}
	return lo.SomeBy(c.Resources, func(r models.LowLevelResource) bool {
		return contains(r.Name) || contains(r.ResourceID)
	})
}
