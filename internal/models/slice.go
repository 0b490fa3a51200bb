package models

// Slice identifies an independently fetched piece of account data.
type Slice int

// Data slices.
const (
	SliceSpend Slice = iota
	SlicePaidResources
	SliceCostAnalysis
	SliceInventory
	SliceLowLevel
	SliceAccounts
)

// AccountSlices are the slices fetched for the selected account.
var AccountSlices = []Slice{SliceSpend, SlicePaidResources, SliceCostAnalysis, SliceInventory, SliceLowLevel}

func (s Slice) String() string {
	switch s {
	case SliceSpend:
		return "spend"
	case SlicePaidResources:
		return "paid_resources"
	case SliceCostAnalysis:
		return "cost_analysis"
	case SliceInventory:
		return "inventory"
	case SliceLowLevel:
		return "low_level"
	case SliceAccounts:
		return "accounts"
	default:
		return "unknown"
	}
}

// Title is the human-readable name of the slice.
func (s Slice) Title() string {
	switch s {
	case SliceSpend:
		return "Spend summary"
	case SlicePaidResources:
		return "Paid resources"
	case SliceCostAnalysis:
		return "Cost analysis"
	case SliceInventory:
		return "Resource inventory"
	case SliceLowLevel:
		return "Low-level services"
	case SliceAccounts:
		return "Accounts"
	default:
		return "Unknown"
	}
}

// ParseSlice is the inverse of String.
func ParseSlice(s string) (Slice, bool) {
	for _, sl := range append(AccountSlices, SliceAccounts) {
		if sl.String() == s {
			return sl, true
		}
	}
	return 0, false
}
