package models

import (
	"encoding/json"
	"strings"
)

// CostTier is the cost impact level of a resource category.
type CostTier string

// Cost tiers reported by the backend.
const (
	TierHigh    CostTier = "HIGH"
	TierMedium  CostTier = "MEDIUM"
	TierLow     CostTier = "LOW"
	TierUnknown CostTier = "UNKNOWN"
)

// ParseCostTier maps a backend label to a tier, case-insensitively.
func ParseCostTier(s string) CostTier {
	switch CostTier(strings.ToUpper(strings.TrimSpace(s))) {
	case TierHigh:
		return TierHigh
	case TierMedium:
		return TierMedium
	case TierLow:
		return TierLow
	default:
		return TierUnknown
	}
}

// Rank orders tiers from most to least expensive.
func (t CostTier) Rank() int {
	switch t {
	case TierHigh:
		return 0
	case TierMedium:
		return 1
	case TierLow:
		return 2
	default:
		return 3
	}
}

// ResourceCategory groups billable resources that share a cost tier.
// Resources are passed through untouched.
type ResourceCategory struct {
	Key                  string            `json:"key"`
	Name                 string            `json:"name"`
	Description          string            `json:"description"`
	Tier                 CostTier          `json:"tier"`
	CostDriver           string            `json:"cost_driver"`
	Resources            []json.RawMessage `json:"resources"`
	Count                int               `json:"count"`
	EstimatedMonthlyCost float64           `json:"estimated_monthly_cost"`
}

// PaidResources is the paid-resource slice of an account.
type PaidResources struct {
	Categories       map[string]ResourceCategory `json:"categories"`
	Order            []string                    `json:"order"`
	PermissionIssues []string                    `json:"permission_issues"`
	Summary          PaidResourceSummary         `json:"summary"`
}

// PaidResourceSummary counts resources per tier.
type PaidResourceSummary struct {
	TotalPaid       int `json:"total_paid"`
	High            int `json:"high"`
	Medium          int `json:"medium"`
	Low             int `json:"low"`
	CategoriesFound int `json:"categories_found"`
}

// CostFinding is a single optimization finding.
type CostFinding struct {
	Category         string `json:"category"`
	Issue            string `json:"issue"`
	Impact           string `json:"impact"`
	Recommendation   string `json:"recommendation"`
	PotentialSavings string `json:"potential_savings"`
}

// CostAnalysis groups findings by risk.
type CostAnalysis struct {
	High            []CostFinding `json:"high"`
	Medium          []CostFinding `json:"medium"`
	Low             []CostFinding `json:"low"`
	Recommendations []string      `json:"recommendations"`
	// EstimatedSavings is free text; the backend mixes numbers and prose.
	EstimatedSavings string `json:"estimated_savings"`
	TotalResources   int    `json:"total_resources"`
	HighCategories   int    `json:"high_categories"`
	MediumCategories int    `json:"medium_categories"`
	LowCategories    int    `json:"low_categories"`
}

// FindingCount returns the number of findings across all risk levels.
func (c *CostAnalysis) FindingCount() int {
	return len(c.High) + len(c.Medium) + len(c.Low)
}

// ResourceInventory is the resource usage summary of an account.
type ResourceInventory struct {
	ServiceTotals    map[string]int `json:"service_totals"`
	LastUpdated      string         `json:"last_updated"`
	Source           string         `json:"source"`
	PermissionIssues []string       `json:"permission_issues"`
	EC2              EC2Usage       `json:"ec2"`
	S3               S3Usage        `json:"s3"`
	TotalResources   int            `json:"total_resources"`
	Cached           bool           `json:"cached"`
}

// EC2Usage summarizes compute instances.
type EC2Usage struct {
	Total           int     `json:"total"`
	Running         int     `json:"running"`
	Stopped         int     `json:"stopped"`
	AvgRunningHours float64 `json:"avg_running_hours"`
}

// S3Usage summarizes storage buckets.
type S3Usage struct {
	TotalBuckets int     `json:"total_buckets"`
	AvgAgeDays   float64 `json:"avg_age_days"`
}
