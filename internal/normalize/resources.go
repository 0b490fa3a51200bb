package normalize

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
)

// PaidResources builds the paid-resource categories and their summary.
func PaidResources(body []byte) (*models.PaidResources, error) {
	v, err := Decode(body)
	if err != nil {
		return nil, err
	}
	root := Object(v)
	summary := Object(root["summary"])

	p := &models.PaidResources{
		Categories:       map[string]models.ResourceCategory{},
		PermissionIssues: Strings(first(root, "permissions_issues", "permission_issues")),
		Summary: models.PaidResourceSummary{
			TotalPaid:       Int(summary["total_paid_resources"]),
			High:            Int(summary["high_cost_resources"]),
			Medium:          Int(summary["medium_cost_resources"]),
			Low:             Int(summary["low_cost_resources"]),
			CategoriesFound: Int(summary["categories_found"]),
		},
		Order: keyOrder(body, "cost_categories"),
	}

	for key, item := range Object(root["cost_categories"]) {
		c := Object(item)
		resources := List(c["resources"])

		cat := models.ResourceCategory{
			Key:                  key,
			Name:                 String(c["name"], models.LabelUnknown),
			Description:          String(c["description"], models.LabelNA),
			Tier:                 models.ParseCostTier(String(first(c, "cost_level", "tier"), "")),
			CostDriver:           String(c["cost_driver"], models.LabelNA),
			Count:                Int(c["count"]),
			EstimatedMonthlyCost: Number(c["estimated_monthly_cost"]),
			Resources:            make([]json.RawMessage, 0, len(resources)),
		}
		for _, r := range resources {
			cat.Resources = append(cat.Resources, raw(r))
		}
		p.Categories[key] = cat
	}

	return p, nil
}

// CostAnalysis builds the categorized findings.
func CostAnalysis(body []byte) (*models.CostAnalysis, error) {
	v, err := Decode(body)
	if err != nil {
		return nil, err
	}
	root := Object(v)
	summary := Object(root["summary"])

	savings := String(root["estimated_savings_potential"], models.LabelNA)
	if n, ok := root["estimated_savings_potential"].(json.Number); ok {
		savings = formatAmount(Number(n))
	}

	return &models.CostAnalysis{
		High:             findings(root["high_risk_findings"]),
		Medium:           findings(root["medium_risk_findings"]),
		Low:              findings(root["low_risk_findings"]),
		Recommendations:  Strings(root["recommendations"]),
		EstimatedSavings: savings,
		TotalResources:   Int(summary["total_resources"]),
		HighCategories:   Int(summary["high_cost_categories"]),
		MediumCategories: Int(summary["medium_cost_categories"]),
		LowCategories:    Int(summary["low_cost_categories"]),
	}, nil
}

func findings(v any) []models.CostFinding {
	out := []models.CostFinding{}
	for _, item := range List(v) {
		f := Object(item)
		out = append(out, models.CostFinding{
			Category:         String(f["category"], models.LabelUnknown),
			Issue:            String(f["issue"], models.LabelNA),
			Impact:           String(f["impact"], models.LabelNA),
			Recommendation:   String(f["recommendation"], models.LabelNA),
			PotentialSavings: String(f["potential_savings"], models.LabelNA),
		})
	}
	return out
}

// inventoryTotalKeys are the count fields used by the per-service blocks.
var inventoryTotalKeys = []string{"total", "total_functions", "total_instances", "total_buckets"}

// Inventory builds the resource usage summary.
func Inventory(body []byte) (*models.ResourceInventory, error) {
	v, err := Decode(body)
	if err != nil {
		return nil, err
	}
	root := Object(v)
	ec2 := Object(root["ec2"])
	s3 := Object(root["s3"])

	inv := &models.ResourceInventory{
		TotalResources: Int(root["total_resources"]),
		Cached:         Bool(root["cached"]),
		Source:         String(root["source"], models.LabelNA),
		LastUpdated:    String(first(root, "last_updated", "timestamp"), ""),
		EC2: models.EC2Usage{
			Total:           Int(ec2["total"]),
			Running:         Int(ec2["running"]),
			Stopped:         Int(ec2["stopped"]),
			AvgRunningHours: Number(ec2["avg_running_hours"]),
		},
		S3: models.S3Usage{
			TotalBuckets: Int(s3["total_buckets"]),
			AvgAgeDays:   Number(s3["avg_age_days"]),
		},
		ServiceTotals:    map[string]int{},
		PermissionIssues: Strings(first(root, "permissions_issues", "permission_issues")),
	}

	for key, item := range root {
		switch key {
		case "ec2", "s3", "cost_analysis":
			continue
		}
		block, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if total := first(block, inventoryTotalKeys...); total != nil {
			inv.ServiceTotals[key] = Int(total)
		}
	}

	return inv, nil
}

// formatAmount renders a dollar figure rounded to cents.
func formatAmount(f float64) string {
	return "$" + decimal.NewFromFloat(f).StringFixed(2)
}
