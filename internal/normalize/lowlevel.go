package normalize

import (
	"time"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
)

// priceDimensions lists the unit prices that are displayed, in display order.
var priceDimensions = []struct {
	key  string
	unit string
}{
	{"price_per_hour", "hour"},
	{"price_per_gb_month", "GB-month"},
	{"price_per_million", "million"},
	{"price_per_gb", "GB"},
	{"price_per_vcpu_hour", "vCPU-hour"},
	{"price_per_month", "month"},
}

// LowLevel builds the low-level services slice.
func LowLevel(body []byte) (*models.LowLevelServices, error) {
	v, err := Decode(body)
	if err != nil {
		return nil, err
	}
	root := Object(v)
	summary := Object(root["summary"])

	out := &models.LowLevelServices{
		Categories: map[string]models.LowLevelServiceCategory{},
		Error:      String(root["error"], ""),
		Summary: models.LowLevelSummary{
			TotalServices:        Int(summary["total_services"]),
			EstimatedMonthlyCost: Number(summary["estimated_monthly_cost"]),
			UniqueServiceTypes:   Int(summary["unique_service_types"]),
			RegionsScanned:       Strings(summary["regions_scanned"]),
		},
		ScanDuration: time.Duration(Number(root["scan_duration"]) * float64(time.Second)),
	}
	out.Order = keyOrder(body, "services_by_category")

	for key, item := range Object(root["services_by_category"]) {
		out.Categories[key] = lowLevelCategory(key, Object(item))
	}

	return out, nil
}

func lowLevelCategory(key string, c map[string]any) models.LowLevelServiceCategory {
	info := Object(c["service_info"])
	resources := List(c["resources"])

	cat := models.LowLevelServiceCategory{
		Key:      key,
		Category: String(c["category"], models.LabelUnknown),
		Service: models.ServiceInfo{
			ID:          String(info["id"], key),
			Name:        String(info["name"], models.LabelUnknown),
			Description: String(info["description"], models.LabelNA),
			Unit:        String(info["unit"], models.LabelNA),
			Pricing:     pricing(info),
		},
		Resources:        make([]models.LowLevelResource, 0, len(resources)),
		TotalCount:       Int(c["total_count"]),
		TotalMonthlyCost: Number(c["total_monthly_cost"]),
	}

	for _, item := range resources {
		r := Object(item)
		resourceID := String(r["resource_id"], models.LabelNA)
		details := Object(r["details"])
		if len(details) == 0 {
			details = nil
		}
		cat.Resources = append(cat.Resources, models.LowLevelResource{
			ServiceID:            String(r["service_id"], key),
			ResourceID:           resourceID,
			Name:                 String(first(r, "resource_name", "name"), resourceID),
			Count:                Int(r["count"]),
			Region:               String(r["region"], models.LabelNA),
			EstimatedMonthlyCost: Number(r["estimated_monthly_cost"]),
			Details:              details,
		})
	}

	return cat
}

// pricing keeps the non-zero known dimensions. Zero prices mean "free" or
// "not applicable" and are not shown.
func pricing(info map[string]any) []models.PriceDimension {
	out := []models.PriceDimension{}
	for _, dim := range priceDimensions {
		if price := Number(info[dim.key]); price > 0 {
			out = append(out, models.PriceDimension{Unit: dim.unit, Price: price})
		}
	}
	return out
}
