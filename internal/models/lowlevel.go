package models

import "time"

// PriceDimension is one unit price of a service, e.g. 0.045 per hour.
type PriceDimension struct {
	Unit  string  `json:"unit"`
	Price float64 `json:"price"`
}

// ServiceInfo describes a fine-grained priced service.
type ServiceInfo struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Unit        string           `json:"unit"`
	Pricing     []PriceDimension `json:"pricing"`
}

// LowLevelResource is one discovered resource instance.
type LowLevelResource struct {
	Details              map[string]any `json:"details,omitempty"`
	ServiceID            string         `json:"service_id"`
	ResourceID           string         `json:"resource_id"`
	Name                 string         `json:"name"`
	Region               string         `json:"region"`
	Count                int            `json:"count"`
	EstimatedMonthlyCost float64        `json:"estimated_monthly_cost"`
}

// LowLevelServiceCategory is a service together with the resources found for it.
type LowLevelServiceCategory struct {
	Key              string             `json:"key"`
	Category         string             `json:"category"`
	Service          ServiceInfo        `json:"service"`
	Resources        []LowLevelResource `json:"resources"`
	TotalCount       int                `json:"total_count"`
	TotalMonthlyCost float64            `json:"total_monthly_cost"`
}

// LowLevelServices is the low-level services slice of an account.
type LowLevelServices struct {
	Categories map[string]LowLevelServiceCategory `json:"categories"`
	// Order lists category keys as the backend sent them.
	Order []string `json:"order"`
	// Error is a discovery problem reported by the backend alongside a 200.
	Error        string          `json:"error,omitempty"`
	Summary      LowLevelSummary `json:"summary"`
	ScanDuration time.Duration   `json:"scan_duration"`
}

// LowLevelSummary aggregates the whole discovery run.
type LowLevelSummary struct {
	RegionsScanned       []string `json:"regions_scanned"`
	TotalServices        int      `json:"total_services"`
	UniqueServiceTypes   int      `json:"unique_service_types"`
	EstimatedMonthlyCost float64  `json:"estimated_monthly_cost"`
}
