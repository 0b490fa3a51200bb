package normalize

import (
	"testing"
	"time"
)

func TestLowLevel(t *testing.T) {
	body := `{
		"services_by_category": {
			"nat_gateway": {
				"service_info": {"id": "nat_gateway", "name": "NAT Gateway", "description": "Outbound internet",
					"price_per_hour": 0.045, "price_per_gb": 0.045, "price_per_gb_second": 1, "unit": "per gateway"},
				"category": "Virtual Private Cloud",
				"resources": [{"service_id": "nat_gateway", "resource_id": "nat-1", "resource_name": "prod-nat",
					"count": 1, "region": "us-east-1", "estimated_monthly_cost": 32.85, "details": {"state": "available"}}],
				"total_count": 1,
				"total_monthly_cost": 32.85
			},
			"subnet": {
				"service_info": null,
				"resources": [{"resource_id": "subnet-1", "details": {}}]
			}
		},
		"summary": {"total_services": 2, "estimated_monthly_cost": 32.85, "unique_service_types": 2,
			"regions_scanned": ["us-east-1", "eu-north-1"]},
		"scan_duration": 1.5
	}`

	l, err := LowLevel([]byte(body))
	if err != nil {
		t.Fatalf("LowLevel() failed: %v", err)
	}

	nat := l.Categories["nat_gateway"]
	if nat.Key != "nat_gateway" || nat.Category != "Virtual Private Cloud" || nat.TotalMonthlyCost != 32.85 {
		t.Errorf("nat = %+v", nat)
	}
	if len(nat.Service.Pricing) != 2 || nat.Service.Pricing[0].Unit != "hour" || nat.Service.Pricing[1].Unit != "GB" {
		t.Errorf("Pricing = %+v", nat.Service.Pricing)
	}
	if len(nat.Resources) != 1 || nat.Resources[0].Name != "prod-nat" || nat.Resources[0].Details["state"] != "available" {
		t.Errorf("Resources = %+v", nat.Resources)
	}

	subnet := l.Categories["subnet"]
	if subnet.Service.ID != "subnet" || subnet.Service.Name != "Unknown" || subnet.Category != "Unknown" {
		t.Errorf("subnet defaults = %+v", subnet)
	}
	r := subnet.Resources[0]
	if r.Name != "subnet-1" || r.Region != "N/A" || r.ServiceID != "subnet" || r.Details != nil {
		t.Errorf("subnet resource = %+v", r)
	}

	if l.Summary.UniqueServiceTypes != 2 || len(l.Summary.RegionsScanned) != 2 {
		t.Errorf("Summary = %+v", l.Summary)
	}
	if l.ScanDuration != 1500*time.Millisecond {
		t.Errorf("ScanDuration = %v, want 1.5s", l.ScanDuration)
	}
}

func TestLowLevel_BackendError(t *testing.T) {
	l, err := LowLevel([]byte(`{"error": "Failed to assume role", "services": [], "summary": {"total_services": 0}}`))
	if err != nil {
		t.Fatalf("LowLevel() failed: %v", err)
	}
	if l.Error != "Failed to assume role" {
		t.Errorf("Error = %q", l.Error)
	}
	if l.Categories == nil || len(l.Categories) != 0 {
		t.Errorf("Categories = %v, want empty", l.Categories)
	}
	if l.Summary.RegionsScanned == nil {
		t.Error("RegionsScanned should be empty, not nil")
	}
}

func TestLowLevel_KeepsBackendOrder(t *testing.T) {
	body := `{"services_by_category": {"zeta": {}, "alpha": {}, "mid": {}, "alpha": {"category": "dup"}}}`

	l, err := LowLevel([]byte(body))
	if err != nil {
		t.Fatalf("LowLevel() failed: %v", err)
	}

	want := []string{"zeta", "alpha", "mid"}
	if len(l.Order) != len(want) {
		t.Fatalf("Order = %v, want %v", l.Order, want)
	}
	for i := range want {
		if l.Order[i] != want[i] {
			t.Errorf("Order[%d] = %q, want %q", i, l.Order[i], want[i])
		}
	}
	if l.Categories["alpha"].Category != "dup" {
		t.Error("the last duplicate should win, as with any JSON object")
	}
}
