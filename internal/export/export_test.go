package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/analytics"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
)

var exportTime = time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC)

func sample() *models.LowLevelServices {
	return &models.LowLevelServices{
		Categories: map[string]models.LowLevelServiceCategory{
			"nat": {
				Key: "nat", Category: "Networking", TotalCount: 1, TotalMonthlyCost: 32.85,
				Service: models.ServiceInfo{
					Name: "NAT Gateway", Description: "Outbound internet",
					Pricing: []models.PriceDimension{{Unit: "hour", Price: 0.045}},
				},
				Resources: []models.LowLevelResource{{
					ResourceID: "nat-1", Name: "prod-nat", Region: "us-east-1", Count: 1,
					EstimatedMonthlyCost: 32.85,
					Details:              map[string]any{"state": "available", "eips": json.Number("2")},
				}},
			},
			"eip": {
				Key: "eip", Category: "Networking", TotalCount: 3, TotalMonthlyCost: 10.8,
				Service:   models.ServiceInfo{Name: "Elastic IP"},
				Resources: []models.LowLevelResource{},
			},
			"sqs": {Key: "sqs", Category: "Messaging", TotalMonthlyCost: 0.4},
		},
		Order:   []string{"sqs", "eip", "nat"},
		Summary: models.LowLevelSummary{RegionsScanned: []string{"us-east-1"}},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"CSV", FormatCSV, false},
		{".yml", FormatYAML, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = (%q, %v)", tt.in, got, err)
		}
	}
}

func TestBuild(t *testing.T) {
	doc := Build(7, sample(), analytics.Filter{Categories: []string{"Networking"}}, exportTime)

	if doc.AccountID != 7 || !doc.GeneratedAt.Equal(exportTime) {
		t.Errorf("doc header = %+v", doc)
	}
	if len(doc.Categories) != 2 || doc.Categories[0].Key != "nat" || doc.Categories[1].Key != "eip" {
		t.Fatalf("Categories = %+v", doc.Categories)
	}
	if math.Abs(doc.TotalCost-43.65) > 1e-9 {
		t.Errorf("TotalCost = %v", doc.TotalCost)
	}
	if v := doc.Categories[0].Resources[0].Details["eips"]; v != int64(2) {
		t.Errorf("details number = %#v, want int64(2)", v)
	}
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatJSON, Build(7, sample(), analytics.Filter{}, exportTime)); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	var got Document
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(got.Categories) != 3 || got.Categories[0].Service != "NAT Gateway" {
		t.Errorf("Categories = %+v", got.Categories)
	}
}

func TestWrite_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatYAML, Build(7, sample(), analytics.Filter{Search: "nat"}, exportTime)); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "account_id: 7") || !strings.Contains(out, "eips: 2") {
		t.Errorf("unexpected YAML:\n%s", out)
	}

	var got map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
}

func TestWrite_CSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatCSV, Build(7, sample(), analytics.Filter{}, exportTime)); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not CSV: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want header + 3", len(rows))
	}
	if rows[0][0] != "category_key" {
		t.Errorf("header = %v", rows[0])
	}

	nat := rows[1]
	if nat[0] != "nat" || nat[3] != "nat-1" || nat[7] != "32.85" || nat[9] != "eips=2; state=available" {
		t.Errorf("nat row = %v", nat)
	}

	eip := rows[2]
	if eip[0] != "eip" || eip[3] != "" || eip[6] != "3" || eip[8] != "10.80" {
		t.Errorf("eip row = %v", eip)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", FileName(7, FormatCSV, exportTime))

	if err := WriteFile(path, FormatCSV, Build(7, sample(), analytics.Filter{}, exportTime)); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("category_key,")) {
		t.Errorf("file starts with %q", data[:20])
	}
	if filepath.Base(path) != "low-level-services-7-20250312-093000.csv" {
		t.Errorf("FileName() = %s", filepath.Base(path))
	}
}
