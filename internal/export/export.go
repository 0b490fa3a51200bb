// Package export writes low-level service inventories to JSON, CSV or YAML.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/analytics"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
)

// Format is an export file format.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

// Formats lists the supported formats in the order they are offered.
var Formats = []Format{FormatJSON, FormatCSV, FormatYAML}

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want json, csv or yaml)", s)
	}
}

// Document is what gets exported: the visible categories and how they were
// selected.
type Document struct {
	GeneratedAt time.Time         `json:"generated_at" yaml:"generated_at"`
	Filter      FilterInfo        `json:"filter" yaml:"filter"`
	Categories  []Category        `json:"categories" yaml:"categories"`
	AccountID   int               `json:"account_id" yaml:"account_id"`
	TotalCost   float64           `json:"total_monthly_cost" yaml:"total_monthly_cost"`
	Regions     []string          `json:"regions_scanned" yaml:"regions_scanned"`
	Meta        map[string]string `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// FilterInfo records the filter that produced the document.
type FilterInfo struct {
	Search     string   `json:"search,omitempty" yaml:"search,omitempty"`
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`
	Regions    []string `json:"regions,omitempty" yaml:"regions,omitempty"`
	MinCost    float64  `json:"min_cost" yaml:"min_cost"`
	MaxCost    *float64 `json:"max_cost,omitempty" yaml:"max_cost,omitempty"`
}

// Category is one exported service category.
type Category struct {
	Key              string     `json:"key" yaml:"key"`
	Service          string     `json:"service" yaml:"service"`
	Description      string     `json:"description" yaml:"description"`
	Category         string     `json:"category" yaml:"category"`
	Pricing          []Price    `json:"pricing" yaml:"pricing"`
	Resources        []Resource `json:"resources" yaml:"resources"`
	TotalCount       int        `json:"total_count" yaml:"total_count"`
	TotalMonthlyCost float64    `json:"total_monthly_cost" yaml:"total_monthly_cost"`
}

// Price is one unit price.
type Price struct {
	Unit  string  `json:"unit" yaml:"unit"`
	Price float64 `json:"price" yaml:"price"`
}

// Resource is one exported resource.
type Resource struct {
	Details              map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
	ID                   string         `json:"resource_id" yaml:"resource_id"`
	Name                 string         `json:"name" yaml:"name"`
	Region               string         `json:"region" yaml:"region"`
	Count                int            `json:"count" yaml:"count"`
	EstimatedMonthlyCost float64        `json:"estimated_monthly_cost" yaml:"estimated_monthly_cost"`
}

// Build applies f to l and converts the result into a Document.
func Build(accountID int, l *models.LowLevelServices, f analytics.Filter, now time.Time) *Document {
	visible := analytics.Apply(l, f)

	doc := &Document{
		GeneratedAt: now.UTC(),
		AccountID:   accountID,
		Filter: FilterInfo{
			Search:     strings.TrimSpace(f.Search),
			Categories: f.Categories,
			Regions:    f.Regions,
			MinCost:    f.MinCost,
			MaxCost:    f.MaxCost,
		},
		Categories: make([]Category, 0, len(visible)),
		Regions:    []string{},
	}
	if l != nil {
		doc.Regions = l.Summary.RegionsScanned
	}

	for _, c := range visible {
		cat := Category{
			Key:              c.Key,
			Service:          c.Service.Name,
			Description:      c.Service.Description,
			Category:         c.Category,
			Pricing:          make([]Price, 0, len(c.Service.Pricing)),
			Resources:        make([]Resource, 0, len(c.Resources)),
			TotalCount:       c.TotalCount,
			TotalMonthlyCost: c.TotalMonthlyCost,
		}
		for _, p := range c.Service.Pricing {
			cat.Pricing = append(cat.Pricing, Price{Unit: p.Unit, Price: p.Price})
		}
		for _, r := range c.Resources {
			cat.Resources = append(cat.Resources, Resource{
				ID:                   r.ResourceID,
				Name:                 r.Name,
				Region:               r.Region,
				Count:                r.Count,
				EstimatedMonthlyCost: r.EstimatedMonthlyCost,
				Details:              plainMap(r.Details),
			})
		}
		doc.TotalCost += c.TotalMonthlyCost
		doc.Categories = append(doc.Categories, cat)
	}

	return doc
}

// Write encodes doc to w.
func Write(w io.Writer, format Format, doc *Document) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatCSV:
		return writeCSV(w, doc)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

var csvHeader = []string{
	"category_key", "service", "category", "resource_id", "resource_name",
	"region", "count", "estimated_monthly_cost", "category_monthly_cost", "details",
}

// writeCSV writes one row per resource. Categories without resources get a
// single row with empty resource columns so their cost is not lost.
func writeCSV(w io.Writer, doc *Document) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, c := range doc.Categories {
		total := money(c.TotalMonthlyCost)
		if len(c.Resources) == 0 {
			row := []string{c.Key, c.Service, c.Category, "", "", "", strconv.Itoa(c.TotalCount), "", total, ""}
			if err := cw.Write(row); err != nil {
				return err
			}
			continue
		}
		for _, r := range c.Resources {
			row := []string{
				c.Key, c.Service, c.Category, r.ID, r.Name, r.Region,
				strconv.Itoa(r.Count), money(r.EstimatedMonthlyCost), total, details(r.Details),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes doc to path, creating parent directories.
func WriteFile(path string, format Format, doc *Document) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	if err := Write(f, format, doc); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write export: %w", err)
	}
	return f.Close()
}

// FileName is the default export file name for an account.
func FileName(accountID int, format Format, now time.Time) string {
	return fmt.Sprintf("low-level-services-%d-%s.%s", accountID, now.Format("20060102-150405"), format)
}

func money(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// details flattens a details map into "k=v; k=v", keys sorted.
func details(m map[string]any) string {
	if len(m) == 0 {
		return ""
	}
	keys := analytics.DetailKeys(models.LowLevelResource{Details: m})
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, m[k]))
	}
	return strings.Join(parts, "; ")
}

// plainMap replaces json.Number values with native numbers so that YAML
// does not quote them.
func plainMap(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = plain(v)
	}
	return out
}

func plain(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any:
		return plainMap(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = plain(item)
		}
		return out
	default:
		return v
	}
}
