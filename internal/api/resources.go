package api

import (
	"context"
	"net/http"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/normalize"
)

// ResourceService handles resource discovery calls.
type ResourceService struct {
	client *Client
}

// Paid returns the paid resources grouped by category.
func (s *ResourceService) Paid(ctx context.Context, accountID int, opts FetchOptions) (*models.PaidResources, error) {
	path, err := accountPath("/resources/%d/paid-resources/", accountID)
	if err != nil {
		return nil, err
	}
	body, err := s.client.doRequest(ctx, http.MethodGet, path, opts.query(), nil)
	if err != nil {
		return nil, err
	}
	return normalize.PaidResources(body)
}

// CostAnalysis returns optimization findings.
func (s *ResourceService) CostAnalysis(ctx context.Context, accountID int) (*models.CostAnalysis, error) {
	path, err := accountPath("/resources/%d/cost-analysis/", accountID)
	if err != nil {
		return nil, err
	}
	body, err := s.client.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return normalize.CostAnalysis(body)
}

// Inventory returns the resource usage summary.
func (s *ResourceService) Inventory(ctx context.Context, accountID int, opts FetchOptions) (*models.ResourceInventory, error) {
	path, err := accountPath("/resources/%d/resource_summary/", accountID)
	if err != nil {
		return nil, err
	}
	body, err := s.client.doRequest(ctx, http.MethodGet, path, opts.query(), nil)
	if err != nil {
		return nil, err
	}
	return normalize.Inventory(body)
}

// ClearCache drops the backend's resource cache for an account. It is idempotent.
func (s *ResourceService) ClearCache(ctx context.Context, accountID int) (*models.ActionResult, error) {
	path, err := accountPath("/resources/%d/clear_cache/", accountID)
	if err != nil {
		return nil, err
	}
	body, err := s.client.doRequest(ctx, http.MethodPost, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return normalize.Action(body)
}
