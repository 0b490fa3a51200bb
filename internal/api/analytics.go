package api

import (
	"context"
	"net/http"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/normalize"
)

// AnalyticsService handles spend analytics calls.
type AnalyticsService struct {
	client *Client
}

// Spend returns the spend summary of an account.
func (s *AnalyticsService) Spend(ctx context.Context, accountID int, opts FetchOptions) (*models.SpendSummary, error) {
	path, err := accountPath("/aws-accounts/%d/analytics/", accountID)
	if err != nil {
		return nil, err
	}
	body, err := s.client.doRequest(ctx, http.MethodGet, path, opts.query(), nil)
	if err != nil {
		return nil, err
	}
	return normalize.Spend(body)
}
