package api

import (
	"context"
	"net/http"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/normalize"
)

// LowLevelService handles fine-grained service discovery calls.
type LowLevelService struct {
	client *Client
}

// List returns every discovered low-level service of an account.
func (s *LowLevelService) List(ctx context.Context, accountID int, opts FetchOptions) (*models.LowLevelServices, error) {
	path, err := accountPath("/api/aws/accounts/%d/low-level-services/", accountID)
	if err != nil {
		return nil, err
	}
	body, err := s.client.doRequest(ctx, http.MethodGet, path, opts.query(), nil)
	if err != nil {
		return nil, err
	}
	return normalize.LowLevel(body)
}
