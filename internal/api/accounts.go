package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/normalize"
)

// AccountService handles linked account calls.
type AccountService struct {
	client *Client
}

// List returns the linked accounts.
func (s *AccountService) List(ctx context.Context) ([]models.Account, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, "/aws-accounts/", nil, nil)
	if err != nil {
		return nil, err
	}
	return normalize.Accounts(body)
}

// Sync asks the backend to pull fresh billing data. The backend computes
// analytics afterwards, so callers should wait before re-reading spend.
func (s *AccountService) Sync(ctx context.Context, accountID int) (*models.SyncResult, error) {
	path, err := accountPath("/aws-accounts/%d/sync/", accountID)
	if err != nil {
		return nil, err
	}
	body, err := s.client.doRequest(ctx, http.MethodPost, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return normalize.Sync(body)
}

// PlatformInfo returns the platform account that the customer's role must trust.
func (s *AccountService) PlatformInfo(ctx context.Context) (*models.AccountSetup, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, "/aws/info/", nil, nil)
	if err != nil {
		return nil, err
	}
	return normalize.Setup(body)
}

// GenerateExternalID creates the external id and trust policy for a new role.
func (s *AccountService) GenerateExternalID(ctx context.Context) (*models.AccountSetup, error) {
	body, err := s.client.doRequest(ctx, http.MethodPost, "/aws/generate-external-id/", nil, nil)
	if err != nil {
		return nil, err
	}
	return normalize.Setup(body)
}

// Connect links an account by the ARN of the role created for the platform.
func (s *AccountService) Connect(ctx context.Context, roleARN string) (*models.ActionResult, error) {
	roleARN = strings.TrimSpace(roleARN)
	if !strings.HasPrefix(roleARN, "arn:") {
		return nil, errors.New("role ARN must start with arn:")
	}

	body, err := s.client.doRequest(ctx, http.MethodPost, "/aws/connect-account/", nil, map[string]string{"role_arn": roleARN})
	if err != nil {
		return nil, err
	}
	return normalize.Action(body)
}
