// Package api is the HTTP client for the cost-management backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/auth"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/logger"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/version"
)

// Client talks to the backend. The token is read from the TokenSource at the
// start of every request and never cached.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     auth.TokenSource
	limiter    *rate.Limiter
	userAgent  string
}

// Config holds the client configuration.
type Config struct {
	BaseURL           string
	Tokens            auth.TokenSource
	HTTPClient        *http.Client
	Timeout           time.Duration
	RequestsPerSecond float64 // 0 disables limiting
}

// NewClient creates a backend client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	tokens := cfg.Tokens
	if tokens == nil {
		tokens = auth.StaticToken("")
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
		limiter:    limiter,
		userAgent:  version.UserAgent(),
	}
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchOptions modify read requests.
type FetchOptions struct {
	// NoCache asks the backend to bypass its own cache.
	NoCache bool
}

func (o FetchOptions) query() url.Values {
	if !o.NoCache {
		return nil
	}
	return url.Values{"no_cache": []string{"true"}}
}

// doRequest performs an authenticated request and returns the raw body of a
// 2xx response. A missing token fails before anything is sent.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	token, ok := c.tokens.Token()
	if !ok {
		return nil, ErrUnauthenticated
	}

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Token "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("request cancelled: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		logger.Info("token rejected", "path", path, "request_id", requestID)
		return nil, ErrUnauthenticated
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseError(resp.StatusCode, respBody, requestID)
		logger.Warn("backend error", "method", method, "path", path, "status", resp.StatusCode,
			"request_id", requestID, "error", apiErr.Message)
		return nil, apiErr
	}

	logger.Debug("request ok", "method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)
	return respBody, nil
}

// Accounts returns the account service.
func (c *Client) Accounts() *AccountService {
	return &AccountService{client: c}
}

// Analytics returns the spend analytics service.
func (c *Client) Analytics() *AnalyticsService {
	return &AnalyticsService{client: c}
}

// Resources returns the paid resource service.
func (c *Client) Resources() *ResourceService {
	return &ResourceService{client: c}
}

// LowLevel returns the low-level services service.
func (c *Client) LowLevel() *LowLevelService {
	return &LowLevelService{client: c}
}

func accountPath(format string, accountID int) (string, error) {
	if accountID <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidAccount, accountID)
	}
	return fmt.Sprintf(format, accountID), nil
}
