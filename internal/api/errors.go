package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/normalize"
)

// ErrUnauthenticated means there is no token or the backend rejected it.
// Callers must send the user to the login flow instead of showing an error.
var ErrUnauthenticated = errors.New("authentication required")

// ErrInvalidAccount is returned for non-positive account ids.
var ErrInvalidAccount = errors.New("invalid account id")

// formattingMessage replaces the backend's decimal overflow validation error.
const formattingMessage = "Data formatting issue. Please sync your data again."

// APIError is a non-2xx, non-401 response.
type APIError struct {
	Message    string
	RequestID  string
	StatusCode int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// IsNotFound returns true if the error is a 404 not found error
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsForbidden returns true if the error is a 403 forbidden error
func (e *APIError) IsForbidden() bool {
	return e.StatusCode == 403
}

// IsServerError returns true if the error is a 5xx server error
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// parseError extracts a readable message from an error body.
func parseError(status int, body []byte, requestID string) *APIError {
	apiErr := &APIError{
		StatusCode: status,
		RequestID:  requestID,
		Message:    fmt.Sprintf("request failed with status %d", status),
	}

	v, err := normalize.Decode(body)
	if err != nil {
		return apiErr
	}

	if msg := messageFrom(v); msg != "" {
		apiErr.Message = msg
	}
	if strings.Contains(apiErr.Message, "max_digits") {
		apiErr.Message = formattingMessage
	}
	return apiErr
}

// messageFrom looks for error, message or detail keys. Field validation
// bodies like {"role_arn": ["This field is required."]} are flattened.
func messageFrom(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			if s := messageFrom(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		for _, key := range []string{"error", "message", "detail"} {
			if s := messageFrom(x[key]); s != "" {
				return s
			}
		}
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if s := messageFrom(x[k]); s != "" {
				parts = append(parts, k+": "+s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}
