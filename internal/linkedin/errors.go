package linkedin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Provider error codes that signal a revoked or invalidated access token.
const (
	revokedTokenCode        = "REVOKED_ACCESS_TOKEN"
	revokedServiceErrorCode = 65601
)

// Backoff windows applied when the provider throttles or denies access.
const (
	rateLimitBackoff  = time.Hour
	permissionBackoff = 6 * time.Hour
)

// ProviderError describes an expected failure reported by the provider.
type ProviderError struct {
	StatusCode   int
	Message      string
	Revoked      bool
	BackoffUntil *time.Time
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return fmt.Sprintf("linkedin: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("linkedin: request failed with status %d", e.StatusCode)
}

// errorBody is the provider's error envelope. serviceErrorCode is numeric
// in current responses but has been observed as a string historically.
type errorBody struct {
	Message          string          `json:"message"`
	Code             string          `json:"code"`
	ServiceErrorCode json.RawMessage `json:"serviceErrorCode"`
}

// classifyError turns a non-success provider response into a ProviderError,
// marking revocation and computing a backoff window for throttled or
// permission-denied requests.
func (c *Client) classifyError(status int, body []byte) *ProviderError {
	perr := &ProviderError{StatusCode: status}

	var decoded errorBody
	if err := json.Unmarshal(body, &decoded); err == nil {
		perr.Message = strings.TrimSpace(decoded.Message)
		if decoded.Code == revokedTokenCode {
			perr.Revoked = true
		}
		if code, ok := serviceErrorCode(decoded.ServiceErrorCode); ok && code == revokedServiceErrorCode {
			perr.Revoked = true
		}
	}
	if perr.Message == "" {
		perr.Message = fmt.Sprintf("request failed with status %d", status)
	}

	switch status {
	case http.StatusTooManyRequests:
		until := c.now().Add(rateLimitBackoff)
		perr.BackoffUntil = &until
	case http.StatusForbidden:
		until := c.now().Add(permissionBackoff)
		perr.BackoffUntil = &until
	}

	return perr
}

func serviceErrorCode(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var numeric int
	if err := json.Unmarshal(raw, &numeric); err == nil {
		return numeric, true
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		var parsed int
		if _, err := fmt.Sscanf(text, "%d", &parsed); err == nil {
			return parsed, true
		}
	}
	return 0, false
}
