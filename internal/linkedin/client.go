// Package linkedin encapsulates the LinkedIn REST protocol: the OAuth
// authorization flow, the two-phase image upload plus post creation, and
// the social-actions analytics fetch.
//
// Expected provider failures are reported as *ProviderError values so
// callers can branch on revocation and backoff without string matching;
// only infrastructure faults (transport, encoding) surface as plain errors.
package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultAPIBaseURL  = "https://api.linkedin.com"
	defaultAuthBaseURL = "https://www.linkedin.com"
	defaultPostBaseURL = "https://www.linkedin.com/feed/update/"

	restliProtocolVersion = "2.0.0"
	apiVersion            = "202401"
)

// HTTPClient abstracts the transport so tests can substitute a recorder.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the LinkedIn REST API on behalf of one application.
type Client struct {
	apiBaseURL   string
	authBaseURL  string
	clientID     string
	clientSecret string
	redirectURL  string
	httpClient   HTTPClient
	now          func() time.Time
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the transport used for outbound requests.
func WithHTTPClient(hc HTTPClient) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithAPIBaseURL overrides the REST API base URL (used for testing).
func WithAPIBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.apiBaseURL = u
		}
	}
}

// WithAuthBaseURL overrides the OAuth base URL (used for testing).
func WithAuthBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.authBaseURL = u
		}
	}
}

// WithClock overrides the time source used to compute backoff windows.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient constructs a client for the given OAuth application
// credentials.
func NewClient(clientID, clientSecret, redirectURL string, opts ...Option) *Client {
	c := &Client{
		apiBaseURL:   defaultAPIBaseURL,
		authBaseURL:  defaultAuthBaseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newAPIRequest builds an authenticated request carrying the Restli
// protocol and version headers every versioned endpoint requires.
func (c *Client) newAPIRequest(ctx context.Context, method, url, accessToken string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("linkedin: encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("linkedin: build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("X-Restli-Protocol-Version", restliProtocolVersion)
	req.Header.Set("LinkedIn-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
