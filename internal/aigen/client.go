// Package aigen is a thin client for the text-generation gateway used to
// draft post copy.
package aigen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrEmptyPrompt is returned before any request is made.
var ErrEmptyPrompt = errors.New("aigen: prompt is required")

// HTTPClient abstracts the transport so tests can substitute a recorder.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the generation gateway.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPClient
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

// NewClient constructs a client for the gateway at baseURL.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GenerateRequest describes the copy to produce. Tone is optional.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
	Tone   string `json:"tone,omitempty"`
}

type generateResponse struct {
	Text string `json:"text"`
}

type gatewayError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Generate requests post copy for the given prompt and returns the
// generated text.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", ErrEmptyPrompt
	}

	encoded, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("aigen: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/generate", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("aigen: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("aigen: call gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("aigen: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("aigen: %s", gatewayErrorMessage(resp.StatusCode, body))
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("aigen: parse response: %w", err)
	}
	if strings.TrimSpace(decoded.Text) == "" {
		return "", fmt.Errorf("aigen: gateway returned no text")
	}
	return decoded.Text, nil
}

func gatewayErrorMessage(status int, body []byte) string {
	var decoded gatewayError
	if err := json.Unmarshal(body, &decoded); err == nil {
		if decoded.Message != "" {
			return decoded.Message
		}
		if decoded.Error != "" {
			return decoded.Error
		}
	}
	return fmt.Sprintf("gateway returned status %d", status)
}
