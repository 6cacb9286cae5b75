package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/postpilot/internal/content"
	"github.com/example/postpilot/internal/logging"
)

// PublishRequest carries everything needed to create one member post.
type PublishRequest struct {
	AccessToken string
	MemberID    string
	Content     string
	ImageURL    string
}

// PublishResult identifies the created post.
type PublishResult struct {
	PostID  string
	PostURL string
}

type initializeUploadResponse struct {
	Value struct {
		UploadURL string `json:"uploadUrl"`
		Image     string `json:"image"`
	} `json:"value"`
}

// Publish creates one post for the authenticated member, uploading the
// referenced image first when one is provided. Image failures are
// non-fatal: the post goes out without media rather than not at all.
func (c *Client) Publish(ctx context.Context, req PublishRequest) (PublishResult, error) {
	normalized, err := content.Validate(req.Content)
	if err != nil {
		return PublishResult{}, err
	}

	author := personURN(req.MemberID)

	imageURN := ""
	if req.ImageURL != "" {
		urn, err := c.uploadImage(ctx, req.AccessToken, author, req.ImageURL)
		if err != nil {
			c.logger(ctx).WarnContext(ctx, "image upload failed, publishing without media", "error", err)
		} else {
			imageURN = urn
		}
	}

	payload := map[string]any{
		"author":     author,
		"commentary": normalized,
		"visibility": "PUBLIC",
		"distribution": map[string]any{
			"feedDistribution":               "MAIN_FEED",
			"targetEntities":                 []any{},
			"thirdPartyDistributionChannels": []any{},
		},
		"lifecycleState":            "PUBLISHED",
		"isReshareDisabledByAuthor": false,
	}
	if imageURN != "" {
		payload["content"] = map[string]any{
			"media": map[string]any{"id": imageURN},
		}
	}

	httpReq, err := c.newAPIRequest(ctx, http.MethodPost, c.apiBaseURL+"/rest/posts", req.AccessToken, payload)
	if err != nil {
		return PublishResult{}, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return PublishResult{}, fmt.Errorf("linkedin: create post: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return PublishResult{}, fmt.Errorf("linkedin: read post response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return PublishResult{}, c.classifyError(resp.StatusCode, body)
	}

	postID := extractPostID(body)
	if postID == "" {
		postID = resp.Header.Get("x-restli-id")
	}
	if postID == "" {
		return PublishResult{}, fmt.Errorf("linkedin: post response missing id")
	}

	return PublishResult{PostID: postID, PostURL: defaultPostBaseURL + postID}, nil
}

// uploadImage runs the two-phase media protocol: initialize an upload
// session for the author, fetch the source bytes, then PUT them to the
// returned upload URL.
func (c *Client) uploadImage(ctx context.Context, accessToken, ownerURN, imageURL string) (string, error) {
	initPayload := map[string]any{
		"initializeUploadRequest": map[string]any{"owner": ownerURN},
	}
	initReq, err := c.newAPIRequest(ctx, http.MethodPost, c.apiBaseURL+"/rest/images?action=initializeUpload", accessToken, initPayload)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(initReq)
	if err != nil {
		return "", fmt.Errorf("linkedin: initialize upload: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("linkedin: read upload response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.classifyError(resp.StatusCode, body)
	}

	var initResp initializeUploadResponse
	if err := json.Unmarshal(body, &initResp); err != nil {
		return "", fmt.Errorf("linkedin: parse upload response: %w", err)
	}
	if initResp.Value.UploadURL == "" || initResp.Value.Image == "" {
		return "", fmt.Errorf("linkedin: upload response missing uploadUrl or image")
	}

	imageBytes, contentType, err := c.fetchImage(ctx, imageURL)
	if err != nil {
		return "", err
	}

	putReq, err := http.NewRequestWithContext(ctx, http.MethodPut, initResp.Value.UploadURL, bytes.NewReader(imageBytes))
	if err != nil {
		return "", fmt.Errorf("linkedin: build image put: %w", err)
	}
	putReq.Header.Set("Authorization", "Bearer "+accessToken)
	putReq.Header.Set("Content-Type", contentType)

	putResp, err := c.httpClient.Do(putReq)
	if err != nil {
		return "", fmt.Errorf("linkedin: upload image bytes: %w", err)
	}
	defer putResp.Body.Close()
	io.Copy(io.Discard, putResp.Body)

	if putResp.StatusCode < 200 || putResp.StatusCode >= 300 {
		return "", fmt.Errorf("linkedin: image upload failed with status %d", putResp.StatusCode)
	}

	return initResp.Value.Image, nil
}

// fetchImage downloads the source image referenced by the draft.
func (c *Client) fetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("linkedin: build image fetch: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("linkedin: fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("linkedin: image fetch failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("linkedin: read image bytes: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}

func (c *Client) logger(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return slog.Default()
}

func personURN(memberID string) string {
	if strings.HasPrefix(memberID, "urn:") {
		return memberID
	}
	return "urn:li:person:" + memberID
}

func extractPostID(body []byte) string {
	var decoded struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return ""
	}
	return decoded.ID
}
