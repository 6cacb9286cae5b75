package linkedin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// oauthScopes covers profile retrieval and member-post publishing.
const oauthScopes = "openid profile email w_member_social"

// Token is the outcome of an authorization-code exchange.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// UserInfo is the OpenID profile of the authorizing member.
type UserInfo struct {
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// AuthCodeURL builds the provider authorization URL carrying the signed
// state token.
func (c *Client) AuthCodeURL(state string) string {
	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", c.clientID)
	params.Set("redirect_uri", c.redirectURL)
	params.Set("state", state)
	params.Set("scope", oauthScopes)
	return c.authBaseURL + "/oauth/v2/authorization?" + params.Encode()
}

// ExchangeCode trades an authorization code for an access token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (Token, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.redirectURL)
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authBaseURL+"/oauth/v2/accessToken", strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, fmt.Errorf("linkedin: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("linkedin: token exchange: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Token{}, fmt.Errorf("linkedin: read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Token{}, c.classifyError(resp.StatusCode, body)
	}

	var token Token
	if err := json.Unmarshal(body, &token); err != nil {
		return Token{}, fmt.Errorf("linkedin: parse token response: %w", err)
	}
	if token.AccessToken == "" {
		return Token{}, fmt.Errorf("linkedin: token response missing access_token")
	}
	return token, nil
}

// FetchUserInfo retrieves the OpenID profile for the given access token.
func (c *Client) FetchUserInfo(ctx context.Context, accessToken string) (UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+"/v2/userinfo", nil)
	if err != nil {
		return UserInfo{}, fmt.Errorf("linkedin: build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return UserInfo{}, fmt.Errorf("linkedin: fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return UserInfo{}, fmt.Errorf("linkedin: read userinfo response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return UserInfo{}, c.classifyError(resp.StatusCode, body)
	}

	var info UserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return UserInfo{}, fmt.Errorf("linkedin: parse userinfo response: %w", err)
	}
	if info.Sub == "" {
		return UserInfo{}, fmt.Errorf("linkedin: userinfo response missing sub")
	}
	return info, nil
}
