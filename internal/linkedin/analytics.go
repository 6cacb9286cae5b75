package linkedin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// AnalyticsRequest identifies the post whose counters should be fetched.
type AnalyticsRequest struct {
	AccessToken string
	PostURN     string
}

// Analytics holds nullable engagement counters for one post. A field is
// either a finite number or nil; NaN and infinities never escape decode.
type Analytics struct {
	Impressions    *int64
	Clicks         *int64
	Likes          *int64
	Comments       *int64
	Shares         *int64
	Engagement     *int64
	EngagementRate *float64
}

// Field paths tried in order when extracting each counter. The provider
// has shipped several envelope shapes for social actions.
var (
	likesPaths       = []string{"likesSummary.totalLikes", "likesSummary.count", "numLikes", "likes"}
	commentsPaths    = []string{"commentsSummary.totalComments", "commentsSummary.aggregatedTotalComments", "commentsSummary.count", "numComments", "comments"}
	sharesPaths      = []string{"sharesSummary.totalShares", "numShares", "shares"}
	impressionsPaths = []string{"impressionCount", "numImpressions", "impressions", "views"}
	clicksPaths      = []string{"clickCount", "numClicks", "clicks"}
)

// FetchAnalytics retrieves social-action counters for a published post and
// derives engagement and engagement rate.
func (c *Client) FetchAnalytics(ctx context.Context, req AnalyticsRequest) (Analytics, error) {
	urn := shareURN(req.PostURN)
	endpoint := c.apiBaseURL + "/rest/socialActions/" + url.PathEscape(urn)

	httpReq, err := c.newAPIRequest(ctx, http.MethodGet, endpoint, req.AccessToken, nil)
	if err != nil {
		return Analytics{}, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Analytics{}, fmt.Errorf("linkedin: fetch social actions: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Analytics{}, fmt.Errorf("linkedin: read social actions response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Analytics{}, c.classifyError(resp.StatusCode, body)
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Analytics{}, fmt.Errorf("linkedin: parse social actions response: %w", err)
	}

	analytics := Analytics{
		Likes:       extractCount(decoded, likesPaths),
		Comments:    extractCount(decoded, commentsPaths),
		Shares:      extractCount(decoded, sharesPaths),
		Impressions: extractCount(decoded, impressionsPaths),
		Clicks:      extractCount(decoded, clicksPaths),
	}

	analytics.Engagement = sumCounts(analytics.Likes, analytics.Comments, analytics.Shares, analytics.Clicks)
	analytics.EngagementRate = engagementRate(analytics.Engagement, analytics.Impressions)

	return analytics, nil
}

// shareURN prefixes a bare post id with the share URN namespace.
func shareURN(id string) string {
	if strings.HasPrefix(id, "urn:") {
		return id
	}
	return "urn:li:share:" + id
}

// extractCount walks each candidate dotted path and returns the first
// value that coerces to a finite number.
func extractCount(decoded map[string]any, paths []string) *int64 {
	for _, path := range paths {
		value, ok := lookupPath(decoded, path)
		if !ok {
			continue
		}
		if n, ok := coerceNumber(value); ok {
			count := int64(n)
			return &count
		}
	}
	return nil
}

func lookupPath(decoded map[string]any, path string) (any, bool) {
	current := any(decoded)
	for _, segment := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// coerceNumber accepts the numeric and stringified shapes the provider
// emits. Non-finite values are rejected rather than propagated.
func coerceNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case json.Number:
		n, err := v.Float64()
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// sumCounts adds the non-nil counters; it returns nil when every input is
// nil so absent data stays distinguishable from zero engagement.
func sumCounts(counts ...*int64) *int64 {
	var total int64
	seen := false
	for _, count := range counts {
		if count == nil {
			continue
		}
		total += *count
		seen = true
	}
	if !seen {
		return nil
	}
	return &total
}

// engagementRate divides engagement by impressions, rounded to four
// decimals; nil when impressions are absent or zero.
func engagementRate(engagement, impressions *int64) *float64 {
	if engagement == nil || impressions == nil || *impressions <= 0 {
		return nil
	}
	rate := math.Round(float64(*engagement)/float64(*impressions)*10000) / 10000
	return &rate
}
