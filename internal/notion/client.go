// Package notion implements the record repository against the Notion API.
//
// Notion uses bearer-token auth and a pinned API version header. Request
// throttling is handled via a token bucket limiter so bursts of webhook
// deliveries stay inside the integration's rate budget.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/albapepper/kicker-elo/internal/record"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"
	apiVersion     = "2022-06-28"
)

// Client is the shared HTTP client for all Notion endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a Notion HTTP client with rate limiting.
func NewClient(token string, requestsPerMinute int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		token:      token,
		limiter:    rate.NewLimiter(rate.Limit(rps), 3),
		logger:     logger,
	}
}

// do performs a rate-limited request against a Notion endpoint. A nil
// payload sends no body. Returns record.ErrNotFound for 404 responses so
// callers can distinguish missing records from transport failures.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", apiVersion)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("notion %s %s: %w", method, path, record.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("notion %s %s returned %d: %s", method, path, resp.StatusCode, truncate(body, 200))
	}

	return body, nil
}

func (c *Client) getPage(ctx context.Context, pageID string) (*page, error) {
	body, err := c.do(ctx, http.MethodGet, "/pages/"+pageID, nil)
	if err != nil {
		return nil, err
	}
	var p page
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode page %s: %w", pageID, err)
	}
	return &p, nil
}

func (c *Client) updatePage(ctx context.Context, pageID string, props map[string]property) error {
	_, err := c.do(ctx, http.MethodPatch, "/pages/"+pageID, map[string]interface{}{
		"properties": props,
	})
	return err
}

func (c *Client) queryDatabase(ctx context.Context, databaseID string, filter interface{}, pageSize int) ([]page, error) {
	body, err := c.do(ctx, http.MethodPost, "/databases/"+databaseID+"/query", map[string]interface{}{
		"filter":    filter,
		"page_size": pageSize,
	})
	if err != nil {
		return nil, err
	}
	var result struct {
		Results []page `json:"results"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode query results: %w", err)
	}
	return result.Results, nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
