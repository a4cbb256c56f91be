// Package pipelineclient calls the scrape pipeline service's admin HTTP API:
// dedup-cache stats and clearing, fair-chance stats, search-index document
// deletion, and the dev-only nuke-everything endpoint.
package pipelineclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	secretHeader   = "X-Pipeline-Secret"
	requestTimeout = 15 * time.Second
)

// Client is an authenticated HTTP client for the pipeline admin API.
type Client struct {
	baseURL    string
	secret     string
	httpClient *http.Client
}

// NewClient builds a pipeline admin client. Missing URL or secret is a hard
// failure: these endpoints must never be called unauthenticated.
func NewClient(baseURL, secret string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("pipeline url is required")
	}
	if secret == "" {
		return nil, fmt.Errorf("pipeline secret is required")
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secret:     secret,
		httpClient: &http.Client{Timeout: requestTimeout},
	}, nil
}

// CacheStats reports the dedup cache's contents.
type CacheStats struct {
	TotalKeys    int            `json:"total_keys"`
	KeysBySource map[string]int `json:"keys_by_source"`
	OldestEntry  string         `json:"oldest_entry,omitempty"`
}

// GetCacheStats fetches dedup cache statistics.
func (c *Client) GetCacheStats(ctx context.Context) (*CacheStats, error) {
	var stats CacheStats
	if err := c.do(ctx, http.MethodGet, "/api/admin/cache/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ClearCacheRequest clears everything or a date range.
type ClearCacheRequest struct {
	ClearAll  bool   `json:"clearAll,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

// ClearCache clears dedup cache entries.
func (c *Client) ClearCache(ctx context.Context, req ClearCacheRequest) error {
	return c.do(ctx, http.MethodPost, "/api/admin/cache/clear", req, nil)
}

// GetFairChanceStats fetches the pipeline's fair-chance scoring breakdown.
func (c *Client) GetFairChanceStats(ctx context.Context) (map[string]any, error) {
	var stats map[string]any
	if err := c.do(ctx, http.MethodGet, "/api/admin/fair-chance/stats", nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// DeleteDocumentsRequest identifies search documents to remove.
type DeleteDocumentsRequest struct {
	TypesenseIDs []string `json:"typesenseIds"`
	ExternalIDs  []string `json:"externalIds"`
}

// DeleteDocuments removes documents from the search index via the pipeline
// service, which also forgets the matching dedup keys.
func (c *Client) DeleteDocuments(ctx context.Context, req DeleteDocumentsRequest) error {
	if len(req.TypesenseIDs) == 0 && len(req.ExternalIDs) == 0 {
		return nil
	}
	return c.do(ctx, http.MethodPost, "/api/admin/typesense/delete", req, nil)
}

// NukeAll clears the search index and the dedup cache in one shot. Dev-only;
// the caller enforces confirmation.
func (c *Client) NukeAll(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/admin/nuke-all", struct{}{}, nil)
}

// do performs one authenticated JSON round trip. Non-OK responses are wrapped
// into an error carrying status and body text.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(secretHeader, c.secret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pipeline request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("pipeline service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode pipeline response: %w", err)
		}
	}

	return nil
}
