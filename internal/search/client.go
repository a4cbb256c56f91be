// Package search talks to the Typesense jobs collection: filter-expression
// construction plus the HTTP calls for search, upsert, and delete.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultCollection = "jobs"
	requestTimeout    = 10 * time.Second
)

// Config holds connection settings for the search engine.
type Config struct {
	URL        string
	APIKey     string
	Collection string
}

// Client is a thin HTTP client for the Typesense collection API.
type Client struct {
	baseURL    string
	apiKey     string
	collection string
	httpClient *http.Client
}

// NewClient builds a search client. Missing connection configuration is a
// hard failure.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("typesense url is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("typesense api key is required")
	}

	collection := cfg.Collection
	if collection == "" {
		collection = defaultCollection
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: collection,
		httpClient: &http.Client{Timeout: requestTimeout},
	}, nil
}

// SearchRequest mirrors the engine's search parameters.
type SearchRequest struct {
	Q       string
	QueryBy string
	Filter  FilterQuery
	FacetBy string
	Page    int
	PerPage int
}

// Hit is one matching document.
type Hit struct {
	Document map[string]any `json:"document"`
}

// SearchResult is the subset of the engine's response the callers use.
type SearchResult struct {
	Found int   `json:"found"`
	Page  int   `json:"page"`
	Hits  []Hit `json:"hits"`
}

// Search issues a search against the jobs collection.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	q := url.Values{}
	if req.Q == "" {
		q.Set("q", "*")
	} else {
		q.Set("q", req.Q)
	}
	queryBy := req.QueryBy
	if queryBy == "" {
		queryBy = "title,company,description"
	}
	q.Set("query_by", queryBy)
	if req.Filter.FilterString != "" {
		q.Set("filter_by", req.Filter.FilterString)
	}
	if req.Filter.SortClause != "" {
		q.Set("sort_by", req.Filter.SortClause)
	}
	if req.FacetBy != "" {
		q.Set("facet_by", req.FacetBy)
	}
	if req.Page > 0 {
		q.Set("page", strconv.Itoa(req.Page))
	}
	if req.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(req.PerPage))
	}

	endpoint := fmt.Sprintf("%s/collections/%s/documents/search?%s", c.baseURL, c.collection, q.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	httpReq.Header.Set("X-TYPESENSE-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("search engine returned status %d: %s", resp.StatusCode, string(body))
	}

	var result SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	return &result, nil
}

// UpsertDocument writes a document into the collection, replacing any
// existing document with the same id. Returns the document id.
func (c *Client) UpsertDocument(ctx context.Context, doc map[string]any) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}

	endpoint := fmt.Sprintf("%s/collections/%s/documents?action=upsert", c.baseURL, c.collection)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create upsert request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-TYPESENSE-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("upsert request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("search engine returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var stored struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &stored); err != nil {
		return "", fmt.Errorf("failed to decode upsert response: %w", err)
	}

	return stored.ID, nil
}
