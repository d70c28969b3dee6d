package intel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"equipflow/sei/internal/failure"
	"equipflow/sei/internal/session"
)

// Firecrawl is a client for the Firecrawl search and scrape API.
type Firecrawl struct {
	BaseURL string
	Key     string
	Client  *http.Client
}

// NewFirecrawl returns a Firecrawl client with a bounded HTTP timeout.
func NewFirecrawl(baseURL, key string, timeout time.Duration) *Firecrawl {
	return &Firecrawl{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Key:     key,
		Client:  &http.Client{Timeout: timeout},
	}
}

// Service names the budget line charged per call.
func (f *Firecrawl) Service() string { return session.ServiceFirecrawl }

type firecrawlSearchResponse struct {
	Success bool `json:"success"`
	Data    []struct {
		URL         string `json:"url"`
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"data"`
}

type firecrawlScrapeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Markdown string `json:"markdown"`
		Content  string `json:"content"`
	} `json:"data"`
}

// Search returns up to limit results for query, unfiltered.
func (f *Firecrawl) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	var resp firecrawlSearchResponse
	if err := f.post(ctx, "/search", map[string]any{"query": query, "limit": limit}, &resp); err != nil {
		return nil, err
	}
	results := make([]SearchResult, 0, len(resp.Data))
	for _, item := range resp.Data {
		results = append(results, SearchResult{URL: item.URL, Title: item.Title, Snippet: item.Description})
	}
	return results, nil
}

// Scrape returns the main content of url as markdown.
func (f *Firecrawl) Scrape(ctx context.Context, url string) (string, error) {
	var resp firecrawlScrapeResponse
	body := map[string]any{
		"url":             url,
		"formats":         []string{"markdown"},
		"onlyMainContent": true,
	}
	if err := f.post(ctx, "/scrape", body, &resp); err != nil {
		return "", err
	}
	if resp.Data.Markdown != "" {
		return resp.Data.Markdown, nil
	}
	return resp.Data.Content, nil
}

func (f *Firecrawl) post(ctx context.Context, path string, payload, out any) error {
	if f.Key == "" {
		return fmt.Errorf("firecrawl api key: %w", failure.ErrNotConfigured)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding firecrawl request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building firecrawl request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.Key)

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return &failure.TransportError{Service: "firecrawl", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return &failure.TransportError{Service: "firecrawl", Err: err}
	}
	if resp.StatusCode/100 != 2 {
		return &failure.TransportError{Service: "firecrawl", StatusCode: resp.StatusCode, Body: string(data)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding firecrawl %s response: %w", path, err)
	}
	return nil
}
