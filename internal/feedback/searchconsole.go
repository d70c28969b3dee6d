package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/oauth2/google"

	"equipflow/sei/internal/failure"
)

const (
	searchConsoleScope = "https://www.googleapis.com/auth/webmasters.readonly"
	searchConsoleAPI   = "https://www.googleapis.com/webmasters/v3"
)

// Row is one search analytics row keyed by query and page.
type Row struct {
	Query       string  `json:"query"`
	Page        string  `json:"page"`
	Clicks      float64 `json:"clicks"`
	Impressions float64 `json:"impressions"`
	Position    float64 `json:"position"`
}

// Source returns search performance rows for a date range.
type Source interface {
	Query(ctx context.Context, start, end time.Time, dimensions []string, rowLimit int) ([]Row, error)
}

// SearchConsole reads the Search Console search analytics API.
type SearchConsole struct {
	BaseURL string
	SiteURL string
	Client  *http.Client
}

// NewSearchConsole authenticates with a service-account key file.
func NewSearchConsole(ctx context.Context, credentialsFile, siteURL string) (*SearchConsole, error) {
	if credentialsFile == "" || siteURL == "" {
		return nil, fmt.Errorf("search console credentials and site url: %w", failure.ErrNotConfigured)
	}
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading search console credentials: %w", err)
	}
	cfg, err := google.JWTConfigFromJSON(data, searchConsoleScope)
	if err != nil {
		return nil, fmt.Errorf("parsing search console credentials: %w", err)
	}
	client := cfg.Client(ctx)
	client.Timeout = 60 * time.Second
	return &SearchConsole{BaseURL: searchConsoleAPI, SiteURL: siteURL, Client: client}, nil
}

type analyticsRequest struct {
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
	Dimensions []string `json:"dimensions"`
	RowLimit   int      `json:"rowLimit"`
}

type analyticsResponse struct {
	Rows []struct {
		Keys        []string `json:"keys"`
		Clicks      float64  `json:"clicks"`
		Impressions float64  `json:"impressions"`
		Position    float64  `json:"position"`
	} `json:"rows"`
}

// Query runs a search analytics query. The first two dimensions map to
// Row.Query and Row.Page.
func (s *SearchConsole) Query(ctx context.Context, start, end time.Time, dimensions []string, rowLimit int) ([]Row, error) {
	body, err := json.Marshal(analyticsRequest{
		StartDate:  start.Format("2006-01-02"),
		EndDate:    end.Format("2006-01-02"),
		Dimensions: dimensions,
		RowLimit:   rowLimit,
	})
	if err != nil {
		return nil, err
	}
	endpoint := s.BaseURL + "/sites/" + url.PathEscape(s.SiteURL) + "/searchAnalytics/query"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building search console request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &failure.TransportError{Service: "search-console", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, &failure.TransportError{Service: "search-console", Err: err}
	}
	if resp.StatusCode/100 != 2 {
		return nil, &failure.TransportError{Service: "search-console", StatusCode: resp.StatusCode, Body: string(data)}
	}
	var out analyticsResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding search console response: %w", err)
	}

	rows := make([]Row, 0, len(out.Rows))
	for _, r := range out.Rows {
		row := Row{Clicks: r.Clicks, Impressions: r.Impressions, Position: r.Position}
		if len(r.Keys) > 0 {
			row.Query = r.Keys[0]
		}
		if len(r.Keys) > 1 {
			row.Page = r.Keys[1]
		}
		rows = append(rows, row)
	}
	return rows, nil
}
