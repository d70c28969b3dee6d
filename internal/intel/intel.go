// Package intel gathers competitor intelligence for a keyword: search
// results, scraped source text, a SERP signature for change detection, and
// keyword candidates mined from the sources.
package intel

import "context"

// SearchResult is one organic result of a search.
type SearchResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Searcher runs a web search.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// Scraper returns the main text of a page as markdown or plain text. An
// empty string with a nil error means the page had no usable content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (string, error)
}

// metered is implemented by backends that bill per call.
type metered interface {
	Service() string
}
