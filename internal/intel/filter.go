package intel

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"equipflow/sei/internal/textutil"
)

// blockedDomains are registrable domains whose pages never count as sources.
var blockedDomains = map[string]bool{
	"reddit.com":    true,
	"pinterest.com": true,
	"youtube.com":   true,
	"facebook.com":  true,
	"twitter.com":   true,
	"instagram.com": true,
	"quora.com":     true,
	"tiktok.com":    true,
}

// Blocked reports whether rawURL is unusable as a competitor source: a PDF,
// an unparseable URL, or a page on a blocked domain or any of its subdomains.
func Blocked(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return true
	}
	if strings.HasSuffix(strings.ToLower(u.Path), ".pdf") {
		return true
	}
	host := strings.ToLower(u.Hostname())
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		domain = host
	}
	return blockedDomains[domain]
}

// FilterResults drops blocked and duplicate URLs and keeps at most limit
// results, trimming long titles and snippets.
func FilterResults(results []SearchResult, limit int) []SearchResult {
	seen := make(map[string]bool, len(results))
	var kept []SearchResult
	for _, r := range results {
		if limit > 0 && len(kept) >= limit {
			break
		}
		if Blocked(r.URL) || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		kept = append(kept, SearchResult{
			URL:     r.URL,
			Title:   textutil.Truncate(r.Title, 100),
			Snippet: textutil.Truncate(r.Snippet, 200),
		})
	}
	return kept
}
