package intel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipflow/sei/internal/failure"
)

const articleHTML = `<!DOCTYPE html>
<html><head><title>Excavator Financing Guide</title></head>
<body>
<nav><a href="/">Home</a> <a href="/about">About</a></nav>
<article>
<h1>Excavator Financing Guide</h1>
<p>Excavator financing lets contractors spread the cost of a machine over several years while keeping working capital free for payroll and fuel.</p>
<p>Most lenders look at time in business, credit score and the age of the equipment before they quote an interest rate and loan terms.</p>
<p>A larger down payment usually lowers the monthly payment and can help borrowers with thin credit files qualify for better offers.</p>
<p>Leasing is another route. An operating lease keeps the excavator off the balance sheet, while a capital lease behaves more like a loan and ends with ownership.</p>
<p>Before signing, compare the total cost of the agreement rather than the headline rate, and ask about prepayment penalties, documentation fees and insurance requirements.</p>
</article>
<footer>Copyright</footer>
</body></html>`

func TestExtractText(t *testing.T) {
	text, err := ExtractText([]byte(articleHTML), "https://example.com/guide")
	require.NoError(t, err)

	assert.Contains(t, text, "Excavator financing lets contractors")
	assert.Contains(t, text, "monthly payment")
	assert.NotContains(t, text, "  ")
	assert.NotContains(t, text, "payroll and fuel.Most", "paragraphs are separated")
}

func TestPageScraper_Scrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			w.Write([]byte("User-agent: *\nDisallow: /private\n"))
		default:
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(articleHTML))
		}
	}))
	defer srv.Close()

	p := NewPageScraper("")

	text, err := p.Scrape(context.Background(), srv.URL+"/guide")
	require.NoError(t, err)
	assert.Contains(t, text, "interest rate and loan terms")

	blocked, err := p.Scrape(context.Background(), srv.URL+"/private/page")
	require.NoError(t, err)
	assert.Empty(t, blocked)
}

func TestFirecrawl(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer fc-key", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		switch r.URL.Path {
		case "/search":
			assert.Equal(t, "crane rental", body["query"])
			w.Write([]byte(`{"success":true,"data":[{"url":"https://a.com","title":"A","description":"about a"}]}`))
		case "/scrape":
			assert.Equal(t, true, body["onlyMainContent"])
			w.Write([]byte(`{"success":true,"data":{"markdown":"# Crane rental"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	fc := NewFirecrawl(srv.URL+"/", "fc-key", 5*time.Second)

	results, err := fc.Search(context.Background(), "crane rental", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, SearchResult{URL: "https://a.com", Title: "A", Snippet: "about a"}, results[0])

	md, err := fc.Scrape(context.Background(), "https://a.com")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(md, "# Crane"))
}

func TestFirecrawl_NotConfigured(t *testing.T) {
	fc := NewFirecrawl("http://unused", "", time.Second)
	_, err := fc.Search(context.Background(), "x", 1)
	assert.ErrorIs(t, err, failure.ErrNotConfigured)
}
