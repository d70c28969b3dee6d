package intel

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipflow/sei/internal/config"
	"equipflow/sei/internal/failure"
	"equipflow/sei/internal/logger"
	"equipflow/sei/internal/session"
)

type fakeSearch struct {
	results []SearchResult
	err     error
	calls   int
}

func (f *fakeSearch) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	f.calls++
	return f.results, f.err
}

func (f *fakeSearch) Service() string { return session.ServiceFirecrawl }

type fakeScrape struct {
	pages map[string]string
	fail  map[string]bool
	calls []string
}

func (f *fakeScrape) Scrape(ctx context.Context, url string) (string, error) {
	f.calls = append(f.calls, url)
	if f.fail[url] {
		return "", errors.New("boom")
	}
	return f.pages[url], nil
}

func (f *fakeScrape) Service() string { return session.ServiceFirecrawl }

func testIntelConfig() config.IntelConfig {
	cfg := config.Default().Intel
	cfg.EnglishOnly = false
	return cfg
}

func serp() []SearchResult {
	return []SearchResult{
		{URL: "https://www.reddit.com/r/x"},
		{URL: "https://a.com/1"},
		{URL: "https://b.com/2"},
		{URL: "https://c.com/3"},
		{URL: "https://d.com/4"},
	}
}

func TestGather_ScrapesTopSources(t *testing.T) {
	search := &fakeSearch{results: serp()}
	scrape := &fakeScrape{
		pages: map[string]string{
			"https://a.com/1": "Excavator financing with a low down payment and flexible terms. " + strings.Repeat("x", 9000),
			"https://c.com/3": "Compare the interest rate. Skid steer financing today.",
		},
		fail: map[string]bool{"https://b.com/2": true},
	}
	sess := session.New(3, nil, nil)
	g := NewGatherer(search, scrape, nil, sess, testIntelConfig(), logger.Discard())

	got, err := g.Gather(context.Background(), "excavator financing", nil)
	require.NoError(t, err)

	assert.True(t, got.Changed)
	assert.Equal(t, []string{"https://a.com/1", "https://b.com/2", "https://c.com/3", "https://d.com/4"}, got.SERPURLs)
	assert.Equal(t, []string{"https://a.com/1", "https://b.com/2", "https://c.com/3"}, scrape.calls, "only the top three are scraped")
	assert.Equal(t, []string{"https://a.com/1", "https://c.com/3"}, got.Sources)
	assert.Contains(t, got.Context, "--- Source: https://a.com/1 ---\n")
	assert.Less(t, len(got.Context), 5000+200, "each source is capped in the context")
	assert.Equal(t, []string{"interest rate", "down payment", "flexible terms"}, got.LSIKeywords)
	assert.Contains(t, got.Expansion, "steer financing today")
	assert.Equal(t, 3, sess.Budget.Used(session.ServiceFirecrawl), "one search and two successful scrapes")
}

func TestGather_UnchangedSERPSkipsScraping(t *testing.T) {
	search := &fakeSearch{results: serp()}
	scrape := &fakeScrape{pages: map[string]string{}}
	g := NewGatherer(search, scrape, nil, nil, testIntelConfig(), logger.Discard())

	sig := SERPSignature([]string{"https://a.com/1", "https://b.com/2", "https://c.com/3", "https://d.com/4"})
	got, err := g.Gather(context.Background(), "excavator financing", &sig)
	require.NoError(t, err)

	assert.False(t, got.Changed)
	assert.Equal(t, sig, got.Signature)
	assert.Empty(t, scrape.calls)
}

func TestGather_Errors(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		cfg := testIntelConfig()
		cfg.Enabled = false
		g := NewGatherer(&fakeSearch{}, nil, nil, nil, cfg, logger.Discard())
		_, err := g.Gather(context.Background(), "x", nil)
		assert.ErrorIs(t, err, failure.ErrNotConfigured)
	})

	t.Run("search transport failure", func(t *testing.T) {
		search := &fakeSearch{err: &failure.TransportError{Service: "firecrawl", StatusCode: 502}}
		g := NewGatherer(search, nil, nil, nil, testIntelConfig(), logger.Discard())
		_, err := g.Gather(context.Background(), "x", nil)
		var te *failure.TransportError
		assert.ErrorAs(t, err, &te)
	})

	t.Run("budget veto before search", func(t *testing.T) {
		search := &fakeSearch{results: serp()}
		sess := session.New(3, map[string]int{session.ServiceFirecrawl: 1}, nil)
		sess.Budget.Add(session.ServiceFirecrawl, 1)
		g := NewGatherer(search, &fakeScrape{}, nil, sess, testIntelConfig(), logger.Discard())
		_, err := g.Gather(context.Background(), "x", nil)
		assert.ErrorIs(t, err, failure.ErrBudgetExceeded)
		assert.Zero(t, search.calls)
	})
}

func TestLanguageFilter(t *testing.T) {
	f := NewLanguageFilter()
	assert.True(t, f.IsEnglish("Equipment financing helps contractors buy excavators without draining their working capital."))
	assert.False(t, f.IsEnglish("El financiamiento de equipos ayuda a los contratistas a comprar excavadoras sin agotar su capital."))

	var none *LanguageFilter
	assert.True(t, none.IsEnglish("anything"))
}
