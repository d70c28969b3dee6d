package intel

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"equipflow/sei/internal/config"
	"equipflow/sei/internal/failure"
	"equipflow/sei/internal/logger"
	"equipflow/sei/internal/session"
	"equipflow/sei/internal/textutil"
)

// Intelligence is what one gathering pass learned about a keyword.
type Intelligence struct {
	SERPURLs  []string `json:"serp_urls"`
	Signature string   `json:"signature"`
	// Changed is false when the signature matched the stored one; nothing was
	// scraped and the caller should reuse its cached keywords and sources.
	Changed     bool     `json:"changed"`
	Context     string   `json:"-"`
	Sources     []string `json:"sources"`
	LSIKeywords []string `json:"lsi_keywords"`
	Expansion   []string `json:"expansion,omitempty"`
}

// Gatherer searches, detects SERP change, scrapes and mines keywords.
type Gatherer struct {
	search Searcher
	scrape Scraper
	lang   *LanguageFilter
	sess   *session.Session
	cfg    config.IntelConfig
	log    *logger.Logger
}

// NewGatherer creates a gatherer. lang may be nil to accept every language.
func NewGatherer(search Searcher, scrape Scraper, lang *LanguageFilter, sess *session.Session, cfg config.IntelConfig, log *logger.Logger) *Gatherer {
	return &Gatherer{
		search: search,
		scrape: scrape,
		lang:   lang,
		sess:   sess,
		cfg:    cfg,
		log:    log.Component("intel"),
	}
}

// Gather runs one intelligence pass for keyword. lastSignature is the stored
// SERP signature of the page, if any. When change tracking is on and the
// signature is unchanged, scraping is skipped.
func (g *Gatherer) Gather(ctx context.Context, keyword string, lastSignature *string) (*Intelligence, error) {
	if !g.cfg.Enabled || g.search == nil {
		return nil, fmt.Errorf("competitor intelligence: %w", failure.ErrNotConfigured)
	}
	if err := g.charge(g.search, 1); err != nil {
		return nil, err
	}

	g.log.Info("searching competitors", "keyword", keyword)
	raw, err := g.search.Search(ctx, keyword, g.cfg.SearchLimit*2)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", keyword, err)
	}
	results := FilterResults(raw, g.cfg.SearchLimit)
	g.log.Info("found quality sources", "keyword", keyword, "count", len(results), "raw", len(raw))

	intel := &Intelligence{Changed: true}
	for _, r := range results {
		intel.SERPURLs = append(intel.SERPURLs, r.URL)
	}
	if len(results) == 0 {
		return intel, nil
	}
	intel.Signature = SERPSignature(intel.SERPURLs)

	if g.cfg.ChangeTracking && lastSignature != nil && *lastSignature == intel.Signature {
		g.log.Info("SERP unchanged, using cached intel", "keyword", keyword, "signature", shortHash(intel.Signature))
		intel.Changed = false
		return intel, nil
	}
	if lastSignature != nil && *lastSignature != "" {
		g.log.Info("SERP changed", "keyword", keyword, "old", shortHash(*lastSignature), "new", shortHash(intel.Signature))
	}

	var sections []string
	for _, r := range results[:min(len(results), g.cfg.ScrapeTop)] {
		text, err := g.scrapeOne(ctx, r.URL)
		if err != nil {
			if errors.Is(err, failure.ErrBudgetExceeded) || ctx.Err() != nil {
				break
			}
			g.log.Warn("scrape failed", "url", r.URL, "error", err)
			continue
		}
		if text == "" {
			continue
		}
		sections = append(sections, fmt.Sprintf("--- Source: %s ---\n%s", r.URL, textutil.Truncate(text, g.cfg.SourceCharCap)))
		intel.Sources = append(intel.Sources, r.URL)
	}
	intel.Context = strings.Join(sections, "\n\n")

	if intel.Context != "" {
		intel.LSIKeywords = ExtractLSI(intel.Context, keyword)
		if g.cfg.Explorer {
			intel.Expansion = ExtractExpansion(intel.Context, keyword)
		}
	}
	g.log.Info("intelligence gathered",
		"keyword", keyword,
		"sources", len(intel.Sources),
		"lsi", len(intel.LSIKeywords),
		"expansion", len(intel.Expansion),
	)
	return intel, nil
}

func (g *Gatherer) scrapeOne(ctx context.Context, url string) (string, error) {
	if g.scrape == nil {
		return "", fmt.Errorf("scraper: %w", failure.ErrNotConfigured)
	}
	if err := g.checkBudget(g.scrape, 1); err != nil {
		return "", err
	}
	text, err := g.scrape.Scrape(ctx, url)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(textutil.Truncate(text, g.cfg.ScrapeCharCap))
	if text == "" {
		return "", nil
	}
	g.addUsage(g.scrape, 1)

	if g.cfg.EnglishOnly && !g.lang.IsEnglish(text) {
		g.log.Info("skipping non-English source", "url", url)
		return "", nil
	}
	return text, nil
}

func (g *Gatherer) charge(backend any, units int) error {
	if err := g.checkBudget(backend, units); err != nil {
		return err
	}
	g.addUsage(backend, units)
	return nil
}

func (g *Gatherer) checkBudget(backend any, units int) error {
	m, ok := backend.(metered)
	if !ok || g.sess == nil {
		return nil
	}
	return g.sess.Budget.Check(m.Service(), units)
}

func (g *Gatherer) addUsage(backend any, units int) {
	if m, ok := backend.(metered); ok && g.sess != nil {
		g.sess.Budget.Add(m.Service(), units)
	}
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
