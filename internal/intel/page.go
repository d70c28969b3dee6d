package intel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/gocolly/colly"
)

// DefaultUserAgent identifies the local scraper to competitor sites.
const DefaultUserAgent = "Mozilla/5.0 (compatible; EquipFlowBot/1.0; +https://equipflow.co/bot)"

// PageScraper fetches pages itself with colly, honouring robots.txt, and
// reduces them to their main text with readability.
type PageScraper struct {
	UserAgent string
}

// NewPageScraper returns a local scraper.
func NewPageScraper(userAgent string) *PageScraper {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &PageScraper{UserAgent: userAgent}
}

// Scrape fetches pageURL and returns its readable text. Pages disallowed by
// robots.txt yield no content and no error.
func (p *PageScraper) Scrape(ctx context.Context, pageURL string) (string, error) {
	c := colly.NewCollector(
		colly.UserAgent(p.UserAgent),
		colly.MaxDepth(1),
	)
	c.IgnoreRobotsTxt = false

	var (
		body     []byte
		fetchErr error
	)
	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("fetching %s (HTTP %d): %w", pageURL, r.StatusCode, err)
	})

	if err := c.Visit(pageURL); err != nil {
		if errors.Is(err, colly.ErrRobotsTxtBlocked) {
			return "", nil
		}
		return "", fmt.Errorf("visiting %s: %w", pageURL, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if fetchErr != nil {
		return "", fetchErr
	}
	if len(body) == 0 {
		return "", nil
	}
	return ExtractText(body, pageURL)
}

var (
	blockOpen  = regexp.MustCompile(`<(div|p|br|li|td|tr|h[1-6])([\s>/])`)
	blockClose = regexp.MustCompile(`</(div|p|li|td|tr|h[1-6])>`)
	whitespace = regexp.MustCompile(`\s+`)
)

// ExtractText runs readability over an HTML document and returns the main
// article text with whitespace collapsed.
func ExtractText(html []byte, pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parsing url %s: %w", pageURL, err)
	}
	article, err := readability.FromReader(bytes.NewReader(html), parsed)
	if err != nil {
		return "", fmt.Errorf("extracting article from %s: %w", pageURL, err)
	}

	// Pad block elements so adjacent paragraphs do not run together
	spaced := blockOpen.ReplaceAllString(article.Content, " <$1$2")
	spaced = blockClose.ReplaceAllString(spaced, "</$1> ")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(spaced))
	if err != nil {
		return "", fmt.Errorf("parsing article html: %w", err)
	}
	text := strings.TrimSpace(whitespace.ReplaceAllString(doc.Text(), " "))
	if article.Title != "" && text != "" {
		text = article.Title + "\n\n" + text
	}
	return text, nil
}
