// Package content generates, sanitises, gates and versions page copy.
package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"equipflow/sei/internal/db"
	"equipflow/sei/internal/reasoning"
)

// Document parse errors.
var (
	ErrMissingMainContent = errors.New("document has no main_content")
	ErrMissingFAQ         = errors.New("document has no faq list")
)

// text accepts a JSON string or an array of strings, joined by blank lines.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = text(s)
		return nil
	}
	var parts []string
	if err := json.Unmarshal(b, &parts); err != nil {
		return fmt.Errorf("expected string or list of strings, got %s", firstBytes(b, 40))
	}
	*t = text(strings.Join(parts, "\n\n"))
	return nil
}

type rawDocument struct {
	SEOTitle         text      `json:"seo_title"`
	MetaDesc         text      `json:"meta_desc"`
	Subheadline      text      `json:"subheadline"`
	ShortDescription text      `json:"short_description"`
	Intro            text      `json:"intro"`
	MainContent      text      `json:"main_content"`
	HowItWorks       text      `json:"how_it_works"`
	Features         text      `json:"features"`
	FAQ              *[]rawFAQ `json:"faq"`
}

type rawFAQ struct {
	Q text `json:"q"`
	A text `json:"a"`
}

// ParseDocument maps a backend response onto a Content document. The
// response must carry a non-empty main_content and a faq list; FAQ entries
// without a question are dropped.
func ParseDocument(response string) (*db.Content, error) {
	var raw rawDocument
	if err := reasoning.ExtractJSON(response, &raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(raw.MainContent)) == "" {
		return nil, ErrMissingMainContent
	}
	if raw.FAQ == nil {
		return nil, ErrMissingFAQ
	}

	c := &db.Content{
		SEOTitle:         clean(raw.SEOTitle),
		MetaDesc:         clean(raw.MetaDesc),
		Subheadline:      strings.Trim(clean(raw.Subheadline), `"`),
		ShortDescription: clean(raw.ShortDescription),
		Intro:            clean(raw.Intro),
		MainContent:      clean(raw.MainContent),
		HowItWorks:       clean(raw.HowItWorks),
		Features:         clean(raw.Features),
		FAQ:              []db.FAQ{},
	}
	for _, f := range *raw.FAQ {
		q := clean(f.Q)
		if q == "" {
			continue
		}
		c.FAQ = append(c.FAQ, db.FAQ{Q: q, A: clean(f.A)})
	}
	return c, nil
}

func clean(t text) string { return strings.TrimSpace(string(t)) }

func firstBytes(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

// textFields returns pointers to every free-text field of c, in document order.
func textFields(c *db.Content) []*string {
	return []*string{
		&c.SEOTitle, &c.MetaDesc, &c.Subheadline, &c.ShortDescription,
		&c.Intro, &c.MainContent, &c.HowItWorks, &c.Features,
	}
}

// WordCount is the whitespace-token count of every text field plus every FAQ
// question and answer.
func WordCount(c *db.Content) int {
	if c == nil {
		return 0
	}
	n := 0
	for _, f := range textFields(c) {
		n += len(strings.Fields(*f))
	}
	for _, f := range c.FAQ {
		n += len(strings.Fields(f.Q)) + len(strings.Fields(f.A))
	}
	return n
}
