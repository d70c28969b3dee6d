package publish

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"equipflow/sei/internal/db"
)

// markdown renders stored body text for CMS rich-text fields. Raw HTML is
// passed through so injected anchors and the related resources block survive.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.DefinitionList, extension.Footnote),
	goldmark.WithRendererOptions(gmhtml.WithHardWraps(), gmhtml.WithUnsafe()),
)

// RichText converts markdown-like body text to HTML. Empty input yields "".
func RichText(source string) (string, error) {
	if strings.TrimSpace(source) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// FAQHTML renders the FAQ list. Entries missing a question or answer are
// skipped; an empty list yields "".
func FAQHTML(faqs []db.FAQ) string {
	var b strings.Builder
	for _, f := range faqs {
		if f.Q == "" || f.A == "" {
			continue
		}
		fmt.Fprintf(&b, `<div class="faq-item"><h3>%s</h3><p>%s</p></div>`, html.EscapeString(f.Q), html.EscapeString(f.A))
	}
	if b.Len() == 0 {
		return ""
	}
	return `<div class="faq-list">` + b.String() + `</div>`
}
