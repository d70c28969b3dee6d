package linking

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"equipflow/sei/internal/db"
	"equipflow/sei/internal/textutil"
)

// Link types recorded on edges and related links.
const (
	TypeParentHub  = "parent_hub"
	TypeSibling    = "sibling"
	TypeChildSpoke = "child_spoke"
	TypeRelated    = "related"
)

// Body field names, in injection order.
const (
	FieldMainContent = "main_content"
	FieldIntro       = "intro"
	FieldFeatures    = "features"
	FieldHowItWorks  = "how_it_works"
)

// minAnchorLen is the shortest anchor variant worth linking.
const minAnchorLen = 4

var (
	// protectedRe matches spans that must never be linked inside: existing
	// anchors, any other tag, and markdown links.
	protectedRe    = regexp.MustCompile(`(?is)<a\b[^>]*>.*?</a>|<[^>]+>|\[[^\]]*\]\([^)]*\)`)
	relatedBlockRe = regexp.MustCompile(`(?s)\s*<div class="related-links">.*?</div>`)
)

// Caps bounds link density.
type Caps struct {
	PerField int
	Total    int
}

// Injection is one anchor placed in a body field.
type Injection struct {
	NodeID string `json:"node_id"`
	URL    string `json:"url"`
	Anchor string `json:"anchor"`
	Field  string `json:"field"`
	// Existing is true when the anchor was already present from an earlier run.
	Existing bool `json:"existing,omitempty"`
}

type field struct {
	name string
	text *string
}

func bodyFields(c *db.Content) []field {
	return []field{
		{FieldMainContent, &c.MainContent},
		{FieldIntro, &c.Intro},
		{FieldFeatures, &c.Features},
		{FieldHowItWorks, &c.HowItWorks},
	}
}

// AnchorVariants returns the texts tried for a link, most specific first:
// the phrase, its lowercase form, the phrase without a trailing
// " financing", and its first word. Variants shorter than four characters
// are dropped.
func AnchorVariants(text string) []string {
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)
	candidates := []string{text, lower, strings.TrimSpace(strings.TrimSuffix(lower, " financing"))}
	if words := strings.Fields(text); len(words) > 0 {
		candidates = append(candidates, words[0])
	}

	var out []string
	seen := map[string]bool{}
	for _, v := range candidates {
		key := strings.ToLower(v)
		if len(v) < minAnchorLen || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

// Inject links candidates into the body fields of c in place. Each link is
// placed at most once, at the first whole-word, not-yet-linked occurrence of
// one of its variants. A link whose URL is already anchored in a field counts
// as injected there, so re-running over linked text changes nothing.
func Inject(c *db.Content, candidates []db.RelatedLink, caps Caps) []Injection {
	fields := bodyFields(c)
	perField := make(map[string]int, len(fields))
	var out []Injection

	for _, link := range candidates {
		if len(out) >= caps.Total {
			break
		}
		href := `href="` + html.EscapeString(link.URL) + `"`
		for _, f := range fields {
			if perField[f.name] >= caps.PerField || *f.text == "" {
				continue
			}
			if strings.Contains(*f.text, href) {
				perField[f.name]++
				out = append(out, Injection{NodeID: link.NodeID, URL: link.URL, Anchor: link.Text, Field: f.name, Existing: true})
				break
			}
			if anchor, ok := injectOne(f.text, link, href); ok {
				perField[f.name]++
				out = append(out, Injection{NodeID: link.NodeID, URL: link.URL, Anchor: anchor, Field: f.name})
				break
			}
		}
	}
	return out
}

// injectOne wraps the first unprotected occurrence of a variant of link's
// text in *text and reports the matched anchor.
func injectOne(text *string, link db.RelatedLink, href string) (string, bool) {
	protected := protectedRe.FindAllStringIndex(*text, -1)
	for _, variant := range AnchorVariants(link.Text) {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(variant) + `\b`)
		for _, m := range re.FindAllStringIndex(*text, -1) {
			if overlaps(m, protected) {
				continue
			}
			anchor := (*text)[m[0]:m[1]]
			*text = (*text)[:m[0]] + "<a " + href + ">" + anchor + "</a>" + (*text)[m[1]:]
			return anchor, true
		}
	}
	return "", false
}

func overlaps(m []int, spans [][]int) bool {
	for _, s := range spans {
		if m[0] < s[1] && s[0] < m[1] {
			return true
		}
	}
	return false
}

// StripRelatedBlock removes a related resources block from s.
func StripRelatedBlock(s string) string {
	return relatedBlockRe.ReplaceAllString(s, "")
}

func icon(linkType string) string {
	switch linkType {
	case TypeParentHub:
		return "📚"
	case TypeSibling:
		return "→"
	default:
		return "🔗"
	}
}

// RelatedBlock renders up to limit links as the related resources block.
// It returns "" when there is nothing to list.
func RelatedBlock(links []db.RelatedLink, limit int) string {
	if len(links) == 0 || limit <= 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<div class="related-links"><h3>Related Resources</h3><ul>`)
	for _, l := range links[:min(len(links), limit)] {
		fmt.Fprintf(&b, `<li><a href="%s">%s %s</a></li>`,
			html.EscapeString(l.URL), icon(l.Type), html.EscapeString(textutil.TitleCase(l.Text)))
	}
	b.WriteString(`</ul></div>`)
	return b.String()
}
