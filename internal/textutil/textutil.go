// Package textutil holds the text normalisation shared by slugs, titles and
// keyword matching.
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxSlugLen is the longest url_slug the registry accepts.
const MaxSlugLen = 100

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]`)
	slugDashes  = regexp.MustCompile(`-+`)
)

// Normalize folds accents, lowercases, and collapses whitespace.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// Slugify builds a URL-safe slug from text.
func Slugify(text string) string {
	slug := strings.ReplaceAll(Normalize(text), " ", "-")
	slug = slugInvalid.ReplaceAllString(slug, "")
	slug = slugDashes.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > MaxSlugLen {
		slug = strings.TrimRight(slug[:MaxSlugLen], "-")
	}
	return slug
}

// JoinSlug slugifies the non-empty parts and joins them with dashes.
func JoinSlug(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return Slugify(strings.Join(kept, " "))
}

var titleSmallWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "but": true, "or": true,
	"for": true, "nor": true, "on": true, "at": true, "to": true, "by": true,
	"of": true, "in": true, "vs": true, "with": true,
}

// brandWords keep their canonical casing in titles. Multi-word entries are
// matched before single words.
var brandWords = []string{"John Deere", "EquipFlow", "Caterpillar", "Komatsu", "Kubota"}

// TitleCase converts text to headline case.
func TitleCase(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	out := make([]string, 0, len(words))
	for i := 0; i < len(words); i++ {
		if brand, n := matchBrand(words[i:]); n > 0 {
			out = append(out, brand)
			i += n - 1
			continue
		}
		lower := strings.ToLower(words[i])
		if i > 0 && titleSmallWords[lower] {
			out = append(out, lower)
			continue
		}
		out = append(out, Capitalize(lower))
	}
	return strings.Join(out, " ")
}

func matchBrand(words []string) (string, int) {
	for _, brand := range brandWords {
		parts := strings.Fields(brand)
		if len(parts) > len(words) {
			continue
		}
		ok := true
		for j, p := range parts {
			if !strings.EqualFold(p, words[j]) {
				ok = false
				break
			}
		}
		if ok {
			return brand, len(parts)
		}
	}
	return "", 0
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	for i, r := range s {
		return string(unicode.ToUpper(r)) + s[i+len(string(r)):]
	}
	return s
}

// WordCount counts whitespace-separated tokens.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// Truncate cuts s to at most n bytes without splitting a rune.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }
