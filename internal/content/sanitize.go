package content

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"equipflow/sei/internal/db"
	"equipflow/sei/internal/textutil"
)

// brandRule rewrites a first-person lender claim into marketplace language.
// No replacement contains any banned phrase.
type brandRule struct {
	phrase      string
	replacement string
	re          *regexp.Regexp
}

var brandRules = compileRules([][2]string{
	{"get approved by us", "get approved by lending partners in our network"},
	{"we provide financing", "our partners provide financing"},
	{"our loan products", "loan products from our partners"},
	{"our underwriting", "underwriting by lending partners in our network"},
	{"we offer loans", "lending partners in our network offer loans"},
	{"our financing", "financing options through our partners"},
	{"our lending", "lending partners in our network"},
	{"we approve", "lending partners in our network approve"},
	{"we finance", "lending partners in our network finance"},
	{"our rates", "rates from lending partners in our network"},
	{"our loans", "loans from lending partners in our network"},
	{"we fund", "lending partners in our network fund"},
	{"we lend", "lending partners in our network lend"},
})

func compileRules(pairs [][2]string) []brandRule {
	rules := make([]brandRule, 0, len(pairs))
	for _, p := range pairs {
		pattern := `(?i)\b` + strings.ReplaceAll(regexp.QuoteMeta(p[0]), " ", `\s+`) + `\b`
		rules = append(rules, brandRule{phrase: p[0], replacement: p[1], re: regexp.MustCompile(pattern)})
	}
	return rules
}

// BannedPhrases lists the phrases the marketplace may never use about itself.
func BannedPhrases() []string {
	out := make([]string, len(brandRules))
	for i, r := range brandRules {
		out[i] = r.phrase
	}
	return out
}

// Sanitize replaces every banned phrase in s, matching case-insensitively on
// word boundaries. A match that starts upper-case gets a capitalised
// replacement.
func Sanitize(s string) string {
	if s == "" {
		return s
	}
	for _, r := range brandRules {
		s = r.re.ReplaceAllStringFunc(s, func(match string) string {
			first, _ := utf8.DecodeRuneInString(match)
			if unicode.IsUpper(first) {
				return textutil.Capitalize(r.replacement)
			}
			return r.replacement
		})
	}
	return s
}

// SanitizeContent sanitises every text field and FAQ entry of c in place.
func SanitizeContent(c *db.Content) {
	for _, f := range textFields(c) {
		*f = Sanitize(*f)
	}
	for i := range c.FAQ {
		c.FAQ[i].Q = Sanitize(c.FAQ[i].Q)
		c.FAQ[i].A = Sanitize(c.FAQ[i].A)
	}
}

// Violations returns the banned phrases still present anywhere in c.
func Violations(c *db.Content) []string {
	var found []string
	for _, r := range brandRules {
		if containsMatch(c, r.re) {
			found = append(found, r.phrase)
		}
	}
	return found
}

func containsMatch(c *db.Content, re *regexp.Regexp) bool {
	for _, f := range textFields(c) {
		if re.MatchString(*f) {
			return true
		}
	}
	for _, f := range c.FAQ {
		if re.MatchString(f.Q) || re.MatchString(f.A) {
			return true
		}
	}
	return false
}
