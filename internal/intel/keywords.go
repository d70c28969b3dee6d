package intel

import (
	"regexp"
	"sort"
	"strings"
)

// MaxLSIKeywords bounds the LSI terms kept per page.
const MaxLSIKeywords = 10

// MaxExpansionKeywords bounds the expansion candidates kept per scrape.
const MaxExpansionKeywords = 15

var lsiVocabulary = []string{
	"equipment loan", "equipment lease", "heavy equipment", "construction equipment",
	"financing options", "loan terms", "interest rate", "down payment",
	"credit score", "approval", "monthly payment", "lease vs buy",
	"tax benefits", "depreciation", "section 179", "working capital",
	"cash flow", "collateral", "application process", "quick approval",
	"same day funding", "flexible terms", "competitive rates", "equipment lender",
	"commercial loan", "business financing", "capital equipment",
}

var expansionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\w+\s+financing\s+\w+)`),
	regexp.MustCompile(`(\w+\s+loans?\s+\w+)`),
	regexp.MustCompile(`(\w+\s+leasing?\s+\w+)`),
	regexp.MustCompile(`(bad credit\s+\w+\s+\w+)`),
	regexp.MustCompile(`(no money down\s+\w+)`),
	regexp.MustCompile(`(\w+\s+equipment\s+financing)`),
}

var queueTerms = []string{"financing", "loan", "lease", "credit", "equipment"}

// ExtractLSI returns vocabulary terms that occur in text but not already in
// keyword, in vocabulary order.
func ExtractLSI(text, keyword string) []string {
	lower := strings.ToLower(text)
	kw := strings.ToLower(keyword)
	var found []string
	for _, term := range lsiVocabulary {
		if len(found) >= MaxLSIKeywords {
			break
		}
		if strings.Contains(lower, term) && !strings.Contains(kw, term) {
			found = append(found, term)
		}
	}
	return found
}

// ExtractExpansion mines phrases that look like other financing keywords.
// Results are unique, sorted, between 9 and 49 bytes long and never the
// primary keyword itself.
func ExtractExpansion(text, keyword string) []string {
	lower := strings.ToLower(text)
	kw := strings.ToLower(strings.TrimSpace(keyword))
	seen := map[string]bool{}
	for _, re := range expansionPatterns {
		for _, m := range re.FindAllString(lower, -1) {
			m = strings.Join(strings.Fields(m), " ")
			if len(m) <= 8 || len(m) >= 50 || m == kw {
				continue
			}
			seen[m] = true
		}
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	if len(out) > MaxExpansionKeywords {
		out = out[:MaxExpansionKeywords]
	}
	return out
}

// QualifiesForQueue reports whether an expansion candidate is worth adding to
// the keyword queue.
func QualifiesForQueue(candidate, source string) bool {
	c := strings.ToLower(strings.TrimSpace(candidate))
	if len(c) < 8 || c == strings.ToLower(strings.TrimSpace(source)) {
		return false
	}
	for _, term := range queueTerms {
		if strings.Contains(c, term) {
			return true
		}
	}
	return false
}
