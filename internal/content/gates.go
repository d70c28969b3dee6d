package content

import (
	"fmt"
	"strings"

	"equipflow/sei/internal/db"
)

// GateConfig holds the quality thresholds.
type GateConfig struct {
	MinWords   int
	MinSources int
	MinFAQs    int
}

// GateResult is the outcome of the quality gates for one document.
type GateResult struct {
	Passed      bool     `json:"passed"`
	Reasons     []string `json:"reasons,omitempty"`
	WordCount   int      `json:"word_count"`
	FAQCount    int      `json:"faq_count"`
	SourceCount int      `json:"source_count"`
}

// CheckGates evaluates c against cfg. sources counts distinct URLs.
func CheckGates(c *db.Content, sources []string, cfg GateConfig) GateResult {
	r := GateResult{
		WordCount:   WordCount(c),
		FAQCount:    len(c.FAQ),
		SourceCount: countDistinct(sources),
	}
	if r.WordCount < cfg.MinWords {
		r.Reasons = append(r.Reasons, fmt.Sprintf("word_count (%d) < %d", r.WordCount, cfg.MinWords))
	}
	if r.SourceCount < cfg.MinSources {
		r.Reasons = append(r.Reasons, fmt.Sprintf("sources (%d) < %d", r.SourceCount, cfg.MinSources))
	}
	if r.FAQCount < cfg.MinFAQs {
		r.Reasons = append(r.Reasons, fmt.Sprintf("faqs (%d) < %d", r.FAQCount, cfg.MinFAQs))
	}
	if v := Violations(c); len(v) > 0 {
		r.Reasons = append(r.Reasons, fmt.Sprintf("brand_violations: [%s]", strings.Join(v, ", ")))
	}
	r.Passed = len(r.Reasons) == 0
	return r
}

func countDistinct(items []string) int {
	seen := make(map[string]bool, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			seen[s] = true
		}
	}
	return len(seen)
}

// AcceptsUpdate reports whether a regeneration with nextWords may replace
// content of currentWords: it must reach tolerance times the current count.
func AcceptsUpdate(currentWords, nextWords int, tolerance float64) bool {
	return float64(nextWords) >= tolerance*float64(currentWords)
}

// ShortDescription returns the card text used when the generator gave none.
func ShortDescription(n *db.Node, equipmentName string) string {
	x := strings.ToLower(equipmentName)
	if n.IsHub() {
		return "Compare " + x + " financing, rental & buying options"
	}
	switch n.SpokeTypeOr("") {
	case db.SpokeFinancing:
		return "Get flexible " + x + " financing options"
	case db.SpokeRental:
		return "Rent quality " + x + " for your project"
	case db.SpokeForSale:
		return "Find " + x + " for sale near you"
	default:
		return "Explore " + x + " options"
	}
}
