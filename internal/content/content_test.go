package content

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipflow/sei/internal/db"
)

func TestParseDocument(t *testing.T) {
	resp := "Here you go:\n```json\n" + `{
		"seo_title": " Excavator Financing ",
		"subheadline": "\"Fast approvals\"",
		"main_content": ["## Rates", "Rates start at 6%."],
		"faq": [{"q": "How fast?", "a": "Same day."}, {"q": "", "a": "orphan"}]
	}` + "\n```"

	c, err := ParseDocument(resp)
	require.NoError(t, err)
	assert.Equal(t, "Excavator Financing", c.SEOTitle)
	assert.Equal(t, "Fast approvals", c.Subheadline)
	assert.Equal(t, "## Rates\n\nRates start at 6%.", c.MainContent)
	assert.Equal(t, []db.FAQ{{Q: "How fast?", A: "Same day."}}, c.FAQ)
}

func TestParseDocument_Errors(t *testing.T) {
	tests := []struct {
		name string
		resp string
		want error
	}{
		{"no main content", `{"faq": []}`, ErrMissingMainContent},
		{"blank main content", `{"main_content": "  ", "faq": []}`, ErrMissingMainContent},
		{"no faq list", `{"main_content": "body"}`, ErrMissingFAQ},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument(tt.resp)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := ParseDocument("I could not write that page.")
	assert.Error(t, err)
}

func TestParseDocument_EmptyFAQListIsNotNil(t *testing.T) {
	c, err := ParseDocument(`{"main_content": "body", "faq": []}`)
	require.NoError(t, err)
	assert.NotNil(t, c.FAQ)
	assert.Empty(t, c.FAQ)
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Our Lending is fast.", "Lending partners in our network is fast."},
		{"Apply and we   fund you.", "Apply and lending partners in our network fund you."},
		{"Compare our rates today.", "Compare rates from lending partners in our network today."},
		{"We approve most applicants.", "Lending partners in our network approve most applicants."},
		{"Ourlending is one word.", "Ourlending is one word."},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.in), tt.in)
	}
}

func TestSanitizedTextHasNoViolations(t *testing.T) {
	c := &db.Content{MainContent: strings.Join(BannedPhrases(), ". "), FAQ: []db.FAQ{{Q: "Do we lend?", A: "Our loans are fast."}}}
	require.NotEmpty(t, Violations(c))

	SanitizeContent(c)
	assert.Empty(t, Violations(c))
	assert.Equal(t, "Do lending partners in our network lend?", c.FAQ[0].Q)
}

func TestCheckGates(t *testing.T) {
	cfg := GateConfig{MinWords: 10, MinSources: 2, MinFAQs: 2}
	faqs := []db.FAQ{{Q: "a?", A: "b"}, {Q: "c?", A: "d"}}

	t.Run("passes", func(t *testing.T) {
		c := &db.Content{MainContent: strings.Repeat("word ", 10), FAQ: faqs}
		r := CheckGates(c, []string{"https://a.com", "https://b.com"}, cfg)
		assert.True(t, r.Passed)
		assert.Empty(t, r.Reasons)
		assert.Equal(t, 14, r.WordCount)
	})

	t.Run("every reason", func(t *testing.T) {
		c := &db.Content{MainContent: "we finance", FAQ: faqs[:1]}
		r := CheckGates(c, []string{"https://a.com", "https://a.com"}, cfg)
		assert.False(t, r.Passed)
		assert.Equal(t, []string{
			"word_count (4) < 10",
			"sources (1) < 2",
			"faqs (1) < 2",
			"brand_violations: [we finance]",
		}, r.Reasons)
	})
}

func TestAcceptsUpdate(t *testing.T) {
	tests := []struct {
		current, next int
		want          bool
	}{
		{0, 100, true},
		{1000, 500, false},
		{1000, 899, false},
		{1000, 900, true},
		{1000, 920, true},
		{1000, 1500, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AcceptsUpdate(tt.current, tt.next, 0.9), "%d -> %d", tt.current, tt.next)
	}
}

func TestShortDescription(t *testing.T) {
	rental := db.SpokeRental
	brand := db.SpokeBrand
	assert.Equal(t, "Compare excavator financing, rental & buying options",
		ShortDescription(&db.Node{PageCategory: db.CategoryHub}, "Excavator"))
	assert.Equal(t, "Rent quality forklift for your project",
		ShortDescription(&db.Node{PageCategory: db.CategorySpoke, SpokeType: &rental}, "Forklift"))
	assert.Equal(t, "Explore crane options",
		ShortDescription(&db.Node{PageCategory: db.CategorySpoke, SpokeType: &brand}, "Crane"))
}

func TestPrompts(t *testing.T) {
	lsi := []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7", "a8", "a9"}
	hub := HubPrompt(PromptInput{Equipment: "Excavator", Keyword: "excavator", LSI: lsi})
	assert.Contains(t, hub, "hub page")
	assert.Contains(t, hub, "a8")
	assert.NotContains(t, hub, "a9")
	assert.NotContains(t, hub, "COMPETITOR RESEARCH")

	spoke := SpokePrompt(PromptInput{
		Equipment:  "Excavator",
		Keyword:    "excavator financing texas",
		SpokeType:  db.SpokeFinancing,
		Geo:        "Texas",
		Competitor: strings.Repeat("x", 9000),
	})
	assert.Contains(t, spoke, "page in Texas")
	assert.Contains(t, spoke, "approval process for Excavator in Texas")
	assert.Contains(t, spoke, "COMPETITOR RESEARCH")
	assert.NotContains(t, spoke, strings.Repeat("x", 8001))
}

func TestBuildSchema(t *testing.T) {
	out, err := BuildSchema(SchemaInput{
		SiteURL:   "https://equipflow.co/",
		Slug:      "excavator-financing-texas",
		Equipment: "excavator",
		Geo:       "texas",
		SEOTitle:  "Excavator Financing in Texas",
		MetaDesc:  "Finance an excavator.",
		FAQ:       []db.FAQ{{Q: "How fast?", A: "Same day."}},
		Date:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	var doc struct {
		Graph []map[string]any `json:"@graph"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Graph, 4)

	var types []string
	for _, g := range doc.Graph {
		types = append(types, g["@type"].(string))
	}
	assert.Equal(t, []string{"FAQPage", "Article", "Service", "BreadcrumbList"}, types)
	assert.Equal(t, "2025-03-01", doc.Graph[1]["datePublished"])
	assert.Equal(t, "Excavator Financing", doc.Graph[2]["name"])

	crumbs := doc.Graph[3]["itemListElement"].([]any)
	require.Len(t, crumbs, 4)
	last := crumbs[3].(map[string]any)
	assert.Equal(t, "https://equipflow.co/equipment/excavator-financing-texas/", last["item"])
	assert.Equal(t, "https://equipflow.co/texas-financing", crumbs[2].(map[string]any)["item"])
}
