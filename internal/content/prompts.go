package content

import (
	"fmt"
	"strings"

	"equipflow/sei/internal/textutil"
)

const brandVoice = `EquipFlow is a modern equipment financing marketplace connecting businesses with lenders.

RULES:
- Write in second person (you/your)
- Never say "we offer" or "our loans" - EquipFlow connects, doesn't lend
- Include specific numbers (rates, terms, timelines)
- Be professional but approachable
- End sections with soft CTAs`

// maxPromptLSI and maxPromptContext bound what a prompt embeds.
const (
	maxPromptLSI     = 8
	maxPromptContext = 8000
)

// PromptInput is everything a page prompt is built from.
type PromptInput struct {
	Equipment  string
	Keyword    string
	SpokeType  string
	Geo        string
	Modifier   string
	LSI        []string
	Competitor string
}

func (in PromptInput) sections() (lsi, research string) {
	if len(in.LSI) > 0 {
		lsi = "\nLSI KEYWORDS TO INCLUDE: " + strings.Join(in.LSI[:min(len(in.LSI), maxPromptLSI)], ", ")
	}
	if in.Competitor != "" {
		research = "\nCOMPETITOR RESEARCH:\n" + textutil.Truncate(in.Competitor, maxPromptContext)
	}
	return lsi, research
}

func seoRequirements(keyword string) string {
	return fmt.Sprintf(`SEO REQUIREMENTS:
- Use %q in the FIRST SENTENCE
- Include %q or variations 4-6 times naturally
- Include LSI keywords throughout if provided
- Write for HUMANS first, optimize for Google`, keyword, keyword)
}

// HubPrompt builds the generation request for a hub page.
func HubPrompt(in PromptInput) string {
	lsi, research := in.sections()
	var b strings.Builder
	b.WriteString(brandVoice)
	fmt.Fprintf(&b, "\n\nCreate comprehensive content for the %s hub page on EquipFlow.\n", in.Equipment)
	b.WriteString("TARGET WORD COUNT: 1200+ words total\n\n")
	fmt.Fprintf(&b, "TARGET KEYWORD: %s\n%s\n%s\n\n", in.Keyword, lsi, research)
	b.WriteString(seoRequirements(in.Keyword))
	fmt.Fprintf(&b, `

OUTPUT JSON:
{
    "seo_title": "string (max 60 chars, keyword at start)",
    "meta_desc": "string (max 155 chars, keyword in first 10 words)",
    "subheadline": "1-2 punchy sentences (15-25 words max) that hook the reader. Value proposition focused. NO quotes around it.",
    "short_description": "Brief card description (50-75 chars) for when this page appears in navigation/cards. Action-oriented.",
    "intro": "2-3 paragraphs introducing %[1]s, what it's used for, who needs it (200+ words). MUST start with a sentence containing '%[2]s'",
    "main_content": "Comprehensive guide with H2/H3 sections covering: types/categories, key features, common use cases, buying considerations (800+ words)",
    "features": "Why get %[1]s through EquipFlow - financing options, fast approval, all credit types (200+ words)",
    "faq": [
        {"q": "question about %[1]s?", "a": "detailed answer (60+ words)"},
        {"q": "question", "a": "answer (60+ words)"},
        {"q": "question", "a": "answer (60+ words)"},
        {"q": "question", "a": "answer (60+ words)"},
        {"q": "question", "a": "answer (60+ words)"}
    ]
}`, in.Equipment, in.Keyword)
	return b.String()
}

func spokeFocus(in PromptInput) string {
	geo := ""
	if in.Geo != "" {
		geo = " in " + in.Geo
	}
	switch in.SpokeType {
	case "for-sale":
		return "Focus on buying guide - new vs used, price ranges, what to look for when buying " + in.Equipment
	case "rental":
		return "Focus on rental rates, when to rent vs buy, rental requirements for " + in.Equipment
	case "brand":
		return "Focus on this specific brand of " + in.Equipment + " - reputation, models, why choose this brand"
	case "modifier":
		return "Focus on " + in.Modifier + " financing options for " + in.Equipment + " - who qualifies, how it works"
	default:
		return "Focus on financing options, rates, terms, approval process for " + in.Equipment + geo
	}
}

// SpokePrompt builds the generation request for a spoke page.
func SpokePrompt(in PromptInput) string {
	lsi, research := in.sections()
	geo, modifier := "", ""
	if in.Geo != "" {
		geo = " in " + in.Geo
	}
	if in.Modifier != "" {
		modifier = " (" + in.Modifier + ")"
	}

	var b strings.Builder
	b.WriteString(brandVoice)
	fmt.Fprintf(&b, "\n\nCreate content for %s %s page%s%s.\n", in.Equipment, in.SpokeType, geo, modifier)
	b.WriteString("TARGET WORD COUNT: 1000+ words total\n\n")
	fmt.Fprintf(&b, "TARGET KEYWORD: %s\nFOCUS: %s\n%s\n%s\n\n", in.Keyword, spokeFocus(in), lsi, research)
	b.WriteString(seoRequirements(in.Keyword))
	fmt.Fprintf(&b, `

OUTPUT JSON:
{
    "seo_title": "string (max 60 chars, keyword at start)",
    "meta_desc": "string (max 155 chars, keyword in first 10 words)",
    "subheadline": "1-2 punchy sentences (15-25 words max) that hook the reader. Value proposition focused. NO quotes around it.",
    "short_description": "Brief card description (50-75 chars) for when this page appears in navigation/cards. Action-oriented, e.g. 'Get flexible financing for excavators' or 'Find quality used forklifts'.",
    "intro": "2-3 paragraphs addressing %[1]s (150+ words). MUST start with '%[1]s'",
    "main_content": "Detailed content with H2/H3 sections (600+ words)",
    "how_it_works": "Step by step process through EquipFlow (200+ words)",
    "features": "Key benefits and differentiators (150+ words)",
    "faq": [
        {"q": "question about %[2]s", "a": "detailed answer"},
        {"q": "question", "a": "answer"},
        {"q": "question", "a": "answer"},
        {"q": "question", "a": "answer"},
        {"q": "question", "a": "answer"}
    ]
}`, in.Keyword, in.SpokeType)
	return b.String()
}
