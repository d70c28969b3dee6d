package publish

import (
	"equipflow/sei/internal/db"
	"equipflow/sei/internal/textutil"
)

// Fields builds the CMS field map of n. Empty values are omitted.
func Fields(n *db.Node) (map[string]any, error) {
	c := n.Content
	if c == nil {
		c = &db.Content{}
	}

	rich := map[string]string{
		"intro":             c.Intro,
		"main-content":      c.MainContent,
		"how-it-works":      c.HowItWorks,
		"financing-options": c.Features,
	}
	name := textutil.TitleCase(n.PrimaryKeyword)
	shortDesc := n.ShortDescription
	if shortDesc == "" {
		shortDesc = c.ShortDescription
	}
	seoTitle := c.SEOTitle
	if seoTitle == "" {
		seoTitle = name
	}

	fields := map[string]any{}
	set := func(key, value string) {
		if value != "" {
			fields[key] = value
		}
	}
	set("name", name)
	set("slug", n.URLSlug)
	set("page-type", n.PageCategory)
	set("spoke-type", n.SpokeTypeOr(""))
	set("seo-title", seoTitle)
	set("meta-description", c.MetaDesc)
	set("subheadline", c.Subheadline)
	set("short-description", shortDesc)
	for key, source := range rich {
		out, err := RichText(source)
		if err != nil {
			return nil, err
		}
		set(key, out)
	}
	set("faqs", FAQHTML(c.FAQ))
	set("registry-id", n.ID)
	if n.WordCount > 0 {
		fields["word-count"] = n.WordCount
	}
	if n.HeroImageURL != "" {
		fields["hero-image"] = map[string]string{"url": n.HeroImageURL}
		set("hero-alt", n.HeroImageAlt)
	}
	return fields, nil
}
