package content

import (
	"encoding/json"
	"strings"
	"time"

	"equipflow/sei/internal/db"
	"equipflow/sei/internal/textutil"
)

const schemaContext = "https://schema.org"

// SchemaInput is what the linked-data markup of a page is built from.
type SchemaInput struct {
	SiteURL      string
	Brand        string
	Slug         string
	Equipment    string
	Geo          string
	SEOTitle     string
	MetaDesc     string
	FAQ          []db.FAQ
	HeroImageURL string
	Date         time.Time
}

type thing struct {
	Type string `json:"@type"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
	ID   string `json:"@id,omitempty"`
	Logo *thing `json:"logo,omitempty"`
}

type question struct {
	Type           string `json:"@type"`
	Name           string `json:"name"`
	AcceptedAnswer struct {
		Type string `json:"@type"`
		Text string `json:"text"`
	} `json:"acceptedAnswer"`
}

type faqPage struct {
	Context    string     `json:"@context"`
	Type       string     `json:"@type"`
	MainEntity []question `json:"mainEntity"`
}

type article struct {
	Context          string `json:"@context"`
	Type             string `json:"@type"`
	Headline         string `json:"headline"`
	Description      string `json:"description"`
	Author           thing  `json:"author"`
	Publisher        thing  `json:"publisher"`
	DatePublished    string `json:"datePublished"`
	DateModified     string `json:"dateModified"`
	MainEntityOfPage thing  `json:"mainEntityOfPage"`
	Image            *thing `json:"image,omitempty"`
}

type service struct {
	Context     string `json:"@context"`
	Type        string `json:"@type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Provider    thing  `json:"provider"`
	AreaServed  thing  `json:"areaServed"`
	ServiceType string `json:"serviceType"`
}

type listItem struct {
	Type     string `json:"@type"`
	Position int    `json:"position"`
	Name     string `json:"name"`
	Item     string `json:"item"`
}

type breadcrumbList struct {
	Context         string     `json:"@context"`
	Type            string     `json:"@type"`
	ItemListElement []listItem `json:"itemListElement"`
}

type schemaGraph struct {
	Context string `json:"@context"`
	Graph   []any  `json:"@graph"`
}

// BuildSchema renders the FAQPage, Article, Service and BreadcrumbList
// markup of a page as one JSON-LD @graph document.
func BuildSchema(in SchemaInput) (string, error) {
	site := strings.TrimRight(in.SiteURL, "/")
	pageURL := site + "/equipment/" + in.Slug + "/"
	brand := in.Brand
	if brand == "" {
		brand = "EquipFlow"
	}
	org := thing{Type: "Organization", Name: brand, URL: site}
	date := in.Date.Format("2006-01-02")

	faq := faqPage{Context: schemaContext, Type: "FAQPage", MainEntity: []question{}}
	for _, f := range in.FAQ {
		q := question{Type: "Question", Name: f.Q}
		q.AcceptedAnswer.Type = "Answer"
		q.AcceptedAnswer.Text = f.A
		faq.MainEntity = append(faq.MainEntity, q)
	}

	publisher := org
	publisher.Logo = &thing{Type: "ImageObject", URL: site + "/logo.png"}
	art := article{
		Context:          schemaContext,
		Type:             "Article",
		Headline:         in.SEOTitle,
		Description:      in.MetaDesc,
		Author:           org,
		Publisher:        publisher,
		DatePublished:    date,
		DateModified:     date,
		MainEntityOfPage: thing{Type: "WebPage", ID: pageURL},
	}
	if in.HeroImageURL != "" {
		art.Image = &thing{Type: "ImageObject", URL: in.HeroImageURL}
	}

	area := "United States"
	if in.Geo != "" {
		area = in.Geo
	}
	svc := service{
		Context:     schemaContext,
		Type:        "Service",
		Name:        textutil.TitleCase(in.Equipment) + " Financing",
		Description: in.MetaDesc,
		Provider:    org,
		AreaServed:  thing{Type: "Place", Name: area},
		ServiceType: "Equipment Financing",
	}

	crumbs := []listItem{
		{Type: "ListItem", Position: 1, Name: "Home", Item: site},
		{Type: "ListItem", Position: 2, Name: "Equipment Financing", Item: site + "/equipment-financing"},
	}
	if in.Geo != "" {
		crumbs = append(crumbs, listItem{
			Type:     "ListItem",
			Position: 3,
			Name:     textutil.TitleCase(in.Geo) + " Financing",
			Item:     site + "/" + strings.ReplaceAll(strings.ToLower(in.Geo), " ", "-") + "-financing",
		})
	}
	crumbs = append(crumbs, listItem{Type: "ListItem", Position: len(crumbs) + 1, Name: in.SEOTitle, Item: pageURL})

	doc := schemaGraph{
		Context: schemaContext,
		Graph: []any{
			faq,
			art,
			svc,
			breadcrumbList{Context: schemaContext, Type: "BreadcrumbList", ItemListElement: crumbs},
		},
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
