package db

// Page roles.
const (
	CategoryHub   = "hub"
	CategorySpoke = "spoke"
)

// Spoke types.
const (
	SpokeFinancing = "financing"
	SpokeForSale   = "for-sale"
	SpokeRental    = "rental"
	SpokeBrand     = "brand"
	SpokeModifier  = "modifier"
)

// Node lifecycle states.
const (
	StatusDiscovery = "discovery"
	StatusReady     = "ready_to_publish"
	StatusBlocked   = "blocked_quality"
	StatusPublished = "published"
)

// Keyword queue states.
const (
	QueueUnprocessed = "unprocessed"
	QueueProcessed   = "processed"
)

// ValidSpokeType reports whether s is one of the known spoke types.
func ValidSpokeType(s string) bool {
	switch s {
	case SpokeFinancing, SpokeForSale, SpokeRental, SpokeBrand, SpokeModifier:
		return true
	}
	return false
}

// EquipmentType represents a row in the equipment_types table
type EquipmentType struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Slug      string  `json:"slug"`
	HubNodeID *string `json:"hub_node_id"`
	CreatedAt int64   `json:"created_at"` // Unix millis
}

// Brand represents a row in the brands table
type Brand struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	CreatedAt int64  `json:"created_at"`
}

// FAQ is one question/answer pair of a content document.
type FAQ struct {
	Q string `json:"q"`
	A string `json:"a"`
}

// RelatedLink is an internal link candidate recorded on a page.
type RelatedLink struct {
	NodeID string `json:"node_id,omitempty"`
	URL    string `json:"url"`
	Text   string `json:"text"`
	Type   string `json:"type"` // parent_hub, sibling, child_spoke, related
}

// Content is the structured body document of a page.
type Content struct {
	SEOTitle         string        `json:"seo_title,omitempty"`
	MetaDesc         string        `json:"meta_desc,omitempty"`
	Subheadline      string        `json:"subheadline,omitempty"`
	ShortDescription string        `json:"short_description,omitempty"`
	Intro            string        `json:"intro,omitempty"`
	MainContent      string        `json:"main_content"`
	HowItWorks       string        `json:"how_it_works,omitempty"`
	Features         string        `json:"features,omitempty"`
	FAQ              []FAQ         `json:"faq"`
	RelatedLinks     []RelatedLink `json:"related_links,omitempty"`
}

// Clone returns a deep copy of c.
func (c *Content) Clone() *Content {
	if c == nil {
		return nil
	}
	out := *c
	out.FAQ = append([]FAQ(nil), c.FAQ...)
	out.RelatedLinks = append([]RelatedLink(nil), c.RelatedLinks...)
	return &out
}

// SpokeGridEntry is one spoke listed on its hub.
type SpokeGridEntry struct {
	NodeID  string `json:"node_id"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Keyword string `json:"keyword"`
}

// Node represents a page in the nodes table
type Node struct {
	ID                 string           `json:"id"`
	PrimaryKeyword     string           `json:"primary_keyword"`
	URLSlug            string           `json:"url_slug"`
	NodeType           string           `json:"node_type"`
	PageCategory       string           `json:"page_category"`
	SpokeType          *string          `json:"spoke_type"`
	EquipmentTypeID    string           `json:"equipment_type_id"`
	ParentHubID        *string          `json:"parent_hub_id"`
	Geo                *string          `json:"geo"`
	Modifier           *string          `json:"modifier"`
	BrandID            *string          `json:"brand_id"`
	Status             string           `json:"status"`
	Content            *Content         `json:"generated_content"`
	WordCount          int              `json:"word_count"`
	FAQCount           int              `json:"faq_count"`
	ContentVersion     int              `json:"content_version"`
	ShortDescription   string           `json:"short_description"`
	HeroImageURL       string           `json:"hero_image_url"`
	HeroImageAlt       string           `json:"hero_image_alt"`
	SchemaJSON         string           `json:"schema_json"`
	WebflowItemID      *string          `json:"webflow_item_id"`
	SERPSignature      *string          `json:"serp_signature_hash"`
	LSIKeywords        []string         `json:"lsi_keywords"`
	SourcesUsed        []string         `json:"sources_used"`
	GateReasons        []string         `json:"gate_reasons"`
	SpokeGrid          []SpokeGridEntry `json:"spoke_grid"`
	CommercialScore    float64          `json:"commercial_score"`
	Volume             int              `json:"volume"`
	Difficulty         int              `json:"difficulty"`
	LastIntelligenceAt *int64           `json:"last_intelligence_at"`
	CreatedAt          int64            `json:"created_at"` // Unix millis
	UpdatedAt          int64            `json:"updated_at"` // Unix millis
}

// IsHub reports whether n is a hub page.
func (n *Node) IsHub() bool { return n.PageCategory == CategoryHub }

// IsSpoke reports whether n is a spoke page.
func (n *Node) IsSpoke() bool { return n.PageCategory == CategorySpoke }

// SpokeTypeOr returns the spoke type, or def when unset.
func (n *Node) SpokeTypeOr(def string) string {
	if n.SpokeType == nil || *n.SpokeType == "" {
		return def
	}
	return *n.SpokeType
}

// PublicPath is the site-relative URL of the page.
func (n *Node) PublicPath() string {
	return "/equipment/" + n.URLSlug + "/"
}

// Key returns the identity key of a spoke.
func (n *Node) Key() IdentityKey {
	return IdentityKey{
		EquipmentTypeID: n.EquipmentTypeID,
		SpokeType:       n.SpokeTypeOr(""),
		Geo:             n.Geo,
		Modifier:        n.Modifier,
		BrandID:         n.BrandID,
	}
}

// IdentityKey is the dedup key of a spoke. Absent discriminators match only
// rows where the column is NULL.
type IdentityKey struct {
	EquipmentTypeID string
	SpokeType       string
	Geo             *string
	Modifier        *string
	BrandID         *string
}

// Edge is a directed internal link between two pages.
type Edge struct {
	ID        string `json:"id"`
	SourceID  string `json:"source_id"`
	TargetID  string `json:"target_id"`
	EdgeType  string `json:"edge_type"` // parent_hub, sibling, child_spoke, related
	Anchor    string `json:"anchor"`
	CreatedAt int64  `json:"created_at"`
}

// QueuedKeyword is a row of the keyword intake queue.
type QueuedKeyword struct {
	Keyword     string `json:"keyword"`
	Volume      int    `json:"volume"`
	KD          int    `json:"kd"`
	Source      string `json:"source"`
	Status      string `json:"status"`
	CreatedAt   int64  `json:"created_at"`
	ProcessedAt *int64 `json:"processed_at"`
}

// Ranking is one observed search position for a page.
type Ranking struct {
	NodeID      string  `json:"node_id"`
	Keyword     string  `json:"keyword"`
	Position    float64 `json:"position"`
	Clicks      int     `json:"clicks"`
	Impressions int     `json:"impressions"`
	TrackedAt   int64   `json:"tracked_at"`
}
