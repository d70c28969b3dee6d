package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"equipflow/sei/internal/config"
	"equipflow/sei/internal/db"
	"equipflow/sei/internal/failure"
	"equipflow/sei/internal/intel"
	"equipflow/sei/internal/logger"
	"equipflow/sei/internal/reasoning"
	"equipflow/sei/internal/session"
)

// ErrRegression is returned when a regeneration is shorter than the version
// guard allows. The stored content is left untouched.
var ErrRegression = errors.New("content update would regress word count")

// expansionVolume is the volume assigned to keywords discovered in sources.
const expansionVolume = 100

// Intel is the competitor intelligence capability used by the pipeline.
type Intel interface {
	Gather(ctx context.Context, keyword string, lastSignature *string) (*intel.Intelligence, error)
}

// Result reports one content run.
type Result struct {
	NodeID              string     `json:"node_id"`
	Success             bool       `json:"success"`
	WordCount           int        `json:"word_count"`
	GatePassed          bool       `json:"gate_passed"`
	Gate                GateResult `json:"gate"`
	LSIKeywords         []string   `json:"lsi_keywords"`
	Sources             []string   `json:"sources"`
	SchemaGenerated     bool       `json:"schema_generated"`
	ContentVersion      int        `json:"content_version"`
	SERPChanged         bool       `json:"serp_changed"`
	OpportunitiesQueued int        `json:"opportunities_queued"`
}

// Pipeline turns a registry node into stored, gated page content.
type Pipeline struct {
	db        *db.DB
	backend   reasoning.Backend
	intel     Intel
	sess      *session.Session
	content   config.ContentConfig
	site      config.SiteConfig
	explorer  bool
	maxTokens int
	log       *logger.Logger
	now       func() time.Time
}

// NewPipeline creates a content pipeline. gatherer may be nil to generate
// without competitor intelligence.
func NewPipeline(d *db.DB, backend reasoning.Backend, gatherer Intel, sess *session.Session, cfg *config.Config, log *logger.Logger) *Pipeline {
	return &Pipeline{
		db:        d,
		backend:   backend,
		intel:     gatherer,
		sess:      sess,
		content:   cfg.Content,
		site:      cfg.Site,
		explorer:  cfg.Intel.Explorer,
		maxTokens: cfg.Reasoning.MaxTokens,
		log:       log.Component("content"),
		now:       time.Now,
	}
}

// Validate returns a *failure.ValidationError naming every field that stops
// content from being generated for n, and the node's equipment type.
func (p *Pipeline) Validate(n *db.Node) (*db.EquipmentType, error) {
	var reasons []string
	var et *db.EquipmentType
	if n.EquipmentTypeID == "" {
		reasons = append(reasons, "missing equipment_type_id")
	} else {
		var err error
		et, err = p.db.GetEquipmentType(n.EquipmentTypeID)
		if errors.Is(err, db.ErrNotFound) {
			reasons = append(reasons, "no linked equipment type")
		} else if err != nil {
			return nil, err
		}
	}
	if n.PageCategory == "" {
		reasons = append(reasons, "missing page_category")
	}
	if n.IsSpoke() {
		if n.SpokeTypeOr("") == "" {
			reasons = append(reasons, "missing spoke_type")
		}
		if n.ParentHubID == nil || *n.ParentHubID == "" {
			reasons = append(reasons, "missing parent_hub_id")
		}
	}
	if n.URLSlug == "" {
		reasons = append(reasons, "missing url_slug")
	}
	if len(reasons) > 0 {
		return nil, &failure.ValidationError{Op: "generate", NodeID: n.ID, Reasons: reasons}
	}
	return et, nil
}

// Generate runs intelligence, generation, sanitising, gating and the
// version guard for one node. Content that fails the gates is still stored
// with status blocked_quality and a *failure.QualityGateFailure is returned
// alongside the result.
func (p *Pipeline) Generate(ctx context.Context, nodeID string) (*Result, error) {
	node, err := p.db.GetNode(nodeID)
	if err != nil {
		return nil, err
	}
	et, err := p.Validate(node)
	if err != nil {
		return nil, err
	}
	result := &Result{NodeID: node.ID}
	p.log.Info("generating content", "keyword", node.PrimaryKeyword, "id", node.ID)

	lsi, sources, competitor := p.gather(ctx, node, result)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result.LSIKeywords, result.Sources = lsi, sources

	in := PromptInput{
		Equipment:  et.Name,
		Keyword:    node.PrimaryKeyword,
		SpokeType:  node.SpokeTypeOr(db.SpokeFinancing),
		LSI:        lsi,
		Competitor: competitor,
	}
	if node.Geo != nil {
		in.Geo = *node.Geo
	}
	if node.Modifier != nil {
		in.Modifier = *node.Modifier
	}
	prompt := SpokePrompt(in)
	if node.IsHub() {
		prompt = HubPrompt(in)
	}

	if p.sess != nil {
		if err := p.sess.Budget.Check(session.ServiceClaude, p.maxTokens); err != nil {
			return nil, err
		}
	}
	resp, err := p.backend.Complete(ctx, prompt, p.maxTokens)
	if err != nil {
		return nil, &failure.GenerationError{NodeID: node.ID, Err: err}
	}
	if p.sess != nil {
		p.sess.Budget.Add(session.ServiceClaude, resp.BilledTokens(p.maxTokens))
		p.sess.Budget.AddSpend(session.ServiceClaude, resp.CostUSD)
	}

	doc, err := ParseDocument(resp.Text)
	if err != nil {
		return nil, &failure.GenerationError{NodeID: node.ID, Err: err}
	}
	SanitizeContent(doc)
	if doc.ShortDescription == "" {
		doc.ShortDescription = ShortDescription(node, et.Name)
		p.log.Debug("auto-generated short description", "id", node.ID, "text", doc.ShortDescription)
	}

	gate := CheckGates(doc, sources, GateConfig{
		MinWords:   p.content.MinWords,
		MinSources: p.content.MinSources,
		MinFAQs:    p.content.MinFAQs,
	})
	result.Gate, result.WordCount, result.GatePassed = gate, gate.WordCount, gate.Passed

	if !AcceptsUpdate(node.WordCount, gate.WordCount, p.content.RegressionTolerance) {
		p.log.Warn("update skipped, would regress",
			"id", node.ID, "words", gate.WordCount, "current", node.WordCount)
		return result, fmt.Errorf("%s: %d words < %.0f%% of %d: %w",
			node.ID, gate.WordCount, p.content.RegressionTolerance*100, node.WordCount, ErrRegression)
	}

	var schemaJSON string
	if p.content.Schema {
		si := SchemaInput{
			SiteURL:      p.site.URL,
			Brand:        p.site.Brand,
			Slug:         node.URLSlug,
			Equipment:    et.Name,
			Geo:          in.Geo,
			SEOTitle:     firstNonEmpty(doc.SEOTitle, node.PrimaryKeyword),
			MetaDesc:     doc.MetaDesc,
			FAQ:          doc.FAQ,
			HeroImageURL: node.HeroImageURL,
			Date:         p.now(),
		}
		if schemaJSON, err = BuildSchema(si); err != nil {
			return nil, fmt.Errorf("building schema for %s: %w", node.ID, err)
		}
		result.SchemaGenerated = true
	}

	// Keep links from an earlier run so publish payloads stay complete
	// until the page is relinked.
	if node.Content != nil {
		doc.RelatedLinks = node.Content.RelatedLinks
	}
	version, err := p.db.SaveContent(node.ID, node.ContentVersion, doc, gate.WordCount)
	if err != nil {
		return nil, err
	}
	result.ContentVersion = version

	status := db.StatusReady
	if !gate.Passed {
		status = db.StatusBlocked
	}
	if err := p.db.SaveGeneration(node.ID, db.Generation{
		Status:           status,
		FAQCount:         gate.FAQCount,
		SourcesUsed:      sources,
		GateReasons:      gate.Reasons,
		ShortDescription: doc.ShortDescription,
		SchemaJSON:       schemaJSON,
	}); err != nil {
		return nil, err
	}
	result.Success = true

	if !gate.Passed {
		p.log.Warn("quality gates failed", "id", node.ID, "reasons", gate.Reasons)
		return result, &failure.QualityGateFailure{NodeID: node.ID, Reasons: gate.Reasons}
	}
	p.log.Info("quality gates passed",
		"id", node.ID, "words", gate.WordCount, "faqs", gate.FAQCount, "version", version)
	return result, nil
}

// gather returns the LSI keywords, sources and competitor context for node.
// An unchanged SERP or a failed gathering pass falls back to the values
// cached on the node.
func (p *Pipeline) gather(ctx context.Context, node *db.Node, result *Result) ([]string, []string, string) {
	cachedLSI, cachedSources := node.LSIKeywords, node.SourcesUsed
	if p.intel == nil {
		return cachedLSI, cachedSources, ""
	}

	in, err := p.intel.Gather(ctx, node.PrimaryKeyword, node.SERPSignature)
	switch {
	case errors.Is(err, failure.ErrNotConfigured):
		p.log.Debug("competitor intelligence not configured", "id", node.ID)
		return cachedLSI, cachedSources, ""
	case err != nil:
		p.log.Warn("competitor intelligence failed, using cached values", "id", node.ID, "error", err)
		return cachedLSI, cachedSources, ""
	case in == nil || in.Signature == "":
		return cachedLSI, cachedSources, ""
	case !in.Changed:
		return cachedLSI, cachedSources, ""
	}

	result.SERPChanged = true
	// A pass that scraped too few sources is not cached, so the next run
	// scrapes the same SERP again.
	signature := in.Signature
	if len(in.Sources) < max(p.content.MinSources, 1) {
		p.log.Warn("too few sources scraped, serp signature not cached",
			"id", node.ID, "sources", len(in.Sources), "min", p.content.MinSources)
		signature = ""
	}
	if err := p.db.SetSERPSignature(node.ID, signature, in.LSIKeywords, in.Sources); err != nil {
		p.log.Warn("saving serp signature failed", "id", node.ID, "error", err)
	}
	if p.explorer {
		result.OpportunitiesQueued = p.queueExpansion(in.Expansion, node.PrimaryKeyword)
	}
	return in.LSIKeywords, in.Sources, in.Context
}

func (p *Pipeline) queueExpansion(candidates []string, source string) int {
	queued := 0
	for _, kw := range candidates {
		if !intel.QualifiesForQueue(kw, source) {
			continue
		}
		added, err := p.db.EnqueueKeyword(db.QueuedKeyword{
			Keyword: kw,
			Volume:  expansionVolume,
			Source:  "discovered_from:" + source,
		}, false)
		if err != nil {
			p.log.Warn("queueing expansion keyword failed", "keyword", kw, "error", err)
			continue
		}
		if added {
			queued++
		}
	}
	if queued > 0 {
		p.log.Info("queued new keyword opportunities", "source", source, "count", queued)
	}
	return queued
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
