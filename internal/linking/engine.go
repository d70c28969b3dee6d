// Package linking builds the internal link mesh between registry pages.
package linking

import (
	"fmt"

	"equipflow/sei/internal/config"
	"equipflow/sei/internal/db"
	"equipflow/sei/internal/failure"
	"equipflow/sei/internal/logger"
)

// Result reports one linking run.
type Result struct {
	NodeID     string           `json:"node_id"`
	LinksAdded int              `json:"links_added"`
	Injected   []Injection      `json:"injected"`
	Links      []db.RelatedLink `json:"links"`
}

// Engine collects link candidates for a page and writes them into its body.
type Engine struct {
	db  *db.DB
	cfg config.LinkingConfig
	log *logger.Logger
}

// NewEngine creates a linking engine.
func NewEngine(d *db.DB, cfg config.LinkingConfig, log *logger.Logger) *Engine {
	return &Engine{db: d, cfg: cfg, log: log.Component("linking")}
}

// Candidates returns the link targets of n in priority order: parent hub,
// sibling spokes, child spokes, then hubs of other equipment types.
func (e *Engine) Candidates(n *db.Node) ([]db.RelatedLink, error) {
	var out []db.RelatedLink
	seen := map[string]bool{n.ID: true}
	add := func(target db.Node, linkType string) {
		if seen[target.ID] {
			return
		}
		seen[target.ID] = true
		out = append(out, db.RelatedLink{
			NodeID: target.ID,
			URL:    target.PublicPath(),
			Text:   target.PrimaryKeyword,
			Type:   linkType,
		})
	}

	if n.IsSpoke() && n.ParentHubID != nil {
		hub, err := e.db.GetNode(*n.ParentHubID)
		if err != nil {
			return nil, fmt.Errorf("loading parent hub of %s: %w", n.ID, err)
		}
		add(*hub, TypeParentHub)

		siblings, err := e.db.ListSpokes(n.EquipmentTypeID)
		if err != nil {
			return nil, err
		}
		for _, s := range siblings {
			add(s, TypeSibling)
		}
	}
	if n.IsHub() {
		children, err := e.db.ListChildren(n.ID)
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			add(c, TypeChildSpoke)
		}
	}

	hubs, err := e.db.ListHubs(n.EquipmentTypeID, e.cfg.CrossCategory)
	if err != nil {
		return nil, err
	}
	for _, h := range hubs {
		add(h, TypeRelated)
	}
	return out, nil
}

// Generate links the page nodeID. Every candidate is recorded in the page's
// related links whether or not an anchor was placed for it, and the related
// resources block in main_content is rebuilt.
func (e *Engine) Generate(nodeID string) (*Result, error) {
	n, err := e.db.GetNode(nodeID)
	if err != nil {
		return nil, err
	}
	if n.Content == nil || n.Content.MainContent == "" {
		return nil, &failure.ValidationError{Op: "link", NodeID: n.ID, Reasons: []string{"missing generated_content"}}
	}

	candidates, err := e.Candidates(n)
	if err != nil {
		return nil, err
	}

	c := n.Content.Clone()
	c.MainContent = StripRelatedBlock(c.MainContent)
	injected := Inject(c, candidates, Caps{PerField: e.cfg.MaxPerField, Total: e.cfg.MaxTotal})
	if block := RelatedBlock(candidates, e.cfg.ResourceBlock); block != "" {
		c.MainContent += "\n\n" + block
	}
	c.RelatedLinks = candidates

	if err := e.db.SetLinks(n.ID, n.ContentVersion, c, edges(candidates, injected, e.cfg.ResourceBlock)); err != nil {
		return nil, err
	}

	res := &Result{NodeID: n.ID, Injected: injected, Links: candidates}
	for _, inj := range injected {
		if !inj.Existing {
			res.LinksAdded++
		}
	}
	e.log.Info("links generated",
		"id", n.ID, "candidates", len(candidates), "injected", len(injected), "added", res.LinksAdded)
	return res, nil
}

// edges returns the link edges present on the page: every injected anchor and
// every entry of the related resources block.
func edges(candidates []db.RelatedLink, injected []Injection, blockLimit int) []db.LinkEdge {
	anchors := make(map[string]string, len(injected))
	for _, inj := range injected {
		anchors[inj.NodeID] = inj.Anchor
	}
	var out []db.LinkEdge
	for i, c := range candidates {
		anchor, ok := anchors[c.NodeID]
		if !ok && i >= blockLimit {
			continue
		}
		if !ok {
			anchor = c.Text
		}
		out = append(out, db.LinkEdge{TargetID: c.NodeID, Type: c.Type, Anchor: anchor})
	}
	return out
}
