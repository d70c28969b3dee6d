package graph

import "sort"

// PageInfo is a lightweight page representation decoupled from DB types
type PageInfo struct {
	ID              string
	Keyword         string
	Slug            string
	Category        string // hub or spoke
	SpokeType       string
	Status          string
	EquipmentTypeID string
	ParentHubID     *string
	CreatedAt       int64
	UpdatedAt       int64
}

// LinkInfo is one internal link between two pages
type LinkInfo struct {
	ID        string
	Source    string
	Target    string
	Type      string
	Anchor    string
	CreatedAt int64
}

// Snapshot holds the link graph with precomputed adjacency lists and the
// cluster (equipment type) of every page
type Snapshot struct {
	Pages    map[string]*PageInfo
	Links    []LinkInfo
	Adj      map[string][]string // undirected
	OutAdj   map[string][]string // source -> targets
	InAdj    map[string][]string // target -> sources
	Clusters map[string]string   // page id -> equipment type id
}

// NewSnapshot builds a Snapshot from raw pages and links. Links touching an
// unknown page and self links are dropped.
func NewSnapshot(pages []*PageInfo, links []LinkInfo) *Snapshot {
	pageMap := make(map[string]*PageInfo, len(pages))
	adj := make(map[string][]string, len(pages))
	outAdj := make(map[string][]string, len(pages))
	inAdj := make(map[string][]string, len(pages))
	clusters := make(map[string]string, len(pages))

	for _, p := range pages {
		pageMap[p.ID] = p
		adj[p.ID] = nil
		outAdj[p.ID] = nil
		inAdj[p.ID] = nil
		clusters[p.ID] = clusterOf(p)
	}

	kept := make([]LinkInfo, 0, len(links))
	for _, l := range links {
		if l.Source == l.Target {
			continue
		}
		if _, ok := pageMap[l.Source]; !ok {
			continue
		}
		if _, ok := pageMap[l.Target]; !ok {
			continue
		}
		kept = append(kept, l)
		adj[l.Source] = append(adj[l.Source], l.Target)
		adj[l.Target] = append(adj[l.Target], l.Source)
		outAdj[l.Source] = append(outAdj[l.Source], l.Target)
		inAdj[l.Target] = append(inAdj[l.Target], l.Source)
	}

	return &Snapshot{
		Pages:    pageMap,
		Links:    kept,
		Adj:      adj,
		OutAdj:   outAdj,
		InAdj:    inAdj,
		Clusters: clusters,
	}
}

// FilterToCluster returns a new snapshot containing only the pages of one
// equipment type and the links between them
func (s *Snapshot) FilterToCluster(equipmentTypeID string) *Snapshot {
	var pages []*PageInfo
	included := make(map[string]bool)
	for _, id := range s.PageIDs() {
		if s.Clusters[id] == equipmentTypeID {
			pages = append(pages, s.Pages[id])
			included[id] = true
		}
	}

	var links []LinkInfo
	for _, l := range s.Links {
		if included[l.Source] && included[l.Target] {
			links = append(links, l)
		}
	}
	return NewSnapshot(pages, links)
}

// PageIDs returns a sorted list of all page IDs (for deterministic output)
func (s *Snapshot) PageIDs() []string {
	ids := make([]string, 0, len(s.Pages))
	for id := range s.Pages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HasLink reports whether source links to target.
func (s *Snapshot) HasLink(source, target string) bool {
	for _, t := range s.OutAdj[source] {
		if t == target {
			return true
		}
	}
	return false
}

func clusterOf(p *PageInfo) string {
	if p.EquipmentTypeID != "" {
		return p.EquipmentTypeID
	}
	return "unassigned"
}
