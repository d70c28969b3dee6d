package graph

import (
	"sort"

	"equipflow/sei/internal/db"
)

// LinkedPage is a page ranked by how many pages link to it
type LinkedPage struct {
	ID        string `json:"id"`
	Keyword   string `json:"keyword"`
	Slug      string `json:"slug"`
	InDegree  int    `json:"in_degree"`
	OutDegree int    `json:"out_degree"`
}

// DegreeBucket is one bucket in the inbound-link histogram
type DegreeBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TopologyReport contains link-graph structure results
type TopologyReport struct {
	TotalPages       int            `json:"total_pages"`
	TotalLinks       int            `json:"total_links"`
	NumComponents    int            `json:"num_components"`
	LargestComponent int            `json:"largest_component"`
	OrphanCount      int            `json:"orphan_count"`
	OrphanIDs        []string       `json:"orphan_ids"`
	UnlinkedCount    int            `json:"unlinked_count"`
	UnlinkedIDs      []string       `json:"unlinked_ids"`
	DetachedSpokes   []string       `json:"detached_spokes"`
	InboundHistogram []DegreeBucket `json:"inbound_histogram"`
	MostLinked       []LinkedPage   `json:"most_linked"`
}

// ComputeTopology analyzes the link graph: components, orphan pages (no links
// either way), unlinked pages (nothing links to them), spokes that do not link
// to their hub, and the topN most linked pages
func ComputeTopology(snap *Snapshot, topN int) *TopologyReport {
	if len(snap.Pages) == 0 {
		return &TopologyReport{InboundHistogram: defaultHistogram()}
	}

	ids := snap.PageIDs()
	uf := NewUnionFind(ids)
	for _, l := range snap.Links {
		uf.Union(l.Source, l.Target)
	}
	components := uf.Components()

	var orphans, unlinked, detached []string
	buckets := defaultHistogram()
	for _, id := range ids {
		if len(snap.Adj[id]) == 0 {
			orphans = append(orphans, id)
		}
		in := len(snap.InAdj[id])
		if in == 0 {
			unlinked = append(unlinked, id)
		}
		buckets[degreeBucket(in)].Count++

		p := snap.Pages[id]
		if p.Category == db.CategorySpoke && p.ParentHubID != nil {
			if _, ok := snap.Pages[*p.ParentHubID]; ok && !snap.HasLink(id, *p.ParentHubID) {
				detached = append(detached, id)
			}
		}
	}

	return &TopologyReport{
		TotalPages:       len(snap.Pages),
		TotalLinks:       len(snap.Links),
		NumComponents:    len(components),
		LargestComponent: len(components[0]),
		OrphanCount:      len(orphans),
		OrphanIDs:        truncate(orphans, topN),
		UnlinkedCount:    len(unlinked),
		UnlinkedIDs:      truncate(unlinked, topN),
		DetachedSpokes:   detached,
		InboundHistogram: buckets,
		MostLinked:       mostLinked(snap, ids, topN),
	}
}

func mostLinked(snap *Snapshot, ids []string, topN int) []LinkedPage {
	var pages []LinkedPage
	for _, id := range ids {
		in := len(snap.InAdj[id])
		if in == 0 {
			continue
		}
		p := snap.Pages[id]
		pages = append(pages, LinkedPage{
			ID:        id,
			Keyword:   p.Keyword,
			Slug:      p.Slug,
			InDegree:  in,
			OutDegree: len(snap.OutAdj[id]),
		})
	}
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].InDegree > pages[j].InDegree })
	return truncate(pages, topN)
}

func truncate[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}

func defaultHistogram() []DegreeBucket {
	return []DegreeBucket{
		{Label: "0"}, {Label: "1"}, {Label: "2-3"},
		{Label: "4-7"}, {Label: "8-15"}, {Label: "16+"},
	}
}

func degreeBucket(degree int) int {
	switch {
	case degree == 0:
		return 0
	case degree == 1:
		return 1
	case degree <= 3:
		return 2
	case degree <= 7:
		return 3
	case degree <= 15:
		return 4
	default:
		return 5
	}
}
