package graph

import "equipflow/sei/internal/db"

// SnapshotFromDB loads the page and link graph from the registry
func SnapshotFromDB(d *db.DB) (*Snapshot, error) {
	dbNodes, err := d.AllNodes()
	if err != nil {
		return nil, err
	}
	dbEdges, err := d.AllEdges()
	if err != nil {
		return nil, err
	}

	pages := make([]*PageInfo, 0, len(dbNodes))
	for _, n := range dbNodes {
		var parent *string
		if n.ParentHubID != nil {
			p := *n.ParentHubID
			parent = &p
		}
		pages = append(pages, &PageInfo{
			ID:              n.ID,
			Keyword:         n.PrimaryKeyword,
			Slug:            n.URLSlug,
			Category:        n.PageCategory,
			SpokeType:       n.SpokeTypeOr(""),
			Status:          n.Status,
			EquipmentTypeID: n.EquipmentTypeID,
			ParentHubID:     parent,
			CreatedAt:       n.CreatedAt,
			UpdatedAt:       n.UpdatedAt,
		})
	}

	links := make([]LinkInfo, 0, len(dbEdges))
	for _, e := range dbEdges {
		links = append(links, LinkInfo{
			ID:        e.ID,
			Source:    e.SourceID,
			Target:    e.TargetID,
			Type:      e.EdgeType,
			Anchor:    e.Anchor,
			CreatedAt: e.CreatedAt,
		})
	}

	return NewSnapshot(pages, links), nil
}
