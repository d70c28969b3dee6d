package db

// scanEdge scans a row into an Edge.
func scanEdge(scanner interface{ Scan(dest ...any) error }) (Edge, error) {
	var e Edge
	err := scanner.Scan(&e.ID, &e.SourceID, &e.TargetID, &e.EdgeType, &e.Anchor, &e.CreatedAt)
	return e, err
}

func (d *DB) queryEdges(query string, args ...any) ([]Edge, error) {
	rows, err := d.conn.Query(`SELECT id, source_id, target_id, type, anchor, created_at FROM edges `+query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// AllEdges returns all link edges
func (d *DB) AllEdges() ([]Edge, error) {
	return d.queryEdges(`ORDER BY created_at, id`)
}

// EdgesFrom returns the outgoing links of a node.
func (d *DB) EdgesFrom(nodeID string) ([]Edge, error) {
	return d.queryEdges(`WHERE source_id = ? ORDER BY created_at, id`, nodeID)
}

// EdgesTo returns the incoming links of a node.
func (d *DB) EdgesTo(nodeID string) ([]Edge, error) {
	return d.queryEdges(`WHERE target_id = ? ORDER BY created_at, id`, nodeID)
}

// LinkTypeWeight orders link types for display and graph analysis. Structural
// hub/spoke links weigh more than topical ones.
func LinkTypeWeight(edgeType string) float64 {
	switch edgeType {
	case "parent_hub", "child_spoke":
		return 1.0
	case "sibling":
		return 0.7
	default:
		return 0.3
	}
}
