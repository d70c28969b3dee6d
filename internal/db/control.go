package db

import "fmt"

// PublishingEnabled reads the persisted kill switch. False means an operator
// has stopped all publishing.
func (d *DB) PublishingEnabled() (bool, error) {
	var enabled bool
	if err := d.conn.QueryRow(`SELECT publishing_enabled FROM publishing_control WHERE id = 1`).Scan(&enabled); err != nil {
		return false, fmt.Errorf("reading kill switch: %w", err)
	}
	return enabled, nil
}

// SetPublishingEnabled flips the persisted kill switch.
func (d *DB) SetPublishingEnabled(enabled bool) error {
	_, err := d.conn.Exec(`
		INSERT INTO publishing_control (id, publishing_enabled, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET publishing_enabled = excluded.publishing_enabled, updated_at = excluded.updated_at
	`, enabled, d.nowMillis())
	if err != nil {
		return fmt.Errorf("setting kill switch: %w", err)
	}
	return nil
}

// RecordRanking appends an observed search position for a page.
func (d *DB) RecordRanking(r Ranking) error {
	if r.TrackedAt == 0 {
		r.TrackedAt = d.nowMillis()
	}
	_, err := d.conn.Exec(`
		INSERT INTO rankings (node_id, keyword, position, clicks, impressions, tracked_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.NodeID, r.Keyword, r.Position, r.Clicks, r.Impressions, r.TrackedAt)
	if err != nil {
		return fmt.Errorf("recording ranking for %s: %w", r.NodeID, err)
	}
	return nil
}

// LatestRankings returns the most recent ranking row per node.
func (d *DB) LatestRankings() ([]Ranking, error) {
	rows, err := d.conn.Query(`
		SELECT r.node_id, r.keyword, r.position, r.clicks, r.impressions, r.tracked_at
		FROM rankings r
		WHERE r.id = (SELECT MAX(id) FROM rankings WHERE node_id = r.node_id)
		ORDER BY r.position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Ranking
	for rows.Next() {
		var r Ranking
		if err := rows.Scan(&r.NodeID, &r.Keyword, &r.Position, &r.Clicks, &r.Impressions, &r.TrackedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
