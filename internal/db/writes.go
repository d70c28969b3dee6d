package db

import (
	"fmt"

	"github.com/google/uuid"
)

// Generation carries the outcome of a content run that is stored whether or
// not the body itself passes the version guard.
type Generation struct {
	Status           string
	FAQCount         int
	SourcesUsed      []string
	GateReasons      []string
	ShortDescription string
	SchemaJSON       string
}

// LinkEdge is an outgoing internal link to persist.
type LinkEdge struct {
	TargetID string
	Type     string
	Anchor   string
}

func (d *DB) execOne(what, id, query string, args ...any) error {
	res, err := d.conn.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("%s %s: %w", what, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}

// SaveContent replaces the body of a node and increments content_version,
// provided the stored version still equals expectedVersion. Returns the new
// version.
func (d *DB) SaveContent(id string, expectedVersion int, c *Content, wordCount int) (int, error) {
	res, err := d.conn.Exec(`
		UPDATE nodes
		SET generated_content = ?, word_count = ?, content_version = content_version + 1, updated_at = ?
		WHERE id = ? AND content_version = ?
	`, contentColumn(c), wordCount, d.nowMillis(), id, expectedVersion)
	if err != nil {
		return 0, fmt.Errorf("saving content of %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := d.GetNode(id); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("saving content of %s at version %d: %w", id, expectedVersion, ErrVersionConflict)
	}
	return expectedVersion + 1, nil
}

// SaveGeneration stores gate status, sources, schema and short description.
func (d *DB) SaveGeneration(id string, g Generation) error {
	return d.execOne("saving generation of", id, `
		UPDATE nodes
		SET status = ?, faq_count = ?, sources_used = ?, gate_reasons = ?,
		    short_description = ?, schema_json = ?, updated_at = ?
		WHERE id = ?
	`, g.Status, g.FAQCount, jsonColumn(g.SourcesUsed), jsonColumn(g.GateReasons), g.ShortDescription, g.SchemaJSON, d.nowMillis(), id)
}

// SetSERPSignature records the SERP hash of a node along with the keywords
// and sources derived from that SERP.
func (d *DB) SetSERPSignature(id, hash string, lsi, sources []string) error {
	now := d.nowMillis()
	return d.execOne("saving serp signature of", id, `
		UPDATE nodes
		SET serp_signature_hash = ?, lsi_keywords = ?, sources_used = ?, last_intelligence_at = ?
		WHERE id = ?
	`, hash, jsonColumn(lsi), jsonColumn(sources), now, id)
}

// SetLinks stores link-injected content without bumping the version and
// replaces the outgoing link edges of the node in one transaction. The write
// is rejected with ErrVersionConflict if the body changed since it was read.
func (d *DB) SetLinks(id string, expectedVersion int, c *Content, links []LinkEdge) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("starting link transaction: %w", err)
	}
	defer tx.Rollback()

	now := d.nowMillis()
	res, err := tx.Exec(`
		UPDATE nodes SET generated_content = ?, updated_at = ?
		WHERE id = ? AND content_version = ?
	`, contentColumn(c), now, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("saving links of %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("saving links of %s at version %d: %w", id, expectedVersion, ErrVersionConflict)
	}

	if _, err := tx.Exec(`DELETE FROM edges WHERE source_id = ?`, id); err != nil {
		return fmt.Errorf("clearing edges of %s: %w", id, err)
	}
	for _, l := range links {
		if l.TargetID == "" || l.TargetID == id {
			continue
		}
		if _, err := tx.Exec(`
			INSERT INTO edges (id, source_id, target_id, type, anchor, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (source_id, target_id) DO NOTHING
		`, uuid.NewString(), id, l.TargetID, l.Type, l.Anchor, now); err != nil {
			return fmt.Errorf("inserting edge %s -> %s: %w", id, l.TargetID, err)
		}
	}
	return tx.Commit()
}

// SetHeroImage stores the hero image of a node.
func (d *DB) SetHeroImage(id, url, alt string) error {
	return d.execOne("saving hero image of", id,
		`UPDATE nodes SET hero_image_url = ?, hero_image_alt = ?, updated_at = ? WHERE id = ?`,
		url, alt, d.nowMillis(), id)
}

// SetWebflowItemID stamps the CMS item id without touching status.
func (d *DB) SetWebflowItemID(id, itemID string) error {
	return d.execOne("saving cms item id of", id,
		`UPDATE nodes SET webflow_item_id = ? WHERE id = ?`, itemID, id)
}

// MarkPublished sets status published and stamps the CMS item id.
func (d *DB) MarkPublished(id, itemID string) error {
	return d.execOne("marking published", id,
		`UPDATE nodes SET status = 'published', webflow_item_id = ?, updated_at = ? WHERE id = ?`,
		itemID, d.nowMillis(), id)
}

// SetStatus moves a node to another lifecycle state.
func (d *DB) SetStatus(id, status string) error {
	return d.execOne("setting status of", id,
		`UPDATE nodes SET status = ?, updated_at = ? WHERE id = ?`, status, d.nowMillis(), id)
}

// SetSpokeGrid replaces the spoke index of a hub.
func (d *DB) SetSpokeGrid(hubID string, grid []SpokeGridEntry) error {
	return d.execOne("saving spoke grid of", hubID,
		`UPDATE nodes SET spoke_grid = ?, updated_at = ? WHERE id = ? AND page_category = 'hub'`,
		jsonColumn(grid), d.nowMillis(), hubID)
}
