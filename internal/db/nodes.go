package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const nodeColumns = `id, primary_keyword, url_slug, node_type, page_category, spoke_type,
	equipment_type_id, parent_hub_id, geo, modifier, brand_id, status,
	generated_content, word_count, faq_count, content_version, short_description,
	hero_image_url, hero_image_alt, schema_json, webflow_item_id, serp_signature_hash,
	lsi_keywords, sources_used, gate_reasons, spoke_grid, commercial_score,
	volume, difficulty, last_intelligence_at, created_at, updated_at`

// scanNode scans a row into a Node. The row must have all nodeColumns in order.
func scanNode(scanner interface{ Scan(dest ...any) error }) (Node, error) {
	var (
		n                           Node
		content                     sql.NullString
		lsi, sources, reasons, grid string
	)
	err := scanner.Scan(
		&n.ID, &n.PrimaryKeyword, &n.URLSlug, &n.NodeType, &n.PageCategory, &n.SpokeType,
		&n.EquipmentTypeID, &n.ParentHubID, &n.Geo, &n.Modifier, &n.BrandID, &n.Status,
		&content, &n.WordCount, &n.FAQCount, &n.ContentVersion, &n.ShortDescription,
		&n.HeroImageURL, &n.HeroImageAlt, &n.SchemaJSON, &n.WebflowItemID, &n.SERPSignature,
		&lsi, &sources, &reasons, &grid, &n.CommercialScore,
		&n.Volume, &n.Difficulty, &n.LastIntelligenceAt, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return n, err
	}

	if content.Valid && content.String != "" {
		var c Content
		if err := json.Unmarshal([]byte(content.String), &c); err != nil {
			return n, fmt.Errorf("decoding content of %s: %w", n.ID, err)
		}
		n.Content = &c
	}
	for _, col := range []struct {
		raw string
		dst any
	}{
		{lsi, &n.LSIKeywords},
		{sources, &n.SourcesUsed},
		{reasons, &n.GateReasons},
		{grid, &n.SpokeGrid},
	} {
		if col.raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(col.raw), col.dst); err != nil {
			return n, fmt.Errorf("decoding json column of %s: %w", n.ID, err)
		}
	}
	return n, nil
}

func (d *DB) queryNodes(query string, args ...any) ([]Node, error) {
	rows, err := d.conn.Query(`SELECT `+nodeColumns+` FROM nodes `+query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (d *DB) queryNode(query string, args ...any) (*Node, error) {
	n, err := scanNode(d.conn.QueryRow(`SELECT `+nodeColumns+` FROM nodes `+query, args...))
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func jsonColumn(v any) string {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return "[]"
	}
	return string(data)
}

func contentColumn(c *Content) any {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil
	}
	return string(data)
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func checkShape(n *Node) error {
	if n.NodeType == "" {
		n.NodeType = n.PageCategory
	}
	if n.PageCategory == "" {
		n.PageCategory = n.NodeType
	}
	var problems []string
	if n.NodeType != n.PageCategory {
		problems = append(problems, "node_type must mirror page_category")
	}
	if n.PrimaryKeyword == "" {
		problems = append(problems, "primary_keyword is required")
	}
	if n.URLSlug == "" {
		problems = append(problems, "url_slug is required")
	}
	if n.EquipmentTypeID == "" {
		problems = append(problems, "equipment_type_id is required")
	}
	switch n.PageCategory {
	case CategoryHub:
		if n.SpokeType != nil || n.ParentHubID != nil {
			problems = append(problems, "hub cannot carry spoke_type or parent_hub_id")
		}
	case CategorySpoke:
		if n.SpokeType == nil || !ValidSpokeType(*n.SpokeType) {
			problems = append(problems, "spoke requires a valid spoke_type")
		}
		if n.ParentHubID == nil {
			problems = append(problems, "spoke requires parent_hub_id")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown page_category %q", n.PageCategory))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidNode, strings.Join(problems, "; "))
	}
	return nil
}

// InsertNode persists a new hub or spoke. ID, status and timestamps are filled
// in when empty. Identity collisions return ErrDuplicate.
func (d *DB) InsertNode(n *Node) error {
	n.Geo, n.Modifier, n.BrandID = blankToNil(n.Geo), blankToNil(n.Modifier), blankToNil(n.BrandID)
	if err := checkShape(n); err != nil {
		return err
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Status == "" {
		n.Status = StatusDiscovery
	}
	now := d.nowMillis()
	if n.CreatedAt == 0 {
		n.CreatedAt = now
	}
	n.UpdatedAt = now

	_, err := d.conn.Exec(`
		INSERT INTO nodes (`+nodeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		n.ID, n.PrimaryKeyword, n.URLSlug, n.NodeType, n.PageCategory, n.SpokeType,
		n.EquipmentTypeID, n.ParentHubID, n.Geo, n.Modifier, n.BrandID, n.Status,
		contentColumn(n.Content), n.WordCount, n.FAQCount, n.ContentVersion, n.ShortDescription,
		n.HeroImageURL, n.HeroImageAlt, n.SchemaJSON, n.WebflowItemID, n.SERPSignature,
		jsonColumn(n.LSIKeywords), jsonColumn(n.SourcesUsed), jsonColumn(n.GateReasons), jsonColumn(n.SpokeGrid),
		n.CommercialScore, n.Volume, n.Difficulty, n.LastIntelligenceAt, n.CreatedAt, n.UpdatedAt,
	)
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("inserting %s: %w", n.URLSlug, ErrDuplicate)
	case err != nil && strings.Contains(err.Error(), "spoke parent must be a hub"):
		return fmt.Errorf("inserting %s: %w: parent hub missing or of another equipment type", n.URLSlug, ErrInvalidNode)
	case err != nil:
		return fmt.Errorf("inserting %s: %w", n.URLSlug, err)
	}
	return nil
}

// GetNode returns a single node by ID.
func (d *DB) GetNode(id string) (*Node, error) {
	n, err := d.queryNode(`WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err, "node", id)
	}
	return n, nil
}

// GetNodeBySlug returns a node by url_slug.
func (d *DB) GetNodeBySlug(slug string) (*Node, error) {
	n, err := d.queryNode(`WHERE url_slug = ?`, slug)
	if err != nil {
		return nil, notFound(err, "node with slug", slug)
	}
	return n, nil
}

// FindHub returns the hub of an equipment type, or nil when none exists.
func (d *DB) FindHub(equipmentTypeID string) (*Node, error) {
	n, err := d.queryNode(`WHERE equipment_type_id = ? AND page_category = 'hub'`, equipmentTypeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding hub for %s: %w", equipmentTypeID, err)
	}
	return n, nil
}

// FindSpoke returns the spoke matching key, or nil when none exists.
// Every discriminator is compared with IS, so an absent value only matches NULL.
func (d *DB) FindSpoke(key IdentityKey) (*Node, error) {
	n, err := d.queryNode(`
		WHERE equipment_type_id = ? AND page_category = 'spoke' AND spoke_type = ?
		  AND geo IS ? AND modifier IS ? AND brand_id IS ?
	`, key.EquipmentTypeID, key.SpokeType, blankToNil(key.Geo), blankToNil(key.Modifier), blankToNil(key.BrandID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding spoke: %w", err)
	}
	return n, nil
}

// AllNodes returns all nodes ordered by created_at
func (d *DB) AllNodes() ([]Node, error) {
	return d.queryNodes(`ORDER BY created_at, id`)
}

// ListSpokes returns the spokes of an equipment type in creation order.
func (d *DB) ListSpokes(equipmentTypeID string) ([]Node, error) {
	return d.queryNodes(`WHERE equipment_type_id = ? AND page_category = 'spoke' ORDER BY created_at, id`, equipmentTypeID)
}

// ListChildren returns the spokes whose parent is hubID.
func (d *DB) ListChildren(hubID string) ([]Node, error) {
	return d.queryNodes(`WHERE parent_hub_id = ? ORDER BY created_at, id`, hubID)
}

// ListHubs returns up to limit hubs of other equipment types, highest volume first.
func (d *DB) ListHubs(excludeEquipmentTypeID string, limit int) ([]Node, error) {
	return d.queryNodes(`
		WHERE page_category = 'hub' AND equipment_type_id != ?
		ORDER BY volume DESC, created_at, id LIMIT ?
	`, excludeEquipmentTypeID, limit)
}

// NodesForEquipment returns the nodes of an equipment type in a given status,
// hub first. An empty status matches every status.
func (d *DB) NodesForEquipment(equipmentTypeID, status string) ([]Node, error) {
	return d.queryNodes(`
		WHERE equipment_type_id = ? AND (? = '' OR status = ?)
		ORDER BY CASE page_category WHEN 'hub' THEN 0 ELSE 1 END, created_at, id
	`, equipmentTypeID, status, status)
}

// NodesByStatus returns nodes in the given status, oldest first.
func (d *DB) NodesByStatus(status string) ([]Node, error) {
	return d.queryNodes(`WHERE status = ? ORDER BY created_at, id`, status)
}

// StalePublished returns published nodes last updated before cutoff (Unix
// millis), least recently updated first.
func (d *DB) StalePublished(cutoff int64, limit int) ([]Node, error) {
	return d.queryNodes(`
		WHERE status = 'published' AND updated_at < ?
		ORDER BY updated_at ASC, id LIMIT ?
	`, cutoff, limit)
}

// RecentlyUpdated returns the most recently updated nodes in status.
func (d *DB) RecentlyUpdated(status string, limit int) ([]Node, error) {
	return d.queryNodes(`WHERE status = ? ORDER BY updated_at DESC, id LIMIT ?`, status, limit)
}

// SearchByIDPrefix finds nodes whose ID starts with the given prefix.
func (d *DB) SearchByIDPrefix(prefix string, limit int) ([]Node, error) {
	return d.queryNodes(`WHERE id LIKE ? ORDER BY id LIMIT ?`, prefix+"%", limit)
}

// KnownKeywords returns the set of primary keywords already owned by a page,
// lowercased and trimmed.
func (d *DB) KnownKeywords() (map[string]bool, error) {
	rows, err := d.conn.Query(`SELECT primary_keyword FROM nodes`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	known := make(map[string]bool)
	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return nil, err
		}
		known[strings.Join(strings.Fields(strings.ToLower(kw)), " ")] = true
	}
	return known, rows.Err()
}

// StatusCounts returns the number of nodes per status.
func (d *DB) StatusCounts() (map[string]int, error) {
	rows, err := d.conn.Query(`SELECT status, COUNT(*) FROM nodes GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
