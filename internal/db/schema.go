package db

const schema = `
CREATE TABLE IF NOT EXISTS equipment_types (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	hub_node_id TEXT,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS brands (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS nodes (
	id TEXT PRIMARY KEY,
	primary_keyword TEXT NOT NULL,
	url_slug TEXT NOT NULL UNIQUE CHECK (length(url_slug) BETWEEN 1 AND 100),
	node_type TEXT NOT NULL CHECK (node_type IN ('hub', 'spoke')),
	page_category TEXT NOT NULL CHECK (page_category = node_type),
	spoke_type TEXT CHECK (spoke_type IN ('financing', 'for-sale', 'rental', 'brand', 'modifier')),
	equipment_type_id TEXT NOT NULL REFERENCES equipment_types(id),
	parent_hub_id TEXT REFERENCES nodes(id),
	geo TEXT,
	modifier TEXT,
	brand_id TEXT REFERENCES brands(id),
	status TEXT NOT NULL DEFAULT 'discovery'
		CHECK (status IN ('discovery', 'ready_to_publish', 'blocked_quality', 'published')),
	generated_content TEXT,
	word_count INTEGER NOT NULL DEFAULT 0,
	faq_count INTEGER NOT NULL DEFAULT 0,
	content_version INTEGER NOT NULL DEFAULT 0,
	short_description TEXT NOT NULL DEFAULT '',
	hero_image_url TEXT NOT NULL DEFAULT '',
	hero_image_alt TEXT NOT NULL DEFAULT '',
	schema_json TEXT NOT NULL DEFAULT '',
	webflow_item_id TEXT,
	serp_signature_hash TEXT,
	lsi_keywords TEXT NOT NULL DEFAULT '[]',
	sources_used TEXT NOT NULL DEFAULT '[]',
	gate_reasons TEXT NOT NULL DEFAULT '[]',
	spoke_grid TEXT NOT NULL DEFAULT '[]',
	commercial_score REAL NOT NULL DEFAULT 0,
	volume INTEGER NOT NULL DEFAULT 0,
	difficulty INTEGER NOT NULL DEFAULT 0,
	last_intelligence_at INTEGER,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	CHECK ((node_type = 'hub' AND spoke_type IS NULL AND parent_hub_id IS NULL)
		OR (node_type = 'spoke' AND spoke_type IS NOT NULL AND parent_hub_id IS NOT NULL))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_nodes_one_hub
	ON nodes(equipment_type_id) WHERE page_category = 'hub';

CREATE UNIQUE INDEX IF NOT EXISTS idx_nodes_spoke_identity
	ON nodes(equipment_type_id, spoke_type, IFNULL(geo, ''), IFNULL(modifier, ''), IFNULL(brand_id, ''))
	WHERE page_category = 'spoke';

CREATE INDEX IF NOT EXISTS idx_nodes_status_updated ON nodes(status, updated_at);
CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_hub_id);

CREATE TRIGGER IF NOT EXISTS trg_spoke_requires_hub
BEFORE INSERT ON nodes
WHEN NEW.page_category = 'spoke' AND NOT EXISTS (
	SELECT 1 FROM nodes h
	WHERE h.id = NEW.parent_hub_id
	  AND h.page_category = 'hub'
	  AND h.equipment_type_id = NEW.equipment_type_id
)
BEGIN
	SELECT RAISE(ABORT, 'spoke parent must be a hub of the same equipment type');
END;

CREATE TABLE IF NOT EXISTS edges (
	id TEXT PRIMARY KEY,
	source_id TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	target_id TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	anchor TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	UNIQUE (source_id, target_id)
);

CREATE TABLE IF NOT EXISTS keyword_queue (
	keyword TEXT PRIMARY KEY,
	volume INTEGER NOT NULL DEFAULT 0,
	kd INTEGER NOT NULL DEFAULT 0,
	source TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'unprocessed' CHECK (status IN ('unprocessed', 'processed')),
	created_at INTEGER NOT NULL,
	processed_at INTEGER
);

CREATE INDEX IF NOT EXISTS idx_queue_pending ON keyword_queue(status, volume DESC);

CREATE TABLE IF NOT EXISTS publishing_control (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	publishing_enabled INTEGER NOT NULL DEFAULT 1,
	updated_at INTEGER NOT NULL
);

INSERT OR IGNORE INTO publishing_control (id, publishing_enabled, updated_at) VALUES (1, 1, 0);

CREATE TABLE IF NOT EXISTS rankings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	node_id TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	keyword TEXT NOT NULL,
	position REAL NOT NULL DEFAULT 0,
	clicks INTEGER NOT NULL DEFAULT 0,
	impressions INTEGER NOT NULL DEFAULT 0,
	tracked_at INTEGER NOT NULL
);
`
