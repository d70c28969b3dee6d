package decision

import (
	"errors"
	"fmt"

	"equipflow/sei/internal/classify"
	"equipflow/sei/internal/db"
	"equipflow/sei/internal/logger"
)

// Decision reports the actions taken for one keyword.
type Decision struct {
	Keyword         string   `json:"keyword"`
	EquipmentTypeID string   `json:"equipment_type_id"`
	HubID           string   `json:"hub_id"`
	Actions         []string `json:"actions"`
	PagesCreated    int      `json:"pages_created"`
	PagesSkipped    int      `json:"pages_skipped"`
	CreatedIDs      []string `json:"created_ids,omitempty"`
}

// Engine maps classifications onto registry pages.
type Engine struct {
	db       *db.DB
	clusters *ClusterBuilder
	log      *logger.Logger
}

// NewEngine creates a decision engine over the registry.
func NewEngine(d *db.DB, log *logger.Logger) *Engine {
	return &Engine{
		db:       d,
		clusters: NewClusterBuilder(d, log),
		log:      log.Component("decision"),
	}
}

// Clusters returns the engine's cluster builder.
func (e *Engine) Clusters() *ClusterBuilder { return e.clusters }

// Decide ensures the pages named by c exist. A missing hub always brings its
// full default cluster first; the keyword's own spoke is then created unless
// a spoke with the same identity key exists.
func (e *Engine) Decide(c *classify.Classification, volume, kd int) (*Decision, error) {
	d := &Decision{Keyword: c.Keyword}

	et, _, err := e.db.GetOrCreateEquipmentType(c.EquipmentType)
	if err != nil {
		return nil, fmt.Errorf("resolving equipment type %q: %w", c.EquipmentType, err)
	}
	d.EquipmentTypeID = et.ID

	hub, err := e.db.FindHub(et.ID)
	if err != nil {
		return nil, err
	}
	if hub == nil {
		e.log.Info("hub missing, creating cluster", "equipment", et.Name)
		cluster, err := e.clusters.BuildCluster(et)
		if err != nil {
			return nil, err
		}
		hub = cluster.Hub
		d.PagesCreated += cluster.PagesCreated
		d.CreatedIDs = append(d.CreatedIDs, cluster.CreatedIDs...)
		d.Actions = append(d.Actions, fmt.Sprintf("Created cluster: %d pages", cluster.PagesCreated))
	} else if c.IsHub() {
		d.PagesSkipped++
		d.Actions = append(d.Actions, "Skipped: hub exists")
	}
	d.HubID = hub.ID

	if c.IsHub() {
		return d, nil
	}

	var (
		brandID   *string
		brandSlug string
	)
	if c.Brand != nil {
		brand, err := e.db.GetOrCreateBrand(*c.Brand)
		if err != nil {
			return nil, fmt.Errorf("resolving brand %q: %w", *c.Brand, err)
		}
		brandID, brandSlug = &brand.ID, brand.Slug
	}

	key := db.IdentityKey{
		EquipmentTypeID: et.ID,
		SpokeType:       c.SpokeType,
		Geo:             c.Geo,
		Modifier:        c.Modifier,
		BrandID:         brandID,
	}
	existing, err := e.db.FindSpoke(key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		e.log.Info("page already exists", "keyword", c.Keyword, "id", existing.ID)
		d.PagesSkipped++
		d.Actions = append(d.Actions, fmt.Sprintf("Skipped: %s page exists", c.SpokeType))
		return d, nil
	}

	spoke := &db.Node{
		PrimaryKeyword:  c.Keyword,
		URLSlug:         SpokeSlug(et.Slug, c.SpokeType, brandSlug, c.Geo, c.Modifier),
		PageCategory:    db.CategorySpoke,
		SpokeType:       ptr(c.SpokeType),
		EquipmentTypeID: et.ID,
		ParentHubID:     &hub.ID,
		Geo:             c.Geo,
		Modifier:        c.Modifier,
		BrandID:         brandID,
		CommercialScore: c.CommercialScore,
		Volume:          volume,
		Difficulty:      kd,
	}
	if err := e.db.InsertNode(spoke); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			d.PagesSkipped++
			d.Actions = append(d.Actions, fmt.Sprintf("Skipped: %s already taken", spoke.URLSlug))
			return d, nil
		}
		return nil, fmt.Errorf("creating spoke for %q: %w", c.Keyword, err)
	}
	e.log.Info("created spoke", "keyword", c.Keyword, "slug", spoke.URLSlug, "id", spoke.ID)
	d.PagesCreated++
	d.CreatedIDs = append(d.CreatedIDs, spoke.ID)
	d.Actions = append(d.Actions, fmt.Sprintf("Created %s spoke", c.SpokeType))

	if err := e.clusters.RebuildSpokeGrid(hub); err != nil {
		return nil, err
	}
	return d, nil
}
