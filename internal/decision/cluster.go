// Package decision decides which pages must exist for a classified keyword
// and creates the missing ones. Creation is idempotent: the registry's
// identity checks run first and its unique indexes back them up.
package decision

import (
	"errors"
	"fmt"
	"strings"

	"equipflow/sei/internal/db"
	"equipflow/sei/internal/logger"
	"equipflow/sei/internal/textutil"
)

// HubCommercialScore is the commercial score given to new hubs.
const HubCommercialScore = 8.0

// DefaultSpoke is a spoke every cluster receives.
type DefaultSpoke struct {
	Type   string
	Suffix string
}

// DefaultSpokes is the spoke set created with every hub.
var DefaultSpokes = []DefaultSpoke{
	{Type: db.SpokeFinancing, Suffix: "financing"},
	{Type: db.SpokeForSale, Suffix: "for sale"},
	{Type: db.SpokeRental, Suffix: "rental"},
}

var gridTitles = map[string]string{
	db.SpokeFinancing: "Financing",
	db.SpokeForSale:   "For Sale",
	db.SpokeRental:    "Rental",
	db.SpokeBrand:     "Brands",
	db.SpokeModifier:  "Special Options",
}

// ClusterResult reports what BuildCluster created.
type ClusterResult struct {
	Hub          *db.Node
	PagesCreated int
	CreatedIDs   []string
}

// ClusterBuilder creates the hub and default spokes of an equipment type.
type ClusterBuilder struct {
	db  *db.DB
	log *logger.Logger
}

// NewClusterBuilder creates a cluster builder over the registry.
func NewClusterBuilder(d *db.DB, log *logger.Logger) *ClusterBuilder {
	return &ClusterBuilder{db: d, log: log.Component("cluster")}
}

// BuildCluster ensures the hub and every default spoke of et exist, then
// rebuilds the hub's spoke grid. Running it again creates nothing.
func (b *ClusterBuilder) BuildCluster(et *db.EquipmentType) (*ClusterResult, error) {
	result := &ClusterResult{}

	hub, created, err := b.ensureHub(et)
	if err != nil {
		return nil, err
	}
	result.Hub = hub
	if created {
		result.PagesCreated++
		result.CreatedIDs = append(result.CreatedIDs, hub.ID)
	}

	name := strings.ToLower(et.Name)
	for _, ds := range DefaultSpokes {
		key := db.IdentityKey{EquipmentTypeID: et.ID, SpokeType: ds.Type}
		existing, err := b.db.FindSpoke(key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			continue
		}

		spoke := &db.Node{
			PrimaryKeyword:  name + " " + ds.Suffix,
			URLSlug:         SpokeSlug(et.Slug, ds.Type, "", nil, nil),
			PageCategory:    db.CategorySpoke,
			SpokeType:       ptr(ds.Type),
			EquipmentTypeID: et.ID,
			ParentHubID:     &hub.ID,
		}
		if err := b.db.InsertNode(spoke); err != nil {
			if errors.Is(err, db.ErrDuplicate) {
				b.log.Warn("default spoke already present", "slug", spoke.URLSlug)
				continue
			}
			return nil, fmt.Errorf("creating %s spoke: %w", ds.Type, err)
		}
		b.log.Info("created spoke", "keyword", spoke.PrimaryKeyword, "id", spoke.ID)
		result.PagesCreated++
		result.CreatedIDs = append(result.CreatedIDs, spoke.ID)
	}

	if err := b.RebuildSpokeGrid(hub); err != nil {
		return nil, err
	}
	return result, nil
}

func (b *ClusterBuilder) ensureHub(et *db.EquipmentType) (*db.Node, bool, error) {
	hub, err := b.db.FindHub(et.ID)
	if err != nil {
		return nil, false, err
	}
	if hub != nil {
		return hub, false, nil
	}

	hub = &db.Node{
		PrimaryKeyword:  et.Name,
		URLSlug:         et.Slug,
		PageCategory:    db.CategoryHub,
		EquipmentTypeID: et.ID,
		CommercialScore: HubCommercialScore,
	}
	if err := b.db.InsertNode(hub); err != nil {
		if !errors.Is(err, db.ErrDuplicate) {
			return nil, false, fmt.Errorf("creating hub %s: %w", et.Slug, err)
		}
		hub, err = b.db.FindHub(et.ID)
		if err != nil {
			return nil, false, fmt.Errorf("re-reading hub %s: %w", et.Slug, err)
		}
		if hub != nil {
			return hub, false, nil
		}
		// No hub appeared, so the slug belongs to some other page.
		if other, err := b.db.GetNodeBySlug(et.Slug); err == nil {
			return nil, false, fmt.Errorf("creating hub %s: used by %s page %s: %w",
				et.Slug, other.PageCategory, other.ID, db.ErrSlugTaken)
		}
		return nil, false, fmt.Errorf("re-reading hub %s: %w", et.Slug, db.ErrNotFound)
	}
	if err := b.db.SetEquipmentHub(et.ID, hub.ID); err != nil {
		return nil, false, err
	}
	b.log.Info("created hub", "equipment", et.Name, "id", hub.ID)
	return hub, true, nil
}

// RebuildSpokeGrid replaces the hub's spoke index with its current spokes.
func (b *ClusterBuilder) RebuildSpokeGrid(hub *db.Node) error {
	spokes, err := b.db.ListSpokes(hub.EquipmentTypeID)
	if err != nil {
		return fmt.Errorf("listing spokes of %s: %w", hub.URLSlug, err)
	}
	grid := make([]db.SpokeGridEntry, 0, len(spokes))
	for _, s := range spokes {
		st := s.SpokeTypeOr("")
		title, ok := gridTitles[st]
		if !ok {
			title = textutil.TitleCase(st)
		}
		grid = append(grid, db.SpokeGridEntry{
			NodeID:  s.ID,
			URL:     s.PublicPath(),
			Title:   title,
			Keyword: s.PrimaryKeyword,
		})
	}
	return b.db.SetSpokeGrid(hub.ID, grid)
}

// SpokeSlug builds a spoke slug: equipment, spoke type (dashes as spaces),
// then any brand, geo and modifier.
func SpokeSlug(equipment, spokeType, brand string, geo, modifier *string) string {
	parts := []string{equipment, strings.ReplaceAll(spokeType, "-", " ")}
	if brand != "" {
		parts = append(parts, brand)
	}
	if geo != nil {
		parts = append(parts, *geo)
	}
	if modifier != nil {
		parts = append(parts, *modifier)
	}
	return textutil.Slugify(strings.Join(parts, " "))
}

func ptr(s string) *string { return &s }
