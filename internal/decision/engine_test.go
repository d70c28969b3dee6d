package decision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipflow/sei/internal/classify"
	"equipflow/sei/internal/db"
	"equipflow/sei/internal/logger"
)

func setupEngine(t *testing.T) (*Engine, *db.DB) {
	t.Helper()
	d, err := db.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	clock := time.UnixMilli(1_700_000_000_000)
	d.SetClock(func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	})
	return NewEngine(d, logger.Discard()), d
}

func strPtr(s string) *string { return &s }

func spoke(keyword, equipment, spokeType string) *classify.Classification {
	return &classify.Classification{
		Keyword:         keyword,
		EquipmentType:   equipment,
		SpokeType:       spokeType,
		PageCategory:    db.CategorySpoke,
		CommercialScore: 8,
	}
}

func countCategory(t *testing.T, d *db.DB, category string) int {
	t.Helper()
	nodes, err := d.AllNodes()
	require.NoError(t, err)
	n := 0
	for _, node := range nodes {
		if node.PageCategory == category {
			n++
		}
	}
	return n
}

func TestDecide_HubKeywordBuildsCluster(t *testing.T) {
	e, d := setupEngine(t)
	c := &classify.Classification{Keyword: "excavator", EquipmentType: "excavator", SpokeType: classify.SpokeHub, PageCategory: db.CategoryHub}

	got, err := e.Decide(c, 1000, 10)
	require.NoError(t, err)

	assert.Equal(t, 4, got.PagesCreated)
	assert.Equal(t, 1, countCategory(t, d, db.CategoryHub))
	assert.Equal(t, 3, countCategory(t, d, db.CategorySpoke))

	hub, err := d.FindHub(got.EquipmentTypeID)
	require.NoError(t, err)
	require.NotNil(t, hub)
	assert.Equal(t, "excavator", hub.URLSlug)
	assert.Equal(t, HubCommercialScore, hub.CommercialScore)
	require.Len(t, hub.SpokeGrid, 3)
	assert.Equal(t, "Financing", hub.SpokeGrid[0].Title)
	assert.Equal(t, "/equipment/excavator-financing/", hub.SpokeGrid[0].URL)
	assert.Equal(t, "For Sale", hub.SpokeGrid[1].Title)
	assert.Equal(t, "/equipment/excavator-for-sale/", hub.SpokeGrid[1].URL)

	et, err := d.GetEquipmentType(got.EquipmentTypeID)
	require.NoError(t, err)
	require.NotNil(t, et.HubNodeID)
	assert.Equal(t, hub.ID, *et.HubNodeID)
}

func TestDecide_IdempotentRepeats(t *testing.T) {
	e, d := setupEngine(t)
	c := spoke("excavator financing", "excavator", db.SpokeFinancing)

	first, err := e.Decide(c, 100, 5)
	require.NoError(t, err)
	assert.Equal(t, 4, first.PagesCreated, "hub plus three default spokes")
	assert.Equal(t, 1, first.PagesSkipped, "the keyword's own spoke is a default spoke")

	for i := 0; i < 3; i++ {
		again, err := e.Decide(c, 100, 5)
		require.NoError(t, err)
		assert.Zero(t, again.PagesCreated)
		assert.Equal(t, 1, again.PagesSkipped)
	}

	assert.Equal(t, 1, countCategory(t, d, db.CategoryHub))
	assert.Equal(t, 3, countCategory(t, d, db.CategorySpoke))
}

func TestDecide_GeoIsADistinctIdentity(t *testing.T) {
	e, d := setupEngine(t)

	_, err := e.Decide(spoke("excavator financing", "excavator", db.SpokeFinancing), 0, 0)
	require.NoError(t, err)

	texas := spoke("excavator financing texas", "excavator", db.SpokeFinancing)
	texas.Geo = strPtr("texas")
	got, err := e.Decide(texas, 90, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, got.PagesCreated)
	require.Len(t, got.CreatedIDs, 1)

	node, err := d.GetNode(got.CreatedIDs[0])
	require.NoError(t, err)
	assert.Equal(t, "excavator-financing-texas", node.URLSlug)
	assert.Equal(t, 90, node.Volume)
	require.NotNil(t, node.ParentHubID)
	assert.Equal(t, got.HubID, *node.ParentHubID)

	again, err := e.Decide(texas, 90, 3)
	require.NoError(t, err)
	assert.Zero(t, again.PagesCreated)
	assert.Equal(t, 1, again.PagesSkipped)

	assert.Equal(t, 4, countCategory(t, d, db.CategorySpoke))
}

func TestDecide_BrandSpoke(t *testing.T) {
	e, d := setupEngine(t)
	c := spoke("caterpillar excavator financing", "excavator", db.SpokeBrand)
	c.Brand = strPtr("caterpillar")

	got, err := e.Decide(c, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, got.PagesCreated)

	node, err := d.GetNodeBySlug("excavator-brand-caterpillar")
	require.NoError(t, err)
	require.NotNil(t, node.BrandID)

	brand, err := d.GetBrand(*node.BrandID)
	require.NoError(t, err)
	assert.Equal(t, "Caterpillar", brand.Name)

	hub, err := d.FindHub(got.EquipmentTypeID)
	require.NoError(t, err)
	require.Len(t, hub.SpokeGrid, 4)
	assert.Equal(t, "Brands", hub.SpokeGrid[3].Title)

	again, err := e.Decide(c, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, again.PagesSkipped)
}

func TestDecide_ExistingHubKeywordIsSkipped(t *testing.T) {
	e, _ := setupEngine(t)
	c := &classify.Classification{Keyword: "crane", EquipmentType: "crane", SpokeType: classify.SpokeHub, PageCategory: db.CategoryHub}

	_, err := e.Decide(c, 0, 0)
	require.NoError(t, err)

	got, err := e.Decide(c, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, got.PagesCreated)
	assert.Equal(t, 1, got.PagesSkipped)
}

func TestDecide_HubSlugTakenBySpoke(t *testing.T) {
	e, d := setupEngine(t)
	_, err := e.Decide(spoke("excavator financing", "excavator", db.SpokeFinancing), 100, 10)
	require.NoError(t, err)
	taken, err := d.GetNodeBySlug("excavator-financing")
	require.NoError(t, err)

	c := &classify.Classification{Keyword: "excavator financing", EquipmentType: "excavator financing", SpokeType: classify.SpokeHub, PageCategory: db.CategoryHub}
	_, err = e.Decide(c, 100, 10)
	require.ErrorIs(t, err, db.ErrSlugTaken)
	assert.Contains(t, err.Error(), taken.ID)
	assert.NotErrorIs(t, err, db.ErrNotFound)
	assert.Equal(t, 1, countCategory(t, d, db.CategoryHub))
}

func TestDecide_OrderIndependent(t *testing.T) {
	keywords := []*classify.Classification{
		spoke("forklift rental", "forklift", db.SpokeRental),
		{Keyword: "forklift", EquipmentType: "forklift", SpokeType: classify.SpokeHub, PageCategory: db.CategoryHub},
		spoke("forklift for sale", "forklift", db.SpokeForSale),
	}

	slugsFor := func(order []int) []string {
		e, d := setupEngine(t)
		for _, i := range order {
			_, err := e.Decide(keywords[i], 0, 0)
			require.NoError(t, err)
		}
		nodes, err := d.AllNodes()
		require.NoError(t, err)
		var slugs []string
		for _, n := range nodes {
			slugs = append(slugs, n.URLSlug)
		}
		return slugs
	}

	assert.ElementsMatch(t, slugsFor([]int{0, 1, 2}), slugsFor([]int{2, 1, 0}))
}

func TestSpokeSlug(t *testing.T) {
	tests := []struct {
		name      string
		spokeType string
		brand     string
		geo, mod  *string
		want      string
	}{
		{"financing", db.SpokeFinancing, "", nil, nil, "excavator-financing"},
		{"for sale", db.SpokeForSale, "", nil, nil, "excavator-for-sale"},
		{"modifier with geo", db.SpokeModifier, "", strPtr("texas"), strPtr("bad-credit"), "excavator-modifier-texas-bad-credit"},
		{"brand", db.SpokeBrand, "john-deere", nil, nil, "excavator-brand-john-deere"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SpokeSlug("excavator", tt.spokeType, tt.brand, tt.geo, tt.mod))
		})
	}
}
