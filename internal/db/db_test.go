package db

import (
	"errors"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })

	clock := time.UnixMilli(1_700_000_000_000)
	d.SetClock(func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	})
	return d
}

func strPtr(s string) *string { return &s }

func insertHub(t *testing.T, d *DB, equipment string) (*EquipmentType, *Node) {
	t.Helper()
	et, _, err := d.GetOrCreateEquipmentType(equipment)
	if err != nil {
		t.Fatal(err)
	}
	hub := &Node{
		PrimaryKeyword:  et.Slug,
		URLSlug:         et.Slug,
		PageCategory:    CategoryHub,
		EquipmentTypeID: et.ID,
	}
	if err := d.InsertNode(hub); err != nil {
		t.Fatal(err)
	}
	return et, hub
}

func insertSpoke(t *testing.T, d *DB, et *EquipmentType, hub *Node, spokeType, slug string, geo *string) *Node {
	t.Helper()
	n := &Node{
		PrimaryKeyword:  slug,
		URLSlug:         slug,
		PageCategory:    CategorySpoke,
		SpokeType:       strPtr(spokeType),
		EquipmentTypeID: et.ID,
		ParentHubID:     &hub.ID,
		Geo:             geo,
	}
	if err := d.InsertNode(n); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestGetOrCreateEquipmentType_Idempotent(t *testing.T) {
	d := setupTestDB(t)

	first, created, err := d.GetOrCreateEquipmentType("Mini Excavator")
	if err != nil {
		t.Fatal(err)
	}
	if !created || first.Slug != "mini-excavator" || first.Name != "Mini Excavator" {
		t.Fatalf("unexpected first insert: %+v created=%v", first, created)
	}

	second, created, err := d.GetOrCreateEquipmentType("  mini   EXCAVATOR ")
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("second call should not create")
	}
	if second.ID != first.ID {
		t.Errorf("ids differ: %s vs %s", first.ID, second.ID)
	}

	if _, _, err := d.GetOrCreateEquipmentType("!!!"); !errors.Is(err, ErrInvalidNode) {
		t.Errorf("empty slug should be rejected, got %v", err)
	}
}

func TestSetEquipmentHub(t *testing.T) {
	d := setupTestDB(t)
	et, hub := insertHub(t, d, "crane")
	if err := d.SetEquipmentHub(et.ID, hub.ID); err != nil {
		t.Fatal(err)
	}
	got, err := d.GetEquipmentType(et.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.HubNodeID == nil || *got.HubNodeID != hub.ID {
		t.Errorf("hub_node_id = %v", got.HubNodeID)
	}
	if err := d.SetEquipmentHub("missing", hub.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestInsertNode_OneHubPerEquipmentType(t *testing.T) {
	d := setupTestDB(t)
	et, _ := insertHub(t, d, "forklift")

	dup := &Node{PrimaryKeyword: "forklift 2", URLSlug: "forklift-2", PageCategory: CategoryHub, EquipmentTypeID: et.ID}
	if err := d.InsertNode(dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second hub should be a duplicate, got %v", err)
	}
}

func TestInsertNode_SpokeIdentity(t *testing.T) {
	d := setupTestDB(t)
	et, hub := insertHub(t, d, "excavator")
	insertSpoke(t, d, et, hub, SpokeFinancing, "excavator-financing", nil)
	insertSpoke(t, d, et, hub, SpokeFinancing, "excavator-financing-texas", strPtr("Texas"))

	again := &Node{
		PrimaryKeyword: "excavator financing", URLSlug: "excavator-financing-2",
		PageCategory: CategorySpoke, SpokeType: strPtr(SpokeFinancing),
		EquipmentTypeID: et.ID, ParentHubID: &hub.ID, Geo: strPtr(""),
	}
	if err := d.InsertNode(again); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("blank geo should collide with NULL geo, got %v", err)
	}
}

func TestInsertNode_RequiresHubOfSameEquipment(t *testing.T) {
	d := setupTestDB(t)
	_, craneHub := insertHub(t, d, "crane")
	loader, _, err := d.GetOrCreateEquipmentType("loader")
	if err != nil {
		t.Fatal(err)
	}

	stray := &Node{
		PrimaryKeyword: "loader rental", URLSlug: "loader-rental",
		PageCategory: CategorySpoke, SpokeType: strPtr(SpokeRental),
		EquipmentTypeID: loader.ID, ParentHubID: &craneHub.ID,
	}
	if err := d.InsertNode(stray); !errors.Is(err, ErrInvalidNode) {
		t.Fatalf("spoke under a foreign hub should be rejected, got %v", err)
	}

	noParent := &Node{
		PrimaryKeyword: "loader rental", URLSlug: "loader-rental",
		PageCategory: CategorySpoke, SpokeType: strPtr(SpokeRental), EquipmentTypeID: loader.ID,
	}
	if err := d.InsertNode(noParent); !errors.Is(err, ErrInvalidNode) {
		t.Fatalf("spoke without parent should be rejected, got %v", err)
	}

	badType := &Node{
		PrimaryKeyword: "crane thing", URLSlug: "crane-thing",
		PageCategory: CategorySpoke, SpokeType: strPtr("blog"),
		EquipmentTypeID: craneHub.EquipmentTypeID, ParentHubID: &craneHub.ID,
	}
	if err := d.InsertNode(badType); !errors.Is(err, ErrInvalidNode) {
		t.Fatalf("unknown spoke type should be rejected, got %v", err)
	}
}

func TestFindSpoke_NullMatching(t *testing.T) {
	d := setupTestDB(t)
	et, hub := insertHub(t, d, "excavator")
	plain := insertSpoke(t, d, et, hub, SpokeFinancing, "excavator-financing", nil)
	texas := insertSpoke(t, d, et, hub, SpokeFinancing, "excavator-financing-texas", strPtr("Texas"))

	got, err := d.FindSpoke(IdentityKey{EquipmentTypeID: et.ID, SpokeType: SpokeFinancing})
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ID != plain.ID {
		t.Fatalf("absent geo should match the NULL-geo spoke, got %+v", got)
	}

	got, err = d.FindSpoke(IdentityKey{EquipmentTypeID: et.ID, SpokeType: SpokeFinancing, Geo: strPtr("Texas")})
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ID != texas.ID {
		t.Fatalf("geo lookup returned %+v", got)
	}

	got, err = d.FindSpoke(IdentityKey{EquipmentTypeID: et.ID, SpokeType: SpokeFinancing, Modifier: strPtr("bad credit")})
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("modifier is an independent axis; expected no match, got %s", got.URLSlug)
	}

	got, err = d.FindSpoke(IdentityKey{EquipmentTypeID: et.ID, SpokeType: SpokeRental})
	if err != nil || got != nil {
		t.Errorf("rental spoke should not exist: %v %v", got, err)
	}
}

func TestFindHub(t *testing.T) {
	d := setupTestDB(t)
	et, hub := insertHub(t, d, "bulldozer")

	got, err := d.FindHub(et.ID)
	if err != nil || got == nil || got.ID != hub.ID {
		t.Fatalf("FindHub = %+v, %v", got, err)
	}

	other, _, _ := d.GetOrCreateEquipmentType("trencher")
	got, err = d.FindHub(other.ID)
	if err != nil || got != nil {
		t.Fatalf("hub should not exist: %+v %v", got, err)
	}
}

func TestGetNode_NotFound(t *testing.T) {
	d := setupTestDB(t)
	if _, err := d.GetNode("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListQueries(t *testing.T) {
	d := setupTestDB(t)
	et, hub := insertHub(t, d, "excavator")
	a := insertSpoke(t, d, et, hub, SpokeFinancing, "excavator-financing", nil)
	b := insertSpoke(t, d, et, hub, SpokeRental, "excavator-rental", nil)
	insertHub(t, d, "crane")
	insertHub(t, d, "forklift")

	spokes, err := d.ListSpokes(et.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(spokes) != 2 || spokes[0].ID != a.ID || spokes[1].ID != b.ID {
		t.Fatalf("ListSpokes order wrong: %+v", spokes)
	}

	children, err := d.ListChildren(hub.ID)
	if err != nil || len(children) != 2 {
		t.Fatalf("ListChildren = %d, %v", len(children), err)
	}

	hubs, err := d.ListHubs(et.ID, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(hubs) != 2 {
		t.Fatalf("ListHubs should exclude own equipment type, got %d", len(hubs))
	}
	for _, h := range hubs {
		if h.EquipmentTypeID == et.ID {
			t.Error("own hub returned")
		}
	}

	nodes, err := d.NodesForEquipment(et.ID, StatusDiscovery)
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 3 || !nodes[0].IsHub() {
		t.Fatalf("NodesForEquipment should list hub first, got %d nodes", len(nodes))
	}
}

func TestSaveContent_OptimisticVersion(t *testing.T) {
	d := setupTestDB(t)
	_, hub := insertHub(t, d, "excavator")

	body := &Content{MainContent: "body", FAQ: []FAQ{{Q: "q?", A: "a."}}}
	v, err := d.SaveContent(hub.ID, 0, body, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if v != 1 {
		t.Fatalf("version = %d, want 1", v)
	}

	if _, err := d.SaveContent(hub.ID, 0, body, 1200); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("stale version should conflict, got %v", err)
	}
	if _, err := d.SaveContent("missing", 0, body, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing node should be ErrNotFound, got %v", err)
	}

	got, err := d.GetNode(hub.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ContentVersion != 1 || got.WordCount != 1000 {
		t.Errorf("stored version/word count = %d/%d", got.ContentVersion, got.WordCount)
	}
	if got.Content == nil || got.Content.MainContent != "body" || len(got.Content.FAQ) != 1 {
		t.Errorf("content round trip failed: %+v", got.Content)
	}
}

func TestSaveGenerationAndSignature(t *testing.T) {
	d := setupTestDB(t)
	_, hub := insertHub(t, d, "excavator")

	err := d.SaveGeneration(hub.ID, Generation{
		Status:           StatusBlocked,
		FAQCount:         3,
		SourcesUsed:      []string{"https://a.example"},
		GateReasons:      []string{"faqs (3) < 4"},
		ShortDescription: "Compare excavator financing, rental & buying options",
		SchemaJSON:       `{"@graph":[]}`,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.SetSERPSignature(hub.ID, "abc123", []string{"down payment"}, []string{"https://a.example", "https://b.example"}); err != nil {
		t.Fatal(err)
	}

	got, err := d.GetNode(hub.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusBlocked || got.FAQCount != 3 {
		t.Errorf("status/faq = %s/%d", got.Status, got.FAQCount)
	}
	if len(got.GateReasons) != 1 || got.GateReasons[0] != "faqs (3) < 4" {
		t.Errorf("gate reasons = %v", got.GateReasons)
	}
	if got.SERPSignature == nil || *got.SERPSignature != "abc123" {
		t.Errorf("serp hash = %v", got.SERPSignature)
	}
	if len(got.LSIKeywords) != 1 || len(got.SourcesUsed) != 2 || got.LastIntelligenceAt == nil {
		t.Errorf("intel cache not stored: %+v", got)
	}
}

func TestSetLinksReplacesEdges(t *testing.T) {
	d := setupTestDB(t)
	et, hub := insertHub(t, d, "excavator")
	a := insertSpoke(t, d, et, hub, SpokeFinancing, "excavator-financing", nil)
	b := insertSpoke(t, d, et, hub, SpokeRental, "excavator-rental", nil)

	body := &Content{MainContent: "x"}
	if err := d.SetLinks(a.ID, 0, body, []LinkEdge{
		{TargetID: hub.ID, Type: "parent_hub", Anchor: "excavator"},
		{TargetID: b.ID, Type: "sibling"},
		{TargetID: a.ID, Type: "sibling"},
	}); err != nil {
		t.Fatal(err)
	}
	edges, err := d.EdgesFrom(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 2 {
		t.Fatalf("expected 2 edges (self skipped), got %d", len(edges))
	}

	if err := d.SetLinks(a.ID, 0, body, []LinkEdge{{TargetID: hub.ID, Type: "parent_hub"}}); err != nil {
		t.Fatal(err)
	}
	edges, _ = d.EdgesFrom(a.ID)
	if len(edges) != 1 {
		t.Fatalf("edges should be replaced, got %d", len(edges))
	}

	if err := d.SetLinks(a.ID, 7, body, nil); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestStalePublished(t *testing.T) {
	d := setupTestDB(t)
	et, hub := insertHub(t, d, "excavator")
	spoke := insertSpoke(t, d, et, hub, SpokeFinancing, "excavator-financing", nil)

	if err := d.MarkPublished(hub.ID, "item-1"); err != nil {
		t.Fatal(err)
	}
	if err := d.MarkPublished(spoke.ID, "item-2"); err != nil {
		t.Fatal(err)
	}
	hubNode, _ := d.GetNode(hub.ID)
	spokeNode, _ := d.GetNode(spoke.ID)

	stale, err := d.StalePublished(spokeNode.UpdatedAt, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(stale) != 1 || stale[0].ID != hub.ID {
		t.Fatalf("only the hub is older than the cutoff, got %d", len(stale))
	}
	if stale[0].WebflowItemID == nil || *stale[0].WebflowItemID != "item-1" {
		t.Errorf("item id = %v", stale[0].WebflowItemID)
	}

	all, _ := d.StalePublished(spokeNode.UpdatedAt+1, 10)
	if len(all) != 2 || all[0].UpdatedAt != hubNode.UpdatedAt {
		t.Fatalf("stale pages should be oldest first")
	}
}

func TestKnownKeywordsAndCounts(t *testing.T) {
	d := setupTestDB(t)
	insertHub(t, d, "excavator")
	insertHub(t, d, "crane")

	known, err := d.KnownKeywords()
	if err != nil {
		t.Fatal(err)
	}
	if !known["excavator"] || !known["crane"] {
		t.Errorf("known = %v", known)
	}

	counts, err := d.StatusCounts()
	if err != nil {
		t.Fatal(err)
	}
	if counts[StatusDiscovery] != 2 {
		t.Errorf("counts = %v", counts)
	}
}

func TestSpokeGridAndHeroImage(t *testing.T) {
	d := setupTestDB(t)
	et, hub := insertHub(t, d, "excavator")
	spoke := insertSpoke(t, d, et, hub, SpokeFinancing, "excavator-financing", nil)

	grid := []SpokeGridEntry{{NodeID: spoke.ID, URL: spoke.PublicPath(), Title: "Financing", Keyword: "excavator financing"}}
	if err := d.SetSpokeGrid(hub.ID, grid); err != nil {
		t.Fatal(err)
	}
	if err := d.SetSpokeGrid(spoke.ID, grid); !errors.Is(err, ErrNotFound) {
		t.Errorf("spoke grid on a spoke should not apply, got %v", err)
	}
	if err := d.SetHeroImage(spoke.ID, "https://img.example/x.png", "alt"); err != nil {
		t.Fatal(err)
	}

	gotHub, _ := d.GetNode(hub.ID)
	if len(gotHub.SpokeGrid) != 1 || gotHub.SpokeGrid[0].URL != "/equipment/excavator-financing/" {
		t.Errorf("spoke grid = %+v", gotHub.SpokeGrid)
	}
	gotSpoke, _ := d.GetNode(spoke.ID)
	if gotSpoke.HeroImageURL == "" || gotSpoke.HeroImageAlt != "alt" {
		t.Errorf("hero image not stored")
	}
}
