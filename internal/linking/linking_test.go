package linking

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipflow/sei/internal/config"
	"equipflow/sei/internal/db"
	"equipflow/sei/internal/decision"
	"equipflow/sei/internal/failure"
	"equipflow/sei/internal/logger"
)

var words = []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel", "india", "juliet"}

func tenLinks() []db.RelatedLink {
	links := make([]db.RelatedLink, len(words))
	for i, w := range words {
		links[i] = db.RelatedLink{NodeID: w, URL: "/equipment/" + w + "/", Text: w, Type: TypeSibling}
	}
	return links
}

func TestInject_Caps(t *testing.T) {
	body := strings.Join(words, " and ") + "."
	c := &db.Content{MainContent: body, Intro: body, Features: body, HowItWorks: body}

	got := Inject(c, tenLinks(), Caps{PerField: 2, Total: 5})
	require.Len(t, got, 5)

	perField := map[string]int{}
	for _, inj := range got {
		perField[inj.Field]++
	}
	assert.Equal(t, map[string]int{FieldMainContent: 2, FieldIntro: 2, FieldFeatures: 1}, perField)

	total := 0
	for _, f := range []string{c.MainContent, c.Intro, c.Features, c.HowItWorks} {
		n := strings.Count(f, "<a ")
		assert.LessOrEqual(t, n, 2)
		total += n
	}
	assert.Equal(t, 5, total)
	assert.Equal(t, body, c.HowItWorks)
}

func TestInject_NeverRewrapsLinkedText(t *testing.T) {
	body := `Read our <a href="/guides/">excavator financing</a> guide.`
	c := &db.Content{MainContent: body}
	links := []db.RelatedLink{{NodeID: "n1", URL: "/equipment/excavator-financing/", Text: "excavator financing"}}

	got := Inject(c, links, Caps{PerField: 2, Total: 5})
	assert.Empty(t, got)
	assert.Equal(t, body, c.MainContent)
}

func TestInject_SkipsTagAttributes(t *testing.T) {
	c := &db.Content{MainContent: `<img alt="crane"> A crane lifts.`}
	links := []db.RelatedLink{{NodeID: "n1", URL: "/equipment/crane/", Text: "Crane"}}

	Inject(c, links, Caps{PerField: 2, Total: 5})
	assert.Equal(t, `<img alt="crane"> A <a href="/equipment/crane/">crane</a> lifts.`, c.MainContent)
}

func TestInject_Idempotent(t *testing.T) {
	body := strings.Join(words, ", ")
	c := &db.Content{MainContent: body, Intro: body}
	caps := Caps{PerField: 2, Total: 5}

	first := Inject(c, tenLinks(), caps)
	once := *c
	second := Inject(c, tenLinks(), caps)

	assert.Equal(t, once.MainContent, c.MainContent)
	assert.Equal(t, once.Intro, c.Intro)
	require.Len(t, second, len(first))
	for _, inj := range second {
		assert.True(t, inj.Existing, inj.NodeID)
	}
}

func TestInject_WholeWordsOnly(t *testing.T) {
	c := &db.Content{MainContent: "Cranes and cranely things."}
	links := []db.RelatedLink{{NodeID: "n1", URL: "/equipment/crane/", Text: "crane"}}

	assert.Empty(t, Inject(c, links, Caps{PerField: 2, Total: 5}))
}

func TestAnchorVariants(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Excavator Financing", []string{"Excavator Financing", "excavator"}},
		{"Mini Excavator Rental", []string{"Mini Excavator Rental", "Mini"}},
		{"crane", []string{"crane"}},
		{"CAT", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AnchorVariants(tt.in), tt.in)
	}
}

func TestRelatedBlock(t *testing.T) {
	links := tenLinks()
	links[0].Type = TypeParentHub
	links[2].Type = TypeRelated

	block := RelatedBlock(links, 6)
	assert.True(t, strings.HasPrefix(block, `<div class="related-links"><h3>Related Resources</h3><ul>`))
	assert.Equal(t, 6, strings.Count(block, "<li>"))
	assert.Contains(t, block, `<li><a href="/equipment/alpha/">📚 Alpha</a></li>`)
	assert.Contains(t, block, `<li><a href="/equipment/bravo/">→ Bravo</a></li>`)
	assert.Contains(t, block, `<li><a href="/equipment/charlie/">🔗 Charlie</a></li>`)
	assert.Empty(t, RelatedBlock(nil, 6))

	stripped := StripRelatedBlock("Body text.\n\n" + block)
	assert.Equal(t, "Body text.", stripped)
}

func setupEngine(t *testing.T) (*Engine, *db.DB, map[string]*db.Node) {
	t.Helper()
	d, err := db.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	clock := time.UnixMilli(1_700_000_000_000)
	d.SetClock(func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	})

	builder := decision.NewClusterBuilder(d, logger.Discard())
	for _, name := range []string{"excavator", "crane"} {
		et, _, err := d.GetOrCreateEquipmentType(name)
		require.NoError(t, err)
		_, err = builder.BuildCluster(et)
		require.NoError(t, err)
	}

	nodes, err := d.AllNodes()
	require.NoError(t, err)
	bySlug := map[string]*db.Node{}
	for i := range nodes {
		bySlug[nodes[i].URLSlug] = &nodes[i]
	}
	return NewEngine(d, config.Default().Linking, logger.Discard()), d, bySlug
}

func TestGenerate_LinksSpoke(t *testing.T) {
	e, d, nodes := setupEngine(t)
	spoke := nodes["excavator-financing"]
	_, err := d.SaveContent(spoke.ID, spoke.ContentVersion, &db.Content{
		MainContent: "Excavator financing helps. A used excavator for sale costs less.",
		Intro:       "Compare excavator rental rates first.",
		FAQ:         []db.FAQ{},
	}, 12)
	require.NoError(t, err)

	res, err := e.Generate(spoke.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, res.LinksAdded)

	var types []string
	for _, l := range res.Links {
		types = append(types, l.Type)
	}
	assert.Equal(t, []string{TypeParentHub, TypeSibling, TypeSibling, TypeRelated}, types)

	got, err := d.GetNode(spoke.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got.Content.MainContent, `<a href="/equipment/excavator/">Excavator</a> financing helps.`))
	assert.Contains(t, got.Content.MainContent, `<a href="/equipment/excavator-for-sale/">excavator for sale</a>`)
	assert.Contains(t, got.Content.Intro, `<a href="/equipment/excavator-rental/">excavator rental</a>`)
	assert.Equal(t, 1, strings.Count(got.Content.MainContent, `class="related-links"`))
	assert.Len(t, got.Content.RelatedLinks, 4)
	assert.Equal(t, 1, got.ContentVersion)

	out, err := d.EdgesFrom(spoke.ID)
	require.NoError(t, err)
	assert.Len(t, out, 4)

	again, err := e.Generate(spoke.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.LinksAdded)

	rerun, err := d.GetNode(spoke.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Content.MainContent, rerun.Content.MainContent)
	assert.Equal(t, got.Content.Intro, rerun.Content.Intro)
}

func TestGenerate_HubLinksChildren(t *testing.T) {
	e, d, nodes := setupEngine(t)
	hub := nodes["excavator"]
	_, err := d.SaveContent(hub.ID, hub.ContentVersion, &db.Content{MainContent: "All about excavators.", FAQ: []db.FAQ{}}, 3)
	require.NoError(t, err)

	res, err := e.Generate(hub.ID)
	require.NoError(t, err)
	require.Len(t, res.Links, 4)
	assert.Equal(t, TypeChildSpoke, res.Links[0].Type)
	assert.Equal(t, TypeRelated, res.Links[3].Type)
	assert.Equal(t, nodes["crane"].ID, res.Links[3].NodeID)
}

func TestGenerate_RequiresContent(t *testing.T) {
	e, _, nodes := setupEngine(t)

	_, err := e.Generate(nodes["excavator-rental"].ID)
	var ve *failure.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"missing generated_content"}, ve.Reasons)
}
