package intel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlocked(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.reddit.com/r/heavyequipment", true},
		{"https://old.reddit.com/r/x", true},
		{"https://m.facebook.com/page", true},
		{"https://www.youtube.com/watch?v=1", true},
		{"https://example.com/guide.PDF", true},
		{"not a url", true},
		{"https://www.equipmenttrader.com/excavator", false},
		{"https://notreddit.com/page", false},
		{"https://blog.example.co.uk/excavator-financing", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, Blocked(tt.url))
		})
	}
}

func TestFilterResults(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	results := []SearchResult{
		{URL: "https://reddit.com/a"},
		{URL: "https://a.com/1", Title: string(long), Snippet: string(long)},
		{URL: "https://a.com/1"},
		{URL: "https://b.com/2.pdf"},
		{URL: "https://c.com/3"},
		{URL: "https://d.com/4"},
	}

	got := FilterResults(results, 2)

	assert.Len(t, got, 2)
	assert.Equal(t, "https://a.com/1", got[0].URL)
	assert.Len(t, got[0].Title, 100)
	assert.Len(t, got[0].Snippet, 200)
	assert.Equal(t, "https://c.com/3", got[1].URL)
}

func TestSERPSignature(t *testing.T) {
	a := SERPSignature([]string{"https://a.com", "https://b.com"})
	assert.Equal(t, a, SERPSignature([]string{"https://a.com", "https://b.com"}))
	assert.NotEqual(t, a, SERPSignature([]string{"https://b.com", "https://a.com"}))
	assert.NotEqual(t, a, SERPSignature([]string{"https://a.com"}))
	assert.Len(t, a, 64)
}
