package textutil

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Excavator Financing", "excavator-financing"},
		{"  Mini   Excavator  ", "mini-excavator"},
		{"Bulldozer Rental — São Paulo", "bulldozer-rental-sao-paulo"},
		{"Crane (used) for sale!", "crane-used-for-sale"},
		{"a--b", "a-b"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlugifyLength(t *testing.T) {
	got := Slugify(strings.Repeat("word ", 40))
	if len(got) > MaxSlugLen {
		t.Fatalf("slug length %d exceeds %d", len(got), MaxSlugLen)
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("slug should not end with a dash: %q", got)
	}
}

func TestJoinSlug(t *testing.T) {
	if got := JoinSlug("Excavator", "financing", "", "Texas", " "); got != "excavator-financing-texas" {
		t.Errorf("JoinSlug = %q", got)
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  Crème   Brûlée "); got != "creme brulee" {
		t.Errorf("Normalize = %q", got)
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"excavator financing in texas", "Excavator Financing in Texas"},
		{"the best loader for the job", "The Best Loader for the Job"},
		{"john deere tractor financing", "John Deere Tractor Financing"},
		{"equipflow vs banks", "EquipFlow vs Banks"},
		{"KOMATSU excavator", "Komatsu Excavator"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := TitleCase(tt.in); got != tt.want {
			t.Errorf("TitleCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("héllo", 2); got != "h" {
		t.Errorf("Truncate should not split a rune, got %q", got)
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Errorf("Truncate short = %q", got)
	}
}
