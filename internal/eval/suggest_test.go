package eval

import (
	"reflect"
	"testing"
)

func TestEditDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"x", "", 1},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"declassify", "declasify", 1},
		{"commit", "commit", 0},
	}
	for _, c := range cases {
		if got := editDistance(c.a, c.b); got != c.want {
			t.Errorf("editDistance(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestSuggest(t *testing.T) {
	candidates := []string{"transfer", "trasnfer", "commit", "exit", "assert", "assume"}

	got := suggest("transfr", candidates, maxSuggestions)
	if len(got) == 0 || got[0] != "transfer" {
		t.Fatalf("suggest(transfr) = %v, want transfer first", got)
	}

	// Candidates beyond the distance cutoff never appear.
	got = suggest("zzzzzzzzz", candidates, maxSuggestions)
	if len(got) != 0 {
		t.Errorf("suggest for an unrelated name = %v, want none", got)
	}

	// The queried name itself is excluded even on an exact hit.
	got = suggest("commit", candidates, maxSuggestions)
	for _, s := range got {
		if s == "commit" {
			t.Error("suggest returned the queried name itself")
		}
	}

	// Ties break lexically and the list respects max.
	got = suggest("assume", []string{"assure", "assume1", "assumed", "assumes"}, 2)
	want := []string{"assume1", "assumed"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("suggest ties = %v, want %v", got, want)
	}
}
