package blogkit

import (
	"reflect"
	"testing"
)

func ids(posts []Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestSortByDate(t *testing.T) {
	posts := []Post{
		{ID: "jan", Date: day("2024-01-01")},
		{ID: "jun", Date: day("2024-06-01")},
		{ID: "dec", Date: day("2023-12-01")},
	}
	SortByDate(posts)
	if got, want := ids(posts), []string{"jun", "jan", "dec"}; !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestSortByDateStable(t *testing.T) {
	posts := []Post{
		{ID: "first", Date: day("2024-01-01")},
		{ID: "second", Date: day("2024-01-01")},
	}
	SortByDate(posts)
	if posts[0].ID != "first" {
		t.Errorf("equal dates reordered: %v", ids(posts))
	}
}

func TestSearch(t *testing.T) {
	posts := []Post{
		{ID: "rust", Title: "Rust Patterns"},
		{ID: "go", Title: "Go Basics"},
	}
	for _, q := range []string{"rust", "RUST", "  Rust "} {
		got := Search(posts, q)
		if len(got) != 1 || got[0].ID != "rust" {
			t.Errorf("Search(%q) = %v, want [rust]", q, ids(got))
		}
	}
	if got := Search(posts, ""); len(got) != 2 {
		t.Errorf("empty query returned %d posts, want 2", len(got))
	}
	if got := Search(posts, "python"); len(got) != 0 {
		t.Errorf("no-match query returned %v", ids(got))
	}
}

func TestSearchMatchesSummaryAndTag(t *testing.T) {
	posts := []Post{
		{ID: "a", Title: "One", Summary: "about compilers"},
		{ID: "b", Title: "Two", Tag: "Compilers"},
		{ID: "c", Title: "Three"},
	}
	if got := ids(Search(posts, "compiler")); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("got %v", got)
	}
}

func TestFilterCategory(t *testing.T) {
	posts := []Post{
		{ID: "t1", Tag: "Trend"},
		{ID: "t2", Tag: " trend "},
		{ID: "g", Tag: "Guide"},
		{ID: "none"},
	}
	if got := ids(FilterCategory(posts, "Trend")); !reflect.DeepEqual(got, []string{"t1", "t2"}) {
		t.Errorf("Trend = %v", got)
	}
	if got := FilterCategory(posts, "Research"); len(got) != 0 {
		t.Errorf("Research = %v, want none", ids(got))
	}
}

func TestSplitFeatured(t *testing.T) {
	posts := []Post{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	featured, rest := SplitFeatured(posts, 2)
	if len(featured) != 2 || len(rest) != 1 || rest[0].ID != "c" {
		t.Errorf("featured=%v rest=%v", ids(featured), ids(rest))
	}
	featured, rest = SplitFeatured(posts[:1], 2)
	if len(featured) != 1 || len(rest) != 0 {
		t.Errorf("short list: featured=%v rest=%v", ids(featured), ids(rest))
	}
}

func TestRelated(t *testing.T) {
	current := Post{ID: "cur", Tag: "Guide"}
	posts := []Post{
		{ID: "cur", Tag: "Guide"},
		{ID: "g1", Tag: "guide"},
		{ID: "x", Tag: "Trend"},
		{ID: "g2", Tag: "Guide"},
		{ID: "g3", Tag: "Guide"},
	}
	if got := ids(Related(current, posts, 2)); !reflect.DeepEqual(got, []string{"g1", "g2"}) {
		t.Errorf("Related = %v", got)
	}
	if got := Related(Post{ID: "untagged"}, posts, 2); got != nil {
		t.Errorf("untagged post has related %v", ids(got))
	}
}

func TestSeriesOf(t *testing.T) {
	posts := []Post{
		{ID: "part-3", Series: "Go Tour", Date: day("2024-03-01")},
		{ID: "other", Series: "Rust", Date: day("2024-02-15")},
		{ID: "part-1", Series: "go tour", Date: day("2024-01-01")},
		{ID: "part-2", Series: "Go Tour ", Date: day("2024-02-01")},
		{ID: "loose", Date: day("2024-02-10")},
	}

	nav := SeriesOf(posts[3], posts)
	if nav == nil {
		t.Fatal("SeriesOf = nil for a post in a three-part series")
	}
	if got := ids(nav.Posts); !reflect.DeepEqual(got, []string{"part-1", "part-2", "part-3"}) {
		t.Errorf("series order = %v, want oldest first", got)
	}
	if nav.Name != "Go Tour" || nav.Index != 2 || nav.Total() != 3 {
		t.Errorf("nav = %q %d/%d", nav.Name, nav.Index, nav.Total())
	}
	if nav.Prev == nil || nav.Prev.ID != "part-1" || nav.Next == nil || nav.Next.ID != "part-3" {
		t.Errorf("prev/next = %v/%v", nav.Prev, nav.Next)
	}

	first := SeriesOf(posts[2], posts)
	if first.Prev != nil || first.Next.ID != "part-2" {
		t.Errorf("first part prev/next = %v/%v", first.Prev, first.Next)
	}
	last := SeriesOf(posts[0], posts)
	if last.Next != nil || last.Index != 3 {
		t.Errorf("last part = %d, next %v", last.Index, last.Next)
	}

	if nav := SeriesOf(posts[1], posts); nav != nil {
		t.Errorf("a single-post series has navigation: %v", ids(nav.Posts))
	}
	if nav := SeriesOf(posts[4], posts); nav != nil {
		t.Errorf("a post without a series has navigation: %v", ids(nav.Posts))
	}
}

func TestDistinctTags(t *testing.T) {
	posts := []Post{{Tag: "trend"}, {Tag: "Guide"}, {Tag: "Trend"}, {Tag: ""}, {Tag: "ai"}}
	if got := DistinctTags(posts); !reflect.DeepEqual(got, []string{"ai", "Guide", "trend"}) {
		t.Errorf("DistinctTags = %v", got)
	}
}

func TestFindCategory(t *testing.T) {
	cats := []Category{{Name: "Trend"}, {Name: "Deep Dives"}}
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Trend", "Trend", true},
		{"trend", "Trend", true},
		{"deep-dives", "Deep Dives", true},
		{"deep dives", "Deep Dives", true},
		{"Research", "", false},
	}
	for _, tt := range tests {
		c, ok := FindCategory(cats, tt.in)
		if ok != tt.ok || c.Name != tt.want {
			t.Errorf("FindCategory(%q) = %q, %v; want %q, %v", tt.in, c.Name, ok, tt.want, tt.ok)
		}
	}
}

func TestCategorySuggestions(t *testing.T) {
	names := []string{"Trend", "Research", "Tutorials", "Reviews"}

	got := CategorySuggestions("tre", names, 8)
	if len(got) == 0 || got[0] != "Trend" {
		t.Errorf("suggestions for tre = %v, want Trend first", got)
	}
	for _, s := range CategorySuggestions("rs", names, 8) {
		if s == "Trend" {
			t.Errorf("Trend should not match rs")
		}
	}
	if got := CategorySuggestions("", names, 2); !reflect.DeepEqual(got, []string{"Trend", "Research"}) {
		t.Errorf("blank query = %v", got)
	}
	if got := CategorySuggestions("zzz", names, 8); len(got) != 0 {
		t.Errorf("no match = %v", got)
	}
}

func TestMergeNames(t *testing.T) {
	got := mergeNames([]Category{{Name: "Trend"}}, []string{"trend", "Guide"})
	if !reflect.DeepEqual(got, []string{"Trend", "Guide"}) {
		t.Errorf("mergeNames = %v", got)
	}
}
