package blogkit

import (
	"slices"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// The list helpers below never paginate: every matching post is returned.
// That is fine for a personal blog and would need revisiting for large
// archives.

// SortByDate orders posts newest first in place. Posts with equal dates keep
// their relative order.
func SortByDate(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Date.After(posts[j].Date)
	})
}

// FilterCategory returns the posts whose tag equals category, ignoring case
// and surrounding whitespace.
func FilterCategory(posts []Post, category string) []Post {
	category = strings.TrimSpace(category)
	var out []Post
	for _, p := range posts {
		if strings.EqualFold(strings.TrimSpace(p.Tag), category) {
			out = append(out, p)
		}
	}
	return out
}

// Search returns posts whose title, summary or tag contains query, ignoring
// case. A blank query returns posts unchanged.
func Search(posts []Post, query string) []Post {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return posts
	}
	var out []Post
	for _, p := range posts {
		hay := strings.ToLower(p.Title + " " + p.Summary + " " + p.Tag)
		if strings.Contains(hay, q) {
			out = append(out, p)
		}
	}
	return out
}

// SplitFeatured returns the first n posts and the remainder.
func SplitFeatured(posts []Post, n int) (featured, rest []Post) {
	if n > len(posts) {
		n = len(posts)
	}
	return posts[:n], posts[n:]
}

// Related returns up to limit posts sharing current's category, excluding
// current itself, in the order given.
func Related(current Post, posts []Post, limit int) []Post {
	if strings.TrimSpace(current.Tag) == "" {
		return nil
	}
	var out []Post
	for _, p := range posts {
		if len(out) == limit {
			break
		}
		if p.ID == current.ID || !strings.EqualFold(strings.TrimSpace(p.Tag), strings.TrimSpace(current.Tag)) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SeriesOf returns current's place in its series, built from posts. Series
// names match case-insensitively. It returns nil when current has no series
// or is its only post.
func SeriesOf(current Post, posts []Post) *SeriesNav {
	name := strings.TrimSpace(current.Series)
	if name == "" {
		return nil
	}
	var members []Post
	for _, p := range posts {
		if strings.EqualFold(strings.TrimSpace(p.Series), name) {
			members = append(members, p)
		}
	}
	if len(members) < 2 {
		return nil
	}
	slices.SortStableFunc(members, func(a, b Post) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	i := slices.IndexFunc(members, func(p Post) bool { return p.ID == current.ID })
	if i < 0 {
		return nil
	}
	nav := &SeriesNav{Name: name, Index: i + 1, Posts: members}
	if i > 0 {
		nav.Prev = &members[i-1]
	}
	if i < len(members)-1 {
		nav.Next = &members[i+1]
	}
	return nav
}

// DistinctTags returns each non-empty tag once, keeping the first spelling
// seen, sorted case-insensitively.
func DistinctTags(posts []Post) []string {
	seen := make(map[string]struct{})
	var tags []string
	for _, p := range posts {
		t := strings.TrimSpace(p.Tag)
		key := strings.ToLower(t)
		if t == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return strings.ToLower(tags[i]) < strings.ToLower(tags[j]) })
	return tags
}

// FindCategory looks up name among cats, ignoring case. Section URLs use the
// slugified name, so that form matches too.
func FindCategory(cats []Category, name string) (Category, bool) {
	name = strings.TrimSpace(name)
	for _, c := range cats {
		if strings.EqualFold(c.Name, name) || c.Slug() == strings.ToLower(name) {
			return c, true
		}
	}
	return Category{}, false
}

// CategorySuggestions ranks candidates by fuzzy match against query, best
// first, returning at most limit names.
func CategorySuggestions(query string, candidates []string, limit int) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		if len(candidates) > limit {
			return candidates[:limit]
		}
		return candidates
	}
	matches := fuzzy.Find(strings.ToLower(query), lowerAll(candidates))
	out := make([]string, 0, limit)
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, candidates[m.Index])
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

// mergeNames returns the names from cats followed by extra names not already
// present, ignoring case.
func mergeNames(cats []Category, extra []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range cats {
		seen[strings.ToLower(c.Name)] = struct{}{}
		out = append(out, c.Name)
	}
	for _, e := range extra {
		if _, ok := seen[strings.ToLower(e)]; ok {
			continue
		}
		seen[strings.ToLower(e)] = struct{}{}
		out = append(out, e)
	}
	return out
}
