package blogkit

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport(t *testing.T) {
	s := newTestServer(t, samplePosts()...)
	require.NoError(t, os.WriteFile(filepath.Join(s.app.Config.Server.StaticDir, "style.css"), []byte("body{}"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(s.app.Config.Assets.Dir, "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.app.Config.Assets.Dir, "images", "1_abc.png"), []byte("png"), 0o644))

	out := t.TempDir()
	n, err := s.app.Export(context.Background(), out)
	require.NoError(t, err)

	// home, feed, sitemap, robots, search index, four default sections, three posts
	assert.Equal(t, 12, n)

	for _, rel := range []string{
		"index.html",
		"feed.xml",
		"sitemap.xml",
		"robots.txt",
		"section/trend/index.html",
		"section/classic/index.html",
		"blog/rust-patterns/index.html",
		"blog/old-guide/index.html",
		"public/style.css",
		"public/uploads/images/1_abc.png",
		"public/blogkit/views.js",
		"public/blogkit/search.js",
		"search.json",
	} {
		_, err := os.Stat(filepath.Join(out, filepath.FromSlash(rel)))
		assert.NoError(t, err, rel)
	}

	home, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(home), "home featured=[rust-patterns go-basics]"), string(home))

	raw, err := os.ReadFile(filepath.Join(out, "search.json"))
	require.NoError(t, err)
	var index []SearchEntry
	require.NoError(t, json.Unmarshal(raw, &index))
	assert.Equal(t, []string{"rust-patterns", "go-basics", "old-guide"}, searchIDs(index))

	bundled, err := os.ReadFile(filepath.Join(out, "public", "blogkit", "views.js"))
	require.NoError(t, err)
	embedded, err := EmbeddedAssets.ReadFile("embedded/views.js")
	require.NoError(t, err)
	assert.Equal(t, embedded, bundled)
}

func searchIDs(entries []SearchEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestExportFailsOnBrokenPage(t *testing.T) {
	s := newTestServer(t, samplePosts()...)
	s.app.Views.Post = func(p PostPage) templ.Component {
		return templ.ComponentFunc(func(context.Context, io.Writer) error {
			return errors.New("template exploded")
		})
	}

	_, err := s.app.Export(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestWithin(t *testing.T) {
	assert.True(t, within("public", "public/uploads"))
	assert.False(t, within("public", "uploads"))
	assert.False(t, within("public", "public-other/uploads"))
}
