package blogkit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

const exportWorkers = 4

// Export renders the public site into outDir as static files: the home page,
// every section, every post, the feed, the sitemap, robots.txt and the search
// index. Pages go through the app's own router, so the output matches what
// Start serves. The static directory, local uploads and the bundled scripts
// are copied under public/. It returns the number of pages written.
func (a *App) Export(ctx context.Context, outDir string) (int, error) {
	if err := a.Init(ctx); err != nil {
		return 0, err
	}
	a.Cache.Invalidate()
	posts, err := a.Cache.ListPosts(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("blogkit: export: %w", err)
	}

	paths := []string{"/", "/feed.xml", "/sitemap.xml", "/robots.txt", searchIndexURL}
	for _, cat := range a.Config.Categories {
		paths = append(paths, "/section/"+cat.Slug()+"/")
	}
	for _, p := range posts {
		paths = append(paths, p.Link())
	}

	var written atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(exportWorkers)
	for _, path := range paths {
		g.Go(func() error {
			if err := a.exportPage(gctx, outDir, path); err != nil {
				return err
			}
			written.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(written.Load()), err
	}

	static := a.Config.Server.StaticDir
	if err := copyFS(os.DirFS(static), filepath.Join(outDir, "public")); err != nil {
		return int(written.Load()), fmt.Errorf("blogkit: export static files: %w", err)
	}
	if a.Config.Assets.Backend != "minio" && !within(static, a.Config.Assets.Dir) {
		if err := copyFS(os.DirFS(a.Config.Assets.Dir), urlDir(outDir, uploadsURL)); err != nil {
			return int(written.Load()), fmt.Errorf("blogkit: export uploads: %w", err)
		}
	}
	bundled, err := fs.Sub(EmbeddedAssets, "embedded")
	if err != nil {
		return int(written.Load()), err
	}
	if err := copyFS(bundled, urlDir(outDir, bundledURL)); err != nil {
		return int(written.Load()), fmt.Errorf("blogkit: export bundled scripts: %w", err)
	}
	a.Logger.Info("blogkit: exported site", "dir", outDir, "pages", written.Load())
	return int(written.Load()), nil
}

func (a *App) exportPage(ctx context.Context, outDir, path string) error {
	req := httptest.NewRequest(http.MethodGet, path, nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		return fmt.Errorf("blogkit: export %s: status %d", path, rec.Code)
	}

	target := filepath.Join(outDir, filepath.FromSlash(path))
	if strings.HasSuffix(path, "/") {
		target = filepath.Join(target, "index.html")
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return os.WriteFile(target, rec.Body.Bytes(), 0o644)
}

// within reports whether path is inside dir.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// urlDir maps a URL path prefix to its directory under outDir.
func urlDir(outDir, prefix string) string {
	return filepath.Join(outDir, filepath.FromSlash(strings.Trim(prefix, "/")))
}

// copyFS copies the regular files of fsys into dst, overwriting existing
// files. A missing root is not an error.
func copyFS(fsys fs.FS, dst string) error {
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dst, filepath.FromSlash(path))
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(fsys, path, target)
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func copyFile(fsys fs.FS, src, dst string) error {
	in, err := fsys.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
