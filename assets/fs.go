package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FSStore keeps assets on the local disk under <Dir>/images and <Dir>/videos
// and serves them from <BaseURL>/images/... and <BaseURL>/videos/...
type FSStore struct {
	Dir      string
	BaseURL  string
	MaxWidth int

	now func() time.Time
}

// NewFSStore creates a filesystem store. baseURL is the public path the
// directory is served under, for example "/public/uploads".
func NewFSStore(dir, baseURL string, maxWidth int) *FSStore {
	return &FSStore{
		Dir:      dir,
		BaseURL:  strings.TrimRight(baseURL, "/"),
		MaxWidth: maxWidth,
		now:      time.Now,
	}
}

func (s *FSStore) url(kind Kind, name string) string {
	return s.BaseURL + "/" + path.Join(kind.dir(), name)
}

// Upload writes r to a new uniquely named file.
func (s *FSStore) Upload(ctx context.Context, kind Kind, originalName string, r io.Reader, size int64) (Asset, error) {
	now := s.now()
	p, err := prepare(kind, originalName, r, size, s.MaxWidth, now)
	if err != nil {
		return Asset{}, err
	}

	dir := filepath.Join(s.Dir, kind.dir())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Asset{}, fmt.Errorf("assets: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return Asset{}, err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(p.body, kind.MaxSize()+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Asset{}, fmt.Errorf("assets: write upload: %w", err)
	}
	if n > kind.MaxSize() {
		return Asset{}, ErrTooLarge
	}
	if err := ctx.Err(); err != nil {
		return Asset{}, err
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, p.name)); err != nil {
		return Asset{}, fmt.Errorf("assets: store upload: %w", err)
	}
	return Asset{Name: p.name, Kind: kind, URL: s.url(kind, p.name), Size: n, ModTime: now}, nil
}

// List returns assets of kind, newest first.
func (s *FSStore) List(ctx context.Context, kind Kind) ([]Asset, error) {
	entries, err := os.ReadDir(filepath.Join(s.Dir, kind.dir()))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []Asset
	for _, e := range entries {
		if e.IsDir() || !ValidName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Asset{
			Name:    e.Name(),
			Kind:    kind,
			URL:     s.url(kind, e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sortNewestFirst(out)
	return out, nil
}

// Delete removes the named asset.
func (s *FSStore) Delete(ctx context.Context, kind Kind, name string) error {
	if !ValidName(name) {
		return ErrBadName
	}
	err := os.Remove(filepath.Join(s.Dir, kind.dir(), name))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

// sortNewestFirst orders by the millisecond prefix NewName puts in every name.
func sortNewestFirst(list []Asset) {
	sort.SliceStable(list, func(i, j int) bool {
		return nameStamp(list[i].Name) > nameStamp(list[j].Name)
	})
}

func nameStamp(name string) int64 {
	stamp, _, _ := strings.Cut(name, "_")
	n, _ := strconv.ParseInt(stamp, 10, 64)
	return n
}
