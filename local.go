package blogkit

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// frontMatter is the YAML header of a markdown post file.
type frontMatter struct {
	Title   string `yaml:"title"`
	Tag     string `yaml:"tag"`
	Summary string `yaml:"summary"`
	Image   string `yaml:"image"`
	Series  string `yaml:"series"`
	Date    string `yaml:"date"`
}

var fmDelim = []byte("---")

// LoadLocalPosts reads every *.md file in dir. The file name (without
// extension) is the post id; names starting with "_" are drafts and skipped.
// A missing directory yields no posts. Files that fail to parse are skipped
// and reported together in the returned error, alongside the posts that did
// load.
func LoadLocalPosts(dir string) ([]Post, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var posts []Post
	var errs []error
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".md" || strings.HasPrefix(name, "_") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		info, _ := e.Info()
		p, err := ParsePostFile(strings.TrimSuffix(name, ".md"), data, info)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		posts = append(posts, p)
	}
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	return posts, errors.Join(errs...)
}

// ParsePostFile builds a Post from a markdown file with optional YAML front
// matter. Without a date in the front matter the file's modification time is
// used.
func ParsePostFile(id string, data []byte, info fs.FileInfo) (Post, error) {
	var fm frontMatter
	body := data
	if bytes.HasPrefix(data, fmDelim) {
		rest := data[len(fmDelim):]
		end := bytes.Index(rest, append([]byte("\n"), fmDelim...))
		if end < 0 {
			return Post{}, errors.New("unterminated front matter")
		}
		if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
			return Post{}, fmt.Errorf("front matter: %w", err)
		}
		body = rest[end+1+len(fmDelim):]
		body = bytes.TrimLeft(body, "\r\n")
	}

	p := Post{
		ID:      id,
		Title:   fm.Title,
		Tag:     strings.TrimSpace(fm.Tag),
		Summary: fm.Summary,
		Image:   fm.Image,
		Series:  strings.TrimSpace(fm.Series),
		Content: string(body),
		Local:   true,
	}
	if p.Title == "" {
		p.Title = id
	}
	switch {
	case fm.Date != "":
		t, err := parseDate(fm.Date)
		if err != nil {
			return Post{}, err
		}
		p.Date = t
	case info != nil:
		p.Date = info.ModTime().UTC()
	}
	if err := ValidatePost(p); err != nil {
		return Post{}, err
	}
	return p, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
