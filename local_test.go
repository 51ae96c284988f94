package blogkit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadLocalPosts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "hello-world.md", `---
title: Hello World
tag: " Guide "
summary: First post
series: Getting Started
date: 2024-02-03
---

# Hello

Body text.
`)
	writeFile(t, dir, "bare.md", "Just content.\n")
	writeFile(t, dir, "_draft.md", "---\ntitle: Draft\n---\nnot yet\n")
	writeFile(t, dir, "notes.txt", "ignored")

	posts, err := LoadLocalPosts(dir)
	if err != nil {
		t.Fatalf("LoadLocalPosts: %v", err)
	}
	if got := ids(posts); len(got) != 2 || got[0] != "bare" || got[1] != "hello-world" {
		t.Fatalf("ids = %v, want [bare hello-world]", got)
	}

	hello := posts[1]
	if hello.Title != "Hello World" || hello.Tag != "Guide" || hello.Summary != "First post" || hello.Series != "Getting Started" {
		t.Errorf("front matter not applied: %+v", hello)
	}
	if !hello.Date.Equal(day("2024-02-03")) {
		t.Errorf("Date = %v", hello.Date)
	}
	if !strings.HasPrefix(hello.Content, "# Hello") {
		t.Errorf("Content = %q, front matter not stripped", hello.Content)
	}
	if !hello.Local {
		t.Error("Local flag not set")
	}

	bare := posts[0]
	if bare.Title != "bare" {
		t.Errorf("Title = %q, want id fallback", bare.Title)
	}
	if bare.Date.IsZero() {
		t.Error("Date should fall back to the file modification time")
	}
}

func TestLoadLocalPostsReportsBadFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.md", "fine\n")
	writeFile(t, dir, "broken.md", "---\ntitle: never closed\n")
	writeFile(t, dir, "Bad Name.md", "content\n")

	posts, err := LoadLocalPosts(dir)
	if err == nil {
		t.Fatal("expected an error for the unparseable files")
	}
	if !strings.Contains(err.Error(), "broken.md") {
		t.Errorf("error %q does not name broken.md", err)
	}
	if len(posts) != 1 || posts[0].ID != "good" {
		t.Errorf("posts = %v, want [good]", ids(posts))
	}
}

func TestLoadLocalPostsMissingDir(t *testing.T) {
	posts, err := LoadLocalPosts(filepath.Join(t.TempDir(), "nope"))
	if err != nil || posts != nil {
		t.Errorf("missing dir = %v, %v; want nil, nil", posts, err)
	}
}

func TestParsePostFileDates(t *testing.T) {
	for _, date := range []string{"2024-05-06", "2024-05-06 10:30", "2024-05-06T10:30:00Z"} {
		p, err := ParsePostFile("x", []byte("---\ndate: "+date+"\n---\nbody\n"), nil)
		if err != nil {
			t.Errorf("date %q: %v", date, err)
			continue
		}
		if p.Date.Year() != 2024 || p.Date.Month() != 5 || p.Date.Day() != 6 {
			t.Errorf("date %q parsed as %v", date, p.Date)
		}
	}
	if _, err := ParsePostFile("x", []byte("---\ndate: yesterday\n---\nbody\n"), nil); err == nil {
		t.Error("expected an error for an unparseable date")
	}
}
