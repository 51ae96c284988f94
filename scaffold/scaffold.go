// Package scaffold writes the starter files of a new blogkit site: a config
// file, a welcome post and a stylesheet for the default theme.
package scaffold

import (
	"bytes"
	"crypto/rand"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
)

// Templates contains all scaffold template files. Files ending in .tmpl are
// executed as Go text/templates; everything else is copied verbatim.
//
//go:embed all:templates
var Templates embed.FS

// Data holds the variables passed to every template.
type Data struct {
	SiteName      string
	SiteURL       string
	Password      string
	SessionSecret string
	Date          string
}

// NewData derives defaults from the directory name and generates secrets.
func NewData(dir string) (Data, error) {
	secret, err := randomHex(32)
	if err != nil {
		return Data{}, err
	}
	password, err := randomHex(8)
	if err != nil {
		return Data{}, err
	}
	return Data{
		SiteName:      toTitle(filepath.Base(dir)),
		SiteURL:       "http://localhost:3000",
		Password:      password,
		SessionSecret: secret,
		Date:          time.Now().UTC().Format("2006-01-02"),
	}, nil
}

// Write creates dir and renders every template into it. It refuses to
// touch an existing directory. The written paths are returned relative to dir.
func Write(dir string, data Data) ([]string, error) {
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("scaffold: %q already exists", dir)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	const root = "templates"
	var written []string
	err := fs.WalkDir(Templates, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		out := filepath.Join(dir, strings.TrimSuffix(rel, ".tmpl"))
		if d.IsDir() {
			return os.MkdirAll(out, 0o755)
		}

		content, err := Templates.ReadFile(path)
		if err != nil {
			return fmt.Errorf("scaffold: read %s: %w", path, err)
		}
		if strings.HasSuffix(path, ".tmpl") {
			tmpl, err := template.New(filepath.Base(path)).Parse(string(content))
			if err != nil {
				return fmt.Errorf("scaffold: parse %s: %w", path, err)
			}
			var buf bytes.Buffer
			if err := tmpl.Execute(&buf, data); err != nil {
				return fmt.Errorf("scaffold: execute %s: %w", path, err)
			}
			content = buf.Bytes()
		}
		mode := os.FileMode(0o644)
		if filepath.Base(out) == "blogkit.yaml" {
			mode = 0o600
		}
		if err := os.WriteFile(out, content, mode); err != nil {
			return err
		}
		written = append(written, filepath.ToSlash(strings.TrimSuffix(rel, ".tmpl")))
		return nil
	})
	return written, err
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// toTitle turns "my-blog" into "My Blog".
func toTitle(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' || r == ' ' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
