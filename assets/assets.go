// Package assets stores uploaded media (images and videos) referenced from
// post content by public URL. Files are never linked back to posts, so
// deleting a post leaves its media in place.
package assets

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

// Kind is the media class of an asset.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

const (
	// DefaultMaxWidth is the width images are downscaled to on upload.
	DefaultMaxWidth = 1600
	jpegQuality     = 85
	maxImageSize    = 10 << 20
	maxVideoSize    = 200 << 20
	sniffLen        = 3072
)

var (
	ErrNotFound    = errors.New("assets: not found")
	ErrUnsupported = errors.New("assets: unsupported file type")
	ErrTooLarge    = errors.New("assets: file too large")
	ErrBadName     = errors.New("assets: invalid asset name")
)

// ParseKind accepts "image"/"images" and "video"/"videos".
func ParseKind(s string) (Kind, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "image":
		return KindImage, nil
	case "video":
		return KindVideo, nil
	}
	return "", fmt.Errorf("%w: kind %q", ErrUnsupported, s)
}

// MaxSize is the largest accepted upload for the kind.
func (k Kind) MaxSize() int64 {
	if k == KindVideo {
		return maxVideoSize
	}
	return maxImageSize
}

// dir is the folder or key prefix holding assets of this kind.
func (k Kind) dir() string {
	return string(k) + "s"
}

// Asset describes a stored media file.
type Asset struct {
	Name    string    `json:"name"`
	Kind    Kind      `json:"kind"`
	URL     string    `json:"url"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// Store is implemented by the filesystem and object storage backends.
type Store interface {
	Upload(ctx context.Context, kind Kind, originalName string, r io.Reader, size int64) (Asset, error)
	List(ctx context.Context, kind Kind) ([]Asset, error)
	Delete(ctx context.Context, kind Kind, name string) error
}

var reName = regexp.MustCompile(`^\d+_[a-z0-9]+(\.[a-z0-9]+)?$`)

// NewName generates a collision-resistant file name of the form
// <unix millis>_<random>.<ext>, keeping the lower-cased extension of original.
func NewName(original string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(original))
	if !reName.MatchString("0_x" + ext) {
		ext = ""
	}
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%d_%s%s", now.UnixMilli(), random, ext)
}

// ValidName reports whether name could have been produced by NewName.
func ValidName(name string) bool {
	return reName.MatchString(name)
}

// DetectKind maps a sniffed content type to a Kind.
func DetectKind(contentType string) (Kind, bool) {
	switch {
	case strings.HasPrefix(contentType, "image/") && contentType != "image/svg+xml":
		return KindImage, true
	case strings.HasPrefix(contentType, "video/"):
		return KindVideo, true
	}
	return "", false
}

// prepared is an upload that passed type and size checks.
type prepared struct {
	body        io.Reader
	size        int64
	contentType string
	name        string
}

// prepare sniffs r, rejects content that is not of the requested kind and
// downscales images wider than maxWidth. size may be -1 when unknown.
func prepare(kind Kind, originalName string, r io.Reader, size int64, maxWidth int, now time.Time) (prepared, error) {
	if size > kind.MaxSize() {
		return prepared{}, ErrTooLarge
	}
	br := bufio.NewReaderSize(r, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return prepared{}, err
	}
	contentType := mimetype.Detect(head).String()
	if got, ok := DetectKind(contentType); !ok || got != kind {
		return prepared{}, fmt.Errorf("%w: %s", ErrUnsupported, contentType)
	}

	p := prepared{body: br, size: size, contentType: contentType, name: NewName(originalName, now)}
	if kind == KindVideo {
		return p, nil
	}

	data, err := io.ReadAll(io.LimitReader(br, maxImageSize+1))
	if err != nil {
		return prepared{}, err
	}
	if len(data) > maxImageSize {
		return prepared{}, ErrTooLarge
	}
	if resized, ok := downscale(data, maxWidth); ok {
		data = resized
	}
	p.body = bytes.NewReader(data)
	p.size = int64(len(data))
	return p, nil
}

// downscale re-encodes data in its original format at maxWidth when it is
// wider. Formats without an encoder here (gif animations, webp) pass through.
func downscale(data []byte, maxWidth int) ([]byte, bool) {
	if maxWidth <= 0 {
		return nil, false
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= maxWidth || (format != "jpeg" && format != "png") {
		return nil, false
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	b := img.Bounds()
	h := b.Dy() * maxWidth / b.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	case "png":
		err = png.Encode(&buf, dst)
	}
	if err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}
