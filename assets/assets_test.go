package assets

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	mp4Header = []byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom\x00\x00\x00\x08free")
	movHeader = []byte("\x00\x00\x00\x14ftypqt  \x00\x00\x02\x00qt  \x00\x00\x00\x08wide")
	m4vHeader = []byte("\x00\x00\x00\x1cftypM4V \x00\x00\x00\x01M4V M4A mp42isom\x00\x00\x00\x08free")
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNewName(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	tests := []struct {
		original string
		pattern  string
	}{
		{"Photo.PNG", `^1700000000123_[0-9a-f]{12}\.png$`},
		{"clip.final.mp4", `^1700000000123_[0-9a-f]{12}\.mp4$`},
		{"noext", `^1700000000123_[0-9a-f]{12}$`},
		{"weird.p ng", `^1700000000123_[0-9a-f]{12}$`},
	}
	for _, tt := range tests {
		name := NewName(tt.original, now)
		assert.Regexp(t, regexp.MustCompile(tt.pattern), name, tt.original)
		assert.True(t, ValidName(name), name)
	}
	assert.NotEqual(t, NewName("a.png", now), NewName("a.png", now))
}

func TestValidNameRejectsTraversal(t *testing.T) {
	for _, name := range []string{"../secret", "a/b.png", "", "123_ABC.png", ".hidden"} {
		assert.False(t, ValidName(name), name)
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("images")
	require.NoError(t, err)
	assert.Equal(t, KindImage, k)
	k, err = ParseKind("Video")
	require.NoError(t, err)
	assert.Equal(t, KindVideo, k)
	_, err = ParseKind("audio")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFSStoreUploadDownscalesImages(t *testing.T) {
	dir := t.TempDir()
	s := NewFSStore(dir, "/public/uploads/", 800)

	data := pngBytes(t, 2000, 100)
	a, err := s.Upload(context.Background(), KindImage, "wide.png", bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	assert.Equal(t, KindImage, a.Kind)
	assert.Equal(t, "/public/uploads/images/"+a.Name, a.URL)

	f, err := os.Open(filepath.Join(dir, "images", a.Name))
	require.NoError(t, err)
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 40, cfg.Height)
}

func TestFSStoreUploadKeepsSmallImages(t *testing.T) {
	dir := t.TempDir()
	s := NewFSStore(dir, "/public/uploads", 800)

	data := pngBytes(t, 20, 20)
	a, err := s.Upload(context.Background(), KindImage, "small.png", bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	stored, err := os.ReadFile(filepath.Join(dir, "images", a.Name))
	require.NoError(t, err)
	assert.Equal(t, data, stored)
}

func TestFSStoreUploadRejectsWrongKind(t *testing.T) {
	s := NewFSStore(t.TempDir(), "/u", 800)
	ctx := context.Background()

	_, err := s.Upload(ctx, KindImage, "notes.png", bytes.NewReader([]byte("just some text")), 14)
	assert.ErrorIs(t, err, ErrUnsupported)

	data := pngBytes(t, 10, 10)
	_, err = s.Upload(ctx, KindVideo, "fake.mp4", bytes.NewReader(data), int64(len(data)))
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = s.Upload(ctx, KindImage, "huge.png", bytes.NewReader(data), KindImage.MaxSize()+1)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = s.Upload(ctx, KindImage, "clip.mov", bytes.NewReader(movHeader), int64(len(movHeader)))
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFSStoreUploadAcceptsVideoContainers(t *testing.T) {
	s := NewFSStore(t.TempDir(), "/u", 800)
	ctx := context.Background()

	for name, data := range map[string][]byte{
		"clip.mp4": mp4Header,
		"clip.mov": movHeader,
		"clip.m4v": m4vHeader,
	} {
		a, err := s.Upload(ctx, KindVideo, name, bytes.NewReader(data), int64(len(data)))
		require.NoError(t, err, name)
		assert.Equal(t, KindVideo, a.Kind, name)
		assert.Equal(t, filepath.Ext(name), filepath.Ext(a.Name), name)
	}
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		contentType string
		want        Kind
		ok          bool
	}{
		{"image/png", KindImage, true},
		{"video/quicktime", KindVideo, true},
		{"video/x-m4v", KindVideo, true},
		{"image/svg+xml", "", false},
		{"text/plain; charset=utf-8", "", false},
	}
	for _, tt := range tests {
		got, ok := DetectKind(tt.contentType)
		assert.Equal(t, tt.ok, ok, tt.contentType)
		assert.Equal(t, tt.want, got, tt.contentType)
	}
}

func TestFSStoreListAndDelete(t *testing.T) {
	dir := t.TempDir()
	s := NewFSStore(dir, "/public/uploads", 800)
	ctx := context.Background()

	clock := time.UnixMilli(1000)
	s.now = func() time.Time { return clock }
	first, err := s.Upload(ctx, KindVideo, "a.mp4", bytes.NewReader(mp4Header), int64(len(mp4Header)))
	require.NoError(t, err)
	clock = time.UnixMilli(2000)
	second, err := s.Upload(ctx, KindVideo, "b.mp4", bytes.NewReader(mp4Header), int64(len(mp4Header)))
	require.NoError(t, err)

	list, err := s.List(ctx, KindVideo)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.Name, list[0].Name)
	assert.Equal(t, first.Name, list[1].Name)

	images, err := s.List(ctx, KindImage)
	require.NoError(t, err)
	assert.Empty(t, images)

	require.NoError(t, s.Delete(ctx, KindVideo, first.Name))
	assert.ErrorIs(t, s.Delete(ctx, KindVideo, first.Name), ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, KindVideo, "../../etc/passwd"), ErrBadName)

	list, err = s.List(ctx, KindVideo)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.Name, list[0].Name)
}
