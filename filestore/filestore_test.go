package filestore

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func TestProcessImageResizesWideImages(t *testing.T) {
	img, data, err := ProcessImage(bytes.NewReader(pngBytes(t, 2400, 1200)), "Cover Photo.PNG")
	require.NoError(t, err)

	assert.Equal(t, "cover-photo.jpg", img.Filename)
	assert.Equal(t, "Cover Photo.PNG", img.OriginalName)
	assert.Equal(t, maxImageWidth, img.Width)
	assert.Equal(t, 600, img.Height)
	assert.Equal(t, len(data), img.Size)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, maxImageWidth, cfg.Width)
}

func TestProcessImageKeepsSmallImages(t *testing.T) {
	img, _, err := ProcessImage(bytes.NewReader(pngBytes(t, 320, 200)), "!!!.png")
	require.NoError(t, err)
	assert.Equal(t, "image.jpg", img.Filename)
	assert.Equal(t, 320, img.Width)
	assert.Equal(t, 200, img.Height)
}

func TestProcessImageRejectsGarbage(t *testing.T) {
	_, _, err := ProcessImage(strings.NewReader("not an image"), "x.png")
	assert.ErrorContains(t, err, "decode image")
}

func TestLocalPutAndExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	st := NewLocal(dir, "/public/uploads/")
	ctx := context.Background()

	ok, err := st.Exists(ctx, "a.jpg")
	require.NoError(t, err)
	assert.False(t, ok)

	url, err := st.Put(ctx, "../a.jpg", []byte("data"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "/public/uploads/a.jpg", url)

	got, err := os.ReadFile(filepath.Join(dir, "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))

	ok, err = st.Exists(ctx, "a.jpg")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUploadPicksUnusedName(t *testing.T) {
	dir := t.TempDir()
	st := NewLocal(dir, "/public/uploads")
	ctx := context.Background()
	src := pngBytes(t, 64, 64)

	first, err := Upload(ctx, st, bytes.NewReader(src), "hero.png")
	require.NoError(t, err)
	second, err := Upload(ctx, st, bytes.NewReader(src), "hero.png")
	require.NoError(t, err)
	third, err := Upload(ctx, st, bytes.NewReader(src), "hero.png")
	require.NoError(t, err)

	assert.Equal(t, "/public/uploads/hero.jpg", first.URL)
	assert.Equal(t, "/public/uploads/hero-2.jpg", second.URL)
	assert.Equal(t, "hero-3.jpg", third.Filename)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}
