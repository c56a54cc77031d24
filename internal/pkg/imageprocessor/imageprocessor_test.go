package imageprocessor

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

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/Marktplatz/internal/pkg/storage"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessScalesDownLargeImages(t *testing.T) {
	res, err := Process(testPNG(t, 2400, 1200), "image/png", false)
	require.NoError(t, err)

	assert.Equal(t, 1200, res.Width)
	assert.Equal(t, 600, res.Height)
	assert.Empty(t, res.WebP)

	decoded, err := imaging.Decode(bytes.NewReader(res.JPEG))
	require.NoError(t, err)
	assert.Equal(t, 1200, decoded.Bounds().Dx())
}

func TestProcessKeepsSmallImages(t *testing.T) {
	res, err := Process(testPNG(t, 300, 200), "image/png", true)
	require.NoError(t, err)
	assert.Equal(t, 300, res.Width)
	assert.Equal(t, 200, res.Height)
	assert.NotEmpty(t, res.JPEG)
	assert.NotEmpty(t, res.WebP)
}

func TestProcessRejectsGarbage(t *testing.T) {
	_, err := Process([]byte("not an image"), "image/png", false)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestApplyOrientation(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))

	for _, o := range []int{5, 6, 7, 8} {
		b := ApplyOrientation(img, o).Bounds()
		assert.Equal(t, 2, b.Dx(), "orientation %d", o)
		assert.Equal(t, 4, b.Dy(), "orientation %d", o)
	}
	for _, o := range []int{1, 2, 3, 4, 0, 9} {
		b := ApplyOrientation(img, o).Bounds()
		assert.Equal(t, 4, b.Dx(), "orientation %d", o)
	}
}

func TestOrientationWithoutExif(t *testing.T) {
	assert.Equal(t, 1, Orientation(testPNG(t, 2, 2)))
}

func TestSaveProductImage(t *testing.T) {
	root := t.TempDir()
	blob := storage.NewLocalStore(root)

	out, err := SaveProductImage(context.Background(), blob, "biz-1", "shoe.png", testPNG(t, 50, 50), false)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.JPEGURL, "/uploads/products/biz-1/"))
	assert.Empty(t, out.WebPURL)

	key := storage.KeyFromURL(blob, out.JPEGURL)
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(key)))
	require.NoError(t, err)

	DeleteProductImage(context.Background(), blob, out.JPEGURL, "https://elsewhere.example/x.jpg")
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(key)))
	assert.True(t, os.IsNotExist(err))
}

func TestSaveProductImageRejectsUnsupported(t *testing.T) {
	_, err := SaveProductImage(context.Background(), storage.NewLocalStore(t.TempDir()), "biz", "doc.pdf", []byte("%PDF-1.4"), false)
	assert.Error(t, err)
}
