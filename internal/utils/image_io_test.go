package utils

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestIsSupportedImage(t *testing.T) {
	assert.True(t, IsSupportedImage("photo.jpg"))
	assert.True(t, IsSupportedImage("PHOTO.PNG"))
	assert.True(t, IsSupportedImage("scan.tiff"))
	assert.False(t, IsSupportedImage("doc.pdf"))
	assert.False(t, IsSupportedImage("noext"))
}

func TestLoadImage_Errors(t *testing.T) {
	_, _, err := LoadImage("")
	require.Error(t, err)

	_, _, err = LoadImage("missing.txt")
	require.Error(t, err)

	_, _, err = LoadImage(filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
}

func TestSaveAndLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.png")

	require.NoError(t, SaveImage(solidImage(40, 30, color.NRGBA{200, 100, 50, 255}), path))

	img, meta, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 40, meta.Width)
	assert.Equal(t, 30, meta.Height)
	assert.Equal(t, 40, img.Bounds().Dx())
}

func TestFitWithin(t *testing.T) {
	img := solidImage(200, 100, color.White)

	same, scale := FitWithin(img, 400)
	assert.InDelta(t, 1.0, scale, 1e-12)
	assert.Equal(t, 200, same.Bounds().Dx())

	resized, scale := FitWithin(img, 100)
	assert.InDelta(t, 0.5, scale, 1e-9)
	assert.Equal(t, 100, resized.Bounds().Dx())

	tall, scale := FitWithin(solidImage(100, 200, color.White), 100)
	assert.InDelta(t, 0.5, scale, 1e-9)
	assert.Equal(t, 100, tall.Bounds().Dy())
}

func TestGrayFloats(t *testing.T) {
	img := solidImage(4, 3, color.NRGBA{255, 255, 255, 255})
	data, w, h := GrayFloats(img)

	assert.Equal(t, 4, w)
	assert.Equal(t, 3, h)
	require.Len(t, data, 12)
	for _, v := range data {
		assert.InDelta(t, 1.0, v, 1e-6)
	}

	black, _, _ := GrayFloats(solidImage(2, 2, color.NRGBA{0, 0, 0, 255}))
	for _, v := range black {
		assert.InDelta(t, 0.0, v, 1e-6)
	}
}
