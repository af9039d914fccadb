package export

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MANISPIN/align-images-for-lenticular/internal/align"
	"github.com/MANISPIN/align-images-for-lenticular/internal/geometry"
	"github.com/MANISPIN/align-images-for-lenticular/internal/region"
	"github.com/MANISPIN/align-images-for-lenticular/internal/testutil"
)

func alignedRecords() []*align.ImageRecord {
	recs := []*align.ImageRecord{
		align.NewImageRecord("a", testutil.DotField(200, 160, geometry.Point{})),
		align.NewImageRecord("b", testutil.DotField(200, 160, geometry.Point{X: 8, Y: -4})),
	}
	recs[0].Region = &region.Region{X: 40, Y: 40, Width: 20, Height: 20}
	recs[1].Region = &region.Region{X: 48, Y: 36, Width: 20, Height: 20}
	recs[1].Transform = geometry.Transform{Scale: 1, TranslateX: -8, TranslateY: 4}
	return recs
}

func TestRenderFrame_IdentityKeepsPixels(t *testing.T) {
	rec := align.NewImageRecord("x", testutil.CreateTestImage(40, 30, color.NRGBA{255, 0, 0, 255}))
	out := RenderFrame(rec, 40, 30)

	assert.Equal(t, 40, out.Bounds().Dx())
	r, _, _, a := out.At(20, 15).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), a)
}

func TestRenderFrame_TranslationMovesContent(t *testing.T) {
	src := testutil.CreateTestImage(40, 30, color.NRGBA{0, 0, 0, 255})
	rec := align.NewImageRecord("x", src)
	rec.Transform.TranslateX = 10

	out := RenderFrame(rec, 40, 30)
	_, _, _, a := out.At(2, 15).RGBA()
	assert.Equal(t, uint32(0), a, "left strip is outside the shifted frame")
	_, _, _, a = out.At(20, 15).RGBA()
	assert.Equal(t, uint32(0xffff), a)
}

func TestRenderFrame_NilImage(t *testing.T) {
	rec := &align.ImageRecord{ID: "empty", Width: 10, Height: 10}
	out := RenderFrame(rec, 10, 10)
	assert.Equal(t, 10, out.Bounds().Dx())
}

func TestCommonBounds_TranslatedPair(t *testing.T) {
	recs := alignedRecords()
	common := CommonBounds(recs, 200, 160)

	// Frame b is shifted left by 8 and down by 4 on the canvas.
	assert.Equal(t, image.Rect(0, 0, 192, 160).Dx(), common.Dx())
	assert.Equal(t, 156, common.Dy())
	assert.False(t, common.Empty())
}

func TestCommonBounds_Empty(t *testing.T) {
	assert.True(t, CommonBounds(nil, 100, 100).Empty())
}

func TestWriteArchive(t *testing.T) {
	recs := alignedRecords()
	var buf bytes.Buffer
	require.NoError(t, WriteArchive(&buf, recs, true))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	assert.True(t, names["frame_00_a.png"])
	assert.True(t, names["frame_01_b.png"])
	assert.True(t, names[ManifestEntryName])

	rc, err := zr.Open(ManifestEntryName)
	require.NoError(t, err)
	defer rc.Close()
	var raw bytes.Buffer
	_, err = raw.ReadFrom(rc)
	require.NoError(t, err)

	m, err := ParseManifest(raw.Bytes())
	require.NoError(t, err)
	require.Len(t, m.Frames, 2)
	assert.Equal(t, "a", m.Frames[0].ID)
	assert.InDelta(t, -8.0, m.Frames[1].Transform.TranslateX, 1e-9)
}

func TestWriteArchive_NoFrames(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, WriteArchive(&buf, nil, false))
}

func TestManifestRoundtrip(t *testing.T) {
	recs := alignedRecords()
	m := NewManifest(recs)

	data, err := m.Marshal()
	require.NoError(t, err)

	back, err := ParseManifest(data)
	require.NoError(t, err)
	require.Len(t, back.Frames, 2)
	assert.Equal(t, m.Frames[1].Transform, back.Frames[1].Transform)
	require.NotNil(t, back.Frames[0].Region)
	assert.InDelta(t, 40.0, back.Frames[0].Region.X, 1e-9)
}

func TestParseManifest_Invalid(t *testing.T) {
	_, err := ParseManifest([]byte("frames: {not: [valid"))
	require.Error(t, err)
}

func TestContactSheet(t *testing.T) {
	frames := []image.Image{
		testutil.CreateTestImage(100, 80, color.NRGBA{255, 0, 0, 255}),
		testutil.CreateTestImage(100, 80, color.NRGBA{0, 255, 0, 255}),
		testutil.CreateTestImage(100, 80, color.NRGBA{0, 0, 255, 255}),
	}

	sheet := ContactSheet(frames, 2, 50)
	assert.Equal(t, 100, sheet.Bounds().Dx())
	assert.Equal(t, 80, sheet.Bounds().Dy(), "two rows of 40px thumbnails")

	empty := ContactSheet(nil, 2, 50)
	assert.True(t, empty.Bounds().Empty())
}
