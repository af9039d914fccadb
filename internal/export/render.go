// Package export consumes the alignment core's output contract: it applies
// solved transforms to pixels, crops frames to their common area, and packages
// results for download or printing.
package export

import (
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/MANISPIN/align-images-for-lenticular/internal/align"
	"github.com/MANISPIN/align-images-for-lenticular/internal/geometry"
)

// RenderFrame draws a record's raster onto a canvas of the given size with
// its solved transform applied. Catmull-Rom interpolation keeps sub-pixel
// translations and small rotations smooth.
func RenderFrame(rec *align.ImageRecord, canvasWidth, canvasHeight int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, canvasWidth, canvasHeight))
	if rec.Image == nil {
		return dst
	}
	m := rec.Transform.ToMatrix(rec.Width, rec.Height)
	draw.CatmullRom.Transform(dst, f64.Aff3(m), rec.Image, rec.Image.Bounds(), draw.Src, nil)
	return dst
}

// RenderAll renders every record onto same-sized canvases. The canvas adopts
// the first record's pixel dimensions, which is the anchor of the chain.
func RenderAll(records []*align.ImageRecord) []*image.NRGBA {
	if len(records) == 0 {
		return nil
	}
	w := int(records[0].Width)
	h := int(records[0].Height)
	out := make([]*image.NRGBA, len(records))
	for i, rec := range records {
		out[i] = RenderFrame(rec, w, h)
	}
	return out
}

// frameBounds returns the axis-aligned canvas bounding box of a transformed
// frame.
func frameBounds(rec *align.ImageRecord) image.Rectangle {
	m := rec.Transform.ToMatrix(rec.Width, rec.Height)
	corners := []geometry.Point{
		{X: 0, Y: 0},
		{X: rec.Width, Y: 0},
		{X: 0, Y: rec.Height},
		{X: rec.Width, Y: rec.Height},
	}
	first := m.Apply(corners[0])
	minX, maxX := first.X, first.X
	minY, maxY := first.Y, first.Y
	for _, c := range corners[1:] {
		p := m.Apply(c)
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	return image.Rect(int(minX), int(minY), int(maxX), int(maxY))
}

// CommonBounds returns the canvas rectangle covered by every transformed
// frame: the intersection of all frame bounding boxes, clipped to the canvas.
// The zero rectangle means there is no common area.
func CommonBounds(records []*align.ImageRecord, canvasWidth, canvasHeight int) image.Rectangle {
	if len(records) == 0 {
		return image.Rectangle{}
	}
	common := image.Rect(0, 0, canvasWidth, canvasHeight)
	for _, rec := range records {
		common = common.Intersect(frameBounds(rec))
	}
	return common
}
