package export

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ContactSheet tiles thumbnails of the given frames into a single preview
// image, row-major, at most columns wide. Useful for eyeballing an alignment
// before committing to a print run.
func ContactSheet(frames []image.Image, columns, thumbWidth int) *image.NRGBA {
	if len(frames) == 0 || columns <= 0 || thumbWidth <= 0 {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0))
	}

	thumbs := make([]*image.NRGBA, len(frames))
	maxH := 0
	for i, f := range frames {
		thumbs[i] = imaging.Resize(f, thumbWidth, 0, imaging.Linear)
		if h := thumbs[i].Bounds().Dy(); h > maxH {
			maxH = h
		}
	}

	rows := (len(thumbs) + columns - 1) / columns
	sheet := imaging.New(columns*thumbWidth, rows*maxH, color.Transparent)
	for i, th := range thumbs {
		x := (i % columns) * thumbWidth
		y := (i / columns) * maxH
		sheet = imaging.Paste(sheet, th, image.Pt(x, y))
	}
	return sheet
}
