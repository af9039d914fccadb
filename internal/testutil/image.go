// Package testutil generates deterministic synthetic frames for tests.
package testutil

import (
	"image"
	"image/color"

	"github.com/MANISPIN/align-images-for-lenticular/internal/geometry"
)

// CreateTestImage returns a solid-color frame.
func CreateTestImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// DotPositions returns a deterministic, irregular spread of dot centers for
// a frame of the given size. The same size always yields the same spread.
func DotPositions(width, height int) []geometry.Point {
	var pts []geometry.Point
	// Low-discrepancy-ish lattice walk; irregular enough that rotations
	// are unambiguous, with no randomness to keep tests reproducible.
	x, y := 17, 23
	for len(pts) < 24 {
		pts = append(pts, geometry.Point{X: float64(x), Y: float64(y)})
		x = (x*7 + 31) % max(width-20, 1)
		y = (y*5 + 43) % max(height-20, 1)
		x += 10
		y += 10
	}
	return pts
}

// DotField draws dark dots on a light background, each dot shifted by offset.
// Two DotFields with different offsets look like two photos of the same
// subject taken from slightly different positions.
func DotField(width, height int, offset geometry.Point) *image.NRGBA {
	img := CreateTestImage(width, height, color.NRGBA{R: 235, G: 235, B: 235, A: 255})
	dark := color.NRGBA{R: 20, G: 20, B: 20, A: 255}
	for _, p := range DotPositions(width, height) {
		cx := int(p.X + offset.X)
		cy := int(p.Y + offset.Y)
		for dy := -2; dy <= 2; dy++ {
			for dx := -2; dx <= 2; dx++ {
				img.Set(cx+dx, cy+dy, dark)
			}
		}
	}
	return img
}
