package region

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MANISPIN/align-images-for-lenticular/internal/geometry"
)

// canvasCenter returns where a region center lands once the image is placed
// by its transform: image midpoint + translation + (region center - midpoint).
func canvasCenter(w, h float64, xf geometry.Transform, r Region) geometry.Point {
	mid := geometry.Point{X: w / 2, Y: h / 2}
	return mid.Add(xf.Translation()).Add(r.Center().Sub(mid))
}

func TestRegionCenter(t *testing.T) {
	r := Region{X: 100, Y: 100, Width: 50, Height: 50}
	c := r.Center()
	assert.InDelta(t, 125.0, c.X, 1e-12)
	assert.InDelta(t, 125.0, c.Y, 1e-12)
}

func TestCenterRegion_PinsRegionCenterToImageCenter(t *testing.T) {
	w, h := 1000.0, 800.0
	r := Region{X: 100, Y: 100, Width: 50, Height: 50}

	xf := CenterRegion(w, h, geometry.Identity(), r)

	// region-center + resulting translate == image center, exactly.
	assert.InDelta(t, w/2, r.Center().X+xf.TranslateX, 1e-9)
	assert.InDelta(t, h/2, r.Center().Y+xf.TranslateY, 1e-9)
	assert.InDelta(t, 1.0, xf.Scale, 1e-12)
}

func TestCenterRegion_CarriesRotationForcesScale(t *testing.T) {
	cur := geometry.Transform{Scale: 1.3, Rotation: -7.25, TranslateX: 99, TranslateY: -3}
	xf := CenterRegion(640, 480, cur, Region{X: 10, Y: 20, Width: 30, Height: 40})

	assert.InDelta(t, -7.25, xf.Rotation, 1e-12)
	assert.InDelta(t, 1.0, xf.Scale, 1e-12)
}

func TestAlignToReference_CentersCoincide(t *testing.T) {
	refW, refH := 1000.0, 800.0
	curW, curH := 900.0, 700.0
	refRegion := Region{X: 100, Y: 100, Width: 50, Height: 50}
	curRegion := Region{X: 120, Y: 90, Width: 50, Height: 50}

	refXF := CenterRegion(refW, refH, geometry.Identity(), refRegion)
	curXF := AlignToReference(
		refW, refH, refXF, refRegion,
		curW, curH, geometry.Identity(), curRegion)

	refPlaced := canvasCenter(refW, refH, refXF, refRegion)
	curPlaced := canvasCenter(curW, curH, curXF, curRegion)

	assert.InDelta(t, refPlaced.X, curPlaced.X, 1e-9)
	assert.InDelta(t, refPlaced.Y, curPlaced.Y, 1e-9)
}

func TestAlignToReference_ChainOfThree(t *testing.T) {
	w, h := 1000.0, 800.0
	regions := []Region{
		{X: 100, Y: 100, Width: 50, Height: 50},
		{X: 120, Y: 90, Width: 50, Height: 50},
		{X: 80, Y: 110, Width: 50, Height: 50},
	}

	xfs := make([]geometry.Transform, 3)
	xfs[0] = CenterRegion(w, h, geometry.Identity(), regions[0])
	for i := 1; i < 3; i++ {
		xfs[i] = AlignToReference(
			w, h, xfs[i-1], regions[i-1],
			w, h, geometry.Identity(), regions[i])
	}

	anchor := canvasCenter(w, h, xfs[0], regions[0])
	for i := 1; i < 3; i++ {
		placed := canvasCenter(w, h, xfs[i], regions[i])
		assert.InDelta(t, anchor.X, placed.X, 1e-9, "image %d center x", i)
		assert.InDelta(t, anchor.Y, placed.Y, 1e-9, "image %d center y", i)
	}
}

func TestAlignToReference_RotationCarriedFromCurrent(t *testing.T) {
	cur := geometry.Transform{Scale: 1, Rotation: 4.5}
	xf := AlignToReference(
		100, 100, geometry.Identity(), Region{X: 10, Y: 10, Width: 10, Height: 10},
		100, 100, cur, Region{X: 40, Y: 40, Width: 10, Height: 10})

	assert.InDelta(t, 4.5, xf.Rotation, 1e-12)
	assert.InDelta(t, 1.0, xf.Scale, 1e-12)
}
