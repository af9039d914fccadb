// Package region solves the translation component of image alignment from
// user-selected regions of interest. A region is an axis-aligned rectangle in
// the unrotated, unscaled image's own pixel space; its center is the anchor
// every solver pins down.
package region

import (
	"fmt"

	"github.com/MANISPIN/align-images-for-lenticular/internal/geometry"
)

// Region is a user-chosen rectangle in image pixel coordinates.
type Region struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Center returns the region's center point in image pixel space.
func (r Region) Center() geometry.Point {
	return geometry.Point{
		X: r.X + r.Width/2,
		Y: r.Y + r.Height/2,
	}
}

func (r Region) String() string {
	return fmt.Sprintf("region[%.1f,%.1f %gx%g]", r.X, r.Y, r.Width, r.Height)
}
