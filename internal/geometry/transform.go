// Package geometry provides the 2D transform algebra used by the alignment
// pipeline. A Transform is a rigid-plus-uniform-scale mapping (scale, rotation,
// translation) applied to an image for display or export; pixels are never
// resampled by this package.
package geometry

import (
	"fmt"
	"math"
)

// Point is a position in an image's own pixel coordinate space.
type Point struct {
	X float64
	Y float64
}

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Transform describes how an image is placed on the canvas: translate by
// (TranslateX, TranslateY), rotate by Rotation degrees, then scale uniformly,
// with the image drawn centered at its own pixel midpoint before these
// operations. Scale is held at 1.0 by every solver in this module; it exists
// because the display layer lets the user scale images manually.
type Transform struct {
	Scale      float64 `json:"scale" yaml:"scale"`
	Rotation   float64 `json:"rotation" yaml:"rotation"`
	TranslateX float64 `json:"translate_x" yaml:"translate_x"`
	TranslateY float64 `json:"translate_y" yaml:"translate_y"`
}

// Identity returns the neutral transform.
func Identity() Transform {
	return Transform{Scale: 1.0}
}

func (t Transform) String() string {
	return fmt.Sprintf("xform[s=%.3f r=%.2fdeg t=(%.2f,%.2f)]",
		t.Scale, t.Rotation, t.TranslateX, t.TranslateY)
}

// Translation returns the translation component as a point.
func (t Transform) Translation() Point {
	return Point{t.TranslateX, t.TranslateY}
}

// Compose applies b after a: the result places an object in b's frame, where
// b's frame is itself defined relative to a's already-placed frame. Rotations
// add, scales multiply, and b's translation is rotated into a's frame before
// being added.
func Compose(a, b Transform) Transform {
	bt := RotatePoint(b.Translation(), Point{}, a.Rotation)
	return Transform{
		Scale:      a.Scale * b.Scale,
		Rotation:   a.Rotation + b.Rotation,
		TranslateX: a.TranslateX + bt.X,
		TranslateY: a.TranslateY + bt.Y,
	}
}

// RotatePoint rotates p around center by deg degrees (positive is the
// direction of positive screen rotation, y axis pointing down).
func RotatePoint(p, center Point, deg float64) Point {
	if deg == 0 {
		return p
	}
	rad := deg * math.Pi / 180.0
	sin, cos := math.Sincos(rad)
	dx := p.X - center.X
	dy := p.Y - center.Y
	return Point{
		X: center.X + dx*cos - dy*sin,
		Y: center.Y + dx*sin + dy*cos,
	}
}

// UnrotatePoint maps a canvas-space offset back into the frame of a transform
// by inverting its rotation. Used when a caller needs to express a canvas
// displacement in image pixel coordinates.
func UnrotatePoint(p, center Point, deg float64) Point {
	return RotatePoint(p, center, -deg)
}
