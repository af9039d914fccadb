// Package match holds the feature-correspondence types shared between the
// keypoint detector and the alignment core, and the statistical filter that
// cleans raw correspondence sets before rotation solving.
package match

import "github.com/MANISPIN/align-images-for-lenticular/internal/geometry"

// KeyPoint is a detected feature position in an image's own pixel space,
// with the detector's confidence score for that location.
type KeyPoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Score float64 `json:"score,omitempty"`
}

// Point returns the keypoint position as a geometry point.
func (k KeyPoint) Point() geometry.Point {
	return geometry.Point{X: k.X, Y: k.Y}
}

// Correspondence is a matched pair of feature points, one from each of two
// images, with a non-negative distance score. Lower distance means a stronger
// match. Correspondences are ephemeral: produced and consumed within a single
// alignment pass.
type Correspondence struct {
	P1       geometry.Point `json:"p1"` // point in the first (reference) image
	P2       geometry.Point `json:"p2"` // point in the second image
	Distance float64        `json:"distance"`
}
