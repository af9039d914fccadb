package region

import "github.com/MANISPIN/align-images-for-lenticular/internal/geometry"

// CenterRegion computes the transform that moves the selected region's center
// onto the image's own geometric center in canvas space. Rotation is carried
// over from the current transform; scale is forced back to 1.0. Used for the
// first image of a sequence, which anchors the chain.
func CenterRegion(imageWidth, imageHeight float64, current geometry.Transform, r Region) geometry.Transform {
	rc := r.Center()
	rel := rc.Sub(geometry.Point{X: imageWidth / 2, Y: imageHeight / 2})
	return geometry.Transform{
		Scale:      1.0,
		Rotation:   current.Rotation,
		TranslateX: -rel.X,
		TranslateY: -rel.Y,
	}
}

// AlignToReference computes the transform that places the current image so
// that its region center coincides with the reference image's already-placed
// region center. The reference transform must be final before this is called;
// chains are therefore solved strictly in sequence order.
//
// Rotation is carried from the current transform unchanged (it is solved in a
// separate pass); scale is forced back to 1.0. Both regions must be present --
// the orchestrator skips pairs where either is missing.
func AlignToReference(
	refWidth, refHeight float64, refTransform geometry.Transform, refRegion Region,
	curWidth, curHeight float64, curTransform geometry.Transform, curRegion Region,
) geometry.Transform {
	refCenter := geometry.Point{X: refWidth / 2, Y: refHeight / 2}
	curCenter := geometry.Point{X: curWidth / 2, Y: curHeight / 2}

	// Where the reference region center has landed on the canvas.
	refPlaced := refTransform.Translation().Add(refRegion.Center().Sub(refCenter))

	// Where the current region center would land with zero translation.
	curUnplaced := curRegion.Center().Sub(curCenter)

	delta := refPlaced.Sub(curUnplaced)
	return geometry.Transform{
		Scale:      1.0,
		Rotation:   curTransform.Rotation,
		TranslateX: delta.X,
		TranslateY: delta.Y,
	}
}
