package geometry

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Aff3 is a 2x3 affine matrix in row-major order, compatible with
// x/image/draw transforms. Local type so we can hang methods off it.
type Aff3 f64.Aff3

// IdentityAff3 returns the identity affine matrix.
func IdentityAff3() Aff3 {
	return Aff3{1, 0, 0, 0, 1, 0}
}

// Mult returns p*q (q applied first).
func (p Aff3) Mult(q Aff3) Aff3 {
	return Aff3{
		p[3*0+0]*q[3*0+0] + p[3*0+1]*q[3*1+0],
		p[3*0+0]*q[3*0+1] + p[3*0+1]*q[3*1+1],
		p[3*0+0]*q[3*0+2] + p[3*0+1]*q[3*1+2] + p[3*0+2],
		p[3*1+0]*q[3*0+0] + p[3*1+1]*q[3*1+0],
		p[3*1+0]*q[3*0+1] + p[3*1+1]*q[3*1+1],
		p[3*1+0]*q[3*0+2] + p[3*1+1]*q[3*1+2] + p[3*1+2],
	}
}

// Translate composes a translation onto m.
func (m Aff3) Translate(tx, ty float64) Aff3 {
	return m.Mult(Aff3{1, 0, tx, 0, 1, ty})
}

// Rotate composes a rotation by deg degrees onto m.
func (m Aff3) Rotate(deg float64) Aff3 {
	sin, cos := math.Sincos(deg * math.Pi / 180.0)
	return m.Mult(Aff3{cos, -sin, 0, sin, cos, 0})
}

// ScaleUniform composes a uniform scale onto m.
func (m Aff3) ScaleUniform(s float64) Aff3 {
	return m.Mult(Aff3{s, 0, 0, 0, s, 0})
}

// Apply maps a point through the matrix.
func (m Aff3) Apply(p Point) Point {
	return Point{
		X: m[0]*p.X + m[1]*p.Y + m[2],
		Y: m[3]*p.X + m[4]*p.Y + m[5],
	}
}

// ToMatrix builds the source-to-canvas affine matrix for an image of the
// given pixel size placed by t. The image is centered at its own midpoint,
// then translated, rotated and scaled, matching the display layer's
// translate-rotate-scale order.
func (t Transform) ToMatrix(imageWidth, imageHeight float64) Aff3 {
	cx := imageWidth / 2
	cy := imageHeight / 2
	m := IdentityAff3().
		Translate(cx+t.TranslateX, cy+t.TranslateY).
		Rotate(t.Rotation)
	if t.Scale != 1.0 && t.Scale > 0 {
		m = m.ScaleUniform(t.Scale)
	}
	return m.Translate(-cx, -cy)
}
