// Package geom holds the 3x3 homogeneous transforms shared by the camera, the
// renderer and pointer painting.
package geom

import "math"

// Vec2 is a point in 2-D space.
type Vec2 struct {
	X, Y float64
}

// Mat3 is a row-major 3x3 matrix acting on column vectors (x, y, 1).
type Mat3 [9]float64

// Identity returns the identity transform.
func Identity() Mat3 {
	return Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// Translate returns a translation by (x, y).
func Translate(x, y float64) Mat3 {
	return Mat3{1, 0, x, 0, 1, y, 0, 0, 1}
}

// Scale returns a non-uniform scale.
func Scale(sx, sy float64) Mat3 {
	return Mat3{sx, 0, 0, 0, sy, 0, 0, 0, 1}
}

// Rotate returns a counter-clockwise rotation by angle radians.
func Rotate(angle float64) Mat3 {
	s, c := math.Sincos(angle)
	return Mat3{c, -s, 0, s, c, 0, 0, 0, 1}
}

// At returns the element at row r, column c.
func (m Mat3) At(r, c int) float64 { return m[r*3+c] }

// Mul returns m·n, the transform that applies n first.
func (m Mat3) Mul(n Mat3) Mat3 {
	var out Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = m[r*3]*n[c] + m[r*3+1]*n[3+c] + m[r*3+2]*n[6+c]
		}
	}
	return out
}

// Det returns the determinant.
func (m Mat3) Det() float64 {
	return m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
}

// Inverse returns the inverse of m. ok is false when m is singular.
func (m Mat3) Inverse() (inv Mat3, ok bool) {
	det := m.Det()
	if det == 0 || math.IsNaN(det) {
		return Mat3{}, false
	}
	d := 1 / det
	inv = Mat3{
		(m[4]*m[8] - m[5]*m[7]) * d,
		(m[2]*m[7] - m[1]*m[8]) * d,
		(m[1]*m[5] - m[2]*m[4]) * d,
		(m[5]*m[6] - m[3]*m[8]) * d,
		(m[0]*m[8] - m[2]*m[6]) * d,
		(m[2]*m[3] - m[0]*m[5]) * d,
		(m[3]*m[7] - m[4]*m[6]) * d,
		(m[1]*m[6] - m[0]*m[7]) * d,
		(m[0]*m[4] - m[1]*m[3]) * d,
	}
	return inv, true
}

// Apply transforms the homogeneous point (p.X, p.Y, 1) and divides by w.
func (m Mat3) Apply(p Vec2) Vec2 {
	x := m[0]*p.X + m[1]*p.Y + m[2]
	y := m[3]*p.X + m[4]*p.Y + m[5]
	w := m[6]*p.X + m[7]*p.Y + m[8]
	if w != 0 && w != 1 {
		x /= w
		y /= w
	}
	return Vec2{x, y}
}

// ScreenToNDC maps a pixel position on a width x height surface to normalized
// device coordinates, x right and y up, both in [-1, 1].
func ScreenToNDC(px, py float64, width, height int) Vec2 {
	return Vec2{
		X: 2*px/float64(width) - 1,
		Y: 1 - 2*py/float64(height),
	}
}

// NDCToScreen is the inverse of ScreenToNDC.
func NDCToScreen(p Vec2, width, height int) Vec2 {
	return Vec2{
		X: (p.X + 1) / 2 * float64(width),
		Y: (1 - p.Y) / 2 * float64(height),
	}
}
