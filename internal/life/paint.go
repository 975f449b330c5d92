package life

import (
	"math"

	"github.com/ronikiienko/wgpu-game-of-life/internal/geom"
)

// GridUV maps a point in normalized device coordinates back through the
// camera and quad transforms to the unit square of the grid, v pointing down.
// ok is false when either transform is singular.
func GridUV(ndc geom.Vec2, viewProj, quad geom.Mat3) (uv geom.Vec2, ok bool) {
	vpInv, ok := viewProj.Inverse()
	if !ok {
		return geom.Vec2{}, false
	}
	quadInv, ok := quad.Inverse()
	if !ok {
		return geom.Vec2{}, false
	}
	t := quadInv.Mul(vpInv).Apply(ndc)
	uv = geom.Vec2{X: t.X*0.5 + 0.5, Y: t.Y*0.5 + 0.5}
	uv.Y = 1 - uv.Y
	return uv, true
}

// CellAt returns the cell under ndc on a width x height grid. ok is false when
// the point falls outside the grid quad.
func CellAt(ndc geom.Vec2, viewProj, quad geom.Mat3, width, height int) (x, y int, ok bool) {
	uv, ok := GridUV(ndc, viewProj, quad)
	if !ok || math.IsNaN(uv.X) || math.IsNaN(uv.Y) {
		return 0, 0, false
	}
	if uv.X < 0 || uv.X > 1 || uv.Y < 0 || uv.Y > 1 {
		return 0, 0, false
	}
	x = min(int(math.Floor(uv.X*float64(width))), width-1)
	y = min(int(math.Floor(uv.Y*float64(height))), height-1)
	return x, y, true
}

// Paint sets the cell under ndc alive or dead. It reports false, and leaves
// the grid untouched, when ndc is outside the grid quad.
func (s *Simulation) Paint(ndc geom.Vec2, viewProj, quad geom.Mat3, alive bool) (bool, error) {
	x, y, ok := CellAt(ndc, viewProj, quad, s.width, s.height)
	if !ok {
		return false, nil
	}
	v := byte(0)
	if alive {
		v = 1
	}
	if err := s.WriteArea(x, y, 1, 1, []byte{v}); err != nil {
		return false, err
	}
	return true, nil
}
