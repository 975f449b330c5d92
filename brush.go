package main

import (
	"github.com/ronikiienko/wgpu-game-of-life/internal/geom"
	"github.com/ronikiienko/wgpu-game-of-life/internal/life"
)

// brushSpan is one row of a brush footprint: columns [x0, x1] at dy.
type brushSpan struct {
	dy     int
	x0, x1 int
}

// brushFootprint returns the rows of a filled disc of the given radius.
// Radius 0 is the single centre cell.
func brushFootprint(radius int) []brushSpan {
	if radius < 0 {
		radius = 0
	}
	spans := make([]brushSpan, 0, 2*radius+1)
	r2 := radius * radius
	for y := -radius; y <= radius; y++ {
		x := 0
		for (x+1)*(x+1)+y*y <= r2 {
			x++
		}
		spans = append(spans, brushSpan{dy: y, x0: -x, x1: x})
	}
	return spans
}

// paintBrush writes the footprint centred on the cell under ndc. Rows and
// columns falling off the grid are clipped. It reports whether ndc hit the
// grid.
func paintBrush(sim *life.Simulation, spans []brushSpan, ndc geom.Vec2, viewProj, quad geom.Mat3, alive bool) (bool, error) {
	if len(spans) <= 1 {
		return sim.Paint(ndc, viewProj, quad, alive)
	}
	w, h := sim.Size()
	cx, cy, ok := life.CellAt(ndc, viewProj, quad, w, h)
	if !ok {
		return false, nil
	}
	v := byte(0)
	if alive {
		v = 1
	}
	row := make([]byte, 0, w)
	for _, s := range spans {
		y := cy + s.dy
		if y < 0 || y >= h {
			continue
		}
		x0, x1 := max(cx+s.x0, 0), min(cx+s.x1, w-1)
		if x0 > x1 {
			continue
		}
		row = row[:0]
		for x := x0; x <= x1; x++ {
			row = append(row, v)
		}
		if err := sim.WriteArea(x0, y, len(row), 1, row); err != nil {
			return true, err
		}
	}
	return true, nil
}
