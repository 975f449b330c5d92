package camera

import (
	"math"
	"testing"

	"github.com/ronikiienko/wgpu-game-of-life/internal/geom"
)

func TestMatrixCentresPosition(t *testing.T) {
	c := New(2)
	c.Position = geom.Vec2{X: 3, Y: -1}
	c.Zoom = 2
	got := c.Matrix().Apply(c.Position)
	if math.Abs(got.X) > 1e-9 || math.Abs(got.Y) > 1e-9 {
		t.Fatalf("camera position maps to %v, want origin", got)
	}
	// One zoom unit to the right lands at 1/aspect.
	got = c.Matrix().Apply(geom.Vec2{X: 5, Y: -1})
	if math.Abs(got.X-0.5) > 1e-9 {
		t.Fatalf("got x %v, want 0.5", got.X)
	}
}

func TestZoomClamp(t *testing.T) {
	c := New(1)
	k := NewController(0.05)
	for i := 0; i < 500; i++ {
		k.Wheel(-5)
		k.Update(c)
	}
	if c.Zoom != MaxZoom {
		t.Fatalf("zoom %v, want clamp at %v", c.Zoom, MaxZoom)
	}
	for i := 0; i < 500; i++ {
		k.Wheel(5)
		k.Update(c)
	}
	if c.Zoom != MinZoom {
		t.Fatalf("zoom %v, want clamp at %v", c.Zoom, MinZoom)
	}
}

func TestPanScalesWithZoom(t *testing.T) {
	c := New(1)
	c.Zoom = 4
	k := NewController(0.05)
	k.Right, k.Up = true, true
	k.Update(c)
	want := 0.05 * 4 / math.Sqrt2
	if math.Abs(c.Position.X-want) > 1e-9 || math.Abs(c.Position.Y-want) > 1e-9 {
		t.Fatalf("position %v, want (%v, %v)", c.Position, want, want)
	}
}
