// Package camera implements the pan/zoom view over the grid quad.
package camera

import (
	"math"

	"golang.org/x/exp/constraints"

	"github.com/ronikiienko/wgpu-game-of-life/internal/geom"
)

const (
	MinZoom = 0.1
	MaxZoom = 100.0
	// wheelStep is the zoom change per wheel notch.
	wheelStep = 0.04
)

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Camera is a 2-D camera. Zoom is the world extent shown per unit of screen,
// so a larger zoom shows more of the world.
type Camera struct {
	Position    geom.Vec2
	Rotation    float64
	Zoom        float64
	AspectRatio float64
}

// New returns a camera centred on the origin.
func New(aspect float64) *Camera {
	if aspect <= 0 {
		aspect = 1
	}
	return &Camera{Zoom: 1, AspectRatio: aspect}
}

// Matrix is the view-projection: world to normalized device coordinates.
func (c *Camera) Matrix() geom.Mat3 {
	model := geom.Translate(c.Position.X, c.Position.Y).
		Mul(geom.Rotate(c.Rotation)).
		Mul(geom.Scale(c.Zoom, c.Zoom))
	view, ok := model.Inverse()
	if !ok {
		view = geom.Identity()
	}
	return geom.Scale(1/c.AspectRatio, 1).Mul(view)
}

// Controller turns held direction keys and wheel input into camera motion.
type Controller struct {
	// Speed is the pan distance per update at zoom 1.
	Speed float64

	Up, Down, Left, Right bool
	wheel                 float64
}

// NewController returns a controller with the given pan speed.
func NewController(speed float64) *Controller {
	return &Controller{Speed: speed}
}

// Wheel records a wheel delta for the next Update. Positive zooms in.
func (k *Controller) Wheel(dy float64) { k.wheel += dy }

// Update applies pending input to c. Panning is scaled by zoom so it feels
// the same at every magnification.
func (k *Controller) Update(c *Camera) {
	var dx, dy float64
	if k.Up {
		dy++
	}
	if k.Down {
		dy--
	}
	if k.Left {
		dx--
	}
	if k.Right {
		dx++
	}
	c.Zoom = clamp(c.Zoom*(1-k.wheel*wheelStep), MinZoom, MaxZoom)
	k.wheel = 0
	if l := math.Hypot(dx, dy); l > 0 {
		c.Position.X += dx / l * k.Speed * c.Zoom
		c.Position.Y += dy / l * k.Speed * c.Zoom
	}
}
