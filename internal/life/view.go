package life

import (
	"image"

	"github.com/pkg/errors"

	"github.com/ronikiienko/wgpu-game-of-life/internal/gpu"
)

// View is a read-only handle on the grid that was current when the view was
// taken. Resolve a new one every frame; a view goes stale after the next
// step.
type View struct {
	sim        *Simulation
	grid       gpu.Grid
	generation uint64
}

// Valid reports whether the view came from a simulation.
func (v View) Valid() bool { return v.sim != nil }

// Grid is the sampleable surface a renderer binds.
func (v View) Grid() gpu.Sampleable { return v.grid }

func (v View) Width() int {
	if v.sim == nil {
		return 0
	}
	return v.sim.width
}

func (v View) Height() int {
	if v.sim == nil {
		return 0
	}
	return v.sim.height
}

// Generation is the generation the view shows.
func (v View) Generation() uint64 { return v.generation }

// Stale reports whether a later step (or Close) has invalidated the view.
func (v View) Stale() bool {
	return v.sim == nil || v.sim.closed || v.sim.generation != v.generation
}

// Snapshot starts an asynchronous copy of the whole grid. Rows are padded to
// the device copy alignment on the device and unpacked by the PendingRead.
func (v View) Snapshot() (*PendingRead, error) {
	if v.sim != nil && v.sim.closed {
		return nil, ErrClosed
	}
	if v.Stale() {
		return nil, errors.Wrapf(ErrStaleView, "view of generation %d", v.generation)
	}
	s := v.sim
	stride := gpu.AlignUp(s.width, s.ctx.Device.Limits().CopyRowAlignment)
	return s.readGrid(v.grid, image.Rect(0, 0, s.width, s.height), stride)
}
