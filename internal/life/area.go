package life

import (
	"image"

	"github.com/pkg/errors"

	"github.com/ronikiienko/wgpu-game-of-life/internal/gpu"
)

// PendingRead is an in-flight copy of a grid region to host memory.
type PendingRead struct {
	region     image.Rectangle
	generation uint64
	ch         <-chan gpu.MapResult
}

// Done delivers the raw mapped result exactly once. Pass it to Unpack.
func (p *PendingRead) Done() <-chan gpu.MapResult { return p.ch }

// Region is the grid rectangle being read.
func (p *PendingRead) Region() image.Rectangle { return p.region }

// Generation is the generation the read was issued at.
func (p *PendingRead) Generation() uint64 { return p.generation }

// Wait blocks until the device completes the copy and returns the region as
// tightly packed rows. There is no timeout.
func (p *PendingRead) Wait() ([]byte, error) {
	return p.Unpack(<-p.ch)
}

// Unpack strips row padding from a result received on Done.
func (p *PendingRead) Unpack(res gpu.MapResult) ([]byte, error) {
	if res.Err != nil {
		return nil, errors.Wrap(res.Err, "reading back grid")
	}
	w, h := p.region.Dx(), p.region.Dy()
	if res.Stride == w {
		return res.Data[:w*h], nil
	}
	out := make([]byte, w*h)
	for row := 0; row < h; row++ {
		copy(out[row*w:(row+1)*w], res.Data[row*res.Stride:])
	}
	return out, nil
}

func (s *Simulation) region(x, y, w, h int) (image.Rectangle, error) {
	r := image.Rect(x, y, x+w, y+h)
	if w < 0 || h < 0 || !r.In(image.Rect(0, 0, s.width, s.height)) {
		return r, errors.Wrapf(ErrRegionOutOfBounds, "%dx%d at (%d,%d) on %dx%d grid", w, h, x, y, s.width, s.height)
	}
	return r, nil
}

// WriteArea overwrites a w x h rectangle of the current grid at (x, y). data
// holds w*h row-major cells, each 0 or 1. The write is ordered after every
// step already issued and before every later one. Empty rectangles are a
// no-op.
func (s *Simulation) WriteArea(x, y, w, h int, data []byte) error {
	if s.closed {
		return ErrClosed
	}
	if w < 0 || h < 0 {
		return errors.Wrapf(ErrRegionOutOfBounds, "negative size %dx%d", w, h)
	}
	if len(data) != w*h {
		return errors.Wrapf(ErrSizeMismatch, "%d bytes for a %dx%d area", len(data), w, h)
	}
	for i, b := range data {
		if b > 1 {
			return errors.Wrapf(ErrSizeMismatch, "cell %d holds %d, want 0 or 1", i, b)
		}
	}
	if w == 0 || h == 0 {
		return nil
	}
	r, err := s.region(x, y, w, h)
	if err != nil {
		return err
	}
	if err := s.ctx.Queue.WriteGrid(s.grids[s.current], r, data); err != nil {
		return errors.Wrap(err, "writing area")
	}
	return nil
}

// ReadAreaAsync starts copying a rectangle of the current grid back to the
// host. w must be a multiple of the device copy alignment.
func (s *Simulation) ReadAreaAsync(x, y, w, h int) (*PendingRead, error) {
	if s.closed {
		return nil, ErrClosed
	}
	r, err := s.region(x, y, w, h)
	if err != nil {
		return nil, err
	}
	if r.Empty() {
		return nil, errors.Wrapf(ErrRegionOutOfBounds, "empty read %v", r)
	}
	align := s.ctx.Device.Limits().CopyRowAlignment
	if align > 1 && w%align != 0 {
		return nil, errors.Wrapf(ErrAlignment, "width %d is not a multiple of %d", w, align)
	}
	return s.readGrid(s.grids[s.current], r, w)
}

// ReadArea is ReadAreaAsync followed by Wait.
func (s *Simulation) ReadArea(x, y, w, h int) ([]byte, error) {
	p, err := s.ReadAreaAsync(x, y, w, h)
	if err != nil {
		return nil, err
	}
	return p.Wait()
}

func (s *Simulation) readGrid(g gpu.Grid, r image.Rectangle, bytesPerRow int) (*PendingRead, error) {
	staging, err := s.ctx.Device.CreateStaging("readback", bytesPerRow*r.Dy())
	if err != nil {
		return nil, errors.Wrap(err, "creating staging buffer")
	}
	enc := s.ctx.Device.CreateEncoder("read area")
	enc.CopyGridToStaging(g, r, staging, bytesPerRow)
	cmd, err := enc.Finish()
	if err != nil {
		staging.Release()
		return nil, errors.Wrap(err, "recording readback")
	}
	if err := s.ctx.Queue.Submit(cmd); err != nil {
		staging.Release()
		return nil, errors.Wrap(err, "submitting readback")
	}
	return &PendingRead{
		region:     r,
		generation: s.generation,
		ch:         s.ctx.Queue.MapRead(staging),
	}, nil
}
