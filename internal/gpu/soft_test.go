package gpu

import (
	"bytes"
	"errors"
	"image"
	"strings"
	"testing"

	pkgerrors "github.com/pkg/errors"
)

func newSoft(t *testing.T) *SoftDevice {
	t.Helper()
	d := NewSoftDevice(SoftOptions{Workers: 3})
	t.Cleanup(func() { d.Close() })
	return d
}

func mustGrid(t *testing.T, d Device, w, h int, layout Layout) Grid {
	t.Helper()
	g, err := d.CreateGrid(GridDesc{Label: "g", Width: w, Height: h, Layout: layout})
	if err != nil {
		t.Fatalf("CreateGrid: %v", err)
	}
	return g
}

func readBack(t *testing.T, d Device, g Grid) []byte {
	t.Helper()
	stride := AlignUp(g.Width(), d.Limits().CopyRowAlignment)
	st, err := d.CreateStaging("read", stride*g.Height())
	if err != nil {
		t.Fatalf("CreateStaging: %v", err)
	}
	enc := d.CreateEncoder("read")
	enc.CopyGridToStaging(g, image.Rect(0, 0, g.Width(), g.Height()), st, stride)
	cmd, err := enc.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := d.Queue().Submit(cmd); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	res := <-d.Queue().MapRead(st)
	if res.Err != nil {
		t.Fatalf("MapRead: %v", res.Err)
	}
	if res.Stride != stride {
		t.Fatalf("stride %d, want %d", res.Stride, stride)
	}
	out := make([]byte, 0, g.Width()*g.Height())
	for y := 0; y < g.Height(); y++ {
		out = append(out, res.Data[y*stride:y*stride+g.Width()]...)
	}
	return out
}

func TestAlignUp(t *testing.T) {
	cases := [][3]int{{0, 256, 0}, {1, 256, 256}, {256, 256, 256}, {257, 256, 512}, {7, 1, 7}}
	for _, c := range cases {
		if got := AlignUp(c[0], c[1]); got != c[2] {
			t.Errorf("AlignUp(%d, %d) = %d, want %d", c[0], c[1], got, c[2])
		}
	}
}

func TestWriteThenReadIsOrdered(t *testing.T) {
	d := newSoft(t)
	g := mustGrid(t, d, 5, 3, LayoutTexture)
	data := []byte{1, 2, 3, 4, 5, 6}
	if err := d.Queue().WriteGrid(g, image.Rect(1, 1, 4, 3), data); err != nil {
		t.Fatalf("WriteGrid: %v", err)
	}
	data[0] = 99 // the queue owns a copy
	want := []byte{
		0, 0, 0, 0, 0,
		0, 1, 2, 3, 0,
		0, 4, 5, 6, 0,
	}
	if got := readBack(t, d, g); !bytes.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDispatchCoversTiles(t *testing.T) {
	d := newSoft(t)
	src := mustGrid(t, d, 16, 8, LayoutLinear)
	dst := mustGrid(t, d, 16, 8, LayoutLinear)
	prog, err := d.CreateProgram(ProgramDesc{
		Label: "fill", Mode: ExecCompute, TileSize: 8,
		Compute: func(_, out []byte, w, _ int, tile image.Rectangle) {
			for y := tile.Min.Y; y < tile.Max.Y; y++ {
				for x := tile.Min.X; x < tile.Max.X; x++ {
					out[y*w+x] = byte(tile.Min.X/8 + 1)
				}
			}
		},
	})
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	enc := d.CreateEncoder("dispatch")
	enc.Dispatch(prog, Bindings{Read: src, Write: dst}, 2, 1)
	cmd, err := enc.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := d.Queue().Submit(cmd); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	got := readBack(t, d, dst)
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			if want := byte(x/8 + 1); got[y*16+x] != want {
				t.Fatalf("cell (%d,%d) = %d, want %d", x, y, got[y*16+x], want)
			}
		}
	}
}

func TestDrawSamplesWithRepeat(t *testing.T) {
	d := newSoft(t)
	src := mustGrid(t, d, 4, 2, LayoutTexture)
	dst := mustGrid(t, d, 4, 2, LayoutTexture)
	if err := d.Queue().WriteGrid(src, image.Rect(0, 0, 4, 2), []byte{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatalf("WriteGrid: %v", err)
	}
	// Each pixel copies its left neighbour, wrapping at column 0.
	prog, err := d.CreateProgram(ProgramDesc{
		Label: "shift", Mode: ExecRaster,
		Fragment: func(s Sampler, u, v float32) uint8 {
			w, _ := s.Size()
			return s.Sample(u-1/float32(w), v)
		},
	})
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	enc := d.CreateEncoder("draw")
	enc.Draw(prog, Bindings{Read: src, Write: dst})
	cmd, err := enc.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := d.Queue().Submit(cmd); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	want := []byte{4, 1, 2, 3, 8, 5, 6, 7}
	if got := readBack(t, d, dst); !bytes.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestEncoderValidation(t *testing.T) {
	d := newSoft(t)
	tex := mustGrid(t, d, 8, 8, LayoutTexture)
	lin := mustGrid(t, d, 8, 8, LayoutLinear)
	lin2 := mustGrid(t, d, 8, 8, LayoutLinear)
	compute, err := d.CreateProgram(ProgramDesc{Label: "c", Mode: ExecCompute, TileSize: 8,
		Compute: func(_, _ []byte, _, _ int, _ image.Rectangle) {}})
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	st, _ := d.CreateStaging("s", 256*8)

	cases := []struct {
		name   string
		record func(Encoder)
		want   error
	}{
		{"layout mismatch", func(e Encoder) { e.Dispatch(compute, Bindings{Read: tex, Write: lin}, 1, 1) }, ErrUnsupported},
		{"unaligned stride", func(e Encoder) { e.CopyGridToStaging(lin, image.Rect(0, 0, 8, 8), st, 8) }, ErrInvalidCopy},
		{"region outside", func(e Encoder) { e.CopyGridToStaging(lin, image.Rect(0, 0, 9, 8), st, 256) }, ErrInvalidCopy},
		{"staging too small", func(e Encoder) { e.CopyGridToStaging(lin, image.Rect(0, 0, 8, 8), st, 512) }, ErrInvalidCopy},
	}
	for _, c := range cases {
		enc := d.CreateEncoder(c.name)
		c.record(enc)
		if _, err := enc.Finish(); !errors.Is(err, c.want) {
			t.Errorf("%s: err = %v, want %v", c.name, err, c.want)
		}
	}

	enc := d.CreateEncoder("short dispatch")
	enc.Dispatch(compute, Bindings{Read: lin, Write: lin2}, 0, 1)
	if _, err := enc.Finish(); err == nil {
		t.Errorf("dispatch of zero groups should fail")
	}

	lin2.Release()
	enc = d.CreateEncoder("released")
	enc.Dispatch(compute, Bindings{Read: lin, Write: lin2}, 1, 1)
	if _, err := enc.Finish(); !errors.Is(err, ErrReleased) {
		t.Errorf("released grid: err = %v", err)
	}
}

func TestSubmitTwice(t *testing.T) {
	d := newSoft(t)
	cmd, err := d.CreateEncoder("empty").Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := d.Queue().Submit(cmd); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := d.Queue().Submit(cmd); err == nil {
		t.Fatalf("second submit of the same buffer succeeded")
	}
}

func TestLostDeviceRejectsWork(t *testing.T) {
	d := newSoft(t)
	g := mustGrid(t, d, 4, 4, LayoutLinear)
	d.Lose(errors.New("reset"))
	if _, err := d.CreateStaging("s", 256*4); !errors.Is(err, ErrDeviceLost) {
		t.Fatalf("CreateStaging after loss: err = %v", err)
	}
	err := d.Queue().WriteGrid(g, image.Rect(0, 0, 1, 1), []byte{1})
	if !errors.Is(err, ErrDeviceLost) {
		t.Fatalf("WriteGrid after loss: err = %v", err)
	}
	if pkgerrors.Cause(err) != ErrDeviceLost || !strings.Contains(err.Error(), "reset") {
		t.Fatalf("loss error %q should keep the reason and unwrap to ErrDeviceLost", err)
	}
}

func TestKernelPanicLosesDevice(t *testing.T) {
	d := newSoft(t)
	a := mustGrid(t, d, 8, 8, LayoutLinear)
	b := mustGrid(t, d, 8, 8, LayoutLinear)
	st, _ := d.CreateStaging("s", 256*8)
	prog, _ := d.CreateProgram(ProgramDesc{Label: "boom", Mode: ExecCompute, TileSize: 8,
		Compute: func(_, _ []byte, _, _ int, _ image.Rectangle) { panic("boom") }})
	enc := d.CreateEncoder("boom")
	enc.Dispatch(prog, Bindings{Read: a, Write: b}, 1, 1)
	enc.CopyGridToStaging(b, image.Rect(0, 0, 8, 8), st, 256)
	cmd, err := enc.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := d.Queue().Submit(cmd); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res := <-d.Queue().MapRead(st); !errors.Is(res.Err, ErrDeviceLost) {
		t.Fatalf("MapRead after panic: err = %v", res.Err)
	}
}

func TestOpenSoft(t *testing.T) {
	ctx, err := Open(DeviceSoft, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer ctx.Close()
	if ctx.Queue == nil || ctx.Log == nil {
		t.Fatalf("incomplete context %+v", ctx)
	}
	if _, err := Open("vulkan", nil); err == nil {
		t.Fatalf("unknown device accepted")
	}
}
