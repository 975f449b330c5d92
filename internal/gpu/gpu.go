// Package gpu is the device layer the simulation core records work against.
//
// A Context bundles a Device and its Queue and is passed explicitly to every
// component that allocates device resources or records commands. Work is
// recorded into an Encoder, finished into a CommandBuffer and submitted to the
// Queue; submissions execute on the device timeline in FIFO order. Reading
// device memory back is asynchronous: the result of a MapRead arrives on a
// channel once the device signals completion.
package gpu

import (
	"image"
	"log/slog"

	"github.com/pkg/errors"
)

// DefaultCopyRowAlignment is the byte alignment required of the row stride of
// grid-to-staging copies.
const DefaultCopyRowAlignment = 256

var (
	// ErrDeviceLost is reported by every operation on a device that has been lost.
	ErrDeviceLost = errors.New("gpu: device lost")
	// ErrReleased is reported when a released resource is used.
	ErrReleased = errors.New("gpu: resource released")
	// ErrUnsupported is reported when a device cannot execute a program mode or grid layout.
	ErrUnsupported = errors.New("gpu: unsupported by device")
	// ErrInvalidCopy is reported for malformed copy or write regions.
	ErrInvalidCopy = errors.New("gpu: invalid copy")
)

// Layout selects how a grid is stored on the device.
type Layout int

const (
	// LayoutTexture stores the grid as a 2-D image sampled with wrap addressing.
	LayoutTexture Layout = iota
	// LayoutLinear stores the grid as a row-major storage buffer.
	LayoutLinear
)

func (l Layout) String() string {
	switch l {
	case LayoutTexture:
		return "texture"
	case LayoutLinear:
		return "linear"
	}
	return "unknown"
}

// ExecMode selects how a program is executed.
type ExecMode int

const (
	// ExecRaster runs the program once per pixel of a full-screen quad
	// covering the write grid.
	ExecRaster ExecMode = iota
	// ExecCompute dispatches the program over a grid of work groups.
	ExecCompute
)

func (m ExecMode) String() string {
	switch m {
	case ExecRaster:
		return "raster"
	case ExecCompute:
		return "compute"
	}
	return "unknown"
}

// Limits describes device constraints callers must respect.
type Limits struct {
	CopyRowAlignment int
	MaxGridDimension int
}

// GridDesc describes a 1 byte per cell device grid.
type GridDesc struct {
	Label  string
	Width  int
	Height int
	Layout Layout
}

// Sampleable is the read-only face of a grid handed to renderers.
type Sampleable interface {
	Label() string
	Width() int
	Height() int
	Layout() Layout
}

// Grid is a device-resident 2-D array of unsigned bytes.
type Grid interface {
	Sampleable
	Release()
}

// Staging is a host-visible buffer that grid regions are copied into.
// A staging buffer is consumed by MapRead.
type Staging interface {
	Size() int
	Release()
}

// Program is a compiled, immutable device program.
type Program interface {
	Label() string
	Mode() ExecMode
	Release()
}

// Sampler reads a texture with normalized coordinates, REPEAT addressing and
// nearest filtering.
type Sampler interface {
	Sample(u, v float32) uint8
	Size() (width, height int)
}

// FragmentFunc is the host rendition of a raster program: it returns the value
// written at the pixel whose centre is (u, v).
type FragmentFunc func(src Sampler, u, v float32) uint8

// ComputeFunc is the host rendition of a compute program: it fills dst for
// every cell of one work-group tile.
type ComputeFunc func(src, dst []byte, width, height int, tile image.Rectangle)

// ProgramDesc carries every rendition of a program; a device compiles the one
// it can execute.
type ProgramDesc struct {
	Label string
	Mode  ExecMode
	// Entry is the kernel name inside Source.
	Entry string
	// Source is OpenCL C.
	Source string
	// TileSize is the work-group edge length for compute programs.
	TileSize int

	Fragment FragmentFunc
	Compute  ComputeFunc
}

// Bindings fills a program's resource slots.
type Bindings struct {
	Read  Grid
	Write Grid
}

// CommandBuffer is a finished, submittable batch of commands.
type CommandBuffer interface {
	Label() string
}

// Encoder records commands. Errors are deferred until Finish.
type Encoder interface {
	// Draw rasterizes a full-screen quad over b.Write running p per pixel.
	Draw(p Program, b Bindings)
	// Dispatch runs p over groupsX*groupsY work groups.
	Dispatch(p Program, b Bindings, groupsX, groupsY int)
	// CopyGridToStaging copies region of src into dst with the given row stride.
	CopyGridToStaging(src Grid, region image.Rectangle, dst Staging, bytesPerRow int)
	Finish() (CommandBuffer, error)
}

// MapResult is delivered once a staging buffer has been read back.
type MapResult struct {
	Data   []byte
	Stride int
	Err    error
}

// Queue submits work to the device timeline.
type Queue interface {
	// WriteGrid schedules a host-to-device write of region. data is copied
	// before WriteGrid returns.
	WriteGrid(dst Grid, region image.Rectangle, data []byte) error
	Submit(cmds ...CommandBuffer) error
	// MapRead resolves once every previously submitted command has completed
	// and s has been read back. The channel receives exactly one result.
	MapRead(s Staging) <-chan MapResult
}

// Device creates resources and encoders.
type Device interface {
	Name() string
	Limits() Limits
	Supports(mode ExecMode) bool
	CreateGrid(desc GridDesc) (Grid, error)
	CreateStaging(label string, size int) (Staging, error)
	CreateProgram(desc ProgramDesc) (Program, error)
	CreateEncoder(label string) Encoder
	Queue() Queue
	Close() error
}

// Context is the device handle set threaded through the simulation core.
type Context struct {
	Device Device
	Queue  Queue
	Log    *slog.Logger
}

// NewContext wraps dev. A nil logger discards output.
func NewContext(dev Device, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Context{Device: dev, Queue: dev.Queue(), Log: logger}
}

// Close releases the device.
func (c *Context) Close() error {
	if c == nil || c.Device == nil {
		return nil
	}
	return c.Device.Close()
}

// AlignUp rounds n up to a multiple of align.
func AlignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

// validCopy checks a region and stride against a grid and staging size.
func validCopy(gridW, gridH int, region image.Rectangle, bytesPerRow, stagingSize, align int) error {
	if region.Empty() || !region.In(image.Rect(0, 0, gridW, gridH)) {
		return errors.Wrapf(ErrInvalidCopy, "region %v outside %dx%d grid", region, gridW, gridH)
	}
	if bytesPerRow < region.Dx() {
		return errors.Wrapf(ErrInvalidCopy, "row stride %d shorter than region width %d", bytesPerRow, region.Dx())
	}
	if align > 1 && bytesPerRow%align != 0 {
		return errors.Wrapf(ErrInvalidCopy, "row stride %d not a multiple of %d", bytesPerRow, align)
	}
	if need := bytesPerRow * region.Dy(); need > stagingSize {
		return errors.Wrapf(ErrInvalidCopy, "staging holds %d bytes, copy needs %d", stagingSize, need)
	}
	return nil
}
