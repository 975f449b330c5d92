package life

import (
	"github.com/pkg/errors"

	"github.com/ronikiienko/wgpu-game-of-life/internal/gpu"
)

// Strategy names.
const (
	StrategyRaster  = "raster"
	StrategyCompute = "compute"
)

// ComputeTileSize is the work-group edge of the compute strategy. Grid
// dimensions must be multiples of it when that strategy is active.
const ComputeTileSize = 8

// StepStrategy records one Life step from read into write. Implementations
// differ only in how the device executes the kernel.
type StepStrategy interface {
	Name() string
	// Layout is the grid storage the program reads and writes.
	Layout() gpu.Layout
	// TileSize is the granularity grid dimensions must respect.
	TileSize() int
	Program() gpu.ProgramDesc
	Record(enc gpu.Encoder, prog gpu.Program, read, write gpu.Grid)
}

// StrategyByName returns the named strategy. The empty name selects raster.
func StrategyByName(name string) (StepStrategy, error) {
	switch name {
	case StrategyRaster, "":
		return NewRasterStrategy(), nil
	case StrategyCompute:
		return NewComputeStrategy(), nil
	}
	return nil, errors.Wrapf(ErrUnknownStrategy, "%q", name)
}

// Strategies returns every available strategy.
func Strategies() []StepStrategy {
	return []StepStrategy{NewRasterStrategy(), NewComputeStrategy()}
}

type rasterStrategy struct{}

// NewRasterStrategy steps by rasterizing a full-grid quad whose per-pixel
// program samples the read grid as a wrapped texture.
func NewRasterStrategy() StepStrategy { return rasterStrategy{} }

func (rasterStrategy) Name() string       { return StrategyRaster }
func (rasterStrategy) Layout() gpu.Layout { return gpu.LayoutTexture }
func (rasterStrategy) TileSize() int      { return 1 }

func (rasterStrategy) Program() gpu.ProgramDesc {
	return gpu.ProgramDesc{
		Label:    "life fragment",
		Mode:     gpu.ExecRaster,
		Entry:    "life_fragment",
		Source:   fragmentKernelSource,
		TileSize: 1,
		Fragment: lifeFragment,
	}
}

func (rasterStrategy) Record(enc gpu.Encoder, prog gpu.Program, read, write gpu.Grid) {
	enc.Draw(prog, gpu.Bindings{Read: read, Write: write})
}

type computeStrategy struct{}

// NewComputeStrategy steps by dispatching one invocation per cell in
// ComputeTileSize square work groups over linear buffers.
func NewComputeStrategy() StepStrategy { return computeStrategy{} }

func (computeStrategy) Name() string       { return StrategyCompute }
func (computeStrategy) Layout() gpu.Layout { return gpu.LayoutLinear }
func (computeStrategy) TileSize() int      { return ComputeTileSize }

func (computeStrategy) Program() gpu.ProgramDesc {
	return gpu.ProgramDesc{
		Label:    "life compute",
		Mode:     gpu.ExecCompute,
		Entry:    "life_step",
		Source:   computeKernelSource,
		TileSize: ComputeTileSize,
		Compute:  lifeCompute,
	}
}

func (computeStrategy) Record(enc gpu.Encoder, prog gpu.Program, read, write gpu.Grid) {
	enc.Dispatch(prog, gpu.Bindings{Read: read, Write: write},
		read.Width()/ComputeTileSize, read.Height()/ComputeTileSize)
}
