package life

import (
	"github.com/pkg/errors"

	"github.com/ronikiienko/wgpu-game-of-life/internal/gpu"
)

// validateDimensions runs before any device resource exists.
func validateDimensions(width, height int, s StepStrategy, limits gpu.Limits) error {
	if width <= 0 || height <= 0 {
		return errors.Wrapf(ErrInvalidDimensions, "%dx%d", width, height)
	}
	if limits.MaxGridDimension > 0 && (width > limits.MaxGridDimension || height > limits.MaxGridDimension) {
		return errors.Wrapf(ErrInvalidDimensions, "%dx%d exceeds device limit %d", width, height, limits.MaxGridDimension)
	}
	if t := s.TileSize(); t > 1 && (width%t != 0 || height%t != 0) {
		return errors.Wrapf(ErrInvalidDimensions, "%dx%d is not a multiple of the %s tile size %d", width, height, s.Name(), t)
	}
	return nil
}

// allocate creates the two grids. Both start dead.
func allocate(ctx *gpu.Context, s StepStrategy, width, height int) ([2]gpu.Grid, error) {
	var grids [2]gpu.Grid
	if err := validateDimensions(width, height, s, ctx.Device.Limits()); err != nil {
		return grids, err
	}
	for i, label := range [2]string{"grid a", "grid b"} {
		g, err := ctx.Device.CreateGrid(gpu.GridDesc{
			Label:  label,
			Width:  width,
			Height: height,
			Layout: s.Layout(),
		})
		if err != nil {
			for _, prev := range grids[:i] {
				prev.Release()
			}
			return [2]gpu.Grid{}, errors.Wrapf(err, "allocating %s", label)
		}
		grids[i] = g
	}
	return grids, nil
}
