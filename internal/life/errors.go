package life

import "github.com/pkg/errors"

var (
	// ErrInvalidDimensions rejects a grid size that is zero, exceeds the
	// device limit or is not a multiple of the strategy tile size.
	ErrInvalidDimensions = errors.New("life: invalid dimensions")
	// ErrSizeMismatch rejects a write payload whose length is not w*h or
	// that holds a value other than 0 or 1.
	ErrSizeMismatch = errors.New("life: size mismatch")
	// ErrAlignment rejects a read whose row width is not a multiple of the
	// device copy alignment.
	ErrAlignment = errors.New("life: row width violates copy alignment")
	// ErrRegionOutOfBounds rejects a rectangle that does not fit the grid.
	ErrRegionOutOfBounds = errors.New("life: region out of bounds")
	// ErrStaleView is returned when a view is read after a later step.
	ErrStaleView = errors.New("life: stale view")
	// ErrClosed is returned by every operation on a closed simulation.
	ErrClosed = errors.New("life: simulation closed")
	// ErrUnknownStrategy rejects a strategy name.
	ErrUnknownStrategy = errors.New("life: unknown step strategy")
)
