// Package life advances Conway's Game of Life on a gpu.Device.
//
// A Simulation owns two grids of identical size. One is current: it is what
// renderers sample and what area reads and writes target. A step reads the
// current grid, writes the other one and then flips the current index. Steps
// and writes are submitted as they are issued, so the queue's FIFO order is
// the only synchronisation between them.
package life

import (
	"time"

	"github.com/pkg/errors"

	"github.com/ronikiienko/wgpu-game-of-life/internal/gpu"
)

// Simulation is the double-buffered simulation state. It is not safe for
// concurrent use; drive it from one goroutine.
type Simulation struct {
	ctx      *gpu.Context
	strategy StepStrategy
	program  gpu.Program
	grids    [2]gpu.Grid
	current  int

	width, height int
	generation    uint64
	pacer         *Pacer
	closed        bool
}

// New validates cfg against the device and allocates both grids. Nothing is
// allocated when validation fails.
func New(ctx *gpu.Context, cfg Config) (*Simulation, error) {
	if ctx == nil || ctx.Device == nil {
		return nil, errors.New("life: nil device context")
	}
	strategy, err := StrategyByName(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateDimensions(cfg.Width, cfg.Height, strategy, ctx.Device.Limits()); err != nil {
		return nil, err
	}
	desc := strategy.Program()
	if !ctx.Device.Supports(desc.Mode) {
		return nil, errors.Wrapf(gpu.ErrUnsupported, "%s cannot run %s programs", ctx.Device.Name(), desc.Mode)
	}
	program, err := ctx.Device.CreateProgram(desc)
	if err != nil {
		return nil, errors.Wrap(err, "creating step program")
	}
	grids, err := allocate(ctx, strategy, cfg.Width, cfg.Height)
	if err != nil {
		program.Release()
		return nil, err
	}
	ctx.Log.Info("simulation created",
		"device", ctx.Device.Name(),
		"strategy", strategy.Name(),
		"width", cfg.Width,
		"height", cfg.Height,
		"interval", cfg.Interval,
		"pace", cfg.Pace.String(),
	)
	return &Simulation{
		ctx:      ctx,
		strategy: strategy,
		program:  program,
		grids:    grids,
		width:    cfg.Width,
		height:   cfg.Height,
		pacer:    NewPacer(cfg),
	}, nil
}

// Size returns the grid dimensions.
func (s *Simulation) Size() (width, height int) { return s.width, s.height }

// Generation counts the steps recorded so far.
func (s *Simulation) Generation() uint64 { return s.generation }

// Strategy returns the step strategy chosen at construction.
func (s *Simulation) Strategy() StepStrategy { return s.strategy }

// Pacer exposes the step pacing for speed and pause controls.
func (s *Simulation) Pacer() *Pacer { return s.pacer }

// Context returns the device context the simulation records against.
func (s *Simulation) Context() *gpu.Context { return s.ctx }

// Step records and submits one step, then flips the current grid. The step
// completes asynchronously; later submissions are ordered after it.
func (s *Simulation) Step() error {
	if s.closed {
		return ErrClosed
	}
	read, write := s.grids[s.current], s.grids[1-s.current]
	enc := s.ctx.Device.CreateEncoder("life step")
	s.strategy.Record(enc, s.program, read, write)
	cmd, err := enc.Finish()
	if err != nil {
		return errors.Wrap(err, "recording step")
	}
	if err := s.ctx.Queue.Submit(cmd); err != nil {
		s.ctx.Log.Error("step submission failed", "generation", s.generation, "err", err)
		return errors.Wrap(err, "submitting step")
	}
	s.current = 1 - s.current
	s.generation++
	return nil
}

// MaybeStep runs the steps the pacer reports due at now and returns a view
// of the resulting current grid. With PaceThrottle at most one step runs.
func (s *Simulation) MaybeStep(now time.Time) (View, error) {
	if s.closed {
		return View{}, ErrClosed
	}
	for n := s.pacer.Due(now); n > 0; n-- {
		if err := s.Step(); err != nil {
			return s.CurrentView(), err
		}
	}
	return s.CurrentView(), nil
}

// CurrentView resolves the grid that is current right now.
func (s *Simulation) CurrentView() View {
	return View{sim: s, grid: s.grids[s.current], generation: s.generation}
}

// Close releases the grids and the program. It does not close the device.
func (s *Simulation) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for _, g := range s.grids {
		g.Release()
	}
	s.program.Release()
}
