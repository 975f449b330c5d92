package main

import (
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pkg/errors"

	"github.com/ronikiienko/wgpu-game-of-life/internal/camera"
	"github.com/ronikiienko/wgpu-game-of-life/internal/geom"
	"github.com/ronikiienko/wgpu-game-of-life/internal/gpu"
	"github.com/ronikiienko/wgpu-game-of-life/internal/life"
	"github.com/ronikiienko/wgpu-game-of-life/internal/perf"
)

// Game wires the simulation core to the window: input, pacing and
// presentation.
type Game struct {
	ctx *gpu.Context
	sim *life.Simulation
	log *slog.Logger

	cam    *camera.Camera
	camCtl *camera.Controller
	quad   geom.Mat3

	presenter *presenter
	shader    *ebiten.Shader
	perf      *perf.Monitor

	brush       []brushSpan
	seedPattern string
	seed        int64
	density     float64

	paused    bool
	speedTier int // index into life.Speeds, -1 for an explicit -interval
	showHUD   bool

	screenW, screenH int
	lastStepsPerSec  float64
	genAtSample      uint64
	sampleAt         time.Time
}

type gameOptions struct {
	seedPattern string
	seed        int64
	density     float64
	brush       int
	speedTier   int
}

// newGame builds the simulation on ctx and seeds it.
func newGame(ctx *gpu.Context, cfg life.Config, opts gameOptions) (*Game, error) {
	sim, err := life.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	shader, err := ebiten.NewShader(cellShaderSource)
	if err != nil {
		sim.Close()
		return nil, errors.Wrap(err, "compiling cell shader")
	}
	g := &Game{
		ctx:         ctx,
		sim:         sim,
		log:         ctx.Log,
		cam:         camera.New(float64(windowWidth) / float64(windowHeight)),
		camCtl:      camera.NewController(cameraSpeed),
		quad:        geom.Scale(float64(cfg.Width)/quadBaselineCells, float64(cfg.Height)/quadBaselineCells),
		presenter:   newPresenter(cfg.Width, cfg.Height, ctx.Log),
		shader:      shader,
		perf:        perf.NewMonitor(),
		brush:       brushFootprint(min(opts.brush, maxBrushRadius)),
		seedPattern: opts.seedPattern,
		seed:        opts.seed,
		density:     opts.density,
		speedTier:   opts.speedTier,
		showHUD:     true,
		screenW:     windowWidth,
		screenH:     windowHeight,
	}
	if err := g.reseed(); err != nil {
		g.close()
		return nil, err
	}
	g.perf.Start("frame")
	return g, nil
}

// reseed applies the configured initial state to the current grid.
func (g *Game) reseed() error {
	w, h := g.sim.Size()
	var err error
	switch g.seedPattern {
	case "half":
		err = g.sim.FillHalf()
	case "random":
		err = g.sim.FillRandom(uint64(g.seed), g.density)
	case "noise":
		err = g.sim.FillNoise(g.seed, noiseScale, noiseThreshold)
	case "empty":
		err = g.sim.Clear()
	default:
		p, ok := life.LookupPattern(g.seedPattern)
		if !ok {
			return errors.Errorf("unknown seed pattern %q (want half, random, noise, empty or one of %v)", g.seedPattern, life.PatternNames())
		}
		if p.Width > w || p.Height > h {
			return errors.Errorf("pattern %s (%dx%d) does not fit a %dx%d grid", p.Name, p.Width, p.Height, w, h)
		}
		if err = g.sim.Clear(); err == nil {
			err = g.sim.Seed(p, (w-p.Width)/2, (h-p.Height)/2)
		}
	}
	if err != nil {
		return errors.Wrapf(err, "seeding %s", g.seedPattern)
	}
	g.presenter.invalidate()
	g.log.Info("seeded grid", "pattern", g.seedPattern, "generation", g.sim.Generation())
	return nil
}

// Update handles input, advances the simulation and keeps the presented
// image in sync with the current grid.
func (g *Game) Update() error {
	now := time.Now()
	if err := g.handleControls(now); err != nil {
		return err
	}
	g.updateCamera()
	if err := g.handlePainting(); err != nil {
		return err
	}

	view := g.sim.CurrentView()
	if !g.paused {
		var err error
		if view, err = g.sim.MaybeStep(now); err != nil {
			return errors.Wrap(err, "stepping simulation")
		}
	}
	g.sampleStepRate(now)

	if err := g.presenter.poll(); err != nil {
		return errors.Wrap(err, "presenting grid")
	}
	if err := g.presenter.request(view); err != nil {
		return errors.Wrap(err, "presenting grid")
	}
	return nil
}

// sampleStepRate refreshes the steps-per-second figure once a second.
func (g *Game) sampleStepRate(now time.Time) {
	if g.sampleAt.IsZero() {
		g.sampleAt, g.genAtSample = now, g.sim.Generation()
		return
	}
	if el := now.Sub(g.sampleAt); el >= time.Second {
		gen := g.sim.Generation()
		g.lastStepsPerSec = float64(gen-g.genAtSample) / el.Seconds()
		g.sampleAt, g.genAtSample = now, gen
	}
}

func (g *Game) close() {
	if g.shader != nil {
		g.shader.Deallocate()
	}
	g.sim.Close()
}
