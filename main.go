package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"runtime"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pkg/errors"

	"github.com/ronikiienko/wgpu-game-of-life/internal/gpu"
	"github.com/ronikiienko/wgpu-game-of-life/internal/life"
)

func main() {
	flag.Parse()
	runtime.GOMAXPROCS(runtime.NumCPU())
	if err := run(ebiten.RunGame); err != nil {
		log.Fatal(err)
	}
}

// run builds the session from the flags and hands the game to loop. Every
// resource is released before it returns, including when loop fails.
func run(loop func(ebiten.Game) error) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevelFlag)); err != nil {
		return errors.Wrap(err, "invalid -log-level")
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *cpuProfileFlag != "" {
		prof, err := startCPUProfile(*cpuProfileFlag, logger)
		if err != nil {
			return errors.Wrap(err, "CPU profiling failed")
		}
		defer prof.Stop()
	}

	cfg, tier, err := configFromFlags()
	if err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	ctx, err := gpu.Open(*deviceFlag, logger)
	if err != nil {
		return errors.Wrap(err, "device initialization failed")
	}
	defer ctx.Close()

	g, err := newGame(ctx, cfg, gameOptions{
		seedPattern: *seedPatternFlag,
		seed:        *seedFlag,
		density:     *densityFlag,
		brush:       *brushFlag,
		speedTier:   tier,
	})
	if err != nil {
		return errors.Wrap(err, "simulation initialization failed")
	}
	defer g.close()

	ebiten.SetWindowSize(windowWidth, windowHeight)
	ebiten.SetWindowTitle(windowTitle)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := loop(g); err != nil {
		logger.Error("game loop stopped", "err", err)
		return err
	}
	return nil
}

// configFromFlags folds the command line into a validated life.Config. The
// returned tier is the speed tier index, or -1 when -interval overrides it.
func configFromFlags() (life.Config, int, error) {
	cfg := life.DefaultConfig()
	cfg.Width, cfg.Height = *widthFlag, *heightFlag
	cfg.Strategy = *strategyFlag
	cfg.MaxCatchUp = *maxCatchUpFlag
	cfg.MaxLag = defaultMaxLag

	pace, err := life.ParsePace(*paceFlag)
	if err != nil {
		return cfg, 0, err
	}
	cfg.Pace = pace

	tier := -1
	if *intervalFlag > 0 {
		cfg.Interval = *intervalFlag
	} else {
		interval, err := life.ParseSpeed(*speedFlag)
		if err != nil {
			return cfg, 0, err
		}
		cfg.Interval = interval
		for i, s := range life.Speeds {
			if s.Interval == interval {
				tier = i
			}
		}
	}
	return cfg, tier, cfg.Validate()
}
