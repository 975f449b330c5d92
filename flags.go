package main

import "flag"

// Command-line flags controlling the device, the simulation and the session.
// They are folded into a life.Config in main.
var (
	// deviceFlag picks the compute device: auto, soft or opencl.
	deviceFlag = flag.String("device", "auto", "compute device: auto, soft or opencl (opencl needs -tags opencl)")

	// strategyFlag picks how a step executes on the device.
	strategyFlag = flag.String("strategy", "raster", "step strategy: raster (full-grid quad) or compute (8x8 work groups)")

	widthFlag  = flag.Int("width", defaultGridSize, "grid width in cells")
	heightFlag = flag.Int("height", defaultGridSize, "grid height in cells")

	// speedFlag names a speed tier; digit keys 1-7 switch tiers at runtime.
	speedFlag = flag.String("speed", defaultSpeed, "step interval tier: 1000ms, 500ms, 250ms, 100ms, 30ms, 15ms or 1ms")

	// intervalFlag overrides the tier with an explicit duration when non-zero.
	intervalFlag = flag.Duration("interval", 0, "explicit step interval, overrides -speed")

	// paceFlag selects throttled (one step per frame at most) or accumulated pacing.
	paceFlag = flag.String("pace", "throttle", "step pacing: throttle or accumulate")

	maxCatchUpFlag = flag.Int("max-catch-up", 8, "maximum steps per frame with -pace accumulate")

	// seedPatternFlag chooses the initial state.
	seedPatternFlag = flag.String("seed-pattern", "half", "initial state: half, random, noise, empty or a pattern name")

	seedFlag    = flag.Int64("seed", 1, "seed for random and noise fills")
	densityFlag = flag.Float64("density", defaultDensity, "alive probability for the random fill")

	// brushFlag sets the paint brush radius in cells; 0 paints single cells.
	brushFlag = flag.Int("brush", 0, "paint brush radius in cells")

	// debugFlag enables the FPS overlay.
	debugFlag = flag.Bool("debug", false, "show FPS and TPS overlay")

	logLevelFlag = flag.String("log-level", "info", "log level: debug, info, warn or error")

	// cpuProfileFlag writes a CPU profile covering the whole session.
	cpuProfileFlag = flag.String("cpuprofile", "", "write a CPU profile to this file")
)
