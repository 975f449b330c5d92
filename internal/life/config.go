package life

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Pace selects how MaybeStep converts elapsed time into steps.
type Pace int

const (
	// PaceThrottle runs at most one step per call once Interval has elapsed
	// since the previous step. Time beyond the interval is not caught up.
	PaceThrottle Pace = iota
	// PaceAccumulate runs zero or more steps per call from a fixed-timestep
	// accumulator, bounded by MaxCatchUp and reset after a gap longer than
	// MaxLag.
	PaceAccumulate
)

func (p Pace) String() string {
	switch p {
	case PaceThrottle:
		return "throttle"
	case PaceAccumulate:
		return "accumulate"
	}
	return fmt.Sprintf("Pace(%d)", int(p))
}

// ParsePace maps a flag value to a Pace.
func ParsePace(s string) (Pace, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "throttle":
		return PaceThrottle, nil
	case "accumulate":
		return PaceAccumulate, nil
	}
	return 0, errors.Errorf("unknown pace %q (want throttle or accumulate)", s)
}

// Speed is a named step interval.
type Speed struct {
	Name     string
	Interval time.Duration
}

// Speeds lists the tiers in slowest-first order; digit keys 1-7 select them.
var Speeds = []Speed{
	{"1000ms", 1000 * time.Millisecond},
	{"500ms", 500 * time.Millisecond},
	{"250ms", 250 * time.Millisecond},
	{"100ms", 100 * time.Millisecond},
	{"30ms", 30 * time.Millisecond},
	{"15ms", 15 * time.Millisecond},
	{"1ms", 1 * time.Millisecond},
}

// ParseSpeed returns the interval of the named tier. Names are matched
// case-insensitively and may omit the "ms" suffix.
func ParseSpeed(name string) (time.Duration, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, s := range Speeds {
		if n == s.Name || n+"ms" == s.Name {
			return s.Interval, nil
		}
	}
	return 0, errors.Errorf("unknown speed tier %q", name)
}

// Config describes a simulation.
type Config struct {
	Width, Height int
	// Strategy names the step strategy: "raster" or "compute".
	Strategy string
	// Interval is the minimum time between steps.
	Interval time.Duration
	Pace     Pace
	// MaxCatchUp caps the steps PaceAccumulate runs in one call. Zero means
	// no cap.
	MaxCatchUp int
	// MaxLag is the largest gap between calls PaceAccumulate will catch up
	// on. Zero disables the guard.
	MaxLag time.Duration
}

// DefaultConfig mirrors the defaults of the sandbox.
func DefaultConfig() Config {
	return Config{
		Width:      512,
		Height:     512,
		Strategy:   StrategyRaster,
		Interval:   100 * time.Millisecond,
		Pace:       PaceThrottle,
		MaxCatchUp: 8,
		MaxLag:     50 * time.Millisecond,
	}
}

// Validate checks the fields that do not depend on a device.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Wrapf(ErrInvalidDimensions, "%dx%d", c.Width, c.Height)
	}
	if _, err := StrategyByName(c.Strategy); err != nil {
		return err
	}
	if c.Interval < 0 {
		return errors.Errorf("negative step interval %v", c.Interval)
	}
	if c.Pace != PaceThrottle && c.Pace != PaceAccumulate {
		return errors.Errorf("unknown pace %v", c.Pace)
	}
	if c.MaxCatchUp < 0 || c.MaxLag < 0 {
		return errors.Errorf("negative catch-up bounds (%d, %v)", c.MaxCatchUp, c.MaxLag)
	}
	return nil
}
