package life

import "time"

// Pacer converts wall-clock time into a number of steps to run.
type Pacer struct {
	mode       Pace
	interval   time.Duration
	maxCatchUp int
	maxLag     time.Duration

	lastStep time.Time
	prevCall time.Time
	acc      time.Duration
}

// NewPacer returns a pacer for cfg. The first throttled call always steps.
func NewPacer(cfg Config) *Pacer {
	return &Pacer{
		mode:       cfg.Pace,
		interval:   cfg.Interval,
		maxCatchUp: cfg.MaxCatchUp,
		maxLag:     cfg.MaxLag,
	}
}

// Interval returns the configured step interval.
func (p *Pacer) Interval() time.Duration { return p.interval }

// Mode returns the pacing mode.
func (p *Pacer) Mode() Pace { return p.mode }

// SetInterval changes the step interval without discarding accumulated time.
func (p *Pacer) SetInterval(d time.Duration) {
	if d >= 0 {
		p.interval = d
	}
}

// Reset forgets elapsed time, e.g. when resuming from pause.
func (p *Pacer) Reset(now time.Time) {
	p.lastStep = now
	p.prevCall = now
	p.acc = 0
}

// Due returns how many steps to run at now. PaceThrottle returns 0 or 1.
func (p *Pacer) Due(now time.Time) int {
	if p.mode == PaceAccumulate {
		return p.accumulate(now)
	}
	if !p.lastStep.IsZero() && now.Sub(p.lastStep) < p.interval {
		return 0
	}
	p.lastStep = now
	return 1
}

func (p *Pacer) accumulate(now time.Time) int {
	if p.prevCall.IsZero() {
		p.prevCall = now
		return 0
	}
	gap := now.Sub(p.prevCall)
	p.prevCall = now
	if gap < 0 {
		gap = 0
	}
	// Past maxLag the backlog is dropped rather than caught up.
	if p.maxLag > 0 && gap >= p.maxLag {
		p.acc = 0
		return 0
	}
	if p.interval <= 0 {
		return 1
	}
	p.acc += gap
	n := int(p.acc / p.interval)
	p.acc -= time.Duration(n) * p.interval
	if p.maxCatchUp > 0 && n > p.maxCatchUp {
		n = p.maxCatchUp
	}
	if n > 0 {
		p.lastStep = now
	}
	return n
}
