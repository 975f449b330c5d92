package main

import (
	"log/slog"
	"os"
	"runtime/pprof"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// cpuProfile records a pprof CPU profile for the lifetime of the session.
type cpuProfile struct {
	path    string
	f       *os.File
	started time.Time
	log     *slog.Logger
	once    sync.Once
}

func startCPUProfile(path string, logger *slog.Logger) (*cpuProfile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "creating CPU profile")
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "starting CPU profile")
	}
	logger.Info("recording CPU profile", "path", path)
	return &cpuProfile{path: path, f: f, started: time.Now(), log: logger}, nil
}

// Stop flushes the profile. Later calls do nothing.
func (p *cpuProfile) Stop() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		pprof.StopCPUProfile()
		if err := p.f.Close(); err != nil {
			p.log.Warn("closing CPU profile", "path", p.path, "err", err)
			return
		}
		p.log.Info("wrote CPU profile", "path", p.path, "duration", time.Since(p.started).Round(time.Millisecond))
	})
}
