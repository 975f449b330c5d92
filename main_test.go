package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/ronikiienko/wgpu-game-of-life/internal/life"
)

func setFlag[T any](t *testing.T, p *T, v T) {
	t.Helper()
	old := *p
	*p = v
	t.Cleanup(func() { *p = old })
}

func TestRunReleasesOnLoopError(t *testing.T) {
	profile := filepath.Join(t.TempDir(), "cpu.pprof")
	setFlag(t, cpuProfileFlag, profile)
	setFlag(t, deviceFlag, "soft")
	setFlag(t, widthFlag, 64)
	setFlag(t, heightFlag, 64)
	setFlag(t, logLevelFlag, "error")

	lost := errors.New("device lost")
	var game *Game
	err := run(func(g ebiten.Game) error {
		game = g.(*Game)
		return lost
	})
	if !errors.Is(err, lost) {
		t.Fatalf("run: err = %v, want %v", err, lost)
	}
	if game == nil {
		t.Fatal("loop never received the game")
	}
	if err := game.sim.Step(); !errors.Is(err, life.ErrClosed) {
		t.Fatalf("simulation still open after run: %v", err)
	}
	fi, err := os.Stat(profile)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if fi.Size() == 0 {
		t.Fatal("profile was not flushed")
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	setFlag(t, deviceFlag, "soft")
	setFlag(t, paceFlag, "sprint")
	setFlag(t, logLevelFlag, "error")

	called := false
	err := run(func(ebiten.Game) error {
		called = true
		return nil
	})
	if err == nil || called {
		t.Fatalf("run: err = %v, loop called = %v", err, called)
	}
}
