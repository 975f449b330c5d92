package main

import (
	"image"
	"testing"

	"github.com/ronikiienko/wgpu-game-of-life/internal/geom"
	"github.com/ronikiienko/wgpu-game-of-life/internal/gpu"
	"github.com/ronikiienko/wgpu-game-of-life/internal/life"
)

func TestBrushFootprint(t *testing.T) {
	if got := brushFootprint(0); len(got) != 1 || got[0] != (brushSpan{}) {
		t.Fatalf("radius 0: got %v", got)
	}
	if got := brushFootprint(-3); len(got) != 1 {
		t.Fatalf("negative radius: got %v", got)
	}
	spans := brushFootprint(2)
	want := []brushSpan{
		{dy: -2, x0: 0, x1: 0},
		{dy: -1, x0: -1, x1: 1},
		{dy: 0, x0: -2, x1: 2},
		{dy: 1, x0: -1, x1: 1},
		{dy: 2, x0: 0, x1: 0},
	}
	if len(spans) != len(want) {
		t.Fatalf("radius 2: got %d rows, want %d", len(spans), len(want))
	}
	for i := range want {
		if spans[i] != want[i] {
			t.Errorf("row %d: got %+v, want %+v", i, spans[i], want[i])
		}
	}
}

func newBrushSim(t *testing.T, w, h int) *life.Simulation {
	t.Helper()
	ctx := gpu.NewContext(gpu.NewSoftDevice(gpu.SoftOptions{Workers: 2}), nil)
	t.Cleanup(func() { ctx.Close() })
	cfg := life.DefaultConfig()
	cfg.Width, cfg.Height = w, h
	sim, err := life.New(ctx, cfg)
	if err != nil {
		t.Fatalf("life.New: %v", err)
	}
	t.Cleanup(sim.Close)
	return sim
}

func aliveCells(t *testing.T, sim *life.Simulation) map[image.Point]bool {
	t.Helper()
	p, err := sim.CurrentView().Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	cells, err := p.Wait()
	if err != nil {
		t.Fatalf("snapshot wait: %v", err)
	}
	w, _ := sim.Size()
	alive := map[image.Point]bool{}
	for i, c := range cells {
		if c != 0 {
			alive[image.Pt(i%w, i/w)] = true
		}
	}
	return alive
}

func TestPaintBrushCentre(t *testing.T) {
	sim := newBrushSim(t, 16, 16)
	id := geom.Identity()
	hit, err := paintBrush(sim, brushFootprint(1), geom.Vec2{}, id, id, true)
	if err != nil || !hit {
		t.Fatalf("paintBrush: hit=%v err=%v", hit, err)
	}
	got := aliveCells(t, sim)
	want := []image.Point{{8, 7}, {7, 8}, {8, 8}, {9, 8}, {8, 9}}
	if len(got) != len(want) {
		t.Fatalf("got %d alive cells, want %d: %v", len(got), len(want), got)
	}
	for _, p := range want {
		if !got[p] {
			t.Errorf("cell %v not painted", p)
		}
	}

	if _, err := paintBrush(sim, brushFootprint(1), geom.Vec2{}, id, id, false); err != nil {
		t.Fatalf("erase: %v", err)
	}
	if got := aliveCells(t, sim); len(got) != 0 {
		t.Fatalf("erase left %v", got)
	}
}

func TestPaintBrushClipsAtCorner(t *testing.T) {
	sim := newBrushSim(t, 16, 16)
	id := geom.Identity()
	hit, err := paintBrush(sim, brushFootprint(1), geom.Vec2{X: -1, Y: 1}, id, id, true)
	if err != nil || !hit {
		t.Fatalf("paintBrush: hit=%v err=%v", hit, err)
	}
	got := aliveCells(t, sim)
	want := []image.Point{{0, 0}, {1, 0}, {0, 1}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for _, p := range want {
		if !got[p] {
			t.Errorf("cell %v not painted", p)
		}
	}
}

func TestPaintBrushMiss(t *testing.T) {
	sim := newBrushSim(t, 16, 16)
	id := geom.Identity()
	hit, err := paintBrush(sim, brushFootprint(2), geom.Vec2{X: 3, Y: 0}, id, id, true)
	if err != nil || hit {
		t.Fatalf("paintBrush outside quad: hit=%v err=%v", hit, err)
	}
	if got := aliveCells(t, sim); len(got) != 0 {
		t.Fatalf("miss painted %v", got)
	}
}
