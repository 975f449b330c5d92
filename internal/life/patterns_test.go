package life

import (
	"bytes"
	"testing"
)

func TestPatternShapes(t *testing.T) {
	want := map[string][2]int{
		"blinker":        {3, 3},
		"loaf":           {4, 4},
		"toad":           {4, 4},
		"lwss":           {5, 4},
		"mwss":           {6, 5},
		"hwss":           {7, 5},
		"pentadecathlon": {9, 10},
	}
	names := PatternNames()
	if len(names) != len(want) {
		t.Fatalf("PatternNames() = %v", names)
	}
	for _, n := range names {
		p, ok := LookupPattern(n)
		if !ok {
			t.Fatalf("LookupPattern(%q) not found", n)
		}
		size, ok := want[n]
		if !ok {
			t.Errorf("unexpected pattern %q", n)
			continue
		}
		if p.Width != size[0] || p.Height != size[1] || len(p.Cells) != p.Width*p.Height {
			t.Errorf("%s: %dx%d with %d cells, want %dx%d", n, p.Width, p.Height, len(p.Cells), size[0], size[1])
		}
	}
	if _, ok := LookupPattern("BLINKER"); !ok {
		t.Error("lookup should ignore case")
	}
	if _, ok := LookupPattern("glider gun"); ok {
		t.Error("unknown pattern found")
	}
}

func TestFills(t *testing.T) {
	forEachStrategy(t, func(t *testing.T, strategy string) {
		sim := newSim(t, strategy, 16, 16)

		if err := sim.FillHalf(); err != nil {
			t.Fatal(err)
		}
		cells := snapshot(t, sim)
		if !bytes.Equal(cells[:128], make([]byte, 128)) || !bytes.Equal(cells[128:], bytes.Repeat([]byte{1}, 128)) {
			t.Fatalf("FillHalf: %v", cells)
		}

		if err := sim.Clear(); err != nil {
			t.Fatal(err)
		}
		if cells := snapshot(t, sim); !bytes.Equal(cells, make([]byte, 256)) {
			t.Fatalf("Clear left live cells")
		}

		if err := sim.FillRandom(7, 1); err != nil {
			t.Fatal(err)
		}
		if cells := snapshot(t, sim); !bytes.Equal(cells, bytes.Repeat([]byte{1}, 256)) {
			t.Fatalf("FillRandom density 1 left dead cells")
		}
		if err := sim.FillRandom(7, 1.5); err == nil {
			t.Fatal("FillRandom accepted density 1.5")
		}

		if err := sim.FillNoise(3, 4, -10); err != nil {
			t.Fatal(err)
		}
		if cells := snapshot(t, sim); !bytes.Equal(cells, bytes.Repeat([]byte{1}, 256)) {
			t.Fatalf("FillNoise below the noise range left dead cells")
		}
		if err := sim.FillNoise(3, 0, 0); err == nil {
			t.Fatal("FillNoise accepted scale 0")
		}
	})
}

func TestFillRandomIsDeterministic(t *testing.T) {
	a := newSim(t, StrategyRaster, 16, 16)
	b := newSim(t, StrategyRaster, 16, 16)
	if err := a.FillRandom(42, 0.4); err != nil {
		t.Fatal(err)
	}
	if err := b.FillRandom(42, 0.4); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(snapshot(t, a), snapshot(t, b)) {
		t.Fatal("same seed produced different grids")
	}
}
