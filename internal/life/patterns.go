package life

import (
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/aquilax/go-perlin"
	"github.com/pkg/errors"
)

// Pattern is a small fixed bitmap of cells.
type Pattern struct {
	Name          string
	Width, Height int
	Cells         []byte
}

var patterns = map[string]Pattern{
	"blinker": {Name: "blinker", Width: 3, Height: 3, Cells: []byte{
		0, 1, 0,
		0, 1, 0,
		0, 1, 0,
	}},
	"loaf": {Name: "loaf", Width: 4, Height: 4, Cells: []byte{
		0, 1, 1, 0,
		1, 0, 0, 1,
		0, 1, 0, 1,
		0, 0, 1, 0,
	}},
	"toad": {Name: "toad", Width: 4, Height: 4, Cells: []byte{
		0, 0, 1, 0,
		1, 0, 0, 1,
		1, 0, 0, 1,
		0, 1, 0, 0,
	}},
	"lwss": {Name: "lwss", Width: 5, Height: 4, Cells: []byte{
		0, 1, 1, 1, 1,
		1, 0, 0, 0, 1,
		0, 0, 0, 0, 1,
		1, 0, 0, 1, 0,
	}},
	"mwss": {Name: "mwss", Width: 6, Height: 5, Cells: []byte{
		0, 0, 1, 0, 0, 0,
		1, 0, 0, 0, 1, 0,
		0, 0, 0, 0, 0, 1,
		1, 0, 0, 0, 0, 1,
		0, 1, 1, 1, 1, 1,
	}},
	"hwss": {Name: "hwss", Width: 7, Height: 5, Cells: []byte{
		0, 0, 1, 1, 0, 0, 0,
		1, 0, 0, 0, 0, 1, 0,
		0, 0, 0, 0, 0, 0, 1,
		1, 0, 0, 0, 0, 0, 1,
		0, 1, 1, 1, 1, 1, 1,
	}},
	"pentadecathlon": {Name: "pentadecathlon", Width: 9, Height: 10, Cells: []byte{
		0, 0, 0, 1, 1, 1, 0, 0, 0,
		0, 0, 1, 0, 0, 0, 1, 0, 0,
		0, 1, 0, 0, 0, 0, 0, 1, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0,
		1, 0, 0, 0, 0, 0, 0, 0, 1,
		1, 0, 0, 0, 0, 0, 0, 0, 1,
		0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 1, 0, 0, 0, 0, 0, 1, 0,
		0, 0, 1, 0, 0, 0, 1, 0, 0,
		0, 0, 0, 1, 1, 1, 0, 0, 0,
	}},
}

// LookupPattern returns the named pattern.
func LookupPattern(name string) (Pattern, bool) {
	p, ok := patterns[strings.ToLower(name)]
	return p, ok
}

// PatternNames lists the built-in patterns in sorted order.
func PatternNames() []string {
	names := make([]string, 0, len(patterns))
	for n := range patterns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Seed writes p with its top-left corner at (x, y).
func (s *Simulation) Seed(p Pattern, x, y int) error {
	return errors.Wrapf(s.WriteArea(x, y, p.Width, p.Height, p.Cells), "seeding %s", p.Name)
}

// Clear kills every cell of the current grid.
func (s *Simulation) Clear() error {
	return s.fill(func(int, int) byte { return 0 })
}

// FillHalf kills the upper half of the grid and fills the lower half.
func (s *Simulation) FillHalf() error {
	half := s.width * s.height / 2
	return s.fill(func(x, y int) byte {
		if y*s.width+x < half {
			return 0
		}
		return 1
	})
}

// FillRandom sets each cell alive with probability density.
func (s *Simulation) FillRandom(seed uint64, density float64) error {
	if density < 0 || density > 1 {
		return errors.Errorf("density %v outside [0,1]", density)
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return s.fill(func(int, int) byte {
		if rng.Float64() < density {
			return 1
		}
		return 0
	})
}

// FillNoise sets cells alive where 2-D Perlin noise sampled at scale cells per
// unit exceeds threshold. Noise lies roughly in [-1, 1].
func (s *Simulation) FillNoise(seed int64, scale, threshold float64) error {
	if scale <= 0 {
		return errors.Errorf("noise scale %v must be positive", scale)
	}
	p := perlin.NewPerlin(2, 2, 3, seed)
	return s.fill(func(x, y int) byte {
		if p.Noise2D(float64(x)/scale, float64(y)/scale) > threshold {
			return 1
		}
		return 0
	})
}

func (s *Simulation) fill(cell func(x, y int) byte) error {
	data := make([]byte, s.width*s.height)
	for y := 0; y < s.height; y++ {
		row := data[y*s.width : (y+1)*s.width]
		for x := range row {
			row[x] = cell(x, y)
		}
	}
	return s.WriteArea(0, 0, s.width, s.height, data)
}
