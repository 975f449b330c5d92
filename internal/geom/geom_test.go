package geom

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestInverseRoundTrip(t *testing.T) {
	m := Scale(2, 0.5).Mul(Rotate(0.3)).Mul(Translate(4, -1))
	inv, ok := m.Inverse()
	if !ok {
		t.Fatalf("expected invertible matrix")
	}
	id := m.Mul(inv)
	want := Identity()
	for i := range id {
		if !near(id[i], want[i]) {
			t.Fatalf("m*inv = %v, want identity", id)
		}
	}
	p := Vec2{3, 7}
	back := inv.Apply(m.Apply(p))
	if !near(back.X, p.X) || !near(back.Y, p.Y) {
		t.Fatalf("round trip %v -> %v", p, back)
	}
}

func TestSingular(t *testing.T) {
	if _, ok := Scale(0, 1).Inverse(); ok {
		t.Fatalf("expected singular matrix to have no inverse")
	}
}

func TestMulOrder(t *testing.T) {
	// Translate after scaling.
	m := Translate(1, 0).Mul(Scale(2, 2))
	got := m.Apply(Vec2{1, 1})
	if !near(got.X, 3) || !near(got.Y, 2) {
		t.Fatalf("got %v, want (3,2)", got)
	}
}

func TestScreenNDC(t *testing.T) {
	cases := []struct {
		px, py float64
		want   Vec2
	}{
		{0, 0, Vec2{-1, 1}},
		{800, 600, Vec2{1, -1}},
		{400, 300, Vec2{0, 0}},
	}
	for _, c := range cases {
		got := ScreenToNDC(c.px, c.py, 800, 600)
		if !near(got.X, c.want.X) || !near(got.Y, c.want.Y) {
			t.Errorf("ScreenToNDC(%v,%v) = %v, want %v", c.px, c.py, got, c.want)
		}
		back := NDCToScreen(got, 800, 600)
		if !near(back.X, c.px) || !near(back.Y, c.py) {
			t.Errorf("NDCToScreen(%v) = %v", got, back)
		}
	}
}
