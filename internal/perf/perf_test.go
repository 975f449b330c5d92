package perf

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestMonitorAverages(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	m := NewMonitorWithClock(clk.now, 4)
	m.Start("update")
	reported := false
	for i := 0; i < 5; i++ {
		clk.t = clk.t.Add(10 * time.Millisecond)
		reported = m.StartFrame()
	}
	if !reported {
		t.Fatalf("fifth frame should publish a report")
	}
	ms, ok := m.MsPerFrame("update")
	if !ok || ms != 12.5 {
		t.Fatalf("MsPerFrame = %v, %v; want 12.5", ms, ok)
	}
	if got, want := m.Summary(), "update: 80.0 fps\n"; got != want {
		t.Fatalf("Summary = %q, want %q", got, want)
	}
}

func TestEndStopsLabel(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	m := NewMonitorWithClock(clk.now, 1)
	m.Start("a")
	m.End("a")
	m.StartFrame()
	m.StartFrame()
	if _, ok := m.MsPerFrame("a"); ok {
		t.Fatalf("ended label was reported")
	}
	if m.Summary() != "" {
		t.Fatalf("summary should be empty")
	}
}
