// Package perf samples per-label frame times for the overlay.
package perf

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// DefaultSampleSize is the number of frames averaged per report.
const DefaultSampleSize = 60

// Monitor averages elapsed wall time per label over windows of frames.
type Monitor struct {
	now        func() time.Time
	sampleSize int
	frame      int
	clocks     map[string]time.Time
	msPerFrame map[string]float64
}

// NewMonitor returns a monitor using the wall clock.
func NewMonitor() *Monitor {
	return NewMonitorWithClock(time.Now, DefaultSampleSize)
}

// NewMonitorWithClock lets tests drive time.
func NewMonitorWithClock(now func() time.Time, sampleSize int) *Monitor {
	if sampleSize < 1 {
		sampleSize = DefaultSampleSize
	}
	return &Monitor{
		now:        now,
		sampleSize: sampleSize,
		clocks:     make(map[string]time.Time),
		msPerFrame: make(map[string]float64),
	}
}

// Start begins timing label.
func (m *Monitor) Start(label string) { m.clocks[label] = m.now() }

// End stops timing label. Its last report is kept.
func (m *Monitor) End(label string) { delete(m.clocks, label) }

// StartFrame counts a frame. Every sampleSize frames it publishes the average
// frame time of each running label and restarts their clocks; it reports
// whether it did.
func (m *Monitor) StartFrame() bool {
	if m.frame < m.sampleSize {
		m.frame++
		return false
	}
	now := m.now()
	for label, started := range m.clocks {
		m.msPerFrame[label] = float64(now.Sub(started).Microseconds()) / 1000 / float64(m.sampleSize)
		m.clocks[label] = now
	}
	m.frame = 0
	return true
}

// MsPerFrame returns the last average for label.
func (m *Monitor) MsPerFrame(label string) (float64, bool) {
	v, ok := m.msPerFrame[label]
	return v, ok
}

// Summary renders one "label: N.N fps" line per label, sorted by label.
func (m *Monitor) Summary() string {
	labels := maps.Keys(m.msPerFrame)
	slices.Sort(labels)
	var b strings.Builder
	for _, l := range labels {
		ms := m.msPerFrame[l]
		if ms <= 0 {
			continue
		}
		fmt.Fprintf(&b, "%s: %.1f fps\n", l, 1000/ms)
	}
	return b.String()
}
