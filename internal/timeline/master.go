package timeline

import (
	"slices"
	"time"
)

// Master advances a set of timelines from wall-clock time, the way a frame
// loop would.
type Master struct {
	timelines []*Timeline
	last      time.Time
}

func NewMaster() *Master {
	return &Master{}
}

// Add registers tl. Adding twice has no effect.
func (m *Master) Add(tl *Timeline) {
	if !slices.Contains(m.timelines, tl) {
		m.timelines = append(m.timelines, tl)
	}
}

func (m *Master) Remove(tl *Timeline) {
	m.timelines = slices.DeleteFunc(m.timelines, func(x *Timeline) bool { return x == tl })
}

// Tick feeds the time since the previous call to every registered timeline.
// The first call only records the reference time. It returns whether any
// timeline is still running.
func (m *Master) Tick(now time.Time) bool {
	if m.last.IsZero() {
		m.last = now
		return m.Running()
	}

	delta := now.Sub(m.last)
	if delta < 0 {
		delta = 0
	}
	m.last = now

	ms := uint32(delta / time.Millisecond)
	// sub-millisecond remainders carry over to the next tick
	m.last = m.last.Add(-(delta % time.Millisecond))

	for _, tl := range slices.Clone(m.timelines) {
		tl.Tick(ms)
	}
	return m.Running()
}

// Running reports whether any registered timeline is playing or waiting on
// its start delay.
func (m *Master) Running() bool {
	for _, tl := range m.timelines {
		if tl.playing || tl.waiting {
			return true
		}
	}
	return false
}
