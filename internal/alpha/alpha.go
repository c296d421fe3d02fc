// Package alpha binds a timeline to an easing curve.
package alpha

import (
	"karolbroda.com/kinetic/internal/easing"
	"karolbroda.com/kinetic/internal/logging"
	"karolbroda.com/kinetic/internal/timeline"
)

// Alpha turns the progress of its timeline into an eased factor.
type Alpha struct {
	table    *easing.Table
	timeline *timeline.Timeline
	mode     easing.Mode
	fn       easing.Func
	value    float64
}

// New creates a detached alpha with a linear curve.
func New(table *easing.Table) *Alpha {
	a := &Alpha{table: table}
	_ = a.SetMode(easing.Linear)
	return a
}

// NewFull creates an alpha bound to tl using mode.
func NewFull(table *easing.Table, tl *timeline.Timeline, mode easing.Mode) (*Alpha, error) {
	a := New(table)
	if err := a.SetMode(mode); err != nil {
		return nil, err
	}
	a.SetTimeline(tl)
	return a, nil
}

func (a *Alpha) Timeline() *timeline.Timeline { return a.timeline }

// SetTimeline moves the alpha to tl. The previous timeline no longer
// refreshes it.
func (a *Alpha) SetTimeline(tl *timeline.Timeline) {
	if a.timeline == tl {
		return
	}
	if a.timeline != nil {
		a.timeline.Detach(a)
	}
	a.timeline = tl
	if tl != nil {
		tl.Attach(timeline.PhaseSample, a)
	}
}

func (a *Alpha) Mode() easing.Mode { return a.mode }

// SetMode selects a builtin or registered curve. An unknown id leaves the
// alpha unchanged.
func (a *Alpha) SetMode(m easing.Mode) error {
	fn, err := a.table.Func(m)
	if err != nil {
		logging.Logger().Warn("alpha: ignoring easing mode", "mode", uint32(m), "err", err)
		return err
	}
	a.mode = m
	a.fn = fn
	return nil
}

// SetFunc installs a caller curve; the mode becomes easing.CustomMode.
func (a *Alpha) SetFunc(fn easing.Func) {
	a.mode = easing.CustomMode
	a.fn = fn
}

// Value evaluates the curve at the timeline's current position. A detached
// alpha reports 0.
func (a *Alpha) Value() float64 {
	a.value = a.compute()
	return a.value
}

// Cached is the value from the last frame or Value call.
func (a *Alpha) Cached() float64 { return a.value }

func (a *Alpha) OnTick(tl *timeline.Timeline, elapsed uint32) {
	a.value = a.compute()
}

func (a *Alpha) compute() float64 {
	if a.timeline == nil || a.fn == nil {
		return 0
	}
	return a.fn(easing.Progress{
		Elapsed:  float64(a.timeline.Elapsed()),
		Duration: float64(a.timeline.Duration()),
	})
}
