package animator

import (
	"karolbroda.com/kinetic/internal/alpha"
	"karolbroda.com/kinetic/internal/engine"
	"karolbroda.com/kinetic/internal/interval"
	"karolbroda.com/kinetic/internal/logging"
	"karolbroda.com/kinetic/internal/object"
	"karolbroda.com/kinetic/internal/timeline"
	"karolbroda.com/kinetic/internal/value"
)

// propAnimator walks the keys of one property. cur and next index into
// keys and bound the segment [start, end] the progress currently falls in.
type propAnimator struct {
	pair
	name string
	kind value.Kind
	keys []*key

	cur, next  int
	start, end float64

	interval      *interval.Interval
	alpha         *alpha.Alpha
	easeIn        bool
	interpolation Interpolation

	// set once the walker leaves Animator.running
	detached bool
}

func (pa *propAnimator) detach() {
	pa.alpha.SetTimeline(nil)
	pa.detached = true
}

func newPropAnimator(reg *engine.Registry, p pair, keys []*key, s settings, slave *timeline.Timeline) *propAnimator {
	first := keys[0]
	pa := &propAnimator{
		pair:          p,
		name:          first.name,
		kind:          first.kind,
		keys:          keys,
		interval:      interval.New(reg.Intervals, first.kind),
		alpha:         alpha.New(reg.Easing),
		easeIn:        s.easeIn,
		interpolation: s.interpolation,
	}
	pa.alpha.SetTimeline(slave)
	_ = pa.interval.SetInitial(first.value)
	pa.start = first.progress
	pa.enter(0)
	return pa
}

// enter makes keys[i] the start of the segment and its successor the end.
// The last key pairs with itself and stretches to the end of the timeline.
func (pa *propAnimator) enter(i int) {
	pa.cur = i
	pa.next = i
	pa.end = 1
	if i+1 < len(pa.keys) {
		pa.next = i + 1
		pa.end = pa.keys[pa.next].progress
	}
	nk := pa.keys[pa.next]
	_ = pa.interval.SetFinal(nk.value)
	pa.setMode(nk)
}

func (pa *propAnimator) setMode(k *key) {
	if err := pa.alpha.SetMode(k.mode); err != nil {
		logging.Logger().Warn("animator: key has unknown easing, keeping previous", "property", pa.name, "progress", k.progress)
	}
}

// seek moves the segment until it contains progress.
func (pa *propAnimator) seek(progress float64) {
	for progress > pa.end && pa.next != pa.cur {
		k := pa.keys[pa.next]
		_ = pa.interval.SetInitial(k.value)
		pa.start = k.progress
		pa.enter(pa.next)
	}

	for progress < pa.start && pa.cur > 0 {
		old := pa.keys[pa.cur]
		pa.next = pa.cur
		pa.cur--
		prev := pa.keys[pa.cur]

		_ = pa.interval.SetInitial(prev.value)
		_ = pa.interval.SetFinal(old.value)
		pa.end = old.progress
		pa.start = prev.progress
		pa.setMode(old)
	}
}

// frame computes the value at progress. ok is false when the progress falls
// outside every segment, which leaves the property untouched.
func (pa *propAnimator) frame(progress float64, slave *timeline.Timeline) (value.Value, bool) {
	pa.seek(progress)

	var sub float64
	if span := pa.end - pa.start; span > 0 {
		sub = (progress - pa.start) / span
	} else if progress >= pa.start {
		sub = 1
	} else {
		return value.Value{}, false
	}
	if sub < 0 || sub > 1 {
		return value.Value{}, false
	}

	slave.Advance(uint32(sub * slaveDuration))
	factor := pa.alpha.Value()

	if pa.interpolation == Cubic && pa.kind.IsScalar() {
		return pa.cubic(factor), true
	}

	v, err := pa.interval.Compute(factor)
	if err != nil {
		logging.Logger().Warn("animator: interpolation failed", "property", pa.name, "err", err)
		return value.Value{}, false
	}
	return v, true
}

func (pa *propAnimator) cubic(dx float64) value.Value {
	var prev, cur float64
	if !pa.easeIn || pa.cur > 0 {
		cur = pa.keys[pa.cur].value.Float64()
		prev = pa.rel(-1)
	} else {
		iv, _ := pa.interval.Initial()
		cur = iv.Float64()
		prev = cur
	}
	next := pa.rel(1)
	nextnext := pa.rel(2)

	v, _ := value.Number(pa.kind, cubicInterpolation(dx, prev, cur, next, nextnext))
	return v
}

// rel walks up to n keys away from the segment start and returns the value
// of the furthest one that exists.
func (pa *propAnimator) rel(n int) float64 {
	i := pa.cur
	step := 1
	if n < 0 {
		step, n = -1, -n
	}
	for ; n > 0; n-- {
		j := i + step
		if j < 0 || j >= len(pa.keys) {
			break
		}
		i = j
	}
	return pa.keys[i].value.Float64()
}

// cubicInterpolation is a Catmull-Rom spline through j and next.
func cubicInterpolation(dx, prev, j, next, nextnext float64) float64 {
	return ((((-prev+3*j-3*next+nextnext)*dx+
		(2*prev-5*j+4*next-nextnext))*dx+
		(-prev+next))*dx + (j + j)) / 2
}

var _ object.Observer = (*Animator)(nil)
var _ timeline.Listener = (*Animator)(nil)
