// Package timeline is the clock that drives alphas, animators and state
// machines. It does not pace itself: whoever owns the frame loop calls Tick.
package timeline

import (
	"slices"

	"karolbroda.com/kinetic/internal/logging"
)

type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Phase orders listeners within one frame. Every PhaseSample listener sees a
// frame before any PhaseApply listener does.
type Phase int

const (
	PhaseSample Phase = iota
	PhaseApply

	phaseCount
)

// Listener receives new-frame notifications.
type Listener interface {
	OnTick(tl *Timeline, elapsed uint32)
}

// StartListener is implemented by listeners that want the started event.
type StartListener interface {
	OnStarted(tl *Timeline)
}

// CompleteListener is implemented by listeners that want the completed event.
type CompleteListener interface {
	OnCompleted(tl *Timeline)
}

// RepeatForever loops a timeline until it is stopped.
const RepeatForever = -1

type Timeline struct {
	duration uint32
	elapsed  int64
	delta    uint32
	delay    uint32

	direction   Direction
	playing     bool
	waiting     bool
	delayLeft   uint32
	repeatCount int
	repeat      int
	autoReverse bool

	markers   []Marker
	listeners [phaseCount][]Listener
}

// New creates a stopped timeline lasting duration milliseconds.
func New(duration uint32) *Timeline {
	return &Timeline{duration: duration}
}

func (t *Timeline) Duration() uint32 { return t.duration }

// SetDuration changes the length. Elapsed time is clamped to the new length.
func (t *Timeline) SetDuration(ms uint32) {
	t.duration = ms
	if t.elapsed > int64(ms) {
		t.elapsed = int64(ms)
	}
}

func (t *Timeline) Elapsed() uint32 { return uint32(t.elapsed) }

// Delta is the time consumed by the last frame.
func (t *Timeline) Delta() uint32 { return t.delta }

// Progress is elapsed/duration. An empty timeline is always complete.
func (t *Timeline) Progress() float64 {
	if t.duration == 0 {
		return 1
	}
	return float64(t.elapsed) / float64(t.duration)
}

func (t *Timeline) Direction() Direction { return t.direction }

// SetDirection flips the playback direction. A timeline sitting at 0 jumps
// to its end so a backward run has somewhere to go.
func (t *Timeline) SetDirection(d Direction) {
	if t.direction == d {
		return
	}
	t.direction = d
	if t.elapsed == 0 {
		t.elapsed = int64(t.duration)
	}
}

func (t *Timeline) Delay() uint32      { return t.delay }
func (t *Timeline) SetDelay(ms uint32) { t.delay = ms }
func (t *Timeline) RepeatCount() int   { return t.repeatCount }
func (t *Timeline) AutoReverse() bool  { return t.autoReverse }
func (t *Timeline) SetAutoReverse(b bool) {
	t.autoReverse = b
}

// SetRepeatCount sets how many extra runs follow the first one.
// RepeatForever loops until stopped.
func (t *Timeline) SetRepeatCount(n int) {
	if n < RepeatForever {
		n = RepeatForever
	}
	t.repeatCount = n
}

func (t *Timeline) IsPlaying() bool { return t.playing }

// Start begins playback, after the start delay if one is set. Starting an
// empty or already running timeline does nothing.
func (t *Timeline) Start() {
	if t.waiting || t.playing || t.duration == 0 {
		return
	}
	if t.delay > 0 {
		t.waiting = true
		t.delayLeft = t.delay
		return
	}
	t.begin()
}

func (t *Timeline) begin() {
	t.delta = 0
	t.playing = true
	t.repeat = 0
	logging.Logger().Debug("timeline started", "duration", t.duration, "direction", t.direction)
	t.emitStarted()
}

// Pause halts playback on the current frame.
func (t *Timeline) Pause() {
	t.waiting = false
	t.delayLeft = 0
	t.delta = 0
	t.playing = false
}

// Stop pauses and rewinds.
func (t *Timeline) Stop() {
	t.Pause()
	t.Rewind()
}

// Rewind moves to the start of the current direction.
func (t *Timeline) Rewind() {
	if t.direction == Forward {
		t.Advance(0)
	} else {
		t.Advance(t.duration)
	}
}

// Advance seeks to ms, clamped to the duration. No event is emitted.
func (t *Timeline) Advance(ms uint32) {
	if ms > t.duration {
		ms = t.duration
	}
	t.elapsed = int64(ms)
}

// Skip moves ms in the playback direction, wrapping past either end.
func (t *Timeline) Skip(ms uint32) {
	if t.direction == Forward {
		t.elapsed += int64(ms)
		if t.elapsed > int64(t.duration) {
			t.elapsed = 1
		}
	} else {
		t.elapsed -= int64(ms)
		if t.elapsed < 1 {
			t.elapsed = int64(t.duration) - 1
		}
	}
	t.delta = 0
}

// Finish stops playback on the last frame of the current direction and
// emits new-frame followed by completed.
func (t *Timeline) Finish() {
	t.Pause()
	if t.direction == Forward {
		t.Advance(t.duration)
	} else {
		t.Advance(0)
	}
	t.emitFrame()
	t.emitCompleted()
}

// Tick advances a running timeline by delta milliseconds.
func (t *Timeline) Tick(delta uint32) {
	if t.waiting {
		if delta < t.delayLeft {
			t.delayLeft -= delta
			return
		}
		delta -= t.delayLeft
		t.waiting = false
		t.delayLeft = 0
		t.begin()
	}
	if !t.playing {
		return
	}
	t.doFrame(delta)
}

func (t *Timeline) complete() bool {
	if t.direction == Forward {
		return t.elapsed >= int64(t.duration)
	}
	return t.elapsed <= 0
}

func (t *Timeline) doFrame(delta uint32) {
	t.delta = delta
	prev := t.elapsed

	if t.direction == Forward {
		t.elapsed += int64(delta)
	} else {
		t.elapsed -= int64(delta)
	}

	if !t.complete() {
		t.emitFrame()
		t.checkMarkers(prev, t.elapsed)
		return
	}

	savedDirection := t.direction
	overflow := t.elapsed

	if t.direction == Forward {
		t.elapsed = int64(t.duration)
	} else {
		t.elapsed = 0
	}
	end := t.elapsed

	t.emitFrame()
	t.checkMarkers(prev, end)

	// a frame listener seeked; let it drive
	if t.elapsed != end {
		return
	}

	if t.playing && (t.repeatCount == 0 || t.repeatCount == t.repeat) {
		t.playing = false
	}
	t.emitCompleted()
	t.repeat++

	if t.autoReverse {
		if t.direction == Forward {
			t.direction = Backward
		} else {
			t.direction = Forward
		}
	}

	swapped := (t.elapsed == 0 && end == int64(t.duration)) ||
		(t.elapsed == int64(t.duration) && end == 0)
	if t.elapsed != end && !swapped {
		return
	}

	if t.repeatCount != 0 && t.playing {
		if savedDirection == Forward {
			t.elapsed = overflow - int64(t.duration)
		} else {
			t.elapsed = int64(t.duration) + overflow
		}
		if t.direction != savedDirection {
			t.elapsed = int64(t.duration) - t.elapsed
		}
		return
	}

	t.Rewind()
}

// Attach subscribes l in phase. Attaching twice has no effect.
func (t *Timeline) Attach(phase Phase, l Listener) {
	if slices.Contains(t.listeners[phase], l) {
		return
	}
	t.listeners[phase] = append(t.listeners[phase], l)
}

// Detach removes l from every phase.
func (t *Timeline) Detach(l Listener) {
	for p := range t.listeners {
		t.listeners[p] = slices.DeleteFunc(t.listeners[p], func(x Listener) bool { return x == l })
	}
}

// snapshot copies the listener lists so handlers may attach or detach
// while an event is being delivered.
func (t *Timeline) snapshot() []Listener {
	var all []Listener
	for p := range t.listeners {
		all = append(all, t.listeners[p]...)
	}
	return all
}

func (t *Timeline) emitStarted() {
	for _, l := range t.snapshot() {
		if sl, ok := l.(StartListener); ok {
			sl.OnStarted(t)
		}
	}
}

func (t *Timeline) emitFrame() {
	elapsed := uint32(t.elapsed)
	for _, l := range t.snapshot() {
		l.OnTick(t, elapsed)
	}
}

func (t *Timeline) emitCompleted() {
	for _, l := range t.snapshot() {
		if cl, ok := l.(CompleteListener); ok {
			cl.OnCompleted(t)
		}
	}
}
