// Package easing maps clock progress to an easing factor.
//
// Builtin curves are addressed by Mode. Callers can add their own curves to a
// Table; registered ids continue after AnimationLast and are never reused.
package easing

import (
	"errors"
	"fmt"
	"sync"
)

var ErrUnknownMode = errors.New("unknown easing mode")

// Progress is the state of the driving clock, in milliseconds.
type Progress struct {
	Elapsed  float64
	Duration float64
}

// Ratio is Elapsed/Duration, 1 for an empty duration.
func (p Progress) Ratio() float64 {
	if p.Duration <= 0 {
		return 1
	}
	return p.Elapsed / p.Duration
}

// At builds a Progress over a unit duration.
func At(t float64) Progress {
	return Progress{Elapsed: t, Duration: 1}
}

// Func computes an easing factor. The result is nominally in [-1, 2];
// elastic and back curves overshoot between the endpoints.
type Func func(p Progress) float64

type curve func(t, d float64) float64

var curves = [AnimationLast]curve{
	Linear:           linear,
	EaseInQuad:       inQuad,
	EaseOutQuad:      outQuad,
	EaseInOutQuad:    inOutQuad,
	EaseInCubic:      inCubic,
	EaseOutCubic:     outCubic,
	EaseInOutCubic:   inOutCubic,
	EaseInQuart:      inQuart,
	EaseOutQuart:     outQuart,
	EaseInOutQuart:   inOutQuart,
	EaseInQuint:      inQuint,
	EaseOutQuint:     outQuint,
	EaseInOutQuint:   inOutQuint,
	EaseInSine:       inSine,
	EaseOutSine:      outSine,
	EaseInOutSine:    inOutSine,
	EaseInExpo:       inExpo,
	EaseOutExpo:      outExpo,
	EaseInOutExpo:    inOutExpo,
	EaseInCirc:       inCirc,
	EaseOutCirc:      outCirc,
	EaseInOutCirc:    inOutCirc,
	EaseInElastic:    inElastic,
	EaseOutElastic:   outElastic,
	EaseInOutElastic: inOutElastic,
	EaseInBack:       inBack,
	EaseOutBack:      outBack,
	EaseInOutBack:    inOutBack,
	EaseInBounce:     bounceIn,
	EaseOutBounce:    bounceOut,
	EaseInOutBounce:  bounceInOut,
	StepStart:        stepStart,
	StepEnd:          stepEnd,
	Ease:             bezierCurve(bezierEase),
	EaseIn:           bezierCurve(bezierEaseIn),
	EaseOut:          bezierCurve(bezierEaseOut),
	EaseInOut:        bezierCurve(bezierEaseInOut),
}

func bezierCurve(b Bezier) curve {
	return func(t, d float64) float64 { return b.At(t / d) }
}

// Builtin evaluates a builtin curve.
//
// An empty duration yields 1: the animation is already at its final value.
// Elapsed at or before 0 yields exactly 0 and at or past the duration exactly
// 1, whatever rounding the curve itself would produce there.
func Builtin(m Mode, p Progress) (float64, error) {
	if !m.IsBuiltin() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownMode, uint32(m))
	}
	if p.Duration <= 0 {
		return 1, nil
	}
	if p.Elapsed <= 0 {
		return 0, nil
	}
	if p.Elapsed >= p.Duration {
		return 1, nil
	}
	return curves[m](p.Elapsed, p.Duration), nil
}

// Table holds caller-registered easing functions.
type Table struct {
	mu    sync.RWMutex
	funcs []Func
	names map[string]Mode
}

func NewTable() *Table {
	return &Table{names: make(map[string]Mode)}
}

// Register appends fn and returns its id. Ids start right after
// AnimationLast and grow by one per call.
func (t *Table) Register(fn Func) Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.funcs = append(t.funcs, fn)
	return Mode(len(t.funcs)) + AnimationLast
}

// RegisterNamed registers fn and makes it reachable through Parse.
func (t *Table) RegisterNamed(name string, fn Func) Mode {
	m := t.Register(fn)
	t.mu.Lock()
	t.names[normalizeName(name)] = m
	t.mu.Unlock()
	return m
}

// Parse resolves a builtin or registered name.
func (t *Table) Parse(name string) (Mode, error) {
	if m, err := ParseMode(name); err == nil {
		return m, nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if m, ok := t.names[normalizeName(name)]; ok {
		return m, nil
	}
	return CustomMode, fmt.Errorf("%w: %q", ErrUnknownMode, name)
}

// Len is the number of registered functions.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.funcs)
}

// Func resolves m to a callable curve.
func (t *Table) Func(m Mode) (Func, error) {
	if m.IsBuiltin() {
		return func(p Progress) float64 {
			v, _ := Builtin(m, p)
			return v
		}, nil
	}
	if m <= AnimationLast {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, uint32(m))
	}

	idx := int(m-AnimationLast) - 1

	t.mu.RLock()
	defer t.mu.RUnlock()
	if idx >= len(t.funcs) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, uint32(m))
	}
	return t.funcs[idx], nil
}

// Evaluate computes mode m at p.
func (t *Table) Evaluate(m Mode, p Progress) (float64, error) {
	if m.IsBuiltin() {
		return Builtin(m, p)
	}
	fn, err := t.Func(m)
	if err != nil {
		return 0, err
	}
	return fn(p), nil
}
