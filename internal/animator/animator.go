// Package animator plays keyframe animations over object properties.
//
// Keys are (object, property, progress) samples. On every frame the animator
// finds the pair of keys around the timeline's progress and interpolates
// between them, either through an interval or, for float properties with
// cubic interpolation, through a spline across up to four keys.
package animator

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"karolbroda.com/kinetic/internal/easing"
	"karolbroda.com/kinetic/internal/engine"
	"karolbroda.com/kinetic/internal/logging"
	"karolbroda.com/kinetic/internal/object"
	"karolbroda.com/kinetic/internal/timeline"
	"karolbroda.com/kinetic/internal/value"
)

const (
	DefaultDuration = 2000

	// slaveDuration is the resolution segment alphas are sampled at.
	slaveDuration = 10000

	// AnyProgress matches keys at every progress in Keys and RemoveKey.
	AnyProgress = -1.0
)

var ErrInvalidProgress = errors.New("key progress outside [0, 1]")

type Interpolation int

const (
	Linear Interpolation = iota
	Cubic
)

func (i Interpolation) String() string {
	if i == Cubic {
		return "cubic"
	}
	return "linear"
}

// Key describes one keyframe.
type Key struct {
	Object        object.Handle
	Property      object.PropertyID
	PropertyName  string
	Kind          value.Kind
	Progress      float64
	Mode          easing.Mode
	Value         value.Value
	Interpolation Interpolation
	EaseIn        bool
}

// KeySpec is one entry of a Set batch.
type KeySpec struct {
	Object   object.Handle
	Property string
	Mode     easing.Mode
	Progress float64
	Value    value.Value
}

type key struct {
	obj      object.Handle
	prop     object.PropertyID
	name     string
	kind     value.Kind
	progress float64
	mode     easing.Mode
	value    value.Value
}

type pair struct {
	obj  object.Handle
	prop object.PropertyID
}

type settings struct {
	easeIn        bool
	interpolation Interpolation
}

type Animator struct {
	reg  *engine.Registry
	host object.Host

	// score is sorted by object, property, progress.
	score    []*key
	settings map[pair]settings

	timeline *timeline.Timeline
	slave    *timeline.Timeline
	running  []*propAnimator
	seeded   bool

	cancelObserve func()
}

// New creates an animator driving its own 2 second timeline.
func New(reg *engine.Registry, host object.Host) *Animator {
	a := &Animator{
		reg:      reg,
		host:     host,
		settings: make(map[pair]settings),
		slave:    timeline.New(slaveDuration),
	}
	a.SetTimeline(timeline.New(DefaultDuration))
	a.cancelObserve = host.Observe(a)
	return a
}

// Close detaches the animator from its timeline and the object tracker.
func (a *Animator) Close() {
	a.SetTimeline(nil)
	if a.cancelObserve != nil {
		a.cancelObserve()
		a.cancelObserve = nil
	}
}

func compareKeys(x, y *key) int {
	if c := object.Compare(x.obj, y.obj); c != 0 {
		return c
	}
	if c := cmp.Compare(x.prop, y.prop); c != 0 {
		return c
	}
	return cmp.Compare(x.progress, y.progress)
}

// SetKey adds a keyframe, replacing one at the same object, property and
// progress.
func (a *Animator) SetKey(obj object.Handle, property string, mode easing.Mode, progress float64, v value.Value) error {
	if progress < 0 || progress > 1 {
		return fmt.Errorf("%s at %v: %w", property, progress, ErrInvalidProgress)
	}
	spec, err := a.host.FindProperty(obj, property)
	if err != nil {
		return fmt.Errorf("animator key: %w", err)
	}
	if !spec.Writable {
		return fmt.Errorf("animator key %q: %w", property, object.ErrNotWritable)
	}
	cv, err := value.Convert(v, spec.Kind)
	if err != nil {
		return fmt.Errorf("animator key %q: %w", property, err)
	}
	if !spec.Bounds.Contains(cv) {
		return fmt.Errorf("animator key %q = %v: %w", property, cv, value.ErrOutOfBounds)
	}

	k := &key{
		obj:      obj,
		prop:     spec.ID,
		name:     spec.Name,
		kind:     spec.Kind,
		progress: progress,
		mode:     mode,
		value:    cv,
	}

	idx, found := slices.BinarySearchFunc(a.score, k, compareKeys)
	if found {
		a.score[idx] = k
	} else {
		a.score = slices.Insert(a.score, idx, k)
	}
	a.seeded = false
	return nil
}

// Set adds keys in order and stops at the first one that fails. Keys
// before the failing one stay in place.
func (a *Animator) Set(keys ...KeySpec) error {
	for _, k := range keys {
		if err := a.SetKey(k.Object, k.Property, k.Mode, k.Progress, k.Value); err != nil {
			return err
		}
	}
	return nil
}

func (a *Animator) matches(k *key, obj object.Handle, property string, progress float64) bool {
	if !obj.IsZero() && k.obj != obj {
		return false
	}
	if property != "" && k.name != property {
		return false
	}
	if progress >= 0 && k.progress != progress {
		return false
	}
	return true
}

// Keys lists keyframes. A zero handle, an empty property name and a
// negative progress each match anything.
func (a *Animator) Keys(obj object.Handle, property string, progress float64) []Key {
	var out []Key
	for _, k := range a.score {
		if a.matches(k, obj, property, progress) {
			out = append(out, a.info(k))
		}
	}
	return out
}

func (a *Animator) info(k *key) Key {
	s := a.settings[pair{k.obj, k.prop}]
	return Key{
		Object:        k.obj,
		Property:      k.prop,
		PropertyName:  k.name,
		Kind:          k.kind,
		Progress:      k.progress,
		Mode:          k.mode,
		Value:         k.value,
		Interpolation: s.interpolation,
		EaseIn:        s.easeIn,
	}
}

// RemoveKey drops every matching key, with the same matching rules as Keys.
// Properties losing keys stop animating until the next start.
func (a *Animator) RemoveKey(obj object.Handle, property string, progress float64) int {
	touched := make(map[pair]bool)
	before := len(a.score)
	a.score = slices.DeleteFunc(a.score, func(k *key) bool {
		if a.matches(k, obj, property, progress) {
			touched[pair{k.obj, k.prop}] = true
			return true
		}
		return false
	})

	if len(touched) > 0 {
		a.seeded = false
	}
	for p := range touched {
		if !a.hasKeys(p) {
			delete(a.settings, p)
		}
	}
	a.running = slices.DeleteFunc(a.running, func(pa *propAnimator) bool {
		if touched[pa.pair] {
			pa.detach()
			return true
		}
		return false
	})
	return before - len(a.score)
}

func (a *Animator) hasKeys(p pair) bool {
	return slices.ContainsFunc(a.score, func(k *key) bool { return k.obj == p.obj && k.prop == p.prop })
}

func (a *Animator) findPair(obj object.Handle, property string) (pair, bool) {
	for _, k := range a.score {
		if k.obj == obj && k.name == property {
			return pair{k.obj, k.prop}, true
		}
	}
	return pair{}, false
}

// SetEaseIn makes the property start from its live value instead of its
// first key when the animation starts.
func (a *Animator) SetEaseIn(obj object.Handle, property string, easeIn bool) error {
	p, ok := a.findPair(obj, property)
	if !ok {
		return fmt.Errorf("ease-in %q: %w", property, object.ErrUnknownProperty)
	}
	s := a.settings[p]
	s.easeIn = easeIn
	a.settings[p] = s
	return nil
}

func (a *Animator) EaseIn(obj object.Handle, property string) bool {
	p, ok := a.findPair(obj, property)
	return ok && a.settings[p].easeIn
}

func (a *Animator) SetInterpolation(obj object.Handle, property string, mode Interpolation) error {
	p, ok := a.findPair(obj, property)
	if !ok {
		return fmt.Errorf("interpolation %q: %w", property, object.ErrUnknownProperty)
	}
	s := a.settings[p]
	s.interpolation = mode
	a.settings[p] = s
	return nil
}

func (a *Animator) Interpolation(obj object.Handle, property string) Interpolation {
	p, ok := a.findPair(obj, property)
	if !ok {
		return Linear
	}
	return a.settings[p].interpolation
}

func (a *Animator) Timeline() *timeline.Timeline { return a.timeline }

// SetTimeline drives the animator from tl. A nil timeline detaches it.
func (a *Animator) SetTimeline(tl *timeline.Timeline) {
	if a.timeline == tl {
		return
	}
	if a.timeline != nil {
		a.timeline.Detach(a)
	}
	a.timeline = tl
	a.seeded = false
	if tl != nil {
		tl.Attach(timeline.PhaseApply, a)
	}
}

func (a *Animator) Duration() uint32 {
	if a.timeline == nil {
		return 0
	}
	return a.timeline.Duration()
}

func (a *Animator) SetDuration(ms uint32) {
	if a.timeline != nil {
		a.timeline.SetDuration(ms)
	}
}

// Start rewinds and plays the timeline.
func (a *Animator) Start() *timeline.Timeline {
	if a.timeline == nil {
		return nil
	}
	a.timeline.Rewind()
	a.timeline.Start()
	return a.timeline
}

func (a *Animator) OnObjectRemoved(obj object.Handle) {
	if n := a.RemoveKey(obj, "", AnyProgress); n > 0 {
		logging.Logger().Debug("animator: dropped keys of removed object", "object", obj, "keys", n)
	}
}

func (a *Animator) OnStarted(tl *timeline.Timeline) {
	a.seed()
}

func (a *Animator) OnTick(tl *timeline.Timeline, elapsed uint32) {
	if !a.seeded {
		a.seed()
	}
	progress := tl.Progress()

	// property writes run listeners that may drop keys or objects
	for _, pa := range slices.Clone(a.running) {
		if pa.detached || !a.host.Alive(pa.obj) {
			continue
		}
		v, ok := pa.frame(progress, a.slave)
		if !ok {
			continue
		}
		if err := a.host.SetProperty(pa.obj, pa.prop, v); err != nil {
			logging.Logger().Warn("animator: property write failed", "object", pa.obj, "property", pa.name, "err", err)
		}
	}
}

// seed builds one segment walker per animated property.
func (a *Animator) seed() {
	for _, pa := range a.running {
		pa.detach()
	}
	a.running = a.running[:0]

	for i := 0; i < len(a.score); {
		j := i + 1
		for j < len(a.score) && a.score[j].obj == a.score[i].obj && a.score[j].prop == a.score[i].prop {
			j++
		}
		group := slices.Clone(a.score[i:j])
		i = j

		first := group[0]
		if !a.host.Alive(first.obj) {
			continue
		}
		p := pair{first.obj, first.prop}
		pa := newPropAnimator(a.reg, p, group, a.settings[p], a.slave)
		if pa.easeIn {
			if live, err := a.host.GetProperty(first.obj, first.prop); err == nil {
				_ = pa.interval.SetInitial(live)
			}
		}
		a.running = append(a.running, pa)
	}
	a.seeded = true
}
