// Package state animates objects between named states.
//
// A state is a set of keys, each naming the value an object property should
// reach when the machine enters that state. Keys may be limited to
// transitions from one source state; such keys win over wildcard keys for
// the same property. A transition can instead be handed to a keyframe
// animator for the whole duration.
package state

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"karolbroda.com/kinetic/internal/alpha"
	"karolbroda.com/kinetic/internal/animator"
	"karolbroda.com/kinetic/internal/easing"
	"karolbroda.com/kinetic/internal/engine"
	"karolbroda.com/kinetic/internal/interval"
	"karolbroda.com/kinetic/internal/logging"
	"karolbroda.com/kinetic/internal/object"
	"karolbroda.com/kinetic/internal/symbol"
	"karolbroda.com/kinetic/internal/timeline"
	"karolbroda.com/kinetic/internal/value"
)

const (
	DefaultDuration = 1000

	slaveDuration = 10000
)

var (
	ErrStateNotFound = errors.New("state not found")
	ErrNoAnimator    = errors.New("no animator for transition")
	ErrNoTarget      = errors.New("target state name required")
	ErrInvalidDelay  = errors.New("delays must be non-negative and sum to at most 1")
)

// CompletedFunc is called when a transition into target finishes.
type CompletedFunc func(target string)

type state struct {
	name      symbol.Symbol
	keys      []*stateKey
	durations map[symbol.Symbol]uint32
	animators map[symbol.Symbol]*animator.Animator
}

func newState(name symbol.Symbol) *state {
	return &state{
		name:      name,
		durations: make(map[symbol.Symbol]uint32),
		animators: make(map[symbol.Symbol]*animator.Animator),
	}
}

type Machine struct {
	reg  *engine.Registry
	host object.Host

	states   map[symbol.Symbol]*state
	duration uint32

	timeline *timeline.Timeline
	slave    *timeline.Timeline

	source      symbol.Symbol
	target      symbol.Symbol
	targetState *state
	current     *animator.Animator
	// changes counts state changes; a frame in progress stops when it moves
	changes uint64

	nextID    int
	completed map[int]CompletedFunc

	cancelObserve func()
}

func New(reg *engine.Registry, host object.Host) *Machine {
	m := &Machine{
		reg:       reg,
		host:      host,
		states:    make(map[symbol.Symbol]*state),
		duration:  DefaultDuration,
		timeline:  timeline.New(DefaultDuration),
		slave:     timeline.New(slaveDuration),
		completed: make(map[int]CompletedFunc),
	}
	m.timeline.Attach(timeline.PhaseApply, m)
	m.cancelObserve = host.Observe(m)
	return m
}

// Close stops the machine and releases its hooks on the timeline and the
// object tracker.
func (m *Machine) Close() {
	m.Reset()
	m.timeline.Detach(m)
	if m.cancelObserve != nil {
		m.cancelObserve()
		m.cancelObserve = nil
	}
}

func (m *Machine) Timeline() *timeline.Timeline { return m.timeline }

// Source is the state the current transition started from.
func (m *Machine) Source() string { return m.reg.Symbols.Name(m.source) }

// Target is the current state, or "" when none is set.
func (m *Machine) Target() string { return m.reg.Symbols.Name(m.target) }

func (m *Machine) lookup(name string) (*state, bool) {
	if name == "" {
		return nil, false
	}
	sym, ok := m.reg.Symbols.Lookup(name)
	if !ok {
		return nil, false
	}
	st, ok := m.states[sym]
	return st, ok
}

func (m *Machine) fetch(name string) *state {
	sym := m.reg.Symbols.Intern(name)
	st, ok := m.states[sym]
	if !ok {
		st = newState(sym)
		m.states[sym] = st
	}
	return st
}

// States lists every known state name in lexical order.
func (m *Machine) States() []string {
	names := make([]string, 0, len(m.states))
	for sym := range m.states {
		names = append(names, m.reg.Symbols.Name(sym))
	}
	sort.Strings(names)
	return names
}

// SetState animates into target.
func (m *Machine) SetState(target string) (*timeline.Timeline, error) {
	return m.Change(target, true)
}

// WarpToState jumps to the end of the transition into target.
func (m *Machine) WarpToState(target string) (*timeline.Timeline, error) {
	return m.Change(target, false)
}

// Reset stops any transition and clears the current state. Keys are kept.
func (m *Machine) Reset() {
	_, _ = m.Change("", false)
}

// Change moves the machine to target. Changing to the current state does
// nothing unless a transition is running and animate is false, in which case
// the transition is finished at once.
func (m *Machine) Change(target string, animate bool) (*timeline.Timeline, error) {
	if target == "" {
		if m.targetState == nil && m.target == symbol.None {
			return nil, nil
		}
		m.changes++
		m.source, m.target = symbol.None, symbol.None
		m.targetState = nil
		m.timeline.Stop()
		m.unbind()
		return nil, nil
	}

	st, ok := m.lookup(target)
	if !ok {
		logging.Logger().Warn("state: change to unknown state", "state", target)
		return nil, fmt.Errorf("change to %q: %w", target, ErrStateNotFound)
	}

	if st.name == m.target {
		if !m.timeline.IsPlaying() || animate {
			return m.timeline, nil
		}
	}

	m.changes++
	m.unbind()
	m.source = m.target
	m.target = st.name
	m.targetState = st

	duration := m.durationFor(m.source, st)
	m.timeline.SetDuration(duration)

	anim := st.animators[m.source]
	if anim == nil && len(st.keys) == 0 {
		anim = st.animators[symbol.None]
	}

	if anim != nil {
		m.current = anim
		anim.SetTimeline(m.timeline)
	} else {
		for _, k := range st.keys {
			k.prePreDelay = 0
			m.seed(k)
		}
	}

	logging.Logger().Debug("state: change",
		"source", m.Source(), "target", target, "duration", duration, "animate", animate, "animator", anim != nil)

	m.timeline.Stop()
	if !animate || duration == 0 {
		m.timeline.Finish()
	} else {
		m.timeline.Start()
	}
	return m.timeline, nil
}

// seed points a key's interval from the live property value to the key's
// value.
func (m *Machine) seed(k *stateKey) {
	if k.alpha.Mode() != k.mode {
		_ = k.alpha.SetMode(k.mode)
	}
	initial, err := m.host.GetProperty(k.obj, k.prop)
	if err != nil {
		logging.Logger().Debug("state: cannot read initial value, snapping", "property", k.name, "err", err)
		initial = k.value
	}
	if err := k.interval.SetInitial(initial); err != nil {
		_ = k.interval.SetInitial(k.value)
	}
	_ = k.interval.SetFinal(k.value)
}

func (m *Machine) unbind() {
	if m.current != nil {
		m.current.SetTimeline(nil)
		m.current = nil
	}
}

// OnTick applies the target state's keys. For every object property the
// first key specific to the current source is used; failing that, the
// wildcard key. Property writes run change listeners, which may change
// state, drop keys or destroy objects; the frame stops at the first state
// change.
func (m *Machine) OnTick(tl *timeline.Timeline, elapsed uint32) {
	if m.current != nil || m.targetState == nil {
		return
	}
	changes := m.changes
	progress := tl.Progress()

	var (
		curObj   object.Handle
		curProp  object.PropertyID
		started  bool
		specific bool
	)
	for _, k := range slices.Clone(m.targetState.keys) {
		if m.changes != changes {
			return
		}
		if k.removed {
			continue
		}
		if !started || k.obj != curObj || k.prop != curProp {
			curObj, curProp = k.obj, k.prop
			started = true
			specific = false
		}
		if specific {
			continue
		}
		if k.source != symbol.None && k.source == m.source {
			specific = true
		}
		if !specific && k.source != symbol.None {
			continue
		}
		if !m.host.Alive(k.obj) {
			continue
		}

		sub := k.window(progress)
		if sub < 0 {
			continue
		}
		m.slave.Advance(uint32(sub * slaveDuration))
		v, err := k.interval.Compute(k.alpha.Value())
		if err != nil {
			logging.Logger().Warn("state: interpolation failed", "property", k.name, "err", err)
			continue
		}
		if err := m.host.SetProperty(k.obj, k.prop, v); err != nil {
			logging.Logger().Warn("state: property write failed", "object", k.obj, "property", k.name, "err", err)
		}
	}
}

func (m *Machine) OnCompleted(tl *timeline.Timeline) {
	m.unbind()
	target := m.Target()
	ids := make([]int, 0, len(m.completed))
	for id := range m.completed {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := m.completed[id]; ok {
			fn(target)
		}
	}
}

// Completed registers fn for the end of every transition.
func (m *Machine) Completed(fn CompletedFunc) (cancel func()) {
	id := m.nextID
	m.nextID++
	m.completed[id] = fn
	return func() { delete(m.completed, id) }
}

func (m *Machine) OnObjectRemoved(obj object.Handle) {
	if n := m.removeKeys(symbol.None, nil, obj, ""); n > 0 {
		logging.Logger().Debug("state: dropped keys of removed object", "object", obj, "keys", n)
	}
}

// SetKey adds or replaces the key for obj.property when entering target
// from source. An empty source applies from any state.
func (m *Machine) SetKey(source, target string, obj object.Handle, property string, mode easing.Mode, v value.Value, preDelay, postDelay float64) error {
	if target == "" {
		return ErrNoTarget
	}
	if preDelay < 0 || postDelay < 0 || preDelay+postDelay > 1 {
		return fmt.Errorf("key %q: %w", property, ErrInvalidDelay)
	}
	spec, err := m.host.FindProperty(obj, property)
	if err != nil {
		return fmt.Errorf("state key: %w", err)
	}
	if !spec.Writable {
		return fmt.Errorf("state key %q: %w", property, object.ErrNotWritable)
	}
	cv, err := value.Convert(v, spec.Kind)
	if err != nil {
		return fmt.Errorf("state key %q: %w", property, err)
	}
	iv := interval.New(m.reg.Intervals, spec.Kind)
	_ = iv.SetInitial(cv)
	_ = iv.SetFinal(cv)
	if !iv.Validate(spec.Bounds) {
		return fmt.Errorf("state key %q = %v: %w", property, cv, value.ErrOutOfBounds)
	}

	a := alpha.New(m.reg.Easing)
	if err := a.SetMode(mode); err != nil {
		return fmt.Errorf("state key %q: %w", property, err)
	}

	src := symbol.None
	if source != "" {
		src = m.fetch(source).name
	}
	st := m.fetch(target)
	a.SetTimeline(m.slave)

	k := &stateKey{
		target:    st,
		source:    src,
		obj:       obj,
		prop:      spec.ID,
		name:      spec.Name,
		kind:      spec.Kind,
		mode:      mode,
		value:     cv,
		preDelay:  preDelay,
		postDelay: postDelay,
		interval:  iv,
		alpha:     a,
	}

	m.insert(st, k)
	return nil
}

func (m *Machine) insert(st *state, k *stateKey) {
	idx, found := slices.BinarySearchFunc(st.keys, k, compareKeys)
	if found {
		st.keys[idx].drop()
		st.keys[idx] = k
	} else {
		st.keys = slices.Insert(st.keys, idx, k)
	}

	if st != m.targetState {
		return
	}
	if !m.timeline.IsPlaying() {
		name := m.Target()
		m.Reset()
		_, _ = m.WarpToState(name)
		return
	}

	m.seed(k)
	progress := m.timeline.Progress()
	if progress > k.preDelay {
		k.prePreDelay = min(progress-k.preDelay, 1-k.postDelay)
	}
}

// Set adds keys in order and stops at the first failure. Keys already
// added stay in place.
func (m *Machine) Set(source, target string, keys ...KeySpec) error {
	for _, ks := range keys {
		name, pre, post := ks.split()
		if err := m.SetKey(source, target, ks.Object, name, ks.Mode, ks.Value, pre, post); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) match(k *stateKey, source symbol.Symbol, anySource bool, obj object.Handle, property string) bool {
	if !obj.IsZero() && k.obj != obj {
		return false
	}
	if !anySource && k.source != source {
		return false
	}
	return property == "" || k.name == property
}

// targets resolves the states a filter covers, in name order.
func (m *Machine) targets(target *state, all bool) []*state {
	if !all {
		if target == nil {
			return nil
		}
		return []*state{target}
	}
	out := make([]*state, 0, len(m.states))
	for _, name := range m.States() {
		st, _ := m.lookup(name)
		out = append(out, st)
	}
	return out
}

func (m *Machine) resolve(f Filter) (source symbol.Symbol, anySource bool, target *state, allTargets, ok bool) {
	anySource = f.Source == ""
	if !anySource {
		st, found := m.lookup(f.Source)
		if !found {
			return 0, false, nil, false, false
		}
		source = st.name
	}
	allTargets = f.Target == ""
	if !allTargets {
		st, found := m.lookup(f.Target)
		if !found {
			return 0, false, nil, false, false
		}
		target = st
	}
	return source, anySource, target, allTargets, true
}

// Keys returns the keys matching f.
func (m *Machine) Keys(f Filter) []KeyInfo {
	source, anySource, target, all, ok := m.resolve(f)
	if !ok {
		return nil
	}
	var out []KeyInfo
	for _, st := range m.targets(target, all) {
		for _, k := range st.keys {
			if m.match(k, source, anySource, f.Object, f.Property) {
				out = append(out, m.info(k))
			}
		}
	}
	return out
}

func (m *Machine) info(k *stateKey) KeyInfo {
	return KeyInfo{
		obj:       k.obj,
		property:  k.name,
		kind:      k.kind,
		source:    m.reg.Symbols.Name(k.source),
		target:    m.reg.Symbols.Name(k.target.name),
		mode:      k.mode,
		value:     k.value,
		preDelay:  k.preDelay,
		postDelay: k.postDelay,
	}
}

// RemoveKey drops the keys matching f. A state left without keys is
// removed together with every key that used it as a source; if it was the
// current state the machine is reset.
func (m *Machine) RemoveKey(f Filter) int {
	source, anySource, target, all, ok := m.resolve(f)
	if !ok {
		return 0
	}
	if anySource {
		source = symbol.None
	}
	var tgt *symbol.Symbol
	if !all {
		tgt = &target.name
	}
	return m.removeKeysFrom(source, anySource, tgt, f.Object, f.Property)
}

func (m *Machine) removeKeys(source symbol.Symbol, target *symbol.Symbol, obj object.Handle, property string) int {
	return m.removeKeysFrom(source, source == symbol.None, target, obj, property)
}

func (m *Machine) removeKeysFrom(source symbol.Symbol, anySource bool, target *symbol.Symbol, obj object.Handle, property string) int {
	removed := 0
	for {
		var states []*state
		if target != nil {
			if st, ok := m.states[*target]; ok {
				states = []*state{st}
			}
		} else {
			states = m.targets(nil, true)
		}

		var emptied *state
		for _, st := range states {
			before := len(st.keys)
			st.keys = slices.DeleteFunc(st.keys, func(k *stateKey) bool {
				if m.match(k, source, anySource, obj, property) {
					k.drop()
					return true
				}
				return false
			})
			removed += before - len(st.keys)
			if before > 0 && len(st.keys) == 0 {
				emptied = st
				break
			}
		}
		if emptied == nil {
			return removed
		}

		if emptied == m.targetState {
			m.Reset()
		}
		delete(m.states, emptied.name)
		removed += m.removeKeysFrom(emptied.name, false, nil, object.Handle{}, "")
	}
}

// SetDuration sets the length of transitions into target. An empty source
// sets the default for every source; an empty target sets the global
// default.
func (m *Machine) SetDuration(source, target string, ms uint32) error {
	if target == "" {
		m.duration = ms
		return nil
	}
	st, ok := m.lookup(target)
	if !ok {
		return fmt.Errorf("duration for %q: %w", target, ErrStateNotFound)
	}
	src := symbol.None
	if source != "" {
		src = m.reg.Symbols.Intern(source)
	}
	st.durations[src] = ms
	return nil
}

// Duration resolves the length of the transition from source to target:
// the exact pair first, then the target's default, then the global one.
func (m *Machine) Duration(source, target string) uint32 {
	st, ok := m.lookup(target)
	if !ok {
		return m.duration
	}
	src := symbol.None
	if source != "" {
		src, _ = m.reg.Symbols.Lookup(source)
	}
	return m.durationFor(src, st)
}

func (m *Machine) durationFor(source symbol.Symbol, st *state) uint32 {
	if source != symbol.None {
		if d := st.durations[source]; d != 0 {
			return d
		}
	}
	if d := st.durations[symbol.None]; d != 0 {
		return d
	}
	return m.duration
}

// SetAnimator hands transitions from source to target to anim. A nil
// animator removes the override.
func (m *Machine) SetAnimator(source, target string, anim *animator.Animator) error {
	if target == "" {
		return ErrNoTarget
	}
	st := m.fetch(target)
	src := symbol.None
	if source != "" {
		src = m.reg.Symbols.Intern(source)
	}
	if anim == nil {
		delete(st.animators, src)
		return nil
	}
	st.animators[src] = anim
	return nil
}

func (m *Machine) Animator(source, target string) (*animator.Animator, error) {
	st, ok := m.lookup(target)
	src := symbol.None
	if ok && source != "" {
		src, ok = m.reg.Symbols.Lookup(source)
	}
	if ok {
		if anim := st.animators[src]; anim != nil {
			return anim, nil
		}
	}
	logging.Logger().Warn("state: no animator for transition", "source", source, "target", target)
	return nil, fmt.Errorf("%q -> %q: %w", source, target, ErrNoAnimator)
}

var (
	_ timeline.Listener         = (*Machine)(nil)
	_ timeline.CompleteListener = (*Machine)(nil)
	_ object.Observer           = (*Machine)(nil)
)
