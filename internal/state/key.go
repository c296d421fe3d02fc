package state

import (
	"cmp"
	"strings"

	"karolbroda.com/kinetic/internal/alpha"
	"karolbroda.com/kinetic/internal/easing"
	"karolbroda.com/kinetic/internal/interval"
	"karolbroda.com/kinetic/internal/object"
	"karolbroda.com/kinetic/internal/symbol"
	"karolbroda.com/kinetic/internal/value"
)

// delayedPrefix marks a Set entry whose delays should be honoured.
const delayedPrefix = "delayed::"

type stateKey struct {
	target *state
	source symbol.Symbol

	obj  object.Handle
	prop object.PropertyID
	name string
	kind value.Kind

	mode      easing.Mode
	value     value.Value
	preDelay  float64
	postDelay float64

	// prePreDelay shifts the window of a key added while its target is
	// already animating, so it starts from the current frame.
	prePreDelay float64

	interval *interval.Interval
	alpha    *alpha.Alpha

	// dropped keys may still sit in a frame's snapshot
	removed bool
}

func (k *stateKey) drop() {
	k.alpha.SetTimeline(nil)
	k.removed = true
}

// compareKeys orders keys by object and property, with source-specific
// keys ahead of the wildcard. Frame evaluation depends on this order.
func compareKeys(a, b *stateKey) int {
	if c := object.Compare(a.obj, b.obj); c != 0 {
		return c
	}
	if c := cmp.Compare(a.prop, b.prop); c != 0 {
		return c
	}
	return cmp.Compare(b.source, a.source)
}

// window maps the transition progress into the key's own [0, 1] range.
// Negative results mean the key has not started yet.
func (k *stateKey) window(progress float64) float64 {
	pre := k.preDelay + k.prePreDelay
	span := 1 - (pre + k.postDelay)
	if span <= 0 {
		if progress >= pre {
			return 1
		}
		return -1
	}
	sub := (progress - pre) / span
	if sub > 1 {
		sub = 1
	}
	return sub
}

// KeySpec is one entry of a Set batch. A Property of the form
// "delayed::name" applies PreDelay and PostDelay; otherwise they are
// ignored.
type KeySpec struct {
	Object    object.Handle
	Property  string
	Mode      easing.Mode
	Value     value.Value
	PreDelay  float64
	PostDelay float64
}

func (s KeySpec) split() (name string, pre, post float64) {
	if rest, ok := strings.CutPrefix(s.Property, delayedPrefix); ok {
		return rest, s.PreDelay, s.PostDelay
	}
	return s.Property, 0, 0
}

// Filter selects keys. Empty fields and a zero handle match everything.
type Filter struct {
	Source   string
	Target   string
	Object   object.Handle
	Property string
}

// KeyInfo is a read-only snapshot of a key.
type KeyInfo struct {
	obj       object.Handle
	property  string
	kind      value.Kind
	source    string
	target    string
	mode      easing.Mode
	value     value.Value
	preDelay  float64
	postDelay float64
}

func (k KeyInfo) Object() object.Handle { return k.obj }
func (k KeyInfo) PropertyName() string  { return k.property }
func (k KeyInfo) Kind() value.Kind      { return k.kind }

// Source is the state the key applies from, or "" for any state.
func (k KeyInfo) Source() string     { return k.source }
func (k KeyInfo) Target() string     { return k.target }
func (k KeyInfo) Mode() easing.Mode  { return k.mode }
func (k KeyInfo) PreDelay() float64  { return k.preDelay }
func (k KeyInfo) PostDelay() float64 { return k.postDelay }
func (k KeyInfo) Value() value.Value { return k.value }

// ValueAs converts the key's value into kind.
func (k KeyInfo) ValueAs(kind value.Kind) (value.Value, error) {
	return value.Convert(k.value, kind)
}
