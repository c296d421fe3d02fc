package state

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"slices"
	"strings"
	"testing"

	"karolbroda.com/kinetic/internal/animator"
	"karolbroda.com/kinetic/internal/easing"
	"karolbroda.com/kinetic/internal/engine"
	"karolbroda.com/kinetic/internal/logging"
	"karolbroda.com/kinetic/internal/object"
	"karolbroda.com/kinetic/internal/value"
)

type fixture struct {
	reg   *engine.Registry
	store *object.MemoryStore
	box   object.Handle
	m     *Machine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := engine.NewRegistry()
	store := object.NewMemoryStore(reg.Symbols)
	box := store.Create("box",
		object.Property{Name: "x", Value: value.Double(0)},
		object.Property{Name: "opacity", Value: value.Double(1), Bounds: &value.Bounds{Min: 0, Max: 1}},
		object.Property{Name: "id", Value: value.Int(1), ReadOnly: true},
	)
	return &fixture{reg: reg, store: store, box: box, m: New(reg, store)}
}

func (f *fixture) key(t *testing.T, source, target, prop string, v, pre, post float64) {
	t.Helper()
	if err := f.m.SetKey(source, target, f.box, prop, easing.Linear, value.Double(v), pre, post); err != nil {
		t.Fatalf("SetKey(%q, %q, %s) error: %v", source, target, prop, err)
	}
}

func (f *fixture) get(t *testing.T, prop string) float64 {
	t.Helper()
	v, err := f.store.Get(f.box, prop)
	if err != nil {
		t.Fatalf("Get(%s) error: %v", prop, err)
	}
	return v.Float64()
}

func (f *fixture) warp(t *testing.T, target string) {
	t.Helper()
	if _, err := f.m.WarpToState(target); err != nil {
		t.Fatalf("WarpToState(%q) error: %v", target, err)
	}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestSpecificSourceBeatsWildcard(t *testing.T) {
	f := newFixture(t)
	f.key(t, "", "hover", "x", 1, 0, 0)
	f.key(t, "base", "hover", "x", 2, 0, 0)
	f.key(t, "", "base", "x", 0, 0, 0)
	f.key(t, "", "other", "x", 5, 0, 0)

	tests := []struct {
		from string
		want float64
	}{
		{"base", 2},
		{"other", 1},
	}
	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			f.warp(t, tt.from)
			f.warp(t, "hover")
			if got := f.get(t, "x"); got != tt.want {
				t.Errorf("x after %s -> hover = %v, want %v", tt.from, got, tt.want)
			}
			if f.m.Source() != tt.from || f.m.Target() != "hover" {
				t.Errorf("Source/Target = %q/%q, want %q/hover", f.m.Source(), f.m.Target(), tt.from)
			}
		})
	}

	keys := f.m.Keys(Filter{Target: "hover"})
	if len(keys) != 2 || keys[0].Source() != "base" || keys[1].Source() != "" {
		t.Errorf("Keys(hover) sources = %v, want specific before wildcard", keys)
	}
}

func TestPreDelayHoldsThenRuns(t *testing.T) {
	f := newFixture(t)
	f.key(t, "", "on", "x", 10, 0.5, 0)

	tl, err := f.m.SetState("on")
	if err != nil {
		t.Fatalf("SetState() error: %v", err)
	}
	if tl.Duration() != DefaultDuration {
		t.Fatalf("Duration() = %d, want %d", tl.Duration(), DefaultDuration)
	}

	steps := []float64{0, 0, 5, 10}
	for i, want := range steps {
		tl.Tick(250)
		if got := f.get(t, "x"); !approx(got, want) {
			t.Errorf("x after %dms = %v, want %v", (i+1)*250, got, want)
		}
	}
	if tl.IsPlaying() {
		t.Error("timeline still playing after the transition")
	}
}

func TestPostDelayFinishesEarly(t *testing.T) {
	f := newFixture(t)
	f.key(t, "", "on", "x", 10, 0, 0.5)

	tl, _ := f.m.SetState("on")
	tl.Tick(250)
	if got := f.get(t, "x"); !approx(got, 5) {
		t.Errorf("x at 0.25 = %v, want 5", got)
	}
	tl.Tick(500)
	if got := f.get(t, "x"); !approx(got, 10) {
		t.Errorf("x at 0.75 = %v, want 10", got)
	}
}

func TestDestroyedObjectResetsMachine(t *testing.T) {
	f := newFixture(t)
	f.key(t, "", "on", "x", 10, 0, 0)

	tl, _ := f.m.SetState("on")
	tl.Tick(100)
	f.store.Destroy(f.box)

	if got := f.m.Target(); got != "" {
		t.Errorf("Target() after destroy = %q, want empty", got)
	}
	if tl.IsPlaying() {
		t.Error("timeline still playing after its only object went away")
	}
	if keys := f.m.Keys(Filter{}); len(keys) != 0 {
		t.Errorf("Keys() after destroy = %d, want 0", len(keys))
	}
	if states := f.m.States(); slices.Contains(states, "on") {
		t.Errorf("States() = %v, still contains emptied state", states)
	}
	tl.Tick(100)
}

func TestDurationPrecedence(t *testing.T) {
	f := newFixture(t)
	f.key(t, "a", "b", "x", 1, 0, 0)

	if got := f.m.Duration("a", "b"); got != DefaultDuration {
		t.Errorf("Duration(a, b) = %d, want global default", got)
	}
	steps := []struct {
		source, target string
		ms             uint32
	}{
		{"", "", 300},
		{"", "b", 500},
		{"a", "b", 700},
	}
	for _, s := range steps {
		if err := f.m.SetDuration(s.source, s.target, s.ms); err != nil {
			t.Fatalf("SetDuration(%q, %q) error: %v", s.source, s.target, err)
		}
	}

	tests := []struct {
		source, target string
		want           uint32
	}{
		{"a", "b", 700},
		{"c", "b", 500},
		{"", "b", 500},
		{"a", "missing", 300},
	}
	for _, tt := range tests {
		if got := f.m.Duration(tt.source, tt.target); got != tt.want {
			t.Errorf("Duration(%q, %q) = %d, want %d", tt.source, tt.target, got, tt.want)
		}
	}

	if err := f.m.SetDuration("", "missing", 1); !errors.Is(err, ErrStateNotFound) {
		t.Errorf("SetDuration(missing) error = %v, want ErrStateNotFound", err)
	}

	f.warp(t, "a")
	tl, _ := f.m.SetState("b")
	if tl.Duration() != 700 {
		t.Errorf("a -> b ran for %d ms, want 700", tl.Duration())
	}
}

func TestChangeToUnknownStateIsNoop(t *testing.T) {
	f := newFixture(t)
	f.key(t, "", "on", "x", 4, 0, 0)
	f.warp(t, "on")

	tl, err := f.m.SetState("nowhere")
	if !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("SetState(nowhere) error = %v, want ErrStateNotFound", err)
	}
	if tl != nil {
		t.Error("SetState(nowhere) returned a timeline")
	}
	if f.m.Target() != "on" {
		t.Errorf("Target() = %q, want on", f.m.Target())
	}
}

func TestChangeToCurrentState(t *testing.T) {
	f := newFixture(t)
	f.key(t, "", "on", "x", 10, 0, 0)

	tl, _ := f.m.SetState("on")
	tl.Tick(500)
	if _, err := f.m.SetState("on"); err != nil {
		t.Fatal(err)
	}
	if !tl.IsPlaying() || tl.Elapsed() != 500 {
		t.Errorf("re-entering a running state restarted it (playing %v, elapsed %d)", tl.IsPlaying(), tl.Elapsed())
	}

	f.warp(t, "on")
	if got := f.get(t, "x"); got != 10 {
		t.Errorf("warping a running transition left x = %v, want 10", got)
	}
}

func TestOverrideAnimator(t *testing.T) {
	f := newFixture(t)
	anim := animator.New(f.reg, f.store)
	if err := anim.SetKey(f.box, "x", easing.Linear, 0, value.Double(0)); err != nil {
		t.Fatal(err)
	}
	if err := anim.SetKey(f.box, "x", easing.Linear, 1, value.Double(100)); err != nil {
		t.Fatal(err)
	}
	if err := f.m.SetAnimator("", "fly", anim); err != nil {
		t.Fatalf("SetAnimator() error: %v", err)
	}

	if got, err := f.m.Animator("", "fly"); err != nil || got != anim {
		t.Errorf("Animator(fly) = %v, %v; want the registered animator", got, err)
	}
	if _, err := f.m.Animator("ground", "fly"); !errors.Is(err, ErrNoAnimator) {
		t.Errorf("Animator(ground, fly) error = %v, want ErrNoAnimator", err)
	}

	f.warp(t, "fly")
	if got := f.get(t, "x"); got != 100 {
		t.Errorf("x after warping with animator = %v, want 100", got)
	}
	if anim.Timeline() != nil {
		t.Error("animator still bound after the transition completed")
	}

	f.m.Reset()
	tl, _ := f.m.SetState("fly")
	tl.Tick(500)
	if got := f.get(t, "x"); !approx(got, 50) {
		t.Errorf("x halfway through animator = %v, want 50", got)
	}
}

func TestSetKeyOnRunningTransition(t *testing.T) {
	f := newFixture(t)
	f.key(t, "", "on", "x", 10, 0, 0)

	tl, _ := f.m.SetState("on")
	tl.Tick(500)
	if got := f.get(t, "x"); !approx(got, 5) {
		t.Fatalf("x at 0.5 = %v, want 5", got)
	}

	f.key(t, "", "on", "x", 20, 0, 0)
	tl.Tick(250)
	if got := f.get(t, "x"); !approx(got, 12.5) {
		t.Errorf("retargeted x at 0.75 = %v, want 12.5", got)
	}
	tl.Tick(250)
	if got := f.get(t, "x"); !approx(got, 20) {
		t.Errorf("retargeted x at end = %v, want 20", got)
	}
}

func TestSetKeyOnSettledState(t *testing.T) {
	f := newFixture(t)
	f.key(t, "", "on", "x", 10, 0, 0)
	f.warp(t, "on")

	f.key(t, "", "on", "x", 3, 0, 0)
	if got := f.get(t, "x"); got != 3 {
		t.Errorf("x after rekeying settled state = %v, want 3", got)
	}
	if f.m.Target() != "on" {
		t.Errorf("Target() = %q, want on", f.m.Target())
	}
}

func TestSetBatch(t *testing.T) {
	f := newFixture(t)
	err := f.m.Set("", "on",
		KeySpec{Object: f.box, Property: "delayed::x", Mode: easing.Linear, Value: value.Double(1), PreDelay: 0.25, PostDelay: 0.5},
		KeySpec{Object: f.box, Property: "opacity", Mode: easing.Linear, Value: value.Double(0), PreDelay: 0.3},
	)
	if err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	x := f.m.Keys(Filter{Property: "x"})
	if len(x) != 1 || x[0].PreDelay() != 0.25 || x[0].PostDelay() != 0.5 {
		t.Errorf("delayed key = %+v, want pre 0.25 post 0.5", x)
	}
	op := f.m.Keys(Filter{Property: "opacity"})
	if len(op) != 1 || op[0].PreDelay() != 0 {
		t.Errorf("plain key = %+v, want delays ignored", op)
	}
	if v, err := x[0].ValueAs(value.KindInt); err != nil || v.Int64() != 1 {
		t.Errorf("ValueAs(int) = %v, %v; want 1", v, err)
	}

	err = f.m.Set("", "off",
		KeySpec{Object: f.box, Property: "x", Mode: easing.Linear, Value: value.Double(0)},
		KeySpec{Object: f.box, Property: "rotation", Mode: easing.Linear, Value: value.Double(0)},
		KeySpec{Object: f.box, Property: "opacity", Mode: easing.Linear, Value: value.Double(1)},
	)
	if !errors.Is(err, object.ErrUnknownProperty) {
		t.Fatalf("Set(off) error = %v, want ErrUnknownProperty", err)
	}
	if n := len(f.m.Keys(Filter{Target: "off"})); n != 1 {
		t.Errorf("Keys(off) = %d, want only the key before the failure", n)
	}
}

func TestSetKeyErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name      string
		target    string
		prop      string
		v         value.Value
		pre, post float64
		want      error
	}{
		{"no target", "", "x", value.Double(1), 0, 0, ErrNoTarget},
		{"unknown property", "on", "rotation", value.Double(1), 0, 0, object.ErrUnknownProperty},
		{"read only", "on", "id", value.Int(2), 0, 0, object.ErrNotWritable},
		{"wrong type", "on", "x", value.String("left"), 0, 0, value.ErrTypeMismatch},
		{"delays overlap", "on", "x", value.Double(1), 0.7, 0.5, ErrInvalidDelay},
		{"negative delay", "on", "x", value.Double(1), -0.1, 0, ErrInvalidDelay},
		{"above bounds", "on", "opacity", value.Double(5), 0, 0, value.ErrOutOfBounds},
		{"below bounds", "on", "opacity", value.Int(-1), 0, 0, value.ErrOutOfBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.m.SetKey("", tt.target, f.box, tt.prop, easing.Linear, tt.v, tt.pre, tt.post)
			if !errors.Is(err, tt.want) {
				t.Errorf("SetKey() error = %v, want %v", err, tt.want)
			}
		})
	}
	if states := f.m.States(); len(states) != 0 {
		t.Errorf("States() = %v, want no state created by a rejected key", states)
	}
}

func TestBoundsEdgeAccepted(t *testing.T) {
	f := newFixture(t)
	f.key(t, "", "dim", "opacity", 0, 0, 0)
	f.warp(t, "dim")
	if got := f.get(t, "opacity"); got != 0 {
		t.Errorf("opacity = %v, want 0", got)
	}
}

func TestRemoveKeyCascades(t *testing.T) {
	f := newFixture(t)
	f.key(t, "", "a", "x", 1, 0, 0)
	f.key(t, "", "a", "opacity", 0.5, 0, 0)
	f.key(t, "a", "b", "x", 2, 0, 0)

	if n := f.m.RemoveKey(Filter{Target: "a", Property: "x"}); n != 1 {
		t.Errorf("RemoveKey(a, x) = %d, want 1", n)
	}
	if n := len(f.m.Keys(Filter{Target: "a"})); n != 1 {
		t.Errorf("Keys(a) = %d, want 1", n)
	}

	if n := f.m.RemoveKey(Filter{Target: "a"}); n != 2 {
		t.Errorf("RemoveKey(a) = %d, want 2 including the key sourced from a", n)
	}
	if states := f.m.States(); len(states) != 0 {
		t.Errorf("States() = %v, want none left", states)
	}
	if n := f.m.RemoveKey(Filter{Source: "ghost"}); n != 0 {
		t.Errorf("RemoveKey(unknown source) = %d, want 0", n)
	}
}

func TestCompletedCallbacks(t *testing.T) {
	f := newFixture(t)
	f.key(t, "", "on", "x", 1, 0, 0)

	var got []string
	cancel := f.m.Completed(func(target string) { got = append(got, target) })
	f.warp(t, "on")
	cancel()
	f.m.Reset()
	f.warp(t, "on")

	if !slices.Equal(got, []string{"on"}) {
		t.Errorf("completed calls = %v, want [on]", got)
	}
}

// onWrite runs fn after every write to box.x.
func (f *fixture) onWrite(t *testing.T, fn func(x float64)) {
	t.Helper()
	cancel := f.store.OnChange(func(obj object.Handle, prop object.PropertySpec, v value.Value) {
		if obj == f.box && prop.Name == "x" {
			fn(v.Float64())
		}
	})
	t.Cleanup(cancel)
}

func TestStateChangeFromListenerMidFrame(t *testing.T) {
	f := newFixture(t)
	f.key(t, "", "a", "x", 10, 0, 0)
	f.key(t, "", "b", "x", -10, 0, 0)

	var done []string
	f.m.Completed(func(target string) { done = append(done, target) })
	switched := false
	f.onWrite(t, func(x float64) {
		if x >= 5 && !switched {
			switched = true
			if _, err := f.m.SetState("b"); err != nil {
				t.Errorf("SetState(b) from listener error: %v", err)
			}
		}
	})

	tl, _ := f.m.SetState("a")
	tl.Tick(600)
	if !switched || f.m.Target() != "b" || f.m.Source() != "a" {
		t.Fatalf("Source/Target = %q/%q after the listener switched, want a/b", f.m.Source(), f.m.Target())
	}
	if got := f.get(t, "x"); !approx(got, 6) {
		t.Errorf("x after the switch = %v, want 6", got)
	}

	tl.Tick(500)
	if got := f.get(t, "x"); !approx(got, -2) {
		t.Errorf("x halfway to b = %v, want -2", got)
	}
	tl.Tick(500)
	if got := f.get(t, "x"); !approx(got, -10) {
		t.Errorf("x at b = %v, want -10", got)
	}
	if tl.IsPlaying() {
		t.Error("timeline still playing after reaching b")
	}
	if !slices.Equal(done, []string{"b"}) {
		t.Errorf("completed calls = %v, want [b]", done)
	}
}

func TestStateChangeFromListenerOnLastFrame(t *testing.T) {
	f := newFixture(t)
	f.key(t, "", "a", "x", 10, 0, 0)
	f.key(t, "", "b", "x", -10, 0, 0)

	var done []string
	f.m.Completed(func(target string) { done = append(done, target) })
	switched := false
	f.onWrite(t, func(x float64) {
		if approx(x, 10) && !switched {
			switched = true
			_, _ = f.m.SetState("b")
		}
	})

	tl, _ := f.m.SetState("a")
	tl.Tick(1000)
	if !switched {
		t.Fatal("listener never saw the final frame of a")
	}
	if !tl.IsPlaying() || f.m.Target() != "b" {
		t.Fatalf("after switching on the last frame: playing=%v target=%q, want a running transition to b", tl.IsPlaying(), f.m.Target())
	}
	if len(done) != 0 {
		t.Errorf("completed calls = %v, want none before b finishes", done)
	}

	tl.Tick(1000)
	if got := f.get(t, "x"); !approx(got, -10) {
		t.Errorf("x at b = %v, want -10", got)
	}
	if !slices.Equal(done, []string{"b"}) {
		t.Errorf("completed calls = %v, want [b]", done)
	}
}

func TestListenerDestroysObjectMidFrame(t *testing.T) {
	f := newFixture(t)
	other := f.store.Create("other", object.Property{Name: "x", Value: value.Double(0)})
	f.key(t, "", "on", "x", 10, 0, 0)
	if err := f.m.SetKey("", "on", other, "x", easing.Linear, value.Double(10), 0, 0); err != nil {
		t.Fatalf("SetKey(other) error: %v", err)
	}

	destroyed := false
	f.onWrite(t, func(float64) {
		if !destroyed {
			destroyed = true
			f.store.Destroy(f.box)
		}
	})

	tl, _ := f.m.SetState("on")
	tl.Tick(500)
	if !destroyed {
		t.Fatal("box was never written")
	}
	if f.m.Target() != "on" || !tl.IsPlaying() {
		t.Errorf("target = %q playing = %v, want the transition to keep running", f.m.Target(), tl.IsPlaying())
	}
	if n := len(f.m.Keys(Filter{Target: "on"})); n != 1 {
		t.Errorf("Keys(on) = %d, want only other's key", n)
	}
	otherX := func() float64 {
		v, err := f.store.Get(other, "x")
		if err != nil {
			t.Fatalf("Get(other.x) error: %v", err)
		}
		return v.Float64()
	}
	if got := otherX(); !approx(got, 5) {
		t.Errorf("other.x in the destroying frame = %v, want 5", got)
	}

	tl.Tick(500)
	if got := otherX(); !approx(got, 10) {
		t.Errorf("other.x at the end = %v, want 10", got)
	}
}

func TestListenerDestroysOnlyObjectMidFrame(t *testing.T) {
	f := newFixture(t)
	f.key(t, "", "on", "x", 10, 0, 0)
	f.key(t, "", "on", "opacity", 0, 0, 0)

	f.onWrite(t, func(float64) { f.store.Destroy(f.box) })

	tl, _ := f.m.SetState("on")
	tl.Tick(500)
	if f.m.Target() != "" || tl.IsPlaying() {
		t.Errorf("target = %q playing = %v, want an idle machine", f.m.Target(), tl.IsPlaying())
	}
	if states := f.m.States(); len(states) != 0 {
		t.Errorf("States() = %v, want none left", states)
	}
	tl.Tick(500)
}

func TestListenerRemovesKeyMidFrame(t *testing.T) {
	f := newFixture(t)
	f.key(t, "", "on", "x", 10, 0, 0)
	f.key(t, "", "on", "opacity", 0, 0, 0)

	removed := -1
	f.onWrite(t, func(float64) {
		if removed < 0 {
			removed = f.m.RemoveKey(Filter{Target: "on", Property: "opacity"})
		}
	})

	tl, _ := f.m.SetState("on")
	tl.Tick(500)
	tl.Tick(500)
	if removed != 1 {
		t.Fatalf("RemoveKey(opacity) = %d, want 1", removed)
	}
	if got := f.get(t, "opacity"); got != 1 {
		t.Errorf("opacity = %v, want it untouched after its key went away", got)
	}
	if got := f.get(t, "x"); !approx(got, 10) {
		t.Errorf("x = %v, want 10", got)
	}
}

func TestMissingAnimatorWarns(t *testing.T) {
	var buf bytes.Buffer
	logging.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))
	t.Cleanup(func() { logging.SetLogger(nil) })

	f := newFixture(t)
	f.key(t, "", "on", "x", 1, 0, 0)

	if _, err := f.m.Animator("", "on"); !errors.Is(err, ErrNoAnimator) {
		t.Fatalf("Animator(on) error = %v, want ErrNoAnimator", err)
	}
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "no animator for transition") || !strings.Contains(out, "target=on") {
		t.Errorf("log = %q, want a warning naming the transition", out)
	}
}
