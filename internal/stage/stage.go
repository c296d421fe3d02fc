// Package stage builds a live scene: actors in an object store, a state
// machine for the scene's states and keyframe animators for its
// transitions.
package stage

import (
	_ "embed"
	"fmt"
	"image/color"

	"karolbroda.com/kinetic/internal/animator"
	"karolbroda.com/kinetic/internal/config"
	"karolbroda.com/kinetic/internal/easing"
	"karolbroda.com/kinetic/internal/engine"
	"karolbroda.com/kinetic/internal/object"
	"karolbroda.com/kinetic/internal/state"
	"karolbroda.com/kinetic/internal/timeline"
	"karolbroda.com/kinetic/internal/value"
)

//go:embed default.yaml
var defaultScene []byte

// Default is the demo scene shipped with the binary.
func Default() (*config.Scene, error) {
	return config.ParseScene(defaultScene)
}

type Stage struct {
	Registry *engine.Registry
	Store    *object.MemoryStore
	Machine  *state.Machine

	scene     *config.Scene
	actors    map[string]object.Handle
	kinds     map[string]map[string]value.Kind
	animators []*animator.Animator
	easing    easing.Mode
}

// Build creates the scene's actors and wires its states and transitions.
// fallback is the easing used by keys that do not name one and the scene
// sets no default.
func Build(reg *engine.Registry, scene *config.Scene, fallback easing.Mode) (*Stage, error) {
	s := &Stage{
		Registry: reg,
		Store:    object.NewMemoryStore(reg.Symbols),
		scene:    scene,
		actors:   make(map[string]object.Handle),
		kinds:    make(map[string]map[string]value.Kind),
		easing:   fallback,
	}
	if scene.Easing != "" {
		m, err := reg.Easing.Parse(scene.Easing)
		if err != nil {
			return nil, fmt.Errorf("scene easing: %w", err)
		}
		s.easing = m
	}

	for _, a := range scene.Actors {
		if err := s.addActor(a); err != nil {
			return nil, err
		}
	}

	s.Machine = state.New(reg, s.Store)
	if scene.Duration > 0 {
		_ = s.Machine.SetDuration("", "", scene.Duration)
	}

	for _, st := range scene.States {
		for _, k := range st.Keys {
			if err := s.addKey(st.Name, k); err != nil {
				return nil, err
			}
		}
	}
	for _, st := range scene.States {
		if st.Duration > 0 {
			if err := s.Machine.SetDuration("", st.Name, st.Duration); err != nil {
				return nil, err
			}
		}
	}
	for _, tr := range scene.Transitions {
		if err := s.addTransition(tr); err != nil {
			return nil, err
		}
	}

	if scene.Initial != "" {
		if _, err := s.Machine.WarpToState(scene.Initial); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Stage) addActor(a config.Actor) error {
	props := make([]object.Property, 0, len(a.Properties))
	kinds := make(map[string]value.Kind, len(a.Properties))
	for _, p := range a.Properties {
		kind, err := value.ParseKind(p.Kind)
		if err != nil {
			return fmt.Errorf("actor %s.%s: %w", a.Name, p.Name, err)
		}
		v, err := initialValue(kind, p.Value)
		if err != nil {
			return fmt.Errorf("actor %s.%s: %w", a.Name, p.Name, err)
		}
		prop := object.Property{Name: p.Name, Value: v, ReadOnly: p.ReadOnly}
		if p.Min != nil || p.Max != nil {
			b := &value.Bounds{Min: -1e308, Max: 1e308}
			if p.Min != nil {
				b.Min = *p.Min
			}
			if p.Max != nil {
				b.Max = *p.Max
			}
			prop.Bounds = b
		}
		props = append(props, prop)
		kinds[p.Name] = kind
	}
	s.actors[a.Name] = s.Store.Create(a.Name, props...)
	s.kinds[a.Name] = kinds
	return nil
}

func initialValue(kind value.Kind, text string) (value.Value, error) {
	if text != "" {
		return value.ParseValue(kind, text)
	}
	switch {
	case kind.IsNumeric():
		return value.Number(kind, 0)
	case kind == value.KindBool:
		return value.Bool(false), nil
	case kind == value.KindColor:
		return value.ColorValue(color.RGBA{A: 0xff}), nil
	case kind == value.KindPoint:
		return value.PointValue(value.Point{}), nil
	}
	return value.String(""), nil
}

func (s *Stage) mode(name string) (easing.Mode, error) {
	if name == "" {
		return s.easing, nil
	}
	return s.Registry.Easing.Parse(name)
}

// parse reads text as the declared kind of actor.property.
func (s *Stage) parse(actor, property, text string) (object.Handle, value.Value, error) {
	h, ok := s.actors[actor]
	if !ok {
		return object.Handle{}, value.Value{}, fmt.Errorf("unknown actor %q", actor)
	}
	v, err := value.ParseValue(s.kinds[actor][property], text)
	if err != nil {
		return object.Handle{}, value.Value{}, fmt.Errorf("%s.%s: %w", actor, property, err)
	}
	return h, v, nil
}

func (s *Stage) addKey(target string, k config.Key) error {
	h, v, err := s.parse(k.Actor, k.Property, k.Value)
	if err != nil {
		return fmt.Errorf("state %s: %w", target, err)
	}
	m, err := s.mode(k.Easing)
	if err != nil {
		return fmt.Errorf("state %s: %w", target, err)
	}
	return s.Machine.SetKey(k.From, target, h, k.Property, m, v, k.PreDelay, k.PostDelay)
}

func (s *Stage) addTransition(tr config.Transition) error {
	if len(tr.Keyframes) > 0 {
		anim := animator.New(s.Registry, s.Store)
		for _, f := range tr.Keyframes {
			h, v, err := s.parse(f.Actor, f.Property, f.Value)
			if err != nil {
				return fmt.Errorf("transition %s->%s: %w", tr.From, tr.To, err)
			}
			m, err := s.mode(f.Easing)
			if err != nil {
				return fmt.Errorf("transition %s->%s: %w", tr.From, tr.To, err)
			}
			if err := anim.SetKey(h, f.Property, m, f.At, v); err != nil {
				return fmt.Errorf("transition %s->%s: %w", tr.From, tr.To, err)
			}
		}
		for _, f := range tr.Keyframes {
			h := s.actors[f.Actor]
			if f.EaseIn {
				_ = anim.SetEaseIn(h, f.Property, true)
			}
			if tr.Cubic {
				_ = anim.SetInterpolation(h, f.Property, animator.Cubic)
			}
		}
		if err := s.Machine.SetAnimator(tr.From, tr.To, anim); err != nil {
			return err
		}
		s.animators = append(s.animators, anim)
	}

	if tr.Duration > 0 {
		if err := s.Machine.SetDuration(tr.From, tr.To, tr.Duration); err != nil {
			return fmt.Errorf("transition %s->%s: %w", tr.From, tr.To, err)
		}
	}
	return nil
}

func (s *Stage) Name() string { return s.scene.Name }

// Actors lists actor names in scene order.
func (s *Stage) Actors() []string {
	names := make([]string, 0, len(s.scene.Actors))
	for _, a := range s.scene.Actors {
		names = append(names, a.Name)
	}
	return names
}

func (s *Stage) Actor(name string) (object.Handle, bool) {
	h, ok := s.actors[name]
	return h, ok
}

// States lists state names in scene order.
func (s *Stage) States() []string { return s.scene.StateNames() }

func (s *Stage) Timeline() *timeline.Timeline { return s.Machine.Timeline() }

// Get reads actor.property. Missing actors and properties read as invalid
// values.
func (s *Stage) Get(actor, property string) value.Value {
	h, ok := s.actors[actor]
	if !ok {
		return value.Value{}
	}
	v, err := s.Store.Get(h, property)
	if err != nil {
		return value.Value{}
	}
	return v
}

// Recolor replaces the value of every color key, cycling through palette in
// state order. A running transition picks the new colors up immediately.
func (s *Stage) Recolor(palette []color.RGBA) error {
	if len(palette) == 0 {
		return nil
	}
	i := 0
	for _, name := range s.States() {
		for _, k := range s.Machine.Keys(state.Filter{Target: name}) {
			if k.Kind() != value.KindColor {
				continue
			}
			c := value.ColorValue(palette[i%len(palette)])
			i++
			err := s.Machine.SetKey(k.Source(), k.Target(), k.Object(), k.PropertyName(), k.Mode(), c, k.PreDelay(), k.PostDelay())
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// Close detaches the machine and animators from the store.
func (s *Stage) Close() {
	for _, a := range s.animators {
		a.Close()
	}
	s.Machine.Close()
}
