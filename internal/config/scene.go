package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalidScene = errors.New("invalid scene")

// Scene describes actors, the states they move between and the
// transitions that get special timing or a keyframe animation.
type Scene struct {
	Name        string       `yaml:"name"`
	Duration    uint32       `yaml:"duration"`
	Easing      string       `yaml:"easing"`
	Initial     string       `yaml:"initial"`
	Actors      []Actor      `yaml:"actors"`
	States      []State      `yaml:"states"`
	Transitions []Transition `yaml:"transitions"`
}

type Actor struct {
	Name       string     `yaml:"name"`
	Properties []Property `yaml:"properties"`
}

// Property declares an actor property. Value is parsed according to Kind.
type Property struct {
	Name     string   `yaml:"name"`
	Kind     string   `yaml:"kind"`
	Value    string   `yaml:"value"`
	Min      *float64 `yaml:"min,omitempty"`
	Max      *float64 `yaml:"max,omitempty"`
	ReadOnly bool     `yaml:"read_only,omitempty"`
}

type State struct {
	Name     string `yaml:"name"`
	Duration uint32 `yaml:"duration,omitempty"`
	Keys     []Key  `yaml:"keys"`
}

// Key sets actor.property when entering the enclosing state. From limits
// the key to transitions out of one state.
type Key struct {
	Actor     string  `yaml:"actor"`
	Property  string  `yaml:"property"`
	Value     string  `yaml:"value"`
	Easing    string  `yaml:"easing,omitempty"`
	From      string  `yaml:"from,omitempty"`
	PreDelay  float64 `yaml:"pre_delay,omitempty"`
	PostDelay float64 `yaml:"post_delay,omitempty"`
}

type Transition struct {
	From      string  `yaml:"from"`
	To        string  `yaml:"to"`
	Duration  uint32  `yaml:"duration,omitempty"`
	Keyframes []Frame `yaml:"keyframes,omitempty"`

	// Cubic switches keyframed float properties to spline interpolation.
	Cubic bool `yaml:"cubic,omitempty"`
}

// Frame is one keyframe of a transition animation.
type Frame struct {
	Actor    string  `yaml:"actor"`
	Property string  `yaml:"property"`
	At       float64 `yaml:"at"`
	Value    string  `yaml:"value"`
	Easing   string  `yaml:"easing,omitempty"`
	EaseIn   bool    `yaml:"ease_in,omitempty"`
}

func LoadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	scene, err := ParseScene(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scene, nil
}

func ParseScene(data []byte) (*Scene, error) {
	var scene Scene
	if err := yaml.Unmarshal(data, &scene); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}
	if err := scene.Validate(); err != nil {
		return nil, err
	}
	return &scene, nil
}

// Validate checks names and references. Property kinds and values are
// checked when the scene is built.
func (s *Scene) Validate() error {
	actors := make(map[string]map[string]bool, len(s.Actors))
	for _, a := range s.Actors {
		if strings.TrimSpace(a.Name) == "" {
			return fmt.Errorf("%w: actor without a name", ErrInvalidScene)
		}
		if _, dup := actors[a.Name]; dup {
			return fmt.Errorf("%w: duplicate actor %q", ErrInvalidScene, a.Name)
		}
		props := make(map[string]bool, len(a.Properties))
		for _, p := range a.Properties {
			if p.Name == "" || p.Kind == "" {
				return fmt.Errorf("%w: actor %q has a property without name or kind", ErrInvalidScene, a.Name)
			}
			props[p.Name] = true
		}
		actors[a.Name] = props
	}

	ref := func(where, actor, prop string) error {
		props, ok := actors[actor]
		if !ok {
			return fmt.Errorf("%w: %s: unknown actor %q", ErrInvalidScene, where, actor)
		}
		if !props[prop] {
			return fmt.Errorf("%w: %s: actor %q has no property %q", ErrInvalidScene, where, actor, prop)
		}
		return nil
	}

	states := make(map[string]bool, len(s.States))
	for _, st := range s.States {
		if st.Name == "" {
			return fmt.Errorf("%w: state without a name", ErrInvalidScene)
		}
		if states[st.Name] {
			return fmt.Errorf("%w: duplicate state %q", ErrInvalidScene, st.Name)
		}
		states[st.Name] = true
		for _, k := range st.Keys {
			if err := ref("state "+st.Name, k.Actor, k.Property); err != nil {
				return err
			}
			if k.PreDelay < 0 || k.PostDelay < 0 || k.PreDelay+k.PostDelay > 1 {
				return fmt.Errorf("%w: state %q key %s.%s: bad delays", ErrInvalidScene, st.Name, k.Actor, k.Property)
			}
		}
	}

	for _, st := range s.States {
		for _, k := range st.Keys {
			if k.From != "" && !states[k.From] {
				return fmt.Errorf("%w: state %q key from unknown state %q", ErrInvalidScene, st.Name, k.From)
			}
		}
	}

	for _, tr := range s.Transitions {
		if tr.To == "" {
			return fmt.Errorf("%w: transition without a target", ErrInvalidScene)
		}
		where := fmt.Sprintf("transition %s->%s", tr.From, tr.To)
		for _, f := range tr.Keyframes {
			if err := ref(where, f.Actor, f.Property); err != nil {
				return err
			}
			if f.At < 0 || f.At > 1 {
				return fmt.Errorf("%w: %s: keyframe at %v outside [0, 1]", ErrInvalidScene, where, f.At)
			}
		}
	}

	if s.Initial != "" && !states[s.Initial] {
		return fmt.Errorf("%w: initial state %q not defined", ErrInvalidScene, s.Initial)
	}
	return nil
}

// StateNames lists the states in declaration order.
func (s *Scene) StateNames() []string {
	names := make([]string, 0, len(s.States))
	for _, st := range s.States {
		names = append(names, st.Name)
	}
	return names
}
