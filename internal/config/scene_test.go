package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

const sceneYAML = `
name: buttons
duration: 400
easing: easeOutCubic
initial: idle
actors:
  - name: button
    properties:
      - {name: x, kind: double, value: "0"}
      - {name: color, kind: color, value: steelblue}
      - {name: opacity, kind: uchar, value: "255", min: 0, max: 255}
states:
  - name: idle
    keys:
      - {actor: button, property: x, value: "0"}
  - name: hover
    duration: 200
    keys:
      - {actor: button, property: x, value: "12", easing: easeOutBack}
      - {actor: button, property: color, value: "#ff8800", from: idle, pre_delay: 0.25}
transitions:
  - from: hover
    to: idle
    duration: 900
    cubic: true
    keyframes:
      - {actor: button, property: x, at: 0, value: "12"}
      - {actor: button, property: x, at: 0.5, value: "-4"}
      - {actor: button, property: x, at: 1, value: "0"}
`

func TestParseScene(t *testing.T) {
	s, err := ParseScene([]byte(sceneYAML))
	if err != nil {
		t.Fatalf("ParseScene() error: %v", err)
	}
	if s.Name != "buttons" || s.Duration != 400 || s.Initial != "idle" {
		t.Errorf("header = %q %d %q", s.Name, s.Duration, s.Initial)
	}
	if got := s.StateNames(); !slices.Equal(got, []string{"idle", "hover"}) {
		t.Errorf("StateNames() = %v", got)
	}
	if len(s.Actors) != 1 || len(s.Actors[0].Properties) != 3 {
		t.Fatalf("actors = %+v", s.Actors)
	}
	if p := s.Actors[0].Properties[2]; p.Min == nil || *p.Max != 255 {
		t.Errorf("opacity bounds = %v..%v", p.Min, p.Max)
	}
	k := s.States[1].Keys[1]
	if k.From != "idle" || k.PreDelay != 0.25 {
		t.Errorf("hover color key = %+v", k)
	}
	tr := s.Transitions[0]
	if !tr.Cubic || len(tr.Keyframes) != 3 || tr.Keyframes[1].At != 0.5 {
		t.Errorf("transition = %+v", tr)
	}
}

func TestParseSceneErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"not yaml", "actors: [\n"},
		{"unnamed actor", "actors: [{properties: []}]"},
		{"duplicate state", "states: [{name: a}, {name: a}]"},
		{"unknown actor", "states: [{name: a, keys: [{actor: ghost, property: x, value: '1'}]}]"},
		{"unknown property", "actors: [{name: b, properties: [{name: x, kind: double}]}]\nstates: [{name: a, keys: [{actor: b, property: y, value: '1'}]}]"},
		{"bad delays", "actors: [{name: b, properties: [{name: x, kind: double}]}]\nstates: [{name: a, keys: [{actor: b, property: x, value: '1', pre_delay: 0.8, post_delay: 0.4}]}]"},
		{"unknown from", "actors: [{name: b, properties: [{name: x, kind: double}]}]\nstates: [{name: a, keys: [{actor: b, property: x, value: '1', from: z}]}]"},
		{"keyframe out of range", "actors: [{name: b, properties: [{name: x, kind: double}]}]\ntransitions: [{to: a, keyframes: [{actor: b, property: x, at: 2, value: '1'}]}]"},
		{"unknown initial", "initial: nowhere"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseScene([]byte(tt.yaml)); !errors.Is(err, ErrInvalidScene) {
				t.Errorf("ParseScene() error = %v, want ErrInvalidScene", err)
			}
		})
	}
}

func TestLoadScene(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	if err := os.WriteFile(path, []byte(sceneYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadScene(path); err != nil {
		t.Errorf("LoadScene() error: %v", err)
	}
	if _, err := LoadScene(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadScene(missing) error = %v, want not exist", err)
	}
}
