package ui

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"karolbroda.com/kinetic/internal/config"
	"karolbroda.com/kinetic/internal/easing"
	"karolbroda.com/kinetic/internal/engine"
	"karolbroda.com/kinetic/internal/script"
	"karolbroda.com/kinetic/internal/stage"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	scene, err := stage.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	s, err := stage.Build(engine.NewRegistry(), scene, easing.Linear)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return NewModel(ModelConfig{Stage: s, Frame: 16 * time.Millisecond})
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestNewModelStartsOnInitialState(t *testing.T) {
	m := newTestModel(t)
	if m.StateIndex() != 0 {
		t.Errorf("StateIndex() = %d, want 0", m.StateIndex())
	}
	if m.Palette() == nil {
		t.Error("Palette() = nil, want default palette")
	}
}

func TestKeysChangeState(t *testing.T) {
	tests := []struct {
		name  string
		keys  []tea.Msg
		index int
		state string
	}{
		{"next", []tea.Msg{tea.KeyMsg{Type: tea.KeyRight}}, 1, "right"},
		{"previous wraps", []tea.Msg{tea.KeyMsg{Type: tea.KeyLeft}}, 3, "drop"},
		{"jump", []tea.Msg{runes("3")}, 2, "spread"},
		{"jump past the end", []tea.Msg{runes("9")}, 0, "left"},
		{"next twice", []tea.Msg{runes("l"), tea.KeyMsg{Type: tea.KeyTab}}, 2, "spread"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := update(t, newTestModel(t), tt.keys...)
			if m.StateIndex() != tt.index {
				t.Errorf("StateIndex() = %d, want %d", m.StateIndex(), tt.index)
			}
			if got := m.Stage().Machine.Target(); got != tt.state {
				t.Errorf("Target() = %q, want %q", got, tt.state)
			}
		})
	}
}

func TestTicksDriveTransition(t *testing.T) {
	m := update(t, newTestModel(t), tea.KeyMsg{Type: tea.KeyRight})

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m = update(t, m, TickMsg(t0), TickMsg(t0.Add(600*time.Millisecond)))
	if x := m.Stage().Get("alpha", "x").Float64(); x <= 0 || x >= 60 {
		t.Errorf("alpha.x mid transition = %v, want between the endpoints", x)
	}
	if !m.Stage().Timeline().IsPlaying() {
		t.Error("timeline stopped mid transition")
	}

	m = update(t, m, TickMsg(t0.Add(1200*time.Millisecond)))
	if x := m.Stage().Get("alpha", "x").Float64(); x != 50 {
		t.Errorf("alpha.x = %v, want 50", x)
	}
	if m.Stage().Timeline().IsPlaying() {
		t.Error("timeline still playing after its duration")
	}
	if m.TickCount() != 3 {
		t.Errorf("TickCount() = %d, want 3", m.TickCount())
	}
}

func TestFinishAndReset(t *testing.T) {
	m := update(t, newTestModel(t), tea.KeyMsg{Type: tea.KeyRight}, runes("w"))
	if x := m.Stage().Get("gamma", "x").Float64(); x != 50 {
		t.Errorf("gamma.x after finish = %v, want 50", x)
	}
	if m.Stage().Timeline().IsPlaying() {
		t.Error("timeline still playing after finish")
	}

	m = update(t, m, runes("r"))
	if m.StateIndex() != -1 || m.Stage().Machine.Target() != "" {
		t.Errorf("after reset StateIndex() = %d, Target() = %q", m.StateIndex(), m.Stage().Machine.Target())
	}
	if m.Status() != "reset" {
		t.Errorf("Status() = %q, want reset", m.Status())
	}
}

func TestRecolorRotatesPalette(t *testing.T) {
	m := update(t, newTestModel(t), runes("2"), runes("w"))
	before := m.Stage().Get("alpha", "color").Color()

	m = update(t, m, runes("c"))
	after := m.Stage().Get("alpha", "color").Color()
	if before == after {
		t.Errorf("alpha.color = %v after recolor, want a palette color", after)
	}
	if !strings.HasPrefix(m.Status(), "recolored") {
		t.Errorf("Status() = %q", m.Status())
	}
}

func TestQuit(t *testing.T) {
	next, cmd := newTestModel(t).Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m := next.(Model)
	if !m.IsQuitting() {
		t.Error("IsQuitting() = false after ctrl+c")
	}
	if cmd == nil {
		t.Error("Update(ctrl+c) returned no command")
	}
	if m.View() != "" {
		t.Error("View() not empty while quitting")
	}
}

func TestView(t *testing.T) {
	m := update(t, newTestModel(t), tea.WindowSizeMsg{Width: 100, Height: 30})
	view := m.View()

	if got := strings.Count(view, "\n") + 1; got != 30 {
		t.Errorf("View() has %d lines, want 30", got)
	}
	for _, want := range []string{"1 left", "4 drop", "q quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if view := m.View(); !strings.Contains(view, "left → right") {
		t.Error("View() does not show the running transition")
	}
}

func TestScriptReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ramp"+script.Ext)
	if err := os.WriteFile(path, []byte("ease := func(t, d) { return t / d }\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	scene, err := stage.Default()
	if err != nil {
		t.Fatal(err)
	}
	reg := engine.NewRegistry()
	mode, e, err := script.Register(reg.Easing, path)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	s, err := stage.Build(reg, scene, easing.Linear)
	if err != nil {
		t.Fatal(err)
	}
	m := NewModel(ModelConfig{Stage: s, Scripts: map[string]*script.Easing{path: e}})

	src := "ease := func(t, d) {\n\tp := t / d\n\treturn p * p\n}\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	m = update(t, m, FileChangedMsg{Path: path})
	if m.Err() != nil {
		t.Fatalf("Err() = %v", m.Err())
	}
	if got, _ := reg.Easing.Evaluate(mode, easing.At(0.5)); got != 0.25 {
		t.Errorf("reloaded easing at 0.5 = %v, want 0.25", got)
	}

	if err := os.WriteFile(path, []byte("ease := func(t, d) {"), 0o644); err != nil {
		t.Fatal(err)
	}
	m = update(t, m, FileChangedMsg{Path: path})
	if m.Err() == nil {
		t.Error("Err() = nil after a broken script")
	}
}

const sceneV1 = `
name: reload
initial: a
actors:
  - name: box
    properties:
      - {name: x, kind: double}
      - {name: y, kind: double}
states:
  - name: a
    keys:
      - {actor: box, property: x, value: "1"}
  - name: b
    keys:
      - {actor: box, property: x, value: "9"}
`

func TestSceneReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	if err := os.WriteFile(path, []byte(sceneV1), 0o644); err != nil {
		t.Fatal(err)
	}
	scene, err := config.LoadScene(path)
	if err != nil {
		t.Fatalf("LoadScene() error = %v", err)
	}
	s, err := stage.Build(engine.NewRegistry(), scene, easing.Linear)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	// no Fallback set: reloads must still find an easing for bare keys
	m := NewModel(ModelConfig{Stage: s, ScenePath: path})
	if m.fallback != easing.Linear {
		t.Fatalf("fallback = %v, want linear when unset", m.fallback)
	}
	m = update(t, m, runes("2"), runes("w"))

	v2 := strings.Replace(sceneV1, `value: "9"`, `value: "7"`, 1) + `
  - name: c
    keys:
      - {actor: box, property: x, value: "3"}
`
	if err := os.WriteFile(path, []byte(v2), 0o644); err != nil {
		t.Fatal(err)
	}
	abs, _ := filepath.Abs(path)
	m = update(t, m, FileChangedMsg{Path: abs})
	if m.Err() != nil {
		t.Fatalf("Err() = %v", m.Err())
	}
	if m.Stage() == s {
		t.Fatal("Stage() was not replaced")
	}
	if got := m.Stage().States(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("States() = %v", got)
	}
	if m.StateIndex() != 1 {
		t.Errorf("StateIndex() = %d, want 1", m.StateIndex())
	}
	if x := m.Stage().Get("box", "x").Float64(); x != 7 {
		t.Errorf("box.x = %v, want 7 from the reloaded state", x)
	}

	// a broken file keeps the running stage
	if err := os.WriteFile(path, []byte("states: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	before := m.Stage()
	m = update(t, m, FileChangedMsg{Path: abs})
	if m.Err() == nil || m.Stage() != before {
		t.Errorf("broken scene: Err() = %v, stage replaced = %v", m.Err(), m.Stage() != before)
	}
}
