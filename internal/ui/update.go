package ui

import (
	"fmt"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"karolbroda.com/kinetic/internal/config"
	"karolbroda.com/kinetic/internal/logging"
	"karolbroda.com/kinetic/internal/stage"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case TickMsg:
		return m.handleTick(msg)

	case FileChangedMsg:
		return m.handleFileChanged(msg)

	case WatchErrMsg:
		m.err = msg.Err
		return m, m.listenForChanges()
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		m.Stop()
		return m, tea.Quit

	case "right", "l", "tab":
		m.goTo(m.stateIndex+1, true)

	case "left", "h", "shift+tab":
		m.goTo(m.stateIndex-1, true)

	case "w":
		// finish the running transition on its last frame
		if m.stateIndex >= 0 {
			m.goTo(m.stateIndex, false)
		}

	case "r":
		m.stage.Machine.Reset()
		m.stateIndex = -1
		m.status = "reset"
		m.err = nil

	case "c":
		m.shift++
		m.applyPalette()

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		if i := int(key[0] - '1'); i < len(m.stage.States()) {
			m.goTo(i, true)
		}
	}

	return m, nil
}

// goTo changes to the i-th state, wrapping around the state list.
func (m *Model) goTo(i int, animate bool) {
	states := m.stage.States()
	if len(states) == 0 {
		return
	}
	i = (i%len(states) + len(states)) % len(states)

	if _, err := m.stage.Machine.Change(states[i], animate); err != nil {
		m.err = err
		return
	}
	m.stateIndex = i
	m.status = ""
	m.err = nil
}

// applyPalette recolors the scene with the palette rotated by the current
// shift.
func (m *Model) applyPalette() {
	swatches := m.palette.Colors()
	n := m.shift % len(swatches)
	rotated := append(slices.Clone(swatches[n:]), swatches[:n]...)
	if err := m.stage.Recolor(rotated); err != nil {
		m.err = fmt.Errorf("recolor: %w", err)
		return
	}
	m.recolor = true
	m.status = "recolored from " + m.palette.GradientInfo
}

func (m Model) handleTick(msg TickMsg) (tea.Model, tea.Cmd) {
	m.tickCount++
	m.master.Tick(time.Time(msg))
	return m, tickCmd(m.frame)
}

func (m Model) handleFileChanged(msg FileChangedMsg) (tea.Model, tea.Cmd) {
	next := m.listenForChanges()

	if e, ok := m.scripts[msg.Path]; ok {
		if err := e.ReloadFile(msg.Path); err != nil {
			m.err = fmt.Errorf("reload easing %s: %w", e.Name(), err)
			return m, next
		}
		logging.Logger().Info("reloaded easing script", "name", e.Name())
		m.status = "reloaded easing " + e.Name()
		m.err = nil
		return m, next
	}

	if msg.Path != "" && msg.Path == m.scenePath {
		if err := m.reloadScene(); err != nil {
			m.err = err
			return m, next
		}
		m.status = "reloaded scene " + m.stage.Name()
		m.err = nil
	}
	return m, next
}

// reloadScene rebuilds the stage from the scene file and warps it to the
// state the old stage was in, if the new scene still has it.
func (m *Model) reloadScene() error {
	scene, err := config.LoadScene(m.scenePath)
	if err != nil {
		return fmt.Errorf("reload scene: %w", err)
	}
	next, err := stage.Build(m.stage.Registry, scene, m.fallback)
	if err != nil {
		return fmt.Errorf("reload scene: %w", err)
	}
	if m.duration > 0 {
		_ = next.Machine.SetDuration("", "", m.duration)
	}

	target := m.stage.Machine.Target()
	m.master.Remove(m.stage.Timeline())
	m.stage.Close()

	m.stage = next
	m.master.Add(next.Timeline())
	if m.recolor {
		m.applyPalette()
	}

	if slices.Contains(next.States(), target) {
		if _, err := next.Machine.WarpToState(target); err != nil {
			return err
		}
	}
	m.stateIndex = slices.Index(next.States(), next.Machine.Target())
	logging.Logger().Info("reloaded scene", "name", next.Name(), "state", next.Machine.Target())
	return nil
}
