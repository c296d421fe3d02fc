package ui

import (
	"image"
	"path/filepath"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"karolbroda.com/kinetic/internal/artwork"
	"karolbroda.com/kinetic/internal/config"
	"karolbroda.com/kinetic/internal/easing"
	"karolbroda.com/kinetic/internal/script"
	"karolbroda.com/kinetic/internal/stage"
	"karolbroda.com/kinetic/internal/terminal"
	"karolbroda.com/kinetic/internal/timeline"
)

type TickMsg time.Time

// FileChangedMsg reports a write to a watched scene or easing script.
type FileChangedMsg struct {
	Path string
}

type WatchErrMsg struct {
	Err error
}

type Model struct {
	stage     *stage.Stage
	master    *timeline.Master
	frame     time.Duration
	fallback  easing.Mode
	duration  uint32
	palette   *artwork.Palette
	image     image.Image
	termCaps  *terminal.Capabilities
	watcher   *config.Watcher
	scenePath string
	scripts   map[string]*script.Easing

	// recolor is set once the palette has been applied to the scene
	recolor bool
	shift   int

	stateIndex int
	status     string
	err        error
	quitting   bool
	width      int
	height     int
	tickCount  int
}

type ModelConfig struct {
	Stage *stage.Stage
	Frame time.Duration

	// Fallback is the easing used when a reloaded scene names none.
	// Unset means linear.
	Fallback easing.Mode

	// Duration overrides the default transition length of reloaded scenes
	// when set.
	Duration uint32

	// Palette recolors the scene when Image is set; otherwise it only
	// themes the interface.
	Palette  *artwork.Palette
	Image    image.Image
	TermCaps *terminal.Capabilities

	Watcher   *config.Watcher
	ScenePath string
	Scripts   map[string]*script.Easing
}

func NewModel(cfg ModelConfig) Model {
	m := Model{
		stage:     cfg.Stage,
		master:    timeline.NewMaster(),
		frame:     cfg.Frame,
		fallback:  cfg.Fallback,
		duration:  cfg.Duration,
		palette:   cfg.Palette,
		image:     cfg.Image,
		termCaps:  cfg.TermCaps,
		watcher:   cfg.Watcher,
		scenePath: absPath(cfg.ScenePath),
		scripts:   make(map[string]*script.Easing, len(cfg.Scripts)),
	}
	if m.frame <= 0 {
		m.frame = time.Second / config.DefaultFPS
	}
	if m.palette == nil {
		m.palette = artwork.DefaultPalette()
	}
	if m.fallback == easing.CustomMode {
		m.fallback = easing.Linear
	}
	for path, e := range cfg.Scripts {
		m.scripts[absPath(path)] = e
	}

	m.master.Add(m.stage.Timeline())
	m.stateIndex = slices.Index(m.stage.States(), m.stage.Machine.Target())

	if cfg.Image != nil && cfg.Palette != nil {
		m.applyPalette()
	}
	return m
}

// absPath matches the absolute paths the watcher reports.
func absPath(p string) string {
	if p == "" {
		return ""
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(m.frame),
		m.listenForChanges(),
	)
}

func tickCmd(frame time.Duration) tea.Cmd {
	return tea.Tick(frame, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) listenForChanges() tea.Cmd {
	if m.watcher == nil {
		return nil
	}

	return func() tea.Msg {
		select {
		case path, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			return FileChangedMsg{Path: path}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			return WatchErrMsg{Err: err}
		}
	}
}

func (m Model) Width() int  { return m.width }
func (m Model) Height() int { return m.height }

func (m Model) Stage() *stage.Stage       { return m.stage }
func (m Model) Palette() *artwork.Palette { return m.palette }
func (m Model) StateIndex() int           { return m.stateIndex }
func (m Model) Status() string            { return m.status }
func (m Model) Err() error                { return m.err }
func (m Model) TickCount() int            { return m.tickCount }
func (m Model) IsQuitting() bool          { return m.quitting }

func (m *Model) Stop() {
	m.stage.Timeline().Stop()
	if m.watcher != nil {
		_ = m.watcher.Close()
	}
}
