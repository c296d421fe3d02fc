package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"karolbroda.com/kinetic/internal/artwork"
	"karolbroda.com/kinetic/internal/cache"
	"karolbroda.com/kinetic/internal/colors"
	"karolbroda.com/kinetic/internal/config"
	"karolbroda.com/kinetic/internal/engine"
	"karolbroda.com/kinetic/internal/logging"
	"karolbroda.com/kinetic/internal/script"
	"karolbroda.com/kinetic/internal/stage"
	"karolbroda.com/kinetic/internal/terminal"
	"karolbroda.com/kinetic/internal/ui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "start the interactive viewer",
	Long:  `starts the terminal viewer and animates the scene between its states.`,
	RunE:  runViewer,
}

func init() {
	addViewerFlags(runCmd.Flags())
	rootCmd.AddCommand(runCmd)
}

// loadConfig reads the environment, then overrides it with any flag the
// user set explicitly.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.Load()

	if scenePath != "" {
		cfg.ScenePath = scenePath
	}
	if colorSpace != "" {
		cfg.ColorSpace = colorSpace
	}
	if cmd.Flags().Changed("duration") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("easing") {
		cfg.Easing = easingName
	}
	if cmd.Flags().Changed("fps") {
		cfg.FPS = min(max(fps, 1), config.MaxFPS)
	}
	return cfg
}

// newRegistry builds the engine registry and registers every easing
// script, keyed by its path.
func newRegistry(cfg *config.Config) (*engine.Registry, map[string]*script.Easing, error) {
	space, err := colors.ParseSpace(cfg.ColorSpace)
	if err != nil {
		return nil, nil, err
	}
	reg := engine.NewRegistry(engine.WithColorSpace(space))

	scripts := make(map[string]*script.Easing, len(scriptPaths))
	for _, path := range scriptPaths {
		_, e, err := script.Register(reg.Easing, path)
		if err != nil {
			return nil, nil, fmt.Errorf("easing script %s: %w", path, err)
		}
		scripts[path] = e
	}
	return reg, scripts, nil
}

func loadScene(path string) (*config.Scene, error) {
	if path == "" {
		return stage.Default()
	}
	return config.LoadScene(path)
}

func runViewer(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		<-sigChan
		cancel()
		terminal.Reset()
		os.Exit(0)
	}()

	defer terminal.Reset()

	cfg := loadConfig(cmd)

	reg, scripts, err := newRegistry(cfg)
	if err != nil {
		return err
	}

	fallback, err := reg.Easing.Parse(cfg.Easing)
	if err != nil {
		return fmt.Errorf("invalid --easing: %w", err)
	}

	scene, err := loadScene(cfg.ScenePath)
	if err != nil {
		return err
	}
	s, err := stage.Build(reg, scene, fallback)
	if err != nil {
		return fmt.Errorf("failed to build scene: %w", err)
	}

	// an explicit duration beats the scene's own default
	var override uint32
	if cmd.Flags().Changed("duration") || os.Getenv("KINETIC_DURATION") != "" {
		override = cfg.Duration
		_ = s.Machine.SetDuration("", "", override)
	}

	palette, img := loadPalette(ctx)

	var watcher *config.Watcher
	watchPaths := make([]string, 0, len(scripts)+1)
	if cfg.ScenePath != "" {
		watchPaths = append(watchPaths, cfg.ScenePath)
	}
	for path := range scripts {
		watchPaths = append(watchPaths, path)
	}
	if len(watchPaths) > 0 {
		watcher, err = config.NewWatcher(watchPaths...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: live reload disabled: %v\n", err)
			watcher = nil
		}
	}

	model := ui.NewModel(ui.ModelConfig{
		Stage:     s,
		Frame:     cfg.FrameInterval(),
		Fallback:  fallback,
		Duration:  override,
		Palette:   palette,
		Image:     img,
		TermCaps:  terminal.DetectCapabilities(),
		Watcher:   watcher,
		ScenePath: cfg.ScenePath,
		Scripts:   scripts,
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	final, err := p.Run()
	if m, ok := final.(ui.Model); ok {
		m.Stop()
	}
	if err != nil {
		return fmt.Errorf("error running bubble tea: %w", err)
	}

	return nil
}

// loadPalette resolves --palette. Failures fall back to the default theme
// and leave the scene colors alone.
func loadPalette(ctx context.Context) (*artwork.Palette, image.Image) {
	if palettePath == "" {
		return nil, nil
	}

	var c *cache.DiskCache
	if !noCache {
		c = cache.GetGlobalCache()
	}

	palette, err := artwork.Resolve(ctx, c, palettePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load palette: %v\n", err)
		return nil, nil
	}
	img, err := artwork.Load(ctx, palettePath)
	if err != nil {
		logging.Logger().Warn("palette image unavailable", "source", palettePath, "err", err)
		return palette, nil
	}
	return palette, img
}
