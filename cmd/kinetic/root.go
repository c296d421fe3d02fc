package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"karolbroda.com/kinetic/internal/config"
	"karolbroda.com/kinetic/internal/logging"
)

var (
	// global flags
	logLevel     string
	logFile      string
	scenePath    string
	duration     uint32
	easingName   string
	colorSpace   string
	scriptPaths  []string
	fps          int
	palettePath  string
	noCache      bool
	closeLogFile func() error
)

var rootCmd = &cobra.Command{
	Use:   "kinetic",
	Short: "terminal playground for implicit property animation",
	Long: `kinetic drives a scene of actors between named states and draws every
frame of the transitions in the terminal.

states, keys and per-transition easings come from a yaml scene file;
custom easing curves can be written as tengo scripts and are reloaded
when they change on disk.

when run without a subcommand, it starts the interactive viewer.`,
	Version: "0.3.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if closeLogFile != nil {
			return closeLogFile()
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// default behavior: run the viewer
		return runViewer(cmd, args)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")
	rootCmd.PersistentFlags().StringSliceVarP(&scriptPaths, "easing-script", "e", nil, "tengo easing script to register (repeatable)")
	rootCmd.PersistentFlags().StringVar(&colorSpace, "color-space", "", "color interpolation space: lab, hcl, luv, rgb")

	addViewerFlags(rootCmd.Flags())
}

// addViewerFlags registers the flags shared by the root command and run.
func addViewerFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&scenePath, "scene", "f", "", "scene file (defaults to the built-in demo)")
	fs.Uint32VarP(&duration, "duration", "d", config.DefaultDuration, "default transition length in milliseconds")
	fs.StringVar(&easingName, "easing", config.DefaultEasing, "easing for keys that name none")
	fs.IntVar(&fps, "fps", config.DefaultFPS, "frames per second")
	fs.StringVarP(&palettePath, "palette", "p", "", "image or url to recolor the scene from")
	fs.BoolVar(&noCache, "no-cache", false, "disable palette cache reads (always extract fresh)")
}

// setupLogging installs the shared logger. Flags win over KINETIC_LOG_LEVEL.
func setupLogging() error {
	level := logLevel
	if level == "" {
		level = config.Load().LogLevel
	}

	var out io.Writer = os.Stderr
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		closeLogFile = f.Close
	}

	logging.SetLogger(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: logging.ParseLevel(level),
	})))
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
