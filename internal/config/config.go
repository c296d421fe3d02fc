package config

import (
	"os"
	"strconv"
	"time"
)

const (
	DefaultDuration   = 1000
	DefaultFPS        = 60
	DefaultColorSpace = "lab"
	DefaultLogLevel   = "warn"
	DefaultEasing     = "easeInOutCubic"
	MaxFPS            = 240
)

type Config struct {
	// Duration is the default transition length in milliseconds.
	Duration   uint32
	FPS        int
	ColorSpace string
	LogLevel   string
	Easing     string
	ScenePath  string
}

func Load() *Config {
	duration, err := strconv.ParseUint(getEnvOrDefault("KINETIC_DURATION", "1000"), 10, 32)
	if err != nil || duration == 0 {
		duration = DefaultDuration
	}

	fps, err := strconv.Atoi(getEnvOrDefault("KINETIC_FPS", "60"))
	if err != nil || fps <= 0 {
		fps = DefaultFPS
	}
	if fps > MaxFPS {
		fps = MaxFPS
	}

	return &Config{
		Duration:   uint32(duration),
		FPS:        fps,
		ColorSpace: getEnvOrDefault("KINETIC_COLOR_SPACE", DefaultColorSpace),
		LogLevel:   getEnvOrDefault("KINETIC_LOG_LEVEL", DefaultLogLevel),
		Easing:     getEnvOrDefault("KINETIC_EASING", DefaultEasing),
		ScenePath:  os.Getenv("KINETIC_SCENE"),
	}
}

// FrameInterval is the time between two ticks at the configured rate.
func (c *Config) FrameInterval() time.Duration {
	fps := c.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	return time.Second / time.Duration(fps)
}

func getEnvOrDefault(key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
