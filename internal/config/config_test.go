package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"KINETIC_DURATION", "KINETIC_FPS", "KINETIC_COLOR_SPACE", "KINETIC_LOG_LEVEL", "KINETIC_EASING", "KINETIC_SCENE"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	want := Config{
		Duration:   DefaultDuration,
		FPS:        DefaultFPS,
		ColorSpace: DefaultColorSpace,
		LogLevel:   DefaultLogLevel,
		Easing:     DefaultEasing,
	}
	if *cfg != want {
		t.Errorf("Load() = %+v, want %+v", *cfg, want)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("KINETIC_DURATION", "250")
	t.Setenv("KINETIC_FPS", "30")
	t.Setenv("KINETIC_COLOR_SPACE", "hcl")
	t.Setenv("KINETIC_LOG_LEVEL", "debug")
	t.Setenv("KINETIC_EASING", "easeOutBounce")
	t.Setenv("KINETIC_SCENE", "/tmp/scene.yaml")

	cfg := Load()
	if cfg.Duration != 250 || cfg.FPS != 30 {
		t.Errorf("Duration, FPS = %d, %d; want 250, 30", cfg.Duration, cfg.FPS)
	}
	if cfg.ColorSpace != "hcl" || cfg.LogLevel != "debug" || cfg.Easing != "easeOutBounce" {
		t.Errorf("Load() = %+v", *cfg)
	}
	if cfg.ScenePath != "/tmp/scene.yaml" {
		t.Errorf("ScenePath = %q, want /tmp/scene.yaml", cfg.ScenePath)
	}
	if got := cfg.FrameInterval(); got != time.Second/30 {
		t.Errorf("FrameInterval() = %v, want %v", got, time.Second/30)
	}
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	tests := []struct {
		name          string
		duration, fps string
		wantDuration  uint32
		wantFPS       int
	}{
		{"garbage", "soon", "fast", DefaultDuration, DefaultFPS},
		{"zero", "0", "0", DefaultDuration, DefaultFPS},
		{"negative", "-5", "-1", DefaultDuration, DefaultFPS},
		{"fps capped", "10", "1000", 10, MaxFPS},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("KINETIC_DURATION", tt.duration)
			t.Setenv("KINETIC_FPS", tt.fps)
			cfg := Load()
			if cfg.Duration != tt.wantDuration || cfg.FPS != tt.wantFPS {
				t.Errorf("Load() Duration, FPS = %d, %d; want %d, %d", cfg.Duration, cfg.FPS, tt.wantDuration, tt.wantFPS)
			}
		})
	}
}
