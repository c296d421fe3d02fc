package alpha

import (
	"errors"
	"testing"

	"karolbroda.com/kinetic/internal/easing"
	"karolbroda.com/kinetic/internal/timeline"
)

func TestRefreshesOnFrame(t *testing.T) {
	tl := timeline.New(100)
	a, err := NewFull(easing.NewTable(), tl, easing.EaseInQuad)
	if err != nil {
		t.Fatalf("NewFull() error: %v", err)
	}

	tl.Start()
	tl.Tick(50)

	if got := a.Cached(); got != 0.25 {
		t.Errorf("Cached() after frame = %v, want 0.25", got)
	}
}

func TestValueReadsSilentSeek(t *testing.T) {
	tl := timeline.New(10000)
	a, _ := NewFull(easing.NewTable(), tl, easing.Linear)

	tl.Advance(2500)
	if got := a.Value(); got != 0.25 {
		t.Errorf("Value() = %v, want 0.25", got)
	}
}

func TestRebindDetachesOldTimeline(t *testing.T) {
	first := timeline.New(100)
	second := timeline.New(100)
	a, _ := NewFull(easing.NewTable(), first, easing.Linear)

	a.SetTimeline(second)
	first.Start()
	first.Tick(50)

	if got := a.Cached(); got != 0 {
		t.Errorf("Cached() = %v after ticking the old timeline, want 0", got)
	}
	if a.Timeline() != second {
		t.Error("Timeline() did not return the new timeline")
	}
}

func TestRegisteredAndCustomModes(t *testing.T) {
	table := easing.NewTable()
	id := table.Register(func(p easing.Progress) float64 { return 1 - p.Ratio() })

	tl := timeline.New(100)
	tl.Advance(25)

	a, err := NewFull(table, tl, id)
	if err != nil {
		t.Fatalf("NewFull(registered) error: %v", err)
	}
	if got := a.Value(); got != 0.75 {
		t.Errorf("registered Value() = %v, want 0.75", got)
	}

	a.SetFunc(func(p easing.Progress) float64 { return 2 })
	if a.Mode() != easing.CustomMode {
		t.Errorf("Mode() after SetFunc = %v, want custom", a.Mode())
	}
	if got := a.Value(); got != 2 {
		t.Errorf("custom Value() = %v, want 2", got)
	}
}

func TestUnknownModeKeepsPrevious(t *testing.T) {
	a := New(easing.NewTable())
	if err := a.SetMode(easing.AnimationLast + 3); !errors.Is(err, easing.ErrUnknownMode) {
		t.Fatalf("SetMode(unknown) error = %v, want ErrUnknownMode", err)
	}
	if a.Mode() != easing.Linear {
		t.Errorf("Mode() = %v, want linear", a.Mode())
	}
	if got := a.Value(); got != 0 {
		t.Errorf("detached Value() = %v, want 0", got)
	}
}
