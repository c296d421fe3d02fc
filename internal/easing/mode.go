package easing

import (
	"fmt"
	"strings"
)

// Mode selects an easing curve. Ids below AnimationLast are builtins,
// ids above it come from Table.Register.
type Mode uint32

const (
	// CustomMode marks an alpha driven by a caller closure.
	CustomMode Mode = iota
	Linear
	EaseInQuad
	EaseOutQuad
	EaseInOutQuad
	EaseInCubic
	EaseOutCubic
	EaseInOutCubic
	EaseInQuart
	EaseOutQuart
	EaseInOutQuart
	EaseInQuint
	EaseOutQuint
	EaseInOutQuint
	EaseInSine
	EaseOutSine
	EaseInOutSine
	EaseInExpo
	EaseOutExpo
	EaseInOutExpo
	EaseInCirc
	EaseOutCirc
	EaseInOutCirc
	EaseInElastic
	EaseOutElastic
	EaseInOutElastic
	EaseInBack
	EaseOutBack
	EaseInOutBack
	EaseInBounce
	EaseOutBounce
	EaseInOutBounce
	StepStart
	StepEnd
	Ease
	EaseIn
	EaseOut
	EaseInOut

	AnimationLast
)

var modeNames = [AnimationLast]string{
	CustomMode:       "custom",
	Linear:           "linear",
	EaseInQuad:       "easeInQuad",
	EaseOutQuad:      "easeOutQuad",
	EaseInOutQuad:    "easeInOutQuad",
	EaseInCubic:      "easeInCubic",
	EaseOutCubic:     "easeOutCubic",
	EaseInOutCubic:   "easeInOutCubic",
	EaseInQuart:      "easeInQuart",
	EaseOutQuart:     "easeOutQuart",
	EaseInOutQuart:   "easeInOutQuart",
	EaseInQuint:      "easeInQuint",
	EaseOutQuint:     "easeOutQuint",
	EaseInOutQuint:   "easeInOutQuint",
	EaseInSine:       "easeInSine",
	EaseOutSine:      "easeOutSine",
	EaseInOutSine:    "easeInOutSine",
	EaseInExpo:       "easeInExpo",
	EaseOutExpo:      "easeOutExpo",
	EaseInOutExpo:    "easeInOutExpo",
	EaseInCirc:       "easeInCirc",
	EaseOutCirc:      "easeOutCirc",
	EaseInOutCirc:    "easeInOutCirc",
	EaseInElastic:    "easeInElastic",
	EaseOutElastic:   "easeOutElastic",
	EaseInOutElastic: "easeInOutElastic",
	EaseInBack:       "easeInBack",
	EaseOutBack:      "easeOutBack",
	EaseInOutBack:    "easeInOutBack",
	EaseInBounce:     "easeInBounce",
	EaseOutBounce:    "easeOutBounce",
	EaseInOutBounce:  "easeInOutBounce",
	StepStart:        "stepStart",
	StepEnd:          "stepEnd",
	Ease:             "ease",
	EaseIn:           "easeIn",
	EaseOut:          "easeOut",
	EaseInOut:        "easeInOut",
}

func (m Mode) String() string {
	if m < AnimationLast {
		return modeNames[m]
	}
	return fmt.Sprintf("registered(%d)", uint32(m))
}

// IsBuiltin reports whether m names one of the curves in this package.
func (m Mode) IsBuiltin() bool {
	return m > CustomMode && m < AnimationLast
}

// Builtins lists every builtin mode in id order.
func Builtins() []Mode {
	modes := make([]Mode, 0, AnimationLast-1)
	for m := Linear; m < AnimationLast; m++ {
		modes = append(modes, m)
	}
	return modes
}

// ParseMode resolves a builtin by name. Matching ignores case and accepts
// dashes or underscores ("ease-out-bounce", "EASE_OUT_BOUNCE").
func ParseMode(name string) (Mode, error) {
	key := normalizeName(name)
	for m := Linear; m < AnimationLast; m++ {
		if normalizeName(modeNames[m]) == key {
			return m, nil
		}
	}
	return CustomMode, fmt.Errorf("%w: %q", ErrUnknownMode, name)
}

func normalizeName(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "_", "")
	return strings.TrimSpace(s)
}
