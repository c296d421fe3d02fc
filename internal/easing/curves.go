package easing

import "github.com/tanema/gween/ease"

// curves take elapsed time t and duration d separately; elastic and bounce
// shapes depend on d itself, not only on t/d.

// penner adapts a tween.lua style curve (t, begin, change, duration) to the
// unit range. gween works in float32.
func penner(f ease.TweenFunc) curve {
	return func(t, d float64) float64 {
		return float64(f(float32(t), 0, 1, float32(d)))
	}
}

// linear stays in float64 so linear animations land on exact values.
func linear(t, d float64) float64 { return t / d }

var (
	inQuad       = penner(ease.InQuad)
	outQuad      = penner(ease.OutQuad)
	inOutQuad    = penner(ease.InOutQuad)
	inCubic      = penner(ease.InCubic)
	outCubic     = penner(ease.OutCubic)
	inOutCubic   = penner(ease.InOutCubic)
	inQuart      = penner(ease.InQuart)
	outQuart     = penner(ease.OutQuart)
	inOutQuart   = penner(ease.InOutQuart)
	inQuint      = penner(ease.InQuint)
	outQuint     = penner(ease.OutQuint)
	inOutQuint   = penner(ease.InOutQuint)
	inSine       = penner(ease.InSine)
	outSine      = penner(ease.OutSine)
	inOutSine    = penner(ease.InOutSine)
	inExpo       = penner(ease.InExpo)
	outExpo      = penner(ease.OutExpo)
	inOutExpo    = penner(ease.InOutExpo)
	inCirc       = penner(ease.InCirc)
	outCirc      = penner(ease.OutCirc)
	inOutCirc    = penner(ease.InOutCirc)
	inElastic    = penner(ease.InElastic)
	outElastic   = penner(ease.OutElastic)
	inOutElastic = penner(ease.InOutElastic)
	inBack       = penner(ease.InBack)
	outBack      = penner(ease.OutBack)
	inOutBack    = penner(ease.InOutBack)
	bounceIn     = penner(ease.InBounce)
	bounceOut    = penner(ease.OutBounce)
	bounceInOut  = penner(ease.InOutBounce)
)

func stepStart(t, d float64) float64 {
	if t > 0 {
		return 1
	}
	return 0
}

func stepEnd(t, d float64) float64 {
	if t >= d {
		return 1
	}
	return 0
}
