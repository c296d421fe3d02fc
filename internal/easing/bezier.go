package easing

import "math"

// Bezier is a CSS style timing curve through (0,0), P1, P2 and (1,1).
type Bezier struct {
	X1, Y1, X2, Y2 float64
}

var (
	bezierEase      = Bezier{0.25, 0.1, 0.25, 1.0}
	bezierEaseIn    = Bezier{0.42, 0, 1.0, 1.0}
	bezierEaseOut   = Bezier{0, 0, 0.58, 1.0}
	bezierEaseInOut = Bezier{0.42, 0, 0.58, 1.0}
)

func (b Bezier) sampleX(s float64) float64 {
	return ((1-3*b.X2+3*b.X1)*s+(3*b.X2-6*b.X1))*s*s + 3*b.X1*s
}

func (b Bezier) sampleY(s float64) float64 {
	return ((1-3*b.Y2+3*b.Y1)*s+(3*b.Y2-6*b.Y1))*s*s + 3*b.Y1*s
}

func (b Bezier) slopeX(s float64) float64 {
	return 3*(1-3*b.X2+3*b.X1)*s*s + 2*(3*b.X2-6*b.X1)*s + 3*b.X1
}

// solve finds the curve parameter whose x equals x. Newton first, bisection
// when the slope flattens out.
func (b Bezier) solve(x float64) float64 {
	s := x
	for i := 0; i < 8; i++ {
		err := b.sampleX(s) - x
		if math.Abs(err) < 1e-7 {
			return s
		}
		slope := b.slopeX(s)
		if math.Abs(slope) < 1e-6 {
			break
		}
		s -= err / slope
	}

	lo, hi := 0.0, 1.0
	s = x
	for i := 0; i < 32 && lo < hi; i++ {
		v := b.sampleX(s)
		if math.Abs(v-x) < 1e-7 {
			return s
		}
		if x > v {
			lo = s
		} else {
			hi = s
		}
		s = (lo + hi) / 2
	}
	return s
}

// At evaluates the curve for a normalized progress x.
func (b Bezier) At(x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	return b.sampleY(b.solve(x))
}

// Func adapts b to an easing function.
func (b Bezier) Func() Func {
	return func(p Progress) float64 {
		if p.Duration <= 0 {
			return 1
		}
		return b.At(p.Elapsed / p.Duration)
	}
}
