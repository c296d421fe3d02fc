package ui

import (
	"strings"

	"karolbroda.com/kinetic/internal/easing"
)

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// SampleCurve evaluates mode at n evenly spaced points of [0,1]. A mode the
// table does not know samples as a flat line.
func SampleCurve(table *easing.Table, mode easing.Mode, n int) []float64 {
	if n < 2 {
		n = 2
	}
	out := make([]float64, n)
	fn, err := table.Func(mode)
	if err != nil {
		return out
	}
	for i := range out {
		out[i] = fn(easing.At(float64(i) / float64(n-1)))
	}
	return out
}

// curveBounds widens [0,1] to fit overshooting curves like back and elastic.
func curveBounds(samples []float64) (lo, hi float64) {
	lo, hi = 0, 1
	for _, v := range samples {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

// Sparkline draws samples as one row of block characters.
func Sparkline(samples []float64) string {
	lo, hi := curveBounds(samples)
	var sb strings.Builder
	for _, v := range samples {
		t := clamp((v-lo)/(hi-lo), 0, 1)
		sb.WriteRune(sparkLevels[int(t*float64(len(sparkLevels)-1)+0.5)])
	}
	return sb.String()
}

// Plot draws samples on a grid height rows tall, one column per sample.
// The first row is the top of the plot.
func Plot(samples []float64, height int) []string {
	if height < 2 {
		height = 2
	}
	lo, hi := curveBounds(samples)
	grid := make([][]rune, height)
	for row := range grid {
		grid[row] = []rune(strings.Repeat(" ", len(samples)))
	}
	for col, v := range samples {
		t := clamp((v-lo)/(hi-lo), 0, 1)
		row := height - 1 - int(t*float64(height-1)+0.5)
		grid[row][col] = '•'
	}

	lines := make([]string, height)
	for row := range grid {
		lines[row] = string(grid[row])
	}
	return lines
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
