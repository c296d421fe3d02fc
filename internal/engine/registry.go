// Package engine bundles the engine-scoped tables that animators and state
// machines share. Pass a Registry explicitly; there is no global one.
package engine

import (
	"karolbroda.com/kinetic/internal/colors"
	"karolbroda.com/kinetic/internal/easing"
	"karolbroda.com/kinetic/internal/interval"
	"karolbroda.com/kinetic/internal/symbol"
	"karolbroda.com/kinetic/internal/value"
)

type Registry struct {
	Easing    *easing.Table
	Intervals *interval.Registry
	Symbols   *symbol.Table
	Kinds     *value.KindTable
}

type options struct {
	colorSpace colors.Space
	symbols    *symbol.Table
}

type Option func(*options)

// WithColorSpace picks the space colors are interpolated in.
func WithColorSpace(s colors.Space) Option {
	return func(o *options) { o.colorSpace = s }
}

// WithSymbols shares a name table with an object store.
func WithSymbols(t *symbol.Table) Option {
	return func(o *options) { o.symbols = t }
}

// NewRegistry returns a registry with progress functions for colors and
// points already installed.
func NewRegistry(opts ...Option) *Registry {
	o := options{colorSpace: colors.SpaceLab}
	for _, opt := range opts {
		opt(&o)
	}
	if o.symbols == nil {
		o.symbols = symbol.NewTable()
	}

	intervals := interval.NewRegistry()
	intervals.Register(value.KindColor, colors.ProgressFunc(o.colorSpace))
	intervals.Register(value.KindPoint, lerpPoint)

	return &Registry{
		Easing:    easing.NewTable(),
		Intervals: intervals,
		Symbols:   o.symbols,
		Kinds:     value.NewKindTable(),
	}
}

func lerpPoint(initial, final value.Value, factor float64) (value.Value, bool) {
	if initial.Kind() != value.KindPoint || final.Kind() != value.KindPoint {
		return value.Value{}, false
	}
	a, b := initial.Point(), final.Point()
	return value.PointValue(value.Point{
		X: (1-factor)*a.X + factor*b.X,
		Y: (1-factor)*a.Y + factor*b.Y,
	}), true
}
