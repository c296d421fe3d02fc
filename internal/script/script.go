// Package script compiles easing curves written in tengo.
//
// A script defines a function named ease taking the elapsed time and the
// duration and returning the eased factor:
//
//	ease := func(t, d) {
//		p := t / d
//		return p * p * (3 - 2 * p)
//	}
//
// The tengo stdlib modules are importable.
package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"karolbroda.com/kinetic/internal/easing"
	"karolbroda.com/kinetic/internal/logging"
)

const Ext = ".tengo"

var ErrNotNumber = errors.New("ease returned a non-number")

const dispatch = `
__result = ease(__t, __d)
`

// Easing is a compiled script. Recompiling swaps the curve in place, so a
// mode registered for it keeps its id across reloads.
type Easing struct {
	name string

	mu       sync.Mutex
	compiled *tengo.Compiled
}

func compile(name string, src []byte) (*tengo.Compiled, error) {
	s := tengo.NewScript([]byte(string(src) + "\n" + dispatch))
	_ = s.Add("__t", 0.0)
	_ = s.Add("__d", 1.0)
	_ = s.Add("__result", 0.0)
	s.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return compiled, nil
}

// Compile builds an easing from source and checks it at both ends.
func Compile(name string, src []byte) (*Easing, error) {
	compiled, err := compile(name, src)
	if err != nil {
		return nil, err
	}
	e := &Easing{name: name, compiled: compiled}
	if err := e.check(); err != nil {
		return nil, err
	}
	return e, nil
}

// Load compiles the script at path, named after the file.
func Load(path string) (*Easing, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Compile(NameOf(path), src)
}

// NameOf is the easing name a script file registers under.
func NameOf(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func (e *Easing) Name() string { return e.name }

func (e *Easing) check() error {
	for _, t := range []float64{0, 1} {
		if _, err := e.Eval(t, 1); err != nil {
			return err
		}
	}
	return nil
}

// Eval runs the curve at elapsed t of duration d.
func (e *Easing) Eval(t, d float64) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.compiled.Set("__t", t); err != nil {
		return 0, err
	}
	if err := e.compiled.Set("__d", d); err != nil {
		return 0, err
	}
	if err := e.compiled.Run(); err != nil {
		return 0, fmt.Errorf("run %s: %w", e.name, err)
	}

	switch v := e.compiled.Get("__result").Value().(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("%s: %w (%T)", e.name, ErrNotNumber, v)
	}
}

// Reload recompiles from src. On error the previous curve stays active.
func (e *Easing) Reload(src []byte) error {
	compiled, err := compile(e.name, src)
	if err != nil {
		return err
	}
	next := &Easing{name: e.name, compiled: compiled}
	if err := next.check(); err != nil {
		return err
	}

	e.mu.Lock()
	e.compiled = compiled
	e.mu.Unlock()
	return nil
}

// ReloadFile recompiles from the file at path.
func (e *Easing) ReloadFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return e.Reload(src)
}

// Func adapts the script to an easing.Func. A failing run falls back to
// linear progress.
func (e *Easing) Func() easing.Func {
	return func(p easing.Progress) float64 {
		if p.Duration <= 0 {
			return 1
		}
		v, err := e.Eval(p.Elapsed, p.Duration)
		if err != nil {
			logging.Logger().Warn("script easing failed, using linear", "easing", e.name, "err", err)
			return p.Ratio()
		}
		return v
	}
}

// Register loads the script at path and adds it to table under its file
// name.
func Register(table *easing.Table, path string) (easing.Mode, *Easing, error) {
	e, err := Load(path)
	if err != nil {
		return easing.CustomMode, nil, err
	}
	m := table.RegisterNamed(e.name, e.Func())
	logging.Logger().Debug("registered script easing", "name", e.name, "mode", m)
	return m, e, nil
}
