// Package object is the boundary between the engine and the things it
// animates. The engine reads and writes typed properties through Store and
// learns about destroyed objects through Tracker.
package object

import (
	"cmp"
	"errors"
	"fmt"

	"karolbroda.com/kinetic/internal/symbol"
	"karolbroda.com/kinetic/internal/value"
)

var (
	ErrUnknownProperty = errors.New("unknown property")
	ErrNotWritable     = errors.New("property not writable")
	ErrNotReadable     = errors.New("property not readable")
	ErrObjectGone      = errors.New("object destroyed")
)

// Handle is a weak, generation-tagged reference. A handle to a destroyed
// object never becomes valid again, even if its slot is reused.
type Handle struct {
	ID  uint32
	Gen uint32
}

func (h Handle) IsZero() bool { return h.ID == 0 }

func (h Handle) String() string {
	return fmt.Sprintf("#%d.%d", h.ID, h.Gen)
}

// Compare orders handles by slot, then generation.
func Compare(a, b Handle) int {
	if c := cmp.Compare(a.ID, b.ID); c != 0 {
		return c
	}
	return cmp.Compare(a.Gen, b.Gen)
}

// PropertyID is a property name interned once at lookup time.
type PropertyID = symbol.Symbol

type PropertySpec struct {
	ID       PropertyID
	Name     string
	Kind     value.Kind
	Readable bool
	Writable bool
	Bounds   *value.Bounds
}

type Store interface {
	FindProperty(obj Handle, name string) (PropertySpec, error)
	GetProperty(obj Handle, prop PropertyID) (value.Value, error)
	SetProperty(obj Handle, prop PropertyID, v value.Value) error
}

// Observer is told when an object it may hold keys for goes away.
type Observer interface {
	OnObjectRemoved(obj Handle)
}

type Tracker interface {
	Alive(obj Handle) bool
	Observe(o Observer) (cancel func())
}

// Host is what animators and state machines are built on.
type Host interface {
	Store
	Tracker
}
