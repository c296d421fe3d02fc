// Package symbol interns names (properties, states) into small integer ids
// so identity checks never compare strings.
package symbol

import "sync"

// Symbol is an interned name. The zero Symbol is the empty name.
type Symbol uint32

const None Symbol = 0

type Table struct {
	mu    sync.RWMutex
	ids   map[string]Symbol
	names []string
}

func NewTable() *Table {
	return &Table{
		ids:   make(map[string]Symbol),
		names: []string{""},
	}
}

// Intern returns the id for name, allocating one on first use.
// The empty string always maps to None.
func (t *Table) Intern(name string) Symbol {
	if name == "" {
		return None
	}

	t.mu.RLock()
	id, ok := t.ids[name]
	t.mu.RUnlock()
	if ok {
		return id
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if id, ok := t.ids[name]; ok {
		return id
	}
	id = Symbol(len(t.names))
	t.names = append(t.names, name)
	t.ids[name] = id
	return id
}

// Lookup returns the id for name without allocating.
func (t *Table) Lookup(name string) (Symbol, bool) {
	if name == "" {
		return None, true
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.ids[name]
	return id, ok
}

func (t *Table) Name(id Symbol) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(id) >= len(t.names) {
		return ""
	}
	return t.names[id]
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.names) - 1
}
