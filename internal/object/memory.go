package object

import (
	"fmt"
	"sort"
	"sync"

	"karolbroda.com/kinetic/internal/symbol"
	"karolbroda.com/kinetic/internal/value"
)

// Property declares one property of a MemoryStore object. Its kind is the
// kind of Value.
type Property struct {
	Name      string
	Value     value.Value
	Bounds    *value.Bounds
	ReadOnly  bool
	WriteOnly bool
}

type slot struct {
	gen   uint32
	alive bool
	name  string
	props map[PropertyID]*entry
}

type entry struct {
	spec PropertySpec
	val  value.Value
}

// ChangeFunc is called after a property write lands.
type ChangeFunc func(obj Handle, prop PropertySpec, v value.Value)

// MemoryStore keeps objects and their properties in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	symbols *symbol.Table
	slots   []slot
	free    []uint32

	nextID    int
	observers map[int]Observer
	changes   map[int]ChangeFunc
}

func NewMemoryStore(symbols *symbol.Table) *MemoryStore {
	if symbols == nil {
		symbols = symbol.NewTable()
	}
	return &MemoryStore{
		symbols:   symbols,
		observers: make(map[int]Observer),
		changes:   make(map[int]ChangeFunc),
	}
}

// Create adds an object with the given properties.
func (s *MemoryStore) Create(name string, props ...Property) Handle {
	entries := make(map[PropertyID]*entry, len(props))
	for _, p := range props {
		id := s.symbols.Intern(p.Name)
		entries[id] = &entry{
			spec: PropertySpec{
				ID:       id,
				Name:     p.Name,
				Kind:     p.Value.Kind(),
				Readable: !p.WriteOnly,
				Writable: !p.ReadOnly,
				Bounds:   p.Bounds,
			},
			val: p.Value,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var idx uint32
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		s.slots = append(s.slots, slot{})
		idx = uint32(len(s.slots) - 1)
	}

	sl := &s.slots[idx]
	sl.gen++
	sl.alive = true
	sl.name = name
	sl.props = entries

	return Handle{ID: idx + 1, Gen: sl.gen}
}

func (s *MemoryStore) lookup(h Handle) (*slot, bool) {
	if h.ID == 0 || int(h.ID) > len(s.slots) {
		return nil, false
	}
	sl := &s.slots[h.ID-1]
	if !sl.alive || sl.gen != h.Gen {
		return nil, false
	}
	return sl, true
}

func (s *MemoryStore) Alive(h Handle) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.lookup(h)
	return ok
}

// Name returns the name given at Create.
func (s *MemoryStore) Name(h Handle) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sl, ok := s.lookup(h); ok {
		return sl.name
	}
	return ""
}

// Objects lists live handles in slot order.
func (s *MemoryStore) Objects() []Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Handle
	for i, sl := range s.slots {
		if sl.alive {
			out = append(out, Handle{ID: uint32(i) + 1, Gen: sl.gen})
		}
	}
	return out
}

// Properties lists the specs of h sorted by name.
func (s *MemoryStore) Properties(h Handle) []PropertySpec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.lookup(h)
	if !ok {
		return nil
	}
	specs := make([]PropertySpec, 0, len(sl.props))
	for _, e := range sl.props {
		specs = append(specs, e.spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

func (s *MemoryStore) FindProperty(h Handle, name string) (PropertySpec, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.lookup(h)
	if !ok {
		return PropertySpec{}, fmt.Errorf("%v: %w", h, ErrObjectGone)
	}
	id, ok := s.symbols.Lookup(name)
	if !ok {
		return PropertySpec{}, fmt.Errorf("%q on %s: %w", name, sl.name, ErrUnknownProperty)
	}
	e, ok := sl.props[id]
	if !ok {
		return PropertySpec{}, fmt.Errorf("%q on %s: %w", name, sl.name, ErrUnknownProperty)
	}
	return e.spec, nil
}

func (s *MemoryStore) GetProperty(h Handle, prop PropertyID) (value.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, err := s.entry(h, prop)
	if err != nil {
		return value.Value{}, err
	}
	if !e.spec.Readable {
		return value.Value{}, fmt.Errorf("%q: %w", e.spec.Name, ErrNotReadable)
	}
	return e.val, nil
}

// Get reads a property by name.
func (s *MemoryStore) Get(h Handle, name string) (value.Value, error) {
	spec, err := s.FindProperty(h, name)
	if err != nil {
		return value.Value{}, err
	}
	return s.GetProperty(h, spec.ID)
}

func (s *MemoryStore) entry(h Handle, prop PropertyID) (*entry, error) {
	sl, ok := s.lookup(h)
	if !ok {
		return nil, fmt.Errorf("%v: %w", h, ErrObjectGone)
	}
	e, ok := sl.props[prop]
	if !ok {
		return nil, fmt.Errorf("%q on %s: %w", s.symbols.Name(prop), sl.name, ErrUnknownProperty)
	}
	return e, nil
}

// SetProperty converts v into the property kind, clamps it to the property
// bounds and stores it. Change
// listeners run after the store lock is released, so they may write back.
func (s *MemoryStore) SetProperty(h Handle, prop PropertyID, v value.Value) error {
	s.mu.Lock()
	e, err := s.entry(h, prop)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if !e.spec.Writable {
		s.mu.Unlock()
		return fmt.Errorf("%q: %w", e.spec.Name, ErrNotWritable)
	}
	cv, err := value.Convert(v, e.spec.Kind)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%q: %w", e.spec.Name, err)
	}
	cv = e.spec.Bounds.Clamp(cv)
	e.val = cv
	spec := e.spec
	listeners := make([]ChangeFunc, 0, len(s.changes))
	for _, k := range sortedKeys(s.changes) {
		listeners = append(listeners, s.changes[k])
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(h, spec, cv)
	}
	return nil
}

// Set writes a property by name.
func (s *MemoryStore) Set(h Handle, name string, v value.Value) error {
	spec, err := s.FindProperty(h, name)
	if err != nil {
		return err
	}
	return s.SetProperty(h, spec.ID, v)
}

// Destroy removes h and tells every observer. Destroying a dead handle is a
// no-op.
func (s *MemoryStore) Destroy(h Handle) {
	s.mu.Lock()
	sl, ok := s.lookup(h)
	if !ok {
		s.mu.Unlock()
		return
	}
	sl.alive = false
	sl.props = nil
	s.free = append(s.free, h.ID-1)

	observers := make([]Observer, 0, len(s.observers))
	for _, k := range sortedKeys(s.observers) {
		observers = append(observers, s.observers[k])
	}
	s.mu.Unlock()

	for _, o := range observers {
		o.OnObjectRemoved(h)
	}
}

func (s *MemoryStore) Observe(o Observer) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.observers[id] = o
	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// OnChange registers fn for every successful property write.
func (s *MemoryStore) OnChange(fn ChangeFunc) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.changes[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.changes, id)
		s.mu.Unlock()
	}
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
