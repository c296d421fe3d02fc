// Package value is the tagged union carried between intervals, keys and the
// object store.
package value

import (
	"errors"
	"fmt"
	"image/color"
	"slices"
	"sync"
)

var (
	ErrTypeMismatch = errors.New("type mismatch")
	ErrOutOfBounds  = errors.New("value out of bounds")
)

type Kind uint32

const (
	KindInvalid Kind = iota
	KindInt
	KindUint
	KindUchar
	KindFloat
	KindDouble
	KindBool
	KindColor
	KindPoint
	KindString

	kindBuiltinLast
)

var kindNames = [kindBuiltinLast]string{
	KindInvalid: "invalid",
	KindInt:     "int",
	KindUint:    "uint",
	KindUchar:   "uchar",
	KindFloat:   "float",
	KindDouble:  "double",
	KindBool:    "bool",
	KindColor:   "color",
	KindPoint:   "point",
	KindString:  "string",
}

// KindTable allocates kind ids for values the engine only carries around.
// Interpolating them needs an interval progress function for the new kind.
// Ids are only meaningful to the table that issued them.
type KindTable struct {
	mu    sync.RWMutex
	names []string
}

func NewKindTable() *KindTable {
	return &KindTable{}
}

// Register returns the kind for name, allocating one the first time.
func (t *KindTable) Register(name string) Kind {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i := slices.Index(t.names, name); i >= 0 {
		return kindBuiltinLast + Kind(i)
	}
	t.names = append(t.names, name)
	return kindBuiltinLast + Kind(len(t.names)) - 1
}

// Name resolves builtin kinds and the ones registered with t.
func (t *KindTable) Name(k Kind) string {
	if k < kindBuiltinLast {
		return kindNames[k]
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if idx := int(k - kindBuiltinLast); idx < len(t.names) {
		return t.names[idx]
	}
	return k.String()
}

// Len is the number of registered kinds.
func (t *KindTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.names)
}

func (k Kind) String() string {
	if k < kindBuiltinLast {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint32(k))
}

// IsCustom reports whether k came from a KindTable.
func (k Kind) IsCustom() bool { return k >= kindBuiltinLast }

// IsNumeric reports whether k interpolates as a plain number.
func (k Kind) IsNumeric() bool {
	switch k {
	case KindInt, KindUint, KindUchar, KindFloat, KindDouble:
		return true
	}
	return false
}

// IsScalar reports whether k is a floating point scalar, the only kinds
// cubic keyframe interpolation applies to.
func (k Kind) IsScalar() bool {
	return k == KindFloat || k == KindDouble
}

// ParseKind resolves a builtin kind name.
func ParseKind(name string) (Kind, error) {
	for k := KindInt; k < kindBuiltinLast; k++ {
		if kindNames[k] == name {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown value kind %q", name)
}

// Point is a 2D position.
type Point struct {
	X, Y float64
}

// Value holds one typed value. The zero Value is invalid.
type Value struct {
	kind  Kind
	num   float64
	color color.RGBA
	point Point
	str   string
	data  any
}

func Int(v int64) Value      { return Value{kind: KindInt, num: float64(v)} }
func Uint(v uint64) Value    { return Value{kind: KindUint, num: float64(v)} }
func Uchar(v uint8) Value    { return Value{kind: KindUchar, num: float64(v)} }
func Float(v float32) Value  { return Value{kind: KindFloat, num: float64(v)} }
func Double(v float64) Value { return Value{kind: KindDouble, num: v} }

func Bool(v bool) Value {
	n := 0.0
	if v {
		n = 1
	}
	return Value{kind: KindBool, num: n}
}

func ColorValue(c color.RGBA) Value { return Value{kind: KindColor, color: c} }
func PointValue(p Point) Value      { return Value{kind: KindPoint, point: p} }
func String(s string) Value         { return Value{kind: KindString, str: s} }

// Custom wraps data under a kind from KindTable.Register.
func Custom(kind Kind, data any) Value {
	return Value{kind: kind, data: data}
}

// Number builds a numeric value of kind k from f, truncating toward zero
// for integer kinds.
func Number(k Kind, f float64) (Value, error) {
	switch k {
	case KindInt:
		return Int(int64(f)), nil
	case KindUint:
		if f < 0 {
			f = 0
		}
		return Uint(uint64(f)), nil
	case KindUchar:
		if f < 0 {
			f = 0
		}
		if f > 255 {
			f = 255
		}
		return Uchar(uint8(f)), nil
	case KindFloat:
		return Float(float32(f)), nil
	case KindDouble:
		return Double(f), nil
	case KindBool:
		return Bool(f != 0), nil
	}
	return Value{}, fmt.Errorf("%w: %v is not numeric", ErrTypeMismatch, k)
}

func (v Value) Kind() Kind        { return v.kind }
func (v Value) IsValid() bool     { return v.kind != KindInvalid }
func (v Value) Float64() float64  { return v.num }
func (v Value) Int64() int64      { return int64(v.num) }
func (v Value) Bool() bool        { return v.num != 0 }
func (v Value) Color() color.RGBA { return v.color }
func (v Value) Point() Point      { return v.point }
func (v Value) Str() string       { return v.str }
func (v Value) Data() any         { return v.data }

// Equal compares kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindColor:
		return v.color == o.color
	case KindPoint:
		return v.point == o.point
	case KindString:
		return v.str == o.str
	case KindInvalid:
		return true
	}
	if v.kind >= kindBuiltinLast {
		return v.data == o.data
	}
	return v.num == o.num
}

func (v Value) String() string {
	switch v.kind {
	case KindInt, KindUint, KindUchar:
		return fmt.Sprintf("%d", int64(v.num))
	case KindFloat, KindDouble:
		return fmt.Sprintf("%g", v.num)
	case KindBool:
		return fmt.Sprintf("%t", v.num != 0)
	case KindColor:
		return fmt.Sprintf("#%02x%02x%02x%02x", v.color.R, v.color.G, v.color.B, v.color.A)
	case KindPoint:
		return fmt.Sprintf("%g,%g", v.point.X, v.point.Y)
	case KindString:
		return v.str
	case KindInvalid:
		return "<invalid>"
	}
	return fmt.Sprintf("%v(%v)", v.kind, v.data)
}

// Convert coerces v into kind k. Numeric and bool kinds transform into each
// other; any other pair of differing kinds fails with ErrTypeMismatch.
func Convert(v Value, k Kind) (Value, error) {
	if v.kind == k {
		return v, nil
	}
	numericLike := func(k Kind) bool { return k.IsNumeric() || k == KindBool }
	if numericLike(v.kind) && numericLike(k) {
		return Number(k, v.num)
	}
	return Value{}, fmt.Errorf("%w: cannot convert %v to %v", ErrTypeMismatch, v.kind, k)
}

// Bounds is an inclusive numeric range.
type Bounds struct {
	Min, Max float64
}

// Contains reports whether v lies inside b. Non-numeric values always do.
func (b *Bounds) Contains(v Value) bool {
	if b == nil || !v.kind.IsNumeric() {
		return true
	}
	return v.num >= b.Min && v.num <= b.Max
}

// Clamp pulls a numeric v back inside b.
func (b *Bounds) Clamp(v Value) Value {
	if b.Contains(v) {
		return v
	}
	c, err := Number(v.kind, min(max(v.num, b.Min), b.Max))
	if err != nil {
		return v
	}
	return c
}
