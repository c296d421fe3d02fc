package value

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ParseValue reads text written for a value of kind k: numbers, true/false,
// "#rrggbb[aa]" or CSS color names, and "x,y" points.
func ParseValue(k Kind, text string) (Value, error) {
	text = strings.TrimSpace(text)

	switch k {
	case KindInt, KindUint, KindUchar, KindFloat, KindDouble:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse %v %q: %w", k, text, err)
		}
		return Number(k, f)

	case KindBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return Value{}, fmt.Errorf("parse bool %q: %w", text, err)
		}
		return Bool(b), nil

	case KindColor:
		c, err := ParseColor(text)
		if err != nil {
			return Value{}, err
		}
		return ColorValue(c), nil

	case KindPoint:
		xs, ys, ok := strings.Cut(text, ",")
		if !ok {
			return Value{}, fmt.Errorf("parse point %q: want x,y", text)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse point %q: %w", text, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse point %q: %w", text, err)
		}
		return PointValue(Point{X: x, Y: y}), nil

	case KindString:
		return String(text), nil
	}

	return Value{}, fmt.Errorf("%w: cannot parse %v from text", ErrTypeMismatch, k)
}

// ParseColor accepts "#rgb", "#rrggbb", "#rrggbbaa" or a CSS color name.
func ParseColor(text string) (color.RGBA, error) {
	if c, ok := colornames.Map[strings.ToLower(text)]; ok {
		return c, nil
	}

	hex := strings.TrimPrefix(text, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("parse color %q: bad length", text)
	}

	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("parse color %q: %w", text, err)
	}
	return color.RGBA{
		R: uint8(n >> 24),
		G: uint8(n >> 16),
		B: uint8(n >> 8),
		A: uint8(n),
	}, nil
}
