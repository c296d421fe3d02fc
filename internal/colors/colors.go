package colors

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"karolbroda.com/kinetic/internal/interval"
	"karolbroda.com/kinetic/internal/value"
)

// Space is the color space two colors are blended in.
type Space int

const (
	SpaceLab Space = iota
	SpaceHCL
	SpaceLuv
	SpaceRGB
)

func (s Space) String() string {
	switch s {
	case SpaceHCL:
		return "hcl"
	case SpaceLuv:
		return "luv"
	case SpaceRGB:
		return "rgb"
	default:
		return "lab"
	}
}

func ParseSpace(name string) (Space, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "lab":
		return SpaceLab, nil
	case "hcl", "lch":
		return SpaceHCL, nil
	case "luv":
		return SpaceLuv, nil
	case "rgb":
		return SpaceRGB, nil
	}
	return SpaceLab, fmt.Errorf("unknown color space %q", name)
}

func toColorful(c color.RGBA) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}

func fromColorful(c colorful.Color, alpha uint8) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: alpha}
}

// Blend mixes a and b at t in space. Factors outside [0,1] extrapolate
// and the result is clamped back into gamut. Alpha blends linearly.
func Blend(a, b color.RGBA, t float64, space Space) color.RGBA {
	if t == 0 {
		return a
	}
	if t == 1 {
		return b
	}

	ca, cb := toColorful(a), toColorful(b)
	var mixed colorful.Color
	switch space {
	case SpaceHCL:
		mixed = ca.BlendHcl(cb, t)
	case SpaceLuv:
		mixed = ca.BlendLuv(cb, t)
	case SpaceRGB:
		mixed = ca.BlendRgb(cb, t)
	default:
		mixed = ca.BlendLab(cb, t)
	}

	alpha := float64(a.A) + (float64(b.A)-float64(a.A))*t
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 255 {
		alpha = 255
	}
	return fromColorful(mixed, uint8(alpha+0.5))
}

// ProgressFunc interpolates value.KindColor endpoints in space.
func ProgressFunc(space Space) interval.ProgressFunc {
	return func(initial, final value.Value, factor float64) (value.Value, bool) {
		if initial.Kind() != value.KindColor || final.Kind() != value.KindColor {
			return value.Value{}, false
		}
		return value.ColorValue(Blend(initial.Color(), final.Color(), factor, space)), true
	}
}

// Hex formats c as #RRGGBB.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// FromHex parses #RRGGBB, falling back to white.
func FromHex(hex string) color.RGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return fromColorful(c, 255)
}

// Gradient returns steps hex colors from start to end blended in space.
func Gradient(startHex, endHex string, steps int, space Space) []string {
	if steps < 2 {
		steps = 2
	}
	start, end := FromHex(startHex), FromHex(endHex)
	out := make([]string, steps)
	for i := range out {
		t := float64(i) / float64(steps-1)
		out[i] = Hex(Blend(start, end, t, space))
	}
	return out
}

// MultiGradient chains Gradient across several stops.
func MultiGradient(stops []string, steps int, space Space) []string {
	if len(stops) == 0 {
		return []string{"#FFFFFF"}
	}
	if len(stops) == 1 || steps < 2 {
		return []string{stops[0]}
	}

	out := make([]string, 0, steps)
	segments := len(stops) - 1
	per := steps / segments
	for i := 0; i < segments; i++ {
		n := per
		if i == segments-1 {
			n = steps - len(out)
		}
		seg := Gradient(stops[i], stops[i+1], n+1, space)
		if i == 0 {
			out = append(out, seg...)
		} else {
			out = append(out, seg[1:]...)
		}
	}
	return out
}

// Smoothness is the largest perceptual step in a gradient between two
// colors, in Lab distance scaled to roughly 0-100. Lower is smoother.
func Smoothness(startHex, endHex string, steps int) float64 {
	grad := Gradient(startHex, endHex, steps, SpaceLab)
	maxJump := 0.0
	for i := 1; i < len(grad); i++ {
		a, _ := colorful.Hex(grad[i-1])
		b, _ := colorful.Hex(grad[i])
		if d := a.DistanceLab(b) * 100; d > maxJump {
			maxJump = d
		}
	}
	return maxJump
}

// Lightness is the perceptual L of a color on a 0-100 scale.
func Lightness(hex string) float64 {
	c, err := colorful.Hex(hex)
	if err != nil {
		return 0
	}
	l, _, _ := c.Lab()
	return l * 100
}

// AdjustBrightness scales the HCL lightness of hex by factor.
func AdjustBrightness(hex string, factor float64) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return hex
	}
	h, ch, l := c.Hcl()
	return colorful.Hcl(h, ch, l*factor).Clamped().Hex()
}

// RenderGradientText colors each rune of text along gradient.
func RenderGradientText(text string, gradient []string, bold bool) string {
	if len(gradient) == 0 {
		return text
	}
	runes := []rune(text)
	var sb strings.Builder
	for i, r := range runes {
		idx := 0
		if len(runes) > 1 {
			idx = i * (len(gradient) - 1) / (len(runes) - 1)
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(gradient[idx])).Bold(bold)
		sb.WriteString(style.Render(string(r)))
	}
	return sb.String()
}
