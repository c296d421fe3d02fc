// Package artwork turns an image into a palette that can recolor a scene,
// and into a small preview for the terminal.
package artwork

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"

	"karolbroda.com/kinetic/internal/cache"
	"karolbroda.com/kinetic/internal/colors"
	"karolbroda.com/kinetic/internal/logging"
)

const (
	gradientSteps = 20
	dimColor      = "#6272A4"
	fetchTimeout  = 5 * time.Second
)

type Palette struct {
	Primary      string
	Secondary    string
	Accent       string
	Dim          string
	Gradient     []string
	GradientInfo string // which color pair the gradient runs between
}

// Colors lists the palette's three key colors, brightest first.
func (p *Palette) Colors() []color.RGBA {
	return []color.RGBA{
		colors.FromHex(p.Primary),
		colors.FromHex(p.Accent),
		colors.FromHex(p.Secondary),
	}
}

func DefaultPalette() *Palette {
	return &Palette{
		Primary:      "#8BA4E8",
		Secondary:    "#E8A4C8",
		Accent:       "#B8A8E8",
		Dim:          dimColor,
		Gradient:     colors.Gradient("#8BA4E8", "#E8A4C8", gradientSteps, colors.SpaceLab),
		GradientInfo: "primary → secondary (default)",
	}
}

// Load reads an image from a local path, a file:// URL or an http(s) URL.
func Load(ctx context.Context, src string) (image.Image, error) {
	if src == "" {
		return nil, errors.New("empty image source")
	}

	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		f, err := os.Open(strings.TrimPrefix(src, "file://"))
		if err != nil {
			return nil, fmt.Errorf("failed to open image: %w", err)
		}
		defer f.Close()

		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
		return img, nil
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Resolve returns the palette for src, reading it from c while the source
// file is unchanged and extracting and storing it otherwise.
func Resolve(ctx context.Context, c *cache.DiskCache, src string) (*Palette, error) {
	var modTime int64
	if info, err := os.Stat(strings.TrimPrefix(src, "file://")); err == nil {
		modTime = info.ModTime().Unix()
	}

	if c != nil {
		entry, err := c.Get(src, modTime)
		if err == nil {
			return FromEntry(entry), nil
		}
		logging.Logger().Debug("palette cache", "source", src, "err", err)
	}

	img, err := Load(ctx, src)
	if err != nil {
		return nil, err
	}
	p := ExtractPalette(img)

	if c != nil {
		entry := p.Entry()
		entry.ModTime = modTime
		if err := c.Set(src, entry); err != nil {
			logging.Logger().Warn("palette cache write failed", "source", src, "err", err)
		}
	}
	return p, nil
}

func (p *Palette) Entry() *cache.PaletteEntry {
	return &cache.PaletteEntry{
		Primary:      p.Primary,
		Secondary:    p.Secondary,
		Accent:       p.Accent,
		Dim:          p.Dim,
		Gradient:     slices.Clone(p.Gradient),
		GradientInfo: p.GradientInfo,
	}
}

func FromEntry(e *cache.PaletteEntry) *Palette {
	return &Palette{
		Primary:      e.Primary,
		Secondary:    e.Secondary,
		Accent:       e.Accent,
		Dim:          e.Dim,
		Gradient:     slices.Clone(e.Gradient),
		GradientInfo: e.GradientInfo,
	}
}

type candidate struct {
	c     colorful.Color
	sat   float64
	value float64
	score float64
}

func (a candidate) same(b candidate) bool { return a.c == b.c }

// ExtractPalette picks three colors from the image's k-means clusters:
// the most saturated mid-bright one, then two distinct runners-up.
func ExtractPalette(img image.Image) *Palette {
	if img == nil {
		return DefaultPalette()
	}

	items, err := prominentcolor.KmeansWithAll(5, img, prominentcolor.ArgumentDefault, prominentcolor.DefaultSize, nil)
	if err != nil || len(items) < 3 {
		return DefaultPalette()
	}

	cands := make([]candidate, len(items))
	for i, it := range items {
		c := colorful.Color{
			R: float64(it.Color.R) / 255,
			G: float64(it.Color.G) / 255,
			B: float64(it.Color.B) / 255,
		}
		_, s, v := c.Hsv()
		cands[i] = candidate{c: c, sat: s, value: v, score: s * (1 - math.Abs(v-0.6))}
	}

	primary, ok := best(cands)
	if !ok {
		return DefaultPalette()
	}
	secondary := first(cands, 0.15, 0.3, primary)
	accent := first(cands, 0.1, 0.25, primary, secondary)

	picked := []candidate{primary, secondary, accent}
	slices.SortStableFunc(picked, func(a, b candidate) int {
		switch {
		case a.value > b.value:
			return -1
		case a.value < b.value:
			return 1
		}
		return 0
	})

	p := &Palette{
		Primary:   boost(picked[0]),
		Accent:    boost(picked[1]),
		Secondary: boost(picked[2]),
		Dim:       dimColor,
	}
	start, end, info := gradientPair(p.Primary, p.Secondary, p.Accent)
	p.Gradient = colors.Gradient(start, end, gradientSteps, colors.SpaceLab)
	p.GradientInfo = info
	return p
}

func best(cands []candidate) (candidate, bool) {
	var out candidate
	found := false
	for _, c := range cands {
		if c.value > 0.3 && c.sat > 0.2 && (!found || c.score > out.score) {
			out, found = c, true
		}
	}
	return out, found
}

// first returns the first candidate above the saturation and value floors
// that differs from every color in taken, or the last of taken when none
// qualifies.
func first(cands []candidate, minSat, minValue float64, taken ...candidate) candidate {
	for _, c := range cands {
		if c.sat <= minSat || c.value <= minValue {
			continue
		}
		if slices.ContainsFunc(taken, c.same) {
			continue
		}
		return c
	}
	return taken[len(taken)-1]
}

// boost lifts dark colors and mutes near-white ones so they read on a
// dark terminal.
func boost(c candidate) string {
	h, s, v := c.c.Hsv()
	if v > 0 && v < 0.4 {
		v = math.Min(1, v*math.Min(0.4/v, 2.5))
	}
	if v > 0.85 {
		s *= 0.7
	}
	return strings.ToUpper(colorful.Hsv(h, s, v).Clamped().Hex())
}

// gradientPair picks the ordered pair with the smoothest Lab gradient,
// preferring a brighter start when two pairs are nearly as smooth.
func gradientPair(primary, secondary, accent string) (string, string, string) {
	type pair struct {
		start, end string
		name       string
		smoothness float64
	}
	pairs := []pair{
		{start: primary, end: secondary, name: "primary → secondary"},
		{start: primary, end: accent, name: "primary → accent"},
		{start: secondary, end: primary, name: "secondary → primary"},
		{start: secondary, end: accent, name: "secondary → accent"},
		{start: accent, end: primary, name: "accent → primary"},
		{start: accent, end: secondary, name: "accent → secondary"},
	}
	for i := range pairs {
		pairs[i].smoothness = colors.Smoothness(pairs[i].start, pairs[i].end, gradientSteps)
	}

	bestIdx := 0
	for i := range pairs {
		if pairs[i].smoothness < pairs[bestIdx].smoothness {
			bestIdx = i
		}
	}
	smoothest := pairs[bestIdx].smoothness
	for i := range pairs {
		if pairs[i].smoothness-smoothest < 5 && colors.Lightness(pairs[i].start) > colors.Lightness(pairs[bestIdx].start) {
			bestIdx = i
		}
	}
	return pairs[bestIdx].start, pairs[bestIdx].end, pairs[bestIdx].name
}

// RenderSwatches shows the palette as colored blocks followed by its
// gradient.
func RenderSwatches(p *Palette) string {
	var sb strings.Builder
	for _, hex := range []string{p.Primary, p.Accent, p.Secondary, p.Dim} {
		sb.WriteString(lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("    "))
		sb.WriteString(" ")
	}
	sb.WriteString(" ")
	sb.WriteString(colors.RenderGradientText(strings.Repeat("█", len(p.Gradient)), p.Gradient, false))
	return sb.String()
}

// RenderHalfBlockArt draws img with "▀" cells, two pixel rows per line.
func RenderHalfBlockArt(img image.Image, targetWidth int, targetHeight int) []string {
	if img == nil || targetWidth < 4 || targetHeight < 2 {
		return nil
	}

	resized := resize.Resize(uint(targetWidth), uint(targetHeight*2), img, resize.Lanczos3)
	b := resized.Bounds()

	pixel := func(x, y int) (string, bool) {
		if y >= b.Dy() {
			y = b.Dy() - 1
		}
		c := color.RGBAModel.Convert(resized.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
		return colors.Hex(c), c.A >= 128
	}

	lines := make([]string, targetHeight)
	for row := range lines {
		var line strings.Builder
		for x := 0; x < b.Dx(); x++ {
			top, topOpaque := pixel(x, row*2)
			bottom, bottomOpaque := pixel(x, row*2+1)
			if !topOpaque && !bottomOpaque {
				line.WriteString(" ")
				continue
			}
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(top)).
				Background(lipgloss.Color(bottom))
			line.WriteString(style.Render("▀"))
		}
		lines[row] = line.String()
	}
	return lines
}
