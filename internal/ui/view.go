package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	figure "github.com/common-nighthawk/go-figure"

	"karolbroda.com/kinetic/internal/artwork"
	"karolbroda.com/kinetic/internal/colors"
	"karolbroda.com/kinetic/internal/terminal"
)

const (
	bannerFont = "small"
	errorColor = "#FF6B6B"
	helpText   = "←/→ state • 1-9 jump • w finish • r reset • c recolor • q quit"
)

func (m Model) View() string {
	width := m.width
	height := m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	if m.quitting {
		return ""
	}

	var lines []string
	lines = append(lines, m.renderHeader(width)...)
	lines = append(lines, "")
	lines = append(lines, m.renderStage(width)...)
	lines = append(lines, "")
	lines = append(lines, m.renderProgress(width))
	lines = append(lines, m.renderStates())
	lines = append(lines, m.renderStatus())

	for len(lines) < height-1 {
		lines = append(lines, "")
	}
	if len(lines) > height-1 {
		lines = lines[:height-1]
	}

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Dim))
	lines = append(lines, lipgloss.PlaceHorizontal(width, lipgloss.Right, helpStyle.Render(helpText)+"  "))

	return strings.Join(lines, "\n")
}

// bannerText is the target state, or the scene name while idle.
func (m Model) bannerText() string {
	if target := m.stage.Machine.Target(); target != "" {
		return target
	}
	return m.stage.Name()
}

func (m Model) renderBanner(width int) []string {
	text := m.bannerText()
	rows := figure.NewFigure(text, bannerFont, false).Slicify()
	for len(rows) > 0 && strings.TrimSpace(rows[len(rows)-1]) == "" {
		rows = rows[:len(rows)-1]
	}

	widest := 0
	for _, r := range rows {
		widest = max(widest, lipgloss.Width(r))
	}
	if len(rows) == 0 || widest > width-4 {
		style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.palette.Primary))
		return []string{style.Render(text)}
	}

	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = colors.RenderGradientText(r, m.palette.Gradient, true)
	}
	return out
}

func (m Model) renderHeader(width int) []string {
	lines := []string{""}
	banner := m.renderBanner(width)

	artWidth, artHeight := 12, 6
	if m.image == nil || width < 60 {
		artWidth, artHeight = 0, 0
	}

	if artWidth > 0 && m.termCaps != nil && m.termCaps.SupportsKittyGraphics {
		if img := terminal.EncodeImageForKitty(m.image, artWidth, artHeight); img != "" {
			lines = append(lines, "  "+img)
			for i := 0; i < artHeight-1; i++ {
				lines = append(lines, "  ")
			}
			for _, b := range banner {
				lines = append(lines, "  "+b)
			}
			return lines
		}
	}

	art := artwork.RenderHalfBlockArt(m.image, artWidth, artHeight)
	rows := max(len(art), len(banner))
	for i := 0; i < rows; i++ {
		var line strings.Builder
		line.WriteString("  ")
		if artWidth > 0 {
			if i < len(art) {
				line.WriteString(art[i])
			} else {
				line.WriteString(strings.Repeat(" ", artWidth))
			}
			line.WriteString("  ")
		}
		if i < len(banner) {
			line.WriteString(banner[i])
		}
		lines = append(lines, line.String())
	}
	return lines
}

func (m Model) renderStage(width int) []string {
	var blocks []block
	height := blockRows
	for _, name := range m.stage.Actors() {
		b, ok := readBlock(m.stage, name)
		if !ok {
			continue
		}
		blocks = append(blocks, b)
		height = max(height, b.y+blockRows)
	}

	c := newCanvas(max(width-4, 1), height)
	for _, b := range blocks {
		c.draw(b)
	}
	return c.render("  ")
}

func (m Model) renderProgress(width int) string {
	tl := m.stage.Timeline()
	progress := 0.0
	if m.stage.Machine.Target() != "" {
		progress = clamp(tl.Progress(), 0, 1)
	}

	label := m.stage.Machine.Target()
	if src := m.stage.Machine.Source(); src != "" && label != "" {
		label = src + " → " + label
	}
	if label == "" {
		label = "idle"
	}

	barWidth := max(width-24-lipgloss.Width(label), 10)
	filled := int(float64(barWidth) * progress)

	filledStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Primary))
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Dim)).Faint(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Dim))

	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		switch {
		case i < filled:
			bar.WriteString(filledStyle.Render("━"))
		case i == filled:
			bar.WriteString(filledStyle.Render("●"))
		default:
			bar.WriteString(emptyStyle.Render("─"))
		}
	}

	return fmt.Sprintf("  %s  %s  %s",
		dimStyle.Render(label),
		bar.String(),
		dimStyle.Render(fmt.Sprintf("%4d/%dms", tl.Elapsed(), tl.Duration())))
}

func (m Model) renderStates() string {
	current := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Accent)).Bold(true)
	other := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Dim))

	parts := make([]string, 0, len(m.stage.States()))
	for i, name := range m.stage.States() {
		label := fmt.Sprintf("%d %s", i+1, name)
		if i == m.stateIndex {
			parts = append(parts, current.Render("["+label+"]"))
		} else {
			parts = append(parts, other.Render(" "+label+" "))
		}
	}
	return "  " + strings.Join(parts, " ")
}

func (m Model) renderStatus() string {
	if m.err != nil {
		return "  " + lipgloss.NewStyle().Foreground(lipgloss.Color(errorColor)).Render(m.err.Error())
	}
	if m.status == "" {
		return ""
	}
	return "  " + lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Secondary)).Italic(true).Render(m.status)
}
