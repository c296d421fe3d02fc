package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"karolbroda.com/kinetic/internal/colors"
	"karolbroda.com/kinetic/internal/stage"
	"karolbroda.com/kinetic/internal/value"
)

// blockRows is how many terminal rows one actor occupies.
const blockRows = 2

const labelColor = "#1E1E2E"

// block is an actor as drawn: a filled rectangle in cell coordinates.
type block struct {
	name  string
	x, y  int
	width int
	color string
}

// readBlock samples the actor's x, y, width and color properties. Missing
// or non-numeric positions leave the actor off the canvas.
func readBlock(s *stage.Stage, name string) (block, bool) {
	x, y := s.Get(name, "x"), s.Get(name, "y")
	if !x.Kind().IsNumeric() || !y.Kind().IsNumeric() {
		return block{}, false
	}
	b := block{
		name:  name,
		x:     int(math.Round(x.Float64())),
		y:     int(math.Round(y.Float64())),
		width: 1,
		color: "#FFFFFF",
	}
	if w := s.Get(name, "width"); w.Kind().IsNumeric() {
		b.width = max(1, int(math.Round(w.Float64())))
	}
	if c := s.Get(name, "color"); c.Kind() == value.KindColor {
		b.color = colors.Hex(c.Color())
	}
	return b, true
}

type cell struct {
	ch    rune
	color string
}

// canvas is a grid of cells that actors are painted onto in order, later
// actors covering earlier ones.
type canvas struct {
	width  int
	height int
	cells  [][]cell
}

func newCanvas(width, height int) *canvas {
	c := &canvas{width: width, height: height, cells: make([][]cell, height)}
	for row := range c.cells {
		c.cells[row] = make([]cell, width)
	}
	return c
}

func (c *canvas) draw(b block) {
	label := []rune(b.name)
	for row := b.y; row < b.y+blockRows; row++ {
		if row < 0 || row >= c.height {
			continue
		}
		for i := 0; i < b.width; i++ {
			col := b.x + i
			if col < 0 || col >= c.width {
				continue
			}
			ch := ' '
			if row == b.y && i > 0 && i-1 < len(label) && len(label)+2 <= b.width {
				ch = label[i-1]
			}
			c.cells[row][col] = cell{ch: ch, color: b.color}
		}
	}
}

// render joins each row, styling runs of same-colored cells together.
func (c *canvas) render(indent string) []string {
	lines := make([]string, c.height)
	for row, cells := range c.cells {
		var line strings.Builder
		line.WriteString(indent)
		for i := 0; i < len(cells); {
			j := i
			var run strings.Builder
			for j < len(cells) && cells[j].color == cells[i].color {
				if cells[j].ch == 0 {
					run.WriteRune(' ')
				} else {
					run.WriteRune(cells[j].ch)
				}
				j++
			}
			if cells[i].color == "" {
				line.WriteString(run.String())
			} else {
				style := lipgloss.NewStyle().
					Background(lipgloss.Color(cells[i].color)).
					Foreground(lipgloss.Color(labelColor))
				line.WriteString(style.Render(run.String()))
			}
			i = j
		}
		lines[row] = strings.TrimRight(line.String(), " ")
	}
	return lines
}
