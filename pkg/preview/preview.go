// Package preview draws grid layouts for the terminal.
//
// [Render] draws every fixed element as a bordered box scaled by
// [Options.CellWidth] and [Options.CellHeight], filled with the output of
// the widget's own render capability. Variable-height rows are drawn as
// full-width bands on the row they claim. [Text] prints a compact
// one-character-per-cell occupancy map that is stable enough for tests and
// diffs.
package preview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/widgetgrid/pkg/grid"
	"github.com/matzehuels/widgetgrid/pkg/widget"
)

// Default scale of one grid unit in terminal cells.
const (
	DefaultCellWidth  = 3
	DefaultCellHeight = 1
)

// Options configures [Render].
type Options struct {
	CellWidth  int
	CellHeight int
	// ShowEmpty marks the centre of every empty slot.
	ShowEmpty bool
	// Border is the box style of fixed elements. The zero value means
	// lipgloss.RoundedBorder.
	Border lipgloss.Border
	// SetState receives state updates requested by widgets while they
	// render. Nil discards them.
	SetState func(instanceID string, updater func(state any) any)
}

func (o Options) withDefaults() Options {
	if o.CellWidth <= 0 {
		o.CellWidth = DefaultCellWidth
	}
	if o.CellHeight <= 0 {
		o.CellHeight = DefaultCellHeight
	}
	if o.Border == (lipgloss.Border{}) {
		o.Border = lipgloss.RoundedBorder()
	}
	return o
}

// SingleColumn reports whether hosts should collapse g into one column.
func SingleColumn(g *grid.Grid) bool {
	return g.Width() < 2*grid.DefaultElementWidth
}

// Props returns the render properties of inst placed in a w×h rectangle.
func Props(g *grid.Grid, inst *widget.Instance, w, h int, setState func(string, func(any) any)) widget.RenderProps {
	t := g.TemplateOf(inst)
	return widget.RenderProps{
		Settings: inst.SettingsOf(t),
		State:    inst.StateOf(t),
		SetState: func(updater func(any) any) {
			if setState != nil {
				setState(inst.ID, updater)
			}
		},
		Width:        w,
		Height:       h,
		SingleColumn: SingleColumn(g),
	}
}

// Render draws g. The result has g.Height()*CellHeight lines of
// g.Width()*CellWidth cells each.
func Render(g *grid.Grid, opts Options) string {
	opts = opts.withDefaults()
	c := newCanvas(g.Width()*opts.CellWidth, g.Height()*opts.CellHeight)

	for _, e := range g.Elements() {
		x, y := e.X*opts.CellWidth, e.Y*opts.CellHeight
		w, h := e.Width*opts.CellWidth, e.Height*opts.CellHeight
		if e.IsEmpty() {
			if opts.ShowEmpty {
				c.put(x+w/2, y+h/2, "·")
			}
			continue
		}
		t := g.TemplateOf(e.Instance)
		body := t.Widget.Render(Props(g, e.Instance, e.Width, e.Height, opts.SetState))
		c.blit(x, y, box(body, w, h, opts.Border))
	}

	for _, row := range g.VarHeightRows() {
		parts := make([]string, len(row.Instances))
		for i, inst := range row.Instances {
			t := g.TemplateOf(inst)
			body := t.Widget.Render(Props(g, inst, g.Width(), 0, opts.SetState))
			parts[i] = firstLine(body)
		}
		band := "≡ " + strings.Join(parts, " │ ")
		for dy := range opts.CellHeight {
			line := band
			if dy > 0 {
				line = ""
			}
			c.fillLine(row.Y*opts.CellHeight+dy, line, '─')
		}
	}
	return c.String()
}

// box renders body inside a border of exactly w×h cells.
func box(body string, w, h int, border lipgloss.Border) string {
	if w < 2 || h < 2 {
		return ""
	}
	if h == 2 {
		// No room for content; lipgloss always emits at least one line.
		fill := max(w-2, 0)
		return border.TopLeft + strings.Repeat(border.Top, fill) + border.TopRight + "\n" +
			border.BottomLeft + strings.Repeat(border.Bottom, fill) + border.BottomRight
	}
	inner := lipgloss.NewStyle().
		Width(w - 2).
		Height(h - 2).
		MaxHeight(h - 2).
		Render(truncateLines(body, w-2))
	return lipgloss.NewStyle().Border(border).Render(inner)
}

func truncateLines(s string, width int) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		r := []rune(l)
		if len(r) > width {
			lines[i] = string(r[:width])
		}
	}
	return strings.Join(lines, "\n")
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

type canvas struct {
	w, h  int
	cells [][]rune
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, cells: make([][]rune, h)}
	for y := range c.cells {
		c.cells[y] = []rune(strings.Repeat(" ", w))
	}
	return c
}

func (c *canvas) put(x, y int, s string) {
	if y < 0 || y >= c.h {
		return
	}
	for i, r := range []rune(s) {
		if xx := x + i; xx >= 0 && xx < c.w {
			c.cells[y][xx] = r
		}
	}
}

func (c *canvas) blit(x, y int, block string) {
	for dy, line := range strings.Split(block, "\n") {
		c.put(x, y+dy, line)
	}
}

// fillLine writes s at the start of row y and pads the rest with pad.
func (c *canvas) fillLine(y int, s string, pad rune) {
	if y < 0 || y >= c.h {
		return
	}
	r := []rune(s)
	for x := range c.w {
		if x < len(r) {
			c.cells[y][x] = r[x]
		} else {
			c.cells[y][x] = pad
		}
	}
}

func (c *canvas) String() string {
	lines := make([]string, c.h)
	for y, row := range c.cells {
		lines[y] = strings.TrimRight(string(row), " ")
	}
	return strings.Join(lines, "\n")
}

// Text returns the occupancy map of g, one character per grid cell, followed
// by a legend. Fixed instances are lettered in insertion order, empty cells
// are '.', and rows claimed by variable-height rows are '='.
func Text(g *grid.Grid) string {
	letters := map[string]rune{}
	var legend []string
	for i, e := range g.NonEmptyElements() {
		l := Letter(i)
		letters[e.Instance.ID] = l
		legend = append(legend, fmt.Sprintf("%c  %s (%s) at %d,%d size %dx%d",
			l, e.Instance.ID, e.Instance.TemplateID, e.X, e.Y, e.Width, e.Height))
	}

	claimed := map[int]bool{}
	for _, row := range g.VarHeightRows() {
		claimed[row.Y] = true
		ids := make([]string, len(row.Instances))
		for i, inst := range row.Instances {
			ids[i] = inst.ID
		}
		legend = append(legend, fmt.Sprintf("=  row %d: %s", row.Y, strings.Join(ids, ", ")))
	}

	cells := g.As2DArray()
	var b strings.Builder
	for y := range g.Height() {
		for x := range g.Width() {
			switch inst := cells[x][y]; {
			case inst != nil:
				b.WriteRune(letters[inst.ID])
			case claimed[y]:
				b.WriteByte('=')
			default:
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	for _, l := range legend {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

const letterSet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Letter returns the map character of the i-th fixed element.
func Letter(i int) rune {
	return rune(letterSet[i%len(letterSet)])
}
