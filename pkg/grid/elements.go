package grid

import (
	"slices"

	"github.com/matzehuels/widgetgrid/pkg/errors"
	"github.com/matzehuels/widgetgrid/pkg/widget"
)

// Elements returns the placed elements in insertion order followed by the
// empty elements that fill all remaining area. Together they tile the grid.
func (g *Grid) Elements() []Element {
	g.buildView()
	return slices.Clone(g.elements)
}

// EmptyElements returns only the filler elements.
func (g *Grid) EmptyElements() []Element {
	g.buildView()
	return slices.Clone(g.elements[len(g.fixed):])
}

func (g *Grid) buildView() {
	g.viewOnce.Do(func() {
		g.elements = append(slices.Clone(g.fixed), fillEmpty(g.cells, g.rows)...)
		g.index = make([][]int, g.width)
		for x := range g.index {
			g.index[x] = make([]int, g.height)
		}
		for i, e := range g.elements {
			for x := e.X; x < e.Right(); x++ {
				for y := e.Y; y < e.Bottom(); y++ {
					g.index[x][y] = i
				}
			}
		}
	})
}

// fillEmpty covers every unoccupied cell of cells with empty rectangles.
//
// Cells are scanned column by column. From each uncovered cell, a rectangle
// grows right up to DefaultElementWidth columns and then down up to
// DefaultElementHeight rows, stopping before occupied cells and before rows
// claimed by a variable-height row. A rectangle starting on a claimed row
// stays one row tall.
func fillEmpty(cells [][]*widget.Instance, claimed map[int][]*widget.Instance) []Element {
	width := len(cells)
	if width == 0 {
		return nil
	}
	height := len(cells[0])

	covered := make([][]bool, width)
	for x := range covered {
		covered[x] = make([]bool, height)
	}
	free := func(x, y int) bool { return cells[x][y] == nil && !covered[x][y] }

	var out []Element
	for x1 := 0; x1 < width; x1++ {
		for y1 := 0; y1 < height; y1++ {
			if !free(x1, y1) {
				continue
			}
			x2 := x1 + 1
			for x2 < width && x2-x1 < DefaultElementWidth && free(x2, y1) {
				x2++
			}

			y2 := y1 + 1
			if _, onRow := claimed[y1]; !onRow {
			grow:
				for y2 < height && y2-y1 < DefaultElementHeight {
					if _, isRow := claimed[y2]; isRow {
						break
					}
					for xx := x1; xx < x2; xx++ {
						if !free(xx, y2) {
							break grow
						}
					}
					y2++
				}
			}

			for xx := x1; xx < x2; xx++ {
				for yy := y1; yy < y2; yy++ {
					covered[xx][yy] = true
				}
			}
			out = append(out, Element{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1})
		}
	}
	return out
}

// ElementAt returns the element, empty or not, covering cell (x, y).
func (g *Grid) ElementAt(x, y int) (Element, error) {
	if !g.inBounds(x, y) {
		return Element{}, errors.New(errors.ErrCodeNotFound, "cell (%d,%d) is outside the %dx%d grid", x, y, g.width, g.height)
	}
	g.buildView()
	return g.elements[g.index[x][y]], nil
}

func (g *Grid) inBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// ElementByInstanceID returns the fixed element holding the instance id.
func (g *Grid) ElementByInstanceID(id string) (Element, bool) {
	i := g.fixedIndex(id)
	if i < 0 {
		return Element{}, false
	}
	return g.fixed[i], true
}

func (g *Grid) fixedIndex(id string) int {
	return slices.IndexFunc(g.fixed, func(e Element) bool { return e.Instance.ID == id })
}

// InstanceByID returns the instance with the given id from either the fixed
// grid or a variable-height row.
func (g *Grid) InstanceByID(id string) (*widget.Instance, error) {
	if e, ok := g.ElementByInstanceID(id); ok {
		return e.Instance, nil
	}
	if inst, _, err := g.VarHeightInstanceByID(id); err == nil {
		return inst, nil
	}
	return nil, errors.New(errors.ErrCodeNotFound, "no instance with id %s", id)
}

// Instances returns all instances: fixed ones in insertion order, then
// variable-height ones in row order.
func (g *Grid) Instances() []*widget.Instance {
	out := make([]*widget.Instance, 0, len(g.fixed))
	for _, e := range g.fixed {
		out = append(out, e.Instance)
	}
	for _, row := range g.VarHeightRows() {
		out = append(out, row.Instances...)
	}
	return out
}
