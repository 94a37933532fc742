package grid

import (
	"fmt"
	"slices"

	"github.com/matzehuels/widgetgrid/pkg/errors"
	"github.com/matzehuels/widgetgrid/pkg/widget"
)

// Position places an instance relative to another one in a variable-height row.
type Position int

const (
	Before Position = iota
	After
)

func (p Position) String() string {
	if p == After {
		return "after"
	}
	return "before"
}

// ParsePosition parses "before" or "after".
func ParsePosition(s string) (Position, error) {
	switch s {
	case "before":
		return Before, nil
	case "after":
		return After, nil
	}
	return Before, errors.New(errors.ErrCodeInvalidInput, "position must be \"before\" or \"after\", got %q", s)
}

// Destination is where [Grid.WithVarHeightMoved] puts an instance.
type Destination struct {
	row      int
	target   string
	position Position
	relative bool
}

// ToRow appends to the row at index y.
func ToRow(y int) Destination { return Destination{row: y} }

// Relative inserts before or after the instance with id target.
func Relative(target string, pos Position) Destination {
	return Destination{target: target, position: pos, relative: true}
}

func (d Destination) String() string {
	if d.relative {
		return fmt.Sprintf("%s %s", d.position, d.target)
	}
	return fmt.Sprintf("row %d", d.row)
}

// VarHeightRows returns the variable-height rows sorted by row index.
func (g *Grid) VarHeightRows() []VarHeightRow {
	ys := make([]int, 0, len(g.rows))
	for y := range g.rows {
		ys = append(ys, y)
	}
	slices.Sort(ys)

	out := make([]VarHeightRow, len(ys))
	for i, y := range ys {
		out[i] = VarHeightRow{Y: y, Instances: slices.Clone(g.rows[y])}
	}
	return out
}

// VarHeightInstanceByID returns the variable-height instance with the given
// id and the index of its row.
func (g *Grid) VarHeightInstanceByID(id string) (*widget.Instance, int, error) {
	for y, list := range g.rows {
		for _, inst := range list {
			if inst.ID == id {
				return inst, y, nil
			}
		}
	}
	return nil, 0, errors.New(errors.ErrCodeNotFound, "no variable-height instance with id %s", id)
}

// CanAddVarHeight reports whether a variable-height row may live at row
// index y, that is, whether no fixed element spans row y. Row indices up to
// and including the bottom edge of an auto-height grid are addressable.
func (g *Grid) CanAddVarHeight(y int) bool {
	if y < 0 {
		return false
	}
	if g.policy.IsAuto() {
		if y > g.height {
			return false
		}
	} else if y >= g.height {
		return false
	}
	for _, e := range g.fixed {
		if y >= e.Y && y < e.Bottom() {
			return false
		}
	}
	return true
}

// WithVarHeightAppended appends inst to the row at index y, creating the row
// if needed.
func (g *Grid) WithVarHeightAppended(y int, inst *widget.Instance) (*Grid, error) {
	if !g.CanAddVarHeight(y) {
		return nil, errors.New(errors.ErrCodeInvalidOperation, "cannot add a variable-height row at %d", y)
	}
	rows := g.cloneRows()
	rows[y] = append(rows[y], inst)
	return newGrid(g.reg, g.width, g.policy, g.fixedClone(), rows)
}

// WithVarHeightInserted inserts inst directly before or after the instance
// with id target, searching all rows.
func (g *Grid) WithVarHeightInserted(target string, pos Position, inst *widget.Instance) (*Grid, error) {
	_, y, err := g.VarHeightInstanceByID(target)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidOperation, err, "insert %s %s", pos, target)
	}
	rows := g.cloneRows()
	i := slices.IndexFunc(rows[y], func(c *widget.Instance) bool { return c.ID == target })
	if pos == After {
		i++
	}
	rows[y] = slices.Insert(rows[y], i, inst)
	return newGrid(g.reg, g.width, g.policy, g.fixedClone(), rows)
}

// WithVarHeightRemoved removes the variable-height instance with the given
// id. A row left empty is dropped.
func (g *Grid) WithVarHeightRemoved(id string) (*Grid, error) {
	_, y, err := g.VarHeightInstanceByID(id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidOperation, err, "remove %s", id)
	}
	rows := g.cloneRows()
	rows[y] = slices.DeleteFunc(rows[y], func(c *widget.Instance) bool { return c.ID == id })
	if len(rows[y]) == 0 {
		delete(rows, y)
	}
	return newGrid(g.reg, g.width, g.policy, g.fixedClone(), rows)
}

// WithVarHeightMoved moves the variable-height instance with the given id to
// dest. Moving an instance relative to itself returns g.
func (g *Grid) WithVarHeightMoved(id string, dest Destination) (*Grid, error) {
	if dest.relative && dest.target == id {
		return g, nil
	}
	inst, _, err := g.VarHeightInstanceByID(id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidOperation, err, "move %s", id)
	}
	removed, err := g.WithVarHeightRemoved(id)
	if err != nil {
		return nil, err
	}
	if dest.relative {
		return removed.WithVarHeightInserted(dest.target, dest.position, inst)
	}
	return removed.WithVarHeightAppended(dest.row, inst)
}

func (g *Grid) fixedClone() []Element {
	return slices.Clone(g.fixed)
}
