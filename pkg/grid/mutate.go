package grid

import (
	"github.com/matzehuels/widgetgrid/pkg/errors"
	"github.com/matzehuels/widgetgrid/pkg/widget"
)

// CanAdd reports whether inst could be placed at the given rectangle.
func (g *Grid) CanAdd(inst *widget.Instance, x, y, width, height int) bool {
	if inst == nil || g.TemplateOf(inst).HeightVariable {
		return false
	}
	rect := Element{X: x, Y: y, Width: width, Height: height}
	return g.placementAllowed(rect, g.MinSizeOf(inst), "")
}

// WithAdded places inst at the given rectangle, which must be free.
func (g *Grid) WithAdded(inst *widget.Instance, x, y, width, height int) (*Grid, error) {
	if err := inst.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidOperation, err, "add")
	}
	if _, err := g.InstanceByID(inst.ID); err == nil {
		return nil, errors.New(errors.ErrCodeInvalidOperation, "instance %s is already placed", inst.ID)
	}
	rect := Element{Instance: inst, X: x, Y: y, Width: width, Height: height}
	if !g.CanAdd(inst, x, y, width, height) {
		return nil, errors.New(errors.ErrCodeInvalidOperation, "cannot place %s: the rectangle is not free or too small", rect)
	}
	return newGrid(g.reg, g.width, g.policy, append(g.fixedClone(), rect), g.cloneRows())
}

// WithAddedTemplate places a fresh instance of the template at the given
// rectangle and returns it along with the new grid.
func (g *Grid) WithAddedTemplate(templateID string, x, y, width, height int) (*Grid, *widget.Instance, error) {
	inst := widget.New(templateID)
	next, err := g.WithAdded(inst, x, y, width, height)
	if err != nil {
		return nil, nil, err
	}
	return next, inst, nil
}

// WithRemoved removes the instance at (x, y).
func (g *Grid) WithRemoved(x, y int) (*Grid, error) {
	el, err := g.elementForEdit(x, y)
	if err != nil {
		return nil, err
	}
	if el.IsEmpty() {
		return nil, errors.New(errors.ErrCodeInvalidOperation, "no instance at (%d,%d)", x, y)
	}
	return g.withoutFixed(el.Instance.ID)
}

func (g *Grid) withoutFixed(id string) (*Grid, error) {
	fixed := make([]Element, 0, len(g.fixed))
	for _, e := range g.fixed {
		if e.Instance.ID != id {
			fixed = append(fixed, e)
		}
	}
	return newGrid(g.reg, g.width, g.policy, fixed, g.cloneRows())
}

// WithRemovedInstance removes the instance with the given id from whichever
// storage holds it.
func (g *Grid) WithRemovedInstance(id string) (*Grid, error) {
	if _, ok := g.ElementByInstanceID(id); ok {
		return g.withoutFixed(id)
	}
	return g.WithVarHeightRemoved(id)
}

// WithUpdatedSettings replaces the settings of the instance at (x, y) with
// the result of fn applied to its current effective settings.
func (g *Grid) WithUpdatedSettings(x, y int, fn func(settings any) any) (*Grid, error) {
	return g.withUpdatedAt(x, y, func(inst *widget.Instance, t *widget.Template) *widget.Instance {
		return inst.WithSettings(fn(inst.SettingsOf(t)))
	})
}

// WithUpdatedState replaces the state of the instance at (x, y) with the
// result of fn applied to its current effective state.
func (g *Grid) WithUpdatedState(x, y int, fn func(state any) any) (*Grid, error) {
	return g.withUpdatedAt(x, y, func(inst *widget.Instance, t *widget.Template) *widget.Instance {
		return inst.WithState(fn(inst.StateOf(t)))
	})
}

func (g *Grid) withUpdatedAt(x, y int, fn func(*widget.Instance, *widget.Template) *widget.Instance) (*Grid, error) {
	el, err := g.elementForEdit(x, y)
	if err != nil {
		return nil, err
	}
	if el.IsEmpty() {
		return nil, errors.New(errors.ErrCodeInvalidOperation, "no instance at (%d,%d)", x, y)
	}
	return g.WithUpdatedInstance(el.Instance.ID, func(inst *widget.Instance) *widget.Instance {
		return fn(inst, g.TemplateOf(inst))
	})
}

// WithUpdatedInstance replaces the instance with the given id, fixed or
// variable-height, by fn's result. The id must stay the same.
func (g *Grid) WithUpdatedInstance(id string, fn func(*widget.Instance) *widget.Instance) (*Grid, error) {
	update := func(inst *widget.Instance) (*widget.Instance, error) {
		next := fn(inst)
		if next == nil || next.ID != id {
			return nil, errors.New(errors.ErrCodeInvalidOperation, "update of %s must keep the instance id", id)
		}
		return next, nil
	}

	if i := g.fixedIndex(id); i >= 0 {
		next, err := update(g.fixed[i].Instance)
		if err != nil {
			return nil, err
		}
		fixed := g.fixedClone()
		fixed[i].Instance = next
		return newGrid(g.reg, g.width, g.policy, fixed, g.cloneRows())
	}

	inst, y, err := g.VarHeightInstanceByID(id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidOperation, err, "update %s", id)
	}
	next, err := update(inst)
	if err != nil {
		return nil, err
	}
	rows := g.cloneRows()
	for i, c := range rows[y] {
		if c.ID == id {
			rows[y][i] = next
		}
	}
	return newGrid(g.reg, g.width, g.policy, g.fixedClone(), rows)
}
