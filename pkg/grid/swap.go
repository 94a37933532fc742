package grid

import (
	"slices"

	"github.com/matzehuels/widgetgrid/pkg/errors"
)

// CanSwap reports whether the elements covering (x1, y1) and (x2, y2) may
// exchange their instances. Either side may be empty. Each non-empty side
// must fit the other side's rectangle at its minimum size.
//
// CanSwap is symmetric in its two coordinates.
func (g *Grid) CanSwap(x1, y1, x2, y2 int) (bool, error) {
	a, err := g.ElementAt(x1, y1)
	if err != nil {
		return false, err
	}
	b, err := g.ElementAt(x2, y2)
	if err != nil {
		return false, err
	}
	return g.fitsInto(a, b) && g.fitsInto(b, a), nil
}

// fitsInto reports whether src's instance, if any, may occupy dst's
// rectangle. Empty rectangles touching a claimed row are a single row tall
// and therefore never fit an instance.
func (g *Grid) fitsInto(src, dst Element) bool {
	if src.IsEmpty() {
		return true
	}
	return dst.Size().Fits(g.MinSizeOf(src.Instance))
}

// WithSwappedElements exchanges the instances of the elements covering
// (x1, y1) and (x2, y2). The rectangles keep their positions and sizes.
// Swapping an element with itself returns g.
func (g *Grid) WithSwappedElements(x1, y1, x2, y2 int) (*Grid, error) {
	a, err := g.elementForEdit(x1, y1)
	if err != nil {
		return nil, err
	}
	b, err := g.elementForEdit(x2, y2)
	if err != nil {
		return nil, err
	}
	if a.sameRect(b) || (a.IsEmpty() && b.IsEmpty()) {
		return g, nil
	}
	if !g.fitsInto(a, b) || !g.fitsInto(b, a) {
		return nil, errors.New(errors.ErrCodeInvalidOperation, "cannot swap %s and %s: an instance does not fit the other rectangle", a, b)
	}

	fixed := slices.Clone(g.fixed)
	for i, e := range fixed {
		switch {
		case !a.IsEmpty() && e.Instance.ID == a.Instance.ID:
			fixed[i].X, fixed[i].Y, fixed[i].Width, fixed[i].Height = b.X, b.Y, b.Width, b.Height
		case !b.IsEmpty() && e.Instance.ID == b.Instance.ID:
			fixed[i].X, fixed[i].Y, fixed[i].Width, fixed[i].Height = a.X, a.Y, a.Width, a.Height
		}
	}
	return newGrid(g.reg, g.width, g.policy, fixed, g.cloneRows())
}

// elementForEdit looks up the element a mutator targets. A cell outside the
// grid is an invalid operation.
func (g *Grid) elementForEdit(x, y int) (Element, error) {
	e, err := g.ElementAt(x, y)
	if err != nil {
		return Element{}, errors.Wrap(errors.ErrCodeInvalidOperation, err, "no element at (%d,%d)", x, y)
	}
	return e, nil
}
