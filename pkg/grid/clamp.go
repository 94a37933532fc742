package grid

import (
	"fmt"

	"github.com/matzehuels/widgetgrid/pkg/errors"
	"github.com/matzehuels/widgetgrid/pkg/widget"
)

// Edges is a resize delta for the four edges of an element, in grid units.
// Positive Top and Left move those edges right and down (shrinking the
// element); positive Bottom and Right grow it.
type Edges struct {
	Top    int `json:"top"`
	Left   int `json:"left"`
	Bottom int `json:"bottom"`
	Right  int `json:"right"`
}

// IsZero reports whether no edge moves.
func (d Edges) IsZero() bool { return d == Edges{} }

func (d Edges) String() string {
	return fmt.Sprintf("{top:%d left:%d bottom:%d right:%d}", d.Top, d.Left, d.Bottom, d.Right)
}

func (d Edges) magnitude() int {
	return abs(d.Top) + abs(d.Left) + abs(d.Bottom) + abs(d.Right)
}

// apply returns e moved by the delta.
func (d Edges) apply(e Element) Element {
	e.X += d.Left
	e.Y += d.Top
	e.Width += d.Right - d.Left
	e.Height += d.Bottom - d.Top
	return e
}

// towardZero returns v moved one unit toward zero.
func towardZero(v int) int {
	switch {
	case v > 0:
		return v - 1
	case v < 0:
		return v + 1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

type clampKey struct {
	x, y  int
	delta Edges
}

type clampResult struct {
	delta Edges
	ok    bool
}

// ClampElementResize returns the largest delta, no larger than the requested
// one on any edge and with the same signs, that keeps the element at (x, y)
// inside the grid, at least at its minimum size, and clear of other
// instances and of variable-height rows.
//
// When several reductions are equally large, edges are shrunk in the order
// top, left, bottom, right and the first best candidate wins. Results are
// memoized per grid. The request is first capped to what the grid bounds and
// the minimum size permit, so the search is bounded by the grid dimensions.
func (g *Grid) ClampElementResize(x, y int, delta Edges) (Edges, error) {
	el, err := g.ElementAt(x, y)
	if err != nil {
		return Edges{}, err
	}
	if el.IsEmpty() {
		return Edges{}, errors.New(errors.ErrCodeInvalidOperation, "cannot resize the empty element at (%d,%d)", x, y)
	}

	minSize := g.MinSizeOf(el.Instance)
	clamped, ok := g.clamp(el, minSize, g.capToBounds(el, minSize, delta))
	if !ok {
		return Edges{}, errors.New(errors.ErrCodeInternal, "no valid resize of %s for %s", el, delta)
	}
	return clamped, nil
}

func (g *Grid) clamp(el Element, minSize widget.Size, delta Edges) (Edges, bool) {
	key := clampKey{x: el.X, y: el.Y, delta: delta}

	g.clampMu.Lock()
	if r, hit := g.clampMemo[key]; hit {
		g.clampMu.Unlock()
		return r.delta, r.ok
	}
	g.clampMu.Unlock()

	var r clampResult
	if g.resizeAllowed(el, minSize, delta) {
		r = clampResult{delta: delta, ok: true}
	} else {
		best := -1
		for _, c := range shrinkCandidates(delta) {
			got, ok := g.clamp(el, minSize, c)
			if ok && got.magnitude() > best {
				best = got.magnitude()
				r = clampResult{delta: got, ok: true}
			}
		}
	}

	g.clampMu.Lock()
	if g.clampMemo == nil {
		g.clampMemo = make(map[clampKey]clampResult)
	}
	g.clampMemo[key] = r
	g.clampMu.Unlock()
	return r.delta, r.ok
}

// capToBounds limits each edge of delta to the range in which some placement
// could still be valid: the moved edge stays inside the grid and leaves room
// for the minimum size. Every range contains zero, so signs are kept and no
// magnitude grows.
func (g *Grid) capToBounds(el Element, minSize widget.Size, delta Edges) Edges {
	return Edges{
		Top:    clampInt(delta.Top, -el.Y, g.height-minSize.Height-el.Y),
		Left:   clampInt(delta.Left, -el.X, g.width-minSize.Width-el.X),
		Bottom: clampInt(delta.Bottom, minSize.Height-el.Bottom(), g.height-el.Bottom()),
		Right:  clampInt(delta.Right, minSize.Width-el.Right(), g.width-el.Right()),
	}
}

func clampInt(v, lo, hi int) int {
	return min(max(v, min(lo, 0)), max(hi, 0))
}

// shrinkCandidates returns delta with one non-zero edge moved toward zero,
// in edge order top, left, bottom, right.
func shrinkCandidates(delta Edges) []Edges {
	var out []Edges
	if delta.Top != 0 {
		c := delta
		c.Top = towardZero(c.Top)
		out = append(out, c)
	}
	if delta.Left != 0 {
		c := delta
		c.Left = towardZero(c.Left)
		out = append(out, c)
	}
	if delta.Bottom != 0 {
		c := delta
		c.Bottom = towardZero(c.Bottom)
		out = append(out, c)
	}
	if delta.Right != 0 {
		c := delta
		c.Right = towardZero(c.Right)
		out = append(out, c)
	}
	return out
}

func (g *Grid) resizeAllowed(el Element, minSize widget.Size, delta Edges) bool {
	return g.placementAllowed(delta.apply(el), minSize, el.Instance.ID)
}

// placementAllowed reports whether rect fits the grid at minSize without
// covering a claimed row or any instance other than self.
func (g *Grid) placementAllowed(rect Element, minSize widget.Size, self string) bool {
	if !rect.Size().Fits(minSize) {
		return false
	}
	if rect.X < 0 || rect.Y < 0 || rect.Width > g.width-rect.X || rect.Height > g.height-rect.Y {
		return false
	}
	for y := rect.Y; y < rect.Bottom(); y++ {
		if _, claimed := g.rows[y]; claimed {
			return false
		}
	}
	for x := rect.X; x < rect.Right(); x++ {
		for y := rect.Y; y < rect.Bottom(); y++ {
			if c := g.cells[x][y]; c != nil && c.ID != self {
				return false
			}
		}
	}
	return true
}

// WithResizedElement applies delta to the element at (x, y). The delta must
// be its own clamp result; pass it through [Grid.ClampElementResize] first.
// A zero delta returns g itself, keeping its caches.
func (g *Grid) WithResizedElement(x, y int, delta Edges) (*Grid, error) {
	clamped, err := g.ClampElementResize(x, y, delta)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidOperation, err, "resize at (%d,%d)", x, y)
	}
	if clamped != delta {
		return nil, errors.New(errors.ErrCodeInvalidOperation, "resize %s at (%d,%d) is not allowed: only %s is", delta, x, y, clamped)
	}
	if delta.IsZero() {
		return g, nil
	}

	el, _ := g.ElementAt(x, y)
	fixed := make([]Element, len(g.fixed))
	for i, e := range g.fixed {
		if e.Instance.ID == el.Instance.ID {
			e = delta.apply(e)
		}
		fixed[i] = e
	}
	return newGrid(g.reg, g.width, g.policy, fixed, g.cloneRows())
}
