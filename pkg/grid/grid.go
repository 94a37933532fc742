package grid

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/matzehuels/widgetgrid/pkg/errors"
	"github.com/matzehuels/widgetgrid/pkg/widget"
)

// Grid geometry defaults, in grid units.
const (
	DefaultWidth = 24

	DefaultElementWidth  = 12
	DefaultElementHeight = 8

	MinElementWidth  = 4
	MinElementHeight = 2
)

// Size limits. Grids keep a dense cell table, so documents describing larger
// grids are rejected before anything is allocated.
const (
	MaxDimension = 1 << 14
	MaxCells     = 1 << 20
)

// MinElementSize is the global minimum size of a fixed element.
var MinElementSize = widget.Size{Width: MinElementWidth, Height: MinElementHeight}

// =============================================================================
// Height Policy
// =============================================================================

// Height is a grid's height policy: either a fixed number of rows or "auto".
// The zero value is auto.
type Height struct {
	rows int
}

// AutoHeight returns the auto height policy. An auto-height grid is as tall as
// its lowest occupied row, and grows by [DefaultElementHeight] rows when that
// leaves no free cell.
//
// While any cell is free there are no spare rows below the content: a lone
// 12x8 widget on a 24-column grid leaves the grid 8 rows tall, so nothing can
// be placed at y=8 and the widget cannot grow downward until the slot beside
// it is filled. Variable-height rows may still be appended at y=Height().
func AutoHeight() Height { return Height{} }

// FixedHeight returns a policy of exactly rows rows.
func FixedHeight(rows int) Height { return Height{rows: rows} }

// IsAuto reports whether the policy is auto.
func (h Height) IsAuto() bool { return h.rows == 0 }

// Rows returns the fixed row count and true, or 0 and false for auto.
func (h Height) Rows() (int, bool) { return h.rows, h.rows != 0 }

func (h Height) String() string {
	if h.IsAuto() {
		return "auto"
	}
	return fmt.Sprintf("%d", h.rows)
}

// MarshalJSON encodes the policy as "auto" or an integer.
func (h Height) MarshalJSON() ([]byte, error) {
	if h.IsAuto() {
		return []byte(`"auto"`), nil
	}
	return json.Marshal(h.rows)
}

// UnmarshalJSON decodes "auto" or a positive integer.
func (h *Height) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "auto" {
			return errors.New(errors.ErrCodeInvalidFormat, "height policy must be \"auto\" or an integer, got %q", s)
		}
		*h = AutoHeight()
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil || n < 1 {
		return errors.New(errors.ErrCodeInvalidFormat, "height policy must be \"auto\" or a positive integer, got %s", data)
	}
	*h = FixedHeight(n)
	return nil
}

// ParseHeight parses "auto" or a positive integer.
func ParseHeight(s string) (Height, error) {
	var h Height
	if s == "auto" {
		return h, nil
	}
	if err := h.UnmarshalJSON([]byte(s)); err != nil {
		return h, errors.New(errors.ErrCodeInvalidInput, "invalid height %q: want \"auto\" or a positive integer", s)
	}
	return h, nil
}

// =============================================================================
// Elements
// =============================================================================

// Element is a rectangle of the fixed grid holding either a widget instance
// or nothing. Empty elements are transient and never persisted.
type Element struct {
	Instance *widget.Instance
	X        int
	Y        int
	Width    int
	Height   int
}

// IsEmpty reports whether the element holds no instance.
func (e Element) IsEmpty() bool { return e.Instance == nil }

// Contains reports whether cell (x, y) lies inside the element.
func (e Element) Contains(x, y int) bool {
	return x >= e.X && x < e.X+e.Width && y >= e.Y && y < e.Y+e.Height
}

// Size returns the element's width and height.
func (e Element) Size() widget.Size { return widget.Size{Width: e.Width, Height: e.Height} }

// Right returns the column just past the element.
func (e Element) Right() int { return e.X + e.Width }

// Bottom returns the row just past the element.
func (e Element) Bottom() int { return e.Y + e.Height }

// sameRect reports whether e and o cover the same rectangle.
func (e Element) sameRect(o Element) bool {
	return e.X == o.X && e.Y == o.Y && e.Width == o.Width && e.Height == o.Height
}

func (e Element) String() string {
	id := "empty"
	if e.Instance != nil {
		id = e.Instance.ID
	}
	return fmt.Sprintf("%s@(%d,%d %dx%d)", id, e.X, e.Y, e.Width, e.Height)
}

// VarHeightRow is a full-width row of variable-height instances located at
// grid row index Y.
type VarHeightRow struct {
	Y         int
	Instances []*widget.Instance
}

// =============================================================================
// Grid
// =============================================================================

// Options configures grid construction.
type Options struct {
	// Width is the number of columns. Zero means DefaultWidth.
	Width int
	// Height is the height policy. The zero value is auto.
	Height Height
}

// Grid is an immutable layout of widget instances.
//
// The zero value is not usable; construct grids with [FromInstances],
// [FromSingleInstance], [Empty], or [FromSerialized].
type Grid struct {
	reg    widget.Registry
	width  int
	policy Height
	height int

	fixed []Element                  // non-empty elements, in insertion order
	rows  map[int][]*widget.Instance // variable-height rows by row index
	cells [][]*widget.Instance       // [x][y] occupancy

	viewOnce sync.Once
	elements []Element
	index    [][]int // [x][y] -> index into elements

	clampMu   sync.Mutex
	clampMemo map[clampKey]clampResult
}

// FromInstances lays out fresh instances left to right, top to bottom at the
// default element size. Instances of height-variable templates are gathered,
// in order, into one variable-height row directly below the fixed elements.
func FromInstances(reg widget.Registry, instances []*widget.Instance, opts Options) (*Grid, error) {
	width := opts.Width
	if width == 0 {
		width = DefaultWidth
	}
	if width < 0 {
		return nil, errors.New(errors.ErrCodeInvalidLayout, "width must be positive, got %d", width)
	}

	elemWidth := min(DefaultElementWidth, width)
	perRow := max(1, width/elemWidth)

	var (
		fixed    []Element
		variable []*widget.Instance
	)
	for _, inst := range instances {
		if inst == nil {
			return nil, errors.New(errors.ErrCodeInvalidLayout, "instance list contains nil")
		}
		if widget.Resolve(reg, inst).HeightVariable {
			variable = append(variable, inst)
			continue
		}
		i := len(fixed)
		fixed = append(fixed, Element{
			Instance: inst,
			X:        (i % perRow) * elemWidth,
			Y:        (i / perRow) * DefaultElementHeight,
			Width:    elemWidth,
			Height:   DefaultElementHeight,
		})
	}

	rows := map[int][]*widget.Instance{}
	if len(variable) > 0 {
		y := 0
		for _, e := range fixed {
			y = max(y, e.Bottom())
		}
		rows[y] = variable
	}
	return newGrid(reg, width, opts.Height, fixed, rows)
}

// FromSingleInstance returns a default-width auto-height grid holding inst.
func FromSingleInstance(reg widget.Registry, inst *widget.Instance) (*Grid, error) {
	return FromInstances(reg, []*widget.Instance{inst}, Options{})
}

// Empty returns a grid without instances.
func Empty(reg widget.Registry, opts Options) (*Grid, error) {
	return FromInstances(reg, nil, opts)
}

// newGrid validates all invariants and builds the occupancy table. It takes
// ownership of fixed and rows.
func newGrid(reg widget.Registry, width int, policy Height, fixed []Element, rows map[int][]*widget.Instance) (*Grid, error) {
	if width < 1 || width > MaxDimension {
		return nil, errors.New(errors.ErrCodeInvalidLayout, "width must be between 1 and %d, got %d", MaxDimension, width)
	}
	if policy.rows < 0 || policy.rows > MaxDimension {
		return nil, errors.New(errors.ErrCodeInvalidLayout, "height must be between 1 and %d, got %d", MaxDimension, policy.rows)
	}
	if rows == nil {
		rows = map[int][]*widget.Instance{}
	}

	g := &Grid{reg: reg, width: width, policy: policy, fixed: fixed, rows: rows}
	seen := make(map[string]bool)

	for i := range g.fixed {
		e := &g.fixed[i]
		inst, err := g.checkInstance(e.Instance, seen)
		if err != nil {
			return nil, err
		}
		e.Instance = inst

		t := widget.Resolve(reg, inst)
		if t.HeightVariable {
			return nil, errors.New(errors.ErrCodeInvalidLayout, "instance %s of height-variable template %s cannot be placed in the fixed grid", inst.ID, t.ID)
		}
		// Compared without adding so huge coordinates cannot wrap around.
		if e.X < 0 || e.Y < 0 || e.X > width || e.Width > width-e.X || e.Y > MaxDimension || e.Height > MaxDimension-e.Y {
			return nil, errors.New(errors.ErrCodeInvalidLayout, "element %s is out of bounds for width %d", e, width)
		}
		if minSize := g.minSize(inst, t); !e.Size().Fits(minSize) {
			return nil, errors.New(errors.ErrCodeInvalidLayout, "element %s is smaller than its minimum size %dx%d", e, minSize.Width, minSize.Height)
		}
	}

	for y, list := range g.rows {
		if y < 0 || y >= MaxDimension {
			return nil, errors.New(errors.ErrCodeInvalidLayout, "variable-height row index %d is out of range", y)
		}
		if len(list) == 0 {
			return nil, errors.New(errors.ErrCodeInvalidLayout, "variable-height row %d is empty", y)
		}
		for i, raw := range list {
			inst, err := g.checkInstance(raw, seen)
			if err != nil {
				return nil, err
			}
			t := widget.Resolve(reg, inst)
			if _, broken := widget.IsBroken(t); !t.HeightVariable && !broken {
				return nil, errors.New(errors.ErrCodeInvalidLayout, "instance %s of fixed-size template %s cannot be placed in variable-height row %d", inst.ID, t.ID, y)
			}
			list[i] = inst
		}
	}

	g.height = g.computeHeight()
	if g.height > MaxCells/width {
		return nil, errors.New(errors.ErrCodeInvalidLayout, "grid of %dx%d exceeds %d cells", width, g.height, MaxCells)
	}
	for _, e := range g.fixed {
		if e.Height > g.height-e.Y {
			return nil, errors.New(errors.ErrCodeInvalidLayout, "element %s is out of bounds for height %d", e, g.height)
		}
	}
	for y := range g.rows {
		if y >= g.height {
			return nil, errors.New(errors.ErrCodeInvalidLayout, "variable-height row %d is out of bounds for height %d", y, g.height)
		}
	}

	g.cells = make([][]*widget.Instance, width)
	for x := range g.cells {
		g.cells[x] = make([]*widget.Instance, g.height)
	}
	for _, e := range g.fixed {
		for x := e.X; x < e.Right(); x++ {
			for y := e.Y; y < e.Bottom(); y++ {
				if other := g.cells[x][y]; other != nil {
					return nil, errors.New(errors.ErrCodeInvalidLayout, "element %s overlaps instance %s at (%d,%d)", e, other.ID, x, y)
				}
				g.cells[x][y] = e.Instance
			}
		}
		for y := range g.rows {
			if y >= e.Y && y < e.Bottom() {
				return nil, errors.New(errors.ErrCodeInvalidLayout, "element %s covers row %d, which holds a variable-height row", e, y)
			}
		}
	}

	return g, nil
}

// checkInstance validates one stored instance and returns a copy with
// normalized overrides.
func (g *Grid) checkInstance(inst *widget.Instance, seen map[string]bool) (*widget.Instance, error) {
	if inst == nil {
		return nil, errors.New(errors.ErrCodeInvalidLayout, "element has a nil instance")
	}
	if err := inst.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLayout, err, "invalid instance")
	}
	if seen[inst.ID] {
		return nil, errors.New(errors.ErrCodeInvalidLayout, "duplicate instance id %s", inst.ID)
	}
	seen[inst.ID] = true

	norm, err := inst.Normalized()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLayout, err, "settings and state must be serializable")
	}
	t := widget.Resolve(g.reg, norm)
	if !norm.Settings.Set && !widget.IsSerializable(t.DefaultSettings) {
		return nil, errors.New(errors.ErrCodeInvalidLayout, "default settings of template %s are not serializable", t.ID)
	}
	if !norm.State.Set && !widget.IsSerializable(t.DefaultState) {
		return nil, errors.New(errors.ErrCodeInvalidLayout, "default state of template %s is not serializable", t.ID)
	}
	return norm, nil
}

// computeHeight resolves the height policy against the current contents.
func (g *Grid) computeHeight() int {
	if rows, ok := g.policy.Rows(); ok {
		return rows
	}
	bottom, area := 0, 0
	for _, e := range g.fixed {
		bottom = max(bottom, e.Bottom())
		area += e.Width * e.Height
	}
	for y := range g.rows {
		bottom = max(bottom, y+1)
	}
	if bottom*g.width-area-len(g.rows)*g.width <= 0 {
		bottom += DefaultElementHeight
	}
	return bottom
}

// =============================================================================
// Accessors
// =============================================================================

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the current number of rows, resolving an auto policy.
func (g *Grid) Height() int { return g.height }

// HeightPolicy returns the height policy the grid was built with.
func (g *Grid) HeightPolicy() Height { return g.policy }

// Registry returns the template registry the grid resolves against.
func (g *Grid) Registry() widget.Registry { return g.reg }

// TemplateOf resolves the template of inst. Unregistered templates resolve
// to a broken-widget placeholder.
func (g *Grid) TemplateOf(inst *widget.Instance) *widget.Template {
	return widget.Resolve(g.reg, inst)
}

// NonEmptyElements returns the placed elements in insertion order.
func (g *Grid) NonEmptyElements() []Element {
	return slices.Clone(g.fixed)
}

// As2DArray returns the occupancy table indexed [x][y]. Unoccupied cells are
// nil. The returned table is a copy.
func (g *Grid) As2DArray() [][]*widget.Instance {
	out := make([][]*widget.Instance, len(g.cells))
	for x := range g.cells {
		out[x] = slices.Clone(g.cells[x])
	}
	return out
}

// MinSizeOf returns the minimum size of inst: the global minimum combined
// with the template's own minimum for the instance's settings and state.
func (g *Grid) MinSizeOf(inst *widget.Instance) widget.Size {
	return g.minSize(inst, widget.Resolve(g.reg, inst))
}

func (g *Grid) minSize(inst *widget.Instance, t *widget.Template) widget.Size {
	size := MinElementSize
	if own, ok := t.MinSize(inst.SettingsOf(t), inst.StateOf(t)); ok {
		size = size.Max(own)
	}
	return size
}

// MinResizableSize returns the tightest size the grid can be resized to
// without dropping content: the bounding box of all fixed elements and
// variable-height rows, and at least 1×1.
func (g *Grid) MinResizableSize() widget.Size {
	size := widget.Size{Width: 1, Height: 1}
	for _, e := range g.fixed {
		size.Width = max(size.Width, e.Right())
		size.Height = max(size.Height, e.Bottom())
	}
	for y := range g.rows {
		size.Height = max(size.Height, y+1)
	}
	return size
}

// Resize returns a grid with the given width and height policy. It rejects
// sizes below [Grid.MinResizableSize] and returns g itself when nothing
// changes.
func (g *Grid) Resize(width int, height Height) (*Grid, error) {
	if width == g.width && height == g.policy {
		return g, nil
	}
	minSize := g.MinResizableSize()
	if width < minSize.Width {
		return nil, errors.New(errors.ErrCodeInvalidOperation, "width must be at least %d, got %d", minSize.Width, width)
	}
	if rows, ok := height.Rows(); ok && rows < minSize.Height {
		return nil, errors.New(errors.ErrCodeInvalidOperation, "height must be at least %d, got %d", minSize.Height, rows)
	}
	return newGrid(g.reg, width, height, slices.Clone(g.fixed), g.cloneRows())
}

// cloneRows returns a copy of the variable-height rows suitable for handing
// to newGrid.
func (g *Grid) cloneRows() map[int][]*widget.Instance {
	out := make(map[int][]*widget.Instance, len(g.rows))
	for y, list := range g.rows {
		out[y] = slices.Clone(list)
	}
	return out
}
