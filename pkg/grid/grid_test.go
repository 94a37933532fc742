package grid

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/widgetgrid/pkg/errors"
	"github.com/matzehuels/widgetgrid/pkg/widget"
)

func testRegistry(t *testing.T) *widget.MapRegistry {
	t.Helper()
	reg, err := widget.NewRegistry(
		&widget.Template{ID: "card", Widget: widget.Card{Title: "Card"}},
		&widget.Template{ID: "big", Widget: widget.SizedCard{Card: widget.Card{Title: "Big"}, Min: widget.Size{Width: 6, Height: 4}}},
		&widget.Template{ID: "notes", Widget: widget.Card{Title: "Notes"}, HeightVariable: true},
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func card(id string) *widget.Instance  { return widget.NewWithID(id, "card") }
func big(id string) *widget.Instance   { return widget.NewWithID(id, "big") }
func notes(id string) *widget.Instance { return widget.NewWithID(id, "notes") }

func el(inst *widget.Instance, x, y, w, h int) Element {
	return Element{Instance: inst, X: x, Y: y, Width: w, Height: h}
}

func mustGrid(t *testing.T, reg widget.Registry, width int, height Height, fixed []Element, rows map[int][]*widget.Instance) *Grid {
	t.Helper()
	g, err := newGrid(reg, width, height, fixed, rows)
	if err != nil {
		t.Fatalf("newGrid: %v", err)
	}
	return g
}

// assertTiles checks that Elements covers every cell exactly once.
func assertTiles(t *testing.T, g *Grid) {
	t.Helper()
	count := make([][]int, g.Width())
	for x := range count {
		count[x] = make([]int, g.Height())
	}
	for _, e := range g.Elements() {
		if e.X < 0 || e.Y < 0 || e.Right() > g.Width() || e.Bottom() > g.Height() {
			t.Fatalf("element %s is outside the %dx%d grid", e, g.Width(), g.Height())
		}
		for x := e.X; x < e.Right(); x++ {
			for y := e.Y; y < e.Bottom(); y++ {
				count[x][y]++
			}
		}
	}
	for x := range count {
		for y, n := range count[x] {
			if n != 1 {
				t.Fatalf("cell (%d,%d) is covered %d times", x, y, n)
			}
		}
	}
}

func TestFromInstancesAutoLayout(t *testing.T) {
	reg := testRegistry(t)
	g, err := FromInstances(reg, []*widget.Instance{card("a"), card("b"), card("c")}, Options{})
	if err != nil {
		t.Fatalf("FromInstances: %v", err)
	}

	want := []Element{
		el(g.fixed[0].Instance, 0, 0, 12, 8),
		el(g.fixed[1].Instance, 12, 0, 12, 8),
		el(g.fixed[2].Instance, 0, 8, 12, 8),
	}
	if diff := cmp.Diff(want, g.NonEmptyElements()); diff != "" {
		t.Errorf("elements mismatch (-want +got):\n%s", diff)
	}
	if g.Width() != DefaultWidth {
		t.Errorf("Width() = %d, want %d", g.Width(), DefaultWidth)
	}
	if g.Height() != 16 {
		t.Errorf("Height() = %d, want 16", g.Height())
	}
	if diff := cmp.Diff([]Element{{X: 12, Y: 8, Width: 12, Height: 8}}, g.EmptyElements()); diff != "" {
		t.Errorf("empty elements mismatch (-want +got):\n%s", diff)
	}
}

func TestFromInstancesNarrowGrid(t *testing.T) {
	reg := testRegistry(t)
	g, err := FromInstances(reg, []*widget.Instance{card("a"), card("b")}, Options{Width: 10})
	if err != nil {
		t.Fatalf("FromInstances: %v", err)
	}
	a, _ := g.ElementByInstanceID("a")
	b, _ := g.ElementByInstanceID("b")
	if a.X != 0 || a.Y != 0 || a.Width != 10 || b.X != 0 || b.Y != 8 {
		t.Errorf("narrow layout: a=%s b=%s", a, b)
	}
	assertTiles(t, g)
}

func TestFromInstancesHeightVariable(t *testing.T) {
	reg := testRegistry(t)
	g, err := FromInstances(reg, []*widget.Instance{card("a"), notes("n1"), card("b"), notes("n2")}, Options{})
	if err != nil {
		t.Fatalf("FromInstances: %v", err)
	}
	rows := g.VarHeightRows()
	if len(rows) != 1 || rows[0].Y != 8 {
		t.Fatalf("VarHeightRows() = %v, want one row at 8", rows)
	}
	if rows[0].Instances[0].ID != "n1" || rows[0].Instances[1].ID != "n2" {
		t.Errorf("row order = %v", rows[0].Instances)
	}
	if b, _ := g.ElementByInstanceID("b"); b.X != 12 || b.Y != 0 {
		t.Errorf("b = %s, want at (12,0)", b)
	}
	assertTiles(t, g)
}

func TestEmptyGrid(t *testing.T) {
	g, err := Empty(testRegistry(t), Options{})
	if err != nil {
		t.Fatalf("Empty: %v", err)
	}
	if g.Height() != DefaultElementHeight {
		t.Errorf("Height() = %d, want %d", g.Height(), DefaultElementHeight)
	}
	if got := len(g.EmptyElements()); got != 2 {
		t.Errorf("empty grid has %d empty elements, want 2", got)
	}
	if s := g.MinResizableSize(); s != (widget.Size{Width: 1, Height: 1}) {
		t.Errorf("MinResizableSize() = %v, want 1x1", s)
	}
	assertTiles(t, g)
}

func TestElementsTile(t *testing.T) {
	reg := testRegistry(t)
	grids := map[string]*Grid{
		"mixed sizes": mustGrid(t, reg, 24, AutoHeight(), []Element{
			el(card("a"), 0, 0, 5, 3),
			el(card("b"), 7, 1, 4, 9),
			el(big("c"), 15, 4, 9, 6),
		}, nil),
		"fixed height": mustGrid(t, reg, 17, FixedHeight(30), []Element{
			el(card("a"), 3, 3, 4, 2),
			el(card("b"), 13, 20, 4, 10),
		}, nil),
		"claimed rows": mustGrid(t, reg, 24, AutoHeight(), []Element{
			el(card("a"), 0, 0, 12, 8),
			el(card("b"), 4, 10, 6, 4),
		}, map[int][]*widget.Instance{8: {notes("n1")}, 9: {notes("n2")}, 20: {notes("n3")}}),
		"single column": mustGrid(t, reg, 4, AutoHeight(), []Element{el(card("a"), 0, 0, 4, 2)}, nil),
	}
	for name, g := range grids {
		t.Run(name, func(t *testing.T) {
			assertTiles(t, g)
			for _, e := range g.EmptyElements() {
				if e.Width > DefaultElementWidth || e.Height > DefaultElementHeight {
					t.Errorf("empty element %s exceeds the default element size", e)
				}
				for y := e.Y; y < e.Bottom(); y++ {
					if _, claimed := g.rows[y]; claimed && e.Height != 1 {
						t.Errorf("empty element %s spans claimed row %d", e, y)
					}
				}
			}
		})
	}
}

func TestNewGridInvariants(t *testing.T) {
	reg := testRegistry(t)
	tests := []struct {
		name   string
		width  int
		height Height
		fixed  []Element
		rows   map[int][]*widget.Instance
	}{
		{"zero width", 0, AutoHeight(), nil, nil},
		{"overlap", 24, AutoHeight(), []Element{el(card("a"), 0, 0, 12, 8), el(card("b"), 8, 4, 12, 8)}, nil},
		{"out of bounds right", 24, AutoHeight(), []Element{el(card("a"), 16, 0, 12, 8)}, nil},
		{"negative origin", 24, AutoHeight(), []Element{el(card("a"), -1, 0, 12, 8)}, nil},
		{"out of bounds bottom", 24, FixedHeight(6), []Element{el(card("a"), 0, 0, 12, 8)}, nil},
		{"below global minimum", 24, AutoHeight(), []Element{el(card("a"), 0, 0, 3, 8)}, nil},
		{"below template minimum", 24, AutoHeight(), []Element{el(big("a"), 0, 0, 5, 4)}, nil},
		{"duplicate fixed ids", 24, AutoHeight(), []Element{el(card("a"), 0, 0, 12, 8), el(card("a"), 12, 0, 12, 8)}, nil},
		{"duplicate across storages", 24, AutoHeight(), []Element{el(card("a"), 0, 0, 12, 8)}, map[int][]*widget.Instance{8: {widget.NewWithID("a", "notes")}}},
		{"height-variable in fixed grid", 24, AutoHeight(), []Element{el(notes("n"), 0, 0, 12, 8)}, nil},
		{"fixed-size in row", 24, AutoHeight(), nil, map[int][]*widget.Instance{0: {card("a")}}},
		{"element covers claimed row", 24, AutoHeight(), []Element{el(card("a"), 0, 0, 12, 8)}, map[int][]*widget.Instance{4: {notes("n")}}},
		{"row out of fixed height", 24, FixedHeight(8), nil, map[int][]*widget.Instance{8: {notes("n")}}},
		{"empty row", 24, AutoHeight(), nil, map[int][]*widget.Instance{0: {}}},
		{"negative row", 24, AutoHeight(), nil, map[int][]*widget.Instance{-1: {notes("n")}}},
		{"nil instance", 24, AutoHeight(), []Element{el(nil, 0, 0, 12, 8)}, nil},
		{"empty instance id", 24, AutoHeight(), []Element{el(card(""), 0, 0, 12, 8)}, nil},
		{"unserializable settings", 24, AutoHeight(), []Element{el(card("a").WithSettings(func() {}), 0, 0, 12, 8)}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newGrid(reg, tt.width, tt.height, tt.fixed, tt.rows)
			if !errors.Is(err, errors.ErrCodeInvalidLayout) {
				t.Errorf("newGrid error = %v, want INVALID_LAYOUT", err)
			}
			if err != nil && !errors.IsCallerBug(err) {
				t.Errorf("invariant violation should be reported as a caller bug: %v", err)
			}
		})
	}
}

func TestBrokenTemplatesAllowedInBothStorages(t *testing.T) {
	reg := testRegistry(t)
	g := mustGrid(t, reg, 24, AutoHeight(),
		[]Element{el(widget.NewWithID("a", "gone"), 0, 0, 12, 8)},
		map[int][]*widget.Instance{8: {widget.NewWithID("b", "gone-too")}})
	if _, broken := widget.IsBroken(g.TemplateOf(g.fixed[0].Instance)); !broken {
		t.Error("unregistered template should resolve to a broken widget")
	}
}

func TestElementAt(t *testing.T) {
	reg := testRegistry(t)
	g, _ := FromInstances(reg, []*widget.Instance{card("a"), card("b")}, Options{})

	e, err := g.ElementAt(5, 5)
	if err != nil {
		t.Fatalf("ElementAt: %v", err)
	}
	if e.IsEmpty() || e.Instance.ID != "a" {
		t.Errorf("ElementAt(5,5) = %s, want a", e)
	}
	e, _ = g.ElementAt(20, 10)
	if !e.IsEmpty() || !e.Contains(20, 10) {
		t.Errorf("ElementAt(20,10) = %s, want an empty element covering the cell", e)
	}

	for _, c := range [][2]int{{-1, 0}, {0, -1}, {24, 0}, {0, g.Height()}} {
		if _, err := g.ElementAt(c[0], c[1]); !errors.Is(err, errors.ErrCodeNotFound) {
			t.Errorf("ElementAt(%d,%d) error = %v, want NOT_FOUND", c[0], c[1], err)
		}
	}

	arr := g.As2DArray()
	if len(arr) != 24 || len(arr[0]) != g.Height() {
		t.Fatalf("As2DArray() is %dx%d", len(arr), len(arr[0]))
	}
	if arr[13][2] == nil || arr[13][2].ID != "b" || arr[13][9] != nil {
		t.Error("As2DArray() occupancy mismatch")
	}
	arr[0][0] = nil
	if g.As2DArray()[0][0] == nil {
		t.Error("As2DArray() must return a copy")
	}
}

func TestInstanceLookups(t *testing.T) {
	reg := testRegistry(t)
	g, _ := FromInstances(reg, []*widget.Instance{card("a"), notes("n")}, Options{})

	if inst, err := g.InstanceByID("a"); err != nil || inst.ID != "a" {
		t.Errorf("InstanceByID(a) = %v, %v", inst, err)
	}
	if inst, err := g.InstanceByID("n"); err != nil || inst.ID != "n" {
		t.Errorf("InstanceByID(n) = %v, %v", inst, err)
	}
	if _, err := g.InstanceByID("missing"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("InstanceByID(missing) error = %v, want NOT_FOUND", err)
	}
	if _, ok := g.ElementByInstanceID("n"); ok {
		t.Error("ElementByInstanceID should only find fixed elements")
	}
	if _, y, err := g.VarHeightInstanceByID("n"); err != nil || y != 8 {
		t.Errorf("VarHeightInstanceByID(n) = %d, %v; want row 8", y, err)
	}
	if _, _, err := g.VarHeightInstanceByID("a"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("VarHeightInstanceByID(a) error = %v, want NOT_FOUND", err)
	}
}

func TestMinSizeOf(t *testing.T) {
	reg := testRegistry(t)
	g, _ := Empty(reg, Options{})
	if got := g.MinSizeOf(card("a")); got != MinElementSize {
		t.Errorf("MinSizeOf(card) = %v, want global minimum", got)
	}
	if got := g.MinSizeOf(big("b")); got != (widget.Size{Width: 6, Height: 4}) {
		t.Errorf("MinSizeOf(big) = %v, want 6x4", got)
	}
}

func TestResize(t *testing.T) {
	reg := testRegistry(t)
	g, _ := FromInstances(reg, []*widget.Instance{card("a"), card("b"), card("c")}, Options{})

	if s := g.MinResizableSize(); s != (widget.Size{Width: 24, Height: 16}) {
		t.Fatalf("MinResizableSize() = %v, want 24x16", s)
	}
	if same, err := g.Resize(24, AutoHeight()); err != nil || same != g {
		t.Errorf("Resize to the same size should return the receiver, got %p, %v", same, err)
	}

	bigger, err := g.Resize(30, FixedHeight(20))
	if err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if bigger.Width() != 30 || bigger.Height() != 20 || bigger.HeightPolicy() != FixedHeight(20) {
		t.Errorf("resized grid is %dx%d (%s)", bigger.Width(), bigger.Height(), bigger.HeightPolicy())
	}
	assertTiles(t, bigger)

	for _, tt := range []struct {
		width  int
		height Height
	}{{12, AutoHeight()}, {24, FixedHeight(15)}, {0, AutoHeight()}} {
		if _, err := g.Resize(tt.width, tt.height); !errors.Is(err, errors.ErrCodeInvalidOperation) {
			t.Errorf("Resize(%d, %s) error = %v, want INVALID_OPERATION", tt.width, tt.height, err)
		}
	}
}

func TestHeightJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    Height
		wantErr bool
	}{
		{`"auto"`, AutoHeight(), false},
		{`12`, FixedHeight(12), false},
		{`"tall"`, Height{}, true},
		{`0`, Height{}, true},
		{`-3`, Height{}, true},
		{`true`, Height{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var h Height
			err := h.UnmarshalJSON([]byte(tt.in))
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidFormat) {
					t.Errorf("UnmarshalJSON(%s) error = %v, want INVALID_FORMAT", tt.in, err)
				}
				return
			}
			if err != nil || h != tt.want {
				t.Fatalf("UnmarshalJSON(%s) = %v, %v", tt.in, h, err)
			}
			out, _ := h.MarshalJSON()
			if string(out) != tt.in {
				t.Errorf("MarshalJSON() = %s, want %s", out, tt.in)
			}
		})
	}

	if h, err := ParseHeight("7"); err != nil || h != FixedHeight(7) {
		t.Errorf("ParseHeight(7) = %v, %v", h, err)
	}
	if _, err := ParseHeight("x"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("ParseHeight(x) error = %v, want INVALID_INPUT", err)
	}
}
