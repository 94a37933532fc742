package grid

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/widgetgrid/pkg/errors"
	"github.com/matzehuels/widgetgrid/pkg/widget"
)

// SubGridTemplateID is the id of the nested-grid template.
const SubGridTemplateID = "$sub-grid"

// subGridStateKey holds the nested document inside the sub-grid state.
const subGridStateKey = "serializedGrid"

type subGridWidget struct {
	reg widget.Registry
}

func (w subGridWidget) Render(p widget.RenderProps) string {
	g, err := SubGrid(w.reg, p.State)
	if err != nil {
		return "sub-grid: " + errors.UserMessage(err)
	}
	return fmt.Sprintf("sub-grid %dx%d, %d instances", g.Width(), g.Height(), len(g.Instances()))
}

// MinSize is one unit larger in each direction than the nested grid's
// content, so the nested elements always stay visible.
func (w subGridWidget) MinSize(_, state any) widget.Size {
	g, err := SubGrid(w.reg, state)
	if err != nil {
		return widget.Size{}
	}
	s := g.MinResizableSize()
	return widget.Size{Width: s.Width + 1, Height: s.Height + 1}
}

// SubGridTemplate returns a template whose state holds a nested grid
// document. Nested instances resolve through reg, which usually is a
// registry that includes the returned template itself.
//
// The default state is an empty nested grid of one column and one row.
func SubGridTemplate(reg widget.Registry) *widget.Template {
	return &widget.Template{
		ID:              SubGridTemplateID,
		Widget:          subGridWidget{reg: reg},
		DefaultSettings: map[string]any{},
		DefaultState:    map[string]any{subGridStateKey: emptySubGridDocument()},
		HasSubGrid:      true,
	}
}

func emptySubGridDocument() any {
	doc := Document{
		ClassName:          ClassName,
		Version:            FormatVersion,
		Width:              1,
		HeightPolicy:       FixedHeight(1),
		FixedElements:      []ElementDocument{},
		VariableHeightRows: []RowDocument{},
	}
	v, err := widget.Normalize(documentValue(doc))
	if err != nil {
		panic(err) // static document
	}
	return v
}

// documentValue converts doc into plain JSON data.
func documentValue(doc Document) any {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	return v
}

// SubGrid decodes the nested grid held in a sub-grid state value.
func SubGrid(reg widget.Registry, state any) (*Grid, error) {
	m, ok := state.(map[string]any)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "sub-grid state must be an object, got %T", state)
	}
	raw, ok := m[subGridStateKey]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "sub-grid state is missing %q", subGridStateKey)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "encode nested grid")
	}
	return FromSerialized(reg, data)
}

// WithSubGrid returns a copy of state holding g as its nested grid.
func WithSubGrid(state any, g *Grid) (any, error) {
	doc, err := g.Serialize()
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if m, ok := state.(map[string]any); ok {
		for k, v := range m {
			out[k] = v
		}
	}
	out[subGridStateKey] = documentValue(doc)
	return widget.Normalize(out)
}
