package widget

import (
	"github.com/matzehuels/widgetgrid/pkg/errors"
)

// Size is a width and height measured in grid units.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Max returns the component-wise maximum of s and o.
func (s Size) Max(o Size) Size {
	return Size{Width: max(s.Width, o.Width), Height: max(s.Height, o.Height)}
}

// Fits reports whether s is at least as large as min in both dimensions.
func (s Size) Fits(min Size) bool {
	return s.Width >= min.Width && s.Height >= min.Height
}

// RenderProps is everything a widget receives when the host renders it.
// The engine never renders widgets itself; it only defines this contract.
type RenderProps struct {
	Settings any
	State    any
	// SetState asks the host to replace the instance state with the result
	// of applying the updater to the current state.
	SetState func(updater func(state any) any)
	// Width and Height are the size of the instance's rectangle in grid units.
	Width  int
	Height int
	// SingleColumn is set when the host collapses the grid into one column.
	SingleColumn bool
}

// Renderer is the capability every widget must provide.
type Renderer interface {
	Render(props RenderProps) string
}

// SettingsEditor is the optional capability of widgets with editable settings.
type SettingsEditor interface {
	RenderSettings(settings any, setSettings func(updater func(settings any) any)) string
}

// MinSizer is the optional capability of widgets that need more room than the
// global minimum element size. The returned size may depend on the current
// settings and state.
type MinSizer interface {
	MinSize(settings, state any) Size
}

// Template is the immutable definition of a widget kind.
//
// Templates are registered with a [Registry] by the host application. The
// zero value is not usable: ID and Widget must be set.
type Template struct {
	ID     string
	Widget Renderer

	DefaultSettings any
	DefaultState    any

	// HasSubGrid marks widgets that keep a nested grid document in their
	// state. It is informational; the engine treats the state as opaque.
	HasSubGrid bool
	// HeightVariable marks widgets that must live in a variable-height row
	// and never in the fixed grid.
	HeightVariable bool
}

// Validate checks that the template is usable: a valid id, a renderer, and
// serializable defaults.
func (t *Template) Validate() error {
	if t == nil {
		return errors.New(errors.ErrCodeInvalidTemplate, "template is nil")
	}
	if err := errors.ValidateTemplateID(t.ID); err != nil {
		return err
	}
	if t.Widget == nil {
		return errors.New(errors.ErrCodeInvalidTemplate, "template %s has no renderer", t.ID)
	}
	if !IsSerializable(t.DefaultSettings) {
		return errors.New(errors.ErrCodeInvalidTemplate, "template %s: default settings must be serializable", t.ID)
	}
	if !IsSerializable(t.DefaultState) {
		return errors.New(errors.ErrCodeInvalidTemplate, "template %s: default state must be serializable", t.ID)
	}
	return nil
}

// MinSize returns the widget's own minimum size for the given settings and
// state, and false when the widget has no [MinSizer] capability.
func (t *Template) MinSize(settings, state any) (Size, bool) {
	ms, ok := t.Widget.(MinSizer)
	if !ok {
		return Size{}, false
	}
	return ms.MinSize(settings, state), true
}

// SettingsEditor returns the widget's settings editor, if it has one.
func (t *Template) SettingsEditor() (SettingsEditor, bool) {
	se, ok := t.Widget.(SettingsEditor)
	return se, ok
}
