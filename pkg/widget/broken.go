package widget

import "fmt"

// BrokenWidget renders the error message of a widget whose template could not
// be resolved or loaded.
type BrokenWidget struct {
	Message string
}

// Render implements [Renderer].
func (b BrokenWidget) Render(RenderProps) string {
	return b.Message
}

// Broken returns a placeholder template standing in for templateID.
//
// The placeholder keeps the original id so that a layout referencing a
// since-removed template still persists unchanged. It has no defaults and the
// global minimum size, and the engine accepts it both in the fixed grid and in
// variable-height rows.
func Broken(templateID, message string) *Template {
	return &Template{
		ID:     templateID,
		Widget: BrokenWidget{Message: message},
	}
}

// IsBroken reports whether t is a broken-widget placeholder and returns its
// error message.
func IsBroken(t *Template) (string, bool) {
	if t == nil {
		return "", false
	}
	b, ok := t.Widget.(BrokenWidget)
	if !ok {
		return "", false
	}
	return b.Message, true
}

// MissingTemplateMessage is the message carried by placeholders of templates
// that are no longer registered.
func MissingTemplateMessage(templateID string) string {
	return fmt.Sprintf("widget template %q not found; was it deleted?", templateID)
}
