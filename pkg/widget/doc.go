// Package widget defines widget templates, the registry that resolves them,
// and the widget instances placed on a grid.
//
// # Templates and Capabilities
//
// A [Template] is the immutable definition of a widget kind. Its behavior is a
// capability set rather than a type hierarchy: every template carries a
// [Renderer], and may additionally implement [SettingsEditor] and [MinSizer].
// Capabilities are discovered with type assertions, so a widget either has one
// or it doesn't:
//
//	type clock struct{}
//
//	func (clock) Render(p widget.RenderProps) string { return time.Now().Format(time.Kitchen) }
//	func (clock) MinSize(settings, state any) widget.Size { return widget.Size{Width: 6, Height: 2} }
//
// # Instances
//
// An [Instance] references its template by id. The reference is resolved
// through a [Registry] owned by the caller, never through a pointer, so
// templates can be hot-reloaded or removed without touching stored layouts.
// When a template disappears, [Resolve] substitutes a broken-widget
// placeholder (see [Broken]) instead of failing.
//
// # Values
//
// Default settings and state, as well as instance overrides, must be plain
// serializable data: nil, booleans, numbers, strings, []any and
// map[string]any. [IsSerializable] checks that constraint and [Normalize]
// converts a value to the canonical form used by persisted layouts.
package widget
