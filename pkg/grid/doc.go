// Package grid implements the widget-grid layout engine.
//
// # Overview
//
// A [Grid] places rectangular widget instances on a unit-based grid that is
// [Grid.Width] columns wide and [Grid.Height] rows tall, and additionally
// holds full-width variable-height rows interleaved between grid rows. The
// engine computes collision-free placements, minimum-size-aware resizes,
// swaps, gap filling, and a versioned persistence format. It renders nothing
// itself.
//
// # Immutability
//
// A Grid is an immutable value. Every mutator (WithX) returns a new Grid and
// leaves the receiver untouched, so a published Grid can be read from several
// goroutines. Callers applying edits concurrently must serialize them
// themselves: compute next := current.WithX(...) from one snapshot and
// replace current atomically.
//
//	g, err := grid.FromInstances(reg, []*widget.Instance{a, b, c}, grid.Options{})
//	if err != nil {
//	    return err
//	}
//	delta, err := g.ClampElementResize(0, 0, grid.Edges{Right: 4})
//	if err != nil {
//	    return err
//	}
//	g, err = g.WithResizedElement(0, 0, delta)
//
// # Invariants
//
// Every construction validates:
//
//  1. Instance ids are unique across the fixed grid and all variable-height rows.
//  2. Fixed elements are at least [MinElementWidth]×[MinElementHeight] and at
//     least the instance's own minimum size.
//  3. Fixed elements lie within the grid when its height is fixed.
//  4. Height-variable templates appear only in variable-height rows, and other
//     templates only in the fixed grid.
//  5. Settings and state, both defaults and overrides, are serializable.
//  6. Fixed elements don't overlap each other and don't cover a grid row that
//     is claimed by a variable-height row.
//
// A violation is reported as an INVALID_LAYOUT error. It is never produced by
// a sequence of valid public operations and indicates a bug in the caller.
//
// # Empty Slots
//
// [Grid.Elements] returns the placed elements followed by transient empty
// elements covering all unplaced area, so that together they tile the grid
// without gaps or overlaps. Empty elements are never persisted.
//
// # Persistence
//
// [Grid.Serialize] produces a version 1 [Document]; [FromSerialized] and
// [FromDocument] restore it. Templates are resolved through the caller's
// registry at load time. A template that is no longer registered does not
// fail the load: its instances become broken-widget placeholders that keep
// their id, position, and size.
package grid
