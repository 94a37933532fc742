package widget

import (
	"slices"
	"sync"

	"github.com/matzehuels/widgetgrid/pkg/errors"
)

// Registry resolves template ids to templates.
//
// Registries are owned by the host application. The engine only ever looks
// templates up; it never keeps them beyond a single operation.
type Registry interface {
	Lookup(id string) (*Template, bool)
}

// MapRegistry is an in-memory [Registry].
//
// Templates may be registered, replaced, or removed at any time, so a
// MapRegistry is safe for concurrent use.
type MapRegistry struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewRegistry creates a registry holding the given templates.
// It returns an error if a template is invalid or an id is registered twice.
func NewRegistry(templates ...*Template) (*MapRegistry, error) {
	r := &MapRegistry{templates: make(map[string]*Template, len(templates))}
	for _, t := range templates {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a template. Registering an id that already exists fails;
// use [MapRegistry.Replace] to hot-reload a template.
func (r *MapRegistry) Register(t *Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.templates[t.ID]; exists {
		return errors.New(errors.ErrCodeInvalidTemplate, "template %s is already registered", t.ID)
	}
	r.templates[t.ID] = t
	return nil
}

// Replace registers t, replacing any template with the same id.
func (r *MapRegistry) Replace(t *Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.ID] = t
	return nil
}

// Remove deletes the template with the given id. It reports whether the
// template existed. Instances referencing it resolve to a broken widget
// from then on.
func (r *MapRegistry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.templates[id]
	delete(r.templates, id)
	return ok
}

// Lookup implements [Registry].
func (r *MapRegistry) Lookup(id string) (*Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[id]
	return t, ok
}

// IDs returns the registered template ids in sorted order.
func (r *MapRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of registered templates.
func (r *MapRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}

// Layered resolves ids against each registry in order and returns the first
// match. It lets a host stack built-in templates under user catalogs.
type Layered []Registry

// Lookup implements [Registry].
func (l Layered) Lookup(id string) (*Template, bool) {
	for _, r := range l {
		if r == nil {
			continue
		}
		if t, ok := r.Lookup(id); ok {
			return t, true
		}
	}
	return nil, false
}

var (
	_ Registry = (*MapRegistry)(nil)
	_ Registry = Layered(nil)
)
