package widget

import (
	"github.com/google/uuid"

	"github.com/matzehuels/widgetgrid/pkg/errors"
)

// Override is an optional settings or state value.
//
// An unset Override means "use the template default": if the default changes
// later, so does the effective value. A set Override holding nil is a real
// null value and is persisted as such.
type Override struct {
	Value any
	Set   bool
}

// Some returns a set Override holding v.
func Some(v any) Override {
	return Override{Value: v, Set: true}
}

// Or returns the override value if set, otherwise def.
func (o Override) Or(def any) any {
	if o.Set {
		return o.Value
	}
	return def
}

// Instance is a concrete, identified placement of a widget template.
//
// Instances are plain values. The template is referenced by id and resolved
// through a [Registry] whenever it is needed.
type Instance struct {
	ID         string
	TemplateID string
	Settings   Override
	State      Override
}

// New creates an instance of the given template with a fresh random id and
// no overrides.
func New(templateID string) *Instance {
	return &Instance{ID: uuid.NewString(), TemplateID: templateID}
}

// NewWithID creates an instance with a caller-chosen id.
func NewWithID(id, templateID string) *Instance {
	return &Instance{ID: id, TemplateID: templateID}
}

// Validate checks the instance id and template id.
func (i *Instance) Validate() error {
	if i == nil {
		return errors.New(errors.ErrCodeInvalidInput, "instance is nil")
	}
	if err := errors.ValidateInstanceID(i.ID); err != nil {
		return err
	}
	return errors.ValidateTemplateID(i.TemplateID)
}

// SettingsOf returns the effective settings of i for template t.
func (i *Instance) SettingsOf(t *Template) any {
	return i.Settings.Or(t.DefaultSettings)
}

// StateOf returns the effective state of i for template t.
func (i *Instance) StateOf(t *Template) any {
	return i.State.Or(t.DefaultState)
}

// WithSettings returns a copy of i with the settings override set to v.
func (i *Instance) WithSettings(v any) *Instance {
	c := *i
	c.Settings = Some(v)
	return &c
}

// WithState returns a copy of i with the state override set to v.
func (i *Instance) WithState(v any) *Instance {
	c := *i
	c.State = Some(v)
	return &c
}

// Normalized returns a copy of i whose overrides are in canonical form.
// It fails if an override is not serializable.
func (i *Instance) Normalized() (*Instance, error) {
	c := *i
	for _, o := range []*Override{&c.Settings, &c.State} {
		if !o.Set {
			continue
		}
		v, err := Normalize(o.Value)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "instance %s", i.ID)
		}
		o.Value = v
	}
	return &c, nil
}

// Resolve looks up the template of inst in reg. It never fails: a missing
// template resolves to a broken-widget placeholder carrying an error message.
func Resolve(reg Registry, inst *Instance) *Template {
	if reg != nil {
		if t, ok := reg.Lookup(inst.TemplateID); ok {
			return t
		}
	}
	return Broken(inst.TemplateID, MissingTemplateMessage(inst.TemplateID))
}
