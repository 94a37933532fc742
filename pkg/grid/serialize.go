package grid

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/matzehuels/widgetgrid/pkg/errors"
	"github.com/matzehuels/widgetgrid/pkg/widget"
)

const (
	// ClassName tags persisted grid documents. It is optional on read.
	ClassName = "WidgetInstanceGrid"
	// FormatVersion is the only document version this package reads and writes.
	FormatVersion = 1
)

// Document is the persisted form of a [Grid].
type Document struct {
	ClassName          string            `json:"className,omitempty"`
	Version            int               `json:"version"`
	Width              int               `json:"width"`
	HeightPolicy       Height            `json:"heightPolicy"`
	FixedElements      []ElementDocument `json:"fixedElements"`
	VariableHeightRows []RowDocument     `json:"variableHeightRows"`
}

// ElementDocument is a persisted fixed element. A nil Instance is accepted
// on read and skipped.
type ElementDocument struct {
	Instance *InstanceDocument `json:"instance"`
	X        int               `json:"x"`
	Y        int               `json:"y"`
	Width    int               `json:"width"`
	Height   int               `json:"height"`
}

// RowDocument is a persisted variable-height row.
type RowDocument struct {
	Y         int                `json:"y"`
	Instances []InstanceDocument `json:"instances"`
}

// InstanceDocument is a persisted widget instance. Overrides that are not
// set are omitted; a set override holding nil is written as null.
type InstanceDocument struct {
	ID               string
	TemplateID       string
	SettingsOverride widget.Override
	StateOverride    widget.Override
}

type instanceWire struct {
	ID               string           `json:"id"`
	TemplateID       string           `json:"templateId"`
	SettingsOverride *json.RawMessage `json:"settingsOverride,omitempty"`
	StateOverride    *json.RawMessage `json:"stateOverride,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (d InstanceDocument) MarshalJSON() ([]byte, error) {
	w := instanceWire{ID: d.ID, TemplateID: d.TemplateID}
	var err error
	if w.SettingsOverride, err = overrideJSON(d.SettingsOverride); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "instance %s settings", d.ID)
	}
	if w.StateOverride, err = overrideJSON(d.StateOverride); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "instance %s state", d.ID)
	}
	return json.Marshal(w)
}

func overrideJSON(o widget.Override) (*json.RawMessage, error) {
	if !o.Set {
		return nil, nil
	}
	data, err := json.Marshal(o.Value)
	if err != nil {
		return nil, err
	}
	raw := json.RawMessage(data)
	return &raw, nil
}

// UnmarshalJSON implements json.Unmarshaler. Override presence is decided by
// key, so an explicit null is kept as a set override.
func (d *InstanceDocument) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "instance must be an object")
	}
	if fields == nil {
		return errors.New(errors.ErrCodeInvalidFormat, "instance must be an object")
	}

	var out InstanceDocument
	for key, dst := range map[string]*string{"id": &out.ID, "templateId": &out.TemplateID} {
		raw, ok := fields[key]
		if !ok {
			return errors.New(errors.ErrCodeInvalidFormat, "instance is missing %q", key)
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "instance field %q must be a string", key)
		}
	}
	for key, dst := range map[string]*widget.Override{"settingsOverride": &out.SettingsOverride, "stateOverride": &out.StateOverride} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "instance %s field %q", out.ID, key)
		}
		*dst = widget.Some(v)
	}
	*d = out
	return nil
}

type documentWire struct {
	ClassName          *string        `json:"className"`
	Version            *int           `json:"version"`
	Width              *int           `json:"width"`
	HeightPolicy       *Height        `json:"heightPolicy"`
	FixedElements      *[]elementWire `json:"fixedElements"`
	VariableHeightRows []rowWire      `json:"variableHeightRows"`
}

type elementWire struct {
	Instance *InstanceDocument `json:"instance"`
	X        *int              `json:"x"`
	Y        *int              `json:"y"`
	Width    *int              `json:"width"`
	Height   *int              `json:"height"`
}

type rowWire struct {
	Y         *int                `json:"y"`
	Instances *[]InstanceDocument `json:"instances"`
}

// UnmarshalJSON implements json.Unmarshaler. The version is checked before
// anything else so that documents of a future version are reported as such
// rather than as malformed.
func (d *Document) UnmarshalJSON(data []byte) error {
	var probe struct {
		Version json.RawMessage `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "grid document must be an object")
	}
	if probe.Version == nil {
		return errors.New(errors.ErrCodeInvalidFormat, "grid document is missing \"version\"")
	}
	var version int
	if err := json.Unmarshal(probe.Version, &version); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "grid document version must be an integer")
	}
	if version != FormatVersion {
		return errors.New(errors.ErrCodeUnsupportedVersion, "grid document version %d is not supported (want %d)", version, FormatVersion)
	}

	var w documentWire
	if err := json.Unmarshal(data, &w); err != nil {
		if errors.GetCode(err) != "" {
			return err
		}
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "malformed grid document")
	}
	if w.ClassName != nil && *w.ClassName != ClassName {
		return errors.New(errors.ErrCodeInvalidFormat, "grid document className is %q, want %q", *w.ClassName, ClassName)
	}
	switch {
	case w.Width == nil:
		return errors.New(errors.ErrCodeInvalidFormat, "grid document is missing \"width\"")
	case w.HeightPolicy == nil:
		return errors.New(errors.ErrCodeInvalidFormat, "grid document is missing \"heightPolicy\"")
	case w.FixedElements == nil:
		return errors.New(errors.ErrCodeInvalidFormat, "grid document is missing \"fixedElements\"")
	}

	out := Document{Version: version, Width: *w.Width, HeightPolicy: *w.HeightPolicy}
	if w.ClassName != nil {
		out.ClassName = *w.ClassName
	}
	for i, e := range *w.FixedElements {
		if e.X == nil || e.Y == nil || e.Width == nil || e.Height == nil {
			return errors.New(errors.ErrCodeInvalidFormat, "fixed element %d needs x, y, width, and height", i)
		}
		out.FixedElements = append(out.FixedElements, ElementDocument{
			Instance: e.Instance,
			X:        *e.X,
			Y:        *e.Y,
			Width:    *e.Width,
			Height:   *e.Height,
		})
	}
	for i, r := range w.VariableHeightRows {
		if r.Y == nil || r.Instances == nil {
			return errors.New(errors.ErrCodeInvalidFormat, "variable-height row %d needs y and instances", i)
		}
		out.VariableHeightRows = append(out.VariableHeightRows, RowDocument{Y: *r.Y, Instances: *r.Instances})
	}
	*d = out
	return nil
}

// =============================================================================
// Encoding
// =============================================================================

// Serialize returns the persisted form of g. Before returning, the document
// is re-encoded, decoded, and compared against g; a mismatch means some
// value did not survive persistence and is reported as an internal error.
func (g *Grid) Serialize() (Document, error) {
	doc := g.document()

	data, err := json.Marshal(doc)
	if err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeInternal, err, "encode grid document")
	}
	var back Document
	if err := json.Unmarshal(data, &back); err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeInternal, err, "decode encoded grid document")
	}
	if diff := cmp.Diff(doc, back, documentCmpOpts...); diff != "" {
		return Document{}, errors.New(errors.ErrCodeInternal, "grid document changed when re-encoded (-want +got):\n%s", diff)
	}
	restored, err := FromDocument(g.reg, back)
	if err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeInternal, err, "restore encoded grid document")
	}
	if !Equal(g, restored) {
		return Document{}, errors.New(errors.ErrCodeInternal, "restored grid differs from the original")
	}
	return doc, nil
}

var documentCmpOpts = []cmp.Option{
	cmp.Comparer(func(a, b Height) bool { return a == b }),
	cmpopts.EquateEmpty(),
}

func (g *Grid) document() Document {
	doc := Document{
		ClassName:          ClassName,
		Version:            FormatVersion,
		Width:              g.width,
		HeightPolicy:       g.policy,
		FixedElements:      make([]ElementDocument, 0, len(g.fixed)),
		VariableHeightRows: []RowDocument{},
	}
	for _, e := range g.fixed {
		inst := instanceDocument(e.Instance)
		doc.FixedElements = append(doc.FixedElements, ElementDocument{
			Instance: &inst,
			X:        e.X,
			Y:        e.Y,
			Width:    e.Width,
			Height:   e.Height,
		})
	}
	for _, row := range g.VarHeightRows() {
		rd := RowDocument{Y: row.Y, Instances: make([]InstanceDocument, len(row.Instances))}
		for i, inst := range row.Instances {
			rd.Instances[i] = instanceDocument(inst)
		}
		doc.VariableHeightRows = append(doc.VariableHeightRows, rd)
	}
	return doc
}

func instanceDocument(inst *widget.Instance) InstanceDocument {
	return InstanceDocument{
		ID:               inst.ID,
		TemplateID:       inst.TemplateID,
		SettingsOverride: inst.Settings,
		StateOverride:    inst.State,
	}
}

// MarshalJSON implements json.Marshaler.
func (g *Grid) MarshalJSON() ([]byte, error) {
	doc, err := g.Serialize()
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// Marshal returns the indented JSON document of g.
func (g *Grid) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := g.WriteJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON writes the indented JSON document of g to w.
func (g *Grid) WriteJSON(w io.Writer) error {
	doc, err := g.Serialize()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteFile writes the document of g to path. The file is replaced
// atomically.
func (g *Grid) WriteFile(path string) error {
	data, err := g.Marshal()
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".widgetgrid-*.json")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create temp file for %s", path)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "replace %s", path)
	}
	return nil
}

// =============================================================================
// Decoding
// =============================================================================

// DecodeOption configures [FromSerialized] and friends.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	logger   *log.Logger
	onBroken func(inst *widget.Instance, message string)
}

// WithLogger logs a warning for every instance whose template is missing.
func WithLogger(l *log.Logger) DecodeOption {
	return func(c *decodeConfig) { c.logger = l }
}

// OnBroken calls fn for every instance whose template is missing.
func OnBroken(fn func(inst *widget.Instance, message string)) DecodeOption {
	return func(c *decodeConfig) { c.onBroken = fn }
}

// FromSerialized restores a grid from its JSON document. Templates are
// resolved through reg; instances of unregistered templates load as
// broken-widget placeholders.
func FromSerialized(reg widget.Registry, data []byte, opts ...DecodeOption) (*Grid, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		if errors.GetCode(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "malformed grid document")
	}
	return FromDocument(reg, doc, opts...)
}

// ReadJSON restores a grid from the JSON document read from r.
func ReadJSON(reg widget.Registry, r io.Reader, opts ...DecodeOption) (*Grid, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read grid document")
	}
	return FromSerialized(reg, data, opts...)
}

// ReadFile restores a grid from the JSON document at path.
func ReadFile(reg widget.Registry, path string, opts ...DecodeOption) (*Grid, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "layout %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read layout %s", path)
	}
	return FromSerialized(reg, data, opts...)
}

// FromDocument restores a grid from a decoded document.
func FromDocument(reg widget.Registry, doc Document, opts ...DecodeOption) (*Grid, error) {
	var cfg decodeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if doc.Version != FormatVersion {
		return nil, errors.New(errors.ErrCodeUnsupportedVersion, "grid document version %d is not supported (want %d)", doc.Version, FormatVersion)
	}
	if doc.ClassName != "" && doc.ClassName != ClassName {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "grid document className is %q, want %q", doc.ClassName, ClassName)
	}

	fixed := make([]Element, 0, len(doc.FixedElements))
	for _, e := range doc.FixedElements {
		if e.Instance == nil {
			continue
		}
		fixed = append(fixed, Element{
			Instance: e.Instance.instance(),
			X:        e.X,
			Y:        e.Y,
			Width:    e.Width,
			Height:   e.Height,
		})
	}

	rows := make(map[int][]*widget.Instance, len(doc.VariableHeightRows))
	for _, r := range doc.VariableHeightRows {
		if _, dup := rows[r.Y]; dup {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "variable-height row %d appears twice", r.Y)
		}
		if len(r.Instances) == 0 {
			continue
		}
		list := make([]*widget.Instance, len(r.Instances))
		for i := range r.Instances {
			list[i] = r.Instances[i].instance()
		}
		rows[r.Y] = list
	}

	g, err := newGrid(reg, doc.Width, doc.HeightPolicy, fixed, rows)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid grid document")
	}

	for _, inst := range g.Instances() {
		msg, broken := widget.IsBroken(g.TemplateOf(inst))
		if !broken {
			continue
		}
		if cfg.logger != nil {
			cfg.logger.Warn("widget template not found", "instance", inst.ID, "template", inst.TemplateID)
		}
		if cfg.onBroken != nil {
			cfg.onBroken(inst, msg)
		}
	}
	return g, nil
}

func (d InstanceDocument) instance() *widget.Instance {
	return &widget.Instance{
		ID:         d.ID,
		TemplateID: d.TemplateID,
		Settings:   d.SettingsOverride,
		State:      d.StateOverride,
	}
}

// =============================================================================
// Equality
// =============================================================================

type snapshot struct {
	Width  int
	Policy Height
	Fixed  []Element
	Rows   []VarHeightRow
}

func (g *Grid) snapshot() snapshot {
	fixed := slices.Clone(g.fixed)
	slices.SortFunc(fixed, func(a, b Element) int {
		if a.Y != b.Y {
			return a.Y - b.Y
		}
		return a.X - b.X
	})
	return snapshot{Width: g.width, Policy: g.policy, Fixed: fixed, Rows: g.VarHeightRows()}
}

// Equal reports whether a and b hold the same layout: width, height policy,
// fixed elements regardless of insertion order, and variable-height rows.
func Equal(a, b *Grid) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return cmp.Equal(a.snapshot(), b.snapshot(), documentCmpOpts...)
}
