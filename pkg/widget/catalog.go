package widget

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/widgetgrid/pkg/errors"
)

// Catalog is the on-disk description of a set of card templates.
//
// TOML:
//
//	[[template]]
//	id = "sales"
//	title = "Sales this week"
//	min_width = 6
//	min_height = 4
//
//	[template.settings]
//	currency = "EUR"
//
// YAML uses the same keys under a top-level "template" list.
type Catalog struct {
	Templates []CatalogEntry `toml:"template" yaml:"template"`
}

// CatalogEntry describes one card template.
type CatalogEntry struct {
	ID             string         `toml:"id" yaml:"id"`
	Title          string         `toml:"title" yaml:"title"`
	MinWidth       int            `toml:"min_width" yaml:"min_width"`
	MinHeight      int            `toml:"min_height" yaml:"min_height"`
	HasSubGrid     bool           `toml:"has_sub_grid" yaml:"has_sub_grid"`
	HeightVariable bool           `toml:"height_variable" yaml:"height_variable"`
	Settings       map[string]any `toml:"settings" yaml:"settings"`
	State          map[string]any `toml:"state" yaml:"state"`
}

// LoadCatalog reads a catalog file. The format is chosen by extension:
// .toml, or .yaml / .yml.
func LoadCatalog(path string) ([]*Template, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "catalog %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read catalog %s", path)
	}

	var cat Catalog
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, &cat); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse catalog %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cat); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse catalog %s", path)
		}
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "catalog %s: unsupported extension %q", path, ext)
	}
	return cat.Build()
}

// Build converts the catalog entries into templates.
func (c Catalog) Build() ([]*Template, error) {
	out := make([]*Template, 0, len(c.Templates))
	for _, e := range c.Templates {
		t, err := e.Template()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Template converts the entry into a validated template.
func (e CatalogEntry) Template() (*Template, error) {
	title := e.Title
	if title == "" {
		title = e.ID
	}

	var w Renderer = Card{Title: title}
	if e.MinWidth > 0 || e.MinHeight > 0 {
		w = SizedCard{Card: Card{Title: title}, Min: Size{Width: e.MinWidth, Height: e.MinHeight}}
	}

	settings, err := plainValue(e.Settings)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTemplate, err, "template %s settings", e.ID)
	}
	state, err := plainValue(e.State)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTemplate, err, "template %s state", e.ID)
	}

	t := &Template{
		ID:              e.ID,
		Widget:          w,
		DefaultSettings: settings,
		DefaultState:    state,
		HasSubGrid:      e.HasSubGrid,
		HeightVariable:  e.HeightVariable,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// plainValue converts decoder output (TOML datetimes, arrays of tables, ...)
// into plain JSON data. An empty map becomes an empty map[string]any so that
// the template default is an object rather than null.
func plainValue(m map[string]any) (any, error) {
	if len(m) == 0 {
		return map[string]any{}, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
