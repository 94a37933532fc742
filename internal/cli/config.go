package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/widgetgrid/pkg/errors"
	"github.com/matzehuels/widgetgrid/pkg/grid"
	"github.com/matzehuels/widgetgrid/pkg/preview"
	"github.com/matzehuels/widgetgrid/pkg/widget"
)

// Config is the user configuration read from config.toml.
//
//	width = 24
//	height = "auto"
//	catalog = "templates.toml"
//
//	[preview]
//	cell_width = 3
//	cell_height = 1
type Config struct {
	Width   int           `toml:"width"`
	Height  string        `toml:"height"`
	Catalog string        `toml:"catalog"`
	Preview PreviewConfig `toml:"preview"`
}

// PreviewConfig scales terminal previews.
type PreviewConfig struct {
	CellWidth  int  `toml:"cell_width"`
	CellHeight int  `toml:"cell_height"`
	ShowEmpty  bool `toml:"show_empty"`
}

func defaultConfig() Config {
	return Config{
		Width:  grid.DefaultWidth,
		Height: "auto",
		Preview: PreviewConfig{
			CellWidth:  preview.DefaultCellWidth,
			CellHeight: preview.DefaultCellHeight,
		},
	}
}

// loadConfig reads path over the defaults. A missing file yields the
// defaults unless required is set. Relative catalog paths are resolved
// against the config file's directory.
func loadConfig(path string, required bool) (Config, []string, error) {
	cfg := defaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if os.IsNotExist(err) && !required {
		return defaultConfig(), nil, nil
	}
	if os.IsNotExist(err) {
		return cfg, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
	}
	if err != nil {
		return cfg, nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	if cfg.Catalog != "" && !filepath.IsAbs(cfg.Catalog) {
		cfg.Catalog = filepath.Join(filepath.Dir(path), cfg.Catalog)
	}

	var unknown []string
	for _, key := range md.Undecoded() {
		unknown = append(unknown, key.String())
	}
	return cfg, unknown, nil
}

// gridOptions converts the config into layout options for new grids.
func (cfg Config) gridOptions() (grid.Options, error) {
	h, err := grid.ParseHeight(cfg.Height)
	if err != nil {
		return grid.Options{}, err
	}
	return grid.Options{Width: cfg.Width, Height: h}, nil
}

func (cfg Config) previewOptions() preview.Options {
	return preview.Options{
		CellWidth:  cfg.Preview.CellWidth,
		CellHeight: cfg.Preview.CellHeight,
		ShowEmpty:  cfg.Preview.ShowEmpty,
	}
}

// config loads the configuration selected by --config and applies --catalog.
func (c *CLI) config() (Config, error) {
	path, required := c.configPath, c.configPath != ""
	if !required {
		p, err := configFile()
		if err != nil {
			return defaultConfig(), nil
		}
		path = p
	}
	cfg, unknown, err := loadConfig(path, required)
	if err != nil {
		return cfg, err
	}
	if len(unknown) > 0 {
		c.Logger.Warn("unknown config keys", "file", path, "keys", strings.Join(unknown, ", "))
	}
	if c.catalogPath != "" {
		cfg.Catalog = c.catalogPath
	}
	return cfg, nil
}

// =============================================================================
// Templates
// =============================================================================

// builtinTemplates are available without a catalog.
func builtinTemplates() []*widget.Template {
	return []*widget.Template{
		{ID: "card", Widget: widget.Card{Title: "Card"}, DefaultSettings: map[string]any{}},
		{ID: "chart", Widget: widget.SizedCard{Card: widget.Card{Title: "Chart"}, Min: widget.Size{Width: 6, Height: 4}}, DefaultSettings: map[string]any{}},
		{ID: "notes", Widget: widget.Card{Title: "Notes"}, DefaultSettings: map[string]any{}, HeightVariable: true},
	}
}

// registry builds the template registry: built-in templates, the sub-grid
// template, then catalog templates, which replace built-ins of the same id.
func (c *CLI) registry(cfg Config) (*widget.MapRegistry, error) {
	reg, err := widget.NewRegistry(builtinTemplates()...)
	if err != nil {
		return nil, err
	}
	if err := reg.Register(grid.SubGridTemplate(reg)); err != nil {
		return nil, err
	}
	if cfg.Catalog == "" {
		return reg, nil
	}

	templates, err := widget.LoadCatalog(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	for _, t := range templates {
		if err := reg.Replace(t); err != nil {
			return nil, err
		}
	}
	c.Logger.Debug("loaded catalog", "file", cfg.Catalog, "templates", len(templates))
	return reg, nil
}
