package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/widgetgrid/pkg/errors"
	"github.com/matzehuels/widgetgrid/pkg/grid"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, unknown, err := loadConfig(path, false)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if diff := cmp.Diff(defaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if len(unknown) != 0 {
		t.Errorf("unknown = %v", unknown)
	}

	if _, _, err := loadConfig(path, true); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("required missing config: err = %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, `
width = 12
height = "20"
catalog = "templates.toml"
colour = "blue"

[preview]
cell_width = 4
show_empty = true
`)

	cfg, unknown, err := loadConfig(path, true)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	want := Config{
		Width:   12,
		Height:  "20",
		Catalog: filepath.Join(dir, "templates.toml"),
		Preview: PreviewConfig{CellWidth: 4, CellHeight: 1, ShowEmpty: true},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"colour"}, unknown); diff != "" {
		t.Errorf("unknown keys mismatch (-want +got):\n%s", diff)
	}

	opts, err := cfg.gridOptions()
	if err != nil {
		t.Fatalf("gridOptions() error: %v", err)
	}
	if opts.Width != 12 || opts.Height != grid.FixedHeight(20) {
		t.Errorf("gridOptions() = %+v", opts)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "width = ")

	if _, _, err := loadConfig(path, false); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}

func TestGridOptionsInvalidHeight(t *testing.T) {
	cfg := defaultConfig()
	cfg.Height = "tall"
	if _, err := cfg.gridOptions(); err == nil {
		t.Error("expected an error for height \"tall\"")
	}
}

func TestConfigFromXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if err := os.MkdirAll(filepath.Join(dir, appName), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, appName, "config.toml"), "width = 30\n")

	c := &CLI{Logger: log.New(io.Discard), catalogPath: "/tmp/override.toml"}
	cfg, err := c.config()
	if err != nil {
		t.Fatalf("config() error: %v", err)
	}
	if cfg.Width != 30 {
		t.Errorf("Width = %d, want 30", cfg.Width)
	}
	if cfg.Catalog != "/tmp/override.toml" {
		t.Errorf("Catalog = %q, want the --catalog value", cfg.Catalog)
	}
}

func TestRegistry(t *testing.T) {
	c := &CLI{Logger: log.New(io.Discard)}

	reg, err := c.registry(defaultConfig())
	if err != nil {
		t.Fatalf("registry() error: %v", err)
	}
	for _, id := range []string{"card", "chart", "notes", grid.SubGridTemplate(reg).ID} {
		if _, ok := reg.Lookup(id); !ok {
			t.Errorf("missing built-in template %q", id)
		}
	}

	catalog := filepath.Join(t.TempDir(), "templates.yaml")
	writeFile(t, catalog, `
template:
  - id: card
    title: Custom card
  - id: log
    height_variable: true
`)
	cfg := defaultConfig()
	cfg.Catalog = catalog
	reg, err = c.registry(cfg)
	if err != nil {
		t.Fatalf("registry() with catalog error: %v", err)
	}
	if tmpl, _ := reg.Lookup("log"); tmpl == nil || !tmpl.HeightVariable {
		t.Errorf("catalog template log = %+v", tmpl)
	}
	if got := reg.Len(); got != 5 {
		t.Errorf("Len() = %d, want 5", got)
	}
}
