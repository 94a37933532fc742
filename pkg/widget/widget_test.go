package widget

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/widgetgrid/pkg/errors"
)

func TestIsSerializable(t *testing.T) {
	cyclic := map[string]any{}
	cyclic["self"] = cyclic

	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"nil", nil, true},
		{"bool", true, true},
		{"string", "hello", true},
		{"int", 42, true},
		{"float", 1.5, true},
		{"list", []any{1, "a", nil}, true},
		{"map", map[string]any{"a": []any{map[string]any{"b": 1}}}, true},
		{"typed slice", []string{"a", "b"}, true},

		{"NaN", math.NaN(), false},
		{"Inf", math.Inf(1), false},
		{"func", func() {}, false},
		{"chan", make(chan int), false},
		{"struct", struct{ A int }{1}, false},
		{"nested func", map[string]any{"f": func() {}}, false},
		{"cyclic", cyclic, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSerializable(tt.value); got != tt.want {
				t.Errorf("IsSerializable(%T) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	got, err := Normalize(map[string]any{"n": 3, "list": []string{"x"}})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := map[string]any{"n": float64(3), "list": []any{"x"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize mismatch (-want +got):\n%s", diff)
	}

	if _, err := Normalize(func() {}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Normalize(func) error = %v, want INVALID_INPUT", err)
	}
}

func TestTemplateCapabilities(t *testing.T) {
	plain := &Template{ID: "plain", Widget: Card{Title: "Plain"}}
	sized := &Template{ID: "sized", Widget: SizedCard{Card: Card{Title: "Sized"}, Min: Size{Width: 6, Height: 4}}}

	if _, ok := plain.MinSize(nil, nil); ok {
		t.Error("plain card should not report a minimum size")
	}
	if s, ok := sized.MinSize(nil, nil); !ok || s != (Size{Width: 6, Height: 4}) {
		t.Errorf("sized.MinSize = %v, %v; want 6x4, true", s, ok)
	}
	if _, ok := plain.SettingsEditor(); !ok {
		t.Error("card should provide a settings editor")
	}
	if _, ok := (&Template{ID: "b", Widget: BrokenWidget{}}).SettingsEditor(); ok {
		t.Error("broken widget should not provide a settings editor")
	}
}

func TestTemplateValidate(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    *Template
		wantErr bool
	}{
		{"valid", &Template{ID: "a", Widget: Card{}}, false},
		{"nil", nil, true},
		{"empty id", &Template{Widget: Card{}}, true},
		{"no renderer", &Template{ID: "a"}, true},
		{"bad settings", &Template{ID: "a", Widget: Card{}, DefaultSettings: func() {}}, true},
		{"bad state", &Template{ID: "a", Widget: Card{}, DefaultState: make(chan int)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tmpl.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	a := &Template{ID: "a", Widget: Card{Title: "A"}}
	b := &Template{ID: "b", Widget: Card{Title: "B"}}

	reg, err := NewRegistry(a, b)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if reg.Len() != 2 {
		t.Errorf("Len() = %d, want 2", reg.Len())
	}
	if diff := cmp.Diff([]string{"a", "b"}, reg.IDs()); diff != "" {
		t.Errorf("IDs mismatch (-want +got):\n%s", diff)
	}

	if err := reg.Register(&Template{ID: "a", Widget: Card{}}); err == nil {
		t.Error("Register should reject duplicate ids")
	}

	a2 := &Template{ID: "a", Widget: Card{Title: "A2"}}
	if err := reg.Replace(a2); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if got, _ := reg.Lookup("a"); got != a2 {
		t.Error("Replace should hot-reload the template")
	}

	if !reg.Remove("a") {
		t.Error("Remove(a) = false, want true")
	}
	if reg.Remove("a") {
		t.Error("second Remove(a) = true, want false")
	}
	if _, ok := reg.Lookup("a"); ok {
		t.Error("removed template should not resolve")
	}
}

func TestLayeredRegistry(t *testing.T) {
	builtin, _ := NewRegistry(&Template{ID: "x", Widget: Card{Title: "builtin"}})
	user, _ := NewRegistry(&Template{ID: "x", Widget: Card{Title: "user"}}, &Template{ID: "y", Widget: Card{}})

	reg := Layered{user, nil, builtin}
	got, ok := reg.Lookup("x")
	if !ok || got.Widget.(Card).Title != "user" {
		t.Errorf("Lookup(x) = %v, want user template first", got)
	}
	if _, ok := reg.Lookup("missing"); ok {
		t.Error("Lookup(missing) should fail")
	}
}

func TestResolveBroken(t *testing.T) {
	reg, _ := NewRegistry(&Template{ID: "a", Widget: Card{}})

	inst := NewWithID("i1", "gone")
	tmpl := Resolve(reg, inst)
	msg, ok := IsBroken(tmpl)
	if !ok {
		t.Fatal("unresolved template should resolve to a broken widget")
	}
	if msg != MissingTemplateMessage("gone") {
		t.Errorf("message = %q", msg)
	}
	if tmpl.ID != "gone" {
		t.Errorf("broken template id = %q, want original id", tmpl.ID)
	}
	if got := tmpl.Widget.Render(RenderProps{}); got != msg {
		t.Errorf("Render() = %q, want error message", got)
	}

	if _, ok := IsBroken(Resolve(reg, NewWithID("i2", "a"))); ok {
		t.Error("registered template should not be broken")
	}
}

func TestInstanceOverrides(t *testing.T) {
	tmpl := &Template{ID: "t", Widget: Card{}, DefaultSettings: "default", DefaultState: 0}
	inst := New("t")

	if inst.ID == "" {
		t.Fatal("New should assign an id")
	}
	if New("t").ID == inst.ID {
		t.Error("New should assign unique ids")
	}
	if got := inst.SettingsOf(tmpl); got != "default" {
		t.Errorf("SettingsOf = %v, want template default", got)
	}

	withNull := inst.WithSettings(nil)
	if got := withNull.SettingsOf(tmpl); got != nil {
		t.Errorf("explicit null override = %v, want nil", got)
	}
	if inst.Settings.Set {
		t.Error("WithSettings must not modify the receiver")
	}

	withState := inst.WithState(map[string]any{"n": 1})
	norm, err := withState.Normalized()
	if err != nil {
		t.Fatalf("Normalized: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"n": float64(1)}, norm.StateOf(tmpl)); diff != "" {
		t.Errorf("normalized state mismatch (-want +got):\n%s", diff)
	}

	if _, err := inst.WithState(func() {}).Normalized(); err == nil {
		t.Error("Normalized should reject non-serializable state")
	}
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()

	tomlPath := filepath.Join(dir, "widgets.toml")
	writeFile(t, tomlPath, `
[[template]]
id = "sales"
title = "Sales"
min_width = 6
min_height = 4

[template.settings]
currency = "EUR"

[[template]]
id = "notes"
height_variable = true
`)

	yamlPath := filepath.Join(dir, "widgets.yaml")
	writeFile(t, yamlPath, `
template:
  - id: clock
    title: Clock
    settings:
      zone: UTC
`)

	templates, err := LoadCatalog(tomlPath)
	if err != nil {
		t.Fatalf("LoadCatalog(toml): %v", err)
	}
	if len(templates) != 2 {
		t.Fatalf("got %d templates, want 2", len(templates))
	}
	if s, ok := templates[0].MinSize(nil, nil); !ok || s != (Size{Width: 6, Height: 4}) {
		t.Errorf("sales min size = %v, %v", s, ok)
	}
	if diff := cmp.Diff(map[string]any{"currency": "EUR"}, templates[0].DefaultSettings); diff != "" {
		t.Errorf("sales settings mismatch (-want +got):\n%s", diff)
	}
	if !templates[1].HeightVariable {
		t.Error("notes should be height-variable")
	}
	if _, ok := templates[1].MinSize(nil, nil); ok {
		t.Error("notes has no min size")
	}

	templates, err = LoadCatalog(yamlPath)
	if err != nil {
		t.Fatalf("LoadCatalog(yaml): %v", err)
	}
	if len(templates) != 1 || templates[0].ID != "clock" {
		t.Fatalf("unexpected yaml templates: %v", templates)
	}

	if _, err := LoadCatalog(filepath.Join(dir, "missing.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing catalog error = %v, want FILE_NOT_FOUND", err)
	}

	jsonPath := filepath.Join(dir, "widgets.json")
	writeFile(t, jsonPath, `{}`)
	if _, err := LoadCatalog(jsonPath); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("json catalog error = %v, want UNSUPPORTED", err)
	}

	badPath := filepath.Join(dir, "bad.toml")
	writeFile(t, badPath, "[[template]]\ntitle = \"no id\"\n")
	if _, err := LoadCatalog(badPath); !errors.Is(err, errors.ErrCodeInvalidID) {
		t.Errorf("catalog without id error = %v, want INVALID_ID", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
