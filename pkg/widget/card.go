package widget

import (
	"fmt"
	"slices"
	"strings"
)

// Card is a simple text widget: a title followed by its settings as
// key/value lines. It is the renderer behind catalog templates.
type Card struct {
	Title string
}

// Render implements [Renderer].
func (c Card) Render(p RenderProps) string {
	var b strings.Builder
	b.WriteString(c.Title)
	if m, ok := p.Settings.(map[string]any); ok {
		for _, line := range keyValueLines(m) {
			b.WriteString("\n")
			b.WriteString(line)
		}
	}
	return b.String()
}

// RenderSettings implements [SettingsEditor]. The card shows its settings
// read-only; editing happens through the host.
func (c Card) RenderSettings(settings any, _ func(func(any) any)) string {
	m, ok := settings.(map[string]any)
	if !ok || len(m) == 0 {
		return c.Title + ": no settings"
	}
	return c.Title + "\n" + strings.Join(keyValueLines(m), "\n")
}

// SizedCard is a [Card] with a fixed minimum size.
type SizedCard struct {
	Card
	Min Size
}

// MinSize implements [MinSizer].
func (c SizedCard) MinSize(settings, state any) Size {
	return c.Min
}

func keyValueLines(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = fmt.Sprintf("%s: %v", k, m[k])
	}
	return lines
}

var (
	_ Renderer       = Card{}
	_ SettingsEditor = Card{}
	_ MinSizer       = SizedCard{}
)
