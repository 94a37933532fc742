package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/widgetgrid/pkg/errors"
	"github.com/matzehuels/widgetgrid/pkg/grid"
	"github.com/matzehuels/widgetgrid/pkg/preview"
)

// Editor styles
var (
	editorMarkStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	editorNormalStyle = lipgloss.NewStyle().Foreground(colorWhite)
	editorDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	editorErrorStyle  = lipgloss.NewStyle().Foreground(colorRed)
)

const editorHelp = "arrows move  a add  t template  d delete  space swap  H/J/K/L resize  u undo  w write  q quit"

// =============================================================================
// editorModel - Interactive layout editor
// =============================================================================

// editorModel is the bubbletea model of the layout editor. Every key applies
// at most one grid operation; rejected operations leave the grid untouched
// and show the error.
type editorModel struct {
	grid      *grid.Grid
	history   []*grid.Grid
	templates []string
	template  int

	x, y   int
	mark   *[2]int
	status string
	failed bool
	dirty  bool

	// apply wraps every operation, save persists the grid.
	apply func(op string, fn func() (*grid.Grid, error)) (*grid.Grid, error)
	save  func(g *grid.Grid) error
}

func newEditorModel(g *grid.Grid, templates []string) editorModel {
	return editorModel{
		grid:      g,
		templates: templates,
		apply: func(_ string, fn func() (*grid.Grid, error)) (*grid.Grid, error) {
			return fn()
		},
		save: func(*grid.Grid) error { return nil },
	}
}

func (m editorModel) Init() tea.Cmd {
	return nil
}

func (m editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	m.status, m.failed = "", false

	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		m.y = max(m.y-1, 0)
	case "down", "j":
		m.y = min(m.y+1, m.grid.Height()-1)
	case "left", "h":
		m.x = max(m.x-1, 0)
	case "right", "l":
		m.x = min(m.x+1, m.grid.Width()-1)
	case "t":
		if len(m.templates) > 0 {
			m.template = (m.template + 1) % len(m.templates)
			m.status = "template: " + m.templates[m.template]
		}
	case "a":
		m = m.add()
	case "d", "x":
		x, y := m.x, m.y
		m = m.edit("remove", func() (*grid.Grid, error) { return m.grid.WithRemoved(x, y) })
	case " ":
		m = m.swap()
	case "L":
		m = m.resize(grid.Edges{Right: 1})
	case "H":
		m = m.resize(grid.Edges{Right: -1})
	case "J":
		m = m.resize(grid.Edges{Bottom: 1})
	case "K":
		m = m.resize(grid.Edges{Bottom: -1})
	case "u":
		if n := len(m.history); n > 0 {
			m.grid, m.history = m.history[n-1], m.history[:n-1]
			m.dirty = true
			m.status = "undone"
		}
	case "w":
		if err := m.save(m.grid); err != nil {
			m.status, m.failed = errors.UserMessage(err), true
		} else {
			m.dirty = false
			m.status = "written"
		}
	}
	m.x = min(m.x, m.grid.Width()-1)
	m.y = min(m.y, max(m.grid.Height()-1, 0))
	return m, nil
}

// edit applies one operation and records the previous grid for undo.
func (m editorModel) edit(op string, fn func() (*grid.Grid, error)) editorModel {
	next, err := m.apply(op, fn)
	if err != nil {
		m.status, m.failed = errors.UserMessage(err), true
		return m
	}
	if next != m.grid {
		m.history = append(m.history, m.grid)
		m.grid = next
		m.dirty = true
	}
	m.status = op
	return m
}

// add places the selected template at the cursor, at the largest free size
// up to the default element size.
func (m editorModel) add() editorModel {
	if len(m.templates) == 0 {
		m.status, m.failed = "no fixed-size templates", true
		return m
	}
	templateID := m.templates[m.template]
	x, y := m.x, m.y
	return m.edit("add "+templateID, func() (*grid.Grid, error) {
		for w := min(grid.DefaultElementWidth, m.grid.Width()-x); w >= grid.MinElementWidth; w-- {
			for h := grid.DefaultElementHeight; h >= grid.MinElementHeight; h-- {
				next, _, err := m.grid.WithAddedTemplate(templateID, x, y, w, h)
				if err == nil {
					return next, nil
				}
			}
		}
		return nil, errors.New(errors.ErrCodeInvalidOperation, "no room for %s at (%d,%d)", templateID, x, y)
	})
}

func (m editorModel) swap() editorModel {
	if m.mark == nil {
		m.mark = &[2]int{m.x, m.y}
		m.status = "marked; move and press space again"
		return m
	}
	from := *m.mark
	m.mark = nil
	x, y := m.x, m.y
	return m.edit("swap", func() (*grid.Grid, error) {
		return m.grid.WithSwappedElements(from[0], from[1], x, y)
	})
}

func (m editorModel) resize(delta grid.Edges) editorModel {
	x, y := m.x, m.y
	return m.edit("resize", func() (*grid.Grid, error) {
		clamped, err := m.grid.ClampElementResize(x, y, delta)
		if err != nil {
			return nil, err
		}
		if clamped.IsZero() {
			return nil, errors.New(errors.ErrCodeInvalidOperation, "cannot resize %s", delta)
		}
		return m.grid.WithResizedElement(x, y, clamped)
	})
}

func (m editorModel) View() string {
	var b strings.Builder

	title := "Edit Layout"
	if m.dirty {
		title += " *"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(editorDimStyle.Render(editorHelp))
	b.WriteString("\n\n")
	b.WriteString(m.board())
	b.WriteString("\n")

	if e, err := m.grid.ElementAt(m.x, m.y); err == nil && !e.IsEmpty() {
		b.WriteString(fmt.Sprintf("(%d,%d) %s  %s\n", m.x, m.y, StyleHighlight.Render(e.Instance.ID),
			editorDimStyle.Render(fmt.Sprintf("%s %dx%d", e.Instance.TemplateID, e.Width, e.Height))))
	} else {
		b.WriteString(fmt.Sprintf("(%d,%d) %s\n", m.x, m.y, editorDimStyle.Render("empty")))
	}

	switch {
	case m.failed:
		b.WriteString(editorErrorStyle.Render(m.status))
	case m.status != "":
		b.WriteString(StyleSuccess.Render(m.status))
	}
	b.WriteString("\n")
	return b.String()
}

// board draws the occupancy map with the cursor and swap mark highlighted.
func (m editorModel) board() string {
	letters := map[string]rune{}
	for i, e := range m.grid.NonEmptyElements() {
		letters[e.Instance.ID] = preview.Letter(i)
	}
	claimed := map[int]bool{}
	for _, row := range m.grid.VarHeightRows() {
		claimed[row.Y] = true
	}

	cells := m.grid.As2DArray()
	var b strings.Builder
	for y := range m.grid.Height() {
		for x := range m.grid.Width() {
			ch := "."
			switch inst := cells[x][y]; {
			case inst != nil:
				ch = string(letters[inst.ID])
			case claimed[y]:
				ch = "="
			}
			switch {
			case x == m.x && y == m.y:
				b.WriteString(styleCursor.Render(ch))
			case m.mark != nil && m.mark[0] == x && m.mark[1] == y:
				b.WriteString(editorMarkStyle.Render(ch))
			case ch == "." || ch == "=":
				b.WriteString(editorDimStyle.Render(ch))
			default:
				b.WriteString(editorNormalStyle.Render(ch))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// edit command
// =============================================================================

func (c *CLI) editCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Edit a layout interactively",
		Long: `Edit a layout interactively with the keyboard.

Changes are written with 'w'. Quitting discards unwritten changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEdit(cmd.Context())
		},
	}
}

func (c *CLI) runEdit(ctx context.Context) error {
	s, err := c.openSession()
	if err != nil {
		return err
	}
	g, err := s.load(ctx)
	if err != nil {
		return err
	}

	var templates []string
	for _, id := range s.reg.IDs() {
		if t, _ := s.reg.Lookup(id); !t.HeightVariable {
			templates = append(templates, id)
		}
	}

	m := newEditorModel(g, templates)
	m.apply = func(op string, fn func() (*grid.Grid, error)) (*grid.Grid, error) {
		p := newProgress(c.Logger, op)
		next, err := fn()
		return next, p.done(ctx, err)
	}
	m.save = func(g *grid.Grid) error { return s.save(ctx, g) }

	final, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(editorModel); ok && fm.dirty {
		printWarning("Unwritten changes were discarded")
	}
	return nil
}
