package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/widgetgrid/pkg/buildinfo"
	"github.com/matzehuels/widgetgrid/pkg/cache"
	"github.com/matzehuels/widgetgrid/pkg/grid"
	"github.com/matzehuels/widgetgrid/pkg/preview"
	"github.com/matzehuels/widgetgrid/pkg/widget"
)

// =============================================================================
// show
// =============================================================================

type showOpts struct {
	text       bool
	json       bool
	showEmpty  bool
	cellWidth  int
	cellHeight int
}

func (c *CLI) showCommand() *cobra.Command {
	var opts showOpts

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Preview a layout in the terminal",
		Long: `Preview a layout in the terminal.

The default view draws every widget as a box with its own rendering inside.
Rendered previews are cached, keyed by the layout content and the template
catalog. --text prints a one-character-per-cell occupancy map instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openSession()
			if err != nil {
				return err
			}
			po := s.cfg.previewOptions()
			if cmd.Flags().Changed("cell-width") {
				po.CellWidth = opts.cellWidth
			}
			if cmd.Flags().Changed("cell-height") {
				po.CellHeight = opts.cellHeight
			}
			if cmd.Flags().Changed("empty") {
				po.ShowEmpty = opts.showEmpty
			}
			return c.runShow(cmd, s, opts, po)
		},
	}

	cmd.Flags().BoolVar(&opts.text, "text", false, "print the occupancy map")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the canonical layout document")
	cmd.Flags().BoolVar(&opts.showEmpty, "empty", false, "mark empty slots")
	cmd.Flags().IntVar(&opts.cellWidth, "cell-width", preview.DefaultCellWidth, "terminal columns per grid column")
	cmd.Flags().IntVar(&opts.cellHeight, "cell-height", preview.DefaultCellHeight, "terminal lines per grid row")
	cmd.MarkFlagsMutuallyExclusive("text", "json")

	return cmd
}

func (c *CLI) runShow(cmd *cobra.Command, s *session, opts showOpts, po preview.Options) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	g, err := s.load(ctx)
	if err != nil {
		return err
	}

	switch {
	case opts.json:
		return g.WriteJSON(out)
	case opts.text:
		_, err := fmt.Fprint(out, preview.Text(g))
		return err
	}

	pc, err := c.newCache()
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer pc.Close()

	r := preview.NewRenderer(pc, catalogKey(s.cfg))
	r.Keyer = cache.NewScopedKeyer(r.Keyer, buildinfo.CacheScope())
	view, cached, err := r.Render(ctx, g, po)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, view)
	printLayoutStats(g, cached)
	return nil
}

// catalogKey identifies the template set in preview cache keys.
func catalogKey(cfg Config) string {
	if cfg.Catalog == "" {
		return "builtin"
	}
	data, err := os.ReadFile(cfg.Catalog)
	if err != nil {
		return cfg.Catalog
	}
	return cache.Hash(data)
}

// =============================================================================
// validate
// =============================================================================

func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file...]",
		Short: "Check layout documents",
		Long: `Check that layout documents decode and satisfy every layout invariant.

Instances of unknown templates are reported but do not fail validation; they
load as broken widgets and keep their data.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{c.layoutPath}
			}
			s, err := c.openSession()
			if err != nil {
				return err
			}
			return c.runValidate(cmd.Context(), s.reg, args)
		},
	}
}

func (c *CLI) runValidate(ctx context.Context, reg widget.Registry, paths []string) error {
	failed := 0
	for _, path := range paths {
		var broken []string
		g, err := loadLayout(ctx, reg, path, grid.OnBroken(func(inst *widget.Instance, message string) {
			broken = append(broken, fmt.Sprintf("%s: %s", inst.ID, message))
		}))
		if err != nil {
			failed++
			printError("%s", path)
			printDetail("%v", err)
			continue
		}
		if len(broken) > 0 {
			printWarning("%s: %d broken widgets", path, len(broken))
			for _, b := range broken {
				printDetail("%s", b)
			}
			continue
		}
		printSuccess("%s", path)
		printDetail("%dx%d, %d instances", g.Width(), g.Height(), len(g.Instances()))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d layouts are invalid", failed, len(paths))
	}
	return nil
}

// =============================================================================
// templates
// =============================================================================

func (c *CLI) templatesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List available widget templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openSession()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), templateTable(s.reg))
			return nil
		},
	}
}

func templateTable(reg *widget.MapRegistry) string {
	rows := [][]string{}
	for _, id := range reg.IDs() {
		t, _ := reg.Lookup(id)
		size := grid.MinElementSize
		if m, ok := t.MinSize(t.DefaultSettings, t.DefaultState); ok {
			size = size.Max(m)
		}
		kind := "fixed"
		if t.HeightVariable {
			kind = "variable"
		}
		rows = append(rows, []string{
			id,
			kind,
			strconv.Itoa(size.Width) + "x" + strconv.Itoa(size.Height),
			yesNo(t.HasSubGrid),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Template", "Height", "Min size", "Sub-grid").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return StyleHighlight
			}
			return StyleValue
		}).
		Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// =============================================================================
// settings
// =============================================================================

func (c *CLI) settingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change widget settings",
	}

	cmd.AddCommand(c.settingsShowCommand())
	cmd.AddCommand(c.settingsSetCommand())

	return cmd
}

func (c *CLI) settingsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Print the effective settings of an instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openSession()
			if err != nil {
				return err
			}
			g, err := s.load(cmd.Context())
			if err != nil {
				return err
			}
			inst, err := g.InstanceByID(args[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(inst.SettingsOf(g.TemplateOf(inst)), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func (c *CLI) settingsSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set ID KEY=VALUE...",
		Short: "Change settings of an instance",
		Long: `Change settings of an instance, fixed or variable-height.

Values are parsed as JSON when possible (42, true, {"a":1}) and taken as
strings otherwise. KEY=null removes the key.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			updates, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			_, err = c.applyEdit(cmd.Context(), "settings", func(g *grid.Grid) (*grid.Grid, error) {
				return g.WithUpdatedInstance(id, func(inst *widget.Instance) *widget.Instance {
					return inst.WithSettings(mergeSettings(inst.SettingsOf(g.TemplateOf(inst)), updates))
				})
			})
			if err != nil {
				return err
			}
			printSuccess("Updated %d settings of %s", len(updates), StyleHighlight.Render(id))
			return nil
		},
	}
}
