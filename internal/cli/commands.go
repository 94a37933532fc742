package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/widgetgrid/pkg/errors"
	"github.com/matzehuels/widgetgrid/pkg/grid"
	"github.com/matzehuels/widgetgrid/pkg/widget"
)

// =============================================================================
// new
// =============================================================================

func (c *CLI) newCommand() *cobra.Command {
	var (
		width  int
		height string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "new [template...]",
		Short: "Create a layout",
		Long: `Create a layout holding one fresh instance of each template given.

Fixed-size widgets are laid out left to right, top to bottom at the default
size of 12x8. Variable-height widgets are collected into one row below them.
Width and height default to the config file values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openSession()
			if err != nil {
				return err
			}
			opts, err := s.cfg.gridOptions()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("width") {
				opts.Width = width
			}
			if cmd.Flags().Changed("height") {
				if opts.Height, err = grid.ParseHeight(height); err != nil {
					return err
				}
			}
			return c.runNew(cmd.Context(), s, args, opts, force)
		},
	}

	cmd.Flags().IntVar(&width, "width", grid.DefaultWidth, "number of columns")
	cmd.Flags().StringVar(&height, "height", "auto", `height policy: "auto" or a number of rows`)
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing layout")

	return cmd
}

func (c *CLI) runNew(ctx context.Context, s *session, templates []string, opts grid.Options, force bool) error {
	if _, err := os.Stat(s.path); err == nil && !force {
		return errors.New(errors.ErrCodeInvalidInput, "%s already exists (use --force to overwrite)", s.path)
	}

	instances := make([]*widget.Instance, 0, len(templates))
	for _, id := range templates {
		if _, ok := s.reg.Lookup(id); !ok {
			return errors.New(errors.ErrCodeTemplateNotFound, "unknown template %q", id)
		}
		instances = append(instances, widget.New(id))
	}

	p := newProgress(c.Logger, "new")
	g, err := grid.FromInstances(s.reg, instances, opts)
	if err := p.done(ctx, err); err != nil {
		return err
	}
	if err := s.save(ctx, g); err != nil {
		return fmt.Errorf("write layout %s: %w", s.path, err)
	}

	printSuccess("Created layout")
	printFile(s.path)
	printLayoutStats(g, false)
	printNewline()
	printNextStep("Preview", appName+" show -f "+s.path)
	return nil
}

// =============================================================================
// add / remove
// =============================================================================

func (c *CLI) addCommand() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "add TEMPLATE X Y [WIDTH HEIGHT]",
		Short: "Place a fixed-size widget",
		Long: `Place a fresh instance of TEMPLATE with its top-left corner at (X, Y).

The rectangle defaults to 12x8 and must be free. Variable-height templates
are added with 'widgetgrid row add'.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 3 && len(args) != 5 {
				return fmt.Errorf("accepts 3 or 5 arg(s), received %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseInts(args[1:], "X", "Y", "WIDTH", "HEIGHT")
			if err != nil {
				return err
			}
			w, h := grid.DefaultElementWidth, grid.DefaultElementHeight
			if len(n) == 4 {
				w, h = n[2], n[3]
			}
			return c.runAdd(cmd.Context(), args[0], id, n[0], n[1], w, h)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "instance id (default: random UUID)")

	return cmd
}

func (c *CLI) runAdd(ctx context.Context, templateID, id string, x, y, w, h int) error {
	inst := widget.New(templateID)
	if id != "" {
		inst = widget.NewWithID(id, templateID)
	}

	g, err := c.applyEdit(ctx, "add", func(g *grid.Grid) (*grid.Grid, error) {
		t, ok := g.Registry().Lookup(templateID)
		if !ok {
			return nil, errors.New(errors.ErrCodeTemplateNotFound, "unknown template %q", templateID)
		}
		if t.HeightVariable {
			return nil, errors.New(errors.ErrCodeInvalidOperation, "template %s is height-variable; use '%s row add'", templateID, appName)
		}
		return g.WithAdded(inst, x, y, w, h)
	})
	if err != nil {
		return err
	}

	e, _ := g.ElementByInstanceID(inst.ID)
	printElement("Added", e)
	return nil
}

func (c *CLI) removeCommand() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "remove [X Y]",
		Short: "Remove a widget",
		Long:  `Remove the widget covering (X, Y), or the widget with --id from either storage.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (id == "") == (len(args) == 0) || (len(args) != 0 && len(args) != 2) {
				return fmt.Errorf("give either X Y or --id")
			}
			var at []int
			if id == "" {
				var err error
				if at, err = parseInts(args, "X", "Y"); err != nil {
					return err
				}
			}

			var removed string
			_, err := c.applyEdit(cmd.Context(), "remove", func(g *grid.Grid) (*grid.Grid, error) {
				if id != "" {
					removed = id
					return g.WithRemovedInstance(id)
				}
				if e, err := g.ElementAt(at[0], at[1]); err == nil && !e.IsEmpty() {
					removed = e.Instance.ID
				}
				return g.WithRemoved(at[0], at[1])
			})
			if err != nil {
				return err
			}
			printSuccess("Removed %s", StyleHighlight.Render(removed))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "instance id")

	return cmd
}

// =============================================================================
// swap / resize
// =============================================================================

func (c *CLI) swapCommand() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "swap X1 Y1 X2 Y2",
		Short: "Swap the elements at two cells",
		Long: `Swap the elements covering (X1, Y1) and (X2, Y2). Either may be an empty
slot. Each instance must fit the other rectangle.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseInts(args, "X1", "Y1", "X2", "Y2")
			if err != nil {
				return err
			}
			if check {
				return c.runCanSwap(cmd.Context(), n)
			}
			_, err = c.applyEdit(cmd.Context(), "swap", func(g *grid.Grid) (*grid.Grid, error) {
				return g.WithSwappedElements(n[0], n[1], n[2], n[3])
			})
			if err != nil {
				return err
			}
			printSuccess("Swapped (%d,%d) and (%d,%d)", n[0], n[1], n[2], n[3])
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "only report whether the swap is allowed")

	return cmd
}

func (c *CLI) runCanSwap(ctx context.Context, n []int) error {
	s, err := c.openSession()
	if err != nil {
		return err
	}
	g, err := s.load(ctx)
	if err != nil {
		return err
	}
	ok, err := g.CanSwap(n[0], n[1], n[2], n[3])
	if err != nil {
		return err
	}
	if ok {
		printSuccess("Swap allowed")
		return nil
	}
	printWarning("Swap not allowed")
	return nil
}

func (c *CLI) resizeCommand() *cobra.Command {
	var (
		delta  grid.Edges
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "resize X Y",
		Short: "Move the edges of a widget",
		Long: `Move the edges of the widget covering (X, Y).

Each flag moves one edge by a number of cells along its axis: negative values
move the top and left edges up and left, positive values move the bottom and
right edges down and right. The request is clamped to the largest resize that keeps the widget at its minimum size and
clear of other widgets, unless --strict is given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseInts(args, "X", "Y")
			if err != nil {
				return err
			}
			var applied grid.Edges
			g, err := c.applyEdit(cmd.Context(), "resize", func(g *grid.Grid) (*grid.Grid, error) {
				applied = delta
				if !strict {
					clamped, err := g.ClampElementResize(n[0], n[1], applied)
					if err != nil {
						return nil, err
					}
					applied = clamped
				}
				return g.WithResizedElement(n[0], n[1], applied)
			})
			if err != nil {
				return err
			}

			if applied.IsZero() {
				return nil
			}
			e, err := g.ElementAt(n[0]+applied.Left, n[1]+applied.Top)
			if err != nil || e.IsEmpty() {
				printSuccess("Resized by %s", applied)
				return nil
			}
			printElement("Resized", e)
			return nil
		},
	}

	cmd.Flags().IntVar(&delta.Top, "top", 0, "move the top edge down (negative: up)")
	cmd.Flags().IntVar(&delta.Left, "left", 0, "move the left edge right (negative: left)")
	cmd.Flags().IntVar(&delta.Bottom, "bottom", 0, "move the bottom edge down (negative: up)")
	cmd.Flags().IntVar(&delta.Right, "right", 0, "move the right edge right (negative: left)")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail instead of clamping")

	return cmd
}

func (c *CLI) gridResizeCommand() *cobra.Command {
	var (
		width  int
		height string
	)

	cmd := &cobra.Command{
		Use:   "grid-resize",
		Short: "Change the grid width or height policy",
		Long: `Change the number of columns or the height policy. Every widget and
variable-height row must still fit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := c.applyEdit(cmd.Context(), "grid-resize", func(g *grid.Grid) (*grid.Grid, error) {
				w, h := g.Width(), g.HeightPolicy()
				if cmd.Flags().Changed("width") {
					w = width
				}
				if cmd.Flags().Changed("height") {
					var err error
					if h, err = grid.ParseHeight(height); err != nil {
						return nil, err
					}
				}
				return g.Resize(w, h)
			})
			if err != nil {
				return err
			}
			printSuccess("Grid is %dx%d", g.Width(), g.Height())
			smallest := g.MinResizableSize()
			printDetail("Smallest allowed size: %dx%d", smallest.Width, smallest.Height)
			return nil
		},
	}

	cmd.Flags().IntVar(&width, "width", 0, "number of columns")
	cmd.Flags().StringVar(&height, "height", "", `height policy: "auto" or a number of rows`)

	return cmd
}
