package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/widgetgrid/pkg/errors"
	"github.com/matzehuels/widgetgrid/pkg/grid"
	"github.com/matzehuels/widgetgrid/pkg/widget"
)

// rowCommand creates the variable-height row management command.
func (c *CLI) rowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "row",
		Short: "Manage variable-height rows",
		Long: `Manage variable-height rows.

A variable-height row is a list of widgets that spans the full grid width at
a row index no fixed widget covers. Rows are ordered by index; widgets within
a row keep their order.`,
	}

	cmd.AddCommand(c.rowAddCommand())
	cmd.AddCommand(c.rowInsertCommand())
	cmd.AddCommand(c.rowRemoveCommand())
	cmd.AddCommand(c.rowMoveCommand())
	cmd.AddCommand(c.rowListCommand())

	return cmd
}

// newVarHeightInstance creates an instance of a height-variable template.
func newVarHeightInstance(g *grid.Grid, templateID, id string) (*widget.Instance, error) {
	t, ok := g.Registry().Lookup(templateID)
	if !ok {
		return nil, errors.New(errors.ErrCodeTemplateNotFound, "unknown template %q", templateID)
	}
	if !t.HeightVariable {
		return nil, errors.New(errors.ErrCodeInvalidOperation, "template %s has a fixed height; use '%s add'", templateID, appName)
	}
	if id == "" {
		return widget.New(templateID), nil
	}
	return widget.NewWithID(id, templateID), nil
}

func (c *CLI) rowAddCommand() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "add Y TEMPLATE",
		Short: "Append a widget to the row at Y",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseInts(args[:1], "Y")
			if err != nil {
				return err
			}
			var inst *widget.Instance
			_, err = c.applyEdit(cmd.Context(), "row-add", func(g *grid.Grid) (*grid.Grid, error) {
				i, err := newVarHeightInstance(g, args[1], id)
				if err != nil {
					return nil, err
				}
				inst = i
				return g.WithVarHeightAppended(n[0], i)
			})
			if err != nil {
				return err
			}
			printSuccess("Added %s to row %d", StyleHighlight.Render(inst.ID), n[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "instance id (default: random UUID)")

	return cmd
}

func (c *CLI) rowInsertCommand() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "insert TARGET before|after TEMPLATE",
		Short: "Insert a widget next to another variable-height widget",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := grid.ParsePosition(args[1])
			if err != nil {
				return err
			}
			var inst *widget.Instance
			_, err = c.applyEdit(cmd.Context(), "row-insert", func(g *grid.Grid) (*grid.Grid, error) {
				i, err := newVarHeightInstance(g, args[2], id)
				if err != nil {
					return nil, err
				}
				inst = i
				return g.WithVarHeightInserted(args[0], pos, i)
			})
			if err != nil {
				return err
			}
			printSuccess("Inserted %s %s %s", StyleHighlight.Render(inst.ID), pos, args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "instance id (default: random UUID)")

	return cmd
}

func (c *CLI) rowRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a variable-height widget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := c.applyEdit(cmd.Context(), "row-remove", func(g *grid.Grid) (*grid.Grid, error) {
				return g.WithVarHeightRemoved(args[0])
			})
			if err != nil {
				return err
			}
			printSuccess("Removed %s", StyleHighlight.Render(args[0]))
			return nil
		},
	}
}

func (c *CLI) rowMoveCommand() *cobra.Command {
	var (
		toRow         int
		before, after string
	)

	cmd := &cobra.Command{
		Use:   "move ID (--to Y | --before TARGET | --after TARGET)",
		Short: "Move a variable-height widget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dest grid.Destination
			switch {
			case cmd.Flags().Changed("to"):
				dest = grid.ToRow(toRow)
			case before != "":
				dest = grid.Relative(before, grid.Before)
			case after != "":
				dest = grid.Relative(after, grid.After)
			default:
				return fmt.Errorf("one of --to, --before or --after is required")
			}

			_, err := c.applyEdit(cmd.Context(), "row-move", func(g *grid.Grid) (*grid.Grid, error) {
				return g.WithVarHeightMoved(args[0], dest)
			})
			if err != nil {
				return err
			}
			printSuccess("Moved %s to %s", StyleHighlight.Render(args[0]), dest)
			return nil
		},
	}

	cmd.Flags().IntVar(&toRow, "to", 0, "append to the row at this index")
	cmd.Flags().StringVar(&before, "before", "", "insert before this instance")
	cmd.Flags().StringVar(&after, "after", "", "insert after this instance")
	cmd.MarkFlagsMutuallyExclusive("to", "before", "after")

	return cmd
}

func (c *CLI) rowListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List variable-height rows and where new rows may go",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openSession()
			if err != nil {
				return err
			}
			g, err := s.load(cmd.Context())
			if err != nil {
				return err
			}

			rows := g.VarHeightRows()
			if len(rows) == 0 {
				printInfo("No variable-height rows")
			}
			for _, row := range rows {
				printKeyValue(fmt.Sprintf("row %d", row.Y), "")
				for _, inst := range row.Instances {
					printDetail("%s (%s)", inst.ID, inst.TemplateID)
				}
			}

			var free []int
			for y := 0; y <= g.Height(); y++ {
				if g.CanAddVarHeight(y) {
					free = append(free, y)
				}
			}
			printDetail("Rows may be added at %v", free)
			return nil
		},
	}
}
