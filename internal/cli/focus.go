package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/schemalayout/pkg/errors"
	"github.com/matzehuels/schemalayout/pkg/graph"
	"github.com/matzehuels/schemalayout/pkg/pipeline"
)

// focusCommand creates the focus command.
func (c *CLI) focusCommand() *cobra.Command {
	var (
		flags  layoutFlags
		cflags cacheFlags
		output string
		node   string
	)

	cmd := &cobra.Command{
		Use:   "focus <schema>",
		Short: "Lay out one object and the objects it links to",
		Long: `Lay out one object and the objects it links to.

The focused object sits at the origin. Objects it links to are grouped by
the links they share and placed on half circles to its right and left,
then the links between them are routed.

Without --node an interactive picker lists the objects of the schema.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd, args[0], c.Logger)
			if err != nil {
				return err
			}
			return c.runFocus(cmd.Context(), opts, cflags, node, output)
		},
	}

	flags.register(cmd)
	cflags.register(cmd)
	cmd.Flags().StringVarP(&node, "node", "n", "", "object to focus on")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default: <schema>.<node>.focus.json)")

	return cmd
}

func (c *CLI) runFocus(ctx context.Context, opts pipeline.Options, cflags cacheFlags, node, output string) error {
	g, err := pipeline.Parse(ctx, opts)
	if err != nil {
		return err
	}

	if node == "" {
		if !isatty.IsTerminal(os.Stdin.Fd()) {
			return errors.New(errors.ErrCodeInvalidInput, "--node is required when stdin is not a terminal")
		}
		if node, err = pickObject(g); err != nil {
			return err
		}
		if node == "" {
			printInfo("No object selected")
			return nil
		}
	}

	runner, err := c.newRunner(ctx, opts, cflags)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	result, err := runner.Focus(ctx, g, node, opts)
	if err != nil {
		return err
	}

	if output == "" {
		output = defaultOutput(opts.Input, "."+node+".focus.json")
	}
	if err := c.writeOutput(result.Output(), output); err != nil {
		return err
	}

	printSuccess("Focused on %s", node)
	if output != "-" {
		printFile(output)
	}
	printStats(len(result.Positions), result.Stats.LinkCount, len(result.Layout.Errors), false, result.CacheInfo.RouteHit)
	return nil
}

// focusCandidates lists the object nodes of g for the picker.
func focusCandidates(g *graph.Graph) []objectItem {
	objects := g.ObjectNodes()
	items := make([]objectItem, 0, len(objects))
	for _, n := range objects {
		item := objectItem{ID: n.ID, Label: n.DisplayLabel()}
		for _, id := range n.Links {
			l, ok := g.Link(id)
			if !ok {
				continue
			}
			if l.Kind == graph.LinkInherit {
				item.Bases = append(item.Bases, l.Targets...)
			} else if !l.IsSelf() {
				item.Relations++
			}
		}
		items = append(items, item)
	}
	return items
}
