package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/schemalayout/pkg/pipeline"
	"github.com/matzehuels/schemalayout/pkg/worker"
)

// maxListedFailures caps the unroutable links printed after a layout.
const maxListedFailures = 10

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags  layoutFlags
		cflags cacheFlags
		output string
		remote string
	)

	cmd := &cobra.Command{
		Use:   "layout <schema>",
		Short: "Place objects and route links for a schema",
		Long: `Place the objects of a schema and route its links.

The schema is a JSON or YAML file listing objects with their name, the
objects they inherit from and their named links. Objects are placed by a
force-directed placer and snapped to the grid, then inheritance links,
relation links and self links are routed in that order.

The output is a JSON document with every node, link and position plus the
routed paths and the links that could not be routed.

Results are cached, so unchanged schemas are laid out instantly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd, args[0], c.Logger)
			if err != nil {
				return err
			}
			if output == "" {
				output = defaultOutput(args[0], ".layout.json")
			}
			if remote != "" {
				return c.runRemoteLayout(cmd.Context(), opts, remote, output)
			}
			return c.runLayout(cmd.Context(), opts, cflags, output)
		},
	}

	flags.register(cmd)
	cflags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default: <schema>.layout.json)")
	cmd.Flags().StringVar(&remote, "remote", "", "lay out on a schemalayout server at this URL")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, cflags cacheFlags, output string) error {
	runner, err := c.newRunner(ctx, opts, cflags)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinner(ctx, "Laying out "+filepath.Base(opts.Input)+"...")
	spinner.Start()
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	return c.report(result, opts.Input, output)
}

// runRemoteLayout parses locally and sends both layout stages to a server.
func (c *CLI) runRemoteLayout(ctx context.Context, opts pipeline.Options, url, output string) error {
	g, err := pipeline.Parse(ctx, opts)
	if err != nil {
		return err
	}
	result := &pipeline.Result{Graph: g}
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.LinkCount = g.LinkCount()

	remoteOpts := opts
	remoteOpts.RedisURL = ""
	wopts := worker.Options{Options: remoteOpts}
	client := worker.NewHTTPClient(url, 0)

	p := newProgress(c.Logger)
	start := time.Now()
	if result.Positions, err = worker.LayoutObjectNodes(ctx, client, g, wopts); err != nil {
		return fmt.Errorf("remote place: %w", err)
	}
	result.Stats.PlaceTime = time.Since(start)

	start = time.Now()
	if result.Layout, err = worker.LayoutAndRouteLinks(ctx, client, g, result.Positions, wopts); err != nil {
		return fmt.Errorf("remote route: %w", err)
	}
	result.Stats.RouteTime = time.Since(start)
	p.done("Remote layout on " + url)

	return c.report(result, opts.Input, output)
}

// report writes the result and prints a summary.
func (c *CLI) report(result *pipeline.Result, input, output string) error {
	if err := c.writeOutput(result.Output(), output); err != nil {
		return err
	}

	printSuccess("Layout complete")
	if output != "-" {
		printFile(output)
	}
	printStats(len(result.Positions), result.Stats.LinkCount, len(result.Layout.Errors),
		result.CacheInfo.PlaceHit, result.CacheInfo.RouteHit)
	if result.Layout.UsedFallback {
		printDetail("inheritance links needed the fallback placement")
	}
	for i, f := range result.Layout.Errors {
		if i == maxListedFailures {
			printDetail("and %d more", len(result.Layout.Errors)-i)
			break
		}
		printWarning("%s", f)
	}
	printNewline()
	printNextStep("Focus on one object", appName+" focus "+input)
	return nil
}

// writeOutput encodes v as indented JSON to path, or to stdout for "-".
func (c *CLI) writeOutput(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	data = append(data, '\n')
	if path == "-" {
		_, err = c.out.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	return nil
}

// defaultOutput replaces the extension of input with suffix.
func defaultOutput(input, suffix string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + suffix
}
