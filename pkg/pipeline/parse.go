package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/matzehuels/schemalayout/pkg/errors"
	"github.com/matzehuels/schemalayout/pkg/graph"
	"github.com/matzehuels/schemalayout/pkg/observability"
	"github.com/matzehuels/schemalayout/pkg/schema"
)

// Parse reads the schema named by opts.Input and builds its layout graph.
func Parse(ctx context.Context, opts Options) (*graph.Graph, error) {
	if opts.Input == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "input file is required")
	}
	if err := errors.ValidatePath(opts.Input); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, opts.Format, opts.Input)
	start := time.Now()

	g, err := parse(opts)

	nodes := 0
	if g != nil {
		nodes = g.NodeCount()
	}
	hooks.OnParseComplete(ctx, opts.Format, opts.Input, nodes, time.Since(start), err)
	return g, err
}

func parse(opts Options) (*graph.Graph, error) {
	s, err := readSchema(opts.Input, opts.Format)
	if err != nil {
		return nil, err
	}
	return schema.Build(s, schema.BuildOptions{
		GridUnit: opts.GridUnit,
		Include:  opts.Include,
	})
}

// readSchema honours an explicit format and otherwise goes by extension.
func readSchema(path, format string) (*schema.Schema, error) {
	if format == "" {
		return schema.ReadFile(path)
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "schema file %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return schema.Read(f, format)
}
