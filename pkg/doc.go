// Package pkg holds the schemalayout libraries.
//
// # Overview
//
// Schemalayout lays out object schemas as diagrams. Objects become
// rectangles placed on a grid, and inheritance and relation links between
// them are routed as orthogonal paths that avoid the objects. The pkg
// directory is organized by stage:
//
//  1. [schema] - read schema files and build the layout graph
//  2. [graph] - nodes, links, positions and routes
//  3. [layout] - object placement and link routing
//  4. [pipeline] - orchestration with caching (schema → place → route)
//  5. [worker] - the request/response protocol over channels, stdio or HTTP
//
// Supporting packages are [cache], [errors], [observability] and [search].
//
// # Architecture
//
//	Schema file (JSON or YAML)
//	         ↓
//	    [schema] package (objects → graph.Graph)
//	         ↓
//	    [layout/force] package (initial placement, overlap removal, snapping)
//	         ↓
//	    [layout] package (grid, auxiliary nodes, inheritance → relation → self links)
//	         ↓
//	    routed paths + unroutable links
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/schemalayout/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, err := runner.Execute(ctx, pipeline.Options{Input: "shop.yaml"})
//	if err != nil {
//	    return err
//	}
//	for _, f := range result.Layout.Errors {
//	    fmt.Println("unroutable:", f.LinkID)
//	}
//
// Lower-level callers can run the stages themselves:
//
//	g, _ := schema.Build(s, schema.BuildOptions{})
//	placer, _ := force.New(force.PlacerEades, 42)
//	positions, _ := layout.LayoutObjectNodes(ctx, g, nil, placer, layout.DefaultOptions())
//	result := layout.LayoutAndRouteLinks(ctx, g, positions, layout.DefaultOptions())
//
// [schema]: https://pkg.go.dev/github.com/matzehuels/schemalayout/pkg/schema
// [graph]: https://pkg.go.dev/github.com/matzehuels/schemalayout/pkg/graph
// [layout]: https://pkg.go.dev/github.com/matzehuels/schemalayout/pkg/layout
// [layout/force]: https://pkg.go.dev/github.com/matzehuels/schemalayout/pkg/layout/force
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/schemalayout/pkg/pipeline
// [worker]: https://pkg.go.dev/github.com/matzehuels/schemalayout/pkg/worker
// [cache]: https://pkg.go.dev/github.com/matzehuels/schemalayout/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/schemalayout/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/schemalayout/pkg/observability
// [search]: https://pkg.go.dev/github.com/matzehuels/schemalayout/pkg/search
package pkg
