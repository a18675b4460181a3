// Package force wraps initial node placement behind a narrow interface.
//
// A [Placer] turns node sizes and an edge list into rectangles with no
// constraint other than "connected nodes end up near each other". Two
// backends are provided: [EadesPlacer], a spring embedder from gonum, and
// [GraphvizPlacer], which runs the Graphviz fdp engine. Their output is
// refined with [Deoverlap] and [SnapToGrid] before routing.
package force

import (
	"context"
	"fmt"

	"github.com/matzehuels/schemalayout/pkg/graph"
)

// Placer names.
const (
	PlacerEades    = "eades"
	PlacerGraphviz = "fdp"
)

// Edge connects two node ids.
type Edge struct {
	From string
	To   string
}

// Placer computes initial rectangles. Input rectangles carry the node sizes
// and, when known, previous positions. The output keeps input order and sizes.
type Placer interface {
	Place(ctx context.Context, nodes []graph.NodePosition, edges []Edge) ([]graph.NodePosition, error)
}

// New returns the placer registered under name.
func New(name string, seed uint64) (Placer, error) {
	switch name {
	case "", PlacerEades:
		return &EadesPlacer{Seed: seed}, nil
	case PlacerGraphviz:
		return &GraphvizPlacer{Seed: seed}, nil
	}
	return nil, fmt.Errorf("unknown placer %q", name)
}

// ValidPlacers lists the placer names accepted by [New].
func ValidPlacers() []string { return []string{PlacerEades, PlacerGraphviz} }

// indexOf maps node ids to input positions.
func indexOf(nodes []graph.NodePosition) map[string]int {
	idx := make(map[string]int, len(nodes))
	for i, n := range nodes {
		idx[n.ID] = i
	}
	return idx
}
