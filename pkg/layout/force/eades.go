package force

import (
	"context"
	"math"
	"slices"

	"golang.org/x/exp/rand"
	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/layout"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/matzehuels/schemalayout/pkg/graph"
)

// Default Eades parameters.
const (
	DefaultEadesUpdates   = 30
	DefaultEadesRepulsion = 1
	DefaultEadesRate      = 0.05
	DefaultEadesTheta     = 0.2
)

// EadesPlacer places nodes with the Eades spring embedder. Unit spring
// lengths are scaled to pixels by Spacing, or by the mean node diagonal when
// Spacing is zero. A fixed Seed makes the result reproducible. Input
// positions are ignored.
type EadesPlacer struct {
	Updates   int
	Repulsion float64
	Rate      float64
	Theta     float64
	Spacing   float64
	Seed      uint64
}

// Place implements [Placer].
func (p *EadesPlacer) Place(ctx context.Context, nodes []graph.NodePosition, edges []Edge) ([]graph.NodePosition, error) {
	out := make([]graph.NodePosition, len(nodes))
	copy(out, nodes)
	if len(nodes) == 0 {
		return out, nil
	}

	g := orderedGraph{UndirectedGraph: simple.NewUndirectedGraph()}
	for i := range nodes {
		g.AddNode(simple.Node(int64(i)))
		g.order = append(g.order, simple.Node(int64(i)))
	}
	idx := indexOf(nodes)
	for _, e := range edges {
		from, ok1 := idx[e.From]
		to, ok2 := idx[e.To]
		if !ok1 || !ok2 || from == to {
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(int64(from)), T: simple.Node(int64(to))})
	}

	eades := layout.EadesR2{
		Updates:   orDefault(p.Updates, DefaultEadesUpdates),
		Repulsion: orDefaultF(p.Repulsion, DefaultEadesRepulsion),
		Rate:      orDefaultF(p.Rate, DefaultEadesRate),
		Theta:     orDefaultF(p.Theta, DefaultEadesTheta),
		Src:       rand.NewSource(p.Seed),
	}
	o := layout.NewOptimizerR2(g, eades.Update)
	for o.Update() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	spacing := p.Spacing
	if spacing <= 0 {
		spacing = meanDiagonal(nodes)
	}
	for i := range out {
		c := o.Coord2(int64(i))
		out[i].X = c.X*spacing - out[i].Width/2
		out[i].Y = c.Y*spacing - out[i].Height/2
	}
	return out, nil
}

// orderedGraph iterates nodes by id. The spring embedder seeds initial
// coordinates in iteration order, so map order would make runs differ.
type orderedGraph struct {
	*simple.UndirectedGraph
	order []gonumgraph.Node
}

func (g orderedGraph) Nodes() gonumgraph.Nodes {
	return iterator.NewOrderedNodes(g.order)
}

func (g orderedGraph) From(id int64) gonumgraph.Nodes {
	nodes := gonumgraph.NodesOf(g.UndirectedGraph.From(id))
	slices.SortFunc(nodes, func(a, b gonumgraph.Node) int { return int(a.ID() - b.ID()) })
	return iterator.NewOrderedNodes(nodes)
}

func meanDiagonal(nodes []graph.NodePosition) float64 {
	var sum float64
	for _, n := range nodes {
		sum += math.Hypot(n.Width, n.Height)
	}
	return math.Max(sum/float64(len(nodes)), 1)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func orDefaultF(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}
